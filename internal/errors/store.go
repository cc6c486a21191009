package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by lookups that matched nothing. It is a valid
	// empty result, not a failure.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleMatches is returned when more than one diary entry shares a
	// day key. The store never writes such state itself.
	ErrMultipleMatches = errors.New("multiple records match day key")

	// ErrInvalidFormat is returned when a day key is not a valid YYYY-MM-DD date.
	ErrInvalidFormat = errors.New("invalid day key format")

	// ErrPersistence matches every *PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err unless it is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
