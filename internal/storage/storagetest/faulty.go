package storagetest

import (
	"errors"
	"sync"

	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
)

// ErrInjected is the driver error returned by a Faulty store.
var ErrInjected = errors.New("injected failure")

// Faulty wraps a Provider and fails selected calls on demand.
type Faulty struct {
	storage.Provider

	mu          sync.Mutex
	failPersist bool
	failReads   bool
	persists    int
}

func NewFaulty(p storage.Provider) *Faulty {
	return &Faulty{Provider: p}
}

// FailPersist makes Persist discard the batch and return a persistence error.
func (f *Faulty) FailPersist(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPersist = fail
}

// FailReads makes the day lookups fail.
func (f *Faulty) FailReads(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = fail
}

// Persists counts calls to Persist that had something staged.
func (f *Faulty) Persists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.persists
}

func (f *Faulty) Persist() error {
	f.mu.Lock()
	fail := f.failPersist
	if f.Provider.HasPendingChanges() {
		f.persists++
	}
	f.mu.Unlock()

	if fail {
		if b, ok := f.Provider.(interface{ Take() []storage.Op }); ok {
			b.Take()
		}
		return myerrors.NewPersistenceError("persist changes", ErrInjected)
	}
	return f.Provider.Persist()
}

func (f *Faulty) reading() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return myerrors.NewPersistenceError("read", ErrInjected)
	}
	return nil
}

func (f *Faulty) FindDiaryEntryByDayKey(dayKey string) (models.DiaryEntry, error) {
	if err := f.reading(); err != nil {
		return models.DiaryEntry{}, err
	}
	return f.Provider.FindDiaryEntryByDayKey(dayKey)
}

func (f *Faulty) FindTodosByDayKey(dayKey string) ([]models.TodoItem, error) {
	if err := f.reading(); err != nil {
		return nil, err
	}
	return f.Provider.FindTodosByDayKey(dayKey)
}
