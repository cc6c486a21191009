package storage

import (
	"fmt"
	"strings"
	"sync"

	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

// OpKind identifies a staged mutation.
type OpKind int

const (
	OpUpsertDiary OpKind = iota
	OpDeleteDiary
	OpUpsertTodo
	OpDeleteTodos
)

func (k OpKind) String() string {
	switch k {
	case OpUpsertDiary:
		return "upsert diary entry"
	case OpDeleteDiary:
		return "delete diary entry"
	case OpUpsertTodo:
		return "upsert todo"
	case OpDeleteTodos:
		return "delete todos"
	default:
		return "unknown"
	}
}

// Op is one staged mutation.
type Op struct {
	Kind  OpKind
	Diary models.DiaryEntry
	Todo  models.TodoItem
	IDs   []string
}

// Batch stages mutations until a store persists them. Backends embed it to
// get the staging half of Provider.
type Batch struct {
	mu  sync.Mutex
	ops []Op
}

func (b *Batch) stage(op Op) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
}

// UpsertDiaryEntry stages an insert-or-overwrite keyed by entry ID.
func (b *Batch) UpsertDiaryEntry(e models.DiaryEntry) error {
	if err := ValidateDiaryEntry(e); err != nil {
		return err
	}
	b.stage(Op{Kind: OpUpsertDiary, Diary: e})
	return nil
}

// DeleteDiaryEntry stages removal of a diary entry. Unknown IDs are ignored
// at persist time.
func (b *Batch) DeleteDiaryEntry(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("diary entry id is required")
	}
	b.stage(Op{Kind: OpDeleteDiary, IDs: []string{id}})
	return nil
}

// UpsertTodo stages an insert-or-overwrite keyed by item ID.
func (b *Batch) UpsertTodo(item models.TodoItem) error {
	if err := ValidateTodo(item); err != nil {
		return err
	}
	b.stage(Op{Kind: OpUpsertTodo, Todo: item})
	return nil
}

// DeleteTodo stages removal of a single todo item.
func (b *Batch) DeleteTodo(id string) error {
	return b.DeleteTodos([]string{id})
}

// DeleteTodos stages removal of several todo items at once.
func (b *Batch) DeleteTodos(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("todo id is required")
		}
	}
	b.stage(Op{Kind: OpDeleteTodos, IDs: append([]string(nil), ids...)})
	return nil
}

// HasPendingChanges reports whether anything is staged.
func (b *Batch) HasPendingChanges() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops) > 0
}

// Take removes and returns every staged op.
func (b *Batch) Take() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops := b.ops
	b.ops = nil
	return ops
}

// Writer applies ops to a backend, usually inside a transaction.
type Writer interface {
	UpsertDiaryEntry(models.DiaryEntry) error
	DeleteDiaryEntry(id string) error
	UpsertTodo(models.TodoItem) error
	DeleteTodos(ids []string) error
}

// Replay applies ops to w in order and stops at the first failure.
func Replay(ops []Op, w Writer) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case OpUpsertDiary:
			err = w.UpsertDiaryEntry(op.Diary)
		case OpDeleteDiary:
			err = w.DeleteDiaryEntry(op.IDs[0])
		case OpUpsertTodo:
			err = w.UpsertTodo(op.Todo)
		case OpDeleteTodos:
			err = w.DeleteTodos(op.IDs)
		default:
			err = fmt.Errorf("unknown op kind %d", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op.Kind, err)
		}
	}
	return nil
}

// ValidateDiaryEntry rejects entries a store must never hold.
func ValidateDiaryEntry(e models.DiaryEntry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("diary entry id is required")
	}
	if !daykey.Valid(e.DayKey) {
		return fmt.Errorf("diary entry %s: invalid day key %q", e.ID, e.DayKey)
	}
	if models.IsBlank(e.Content) {
		return fmt.Errorf("diary entry %s: content must not be blank", e.ID)
	}
	return nil
}

// ValidateTodo rejects items a store must never hold.
func ValidateTodo(item models.TodoItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("todo id is required")
	}
	if !daykey.Valid(item.DayKey) {
		return fmt.Errorf("todo %s: invalid day key %q", item.ID, item.DayKey)
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("todo %s: title must not be empty", item.ID)
	}
	if !item.Category.Valid() {
		return fmt.Errorf("todo %s: invalid category %q", item.ID, item.Category)
	}
	return nil
}
