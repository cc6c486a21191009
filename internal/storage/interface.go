package storage

import "github.com/julianstephens/mydiary/internal/models"

// Provider is the record store shared by the diary and todo controllers.
//
// Mutations are staged and only reach durable storage on Persist. Reads
// always see durable state, so callers persist before refetching.
// A Provider is not safe for concurrent writers.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings are written immediately, outside the staged batch.
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Diary entries
	UpsertDiaryEntry(models.DiaryEntry) error
	DeleteDiaryEntry(id string) error
	// FindDiaryEntryByDayKey returns errors.ErrNotFound when the day has no
	// entry and errors.ErrMultipleMatches if more than one entry exists.
	FindDiaryEntryByDayKey(dayKey string) (models.DiaryEntry, error)
	GetAllDiaryEntries() ([]models.DiaryEntry, error)

	// Todo items
	UpsertTodo(models.TodoItem) error
	DeleteTodo(id string) error
	DeleteTodos(ids []string) error
	// FindTodosByDayKey returns the day's items ordered pending first, then
	// by creation time.
	FindTodosByDayKey(dayKey string) ([]models.TodoItem, error)
	GetAllTodos() ([]models.TodoItem, error)

	// GetDaySummaries aggregates the days in [startKey, endKey] that hold
	// a diary entry or at least one todo item.
	GetDaySummaries(startKey, endKey string) ([]models.DaySummary, error)

	// Persist commits every staged change in order. The staged batch is
	// discarded whether or not the commit succeeds; failures are returned
	// as *errors.PersistenceError.
	Persist() error
	HasPendingChanges() bool

	// Utils
	GetConfigPath() string
}
