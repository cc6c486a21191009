package diskv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
	"github.com/julianstephens/mydiary/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) *Store {
	store := New(filepath.Join(t.TempDir(), "data"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store
}

func TestProviderContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		return setupTestStore(t)
	})
}

func TestKeyTransforms(t *testing.T) {
	tests := []struct {
		key      string
		path     []string
		fileName string
	}{
		{"diary/2025-01-01/abc", []string{"diary", "2025-01-01"}, "abc"},
		{"meta/settings", []string{"meta"}, "settings"},
		{"todo/2025-01-01/", []string{"todo", "2025-01-01"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			pk := keyToPathTransform(tt.key)
			if pk.FileName != tt.fileName {
				t.Errorf("FileName = %q, want %q", pk.FileName, tt.fileName)
			}
			if len(pk.Path) != len(tt.path) {
				t.Fatalf("Path = %v, want %v", pk.Path, tt.path)
			}
			for i := range tt.path {
				if pk.Path[i] != tt.path[i] {
					t.Errorf("Path[%d] = %q, want %q", i, pk.Path[i], tt.path[i])
				}
			}
			if tt.fileName != "" {
				if back := pathToKeyTransform(pk); back != tt.key {
					t.Errorf("inverse = %q, want %q", back, tt.key)
				}
			}
		})
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	if err := store.Load(); err == nil {
		t.Fatal("expected Load to fail before Init")
	}

	dir := t.TempDir()
	if err := New(dir).Load(); err == nil {
		t.Fatal("expected Load to fail on a directory without settings")
	}
}

func TestReopenKeepsData(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data")
	store := New(base)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	_ = store.UpsertTodo(models.TodoItem{ID: "t1", DayKey: "2025-01-01", Title: "kept", Category: models.CategoryStudy, CreatedAt: time.Now()})
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	store.Close()

	reopened := New(base)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	items, err := reopened.FindTodosByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "kept" {
		t.Errorf("unexpected items: %+v", items)
	}
	if _, err := os.Stat(filepath.Join(base, "todo", "2025-01-01", "t1")); err != nil {
		t.Errorf("expected record file on disk: %v", err)
	}
}

func TestMovingTodoToAnotherDayDropsOldFile(t *testing.T) {
	store := setupTestStore(t)
	item := models.TodoItem{ID: "t1", DayKey: "2025-01-01", Title: "move me", Category: models.CategoryOther, CreatedAt: time.Now()}
	_ = store.UpsertTodo(item)
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	item.DayKey = "2025-01-02"
	_ = store.UpsertTodo(item)
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	old, _ := store.FindTodosByDayKey("2025-01-01")
	moved, _ := store.FindTodosByDayKey("2025-01-02")
	if len(old) != 0 || len(moved) != 1 {
		t.Errorf("expected the item only under the new day, got old=%d new=%d", len(old), len(moved))
	}
}

func TestTwoEntriesOnOneDayAreAmbiguous(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()
	_ = store.UpsertDiaryEntry(models.DiaryEntry{ID: "e1", DayKey: "2025-01-01", Content: "one", Timestamp: now})
	_ = store.UpsertDiaryEntry(models.DiaryEntry{ID: "e2", DayKey: "2025-01-01", Content: "two", Timestamp: now})
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	_, err := store.FindDiaryEntryByDayKey("2025-01-01")
	if !errors.Is(err, myerrors.ErrMultipleMatches) {
		t.Errorf("expected ErrMultipleMatches, got %v", err)
	}
}

func TestPersistRejectsSlashInID(t *testing.T) {
	store := setupTestStore(t)
	_ = store.UpsertTodo(models.TodoItem{ID: "a/b", DayKey: "2025-01-01", Title: "bad", Category: models.CategoryOther, CreatedAt: time.Now()})

	err := store.Persist()
	if !errors.Is(err, myerrors.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

func TestPersistOnClosedStore(t *testing.T) {
	store := setupTestStore(t)
	store.Close()

	_ = store.UpsertTodo(models.TodoItem{ID: "t1", DayKey: "2025-01-01", Title: "T", Category: models.CategoryOther, CreatedAt: time.Now()})
	if err := store.Persist(); !errors.Is(err, myerrors.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

func TestCorruptRecordIsReported(t *testing.T) {
	tests := []struct {
		name string
		path []string
		read func(s *Store) error
	}{
		{
			name: "todo",
			path: []string{"todo", "2025-01-01", "t1"},
			read: func(s *Store) error {
				_, err := s.FindTodosByDayKey("2025-01-01")
				return err
			},
		},
		{
			name: "all todos",
			path: []string{"todo", "2025-01-01", "t1"},
			read: func(s *Store) error {
				_, err := s.GetAllTodos()
				return err
			},
		},
		{
			name: "diary entries",
			path: []string{"diary", "2025-01-01", "e1"},
			read: func(s *Store) error {
				_, err := s.GetAllDiaryEntries()
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			file := filepath.Join(append([]string{store.GetConfigPath()}, tt.path...)...)
			if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
				t.Fatalf("failed to create record dir: %v", err)
			}
			if err := os.WriteFile(file, []byte("{not json"), 0600); err != nil {
				t.Fatalf("failed to write record: %v", err)
			}

			if err := tt.read(store); !errors.Is(err, myerrors.ErrPersistence) {
				t.Errorf("expected persistence error, got %v", err)
			}
		})
	}
}

func TestReadsOnClosedStore(t *testing.T) {
	store := setupTestStore(t)
	store.Close()

	if _, err := store.FindDiaryEntryByDayKey("2025-01-01"); !errors.Is(err, myerrors.ErrPersistence) {
		t.Errorf("FindDiaryEntryByDayKey: expected persistence error, got %v", err)
	}
	if _, err := store.FindTodosByDayKey("2025-01-01"); !errors.Is(err, myerrors.ErrPersistence) {
		t.Errorf("FindTodosByDayKey: expected persistence error, got %v", err)
	}
	if _, err := store.GetAllDiaryEntries(); !errors.Is(err, myerrors.ErrPersistence) {
		t.Errorf("GetAllDiaryEntries: expected persistence error, got %v", err)
	}
	if _, err := store.GetSettings(); !errors.Is(err, myerrors.ErrPersistence) {
		t.Errorf("GetSettings: expected persistence error, got %v", err)
	}
}
