// Package diskv is a flat-file Provider backed by peterbourgon/diskv.
//
// Records live under <base>/diary/<day>/<id> and <base>/todo/<day>/<id> as
// JSON documents. Persist applies staged ops one file at a time, so unlike
// the SQL backends a failed Persist may leave earlier ops applied, and
// nothing stops two diary entries from sharing a day.
package diskv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
)

const (
	diaryCollection = "diary"
	todoCollection  = "todo"
	settingsKey     = "meta/settings"
)

var errClosed = errors.New("store is closed")

type Store struct {
	storage.Batch

	basePath string
	d        *diskv.Diskv
}

func New(basePath string) *Store {
	return &Store{
		basePath: basePath,
	}
}

func keyToPathTransform(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s/%s", strings.Join(pathKey.Path, "/"), pathKey.FileName)
}

func recordKey(collection, dayKey, id string) string {
	return fmt.Sprintf("%s/%s/%s", collection, dayKey, id)
}

func (s *Store) open() {
	s.d = diskv.New(diskv.Options{
		BasePath:          s.basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.basePath, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if s.d == nil {
		s.open()
	}

	if _, err := s.GetSettings(); err != nil {
		if err := s.SaveSettings(models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}
	return nil
}

func (s *Store) Load() error {
	if s.d != nil {
		return nil
	}
	if _, err := os.Stat(s.basePath); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'mydiary init' first")
	}
	s.open()
	if !s.d.Has(settingsKey) {
		s.d = nil
		return fmt.Errorf("storage not initialized, run 'mydiary init' first")
	}
	return nil
}

func (s *Store) Close() error {
	s.d = nil
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.basePath
}

func (s *Store) GetSettings() (models.Settings, error) {
	if s.d == nil {
		return models.Settings{}, myerrors.NewPersistenceError("read settings", errClosed)
	}
	data, err := s.d.Read(settingsKey)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Settings{}, fmt.Errorf("settings not found")
		}
		return models.Settings{}, err
	}
	rows := map[string]string{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return storage.SettingsFromRows(rows)
}

func (s *Store) SaveSettings(settings models.Settings) error {
	if s.d == nil {
		return myerrors.NewPersistenceError("save settings", errClosed)
	}
	data, err := json.Marshal(storage.SettingsToRows(settings))
	if err != nil {
		return err
	}
	return s.d.Write(settingsKey, data)
}

// keys collects every key under prefix, sorted.
func (s *Store) keys(prefix string) []string {
	cancel := make(chan struct{})
	defer close(cancel)

	var keys []string
	for key := range s.d.KeysPrefix(prefix, cancel) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// keysForID finds every key in collection whose file name is id.
func (s *Store) keysForID(collection, id string) []string {
	var out []string
	for _, key := range s.keys(collection + "/") {
		if keyToPathTransform(key).FileName == id {
			out = append(out, key)
		}
	}
	return out
}

func (s *Store) readDiary(key string) (models.DiaryEntry, error) {
	var e models.DiaryEntry
	data, err := s.d.Read(key)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("%s: %w", key, err)
	}
	return e, nil
}

func (s *Store) readTodo(key string) (models.TodoItem, error) {
	var item models.TodoItem
	data, err := s.d.Read(key)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("%s: %w", key, err)
	}
	return item, nil
}

func (s *Store) FindDiaryEntryByDayKey(dayKey string) (models.DiaryEntry, error) {
	if s.d == nil {
		return models.DiaryEntry{}, myerrors.NewPersistenceError("read diary entry", errClosed)
	}
	keys := s.keys(diaryCollection + "/" + dayKey + "/")
	switch len(keys) {
	case 0:
		return models.DiaryEntry{}, myerrors.ErrNotFound
	case 1:
		e, err := s.readDiary(keys[0])
		if err != nil {
			return models.DiaryEntry{}, myerrors.NewPersistenceError("read diary entry", err)
		}
		return e, nil
	default:
		return models.DiaryEntry{}, fmt.Errorf("%w: %s", myerrors.ErrMultipleMatches, dayKey)
	}
}

func (s *Store) GetAllDiaryEntries() ([]models.DiaryEntry, error) {
	if s.d == nil {
		return nil, myerrors.NewPersistenceError("list diary entries", errClosed)
	}
	var entries []models.DiaryEntry
	for _, key := range s.keys(diaryCollection + "/") {
		e, err := s.readDiary(key)
		if err != nil {
			return nil, myerrors.NewPersistenceError("read diary entry", err)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DayKey < entries[j].DayKey
	})
	return entries, nil
}

func (s *Store) todosWithPrefix(prefix string) ([]models.TodoItem, error) {
	if s.d == nil {
		return nil, myerrors.NewPersistenceError("list todos", errClosed)
	}
	items := []models.TodoItem{}
	for _, key := range s.keys(prefix) {
		item, err := s.readTodo(key)
		if err != nil {
			return nil, myerrors.NewPersistenceError("read todo", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) FindTodosByDayKey(dayKey string) ([]models.TodoItem, error) {
	items, err := s.todosWithPrefix(todoCollection + "/" + dayKey + "/")
	if err != nil {
		return nil, err
	}
	models.SortTodos(items)
	return items, nil
}

func (s *Store) GetAllTodos() ([]models.TodoItem, error) {
	items, err := s.todosWithPrefix(todoCollection + "/")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayKey != items[j].DayKey {
			return items[i].DayKey < items[j].DayKey
		}
		return models.TodoLess(items[i], items[j])
	})
	return items, nil
}

func (s *Store) GetDaySummaries(startKey, endKey string) ([]models.DaySummary, error) {
	entries, err := s.GetAllDiaryEntries()
	if err != nil {
		return nil, err
	}
	todos, err := s.GetAllTodos()
	if err != nil {
		return nil, err
	}
	return storage.Summarize(entries, todos, startKey, endKey), nil
}

// Persist applies staged ops in order. Ops before a failure stay applied.
func (s *Store) Persist() error {
	ops := s.Take()
	if len(ops) == 0 {
		return nil
	}
	if s.d == nil {
		return myerrors.NewPersistenceError("persist changes", errClosed)
	}
	if err := storage.Replay(ops, writer{s: s}); err != nil {
		return myerrors.NewPersistenceError("persist changes", err)
	}
	logger.Debug("Persisted changes", "ops", len(ops))
	return nil
}

type writer struct {
	s *Store
}

func checkID(id string) error {
	if strings.Contains(id, "/") {
		return fmt.Errorf("id %q must not contain '/'", id)
	}
	return nil
}

// put writes data at key and removes stale copies of the same id filed
// under another day.
func (w writer) put(collection, dayKey, id string, v any) error {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	key := recordKey(collection, dayKey, id)
	if err := w.s.d.Write(key, data); err != nil {
		return err
	}
	for _, old := range w.s.keysForID(collection, id) {
		if old != key {
			if err := w.s.d.Erase(old); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

func (w writer) erase(collection, id string) error {
	for _, key := range w.s.keysForID(collection, id) {
		if err := w.s.d.Erase(key); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (w writer) UpsertDiaryEntry(e models.DiaryEntry) error {
	return w.put(diaryCollection, e.DayKey, e.ID, e)
}

func (w writer) DeleteDiaryEntry(id string) error {
	return w.erase(diaryCollection, id)
}

func (w writer) UpsertTodo(item models.TodoItem) error {
	return w.put(todoCollection, item.DayKey, item.ID, item)
}

func (w writer) DeleteTodos(ids []string) error {
	for _, id := range ids {
		if err := w.erase(todoCollection, id); err != nil {
			return err
		}
	}
	return nil
}
