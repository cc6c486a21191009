package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
)

const (
	diaryColumns = "id, day_key, content, timestamp"
	todoColumns  = "id, day_key, title, is_completed, category, due_date, created_at"
	todoOrder    = "is_completed ASC, created_at ASC, id ASC"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanDiaryEntry(row scanner) (models.DiaryEntry, error) {
	var e models.DiaryEntry
	var ts string
	if err := row.Scan(&e.ID, &e.DayKey, &e.Content, &ts); err != nil {
		return models.DiaryEntry{}, err
	}
	t, err := storage.ParseTimestamp(ts)
	if err != nil {
		return models.DiaryEntry{}, err
	}
	e.Timestamp = t
	return e, nil
}

func scanTodo(row scanner) (models.TodoItem, error) {
	var item models.TodoItem
	var completed int
	var category, created string
	var due sql.NullString
	if err := row.Scan(&item.ID, &item.DayKey, &item.Title, &completed, &category, &due, &created); err != nil {
		return models.TodoItem{}, err
	}
	item.IsCompleted = completed != 0
	item.Category = models.Category(category)

	createdAt, err := storage.ParseTimestamp(created)
	if err != nil {
		return models.TodoItem{}, err
	}
	item.CreatedAt = createdAt

	if due.Valid {
		d, err := storage.ParseTimestamp(due.String)
		if err != nil {
			return models.TodoItem{}, err
		}
		item.DueDate = &d
	}
	return item, nil
}

func (s *Store) FindDiaryEntryByDayKey(dayKey string) (models.DiaryEntry, error) {
	rows, err := s.db.Query("SELECT "+diaryColumns+" FROM diary_entries WHERE day_key = ? LIMIT 2", dayKey)
	if err != nil {
		return models.DiaryEntry{}, myerrors.NewPersistenceError("find diary entry", err)
	}
	defer rows.Close()

	var found []models.DiaryEntry
	for rows.Next() {
		e, err := scanDiaryEntry(rows)
		if err != nil {
			return models.DiaryEntry{}, myerrors.NewPersistenceError("read diary entry", err)
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return models.DiaryEntry{}, myerrors.NewPersistenceError("find diary entry", err)
	}

	switch len(found) {
	case 0:
		return models.DiaryEntry{}, myerrors.ErrNotFound
	case 1:
		return found[0], nil
	default:
		return models.DiaryEntry{}, fmt.Errorf("%w: %s", myerrors.ErrMultipleMatches, dayKey)
	}
}

func (s *Store) GetAllDiaryEntries() ([]models.DiaryEntry, error) {
	rows, err := s.db.Query("SELECT " + diaryColumns + " FROM diary_entries ORDER BY day_key ASC")
	if err != nil {
		return nil, myerrors.NewPersistenceError("list diary entries", err)
	}
	defer rows.Close()

	var entries []models.DiaryEntry
	for rows.Next() {
		e, err := scanDiaryEntry(rows)
		if err != nil {
			return nil, myerrors.NewPersistenceError("read diary entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, myerrors.NewPersistenceError("list diary entries", err)
	}
	return entries, nil
}

func (s *Store) queryTodos(query string, args ...any) ([]models.TodoItem, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, myerrors.NewPersistenceError("list todos", err)
	}
	defer rows.Close()

	items := []models.TodoItem{}
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, myerrors.NewPersistenceError("read todo", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, myerrors.NewPersistenceError("list todos", err)
	}
	return items, nil
}

func (s *Store) FindTodosByDayKey(dayKey string) ([]models.TodoItem, error) {
	return s.queryTodos("SELECT "+todoColumns+" FROM todo_items WHERE day_key = ? ORDER BY "+todoOrder, dayKey)
}

func (s *Store) GetAllTodos() ([]models.TodoItem, error) {
	return s.queryTodos("SELECT " + todoColumns + " FROM todo_items ORDER BY day_key ASC, " + todoOrder)
}

func (s *Store) GetDaySummaries(startKey, endKey string) ([]models.DaySummary, error) {
	rows, err := s.db.Query(`
		SELECT day_key, MAX(has_diary), SUM(total), SUM(done) FROM (
			SELECT day_key, 1 AS has_diary, 0 AS total, 0 AS done
			FROM diary_entries WHERE day_key BETWEEN ? AND ?
			UNION ALL
			SELECT day_key, 0, 1, CASE WHEN is_completed THEN 1 ELSE 0 END
			FROM todo_items WHERE day_key BETWEEN ? AND ?
		)
		GROUP BY day_key
		ORDER BY day_key ASC
	`, startKey, endKey, startKey, endKey)
	if err != nil {
		return nil, myerrors.NewPersistenceError("summarize days", err)
	}
	defer rows.Close()

	var out []models.DaySummary
	for rows.Next() {
		var s models.DaySummary
		var hasDiary int
		if err := rows.Scan(&s.DayKey, &hasDiary, &s.TodoTotal, &s.TodoCompleted); err != nil {
			return nil, myerrors.NewPersistenceError("read day summary", err)
		}
		s.HasDiary = hasDiary != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// txWriter applies staged ops inside a transaction.
type txWriter struct {
	tx *sql.Tx
}

func (w txWriter) UpsertDiaryEntry(e models.DiaryEntry) error {
	_, err := w.tx.Exec(`
		INSERT INTO diary_entries (id, day_key, content, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day_key = excluded.day_key,
			content = excluded.content,
			timestamp = excluded.timestamp
	`, e.ID, e.DayKey, e.Content, storage.FormatTimestamp(e.Timestamp))
	return err
}

func (w txWriter) DeleteDiaryEntry(id string) error {
	_, err := w.tx.Exec("DELETE FROM diary_entries WHERE id = ?", id)
	return err
}

func (w txWriter) UpsertTodo(item models.TodoItem) error {
	var due sql.NullString
	if item.DueDate != nil {
		due = sql.NullString{String: storage.FormatTimestamp(*item.DueDate), Valid: true}
	}
	completed := 0
	if item.IsCompleted {
		completed = 1
	}
	_, err := w.tx.Exec(`
		INSERT INTO todo_items (id, day_key, title, is_completed, category, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day_key = excluded.day_key,
			title = excluded.title,
			is_completed = excluded.is_completed,
			category = excluded.category,
			due_date = excluded.due_date,
			created_at = excluded.created_at
	`, item.ID, item.DayKey, item.Title, completed, string(item.Category), due, storage.FormatTimestamp(item.CreatedAt))
	return err
}

func (w txWriter) DeleteTodos(ids []string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := w.tx.Exec("DELETE FROM todo_items WHERE id IN ("+placeholders+")", args...)
	return err
}
