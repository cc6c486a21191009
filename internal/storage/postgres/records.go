package postgres

import (
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
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
	if err := row.Scan(&e.ID, &e.DayKey, &e.Content, &e.Timestamp); err != nil {
		return models.DiaryEntry{}, err
	}
	return e, nil
}

func scanTodo(row scanner) (models.TodoItem, error) {
	var item models.TodoItem
	var category string
	var due sql.NullTime
	if err := row.Scan(&item.ID, &item.DayKey, &item.Title, &item.IsCompleted, &category, &due, &item.CreatedAt); err != nil {
		return models.TodoItem{}, err
	}
	item.Category = models.Category(category)
	if due.Valid {
		d := due.Time
		item.DueDate = &d
	}
	return item, nil
}

func (s *Store) FindDiaryEntryByDayKey(dayKey string) (models.DiaryEntry, error) {
	rows, err := s.db.Query("SELECT "+diaryColumns+" FROM diary_entries WHERE day_key = $1 LIMIT 2", dayKey)
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
	return entries, rows.Err()
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
	return s.queryTodos("SELECT "+todoColumns+" FROM todo_items WHERE day_key = $1 ORDER BY "+todoOrder, dayKey)
}

func (s *Store) GetAllTodos() ([]models.TodoItem, error) {
	return s.queryTodos("SELECT " + todoColumns + " FROM todo_items ORDER BY day_key ASC, " + todoOrder)
}

func (s *Store) GetDaySummaries(startKey, endKey string) ([]models.DaySummary, error) {
	rows, err := s.db.Query(`
		SELECT day_key, BOOL_OR(has_diary), SUM(total), SUM(done) FROM (
			SELECT day_key, TRUE AS has_diary, 0 AS total, 0 AS done
			FROM diary_entries WHERE day_key BETWEEN $1 AND $2
			UNION ALL
			SELECT day_key, FALSE, 1, CASE WHEN is_completed THEN 1 ELSE 0 END
			FROM todo_items WHERE day_key BETWEEN $1 AND $2
		) AS days
		GROUP BY day_key
		ORDER BY day_key ASC
	`, startKey, endKey)
	if err != nil {
		return nil, myerrors.NewPersistenceError("summarize days", err)
	}
	defer rows.Close()

	var out []models.DaySummary
	for rows.Next() {
		var s models.DaySummary
		if err := rows.Scan(&s.DayKey, &s.HasDiary, &s.TodoTotal, &s.TodoCompleted); err != nil {
			return nil, myerrors.NewPersistenceError("read day summary", err)
		}
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
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			day_key = EXCLUDED.day_key,
			content = EXCLUDED.content,
			timestamp = EXCLUDED.timestamp
	`, e.ID, e.DayKey, e.Content, e.Timestamp.UTC())
	return err
}

func (w txWriter) DeleteDiaryEntry(id string) error {
	_, err := w.tx.Exec("DELETE FROM diary_entries WHERE id = $1", id)
	return err
}

func (w txWriter) UpsertTodo(item models.TodoItem) error {
	var due sql.NullTime
	if item.DueDate != nil {
		due = sql.NullTime{Time: item.DueDate.UTC(), Valid: true}
	}
	_, err := w.tx.Exec(`
		INSERT INTO todo_items (id, day_key, title, is_completed, category, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			day_key = EXCLUDED.day_key,
			title = EXCLUDED.title,
			is_completed = EXCLUDED.is_completed,
			category = EXCLUDED.category,
			due_date = EXCLUDED.due_date,
			created_at = EXCLUDED.created_at
	`, item.ID, item.DayKey, item.Title, item.IsCompleted, string(item.Category), due, item.CreatedAt.UTC())
	return err
}

func (w txWriter) DeleteTodos(ids []string) error {
	_, err := w.tx.Exec("DELETE FROM todo_items WHERE id = ANY($1)", pq.Array(ids))
	return err
}
