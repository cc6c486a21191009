package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/mydiary/internal/backup"
	"github.com/julianstephens/mydiary/internal/config"
	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/diary"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/migration"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/selection"
	"github.com/julianstephens/mydiary/internal/storage"
	"github.com/julianstephens/mydiary/internal/storage/diskv"
	"github.com/julianstephens/mydiary/internal/storage/postgres"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
	"github.com/julianstephens/mydiary/internal/todo"
)

type Context struct {
	Store     storage.Provider
	Config    *config.Config
	Database  config.Database
	ConfigDir string
	Debug     bool

	// Stdout and Stdin default to the process streams.
	Stdout io.Writer
	Stdin  io.Reader
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Migrator is implemented by the SQL stores.
type Migrator interface {
	Migrate() error
	MigrationStatus() (migration.Status, error)
}

// OpenStore picks the backend for a resolved database location. Connection
// strings that did not come from the environment or the keyring must not
// carry a password.
func OpenStore(db config.Database) (storage.Provider, error) {
	loc := db.Location
	switch {
	case postgres.IsConnString(loc) || strings.Contains(loc, "host="):
		if !db.Trusted() {
			if valid, err := postgres.ValidateConnString(loc); !valid {
				return nil, err
			}
		}
		return postgres.New(loc), nil
	case strings.HasPrefix(loc, constants.DiskvPrefix):
		dir := strings.TrimPrefix(loc, constants.DiskvPrefix)
		if dir == "" {
			return nil, errors.New("diskv location needs a directory, e.g. diskv:~/.config/mydiary/data")
		}
		return diskv.New(dir), nil
	default:
		return sqlite.NewStore(loc), nil
	}
}

// SetMigrationLog routes migration progress of the SQL stores to fn.
func SetMigrationLog(store storage.Provider, fn func(string)) {
	switch s := store.(type) {
	case *sqlite.Store:
		s.MigrationLog = fn
	case *postgres.Store:
		s.MigrationLog = fn
	}
}

func (c *Context) Out() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Context) In() io.Reader {
	if c.Stdin == nil {
		return os.Stdin
	}
	return c.Stdin
}

// Clock returns the current instant.
func (c *Context) Clock() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Context) newID() string {
	if c.NewID == nil {
		return uuid.NewString()
	}
	return c.NewID()
}

// IDGenerator returns the generator used for new records.
func (c *Context) IDGenerator() func() string {
	return c.newID
}

// Settings returns the store settings with config file defaults applied.
func (c *Context) Settings() (models.Settings, error) {
	s, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return c.Config.Effective(s), nil
}

// Location returns the timezone "today" is computed in.
func (c *Context) Location() (*time.Location, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return daykey.LoadLocation(s.Timezone)
}

// ResolveDate parses a command-line date ("today", "yesterday",
// "tomorrow" or YYYY-MM-DD) in the configured timezone.
func (c *Context) ResolveDate(s string) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return daykey.ResolveDate(s, loc, c.Clock())
}

// Day is a date selection with both controllers following it.
type Day struct {
	Sel   *selection.Date
	Todos *todo.Controller
	Diary *diary.Controller
}

// OpenDay builds the controllers for the given command-line date.
func (c *Context) OpenDay(date string) (*Day, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	loc, err := daykey.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}
	t, err := daykey.ResolveDate(date, loc, c.Clock())
	if err != nil {
		return nil, err
	}

	sel := selection.New(loc, selection.WithNow(c.Clock))
	sel.Select(t)
	return &Day{
		Sel:   sel,
		Todos: todo.New(c.Store, sel, todo.WithClock(c.Clock), todo.WithIDGenerator(c.newID)),
		Diary: diary.New(c.Store, sel,
			diary.WithClock(c.Clock),
			diary.WithIDGenerator(c.newID),
			diary.WithDelay(settings.AutosaveDelay()),
		),
	}, nil
}

// LoadErr reports a failed initial load of either controller.
func (d *Day) LoadErr() error {
	if err := d.Todos.Err(); err != nil {
		return fmt.Errorf("%s %w", d.Todos.ErrorMessage(), err)
	}
	if err := d.Diary.Err(); err != nil {
		return fmt.Errorf("%s %w", d.Diary.ErrorMessage(), err)
	}
	return nil
}

// FindTodo resolves ref to an item of the day's list. ref is a 1-based
// position as printed by "todo list", a full ID or a unique ID prefix.
// The returned position is 0-based.
func (d *Day) FindTodo(ref string) (models.TodoItem, int, error) {
	items := d.Todos.Items()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return models.TodoItem{}, 0, fmt.Errorf("no todo at position %d on %s (%d items)", n, d.Sel.Key(), len(items))
		}
		return items[n-1], n - 1, nil
	}

	match := -1
	for i, item := range items {
		if item.ID == ref {
			return item, i, nil
		}
		if strings.HasPrefix(item.ID, ref) {
			if match >= 0 {
				return models.TodoItem{}, 0, fmt.Errorf("todo ID prefix %q is ambiguous", ref)
			}
			match = i
		}
	}
	if match < 0 {
		return models.TodoItem{}, 0, fmt.Errorf("todo not found on %s: %s", d.Sel.Key(), ref)
	}
	return items[match], match, nil
}

// Close flushes a pending diary save and detaches the controllers.
func (d *Day) Close() error {
	err := d.Diary.Flush()
	d.Diary.Close()
	d.Todos.Close()
	return err
}

// SQLitePath returns the database file when the store is SQLite. Backups
// only exist for SQLite stores.
func (c *Context) SQLitePath() (string, bool) {
	s, ok := c.Store.(*sqlite.Store)
	if !ok {
		return "", false
	}
	return s.GetConfigPath(), true
}

func (c *Context) backupManager() (*backup.Manager, error) {
	path, ok := c.SQLitePath()
	if !ok {
		return nil, errors.New("backups are only supported for SQLite databases")
	}
	return backup.NewManager(path, backup.WithClock(c.Clock)), nil
}

// BackupManager returns the backup manager of a SQLite store.
func (c *Context) BackupManager() (*backup.Manager, error) {
	return c.backupManager()
}

// PerformAutomaticBackup creates a backup when [backup] auto is enabled
// and the newest backup is older than the configured interval. Errors are
// logged, not returned.
func (c *Context) PerformAutomaticBackup() {
	if c.Config == nil || !c.Config.Backup.Auto {
		return
	}
	mgr, err := c.backupManager()
	if err != nil {
		return
	}
	path, err := mgr.AutoBackup(c.Config.BackupInterval())
	if err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
		return
	}
	if path != "" {
		logger.Info("Automatic backup created", "path", path)
	}
}

// BackupBeforeChange snapshots a SQLite store ahead of a bulk change and
// returns the backup path, or "" for other stores.
func (c *Context) BackupBeforeChange() (string, error) {
	mgr, err := c.backupManager()
	if err != nil {
		return "", nil
	}
	path, err := mgr.CreateBackup()
	if err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	return path, nil
}

// Confirm asks a yes/no question on Out and reads the answer from In.
func (c *Context) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.Out(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(c.In())
	response, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
