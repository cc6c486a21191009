// Package diary edits the diary entry of the selected day and autosaves it
// after a quiet period.
package diary

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/debounce"
	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/selection"
	"github.com/julianstephens/mydiary/internal/storage"
)

const (
	MsgLoadFailed = "Failed to load diary."
	MsgSaveFailed = "Save failed. Please try again."
)

type Controller struct {
	mu    sync.Mutex
	store storage.Provider
	sel   *selection.Date
	now   func() time.Time
	newID func() string
	deb   *debounce.Debouncer

	dayKey    string
	content   string
	entryID   string
	lastSaved time.Time
	hasSaved  bool
	dirty     bool

	err         error
	errMsg      string
	unsubscribe func()
}

type config struct {
	delay     time.Duration
	afterFunc debounce.AfterFunc
	now       func() time.Time
	newID     func() string
}

type Option func(*config)

// WithDelay sets the autosave quiet period.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithAfterFunc replaces the autosave timer.
func WithAfterFunc(af debounce.AfterFunc) Option {
	return func(c *config) {
		c.afterFunc = af
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *config) {
		c.newID = newID
	}
}

// New creates a controller for the day held by sel and loads its entry.
func New(store storage.Provider, sel *selection.Date, opts ...Option) *Controller {
	cfg := config{
		delay: constants.AutosaveDelay,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var debOpts []debounce.Option
	if cfg.afterFunc != nil {
		debOpts = append(debOpts, debounce.WithAfterFunc(cfg.afterFunc))
	}

	c := &Controller{
		store: store,
		sel:   sel,
		now:   cfg.now,
		newID: cfg.newID,
		deb:   debounce.New(cfg.delay, debOpts...),
	}
	c.unsubscribe = sel.Subscribe(c.onDateChange)
	c.Load()
	return c
}

// onDateChange saves the day being left and loads the new one.
func (c *Controller) onDateChange(_, next time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deb.Cancel()
	_ = c.saveLocked()
	c.loadLocked(daykey.Key(next))
}

// SelectDate switches the shared selection to t. The current day is saved
// first.
func (c *Controller) SelectDate(t time.Time) {
	c.sel.Select(t)
}

// Load reads the entry of the selected day, dropping any unsaved edits.
func (c *Controller) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deb.Cancel()
	c.loadLocked(c.sel.Key())
}

func (c *Controller) resetLocked(dayKey string) {
	c.dayKey = dayKey
	c.content = ""
	c.entryID = ""
	c.lastSaved = time.Time{}
	c.hasSaved = false
	c.dirty = false
}

func (c *Controller) loadLocked(dayKey string) {
	c.resetLocked(dayKey)

	entry, err := c.store.FindDiaryEntryByDayKey(dayKey)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			if c.errMsg == MsgLoadFailed {
				c.clearErrorLocked()
			}
			return
		}
		logger.Error("Failed to load diary", "day", dayKey, "error", err)
		c.setErrorLocked(err, MsgLoadFailed)
		return
	}

	c.content = entry.Content
	c.entryID = entry.ID
	c.lastSaved = entry.Timestamp
	c.hasSaved = true
	if c.errMsg == MsgLoadFailed {
		c.clearErrorLocked()
	}
}

// SetContent replaces the in-memory text without saving it.
func (c *Controller) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if content != c.content {
		c.content = content
		c.dirty = true
	}
}

// Edit replaces the text and schedules an autosave.
func (c *Controller) Edit(content string) {
	c.SetContent(content)
	c.ScheduleSave()
}

// Save writes the current text now. Blank text removes the day's entry.
func (c *Controller) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deb.Cancel()
	return c.saveLocked()
}

func (c *Controller) saveLocked() error {
	now := c.now()

	if models.IsBlank(c.content) {
		if c.entryID != "" {
			if err := c.store.DeleteDiaryEntry(c.entryID); err != nil {
				return err
			}
		}
		if err := c.persistLocked(); err != nil {
			return err
		}
		c.entryID = ""
		c.lastSaved = time.Time{}
		c.hasSaved = false
		c.dirty = false
		logger.Debug("Cleared diary entry", "day", c.dayKey)
		return nil
	}

	id := c.entryID
	if id == "" {
		id = c.newID()
	}
	entry := models.DiaryEntry{
		ID:        id,
		DayKey:    c.dayKey,
		Content:   c.content,
		Timestamp: now,
	}
	if err := c.store.UpsertDiaryEntry(entry); err != nil {
		return err
	}
	if err := c.persistLocked(); err != nil {
		return err
	}
	c.entryID = id
	c.lastSaved = now
	c.hasSaved = true
	c.dirty = false
	logger.Debug("Saved diary entry", "day", c.dayKey, "id", id)
	return nil
}

// persistLocked commits staged changes. A failure keeps the text in memory
// so the user can retry.
func (c *Controller) persistLocked() error {
	if err := c.store.Persist(); err != nil {
		logger.Error("Failed to save diary", "day", c.dayKey, "error", err)
		c.setErrorLocked(err, MsgSaveFailed)
		return err
	}
	c.clearErrorLocked()
	return nil
}

// ScheduleSave saves after the quiet period unless another edit comes first.
// The save uses whatever text is current when the timer fires.
func (c *Controller) ScheduleSave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var tok debounce.Token
	tok = c.deb.Schedule(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.deb.Valid(tok) {
			return
		}
		c.deb.Cancel()
		logger.Debug("Autosaving diary", "day", c.dayKey)
		_ = c.saveLocked()
	})
}

// Flush runs a pending autosave immediately.
func (c *Controller) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.deb.Pending() {
		return nil
	}
	c.deb.Cancel()
	return c.saveLocked()
}

// Close cancels any pending autosave and stops following the selection.
// Call Flush first to keep pending edits.
func (c *Controller) Close() {
	c.mu.Lock()
	c.deb.Cancel()
	c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// SetAutosaveDelay changes the quiet period for later edits.
func (c *Controller) SetAutosaveDelay(d time.Duration) {
	c.deb.SetDelay(d)
}

func (c *Controller) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// LastSaved returns when the entry was last written, if it exists.
func (c *Controller) LastSaved() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaved, c.hasSaved
}

// DayKey returns the day the loaded text belongs to.
func (c *Controller) DayKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayKey
}

func (c *Controller) HasPendingSave() bool {
	return c.deb.Pending()
}

// IsDirty reports whether the text differs from what was loaded or saved.
func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *Controller) setErrorLocked(err error, msg string) {
	c.err = err
	c.errMsg = msg
}

func (c *Controller) clearErrorLocked() {
	c.err = nil
	c.errMsg = ""
}

func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearErrorLocked()
}
