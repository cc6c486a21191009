// Package todo keeps the todo list of the selected day in sync with the
// record store.
package todo

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/selection"
	"github.com/julianstephens/mydiary/internal/storage"
)

const (
	MsgLoadFailed = "Failed to load todos."
	MsgSaveFailed = "Save failed. Please try again."
)

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidPosition = errors.New("invalid position")
)

type Controller struct {
	mu          sync.Mutex
	store       storage.Provider
	sel         *selection.Date
	now         func() time.Time
	newID       func() string
	items       []models.TodoItem
	dayKey      string
	err         error
	errMsg      string
	unsubscribe func()
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		c.newID = newID
	}
}

// New creates a controller for the day held by sel and loads its items.
// The controller follows later selection changes until Close.
func New(store storage.Provider, sel *selection.Date, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		sel:   sel,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.unsubscribe = sel.Subscribe(func(_, _ time.Time) {
		c.Refresh()
	})
	c.Refresh()
	return c
}

// Close stops following the selection.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// FetchForDate replaces the cached list with the items stored for dayKey.
func (c *Controller) FetchForDate(dayKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchLocked(dayKey)
}

// Refresh refetches the selected day.
func (c *Controller) Refresh() {
	c.FetchForDate(c.sel.Key())
}

func (c *Controller) fetchLocked(dayKey string) {
	c.dayKey = dayKey
	items, err := c.store.FindTodosByDayKey(dayKey)
	if err != nil {
		logger.Error("Failed to load todos", "day", dayKey, "error", err)
		c.items = nil
		c.setErrorLocked(err, MsgLoadFailed)
		return
	}
	c.items = items
	if c.errMsg == MsgLoadFailed {
		c.clearErrorLocked()
	}
}

func (c *Controller) setErrorLocked(err error, msg string) {
	c.err = err
	c.errMsg = msg
}

func (c *Controller) clearErrorLocked() {
	c.err = nil
	c.errMsg = ""
}

// commitLocked persists staged changes and refetches. The refetch runs
// even when persisting failed so the cache matches the store again.
func (c *Controller) commitLocked(action string) error {
	err := c.store.Persist()
	if err != nil {
		logger.Error("Failed to save todos", "action", action, "error", err)
		c.setErrorLocked(err, MsgSaveFailed)
	} else {
		c.clearErrorLocked()
	}
	c.fetchLocked(c.sel.Key())
	return err
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

func normalizeCategory(category models.Category) (models.Category, error) {
	if category == "" {
		return models.CategoryOther, nil
	}
	if !category.Valid() {
		return "", fmt.Errorf("invalid category %q", category)
	}
	return category, nil
}

// Add creates an item on the selected day.
func (c *Controller) Add(title string, category models.Category, dueDate *time.Time) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	category, err = normalizeCategory(category)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item := models.TodoItem{
		ID:        c.newID(),
		DayKey:    c.sel.Key(),
		Title:     title,
		Category:  category,
		DueDate:   dueDate,
		CreatedAt: c.now(),
	}
	if err := c.store.UpsertTodo(item); err != nil {
		return err
	}
	logger.Debug("Added todo", "id", item.ID, "day", item.DayKey)
	return c.commitLocked("add")
}

// ToggleCompletion flips the completed flag of item.
func (c *Controller) ToggleCompletion(item models.TodoItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item.IsCompleted = !item.IsCompleted
	if err := c.store.UpsertTodo(item); err != nil {
		return err
	}
	return c.commitLocked("toggle")
}

// Update overwrites the editable fields of item.
func (c *Controller) Update(item models.TodoItem, title string, category models.Category, dueDate *time.Time) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	category, err = normalizeCategory(category)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item.Title = title
	item.Category = category
	item.DueDate = dueDate
	if err := c.store.UpsertTodo(item); err != nil {
		return err
	}
	return c.commitLocked("update")
}

// Delete removes item.
func (c *Controller) Delete(item models.TodoItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteTodo(item.ID); err != nil {
		return err
	}
	return c.commitLocked("delete")
}

// DeleteAt removes the items at the given positions of the cached list.
// Every position is resolved before anything is deleted, and a single bad
// position aborts the whole call.
func (c *Controller) DeleteAt(positions []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(positions) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(positions))
	ids := make([]string, 0, len(positions))
	for _, pos := range positions {
		if pos < 0 || pos >= len(c.items) {
			return fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
		}
		if seen[pos] {
			continue
		}
		seen[pos] = true
		ids = append(ids, c.items[pos].ID)
	}

	if err := c.store.DeleteTodos(ids); err != nil {
		return err
	}
	return c.commitLocked("delete")
}

// DayKey returns the day the cached list belongs to.
func (c *Controller) DayKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayKey
}

// Items returns a copy of the cached list in display order.
func (c *Controller) Items() []models.TodoItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.TodoItem(nil), c.items...)
}

// ItemAt returns the item at position i of the cached list.
func (c *Controller) ItemAt(i int) (models.TodoItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.items) {
		return models.TodoItem{}, false
	}
	return c.items[i], true
}

func (c *Controller) CompletedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.items {
		if item.IsCompleted {
			n++
		}
	}
	return n
}

func (c *Controller) TotalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Controller) filter(keep func(models.TodoItem) bool) []models.TodoItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.TodoItem
	for _, item := range c.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Filter returns the cached items in category.
func (c *Controller) Filter(category models.Category) []models.TodoItem {
	return c.filter(func(item models.TodoItem) bool { return item.Category == category })
}

func (c *Controller) Pending() []models.TodoItem {
	return c.filter(func(item models.TodoItem) bool { return !item.IsCompleted })
}

func (c *Controller) Completed() []models.TodoItem {
	return c.filter(func(item models.TodoItem) bool { return item.IsCompleted })
}

// Err returns the last load or save failure, if it has not been cleared.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ErrorMessage is the user-facing text for Err.
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
