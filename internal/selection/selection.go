// Package selection holds the day the user is looking at. One Date is shared
// by every controller in a session.
package selection

import (
	"sync"
	"time"

	"github.com/julianstephens/mydiary/internal/daykey"
)

// Listener is told about a change of selected day.
type Listener func(prev, next time.Time)

type subscription struct {
	id int
	fn Listener
}

type Date struct {
	mu        sync.Mutex
	current   time.Time
	loc       *time.Location
	now       func() time.Time
	nextID    int
	listeners []subscription
}

type Option func(*Date)

// WithNow replaces time.Now when computing today.
func WithNow(now func() time.Time) Option {
	return func(d *Date) {
		d.now = now
	}
}

// New starts the selection on today in loc. A nil loc means time.Local.
func New(loc *time.Location, opts ...Option) *Date {
	if loc == nil {
		loc = time.Local
	}
	d := &Date{
		loc: loc,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.current = daykey.StartOfDay(d.now().In(loc))
	return d
}

// Location returns the timezone days are computed in.
func (d *Date) Location() *time.Location {
	return d.loc
}

// Current returns midnight of the selected day.
func (d *Date) Current() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Key returns the day key of the selected day.
func (d *Date) Key() string {
	return daykey.Key(d.Current())
}

// Now returns the current instant in the selection's timezone.
func (d *Date) Now() time.Time {
	return d.now().In(d.loc)
}

// Select moves the selection to t's day and notifies listeners. Selecting
// the day already selected does nothing and returns false.
func (d *Date) Select(t time.Time) bool {
	next := daykey.StartOfDay(t.In(d.loc))

	d.mu.Lock()
	prev := d.current
	if daykey.Key(prev) == daykey.Key(next) {
		d.mu.Unlock()
		return false
	}
	d.current = next
	listeners := append([]subscription(nil), d.listeners...)
	d.mu.Unlock()

	for _, l := range listeners {
		l.fn(prev, next)
	}
	return true
}

// Shift moves the selection by n days.
func (d *Date) Shift(n int) bool {
	return d.Select(daykey.AddDays(d.Current(), n))
}

// Today selects the current day.
func (d *Date) Today() bool {
	return d.Select(d.Now())
}

// Subscribe registers fn for future changes. Listeners run synchronously in
// subscription order after the new day is in place.
func (d *Date) Subscribe(fn Listener) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, l := range d.listeners {
				if l.id == id {
					d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
