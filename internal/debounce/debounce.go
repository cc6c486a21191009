// Package debounce runs the last of a burst of calls once the caller has
// been quiet for a fixed delay.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Token identifies one scheduled call. Only the most recent token is valid.
type Token uint64

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	afterFunc AfterFunc
	timer     Timer
	token     Token
	pending   bool
	fn        func()
}

type Option func(*Debouncer)

// WithAfterFunc replaces time.AfterFunc, mainly so tests control when
// timers fire.
func WithAfterFunc(af AfterFunc) Option {
	return func(d *Debouncer) {
		d.afterFunc = af
	}
}

func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:     delay,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// SetDelay changes the quiet period for calls scheduled from now on.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Schedule cancels any pending call and arms fn to run after the delay.
// The returned token stays valid until the next Schedule, Cancel or Flush.
func (d *Debouncer) Schedule(fn func()) Token {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.token++
	tok := d.token
	d.fn = fn
	d.pending = true
	d.timer = d.afterFunc(d.delay, func() { d.fire(tok) })
	return tok
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(tok Token) {
	d.mu.Lock()
	if !d.validLocked(tok) {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.mu.Unlock()

	// fn may cancel or reschedule; only retire the token if it did not
	fn()
	d.finish(tok)
}

func (d *Debouncer) finish(tok Token) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.token == tok {
		d.pending = false
		d.fn = nil
		d.timer = nil
	}
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.token++
	d.pending = false
	d.fn = nil
}

// Pending reports whether a call is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Valid reports whether tok is still the armed call.
func (d *Debouncer) Valid(tok Token) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.validLocked(tok)
}

func (d *Debouncer) validLocked(tok Token) bool {
	return d.pending && d.token == tok
}

// Flush runs the pending call now instead of waiting for the timer.
// It reports whether anything ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	tok := d.token
	fn := d.fn
	d.mu.Unlock()

	fn()
	d.finish(tok)
	return true
}
