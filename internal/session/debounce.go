package session

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of mutation into a single flush after a quiet
// period. It is a trailing-edge debounce with a single pending-timer slot:
// Touch replaces any pending timer, so only the final state after a burst is
// persisted. The flush runs on the timer goroutine, fire-and-forget; a
// Touch during an in-flight flush simply arms the next one.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
	flush func()
}

// NewDebouncer builds a debouncer that calls flush after quiet of
// inactivity following a Touch.
func NewDebouncer(quiet time.Duration, flush func()) *Debouncer {
	if quiet <= 0 {
		quiet = time.Second
	}
	return &Debouncer{quiet: quiet, flush: flush}
}

// Touch schedules a flush after the quiet period, canceling any previously
// scheduled one.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.flush()
	})
}

// FlushNow cancels any pending timer and flushes synchronously. Used on
// logout and shutdown.
func (d *Debouncer) FlushNow() {
	d.Stop()
	d.flush()
}

// Stop cancels any pending flush without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
