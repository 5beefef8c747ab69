package collection

import (
	"sync"
	"time"
)

// DefaultDebounce is the recommended search debounce window.
const DefaultDebounce = 400 * time.Millisecond

// Debouncer coalesces rapid search edits into a single flush. The last
// entered value always wins; a newer edit cancels the pending flush and
// restarts the window.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	flush   func(term string)
	timer   *time.Timer
	pending string
	stopped bool
}

// NewDebouncer builds a debouncer invoking flush after the window elapses
// with no further input.
func NewDebouncer(window time.Duration, flush func(term string)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window, flush: flush}
}

// Input records a search edit and restarts the debounce window.
func (d *Debouncer) Input(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = term
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Flush delivers the pending value immediately, cancelling the timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	term := d.pending
	stopped := d.stopped
	d.mu.Unlock()
	if !stopped && d.flush != nil {
		d.flush(term)
	}
}

// Stop cancels any pending flush permanently.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	term := d.pending
	stopped := d.stopped
	d.timer = nil
	d.mu.Unlock()
	if !stopped && d.flush != nil {
		d.flush(term)
	}
}
