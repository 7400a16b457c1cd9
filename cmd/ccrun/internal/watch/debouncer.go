// Package watch rebuilds a project whenever its sources change.
package watch

import (
	"sync"
	"time"

	"github.com/albertocavalcante/ccrun/pkg/util"
)

// MaxPending is the maximum number of changed paths held before a flush is
// forced, bounding memory when a tool rewrites many files at once.
const MaxPending = 1000

// Debouncer coalesces bursts of file events into one batch. Editors and
// formatters often write a file several times per save; only the last
// event in a window triggers a build.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(paths []string)
	stopped bool
}

// NewDebouncer creates a debouncer. onFlush receives the sorted set of
// paths changed since the previous flush, once window has elapsed without
// a new event.
func NewDebouncer(window time.Duration, onFlush func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a changed path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending[path] = struct{}{}

	if len(d.pending) >= MaxPending {
		d.stopTimerLocked()
		paths := d.takeLocked()
		d.mu.Unlock()
		d.emit(paths)
		return
	}

	// A timer that already fired may still run flush; it finds nothing
	// pending or a fresh batch, both of which are fine.
	d.stopTimerLocked()
	d.timer = time.AfterFunc(d.window, d.flush)
	d.mu.Unlock()
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// FlushNow delivers pending paths immediately.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	d.stopTimerLocked()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// Stop stops the debouncer. Pending paths are flushed once; later Adds are
// ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.stopTimerLocked()
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// PendingCount returns the number of paths waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// takeLocked drains the pending set. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []string {
	if len(d.pending) == 0 {
		return nil
	}
	paths := util.SortedKeys(d.pending)
	d.pending = make(map[string]struct{})
	return paths
}

// emit runs the callback without holding the lock, so it may call Add.
func (d *Debouncer) emit(paths []string) {
	if len(paths) > 0 && d.onFlush != nil {
		d.onFlush(paths)
	}
}
