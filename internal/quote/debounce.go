package quote

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay applied to amount input before re-quoting.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delivers the latest triggered value once input has been quiet
// for the configured delay. Each Trigger cancels the pending delivery.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending T
	armed   bool
	gen     uint64
	stopped bool
}

func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger schedules value for delivery, replacing any pending value.
func (d *Debouncer[T]) Trigger(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = value
	d.armed = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush delivers the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	value, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.fn(value)
	}
}

// Stop discards the pending value and ignores later triggers.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
	d.take()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	value, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.fn(value)
	}
}

// take must be called with mu held.
func (d *Debouncer[T]) take() (T, bool) {
	var zero T
	if !d.armed {
		return zero, false
	}
	value := d.pending
	d.pending = zero
	d.armed = false
	d.gen++
	return value, true
}
