package client

import (
	"sync"
	"time"
)

// Throttle serializes rapid repeated calls per key, leading edge: the first
// call in a window passes, every later call inside the window is dropped.
// Dropped calls are reported to the caller rather than queued; see DESIGN.md
// for the drop-vs-coalesce decision.
type Throttle struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether a call for key may proceed, opening a new window when
// it does.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.window {
		return false
	}
	t.last[key] = now
	return true
}

// Release reopens the window for key, as if its last call never happened.
// Used when the throttled call fails before doing any work, so an immediate
// retry is not blocked.
func (t *Throttle) Release(key string) {
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}

// Debouncer delays a call per key until the caller has been quiet for the
// configured wait, trailing edge: every call resets the timer and only the
// last function runs.
type Debouncer struct {
	mu     sync.Mutex
	wait   time.Duration
	timers map[string]*time.Timer
	fns    map[string]func()
}

func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{
		wait:   wait,
		timers: make(map[string]*time.Timer),
		fns:    make(map[string]func()),
	}
}

// Do schedules fn to run after the wait, replacing any pending call for key.
func (d *Debouncer) Do(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fns[key] = fn
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		pending := d.fns[key]
		delete(d.fns, key)
		delete(d.timers, key)
		d.mu.Unlock()
		if pending != nil {
			pending()
		}
	})
}

// Flush runs any pending call for key immediately.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	pending := d.fns[key]
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	delete(d.fns, key)
	delete(d.timers, key)
	d.mu.Unlock()
	if pending != nil {
		pending()
	}
}

// Stop cancels every pending call without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
		delete(d.fns, key)
	}
}
