package stream

import (
	"sync"
	"time"
)

// Progress redraw cadence.
const (
	InitialDelay = 250 * time.Millisecond
	Interval     = 100 * time.Millisecond
)

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot timers. Tests substitute a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealTime schedules on the wall clock.
var RealTime Scheduler = realScheduler{}

// Ticker calls fn after first, then every interval, until stopped. Each firing
// re-arms the next one only after fn returns, so calls never overlap.
type Ticker struct {
	sched    Scheduler
	first    time.Duration
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   Timer
	started bool
	stopped bool
}

// NewTicker returns an unstarted Ticker. A nil scheduler means RealTime.
func NewTicker(sched Scheduler, first, interval time.Duration, fn func()) *Ticker {
	if sched == nil {
		sched = RealTime
	}
	return &Ticker{sched: sched, first: first, interval: interval, fn: fn}
}

// Start arms the first firing. It is a no-op after the first call.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.stopped {
		return
	}
	t.started = true
	t.timer = t.sched.AfterFunc(t.first, t.fire)
}

// Stop cancels the ticker. It returns true only for the call that stopped it.
func (t *Ticker) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return true
}

// Running reports whether the ticker has started and not been stopped.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started && !t.stopped
}

func (t *Ticker) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.timer = t.sched.AfterFunc(t.interval, t.fire)
	}
}
