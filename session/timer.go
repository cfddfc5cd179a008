// Package session tracks the countdown of one ongoing exposure attempt.
//
// A Timer starts counting when it is created. Remaining time is derived
// from the clock, never from the number of ticks delivered, so a slow or
// missed tick cannot make the countdown drift.
package session

import (
	"fmt"
	"sync"
	"time"
)

// TickInterval is the cadence of tick callbacks.
const TickInterval = time.Second

// Clock is the time source of a Timer.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker a Timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// Snapshot is the countdown state at one instant.
type Snapshot struct {
	Remaining int // seconds, never negative
	Expired   bool
}

// Timer counts down a task duration. It is either running or expired;
// expiry is terminal.
type Timer struct {
	clock   Clock
	total   time.Duration
	started time.Time

	mu      sync.Mutex
	ticking bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

// New starts a countdown of minutes from now.
func New(minutes int, clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	if minutes < 0 {
		minutes = 0
	}
	return &Timer{
		clock:   clock,
		total:   time.Duration(minutes) * time.Minute,
		started: clock.Now(),
	}
}

// Total is the full session length.
func (t *Timer) Total() time.Duration {
	return t.total
}

// Elapsed is the time since the timer was created.
func (t *Timer) Elapsed() time.Duration {
	e := t.clock.Now().Sub(t.started)
	if e < 0 {
		return 0
	}
	return e
}

// Remaining returns whole seconds left, clamped at zero.
func (t *Timer) Remaining() int {
	left := int(t.total.Seconds()) - int(t.Elapsed().Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the countdown reached zero.
func (t *Timer) Expired() bool {
	return t.Remaining() == 0
}

// Progress is the elapsed fraction in [0,1].
func (t *Timer) Progress() float64 {
	if t.total <= 0 {
		return 1
	}
	p := t.Elapsed().Seconds() / t.total.Seconds()
	if p > 1 {
		return 1
	}
	return p
}

// Snapshot reads remaining time and expiry at once.
func (t *Timer) Snapshot() Snapshot {
	left := t.Remaining()
	return Snapshot{Remaining: left, Expired: left == 0}
}

// Format renders the remaining time as MM:SS.
func (t *Timer) Format() string {
	return FormatSeconds(t.Remaining())
}

// FormatSeconds renders seconds as MM:SS.
func FormatSeconds(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Start begins delivering a Snapshot to onTick once per TickInterval until
// Stop is called or the timer expires. onTick may be nil. It runs on the
// timer's goroutine and must not call Stop. Start returns false when the
// timer is already ticking, was stopped, or has expired.
func (t *Timer) Start(onTick func(Snapshot)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticking || t.stopped || t.Expired() {
		return false
	}
	t.ticking = true
	t.quit = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.clock.NewTicker(TickInterval), onTick, t.quit, t.done)
	return true
}

// Stop cancels ticking. It is safe in any state and may be called more than
// once. After Stop returns no further tick callback runs.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	quit, done := t.quit, t.done
	if t.ticking {
		close(quit)
		t.ticking = false
	}
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Ticking reports whether tick callbacks are being delivered.
func (t *Timer) Ticking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticking
}

func (t *Timer) run(ticker Ticker, onTick func(Snapshot), quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C():
			select {
			case <-quit:
				return
			default:
			}
			snap := t.Snapshot()
			if onTick != nil {
				onTick(snap)
			}
			if snap.Expired {
				t.mu.Lock()
				t.ticking = false
				t.mu.Unlock()
				return
			}
		}
	}
}
