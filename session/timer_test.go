package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, tk)
	return tk
}

// Advance moves time forward without delivering ticks.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Tick delivers one tick to every live ticker and reports how many took it.
func (c *fakeClock) Tick() int {
	c.mu.Lock()
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()

	delivered := 0
	for _, tk := range tickers {
		select {
		case tk.ch <- now:
			delivered++
		case <-tk.stopped:
		case <-time.After(time.Second):
		}
	}
	return delivered
}

type fakeTicker struct {
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

func TestRemainingIsDerivedFromClock(t *testing.T) {
	clock := newFakeClock()
	timer := New(5, clock)

	assert.Equal(t, 300, timer.Remaining())
	assert.False(t, timer.Expired())
	assert.Equal(t, "05:00", timer.Format())

	clock.Advance(61500 * time.Millisecond)
	assert.Equal(t, 239, timer.Remaining())
	assert.Equal(t, "03:59", timer.Format())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, timer.Remaining())
	assert.True(t, timer.Expired())
	assert.Equal(t, 1.0, timer.Progress())
}

func TestFiveMinuteSessionExpires(t *testing.T) {
	clock := newFakeClock()
	timer := New(5, clock)
	snaps := make(chan Snapshot, 8)
	require.True(t, timer.Start(func(s Snapshot) { snaps <- s }))

	clock.Advance(5 * time.Minute)
	require.Equal(t, 1, clock.Tick())

	select {
	case s := <-snaps:
		assert.Equal(t, Snapshot{Remaining: 0, Expired: true}, s)
	case <-time.After(time.Second):
		t.Fatal("expected a tick after expiry")
	}

	require.Eventually(t, func() bool { return !timer.Ticking() }, time.Second, 5*time.Millisecond)
	assert.False(t, timer.Start(nil), "an expired timer cannot be restarted")
	timer.Stop()
}

func TestDoubleStartIsGuarded(t *testing.T) {
	clock := newFakeClock()
	timer := New(1, clock)
	defer timer.Stop()

	require.True(t, timer.Start(nil))
	assert.False(t, timer.Start(nil))

	clock.mu.Lock()
	n := len(clock.tickers)
	clock.mu.Unlock()
	assert.Equal(t, 1, n, "only one tick source may exist")
}

func TestNoTickAfterStop(t *testing.T) {
	clock := newFakeClock()
	timer := New(10, clock)

	var mu sync.Mutex
	ticks := 0
	require.True(t, timer.Start(func(Snapshot) {
		mu.Lock()
		ticks++
		mu.Unlock()
	}))

	clock.Advance(time.Second)
	require.Equal(t, 1, clock.Tick())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks == 1
	}, time.Second, 5*time.Millisecond)
	timer.Stop()

	mu.Lock()
	seen := ticks
	mu.Unlock()

	clock.Advance(time.Second)
	assert.Equal(t, 0, clock.Tick())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, seen, ticks)
	assert.False(t, timer.Ticking())
}

func TestStopIsSafeInAnyState(t *testing.T) {
	clock := newFakeClock()
	timer := New(1, clock)

	timer.Stop()
	timer.Stop()
	assert.False(t, timer.Start(nil), "a stopped timer stays stopped")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 30, timer.Remaining(), "stop does not freeze the derived remaining time")
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00", FormatSeconds(-3))
	assert.Equal(t, "01:05", FormatSeconds(65))
	assert.Equal(t, "60:00", FormatSeconds(3600))
}

func TestSystemClockTicker(t *testing.T) {
	tk := SystemClock{}.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("expected a system tick")
	}
}
