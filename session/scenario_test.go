package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"exposuretrack/app"
	"exposuretrack/model"
	"exposuretrack/session"
)

type steppedClock struct {
	now time.Time
}

func (c *steppedClock) Now() time.Time { return c.now }

func (c *steppedClock) NewTicker(time.Duration) session.Ticker {
	return idleTicker{ch: make(chan time.Time)}
}

type idleTicker struct{ ch chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (idleTicker) Stop()                 {}

func TestExpiredSessionCompletesTask(t *testing.T) {
	clock := &steppedClock{now: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)}
	svc := app.NewService(nil, app.WithClock(clock.Now))

	d := model.NewDraft()
	d.Title = "Touch door handle"
	d.Category = model.CategoryContamination
	d.Trigger = "Public doors"
	d.Goal = "Leave hands unwashed"
	d.Instructions = []string{"Touch the handle", "Wait"}
	d.Duration = 5
	task, err := d.NewTask()
	require.NoError(t, err)
	task = svc.Add(task)

	_, err = svc.Start(task.ID)
	require.NoError(t, err)
	timer := session.New(task.Duration, clock)
	require.True(t, timer.Start(nil))
	defer timer.Stop()

	clock.now = clock.now.Add(5 * time.Minute)
	require.Equal(t, 0, timer.Remaining())
	require.True(t, timer.Expired())

	timer.Stop()
	done, err := svc.MarkCompleted(task.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAvailable, done.Status)
	require.Len(t, done.Completions, 1)
	require.True(t, done.Completions[0].Equal(clock.now))
}
