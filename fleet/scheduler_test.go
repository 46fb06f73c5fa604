package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerInvalidSchedule(t *testing.T) {
	h := newHarness()
	_, err := NewScheduler(h.fleet, "every minute", h.monitor)
	assert.Error(t, err)
	_, err = NewScheduler(h.fleet, "*/5 * * * *", h.monitor)
	assert.NoError(t, err)
}

func TestSchedulerStartStop(t *testing.T) {
	h := newHarness()
	s, err := NewScheduler(h.fleet, "", h.monitor)
	require.NoError(t, err)
	assert.Nil(t, s.NextRun())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.NextRun()
	require.NotNil(t, next)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *next, 5*time.Second)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	// Restarting doesn't duplicate the schedule
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestSchedulerStopsWithContext(t *testing.T) {
	h := newHarness()
	s, err := NewScheduler(h.fleet, "@every 1h", h.monitor)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 5*time.Second, 10*time.Millisecond)
}

func TestSchedulerTick(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 59, -1, ec2("-2"))
	s, err := NewScheduler(h.fleet, "", h.monitor)
	require.NoError(t, err)

	s.tick(context.Background())
	assert.Equal(t, IdlePending, a.Phase())
	assert.True(t, h.monitor.HasMeasure("scheduler.tick"))
}
