package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/models"
)

type schedulerEnv struct {
	*pipelineEnv
	guard     *Guard
	scheduler *Scheduler
}

func newSchedulerEnv(schedules ...*models.Schedule) *schedulerEnv {
	env := &schedulerEnv{pipelineEnv: newPipelineEnv(schedules...)}
	env.guard = NewGuard(env.store, zap.NewNop(), env.notifier)
	env.scheduler = NewScheduler(env.store, zap.NewNop(), env.clock, env.pipeline,
		env.guard, time.Minute)
	return env
}

func TestSchedulerActivate(t *testing.T) {
	sched := testSchedule()
	sched.IsActive = false
	sched.RetryCount = 2
	env := newSchedulerEnv(sched)

	require.NoError(t, env.scheduler.Activate(sched))

	assert.True(t, sched.IsActive)
	assert.Equal(t, 0, sched.RetryCount)
	require.NotNil(t, sched.NextRun)
	assert.True(t, sched.NextRun.After(env.clock.Now()))
	assert.Len(t, env.clock.pending(), 1)

	t.Run("invalid schedule is rejected", func(t *testing.T) {
		bad := testSchedule()
		bad.ID = 2
		bad.TimeOfDay = "bogus"
		env.store.schedules[2] = bad
		assert.Error(t, env.scheduler.Activate(bad))
	})
}

func TestSchedulerDeactivate(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	require.NoError(t, env.scheduler.Activate(sched))

	require.NoError(t, env.scheduler.Deactivate(sched))

	assert.False(t, sched.IsActive)
	assert.Nil(t, sched.NextRun)
	assert.Empty(t, env.clock.pending())
}

func TestSchedulerFireAndRearm(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	require.NoError(t, env.scheduler.Activate(sched))
	firstFire := *sched.NextRun

	require.True(t, env.clock.fireNext())

	// One scheduled execution happened and the next tick is armed.
	assert.Equal(t, 1, env.store.executionCount())
	assert.Equal(t, models.ExecutionScheduled, env.store.executions[0].Kind)
	require.NotNil(t, sched.NextRun)
	assert.True(t, sched.NextRun.After(firstFire))
	require.NotNil(t, sched.LastRun)
	assert.Len(t, env.clock.pending(), 1)

	// A second tick keeps going.
	require.True(t, env.clock.fireNext())
	assert.Equal(t, 2, env.store.executionCount())
}

func TestSchedulerDeactivatedScheduleDoesNotRun(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	require.NoError(t, env.scheduler.Activate(sched))

	// Flip the stored row off without going through Deactivate, as the API
	// layer would when a save races a pending timer.
	sched.IsActive = false

	require.True(t, env.clock.fireNext())
	assert.Equal(t, 0, env.store.executionCount())
	assert.Empty(t, env.clock.pending())
}

func TestSchedulerAutoPauseStopsTicking(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	env.generator.titleErr = errors.New("invalid api key")
	require.NoError(t, env.scheduler.Activate(sched))

	for i := 0; i < MaxConsecutiveFailures; i++ {
		require.True(t, env.clock.fireNext(), "tick %d", i)
	}

	assert.False(t, sched.IsActive)
	assert.Nil(t, sched.NextRun)
	assert.Equal(t, MaxConsecutiveFailures, env.store.executionCount())
	assert.Empty(t, env.clock.pending(), "a paused schedule must not be re-armed")
	assert.Len(t, env.notifier.byCategory(models.NotificationSchedulePaused), 1)
}

func TestSchedulerRunNow(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	require.NoError(t, env.scheduler.Activate(sched))
	scheduled := *sched.NextRun

	rec, err := env.scheduler.RunNow(context.Background(), sched.ID)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.ExecutionManual, rec.Kind)
	assert.True(t, rec.Success)

	// Manual runs never move the scheduled fire time.
	require.NotNil(t, sched.NextRun)
	assert.Equal(t, scheduled, *sched.NextRun)
	assert.Len(t, env.clock.pending(), 1)
}

func TestSchedulerRunNowFailure(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	env.generator.titleErr = errors.New("rate limit exceeded")
	require.NoError(t, env.scheduler.Activate(sched))

	rec, err := env.scheduler.RunNow(context.Background(), sched.ID)

	require.Error(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Success)
	assert.Equal(t, 1, sched.RetryCount)
	// One failure is not enough to pause; the timer stays armed.
	assert.Len(t, env.clock.pending(), 1)
}

func TestSchedulerRunNowPauseCancelsTimer(t *testing.T) {
	sched := testSchedule()
	sched.RetryCount = MaxConsecutiveFailures - 1
	env := newSchedulerEnv(sched)
	env.generator.titleErr = errors.New("invalid api key")
	env.scheduler.arm(sched.ID, env.clock.Now().Add(time.Hour))

	_, err := env.scheduler.RunNow(context.Background(), sched.ID)

	require.Error(t, err)
	assert.False(t, sched.IsActive)
	assert.Empty(t, env.clock.pending())
}

func TestSchedulerRunNowUnknownSchedule(t *testing.T) {
	env := newSchedulerEnv()
	_, err := env.scheduler.RunNow(context.Background(), 99)
	assert.Error(t, err)
}

func TestSchedulerReloadActive(t *testing.T) {
	past := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	future := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	overdue := testSchedule()
	overdue.NextRun = &past

	upcoming := testSchedule()
	upcoming.ID = 2
	upcoming.NextRun = &future

	inactive := testSchedule()
	inactive.ID = 3
	inactive.IsActive = false

	env := newSchedulerEnv(overdue, upcoming, inactive)
	require.NoError(t, env.scheduler.ReloadActive())

	// Both active schedules are armed; the overdue one fires first, without
	// the clock moving backwards and without backfilling missed ticks.
	require.Len(t, env.clock.pending(), 2)
	require.True(t, env.clock.fireNext())
	assert.Equal(t, 1, env.store.executionCount())
	assert.Equal(t, overdue.ID, env.store.executions[0].ScheduleID)
	assert.False(t, env.clock.Now().Before(past))
}

func TestSchedulerReconcile(t *testing.T) {
	sched := testSchedule()
	env := newSchedulerEnv(sched)
	require.NoError(t, env.scheduler.Activate(sched))

	t.Run("armed schedule is left alone", func(t *testing.T) {
		armed, err := env.scheduler.Reconcile()
		require.NoError(t, err)
		assert.Zero(t, armed)
		assert.Len(t, env.clock.pending(), 1)
	})

	t.Run("repairs a lost fire time", func(t *testing.T) {
		broken := testSchedule()
		broken.ID = 2
		broken.NextRun = nil
		env.store.schedules[2] = broken

		armed, err := env.scheduler.Reconcile()
		require.NoError(t, err)
		assert.Equal(t, 1, armed)
		require.NotNil(t, env.store.schedules[2].NextRun)
		assert.Len(t, env.clock.pending(), 2)
	})
}

func TestSchedulerStop(t *testing.T) {
	first := testSchedule()
	second := testSchedule()
	second.ID = 2
	env := newSchedulerEnv(first, second)
	require.NoError(t, env.scheduler.Activate(first))
	require.NoError(t, env.scheduler.Activate(second))

	env.scheduler.Stop()
	assert.Empty(t, env.clock.pending())
}
