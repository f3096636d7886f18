package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/models"
)

func failedResult(err error) *Result {
	return &Result{
		Execution: &models.ExecutionRecord{ID: 11, ScheduleID: 1, StartedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		Err:       err,
		Category:  Classify(err.Error()),
	}
}

func successResult() *Result {
	return &Result{
		Execution: &models.ExecutionRecord{ID: 12, ScheduleID: 1, StartedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), Success: true},
	}
}

func TestGuardSuccessResetsRetries(t *testing.T) {
	sched := testSchedule()
	sched.RetryCount = 2
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	paused := guard.Apply(sched, successResult())

	assert.False(t, paused)
	assert.Equal(t, 0, sched.RetryCount)
	assert.True(t, sched.IsActive)
	require.NotNil(t, sched.LastRun)
	assert.Empty(t, notifier.notices)
}

func TestGuardFailureIncrements(t *testing.T) {
	sched := testSchedule()
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	paused := guard.Apply(sched, failedResult(&GenerationError{Step: "title", Err: errors.New("rate limit exceeded")}))

	assert.False(t, paused)
	assert.Equal(t, 1, sched.RetryCount)
	assert.True(t, sched.IsActive)

	notices := notifier.byCategory(models.NotificationGenerationFailed)
	require.Len(t, notices, 1)
	assert.Equal(t, Info(CategoryAPIRateLimit).Title, notices[0].Title)
	assert.Contains(t, notices[0].Message, "rate limit exceeded")
}

func TestGuardPublishFailureNoticeCategory(t *testing.T) {
	sched := testSchedule()
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	guard.Apply(sched, failedResult(&PublishError{Platform: "wordpress", Err: errors.New("connection refused")}))

	assert.Len(t, notifier.byCategory(models.NotificationPublishFailed), 1)
	assert.Empty(t, notifier.byCategory(models.NotificationGenerationFailed))
}

func TestGuardAutoPauseAfterThreeFailures(t *testing.T) {
	sched := testSchedule()
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	err := &GenerationError{Step: "content", Err: errors.New("connection reset by peer")}

	assert.False(t, guard.Apply(sched, failedResult(err)))
	assert.False(t, guard.Apply(sched, failedResult(err)))
	assert.True(t, guard.Apply(sched, failedResult(err)))

	assert.Equal(t, MaxConsecutiveFailures, sched.RetryCount)
	assert.False(t, sched.IsActive)
	assert.Nil(t, sched.NextRun)

	paused := notifier.byCategory(models.NotificationSchedulePaused)
	require.Len(t, paused, 1)
	assert.Equal(t, "Schedule Paused", paused[0].Title)
}

func TestGuardSuccessBetweenFailuresPreventsPause(t *testing.T) {
	sched := testSchedule()
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	err := &GenerationError{Step: "title", Err: errors.New("timeout")}

	guard.Apply(sched, failedResult(err))
	guard.Apply(sched, failedResult(err))
	guard.Apply(sched, successResult())
	guard.Apply(sched, failedResult(err))
	paused := guard.Apply(sched, failedResult(err))

	assert.False(t, paused)
	assert.Equal(t, 2, sched.RetryCount)
	assert.True(t, sched.IsActive)
	assert.Empty(t, notifier.byCategory(models.NotificationSchedulePaused))
}

func TestGuardBillingDoesNotCount(t *testing.T) {
	sched := testSchedule()
	sched.RetryCount = 2
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	paused := guard.Apply(sched, failedResult(&BillingError{Reason: "monthly post limit reached"}))

	assert.False(t, paused)
	assert.Equal(t, 2, sched.RetryCount)
	assert.True(t, sched.IsActive)

	billing := notifier.byCategory(models.NotificationBilling)
	require.Len(t, billing, 1)
	assert.Equal(t, "monthly post limit reached", billing[0].Message)
}

func TestGuardTruncatesLongErrors(t *testing.T) {
	sched := testSchedule()
	store := newFakeStore(sched)
	notifier := &fakeNotifier{}
	guard := NewGuard(store, zap.NewNop(), notifier)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	guard.Apply(sched, failedResult(errors.New(string(long))))

	notices := notifier.byCategory(models.NotificationGenerationFailed)
	require.Len(t, notices, 1)
	assert.LessOrEqual(t, len(notices[0].Message), len(Info(CategoryUnknown).Guidance)+errorExcerptLen+20)
}
