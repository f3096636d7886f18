package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/models"
	"github.com/draftmill/draftmill/pkg/util"
)

// MaxConsecutiveFailures is the auto-pause threshold: after this many failed
// executions in a row the schedule is deactivated.
const MaxConsecutiveFailures = 3

// errorExcerptLen caps how much raw error text is shown in a notification.
const errorExcerptLen = 200

// Guard applies the failure policy to pipeline outcomes: it owns RetryCount,
// the auto-pause transition and the failure notifications.
type Guard struct {
	store    Store
	logger   *zap.Logger
	notifier Notifier
}

func NewGuard(store Store, logger *zap.Logger, notifier Notifier) *Guard {
	return &Guard{store: store, logger: logger, notifier: notifier}
}

// Apply updates the schedule for one pipeline result and reports whether the
// schedule was auto-paused. Billing precondition failures never count toward
// the pause threshold.
func (g *Guard) Apply(sched *models.Schedule, res *Result) (paused bool) {
	sched.LastRun = &res.Execution.StartedAt

	if res.Err == nil {
		sched.RetryCount = 0
		g.save(sched)
		return false
	}

	var billingErr *BillingError
	if errors.As(res.Err, &billingErr) {
		g.notifier.Create(Notice{
			UserID:      sched.UserID,
			Category:    models.NotificationBilling,
			Title:       "Subscription required",
			Message:     billingErr.Reason,
			ActionURL:   "/billing",
			ScheduleID:  &sched.ID,
			ExecutionID: &res.Execution.ID,
		})
		g.save(sched)
		return false
	}

	sched.RetryCount++

	info := Info(res.Category)
	noticeCategory := models.NotificationGenerationFailed
	var publishErr *PublishError
	if errors.As(res.Err, &publishErr) {
		noticeCategory = models.NotificationPublishFailed
	}
	g.notifier.Create(Notice{
		UserID:      sched.UserID,
		Category:    noticeCategory,
		Title:       info.Title,
		Message:     fmt.Sprintf("%s\n\nError: %s", info.Guidance, util.Truncate(res.Err.Error(), errorExcerptLen)),
		ActionURL:   fmt.Sprintf("/schedules/%d", sched.ID),
		ScheduleID:  &sched.ID,
		ExecutionID: &res.Execution.ID,
	})

	if sched.RetryCount >= MaxConsecutiveFailures {
		sched.IsActive = false
		sched.NextRun = nil
		g.save(sched)

		g.notifier.Create(Notice{
			UserID:      sched.UserID,
			Category:    models.NotificationSchedulePaused,
			Title:       "Schedule Paused",
			Message:     fmt.Sprintf("\"%s\" failed %d times in a row and has been paused. Fix the underlying problem and reactivate it.", sched.Name, sched.RetryCount),
			ActionURL:   fmt.Sprintf("/schedules/%d", sched.ID),
			ScheduleID:  &sched.ID,
			ExecutionID: &res.Execution.ID,
		})

		g.logger.Warn("Schedule auto-paused after repeated failures",
			zap.Uint("schedule_id", sched.ID),
			zap.Int("retry_count", sched.RetryCount),
			zap.String("category", string(res.Category)))
		return true
	}

	g.save(sched)
	return false
}

func (g *Guard) save(sched *models.Schedule) {
	if err := g.store.SaveSchedule(sched); err != nil {
		g.logger.Error("Failed to persist schedule state",
			zap.Uint("schedule_id", sched.ID),
			zap.Error(err))
	}
}
