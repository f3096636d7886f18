package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler periodically re-arms timers from the persisted next_run column.
// It is the safety net for lost timer registrations: the scheduler is the
// normal path, the reconciler repairs whatever fell through.
type Reconciler struct {
	scheduler *Scheduler
	logger    *zap.Logger
	ticker    *time.Ticker
	done      chan bool
}

func NewReconciler(scheduler *Scheduler, logger *zap.Logger, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Reconciler{
		scheduler: scheduler,
		logger:    logger,
		ticker:    time.NewTicker(interval),
		done:      make(chan bool),
	}
}

// Start begins the periodic reconciliation loop.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		r.logger.Info("Starting schedule reconciler")
		for {
			select {
			case <-r.done:
				r.logger.Info("Schedule reconciler stopped")
				return
			case <-ctx.Done():
				r.logger.Info("Schedule reconciler stopped due to context cancellation")
				return
			case <-r.ticker.C:
				r.run()
			}
		}
	}()
}

// Stop stops the reconciler.
func (r *Reconciler) Stop() {
	r.ticker.Stop()
	close(r.done)
}

func (r *Reconciler) run() {
	armed, err := r.scheduler.Reconcile()
	if err != nil {
		r.logger.Error("Reconcile pass failed", zap.Error(err))
		return
	}
	if armed > 0 {
		r.logger.Warn("Reconcile pass re-armed schedules", zap.Int("count", armed))
	}
}
