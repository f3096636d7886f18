package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/models"
)

// Scheduler owns the in-memory registry of pending fire times. At most one
// timer exists per schedule; a schedule's next timer is only registered after
// its current invocation completed, so scheduled ticks never overlap.
type Scheduler struct {
	store    Store
	logger   *zap.Logger
	clock    Clock
	pipeline *Pipeline
	guard    *Guard

	manualTimeout time.Duration

	mu      sync.Mutex
	timers  map[uint]Timer
	running map[uint]bool
}

func NewScheduler(store Store, logger *zap.Logger, clock Clock, pipeline *Pipeline,
	guard *Guard, manualTimeout time.Duration) *Scheduler {
	if manualTimeout <= 0 {
		manualTimeout = 5 * time.Minute
	}
	return &Scheduler{
		store:         store,
		logger:        logger,
		clock:         clock,
		pipeline:      pipeline,
		guard:         guard,
		manualTimeout: manualTimeout,
		timers:        make(map[uint]Timer),
		running:       make(map[uint]bool),
	}
}

// Activate computes and persists the schedule's next fire time, resets the
// failure counter and registers a timer. It is used both for new schedules
// and for manual reactivation after an auto-pause.
func (s *Scheduler) Activate(sched *models.Schedule) error {
	next, err := NextRun(sched, s.clock.Now())
	if err != nil {
		return err
	}

	sched.IsActive = true
	sched.NextRun = &next
	sched.RetryCount = 0
	if err := s.store.SaveSchedule(sched); err != nil {
		return err
	}

	s.arm(sched.ID, next)
	s.logger.Info("Schedule activated",
		zap.Uint("schedule_id", sched.ID),
		zap.Time("next_run", next))
	return nil
}

// Deactivate cancels any pending timer and clears the persisted fire time.
// LastRun is left untouched.
func (s *Scheduler) Deactivate(sched *models.Schedule) error {
	s.cancel(sched.ID)

	sched.IsActive = false
	sched.NextRun = nil
	if err := s.store.SaveSchedule(sched); err != nil {
		return err
	}

	s.logger.Info("Schedule deactivated", zap.Uint("schedule_id", sched.ID))
	return nil
}

// ReloadActive re-registers timers for every active schedule from the
// durable store. A fire time that passed while the process was down fires
// once immediately; missed intermediate ticks are not backfilled.
func (s *Scheduler) ReloadActive() error {
	armed, err := s.Reconcile()
	if err != nil {
		return err
	}
	s.logger.Info("Active schedules reloaded", zap.Int("count", armed))
	return nil
}

// Reconcile arms a timer for every active schedule that has none. The
// persisted next_run column is the source of truth: a schedule whose timer
// was lost (or never registered) gets re-armed from it, and an active
// schedule missing a fire time gets one recomputed. Schedules with a
// pending timer are left alone. Returns how many timers were registered.
func (s *Scheduler) Reconcile() (int, error) {
	schedules, err := s.store.ActiveSchedules()
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	armed := 0
	for i := range schedules {
		sched := &schedules[i]
		if s.hasTimer(sched.ID) {
			continue
		}

		if sched.NextRun == nil {
			// Repair: active without a fire time, recompute one.
			next, err := NextRun(sched, now)
			if err != nil {
				s.logger.Error("Cannot compute next run for active schedule",
					zap.Uint("schedule_id", sched.ID),
					zap.Error(err))
				continue
			}
			sched.NextRun = &next
			if err := s.store.UpdateNextRun(sched.ID, &next); err != nil {
				s.logger.Error("Failed to persist next run",
					zap.Uint("schedule_id", sched.ID),
					zap.Error(err))
			}
		}

		s.arm(sched.ID, *sched.NextRun)
		armed++
	}

	return armed, nil
}

// RunNow executes the pipeline once for a schedule as a manual run, bounded
// by an overall wall-clock timeout. It never touches NextRun; any pending
// scheduled timer stays armed unless the run triggered an auto-pause.
func (s *Scheduler) RunNow(ctx context.Context, scheduleID uint) (*models.ExecutionRecord, error) {
	sched, err := s.store.GetSchedule(scheduleID)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.manualTimeout)
	defer cancel()

	res := s.pipeline.Run(runCtx, sched, models.ExecutionManual)
	if paused := s.guard.Apply(sched, res); paused {
		s.cancel(sched.ID)
	}
	return res.Execution, res.Err
}

// Stop drops all pending timers. In-flight pipeline runs are not cancelled;
// pending fire times are rehydrated from the store on the next start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.logger.Info("Scheduler stopped")
}

// onFire runs one scheduled tick and re-arms the next timer unless the guard
// deactivated the schedule in the meantime. The schedule stays marked as
// running until re-arm so a concurrent reconcile pass cannot double-fire it.
func (s *Scheduler) onFire(scheduleID uint) {
	s.beginRun(scheduleID)
	defer s.endRun(scheduleID)

	sched, err := s.store.GetSchedule(scheduleID)
	if err != nil {
		s.logger.Error("Timer fired for unloadable schedule",
			zap.Uint("schedule_id", scheduleID),
			zap.Error(err))
		return
	}
	if !sched.IsActive {
		return
	}

	res := s.pipeline.Run(context.Background(), sched, models.ExecutionScheduled)
	if paused := s.guard.Apply(sched, res); paused {
		return
	}

	next, err := NextRun(sched, s.clock.Now())
	if err != nil {
		// Persisted next_run stays as the source of truth; a later
		// reconciliation or reactivation repairs it.
		s.logger.Error("Failed to compute next run after tick",
			zap.Uint("schedule_id", sched.ID),
			zap.Error(err))
		return
	}
	if err := s.store.UpdateNextRun(sched.ID, &next); err != nil {
		s.logger.Error("Failed to persist next run",
			zap.Uint("schedule_id", sched.ID),
			zap.Error(err))
	}
	s.arm(sched.ID, next)
}

// arm registers the one-shot timer for a schedule, replacing any pending one.
func (s *Scheduler) arm(scheduleID uint, at time.Time) {
	d := at.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[scheduleID]; ok {
		existing.Stop()
	}
	s.timers[scheduleID] = s.clock.AfterFunc(d, func() {
		s.onFire(scheduleID)
	})

	s.logger.Debug("Timer armed",
		zap.Uint("schedule_id", scheduleID),
		zap.Time("fire_time", at))
}

func (s *Scheduler) cancel(scheduleID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[scheduleID]; ok {
		t.Stop()
		delete(s.timers, scheduleID)
	}
}

func (s *Scheduler) hasTimer(scheduleID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[scheduleID] != nil || s.running[scheduleID]
}

func (s *Scheduler) beginRun(scheduleID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, scheduleID)
	s.running[scheduleID] = true
}

func (s *Scheduler) endRun(scheduleID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, scheduleID)
}

