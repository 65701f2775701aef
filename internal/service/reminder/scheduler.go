// Package reminder implements the delayed reminder pipeline: one job per
// schedule, enqueued at creation, dispatched by the worker shortly before
// the occurrence starts.
package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/model"
	"habitloop/pkg/logger"
	"habitloop/pkg/metrics"
)

const (
	// RoutingKey carries due reminder jobs.
	RoutingKey = "schedule.reminder.due"
	// QueueName is the worker's queue for RoutingKey.
	QueueName = "schedule.reminder.due.q"

	// DefaultLeadMinutes is how long before start_time a reminder fires.
	DefaultLeadMinutes = 10
)

// DuePayload is the entire job payload. It deliberately carries only the
// schedule id: the worker re-reads everything else at dispatch time, so
// edits and deletions between enqueue and firing are always picked up.
type DuePayload struct {
	ScheduleID int `json:"schedule_id"`
}

type Publisher interface {
	PublishDelayed(routingKey string, payload any, delay time.Duration) error
}

// Scheduler enqueues one delayed job per created schedule. Reminders are
// best-effort: every failure path logs and returns, none of them may fail
// the schedule write they ride on.
type Scheduler struct {
	publisher Publisher
	dedup     *Deduper
	lead      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewScheduler(publisher Publisher, dedup *Deduper, leadMinutes int, log *zap.Logger) *Scheduler {
	if leadMinutes <= 0 {
		leadMinutes = DefaultLeadMinutes
	}
	return &Scheduler{
		publisher: publisher,
		dedup:     dedup,
		lead:      time.Duration(leadMinutes) * time.Minute,
		now:       time.Now,
		logger:    log,
	}
}

// ScheduleReminder enqueues the reminder job for s, delayed until
// start_time minus the lead. A notify-at already in the past means no job
// at all: a late reminder is worse than none.
func (s *Scheduler) ScheduleReminder(ctx context.Context, sched *model.Schedule) {
	log := logger.WithTrace(ctx, s.logger)

	notifyAt := sched.StartTime.Add(-s.lead)
	delay := notifyAt.Sub(s.now())
	if delay <= 0 {
		metrics.RemindersSkipped.WithLabelValues("past_due").Inc()
		log.Debug("Reminder not enqueued, notify time already passed",
			zap.Int("schedule_id", sched.ID),
			zap.Time("notify_at", notifyAt),
		)
		return
	}

	err := s.publisher.PublishDelayed(RoutingKey, DuePayload{ScheduleID: sched.ID}, delay)
	if err != nil {
		// Queue trouble must never surface to the creation path.
		metrics.RemindersSkipped.WithLabelValues("enqueue_failed").Inc()
		log.Warn("Failed to enqueue reminder, continuing without one",
			zap.Int("schedule_id", sched.ID),
			zap.Error(err),
		)
		return
	}

	metrics.RemindersEnqueued.Inc()
	log.Debug("Reminder enqueued",
		zap.Int("schedule_id", sched.ID),
		zap.Duration("delay", delay),
	)
}

// Forget best-effort cancels a pending reminder by pre-claiming its dedup
// slot. The enqueued job still fires but the worker will skip it; the
// worker's re-fetch remains the authoritative cancellation mechanism.
func (s *Scheduler) Forget(ctx context.Context, scheduleID int) {
	if s.dedup == nil {
		return
	}
	if err := s.dedup.MarkHandled(ctx, scheduleID); err != nil {
		s.logger.Debug("Failed to pre-claim reminder slot",
			zap.Int("schedule_id", scheduleID),
			zap.Error(err),
		)
	}
}
