package reminder

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
	"habitloop/internal/service/push"
	"habitloop/pkg/metrics"
)

type ScheduleStore interface {
	GetByID(ctx context.Context, id int) (*model.Schedule, error)
}

type HabitDirectory interface {
	GetByID(ctx context.Context, id int) (*model.Habit, error)
}

type PushDirectory interface {
	ResolvePushToken(ctx context.Context, userID int) (string, error)
}

// DueHandler consumes due reminder jobs. The payload holds only a schedule
// id, so every firing re-reads current state; a schedule deleted or edited
// since enqueue is handled by simply finding it gone or no longer worth
// reminding about.
//
// The handler never returns an error for a delivery problem: a reminder is
// attempted at most once, and a stale redelivery has no value.
type DueHandler struct {
	schedules ScheduleStore
	habits    HabitDirectory
	tokens    PushDirectory
	sender    push.Sender
	dedup     *Deduper
	logger    *zap.Logger
}

func NewDueHandler(
	schedules ScheduleStore,
	habits HabitDirectory,
	tokens PushDirectory,
	sender push.Sender,
	dedup *Deduper,
	logger *zap.Logger,
) *DueHandler {
	return &DueHandler{
		schedules: schedules,
		habits:    habits,
		tokens:    tokens,
		sender:    sender,
		dedup:     dedup,
		logger:    logger,
	}
}

func (h *DueHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p DuePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal reminder payload", zap.Error(err))
		return nil
	}

	log := h.logger.With(zap.Int("schedule_id", p.ScheduleID))

	if h.dedup != nil && !h.dedup.AcquireOnce(ctx, p.ScheduleID) {
		metrics.RemindersSkipped.WithLabelValues("duplicate").Inc()
		return nil
	}

	sched, err := h.schedules.GetByID(ctx, p.ScheduleID)
	if err != nil {
		if apperr.IsNotFound(err) {
			// Deleted since enqueue; the job carrying only an id makes
			// this the cancellation path.
			metrics.RemindersSkipped.WithLabelValues("schedule_gone").Inc()
			log.Info("Reminder skipped, schedule no longer exists")
			return nil
		}
		metrics.RemindersSkipped.WithLabelValues("schedule_gone").Inc()
		log.Error("Failed to load schedule for reminder", zap.Error(err))
		return nil
	}

	if sched.Status != model.StatusPlanned {
		metrics.RemindersSkipped.WithLabelValues("not_planned").Inc()
		log.Info("Reminder skipped, schedule no longer planned",
			zap.String("status", string(sched.Status)),
		)
		return nil
	}

	habit, err := h.habits.GetByID(ctx, sched.HabitID)
	if err != nil {
		metrics.RemindersSkipped.WithLabelValues("schedule_gone").Inc()
		log.Info("Reminder skipped, habit not resolvable", zap.Error(err))
		return nil
	}

	token, err := h.tokens.ResolvePushToken(ctx, sched.UserID)
	if err != nil {
		metrics.RemindersSkipped.WithLabelValues("no_token").Inc()
		log.Error("Failed to resolve push token", zap.Error(err))
		return nil
	}
	if token == "" {
		metrics.RemindersSkipped.WithLabelValues("no_token").Inc()
		log.Info("Reminder skipped, no push destination for owner",
			zap.Int("user_id", sched.UserID),
		)
		return nil
	}

	body := fmt.Sprintf("Reminder: %s starts soon.", habit.Name)
	if err := h.sender.Send(ctx, token, habit.Name, body); err != nil {
		metrics.RemindersDispatched.WithLabelValues("failed").Inc()
		log.Error("Push dispatch failed", zap.Error(err))
		return nil
	}

	metrics.RemindersDispatched.WithLabelValues("sent").Inc()
	log.Info("Reminder dispatched",
		zap.String("habit", habit.Name),
	)
	return nil
}
