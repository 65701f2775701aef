// Package schedule owns schedule occurrences: creation from a repeat spec,
// reads with derived completion, owner-gated mutation and deletion.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/completion"
	"habitloop/internal/model"
	"habitloop/internal/recur"
	"habitloop/pkg/logger"
	"habitloop/pkg/metrics"
)

type Store interface {
	InsertBatch(ctx context.Context, schedules []*model.Schedule) error
	GetByID(ctx context.Context, id int) (*model.Schedule, error)
	ListByUserBetween(ctx context.Context, userID int, from, to time.Time) ([]model.Schedule, error)
	Update(ctx context.Context, s *model.Schedule) error
	Delete(ctx context.Context, id int) error
}

type ProgressStore interface {
	ListBySchedule(ctx context.Context, scheduleID int) ([]model.Progress, error)
	DeleteBySchedule(ctx context.Context, scheduleID int) error
}

type HabitDirectory interface {
	GetByID(ctx context.Context, id int) (*model.Habit, error)
}

// Reminders is the notification side effect of schedule lifecycle events.
// Both calls are best-effort and never return errors to this layer.
type Reminders interface {
	ScheduleReminder(ctx context.Context, s *model.Schedule)
	Forget(ctx context.Context, scheduleID int)
}

type Service struct {
	schedules Store
	progress  ProgressStore
	habits    HabitDirectory
	reminders Reminders
	logger    *zap.Logger
}

func NewService(
	schedules Store,
	progress ProgressStore,
	habits HabitDirectory,
	reminders Reminders,
	log *zap.Logger,
) *Service {
	return &Service{
		schedules: schedules,
		progress:  progress,
		habits:    habits,
		reminders: reminders,
		logger:    log,
	}
}

// View is a schedule plus its derived completion state. The completion
// block is recomputed from progress rows on every read and never persisted.
type View struct {
	model.Schedule
	Completion completion.State `json:"completion"`
}

type CreateInput struct {
	HabitID         int
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	Repeat          recur.Spec
	Notes           *string
	ParticipantIDs  []int
}

// Create expands the repeat spec and persists one schedule per occurrence,
// all planned. Each persisted schedule gets exactly one reminder enqueued;
// reminder trouble never fails the creation.
func (s *Service) Create(ctx context.Context, ownerID int, in CreateInput) ([]model.Schedule, error) {
	log := logger.WithTrace(ctx, s.logger)

	habit, err := s.habits.GetByID(ctx, in.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != ownerID {
		return nil, apperr.Forbidden("habit belongs to another user")
	}

	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, apperr.Validation("duration_minutes must not be negative")
	}

	occs, err := recur.Expand(in.Repeat, in.StartTime, in.EndTime, in.DurationMinutes)
	if err != nil {
		return nil, err
	}

	participants := in.ParticipantIDs
	if participants == nil {
		participants = []int{}
	}

	schedules := make([]*model.Schedule, 0, len(occs))
	for _, occ := range occs {
		schedules = append(schedules, &model.Schedule{
			UserID:          ownerID,
			HabitID:         in.HabitID,
			Date:            occ.Date,
			StartTime:       occ.StartTime,
			EndTime:         occ.EndTime,
			DurationMinutes: occ.DurationMinutes,
			Status:          model.StatusPlanned,
			IsCustom:        in.Repeat.Pattern == recur.PatternNone,
			Notes:           in.Notes,
			ParticipantIDs:  participants,
		})
	}

	if err := s.schedules.InsertBatch(ctx, schedules); err != nil {
		return nil, err
	}

	for _, sched := range schedules {
		s.reminders.ScheduleReminder(ctx, sched)
	}

	metrics.SchedulesGenerated.WithLabelValues(string(in.Repeat.Pattern)).Add(float64(len(schedules)))
	log.Info("Schedules created",
		zap.Int("user_id", ownerID),
		zap.Int("habit_id", in.HabitID),
		zap.String("pattern", string(in.Repeat.Pattern)),
		zap.Int("count", len(schedules)),
	)

	out := make([]model.Schedule, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, *sched)
	}
	return out, nil
}

// Get returns the schedule with its derived completion. Owner and
// participants may read; everyone else is forbidden.
func (s *Service) Get(ctx context.Context, id, requesterID int) (*View, error) {
	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched.UserID != requesterID && !sched.HasParticipant(requesterID) {
		return nil, apperr.Forbidden("not a member of this schedule")
	}

	rows, err := s.progress.ListBySchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return &View{Schedule: *sched, Completion: completion.DeriveFor(sched, rows)}, nil
}

// List returns the owner's schedules in [from, to], each with derived
// completion.
func (s *Service) List(ctx context.Context, ownerID int, from, to time.Time) ([]View, error) {
	schedules, err := s.schedules.ListByUserBetween(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(schedules))
	for i := range schedules {
		sched := &schedules[i]
		rows, err := s.progress.ListBySchedule(ctx, sched.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, View{Schedule: *sched, Completion: completion.DeriveFor(sched, rows)})
	}
	return views, nil
}

type UpdateInput struct {
	Date            *time.Time
	StartTime       *time.Time
	EndTime         *time.Time
	DurationMinutes *int
	Status          *model.ScheduleStatus
	Notes           *string
	ParticipantIDs  []int
}

// Update applies a partial edit, owner-only. Reverting status to planned is
// refused while the logged total already satisfies the duration: at that
// point the ledger, not the flag, says the work happened.
func (s *Service) Update(ctx context.Context, id, requesterID int, in UpdateInput) (*View, error) {
	log := logger.WithTrace(ctx, s.logger)

	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched.UserID != requesterID {
		return nil, apperr.Forbidden("only the owner may edit a schedule")
	}

	rows, err := s.progress.ListBySchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		switch *in.Status {
		case model.StatusPlanned, model.StatusCompleted, model.StatusSkipped:
		default:
			return nil, apperr.Validation("unknown status")
		}
		if *in.Status == model.StatusPlanned && completion.DeriveFor(sched, rows).NaturallyComplete {
			return nil, apperr.Validation("completion is locked once logged time reaches the duration")
		}
		sched.Status = *in.Status
	}

	if in.DurationMinutes != nil {
		if *in.DurationMinutes < 0 {
			return nil, apperr.Validation("duration_minutes must not be negative")
		}
		sched.DurationMinutes = in.DurationMinutes
	}
	if in.StartTime != nil {
		sched.StartTime = *in.StartTime
		sched.Date = midnight(*in.StartTime)
	}
	if in.Date != nil {
		// Moving the date carries the time-of-day along.
		d := midnight(*in.Date)
		sched.StartTime = atTimeOfDay(d, sched.StartTime)
		if sched.EndTime != nil {
			e := atTimeOfDay(d, *sched.EndTime)
			sched.EndTime = &e
		}
		sched.Date = d
	}
	if in.EndTime != nil {
		sched.EndTime = in.EndTime
	}
	if in.Notes != nil {
		sched.Notes = in.Notes
	}
	if in.ParticipantIDs != nil {
		sched.ParticipantIDs = in.ParticipantIDs
	}

	if err := s.schedules.Update(ctx, sched); err != nil {
		return nil, err
	}

	log.Info("Schedule updated",
		zap.Int("id", sched.ID),
		zap.String("status", string(sched.Status)),
	)
	return &View{Schedule: *sched, Completion: completion.DeriveFor(sched, rows)}, nil
}

// Delete removes the schedule and its progress rows, then best-effort
// forgets any pending reminder. The worker's re-fetch covers the case where
// forgetting fails.
func (s *Service) Delete(ctx context.Context, id, requesterID int) error {
	log := logger.WithTrace(ctx, s.logger)

	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sched.UserID != requesterID {
		return apperr.Forbidden("only the owner may delete a schedule")
	}

	if err := s.progress.DeleteBySchedule(ctx, id); err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	s.reminders.Forget(ctx, id)

	log.Info("Schedule deleted", zap.Int("id", id))
	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atTimeOfDay(date time.Time, clock time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		clock.Location(),
	)
}
