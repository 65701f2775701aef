// Package progress owns the progress ledger: log entries against a
// schedule, owner-only edits, and the manual-completion side effect.
package progress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
	"habitloop/pkg/logger"
)

type Store interface {
	Insert(ctx context.Context, p *model.Progress) error
	GetByID(ctx context.Context, id int) (*model.Progress, error)
	Update(ctx context.Context, p *model.Progress) error
	Delete(ctx context.Context, id int) error
}

type ScheduleStore interface {
	GetByID(ctx context.Context, id int) (*model.Schedule, error)
	UpdateStatus(ctx context.Context, id int, status model.ScheduleStatus) error
}

type Service struct {
	progress  Store
	schedules ScheduleStore
	logger    *zap.Logger
}

func NewService(progress Store, schedules ScheduleStore, log *zap.Logger) *Service {
	return &Service{
		progress:  progress,
		schedules: schedules,
		logger:    log,
	}
}

type CreateInput struct {
	ScheduleID  int
	Date        time.Time
	LoggedTime  *int
	Notes       *string
	IsCompleted bool
}

// Create logs progress against a schedule the requester owns. A row with
// is_completed=true marks the schedule completed on the spot, independent
// of whether accumulated time reached the duration.
func (s *Service) Create(ctx context.Context, ownerID int, in CreateInput) (*model.Progress, error) {
	log := logger.WithTrace(ctx, s.logger)

	sched, err := s.schedules.GetByID(ctx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sched.UserID != ownerID {
		return nil, apperr.Forbidden("schedule belongs to another user")
	}

	if in.LoggedTime != nil && *in.LoggedTime < 0 {
		return nil, apperr.Validation("logged_time must not be negative")
	}

	p := &model.Progress{
		UserID:      ownerID,
		ScheduleID:  in.ScheduleID,
		Date:        in.Date,
		LoggedTime:  in.LoggedTime,
		Notes:       in.Notes,
		IsCompleted: in.IsCompleted,
	}
	if err := s.progress.Insert(ctx, p); err != nil {
		return nil, err
	}

	if in.IsCompleted {
		if err := s.schedules.UpdateStatus(ctx, in.ScheduleID, model.StatusCompleted); err != nil {
			return nil, err
		}
		log.Info("Schedule marked completed from progress entry",
			zap.Int("schedule_id", in.ScheduleID),
			zap.Int("progress_id", p.ID),
		)
	}
	return p, nil
}

type UpdateInput struct {
	Date        *time.Time
	LoggedTime  *int
	Notes       *string
	IsCompleted *bool
}

// Update edits a ledger row, owner-only. Flipping is_completed to true
// re-applies the schedule-completion side effect.
func (s *Service) Update(ctx context.Context, id, requesterID int, in UpdateInput) (*model.Progress, error) {
	p, err := s.progress.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != requesterID {
		return nil, apperr.Forbidden("only the owner may edit a progress entry")
	}

	if in.LoggedTime != nil {
		if *in.LoggedTime < 0 {
			return nil, apperr.Validation("logged_time must not be negative")
		}
		p.LoggedTime = in.LoggedTime
	}
	if in.Date != nil {
		p.Date = *in.Date
	}
	if in.Notes != nil {
		p.Notes = in.Notes
	}
	markCompleted := false
	if in.IsCompleted != nil {
		markCompleted = *in.IsCompleted && !p.IsCompleted
		p.IsCompleted = *in.IsCompleted
	}

	if err := s.progress.Update(ctx, p); err != nil {
		return nil, err
	}

	if markCompleted {
		if err := s.schedules.UpdateStatus(ctx, p.ScheduleID, model.StatusCompleted); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Delete removes a ledger row, owner-only. The schedule status is left
// alone; read paths recompute the derived state from the remaining rows.
func (s *Service) Delete(ctx context.Context, id, requesterID int) error {
	p, err := s.progress.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != requesterID {
		return apperr.Forbidden("only the owner may delete a progress entry")
	}
	return s.progress.Delete(ctx, id)
}
