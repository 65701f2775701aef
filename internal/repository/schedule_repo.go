package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
)

type ScheduleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewScheduleRepository(db *pgxpool.Pool, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		db:     db,
		logger: logger,
	}
}

const scheduleColumns = `id, user_id, habit_id, date, start_time, end_time, duration_minutes,
       status, is_custom, notes, participant_ids, created_at, updated_at`

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.HabitID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.Status,
		&s.IsCustom,
		&s.Notes,
		&s.ParticipantIDs,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertBatch persists a group of schedules generated together, filling in
// ids and timestamps.
func (r *ScheduleRepository) InsertBatch(ctx context.Context, schedules []*model.Schedule) error {
	query := `
        INSERT INTO schedules
            (user_id, habit_id, date, start_time, end_time, duration_minutes,
             status, is_custom, notes, participant_ids)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at
    `
	for _, s := range schedules {
		err := r.db.QueryRow(ctx, query,
			s.UserID,
			s.HabitID,
			s.Date,
			s.StartTime,
			s.EndTime,
			s.DurationMinutes,
			s.Status,
			s.IsCustom,
			s.Notes,
			s.ParticipantIDs,
		).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			r.logger.Error("Failed to insert schedule",
				zap.Int("user_id", s.UserID),
				zap.Int("habit_id", s.HabitID),
				zap.Error(err),
			)
			return err
		}
	}

	r.logger.Info("Schedules inserted",
		zap.Int("count", len(schedules)),
	)
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id int) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	s, err := scanSchedule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("schedule not found")
		}
		r.logger.Error("Failed to get schedule", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return s, nil
}

func (r *ScheduleRepository) ListByUserBetween(ctx context.Context, userID int, from, to time.Time) ([]model.Schedule, error) {
	query := `
        SELECT ` + scheduleColumns + `
        FROM schedules
        WHERE user_id = $1 AND date >= $2 AND date <= $3
        ORDER BY date, start_time
    `

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		r.logger.Error("Failed to list schedules", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			r.logger.Error("Failed to scan schedule", zap.Error(err))
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// Update saves the full mutable field set in one statement; callers load
// fresh, mutate and save so no stale snapshot is written back piecemeal.
func (r *ScheduleRepository) Update(ctx context.Context, s *model.Schedule) error {
	query := `
        UPDATE schedules
        SET date = $1, start_time = $2, end_time = $3, duration_minutes = $4,
            status = $5, notes = $6, participant_ids = $7, updated_at = now()
        WHERE id = $8
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.DurationMinutes,
		s.Status,
		s.Notes,
		s.ParticipantIDs,
		s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("schedule not found")
		}
		r.logger.Error("Failed to update schedule", zap.Int("id", s.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id int, status model.ScheduleStatus) error {
	query := `UPDATE schedules SET status = $1, updated_at = now() WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update schedule status",
			zap.Int("id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule not found")
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete schedule", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule not found")
	}
	return nil
}

// MarkMissedBefore flips planned schedules dated strictly before cutoff to
// skipped and returns how many rows changed. Re-running is a no-op: swept
// rows are no longer planned.
func (r *ScheduleRepository) MarkMissedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
        UPDATE schedules
        SET status = $1, updated_at = now()
        WHERE status = $2 AND date < $3
    `
	tag, err := r.db.Exec(ctx, query, model.StatusSkipped, model.StatusPlanned, cutoff)
	if err != nil {
		r.logger.Error("Failed to mark missed schedules", zap.Error(err))
		return 0, err
	}

	if tag.RowsAffected() > 0 {
		r.logger.Info("Marked missed schedules as skipped",
			zap.Int64("count", tag.RowsAffected()),
		)
	}
	return tag.RowsAffected(), nil
}
