package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
)

type ProgressRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProgressRepository(db *pgxpool.Pool, logger *zap.Logger) *ProgressRepository {
	return &ProgressRepository{
		db:     db,
		logger: logger,
	}
}

const progressColumns = `id, user_id, schedule_id, date, logged_time, notes, is_completed, created_at, updated_at`

func scanProgress(row pgx.Row) (*model.Progress, error) {
	var p model.Progress
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ScheduleID,
		&p.Date,
		&p.LoggedTime,
		&p.Notes,
		&p.IsCompleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) Insert(ctx context.Context, p *model.Progress) error {
	query := `
        INSERT INTO progress (user_id, schedule_id, date, logged_time, notes, is_completed)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.UserID,
		p.ScheduleID,
		p.Date,
		p.LoggedTime,
		p.Notes,
		p.IsCompleted,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert progress",
			zap.Int("schedule_id", p.ScheduleID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Progress inserted",
		zap.Int("id", p.ID),
		zap.Int("schedule_id", p.ScheduleID),
	)
	return nil
}

func (r *ProgressRepository) GetByID(ctx context.Context, id int) (*model.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE id = $1`

	p, err := scanProgress(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("progress not found")
		}
		r.logger.Error("Failed to get progress", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *ProgressRepository) ListBySchedule(ctx context.Context, scheduleID int) ([]model.Progress, error) {
	query := `
        SELECT ` + progressColumns + `
        FROM progress
        WHERE schedule_id = $1
        ORDER BY created_at
    `

	rows, err := r.db.Query(ctx, query, scheduleID)
	if err != nil {
		r.logger.Error("Failed to list progress", zap.Int("schedule_id", scheduleID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []model.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			r.logger.Error("Failed to scan progress", zap.Error(err))
			return nil, err
		}
		entries = append(entries, *p)
	}
	return entries, rows.Err()
}

func (r *ProgressRepository) Update(ctx context.Context, p *model.Progress) error {
	query := `
        UPDATE progress
        SET date = $1, logged_time = $2, notes = $3, is_completed = $4, updated_at = now()
        WHERE id = $5
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.Date,
		p.LoggedTime,
		p.Notes,
		p.IsCompleted,
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("progress not found")
		}
		r.logger.Error("Failed to update progress", zap.Int("id", p.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *ProgressRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM progress WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete progress", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("progress not found")
	}
	return nil
}

// DeleteBySchedule removes every progress row of a schedule; used when the
// schedule itself is deleted.
func (r *ProgressRepository) DeleteBySchedule(ctx context.Context, scheduleID int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM progress WHERE schedule_id = $1`, scheduleID)
	if err != nil {
		r.logger.Error("Failed to delete progress for schedule",
			zap.Int("schedule_id", scheduleID),
			zap.Error(err),
		)
	}
	return err
}
