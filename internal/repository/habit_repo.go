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

// HabitRepository reads habit metadata owned by the habit CRUD service.
type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

func (r *HabitRepository) GetByID(ctx context.Context, id int) (*model.Habit, error) {
	query := `
        SELECT id, user_id, name, goal, category, created_at, updated_at
        FROM habits
        WHERE id = $1
    `

	var h model.Habit
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Goal,
		&h.Category,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("habit not found")
		}
		r.logger.Error("Failed to get habit", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return &h, nil
}
