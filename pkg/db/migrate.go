package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS habits (
		id serial PRIMARY KEY,
		user_id int NOT NULL,
		name text NOT NULL,
		goal text NOT NULL DEFAULT '',
		category text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id serial PRIMARY KEY,
		user_id int NOT NULL,
		habit_id int NOT NULL REFERENCES habits(id),
		date date NOT NULL,
		start_time timestamptz NOT NULL,
		end_time timestamptz,
		duration_minutes int,
		status text NOT NULL DEFAULT 'planned',
		is_custom boolean NOT NULL DEFAULT false,
		notes text,
		participant_ids int[] NOT NULL DEFAULT '{}',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_user_date ON schedules (user_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_status_date ON schedules (status, date)`,
	`CREATE TABLE IF NOT EXISTS progress (
		id serial PRIMARY KEY,
		user_id int NOT NULL,
		schedule_id int NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		date date NOT NULL,
		logged_time int,
		notes text,
		is_completed boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_progress_schedule ON progress (schedule_id)`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		user_id int PRIMARY KEY,
		token text NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Every statement is idempotent, so running it
// on every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Error("Migration statement failed", zap.Error(err))
			return err
		}
	}
	logger.Info("Database schema up to date")
	return nil
}
