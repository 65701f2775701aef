package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DeviceTokenRepository resolves a user's push destination. Token
// registration happens in the mobile-facing auth service; this side only
// reads.
type DeviceTokenRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDeviceTokenRepository(db *pgxpool.Pool, logger *zap.Logger) *DeviceTokenRepository {
	return &DeviceTokenRepository{
		db:     db,
		logger: logger,
	}
}

// ResolvePushToken returns the user's device token, or "" when none is
// registered.
func (r *DeviceTokenRepository) ResolvePushToken(ctx context.Context, userID int) (string, error) {
	var token string
	err := r.db.QueryRow(ctx,
		`SELECT token FROM device_tokens WHERE user_id = $1`, userID,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		r.logger.Error("Failed to resolve push token", zap.Int("user_id", userID), zap.Error(err))
		return "", err
	}
	return token, nil
}
