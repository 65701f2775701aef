package push

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers one push notification to a device token. Delivery may
// fail; callers on the reminder path log and move on, they never retry.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// LogSender stands in for the real transport and records deliveries in the
// log. The FCM-backed implementation plugs in behind the same interface.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, token, title, body string) error {
	// TODO: wire the FCM HTTP v1 client here once service-account
	// credentials are provisioned.
	s.logger.Info("Delivering push notification",
		zap.String("token", token),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}
