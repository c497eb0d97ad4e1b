package push

import (
	"context"

	"bloodbridge-backend/internal/logger"
)

// NoopSender drops notifications. It stands in for FCM in development
// environments where no service account is configured.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, token, title, _ string, _ map[string]string) error {
	logger.Debug("Push notification dropped (noop sender)", "token", token, "title", title)
	return nil
}
