package application

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

// PublishBestEffort publishes msg and absorbs any failure. It reports whether the
// broker accepted the message so callers can record it, never to change their outcome.
func PublishBestEffort(ctx context.Context, publisher ports.Publisher, logger *slog.Logger, msg domain.Message) bool {
	if publisher == nil {
		return false
	}
	if err := publisher.Publish(ctx, msg); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "notification publish failed",
				slog.String("notification.subject", msg.Subject),
				slog.String("error", err.Error()))
		}
		return false
	}
	return true
}
