package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

// Consumer renders queued messages, attempts delivery once and records them in the history.
type Consumer struct {
	sender  ports.Sender
	history ports.History
	logger  *slog.Logger
	now     func() time.Time
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithClock(now func() time.Time) ConsumerOption {
	return func(c *Consumer) {
		if now != nil {
			c.now = now
		}
	}
}

func NewConsumer(sender ports.Sender, history ports.History, opts ...ConsumerOption) *Consumer {
	c := &Consumer{sender: sender, history: history, logger: observability.DiscardLogger(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle never fails: delivery and history errors are logged and the message counts as consumed.
func (c *Consumer) Handle(ctx context.Context, msg domain.Message) domain.Item {
	msg = msg.Normalize()
	subject, body := msg.Render()
	item := domain.Item{
		ID:         uuid.NewString(),
		To:         msg.To,
		Phone:      msg.Phone,
		Subject:    subject,
		Body:       body,
		Delivery:   domain.DeliverySkipped,
		ReceivedAt: c.now().UTC(),
	}

	if msg.HasRecipients() && c.sender != nil {
		if err := c.sender.Send(ctx, item); err != nil {
			item.Delivery = domain.DeliveryFailed
			item.Error = err.Error()
			c.logger.WarnContext(ctx, "notification delivery failed",
				slog.String("notification.id", item.ID),
				slog.Any("notification.to", item.To),
				slog.String("error", err.Error()))
		} else {
			item.Delivery = domain.DeliverySent
		}
	}

	if err := c.history.Add(ctx, item); err != nil {
		c.logger.WarnContext(ctx, "failed to record notification history",
			slog.String("notification.id", item.ID), slog.String("error", err.Error()))
	}
	c.logger.InfoContext(ctx, "notification consumed",
		slog.String("notification.id", item.ID),
		slog.String("notification.subject", item.Subject),
		slog.String("notification.delivery", string(item.Delivery)))
	return item
}

var _ ports.Handler = (*Consumer)(nil)
