package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
)

// ErrPublisherUnavailable is returned when the broker cannot take a message right now.
var ErrPublisherUnavailable = errors.New("notification publisher unavailable")

// Publisher hands a message to the notification queue without waiting for delivery.
type Publisher interface {
	Publish(ctx context.Context, msg domain.Message) error
}

// Sender delivers a rendered message to its recipients (email, SMS).
type Sender interface {
	Send(ctx context.Context, item domain.Item) error
}

// History keeps the most recent consumed messages, newest first.
type History interface {
	Add(ctx context.Context, item domain.Item) error
	List(ctx context.Context) ([]domain.Item, error)
}

// Handler processes a message taken off the queue.
type Handler interface {
	Handle(ctx context.Context, msg domain.Message) domain.Item
}
