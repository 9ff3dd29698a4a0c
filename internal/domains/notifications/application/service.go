package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

// ErrInvalidInput signals a message that cannot be published.
var ErrInvalidInput = errors.New("invalid notification input")

// Service backs the notifier HTTP surface.
type Service struct {
	publisher ports.Publisher
	history   ports.History
}

func NewService(publisher ports.Publisher, history ports.History) *Service {
	return &Service{publisher: publisher, history: history}
}

// History returns the retained messages, newest first.
func (s *Service) History(ctx context.Context) ([]domain.Item, error) {
	return s.history.List(ctx)
}

// Send publishes an ad-hoc message through the queue. Unlike business flows it reports publish failures.
func (s *Service) Send(ctx context.Context, msg domain.Message) error {
	msg = msg.Normalize()
	if !msg.HasRecipients() {
		return fmt.Errorf("%w: at least one recipient or a phone number is required", ErrInvalidInput)
	}
	if s.publisher == nil {
		return ports.ErrPublisherUnavailable
	}
	return s.publisher.Publish(ctx, msg)
}
