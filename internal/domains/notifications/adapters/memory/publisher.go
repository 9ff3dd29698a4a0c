package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

var _ ports.Publisher = (*Publisher)(nil)

// Publisher records published messages and optionally hands them straight to a
// handler, standing in for the broker when none is configured.
type Publisher struct {
	mu       sync.Mutex
	messages []domain.Message
	handler  ports.Handler
	err      error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// NewLoopbackPublisher delivers every message to handler in-process without retaining it.
func NewLoopbackPublisher(handler ports.Handler) *Publisher {
	return &Publisher{handler: handler}
}

// FailWith makes subsequent publishes return err; nil restores normal behaviour.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	p.mu.Lock()
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return err
	}
	handler := p.handler
	if handler == nil {
		p.messages = append(p.messages, msg)
	}
	p.mu.Unlock()

	if handler != nil {
		handler.Handle(context.WithoutCancel(ctx), msg)
	}
	return nil
}

// Messages returns a copy of everything recorded so far. Loopback publishers record nothing.
func (p *Publisher) Messages() []domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Message(nil), p.messages...)
}
