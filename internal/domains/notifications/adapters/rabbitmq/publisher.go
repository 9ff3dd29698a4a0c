package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

var _ ports.Publisher = (*Publisher)(nil)

const (
	defaultPublishTimeout = 2 * time.Second
	reconnectDelay        = 2 * time.Second
)

// Publisher sends notifications to the broker. It never retries inline: when the
// connection is down Publish fails immediately and a single background reconnect runs.
type Publisher struct {
	url      string
	topology Topology
	timeout  time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	reconnecting atomic.Bool
	closed       atomic.Bool
	stop         chan struct{}
}

type PublisherOption func(*Publisher)

func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher connects and declares the topology. A failed initial dial is not fatal:
// the publisher starts disconnected and keeps trying in the background.
func NewPublisher(url string, topology Topology, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		url:      url,
		topology: topology.withDefaults(),
		timeout:  defaultPublishTimeout,
		logger:   observability.DiscardLogger(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.connect(); err != nil {
		p.logger.Warn("notification broker unavailable at startup", slog.String("error", err.Error()))
		p.scheduleReconnect()
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		p.scheduleReconnect()
		return ports.ErrPublisherUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.topology.Exchange, p.topology.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.scheduleReconnect()
		return fmt.Errorf("%w: %w", ports.ErrPublisherUnavailable, err)
	}
	return nil
}

// Close stops reconnect attempts and releases the connection.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.stop)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.release()
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := Declare(ch, p.topology); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		ch.Close()
		return conn.Close()
	}
	_ = p.release()
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) release() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	p.conn = nil
	return err
}

func (p *Publisher) scheduleReconnect() {
	if p.closed.Load() || !p.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.reconnecting.Store(false)
		for {
			select {
			case <-p.stop:
				return
			case <-time.After(reconnectDelay):
			}
			if err := p.connect(); err != nil {
				p.logger.Warn("notification broker reconnect failed", slog.String("error", err.Error()))
				continue
			}
			p.logger.Info("notification broker connection restored")
			return
		}
	}()
}
