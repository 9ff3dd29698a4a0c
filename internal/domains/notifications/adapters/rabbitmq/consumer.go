package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

// ErrDeliveriesClosed is returned when the broker closes the delivery stream.
var ErrDeliveriesClosed = errors.New("notification deliveries closed")

// Consumer reads the notification queue with automatic acknowledgement, so every
// delivery is consumed at most once regardless of how the handler fares.
type Consumer struct {
	url      string
	topology Topology
	handler  ports.Handler
	logger   *slog.Logger
	tag      string
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) {
		c.tag = tag
	}
}

func NewConsumer(url string, topology Topology, handler ports.Handler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		url:      url,
		topology: topology.withDefaults(),
		handler:  handler,
		logger:   observability.DiscardLogger(),
		tag:      "notifier",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run declares the topology and consumes until ctx is done or the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := Declare(ch, c.topology); err != nil {
		return err
	}
	deliveries, err := ch.Consume(c.topology.Queue, c.tag, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topology.Queue, err)
	}
	c.logger.Info("consuming notifications",
		slog.String("exchange", c.topology.Exchange), slog.String("queue", c.topology.Queue))
	return c.consume(ctx, deliveries)
}

// RunForever restarts Run after connection loss until ctx is cancelled.
func (c *Consumer) RunForever(ctx context.Context, retryDelay time.Duration) {
	for {
		err := c.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("notification consumer stopped, retrying", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg domain.Message
	if len(d.Body) > 0 {
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			c.logger.WarnContext(ctx, "dropping undecodable notification",
				slog.String("message.id", d.MessageId), slog.String("error", err.Error()))
			return
		}
	}
	c.handler.Handle(ctx, msg)
}
