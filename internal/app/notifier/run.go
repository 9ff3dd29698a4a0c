// Package notifier boots the notification consumer and its inspection API.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	fulfillmentserver "github.com/Apurer/go-order-fulfillment/go"
	"github.com/Apurer/go-order-fulfillment/internal/app/bootstrap"
	notificationmail "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/mail"
	notificationmemory "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/memory"
	notificationpostgres "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/persistence/postgres"
	notificationrabbitmq "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/rabbitmq"
	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	notificationports "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

const (
	ServiceName = "notification-service"

	consumerRetryDelay = 5 * time.Second
)

// Run consumes the notification queue and serves the history until ctx is cancelled.
func Run(ctx context.Context) error {
	p, err := bootstrap.Start(ctx, ServiceName, "8083")
	if err != nil {
		return err
	}
	defer p.Close()
	cfg := p.Config

	var history notificationports.History = notificationmemory.NewHistory(domain.HistoryLimit)
	if db := p.Database(ctx, notificationpostgres.Models()...); db != nil {
		history = notificationpostgres.NewHistory(db, domain.HistoryLimit)
		p.Logger.Info("notification history configured with postgres")
	}

	var sender notificationports.Sender = notificationmail.NewLogSender(p.Logger)
	if cfg.SMTPAddr != "" {
		smtpSender, err := notificationmail.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom,
			notificationmail.WithSMTPAuth(cfg.SMTPUsername, cfg.SMTPPassword),
			notificationmail.WithSMTPTimeout(cfg.SMTPTimeout),
		)
		if err != nil {
			return fmt.Errorf("configure smtp: %w", err)
		}
		sender = smtpSender
		p.Logger.Info("email delivery through SMTP", slog.String("addr", cfg.SMTPAddr))
	}
	consumer := notificationapp.NewConsumer(sender, history, notificationapp.WithConsumerLogger(p.Logger))

	var publisher notificationports.Publisher
	if cfg.RabbitMQURL == "" {
		p.Logger.Warn("RABBITMQ_URL not set, ad-hoc notifications are consumed in-process")
		publisher = notificationmemory.NewLoopbackPublisher(consumer)
	} else {
		publisher = p.Publisher()
		queue := notificationrabbitmq.NewConsumer(cfg.RabbitMQURL, p.Topology(), consumer,
			notificationrabbitmq.WithConsumerLogger(p.Logger))
		go queue.RunForever(ctx, consumerRetryDelay)
	}

	service := notificationapp.NewService(publisher, history)
	router := p.Router(fulfillmentserver.ApiHandleFunctions{NotificationAPI: fulfillmentserver.NewNotificationAPI(service)})
	return p.Serve(ctx, router)
}
