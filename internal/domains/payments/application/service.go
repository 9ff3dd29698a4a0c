package application

import (
	"context"
	"fmt"
	"log/slog"

	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	notificationdomain "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	notificationports "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

const (
	// DefaultDeclineCVV makes a card payment fail deterministically.
	DefaultDeclineCVV = "999"
	// DefaultAdminRecipient receives payment notifications.
	DefaultAdminRecipient = "admin@demo.com"
)

// Service processes payments and reports the outcome back to orders.
type Service struct {
	repo       ports.Repository
	orders     ports.OrderStatusUpdater
	publisher  notificationports.Publisher
	logger     *slog.Logger
	declineCVV string
	recipients []string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDeclineCVV sets the CVV that is always declined. Empty disables forced declines.
func WithDeclineCVV(cvv string) Option {
	return func(s *Service) {
		s.declineCVV = cvv
	}
}

func WithRecipients(addrs []string) Option {
	return func(s *Service) {
		if len(addrs) > 0 {
			s.recipients = append([]string(nil), addrs...)
		}
	}
}

func NewService(repo ports.Repository, orders ports.OrderStatusUpdater, publisher notificationports.Publisher, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		orders:     orders,
		publisher:  publisher,
		logger:     observability.DiscardLogger(),
		declineCVV: DefaultDeclineCVV,
		recipients: []string{DefaultAdminRecipient},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pay records a charge attempt. A declined card yields a FAILED payment, not an error.
// Only a PAID payment moves the order; that callback and the notification are best-effort.
func (s *Service) Pay(ctx context.Context, input ports.PayInput) (*domain.Payment, error) {
	method, err := domain.ParseMethod(input.Method)
	if err != nil {
		return nil, mapError(err)
	}
	payment, err := domain.NewPayment(input.OrderID, input.Amount, method, input.Card)
	if err != nil {
		return nil, mapError(err)
	}
	payment.Status = domain.StatusPaid
	if s.declined(input.Card) {
		payment.Status = domain.StatusFailed
	}

	saved, err := s.repo.Save(ctx, payment)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "payment recorded",
		slog.Int64("payment.id", saved.ID),
		slog.Int64("order.id", saved.OrderID),
		slog.String("payment.status", string(saved.Status)))

	if saved.Status == domain.StatusPaid && s.orders != nil {
		if err := s.orders.UpdateOrderStatus(ctx, saved.OrderID, string(domain.StatusPaid)); err != nil {
			s.logger.WarnContext(ctx, "order status callback failed",
				slog.Int64("payment.id", saved.ID),
				slog.Int64("order.id", saved.OrderID),
				slog.String("error", err.Error()))
		}
	}
	notificationapp.PublishBestEffort(ctx, s.publisher, s.logger, s.outcomeMessage(saved))
	return saved, nil
}

func (s *Service) declined(card *domain.Card) bool {
	return s.declineCVV != "" && card != nil && card.CVV == s.declineCVV
}

func (s *Service) outcomeMessage(p *domain.Payment) notificationdomain.Message {
	verb := "received"
	if p.Status == domain.StatusFailed {
		verb = "declined"
	}
	return notificationdomain.Message{
		To:      s.recipients,
		Subject: fmt.Sprintf("Payment %s for Order #%d", verb, p.OrderID),
		Body: fmt.Sprintf("Payment %s for Order #%d (amount=%s, method=%s)",
			verb, p.OrderID, p.Amount.StringFixed(2), p.Method),
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Payment, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// CorrectStatus is the administrative override; it is allowed once per payment.
func (s *Service) CorrectStatus(ctx context.Context, id int64, status domain.Status) (*domain.Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := payment.Status
	if err := payment.Correct(status); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Correct(ctx, id, status)
	if err != nil {
		return nil, mapError(err)
	}
	s.logger.InfoContext(ctx, "payment status corrected",
		slog.Int64("payment.id", id),
		slog.String("payment.previous_status", string(previous)),
		slog.String("payment.status", string(saved.Status)))
	return saved, nil
}

var _ ports.Service = (*Service)(nil)
