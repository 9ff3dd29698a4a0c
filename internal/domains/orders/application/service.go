package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	notificationdomain "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	notificationports "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

// Dependencies are the collaborators the orchestrator calls during order creation.
type Dependencies struct {
	Products  ports.ProductCatalog
	Clients   ports.ClientDirectory
	Payments  ports.PaymentGateway
	Publisher notificationports.Publisher
}

// Service orchestrates order creation across the catalog, client and payment services.
type Service struct {
	repo            ports.Repository
	products        ports.ProductCatalog
	clients         ports.ClientDirectory
	payments        ports.PaymentGateway
	publisher       notificationports.Publisher
	logger          *slog.Logger
	paymentsEnabled bool
	opsRecipients   []string
	idempotency     ports.IdempotencyStore
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPaymentsEnabled toggles payment integration. Without it orders start CREATED
// and neither payment nor stock reduction is attempted.
func WithPaymentsEnabled(enabled bool) Option {
	return func(s *Service) {
		s.paymentsEnabled = enabled
	}
}

// WithOpsRecipients copies every order notification to the given addresses.
func WithOpsRecipients(addrs []string) Option {
	return func(s *Service) {
		s.opsRecipients = append([]string(nil), addrs...)
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for CreateOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

func NewService(repo ports.Repository, deps Dependencies, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		products:        deps.Products,
		clients:         deps.Clients,
		payments:        deps.Payments,
		publisher:       deps.Publisher,
		logger:          observability.DiscardLogger(),
		paymentsEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder validates stock and client, persists the order and charges it.
// When payment fails the persisted PAYMENT_FAILED order is returned together with the error.
func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	method, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.placeOrder(ctx, input, method, nil)
	}
	hash, err := FingerprintCreateOrder(input, method)
	if err != nil {
		return nil, err
	}
	existing, claimed, err := s.claim(ctx, key, hash)
	if err != nil || !claimed {
		return existing, err
	}
	settled := false
	order, err := s.placeOrder(ctx, input, method, func(id int64) {
		settled = true
		s.settle(ctx, key, id)
	})
	if !settled {
		s.settle(ctx, key, 0)
	}
	return order, err
}

// placeOrder runs the read phase, persists the order and charges it. persisted, when set,
// learns the new order id before payment starts.
func (s *Service) placeOrder(ctx context.Context, input ports.CreateOrderInput, method domain.PaymentMethod, persisted func(id int64)) (*domain.Order, error) {
	product, err := s.products.GetProduct(ctx, input.ProductID)
	switch {
	case errors.Is(err, ports.ErrProductNotFound):
		return nil, fmt.Errorf("%w: %w", ErrInsufficientStock, err)
	case errors.Is(err, ports.ErrRejected):
		return nil, rejected(ports.ProductService, err)
	case err != nil:
		return nil, unavailable(ports.ProductService, err)
	case product.Degraded:
		return nil, unavailable(ports.ProductService, errPlaceholder)
	}
	if product.AvailableQuantity < input.Quantity {
		return nil, fmt.Errorf("%w: product %d has %d, requested %d",
			ErrInsufficientStock, product.ID, product.AvailableQuantity, input.Quantity)
	}

	customer, err := s.clients.GetClient(ctx, input.ClientID)
	switch {
	case errors.Is(err, ports.ErrCustomerNotFound):
		return nil, fmt.Errorf("%w: %d", ErrClientNotFound, input.ClientID)
	case errors.Is(err, ports.ErrRejected):
		return nil, rejected(ports.ClientService, err)
	case err != nil:
		return nil, unavailable(ports.ClientService, err)
	case customer.Degraded:
		return nil, unavailable(ports.ClientService, errPlaceholder)
	}

	initial := domain.StatusPending
	if !s.paymentsEnabled {
		initial = domain.StatusCreated
	}
	order, err := domain.NewOrder(input.ClientID, input.ProductID, input.Quantity, product.Price, initial)
	if err != nil {
		return nil, mapError(err)
	}
	order, err = s.repo.Save(ctx, order)
	if err != nil {
		return nil, err
	}
	if persisted != nil {
		persisted(order.ID)
	}
	s.logger.InfoContext(ctx, "order persisted",
		slog.Int64("order.id", order.ID),
		slog.String("order.status", string(order.Status)),
		slog.String("order.total", order.TotalPrice.String()))

	if !s.paymentsEnabled {
		s.notify(ctx, s.creationMessage(order, customer, nil))
		return order, nil
	}

	order, cause := s.charge(ctx, order, method, input.Card)
	s.notify(ctx, s.creationMessage(order, customer, cause))
	return order, cause
}

// charge runs the payment step and the compensating transition.
func (s *Service) charge(ctx context.Context, order *domain.Order, method domain.PaymentMethod, card *domain.CardDetails) (*domain.Order, error) {
	result, err := s.payments.Pay(ctx, ports.PaymentRequest{
		OrderID: order.ID,
		Amount:  order.TotalPrice,
		Method:  method,
		Card:    card,
	})
	if err != nil {
		result = domain.PaymentResult{Outcome: domain.PaymentUnavailable, Detail: err.Error()}
	}

	var (
		next  domain.Status
		cause error
	)
	switch result.Outcome {
	case domain.PaymentApproved:
		next = domain.StatusPaid
	case domain.PaymentDeclined:
		next = domain.StatusPaymentFailed
		cause = failureDetail(ErrPaymentDeclined, result.Detail)
	default:
		next = domain.StatusPaymentFailed
		var detail error
		if d := strings.TrimSpace(result.Detail); d != "" {
			detail = errors.New(d)
		}
		cause = unavailable(ports.PaymentService, detail)
	}

	// The payment processor may already have moved the order to PAID through its callback.
	saved, _, err := s.transition(ctx, order.ID, next)
	if err != nil {
		if !errors.Is(err, ErrInvalidTransition) {
			return order, errors.Join(cause, err)
		}
		current, getErr := s.repo.GetByID(ctx, order.ID)
		if getErr != nil {
			current = order
		}
		s.logger.WarnContext(ctx, "order status transition after payment rejected",
			slog.Int64("order.id", order.ID),
			slog.String("order.status", string(current.Status)),
			slog.String("order.target", string(next)),
			slog.String("error", err.Error()))
		return current, cause
	}

	if next == domain.StatusPaid {
		if err := s.products.ReduceStock(ctx, saved.ProductID, saved.Quantity); err != nil {
			s.logger.WarnContext(ctx, "stock reduction failed",
				slog.Int64("order.id", saved.ID),
				slog.Int64("product.id", saved.ProductID),
				slog.String("error", err.Error()))
		}
	}
	return saved, cause
}

func (s *Service) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

// UpdateOrderStatus applies a lifecycle transition. Re-applying the current status is a no-op.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error) {
	if !status.Valid() {
		return nil, mapError(fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status))
	}
	saved, changed, err := s.transition(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !changed {
		return saved, nil
	}
	s.notify(ctx, s.statusMessage(saved, s.lookupCustomer(ctx, saved.ClientID)))
	return saved, nil
}

// transitionAttempts bounds re-reads when another writer changes the status first.
const transitionAttempts = 3

// transition validates next against the stored status and writes it only if that status is unchanged.
func (s *Service) transition(ctx context.Context, id int64, next domain.Status) (*domain.Order, bool, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		order, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		from := order.Status
		changed, err := order.TransitionTo(next)
		if err != nil {
			return nil, false, mapError(err)
		}
		if !changed {
			return order, false, nil
		}
		saved, err := s.repo.UpdateStatus(ctx, id, from, next)
		if errors.Is(err, ports.ErrStatusChanged) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return saved, true, nil
	}
	return nil, false, fmt.Errorf("%w: %w", ErrInvalidTransition, lastErr)
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// lookupCustomer resolves the recipient for a status notice; failures leave only ops recipients.
func (s *Service) lookupCustomer(ctx context.Context, id int64) domain.Customer {
	if s.clients == nil {
		return domain.Customer{ID: id}
	}
	customer, err := s.clients.GetClient(ctx, id)
	if err != nil || customer.Degraded {
		return domain.Customer{ID: id}
	}
	return customer
}

func (s *Service) notify(ctx context.Context, msg notificationdomain.Message) {
	notificationapp.PublishBestEffort(ctx, s.publisher, s.logger, msg)
}

func validateCreate(input ports.CreateOrderInput) (domain.PaymentMethod, error) {
	if input.ProductID <= 0 {
		return "", mapError(domain.ErrInvalidProductID)
	}
	if input.ClientID <= 0 {
		return "", mapError(domain.ErrInvalidClientID)
	}
	if input.Quantity <= 0 {
		return "", mapError(domain.ErrInvalidQuantity)
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(input.PaymentMethod))))
	if method == "" {
		method = domain.PaymentCard
	}
	switch method {
	case domain.PaymentCard, domain.PaymentCash, domain.PaymentTransfer:
	default:
		return "", fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, input.PaymentMethod)
	}
	if method == domain.PaymentCard && input.Card != nil && strings.TrimSpace(input.Card.Number) == "" {
		return "", fmt.Errorf("%w: card number is required", ErrInvalidInput)
	}
	return method, nil
}

func failureDetail(sentinel error, detail string) error {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}

var _ ports.Service = (*Service)(nil)
