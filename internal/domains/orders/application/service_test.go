package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	notificationmemory "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/memory"
	ordersmemory "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

type fakeCatalog struct {
	mu        sync.Mutex
	products  map[int64]domain.ProductSnapshot
	err       error
	degraded  bool
	reduced   map[int64]int32
	reduceErr error
}

func newFakeCatalog(products ...domain.ProductSnapshot) *fakeCatalog {
	c := &fakeCatalog{products: map[int64]domain.ProductSnapshot{}, reduced: map[int64]int32{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (domain.ProductSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.ProductSnapshot{}, c.err
	}
	if c.degraded {
		return domain.ProductSnapshot{ID: id, Degraded: true}, nil
	}
	p, ok := c.products[id]
	if !ok {
		return domain.ProductSnapshot{}, ports.ErrProductNotFound
	}
	return p, nil
}

func (c *fakeCatalog) ReduceStock(_ context.Context, id int64, quantity int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reduceErr != nil {
		return c.reduceErr
	}
	c.reduced[id] += quantity
	return nil
}

type fakeDirectory struct {
	customers map[int64]domain.Customer
	err       error
}

func (d *fakeDirectory) GetClient(_ context.Context, id int64) (domain.Customer, error) {
	if d.err != nil {
		return domain.Customer{}, d.err
	}
	c, ok := d.customers[id]
	if !ok {
		return domain.Customer{}, ports.ErrCustomerNotFound
	}
	return c, nil
}

// fakePayments declines the sentinel CVV and can simulate the processor's PAID callback.
type fakePayments struct {
	mu       sync.Mutex
	requests []ports.PaymentRequest
	err      error
	outcome  domain.PaymentOutcome
	callback func(orderID int64)
}

func (p *fakePayments) Pay(_ context.Context, req ports.PaymentRequest) (domain.PaymentResult, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.err != nil {
		return domain.PaymentResult{}, p.err
	}
	if p.outcome != "" {
		return domain.PaymentResult{Outcome: p.outcome, Detail: "processor offline"}, nil
	}
	if req.Card != nil && req.Card.CVV == "999" {
		return domain.PaymentResult{PaymentID: 1, Outcome: domain.PaymentDeclined, Detail: "card declined"}, nil
	}
	if p.callback != nil {
		p.callback(req.OrderID)
	}
	return domain.PaymentResult{PaymentID: 1, Outcome: domain.PaymentApproved}, nil
}

type OrderServiceSuite struct {
	suite.Suite
	ctx       context.Context
	repo      *ordersmemory.Repository
	catalog   *fakeCatalog
	directory *fakeDirectory
	payments  *fakePayments
	publisher *notificationmemory.Publisher
	svc       *Service
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = ordersmemory.NewRepository()
	s.catalog = newFakeCatalog(domain.ProductSnapshot{ID: 1, Name: "Laptop Pro", Price: decimal.NewFromInt(100), AvailableQuantity: 10})
	s.directory = &fakeDirectory{customers: map[int64]domain.Customer{7: {ID: 7, FullName: "Ada", Email: "a@b.com"}}}
	s.payments = &fakePayments{}
	s.publisher = notificationmemory.NewPublisher()
	s.svc = s.newService()
}

func (s *OrderServiceSuite) newService(opts ...Option) *Service {
	return NewService(s.repo, Dependencies{
		Products:  s.catalog,
		Clients:   s.directory,
		Payments:  s.payments,
		Publisher: s.publisher,
	}, opts...)
}

func (s *OrderServiceSuite) orderCount() int {
	list, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	return len(list)
}

func (s *OrderServiceSuite) TestEndToEndPaidOrder() {
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 3, ClientID: 7})
	s.Require().NoError(err)

	s.Equal(int32(3), order.Quantity)
	s.True(order.TotalPrice.Equal(decimal.NewFromInt(300)))
	s.Equal(domain.StatusPaid, order.Status)
	s.Equal(int32(3), s.catalog.reduced[1])

	s.Require().Len(s.payments.requests, 1)
	s.Equal(domain.PaymentCard, s.payments.requests[0].Method)
	s.True(s.payments.requests[0].Amount.Equal(decimal.NewFromInt(300)))

	msgs := s.publisher.Messages()
	s.Require().Len(msgs, 1)
	s.Equal([]string{"a@b.com"}, msgs[0].To)
	s.Contains(msgs[0].Body, fmt.Sprintf("#%d", order.ID))
	s.Contains(msgs[0].Body, "300")
}

func (s *OrderServiceSuite) TestTotalIsPriceTimesQuantity() {
	for q := int32(1); q <= 10; q++ {
		s.catalog.products[1] = domain.ProductSnapshot{ID: 1, Price: decimal.RequireFromString("12.50"), AvailableQuantity: 10}
		order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: q, ClientID: 7})
		s.Require().NoError(err)
		s.True(order.TotalPrice.Equal(decimal.RequireFromString("12.50").Mul(decimal.NewFromInt32(q))), "q=%d", q)
	}
}

func (s *OrderServiceSuite) TestInsufficientStockCreatesNothing() {
	_, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 11, ClientID: 7})
	s.ErrorIs(err, ErrInsufficientStock)
	s.Zero(s.orderCount())
	s.Empty(s.payments.requests)
	s.Empty(s.publisher.Messages())
}

func (s *OrderServiceSuite) TestMissingProductIsInsufficientStock() {
	_, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 42, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrInsufficientStock)
	s.ErrorIs(err, ports.ErrProductNotFound)
	s.Zero(s.orderCount())
}

func (s *OrderServiceSuite) TestUnknownClient() {
	_, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 99})
	s.ErrorIs(err, ErrClientNotFound)
	s.Zero(s.orderCount())
}

func (s *OrderServiceSuite) TestDegradedReadsCreateNothing() {
	s.catalog.degraded = true
	_, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrDependencyUnavailable)

	s.catalog.degraded = false
	s.directory.err = errors.New("client service timeout")
	_, err = s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrDependencyUnavailable)

	var dep *DependencyError
	s.Require().ErrorAs(err, &dep)
	s.Equal(ports.ClientService, dep.Dependency)

	s.Zero(s.orderCount())
	s.Empty(s.publisher.Messages())
}

func (s *OrderServiceSuite) TestRejectedLookupIsNotUnavailable() {
	s.catalog.err = fmt.Errorf("%w: 422 product archived", ports.ErrRejected)
	_, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrDependencyRejected)
	s.NotErrorIs(err, ErrDependencyUnavailable)
	s.NotErrorIs(err, ErrInsufficientStock)

	var dep *DependencyError
	s.Require().ErrorAs(err, &dep)
	s.Equal(ports.ProductService, dep.Dependency)
	s.Contains(err.Error(), "product archived")

	s.catalog.err = nil
	s.directory.err = fmt.Errorf("%w: 400 bad client", ports.ErrRejected)
	_, err = s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrDependencyRejected)
	s.Require().ErrorAs(err, &dep)
	s.Equal(ports.ClientService, dep.Dependency)

	s.Zero(s.orderCount())
	s.Empty(s.payments.requests)
}

func (s *OrderServiceSuite) TestDeclinedPaymentKeepsOrder() {
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{
		ProductID: 1, Quantity: 2, ClientID: 7,
		Card: &domain.CardDetails{Number: "4111111111111111", CVV: "999"},
	})
	s.ErrorIs(err, ErrPaymentDeclined)
	s.Require().NotNil(order)
	s.Equal(domain.StatusPaymentFailed, order.Status)

	stored, err := s.svc.GetOrderByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPaymentFailed, stored.Status)
	s.Empty(s.catalog.reduced)
	s.Require().Len(s.publisher.Messages(), 1)
	s.Contains(s.publisher.Messages()[0].Body, "failed")
}

func (s *OrderServiceSuite) TestPaymentTransportFailureKeepsOrder() {
	s.payments.err = errors.New("payment breaker fallback failed")
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrDependencyUnavailable)
	s.ErrorContains(err, "payment breaker fallback failed")
	var dep *DependencyError
	s.Require().ErrorAs(err, &dep)
	s.Equal(ports.PaymentService, dep.Dependency)
	s.Require().NotNil(order)
	s.Equal(domain.StatusPaymentFailed, order.Status)
	s.Equal(1, s.orderCount())
}

func (s *OrderServiceSuite) TestPaymentFallbackOutcomeKeepsOrder() {
	s.payments.outcome = domain.PaymentUnavailable
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.ErrorIs(err, ErrDependencyUnavailable)
	s.Require().NotNil(order)
	s.Equal(domain.StatusPaymentFailed, order.Status)
}

func (s *OrderServiceSuite) TestPaymentCallbackRaceIsAbsorbed() {
	s.payments.callback = func(orderID int64) {
		_, err := s.svc.UpdateOrderStatus(s.ctx, orderID, domain.StatusPaid)
		s.Require().NoError(err)
	}
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.Require().NoError(err)
	s.Equal(domain.StatusPaid, order.Status)
	s.Equal(int32(1), s.catalog.reduced[1])
}

func (s *OrderServiceSuite) TestPublishFailureDoesNotChangeOutcome() {
	s.publisher.FailWith(errors.New("broker down"))
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 3, ClientID: 7})
	s.Require().NoError(err)
	s.Equal(domain.StatusPaid, order.Status)
	s.True(order.TotalPrice.Equal(decimal.NewFromInt(300)))
}

func (s *OrderServiceSuite) TestStockReductionFailureIsBestEffort() {
	s.catalog.reduceErr = errors.New("catalog down")
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.Require().NoError(err)
	s.Equal(domain.StatusPaid, order.Status)
}

func (s *OrderServiceSuite) TestPaymentsDisabledCreatesCreatedOrder() {
	svc := s.newService(WithPaymentsEnabled(false), WithOpsRecipients([]string{"ops@demo.com", "a@b.com"}))
	order, err := svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.Require().NoError(err)
	s.Equal(domain.StatusCreated, order.Status)
	s.Empty(s.payments.requests)
	s.Empty(s.catalog.reduced)
	s.Require().Len(s.publisher.Messages(), 1)
	s.Equal([]string{"a@b.com", "ops@demo.com"}, s.publisher.Messages()[0].To)

	updated, err := svc.UpdateOrderStatus(s.ctx, order.ID, domain.StatusFailed)
	s.Require().NoError(err)
	s.Equal(domain.StatusFailed, updated.Status)
}

func (s *OrderServiceSuite) TestValidation() {
	cases := []ports.CreateOrderInput{
		{ProductID: 1, Quantity: 0, ClientID: 7},
		{ProductID: 0, Quantity: 1, ClientID: 7},
		{ProductID: 1, Quantity: 1, ClientID: 0},
		{ProductID: 1, Quantity: 1, ClientID: 7, PaymentMethod: "BARTER"},
	}
	for _, in := range cases {
		_, err := s.svc.CreateOrder(s.ctx, in)
		s.ErrorIs(err, ErrInvalidInput, "%+v", in)
	}
	s.Zero(s.orderCount())
}

func (s *OrderServiceSuite) TestGetOrderByIDIsIdempotent() {
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 2, ClientID: 7})
	s.Require().NoError(err)

	first, err := s.svc.GetOrderByID(s.ctx, order.ID)
	s.Require().NoError(err)
	second, err := s.svc.GetOrderByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(first, second)

	_, err = s.svc.GetOrderByID(s.ctx, 404)
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *OrderServiceSuite) TestUpdateOrderStatus() {
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.Require().NoError(err)
	published := len(s.publisher.Messages())

	updated, err := s.svc.UpdateOrderStatus(s.ctx, order.ID, domain.StatusConfirmed)
	s.Require().NoError(err)
	s.Equal(domain.StatusConfirmed, updated.Status)
	s.True(updated.TotalPrice.Equal(order.TotalPrice))

	msgs := s.publisher.Messages()
	s.Require().Len(msgs, published+1)
	s.Equal(StatusMessage(order.ID, domain.StatusConfirmed), msgs[len(msgs)-1].Body)

	_, err = s.svc.UpdateOrderStatus(s.ctx, order.ID, domain.StatusConfirmed)
	s.Require().NoError(err)
	s.Len(s.publisher.Messages(), published+1)

	_, err = s.svc.UpdateOrderStatus(s.ctx, order.ID, domain.StatusPending)
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.svc.UpdateOrderStatus(s.ctx, order.ID, domain.Status("LOST"))
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.svc.UpdateOrderStatus(s.ctx, 404, domain.StatusPaid)
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *OrderServiceSuite) TestDeleteOrder() {
	order, err := s.svc.CreateOrder(s.ctx, ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.DeleteOrder(s.ctx, order.ID))
	s.ErrorIs(s.svc.DeleteOrder(s.ctx, order.ID), ports.ErrNotFound)
}

func (s *OrderServiceSuite) TestIdempotencyKeyReplaysOrder() {
	svc := s.newService(WithIdempotencyStore(ordersmemory.NewIdempotencyStore()))
	input := ports.CreateOrderInput{ProductID: 1, Quantity: 2, ClientID: 7, IdempotencyKey: "retry-1"}

	first, err := svc.CreateOrder(s.ctx, input)
	s.Require().NoError(err)
	second, err := svc.CreateOrder(s.ctx, input)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(1, s.orderCount())
	s.Len(s.payments.requests, 1)
	s.Equal(int32(2), s.catalog.reduced[1])

	input.Quantity = 3
	_, err = svc.CreateOrder(s.ctx, input)
	s.ErrorIs(err, ErrIdempotencyConflict)
	s.Equal(1, s.orderCount())

	input.IdempotencyKey = ""
	_, err = svc.CreateOrder(s.ctx, input)
	s.Require().NoError(err)
	s.Equal(2, s.orderCount())
}

func (s *OrderServiceSuite) TestIdempotencyKeyAfterFailedReadRetries() {
	svc := s.newService(WithIdempotencyStore(ordersmemory.NewIdempotencyStore()))
	input := ports.CreateOrderInput{ProductID: 1, Quantity: 50, ClientID: 7, IdempotencyKey: "retry-2"}

	_, err := svc.CreateOrder(s.ctx, input)
	s.ErrorIs(err, ErrInsufficientStock)

	input.Quantity = 1
	order, err := svc.CreateOrder(s.ctx, input)
	s.Require().NoError(err)
	s.Equal(domain.StatusPaid, order.Status)

	s.Require().NoError(svc.DeleteOrder(s.ctx, order.ID))
	_, err = svc.CreateOrder(s.ctx, input)
	s.ErrorIs(err, ErrIdempotencyConflict)
}

// heldCatalog blocks the first product lookup until released.
type heldCatalog struct {
	*fakeCatalog
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *heldCatalog) GetProduct(ctx context.Context, id int64) (domain.ProductSnapshot, error) {
	first := false
	c.once.Do(func() { first = true })
	if first {
		close(c.entered)
		<-c.release
	}
	return c.fakeCatalog.GetProduct(ctx, id)
}

func (s *OrderServiceSuite) TestIdempotencyKeyConcurrentRetryChargesOnce() {
	catalog := &heldCatalog{fakeCatalog: s.catalog, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(s.repo, Dependencies{
		Products:  catalog,
		Clients:   s.directory,
		Payments:  s.payments,
		Publisher: s.publisher,
	}, WithIdempotencyStore(ordersmemory.NewIdempotencyStore()))
	input := ports.CreateOrderInput{ProductID: 1, Quantity: 1, ClientID: 7, IdempotencyKey: "retry-3"}

	type outcome struct {
		order *domain.Order
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		order, err := svc.CreateOrder(s.ctx, input)
		done <- outcome{order, err}
	}()
	<-catalog.entered

	_, err := svc.CreateOrder(s.ctx, input)
	s.ErrorIs(err, ErrIdempotencyConflict)

	close(catalog.release)
	first := <-done
	s.Require().NoError(first.err)

	replayed, err := svc.CreateOrder(s.ctx, input)
	s.Require().NoError(err)
	s.Equal(first.order.ID, replayed.ID)
	s.Equal(1, s.orderCount())
	s.Len(s.payments.requests, 1)
}

func TestFingerprintCreateOrderIgnoresCardSecrets(t *testing.T) {
	base := ports.CreateOrderInput{
		ProductID: 1, Quantity: 2, ClientID: 7,
		Card: &domain.CardDetails{Number: "4111 1111 1111 1111", CVV: "123"},
	}
	other := base
	other.Card = &domain.CardDetails{Number: "4111-1111-1111-1111", CVV: "999"}
	other.IdempotencyKey = "k"

	a, err := FingerprintCreateOrder(base, domain.PaymentCard)
	require.NoError(t, err)
	b, err := FingerprintCreateOrder(other, domain.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := FingerprintCreateOrder(base, domain.PaymentCash)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func TestFailureRoundTrip(t *testing.T) {
	errs := []error{
		fmt.Errorf("%w: product 1", ErrInsufficientStock),
		fmt.Errorf("%w: 9", ErrClientNotFound),
		fmt.Errorf("%w: cvv", ErrPaymentDeclined),
		fmt.Errorf("%w: catalog", ErrDependencyUnavailable),
		unavailable(ports.ProductService, errors.New("connection refused")),
		rejected(ports.ClientService, errors.New("422")),
		fmt.Errorf("%w: quantity", ErrInvalidInput),
		fmt.Errorf("%w: key", ErrIdempotencyConflict),
	}
	for _, err := range errs {
		failure := Classify(err)
		rebuilt := failure.Err(err.Error())
		for _, sentinel := range []error{ErrInsufficientStock, ErrClientNotFound, ErrPaymentDeclined, ErrDependencyUnavailable, ErrDependencyRejected, ErrInvalidInput} {
			assert.Equal(t, errors.Is(err, sentinel), errors.Is(rebuilt, sentinel), "%v vs %v", err, sentinel)
		}
	}
	assert.Equal(t, FailureNone, Classify(nil))
	assert.NoError(t, FailureNone.Err("x"))
	assert.Equal(t, FailureInternal, Classify(errors.New("boom")))
	require.Error(t, FailureInternal.Err("boom"))
}

// readBarrier holds the first n GetByID callers until all of them have read.
type readBarrier struct {
	*ordersmemory.Repository
	mu      sync.Mutex
	pending int
	arrived sync.WaitGroup
	release chan struct{}
}

func newReadBarrier(repo *ordersmemory.Repository, n int) *readBarrier {
	b := &readBarrier{Repository: repo, pending: n, release: make(chan struct{})}
	b.arrived.Add(n)
	return b
}

func (b *readBarrier) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := b.Repository.GetByID(ctx, id)
	b.mu.Lock()
	hold := b.pending > 0
	if hold {
		b.pending--
	}
	b.mu.Unlock()
	if hold {
		b.arrived.Done()
		<-b.release
	}
	return order, err
}

func TestUpdateOrderStatus_CanceledIsNotResurrectedByConcurrentPaid(t *testing.T) {
	ctx := context.Background()
	repo := ordersmemory.NewRepository()
	pending, err := domain.NewOrder(7, 1, 1, decimal.NewFromInt(100), domain.StatusPending)
	require.NoError(t, err)
	order, err := repo.Save(ctx, pending)
	require.NoError(t, err)

	barrier := newReadBarrier(repo, 2)
	svc := NewService(barrier, Dependencies{
		Products:  newFakeCatalog(),
		Clients:   &fakeDirectory{customers: map[int64]domain.Customer{}},
		Payments:  &fakePayments{},
		Publisher: notificationmemory.NewPublisher(),
	})

	var wg sync.WaitGroup
	for _, status := range []domain.Status{domain.StatusCanceled, domain.StatusPaid} {
		wg.Add(1)
		go func(status domain.Status) {
			defer wg.Done()
			_, err := svc.UpdateOrderStatus(ctx, order.ID, status)
			if err != nil {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		}(status)
	}
	barrier.arrived.Wait()
	close(barrier.release)
	wg.Wait()

	final, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, final.Status)
}
