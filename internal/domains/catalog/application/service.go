package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

// Service implements the catalog use cases on top of the product and client stores.
type Service struct {
	products ports.ProductRepository
	clients  ports.ClientRepository
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(products ports.ProductRepository, clients ports.ClientRepository, opts ...Option) *Service {
	s := &Service{products: products, clients: clients, logger: observability.DiscardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, input ports.CreateProductInput) (*domain.Product, error) {
	product, err := domain.NewProduct(input.Name, input.Price, input.AvailableQuantity)
	if err != nil {
		return nil, mapError(err)
	}
	return s.products.Save(ctx, product)
}

// ReduceStock decrements stock atomically; a shortfall is a conflict and leaves stock untouched.
func (s *Service) ReduceStock(ctx context.Context, id int64, quantity int32) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	product, err := s.products.ReduceStock(ctx, id, quantity)
	if err != nil {
		return nil, mapError(err)
	}
	s.logger.InfoContext(ctx, "stock reduced",
		slog.Int64("product.id", id),
		slog.Int("quantity", int(quantity)),
		slog.Int("product.available", int(product.AvailableQuantity)))
	return product, nil
}

type seedProduct struct {
	name     string
	price    int64
	quantity int32
}

var demoProducts = []seedProduct{
	{name: "Laptop Pro", price: 15000, quantity: 10},
	{name: "Smartphone X", price: 8000, quantity: 20},
	{name: "Wireless Earbuds", price: 1200, quantity: 50},
	{name: "Gaming Mouse", price: 500, quantity: 100},
}

// SeedProducts loads the demo products when the catalog is empty and reports how many were added.
func (s *Service) SeedProducts(ctx context.Context) (int, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, seed := range demoProducts {
		product, err := domain.NewProduct(seed.name, decimal.NewFromInt(seed.price), seed.quantity)
		if err != nil {
			return 0, err
		}
		if _, err := s.products.Save(ctx, product); err != nil {
			return 0, fmt.Errorf("seed %s: %w", seed.name, err)
		}
	}
	s.logger.InfoContext(ctx, "catalog seeded", slog.Int("products", len(demoProducts)))
	return len(demoProducts), nil
}

func (s *Service) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *Service) ListClients(ctx context.Context) ([]*domain.Client, error) {
	return s.clients.List(ctx)
}

func (s *Service) CreateClient(ctx context.Context, input ports.ClientInput) (*domain.Client, error) {
	client, err := domain.NewClient(input.FullName, input.Email, input.Phone)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.clients.Save(ctx, client)
	if err != nil {
		return nil, mapClientStoreError(err)
	}
	return saved, nil
}

func (s *Service) UpdateClient(ctx context.Context, id int64, input ports.ClientInput) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Update(input.FullName, input.Email, input.Phone); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.clients.Save(ctx, client)
	if err != nil {
		return nil, mapClientStoreError(err)
	}
	return saved, nil
}

func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	return s.clients.Delete(ctx, id)
}

func mapClientStoreError(err error) error {
	if errors.Is(err, ports.ErrEmailTaken) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

var _ ports.Service = (*Service)(nil)
