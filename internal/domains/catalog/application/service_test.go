package application

import (
	"context"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/adapters/memory"
	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
)

func newTestService() *Service {
	return NewService(memory.NewProductRepository(), memory.NewClientRepository())
}

func TestSeedProductsOnlyWhenEmpty(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	added, err := svc.SeedProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = svc.SeedProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, "Laptop Pro", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, int32(10), products[0].AvailableQuantity)
}

func TestReduceStockRejectsShortfall(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product, err := svc.CreateProduct(ctx, ports.CreateProductInput{Name: "Widget", Price: decimal.NewFromInt(100), AvailableQuantity: 10})
	require.NoError(t, err)

	updated, err := svc.ReduceStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(7), updated.AvailableQuantity)

	_, err = svc.ReduceStock(ctx, product.ID, 8)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	current, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(7), current.AvailableQuantity)

	_, err = svc.ReduceStock(ctx, product.ID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ReduceStock(ctx, 999, 1)
	require.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestReduceStockIsAtomicUnderConcurrency(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product, err := svc.CreateProduct(ctx, ports.CreateProductInput{Name: "Widget", Price: decimal.NewFromInt(1), AvailableQuantity: 50})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ReduceStock(ctx, product.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)
	current, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, current.AvailableQuantity)
}

func TestCreateProductValidates(t *testing.T) {
	svc := newTestService()
	_, err := svc.CreateProduct(context.Background(), ports.CreateProductInput{Name: "Free", Price: decimal.Zero, AvailableQuantity: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestClientLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	email := gofakeit.Email()

	created, err := svc.CreateClient(ctx, ports.ClientInput{FullName: gofakeit.Name(), Email: email, Phone: gofakeit.Phone()})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = svc.CreateClient(ctx, ports.ClientInput{FullName: gofakeit.Name(), Email: email})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrEmailTaken)

	updated, err := svc.UpdateClient(ctx, created.ID, ports.ClientInput{FullName: "Renamed Person", Email: email})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Person", updated.FullName)

	_, err = svc.UpdateClient(ctx, created.ID, ports.ClientInput{FullName: "Renamed Person", Email: "not-an-email"})
	require.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.DeleteClient(ctx, created.ID))
	_, err = svc.GetClient(ctx, created.ID)
	require.ErrorIs(t, err, ports.ErrClientNotFound)
	require.ErrorIs(t, svc.DeleteClient(ctx, created.ID), ports.ErrClientNotFound)
}
