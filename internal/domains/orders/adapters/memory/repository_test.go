package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

func newOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(7, 1, 3, decimal.NewFromInt(100), domain.StatusPending)
	require.NoError(t, err)
	return order
}

func TestRepository_SaveKeepsTotalsAndCreatedAt(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newOrder(t))
	require.NoError(t, err)
	require.Equal(t, int64(1), saved.ID)
	require.False(t, saved.CreatedAt.IsZero())

	saved.TotalPrice = decimal.NewFromInt(1)
	saved.Status = domain.StatusPaid
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)
}

func TestRepository_ReadsAreCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	saved, err := repo.Save(ctx, newOrder(t))
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	first.Status = domain.StatusCanceled

	second, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, second.Status)
}

func TestRepository_DeleteAndMissing(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	saved, err := repo.Save(ctx, newOrder(t))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved.ID))
	_, err = repo.GetByID(ctx, saved.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, saved.ID), ports.ErrNotFound)
}

func TestRepository_ConcurrentSavesGetDistinctIDs(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := domain.NewOrder(1, 1, 1, decimal.NewFromInt(5), "")
			if err == nil {
				_, _ = repo.Save(ctx, order)
			}
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 50)
	for i, order := range list {
		assert.Equal(t, int64(i+1), order.ID)
	}
}

func TestRepository_UpdateStatusComparesCurrentStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	order, err := domain.NewOrder(7, 1, 2, decimal.NewFromInt(100), domain.StatusPending)
	require.NoError(t, err)
	saved, err := repo.Save(ctx, order)
	require.NoError(t, err)

	paid, err := repo.UpdateStatus(ctx, saved.ID, domain.StatusPending, domain.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.True(t, paid.TotalPrice.Equal(decimal.NewFromInt(200)))

	_, err = repo.UpdateStatus(ctx, saved.ID, domain.StatusPending, domain.StatusCanceled)
	assert.ErrorIs(t, err, ports.ErrStatusChanged)

	_, err = repo.UpdateStatus(ctx, 404, domain.StatusPending, domain.StatusPaid)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
