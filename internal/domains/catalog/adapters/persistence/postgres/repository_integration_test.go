//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/migrations"
)

func setupCatalogPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("catalog_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db, Models()...))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func TestProductRepository_SaveAndReduceStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewProductRepository(db)
	ctx := context.Background()

	product, err := domain.NewProduct("Laptop Pro", decimal.RequireFromString("15000.00"), 10)
	require.NoError(t, err)
	saved, err := repo.Save(ctx, product)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	assert.True(t, saved.Price.Equal(decimal.NewFromInt(15000)))

	reduced, err := repo.ReduceStock(ctx, saved.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(6), reduced.AvailableQuantity)

	_, err = repo.ReduceStock(ctx, saved.ID, 7)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = repo.ReduceStock(ctx, 9999, 1)
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestProductRepository_ConcurrentReductionsNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewProductRepository(db)
	ctx := context.Background()
	product, err := domain.NewProduct("Gaming Mouse", decimal.NewFromInt(500), 20)
	require.NoError(t, err)
	saved, err := repo.Save(ctx, product)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.ReduceStock(ctx, saved.ID, 1)
		}()
	}
	wg.Wait()

	current, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Zero(t, current.AvailableQuantity)
}

func TestClientRepository_UniqueEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewClientRepository(db)
	ctx := context.Background()

	client, err := domain.NewClient("Ada Lovelace", "ada@example.com", "")
	require.NoError(t, err)
	saved, err := repo.Save(ctx, client)
	require.NoError(t, err)

	dup, err := domain.NewClient("Someone Else", "ada@example.com", "")
	require.NoError(t, err)
	_, err = repo.Save(ctx, dup)
	assert.ErrorIs(t, err, ports.ErrEmailTaken)

	require.NoError(t, repo.Delete(ctx, saved.ID))
	_, err = repo.GetByID(ctx, saved.ID)
	assert.ErrorIs(t, err, ports.ErrClientNotFound)
}
