package repository_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/repository"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error

	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create integration suite:", err)
		os.Exit(1)
	}
	defer testutil.TerminateContainer(ctx)

	if err := suite.ApplyMigrations(ctx, repository.Migrations()); err != nil {
		fmt.Fprintln(os.Stderr, "failed to apply migrations:", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func requireSuite(t *testing.T) {
	t.Helper()
	if suite == nil {
		t.Skip("integration tests need docker; run without -short")
	}
}

func integrationProduct(name string) *domain.Product {
	p := suite.Fixtures.Product(
		testutil.WithProductName(name),
		testutil.WithCategory("Supplies"),
		testutil.WithStock(40),
		testutil.WithExpiry(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
	)
	return &p
}

func TestStoreProductLifecycle(t *testing.T) {
	requireSuite(t)
	ctx := context.Background()
	suite.TruncateTables(t, ctx, "products", "movements")

	store := repository.NewStore(suite.DB)

	next, err := store.NextProductCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	p := integrationProduct("Gloves")
	p.Code = next
	require.NoError(t, store.CreateProduct(ctx, p))

	// Codes keep counting up from the max.
	next, err = store.NextProductCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	got, err := store.GetProduct(ctx, p.Code)
	require.NoError(t, err)
	assert.Equal(t, "Gloves", got.Name)
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, 2025, got.ExpiryDate.Year())

	// Name lookup is case-insensitive, and so is the uniqueness index.
	byName, err := store.GetProductByName(ctx, "gloves")
	require.NoError(t, err)
	assert.Equal(t, p.Code, byName.Code)

	dup := integrationProduct("GLOVES")
	dup.Code = 2
	err = store.CreateProduct(ctx, dup)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	got.StockMinimum = 15
	require.NoError(t, store.UpdateProduct(ctx, got))
	got, err = store.GetProduct(ctx, p.Code)
	require.NoError(t, err)
	assert.Equal(t, 15, got.StockMinimum)

	require.NoError(t, store.DeleteProduct(ctx, p.Code))
	_, err = store.GetProduct(ctx, p.Code)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStoreDualBatchColumnsRoundTrip(t *testing.T) {
	requireSuite(t)
	ctx := context.Background()
	suite.TruncateTables(t, ctx, "products", "movements")

	store := repository.NewStore(suite.DB)

	p := suite.Fixtures.Product(
		testutil.WithProductName("Saline Bags"),
		testutil.WithStock(80),
		testutil.WithMinimum(20),
		testutil.WithExpiry(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		testutil.WithPendingLot(30, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
	)
	p.Code = 1
	require.NoError(t, store.CreateProduct(ctx, &p))

	got, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, got.OldBatchRemaining)
	require.NotNil(t, got.PendingExpiryDate)
	assert.Equal(t, 12, int(got.PendingExpiryDate.Month()))
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, 7, int(got.ExpiryDate.Month()))
}

func TestStoreRecordMovementAtomicity(t *testing.T) {
	requireSuite(t)
	ctx := context.Background()
	suite.TruncateTables(t, ctx, "products", "movements")

	store := repository.NewStore(suite.DB)

	p := integrationProduct("Syringes")
	p.Code = 1
	require.NoError(t, store.CreateProduct(ctx, p))

	p.StockCurrent = 35
	m := suite.Fixtures.Movement(1,
		testutil.WithMovementType(domain.MovementExit),
		testutil.WithQuantity(5),
	)
	require.NoError(t, store.RecordMovement(ctx, p, &m))

	got, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 35, got.StockCurrent)

	ms, err := store.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 1)

	// An invalid movement type trips the check constraint and rolls the
	// product update back with it.
	p.StockCurrent = 30
	bad := suite.Fixtures.Movement(1,
		testutil.WithMovementType(domain.MovementType("theft")),
		testutil.WithQuantity(5),
	)
	err = store.RecordMovement(ctx, p, &bad)
	require.Error(t, err)

	got, err = store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 35, got.StockCurrent, "failed pair must leave stock untouched")

	ms, err = store.ListMovements(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestStoreLedgerSurvivesProductDeletion(t *testing.T) {
	requireSuite(t)
	ctx := context.Background()
	suite.TruncateTables(t, ctx, "products", "movements")

	store := repository.NewStore(suite.DB)

	p := integrationProduct("Gauze")
	p.Code = 1
	require.NoError(t, store.CreateProduct(ctx, p))

	p.StockCurrent = 50
	m := suite.Fixtures.Movement(1,
		testutil.WithQuantity(10),
		testutil.WithReason("supplier delivery"),
	)
	require.NoError(t, store.RecordMovement(ctx, p, &m))
	require.NoError(t, store.DeleteProduct(ctx, 1))

	ms, err := store.ListMovementsByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ms, 1, "orphaned movements stay in the ledger")
}
