package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/repository"
	"github.com/stocklot/stocklot-backend/pkg/database"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
	"github.com/stocklot/stocklot-backend/pkg/testutil"
)

var mockLog = logger.New("repository-test", "test")

func productRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return testutil.MockRows(
		"code", "name", "category", "description", "stock_initial", "stock_current",
		"stock_minimum", "cost", "sale_price", "entry_date", "expiry_date",
		"old_batch_remaining", "pending_expiry_date", "created_at", "updated_at",
	).AddRow(
		1, "Gloves", "Supplies", nil, 40, 35,
		10, "3.20", "5.00", now, nil,
		0, nil, now, now,
	)
}

func TestProductRepositoryGetByCode(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewProductRepository(database.Wrap(mockDB.DB, mockLog))

	mockDB.ExpectQuery("SELECT").WithArgs(1).WillReturnRows(productRows())

	p, err := repo.GetByCode(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Gloves", p.Name)
	assert.Equal(t, 35, p.StockCurrent)
	assert.True(t, p.Cost.Equal(decimal.NewFromFloat(3.20)))
	assert.Nil(t, p.ExpiryDate)

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepositoryGetByCodeNotFound(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewProductRepository(database.Wrap(mockDB.DB, mockLog))

	mockDB.ExpectQuery("SELECT").WithArgs(99).WillReturnRows(testutil.MockRows("code"))

	_, err := repo.GetByCode(ctx, 99)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepositoryNextCodeEmptyTable(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewProductRepository(database.Wrap(mockDB.DB, mockLog))

	mockDB.ExpectQuery("SELECT COALESCE(MAX(code), 0) + 1 FROM products").
		WillReturnRows(testutil.MockRows("next").AddRow(1))

	next, err := repo.NextCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepositoryCreateDuplicateName(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewProductRepository(database.Wrap(mockDB.DB, mockLog))

	mockDB.ExpectQuery("INSERT INTO products").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "products_name_lower_key"})

	p := &domain.Product{Code: 2, Name: "Gloves", Category: "Supplies"}
	err := repo.Create(ctx, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "a product with this name already exists", appErr.Message)

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepositoryDeleteMissing(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewProductRepository(database.Wrap(mockDB.DB, mockLog))

	mockDB.ExpectExec("DELETE FROM products WHERE code = $1").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(ctx, 42)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestStoreRecordMovementTransaction(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	store := repository.NewStore(database.Wrap(mockDB.DB, mockLog))

	p := &domain.Product{
		Code:         1,
		Name:         "Gloves",
		Category:     "Supplies",
		StockCurrent: 30,
		StockMinimum: 10,
		Cost:         decimal.NewFromFloat(3.20),
		SalePrice:    decimal.NewFromFloat(5.00),
		EntryDate:    time.Now().UTC(),
	}
	m := &domain.Movement{
		ID:          "44444444-4444-4444-4444-444444444444",
		Date:        time.Now().UTC(),
		ProductCode: 1,
		Type:        domain.MovementExit,
		Quantity:    5,
		Actor:       "maria",
		CreatedAt:   time.Now().UTC(),
	}

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE products SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO movements").
		WithArgs(testutil.AnyUUID{}, testutil.AnyTime{}, 1, "exit", 5, "maria", "", testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	require.NoError(t, store.RecordMovement(ctx, p, m))
	mockDB.ExpectationsWereMet(t)
}

func TestStoreRecordMovementRollsBackOnLedgerFailure(t *testing.T) {
	ctx := context.Background()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	store := repository.NewStore(database.Wrap(mockDB.DB, mockLog))

	p := &domain.Product{Code: 1, Name: "Gloves", StockCurrent: 30}
	m := &domain.Movement{
		ID:          "55555555-5555-5555-5555-555555555555",
		ProductCode: 1,
		Type:        domain.MovementExit,
		Quantity:    5,
		Actor:       "maria",
	}

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE products SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO movements").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "movements_type_valid"})
	mockDB.ExpectRollback()

	err := store.RecordMovement(ctx, p, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	mockDB.ExpectationsWereMet(t)
}
