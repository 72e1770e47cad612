package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/store"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

var testLog = logger.New("store-test", "test")

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func sampleProduct() *domain.Product {
	desc := "sterile gloves, box of 100"
	return &domain.Product{
		Code:         1,
		Name:         "Gloves",
		Category:     "Supplies",
		Description:  &desc,
		StockInitial: 40,
		StockCurrent: 40,
		StockMinimum: 10,
		Cost:         decimal.NewFromFloat(3.20),
		SalePrice:    decimal.NewFromFloat(5.00),
		EntryDate:    date(2024, 6, 1),
		ExpiryDate:   datePtr(2024, 9, 30),
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := store.NewCSV(dir, testLog)
	require.NoError(t, err)

	p := sampleProduct()
	p.OldBatchRemaining = 15
	p.PendingExpiryDate = datePtr(2024, 12, 31)
	require.NoError(t, s.CreateProduct(ctx, p))

	m := &domain.Movement{
		ID:          "11111111-1111-1111-1111-111111111111",
		Date:        date(2024, 6, 2),
		ProductCode: 1,
		Type:        domain.MovementExit,
		Quantity:    5,
		Actor:       "maria",
	}
	p.StockCurrent = 35
	require.NoError(t, s.RecordMovement(ctx, p, m))

	// Reopen from disk.
	s2, err := store.NewCSV(dir, testLog)
	require.NoError(t, err)

	got, err := s2.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Gloves", got.Name)
	assert.Equal(t, 35, got.StockCurrent)
	assert.Equal(t, 15, got.OldBatchRemaining)
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, date(2024, 9, 30), *got.ExpiryDate)
	require.NotNil(t, got.PendingExpiryDate)
	assert.Equal(t, date(2024, 12, 31), *got.PendingExpiryDate)
	require.NotNil(t, got.Description)
	assert.Equal(t, "sterile gloves, box of 100", *got.Description)
	assert.True(t, got.Cost.Equal(decimal.NewFromFloat(3.20)))

	movements, err := s2.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, m.ID, movements[0].ID)
	assert.Equal(t, domain.MovementExit, movements[0].Type)
	assert.Equal(t, 5, movements[0].Quantity)
	assert.Equal(t, "maria", movements[0].Actor)
}

func TestCSVNullExpiryIsEmptyField(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := store.NewCSV(dir, testLog)
	require.NoError(t, err)

	p := sampleProduct()
	p.ExpiryDate = nil
	require.NoError(t, s.CreateProduct(ctx, p))

	raw, err := os.ReadFile(filepath.Join(dir, "products.csv"))
	require.NoError(t, err)

	fields := strings.Split(strings.TrimSpace(string(raw)), ";")
	require.Len(t, fields, 13)
	assert.Equal(t, "", fields[10], "null expiry must serialize as an empty field")
	assert.Equal(t, "01-06-2024", fields[9], "dates are DD-MM-YYYY")

	s2, err := store.NewCSV(dir, testLog)
	require.NoError(t, err)
	got, err := s2.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got.ExpiryDate)
}

func TestCSVToleratesMissingOptionalColumns(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Rows written before batch tracking and movement reasons existed.
	products := "2;Syringes;Supplies;;30;30;5;1.10;2.00;01-06-2024;15-08-2024\n"
	movements := "22222222-2222-2222-2222-222222222222;02-06-2024;2;exit;3;pedro\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.csv"), []byte(products), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movements.csv"), []byte(movements), 0o644))

	s, err := store.NewCSV(dir, testLog)
	require.NoError(t, err)

	p, err := s.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, p.OldBatchRemaining)
	assert.Nil(t, p.PendingExpiryDate)
	assert.Nil(t, p.Description)

	ms, err := s.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "", ms[0].Reason)
}

func TestCSVSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	products := "not-a-code;Broken;Supplies;;1;1;1;1;1;01-06-2024;\n" +
		"3;Gauze;Supplies;;10;10;2;0.50;1.00;01-06-2024;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.csv"), []byte(products), 0o644))

	s, err := store.NewCSV(dir, testLog)
	require.NoError(t, err)

	list, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Code)
}

func TestCSVNextProductCode(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewCSV(t.TempDir(), testLog)
	require.NoError(t, err)

	next, err := s.NextProductCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next, "empty store starts at 1")

	p := sampleProduct()
	p.Code = 7
	require.NoError(t, s.CreateProduct(ctx, p))

	next, err = s.NextProductCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, next)
}

func TestCSVGetProductByName(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewCSV(t.TempDir(), testLog)
	require.NoError(t, err)

	require.NoError(t, s.CreateProduct(ctx, sampleProduct()))

	got, err := s.GetProductByName(ctx, "gLOVES")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Code)

	_, err = s.GetProductByName(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCSVDeleteKeepsMovements(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewCSV(t.TempDir(), testLog)
	require.NoError(t, err)

	p := sampleProduct()
	require.NoError(t, s.CreateProduct(ctx, p))

	m := &domain.Movement{
		ID:          "33333333-3333-3333-3333-333333333333",
		Date:        date(2024, 6, 3),
		ProductCode: 1,
		Type:        domain.MovementEntry,
		Quantity:    10,
		Actor:       "maria",
	}
	p.StockCurrent += 10
	require.NoError(t, s.RecordMovement(ctx, p, m))

	require.NoError(t, s.DeleteProduct(ctx, 1))

	_, err = s.GetProduct(ctx, 1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	ms, err := s.ListMovements(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 1, "ledger survives product deletion")
}

func TestCSVUpdateUnknownProduct(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewCSV(t.TempDir(), testLog)
	require.NoError(t, err)

	err = s.UpdateProduct(ctx, sampleProduct())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
