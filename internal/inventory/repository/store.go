package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/pkg/database"
)

// Store adapts the repositories to the inventory service's storage
// interface. RecordMovement runs the product update and the ledger
// append in one transaction, so the pair either lands or doesn't.
type Store struct {
	db        *database.DB
	products  *ProductRepository
	movements *MovementRepository
}

// NewStore creates a Postgres-backed inventory store
func NewStore(db *database.DB) *Store {
	return &Store{
		db:        db,
		products:  NewProductRepository(db),
		movements: NewMovementRepository(db),
	}
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *Store) GetProduct(ctx context.Context, code int) (*domain.Product, error) {
	return s.products.GetByCode(ctx, code)
}

func (s *Store) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.products.GetByName(ctx, name)
}

func (s *Store) NextProductCode(ctx context.Context) (int, error) {
	return s.products.NextCode(ctx)
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	return s.products.Create(ctx, p)
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return s.products.Update(ctx, p)
}

func (s *Store) DeleteProduct(ctx context.Context, code int) error {
	return s.products.Delete(ctx, code)
}

func (s *Store) ListMovements(ctx context.Context) ([]*domain.Movement, error) {
	return s.movements.List(ctx)
}

func (s *Store) ListMovementsByProduct(ctx context.Context, code int) ([]*domain.Movement, error) {
	return s.movements.ListByProduct(ctx, code)
}

func (s *Store) RecordMovement(ctx context.Context, p *domain.Product, m *domain.Movement) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.products.UpdateTx(ctx, tx, p); err != nil {
			return err
		}
		return s.movements.AppendTx(ctx, tx, m)
	})
}
