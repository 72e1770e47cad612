package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/pkg/database"
	"github.com/stocklot/stocklot-backend/pkg/errors"
)

const productColumns = `code, name, category, description, stock_initial, stock_current,
	stock_minimum, cost, sale_price, entry_date, expiry_date,
	old_batch_remaining, pending_expiry_date, created_at, updated_at`

const productUpdateQuery = `
	UPDATE products SET
		name = $2,
		category = $3,
		description = $4,
		stock_current = $5,
		stock_minimum = $6,
		cost = $7,
		sale_price = $8,
		entry_date = $9,
		expiry_date = $10,
		old_batch_remaining = $11,
		pending_expiry_date = $12,
		updated_at = $13
	WHERE code = $1
`

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns all products ordered by code
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY code`

	products := make([]domain.Product, 0)
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, errors.Persistence(err)
	}
	return products, nil
}

// GetByCode returns the product with the given code
func (r *ProductRepository) GetByCode(ctx context.Context, code int) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE code = $1`

	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, errors.Persistence(err)
	}
	return &p, nil
}

// GetByName returns the product whose name matches case-insensitively
func (r *ProductRepository) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) = LOWER($1)`

	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, errors.Persistence(err)
	}
	return &p, nil
}

// NextCode returns max existing code + 1, or 1 when the table is empty
func (r *ProductRepository) NextCode(ctx context.Context) (int, error) {
	var next int
	if err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(code), 0) + 1 FROM products`); err != nil {
		return 0, errors.Persistence(err)
	}
	return next, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			code, name, category, description, stock_initial, stock_current,
			stock_minimum, cost, sale_price, entry_date, expiry_date,
			old_batch_remaining, pending_expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.Code, p.Name, p.Category, p.Description, p.StockInitial, p.StockCurrent,
		p.StockMinimum, p.Cost, p.SalePrice, p.EntryDate, p.ExpiryDate,
		p.OldBatchRemaining, p.PendingExpiryDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return errors.Persistence(err)
	}
	return nil
}

// Update replaces a product's mutable columns
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, productUpdateQuery, productUpdateArgs(p)...)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return errors.Persistence(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Persistence(err)
	}
	if rows == 0 {
		return errors.NotFound("product")
	}
	return nil
}

// UpdateTx is Update inside an existing transaction
func (r *ProductRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := tx.ExecContext(ctx, productUpdateQuery, productUpdateArgs(p)...)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return errors.Persistence(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Persistence(err)
	}
	if rows == 0 {
		return errors.NotFound("product")
	}
	return nil
}

func productUpdateArgs(p *domain.Product) []interface{} {
	return []interface{}{
		p.Code, p.Name, p.Category, p.Description, p.StockCurrent,
		p.StockMinimum, p.Cost, p.SalePrice, p.EntryDate, p.ExpiryDate,
		p.OldBatchRemaining, p.PendingExpiryDate, p.UpdatedAt,
	}
}

// Delete removes a product. The ledger keeps its movements.
func (r *ProductRepository) Delete(ctx context.Context, code int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE code = $1`, code)
	if err != nil {
		return errors.Persistence(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Persistence(err)
	}
	if rows == 0 {
		return errors.NotFound("product")
	}
	return nil
}
