package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/pkg/database"
	"github.com/stocklot/stocklot-backend/pkg/errors"
)

const movementColumns = `id, date, product_code, type, quantity, actor, reason, created_at`

const movementInsertQuery = `
	INSERT INTO movements (id, date, product_code, type, quantity, actor, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// MovementRepository appends to and reads the movement ledger. There
// are deliberately no update or delete methods.
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Append inserts a new ledger record
func (r *MovementRepository) Append(ctx context.Context, m *domain.Movement) error {
	_, err := r.db.ExecContext(ctx, movementInsertQuery, movementInsertArgs(m)...)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return errors.Persistence(err)
	}
	return nil
}

// AppendTx is Append inside an existing transaction
func (r *MovementRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, m *domain.Movement) error {
	_, err := tx.ExecContext(ctx, movementInsertQuery, movementInsertArgs(m)...)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return errors.Persistence(err)
	}
	return nil
}

func movementInsertArgs(m *domain.Movement) []interface{} {
	return []interface{}{
		m.ID, m.Date, m.ProductCode, m.Type, m.Quantity, m.Actor, m.Reason, m.CreatedAt,
	}
}

// List returns the full ledger in insertion order
func (r *MovementRepository) List(ctx context.Context) ([]*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements ORDER BY created_at, id`

	movements := make([]*domain.Movement, 0)
	if err := r.db.SelectContext(ctx, &movements, query); err != nil {
		return nil, errors.Persistence(err)
	}
	return movements, nil
}

// ListByProduct returns one product's ledger records in insertion order
func (r *MovementRepository) ListByProduct(ctx context.Context, code int) ([]*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE product_code = $1 ORDER BY created_at, id`

	movements := make([]*domain.Movement, 0)
	if err := r.db.SelectContext(ctx, &movements, query, code); err != nil {
		return nil, errors.Persistence(err)
	}
	return movements, nil
}
