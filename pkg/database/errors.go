package database

import (
	"github.com/lib/pq"

	"github.com/stocklot/stocklot-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful
// messages. Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// Constraint names match the DDL in internal/inventory/repository and
// internal/auth/repository.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch pqErr.Constraint {
	case "products_stock_non_negative":
		return errors.Validation(map[string]string{
			"stock_current": "must not be negative",
		})

	case "movements_type_valid":
		return errors.Validation(map[string]string{
			"type": "must be one of: entry, exit, adjustment",
		})

	case "users_role_valid":
		return errors.Validation(map[string]string{
			"role": "must be one of: admin, operator",
		})

	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	switch pqErr.Constraint {
	case "products_name_lower_key":
		return "a product with this name already exists"
	case "users_username_lower_key":
		return "a user with this username already exists"
	default:
		return "a record with these values already exists"
	}
}
