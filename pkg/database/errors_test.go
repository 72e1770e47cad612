package database_test

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/pkg/database"
	"github.com/stocklot/stocklot-backend/pkg/errors"
)

func TestMapPQErrorCheckConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		detailKey  string
	}{
		{"products_stock_non_negative", "stock_current"},
		{"movements_type_valid", "type"},
		{"users_role_valid", "role"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			mapped := database.MapPQError(&pq.Error{Code: "23514", Constraint: tt.constraint})
			require.NotNil(t, mapped)
			assert.True(t, errors.Is(mapped, errors.ErrValidation))
			assert.Contains(t, mapped.Details, tt.detailKey)
		})
	}
}

func TestMapPQErrorUnknownCheckConstraint(t *testing.T) {
	mapped := database.MapPQError(&pq.Error{Code: "23514", Constraint: "something_else"})
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrBadRequest))
}

func TestMapPQErrorUniqueConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{"products_name_lower_key", "a product with this name already exists"},
		{"users_username_lower_key", "a user with this username already exists"},
		{"other_key", "a record with these values already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			mapped := database.MapPQError(&pq.Error{Code: "23505", Constraint: tt.constraint})
			require.NotNil(t, mapped)
			assert.True(t, errors.Is(mapped, errors.ErrConflict))
			assert.Equal(t, tt.message, mapped.Message)
		})
	}
}

func TestMapPQErrorPassesThroughOtherErrors(t *testing.T) {
	assert.Nil(t, database.MapPQError(fmt.Errorf("plain error")))
	assert.Nil(t, database.MapPQError(&pq.Error{Code: "57014"}))
}
