package httputil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
)

func TestValidateUsesJSONFieldNames(t *testing.T) {
	type payload struct {
		Name     string `json:"name" validate:"required"`
		Type     string `json:"type" validate:"required,oneof=entry exit adjustment"`
		Quantity int    `json:"stock_minimum" validate:"gte=0"`
	}

	err := httputil.Validate(&payload{Type: "theft", Quantity: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))

	// Details are keyed by the wire names, not the Go field names.
	assert.Contains(t, appErr.Details, "name")
	assert.Contains(t, appErr.Details, "type")
	assert.Contains(t, appErr.Details, "stock_minimum")
	assert.NotContains(t, appErr.Details, "Name")
	assert.Equal(t, "this field is required", appErr.Details["name"])
	assert.Equal(t, "must be one of: entry exit adjustment", appErr.Details["type"])
}

func TestValidatePassesValidStruct(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	assert.NoError(t, httputil.Validate(&payload{Name: "Gloves"}))
}
