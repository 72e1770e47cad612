package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stocklot/stocklot-backend/pkg/errors"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementEntry      MovementType = "entry"
	MovementExit       MovementType = "exit"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is one of the three known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntry, MovementExit, MovementAdjustment:
		return true
	}
	return false
}

// Movement is one recorded stock transaction. Movements are created
// exactly once by the processor and never updated or deleted.
type Movement struct {
	ID          string       `db:"id" json:"id"`
	Date        time.Time    `db:"date" json:"date"`
	ProductCode int          `db:"product_code" json:"product_code"`
	Type        MovementType `db:"type" json:"type"`
	Quantity    int          `db:"quantity" json:"quantity"`
	Actor       string       `db:"actor" json:"actor"`
	Reason      string       `db:"reason" json:"reason"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// MovementInput is a candidate movement as produced by a user action,
// before validation against the product's current state.
type MovementInput struct {
	Type     MovementType `json:"type"`
	Quantity int          `json:"quantity"`
	Actor    string       `json:"actor"`
	Reason   string       `json:"reason,omitempty"`

	// NewExpiry is the incoming lot's expiry date; entries must carry
	// either a date or the explicit NoExpiry flag.
	NewExpiry *time.Time `json:"new_expiry,omitempty"`
	NoExpiry  bool       `json:"no_expiry,omitempty"`
}

// Validate checks the input in isolation (stock-level checks happen in
// Apply, against the product).
func (in *MovementInput) Validate() error {
	details := make(map[string]string)

	if !in.Type.Valid() {
		details["type"] = "must be one of: entry, exit, adjustment"
	}
	if strings.TrimSpace(in.Actor) == "" {
		details["actor"] = "must not be empty"
	}

	switch in.Type {
	case MovementEntry:
		if in.Quantity <= 0 {
			details["quantity"] = "must be a positive integer"
		}
		if in.NewExpiry == nil && !in.NoExpiry {
			details["new_expiry"] = "entry requires an expiry date or the no_expiry flag"
		}
		if in.NewExpiry != nil && in.NoExpiry {
			details["new_expiry"] = "cannot combine an expiry date with the no_expiry flag"
		}
	case MovementExit:
		if in.Quantity <= 0 {
			details["quantity"] = "must be a positive integer"
		}
	case MovementAdjustment:
		if in.Quantity == 0 {
			details["quantity"] = "must be a non-zero integer"
		}
		if strings.TrimSpace(in.Reason) == "" {
			details["reason"] = "adjustments require a reason"
		}
	}

	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// newMovement shapes the immutable record for a validated, applied input.
func newMovement(productCode int, in *MovementInput, today time.Time) *Movement {
	reason := ""
	if in.Type == MovementAdjustment {
		reason = strings.TrimSpace(in.Reason)
	}

	return &Movement{
		ID:          uuid.New().String(),
		Date:        today,
		ProductCode: productCode,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Actor:       strings.TrimSpace(in.Actor),
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}
}
