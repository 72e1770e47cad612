package domain

import (
	"fmt"

	"time"

	"github.com/stocklot/stocklot-backend/pkg/errors"
)

// Apply validates a candidate movement against the product's current
// state, mutates the product's stock and batch fields, and returns the
// immutable movement record plus an optional advisory for display.
//
// The product is only mutated on success; any error leaves it untouched.
//
// The batch fields form a small state machine. Single-batch mode
// (OldBatchRemaining == 0, PendingExpiryDate == nil) tracks one expiry
// date. Dual-batch mode splits stock between an old lot expiring on
// ExpiryDate and a newer lot whose later PendingExpiryDate takes over
// once the old lot's remaining units run out - first expired, first out.
func Apply(p *Product, in *MovementInput, today time.Time) (*Movement, string, error) {
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	var advisory string
	switch in.Type {
	case MovementEntry:
		advisory = applyEntry(p, in, today)
	case MovementExit:
		adv, err := applyExit(p, in)
		if err != nil {
			return nil, "", err
		}
		advisory = adv
	case MovementAdjustment:
		adv, err := applyAdjustment(p, in)
		if err != nil {
			return nil, "", err
		}
		advisory = adv
	}

	p.UpdatedAt = time.Now().UTC()
	return newMovement(p.Code, in, today), advisory, nil
}

func applyEntry(p *Product, in *MovementInput, today time.Time) string {
	newStock := p.StockCurrent + in.Quantity
	incoming := in.NewExpiry // nil when the lot does not expire

	var advisory string
	switch {
	case p.StockCurrent <= 0 || p.ExpiryDate == nil:
		// No active lot to protect: adopt the incoming expiry outright.
		p.ExpiryDate = cloneDate(incoming)
		p.OldBatchRemaining = 0
		p.PendingExpiryDate = nil
		advisory = fmt.Sprintf("stock was at zero; expiry date set to %s", formatExpiry(incoming))

	case incoming == nil:
		// A never-expiring lot behind an expiring one: there is nothing
		// to promote to, so the active expiry stays and the batch state
		// is left as it was.
		advisory = "incoming stock does not expire; keeping current expiry date"

	case !p.ExpiryDate.After(*incoming):
		// Existing stock expires first: sell it before switching dates.
		p.OldBatchRemaining = p.StockCurrent
		p.PendingExpiryDate = cloneDate(incoming)
		advisory = fmt.Sprintf(
			"keeping earlier expiry date %s; will switch to %s after the old lot's %d units are sold",
			formatExpiry(p.ExpiryDate), formatExpiry(incoming), p.OldBatchRemaining,
		)

	default:
		// Incoming lot expires sooner than everything on hand: it is now
		// the active lot. Any dual-batch state tracked a lot that is no
		// longer the soonest to expire, so it is reset rather than kept.
		p.ExpiryDate = cloneDate(incoming)
		p.OldBatchRemaining = 0
		p.PendingExpiryDate = nil
		advisory = fmt.Sprintf("new entry expires sooner; expiry date updated to %s", formatExpiry(incoming))
	}

	p.StockCurrent = newStock
	p.EntryDate = today
	return advisory
}

func applyExit(p *Product, in *MovementInput) (string, error) {
	if in.Quantity > p.StockCurrent {
		return "", errors.InsufficientStock(fmt.Sprintf(
			"cannot remove %d units of %q: only %d in stock", in.Quantity, p.Name, p.StockCurrent,
		))
	}

	p.StockCurrent -= in.Quantity

	if !p.DualBatch() {
		return "", nil
	}
	return drainOldBatch(p, p.OldBatchRemaining-in.Quantity), nil
}

func applyAdjustment(p *Product, in *MovementInput) (string, error) {
	if p.StockCurrent+in.Quantity < 0 {
		return "", errors.InsufficientStock(fmt.Sprintf(
			"adjustment of %d would take %q below zero (current stock %d)",
			in.Quantity, p.Name, p.StockCurrent,
		))
	}

	p.StockCurrent += in.Quantity

	if !p.DualBatch() {
		return "", nil
	}
	return drainOldBatch(p, p.OldBatchRemaining+in.Quantity), nil
}

// drainOldBatch updates the old lot's remaining count and promotes the
// pending expiry date once the old lot is exhausted.
func drainOldBatch(p *Product, remaining int) string {
	if remaining > 0 {
		p.OldBatchRemaining = remaining
		return ""
	}

	promoted := p.PendingExpiryDate
	p.ExpiryDate = promoted
	p.PendingExpiryDate = nil
	p.OldBatchRemaining = 0
	return fmt.Sprintf("old lot exhausted; expiry date is now %s", formatExpiry(promoted))
}

func cloneDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func formatExpiry(d *time.Time) string {
	if d == nil {
		return "none (does not expire)"
	}
	return d.Format(DateLayout)
}
