package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual day-month-year format used everywhere a
// date crosses a boundary: flat files and human-facing messages.
const DateLayout = "02-01-2006"

// Product is one inventory row per SKU. Stock and batch fields are only
// mutated through movements; StockStatus and ExpiryStatus are derived on
// read and never persisted.
type Product struct {
	Code         int             `db:"code" json:"code"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	Description  *string         `db:"description" json:"description,omitempty"`
	StockInitial int             `db:"stock_initial" json:"stock_initial"`
	StockCurrent int             `db:"stock_current" json:"stock_current"`
	StockMinimum int             `db:"stock_minimum" json:"stock_minimum"`
	Cost         decimal.Decimal `db:"cost" json:"cost"`
	SalePrice    decimal.Decimal `db:"sale_price" json:"sale_price"`
	EntryDate    time.Time       `db:"entry_date" json:"entry_date"`

	// ExpiryDate is the expiry of the active (soonest-expiring) lot.
	// Nil means the product does not expire.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`

	// OldBatchRemaining and PendingExpiryDate track the dual-batch state:
	// OldBatchRemaining units still belong to the lot expiring on
	// ExpiryDate while PendingExpiryDate waits to become active.
	// Invariant: OldBatchRemaining > 0 iff PendingExpiryDate != nil.
	OldBatchRemaining int        `db:"old_batch_remaining" json:"old_batch_remaining"`
	PendingExpiryDate *time.Time `db:"pending_expiry_date" json:"pending_expiry_date,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Derived, recomputed on every read.
	StockStatus  StockStatus  `db:"-" json:"stock_status,omitempty"`
	ExpiryStatus ExpiryStatus `db:"-" json:"expiry_status,omitempty"`
}

// DualBatch reports whether the product is tracking two lots.
func (p *Product) DualBatch() bool {
	return p.OldBatchRemaining > 0 && p.PendingExpiryDate != nil
}

// NameEquals compares product names the way uniqueness is enforced.
func (p *Product) NameEquals(name string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name))
}

// Refresh recomputes the derived status fields against today.
func (p *Product) Refresh(multiplier float64, today time.Time) {
	p.StockStatus = StockStatusOf(p.StockCurrent, p.StockMinimum, multiplier)
	p.ExpiryStatus = ExpiryStatusOf(p.ExpiryDate, today)
}

// Today normalizes a clock reading to midnight UTC. All movement and
// status arithmetic works on day granularity.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns whole days from today until the given date. Negative
// for dates in the past. Both arguments must be midnight-normalized.
func DaysUntil(date, today time.Time) int {
	return int(date.Sub(today).Hours() / 24)
}
