package domain

import "time"

// StockStatus classifies current stock against the minimum threshold.
type StockStatus string

const (
	StockCritical StockStatus = "critical"
	StockWarning  StockStatus = "warning"
	StockOptimal  StockStatus = "optimal"
)

// ExpiryStatus classifies the active expiry date against today.
type ExpiryStatus string

const (
	ExpiryOK            ExpiryStatus = "ok"
	ExpiryDueSoon       ExpiryStatus = "due_soon"
	ExpiryExpired       ExpiryStatus = "expired"
	ExpiryNotApplicable ExpiryStatus = "not_applicable"
)

const (
	// DefaultWarningMultiplier is the canonical stock-warning threshold:
	// stock below minimum*multiplier (but at or above minimum) is a warning.
	DefaultWarningMultiplier = 1.5

	// DueSoonWindowDays is how many days before expiry a product is
	// flagged as due soon.
	DueSoonWindowDays = 7
)

// StockStatusOf derives the stock alert label.
func StockStatusOf(stockCurrent, stockMinimum int, multiplier float64) StockStatus {
	switch {
	case stockCurrent < stockMinimum:
		return StockCritical
	case float64(stockCurrent) < float64(stockMinimum)*multiplier:
		return StockWarning
	default:
		return StockOptimal
	}
}

// ExpiryStatusOf derives the expiry alert label against today (midnight
// normalized). The assignments deliberately override in sequence: a date
// inside the due-soon window that is also in the past must come out
// expired.
func ExpiryStatusOf(expiry *time.Time, today time.Time) ExpiryStatus {
	if expiry == nil {
		return ExpiryNotApplicable
	}

	days := DaysUntil(*expiry, today)

	status := ExpiryOK
	if days <= DueSoonWindowDays {
		status = ExpiryDueSoon
	}
	if days < 0 {
		status = ExpiryExpired
	}
	return status
}
