package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
)

// DashboardStats summarizes the inventory for the dashboard view
type DashboardStats struct {
	TotalProducts     int             `json:"total_products"`
	TotalStock        int             `json:"total_stock"`
	InventoryValue    decimal.Decimal `json:"inventory_value"`
	CriticalCount     int             `json:"critical_count"`
	WarningCount      int             `json:"warning_count"`
	ExpiredCount      int             `json:"expired_count"`
	DueSoonCount      int             `json:"due_soon_count"`
	MovementCount     int             `json:"movement_count"`
	CategoryBreakdown map[string]int  `json:"category_breakdown"`
}

// Alert flags a product needing attention
type Alert struct {
	Product  domain.Product `json:"product"`
	Type     string         `json:"type"`     // stock | expiry
	Severity string         `json:"severity"` // critical | warning
	Message  string         `json:"message"`
}

// DashboardStats computes the summary over fresh statuses
func (s *InventoryService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	products, err := s.ListProducts(ctx, "", "")
	if err != nil {
		return nil, err
	}

	movements, err := s.store.ListMovements(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalProducts:     len(products),
		InventoryValue:    decimal.Zero,
		MovementCount:     len(movements),
		CategoryBreakdown: make(map[string]int),
	}

	for _, p := range products {
		stats.TotalStock += p.StockCurrent
		stats.InventoryValue = stats.InventoryValue.Add(p.Cost.Mul(decimal.NewFromInt(int64(p.StockCurrent))))
		stats.CategoryBreakdown[p.Category]++

		switch p.StockStatus {
		case domain.StockCritical:
			stats.CriticalCount++
		case domain.StockWarning:
			stats.WarningCount++
		}
		switch p.ExpiryStatus {
		case domain.ExpiryExpired:
			stats.ExpiredCount++
		case domain.ExpiryDueSoon:
			stats.DueSoonCount++
		}
	}

	return stats, nil
}

// Alerts lists every product whose stock or expiry status needs
// attention. A product can appear once per concern.
func (s *InventoryService) Alerts(ctx context.Context) ([]Alert, error) {
	products, err := s.ListProducts(ctx, "", "")
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0)
	for _, p := range products {
		switch p.StockStatus {
		case domain.StockCritical:
			alerts = append(alerts, Alert{
				Product:  p,
				Type:     "stock",
				Severity: "critical",
				Message:  fmt.Sprintf("stock (%d) is below the minimum (%d)", p.StockCurrent, p.StockMinimum),
			})
		case domain.StockWarning:
			alerts = append(alerts, Alert{
				Product:  p,
				Type:     "stock",
				Severity: "warning",
				Message:  fmt.Sprintf("stock (%d) is close to the minimum (%d)", p.StockCurrent, p.StockMinimum),
			})
		}

		switch p.ExpiryStatus {
		case domain.ExpiryExpired:
			alerts = append(alerts, Alert{
				Product:  p,
				Type:     "expiry",
				Severity: "critical",
				Message:  fmt.Sprintf("active lot expired on %s", p.ExpiryDate.Format(domain.DateLayout)),
			})
		case domain.ExpiryDueSoon:
			alerts = append(alerts, Alert{
				Product:  p,
				Type:     "expiry",
				Severity: "warning",
				Message:  fmt.Sprintf("active lot expires on %s", p.ExpiryDate.Format(domain.DateLayout)),
			})
		}
	}
	return alerts, nil
}
