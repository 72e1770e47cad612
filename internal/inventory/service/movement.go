package service

import (
	"context"
	"fmt"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
)

// MovementResult is what a successful movement application returns:
// the post-movement product, the ledger record, and an optional
// human-facing notice about batch transitions.
type MovementResult struct {
	Product  *domain.Product  `json:"product"`
	Movement *domain.Movement `json:"movement"`
	Notice   string           `json:"notice,omitempty"`
}

// MovementView is a ledger record enriched with the product name for
// display. Orphaned records keep a placeholder label.
type MovementView struct {
	*domain.Movement
	ProductName string `json:"product_name"`
}

// ApplyMovement validates and applies a movement against a product,
// persisting the updated product and the new ledger record together.
// On any error nothing is persisted and the ledger does not grow.
func (s *InventoryService) ApplyMovement(ctx context.Context, code int, in *domain.MovementInput) (*MovementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	today := s.today()
	m, notice, err := domain.Apply(p, in, today)
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordMovement(ctx, p, m); err != nil {
		return nil, err
	}

	p.Refresh(s.multiplier, today)

	s.logger.Info().
		Int("code", code).
		Str("type", string(m.Type)).
		Int("quantity", m.Quantity).
		Int("stock", p.StockCurrent).
		Msg("movement applied")

	s.publisher.PublishMovementApplied(ctx, m, p.StockCurrent, notice)
	s.publishMovementAlerts(ctx, p)

	return &MovementResult{Product: p, Movement: m, Notice: notice}, nil
}

// publishMovementAlerts raises alerts when a movement leaves a product
// critical or expired.
func (s *InventoryService) publishMovementAlerts(ctx context.Context, p *domain.Product) {
	if p.StockStatus == domain.StockCritical {
		s.publisher.PublishAlertGenerated(ctx, p, "stock", "critical",
			fmt.Sprintf("stock (%d) is below the minimum (%d)", p.StockCurrent, p.StockMinimum))
	}
	if p.ExpiryStatus == domain.ExpiryExpired {
		s.publisher.PublishAlertGenerated(ctx, p, "expiry", "critical",
			fmt.Sprintf("active lot expired on %s", p.ExpiryDate.Format(domain.DateLayout)))
	}
}

// ListMovements returns the ledger newest-first with product names
// resolved. Movements of deleted products are listed with a
// placeholder, never dropped.
func (s *InventoryService) ListMovements(ctx context.Context) ([]MovementView, error) {
	movements, err := s.store.ListMovements(ctx)
	if err != nil {
		return nil, err
	}
	return s.movementViews(ctx, movements)
}

// ListProductMovements returns one product's ledger slice newest-first
func (s *InventoryService) ListProductMovements(ctx context.Context, code int) ([]MovementView, error) {
	if _, err := s.store.GetProduct(ctx, code); err != nil {
		return nil, err
	}

	movements, err := s.store.ListMovementsByProduct(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.movementViews(ctx, movements)
}

func (s *InventoryService) movementViews(ctx context.Context, movements []*domain.Movement) ([]MovementView, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(products))
	for _, p := range products {
		names[p.Code] = p.Name
	}

	ordered := domain.NewLedger(movements).ByDateDesc()

	views := make([]MovementView, 0, len(ordered))
	for _, m := range ordered {
		name, ok := names[m.ProductCode]
		if !ok {
			name = fmt.Sprintf("deleted product #%d", m.ProductCode)
		}
		views = append(views, MovementView{Movement: m, ProductName: name})
	}
	return views, nil
}
