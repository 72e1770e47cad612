// Package service holds the inventory business logic: product
// lifecycle, movement application and the derived dashboard views.
//
// Writes are serialized through one mutex. The flat-file store performs
// read-modify-write cycles over whole files, and movements span a
// product update plus a ledger append, so a single writer is the
// consistency model for both drivers.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/events"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// Store is the persistence boundary. Implemented by the flat-file
// store and by the Postgres repository adapter.
type Store interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, code int) (*domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	NextProductCode(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, code int) error

	ListMovements(ctx context.Context) ([]*domain.Movement, error)
	ListMovementsByProduct(ctx context.Context, code int) ([]*domain.Movement, error)
	RecordMovement(ctx context.Context, p *domain.Product, m *domain.Movement) error
}

// InventoryService handles inventory business logic
type InventoryService struct {
	store      Store
	publisher  *events.InventoryEventPublisher
	multiplier float64
	logger     *logger.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store Store, publisher *events.InventoryEventPublisher, multiplier float64, log *logger.Logger) *InventoryService {
	if multiplier < 1 {
		multiplier = domain.DefaultWarningMultiplier
	}
	return &InventoryService{
		store:      store,
		publisher:  publisher,
		multiplier: multiplier,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Test helper.
func (s *InventoryService) WithClock(now func() time.Time) *InventoryService {
	s.now = now
	return s
}

func (s *InventoryService) today() time.Time {
	return domain.Today(s.now())
}

// CreateProductInput carries the fields a user supplies when
// registering a product. Initial stock becomes both stock_initial and
// stock_current.
type CreateProductInput struct {
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category" validate:"required"`
	Description  *string         `json:"description,omitempty"`
	StockInitial int             `json:"stock_initial" validate:"gte=0"`
	StockMinimum int             `json:"stock_minimum" validate:"gte=0"`
	Cost         decimal.Decimal `json:"cost"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

// UpdateProductInput carries the editable fields. Stock and batch
// state only change through movements.
type UpdateProductInput struct {
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category" validate:"required"`
	Description  *string         `json:"description,omitempty"`
	StockMinimum int             `json:"stock_minimum" validate:"gte=0"`
	Cost         decimal.Decimal `json:"cost"`
	SalePrice    decimal.Decimal `json:"sale_price"`
}

// ListProducts returns products with fresh statuses, optionally
// filtered by category and by a case-insensitive name search.
func (s *InventoryService) ListProducts(ctx context.Context, category, search string) ([]domain.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		p := products[i]
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		p.Refresh(s.multiplier, today)
		out = append(out, p)
	}
	return out, nil
}

// GetProduct returns one product with fresh statuses
func (s *InventoryService) GetProduct(ctx context.Context, code int) (*domain.Product, error) {
	p, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return nil, err
	}
	p.Refresh(s.multiplier, s.today())
	return p, nil
}

// CreateProduct registers a new product. The code is assigned as max
// existing + 1 and names are unique case-insensitively.
func (s *InventoryService) CreateProduct(ctx context.Context, in *CreateProductInput) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := make(map[string]string)
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "must not be empty"
	}
	if strings.TrimSpace(in.Category) == "" {
		details["category"] = "must not be empty"
	}
	if len(details) > 0 {
		return nil, errors.Validation(details)
	}

	if _, err := s.store.GetProductByName(ctx, in.Name); err == nil {
		return nil, errors.Conflict("a product with this name already exists")
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	code, err := s.store.NextProductCode(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	p := &domain.Product{
		Code:         code,
		Name:         strings.TrimSpace(in.Name),
		Category:     strings.TrimSpace(in.Category),
		Description:  in.Description,
		StockInitial: in.StockInitial,
		StockCurrent: in.StockInitial,
		StockMinimum: in.StockMinimum,
		Cost:         in.Cost,
		SalePrice:    in.SalePrice,
		EntryDate:    today,
		ExpiryDate:   in.ExpiryDate,
		CreatedAt:    s.now().UTC(),
		UpdatedAt:    s.now().UTC(),
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Int("code", p.Code).Str("name", p.Name).Msg("product created")
	s.publisher.PublishProductCreated(ctx, p)

	p.Refresh(s.multiplier, today)
	return p, nil
}

// UpdateProduct edits a product's descriptive fields
func (s *InventoryService) UpdateProduct(ctx context.Context, code int, in *UpdateProductInput) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.GetProductByName(ctx, in.Name); err == nil {
		if existing.Code != code {
			return nil, errors.Conflict("a product with this name already exists")
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	fields := changedFields(p, in)

	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.Description = in.Description
	p.StockMinimum = in.StockMinimum
	p.Cost = in.Cost
	p.SalePrice = in.SalePrice
	p.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Int("code", code).Msg("product updated")
	if len(fields) > 0 {
		s.publisher.PublishProductUpdated(ctx, code, fields)
	}

	p.Refresh(s.multiplier, s.today())
	return p, nil
}

func changedFields(p *domain.Product, in *UpdateProductInput) map[string]any {
	fields := make(map[string]any)
	if !p.NameEquals(in.Name) {
		fields["name"] = in.Name
	}
	if p.Category != in.Category {
		fields["category"] = in.Category
	}
	if p.StockMinimum != in.StockMinimum {
		fields["stock_minimum"] = in.StockMinimum
	}
	if !p.Cost.Equal(in.Cost) {
		fields["cost"] = in.Cost.String()
	}
	if !p.SalePrice.Equal(in.SalePrice) {
		fields["sale_price"] = in.SalePrice.String()
	}
	return fields
}

// DeleteProduct removes a product after explicit confirmation. The
// movement history stays in the ledger.
func (s *InventoryService) DeleteProduct(ctx context.Context, code int, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !confirmed {
		return errors.BadRequest("deletion must be confirmed with confirm=true")
	}

	p, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return err
	}

	if err := s.store.DeleteProduct(ctx, code); err != nil {
		return err
	}

	s.logger.Info().Int("code", code).Str("name", p.Name).Msg("product deleted")
	s.publisher.PublishProductDeleted(ctx, code, p.Name)
	return nil
}
