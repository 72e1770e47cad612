package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	authdomain "github.com/stocklot/stocklot-backend/internal/auth/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product creates a product fixture with defaults
func (f *FixtureFactory) Product(opts ...func(*domain.Product)) domain.Product {
	seq := f.nextSeq()
	now := time.Now().UTC()

	p := domain.Product{
		Code:         seq,
		Name:         fmt.Sprintf("Test Product %d", seq),
		Category:     "General",
		StockInitial: 50,
		StockCurrent: 50,
		StockMinimum: 10,
		Cost:         decimal.NewFromFloat(2.50),
		SalePrice:    decimal.NewFromFloat(4.00),
		EntryDate:    domain.Today(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// WithProductName sets the product name
func WithProductName(name string) func(*domain.Product) {
	return func(p *domain.Product) {
		p.Name = name
	}
}

// WithCategory sets the product category
func WithCategory(category string) func(*domain.Product) {
	return func(p *domain.Product) {
		p.Category = category
	}
}

// WithStock sets the current stock level
func WithStock(stock int) func(*domain.Product) {
	return func(p *domain.Product) {
		p.StockCurrent = stock
	}
}

// WithMinimum sets the minimum stock threshold
func WithMinimum(minimum int) func(*domain.Product) {
	return func(p *domain.Product) {
		p.StockMinimum = minimum
	}
}

// WithExpiry sets the active lot expiry date
func WithExpiry(expiry time.Time) func(*domain.Product) {
	return func(p *domain.Product) {
		p.ExpiryDate = &expiry
	}
}

// WithPendingLot puts the product into dual-batch state
func WithPendingLot(oldRemaining int, pending time.Time) func(*domain.Product) {
	return func(p *domain.Product) {
		p.OldBatchRemaining = oldRemaining
		p.PendingExpiryDate = &pending
	}
}

// Movement creates a movement fixture with defaults
func (f *FixtureFactory) Movement(productCode int, opts ...func(*domain.Movement)) domain.Movement {
	now := time.Now().UTC()

	m := domain.Movement{
		ID:          uuid.NewString(),
		Date:        domain.Today(now),
		ProductCode: productCode,
		Type:        domain.MovementEntry,
		Quantity:    10,
		Actor:       "test-operator",
		CreatedAt:   now,
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// WithMovementType sets the movement type
func WithMovementType(t domain.MovementType) func(*domain.Movement) {
	return func(m *domain.Movement) {
		m.Type = t
	}
}

// WithQuantity sets the movement quantity
func WithQuantity(qty int) func(*domain.Movement) {
	return func(m *domain.Movement) {
		m.Quantity = qty
	}
}

// WithReason sets the movement reason
func WithReason(reason string) func(*domain.Movement) {
	return func(m *domain.Movement) {
		m.Reason = reason
	}
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*authdomain.User)) authdomain.User {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	u := authdomain.User{
		ID:           uuid.NewString(),
		Username:     fmt.Sprintf("user%d", seq),
		Name:         fmt.Sprintf("Test User %d", seq),
		PasswordHash: string(hash),
		Role:         authdomain.RoleOperator,
		CreatedAt:    time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(&u)
	}

	return u
}

// WithUsername sets the username
func WithUsername(username string) func(*authdomain.User) {
	return func(u *authdomain.User) {
		u.Username = username
	}
}

// WithRole sets the user role
func WithRole(role authdomain.Role) func(*authdomain.User) {
	return func(u *authdomain.User) {
		u.Role = role
	}
}

// WithPassword sets the user password (hashed)
func WithPassword(password string) func(*authdomain.User) {
	return func(u *authdomain.User) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
}
