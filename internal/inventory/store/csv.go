// Package store implements flat-file persistence for the inventory.
//
// Products and movements live in semicolon-separated CSV files under a
// data directory. Dates are serialized as DD-MM-YYYY; a null expiry is
// an empty field, never a sentinel value. The whole table is loaded at
// startup and rewritten on every change, write-to-temp then rename per
// file.
package store

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

const (
	productsFile  = "products.csv"
	movementsFile = "movements.csv"

	separator = ';'
)

// CSV is a flat-file inventory store. All methods are safe for
// concurrent use; a single mutex guards the in-memory table, the
// ledger and the files.
type CSV struct {
	dir    string
	logger *logger.Logger

	mu       sync.Mutex
	products map[int]*domain.Product
	ledger   *domain.Ledger
}

// NewCSV opens (or initializes) a flat-file store in dir.
func NewCSV(dir string, log *logger.Logger) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Persistence(err)
	}

	s := &CSV{
		dir:      dir,
		logger:   log.WithComponent("store.csv"),
		products: make(map[int]*domain.Product),
	}

	if err := s.loadProducts(); err != nil {
		return nil, err
	}
	if err := s.loadMovements(); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("products", len(s.products)).
		Int("movements", s.ledger.Len()).
		Str("dir", dir).
		Msg("flat-file store loaded")

	return s, nil
}

// ListProducts returns all products ordered by code.
func (s *CSV) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// GetProduct returns the product with the given code.
func (s *CSV) GetProduct(ctx context.Context, code int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[code]
	if !ok {
		return nil, errors.NotFound("product")
	}
	cp := *p
	return &cp, nil
}

// GetProductByName returns the product whose name matches
// case-insensitively, or NotFound.
func (s *CSV) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.NameEquals(name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.NotFound("product")
}

// NextProductCode returns max existing code + 1, or 1 when empty.
func (s *CSV) NextProductCode(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for code := range s.products {
		if code >= next {
			next = code + 1
		}
	}
	return next, nil
}

// CreateProduct adds a new product and rewrites the products file.
func (s *CSV) CreateProduct(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.Code]; ok {
		return errors.Conflict("product code already exists")
	}

	cp := *p
	s.products[p.Code] = &cp
	if err := s.saveProducts(); err != nil {
		delete(s.products, p.Code)
		return err
	}
	return nil
}

// UpdateProduct replaces a stored product and rewrites the products file.
func (s *CSV) UpdateProduct(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.products[p.Code]
	if !ok {
		return errors.NotFound("product")
	}

	cp := *p
	s.products[p.Code] = &cp
	if err := s.saveProducts(); err != nil {
		s.products[p.Code] = prev
		return err
	}
	return nil
}

// DeleteProduct removes a product. Its movements stay in the ledger.
func (s *CSV) DeleteProduct(ctx context.Context, code int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.products[code]
	if !ok {
		return errors.NotFound("product")
	}

	delete(s.products, code)
	if err := s.saveProducts(); err != nil {
		s.products[code] = prev
		return err
	}
	return nil
}

// ListMovements returns the full ledger in insertion order.
func (s *CSV) ListMovements(ctx context.Context) ([]*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.All(), nil
}

// ListMovementsByProduct returns the ledger entries for one product in
// insertion order.
func (s *CSV) ListMovementsByProduct(ctx context.Context, code int) ([]*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Movement
	for _, m := range s.ledger.All() {
		if m.ProductCode == code {
			out = append(out, m)
		}
	}
	return out, nil
}

// RecordMovement stores the post-movement product state and appends the
// movement to the ledger, then rewrites both files. The two writes are
// sequential, not atomic as a pair: a crash between them can leave the
// product file ahead of the ledger.
func (s *CSV) RecordMovement(ctx context.Context, p *domain.Product, m *domain.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.Code]; !ok {
		return errors.NotFound("product")
	}

	cp := *p
	s.products[p.Code] = &cp
	s.ledger.Append(m)

	if err := s.saveProducts(); err != nil {
		return err
	}
	return s.saveMovements()
}

func (s *CSV) loadProducts() error {
	rows, err := readRows(filepath.Join(s.dir, productsFile))
	if err != nil {
		return err
	}

	for _, row := range rows {
		p, err := parseProduct(row)
		if err != nil {
			s.logger.Warn().Err(err).Strs("row", row).Msg("skipping malformed product row")
			continue
		}
		s.products[p.Code] = p
	}
	return nil
}

func (s *CSV) loadMovements() error {
	rows, err := readRows(filepath.Join(s.dir, movementsFile))
	if err != nil {
		return err
	}

	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		m, err := parseMovement(row)
		if err != nil {
			s.logger.Warn().Err(err).Strs("row", row).Msg("skipping malformed movement row")
			continue
		}
		movements = append(movements, m)
	}
	s.ledger = domain.NewLedger(movements)
	return nil
}

func (s *CSV) saveProducts() error {
	codes := make([]int, 0, len(s.products))
	for code := range s.products {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, formatProduct(s.products[code]))
	}
	return writeRows(filepath.Join(s.dir, productsFile), rows)
}

func (s *CSV) saveMovements() error {
	all := s.ledger.All()
	rows := make([][]string, 0, len(all))
	for _, m := range all {
		rows = append(rows, formatMovement(m))
	}
	return writeRows(filepath.Join(s.dir, movementsFile), rows)
}

// readRows reads a semicolon-separated file. A missing file is an empty
// store, not an error.
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Persistence(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = separator
	// Rows written by older versions may miss trailing optional columns.
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Persistence(err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeRows writes to a temp file in the same directory and renames it
// over the target, so readers never see a half-written file.
func writeRows(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Persistence(err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = separator
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return errors.Persistence(err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errors.Persistence(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Persistence(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Persistence(err)
	}
	return nil
}

// --- row codecs ---

// Product columns:
//
//	code;name;category;description;stock_initial;stock_current;
//	stock_minimum;cost;sale_price;entry_date;expiry_date;
//	old_batch_remaining;pending_expiry_date
//
// The last two columns are optional: absent means no pending lot.
func parseProduct(row []string) (*domain.Product, error) {
	if len(row) < 11 {
		return nil, errors.BadRequest("product row has too few columns")
	}

	code, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, err
	}
	stockInitial, err := strconv.Atoi(row[4])
	if err != nil {
		return nil, err
	}
	stockCurrent, err := strconv.Atoi(row[5])
	if err != nil {
		return nil, err
	}
	stockMinimum, err := strconv.Atoi(row[6])
	if err != nil {
		return nil, err
	}
	cost, err := decimal.NewFromString(row[7])
	if err != nil {
		return nil, err
	}
	salePrice, err := decimal.NewFromString(row[8])
	if err != nil {
		return nil, err
	}
	entryDate, err := time.Parse(domain.DateLayout, row[9])
	if err != nil {
		return nil, err
	}
	expiryDate, err := parseOptionalDate(row[10])
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		Code:         code,
		Name:         row[1],
		Category:     row[2],
		StockInitial: stockInitial,
		StockCurrent: stockCurrent,
		StockMinimum: stockMinimum,
		Cost:         cost,
		SalePrice:    salePrice,
		EntryDate:    entryDate,
		ExpiryDate:   expiryDate,
		CreatedAt:    entryDate,
		UpdatedAt:    entryDate,
	}
	if row[3] != "" {
		desc := row[3]
		p.Description = &desc
	}

	if len(row) > 11 && row[11] != "" {
		old, err := strconv.Atoi(row[11])
		if err != nil {
			return nil, err
		}
		p.OldBatchRemaining = old
	}
	if len(row) > 12 {
		pending, err := parseOptionalDate(row[12])
		if err != nil {
			return nil, err
		}
		p.PendingExpiryDate = pending
	}

	return p, nil
}

func formatProduct(p *domain.Product) []string {
	desc := ""
	if p.Description != nil {
		desc = *p.Description
	}
	return []string{
		strconv.Itoa(p.Code),
		p.Name,
		p.Category,
		desc,
		strconv.Itoa(p.StockInitial),
		strconv.Itoa(p.StockCurrent),
		strconv.Itoa(p.StockMinimum),
		p.Cost.String(),
		p.SalePrice.String(),
		p.EntryDate.Format(domain.DateLayout),
		formatOptionalDate(p.ExpiryDate),
		strconv.Itoa(p.OldBatchRemaining),
		formatOptionalDate(p.PendingExpiryDate),
	}
}

// Movement columns:
//
//	id;date;product_code;type;quantity;actor;reason
//
// The reason column is optional: absent means "".
func parseMovement(row []string) (*domain.Movement, error) {
	if len(row) < 6 {
		return nil, errors.BadRequest("movement row has too few columns")
	}

	date, err := time.Parse(domain.DateLayout, row[1])
	if err != nil {
		return nil, err
	}
	code, err := strconv.Atoi(row[2])
	if err != nil {
		return nil, err
	}
	qty, err := strconv.Atoi(row[4])
	if err != nil {
		return nil, err
	}

	typ := domain.MovementType(row[3])
	if !typ.Valid() {
		return nil, errors.BadRequest("unknown movement type")
	}

	m := &domain.Movement{
		ID:          row[0],
		Date:        date,
		ProductCode: code,
		Type:        typ,
		Quantity:    qty,
		Actor:       row[5],
		CreatedAt:   date,
	}
	if len(row) > 6 {
		m.Reason = row[6]
	}
	return m, nil
}

func formatMovement(m *domain.Movement) []string {
	return []string{
		m.ID,
		m.Date.Format(domain.DateLayout),
		strconv.Itoa(m.ProductCode),
		string(m.Type),
		strconv.Itoa(m.Quantity),
		m.Actor,
		m.Reason,
	}
}

func parseOptionalDate(field string) (*time.Time, error) {
	if field == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}
