package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/service"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.InventoryService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

// CreateProductRequest is the product registration payload. Dates
// cross the API as DD-MM-YYYY strings, matching the files on disk.
type CreateProductRequest struct {
	Name         string  `json:"name" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Description  *string `json:"description,omitempty"`
	StockInitial int     `json:"stock_initial" validate:"gte=0"`
	StockMinimum int     `json:"stock_minimum" validate:"gte=0"`
	Cost         string  `json:"cost" validate:"required"`
	SalePrice    string  `json:"sale_price" validate:"required"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
}

// UpdateProductRequest is the product edit payload
type UpdateProductRequest struct {
	Name         string  `json:"name" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Description  *string `json:"description,omitempty"`
	StockMinimum int     `json:"stock_minimum" validate:"gte=0"`
	Cost         string  `json:"cost" validate:"required"`
	SalePrice    string  `json:"sale_price" validate:"required"`
}

// List returns products, optionally filtered by category and name search
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("search")

	products, err := h.service.ListProducts(r.Context(), category, search)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, products)
}

// Get returns one product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := productCode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), code)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Create registers a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// Update edits a product's descriptive fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	code, err := productCode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	cost, salePrice, err := parsePrices(req.Cost, req.SalePrice)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), code, &service.UpdateProductInput{
		Name:         req.Name,
		Category:     req.Category,
		Description:  req.Description,
		StockMinimum: req.StockMinimum,
		Cost:         cost,
		SalePrice:    salePrice,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Delete removes a product; requires ?confirm=true
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code, err := productCode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := h.service.DeleteProduct(r.Context(), code, confirmed); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

func (req *CreateProductRequest) toInput() (*service.CreateProductInput, error) {
	cost, salePrice, err := parsePrices(req.Cost, req.SalePrice)
	if err != nil {
		return nil, err
	}

	in := &service.CreateProductInput{
		Name:         req.Name,
		Category:     req.Category,
		Description:  req.Description,
		StockInitial: req.StockInitial,
		StockMinimum: req.StockMinimum,
		Cost:         cost,
		SalePrice:    salePrice,
	}

	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		expiry, err := time.Parse(domain.DateLayout, *req.ExpiryDate)
		if err != nil {
			return nil, errors.Validation(map[string]string{
				"expiry_date": "must be a DD-MM-YYYY date",
			})
		}
		in.ExpiryDate = &expiry
	}
	return in, nil
}

func parsePrices(costStr, salePriceStr string) (decimal.Decimal, decimal.Decimal, error) {
	cost, err := decimal.NewFromString(costStr)
	if err != nil || cost.IsNegative() {
		return decimal.Zero, decimal.Zero, errors.Validation(map[string]string{
			"cost": "must be a non-negative decimal",
		})
	}

	salePrice, err := decimal.NewFromString(salePriceStr)
	if err != nil || salePrice.IsNegative() {
		return decimal.Zero, decimal.Zero, errors.Validation(map[string]string{
			"sale_price": "must be a non-negative decimal",
		})
	}
	return cost, salePrice, nil
}

func productCode(r *http.Request) (int, error) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 1 {
		return 0, errors.BadRequest("product code must be a positive integer")
	}
	return code, nil
}
