package handler

import (
	"net/http"
	"time"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/internal/inventory/service"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// MovementHandler handles movement endpoints
type MovementHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(svc *service.InventoryService, log *logger.Logger) *MovementHandler {
	return &MovementHandler{
		service: svc,
		logger:  log,
	}
}

// ApplyMovementRequest is the movement payload. Entries carry either an
// expiry_date (DD-MM-YYYY) or no_expiry=true. The actor defaults to the
// authenticated user.
type ApplyMovementRequest struct {
	Type       string  `json:"type" validate:"required,oneof=entry exit adjustment"`
	Quantity   int     `json:"quantity" validate:"required"`
	Reason     string  `json:"reason,omitempty"`
	Actor      string  `json:"actor,omitempty"`
	ExpiryDate *string `json:"expiry_date,omitempty"`
	NoExpiry   bool    `json:"no_expiry,omitempty"`
}

// Apply applies a movement to a product and returns the updated
// product, the ledger record and an optional notice
func (h *MovementHandler) Apply(w http.ResponseWriter, r *http.Request) {
	code, err := productCode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req ApplyMovementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	in := &domain.MovementInput{
		Type:     domain.MovementType(req.Type),
		Quantity: req.Quantity,
		Actor:    req.Actor,
		Reason:   req.Reason,
		NoExpiry: req.NoExpiry,
	}
	if in.Actor == "" {
		in.Actor = httputil.GetUserName(r.Context())
	}

	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		expiry, err := time.Parse(domain.DateLayout, *req.ExpiryDate)
		if err != nil {
			httputil.Error(w, errors.Validation(map[string]string{
				"expiry_date": "must be a DD-MM-YYYY date",
			}))
			return
		}
		in.NewExpiry = &expiry
	}

	result, err := h.service.ApplyMovement(r.Context(), code, in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// List returns the full ledger newest-first
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListMovements(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, views)
}

// ListByProduct returns one product's ledger slice newest-first
func (h *MovementHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	code, err := productCode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	views, err := h.service.ListProductMovements(r.Context(), code)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, views)
}
