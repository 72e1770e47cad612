package handler

import (
	"net/http"

	"github.com/stocklot/stocklot-backend/internal/inventory/service"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// DashboardHandler serves the dashboard summary and the alert list
type DashboardHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.InventoryService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// Stats returns the inventory summary
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// Alerts returns products needing attention
func (h *DashboardHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}
