package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/stocklot/stocklot-backend/internal/inventory/service"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// ExportHandler handles PDF export endpoints
type ExportHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.InventoryService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// InventoryReport generates and serves the inventory report PDF
func (h *ExportHandler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	pdfBytes, err := h.service.ExportInventoryReport(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate inventory report PDF")
		httputil.Error(w, err)
		return
	}

	servePDF(w, "inventory-report", pdfBytes)
}

// MovementLog generates and serves the movement log PDF
func (h *ExportHandler) MovementLog(w http.ResponseWriter, r *http.Request) {
	pdfBytes, err := h.service.ExportMovementLog(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate movement log PDF")
		httputil.Error(w, err)
		return
	}

	servePDF(w, "movement-log", pdfBytes)
}

func servePDF(w http.ResponseWriter, prefix string, pdfBytes []byte) {
	filename := fmt.Sprintf("%s-%s.pdf", prefix, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.Write(pdfBytes)
}
