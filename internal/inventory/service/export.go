package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-pdf/fpdf"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/pkg/errors"
)

// ExportInventoryReport renders the current product list as a PDF,
// one row per product with its stock and expiry standing, headed by
// the dashboard totals.
func (s *InventoryService) ExportInventoryReport(ctx context.Context) ([]byte, error) {
	products, err := s.ListProducts(ctx, "", "")
	if err != nil {
		return nil, err
	}
	stats, err := s.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Inventory Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Inventory Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf(
		"Generated %s  |  %d products, %d units, value %s",
		domain.Today(s.now()).Format(domain.DateLayout),
		stats.TotalProducts, stats.TotalStock, stats.InventoryValue.StringFixed(2),
	), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []struct {
		label string
		width float64
	}{
		{"Code", 15},
		{"Name", 70},
		{"Category", 40},
		{"Stock", 18},
		{"Minimum", 20},
		{"Status", 25},
		{"Expiry", 25},
		{"Expiry Status", 30},
		{"Cost", 20},
	}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range headers {
			pdf.CellFormat(h.width, 7, h.label, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()

	for _, p := range products {
		if pdf.GetY() > 180 {
			pdf.AddPage()
			writeHeader()
		}
		expiry := ""
		if p.ExpiryDate != nil {
			expiry = p.ExpiryDate.Format(domain.DateLayout)
		}
		cells := []string{
			fmt.Sprintf("%d", p.Code),
			p.Name,
			p.Category,
			fmt.Sprintf("%d", p.StockCurrent),
			fmt.Sprintf("%d", p.StockMinimum),
			string(p.StockStatus),
			expiry,
			string(p.ExpiryStatus),
			p.Cost.StringFixed(2),
		}
		for i, cell := range cells {
			pdf.CellFormat(headers[i].width, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "EXPORT_FAILED", "failed to render PDF", http.StatusInternalServerError)
	}
	return buf.Bytes(), nil
}

// ExportMovementLog renders the full ledger as a PDF, newest first,
// with product names resolved the same way the movement list is.
func (s *InventoryService) ExportMovementLog(ctx context.Context) ([]byte, error) {
	views, err := s.ListMovements(ctx)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Movement Log", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Movement Log", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf(
		"Generated %s  |  %d movements",
		domain.Today(s.now()).Format(domain.DateLayout), len(views),
	), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []struct {
		label string
		width float64
	}{
		{"Date", 25},
		{"Product", 75},
		{"Type", 25},
		{"Quantity", 22},
		{"Actor", 45},
		{"Reason", 75},
	}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range headers {
			pdf.CellFormat(h.width, 7, h.label, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()

	for _, v := range views {
		if pdf.GetY() > 180 {
			pdf.AddPage()
			writeHeader()
		}
		cells := []string{
			v.Date.Format(domain.DateLayout),
			v.ProductName,
			string(v.Type),
			fmt.Sprintf("%d", v.Quantity),
			v.Actor,
			v.Reason,
		}
		for i, cell := range cells {
			pdf.CellFormat(headers[i].width, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "EXPORT_FAILED", "failed to render PDF", http.StatusInternalServerError)
	}
	return buf.Bytes(), nil
}
