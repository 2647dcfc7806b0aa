package handlers

import (
	"encoding/csv"
	"fmt"

	"github.com/gin-gonic/gin"

	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/http/v1/dto"
	"salesboard/pkg/logger"
)

// ReportsHandler handles HTTP requests for sales reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetSalesAnalysis handles GET /reports/sales-analysis
func (h *ReportsHandler) GetSalesAnalysis(c *gin.Context) {
	var q dto.SalesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	analysis, err := h.service.AnalyzeItems(c.Request.Context(), q.Items())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSalesAnalysis(analysis))
}

// PostSalesAnalysis handles POST /reports/sales-analysis with generic filter rows.
func (h *ReportsHandler) PostSalesAnalysis(c *gin.Context) {
	var req dto.FilterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	analysis, err := h.service.AnalyzeItems(c.Request.Context(), req.Filters)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSalesAnalysis(analysis))
}

// GetSalesFilters handles GET /reports/sales-filters
func (h *ReportsHandler) GetSalesFilters(c *gin.Context) {
	opts, err := h.service.FilterOptions(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromFilterOptions(opts))
}

// GetSalesTransactions handles GET /reports/sales-transactions
func (h *ReportsHandler) GetSalesTransactions(c *gin.Context) {
	var q dto.TransactionsQuery
	spec, ok := h.BindSpec(c, &q)
	if !ok {
		return
	}

	page, err := h.service.LatestTransactions(c.Request.Context(), spec, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransactionPage(page))
}

// ExportSalesTransactions handles GET /reports/sales-transactions/export.
// The filtered subset is streamed as CSV in table order.
func (h *ReportsHandler) ExportSalesTransactions(c *gin.Context) {
	var q dto.SalesQuery
	spec, ok := h.BindSpec(c, &q)
	if !ok {
		return
	}

	rows, err := h.service.Subset(c.Request.Context(), spec)
	if err != nil {
		h.Error(c, err)
		return
	}

	filename := fmt.Sprintf("sales_%s_%s.csv",
		spec.Dates.From.Format(sales.DateLayout), spec.Dates.To.Format(sales.DateLayout))
	h.Attachment(c, "text/csv; charset=utf-8", filename)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(dto.TransactionCSVHeader); err != nil {
		logger.Error(c.Request.Context(), "csv export failed", "error", err)
		return
	}
	for _, tx := range rows {
		if err := w.Write(dto.TransactionCSVRecord(tx)); err != nil {
			logger.Error(c.Request.Context(), "csv export failed", "error", err, "rows", len(rows))
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Error(c.Request.Context(), "csv export failed", "error", err, "rows", len(rows))
	}
}
