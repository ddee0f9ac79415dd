package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rtmanagement/backend/internal/domain/report"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"github.com/rtmanagement/backend/internal/interfaces/http/middleware"
)

const queryDateLayout = "2006-01-02"

// CashReporter produces the cash reports
type CashReporter interface {
	CashSummary(ctx context.Context, filter report.CashReportFilter) (*report.CashSummary, error)
	CashLedger(ctx context.Context, filter report.CashReportFilter) (*report.CashLedger, error)
}

// ReportHandler serves the cash report endpoints
type ReportHandler struct {
	BaseHandler
	reports CashReporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports CashReporter) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// CashSummary handles GET /reports/cash-summary
func (h *ReportHandler) CashSummary(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	summary, err := h.reports.CashSummary(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// CashLedger handles GET /reports/cash-ledger
func (h *ReportHandler) CashLedger(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	ledger, err := h.reports.CashLedger(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}

func (h *ReportHandler) bindFilter(c *gin.Context) (report.CashReportFilter, bool) {
	var q dto.CashReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, middleware.ValidationMessage(err))
		return report.CashReportFilter{}, false
	}

	// binding already checked the layout
	from, _ := time.Parse(queryDateLayout, q.FromDate)
	to, _ := time.Parse(queryDateLayout, q.ToDate)

	return report.CashReportFilter{FromDate: from, ToDate: to, Account: q.Account}, true
}
