package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
)

// SalesOperations are the sales features exposed over HTTP
type SalesOperations interface {
	CustomerUnits(ctx context.Context, customerID string) ([]string, error)
	NotifyInvoiceSubmitted(ctx context.Context, invoiceID string) error
}

// SalesHandler serves customer and invoice endpoints
type SalesHandler struct {
	BaseHandler
	sales SalesOperations
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(sales SalesOperations) *SalesHandler {
	return &SalesHandler{sales: sales}
}

// CustomerUnits handles GET /sales/customers/:id/units
func (h *SalesHandler) CustomerUnits(c *gin.Context) {
	customerID := c.Param("id")

	units, err := h.sales.CustomerUnits(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CustomerUnitsResponse{Customer: customerID, Units: units})
}

// InvoiceSubmitted handles POST /sales/invoices/:id/submitted. The customer
// notification is queued, so the response is 202.
func (h *SalesHandler) InvoiceSubmitted(c *gin.Context) {
	invoiceID := c.Param("id")

	if err := h.sales.NotifyInvoiceSubmitted(c.Request.Context(), invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, dto.InvoiceNotificationResponse{SalesInvoice: invoiceID, Queued: true})
}
