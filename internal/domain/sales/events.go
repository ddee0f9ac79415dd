package sales

import (
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EventTypeSalesInvoiceSubmitted is the event type of SalesInvoiceSubmittedEvent
const EventTypeSalesInvoiceSubmitted = "SalesInvoiceSubmitted"

// SalesInvoiceSubmittedEvent is raised when a submitted invoice should be
// delivered to the customer
type SalesInvoiceSubmittedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    string          `json:"invoice_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

// NewSalesInvoiceSubmittedEvent creates a new SalesInvoiceSubmittedEvent
func NewSalesInvoiceSubmittedEvent(si *SalesInvoice) *SalesInvoiceSubmittedEvent {
	return &SalesInvoiceSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesInvoiceSubmitted, "SalesInvoice", si.ID),
		InvoiceID:       si.ID,
		CustomerID:      si.CustomerID,
		CustomerName:    si.CustomerName,
		GrandTotal:      si.GrandTotal,
	}
}
