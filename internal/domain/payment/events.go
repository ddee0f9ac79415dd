package payment

import (
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EventTypePaymentEntrySubmitted is the event type of PaymentEntrySubmittedEvent
const EventTypePaymentEntrySubmitted = "PaymentEntrySubmitted"

// PaymentEntrySubmittedEvent is raised when a payment entry is finalized
type PaymentEntrySubmittedEvent struct {
	shared.BaseDomainEvent
	PaymentEntryID string          `json:"payment_entry_id"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Company        string          `json:"company"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	ModeOfPayment  string          `json:"mode_of_payment,omitempty"`
	InvoiceID      string          `json:"invoice_id,omitempty"`
}

// NewPaymentEntrySubmittedEvent creates a new PaymentEntrySubmittedEvent
func NewPaymentEntrySubmittedEvent(pe *PaymentEntry) *PaymentEntrySubmittedEvent {
	id := pe.ID.String()
	return &PaymentEntrySubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentEntrySubmitted, "PaymentEntry", id),
		PaymentEntryID:  id,
		CustomerID:      pe.Party,
		CustomerName:    pe.PartyName,
		Company:         pe.Company,
		PaidAmount:      pe.PaidAmount,
		ModeOfPayment:   pe.ModeOfPayment,
		InvoiceID:       pe.LinkedInvoice(),
	}
}
