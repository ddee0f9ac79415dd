package sales

import (
	"fmt"
	"time"

	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocStatus is the document lifecycle state shared by submittable documents
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// String returns the display name of the doc status
func (s DocStatus) String() string {
	switch s {
	case DocStatusDraft:
		return "Draft"
	case DocStatusSubmitted:
		return "Submitted"
	case DocStatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("DocStatus(%d)", int(s))
	}
}

// InvoiceStatus is the payment status of a sales invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft       InvoiceStatus = "Draft"
	InvoiceStatusUnpaid      InvoiceStatus = "Unpaid"
	InvoiceStatusPartlyPaid  InvoiceStatus = "Partly Paid"
	InvoiceStatusPaid        InvoiceStatus = "Paid"
	InvoiceStatusOverdue     InvoiceStatus = "Overdue"
	InvoiceStatusCancelled   InvoiceStatus = "Cancelled"
	InvoiceStatusCreditNoted InvoiceStatus = "Credit Note Issued"
)

// SalesInvoiceItem is one billed line. Unit is the house unit the line is
// charged for.
type SalesInvoiceItem struct {
	ItemCode      string
	ItemName      string
	Unit          string
	Qty           decimal.Decimal
	Rate          decimal.Decimal
	Amount        decimal.Decimal
	IncomeAccount string
}

// SalesInvoice is the billing document a payment can be allocated to.
// Invoices are created by the surrounding ERP; this service only reads them
// and reduces the outstanding amount when a payment is allocated.
type SalesInvoice struct {
	shared.EventRecorder
	ID                string
	CustomerID        string
	CustomerName      string
	Company           string
	PostingDate       time.Time
	DueDate           *time.Time
	GrandTotal        decimal.Decimal
	OutstandingAmount decimal.Decimal
	DebitTo           string
	DocStatus         DocStatus
	Status            InvoiceStatus
	Items             []SalesInvoiceItem
	Version           int
	UpdatedAt         time.Time
}

// IsSubmitted returns true if the invoice has been finalized and not cancelled
func (si *SalesInvoice) IsSubmitted() bool {
	return si.DocStatus == DocStatusSubmitted
}

// HasOutstanding returns true if something is left to pay
func (si *SalesInvoice) HasOutstanding() bool {
	return si.OutstandingAmount.GreaterThan(decimal.Zero)
}

// ApplyPayment allocates amount against the outstanding balance.
// The caller is expected to have clamped amount to the outstanding balance.
func (si *SalesInvoice) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if !si.IsSubmitted() {
		return shared.NewBusinessRuleError("INVALID_STATE",
			fmt.Sprintf("Cannot allocate payment to sales invoice %s in %s state", si.ID, si.DocStatus))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewBusinessRuleError("INVALID_AMOUNT", "Allocated amount must be positive")
	}
	if amount.GreaterThan(si.OutstandingAmount) {
		return shared.NewBusinessRuleError("EXCEEDS_OUTSTANDING",
			fmt.Sprintf("Allocated amount %s exceeds outstanding amount %s of sales invoice %s",
				amount.StringFixed(2), si.OutstandingAmount.StringFixed(2), si.ID))
	}

	si.OutstandingAmount = si.OutstandingAmount.Sub(amount)
	si.Status = si.paymentStatus(at)
	si.UpdatedAt = at
	si.Version++
	return nil
}

func (si *SalesInvoice) paymentStatus(at time.Time) InvoiceStatus {
	switch {
	case si.OutstandingAmount.LessThanOrEqual(decimal.Zero):
		return InvoiceStatusPaid
	case si.DueDate != nil && at.After(*si.DueDate):
		return InvoiceStatusOverdue
	case si.OutstandingAmount.LessThan(si.GrandTotal):
		return InvoiceStatusPartlyPaid
	default:
		return InvoiceStatusUnpaid
	}
}

// MarkSubmittedForNotification raises the event that triggers the customer
// notification for a submitted invoice.
func (si *SalesInvoice) MarkSubmittedForNotification() error {
	if !si.IsSubmitted() {
		return shared.NewBusinessRuleError("INVALID_STATE",
			fmt.Sprintf("Sales invoice %s is not submitted", si.ID))
	}
	si.AddDomainEvent(NewSalesInvoiceSubmittedEvent(si))
	return nil
}
