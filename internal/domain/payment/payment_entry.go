package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentType is the direction of a payment entry
type PaymentType string

const (
	PaymentTypeReceive PaymentType = "Receive"
	PaymentTypePay     PaymentType = "Pay"
)

// PartyTypeCustomer is the only party type this service records payments for
const PartyTypeCustomer = "Customer"

// Document types files can be attached to
const (
	DoctypePaymentEntry = "Payment Entry"
	DoctypeSalesInvoice = "Sales Invoice"
)

// DocStatus is the lifecycle state of a payment entry
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// InvoiceAllocation is the part of a payment applied to one invoice
type InvoiceAllocation struct {
	ReferenceDoctype string
	InvoiceID        string
	AllocatedAmount  decimal.Decimal
}

// PaymentEntry records money received from a customer. It is created as a
// draft and submitted in the same transaction; a submitted entry is immutable.
type PaymentEntry struct {
	shared.BaseAggregateRoot
	PaymentType    PaymentType
	PartyType      string
	Party          string
	PartyName      string
	Company        string
	PostingDate    time.Time
	PaidAmount     decimal.Decimal
	ReceivedAmount decimal.Decimal
	ModeOfPayment  string
	ReferenceNo    string
	ReferenceDate  time.Time
	PaidFrom       string
	PaidTo         string
	DocStatus      DocStatus
	References     []InvoiceAllocation
	Owner          string
	SubmittedAt    *time.Time
}

// PaymentEntryParams holds the fields shared by both construction paths
type PaymentEntryParams struct {
	Party         string
	PartyName     string
	Company       string
	PaidAmount    decimal.Decimal
	ModeOfPayment string
	ReferenceNo   string
	ReferenceDate time.Time
	PostingDate   time.Time
	PaidFrom      string
	PaidTo        string
	Owner         string
}

func (p *PaymentEntryParams) validate() error {
	if strings.TrimSpace(p.Party) == "" {
		return shared.NewValidationError("INVALID_PARTY", "Customer is required")
	}
	if strings.TrimSpace(p.Company) == "" {
		return shared.NewValidationError("INVALID_COMPANY", "Company is required")
	}
	if strings.TrimSpace(p.Owner) == "" {
		return shared.NewValidationError("INVALID_OWNER", "Owner cannot be empty")
	}
	if p.PaidFrom == "" {
		return shared.NewBusinessRuleError("MISSING_ACCOUNT", fmt.Sprintf("No receivable account configured for company %s", p.Company))
	}
	if p.PaidTo == "" {
		return shared.NewBusinessRuleError("MISSING_ACCOUNT", fmt.Sprintf("No cash account configured for company %s", p.Company))
	}
	if p.ReferenceDate.IsZero() || p.PostingDate.IsZero() {
		return shared.NewValidationError("INVALID_DATE", "Reference date and posting date are required")
	}
	return nil
}

func newPaymentEntry(p PaymentEntryParams) *PaymentEntry {
	return &PaymentEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentType:       PaymentTypeReceive,
		PartyType:         PartyTypeCustomer,
		Party:             p.Party,
		PartyName:         p.PartyName,
		Company:           p.Company,
		PostingDate:       p.PostingDate,
		PaidAmount:        p.PaidAmount,
		ReceivedAmount:    p.PaidAmount,
		ModeOfPayment:     p.ModeOfPayment,
		ReferenceNo:       p.ReferenceNo,
		ReferenceDate:     p.ReferenceDate,
		PaidFrom:          p.PaidFrom,
		PaidTo:            p.PaidTo,
		DocStatus:         DocStatusDraft,
		Owner:             p.Owner,
	}
}

// NewInvoicePayment creates a draft payment fully allocated to invoiceID
func NewInvoicePayment(p PaymentEntryParams, invoiceID string) (*PaymentEntry, error) {
	if invoiceID == "" {
		return nil, shared.NewValidationError("INVALID_INVOICE", "Sales invoice is required")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if !p.PaidAmount.IsPositive() {
		return nil, shared.NewBusinessRuleError("NOTHING_OUTSTANDING",
			fmt.Sprintf("Sales invoice %s has no outstanding amount to allocate", invoiceID))
	}

	pe := newPaymentEntry(p)
	pe.References = []InvoiceAllocation{{
		ReferenceDoctype: DoctypeSalesInvoice,
		InvoiceID:        invoiceID,
		AllocatedAmount:  p.PaidAmount,
	}}
	return pe, nil
}

// NewOnAccountPayment creates a draft payment with no invoice allocation
func NewOnAccountPayment(p PaymentEntryParams) (*PaymentEntry, error) {
	if !p.PaidAmount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Customer and a positive amount are required for an on-account payment")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return newPaymentEntry(p), nil
}

// IsInvoiceLinked returns true when the payment is allocated to an invoice
func (pe *PaymentEntry) IsInvoiceLinked() bool {
	return len(pe.References) > 0
}

// LinkedInvoice returns the first allocated invoice, or ""
func (pe *PaymentEntry) LinkedInvoice() string {
	if len(pe.References) == 0 {
		return ""
	}
	return pe.References[0].InvoiceID
}

// TotalAllocated returns the sum of all allocations
func (pe *PaymentEntry) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, ref := range pe.References {
		total = total.Add(ref.AllocatedAmount)
	}
	return total
}

// Submit finalizes a draft entry
func (pe *PaymentEntry) Submit(at time.Time) error {
	if pe.DocStatus != DocStatusDraft {
		return shared.NewBusinessRuleError("INVALID_STATE", "Only a draft payment entry can be submitted")
	}
	if pe.TotalAllocated().GreaterThan(pe.PaidAmount) {
		return shared.NewBusinessRuleError("OVER_ALLOCATED", "Allocated amount exceeds paid amount")
	}

	pe.DocStatus = DocStatusSubmitted
	pe.SubmittedAt = &at
	pe.UpdatedAt = at
	pe.IncrementVersion()
	pe.AddDomainEvent(NewPaymentEntrySubmittedEvent(pe))
	return nil
}
