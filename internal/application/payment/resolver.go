package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Resolution is the outcome of resolving a submission: a draft entry and,
// for invoice-linked submissions, the invoice it is allocated to
type Resolution struct {
	Entry   *payment.PaymentEntry
	Invoice *sales.SalesInvoice
}

// PaymentResolver decides between the invoice-linked and on-account paths and
// builds an allocation-consistent draft payment entry
type PaymentResolver struct {
	now func() time.Time
}

// NewPaymentResolver creates a new PaymentResolver
func NewPaymentResolver(now func() time.Time) *PaymentResolver {
	if now == nil {
		now = time.Now
	}
	return &PaymentResolver{now: now}
}

// ClampPaidAmount returns the amount to record against an invoice: the full
// outstanding amount when nothing was requested, otherwise the request capped
// at the outstanding amount (and never above zero when outstanding is negative).
func ClampPaidAmount(requested *decimal.Decimal, outstanding decimal.Decimal) decimal.Decimal {
	if requested == nil {
		return outstanding
	}
	return decimal.Min(*requested, decimal.Max(decimal.Zero, outstanding))
}

// Resolve builds the draft payment entry for sub
func (r *PaymentResolver) Resolve(ctx context.Context, repos TransactionalRepositories, actor shared.Actor, sub *payment.PaymentSubmission) (*Resolution, error) {
	if sub.IsInvoiceLinked() {
		return r.resolveInvoicePayment(ctx, repos, actor, sub)
	}
	return r.resolveOnAccountPayment(ctx, repos, actor, sub)
}

func (r *PaymentResolver) resolveInvoicePayment(ctx context.Context, repos TransactionalRepositories, actor shared.Actor, sub *payment.PaymentSubmission) (*Resolution, error) {
	invoice, err := repos.InvoiceRepo().FindByID(ctx, sub.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsSubmitted() {
		return nil, shared.NewBusinessRuleError("INVOICE_NOT_SUBMITTED",
			fmt.Sprintf("Sales invoice %s is %s", invoice.ID, invoice.DocStatus))
	}
	if !invoice.HasOutstanding() && !sub.HasPositiveAmount() {
		return nil, shared.NewBusinessRuleError("NOTHING_OUTSTANDING",
			fmt.Sprintf("Sales invoice %s has nothing outstanding", invoice.ID))
	}
	if sub.Amount != nil && !sub.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "amount must be greater than zero")
	}

	paid := ClampPaidAmount(sub.Amount, invoice.OutstandingAmount)

	paidFrom := invoice.DebitTo
	if paidFrom == "" {
		company, err := repos.CompanyRepo().FindByName(ctx, invoice.Company)
		if err != nil {
			return nil, err
		}
		paidFrom = company.DefaultReceivableAccount
	}
	paidTo, err := r.receivingAccount(ctx, repos, sub.ModeOfPayment, invoice.Company)
	if err != nil {
		return nil, err
	}

	entry, err := payment.NewInvoicePayment(payment.PaymentEntryParams{
		Party:         invoice.CustomerID,
		PartyName:     invoice.CustomerName,
		Company:       invoice.Company,
		PaidAmount:    paid,
		ModeOfPayment: sub.ModeOfPayment,
		ReferenceNo:   sub.ReferenceNo,
		ReferenceDate: r.referenceDate(sub),
		PostingDate:   r.today(),
		PaidFrom:      paidFrom,
		PaidTo:        paidTo,
		Owner:         actor.User,
	}, invoice.ID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Entry: entry, Invoice: invoice}, nil
}

func (r *PaymentResolver) resolveOnAccountPayment(ctx context.Context, repos TransactionalRepositories, actor shared.Actor, sub *payment.PaymentSubmission) (*Resolution, error) {
	if sub.CustomerID == "" || !sub.HasPositiveAmount() {
		return nil, shared.NewValidationError("CUSTOMER_AND_AMOUNT_REQUIRED",
			"Customer and a positive amount are required for an on-account payment")
	}

	companyName := sub.Company
	if companyName == "" {
		companyName = actor.DefaultCompany
	}
	if companyName == "" {
		return nil, shared.NewValidationError("INVALID_COMPANY", "Company is required")
	}

	customer, err := repos.CustomerRepo().FindByID(ctx, sub.CustomerID)
	if err != nil {
		return nil, err
	}
	company, err := repos.CompanyRepo().FindByName(ctx, companyName)
	if err != nil {
		return nil, err
	}
	paidTo, err := r.receivingAccount(ctx, repos, sub.ModeOfPayment, company.Name)
	if err != nil {
		return nil, err
	}

	entry, err := payment.NewOnAccountPayment(payment.PaymentEntryParams{
		Party:         customer.ID,
		PartyName:     customer.DisplayName(),
		Company:       company.Name,
		PaidAmount:    *sub.Amount,
		ModeOfPayment: sub.ModeOfPayment,
		ReferenceNo:   sub.ReferenceNo,
		ReferenceDate: r.referenceDate(sub),
		PostingDate:   r.today(),
		PaidFrom:      company.DefaultReceivableAccount,
		PaidTo:        paidTo,
		Owner:         actor.User,
	})
	if err != nil {
		return nil, err
	}
	return &Resolution{Entry: entry}, nil
}

// receivingAccount returns the mode of payment's account for the company,
// falling back to the company's default cash account
func (r *PaymentResolver) receivingAccount(ctx context.Context, repos TransactionalRepositories, mode, companyName string) (string, error) {
	if mode != "" {
		account, err := repos.ModeOfPaymentRepo().FindAccount(ctx, mode, companyName)
		if err != nil {
			return "", err
		}
		if account != "" {
			return account, nil
		}
	}
	company, err := repos.CompanyRepo().FindByName(ctx, companyName)
	if err != nil {
		return "", err
	}
	return company.DefaultCashAccount, nil
}

func (r *PaymentResolver) referenceDate(sub *payment.PaymentSubmission) time.Time {
	if sub.ReferenceDate.IsZero() {
		return r.today()
	}
	return sub.ReferenceDate
}

func (r *PaymentResolver) today() time.Time {
	now := r.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
