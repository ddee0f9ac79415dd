package report

import (
	"context"
	"time"

	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// IncomeLine is money received into a cash account, attributed to the
// income account of the invoice items it paid for
type IncomeLine struct {
	IncomeAccount string          `json:"income_account"`
	Total         decimal.Decimal `json:"total"`
}

// ExpenseLine is money paid out of a cash account, grouped by the
// account on the other side of the posting
type ExpenseLine struct {
	ExpenseAccount string          `json:"expense_account"`
	Total          decimal.Decimal `json:"total"`
}

// CashSummary is the cash in/out summary of one cash or bank account
type CashSummary struct {
	Account  string          `json:"account"`
	FromDate time.Time       `json:"from_date"`
	ToDate   time.Time       `json:"to_date"`
	Opening  decimal.Decimal `json:"opening"`
	In       []IncomeLine    `json:"in"`
	Out      []ExpenseLine   `json:"out"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Balance  decimal.Decimal `json:"balance"` // Opening + TotalIn - TotalOut
}

// CashLedgerRow is the GL movement of one voucher on one cash account and day
type CashLedgerRow struct {
	PostingDate    time.Time       `json:"posting_date"`
	Account        string          `json:"account"`
	AgainstAccount string          `json:"against_account"`
	VoucherType    string          `json:"voucher_type"`
	VoucherNo      string          `json:"voucher_no"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
}

// CashLedger lists cash movements over a period with their totals
type CashLedger struct {
	FromDate time.Time       `json:"from_date"`
	ToDate   time.Time       `json:"to_date"`
	Accounts []string        `json:"accounts"`
	Rows     []CashLedgerRow `json:"rows"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
}

// AllocationLine pairs one invoice allocation of a submitted payment with
// one item of the allocated invoice
type AllocationLine struct {
	PaymentEntryID  string
	InvoiceID       string
	AllocatedAmount decimal.Decimal
	GrandTotal      decimal.Decimal
	ItemAmount      decimal.Decimal
	IncomeAccount   string
}

// ProratedAmount is the share of the allocation attributable to the item.
// An invoice with a zero grand total is treated as totalling one.
func (l AllocationLine) ProratedAmount() decimal.Decimal {
	total := l.GrandTotal
	if total.IsZero() {
		total = decimal.NewFromInt(1)
	}
	return l.AllocatedAmount.Mul(l.ItemAmount).Div(total)
}

// CashReportFilter defines the period and account of a cash report
type CashReportFilter struct {
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
	Account  string    `json:"account,omitempty"`
}

// Validate checks the period. The account is checked by the reports that need it.
func (f CashReportFilter) Validate() error {
	if f.FromDate.IsZero() || f.ToDate.IsZero() {
		return shared.NewValidationError("INVALID_PERIOD", "from_date and to_date are required")
	}
	if f.ToDate.Before(f.FromDate) {
		return shared.NewValidationError("INVALID_PERIOD", "to_date must not be before from_date")
	}
	return nil
}

// CashReportRepository defines the queries behind the cash reports
type CashReportRepository interface {
	// OpeningBalance returns SUM(debit - credit) of the account before the date
	OpeningBalance(ctx context.Context, account string, before time.Time) (decimal.Decimal, error)

	// InvoiceAllocations returns, for submitted payment entries received into
	// account within the period, every positive invoice allocation joined
	// with each item of the invoice
	InvoiceAllocations(ctx context.Context, account string, from, to time.Time) ([]AllocationLine, error)

	// CreditsByAgainst returns credit totals of the account grouped by against account
	CreditsByAgainst(ctx context.Context, account string, from, to time.Time) ([]ExpenseLine, error)

	// LedgerRows returns GL movements of the accounts, ordered by posting date
	LedgerRows(ctx context.Context, accounts []string, from, to time.Time) ([]CashLedgerRow, error)
}
