package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyRepository reads company defaults
type CompanyRepository interface {
	FindByName(ctx context.Context, name string) (*Company, error)
}

// ModeOfPaymentRepository reads mode-of-payment accounts
type ModeOfPaymentRepository interface {
	// FindAccount returns "" when the mode has no account for the company
	FindAccount(ctx context.Context, mode, company string) (string, error)
}

// AccountRepository reads the chart of accounts
type AccountRepository interface {
	// FindCashAndBank returns the names of non-group Cash and Bank accounts
	FindCashAndBank(ctx context.Context) ([]string, error)
}

// GLEntryRepository writes ledger postings and answers balance queries
type GLEntryRepository interface {
	SaveBatch(ctx context.Context, entries []*GLEntry) error

	// OpeningBalance is SUM(debit - credit) for account before the given date,
	// ignoring cancelled rows
	OpeningBalance(ctx context.Context, account string, before time.Time) (decimal.Decimal, error)
}
