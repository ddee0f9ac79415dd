package ledger

import (
	"time"

	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountType is the account classification relevant to cash reporting
type AccountType string

const (
	AccountTypeCash       AccountType = "Cash"
	AccountTypeBank       AccountType = "Bank"
	AccountTypeReceivable AccountType = "Receivable"
	AccountTypeIncome     AccountType = "Income Account"
	AccountTypeExpense    AccountType = "Expense Account"
)

// IsCashOrBank returns true for accounts that hold money
func (t AccountType) IsCashOrBank() bool {
	return t == AccountTypeCash || t == AccountTypeBank
}

// Account is a chart-of-accounts entry
type Account struct {
	Name        string
	AccountType AccountType
	IsGroup     bool
	Company     string
}

// Company carries the default accounts used when a payment does not name them
type Company struct {
	Name                     string
	DefaultCashAccount       string
	DefaultReceivableAccount string
}

// ModeOfPayment maps a payment method to the account money is received into
type ModeOfPayment struct {
	Name           string
	Company        string
	DefaultAccount string
}

// Voucher types posted by this service
const (
	VoucherTypePaymentEntry = "Payment Entry"
	VoucherTypeSalesInvoice = "Sales Invoice"
)

// GLEntry is one side of a double-entry posting
type GLEntry struct {
	shared.BaseEntity
	PostingDate time.Time
	Account     string
	Against     string
	PartyType   string
	Party       string
	VoucherType string
	VoucherNo   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	IsCancelled bool
	Company     string
}

// NewGLEntry creates a ledger row. Exactly one of debit and credit must be positive.
func NewGLEntry(postingDate time.Time, account, against string, debit, credit decimal.Decimal, voucherType, voucherNo, company string) (*GLEntry, error) {
	if account == "" {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", "GL entry account cannot be empty")
	}
	if voucherNo == "" {
		return nil, shared.NewValidationError("INVALID_VOUCHER", "GL entry voucher number cannot be empty")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "GL entry amounts cannot be negative")
	}
	if debit.IsPositive() == credit.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "GL entry must have exactly one of debit or credit")
	}

	return &GLEntry{
		BaseEntity:  shared.NewBaseEntity(),
		PostingDate: postingDate,
		Account:     account,
		Against:     against,
		VoucherType: voucherType,
		VoucherNo:   voucherNo,
		Debit:       debit,
		Credit:      credit,
		Company:     company,
	}, nil
}

// WithParty sets the party the entry is posted for
func (e *GLEntry) WithParty(partyType, party string) *GLEntry {
	e.PartyType = partyType
	e.Party = party
	return e
}
