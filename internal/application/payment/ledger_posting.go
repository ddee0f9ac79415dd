package payment

import (
	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// BuildLedgerEntries returns the double-entry posting of a submitted
// payment: debit the receiving account, credit the customer's receivable.
func BuildLedgerEntries(pe *payment.PaymentEntry) ([]*ledger.GLEntry, error) {
	voucherNo := pe.ID.String()

	debit, err := ledger.NewGLEntry(pe.PostingDate, pe.PaidTo, pe.Party,
		pe.ReceivedAmount, decimal.Zero, ledger.VoucherTypePaymentEntry, voucherNo, pe.Company)
	if err != nil {
		return nil, err
	}

	credit, err := ledger.NewGLEntry(pe.PostingDate, pe.PaidFrom, pe.PaidTo,
		decimal.Zero, pe.PaidAmount, ledger.VoucherTypePaymentEntry, voucherNo, pe.Company)
	if err != nil {
		return nil, err
	}
	credit.WithParty(pe.PartyType, pe.Party)

	return []*ledger.GLEntry{debit, credit}, nil
}
