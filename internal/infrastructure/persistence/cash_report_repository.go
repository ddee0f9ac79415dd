package persistence

import (
	"context"
	"time"

	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/report"
	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCashReportRepository implements CashReportRepository using GORM
type GormCashReportRepository struct {
	db *gorm.DB
}

// NewGormCashReportRepository creates a new GormCashReportRepository
func NewGormCashReportRepository(db *gorm.DB) *GormCashReportRepository {
	return &GormCashReportRepository{db: db}
}

// OpeningBalance returns SUM(debit - credit) of the account before the date
func (r *GormCashReportRepository) OpeningBalance(ctx context.Context, account string, before time.Time) (decimal.Decimal, error) {
	return NewGormGLEntryRepository(r.db).OpeningBalance(ctx, account, before)
}

// allocationRow is the scan target of InvoiceAllocations
type allocationRow struct {
	PaymentEntryID  string
	InvoiceID       string
	AllocatedAmount decimal.Decimal
	GrandTotal      decimal.Decimal
	ItemAmount      decimal.Decimal
	IncomeAccount   string
}

// InvoiceAllocations returns every positive invoice allocation of submitted
// payment entries received into account, one row per invoice item
func (r *GormCashReportRepository) InvoiceAllocations(ctx context.Context, account string, from, to time.Time) ([]report.AllocationLine, error) {
	var rows []allocationRow
	if err := r.db.WithContext(ctx).
		Table("payment_entry_references ref").
		Select(`pe.id AS payment_entry_id, si.id AS invoice_id, ref.allocated_amount,
			si.grand_total, sii.amount AS item_amount, sii.income_account`).
		Joins("JOIN payment_entries pe ON pe.id = ref.payment_entry_id").
		Joins("JOIN sales_invoices si ON si.id = ref.reference_name").
		Joins("JOIN sales_invoice_items sii ON sii.invoice_id = si.id").
		Where("ref.reference_doctype = ?", payment.DoctypeSalesInvoice).
		Where("pe.docstatus = ? AND pe.paid_to = ?", int(payment.DocStatusSubmitted), account).
		Where("pe.posting_date BETWEEN ? AND ?", from, to).
		Where("ref.allocated_amount > 0").
		Order("pe.posting_date, ref.idx, sii.idx").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]report.AllocationLine, len(rows))
	for i, row := range rows {
		lines[i] = report.AllocationLine(row)
	}
	return lines, nil
}

// CreditsByAgainst returns the credit totals of the account grouped by
// against account, largest first
func (r *GormCashReportRepository) CreditsByAgainst(ctx context.Context, account string, from, to time.Time) ([]report.ExpenseLine, error) {
	var lines []report.ExpenseLine
	if err := r.db.WithContext(ctx).
		Table("gl_entries gle").
		Select("gle.against AS expense_account, SUM(gle.credit) AS total").
		Where("gle.account = ?", account).
		Where("gle.posting_date BETWEEN ? AND ?", from, to).
		Where("gle.credit > 0 AND gle.is_cancelled = ?", false).
		Group("gle.against").
		Order("total DESC, gle.against ASC").
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// LedgerRows returns the GL movements of the accounts grouped per voucher,
// excluding cancelled postings and postings of cancelled sales invoices
func (r *GormCashReportRepository) LedgerRows(ctx context.Context, accounts []string, from, to time.Time) ([]report.CashLedgerRow, error) {
	rows := []report.CashLedgerRow{}
	if len(accounts) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Table("gl_entries gle").
		Select(`gle.posting_date, gle.account, gle.against AS against_account,
			gle.voucher_type, gle.voucher_no,
			SUM(gle.debit) AS total_in, SUM(gle.credit) AS total_out`).
		Joins("LEFT JOIN sales_invoices si ON si.id = gle.voucher_no AND gle.voucher_type = ?", ledger.VoucherTypeSalesInvoice).
		Where("gle.account IN ?", accounts).
		Where("gle.posting_date BETWEEN ? AND ?", from, to).
		Where("(si.id IS NULL OR si.docstatus <> ?)", int(sales.DocStatusCancelled)).
		Where("gle.is_cancelled = ?", false).
		Group("gle.posting_date, gle.account, gle.against, gle.voucher_type, gle.voucher_no").
		Order("gle.posting_date ASC, gle.account ASC, gle.voucher_no ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Ensure GormCashReportRepository implements CashReportRepository
var _ report.CashReportRepository = (*GormCashReportRepository)(nil)
