package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rtmanagement/backend/internal/domain/report"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCashReportRepository struct {
	mock.Mock
}

func (m *mockCashReportRepository) OpeningBalance(ctx context.Context, account string, before time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, account, before)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockCashReportRepository) InvoiceAllocations(ctx context.Context, account string, from, to time.Time) ([]report.AllocationLine, error) {
	args := m.Called(ctx, account, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.AllocationLine), args.Error(1)
}

func (m *mockCashReportRepository) CreditsByAgainst(ctx context.Context, account string, from, to time.Time) ([]report.ExpenseLine, error) {
	args := m.Called(ctx, account, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.ExpenseLine), args.Error(1)
}

func (m *mockCashReportRepository) LedgerRows(ctx context.Context, accounts []string, from, to time.Time) ([]report.CashLedgerRow, error) {
	args := m.Called(ctx, accounts, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.CashLedgerRow), args.Error(1)
}

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) FindCashAndBank(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var (
	june1  = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	june30 = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService() (*ReportService, *mockCashReportRepository, *mockAccountRepository) {
	reports := new(mockCashReportRepository)
	accounts := new(mockAccountRepository)
	return NewReportService(reports, accounts, zap.NewNop()), reports, accounts
}

func TestReportService_CashSummary(t *testing.T) {
	ctx := context.Background()
	filter := report.CashReportFilter{FromDate: june1, ToDate: june30, Account: "Cash - S"}

	t.Run("prorates allocations over invoice items", func(t *testing.T) {
		svc, reports, _ := newTestService()
		reports.On("OpeningBalance", ctx, "Cash - S", june1).Return(d("500000"), nil)
		reports.On("InvoiceAllocations", ctx, "Cash - S", june1, june30).Return([]report.AllocationLine{
			// INV-1: 150000 paid in full, split 100000/50000
			{PaymentEntryID: "PE-1", InvoiceID: "INV-1", AllocatedAmount: d("150000"), GrandTotal: d("150000"), ItemAmount: d("100000"), IncomeAccount: "Iuran Keamanan - S"},
			{PaymentEntryID: "PE-1", InvoiceID: "INV-1", AllocatedAmount: d("150000"), GrandTotal: d("150000"), ItemAmount: d("50000"), IncomeAccount: "Iuran Kebersihan - S"},
			// INV-2: half of 200000 paid, split evenly
			{PaymentEntryID: "PE-2", InvoiceID: "INV-2", AllocatedAmount: d("100000"), GrandTotal: d("200000"), ItemAmount: d("100000"), IncomeAccount: "Iuran Keamanan - S"},
			{PaymentEntryID: "PE-2", InvoiceID: "INV-2", AllocatedAmount: d("100000"), GrandTotal: d("200000"), ItemAmount: d("100000"), IncomeAccount: "Iuran Sampah - S"},
		}, nil)
		reports.On("CreditsByAgainst", ctx, "Cash - S", june1, june30).Return([]report.ExpenseLine{
			{ExpenseAccount: "Beban Gaji - S", Total: d("120000")},
			{ExpenseAccount: "Beban Listrik - S", Total: d("30000")},
		}, nil)

		summary, err := svc.CashSummary(ctx, filter)
		require.NoError(t, err)

		require.Len(t, summary.In, 3)
		assert.Equal(t, "Iuran Keamanan - S", summary.In[0].IncomeAccount)
		assert.True(t, summary.In[0].Total.Equal(d("150000")))
		assert.Equal(t, "Iuran Kebersihan - S", summary.In[1].IncomeAccount)
		assert.Equal(t, "Iuran Sampah - S", summary.In[2].IncomeAccount)
		assert.True(t, summary.In[2].Total.Equal(d("50000")))

		assert.True(t, summary.TotalIn.Equal(d("250000")))
		assert.True(t, summary.TotalOut.Equal(d("150000")))
		assert.True(t, summary.Balance.Equal(d("600000")), summary.Balance.String())
		reports.AssertExpectations(t)
	})

	t.Run("zero grand total counts as one", func(t *testing.T) {
		svc, reports, _ := newTestService()
		reports.On("OpeningBalance", ctx, "Cash - S", june1).Return(decimal.Zero, nil)
		reports.On("InvoiceAllocations", ctx, "Cash - S", june1, june30).Return([]report.AllocationLine{
			{AllocatedAmount: d("10"), GrandTotal: decimal.Zero, ItemAmount: d("3"), IncomeAccount: "Lain-lain - S"},
		}, nil)
		reports.On("CreditsByAgainst", ctx, "Cash - S", june1, june30).Return(nil, nil)

		summary, err := svc.CashSummary(ctx, filter)
		require.NoError(t, err)
		require.Len(t, summary.In, 1)
		assert.True(t, summary.In[0].Total.Equal(d("30")))
		assert.NotNil(t, summary.Out)
		assert.Empty(t, summary.Out)
	})

	t.Run("account is required", func(t *testing.T) {
		svc, reports, _ := newTestService()

		_, err := svc.CashSummary(ctx, report.CashReportFilter{FromDate: june1, ToDate: june30, Account: "  "})
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		reports.AssertNotCalled(t, "OpeningBalance")
	})

	t.Run("inverted period is rejected", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.CashSummary(ctx, report.CashReportFilter{FromDate: june30, ToDate: june1, Account: "Cash - S"})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("repository failure is a persistence error", func(t *testing.T) {
		svc, reports, _ := newTestService()
		reports.On("OpeningBalance", ctx, "Cash - S", june1).Return(decimal.Zero, errors.New("connection reset"))

		_, err := svc.CashSummary(ctx, filter)
		assert.True(t, shared.IsKind(err, shared.KindPersistence))
	})
}

func TestReportService_CashLedger(t *testing.T) {
	ctx := context.Background()
	filter := report.CashReportFilter{FromDate: june1, ToDate: june30}

	t.Run("sums rows of every cash and bank account", func(t *testing.T) {
		svc, reports, accounts := newTestService()
		cashAccounts := []string{"Bank BCA - S", "Cash - S"}
		accounts.On("FindCashAndBank", ctx).Return(cashAccounts, nil)
		reports.On("LedgerRows", ctx, cashAccounts, june1, june30).Return([]report.CashLedgerRow{
			{PostingDate: june1, Account: "Cash - S", VoucherNo: "PE-1", TotalIn: d("150000"), TotalOut: decimal.Zero},
			{PostingDate: june1, Account: "Bank BCA - S", VoucherNo: "JV-1", TotalIn: decimal.Zero, TotalOut: d("30000")},
			{PostingDate: june30, Account: "Cash - S", VoucherNo: "PE-2", TotalIn: d("25000"), TotalOut: decimal.Zero},
		}, nil)

		ledgerReport, err := svc.CashLedger(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, cashAccounts, ledgerReport.Accounts)
		assert.Len(t, ledgerReport.Rows, 3)
		assert.True(t, ledgerReport.TotalIn.Equal(d("175000")))
		assert.True(t, ledgerReport.TotalOut.Equal(d("30000")))
	})

	t.Run("no cash accounts is a business rule error", func(t *testing.T) {
		svc, reports, accounts := newTestService()
		accounts.On("FindCashAndBank", ctx).Return([]string{}, nil)

		_, err := svc.CashLedger(ctx, filter)
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindBusinessRule))
		reports.AssertNotCalled(t, "LedgerRows")
	})

	t.Run("empty period returns empty rows", func(t *testing.T) {
		svc, reports, accounts := newTestService()
		accounts.On("FindCashAndBank", ctx).Return([]string{"Cash - S"}, nil)
		reports.On("LedgerRows", ctx, []string{"Cash - S"}, june1, june30).Return(nil, nil)

		ledgerReport, err := svc.CashLedger(ctx, filter)
		require.NoError(t, err)
		assert.NotNil(t, ledgerReport.Rows)
		assert.True(t, ledgerReport.TotalIn.IsZero())
	})
}
