package report

import (
	"context"
	"sort"
	"strings"

	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/report"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService provides the cash reports over the general ledger
type ReportService struct {
	reports  report.CashReportRepository
	accounts ledger.AccountRepository
	logger   *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	reports report.CashReportRepository,
	accounts ledger.AccountRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		reports:  reports,
		accounts: accounts,
		logger:   logger,
	}
}

// CashSummary returns the opening balance, money in by income account and
// money out by counter account of one cash or bank account over a period
func (s *ReportService) CashSummary(ctx context.Context, filter report.CashReportFilter) (*report.CashSummary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	account := strings.TrimSpace(filter.Account)
	if account == "" {
		return nil, shared.NewValidationError("ACCOUNT_REQUIRED", "account is required")
	}

	opening, err := s.reports.OpeningBalance(ctx, account, filter.FromDate)
	if err != nil {
		return nil, shared.NewPersistenceError("Failed to compute opening balance", err)
	}
	allocations, err := s.reports.InvoiceAllocations(ctx, account, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, shared.NewPersistenceError("Failed to load incoming payments", err)
	}
	out, err := s.reports.CreditsByAgainst(ctx, account, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, shared.NewPersistenceError("Failed to load outgoing payments", err)
	}
	if out == nil {
		out = []report.ExpenseLine{}
	}

	in := incomeByAccount(allocations)

	totalIn := decimal.Zero
	for _, line := range in {
		totalIn = totalIn.Add(line.Total)
	}
	totalOut := decimal.Zero
	for _, line := range out {
		totalOut = totalOut.Add(line.Total)
	}

	s.logger.Debug("Cash summary computed",
		zap.String("account", account),
		zap.Int("income_accounts", len(in)),
		zap.Int("expense_accounts", len(out)),
	)

	return &report.CashSummary{
		Account:  account,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Opening:  opening,
		In:       in,
		Out:      out,
		TotalIn:  totalIn,
		TotalOut: totalOut,
		Balance:  opening.Add(totalIn).Sub(totalOut),
	}, nil
}

// incomeByAccount spreads each allocation over the items of its invoice and
// sums the shares per income account, largest first
func incomeByAccount(allocations []report.AllocationLine) []report.IncomeLine {
	totals := make(map[string]decimal.Decimal)
	for _, a := range allocations {
		totals[a.IncomeAccount] = totals[a.IncomeAccount].Add(a.ProratedAmount())
	}

	lines := make([]report.IncomeLine, 0, len(totals))
	for account, total := range totals {
		lines = append(lines, report.IncomeLine{IncomeAccount: account, Total: total.Round(2)})
	}
	sort.Slice(lines, func(i, j int) bool {
		if c := lines[i].Total.Cmp(lines[j].Total); c != 0 {
			return c > 0
		}
		return lines[i].IncomeAccount < lines[j].IncomeAccount
	})
	return lines
}

// CashLedger lists the movements of every cash and bank account over a period
func (s *ReportService) CashLedger(ctx context.Context, filter report.CashReportFilter) (*report.CashLedger, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.FindCashAndBank(ctx)
	if err != nil {
		return nil, shared.NewPersistenceError("Failed to load cash accounts", err)
	}
	if len(accounts) == 0 {
		return nil, shared.NewBusinessRuleError("NO_CASH_ACCOUNTS", "No Cash or Bank accounts found")
	}

	rows, err := s.reports.LedgerRows(ctx, accounts, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, shared.NewPersistenceError("Failed to load cash ledger", err)
	}
	if rows == nil {
		rows = []report.CashLedgerRow{}
	}

	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, row := range rows {
		totalIn = totalIn.Add(row.TotalIn)
		totalOut = totalOut.Add(row.TotalOut)
	}

	return &report.CashLedger{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Accounts: accounts,
		Rows:     rows,
		TotalIn:  totalIn,
		TotalOut: totalOut,
	}, nil
}
