package payment

import (
	"context"

	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/sales"
)

// TransactionScope runs a submission's writes inside one database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories a submission touches.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	InvoiceRepo() sales.SalesInvoiceRepository
	CustomerRepo() sales.CustomerRepository
	PaymentRepo() payment.PaymentEntryRepository
	FileRepo() payment.FileRecordRepository
	GLEntryRepo() ledger.GLEntryRepository
	CompanyRepo() ledger.CompanyRepository
	ModeOfPaymentRepo() ledger.ModeOfPaymentRepository
}
