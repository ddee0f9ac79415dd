package persistence

import (
	"context"

	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of every write a payment submission makes.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos paymentapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) InvoiceRepo() sales.SalesInvoiceRepository {
	return NewGormSalesInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) CustomerRepo() sales.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentRepo() payment.PaymentEntryRepository {
	return NewGormPaymentEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) FileRepo() payment.FileRecordRepository {
	return NewGormFileRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) GLEntryRepo() ledger.GLEntryRepository {
	return NewGormGLEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) CompanyRepo() ledger.CompanyRepository {
	return NewGormCompanyRepository(r.tx)
}

func (r *gormTransactionalRepositories) ModeOfPaymentRepo() ledger.ModeOfPaymentRepository {
	return NewGormModeOfPaymentRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ paymentapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ paymentapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
