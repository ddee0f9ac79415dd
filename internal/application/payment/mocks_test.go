package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) FindByID(ctx context.Context, id string) (*sales.SalesInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesInvoice), args.Error(1)
}

func (m *MockInvoiceRepo) SaveWithLock(ctx context.Context, invoice *sales.SalesInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) FindByID(ctx context.Context, id string) (*sales.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Customer), args.Error(1)
}

func (m *MockCustomerRepo) FindUnits(ctx context.Context, customerID string) ([]string, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCustomerRepo) FindTelegramRecipient(ctx context.Context, customerID string) (*sales.TelegramRecipient, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.TelegramRecipient), args.Error(1)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentEntry), args.Error(1)
}

func (m *MockPaymentRepo) Save(ctx context.Context, entry *payment.PaymentEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPaymentRepo) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockFileRepo struct {
	mock.Mock
}

func (m *MockFileRepo) Save(ctx context.Context, file *payment.FileRecord) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockFileRepo) FindByOwner(ctx context.Context, doctype, ownerID string) ([]payment.FileRecord, error) {
	args := m.Called(ctx, doctype, ownerID)
	return args.Get(0).([]payment.FileRecord), args.Error(1)
}

type MockGLEntryRepo struct {
	mock.Mock
}

func (m *MockGLEntryRepo) SaveBatch(ctx context.Context, entries []*ledger.GLEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockGLEntryRepo) OpeningBalance(ctx context.Context, account string, before time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, account, before)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockCompanyRepo struct {
	mock.Mock
}

func (m *MockCompanyRepo) FindByName(ctx context.Context, name string) (*ledger.Company, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Company), args.Error(1)
}

type MockModeOfPaymentRepo struct {
	mock.Mock
}

func (m *MockModeOfPaymentRepo) FindAccount(ctx context.Context, mode, company string) (string, error) {
	args := m.Called(ctx, mode, company)
	return args.String(0), args.Error(1)
}

type MockErrorLogRepo struct {
	mock.Mock
}

func (m *MockErrorLogRepo) Record(ctx context.Context, entry *payment.ErrorLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// testRepos bundles the mocks behind TransactionalRepositories
type testRepos struct {
	invoices  *MockInvoiceRepo
	customers *MockCustomerRepo
	payments  *MockPaymentRepo
	files     *MockFileRepo
	gl        *MockGLEntryRepo
	companies *MockCompanyRepo
	modes     *MockModeOfPaymentRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		invoices:  new(MockInvoiceRepo),
		customers: new(MockCustomerRepo),
		payments:  new(MockPaymentRepo),
		files:     new(MockFileRepo),
		gl:        new(MockGLEntryRepo),
		companies: new(MockCompanyRepo),
		modes:     new(MockModeOfPaymentRepo),
	}
}

func (r *testRepos) InvoiceRepo() sales.SalesInvoiceRepository         { return r.invoices }
func (r *testRepos) CustomerRepo() sales.CustomerRepository            { return r.customers }
func (r *testRepos) PaymentRepo() payment.PaymentEntryRepository       { return r.payments }
func (r *testRepos) FileRepo() payment.FileRecordRepository            { return r.files }
func (r *testRepos) GLEntryRepo() ledger.GLEntryRepository             { return r.gl }
func (r *testRepos) CompanyRepo() ledger.CompanyRepository             { return r.companies }
func (r *testRepos) ModeOfPaymentRepo() ledger.ModeOfPaymentRepository { return r.modes }

// passThroughScope runs fn without a database; rollback is observed through
// the error it returns
type passThroughScope struct {
	repos     *testRepos
	committed bool
}

func (s *passThroughScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	if err := fn(s.repos); err != nil {
		return err
	}
	s.committed = true
	return nil
}

var (
	_ TransactionalRepositories = (*testRepos)(nil)
	_ TransactionScope          = (*passThroughScope)(nil)
)

var testCompany = &ledger.Company{
	Name:                     "SOPWER",
	DefaultCashAccount:       "Cash - S",
	DefaultReceivableAccount: "Debtors - S",
}

func testInvoice(outstanding int64) *sales.SalesInvoice {
	return &sales.SalesInvoice{
		ID:                "INV-1",
		CustomerID:        "C-1",
		CustomerName:      "Budi",
		Company:           "SOPWER",
		GrandTotal:        decimal.NewFromInt(100000),
		OutstandingAmount: decimal.NewFromInt(outstanding),
		DebitTo:           "Debtors - S",
		DocStatus:         sales.DocStatusSubmitted,
		Status:            sales.InvoiceStatusUnpaid,
		Version:           1,
	}
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var fixedNow = func() time.Time { return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC) }
