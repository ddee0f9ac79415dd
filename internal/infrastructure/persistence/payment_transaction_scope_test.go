package persistence

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	err := scope.Execute(ctx, func(repos paymentapp.TransactionalRepositories) error {
		pe := newTestPayment(t, "", 75000, day1)
		require.NoError(t, repos.PaymentRepo().Save(ctx, pe))
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PaymentEntryModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormTransactionScope_Commits(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	pe := newTestPayment(t, "", 75000, day1)
	err := scope.Execute(ctx, func(repos paymentapp.TransactionalRepositories) error {
		return repos.PaymentRepo().Save(ctx, pe)
	})
	require.NoError(t, err)

	exists, err := NewGormPaymentEntryRepository(db).ExistsByID(ctx, pe.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

// intakeFixture wires the intake service to real repositories on SQLite
type intakeFixture struct {
	db      *gorm.DB
	service *paymentapp.IntakeService
}

func newIntakeFixture(t *testing.T) *intakeFixture {
	db := setupTestDB(t)
	seedChart(t, db)
	seedCustomer(t, db, "CUST-001", "Budi Santoso", "A-01")
	seedInvoice(t, db, "ACC-SINV-2025-00001", "CUST-001", day1,
		invoiceLine("A-01", "Iuran Keamanan - S", 100000),
		invoiceLine("A-01", "Iuran Kebersihan - S", 50000),
	)

	now := func() time.Time { return day2.Add(9 * time.Hour) }
	logger := zap.NewNop()
	service := paymentapp.NewIntakeService(
		NewGormTransactionScope(db),
		paymentapp.NewPaymentResolver(now),
		paymentapp.NewAttachmentHandler(logger),
		NewGormErrorLogRepository(db),
		nil,
		logger,
		paymentapp.WithServiceClock(now),
	)
	return &intakeFixture{db: db, service: service}
}

func (f *intakeFixture) count(t *testing.T, model any) int64 {
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

var intakeActor = shared.Actor{User: "payment@sopwer.id", DefaultCompany: "SOPWER"}

func TestIntakeFlow_InvoicePaymentWithAttachment(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()

	result, err := f.service.Submit(ctx, intakeActor, &payment.PaymentSubmission{
		InvoiceID:     "ACC-SINV-2025-00001",
		ModeOfPayment: "Transfer",
		ReferenceNo:   "TRX-778",
		Attachment: &payment.AttachmentSource{
			InlineBase64: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 bukti")),
			DisplayName:  "bukti.pdf",
			IsPrivate:    true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, paymentapp.StateCommitted, result.State)
	assert.Equal(t, paymentapp.MessageInvoiceWithFile, result.Message)

	invoice, err := NewGormSalesInvoiceRepository(f.db).FindByID(ctx, "ACC-SINV-2025-00001")
	require.NoError(t, err)
	assert.True(t, invoice.OutstandingAmount.IsZero())
	assert.Equal(t, sales.InvoiceStatusPaid, invoice.Status)

	entries, err := NewGormGLEntryRepository(f.db).FindByVoucher(ctx, ledger.VoucherTypePaymentEntry, result.PaymentEntryID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bank BCA - S", entries[0].Account)
	assert.True(t, entries[0].Debit.Equal(dec(150000)))
	assert.Equal(t, "Debtors - S", entries[1].Account)

	files, err := NewGormFileRecordRepository(f.db).FindByOwner(ctx, payment.DoctypeSalesInvoice, "ACC-SINV-2025-00001")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, result.PaymentEntryID+"-bukti.pdf", files[0].FileName)
	assert.Equal(t, int64(2), f.count(t, &models.FileRecordModel{}))
}

func TestIntakeFlow_OnAccountPayment(t *testing.T) {
	f := newIntakeFixture(t)
	amount := dec(250000)

	result, err := f.service.Submit(context.Background(), intakeActor, &payment.PaymentSubmission{
		CustomerID: "CUST-001",
		Amount:     &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentapp.MessageOnAccount, result.Message)
	assert.Empty(t, result.LinkedSalesInvoice)

	balance, err := NewGormGLEntryRepository(f.db).OpeningBalance(context.Background(), "Cash - S", day3)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount), balance.String())
}

func TestIntakeFlow_MalformedAttachmentRollsBackEverything(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()

	result, err := f.service.Submit(ctx, intakeActor, &payment.PaymentSubmission{
		InvoiceID: "ACC-SINV-2025-00001",
		Attachment: &payment.AttachmentSource{
			InlineBase64: "!!not-base64!!",
			DisplayName:  "bukti.jpg",
		},
	})
	require.Error(t, err)
	assert.Equal(t, paymentapp.StateRolledBack, result.State)
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	assert.Zero(t, f.count(t, &models.PaymentEntryModel{}))
	assert.Zero(t, f.count(t, &models.PaymentEntryReferenceModel{}))
	assert.Zero(t, f.count(t, &models.GLEntryModel{}))
	assert.Zero(t, f.count(t, &models.FileRecordModel{}))

	invoice, err := NewGormSalesInvoiceRepository(f.db).FindByID(ctx, "ACC-SINV-2025-00001")
	require.NoError(t, err)
	assert.True(t, invoice.OutstandingAmount.Equal(dec(150000)))
	assert.Equal(t, 1, invoice.Version)

	logs, err := NewGormErrorLogRepository(f.db).Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "base64", logs[0].Context["attachment"])
	assert.Equal(t, string(shared.KindValidation), logs[0].Context["kind"])
}
