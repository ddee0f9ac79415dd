package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormFileRecordRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFileRecordRepository(db)
	ctx := context.Background()

	inline, err := payment.NewFileRecord(payment.FileRecordParams{
		FileName:    "bukti.jpg",
		IsPrivate:   true,
		Doctype:     payment.DoctypeSalesInvoice,
		OwnerID:     "ACC-SINV-2025-00001",
		Content:     []byte{0xff, 0xd8, 0xff},
		ContentType: "image/jpeg",
		Owner:       "payment@sopwer.id",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inline))

	stored, err := payment.NewFileRecord(payment.FileRecordParams{
		FileName: "bukti-2.jpg",
		Doctype:  payment.DoctypeSalesInvoice,
		OwnerID:  "ACC-SINV-2025-00001",
		Content:  []byte("x"),
		Owner:    "payment@sopwer.id",
	})
	require.NoError(t, err)
	stored.CreatedAt = inline.CreatedAt.Add(time.Second)
	stored.MoveContentTo("attachments/sales-invoice/ACC-SINV-2025-00001/bukti-2.jpg")
	require.NoError(t, repo.Save(ctx, stored))

	linked, err := payment.NewFileRecord(payment.FileRecordParams{
		FileName: "bukti.jpg",
		Doctype:  payment.DoctypePaymentEntry,
		OwnerID:  "5a0f3a0c-0000-0000-0000-000000000001",
		FileURL:  "https://files.example.com/bukti.jpg",
		Owner:    "payment@sopwer.id",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, linked))

	files, err := repo.FindByOwner(ctx, payment.DoctypeSalesInvoice, "ACC-SINV-2025-00001")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "bukti.jpg", files[0].FileName)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, files[0].Content)
	assert.Equal(t, int64(3), files[0].FileSize)
	assert.True(t, files[0].IsPrivate)
	assert.Equal(t, "attachments/sales-invoice/ACC-SINV-2025-00001/bukti-2.jpg", files[1].StorageKey)
	assert.False(t, files[1].HasContent())

	files, err = repo.FindByOwner(ctx, payment.DoctypePaymentEntry, "5a0f3a0c-0000-0000-0000-000000000001")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "https://files.example.com/bukti.jpg", files[0].FileURL)
}
