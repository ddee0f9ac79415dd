package payment

import (
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentSource_RepresentationPrecedence(t *testing.T) {
	opener := func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil }

	tests := []struct {
		name   string
		source *AttachmentSource
		want   Representation
	}{
		{"nil", nil, RepresentationNone},
		{"empty", &AttachmentSource{}, RepresentationNone},
		{"url only", &AttachmentSource{SourceURL: "https://x/y.pdf"}, RepresentationURL},
		{"base64 beats url", &AttachmentSource{InlineBase64: "eA==", SourceURL: "https://x/y.pdf"}, RepresentationInline},
		{"stream beats all", &AttachmentSource{Stream: opener, InlineBase64: "eA==", SourceURL: "https://x"}, RepresentationStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.source.Representation())
		})
	}
}

func TestAttachmentSource_Name(t *testing.T) {
	assert.Equal(t, DefaultAttachmentName, (&AttachmentSource{}).Name())
	assert.Equal(t, "bukti.jpg", (&AttachmentSource{DisplayName: "bukti.jpg"}).Name())
}

func TestPaymentSubmission_Predicates(t *testing.T) {
	amount := decimal.NewFromInt(10)
	zero := decimal.Zero

	s := &PaymentSubmission{InvoiceID: "INV-1"}
	assert.True(t, s.IsInvoiceLinked())
	assert.False(t, s.HasPositiveAmount())
	assert.False(t, s.HasAttachment())

	s.Amount = &zero
	assert.False(t, s.HasPositiveAmount())
	s.Amount = &amount
	assert.True(t, s.HasPositiveAmount())

	s.Attachment = &AttachmentSource{SourceURL: "https://x"}
	assert.True(t, s.HasAttachment())
}

func TestNewFileRecord(t *testing.T) {
	f, err := NewFileRecord(FileRecordParams{
		FileName:  "bukti.jpg",
		IsPrivate: true,
		Doctype:   DoctypePaymentEntry,
		OwnerID:   "pe-1",
		Content:   []byte("abc"),
		Owner:     "payment@sopwer.id",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.FileSize)
	assert.True(t, f.HasContent())

	f.MoveContentTo("attachments/key")
	assert.False(t, f.HasContent())
	assert.Equal(t, "attachments/key", f.StorageKey)

	_, err = NewFileRecord(FileRecordParams{FileName: "x", Doctype: DoctypePaymentEntry, OwnerID: "pe-1"})
	assert.Error(t, err)

	_, err = NewFileRecord(FileRecordParams{FileName: "", Doctype: DoctypePaymentEntry, OwnerID: "pe-1", FileURL: "https://x"})
	assert.Error(t, err)

	url, err := NewFileRecord(FileRecordParams{FileName: "x", Doctype: DoctypeSalesInvoice, OwnerID: "INV-1", FileURL: "https://x"})
	require.NoError(t, err)
	assert.False(t, url.HasContent())
}
