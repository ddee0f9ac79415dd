package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func streamOf(data []byte) payment.StreamOpener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func TestAttachmentHandler_SizeBoundary(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop())
	exact := bytes.Repeat([]byte{'a'}, int(payment.MaxAttachmentBytes))
	over := bytes.Repeat([]byte{'a'}, int(payment.MaxAttachmentBytes)+1)

	t.Run("stream of exactly the limit succeeds", func(t *testing.T) {
		content, err := h.Load(context.Background(), &payment.AttachmentSource{Stream: streamOf(exact), StreamSize: -1})
		require.NoError(t, err)
		assert.Equal(t, payment.MaxAttachmentBytes, content.Size())
	})

	t.Run("stream one byte over fails", func(t *testing.T) {
		_, err := h.Load(context.Background(), &payment.AttachmentSource{Stream: streamOf(over), StreamSize: -1})
		require.Error(t, err)
		assert.Equal(t, shared.KindPayloadTooLarge, shared.KindOf(err))
	})

	t.Run("declared size over the limit fails without reading", func(t *testing.T) {
		opened := false
		src := &payment.AttachmentSource{
			Stream: func() (io.ReadCloser, error) {
				opened = true
				return io.NopCloser(strings.NewReader("")), nil
			},
			StreamSize: payment.MaxAttachmentBytes + 1,
		}
		_, err := h.Load(context.Background(), src)
		assert.Equal(t, shared.KindPayloadTooLarge, shared.KindOf(err))
		assert.False(t, opened)
	})

	t.Run("base64 of exactly the limit succeeds", func(t *testing.T) {
		content, err := h.Load(context.Background(), &payment.AttachmentSource{
			InlineBase64: base64.StdEncoding.EncodeToString(exact),
		})
		require.NoError(t, err)
		assert.Equal(t, payment.MaxAttachmentBytes, content.Size())
	})

	t.Run("base64 one byte over fails", func(t *testing.T) {
		_, err := h.Load(context.Background(), &payment.AttachmentSource{
			InlineBase64: base64.StdEncoding.EncodeToString(over),
		})
		assert.Equal(t, shared.KindPayloadTooLarge, shared.KindOf(err))
	})
}

func TestAttachmentHandler_CustomLimit(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop(), WithMaxBytes(4))

	_, err := h.Load(context.Background(), &payment.AttachmentSource{InlineBase64: base64.StdEncoding.EncodeToString([]byte("abcd"))})
	assert.NoError(t, err)

	_, err = h.Load(context.Background(), &payment.AttachmentSource{InlineBase64: base64.StdEncoding.EncodeToString([]byte("abcde"))})
	assert.Equal(t, shared.KindPayloadTooLarge, shared.KindOf(err))
}

func TestAttachmentHandler_MalformedBase64(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop())
	_, err := h.Load(context.Background(), &payment.AttachmentSource{InlineBase64: "%%%not-base64%%%"})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestAttachmentHandler_DataURLAndWhitespace(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop())
	encoded := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test"))

	content, err := h.Load(context.Background(), &payment.AttachmentSource{
		InlineBase64: "data:application/pdf;base64," + encoded[:8] + "\n" + encoded[8:],
		DisplayName:  "bukti.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(content.Data))
	assert.Equal(t, "application/pdf", content.ContentType)
	assert.Equal(t, "bukti.pdf", content.Name)
}

func TestAttachmentHandler_StreamBeatsBase64(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop())
	content, err := h.Load(context.Background(), &payment.AttachmentSource{
		Stream:       streamOf([]byte("from stream")),
		InlineBase64: "%%%",
		SourceURL:    "https://example.com/x.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "from stream", string(content.Data))
	assert.Equal(t, payment.RepresentationStream, content.Representation)
}

func TestAttachmentHandler_URL(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop())

	content, err := h.Load(context.Background(), &payment.AttachmentSource{SourceURL: "https://cdn.example.com/bukti.png", DisplayName: "bukti.png"})
	require.NoError(t, err)
	assert.Nil(t, content.Data)
	assert.Equal(t, "https://cdn.example.com/bukti.png", content.URL)
	assert.Equal(t, "image/png", content.ContentType)

	_, err = h.Load(context.Background(), &payment.AttachmentSource{SourceURL: "/files/bukti.png"})
	assert.NoError(t, err)

	_, err = h.Load(context.Background(), &payment.AttachmentSource{SourceURL: "ftp:/nope"})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestAttachmentHandler_SanitizesName(t *testing.T) {
	h := NewAttachmentHandler(zap.NewNop())
	content, err := h.Load(context.Background(), &payment.AttachmentSource{
		InlineBase64: base64.StdEncoding.EncodeToString([]byte("x")),
		DisplayName:  `..\..\etc/passwd`,
	})
	require.NoError(t, err)
	assert.Equal(t, "passwd", content.Name)
}

func TestAttachmentHandler_AttachInline(t *testing.T) {
	files := new(MockFileRepo)
	files.On("Save", mock.Anything, mock.AnythingOfType("*payment.FileRecord")).Return(nil)

	h := NewAttachmentHandler(zap.NewNop())
	content := &AttachmentContent{Name: "bukti.jpg", IsPrivate: true, Data: []byte("img"), ContentType: "image/jpeg"}

	rec, err := h.Attach(context.Background(), files, content, payment.DoctypePaymentEntry, "pe-1", "bukti.jpg", "payment@sopwer.id")
	require.NoError(t, err)
	assert.Equal(t, "img", string(rec.Content))
	assert.Empty(t, rec.StorageKey)
	assert.Equal(t, "pe-1", rec.AttachedToName)
	files.AssertExpectations(t)
}

func TestAttachmentHandler_AttachToObjectStorage(t *testing.T) {
	files := new(MockFileRepo)
	files.On("Save", mock.Anything, mock.Anything).Return(nil)
	store := new(MockObjectStorage)
	store.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "attachments/sales-invoice/INV-1/") && strings.HasSuffix(key, "-pe-1-bukti.jpg")
	}), []byte("img"), "image/jpeg").Return(nil)

	h := NewAttachmentHandler(zap.NewNop(), WithObjectStorage(store))
	content := &AttachmentContent{Name: "bukti.jpg", Data: []byte("img"), ContentType: "image/jpeg"}

	rec, err := h.Attach(context.Background(), files, content, payment.DoctypeSalesInvoice, "INV-1", "pe-1-bukti.jpg", "u")
	require.NoError(t, err)
	assert.Nil(t, rec.Content)
	assert.NotEmpty(t, rec.StorageKey)
	store.AssertExpectations(t)

	store.On("DeleteObject", mock.Anything, rec.StorageKey).Return(errors.New("gone"))
	h.Discard(context.Background(), []*payment.FileRecord{rec, nil})
	store.AssertCalled(t, "DeleteObject", mock.Anything, rec.StorageKey)
}

func TestAttachmentHandler_UploadFailureIsPersistenceError(t *testing.T) {
	store := new(MockObjectStorage)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("s3 unavailable"))

	h := NewAttachmentHandler(zap.NewNop(), WithObjectStorage(store))
	_, err := h.Attach(context.Background(), new(MockFileRepo), &AttachmentContent{Name: "a", Data: []byte("a")},
		payment.DoctypePaymentEntry, "pe-1", "a", "u")
	assert.Equal(t, shared.KindPersistence, shared.KindOf(err))
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "attachments/payment-entry/pe-1/f-1-bukti.jpg",
		StorageKey(payment.DoctypePaymentEntry, "pe-1", "f-1", "bukti.jpg"))
}
