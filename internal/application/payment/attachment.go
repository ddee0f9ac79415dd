package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectStorage stores attachment bytes outside the database
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, storageKey string) error
}

// AttachmentContent is an attachment read into memory exactly once, ready to
// be bound to one or more documents
type AttachmentContent struct {
	Name           string
	IsPrivate      bool
	Data           []byte
	URL            string
	ContentType    string
	Representation payment.Representation
}

// Size returns the number of bytes carried
func (c *AttachmentContent) Size() int64 {
	return int64(len(c.Data))
}

// AttachmentHandler materializes file records from a submission's attachment
type AttachmentHandler struct {
	maxBytes int64
	storage  ObjectStorage
	logger   *zap.Logger
}

// AttachmentOption configures an AttachmentHandler
type AttachmentOption func(*AttachmentHandler)

// WithMaxBytes overrides the attachment size ceiling
func WithMaxBytes(n int64) AttachmentOption {
	return func(h *AttachmentHandler) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithObjectStorage stores content in an object store instead of the database
func WithObjectStorage(s ObjectStorage) AttachmentOption {
	return func(h *AttachmentHandler) {
		h.storage = s
	}
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(logger *zap.Logger, opts ...AttachmentOption) *AttachmentHandler {
	h := &AttachmentHandler{
		maxBytes: payment.MaxAttachmentBytes,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load reads the representation chosen by precedence. Streams are read once
// and base64 is decoded once; URLs carry no bytes.
func (h *AttachmentHandler) Load(ctx context.Context, src *payment.AttachmentSource) (*AttachmentContent, error) {
	content := &AttachmentContent{
		Name:           sanitizeFileName(src.Name()),
		IsPrivate:      src.IsPrivate,
		Representation: src.Representation(),
	}

	switch content.Representation {
	case payment.RepresentationStream:
		data, err := h.readStream(src)
		if err != nil {
			return nil, err
		}
		content.Data = data
	case payment.RepresentationInline:
		data, err := h.decodeInline(src.InlineBase64)
		if err != nil {
			return nil, err
		}
		content.Data = data
	case payment.RepresentationURL:
		if err := validateFileURL(src.SourceURL); err != nil {
			return nil, err
		}
		content.URL = src.SourceURL
		content.ContentType = mime.TypeByExtension(path.Ext(content.Name))
		return content, nil
	default:
		return nil, shared.NewValidationError("ATTACHMENT_REQUIRED", "Either content_b64, file_url or a file upload is required")
	}

	content.ContentType = http.DetectContentType(content.Data)
	return content, nil
}

func (h *AttachmentHandler) tooLarge(size int64) error {
	return shared.NewPayloadTooLargeError("ATTACHMENT_TOO_LARGE",
		fmt.Sprintf("Attachment of %d bytes exceeds the %d byte limit", size, h.maxBytes))
}

func (h *AttachmentHandler) readStream(src *payment.AttachmentSource) ([]byte, error) {
	if src.StreamSize > h.maxBytes {
		return nil, h.tooLarge(src.StreamSize)
	}

	rc, err := src.Stream()
	if err != nil {
		return nil, shared.NewValidationError("ATTACHMENT_UNREADABLE", "Uploaded file could not be read")
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, h.maxBytes+1))
	if err != nil {
		return nil, shared.NewValidationError("ATTACHMENT_UNREADABLE", "Uploaded file could not be read")
	}
	if int64(len(data)) > h.maxBytes {
		return nil, h.tooLarge(int64(len(data)))
	}
	return data, nil
}

func (h *AttachmentHandler) decodeInline(encoded string) ([]byte, error) {
	// Accept data URLs ("data:image/png;base64,....") as well as bare base64.
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.IndexByte(encoded, ','); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	encoded = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, encoded)

	// Lower bound of the decoded size; lets oversized payloads fail before decoding.
	if minDecoded := int64(len(encoded)/4*3) - 2; minDecoded > h.maxBytes {
		return nil, h.tooLarge(minDecoded)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, shared.NewValidationError("ATTACHMENT_DECODE_FAILED", "Failed to decode base64 file content")
	}
	if int64(len(data)) > h.maxBytes {
		return nil, h.tooLarge(int64(len(data)))
	}
	return data, nil
}

// Attach creates a file record for (doctype, ownerID). When object storage
// is configured the bytes are uploaded and the record keeps only the key.
func (h *AttachmentHandler) Attach(ctx context.Context, files payment.FileRecordRepository, content *AttachmentContent, doctype, ownerID, displayName, owner string) (*payment.FileRecord, error) {
	record, err := payment.NewFileRecord(payment.FileRecordParams{
		FileName:    displayName,
		IsPrivate:   content.IsPrivate,
		Doctype:     doctype,
		OwnerID:     ownerID,
		FileURL:     content.URL,
		Content:     content.Data,
		ContentType: content.ContentType,
		Owner:       owner,
	})
	if err != nil {
		return nil, err
	}

	if h.storage != nil && record.HasContent() {
		key := StorageKey(doctype, ownerID, record.ID.String(), displayName)
		if err := h.storage.Upload(ctx, key, record.Content, record.ContentType); err != nil {
			return nil, shared.NewPersistenceError("Failed to upload attachment", err)
		}
		record.MoveContentTo(key)
	}

	if err := files.Save(ctx, record); err != nil {
		return record, asPersistenceError("Failed to save file record", err)
	}
	return record, nil
}

// Discard removes uploaded objects of records whose transaction rolled back
func (h *AttachmentHandler) Discard(ctx context.Context, records []*payment.FileRecord) {
	if h.storage == nil {
		return
	}
	for _, rec := range records {
		if rec == nil || rec.StorageKey == "" {
			continue
		}
		if err := h.storage.DeleteObject(ctx, rec.StorageKey); err != nil {
			h.logger.Warn("Failed to delete orphaned attachment object",
				zap.String("storage_key", rec.StorageKey),
				zap.Error(err),
			)
		}
	}
}

// StorageKey builds the object key for an attachment
func StorageKey(doctype, ownerID, fileID, name string) string {
	return fmt.Sprintf("attachments/%s/%s/%s-%s",
		strings.ReplaceAll(strings.ToLower(doctype), " ", "-"), ownerID, fileID, name)
}

func validateFileURL(raw string) error {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return nil
	}
	if err == nil && u.Scheme == "" && strings.HasPrefix(raw, "/") {
		return nil
	}
	return shared.NewValidationError("INVALID_FILE_URL", fmt.Sprintf("file_url %q is not a valid URL", raw))
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return payment.DefaultAttachmentName
	}
	return name
}

func asPersistenceError(message string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewPersistenceError(message, err)
}
