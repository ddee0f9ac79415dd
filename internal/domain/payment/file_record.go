package payment

import (
	"strings"

	"github.com/rtmanagement/backend/internal/domain/shared"
)

// FileRecord binds an attachment to one document. Content is kept inline
// unless StorageKey points at an object store; URL attachments carry neither.
type FileRecord struct {
	shared.BaseEntity
	FileName          string
	IsPrivate         bool
	AttachedToDoctype string
	AttachedToName    string
	FileURL           string
	StorageKey        string
	Content           []byte
	FileSize          int64
	ContentType       string
	Owner             string
}

// FileRecordParams holds the fields for NewFileRecord
type FileRecordParams struct {
	FileName    string
	IsPrivate   bool
	Doctype     string
	OwnerID     string
	FileURL     string
	Content     []byte
	ContentType string
	Owner       string
}

// NewFileRecord creates a file record for one (document, attachment) pair
func NewFileRecord(p FileRecordParams) (*FileRecord, error) {
	if strings.TrimSpace(p.FileName) == "" {
		return nil, shared.NewValidationError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if p.Doctype == "" || p.OwnerID == "" {
		return nil, shared.NewValidationError("INVALID_ATTACHMENT_TARGET", "Attachment target document is required")
	}
	if p.Content == nil && p.FileURL == "" {
		return nil, shared.NewValidationError("ATTACHMENT_REQUIRED", "Either file content or a file URL is required")
	}

	return &FileRecord{
		BaseEntity:        shared.NewBaseEntity(),
		FileName:          p.FileName,
		IsPrivate:         p.IsPrivate,
		AttachedToDoctype: p.Doctype,
		AttachedToName:    p.OwnerID,
		FileURL:           p.FileURL,
		Content:           p.Content,
		FileSize:          int64(len(p.Content)),
		ContentType:       p.ContentType,
		Owner:             p.Owner,
	}, nil
}

// HasContent returns true when the record carries bytes rather than a URL
func (f *FileRecord) HasContent() bool {
	return f.Content != nil
}

// MoveContentTo records that the bytes live in an object store under key
// and drops the inline copy
func (f *FileRecord) MoveContentTo(key string) {
	f.StorageKey = key
	f.Content = nil
}
