package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentEntryRepository defines persistence for payment entries
type PaymentEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentEntry, error)

	// Save inserts or updates the entry together with its allocations
	Save(ctx context.Context, entry *PaymentEntry) error

	// ExistsByID reports whether an entry with id is persisted
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// FileRecordRepository defines persistence for attachments
type FileRecordRepository interface {
	Save(ctx context.Context, file *FileRecord) error
	FindByOwner(ctx context.Context, doctype, ownerID string) ([]FileRecord, error)
}

// ErrorLogRepository records failed submissions for operators
type ErrorLogRepository interface {
	Record(ctx context.Context, entry *ErrorLog) error
}
