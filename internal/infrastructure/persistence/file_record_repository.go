package persistence

import (
	"context"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFileRecordRepository implements FileRecordRepository using GORM
type GormFileRecordRepository struct {
	db *gorm.DB
}

// NewGormFileRecordRepository creates a new GormFileRecordRepository
func NewGormFileRecordRepository(db *gorm.DB) *GormFileRecordRepository {
	return &GormFileRecordRepository{db: db}
}

// Save inserts a file record
func (r *GormFileRecordRepository) Save(ctx context.Context, file *payment.FileRecord) error {
	return r.db.WithContext(ctx).Create(models.FileRecordModelFromDomain(file)).Error
}

// FindByOwner returns the files attached to one document, oldest first
func (r *GormFileRecordRepository) FindByOwner(ctx context.Context, doctype, ownerID string) ([]payment.FileRecord, error) {
	var rows []models.FileRecordModel
	if err := r.db.WithContext(ctx).
		Where("attached_to_doctype = ? AND attached_to_name = ?", doctype, ownerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	files := make([]payment.FileRecord, len(rows))
	for i, model := range rows {
		files[i] = *model.ToDomain()
	}
	return files, nil
}

// Ensure GormFileRecordRepository implements FileRecordRepository
var _ payment.FileRecordRepository = (*GormFileRecordRepository)(nil)
