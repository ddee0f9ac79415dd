package persistence

import (
	"context"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormErrorLogRepository implements ErrorLogRepository using GORM. It must be
// given the root connection, never a transaction that may roll back.
type GormErrorLogRepository struct {
	db *gorm.DB
}

// NewGormErrorLogRepository creates a new GormErrorLogRepository
func NewGormErrorLogRepository(db *gorm.DB) *GormErrorLogRepository {
	return &GormErrorLogRepository{db: db}
}

// Record inserts an error log
func (r *GormErrorLogRepository) Record(ctx context.Context, entry *payment.ErrorLog) error {
	return r.db.WithContext(ctx).Create(models.ErrorLogModelFromDomain(entry)).Error
}

// Recent returns the newest error logs, newest first
func (r *GormErrorLogRepository) Recent(ctx context.Context, limit int) ([]*payment.ErrorLog, error) {
	var rows []models.ErrorLogModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]*payment.ErrorLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

// Ensure GormErrorLogRepository implements ErrorLogRepository
var _ payment.ErrorLogRepository = (*GormErrorLogRepository)(nil)
