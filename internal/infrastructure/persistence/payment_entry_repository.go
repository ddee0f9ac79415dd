package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentEntryRepository implements PaymentEntryRepository using GORM
type GormPaymentEntryRepository struct {
	db *gorm.DB
}

// NewGormPaymentEntryRepository creates a new GormPaymentEntryRepository
func NewGormPaymentEntryRepository(db *gorm.DB) *GormPaymentEntryRepository {
	return &GormPaymentEntryRepository{db: db}
}

// FindByID finds a payment entry with its invoice references
func (r *GormPaymentEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentEntry, error) {
	var model models.PaymentEntryModel
	if err := r.db.WithContext(ctx).
		Preload("References", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PAYMENT_ENTRY_NOT_FOUND", fmt.Sprintf("Payment entry %s not found", id))
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a payment entry and replaces its references
func (r *GormPaymentEntryRepository) Save(ctx context.Context, entry *payment.PaymentEntry) error {
	model := models.PaymentEntryModelFromDomain(entry)
	refs := model.References
	model.References = nil

	db := r.db.WithContext(ctx)
	if err := db.Save(model).Error; err != nil {
		return err
	}
	if err := db.Where("payment_entry_id = ?", entry.ID).
		Delete(&models.PaymentEntryReferenceModel{}).Error; err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}
	return db.Create(&refs).Error
}

// ExistsByID reports whether a payment entry exists
func (r *GormPaymentEntryRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentEntryModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormPaymentEntryRepository implements PaymentEntryRepository
var _ payment.PaymentEntryRepository = (*GormPaymentEntryRepository)(nil)
