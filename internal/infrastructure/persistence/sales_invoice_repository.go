package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalesInvoiceRepository implements SalesInvoiceRepository using GORM
type GormSalesInvoiceRepository struct {
	db *gorm.DB
}

// NewGormSalesInvoiceRepository creates a new GormSalesInvoiceRepository
func NewGormSalesInvoiceRepository(db *gorm.DB) *GormSalesInvoiceRepository {
	return &GormSalesInvoiceRepository{db: db}
}

// FindByID finds a sales invoice with its items
func (r *GormSalesInvoiceRepository) FindByID(ctx context.Context, id string) (*sales.SalesInvoice, error) {
	var model models.SalesInvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("INVOICE_NOT_FOUND", fmt.Sprintf("Sales invoice %s not found", id))
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveWithLock writes the payment-related fields of the invoice if the
// stored version is still the one the invoice was loaded with
func (r *GormSalesInvoiceRepository) SaveWithLock(ctx context.Context, invoice *sales.SalesInvoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.SalesInvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(map[string]any{
			"outstanding_amount": invoice.OutstandingAmount,
			"status":             string(invoice.Status),
			"version":            invoice.Version,
			"updated_at":         invoice.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Create inserts a new sales invoice with its items
func (r *GormSalesInvoiceRepository) Create(ctx context.Context, invoice *sales.SalesInvoice) error {
	return r.db.WithContext(ctx).Create(models.SalesInvoiceModelFromDomain(invoice)).Error
}

// Ensure GormSalesInvoiceRepository implements SalesInvoiceRepository
var _ sales.SalesInvoiceRepository = (*GormSalesInvoiceRepository)(nil)
