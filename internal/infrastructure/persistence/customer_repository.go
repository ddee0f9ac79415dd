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

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer with its house units
func (r *GormCustomerRepository) FindByID(ctx context.Context, id string) (*sales.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Preload("Houses", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("CUSTOMER_NOT_FOUND", fmt.Sprintf("Customer %s not found", id))
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnits returns the house units of a customer in entry order
func (r *GormCustomerRepository) FindUnits(ctx context.Context, customerID string) ([]string, error) {
	units := []string{}
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerHouseModel{}).
		Where("customer_id = ?", customerID).
		Order("idx ASC").
		Pluck("unit", &units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// telegramRecipientRow is the scan target of the recipient lookup
type telegramRecipientRow struct {
	CustomerID     string
	CustomerName   string
	Username       string
	TelegramChatID string
}

// FindTelegramRecipient follows customer -> portal user -> Telegram user.
// Returns nil, nil when any link is missing.
func (r *GormCustomerRepository) FindTelegramRecipient(ctx context.Context, customerID string) (*sales.TelegramRecipient, error) {
	var rows []telegramRecipientRow
	if err := r.db.WithContext(ctx).
		Table("customers AS c").
		Select("c.id AS customer_id, c.customer_name, pu.username, tu.telegram_chat_id").
		Joins("JOIN portal_users AS pu ON pu.customer_id = c.id").
		Joins("JOIN telegram_users AS tu ON tu.username = pu.username").
		Where("c.id = ? AND tu.telegram_chat_id <> ''", customerID).
		Order("pu.id ASC").
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &sales.TelegramRecipient{
		CustomerID:   rows[0].CustomerID,
		CustomerName: rows[0].CustomerName,
		SystemUser:   rows[0].Username,
		ChatID:       rows[0].TelegramChatID,
	}, nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ sales.CustomerRepository = (*GormCustomerRepository)(nil)
