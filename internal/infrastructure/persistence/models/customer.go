package models

import "github.com/rtmanagement/backend/internal/domain/sales"

// CustomerModel is the persistence model for a customer (a household)
type CustomerModel struct {
	ID            string               `gorm:"column:id;type:varchar(140);primaryKey"`
	CustomerName  string               `gorm:"column:customer_name;type:varchar(200);not null"`
	CustomerGroup string               `gorm:"column:customer_group;type:varchar(140)"`
	Houses        []CustomerHouseModel `gorm:"foreignKey:CustomerID;references:ID"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *sales.Customer {
	units := make([]string, 0, len(m.Houses))
	for _, h := range m.Houses {
		units = append(units, h.Unit)
	}
	return &sales.Customer{
		ID:            m.ID,
		CustomerName:  m.CustomerName,
		CustomerGroup: m.CustomerGroup,
		Units:         units,
	}
}

// CustomerHouseModel is one house unit owned by a customer
type CustomerHouseModel struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID string `gorm:"column:customer_id;type:varchar(140);not null;index"`
	Unit       string `gorm:"column:unit;type:varchar(140);not null"`
	Idx        int    `gorm:"column:idx;not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerHouseModel) TableName() string {
	return "customer_houses"
}

// PortalUserModel links a customer to a system user
type PortalUserModel struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID string `gorm:"column:customer_id;type:varchar(140);not null;index"`
	Username   string `gorm:"column:username;type:varchar(140);not null;index"`
}

// TableName returns the table name for GORM
func (PortalUserModel) TableName() string {
	return "portal_users"
}

// TelegramUserModel links a system user to a Telegram chat
type TelegramUserModel struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Username       string `gorm:"column:username;type:varchar(140);not null;uniqueIndex"`
	TelegramChatID string `gorm:"column:telegram_chat_id;type:varchar(64);not null"`
}

// TableName returns the table name for GORM
func (TelegramUserModel) TableName() string {
	return "telegram_users"
}
