package models

import (
	"time"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"gorm.io/datatypes"
)

// ErrorLogModel is the persistence model for a failed submission record
type ErrorLogModel struct {
	ID        uint              `gorm:"column:id;primaryKey;autoIncrement"`
	Method    string            `gorm:"column:method;type:varchar(140);not null"`
	Title     string            `gorm:"column:title;type:varchar(255);not null"`
	Error     string            `gorm:"column:error;type:text;not null"`
	Context   datatypes.JSONMap `gorm:"column:context"`
	CreatedAt time.Time         `gorm:"column:created_at;not null;index"`
}

// TableName returns the table name for GORM
func (ErrorLogModel) TableName() string {
	return "error_logs"
}

// ErrorLogModelFromDomain creates a new persistence model from a domain ErrorLog
func ErrorLogModelFromDomain(e *payment.ErrorLog) *ErrorLogModel {
	return &ErrorLogModel{
		Method:    e.Method,
		Title:     e.Title,
		Error:     e.Error,
		Context:   datatypes.JSONMap(e.Context),
		CreatedAt: e.CreatedAt,
	}
}

// ToDomain converts the persistence model to a domain ErrorLog
func (m *ErrorLogModel) ToDomain() *payment.ErrorLog {
	return &payment.ErrorLog{
		Method:    m.Method,
		Title:     m.Title,
		Error:     m.Error,
		Context:   map[string]any(m.Context),
		CreatedAt: m.CreatedAt,
	}
}
