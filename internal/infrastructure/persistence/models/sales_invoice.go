package models

import (
	"time"

	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SalesInvoiceModel is the persistence model for the SalesInvoice aggregate
type SalesInvoiceModel struct {
	ID                string                  `gorm:"column:id;type:varchar(140);primaryKey"`
	CustomerID        string                  `gorm:"column:customer_id;type:varchar(140);not null;index"`
	CustomerName      string                  `gorm:"column:customer_name;type:varchar(200)"`
	Company           string                  `gorm:"column:company;type:varchar(140);not null"`
	PostingDate       time.Time               `gorm:"column:posting_date;type:date;not null"`
	DueDate           *time.Time              `gorm:"column:due_date;type:date"`
	GrandTotal        decimal.Decimal         `gorm:"column:grand_total;type:decimal(18,2);not null"`
	OutstandingAmount decimal.Decimal         `gorm:"column:outstanding_amount;type:decimal(18,2);not null"`
	DebitTo           string                  `gorm:"column:debit_to;type:varchar(140)"`
	DocStatus         int                     `gorm:"column:docstatus;not null;default:0;index"`
	Status            string                  `gorm:"column:status;type:varchar(40);not null"`
	Version           int                     `gorm:"column:version;not null;default:1"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;not null"`
	Items             []SalesInvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesInvoiceModel) TableName() string {
	return "sales_invoices"
}

// ToDomain converts the persistence model to a domain SalesInvoice
func (m *SalesInvoiceModel) ToDomain() *sales.SalesInvoice {
	items := make([]sales.SalesInvoiceItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = item.ToDomain()
	}
	return &sales.SalesInvoice{
		ID:                m.ID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Company:           m.Company,
		PostingDate:       m.PostingDate,
		DueDate:           m.DueDate,
		GrandTotal:        m.GrandTotal,
		OutstandingAmount: m.OutstandingAmount,
		DebitTo:           m.DebitTo,
		DocStatus:         sales.DocStatus(m.DocStatus),
		Status:            sales.InvoiceStatus(m.Status),
		Items:             items,
		Version:           m.Version,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SalesInvoice
func (m *SalesInvoiceModel) FromDomain(si *sales.SalesInvoice) {
	m.ID = si.ID
	m.CustomerID = si.CustomerID
	m.CustomerName = si.CustomerName
	m.Company = si.Company
	m.PostingDate = si.PostingDate
	m.DueDate = si.DueDate
	m.GrandTotal = si.GrandTotal
	m.OutstandingAmount = si.OutstandingAmount
	m.DebitTo = si.DebitTo
	m.DocStatus = int(si.DocStatus)
	m.Status = string(si.Status)
	m.Version = si.Version
	m.UpdatedAt = si.UpdatedAt
	m.Items = make([]SalesInvoiceItemModel, len(si.Items))
	for i, item := range si.Items {
		m.Items[i] = SalesInvoiceItemModel{
			InvoiceID:     si.ID,
			Idx:           i + 1,
			ItemCode:      item.ItemCode,
			ItemName:      item.ItemName,
			Unit:          item.Unit,
			Qty:           item.Qty,
			Rate:          item.Rate,
			Amount:        item.Amount,
			IncomeAccount: item.IncomeAccount,
		}
	}
}

// SalesInvoiceModelFromDomain creates a new persistence model from a domain SalesInvoice
func SalesInvoiceModelFromDomain(si *sales.SalesInvoice) *SalesInvoiceModel {
	m := &SalesInvoiceModel{}
	m.FromDomain(si)
	return m
}

// SalesInvoiceItemModel is the persistence model for one invoice line
type SalesInvoiceItemModel struct {
	ID            uint            `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID     string          `gorm:"column:invoice_id;type:varchar(140);not null;index"`
	Idx           int             `gorm:"column:idx;not null;default:0"`
	ItemCode      string          `gorm:"column:item_code;type:varchar(140);not null"`
	ItemName      string          `gorm:"column:item_name;type:varchar(200)"`
	Unit          string          `gorm:"column:unit;type:varchar(140)"`
	Qty           decimal.Decimal `gorm:"column:qty;type:decimal(18,4);not null"`
	Rate          decimal.Decimal `gorm:"column:rate;type:decimal(18,2);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null"`
	IncomeAccount string          `gorm:"column:income_account;type:varchar(140)"`
}

// TableName returns the table name for GORM
func (SalesInvoiceItemModel) TableName() string {
	return "sales_invoice_items"
}

// ToDomain converts the persistence model to a domain SalesInvoiceItem
func (m *SalesInvoiceItemModel) ToDomain() sales.SalesInvoiceItem {
	return sales.SalesInvoiceItem{
		ItemCode:      m.ItemCode,
		ItemName:      m.ItemName,
		Unit:          m.Unit,
		Qty:           m.Qty,
		Rate:          m.Rate,
		Amount:        m.Amount,
		IncomeAccount: m.IncomeAccount,
	}
}
