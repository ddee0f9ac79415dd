package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// PaymentEntryModel is the persistence model for the PaymentEntry aggregate
type PaymentEntryModel struct {
	AggregateModel
	PaymentType    string                       `gorm:"column:payment_type;type:varchar(20);not null"`
	PartyType      string                       `gorm:"column:party_type;type:varchar(40);not null"`
	Party          string                       `gorm:"column:party;type:varchar(140);not null;index"`
	PartyName      string                       `gorm:"column:party_name;type:varchar(200)"`
	Company        string                       `gorm:"column:company;type:varchar(140);not null"`
	PostingDate    time.Time                    `gorm:"column:posting_date;type:date;not null;index"`
	PaidAmount     decimal.Decimal              `gorm:"column:paid_amount;type:decimal(18,2);not null"`
	ReceivedAmount decimal.Decimal              `gorm:"column:received_amount;type:decimal(18,2);not null"`
	ModeOfPayment  string                       `gorm:"column:mode_of_payment;type:varchar(140)"`
	ReferenceNo    string                       `gorm:"column:reference_no;type:varchar(140)"`
	ReferenceDate  time.Time                    `gorm:"column:reference_date;type:date"`
	PaidFrom       string                       `gorm:"column:paid_from;type:varchar(140);not null"`
	PaidTo         string                       `gorm:"column:paid_to;type:varchar(140);not null;index"`
	DocStatus      int                          `gorm:"column:docstatus;not null;default:0;index"`
	Owner          string                       `gorm:"column:owner;type:varchar(140);not null"`
	SubmittedAt    *time.Time                   `gorm:"column:submitted_at"`
	References     []PaymentEntryReferenceModel `gorm:"foreignKey:PaymentEntryID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentEntryModel) TableName() string {
	return "payment_entries"
}

// ToDomain converts the persistence model to a domain PaymentEntry
func (m *PaymentEntryModel) ToDomain() *payment.PaymentEntry {
	refs := make([]payment.InvoiceAllocation, len(m.References))
	for i, ref := range m.References {
		refs[i] = ref.ToDomain()
	}
	return &payment.PaymentEntry{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PaymentType:       payment.PaymentType(m.PaymentType),
		PartyType:         m.PartyType,
		Party:             m.Party,
		PartyName:         m.PartyName,
		Company:           m.Company,
		PostingDate:       m.PostingDate,
		PaidAmount:        m.PaidAmount,
		ReceivedAmount:    m.ReceivedAmount,
		ModeOfPayment:     m.ModeOfPayment,
		ReferenceNo:       m.ReferenceNo,
		ReferenceDate:     m.ReferenceDate,
		PaidFrom:          m.PaidFrom,
		PaidTo:            m.PaidTo,
		DocStatus:         payment.DocStatus(m.DocStatus),
		References:        refs,
		Owner:             m.Owner,
		SubmittedAt:       m.SubmittedAt,
	}
}

// FromDomain populates the persistence model from a domain PaymentEntry
func (m *PaymentEntryModel) FromDomain(pe *payment.PaymentEntry) {
	m.FromDomainAggregateRoot(pe.BaseAggregateRoot)
	m.PaymentType = string(pe.PaymentType)
	m.PartyType = pe.PartyType
	m.Party = pe.Party
	m.PartyName = pe.PartyName
	m.Company = pe.Company
	m.PostingDate = pe.PostingDate
	m.PaidAmount = pe.PaidAmount
	m.ReceivedAmount = pe.ReceivedAmount
	m.ModeOfPayment = pe.ModeOfPayment
	m.ReferenceNo = pe.ReferenceNo
	m.ReferenceDate = pe.ReferenceDate
	m.PaidFrom = pe.PaidFrom
	m.PaidTo = pe.PaidTo
	m.DocStatus = int(pe.DocStatus)
	m.Owner = pe.Owner
	m.SubmittedAt = pe.SubmittedAt
	m.References = make([]PaymentEntryReferenceModel, len(pe.References))
	for i, ref := range pe.References {
		m.References[i] = PaymentEntryReferenceModel{
			PaymentEntryID:   pe.ID,
			Idx:              i + 1,
			ReferenceDoctype: ref.ReferenceDoctype,
			ReferenceName:    ref.InvoiceID,
			AllocatedAmount:  ref.AllocatedAmount,
		}
	}
}

// PaymentEntryModelFromDomain creates a new persistence model from a domain PaymentEntry
func PaymentEntryModelFromDomain(pe *payment.PaymentEntry) *PaymentEntryModel {
	m := &PaymentEntryModel{}
	m.FromDomain(pe)
	return m
}

// PaymentEntryReferenceModel is the persistence model for one invoice allocation
type PaymentEntryReferenceModel struct {
	ID               uint            `gorm:"column:id;primaryKey;autoIncrement"`
	PaymentEntryID   uuid.UUID       `gorm:"column:payment_entry_id;type:uuid;not null;index"`
	Idx              int             `gorm:"column:idx;not null;default:0"`
	ReferenceDoctype string          `gorm:"column:reference_doctype;type:varchar(40);not null"`
	ReferenceName    string          `gorm:"column:reference_name;type:varchar(140);not null;index"`
	AllocatedAmount  decimal.Decimal `gorm:"column:allocated_amount;type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PaymentEntryReferenceModel) TableName() string {
	return "payment_entry_references"
}

// ToDomain converts the persistence model to a domain InvoiceAllocation
func (m *PaymentEntryReferenceModel) ToDomain() payment.InvoiceAllocation {
	return payment.InvoiceAllocation{
		ReferenceDoctype: m.ReferenceDoctype,
		InvoiceID:        m.ReferenceName,
		AllocatedAmount:  m.AllocatedAmount,
	}
}
