package models

import (
	"time"

	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// CompanyModel is the persistence model for a company and its default accounts
type CompanyModel struct {
	Name                     string `gorm:"column:name;type:varchar(140);primaryKey"`
	DefaultCashAccount       string `gorm:"column:default_cash_account;type:varchar(140)"`
	DefaultReceivableAccount string `gorm:"column:default_receivable_account;type:varchar(140)"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company
func (m *CompanyModel) ToDomain() *ledger.Company {
	return &ledger.Company{
		Name:                     m.Name,
		DefaultCashAccount:       m.DefaultCashAccount,
		DefaultReceivableAccount: m.DefaultReceivableAccount,
	}
}

// AccountModel is the persistence model for the chart of accounts
type AccountModel struct {
	Name        string `gorm:"column:name;type:varchar(140);primaryKey"`
	AccountType string `gorm:"column:account_type;type:varchar(40);index"`
	IsGroup     bool   `gorm:"column:is_group;not null;default:false"`
	Company     string `gorm:"column:company;type:varchar(140);index"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		Name:        m.Name,
		AccountType: ledger.AccountType(m.AccountType),
		IsGroup:     m.IsGroup,
		Company:     m.Company,
	}
}

// ModeOfPaymentAccountModel maps a mode of payment to its receiving account per company
type ModeOfPaymentAccountModel struct {
	ModeOfPayment  string `gorm:"column:mode_of_payment;type:varchar(140);primaryKey"`
	Company        string `gorm:"column:company;type:varchar(140);primaryKey"`
	DefaultAccount string `gorm:"column:default_account;type:varchar(140);not null"`
}

// TableName returns the table name for GORM
func (ModeOfPaymentAccountModel) TableName() string {
	return "mode_of_payment_accounts"
}

// ToDomain converts the persistence model to a domain ModeOfPayment
func (m *ModeOfPaymentAccountModel) ToDomain() *ledger.ModeOfPayment {
	return &ledger.ModeOfPayment{
		Name:           m.ModeOfPayment,
		Company:        m.Company,
		DefaultAccount: m.DefaultAccount,
	}
}

// GLEntryModel is the persistence model for one general ledger posting
type GLEntryModel struct {
	BaseModel
	PostingDate time.Time       `gorm:"column:posting_date;type:date;not null;index"`
	Account     string          `gorm:"column:account;type:varchar(140);not null;index"`
	Against     string          `gorm:"column:against;type:varchar(140)"`
	PartyType   string          `gorm:"column:party_type;type:varchar(40)"`
	Party       string          `gorm:"column:party;type:varchar(140)"`
	VoucherType string          `gorm:"column:voucher_type;type:varchar(40);not null"`
	VoucherNo   string          `gorm:"column:voucher_no;type:varchar(140);not null;index"`
	Debit       decimal.Decimal `gorm:"column:debit;type:decimal(18,2);not null;default:0"`
	Credit      decimal.Decimal `gorm:"column:credit;type:decimal(18,2);not null;default:0"`
	IsCancelled bool            `gorm:"column:is_cancelled;not null;default:false"`
	Company     string          `gorm:"column:company;type:varchar(140)"`
}

// TableName returns the table name for GORM
func (GLEntryModel) TableName() string {
	return "gl_entries"
}

// ToDomain converts the persistence model to a domain GLEntry
func (m *GLEntryModel) ToDomain() *ledger.GLEntry {
	return &ledger.GLEntry{
		BaseEntity:  m.BaseModel.ToDomain(),
		PostingDate: m.PostingDate,
		Account:     m.Account,
		Against:     m.Against,
		PartyType:   m.PartyType,
		Party:       m.Party,
		VoucherType: m.VoucherType,
		VoucherNo:   m.VoucherNo,
		Debit:       m.Debit,
		Credit:      m.Credit,
		IsCancelled: m.IsCancelled,
		Company:     m.Company,
	}
}

// FromDomain populates the persistence model from a domain GLEntry
func (m *GLEntryModel) FromDomain(e *ledger.GLEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.PostingDate = e.PostingDate
	m.Account = e.Account
	m.Against = e.Against
	m.PartyType = e.PartyType
	m.Party = e.Party
	m.VoucherType = e.VoucherType
	m.VoucherNo = e.VoucherNo
	m.Debit = e.Debit
	m.Credit = e.Credit
	m.IsCancelled = e.IsCancelled
	m.Company = e.Company
}

// GLEntryModelFromDomain creates a new persistence model from a domain GLEntry
func GLEntryModelFromDomain(e *ledger.GLEntry) *GLEntryModel {
	m := &GLEntryModel{}
	m.FromDomain(e)
	return m
}
