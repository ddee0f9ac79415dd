package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rtmanagement/backend/internal/domain/ledger"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByName finds a company by name
func (r *GormCompanyRepository) FindByName(ctx context.Context, name string) (*ledger.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("COMPANY_NOT_FOUND", fmt.Sprintf("Company %s not found", name))
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormModeOfPaymentRepository implements ModeOfPaymentRepository using GORM
type GormModeOfPaymentRepository struct {
	db *gorm.DB
}

// NewGormModeOfPaymentRepository creates a new GormModeOfPaymentRepository
func NewGormModeOfPaymentRepository(db *gorm.DB) *GormModeOfPaymentRepository {
	return &GormModeOfPaymentRepository{db: db}
}

// FindAccount returns the account a mode of payment posts to for a company,
// or "" when none is configured
func (r *GormModeOfPaymentRepository) FindAccount(ctx context.Context, mode, company string) (string, error) {
	var rows []models.ModeOfPaymentAccountModel
	if err := r.db.WithContext(ctx).
		Where("mode_of_payment = ? AND company = ?", mode, company).
		Limit(1).
		Find(&rows).Error; err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].DefaultAccount, nil
}

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindCashAndBank returns the names of all non-group Cash and Bank accounts
func (r *GormAccountRepository) FindCashAndBank(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("account_type IN ? AND is_group = ?",
			[]string{string(ledger.AccountTypeCash), string(ledger.AccountTypeBank)}, false).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// GormGLEntryRepository implements GLEntryRepository using GORM
type GormGLEntryRepository struct {
	db *gorm.DB
}

// NewGormGLEntryRepository creates a new GormGLEntryRepository
func NewGormGLEntryRepository(db *gorm.DB) *GormGLEntryRepository {
	return &GormGLEntryRepository{db: db}
}

// SaveBatch inserts ledger postings
func (r *GormGLEntryRepository) SaveBatch(ctx context.Context, entries []*ledger.GLEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.GLEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.GLEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// OpeningBalance returns SUM(debit - credit) of the account strictly before
// the given date, ignoring cancelled postings
func (r *GormGLEntryRepository) OpeningBalance(ctx context.Context, account string, before time.Time) (decimal.Decimal, error) {
	var result struct {
		Balance decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.GLEntryModel{}).
		Select("SUM(debit - credit) AS balance").
		Where("account = ? AND posting_date < ? AND is_cancelled = ?", account, before, false).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	if !result.Balance.Valid {
		return decimal.Zero, nil
	}
	return result.Balance.Decimal, nil
}

// FindByVoucher returns the postings of one voucher
func (r *GormGLEntryRepository) FindByVoucher(ctx context.Context, voucherType, voucherNo string) ([]*ledger.GLEntry, error) {
	var rows []models.GLEntryModel
	if err := r.db.WithContext(ctx).
		Where("voucher_type = ? AND voucher_no = ?", voucherType, voucherNo).
		Order("debit DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]*ledger.GLEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

var (
	_ ledger.CompanyRepository       = (*GormCompanyRepository)(nil)
	_ ledger.ModeOfPaymentRepository = (*GormModeOfPaymentRepository)(nil)
	_ ledger.AccountRepository       = (*GormAccountRepository)(nil)
	_ ledger.GLEntryRepository       = (*GormGLEntryRepository)(nil)
)
