// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: base persistence models (BaseModel, AggregateModel)
//   - ledger.go: companies, accounts, mode of payment accounts, GL entries
//   - partner.go: customers, their house units, portal and Telegram users
//   - trade.go: sales invoices and their items
//   - finance.go: payment entries and their invoice references
//   - attachment.go: file records
//   - error_log.go: failed submission records
package models
