package sales

import "context"

// SalesInvoiceRepository defines the persistence operations on sales invoices
type SalesInvoiceRepository interface {
	// FindByID returns shared.ErrNotFound-kind errors when the invoice does not exist
	FindByID(ctx context.Context, id string) (*SalesInvoice, error)

	// SaveWithLock persists outstanding/status changes if the stored version
	// still equals the version the invoice was loaded with
	SaveWithLock(ctx context.Context, invoice *SalesInvoice) error
}

// CustomerRepository defines read access to customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*Customer, error)

	// FindUnits returns the house units of a customer, possibly empty
	FindUnits(ctx context.Context, customerID string) ([]string, error)

	// FindTelegramRecipient returns nil, nil when the customer has no linked Telegram user
	FindTelegramRecipient(ctx context.Context, customerID string) (*TelegramRecipient, error)
}
