package sales

import (
	"context"

	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SalesService exposes the customer and invoice operations used by the
// billing screens
type SalesService struct {
	invoices  sales.SalesInvoiceRepository
	customers sales.CustomerRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewSalesService creates a new SalesService
func NewSalesService(
	invoices sales.SalesInvoiceRepository,
	customers sales.CustomerRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SalesService {
	return &SalesService{
		invoices:  invoices,
		customers: customers,
		publisher: publisher,
		logger:    logger,
	}
}

// CustomerUnits returns the house units registered to a customer. An
// unknown customer has no units.
func (s *SalesService) CustomerUnits(ctx context.Context, customerID string) ([]string, error) {
	if customerID == "" {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "customer is required")
	}
	units, err := s.customers.FindUnits(ctx, customerID)
	if err != nil {
		return nil, shared.NewPersistenceError("Failed to load customer units", err)
	}
	if units == nil {
		units = []string{}
	}
	return units, nil
}

// NotifyInvoiceSubmitted queues delivery of a submitted invoice to its
// customer. Delivery itself happens asynchronously.
func (s *SalesService) NotifyInvoiceSubmitted(ctx context.Context, invoiceID string) error {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := invoice.MarkSubmittedForNotification(); err != nil {
		return err
	}

	events := invoice.GetDomainEvents()
	invoice.ClearDomainEvents()
	if err := s.publisher.Publish(ctx, events...); err != nil {
		return shared.NewPersistenceError("Failed to queue invoice notification", err)
	}

	s.logger.Info("Invoice notification queued",
		zap.String("sales_invoice", invoice.ID),
		zap.String("customer", invoice.CustomerID),
	)
	return nil
}
