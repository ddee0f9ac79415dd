// Package notification delivers invoice and payment messages to customers
// over Telegram after the originating transaction has committed.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultSendTimeout = 10 * time.Second
	parseModeMarkdown  = "Markdown"
)

// Messenger is the outbound bot transport
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text, parseMode string) error
	SendDocument(ctx context.Context, chatID, fileName string, data []byte, caption, parseMode string) error
}

// DocumentRenderer turns an HTML document into PDF bytes
type DocumentRenderer interface {
	RenderHTML(ctx context.Context, title, html string) ([]byte, error)
}

// TelegramNotificationHandler sends an invoice PDF when a sales invoice is
// submitted and a confirmation text when a payment entry is submitted.
// Delivery is best-effort: failures are logged and never returned.
type TelegramNotificationHandler struct {
	invoices    sales.SalesInvoiceRepository
	customers   sales.CustomerRepository
	messenger   Messenger
	renderer    DocumentRenderer
	sendTimeout time.Duration
	logger      *zap.Logger
}

// NewTelegramNotificationHandler creates the handler. A zero sendTimeout
// falls back to 10 seconds.
func NewTelegramNotificationHandler(
	invoices sales.SalesInvoiceRepository,
	customers sales.CustomerRepository,
	messenger Messenger,
	renderer DocumentRenderer,
	sendTimeout time.Duration,
	logger *zap.Logger,
) *TelegramNotificationHandler {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &TelegramNotificationHandler{
		invoices:    invoices,
		customers:   customers,
		messenger:   messenger,
		renderer:    renderer,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *TelegramNotificationHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSalesInvoiceSubmitted,
		payment.EventTypePaymentEntrySubmitted,
	}
}

// Handle dispatches on the event type
func (h *TelegramNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "notification", "handle")
	defer span.End()
	telemetry.SetAttributes(span,
		"event.type", event.EventType(),
		"event.aggregate_id", event.AggregateID(),
	)

	switch e := event.(type) {
	case *sales.SalesInvoiceSubmittedEvent:
		h.sendInvoice(ctx, e)
		return nil
	case *payment.PaymentEntrySubmittedEvent:
		h.sendPaymentConfirmation(ctx, e)
		return nil
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		err := fmt.Errorf("unexpected event type: %s", event.EventType())
		telemetry.RecordError(span, err)
		return err
	}
}

func (h *TelegramNotificationHandler) sendInvoice(ctx context.Context, event *sales.SalesInvoiceSubmittedEvent) {
	log := h.logger.With(
		zap.String("event_id", event.EventID().String()),
		zap.String("invoice_id", event.InvoiceID),
		zap.String("customer_id", event.CustomerID),
	)

	recipient, ok := h.recipient(ctx, log, event.CustomerID)
	if !ok {
		return
	}

	invoice, err := h.invoices.FindByID(ctx, event.InvoiceID)
	if err != nil {
		log.Error("Failed to load invoice for notification", zap.Error(err))
		return
	}

	document, err := RenderInvoiceHTML(invoice)
	if err != nil {
		log.Error("Failed to render invoice document", zap.Error(err))
		return
	}
	var pdf []byte
	telemetry.WithProfilingLabels(ctx, telemetry.RegionLabels("pdf_render", nil), func(ctx context.Context) {
		pdf, err = h.renderer.RenderHTML(ctx, invoice.ID, document)
	})
	if err != nil {
		log.Error("Failed to render invoice PDF", zap.Error(err))
		return
	}

	name := event.CustomerName
	if name == "" {
		name = recipient.CustomerName
	}
	caption := InvoiceCaption(name, invoice.ID, invoice.GrandTotal)

	sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()
	if err := h.messenger.SendDocument(sendCtx, recipient.ChatID, invoice.ID+".pdf", pdf, caption, parseModeMarkdown); err != nil {
		log.Error("Failed to send invoice to Telegram", zap.Error(err))
		return
	}
	log.Info("Invoice sent to Telegram", zap.String("chat_id", recipient.ChatID))
}

func (h *TelegramNotificationHandler) sendPaymentConfirmation(ctx context.Context, event *payment.PaymentEntrySubmittedEvent) {
	log := h.logger.With(
		zap.String("event_id", event.EventID().String()),
		zap.String("payment_entry_id", event.PaymentEntryID),
		zap.String("customer_id", event.CustomerID),
	)

	recipient, ok := h.recipient(ctx, log, event.CustomerID)
	if !ok {
		return
	}

	name := event.CustomerName
	if name == "" {
		name = recipient.CustomerName
	}
	text := PaymentConfirmation(name, event.InvoiceID, event.PaidAmount)

	sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()
	if err := h.messenger.SendMessage(sendCtx, recipient.ChatID, text, parseModeMarkdown); err != nil {
		log.Error("Failed to send payment confirmation to Telegram", zap.Error(err))
		return
	}
	log.Info("Payment confirmation sent to Telegram", zap.String("chat_id", recipient.ChatID))
}

// recipient returns false when there is nobody to notify
func (h *TelegramNotificationHandler) recipient(ctx context.Context, log *zap.Logger, customerID string) (*sales.TelegramRecipient, bool) {
	recipient, err := h.customers.FindTelegramRecipient(ctx, customerID)
	if err != nil {
		log.Error("Failed to resolve Telegram recipient", zap.Error(err))
		return nil, false
	}
	if recipient == nil || recipient.ChatID == "" {
		log.Debug("Customer has no Telegram user, skipping notification")
		return nil, false
	}
	return recipient, true
}

// Ensure TelegramNotificationHandler implements EventHandler
var _ shared.EventHandler = (*TelegramNotificationHandler)(nil)
