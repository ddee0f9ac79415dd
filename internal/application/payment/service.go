package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "rtm-backend/payment"

// SubmissionState is the lifecycle of one submission
type SubmissionState string

const (
	StatePending    SubmissionState = "PENDING"
	StateCommitted  SubmissionState = "COMMITTED"
	StateRolledBack SubmissionState = "ROLLED_BACK"
)

// Submission paths, used in logs and metrics
const (
	PathInvoice   = "invoice"
	PathOnAccount = "on_account"
)

// Confirmation messages returned on success
const (
	MessageInvoiceWithFile   = "Payment entry created from sales invoice and file attached."
	MessageInvoice           = "Payment entry created from sales invoice."
	MessageOnAccountWithFile = "On-account payment entry created and file attached."
	MessageOnAccount         = "On-account payment entry created."
)

// SubmitResult is returned for every submission; State tells whether it committed
type SubmitResult struct {
	PaymentEntryID     string
	LinkedSalesInvoice string
	Message            string
	State              SubmissionState
}

// IntakeService runs a submission through resolution, posting and
// attachment inside a single transaction
type IntakeService struct {
	txScope     TransactionScope
	resolver    *PaymentResolver
	attachments *AttachmentHandler
	errorLogs   payment.ErrorLogRepository
	publisher   shared.EventPublisher
	metrics     IntakeMetrics
	profile     IntakeProfiler
	logger      *zap.Logger
	now         func() time.Time
}

// IntakeOption configures an IntakeService
type IntakeOption func(*IntakeService)

// WithMetrics sets the metrics sink
func WithMetrics(m IntakeMetrics) IntakeOption {
	return func(s *IntakeService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// IntakeProfiler runs fn with profiling labels for one submission
type IntakeProfiler func(ctx context.Context, path, attachmentKind string, fn func(context.Context))

// WithProfiler labels the profiling samples taken while a submission runs
func WithProfiler(p IntakeProfiler) IntakeOption {
	return func(s *IntakeService) {
		if p != nil {
			s.profile = p
		}
	}
}

// WithServiceClock overrides the clock used for submission timestamps
func WithServiceClock(now func() time.Time) IntakeOption {
	return func(s *IntakeService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(
	txScope TransactionScope,
	resolver *PaymentResolver,
	attachments *AttachmentHandler,
	errorLogs payment.ErrorLogRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...IntakeOption,
) *IntakeService {
	s := &IntakeService{
		txScope:     txScope,
		resolver:    resolver,
		attachments: attachments,
		errorLogs:   errorLogs,
		publisher:   publisher,
		metrics:     noopMetrics{},
		profile:     func(ctx context.Context, _, _ string, fn func(context.Context)) { fn(ctx) },
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit processes one submission as actor. On failure every write is rolled
// back, the detail is logged for operators and the returned error carries
// only the failure kind that callers act on.
func (s *IntakeService) Submit(ctx context.Context, actor shared.Actor, sub *payment.PaymentSubmission) (*SubmitResult, error) {
	result := &SubmitResult{State: StatePending}
	path := PathOnAccount
	if sub.IsInvoiceLinked() {
		path = PathInvoice
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "payment.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("intake.path", path),
		attribute.Bool("intake.has_attachment", sub.HasAttachment()),
	)

	var (
		entry *payment.PaymentEntry
		files []*payment.FileRecord
		err   error
	)
	s.profile(ctx, path, sub.Attachment.Representation().String(), func(ctx context.Context) {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			res, err := s.resolver.Resolve(ctx, repos, actor, sub)
			if err != nil {
				return err
			}
			entry = res.Entry

			if err := repos.PaymentRepo().Save(ctx, entry); err != nil {
				return asPersistenceError("Failed to save draft payment entry", err)
			}

			at := s.now()
			if res.Invoice != nil {
				if err := res.Invoice.ApplyPayment(entry.PaidAmount, at); err != nil {
					return err
				}
				if err := repos.InvoiceRepo().SaveWithLock(ctx, res.Invoice); err != nil {
					return asPersistenceError("Failed to update sales invoice outstanding amount", err)
				}
			}

			if err := entry.Submit(at); err != nil {
				return err
			}
			if err := repos.PaymentRepo().Save(ctx, entry); err != nil {
				return asPersistenceError("Failed to submit payment entry", err)
			}

			postings, err := BuildLedgerEntries(entry)
			if err != nil {
				return err
			}
			if err := repos.GLEntryRepo().SaveBatch(ctx, postings); err != nil {
				return asPersistenceError("Failed to post ledger entries", err)
			}

			if !sub.HasAttachment() {
				return nil
			}

			content, err := s.attachments.Load(ctx, sub.Attachment)
			if err != nil {
				return err
			}
			s.metrics.RecordAttachment(ctx, content.Representation.String(), content.Size())

			rec, err := s.attachments.Attach(ctx, repos.FileRepo(), content,
				payment.DoctypePaymentEntry, entry.ID.String(), content.Name, actor.User)
			files = append(files, rec)
			if err != nil {
				return err
			}

			if res.Invoice != nil {
				rec, err := s.attachments.Attach(ctx, repos.FileRepo(), content,
					payment.DoctypeSalesInvoice, res.Invoice.ID, fmt.Sprintf("%s-%s", entry.ID, content.Name), actor.User)
				files = append(files, rec)
				if err != nil {
					return err
				}
			}
			return nil
		})
	})

	if err != nil {
		result.State = StateRolledBack
		span.RecordError(err)
		span.SetStatus(codes.Error, string(shared.KindOf(err)))
		s.attachments.Discard(context.WithoutCancel(ctx), files)
		s.recordFailure(ctx, actor, sub, path, err)
		s.metrics.RecordSubmission(ctx, path, result.State, shared.KindOf(err))
		return result, asPersistenceError("Failed to create payment entry", err)
	}

	result.State = StateCommitted
	result.PaymentEntryID = entry.ID.String()
	result.LinkedSalesInvoice = entry.LinkedInvoice()
	result.Message = confirmationMessage(sub.IsInvoiceLinked(), sub.HasAttachment())
	s.metrics.RecordSubmission(ctx, path, result.State, "")

	s.logger.Info("Payment entry submitted",
		zap.String("payment_entry", result.PaymentEntryID),
		zap.String("path", path),
		zap.String("party", entry.Party),
		zap.String("paid_amount", entry.PaidAmount.StringFixed(2)),
		zap.String("linked_sales_invoice", result.LinkedSalesInvoice),
		zap.Int("attachments", len(files)),
		zap.String("actor", actor.User),
	)

	s.publishEvents(ctx, entry)
	return result, nil
}

// publishEvents hands committed events to the bus. Delivery problems never
// change the outcome of a committed submission.
func (s *IntakeService) publishEvents(ctx context.Context, entry *payment.PaymentEntry) {
	events := entry.GetDomainEvents()
	entry.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		s.logger.Warn("Failed to publish payment events",
			zap.String("payment_entry", entry.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *IntakeService) recordFailure(ctx context.Context, actor shared.Actor, sub *payment.PaymentSubmission, path string, err error) {
	fields := map[string]any{
		"path":            path,
		"invoice_id":      sub.InvoiceID,
		"customer_id":     sub.CustomerID,
		"company":         sub.Company,
		"mode_of_payment": sub.ModeOfPayment,
		"reference_no":    sub.ReferenceNo,
		"has_attachment":  sub.HasAttachment(),
		"attachment":      sub.Attachment.Representation().String(),
		"actor":           actor.User,
		"kind":            string(shared.KindOf(err)),
	}
	if sub.Amount != nil {
		fields["amount"] = sub.Amount.String()
	}

	s.logger.Error("Payment intake failed",
		zap.String("path", path),
		zap.String("kind", string(shared.KindOf(err))),
		zap.Any("submission", fields),
		zap.Error(err),
	)

	if s.errorLogs == nil {
		return
	}
	entry := &payment.ErrorLog{
		Method:    "payment_intake.submit",
		Title:     "Payment intake failed",
		Error:     err.Error(),
		Context:   fields,
		CreatedAt: s.now(),
	}
	if logErr := s.errorLogs.Record(context.WithoutCancel(ctx), entry); logErr != nil {
		s.logger.Warn("Failed to record error log", zap.Error(logErr))
	}
}

func confirmationMessage(invoiceLinked, withFile bool) string {
	switch {
	case invoiceLinked && withFile:
		return MessageInvoiceWithFile
	case invoiceLinked:
		return MessageInvoice
	case withFile:
		return MessageOnAccountWithFile
	default:
		return MessageOnAccount
	}
}
