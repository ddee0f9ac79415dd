package telemetry

import (
	"context"

	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

var (
	_ paymentapp.IntakeMetrics  = (*IntakeMetrics)(nil)
	_ paymentapp.IntakeProfiler = ProfileIntake
)

// IntakeMetrics counts payment submissions by path and outcome, and the
// size of the attachments they carried.
type IntakeMetrics struct {
	submissions     *Counter
	attachmentBytes *Histogram
}

// NewIntakeMetrics creates the intake instruments on meter
func NewIntakeMetrics(meter metric.Meter) (*IntakeMetrics, error) {
	submissions, err := NewCounter(meter,
		"payment_intake_submissions_total",
		"Payment submissions by intake path and final state",
		"{submission}",
	)
	if err != nil {
		return nil, err
	}

	attachmentBytes, err := NewHistogram(meter, HistogramOpts{
		Name:        "payment_intake_attachment_size_bytes",
		Description: "Decoded size of payment proof attachments",
		Unit:        "By",
		Boundaries:  AttachmentSizeBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &IntakeMetrics{submissions: submissions, attachmentBytes: attachmentBytes}, nil
}

// RecordSubmission counts one finished submission. kind is empty on success.
func (m *IntakeMetrics) RecordSubmission(ctx context.Context, path string, state paymentapp.SubmissionState, kind shared.ErrorKind) {
	errorKind := string(kind)
	if errorKind == "" {
		errorKind = "none"
	}
	m.submissions.Inc(ctx,
		AttrIntakePath.String(path),
		AttrIntakeState.String(string(state)),
		AttrErrorKind.String(errorKind),
	)
}

// RecordAttachment observes one decoded attachment
func (m *IntakeMetrics) RecordAttachment(ctx context.Context, representation string, bytes int64) {
	m.attachmentBytes.Record(ctx, float64(bytes), AttrRepresentation.String(representation))
}
