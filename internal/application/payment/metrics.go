package payment

import (
	"context"

	"github.com/rtmanagement/backend/internal/domain/shared"
)

// IntakeMetrics receives submission outcomes
type IntakeMetrics interface {
	RecordSubmission(ctx context.Context, path string, state SubmissionState, kind shared.ErrorKind)
	RecordAttachment(ctx context.Context, representation string, bytes int64)
}

type noopMetrics struct{}

func (noopMetrics) RecordSubmission(context.Context, string, SubmissionState, shared.ErrorKind) {}
func (noopMetrics) RecordAttachment(context.Context, string, int64)                             {}
