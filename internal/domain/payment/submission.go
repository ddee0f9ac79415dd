package payment

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// MaxAttachmentBytes is the largest attachment accepted, in bytes (15 MiB)
const MaxAttachmentBytes int64 = 15 << 20

// AttachmentFieldNames are the multipart part names scanned for an attachment,
// in priority order
var AttachmentFieldNames = []string{"file", "attachment", "upload", "bukti", "document"}

// DefaultAttachmentName is used when neither the caller nor the upload names the file
const DefaultAttachmentName = "attachment"

// StreamOpener opens the uploaded content of a multipart part
type StreamOpener func() (io.ReadCloser, error)

// Representation identifies which form of an attachment is used
type Representation int

const (
	RepresentationNone Representation = iota
	RepresentationStream
	RepresentationInline
	RepresentationURL
)

// String returns the representation name used in logs
func (r Representation) String() string {
	switch r {
	case RepresentationStream:
		return "stream"
	case RepresentationInline:
		return "base64"
	case RepresentationURL:
		return "url"
	default:
		return "none"
	}
}

// AttachmentSource is the evidence supplied with a submission. More than one
// representation may be populated; Representation picks the one used.
type AttachmentSource struct {
	Stream       StreamOpener
	StreamSize   int64
	InlineBase64 string
	SourceURL    string
	DisplayName  string
	IsPrivate    bool
}

// Representation applies the precedence multipart stream > base64 > URL
func (a *AttachmentSource) Representation() Representation {
	switch {
	case a == nil:
		return RepresentationNone
	case a.Stream != nil:
		return RepresentationStream
	case a.InlineBase64 != "":
		return RepresentationInline
	case a.SourceURL != "":
		return RepresentationURL
	default:
		return RepresentationNone
	}
}

// Name returns the display name, defaulting to DefaultAttachmentName
func (a *AttachmentSource) Name() string {
	if a.DisplayName == "" {
		return DefaultAttachmentName
	}
	return a.DisplayName
}

// PaymentSubmission is the canonical form of an intake request. A non-empty
// InvoiceID selects the invoice-linked path; otherwise the submission is an
// on-account payment for CustomerID.
type PaymentSubmission struct {
	InvoiceID     string
	CustomerID    string
	Amount        *decimal.Decimal
	ModeOfPayment string
	ReferenceNo   string
	ReferenceDate time.Time
	Company       string
	Attachment    *AttachmentSource
}

// IsInvoiceLinked returns true when the submission references an invoice
func (s *PaymentSubmission) IsInvoiceLinked() bool {
	return s.InvoiceID != ""
}

// HasPositiveAmount returns true when the caller supplied an amount above zero
func (s *PaymentSubmission) HasPositiveAmount() bool {
	return s.Amount != nil && s.Amount.IsPositive()
}

// HasAttachment returns true when any attachment representation was supplied
func (s *PaymentSubmission) HasAttachment() bool {
	return s.Attachment.Representation() != RepresentationNone
}
