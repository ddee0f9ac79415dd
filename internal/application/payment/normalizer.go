package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReferenceDateLayout is the accepted calendar date format
const ReferenceDateLayout = "2006-01-02"

// RawPayload carries the encodings an intake request may arrive in
type RawPayload struct {
	ContentType string
	Form        url.Values
	JSONBody    []byte
	Files       map[string][]*multipart.FileHeader
}

// PayloadNormalizer merges form, JSON and multipart input into a PaymentSubmission
type PayloadNormalizer struct {
	now      func() time.Time
	location *time.Location
}

// NormalizerOption configures a PayloadNormalizer
type NormalizerOption func(*PayloadNormalizer)

// WithClock overrides the clock used for the default reference date
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *PayloadNormalizer) {
		n.now = now
	}
}

// WithLocation sets the time zone calendar dates are interpreted in
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *PayloadNormalizer) {
		if loc != nil {
			n.location = loc
		}
	}
}

// NewPayloadNormalizer creates a new PayloadNormalizer
func NewPayloadNormalizer(opts ...NormalizerOption) *PayloadNormalizer {
	n := &PayloadNormalizer{
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize produces the canonical submission. It has no side effects.
func (n *PayloadNormalizer) Normalize(raw RawPayload) (*payment.PaymentSubmission, error) {
	fields, err := n.mergeFields(raw)
	if err != nil {
		return nil, err
	}

	amount, err := parseAmount(fields["amount"])
	if err != nil {
		return nil, err
	}
	refDate, err := n.parseReferenceDate(fields["reference_date"])
	if err != nil {
		return nil, err
	}

	sub := &payment.PaymentSubmission{
		InvoiceID:     firstString(fields, "sales_invoice", "invoice_id"),
		CustomerID:    firstString(fields, "customer", "customer_id"),
		Amount:        amount,
		ModeOfPayment: firstString(fields, "mode_of_payment"),
		ReferenceNo:   firstString(fields, "reference_no"),
		ReferenceDate: refDate,
		Company:       firstString(fields, "company"),
	}

	attachment, err := n.buildAttachment(fields, raw.Files)
	if err != nil {
		return nil, err
	}
	sub.Attachment = attachment
	return sub, nil
}

// mergeFields reads form fields first, then merges the JSON body. JSON wins
// for the keys it defines when the request declares JSON or carried no form
// fields; otherwise it only fills keys the form left out.
func (n *PayloadNormalizer) mergeFields(raw RawPayload) (map[string]any, error) {
	fields := make(map[string]any, len(raw.Form))
	for key, values := range raw.Form {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	if len(bytes.TrimSpace(raw.JSONBody)) == 0 {
		return fields, nil
	}

	declaredJSON := isJSONContentType(raw.ContentType)
	body, err := decodeJSONObject(raw.JSONBody)
	if err != nil {
		if declaredJSON {
			return nil, shared.NewValidationError("INVALID_JSON", "Request body is not a valid JSON object")
		}
		return fields, nil
	}

	override := declaredJSON || len(raw.Form) == 0
	for key, value := range body {
		if _, exists := fields[key]; exists && !override {
			continue
		}
		fields[key] = value
	}
	return fields, nil
}

func (n *PayloadNormalizer) parseReferenceDate(v any) (time.Time, error) {
	s := asString(v)
	if s == "" {
		now := n.now().In(n.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, n.location), nil
	}
	d, err := time.ParseInLocation(ReferenceDateLayout, s, n.location)
	if err != nil {
		return time.Time{}, shared.NewValidationError("INVALID_REFERENCE_DATE",
			fmt.Sprintf("reference_date %q is not a valid YYYY-MM-DD date", s))
	}
	return d, nil
}

func (n *PayloadNormalizer) buildAttachment(fields map[string]any, files map[string][]*multipart.FileHeader) (*payment.AttachmentSource, error) {
	isPrivate, err := parseFlag(fields["is_private"], true)
	if err != nil {
		return nil, err
	}

	src := &payment.AttachmentSource{
		InlineBase64: asString(fields["content_b64"]),
		SourceURL:    asString(fields["file_url"]),
		DisplayName:  asString(fields["file_name"]),
		IsPrivate:    isPrivate,
	}

	if header := firstFile(files); header != nil {
		src.Stream = func() (io.ReadCloser, error) { return header.Open() }
		src.StreamSize = header.Size
		if src.DisplayName == "" {
			src.DisplayName = header.Filename
		}
	}

	if src.Representation() == payment.RepresentationNone {
		return nil, nil
	}
	return src, nil
}

func firstFile(files map[string][]*multipart.FileHeader) *multipart.FileHeader {
	for _, name := range payment.AttachmentFieldNames {
		if headers := files[name]; len(headers) > 0 && headers[0] != nil {
			return headers[0]
		}
	}
	return nil
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func decodeJSONObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("body is not a JSON object")
	}
	return out, nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// parseAmount accepts strings, integers and decimals. Empty and absent both
// mean "not provided" and yield nil.
func parseAmount(v any) (*decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		d, err = decimal.NewFromString(s)
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	default:
		err = fmt.Errorf("unsupported type %T", v)
	}
	if err != nil {
		return nil, shared.NewValidationError("INVALID_AMOUNT", fmt.Sprintf("amount %q is not numeric", asString(v)))
	}
	return &d, nil
}

// parseFlag reads a 0/1 style flag
func parseFlag(v any, def bool) (bool, error) {
	s := strings.ToLower(asString(v))
	switch s {
	case "":
		return def, nil
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, shared.NewValidationError("INVALID_FLAG", fmt.Sprintf("is_private %q must be 0 or 1", s))
}
