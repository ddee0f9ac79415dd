package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/logger"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// multipart parts beyond this are spooled to temporary files
const maxMultipartMemory = 8 << 20

var errUnsupportedMediaType = errors.New("unsupported content type")

// intakeMessages are the user facing texts per failure kind. The cause of a
// failed submission is only ever logged.
var intakeMessages = map[shared.ErrorKind]string{
	shared.KindValidation:      "The payment submission is incomplete or malformed.",
	shared.KindNotFound:        "The referenced sales invoice does not exist.",
	shared.KindBusinessRule:    "The payment cannot be applied to this invoice.",
	shared.KindPayloadTooLarge: "The attachment exceeds the 15 MiB limit.",
	shared.KindConflict:        "The invoice was updated concurrently, please submit again.",
}

const intakeFailedMessage = "Failed to create the payment entry."

// PayloadNormalizer turns a raw request into a submission
type PayloadNormalizer interface {
	Normalize(raw paymentapp.RawPayload) (*payment.PaymentSubmission, error)
}

// PaymentSubmitter runs a submission through the intake transaction
type PaymentSubmitter interface {
	Submit(ctx context.Context, actor shared.Actor, sub *payment.PaymentSubmission) (*paymentapp.SubmitResult, error)
}

// PaymentHandler serves the payment intake endpoint
type PaymentHandler struct {
	BaseHandler
	normalizer PayloadNormalizer
	intake     PaymentSubmitter
	actor      shared.Actor
}

// NewPaymentHandler creates a PaymentHandler that submits as actor
func NewPaymentHandler(normalizer PayloadNormalizer, intake PaymentSubmitter, actor shared.Actor) *PaymentHandler {
	return &PaymentHandler{
		normalizer: normalizer,
		intake:     intake,
		actor:      actor,
	}
}

// Submit handles POST /payments. It accepts JSON, urlencoded and multipart
// bodies and answers with the created payment entry.
func (h *PaymentHandler) Submit(c *gin.Context) {
	log := logger.GetGinLogger(c)

	raw, cleanup, err := h.readPayload(c)
	defer cleanup()
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, errUnsupportedMediaType):
			h.ErrorWithCode(c, dto.ErrCodeUnsupportedType,
				"Content-Type must be application/json, application/x-www-form-urlencoded or multipart/form-data")
		case errors.As(err, &tooLarge):
			h.ErrorWithCode(c, dto.ErrCodePayloadTooLarge, intakeMessages[shared.KindPayloadTooLarge])
		default:
			log.Info("Unreadable payment request body", zap.Error(err))
			h.BadRequest(c, "Request body could not be read")
		}
		return
	}

	sub, err := h.normalizer.Normalize(raw)
	if err != nil {
		log.Info("Payment submission rejected", zap.Error(err))
		h.intakeError(c, err)
		return
	}

	result, err := h.intake.Submit(c.Request.Context(), h.actor, sub)
	if err != nil {
		h.intakeError(c, err)
		return
	}

	h.Success(c, dto.PaymentResponse{
		PaymentEntry:       result.PaymentEntryID,
		LinkedSalesInvoice: result.LinkedSalesInvoice,
		Message:            result.Message,
	})
}

// readPayload collects query and form fields plus the body in the encoding
// the client declared. Without a declared type the body is offered to the
// normalizer as JSON. The returned cleanup removes any spooled multipart files.
func (h *PaymentHandler) readPayload(c *gin.Context) (paymentapp.RawPayload, func(), error) {
	noop := func() {}
	raw := paymentapp.RawPayload{ContentType: c.ContentType()}

	switch raw.ContentType {
	case gin.MIMEJSON, "":
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return raw, noop, err
		}
		raw.Form = c.Request.URL.Query()
		raw.JSONBody = body
		return raw, noop, nil

	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return raw, noop, err
		}
		raw.Form = withQuery(c.Request.PostForm, c.Request.URL.Query())
		return raw, noop, nil

	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return raw, noop, err
		}
		form := c.Request.MultipartForm
		raw.Form = withQuery(c.Request.PostForm, c.Request.URL.Query())
		raw.Files = form.File
		return raw, func() { _ = form.RemoveAll() }, nil

	default:
		return raw, noop, errUnsupportedMediaType
	}
}

// withQuery returns the body fields followed by the query fields, so a key
// present in both resolves to the body value
func withQuery(body, query url.Values) url.Values {
	merged := make(url.Values, len(body)+len(query))
	for key, values := range body {
		merged[key] = append(merged[key], values...)
	}
	for key, values := range query {
		merged[key] = append(merged[key], values...)
	}
	return merged
}

func (h *PaymentHandler) intakeError(c *gin.Context, err error) {
	kind := shared.KindOf(err)
	message, ok := intakeMessages[kind]
	if !ok {
		message = intakeFailedMessage
	}
	h.ErrorWithCode(c, dto.ErrorCodeForKind(kind), message)
}
