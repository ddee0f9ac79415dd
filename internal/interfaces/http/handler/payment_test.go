package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, actor shared.Actor, sub *payment.PaymentSubmission) (*paymentapp.SubmitResult, error) {
	args := m.Called(ctx, actor, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.SubmitResult), args.Error(1)
}

var testActor = shared.Actor{User: "intake@rt.local", DefaultCompany: "RT 05"}

func newPaymentRouter(submitter *mockSubmitter) *gin.Engine {
	normalizer := paymentapp.NewPayloadNormalizer(
		paymentapp.WithClock(func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }),
		paymentapp.WithLocation(time.UTC),
	)
	h := NewPaymentHandler(normalizer, submitter, testActor)
	r := newRouter()
	r.POST("/payments", h.Submit)
	return r
}

func committed(entry, invoice, message string) *paymentapp.SubmitResult {
	return &paymentapp.SubmitResult{
		PaymentEntryID:     entry,
		LinkedSalesInvoice: invoice,
		Message:            message,
		State:              paymentapp.StateCommitted,
	}
}

func TestPaymentHandler_Submit_JSONInvoice(t *testing.T) {
	submitter := new(mockSubmitter)
	submitter.On("Submit", mock.Anything, testActor, mock.MatchedBy(func(sub *payment.PaymentSubmission) bool {
		return sub.InvoiceID == "INV-1" && sub.Amount == nil && sub.Attachment == nil
	})).Return(committed("PE-1", "INV-1", paymentapp.MessageInvoice), nil)

	w := perform(newPaymentRouter(submitter), http.MethodPost, "/payments", "application/json",
		strings.NewReader(`{"invoice_id":"INV-1"}`))

	require.Equal(t, http.StatusOK, w.Code)
	var data dto.PaymentResponse
	resp := decode(t, w, &data)
	assert.True(t, resp.OK)
	assert.Equal(t, "PE-1", data.PaymentEntry)
	assert.Equal(t, "INV-1", data.LinkedSalesInvoice)
	assert.Equal(t, paymentapp.MessageInvoice, data.Message)
	submitter.AssertExpectations(t)
}

func TestPaymentHandler_Submit_FormOnAccount(t *testing.T) {
	submitter := new(mockSubmitter)
	submitter.On("Submit", mock.Anything, testActor, mock.MatchedBy(func(sub *payment.PaymentSubmission) bool {
		return sub.CustomerID == "C-1" && sub.Amount != nil && sub.Amount.Equal(decimal.NewFromInt(50000))
	})).Return(committed("PE-2", "", paymentapp.MessageOnAccount), nil)

	form := url.Values{"customer": {"C-1"}, "amount": {"50000"}, "mode_of_payment": {"Cash"}}
	w := perform(newPaymentRouter(submitter), http.MethodPost, "/payments",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "linked_sales_invoice")
	submitter.AssertExpectations(t)
}

func TestPaymentHandler_Submit_MultipartAttachment(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("sales_invoice", "INV-9"))
	part, err := mw.CreateFormFile("bukti", "transfer.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	submitter := new(mockSubmitter)
	submitter.On("Submit", mock.Anything, testActor, mock.MatchedBy(func(sub *payment.PaymentSubmission) bool {
		if sub.InvoiceID != "INV-9" || sub.Attachment == nil || sub.Attachment.Stream == nil {
			return false
		}
		rc, err := sub.Attachment.Stream()
		if err != nil {
			return false
		}
		defer rc.Close()
		content, _ := io.ReadAll(rc)
		return string(content) == "jpeg-bytes" && sub.Attachment.DisplayName == "transfer.jpg"
	})).Return(committed("PE-3", "INV-9", paymentapp.MessageInvoiceWithFile), nil)

	w := perform(newPaymentRouter(submitter), http.MethodPost, "/payments", mw.FormDataContentType(), &body)

	require.Equal(t, http.StatusOK, w.Code)
	var data dto.PaymentResponse
	decode(t, w, &data)
	assert.Equal(t, paymentapp.MessageInvoiceWithFile, data.Message)
	submitter.AssertExpectations(t)
}

func TestPaymentHandler_Submit_UnsupportedContentType(t *testing.T) {
	submitter := new(mockSubmitter)

	w := perform(newPaymentRouter(submitter), http.MethodPost, "/payments", "text/plain", strings.NewReader("INV-1"))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, dto.ErrCodeUnsupportedType, resp.Error.Code)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_Submit_MalformedJSON(t *testing.T) {
	submitter := new(mockSubmitter)

	w := perform(newPaymentRouter(submitter), http.MethodPost, "/payments", "application/json", strings.NewReader(`{"invoice_id":`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w, nil)
	assert.False(t, resp.OK)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_Submit_FailureKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("INVALID_BASE64", "bad base64"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"not found", shared.NewNotFoundError("SALES_INVOICE_NOT_FOUND", "INV-404 missing"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"business rule", shared.NewBusinessRuleError("NO_OUTSTANDING", "already paid"), http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule},
		{"too large", shared.NewPayloadTooLargeError("ATTACHMENT_TOO_LARGE", "15728641 bytes"), http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge},
		{"conflict", shared.NewConflictError("INVOICE_VERSION_CONFLICT", "stale version 3"), http.StatusConflict, dto.ErrCodeConflict},
		{"persistence", shared.NewPersistenceError("Failed to save payment entry", errors.New("pq: deadlock detected")), http.StatusInternalServerError, dto.ErrCodeInternal},
		{"untyped", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := new(mockSubmitter)
			submitter.On("Submit", mock.Anything, testActor, mock.Anything).
				Return(&paymentapp.SubmitResult{State: paymentapp.StateRolledBack}, tt.err)

			w := perform(newPaymentRouter(submitter), http.MethodPost, "/payments", "application/json",
				strings.NewReader(`{"invoice_id":"INV-1"}`))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			// the cause never reaches the client
			assert.NotContains(t, w.Body.String(), tt.err.Error())
		})
	}
}

func TestPaymentHandler_Submit_QueryFields(t *testing.T) {
	multipartBody := func(t *testing.T, fields map[string]string) (string, io.Reader) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		require.NoError(t, mw.Close())
		return mw.FormDataContentType(), &body
	}

	tests := []struct {
		name        string
		path        string
		body        func(t *testing.T) (string, io.Reader)
		wantInvoice string
		wantAmount  int64
	}{
		{
			name: "json body with invoice in query",
			path: "/payments?sales_invoice=INV-1",
			body: func(*testing.T) (string, io.Reader) {
				return "application/json", strings.NewReader(`{"amount":"5000"}`)
			},
			wantInvoice: "INV-1",
			wantAmount:  5000,
		},
		{
			name: "json body wins over query",
			path: "/payments?sales_invoice=INV-1&amount=1",
			body: func(*testing.T) (string, io.Reader) {
				return "application/json", strings.NewReader(`{"amount":5000}`)
			},
			wantInvoice: "INV-1",
			wantAmount:  5000,
		},
		{
			name: "urlencoded body with invoice in query",
			path: "/payments?sales_invoice=INV-1",
			body: func(*testing.T) (string, io.Reader) {
				return "application/x-www-form-urlencoded", strings.NewReader("amount=5000")
			},
			wantInvoice: "INV-1",
			wantAmount:  5000,
		},
		{
			name: "urlencoded body wins over query",
			path: "/payments?sales_invoice=INV-1&amount=1",
			body: func(*testing.T) (string, io.Reader) {
				return "application/x-www-form-urlencoded", strings.NewReader("amount=5000")
			},
			wantInvoice: "INV-1",
			wantAmount:  5000,
		},
		{
			name: "multipart body with invoice in query",
			path: "/payments?sales_invoice=INV-1&amount=1",
			body: func(t *testing.T) (string, io.Reader) {
				return multipartBody(t, map[string]string{"amount": "5000"})
			},
			wantInvoice: "INV-1",
			wantAmount:  5000,
		},
		{
			name: "undeclared json body with invoice in query",
			path: "/payments?sales_invoice=INV-1",
			body: func(*testing.T) (string, io.Reader) {
				return "", strings.NewReader(`{"amount":"5000"}`)
			},
			wantInvoice: "INV-1",
			wantAmount:  5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := new(mockSubmitter)
			submitter.On("Submit", mock.Anything, testActor, mock.MatchedBy(func(sub *payment.PaymentSubmission) bool {
				return sub.InvoiceID == tt.wantInvoice &&
					sub.Amount != nil && sub.Amount.Equal(decimal.NewFromInt(tt.wantAmount))
			})).Return(committed("PE-7", tt.wantInvoice, paymentapp.MessageInvoice), nil)

			contentType, body := tt.body(t)
			w := perform(newPaymentRouter(submitter), http.MethodPost, tt.path, contentType, body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			submitter.AssertExpectations(t)
		})
	}
}

func TestWithQuery(t *testing.T) {
	merged := withQuery(
		url.Values{"amount": {"5000"}},
		url.Values{"amount": {"1"}, "sales_invoice": {"INV-1"}},
	)

	assert.Equal(t, []string{"5000", "1"}, merged["amount"])
	assert.Equal(t, []string{"INV-1"}, merged["sales_invoice"])
}
