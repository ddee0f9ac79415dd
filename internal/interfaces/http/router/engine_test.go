package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	"github.com/rtmanagement/backend/internal/domain/payment"
	"github.com/rtmanagement/backend/internal/domain/report"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/cache"
	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/rtmanagement/backend/internal/interfaces/http/handler"
	"github.com/rtmanagement/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type okSubmitter struct{}

func (okSubmitter) Submit(_ context.Context, _ shared.Actor, sub *payment.PaymentSubmission) (*paymentapp.SubmitResult, error) {
	return &paymentapp.SubmitResult{
		PaymentEntryID:     "PE-1",
		LinkedSalesInvoice: sub.InvoiceID,
		Message:            paymentapp.MessageInvoice,
		State:              paymentapp.StateCommitted,
	}, nil
}

type emptyReports struct{}

func (emptyReports) CashSummary(_ context.Context, f report.CashReportFilter) (*report.CashSummary, error) {
	return &report.CashSummary{Account: f.Account, FromDate: f.FromDate, ToDate: f.ToDate}, nil
}

func (emptyReports) CashLedger(_ context.Context, f report.CashReportFilter) (*report.CashLedger, error) {
	return &report.CashLedger{FromDate: f.FromDate, ToDate: f.ToDate}, nil
}

type noSales struct{}

func (noSales) CustomerUnits(context.Context, string) ([]string, error) { return []string{}, nil }
func (noSales) NotifyInvoiceSubmitted(context.Context, string) error    { return nil }

type upDB struct{}

func (upDB) Ping() error { return nil }

func newTestAPI(t *testing.T, maxBody int64) *gin.Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		HTTP: config.HTTPConfig{
			MaxBodySize:      maxBody,
			CORSAllowOrigins: []string{"https://warga.rt.example"},
		},
		ServiceName: "rtm-backend",
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	actor := shared.Actor{User: "intake@rt.local"}
	RegisterAPI(NewRouter(engine), Handlers{
		Payment: handler.NewPaymentHandler(paymentapp.NewPayloadNormalizer(), okSubmitter{}, actor),
		Report:  handler.NewReportHandler(emptyReports{}),
		Sales:   handler.NewSalesHandler(noSales{}),
		Health:  handler.NewHealthHandler(upDB{}),
	}, middleware.Idempotency(store, time.Hour))
	return engine
}

func TestRegisterAPI_Routes(t *testing.T) {
	engine := newTestAPI(t, 1<<20)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/v1/payments", `{"invoice_id":"INV-1"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/reports/cash-summary?from_date=2024-01-01&to_date=2024-01-31&account=Kas", "", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/cash-ledger?from_date=2024-01-01&to_date=2024-01-31", "", http.StatusOK},
		{http.MethodGet, "/api/v1/sales/customers/CUST-1/units", "", http.StatusOK},
		{http.MethodPost, "/api/v1/sales/invoices/INV-1/submitted", "", http.StatusAccepted},
		{http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRegisterAPI_IdempotentPayments(t *testing.T) {
	engine := newTestAPI(t, 1<<20)

	submit := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"invoice_id":"INV-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.IdempotencyKeyHeader, "pay-INV-1-march")
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, submit())
	assert.Equal(t, http.StatusConflict, submit())
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine := newTestAPI(t, 64)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments",
		strings.NewReader(`{"invoice_id":"INV-1","content_b64":"`+strings.Repeat("A", 128)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	engine := newTestAPI(t, 1<<20)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/payments", nil)
	req.Header.Set("Origin", "https://warga.rt.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://warga.rt.example", w.Header().Get("Access-Control-Allow-Origin"))
}
