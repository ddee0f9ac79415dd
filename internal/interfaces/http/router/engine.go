package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/rtmanagement/backend/internal/infrastructure/logger"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"github.com/rtmanagement/backend/internal/interfaces/http/handler"
	"github.com/rtmanagement/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds what the middleware chain needs
type EngineConfig struct {
	HTTP             config.HTTPConfig
	Production       bool
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool         // labels profiling samples by route
	Meter            metric.Meter // nil disables HTTP metrics
	Logger           *zap.Logger
}

// NewEngine builds a gin engine with the standard middleware chain. The
// request id comes first so every later middleware can log it.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
	)
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(cfg.ServiceName), middleware.SpanEnricher())
	}
	if cfg.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}
	engine.Use(
		middleware.HTTPMetrics(cfg.Meter, cfg.Logger),
		middleware.Secure(middleware.DefaultSecurityConfig(cfg.Production)),
		middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine, nil
}

// Handlers are the endpoint handlers mounted by RegisterAPI
type Handlers struct {
	Payment *handler.PaymentHandler
	Report  *handler.ReportHandler
	Sales   *handler.SalesHandler
	Health  *handler.HealthHandler
}

// RegisterAPI mounts the intake API on r. idempotency guards the payment
// submission and may be nil.
func RegisterAPI(r *Router, h Handlers, idempotency gin.HandlerFunc) {
	payments := NewDomainGroup("payments", "/payments")
	if idempotency != nil {
		payments.Use(idempotency)
	}
	payments.POST("", h.Payment.Submit)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/cash-summary", h.Report.CashSummary)
	reports.GET("/cash-ledger", h.Report.CashLedger)

	sales := NewDomainGroup("sales", "/sales")
	sales.Group("customers", "/customers").GET("/:id/units", h.Sales.CustomerUnits)
	sales.Group("invoices", "/invoices").POST("/:id/submitted", h.Sales.InvoiceSubmitted)

	health := NewDomainGroup("health", "/health")
	health.GET("", h.Health.Health)

	r.Register(payments).Register(reports).Register(sales).Register(health)
	r.Setup()
}
