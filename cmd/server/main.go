// Command server runs the RT management payment intake API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	notificationapp "github.com/rtmanagement/backend/internal/application/notification"
	paymentapp "github.com/rtmanagement/backend/internal/application/payment"
	reportapp "github.com/rtmanagement/backend/internal/application/report"
	salesapp "github.com/rtmanagement/backend/internal/application/sales"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/cache"
	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/rtmanagement/backend/internal/infrastructure/event"
	"github.com/rtmanagement/backend/internal/infrastructure/logger"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence"
	"github.com/rtmanagement/backend/internal/infrastructure/printing"
	"github.com/rtmanagement/backend/internal/infrastructure/storage"
	"github.com/rtmanagement/backend/internal/infrastructure/telegram"
	"github.com/rtmanagement/backend/internal/infrastructure/telemetry"
	"github.com/rtmanagement/backend/internal/interfaces/http/handler"
	"github.com/rtmanagement/backend/internal/interfaces/http/middleware"
	"github.com/rtmanagement/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.FromAppConfig(cfg.Log)
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// With OTEL logs enabled every entry is also exported to the collector
	logsProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if logsProvider.IsEnabled() {
		log, err = logger.New(logCfg, logsProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = logsProvider.Shutdown(shutdownCtx)
	}()

	log.Info("Starting payment intake service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		_ = profiler.Stop()
	}()

	// Telemetry first so that database spans have a provider
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.Open(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfigFrom(cfg.Telemetry), log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
	}
	dbMetrics.StartPoolStatsCollection(ctx)
	defer dbMetrics.Stop()

	// Repositories
	invoiceRepo := persistence.NewGormSalesInvoiceRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	errorLogRepo := persistence.NewGormErrorLogRepository(db.DB)
	cashReportRepo := persistence.NewGormCashReportRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus; notifications are delivered after commit on its workers
	eventBus := event.NewInMemoryEventBus(log, event.WithHandlerTimeout(cfg.Printing.RenderTimeout+cfg.Telegram.SendTimeout))

	renderer := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.RenderTimeout,
		RemoteURL:      cfg.Printing.RemoteURL,
		ExecPath:       cfg.Printing.ExecPath,
		NoSandbox:      os.Geteuid() == 0,
		Logger:         log,
	})
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()

	if cfg.Telegram.Enabled {
		bot, err := telegram.NewClient(&cfg.Telegram, telegram.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize telegram client", zap.Error(err))
		}
		notifier := notificationapp.NewTelegramNotificationHandler(
			invoiceRepo, customerRepo, bot, renderer, cfg.Telegram.SendTimeout, log,
		)
		eventBus.Subscribe(notifier)
		log.Info("Telegram notifications enabled", zap.Strings("events", notifier.EventTypes()))
	} else {
		log.Info("Telegram notifications disabled")
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Payment intake
	attachmentOpts := []paymentapp.AttachmentOption{paymentapp.WithMaxBytes(cfg.Intake.MaxAttachmentBytes)}
	if objects := newObjectStorage(ctx, cfg, log); objects != nil {
		attachmentOpts = append(attachmentOpts, paymentapp.WithObjectStorage(objects))
	}

	intakeOpts := []paymentapp.IntakeOption{}
	if meterProvider.IsEnabled() {
		intakeMetrics, err := telemetry.NewIntakeMetrics(meterProvider.Meter(telemetry.TracerName))
		if err != nil {
			log.Warn("Intake metrics disabled", zap.Error(err))
		} else {
			intakeOpts = append(intakeOpts, paymentapp.WithMetrics(intakeMetrics))
		}
	}

	if profiler.IsEnabled() {
		intakeOpts = append(intakeOpts, paymentapp.WithProfiler(telemetry.ProfileIntake))
	}

	intakeService := paymentapp.NewIntakeService(
		txScope,
		paymentapp.NewPaymentResolver(time.Now),
		paymentapp.NewAttachmentHandler(log, attachmentOpts...),
		errorLogRepo,
		eventBus,
		log,
		intakeOpts...,
	)
	reportService := reportapp.NewReportService(cashReportRepo, accountRepo, log)
	salesService := salesapp.NewSalesService(invoiceRepo, customerRepo, eventBus, log)

	actor, err := shared.NewActor(cfg.Intake.ServiceUser, cfg.Intake.DefaultCompany)
	if err != nil {
		log.Fatal("Invalid intake service user", zap.Error(err))
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	meter := meterProvider.Meter("rtm-backend/http")
	if !meterProvider.IsEnabled() {
		meter = nil
	}
	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:             cfg.HTTP,
		Production:       cfg.App.IsProduction(),
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		Meter:            meter,
		Logger:           log,
	})
	if err != nil {
		log.Fatal("Failed to configure HTTP engine", zap.Error(err))
	}

	router.RegisterAPI(router.NewRouter(engine), router.Handlers{
		Payment: handler.NewPaymentHandler(paymentapp.NewPayloadNormalizer(), intakeService, actor),
		Report:  handler.NewReportHandler(reportService),
		Sales:   handler.NewSalesHandler(salesService),
		Health:  handler.NewHealthHandler(db),
	}, middleware.Idempotency(idempotencyStore, cfg.Intake.IdempotencyTTL))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage returns the S3 store when attachments are kept outside the
// database, nil otherwise
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) paymentapp.ObjectStorage {
	if cfg.Storage.Backend != config.StorageBackendS3 {
		log.Info("Attachments stored in the database")
		return nil
	}

	s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize S3 storage", zap.Error(err))
	}

	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s3Store.EnsureBucket(ensureCtx); err != nil {
		log.Fatal("Failed to ensure S3 bucket", zap.Error(err), zap.String("bucket", s3Store.Bucket()))
	}

	log.Info("Attachments stored in S3", zap.String("bucket", s3Store.Bucket()))
	return s3Store
}
