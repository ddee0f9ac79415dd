package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/rtmanagement/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultPingTimeout = 5 * time.Second

// Database wraps the GORM handle shared by every repository
type Database struct {
	DB *gorm.DB
}

type openOptions struct {
	gormLogger  logger.Interface
	prepareStmt bool
	pingTimeout time.Duration
}

// OpenOption configures Open
type OpenOption func(*openOptions)

// WithGormLogger routes GORM logging through l, usually the zap-backed
// logger.GormLogger
func WithGormLogger(l logger.Interface) OpenOption {
	return func(o *openOptions) {
		if l != nil {
			o.gormLogger = l
		}
	}
}

// WithPreparedStatements toggles GORM's prepared statement cache
func WithPreparedStatements(enabled bool) OpenOption {
	return func(o *openOptions) {
		o.prepareStmt = enabled
	}
}

// WithPingTimeout bounds the connectivity check made by Open
func WithPingTimeout(d time.Duration) OpenOption {
	return func(o *openOptions) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// Open connects to PostgreSQL, applies the pool limits from cfg and checks
// the connection before returning
func Open(cfg *config.DatabaseConfig, opts ...OpenOption) (*Database, error) {
	o := openOptions{
		gormLogger:  logger.Default.LogMode(logger.Silent),
		prepareStmt: true,
		pingTimeout: defaultPingTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            o.prepareStmt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), o.pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.DBName, err)
	}

	return &Database{DB: db}, nil
}

// Close closes the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates the tables from the persistence models. Deployed
// schemas come from the SQL migrations; this serves SQLite-backed tests.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.AllModels()...)
}
