package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storepulse/backend/internal/infrastructure/config"
	"github.com/storepulse/backend/internal/infrastructure/logger"
	"github.com/storepulse/backend/internal/infrastructure/telemetry"
)

const pingTimeout = 5 * time.Second

// Database is the shared GORM handle for the commerce source tables and the
// snapshot tables.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the PostgreSQL connection described by cfg. SQL is logged
// through zapLogger at the application log level and, when enabled, traced
// with otelgorm.
func NewDatabase(cfg *config.Config, zapLogger *zap.Logger) (*Database, error) {
	return openDatabase(postgres.Open(cfg.Database.DSN()), cfg, zapLogger)
}

func openDatabase(dialector gorm.Dialector, cfg *config.Config, zapLogger *zap.Logger) (*Database, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(zapLogger.Named("gorm"), logger.GormConfig{
			Level:         cfg.Log.Level,
			SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}),
		// Rebuilds open their own transactions around staging and publish.
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, zapLogger)
	if err := tracing.RegisterOtelGorm(db); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	d := &Database{DB: db}
	sqlDB, err := d.sqlDB()
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, cfg.Database)

	if err := d.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

func configurePool(sqlDB *sql.DB, cfg config.DatabaseConfig) {
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Ping checks the connection, giving up after five seconds
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Stats returns connection pool statistics
func (d *Database) Stats() (sql.DBStats, error) {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Close closes the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
