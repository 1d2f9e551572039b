package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/pkg/logger"
)

// Connection pool settings
const (
	maxIdleConns    = 10
	maxOpenConns    = 50
	connMaxLifetime = time.Hour
	connMaxIdleTime = 10 * time.Minute
)

// Database wraps the GORM database connection
type Database struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	log    *logger.Logger
}

// NewDatabase opens a PostgreSQL connection and verifies it with a ping
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) (*Database, error) {
	log = log.WithComponent("database")

	log.Info("Initializing database connection",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.DBName),
		logger.String("sslmode", cfg.SSLMode),
	)

	database, err := Open(postgres.Open(cfg.DSN()), log)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err), logger.String("host", cfg.Host))
		return nil, err
	}
	database.config = cfg

	sqlDB, err := database.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established")
	return database, nil
}

// Open builds a Database around any GORM dialector. Tests pass SQLite here.
func Open(dialector gorm.Dialector, log *logger.Logger) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db, log: log}, nil
}

// DB returns the underlying GORM database instance
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Dialect returns the active dialect name, e.g. "postgres" or "sqlite"
func (d *Database) Dialect() string {
	return d.db.Dialector.Name()
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		d.log.Error("Database ping failed", logger.Error(err))
		return err
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		d.log.Error("Failed to close database connection", logger.Error(err))
		return err
	}

	d.log.Info("Database connection closed")
	return nil
}

// LogStats logs the current connection pool statistics
func (d *Database) LogStats() {
	sqlDB, err := d.db.DB()
	if err != nil {
		return
	}

	stats := sqlDB.Stats()
	d.log.Info("Database connection pool statistics",
		logger.Int("max_open_connections", stats.MaxOpenConnections),
		logger.Int("open_connections", stats.OpenConnections),
		logger.Int("in_use", stats.InUse),
		logger.Int("idle", stats.Idle),
		logger.Int64("wait_count", stats.WaitCount),
		logger.Duration("wait_duration", stats.WaitDuration),
	)
}
