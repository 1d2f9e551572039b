package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/infrastructure/database"
	"github.com/setuphub/setuphub/internal/infrastructure/otel"
	"github.com/setuphub/setuphub/pkg/logger"
)

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger and, when OTEL export is on, tees
// every entry into the OTLP pipeline. The result is installed globally.
func newLogger(ctx context.Context, cfg *config.Config) (*logger.Logger, error) {
	lcfg := logger.DefaultConfig()
	lcfg.Development = cfg.Logging.Development
	if cfg.Logging.Level != "" {
		lcfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		lcfg.Format = cfg.Logging.Format
	}
	if cfg.Logging.Output != "" {
		lcfg.Output = logger.OutputType(cfg.Logging.Output)
	}
	if cfg.Logging.FilePath != "" {
		lcfg.FilePath = cfg.Logging.FilePath
	}

	base, err := logger.New(lcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	otelCfg := cfg.OTEL
	if lcfg.Output == logger.OutputOTEL {
		otelCfg.Enabled = true
	}

	log := base
	provider, err := otel.NewProvider(ctx, otelCfg, Version)
	switch {
	case errors.Is(err, otel.ErrDisabled):
	case err != nil:
		base.Warn("OTEL log export unavailable, logging locally only", logger.Error(err))
	default:
		level, lerr := logger.ParseLevel(lcfg.Level)
		if lerr != nil {
			level = zapcore.InfoLevel
		}
		log = logger.NewWithCore(lcfg, otel.Tee(base.Core(), provider, level), base, provider)
	}

	serviceName := otelCfg.ServiceName
	if serviceName == "" {
		serviceName = "setuphub"
	}

	logger.SetGlobal(log)
	return log.WithFields(
		logger.Service(serviceName),
		logger.Version(Version),
		logger.Environment(otelCfg.Environment),
	), nil
}

// openDatabase connects to the configured PostgreSQL database
func openDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.Database, error) {
	db, err := database.NewDatabase(ctx, &cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
