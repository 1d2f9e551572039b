package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/setuphub/setuphub/internal/injectable"
	"github.com/setuphub/setuphub/internal/observability"
	"github.com/setuphub/setuphub/internal/server"
	"github.com/setuphub/setuphub/internal/transport/http/router"
	"github.com/setuphub/setuphub/pkg/logger"
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Run GORM AutoMigrate before serving",
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("migrate") {
		cfg.Database.AutoMigrate = true
	}

	log, err := newLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return err
	}
	defer db.Close()

	metrics := observability.NewMetrics()
	deps, err := injectable.LoadDependencies(ctx, cfg, db, metrics, log)
	if err != nil {
		return fmt.Errorf("failed to load dependencies: %w", err)
	}

	srv := server.New(cfg, db, log)
	router.NewRouter(srv, deps).RegisterRoutes()

	if cfg.Maintenance.Enabled {
		deps.MaintenanceService.Start()
		defer deps.MaintenanceService.Stop()
	}

	log.Info("Starting SetupHub",
		logger.String("addr", cfg.ServerAddress()),
		logger.String("mode", cfg.Server.Mode),
		logger.Bool("sign_in_enabled", deps.OAuthService.IsEnabled()),
	)
	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP server stopped with error", logger.Error(err))
		return err
	}
	db.LogStats()
	log.Info("Shutdown complete")
	return nil
}
