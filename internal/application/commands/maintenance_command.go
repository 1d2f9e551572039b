package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/infrastructure/repository"
	"github.com/setuphub/setuphub/internal/observability"
)

func MaintenanceCommands() *cli.Command {
	return &cli.Command{
		Name:  "maintenance",
		Usage: "One-off housekeeping",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Purge expired sessions and reconcile star counts once",
				Action: runMaintenance,
			},
		},
	}
}

func runMaintenance(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := service.NewSessionService(repository.NewSessionRepository(db.DB()), cfg.Auth.Session, log)
	if err != nil {
		return err
	}
	maintenance := service.NewMaintenanceService(
		sessions,
		repository.NewStarRepository(db.DB()),
		observability.NewMetrics(),
		cfg.Maintenance.Interval(),
		log,
	)

	report, err := maintenance.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Writer, "Expired sessions purged: %d\n", report.ExpiredSessions)
	fmt.Fprintf(cmd.Writer, "Setups reconciled:       %d\n", report.ReconciledSetups)
	return nil
}
