package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/setuphub/setuphub/internal/infrastructure/database"
)

func DBCommands() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			migrateCommand(),
			applyCommand(),
			statusCommand(),
			schemaCommand(),
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update tables from the models (GORM AutoMigrate)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(ctx, cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			db, err := database.NewDatabase(ctx, &cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.Writer, "Schema is up to date")
			return nil
		},
	}
}

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply versioned migrations with Atlas",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Migrations directory (defaults to database.migrations_dir)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print pending statements without executing them",
			},
			&cli.StringFlag{
				Name:  "baseline",
				Usage: "Baseline version for databases created by AutoMigrate",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withMigrator(ctx, cmd, func(m *database.Migrator) error {
				return m.WithDryRun(cmd.Bool("dry-run")).
					WithBaseline(cmd.String("baseline")).
					Apply(ctx)
			})
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show versioned migration status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Migrations directory (defaults to database.migrations_dir)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withMigrator(ctx, cmd, func(m *database.Migrator) error {
				status, err := m.Status(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.Writer, "Status:   %s\n", status.Status)
				fmt.Fprintf(cmd.Writer, "Current:  %s\n", status.Current)
				fmt.Fprintf(cmd.Writer, "Next:     %s\n", status.Next)
				fmt.Fprintf(cmd.Writer, "Pending:  %d\n", len(status.Pending))
				return nil
			})
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the DDL of all models, for `atlas migrate diff`",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dialect",
				Value: "postgres",
				Usage: "SQL dialect (postgres, sqlite)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ddl, err := database.SchemaDDL(cmd.String("dialect"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.Writer, ddl)
			return err
		},
	}
}

func withMigrator(ctx context.Context, cmd *cli.Command, fn func(*database.Migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	dir := cmd.String("dir")
	if dir == "" {
		dir = cfg.Database.MigrationsDir
	}

	db, err := database.NewDatabase(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := database.NewMigrator(db, dir, log)
	if err != nil {
		return err
	}
	return fn(m)
}
