package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gorm.io/driver/sqlite"

	"github.com/setuphub/setuphub/internal/infrastructure/database"
	"github.com/setuphub/setuphub/internal/infrastructure/storage"
	"github.com/setuphub/setuphub/internal/injectable"
	"github.com/setuphub/setuphub/internal/observability"
	"github.com/setuphub/setuphub/internal/server"
	"github.com/setuphub/setuphub/internal/transport/http/router"
	"github.com/setuphub/setuphub/pkg/logger"
)

func OpenAPICommand() *cli.Command {
	return &cli.Command{
		Name:  "openapi",
		Usage: "Write the OpenAPI document without starting the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "openapi.yaml",
				Usage:   "Output file; .json writes JSON, anything else YAML",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logger.NewNop()

			// routes only need a handle to build their services
			db, err := database.Open(sqlite.Open("file::memory:"), log)
			if err != nil {
				return err
			}
			defer db.Close()

			dir, err := os.MkdirTemp("", "setuphub-openapi-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
			blobs, err := storage.NewFilesystemStorage(dir)
			if err != nil {
				return err
			}

			deps, err := injectable.LoadDependencies(ctx, cfg, db, observability.NewMetrics(), log,
				injectable.WithIdentityProvider(nil),
				injectable.WithStorage(blobs),
			)
			if err != nil {
				return err
			}

			srv := server.New(cfg, db, log)
			router.NewRouter(srv, deps).RegisterRoutes()

			output := cmd.String("output")
			if err := srv.OpenAPIGenerator.Generate().SaveToFile(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.Writer, "OpenAPI document written to %s\n", output)
			return nil
		},
	}
}
