package commands

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Version is stamped at build time with -ldflags "-X ...commands.Version=..."
var Version = "dev"

type CommandRegistry struct {
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

func (*CommandRegistry) RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:                  "setuphub",
		Usage:                 "Share and discover editor setups",
		Version:               Version,
		Suggest:               true,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.yaml",
				Sources: cli.EnvVars("SETUPHUB_CONFIG"),
			},
		},
		Action: RootCommand(),
		Commands: []*cli.Command{
			ServeCommand(),
			DBCommands(),
			OpenAPICommand(),
			MaintenanceCommands(),
		},
	}
}

func RootCommand() cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cmd.Writer.Write([]byte("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"))
		cmd.Writer.Write([]byte("SetupHub " + Version + "\n"))
		cmd.Writer.Write([]byte("Use 'setuphub --help' to see available commands.\n"))
		cmd.Writer.Write([]byte("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"))
		return nil
	}
}
