package main

import (
	"context"
	"fmt"
	"os"

	"github.com/setuphub/setuphub/internal/application/commands"
)

func main() {
	cmd := commands.NewCommandRegistry().RegisterCLI()

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
