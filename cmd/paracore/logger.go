package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/Sey56/Paracore-sub001/internal/logging"
)

// setupLogger installs the default logger from the global flags. The server
// command replaces it once its config file is loaded.
func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	handler, _, err := logging.NewHandler(logging.Options{
		Level:  cmd.String("log-level"),
		Format: cmd.String("log-format"),
	})
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}
	slog.SetDefault(slog.New(handler))
	return ctx, nil
}
