package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/Sey56/Paracore-sub001/cmd/paracore/server"
	"github.com/Sey56/Paracore-sub001/internal/config"
	"github.com/Sey56/Paracore-sub001/internal/logging"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "Start the paracore server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to TOML configuration file",
			Sources: cli.EnvVars("PARACORE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "Address to bind the gRPC service (host:port or unix:/path/to/socket)",
		},
		&cli.StringFlag{
			Name:  "http",
			Usage: "Address to bind the HTTP surface; enables the MCP and metrics endpoints",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Load environment variables from this file before expanding the config",
		},
	},
	Action: serverAction,
}

func loadServerConfig(cmd *cli.Command) (*config.Config, error) {
	if err := loadEnvFile(cmd.String("env-file")); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.NewConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if addr := cmd.String("listen"); addr != "" {
		cfg.RPC.ListenAddr = addr
	}
	if addr := cmd.String("http"); addr != "" {
		cfg.HTTP.ListenAddr = addr
		cfg.HTTP.EnableMCP = true
		cfg.HTTP.EnableMetrics = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrFailedToValidateConfig, err)
	}
	return cfg, nil
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger := slog.Default()
	if cmd.String("config") != "" {
		handler, closer, err := logging.NewHandler(cfg.LoggingOptions())
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to set up logging: %w", err), 1)
		}
		defer func() { _ = closer.Close() }()
		logger = slog.New(handler)
		slog.SetDefault(logger)
	}

	if err := server.Run(ctx, logger, cfg, cmd.Root().Version); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
