package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Sey56/Paracore-sub001/internal/config"
)

var validateCmd = &cli.Command{
	Name:      "validate",
	Aliases:   []string{"lint"},
	Usage:     "Validate a configuration file",
	ArgsUsage: "<config.toml>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Show detailed tree view of the validated configuration",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Load environment variables from this file before expanding the config",
		},
	},
	Action: validateAction,
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("config file path required")
	}
	configPath := cmd.Args().Get(0)

	if err := loadEnvFile(cmd.String("env-file")); err != nil {
		return err
	}
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "Configuration file %s is valid\n", configPath)
	if cmd.Bool("tree") {
		fmt.Fprintln(w, cfg)
		return nil
	}
	fmt.Fprintln(w, renderConfigSummary(configPath, cfg))
	return nil
}

// renderConfigSummary creates a formatted summary string for the configuration
func renderConfigSummary(path string, cfg *config.Config) string {
	var summary strings.Builder

	summary.WriteString("\nConfig Summary:\n")
	fmt.Fprintf(&summary, "- Path: %s\n", path)
	fmt.Fprintf(&summary, "- RPC: %s\n", cfg.RPC.ListenAddr)
	if cfg.HTTPEnabled() {
		fmt.Fprintf(&summary, "- HTTP: %s (mcp=%t, metrics=%t)\n",
			cfg.HTTP.ListenAddr, cfg.HTTP.EnableMCP, cfg.HTTP.EnableMetrics)
	}
	if cfg.NotifyEnabled() {
		fmt.Fprintf(&summary, "- Notify: %s %s\n", cfg.Notify.Broker, cfg.Notify.Topic)
	}
	fmt.Fprintf(&summary, "- Default timeout: %s\n", cfg.Execution.DefaultTimeout)
	summary.WriteString("\nUse --tree for a more detailed view of the config.")

	return summary.String()
}

// loadEnvFile loads path, or a .env in the working directory when path is
// empty.
func loadEnvFile(path string) error {
	if path == "" {
		return config.LoadDotEnv()
	}
	return config.LoadDotEnv(path)
}
