package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "paracore",
		Version: Version,
		Usage:   "Extract, inspect and run parameterized Revit scripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("PARACORE_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("PARACORE_LOG_FORMAT"),
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			serverCmd,
			paramsCmd,
			metadataCmd,
			combineCmd,
			rulesCmd,
			runCmd,
			clientCmd,
			validateCmd,
			versionCmd,
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
