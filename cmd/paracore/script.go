package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/Sey56/Paracore-sub001/internal/service"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "Output format (tree, json, yaml)",
	Value:   formatTree,
}

// localService is the facade without a dispatcher; it serves the commands
// that only inspect source.
func localService() *service.Service {
	return service.New(nil, service.WithLogHandler(slog.Default().Handler()))
}

var paramsCmd = &cli.Command{
	Name:      "params",
	Usage:     "List the parameters a script declares",
	ArgsUsage: "<file|dir>...",
	Flags:     []cli.Flag{formatFlag},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		format := cmd.String("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		unit, err := readUnit(cmd.Args().Slice())
		if err != nil {
			return err
		}

		ps := localService().UnitParameters(unit.Files)
		if format == formatTree {
			_, err = fmt.Fprintln(cmd.Root().Writer, parametersTree(unit.Name, ps))
			return err
		}
		return writeData(cmd.Root().Writer, format, ps)
	},
}

var metadataCmd = &cli.Command{
	Name:      "metadata",
	Usage:     "Show the metadata of a script",
	ArgsUsage: "<file|dir>...",
	Flags:     []cli.Flag{formatFlag},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		format := cmd.String("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		unit, err := readUnit(cmd.Args().Slice())
		if err != nil {
			return err
		}

		md := localService().UnitMetadata(unit.Name, unit.Files)
		if format == formatTree {
			_, err = fmt.Fprintln(cmd.Root().Writer, metadataTree(md))
			return err
		}
		return writeData(cmd.Root().Writer, format, md)
	},
}

var combineCmd = &cli.Command{
	Name:      "combine",
	Usage:     "Print the combined source of a multi-file script",
	ArgsUsage: "<file|dir>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "entry",
			Usage: "Print only the name of the top-level file",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		unit, err := readUnit(cmd.Args().Slice())
		if err != nil {
			return err
		}

		svc := localService()
		w := cmd.Root().Writer
		if cmd.Bool("entry") {
			entry := svc.IdentifyTopLevelScript(unit.Files)
			if entry == nil {
				return fmt.Errorf("no top-level script in %s", unit.Name)
			}
			_, err = fmt.Fprintln(w, entry.Name)
			return err
		}
		_, err = fmt.Fprint(w, svc.Combine(unit.Files))
		return err
	},
}

var rulesCmd = &cli.Command{
	Name:      "rules",
	Usage:     "Evaluate parameter visibility and enablement for a set of values",
	ArgsUsage: "<file|dir>...",
	Flags: []cli.Flag{
		formatFlag,
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Parameter value as name=value",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		format := cmd.String("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		unit, err := readUnit(cmd.Args().Slice())
		if err != nil {
			return err
		}
		raw, err := parseParamFlags(cmd.StringSlice("param"))
		if err != nil {
			return err
		}
		values := map[string]any{}
		if raw != nil {
			if err := json.Unmarshal(raw, &values); err != nil {
				return err
			}
		}

		states := localService().EvaluateRules(unit.Files, values)
		if format == formatTree {
			_, err = fmt.Fprintln(cmd.Root().Writer, rulesTree(states))
			return err
		}
		return writeData(cmd.Root().Writer, format, states)
	},
}
