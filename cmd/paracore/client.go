package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Sey56/Paracore-sub001/internal/client"
	"github.com/Sey56/Paracore-sub001/internal/client/mcp"
	"github.com/Sey56/Paracore-sub001/internal/config"
	"github.com/Sey56/Paracore-sub001/internal/fancy"
	"github.com/Sey56/Paracore-sub001/internal/service"
)

var clientCmd = &cli.Command{
	Name:  "client",
	Usage: "Talk to a running paracore server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address (tcp://host:port, host:port or unix:///path/to/socket)",
			Value:   config.DefaultRPCListenAddr,
			Sources: cli.EnvVars("PARACORE_SERVER"),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: config.DefaultTransportTimeout,
		},
	},
	Commands: []*cli.Command{
		clientExecCmd,
		clientParamsCmd,
		clientLastCmd,
		clientToolsCmd,
	},
}

func newClient(cmd *cli.Command) *client.Client {
	return client.New(client.Config{
		Logger:     slog.Default(),
		ServerAddr: cmd.String("server"),
	})
}

func withTimeout(ctx context.Context, cmd *cli.Command) (context.Context, context.CancelFunc) {
	if d := cmd.Duration("timeout"); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

var clientExecCmd = &cli.Command{
	Name:      "exec",
	Usage:     "Execute a script on the server",
	ArgsUsage: "<file|dir>...",
	Flags: []cli.Flag{
		formatFlag,
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Parameter value as name=value",
		},
		&cli.StringFlag{
			Name:  "params-json",
			Usage: "Parameters as a JSON object or a [{name,value}] list; overrides --param",
		},
		&cli.StringFlag{
			Name:  "program",
			Usage: "Run a program registered on the server instead of sending files",
		},
		&cli.BoolFlag{
			Name:  "read-only",
			Usage: "Run without allowing document changes",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		format := cmd.String("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		parameters, err := runParameters(cmd)
		if err != nil {
			return err
		}

		req := service.ExecuteRequest{
			Program:    cmd.String("program"),
			Parameters: parameters,
			ReadOnly:   cmd.Bool("read-only"),
			Source:     "cli",
		}
		if req.Program == "" {
			unit, err := readUnit(cmd.Args().Slice())
			if err != nil {
				return err
			}
			req.ScriptName = unit.Name
			req.Files = unit.Files
		}

		ctx, cancel := withTimeout(ctx, cmd)
		defer cancel()
		res, err := newClient(cmd).Execute(ctx, req)
		if err != nil {
			return err
		}
		return writeResult(cmd, format, res)
	},
}

var clientParamsCmd = &cli.Command{
	Name:      "params",
	Usage:     "Extract script parameters on the server",
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

		ctx, cancel := withTimeout(ctx, cmd)
		defer cancel()
		ps, err := newClient(cmd).UnitParameters(ctx, unit.Files)
		if err != nil {
			return err
		}
		if format == formatTree {
			_, err = fmt.Fprintln(cmd.Root().Writer, parametersTree(unit.Name, ps))
			return err
		}
		return writeData(cmd.Root().Writer, format, ps)
	},
}

var clientLastCmd = &cli.Command{
	Name:  "last",
	Usage: "Show the result of the most recent execution",
	Flags: []cli.Flag{formatFlag},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		format := cmd.String("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		ctx, cancel := withTimeout(ctx, cmd)
		defer cancel()
		res, err := newClient(cmd).LastResult(ctx)
		if err != nil {
			return err
		}
		if res == nil {
			_, err = fmt.Fprintln(cmd.Root().Writer, "No executions yet")
			return err
		}
		return writeResult(cmd, format, res)
	},
}

var clientToolsCmd = &cli.Command{
	Name:      "tools",
	Usage:     "List the MCP tools of a server, or call one",
	ArgsUsage: "[tool] [json-arguments]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "MCP endpoint URL",
			Value: "http://localhost:8080/mcp",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		ctx, cancel := withTimeout(ctx, cmd)
		defer cancel()

		session, err := mcp.NewClient("paracore-cli", cmd.Root().Version).
			Connect(ctx, mcp.NewStreamableTransport(cmd.String("url"), nil))
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", cmd.String("url"), err)
		}
		defer func() { _ = session.Close() }()

		w := cmd.Root().Writer
		if cmd.Args().Len() == 0 {
			tools, err := session.ListTools(ctx)
			if err != nil {
				return err
			}
			t := fancy.Tree()
			t.Root(fancy.RootStyle.Render("MCP tools"))
			for _, tool := range tools {
				t.Child(fancy.ParameterText(tool.Name) + " " + tool.Description)
			}
			_, err = fmt.Fprintln(w, t.String())
			return err
		}

		args := map[string]any{}
		if raw := cmd.Args().Get(1); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return fmt.Errorf("invalid tool arguments: %w", err)
			}
		}
		started := time.Now()
		res, err := session.CallTool(ctx, cmd.Args().Get(0), args)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, strings.Join(res.Text, "\n"))
		if res.IsError {
			return cli.Exit(fmt.Sprintf("tool %s failed after %s", cmd.Args().Get(0), time.Since(started).Round(time.Millisecond)), 2)
		}
		return nil
	},
}
