package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/engine/polyscript"
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/execution/dispatcher"
	"github.com/Sey56/Paracore-sub001/internal/host/hostthread"
	"github.com/Sey56/Paracore-sub001/internal/host/sqlhost"
	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

var errThreadStart = errors.New("host thread did not start")

var runCmd = &cli.Command{
	Name:      "run",
	Usage:     "Run a script locally against a sqlite document",
	ArgsUsage: "<file|dir>...",
	Flags: []cli.Flag{
		formatFlag,
		&cli.StringFlag{
			Name:  "dsn",
			Usage: "Document database, a sqlite file or :memory:",
			Value: ":memory:",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Document title",
			Value: "Untitled",
		},
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Parameter value as name=value",
		},
		&cli.StringFlag{
			Name:  "params-json",
			Usage: "Parameters as a JSON object or a [{name,value}] list; overrides --param",
		},
		&cli.BoolFlag{
			Name:  "read-only",
			Usage: "Run without allowing document changes",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Execution deadline",
			Value: dispatcher.DefaultTimeout,
		},
		&cli.DurationFlag{
			Name:  "max-extension",
			Usage: "Longest deadline a script may extend itself to (0 for no cap)",
		},
	},
	Action: runAction,
}

func runParameters(cmd *cli.Command) (json.RawMessage, error) {
	if raw := cmd.String("params-json"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("--params-json is not valid JSON")
		}
		return json.RawMessage(raw), nil
	}
	return parseParamFlags(cmd.StringSlice("param"))
}

// startThread runs a host thread until the returned stop function is called.
func startThread(ctx context.Context, handler slog.Handler) (*hostthread.Runner, func(), error) {
	thread, err := hostthread.NewRunner(hostthread.WithLogHandler(handler))
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- thread.Run(runCtx) }()
	stop := func() {
		cancel()
		<-errCh
	}

	subCtx, unsubscribe := context.WithTimeout(ctx, 5*time.Second)
	defer unsubscribe()
	states := thread.GetStateChan(subCtx)
	for {
		select {
		case state, ok := <-states:
			if !ok {
				stop()
				return nil, nil, errThreadStart
			}
			if state == finitestate.StatusRunning {
				return thread, stop, nil
			}
		case err := <-errCh:
			cancel()
			return nil, nil, errors.Join(errThreadStart, err)
		}
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	unit, err := readUnit(cmd.Args().Slice())
	if err != nil {
		return err
	}
	parameters, err := runParameters(cmd)
	if err != nil {
		return err
	}

	handler := slog.Default().Handler()
	doc, err := sqlhost.Open(cmd.String("dsn"),
		sqlhost.WithTitle(cmd.String("title")),
		sqlhost.WithLogHandler(handler),
	)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	thread, stop, err := startThread(ctx, handler)
	if err != nil {
		return err
	}
	defer stop()

	programs := engine.NewRegistry(polyscript.NewCompiler(polyscript.WithLogHandler(handler)))
	d := dispatcher.New(thread, doc,
		dispatcher.WithLogHandler(handler),
		dispatcher.WithCompiler(programs),
		dispatcher.WithDefaultTimeout(cmd.Duration("timeout")),
		dispatcher.WithMaxExtension(cmd.Duration("max-extension")),
	)

	res := d.Execute(ctx, dispatcher.Request{
		ScriptName: unit.Name,
		Files:      unit.Files,
		Parameters: parameters,
		ReadOnly:   cmd.Bool("read-only"),
		Source:     "cli",
	})
	return writeResult(cmd, format, res)
}

// writeResult prints res and turns a failed execution into exit status 2.
func writeResult(cmd *cli.Command, format string, res *execution.Result) error {
	w := cmd.Root().Writer
	var err error
	if format == formatTree {
		_, err = fmt.Fprintln(w, resultTree(res))
	} else {
		err = writeData(w, format, res)
	}
	if err != nil {
		return err
	}
	if !res.IsSuccess {
		return cli.Exit(fmt.Sprintf("script %s finished %s", res.ScriptName, res.State), 2)
	}
	return nil
}
