// Package server wires the paracore components into a supervised process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/Sey56/Paracore-sub001/internal/config"
	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/engine/polyscript"
	"github.com/Sey56/Paracore-sub001/internal/execution/dispatcher"
	"github.com/Sey56/Paracore-sub001/internal/host/hostthread"
	"github.com/Sey56/Paracore-sub001/internal/host/sqlhost"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/server/httpapi"
	"github.com/Sey56/Paracore-sub001/internal/server/mcp"
	"github.com/Sey56/Paracore-sub001/internal/server/notify"
	"github.com/Sey56/Paracore-sub001/internal/server/rpc"
	"github.com/Sey56/Paracore-sub001/internal/service"
)

// Name is reported by the MCP server.
const Name = "paracore"

// Components are the parts of a running server. Runnables are ordered for
// startup; the supervisor stops them in reverse.
type Components struct {
	Thread     *hostthread.Runner
	Document   *sqlhost.Document
	Dispatcher *dispatcher.Dispatcher
	Service    *service.Service
	Programs   *engine.Registry
	Registry   *prometheus.Registry
	RPC        *rpc.Runner
	HTTP       *httpapi.HTTPServer
	Publisher  *notify.Publisher
	Runnables  []supervisor.Runnable
}

// Close releases the document.
func (c *Components) Close() error {
	return c.Document.Close()
}

// Build creates every component cfg enables without starting any of them.
func Build(ctx context.Context, logger *slog.Logger, cfg *config.Config, version string) (*Components, error) {
	handler := logger.Handler()
	c := &Components{Registry: prometheus.NewRegistry()}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	thread, err := hostthread.NewRunner(
		hostthread.WithContext(ctx),
		hostthread.WithLogHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create host thread: %w", err)
	}
	c.Thread = thread
	c.Runnables = append(c.Runnables, thread)

	doc, err := sqlhost.Open(
		cfg.Host.DSN,
		sqlhost.WithTitle(cfg.Host.Title),
		sqlhost.WithDocumentType(cfg.Host.DocumentType),
		sqlhost.WithLogHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open host document: %w", err)
	}
	c.Document = doc

	if cfg.Engine.Compile {
		c.Programs = engine.NewRegistry(polyscript.NewCompiler(polyscript.WithLogHandler(handler)))
	} else {
		c.Programs = engine.NewRegistry()
	}

	dispatcherOpts := []dispatcher.Option{
		dispatcher.WithLogHandler(handler),
		dispatcher.WithCompiler(c.Programs),
		dispatcher.WithDefaultTimeout(cfg.Execution.DefaultTimeout.AsDuration()),
		dispatcher.WithMaxExtension(cfg.Execution.MaxTimeoutExtension.AsDuration()),
		dispatcher.WithMetrics(dispatcher.NewMetrics(c.Registry)),
	}
	if cfg.NotifyEnabled() {
		notifyOpts := []notify.Option{
			notify.WithLogHandler(handler),
			notify.WithTopic(cfg.Notify.Topic),
			notify.WithQoS(byte(cfg.Notify.QoS)),
		}
		if cfg.Notify.ClientID != "" {
			notifyOpts = append(notifyOpts, notify.WithClientID(cfg.Notify.ClientID))
		}
		publisher, err := notify.NewPublisher(cfg.Notify.Broker, notifyOpts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create change publisher: %w", err), doc.Close())
		}
		c.Publisher = publisher
		c.Runnables = append(c.Runnables, publisher)
		dispatcherOpts = append(dispatcherOpts, dispatcher.WithChangePublisher(publisher))
	}
	c.Dispatcher = dispatcher.New(thread, doc, dispatcherOpts...)

	serviceOpts := []service.Option{
		service.WithLogHandler(handler),
		service.WithPrograms(c.Programs),
		service.WithTransportTimeout(cfg.Execution.TransportTimeout.AsDuration()),
	}
	if cfg.Engine.Options {
		engineOpts := []options.Option{
			options.WithLogHandler(handler),
			options.WithCompiler(c.Programs),
		}
		serviceOpts = append(serviceOpts, service.WithOptionsEngine(options.New(c.Dispatcher, engineOpts...)))
	}
	c.Service = service.New(c.Dispatcher, serviceOpts...)

	c.RPC, err = rpc.New(c.Service, rpc.WithLogHandler(handler), rpc.WithListenAddr(cfg.RPC.ListenAddr))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create rpc runner: %w", err), doc.Close())
	}
	c.Runnables = append(c.Runnables, c.RPC)

	if cfg.HTTPEnabled() {
		routeCfg := httpapi.RouteConfig{
			Dispatcher: c.Dispatcher,
			Version:    version,
			Logger:     logger.WithGroup("httpapi"),
		}
		if cfg.HTTP.EnableMCP {
			routeCfg.MCPServer = mcp.NewServer(c.Service, Name, version, logger.WithGroup("mcp"))
		}
		if cfg.HTTP.EnableMetrics {
			routeCfg.Gatherer = c.Registry
		}
		routes, err := httpapi.Routes(routeCfg)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create http routes: %w", err), doc.Close())
		}
		c.HTTP, err = httpapi.NewHTTPServer(cfg.HTTP.ListenAddr, routes, httpapi.Timeouts{
			Read:  cfg.HTTP.ReadTimeout.AsDuration(),
			Write: cfg.HTTP.WriteTimeout.AsDuration(),
			Idle:  cfg.HTTP.IdleTimeout.AsDuration(),
			Drain: cfg.HTTP.DrainTimeout.AsDuration(),
		}, logger.WithGroup("httpapi"))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create http server: %w", err), doc.Close())
		}
		c.Runnables = append(c.Runnables, c.HTTP)
	}

	return c, nil
}

// Run builds the components and supervises them until ctx is canceled.
func Run(ctx context.Context, logger *slog.Logger, cfg *config.Config, version string) error {
	c, err := Build(ctx, logger, cfg, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close host document", "error", err)
		}
	}()

	logger.Info("Starting server", "rpc", cfg.RPC.ListenAddr, "http", cfg.HTTP.ListenAddr)
	return runComponents(ctx, logger, c)
}

func runComponents(ctx context.Context, logger *slog.Logger, c *Components) error {
	super, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(logger.Handler()),
		supervisor.WithRunnables(c.Runnables...),
	)
	if err != nil {
		return fmt.Errorf("failed to create supervisor: %w", err)
	}
	if err := super.Run(); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	logger.Info("Server shutdown complete")
	return nil
}
