// Package httpapi serves the HTTP side of the server: the MCP endpoint for
// agents, Prometheus metrics and a small status document.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

var (
	_ supervisor.Runnable  = (*HTTPServer)(nil)
	_ supervisor.Stateable = (*HTTPServer)(nil)
	_ supervisor.Readiness = (*HTTPServer)(nil)

	_ serverImplementation = (*httpserver.Runner)(nil)
)

// ErrNoAddress is returned when the server has no listen address.
var ErrNoAddress = errors.New("HTTP listen address cannot be empty")

// Timeouts configures the underlying http.Server.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
	Drain time.Duration
}

type serverImplementation interface {
	Run(ctx context.Context) error
	Stop()
	GetState() string
	IsReady() bool
	GetStateChan(ctx context.Context) <-chan string
}

// HTTPServer wraps the go-supervisor httpserver.Runner.
type HTTPServer struct {
	address  string
	routes   []httpserver.Route
	timeouts Timeouts
	logger   *slog.Logger
	server   serverImplementation
}

// NewHTTPServer creates a server for routes on address.
func NewHTTPServer(
	address string,
	routes []httpserver.Route,
	timeouts Timeouts,
	logger *slog.Logger,
) (*HTTPServer, error) {
	if address == "" {
		return nil, ErrNoAddress
	}
	if logger == nil {
		logger = slog.Default().WithGroup("httpapi")
	}

	s := &HTTPServer{
		address:  address,
		routes:   routes,
		timeouts: timeouts,
		logger:   logger,
	}

	configCallback := func() (*httpserver.Config, error) {
		options := []httpserver.ConfigOption{}
		if s.timeouts.Read > 0 {
			options = append(options, httpserver.WithReadTimeout(s.timeouts.Read))
		}
		if s.timeouts.Write > 0 {
			options = append(options, httpserver.WithWriteTimeout(s.timeouts.Write))
		}
		if s.timeouts.Idle > 0 {
			options = append(options, httpserver.WithIdleTimeout(s.timeouts.Idle))
		}
		if s.timeouts.Drain > 0 {
			options = append(options, httpserver.WithDrainTimeout(s.timeouts.Drain))
		}

		config, err := httpserver.NewConfig(s.address, s.routes, options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP server config: %w", err)
		}
		return config, nil
	}

	runner, err := httpserver.NewRunner(
		httpserver.WithConfigCallback(configCallback),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server runner: %w", err)
	}
	s.server = runner
	return s, nil
}

func (s *HTTPServer) String() string {
	return fmt.Sprintf("HTTPServer[%s]", s.address)
}

// Run starts the HTTP server and blocks until it stops.
func (s *HTTPServer) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", "address", s.address, "routes", len(s.routes))
	return s.server.Run(ctx)
}

// Stop stops the HTTP server.
func (s *HTTPServer) Stop() {
	s.logger.Info("Stopping HTTP server", "address", s.address)
	s.server.Stop()
}

func (s *HTTPServer) GetState() string {
	return s.server.GetState()
}

// IsRunning reports whether the server is serving requests.
func (s *HTTPServer) IsRunning() bool {
	return s.server.GetState() == finitestate.StatusRunning
}

// IsReady reports whether the listener is up, which the supervisor waits
// for before starting the next runnable.
func (s *HTTPServer) IsReady() bool {
	return s.server.IsReady()
}

func (s *HTTPServer) GetStateChan(ctx context.Context) <-chan string {
	return s.server.GetStateChan(ctx)
}
