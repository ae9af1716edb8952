package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robbyt/go-supervisor/runnables/httpserver"

	"github.com/Sey56/Paracore-sub001/internal/execution"
)

const (
	PathMCP     = "/mcp"
	PathMetrics = "/metrics"
	PathStatus  = "/status"
)

// Dispatcher reports the execution state shown on the status page.
type Dispatcher interface {
	State() string
	LastResult() *execution.Result
}

// RouteConfig selects the endpoints to serve. Nil fields disable them,
// except the status page which is always present.
type RouteConfig struct {
	MCPServer  *mcpsdk.Server
	Gatherer   prometheus.Gatherer
	Dispatcher Dispatcher
	Version    string
	Logger     *slog.Logger
}

// Status is the document served on PathStatus.
type Status struct {
	Version       string `json:"version"`
	State         string `json:"state"`
	LastExecution string `json:"lastExecutionId,omitempty"`
	LastScript    string `json:"lastScript,omitempty"`
	LastSucceeded *bool  `json:"lastSucceeded,omitempty"`
}

// Handlers returns the enabled handlers keyed by path.
func Handlers(cfg RouteConfig) map[string]http.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().WithGroup("httpapi")
	}

	handlers := map[string]http.HandlerFunc{
		PathStatus: statusHandler(cfg, logger),
	}
	if cfg.MCPServer != nil {
		server := cfg.MCPServer
		h := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
			return server
		}, nil)
		handlers[PathMCP] = h.ServeHTTP
	}
	if cfg.Gatherer != nil {
		handlers[PathMetrics] = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}).ServeHTTP
	}
	return handlers
}

// Routes wraps Handlers as go-supervisor routes.
func Routes(cfg RouteConfig) ([]httpserver.Route, error) {
	handlers := Handlers(cfg)
	routes := make([]httpserver.Route, 0, len(handlers))
	for _, path := range []string{PathStatus, PathMCP, PathMetrics} {
		h, ok := handlers[path]
		if !ok {
			continue
		}
		route, err := httpserver.NewRouteFromHandlerFunc(path[1:], path, h)
		if err != nil {
			return nil, fmt.Errorf("failed to create route %s: %w", path, err)
		}
		routes = append(routes, *route)
	}
	return routes, nil
}

func statusHandler(cfg RouteConfig, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := Status{Version: cfg.Version, State: execution.StateIdle}
		if cfg.Dispatcher != nil {
			st.State = cfg.Dispatcher.State()
			if last := cfg.Dispatcher.LastResult(); last != nil {
				ok := last.IsSuccess
				st.LastExecution = last.ExecutionID
				st.LastScript = last.ScriptName
				st.LastSucceeded = &ok
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			logger.Error("Failed to write status", "error", err)
		}
	}
}
