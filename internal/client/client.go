package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/rules"
	"github.com/Sey56/Paracore-sub001/internal/server/rpc"
	"github.com/Sey56/Paracore-sub001/internal/service"
)

// Client talks to a running paracore server over ScriptService.
type Client struct {
	logger     *slog.Logger
	serverAddr string
}

// Config holds configuration options for creating a Client
type Config struct {
	Logger     *slog.Logger
	ServerAddr string
}

// New creates a new client instance
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	return &Client{
		logger:     logger,
		serverAddr: cfg.ServerAddr,
	}
}

// invoke opens a connection, performs one unary call, and closes it again.
func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Error("Failed to close connection", "error", err)
		}
	}()

	c.logger.Debug("Calling server", "method", method, "server", c.serverAddr)
	if err := conn.Invoke(ctx, rpc.FullMethod(method), in, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, method, err)
	}
	return nil
}

// ExtractParameters returns the parameter descriptors of a single source text.
func (c *Client) ExtractParameters(ctx context.Context, source string) ([]script.Parameter, error) {
	var resp rpc.ParametersResponse
	if err := c.invoke(ctx, "ExtractParameters", &rpc.SourceRequest{Source: source}, &resp); err != nil {
		return nil, err
	}
	return resp.Parameters, nil
}

// UnitParameters returns the parameter descriptors of a multi-file unit.
func (c *Client) UnitParameters(ctx context.Context, files []script.File) ([]script.Parameter, error) {
	var resp rpc.ParametersResponse
	if err := c.invoke(ctx, "ExtractParameters", &rpc.SourceRequest{Files: files}, &resp); err != nil {
		return nil, err
	}
	return resp.Parameters, nil
}

// UnitMetadata returns the metadata of a named unit.
func (c *Client) UnitMetadata(ctx context.Context, name string, files []script.File) (script.Metadata, error) {
	var resp rpc.MetadataResponse
	req := &rpc.SourceRequest{ScriptName: name, Files: files}
	if err := c.invoke(ctx, "ExtractMetadata", req, &resp); err != nil {
		return script.Metadata{}, err
	}
	return resp.Metadata, nil
}

// IdentifyTopLevelScript returns the entry file of files, or nil.
func (c *Client) IdentifyTopLevelScript(ctx context.Context, files []script.File) (*script.File, error) {
	var resp rpc.TopLevelResponse
	if err := c.invoke(ctx, "IdentifyTopLevelScript", &rpc.FilesRequest{Files: files}, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &resp.File, nil
}

// Combine returns the combined compilation text of files.
func (c *Client) Combine(ctx context.Context, files []script.File) (string, error) {
	var resp rpc.CombineResponse
	if err := c.invoke(ctx, "CombineScripts", &rpc.FilesRequest{Files: files}, &resp); err != nil {
		return "", err
	}
	return resp.Source, nil
}

// EvaluateRules evaluates the visibility and enablement of the parameters
// of files against values.
func (c *Client) EvaluateRules(ctx context.Context, files []script.File, values map[string]any) ([]rules.State, error) {
	var resp rpc.RulesResponse
	req := &rpc.RulesRequest{Files: files, Values: values}
	if err := c.invoke(ctx, "EvaluateRules", req, &resp); err != nil {
		return nil, err
	}
	return resp.States, nil
}

// ComputeOptions resolves the options of one parameter.
func (c *Client) ComputeOptions(ctx context.Context, req service.OptionsRequest) (*options.Result, error) {
	var resp options.Result
	if err := c.invoke(ctx, "ComputeOptions", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Execute runs a script on the server. A script failure is reported in the
// result, not as an error.
func (c *Client) Execute(ctx context.Context, req service.ExecuteRequest) (*execution.Result, error) {
	c.logger.Info("Executing script", "script", req.ScriptName, "server", c.serverAddr)
	var resp execution.Result
	if err := c.invoke(ctx, "ExecuteScript", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LastResult returns the result of the last non read-only execution, or nil.
func (c *Client) LastResult(ctx context.Context) (*execution.Result, error) {
	var resp rpc.LastResultResponse
	if err := c.invoke(ctx, "GetLastResult", &rpc.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// connect establishes a connection to the server
func (c *Client) connect(_ context.Context) (*grpc.ClientConn, error) {
	addr := c.serverAddr
	if !strings.Contains(addr, "://") {
		addr = "tcp://" + addr
	}

	parts := strings.SplitN(addr, "://", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddressFormat, c.serverAddr)
	}

	network := parts[0]
	address := parts[1]
	callOpts := grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.CodecName))

	switch network {
	case "tcp":
		if strings.Count(address, ":") != 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTCPFormat, c.serverAddr)
		}

		c.logger.Debug("Connecting to server via TCP", "address", address)
		return grpc.NewClient(
			address,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			callOpts,
		)

	case "unix":
		c.logger.Debug("Connecting to server via Unix socket", "path", address)
		return grpc.NewClient(
			"unix:"+address,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			callOpts,
			grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", strings.TrimPrefix(addr, "unix:"))
			}),
		)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
	}
}
