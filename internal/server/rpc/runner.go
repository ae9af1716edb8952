package rpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/robbyt/go-supervisor/supervisor"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/rules"
	"github.com/Sey56/Paracore-sub001/internal/service"
)

// ErrNoListenAddr is returned by New when no listen address is configured.
var ErrNoListenAddr = errors.New("a listen address must be provided")

// Service is the part of *service.Service the gRPC surface exposes.
type Service interface {
	ExtractParameters(source string) []script.Parameter
	ExtractMetadata(source string) script.Metadata
	UnitParameters(files []script.File) []script.Parameter
	UnitMetadata(name string, files []script.File) script.Metadata
	IdentifyTopLevelScript(files []script.File) *script.File
	Combine(files []script.File) string
	EvaluateRules(files []script.File, values map[string]any) []rules.State
	ComputeOptions(ctx context.Context, req service.OptionsRequest) options.Result
	Execute(ctx context.Context, req service.ExecuteRequest) *execution.Result
	LastResult() *execution.Result
}

var (
	_ supervisor.Runnable = (*Runner)(nil)
	_ ScriptServiceServer = (*Runner)(nil)
	_ Service             = (*service.Service)(nil)
)

// Runner serves ScriptService over gRPC. It implements supervisor.Runnable.
type Runner struct {
	logger  *slog.Logger
	service Service

	mu              sync.Mutex
	grpcServer      GRPCServer
	listenAddr      string
	startGRPCServer StartGRPCServerFunc

	runCtx    context.Context
	runCancel context.CancelFunc
}

// New creates a Runner serving svc.
func New(svc Service, opts ...Option) (*Runner, error) {
	r := &Runner{
		logger:          slog.Default().WithGroup("rpc.Runner"),
		service:         svc,
		startGRPCServer: DefaultStartGRPCServer,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.listenAddr == "" {
		return nil, ErrNoListenAddr
	}
	r.runCtx, r.runCancel = context.WithCancel(context.Background())
	return r, nil
}

func (r *Runner) String() string {
	return "rpc.Runner"
}

// Run starts the gRPC server and blocks until ctx is canceled or Stop is called.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Debug("Starting Runner", "listen", r.listenAddr)

	srv, err := r.startGRPCServer(r.logger, r.listenAddr, r)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.grpcServer = srv
	r.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-r.runCtx.Done():
	}
	r.logger.Info("Runner shutting down")
	r.shutdown()
	return nil
}

// Stop gracefully stops the gRPC server and makes Run return.
func (r *Runner) Stop() {
	r.logger.Debug("Stopping Runner")
	r.runCancel()
}

func (r *Runner) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grpcServer != nil {
		r.grpcServer.GracefulStop()
		r.grpcServer = nil
		r.logger.Info("gRPC server stopped")
	}
}

func (r *Runner) ExtractParameters(
	_ context.Context,
	req *SourceRequest,
) (*ParametersResponse, error) {
	if len(req.Files) > 0 {
		return &ParametersResponse{Parameters: r.service.UnitParameters(req.Files)}, nil
	}
	return &ParametersResponse{Parameters: r.service.ExtractParameters(req.Source)}, nil
}

func (r *Runner) ExtractMetadata(
	_ context.Context,
	req *SourceRequest,
) (*MetadataResponse, error) {
	if len(req.Files) > 0 {
		return &MetadataResponse{Metadata: r.service.UnitMetadata(req.ScriptName, req.Files)}, nil
	}
	return &MetadataResponse{Metadata: r.service.ExtractMetadata(req.Source)}, nil
}

func (r *Runner) IdentifyTopLevelScript(
	_ context.Context,
	req *FilesRequest,
) (*TopLevelResponse, error) {
	entry := r.service.IdentifyTopLevelScript(req.Files)
	if entry == nil {
		return &TopLevelResponse{}, nil
	}
	return &TopLevelResponse{File: *entry, Found: true}, nil
}

func (r *Runner) CombineScripts(
	_ context.Context,
	req *FilesRequest,
) (*CombineResponse, error) {
	return &CombineResponse{Source: r.service.Combine(req.Files)}, nil
}

func (r *Runner) EvaluateRules(
	_ context.Context,
	req *RulesRequest,
) (*RulesResponse, error) {
	return &RulesResponse{States: r.service.EvaluateRules(req.Files, req.Values)}, nil
}

func (r *Runner) ComputeOptions(
	ctx context.Context,
	req *OptionsRequest,
) (*OptionsResponse, error) {
	if req.ParameterName == "" {
		return nil, status.Error(codes.InvalidArgument, "parameterName is required")
	}
	if len(req.Files) == 0 && req.Program == "" {
		return nil, status.Error(codes.InvalidArgument, "files or program is required")
	}
	res := r.service.ComputeOptions(ctx, *req)
	return &res, nil
}

func (r *Runner) ExecuteScript(
	ctx context.Context,
	req *ExecuteRequest,
) (*ExecuteResponse, error) {
	r.logger.Info("Received ExecuteScript request",
		"script", req.ScriptName, "read_only", req.ReadOnly)
	return r.service.Execute(ctx, *req), nil
}

func (r *Runner) GetLastResult(
	_ context.Context,
	_ *Empty,
) (*LastResultResponse, error) {
	res := r.service.LastResult()
	return &LastResultResponse{Result: res, Found: res != nil}, nil
}
