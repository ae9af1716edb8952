// Package service is the surface the transports call: extraction and
// combination of script text, options resolution, and execution with a
// bounded wait.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/execution/dispatcher"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/combine"
	"github.com/Sey56/Paracore-sub001/internal/script/metadata"
	"github.com/Sey56/Paracore-sub001/internal/script/params"
	"github.com/Sey56/Paracore-sub001/internal/script/rules"
)

// DefaultTransportTimeout bounds how long Execute waits for the dispatcher.
const DefaultTransportTimeout = 5 * time.Minute

var (
	// ErrTransportTimeout is reported when the dispatcher does not answer in time.
	ErrTransportTimeout = errors.New("no response from the execution dispatcher")

	// ErrUnknownProgram is returned for a program name nothing is registered under.
	ErrUnknownProgram = errors.New("unknown program")
)

// Dispatcher executes requests. *dispatcher.Dispatcher implements it.
type Dispatcher interface {
	Execute(ctx context.Context, req dispatcher.Request) *execution.Result
	LastResult() *execution.Result
}

// ExecuteRequest is an execution as the transports describe it.
type ExecuteRequest struct {
	ScriptName string          `json:"scriptName"`
	Files      []script.File   `json:"files,omitempty"`
	Program    string          `json:"program,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	ReadOnly   bool            `json:"isReadOnly"`
	Source     string          `json:"source,omitempty"`
	Timeout    time.Duration   `json:"timeout,omitempty"`
}

// OptionsRequest asks for the options of one parameter.
type OptionsRequest struct {
	ScriptName    string          `json:"scriptName"`
	Files         []script.File   `json:"files"`
	Program       string          `json:"program,omitempty"`
	ParameterName string          `json:"parameterName"`
	Values        json.RawMessage `json:"currentValues,omitempty"`
}

// Service implements the calls the transports expose.
type Service struct {
	logger           *slog.Logger
	dispatcher       Dispatcher
	options          *options.Engine
	programs         *engine.Registry
	transportTimeout time.Duration

	mu      sync.Mutex
	lastRun map[string]time.Time
}

// New creates a service.
func New(d Dispatcher, opts ...Option) *Service {
	s := &Service{
		logger:           slog.Default().WithGroup("service"),
		dispatcher:       d,
		transportTimeout: DefaultTransportTimeout,
		lastRun:          make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractParameters returns the parameter descriptors of source.
func (s *Service) ExtractParameters(source string) []script.Parameter {
	return params.NewExtractor(params.WithLogger(s.logger)).Extract(source)
}

// ExtractMetadata returns the metadata of source.
func (s *Service) ExtractMetadata(source string) script.Metadata {
	return metadata.Extract(source)
}

// UnitParameters extracts the parameters of a multi-file unit.
func (s *Service) UnitParameters(files []script.File) []script.Parameter {
	return s.ExtractParameters(combine.Combine(files))
}

// UnitMetadata extracts the metadata of a unit from its entry file, or from
// the first file when it has none, and adds the name and last run time.
func (s *Service) UnitMetadata(name string, files []script.File) script.Metadata {
	source := ""
	if entry := combine.IdentifyTopLevelScript(files); entry != nil {
		source = entry.Content
	} else if len(files) > 0 {
		source = files[0].Content
	}
	md := metadata.Extract(source)
	if md.Name == "" {
		md.Name = name
	}
	s.mu.Lock()
	if t, ok := s.lastRun[name]; ok {
		md.LastRun = t.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()
	return md
}

// IdentifyTopLevelScript returns the entry file of files, or nil.
func (s *Service) IdentifyTopLevelScript(files []script.File) *script.File {
	return combine.IdentifyTopLevelScript(files)
}

// Combine merges files into one compilation text.
func (s *Service) Combine(files []script.File) string {
	return combine.Combine(files)
}

// EvaluateRules evaluates the visibility and enablement conditions of the
// parameters of files against values.
func (s *Service) EvaluateRules(files []script.File, values map[string]any) []rules.State {
	return rules.Evaluate(s.UnitParameters(files), values)
}

// ComputeOptions resolves the options and range of one parameter.
func (s *Service) ComputeOptions(ctx context.Context, req OptionsRequest) options.Result {
	if s.options == nil {
		return options.Result{Options: []string{}, ErrorMessage: "options engine is not configured"}
	}
	unit := options.Unit{Name: req.ScriptName, Files: req.Files}
	if req.Program != "" {
		prog, err := s.program(req.Program)
		if err != nil {
			return options.Result{Options: []string{}, ErrorMessage: err.Error()}
		}
		unit.Program = prog
	}
	return s.options.ComputeOptions(ctx, unit, req.ParameterName, req.Values)
}

func (s *Service) program(name string) (engine.Program, error) {
	if s.programs != nil {
		if p, ok := s.programs.Lookup(name); ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
}

// Execute runs a script and waits at most the transport timeout for the
// dispatcher. When the wait runs out the request is abandoned and a failed
// result is returned; the script itself is bounded by its own deadline.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) *execution.Result {
	dreq := dispatcher.Request{
		ScriptName: req.ScriptName,
		Files:      req.Files,
		Parameters: req.Parameters,
		ReadOnly:   req.ReadOnly,
		Source:     req.Source,
		Timeout:    req.Timeout,
	}
	if req.Program != "" {
		prog, err := s.program(req.Program)
		if err != nil {
			return execution.NewFailure(newID(), req.ScriptName, err)
		}
		dreq.Program = prog
		if dreq.ScriptName == "" {
			dreq.ScriptName = req.Program
		}
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan *execution.Result, 1)
	go func() {
		done <- s.dispatcher.Execute(waitCtx, dreq)
	}()

	var res *execution.Result
	select {
	case res = <-done:
	case <-time.After(s.transportTimeout):
		s.logger.Warn("Dispatcher did not answer in time",
			"script", dreq.ScriptName, "timeout", s.transportTimeout)
		res = execution.NewFailure(newID(), dreq.ScriptName,
			fmt.Errorf("%w within %s", ErrTransportTimeout, s.transportTimeout))
	case <-ctx.Done():
		res = execution.NewFailure(newID(), dreq.ScriptName, ctx.Err())
	}

	if !res.StartedAt.IsZero() {
		s.mu.Lock()
		s.lastRun[dreq.ScriptName] = time.Now()
		s.mu.Unlock()
	}
	return res
}

// LastResult returns the most recent non read-only result, or nil.
func (s *Service) LastResult() *execution.Result {
	return s.dispatcher.LastResult()
}

func newID() string {
	return uuid.Must(uuid.NewV6()).String()
}
