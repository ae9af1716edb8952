// Package options resolves the choices and numeric bounds of script
// parameters. Author-supplied provider functions are authoritative: when one
// exists its answer is final, even when empty. Host element enumeration is
// used only for element parameters that have no provider.
package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/engine/polyscript"
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/execution/dispatcher"
	"github.com/Sey56/Paracore-sub001/internal/host"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/combine"
	"github.com/Sey56/Paracore-sub001/internal/script/csharp"
	"github.com/Sey56/Paracore-sub001/internal/script/params"
)

// Result sources.
const (
	SourceStatic   = "static"
	SourceComputed = "computed"
	SourceElements = "revit-elements"
)

// Executor runs requests on the host. *dispatcher.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, req dispatcher.Request) *execution.Result
}

// Unit is the script whose parameter is being resolved.
type Unit struct {
	Name  string
	Files []script.File
	// Program is used instead of compiling Files when set.
	Program engine.Program
}

// Source returns the combined C# text of the unit.
func (u Unit) Source() string {
	return combine.Combine(u.Files)
}

// Range is a numeric range for a parameter.
type Range struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

// Result is the outcome of ComputeOptions.
type Result struct {
	Options      []string `json:"options"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Step         *float64 `json:"step,omitempty"`
	IsSuccess    bool     `json:"isSuccess"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// Engine executes provider functions in read-only executions.
type Engine struct {
	logger   *slog.Logger
	executor Executor
	compiler engine.Compiler
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogHandler sets a custom log handler for the Engine.
func WithLogHandler(handler slog.Handler) Option {
	return func(e *Engine) {
		e.logger = slog.New(handler)
	}
}

// WithCompiler sets the compiler used for units without a Program.
func WithCompiler(c engine.Compiler) Option {
	return func(e *Engine) {
		e.compiler = c
	}
}

// New creates an options engine that runs providers through executor.
func New(executor Executor, opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default().WithGroup("options"),
		executor: executor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasOptionsFunction reports, without executing anything, whether source
// declares an options or filter provider for parameterName. Both C#
// companions and Risor or Starlark functions are recognised.
func HasOptionsFunction(source, parameterName string) bool {
	if c := companionsOf(source, parameterName); c.ProvidesOptions() {
		return true
	}
	return hasScriptFunction(source, parameterName+params.SuffixOptions) ||
		hasScriptFunction(source, parameterName+params.SuffixFilter)
}

// HasRangeFunction reports whether source declares a range provider for
// parameterName.
func HasRangeFunction(source, parameterName string) bool {
	if c := companionsOf(source, parameterName); c != nil && c.Range != nil {
		return true
	}
	return hasScriptFunction(source, parameterName+params.SuffixRange)
}

func companionsOf(source, parameterName string) *params.Companions {
	decl := params.FindContainer(csharp.Parse(source))
	return params.FindCompanions(decl)[parameterName]
}

func hasScriptFunction(source, name string) bool {
	return polyscript.HasFunction(polyscript.LanguageRisor, source, name) ||
		polyscript.HasFunction(polyscript.LanguageStarlark, source, name)
}

// unitHas applies a detector to the combined C# text and to each script file.
func unitHas(u Unit, parameterName string, detect func(string, string) bool) bool {
	if detect(u.Source(), parameterName) {
		return true
	}
	for _, f := range u.Files {
		if _, ok := polyscript.LanguageOf(f.Name); ok && detect(f.Content, parameterName) {
			return true
		}
	}
	return false
}

// optionsMember picks the provider to call: _Options, then _Filter.
func optionsMember(u Unit, parameterName string) string {
	options := parameterName + params.SuffixOptions
	if c := companionsOf(u.Source(), parameterName); c != nil {
		if c.Options != nil {
			return options
		}
		if c.Filter != nil {
			return parameterName + params.SuffixFilter
		}
	}
	for _, f := range u.Files {
		lang, ok := polyscript.LanguageOf(f.Name)
		if !ok {
			continue
		}
		if polyscript.HasFunction(lang, f.Content, options) {
			return options
		}
		if polyscript.HasFunction(lang, f.Content, parameterName+params.SuffixFilter) {
			return parameterName + params.SuffixFilter
		}
	}
	return options
}

// ExecuteOptionsFunction runs the parameter's options provider read-only and
// returns its list as is. A failing provider yields a *ProviderError.
func (e *Engine) ExecuteOptionsFunction(
	ctx context.Context, u Unit, parameterName string, values json.RawMessage,
) ([]string, error) {
	if !unitHas(u, parameterName, HasOptionsFunction) {
		return nil, fmt.Errorf("%w: %s%s", ErrNoProvider, parameterName, params.SuffixOptions)
	}
	member := optionsMember(u, parameterName)
	v, err := e.call(ctx, u, parameterName, member, values)
	if err != nil {
		return nil, err
	}
	list, err := toStrings(v)
	if err != nil {
		return nil, newProviderError(parameterName, member, err)
	}
	return list, nil
}

// ExecuteRangeFunction runs the parameter's range provider read-only. The
// provider may return [min, max], [min, max, step] or {min, max, step}.
func (e *Engine) ExecuteRangeFunction(
	ctx context.Context, u Unit, parameterName string, values json.RawMessage,
) (Range, error) {
	member := parameterName + params.SuffixRange
	if !unitHas(u, parameterName, HasRangeFunction) {
		return Range{}, fmt.Errorf("%w: %s", ErrNoProvider, member)
	}
	v, err := e.call(ctx, u, parameterName, member, values)
	if err != nil {
		return Range{}, err
	}
	r, err := toRange(v)
	if err != nil {
		return Range{}, newProviderError(parameterName, member, err)
	}
	return r, nil
}

func (e *Engine) call(
	ctx context.Context, u Unit, parameterName, member string, values json.RawMessage,
) (any, error) {
	prog, err := e.program(ctx, u)
	if err != nil {
		return nil, err
	}
	caller, ok := prog.(engine.Caller)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, u.Name)
	}

	current, err := currentValues(values)
	if err != nil {
		return nil, err
	}

	out := make(chan any, 1)
	res := e.executor.Execute(ctx, dispatcher.Request{
		ScriptName: u.Name,
		Values:     current,
		ReadOnly:   true,
		Source:     "options",
		Program: engine.ProgramFunc(func(ctx context.Context, x *execution.Context) error {
			v, err := caller.Call(ctx, x, member)
			if err != nil {
				return err
			}
			out <- v
			return nil
		}),
	})
	if !res.IsSuccess {
		err := res.Err
		if err == nil {
			err = errors.New(res.ErrorMessage)
		}
		e.logger.Debug("Provider failed", "parameter", parameterName, "member", member, "error", err)
		return nil, newProviderError(parameterName, member, err)
	}
	return <-out, nil
}

// currentValues decodes the form's current values without validating them;
// providers are called while the form is still being filled in.
func currentValues(raw json.RawMessage) (params.Values, error) {
	decoded, err := params.DecodeValues(raw)
	if err != nil {
		return nil, err
	}
	out := make(params.Values, len(decoded))
	for name, rv := range decoded {
		var v any
		if err := json.Unmarshal(rv, &v); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", params.ErrInvalidValue, name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (e *Engine) program(ctx context.Context, u Unit) (engine.Program, error) {
	if u.Program != nil {
		return u.Program, nil
	}
	if e.compiler == nil {
		return nil, fmt.Errorf("%w: no compiler configured", engine.ErrNoProgram)
	}
	return e.compiler.Compile(ctx, u.Name, u.Files)
}

// Enumerate lists the display names of host elements of elementType,
// optionally narrowed to category, sorted and without duplicates. It runs
// as a read-only execution on the host thread.
func (e *Engine) Enumerate(ctx context.Context, elementType, category string) ([]string, error) {
	var names []string
	res := e.executor.Execute(ctx, dispatcher.Request{
		ScriptName: "enumerate " + elementType,
		ReadOnly:   true,
		Source:     "options",
		Program: engine.ProgramFunc(func(ctx context.Context, x *execution.Context) error {
			elements, err := x.Document().Elements(ctx, elementType, category)
			if err != nil {
				return err
			}
			names = displayNames(elements)
			return nil
		}),
	})
	if !res.IsSuccess {
		return nil, fmt.Errorf("failed to enumerate %s elements: %s", elementType, res.ErrorMessage)
	}
	return names, nil
}

func displayNames(elements []host.Element) []string {
	names := make([]string, 0, len(elements))
	for _, el := range elements {
		if el.Name != "" {
			names = append(names, el.Name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return slices.Compact(names)
}

// ComputeOptions resolves the options and range of one parameter using the
// current parameter values. Every failure is reported in the result.
func (e *Engine) ComputeOptions(
	ctx context.Context, u Unit, parameterName string, values json.RawMessage,
) Result {
	res := Result{Options: []string{}}
	var p *script.Parameter
	if found, ok := script.FindParameter(params.Extract(u.Source()), parameterName); ok {
		p = &found
	}
	hasOptions := unitHas(u, parameterName, HasOptionsFunction)
	hasRange := unitHas(u, parameterName, HasRangeFunction)
	if p == nil && !hasOptions && !hasRange {
		res.ErrorMessage = fmt.Sprintf("%s: %s", ErrUnknownParameter, parameterName)
		return res
	}

	switch {
	case hasOptions:
		list, err := e.ExecuteOptionsFunction(ctx, u, parameterName, values)
		if err != nil {
			res.ErrorMessage = err.Error()
			return res
		}
		res.Options, res.Source = list, SourceComputed
	case p != nil && p.IsRevitElement:
		list, err := e.Enumerate(ctx, p.RevitElementType, p.RevitElementCategory)
		if err != nil {
			res.ErrorMessage = err.Error()
			return res
		}
		res.Options, res.Source = list, SourceElements
	case p != nil:
		res.Options, res.Source = slices.Clone(p.Options), SourceStatic
	}

	if hasRange {
		r, err := e.ExecuteRangeFunction(ctx, u, parameterName, values)
		if err != nil {
			res.ErrorMessage = err.Error()
			return res
		}
		res.Min, res.Max, res.Step = r.Min, r.Max, r.Step
	} else if p != nil {
		res.Min, res.Max, res.Step = p.Min, p.Max, p.Step
	}

	if res.Options == nil {
		res.Options = []string{}
	}
	res.IsSuccess = true
	return res
}
