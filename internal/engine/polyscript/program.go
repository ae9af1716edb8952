package polyscript

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/robbyt/go-polyscript/platform"
	"github.com/robbyt/go-polyscript/platform/constants"
	"github.com/robbyt/go-polyscript/platform/data"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/execution"
)

var (
	_ engine.Program = (*Program)(nil)
	_ engine.Caller  = (*Program)(nil)
)

// Program is a compiled Risor or Starlark entry file.
//
// Scripts read their inputs from ctx: "params", "script", "document" and
// "read_only". Risor scripts also get host functions in ctx, see
// hostFunctions. What a script evaluates to is applied to the execution
// context, see applyResult.
type Program struct {
	name     string
	lang     Language
	source   string
	compiler *Compiler
	eval     platform.Evaluator
}

func (p *Program) Language() Language { return p.lang }

// Run implements engine.Program.
func (p *Program) Run(ctx context.Context, x *execution.Context) error {
	value, err := p.evaluate(ctx, p.eval, x)
	if err != nil {
		return err
	}
	return applyResult(ctx, x, value)
}

// Call implements engine.Caller by evaluating the script followed by a call
// to member.
func (p *Program) Call(ctx context.Context, x *execution.Context, member string) (any, error) {
	if !HasFunction(p.lang, p.source, member) {
		return nil, fmt.Errorf("%w: %s", engine.ErrNoMember, member)
	}
	eval, err := p.compiler.build(p.lang, callSource(p.lang, p.source, member))
	if err != nil {
		return nil, fmt.Errorf("failed to compile call to %s: %w", member, err)
	}
	return p.evaluate(ctx, eval, x)
}

func (p *Program) evaluate(ctx context.Context, eval platform.Evaluator, x *execution.Context) (any, error) {
	provider := data.NewContextProvider(constants.EvalData)
	input := scriptData(x)
	if p.lang == LanguageRisor {
		maps.Copy(input, hostFunctions(ctx, x))
	}
	enriched, err := provider.AddDataToContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to add script data: %w", err)
	}
	resp, err := eval.Eval(enriched)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return resp.Interface(), nil
}

func scriptData(x *execution.Context) map[string]any {
	values := make(map[string]any, len(x.Params()))
	for k, v := range x.Params() {
		values[k] = scriptValue(v)
	}
	doc := map[string]any{"title": "", "type": ""}
	if d := x.Document(); d != nil {
		doc["title"] = d.Title()
		doc["type"] = d.DocumentType()
	}
	return map[string]any{
		"params":    values,
		"script":    x.ScriptName(),
		"document":  doc,
		"read_only": x.ReadOnly(),
	}
}

// hostFunctions are the execution capabilities a Risor script calls while it
// runs. Starlark input is limited to plain data, so Starlark scripts only get
// the declarative result keys.
//
//	ctx["extend_timeout"](seconds)         moves the deadline, once per run
//	ctx["print"](args...)                  appends a console line
//	ctx["transact"](name, [{type, ...}])   creates elements, returns their ids
func hostFunctions(ctx context.Context, x *execution.Context) map[string]any {
	return map[string]any{
		"extend_timeout": func(seconds float64) error {
			return x.ExtendTimeout(time.Duration(seconds * float64(time.Second)))
		},
		"print": func(args ...any) {
			x.Println(args...)
		},
		"transact": func(name string, specs []any) ([]int64, error) {
			return createElements(ctx, x, name, specs)
		},
	}
}

// scriptValue converts bound values into shapes both engines accept.
func scriptValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}
