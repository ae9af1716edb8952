// Package rules evaluates the static visibility and enablement conditions
// declared on parameters against the current parameter values.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script/csharp"
)

// ErrSyntax is returned for conditions that cannot be parsed.
var ErrSyntax = errors.New("invalid condition")

// Eval evaluates a condition such as "Mode == 'Advanced' && Count > 2".
// Identifiers resolve to entries of values; unknown identifiers are nil.
// Supported operators: == != > >= < <= && || ! and "in (a, b)".
func Eval(expr string, values map[string]any) (bool, error) {
	toks := csharp.Lex(expr)
	p := &evaluator{toks: toks, values: values}
	v, err := p.or()
	if err != nil {
		return false, err
	}
	if p.peek().Kind != csharp.EOF {
		return false, fmt.Errorf("%w: unexpected %q", ErrSyntax, p.peek().Text)
	}
	return truthy(v), nil
}

type evaluator struct {
	toks   []csharp.Token
	pos    int
	values map[string]any
}

func (e *evaluator) peek() csharp.Token { return e.toks[e.pos] }

func (e *evaluator) next() csharp.Token {
	t := e.toks[e.pos]
	if t.Kind != csharp.EOF {
		e.pos++
	}
	return t
}

func (e *evaluator) accept(words ...string) bool {
	for _, w := range words {
		if e.peek().Is(w) {
			e.next()
			return true
		}
	}
	return false
}

func (e *evaluator) or() (any, error) {
	left, err := e.and()
	if err != nil {
		return nil, err
	}
	for e.accept("||", "or") {
		right, err := e.and()
		if err != nil {
			return nil, err
		}
		left = truthy(left) || truthy(right)
	}
	return left, nil
}

func (e *evaluator) and() (any, error) {
	left, err := e.not()
	if err != nil {
		return nil, err
	}
	for e.accept("&&", "and") {
		right, err := e.not()
		if err != nil {
			return nil, err
		}
		left = truthy(left) && truthy(right)
	}
	return left, nil
}

func (e *evaluator) not() (any, error) {
	if e.accept("!", "not") {
		v, err := e.not()
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return e.comparison()
}

func (e *evaluator) comparison() (any, error) {
	left, err := e.operand()
	if err != nil {
		return nil, err
	}
	t := e.peek()
	switch {
	case t.Is("=="), t.Is("!="), t.Is("<"), t.Is("<="), t.Is(">"), t.Is(">="), t.Is("="):
		e.next()
		right, err := e.operand()
		if err != nil {
			return nil, err
		}
		return compare(t.Text, left, right), nil
	case t.Is("in"):
		e.next()
		list, err := e.list()
		if err != nil {
			return nil, err
		}
		for _, item := range list {
			if compare("==", left, item) {
				return true, nil
			}
		}
		return false, nil
	}
	return left, nil
}

func (e *evaluator) list() ([]any, error) {
	open := e.next()
	closer := ")"
	switch {
	case open.Is("["):
		closer = "]"
	case !open.Is("("):
		return nil, fmt.Errorf("%w: expected a list after in", ErrSyntax)
	}
	var out []any
	for !e.peek().Is(closer) {
		v, err := e.operand()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if !e.accept(",") {
			break
		}
	}
	if !e.accept(closer) {
		return nil, fmt.Errorf("%w: unterminated list", ErrSyntax)
	}
	return out, nil
}

func (e *evaluator) operand() (any, error) {
	t := e.next()
	switch t.Kind {
	case csharp.String, csharp.Char:
		return t.Value, nil
	case csharp.Number:
		s, ok := csharp.NormalizeNumber(t.Text)
		if !ok {
			return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, t.Text)
		}
		return strconv.ParseFloat(s, 64)
	case csharp.Ident:
		switch t.Text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		name := t.Value
		for e.peek().Is(".") && e.toks[e.pos+1].Kind == csharp.Ident {
			e.next()
			name = e.next().Value
		}
		return e.values[name], nil
	case csharp.Punct:
		switch {
		case t.Is("("):
			v, err := e.or()
			if err != nil {
				return nil, err
			}
			if !e.accept(")") {
				return nil, fmt.Errorf("%w: missing )", ErrSyntax)
			}
			return v, nil
		case t.Is("-") && e.peek().Kind == csharp.Number:
			v, err := e.operand()
			if err != nil {
				return nil, err
			}
			return -v.(float64), nil
		}
	}
	if t.Kind == csharp.EOF {
		return nil, fmt.Errorf("%w: unexpected end of condition", ErrSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.Text)
}

func compare(op string, a, b any) bool {
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			switch op {
			case "==", "=":
				return af == bf
			case "!=":
				return af != bf
			case "<":
				return af < bf
			case "<=":
				return af <= bf
			case ">":
				return af > bf
			case ">=":
				return af >= bf
			}
		}
	}
	as, bs := text(a), text(b)
	switch op {
	case "==", "=":
		return strings.EqualFold(as, bs)
	case "!=":
		return !strings.EqualFold(as, bs)
	case "<":
		return as < bs
	case "<=":
		return as <= bs
	case ">":
		return as > bs
	case ">=":
		return as >= bs
	}
	return false
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case []string:
		return strings.Join(x, ",")
	}
	return fmt.Sprint(v)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err == nil {
			return b
		}
		return x != ""
	case []string:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	if f, ok := number(v); ok {
		return f != 0
	}
	return true
}
