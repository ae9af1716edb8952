package csharp

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Literal converts an initializer or argument expression to JSON text when
// it is a compile-time literal: a number, string, char, boolean, null,
// string.Empty, or a collection whose elements are all literals, including
// a bare array initializer such as { "a", "b" }. Numbers
// keep their written precision, so "2400.0" stays "2400.0".
func Literal(toks []Token) (string, bool) {
	toks = trimParens(toks)
	if len(toks) >= 4 && toks[0].Is("(") && toks[1].Kind == Ident && toks[2].Is(")") {
		toks = toks[3:]
	}
	if len(toks) == 0 {
		return "", false
	}
	t := toks[0]
	switch {
	case len(toks) == 1:
		switch t.Kind {
		case Number:
			return NormalizeNumber(t.Text)
		case String:
			if hasInterpolationHole(t.Text) {
				return "", false
			}
			return quote(t.Value), true
		case Char:
			return quote(t.Value), true
		case Ident:
			switch t.Text {
			case "true", "false", "null":
				return t.Text, true
			}
		}
	case len(toks) == 2 && (t.Is("-") || t.Is("+")) && toks[1].Kind == Number:
		n, ok := NormalizeNumber(toks[1].Text)
		if !ok {
			return "", false
		}
		if t.Is("-") && n != "0" {
			return "-" + n, true
		}
		return n, true
	case len(toks) == 3 && (t.Is("string") || t.Is("String")) && toks[1].Is(".") && toks[2].Is("Empty"):
		return `""`, true
	case t.Is("new") || t.Is("[") || t.Is("{"):
		return collection(toks)
	}
	return "", false
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func hasInterpolationHole(raw string) bool {
	if !strings.HasPrefix(raw, "$") {
		return false
	}
	body := strings.ReplaceAll(raw, "{{", "")
	return strings.Contains(body, "{")
}

func trimParens(toks []Token) []Token {
	for len(toks) >= 2 && toks[0].Is("(") && toks[len(toks)-1].Is(")") && closesAtEnd(toks) {
		toks = toks[1 : len(toks)-1]
	}
	return toks
}

// closesAtEnd reports whether the opening paren at toks[0] is matched by
// the last token.
func closesAtEnd(toks []Token) bool {
	depth := 0
	for i, t := range toks {
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
			if depth == 0 {
				return i == len(toks)-1
			}
		}
	}
	return false
}

func collection(toks []Token) (string, bool) {
	var inner []Token
	last := toks[len(toks)-1]
	if toks[0].Is("[") {
		if !last.Is("]") {
			return "", false
		}
		inner = toks[1 : len(toks)-1]
	} else {
		open := -1
		depth := 0
		for i, t := range toks {
			if t.Is("(") || t.Is("[") {
				depth++
			} else if t.Is(")") || t.Is("]") {
				depth--
			} else if t.Is("{") && depth == 0 {
				open = i
				break
			}
		}
		if open < 0 {
			if last.Is(")") || last.Is("]") {
				return "[]", true
			}
			return "", false
		}
		if !last.Is("}") {
			return "", false
		}
		inner = toks[open+1 : len(toks)-1]
	}
	elems := make([]string, 0)
	for _, a := range splitArgs(inner) {
		v, ok := Literal(a.Tokens)
		if !ok {
			return "", false
		}
		elems = append(elems, v)
	}
	return "[" + strings.Join(elems, ",") + "]", true
}

// NormalizeNumber turns a C# numeric literal into JSON number text. Type
// suffixes and digit separators are removed and hex or binary literals are
// converted to decimal.
func NormalizeNumber(text string) (string, bool) {
	s := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") {
		base := 16
		if lower[1] == 'b' {
			base = 2
		}
		v, err := strconv.ParseUint(strings.TrimRight(lower[2:], "ul"), base, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatUint(v, 10), true
	}
	s = strings.TrimRight(s, "fFdDmMuUlL")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	for len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = s[1:]
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", false
	}
	return s, true
}

// Float evaluates a numeric literal expression.
func Float(toks []Token) (float64, bool) {
	s, ok := Literal(toks)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Bool evaluates a boolean literal expression.
func Bool(toks []Token) (bool, bool) {
	s, ok := Literal(toks)
	if !ok {
		return false, false
	}
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Str evaluates an expression that names a string: a string literal,
// typeof(X), nameof(X), or a (possibly qualified) identifier, of which the
// last segment is returned.
func Str(toks []Token) (string, bool) {
	toks = trimParens(toks)
	if len(toks) == 0 {
		return "", false
	}
	if len(toks) == 1 && (toks[0].Kind == String || toks[0].Kind == Char) {
		return toks[0].Value, true
	}
	if len(toks) >= 4 && (toks[0].Is("typeof") || toks[0].Is("nameof")) && toks[1].Is("(") {
		return Str(toks[2 : len(toks)-1])
	}
	name := ""
	for i, t := range toks {
		switch {
		case i%2 == 0 && t.Kind == Ident:
			name = t.Value
		case i%2 == 1 && (t.Is(".") || t.Is("::")):
		default:
			return "", false
		}
	}
	return name, name != ""
}

// Strings evaluates a collection of string literals.
func Strings(toks []Token) ([]string, bool) {
	s, ok := Literal(toks)
	if !ok {
		return nil, false
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}
