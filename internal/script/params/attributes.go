package params

import (
	"log/slog"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/csharp"
)

// applyAttributes folds every attribute on a member into the descriptor.
// Attributes are applied in source order, so a later attribute setting the
// same field wins. It reports whether any attribute set MultiSelect.
func applyAttributes(p *script.Parameter, attrs []csharp.Attribute, logger *slog.Logger) (multiSelectSet bool) {
	for _, a := range attrs {
		pos, named := splitNamed(a.Args)
		attr := strings.ToLower(a.Name)
		if !applyPositional(p, attr, pos) {
			logger.Debug("Ignoring unknown attribute", "parameter", p.Name, "attribute", a.Name)
		} else if attr == "multiselect" {
			multiSelectSet = true
		}
		for _, arg := range named {
			name := strings.ToLower(arg.Name)
			if !applyNamed(p, attr, name, arg.Tokens) {
				logger.Debug("Ignoring unknown attribute argument",
					"parameter", p.Name, "attribute", a.Name, "argument", arg.Name)
				continue
			}
			if name == "multiselect" || name == "ismultiselect" {
				multiSelectSet = true
			}
		}
	}
	return multiSelectSet
}

func splitNamed(args []csharp.Arg) (pos, named []csharp.Arg) {
	for _, a := range args {
		if a.Name == "" {
			pos = append(pos, a)
		} else {
			named = append(named, a)
		}
	}
	return pos, named
}

// applyPositional handles the attribute name and its positional arguments.
func applyPositional(p *script.Parameter, name string, args []csharp.Arg) bool {
	arg := func(i int) []csharp.Token {
		if i < len(args) {
			return args[i].Tokens
		}
		return nil
	}
	switch name {
	case "range", "numericrange":
		setFloat(&p.Min, arg(0))
		setFloat(&p.Max, arg(1))
		setFloat(&p.Step, arg(2))
	case "min", "minimum":
		setFloat(&p.Min, arg(0))
	case "max", "maximum":
		setFloat(&p.Max, arg(0))
	case "step", "increment":
		setFloat(&p.Step, arg(0))
	case "unit", "units":
		setString(&p.Unit, arg(0))
	case "suffix":
		setString(&p.Suffix, arg(0))
	case "description", "desc", "tooltip":
		setString(&p.Description, arg(0))
	case "group", "section":
		setString(&p.Group, arg(0))
	case "required":
		p.IsRequired = true
		if b, ok := csharp.Bool(arg(0)); ok {
			p.IsRequired = b
		}
	case "pattern", "regularexpression", "regex":
		setString(&p.Pattern, arg(0))
	case "multiselect":
		p.MultiSelect = true
		if b, ok := csharp.Bool(arg(0)); ok {
			p.MultiSelect = b
		}
	case "select", "selection", "pick":
		p.SelectionType = script.SelectElement
		if s, ok := csharp.Str(arg(0)); ok {
			p.SelectionType = parseSelection(s)
		}
	case "options", "choices", "values":
		opts := make([]string, 0, len(args))
		for _, a := range args {
			opts = append(opts, stringsOf(a.Tokens)...)
		}
		if len(args) == 1 && len(opts) == 1 && strings.Contains(opts[0], ",") {
			opts = splitList(opts[0])
		}
		p.Options = opts
	case "revitelements", "revitelement", "revitelementtype", "elementtype":
		p.IsRevitElement = true
		setString(&p.RevitElementType, arg(0))
		setString(&p.RevitElementCategory, arg(1))
	case "visiblewhen", "showwhen", "visibleif":
		if expr := condition(args); expr != "" {
			p.VisibleWhen = expr
		}
	case "enabledwhen", "enablewhen", "enabledif":
		if expr := condition(args); expr != "" {
			p.EnabledWhen = expr
		}
	case "scriptparameter", "parameter", "param", "input":
		setString(&p.Description, arg(0))
	default:
		return false
	}
	return true
}

// applyNamed handles Name = value and name: value arguments. Most carry the
// same meaning on every attribute; Type is read according to the attribute
// it appears on.
func applyNamed(p *script.Parameter, attr, name string, toks []csharp.Token) bool {
	if name == "type" {
		return applyType(p, attr, toks)
	}
	switch name {
	case "description", "desc", "tooltip":
		setString(&p.Description, toks)
	case "group", "section":
		setString(&p.Group, toks)
	case "options", "choices", "values":
		opts := stringsOf(toks)
		if len(opts) == 1 && strings.Contains(opts[0], ",") {
			opts = splitList(opts[0])
		}
		p.Options = opts
	case "min", "minimum":
		setFloat(&p.Min, toks)
	case "max", "maximum":
		setFloat(&p.Max, toks)
	case "step", "increment":
		setFloat(&p.Step, toks)
	case "unit", "units":
		setString(&p.Unit, toks)
	case "suffix":
		setString(&p.Suffix, toks)
	case "pattern", "regex", "regularexpression":
		setString(&p.Pattern, toks)
	case "required", "isrequired":
		p.IsRequired = true
		if b, ok := csharp.Bool(toks); ok {
			p.IsRequired = b
		}
	case "multiselect", "ismultiselect":
		p.MultiSelect = true
		if b, ok := csharp.Bool(toks); ok {
			p.MultiSelect = b
		}
	case "visiblewhen":
		setString(&p.VisibleWhen, toks)
	case "enabledwhen":
		setString(&p.EnabledWhen, toks)
	case "selectiontype", "select", "selection":
		if s, ok := csharp.Str(toks); ok {
			p.SelectionType = parseSelection(s)
		}
	case "targettype", "revitelementtype", "elementtype":
		p.IsRevitElement = true
		setString(&p.RevitElementType, toks)
	case "category", "revitelementcategory":
		p.IsRevitElement = true
		setString(&p.RevitElementCategory, toks)
	default:
		return false
	}
	return true
}

// applyType reads Type = "..." as a selection kind on selection attributes and
// as an element type on the RevitElements family. Elsewhere it is ignored.
func applyType(p *script.Parameter, attr string, toks []csharp.Token) bool {
	switch {
	case isSelectionAttr(attr):
		if s, ok := csharp.Str(toks); ok {
			p.SelectionType = parseSelection(s)
		}
	case isElementAttr(attr):
		p.IsRevitElement = true
		setString(&p.RevitElementType, toks)
	default:
		return false
	}
	return true
}

func isSelectionAttr(attr string) bool {
	switch attr {
	case "select", "selection", "pick":
		return true
	}
	return false
}

func isElementAttr(attr string) bool {
	switch attr {
	case "revitelements", "revitelement", "revitelementtype", "elementtype":
		return true
	}
	return false
}

func setFloat(dst **float64, toks []csharp.Token) {
	if f, ok := csharp.Float(toks); ok {
		*dst = &f
	}
}

func setString(dst *string, toks []csharp.Token) {
	if s, ok := csharp.Str(toks); ok {
		*dst = s
	}
}

// stringsOf reads either a string collection or a single string.
func stringsOf(toks []csharp.Token) []string {
	if list, ok := csharp.Strings(toks); ok {
		return list
	}
	if s, ok := csharp.Str(toks); ok {
		return []string{s}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseSelection(s string) script.SelectionType {
	s = strings.TrimPrefix(strings.ToLower(s), "pick")
	switch s {
	case "point", "xyz":
		return script.SelectPoint
	case "face":
		return script.SelectFace
	case "edge":
		return script.SelectEdge
	case "none", "":
		return script.SelectNone
	default:
		return script.SelectElement
	}
}

// condition builds an expression from either a single expression argument
// or a (parameter, value) pair.
func condition(args []csharp.Arg) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		s, _ := csharp.Str(args[0].Tokens)
		return strings.TrimSpace(s)
	}
	name, ok := csharp.Str(args[0].Tokens)
	if !ok {
		return ""
	}
	if len(args[1].Tokens) == 1 && args[1].Tokens[0].Kind == csharp.String {
		return name + " == '" + strings.ReplaceAll(args[1].Tokens[0].Value, "'", `\'`) + "'"
	}
	if lit, ok := csharp.Literal(args[1].Tokens); ok {
		return name + " == " + lit
	}
	return ""
}
