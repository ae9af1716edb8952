// Package params derives parameter descriptors from script source and binds
// client-supplied values against them.
package params

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/csharp"
)

// ContainerName is the conventional name of the type declaring inputs.
const ContainerName = "Params"

// Extractor turns script source into parameter descriptors.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used to report skipped declarations.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default().WithGroup("params")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns one descriptor per public input of the Params type, in
// declaration order. Sources without such a type, or that cannot be read
// at all, yield an empty list.
func Extract(source string) []script.Parameter {
	return NewExtractor().Extract(source)
}

// Extract implements the extraction for e.
func (e *Extractor) Extract(source string) []script.Parameter {
	out := []script.Parameter{}
	decl := FindContainer(csharp.Parse(source))
	if decl == nil {
		return out
	}
	companions := FindCompanions(decl)
	for _, m := range decl.Members {
		if !isInput(m) {
			continue
		}
		if _, _, ok := SplitCompanion(m.Name); ok {
			continue
		}
		typ, ok := MapType(m.Type)
		if !ok {
			e.logger.Debug("Skipping parameter with unsupported type", "name", m.Name, "type", m.Type)
			continue
		}
		p := script.Parameter{
			Name:             m.Name,
			Type:             typ,
			DefaultValueJSON: e.defaultValue(m, typ),
			Options:          []string{},
		}
		multiSelectSet := applyAttributes(&p, m.Attributes, e.logger)
		if p.Description == "" {
			p.Description = docDescription(m.Doc)
		}
		applyCompanions(&p, companions[m.Name])
		finalize(&p, multiSelectSet)
		out = append(out, p)
	}
	return out
}

// FindContainer returns the Params type of a parsed file, if any.
func FindContainer(f *csharp.File) *csharp.TypeDecl {
	for _, t := range f.AllTypes() {
		if t.Name == ContainerName && !strings.HasPrefix(t.Keyword, "enum") && t.Keyword != "interface" {
			return t
		}
	}
	return nil
}

func isInput(m *csharp.Member) bool {
	if !m.IsPublic() || m.IsStatic() {
		return false
	}
	switch m.Kind {
	case csharp.MemberField:
		return true
	case csharp.MemberProperty:
		return m.ExpressionBody == nil
	}
	return false
}

// defaultValue renders the initializer as JSON, or the zero value of the
// type when the initializer is absent, not a literal, or of another type.
func (e *Extractor) defaultValue(m *csharp.Member, typ script.ParameterType) string {
	if len(m.Initializer) == 0 {
		return typ.ZeroJSON()
	}
	lit, ok := csharp.Literal(m.Initializer)
	if !ok {
		e.logger.Debug("Initializer is not a literal", "name", m.Name)
		return typ.ZeroJSON()
	}
	if lit == "null" {
		return typ.ZeroJSON()
	}
	if !literalFits(lit, typ) {
		e.logger.Debug("Initializer does not match declared type", "name", m.Name, "type", typ)
		return typ.ZeroJSON()
	}
	return lit
}

func literalFits(lit string, typ script.ParameterType) bool {
	switch typ {
	case script.TypeString:
		return strings.HasPrefix(lit, `"`)
	case script.TypeBoolean:
		return lit == "true" || lit == "false"
	case script.TypeInteger:
		var n json.Number
		return json.Unmarshal([]byte(lit), &n) == nil && !strings.ContainsAny(lit, ".eE")
	case script.TypeFloat:
		var n json.Number
		return json.Unmarshal([]byte(lit), &n) == nil
	case script.TypeStringList:
		var list []string
		return json.Unmarshal([]byte(lit), &list) == nil
	}
	return false
}

func applyCompanions(p *script.Parameter, c *Companions) {
	if c == nil {
		return
	}
	if c.ProvidesOptions() {
		p.RequiresCompute = true
		p.OptionsSource = script.OptionsComputed
	}
	p.HasVisibleFunction = c.Visible != nil
	p.HasEnabledFunction = c.Enabled != nil
	p.HasRangeFunction = c.Range != nil
}

// finalize fills derived fields. A string list with options defaults to
// multi-select unless an attribute set the flag.
func finalize(p *script.Parameter, multiSelectSet bool) {
	if p.Options == nil {
		p.Options = []string{}
	}
	if p.OptionsSource == script.OptionsNone {
		switch {
		case len(p.Options) > 0:
			p.OptionsSource = script.OptionsStatic
		case p.IsRevitElement:
			p.OptionsSource = script.OptionsElements
		}
	}
	if !multiSelectSet && p.Type == script.TypeStringList && p.OptionsSource != script.OptionsNone {
		p.MultiSelect = true
	}
}
