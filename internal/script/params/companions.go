package params

import (
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script/csharp"
)

// Companion suffixes. A member named {Param}{Suffix} next to a parameter
// supplies runtime behavior for it and is never a parameter itself.
const (
	SuffixOptions = "_Options"
	SuffixFilter  = "_Filter"
	SuffixVisible = "_Visible"
	SuffixEnabled = "_Enabled"
	SuffixRange   = "_Range"
)

var companionSuffixes = []string{SuffixOptions, SuffixFilter, SuffixVisible, SuffixEnabled, SuffixRange}

// SplitCompanion splits a companion member name into the parameter it
// belongs to and its suffix.
func SplitCompanion(name string) (base, suffix string, ok bool) {
	for _, s := range companionSuffixes {
		if b, found := strings.CutSuffix(name, s); found && b != "" {
			return b, s, true
		}
	}
	return "", "", false
}

// Companions are the provider members found for one parameter.
type Companions struct {
	Options *csharp.Member
	Filter  *csharp.Member
	Visible *csharp.Member
	Enabled *csharp.Member
	Range   *csharp.Member
}

// ProvidesOptions reports whether an authoritative options provider exists.
func (c *Companions) ProvidesOptions() bool {
	return c != nil && (c.Options != nil || c.Filter != nil)
}

// FindCompanions indexes the companion members of a parameter container by
// parameter name. Only parameterless methods and readable properties or
// fields qualify.
func FindCompanions(decl *csharp.TypeDecl) map[string]*Companions {
	out := make(map[string]*Companions)
	if decl == nil {
		return out
	}
	for _, m := range decl.Members {
		base, suffix, ok := SplitCompanion(m.Name)
		if !ok || !isProvider(m) {
			continue
		}
		c := out[base]
		if c == nil {
			c = &Companions{}
			out[base] = c
		}
		switch suffix {
		case SuffixOptions:
			c.Options = m
		case SuffixFilter:
			c.Filter = m
		case SuffixVisible:
			c.Visible = m
		case SuffixEnabled:
			c.Enabled = m
		case SuffixRange:
			c.Range = m
		}
	}
	return out
}

func isProvider(m *csharp.Member) bool {
	switch m.Kind {
	case csharp.MemberMethod:
		return m.ParamCount == 0
	case csharp.MemberProperty, csharp.MemberField:
		return true
	}
	return false
}
