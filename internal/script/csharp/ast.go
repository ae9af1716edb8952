package csharp

import "strings"

// ItemKind classifies a top-level item of a file.
type ItemKind int

const (
	ItemUsing ItemKind = iota
	ItemNamespace
	ItemDeclaration
	ItemStatement
	ItemDirective
)

// Item is a top-level span of a file. Start and End are byte offsets into
// File.Source and include leading doc comments and attribute lists.
type Item struct {
	Kind  ItemKind
	Start int
	End   int
}

// Using is a using directive.
type Using struct {
	Name   string
	Alias  string
	Static bool
	Global bool
	Text   string
}

// Attribute is one attribute application, such as [Range(0, 10)].
type Attribute struct {
	// Name is the attribute name without namespace qualifier or the
	// "Attribute" suffix.
	Name string
	Args []Arg
}

// Arg is an attribute argument. Name is empty for positional arguments.
type Arg struct {
	Name   string
	Tokens []Token
}

// TypeDecl is a class, struct, record, interface or enum declaration.
type TypeDecl struct {
	Keyword    string
	Name       string
	Modifiers  []string
	Attributes []Attribute
	Doc        []string
	Members    []*Member
	Nested     []*TypeDecl
	Start      int
	End        int
}

// MemberKind classifies a type member.
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberProperty
	MemberMethod
	MemberConstructor
	MemberOther
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberProperty:
		return "property"
	case MemberMethod:
		return "method"
	case MemberConstructor:
		return "constructor"
	default:
		return "other"
	}
}

// Member is a field, property, method or constructor of a type.
type Member struct {
	Kind       MemberKind
	Name       string
	Type       string
	Modifiers  []string
	Attributes []Attribute
	Doc        []string

	// Initializer holds the tokens after '=' for fields and properties.
	Initializer []Token
	// ExpressionBody holds the tokens after '=>'.
	ExpressionBody []Token
	// Body holds the tokens between the braces of a method body.
	Body []Token

	ParamCount int
	HasGetter  bool
	HasSetter  bool

	Start int
	End   int
}

// HasModifier reports whether the member carries modifier m.
func (m *Member) HasModifier(mod string) bool {
	for _, x := range m.Modifiers {
		if x == mod {
			return true
		}
	}
	return false
}

// IsPublic reports whether the member is declared public.
func (m *Member) IsPublic() bool {
	return m.HasModifier("public")
}

// IsStatic reports whether the member is declared static.
func (m *Member) IsStatic() bool {
	return m.HasModifier("static") || m.HasModifier("const")
}

// File is the structural view of one C# source file.
type File struct {
	Source     string
	Namespace  string
	Usings     []Using
	Items      []Item
	Types      []*TypeDecl
	Statements []Item
}

// HasTopLevelStatements reports whether the file contains executable
// statements outside any type.
func (f *File) HasTopLevelStatements() bool {
	return len(f.Statements) > 0
}

// Text returns the source text of an item.
func (f *File) Text(it Item) string {
	return f.Source[it.Start:it.End]
}

// AllTypes returns every type declaration in the file, nested ones
// included, in source order.
func (f *File) AllTypes() []*TypeDecl {
	var out []*TypeDecl
	var walk func([]*TypeDecl)
	walk = func(ts []*TypeDecl) {
		for _, t := range ts {
			out = append(out, t)
			walk(t.Nested)
		}
	}
	walk(f.Types)
	return out
}

// FindType returns the first type with the given name.
func (f *File) FindType(name string) *TypeDecl {
	for _, t := range f.AllTypes() {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Member returns the first member with the given name.
func (t *TypeDecl) Member(name string) *Member {
	for _, m := range t.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// TokensText joins the raw text of tokens with single spaces where the
// source had whitespace.
func TokensText(toks []Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.Pos > toks[i-1].End {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
