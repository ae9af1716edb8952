package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `using System;
using System.Linq;
using static System.Math;
using Db = Autodesk.Revit.DB;

var p = new Params();
Println($"Creating wall {p.Length}");
if (p.Length > 0)
{
    Println("ok");
}
else
{
    Println("skip");
}

public class Params
{
    /// Wall height in millimetres.
    [Range(0, 10000, 50), Unit("mm")]
    public double Height { get; set; } = 2400.0;

    public string Level { get; set; } = "Level 1";

    public List<string> Level_Options() => new List<string> { "Level 1", "Level 2" };

    private int _counter = 0x1F, _other = 3;

    public Params() { }
}
`

func TestParse_Usings(t *testing.T) {
	f := Parse(sampleScript)
	require.Len(t, f.Usings, 4)
	assert.Equal(t, "System", f.Usings[0].Name)
	assert.True(t, f.Usings[2].Static)
	assert.Equal(t, "Db", f.Usings[3].Alias)
	assert.Equal(t, "using Db = Autodesk.Revit.DB;", f.Usings[3].Text)
}

func TestParse_TopLevelStatements(t *testing.T) {
	f := Parse(sampleScript)
	require.True(t, f.HasTopLevelStatements())
	require.Len(t, f.Statements, 3)
	assert.Equal(t, "var p = new Params();", f.Text(f.Statements[0]))
	assert.Contains(t, f.Text(f.Statements[2]), "else")
	assert.Contains(t, f.Text(f.Statements[2]), `Println("skip");`)
}

func TestParse_Members(t *testing.T) {
	f := Parse(sampleScript)
	params := f.FindType("Params")
	require.NotNil(t, params)
	assert.Equal(t, "class", params.Keyword)

	height := params.Member("Height")
	require.NotNil(t, height)
	assert.Equal(t, MemberProperty, height.Kind)
	assert.Equal(t, "double", height.Type)
	assert.True(t, height.HasGetter)
	assert.True(t, height.HasSetter)
	assert.Equal(t, []string{"Wall height in millimetres."}, height.Doc)
	require.Len(t, height.Attributes, 2)
	assert.Equal(t, "Range", height.Attributes[0].Name)
	assert.Len(t, height.Attributes[0].Args, 3)
	assert.Equal(t, "Unit", height.Attributes[1].Name)
	lit, ok := Literal(height.Initializer)
	require.True(t, ok)
	assert.Equal(t, "2400.0", lit)

	opts := params.Member("Level_Options")
	require.NotNil(t, opts)
	assert.Equal(t, MemberMethod, opts.Kind)
	assert.Equal(t, "List<string>", opts.Type)
	assert.Equal(t, 0, opts.ParamCount)
	assert.NotEmpty(t, opts.ExpressionBody)

	counter := params.Member("_counter")
	require.NotNil(t, counter)
	assert.Equal(t, MemberField, counter.Kind)
	lit, ok = Literal(counter.Initializer)
	require.True(t, ok)
	assert.Equal(t, "31", lit)

	other := params.Member("_other")
	require.NotNil(t, other)
	assert.Equal(t, "int", other.Type)

	ctor := params.Member("Params")
	require.NotNil(t, ctor)
	assert.Equal(t, MemberConstructor, ctor.Kind)
}

func TestParse_BlockNamespaceAndNesting(t *testing.T) {
	src := `namespace Tools.Walls
{
    public static class Helpers
    {
        public sealed record Size(double W, double H);
        public static int Twice(int x) => x * 2;
    }
}`
	f := Parse(src)
	assert.False(t, f.HasTopLevelStatements())
	assert.Equal(t, "Tools.Walls", f.Namespace)
	require.Len(t, f.Items, 1)
	assert.Equal(t, ItemDeclaration, f.Items[0].Kind)
	helpers := f.FindType("Helpers")
	require.NotNil(t, helpers)
	require.Len(t, helpers.Nested, 1)
	assert.Equal(t, "record", helpers.Nested[0].Keyword)
	twice := helpers.Member("Twice")
	require.NotNil(t, twice)
	assert.Equal(t, 1, twice.ParamCount)
	assert.True(t, twice.IsStatic())
}

func TestParse_FileScopedNamespace(t *testing.T) {
	f := Parse("namespace Tools;\n\npublic class A { }\n")
	require.Len(t, f.Items, 2)
	assert.Equal(t, ItemNamespace, f.Items[0].Kind)
	assert.Equal(t, ItemDeclaration, f.Items[1].Kind)
	assert.Equal(t, "public class A { }", f.Text(f.Items[1]))
}

func TestParse_UsingStatementIsNotDirective(t *testing.T) {
	f := Parse("using System;\nusing var tx = new Transaction(doc, \"x\");\nusing (var s = Open()) { s.Go(); }\n")
	require.Len(t, f.Usings, 1)
	assert.Len(t, f.Statements, 2)
}

func TestParse_Malformed(t *testing.T) {
	srcs := []string{
		"",
		"public class {",
		"class Params { public double X { get; set; } = ; [Range(",
		"}}}}",
		"var s = \"unterminated",
		"/* never closed",
		"class P { public List<List<string>> Items { get; set; } = new(); }",
	}
	for _, src := range srcs {
		assert.NotPanics(t, func() { Parse(src) }, src)
	}

	f := Parse(srcs[len(srcs)-1])
	p := f.FindType("P")
	require.NotNil(t, p)
	items := p.Member("Items")
	require.NotNil(t, items)
	assert.Equal(t, "List<List<string>>", items.Type)
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{"42", "42", true},
		{"2400.0", "2400.0", true},
		{"1.5f", "1.5", true},
		{"10m", "10", true},
		{".5", "0.5", true},
		{"1_000", "1000", true},
		{"-3", "-3", true},
		{`"hello"`, `"hello"`, true},
		{`@"C:\temp"`, `"C:\\temp"`, true},
		{"true", "true", true},
		{"string.Empty", `""`, true},
		{`new List<string> { "a", "b" }`, `["a","b"]`, true},
		{`new[] { 1, 2 }`, `[1,2]`, true},
		{`["x"]`, `["x"]`, true},
		{`{ "x", "y" }`, `["x","y"]`, true},
		{`{ }`, `[]`, true},
		{`{ Math.PI }`, "", false},
		{"new List<string>()", "[]", true},
		{"Math.PI", "", false},
		{`$"{x}"`, "", false},
		{"GetDefault()", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := Lex(tt.src)
			toks = toks[:len(toks)-1]
			got, ok := Literal(toks)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStr(t *testing.T) {
	for src, want := range map[string]string{
		`"Walls"`:             "Walls",
		"SelectionType.Point": "Point",
		"typeof(WallType)":    "WallType",
		"nameof(Level)":       "Level",
	} {
		toks := Lex(src)
		got, ok := Str(toks[:len(toks)-1])
		assert.True(t, ok, src)
		assert.Equal(t, want, got, src)
	}
}
