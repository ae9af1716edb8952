package combine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/params"
)

var (
	paramsFile = script.File{
		Name: "Params.cs",
		Content: `using System;
using System.Collections.Generic;

namespace Walls;

public class Params
{
    public double Height { get; set; } = 3.0;
}

public static class Geometry
{
    public static double Double(double x) => x * 2;
}
`,
	}
	mainFile = script.File{
		Name: "Main.cs",
		Content: `using System;
using System.Linq;

var p = new Params();
// scale it
var h = Geometry.Double(p.Height);
Println($"Height {h}");
`,
	}
)

func TestIdentifyTopLevelScript(t *testing.T) {
	entry := IdentifyTopLevelScript([]script.File{paramsFile, mainFile})
	require.NotNil(t, entry)
	assert.Equal(t, "Main.cs", entry.Name)

	assert.Nil(t, IdentifyTopLevelScript([]script.File{paramsFile}))
	assert.Nil(t, IdentifyTopLevelScript(nil))
}

func TestIdentifyTopLevelScript_FirstWins(t *testing.T) {
	other := script.File{Name: "Other.cs", Content: `Println("other");`}
	entry := IdentifyTopLevelScript([]script.File{other, mainFile})
	require.NotNil(t, entry)
	assert.Equal(t, "Other.cs", entry.Name)
}

func TestResolveEntry(t *testing.T) {
	entry, err := ResolveEntry([]script.File{paramsFile, mainFile})
	require.NoError(t, err)
	assert.Equal(t, "Main.cs", entry.Name)

	_, err = ResolveEntry([]script.File{paramsFile})
	require.ErrorIs(t, err, ErrNoEntry)

	_, err = ResolveEntry([]script.File{mainFile, {Name: "B.cs", Content: "Println(1);"}})
	require.ErrorIs(t, err, ErrAmbiguousEntry)
	assert.Contains(t, err.Error(), "B.cs")
}

func TestCombine(t *testing.T) {
	out := Combine([]script.File{paramsFile, mainFile})

	assert.Equal(t, 1, strings.Count(out, "using System;"))
	assert.Contains(t, out, "using System.Collections.Generic;")
	assert.Contains(t, out, "using System.Linq;")
	assert.NotContains(t, out, "namespace Walls;")

	lastUsing := strings.LastIndex(out, "using ")
	paramsAt := strings.Index(out, "public class Params")
	geometry := strings.Index(out, "public static class Geometry")
	firstStmt := strings.Index(out, "var p = new Params();")
	lastStmt := strings.Index(out, `Println($"Height {h}");`)
	require.True(t, lastUsing >= 0 && paramsAt >= 0 && geometry >= 0 && firstStmt >= 0 && lastStmt >= 0, out)
	assert.Less(t, lastUsing, paramsAt)
	assert.Less(t, paramsAt, geometry)
	assert.Less(t, geometry, firstStmt)
	assert.Less(t, firstStmt, lastStmt)
	assert.Contains(t, out, "// scale it")
}

func TestCombine_FeedsExtractor(t *testing.T) {
	out := Combine([]script.File{mainFile, paramsFile})
	got := params.Extract(out)
	require.Len(t, got, 1)
	assert.Equal(t, "Height", got[0].Name)
	assert.Equal(t, "3.0", got[0].DefaultValueJSON)
}

func TestCombine_SkipsNonCSharp(t *testing.T) {
	out := Combine([]script.File{mainFile, {Name: "helper.risor", Content: "func x() { }"}})
	assert.NotContains(t, out, "func x()")
}
