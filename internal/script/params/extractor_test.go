package params

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/script"
)

const wallScript = `using System;

var p = new Params();
Println(p.WallTypeName);

public class Params
{
    #region Geometry
    /// Radius of the arc.
    [Unit("cm")]
    public double Radius { get; set; } = 2400.0;

    [Range(1, 20, 1)]
    public int Count { get; set; } = 3;

    /// <summary>Ignored because a plain line follows.</summary>
    /// Height above the level.
    public double Offset { get; set; }
    #endregion

    [RevitElements(TargetType = "WallType")]
    public string WallTypeName { get; set; }

    [RevitElements(TargetType = "Level")]
    public string LevelName { get; set; } = "Level 1";
    public List<string> LevelName_Options() => new();

    [Options("Fast", "Slow"), Group("Mode")]
    public string Speed { get; set; } = "Fast";

    [VisibleWhen("Speed", "Slow")]
    [Required]
    public bool Confirm = true;

    public List<string> Tags { get; set; } = new List<string> { "a", "b" };

    public Dictionary<string, int> Lookup { get; set; }

    public bool Confirm_Visible => Speed == "Slow";

    private string hidden = "x";

    public static string Shared { get; set; }

    public double Area => Radius * Radius;
}
`

func TestExtract_CountAndOrder(t *testing.T) {
	got := Extract(wallScript)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"Radius", "Count", "Offset", "WallTypeName", "LevelName", "Speed", "Confirm", "Tags",
	}, names)
}

func TestExtract_UnitExample(t *testing.T) {
	p, ok := script.FindParameter(Extract(wallScript), "Radius")
	require.True(t, ok)
	assert.Equal(t, script.TypeFloat, p.Type)
	assert.Equal(t, "cm", p.Unit)
	assert.Equal(t, "2400.0", p.DefaultValueJSON)
	assert.Nil(t, p.Min)
	assert.Nil(t, p.Max)
	assert.Equal(t, "Radius of the arc.", p.Description)
}

func TestExtract_Range(t *testing.T) {
	p, ok := script.FindParameter(Extract(wallScript), "Count")
	require.True(t, ok)
	require.NotNil(t, p.Min)
	require.NotNil(t, p.Max)
	require.NotNil(t, p.Step)
	assert.InDelta(t, 1.0, *p.Min, 0)
	assert.InDelta(t, 20.0, *p.Max, 0)
	assert.InDelta(t, 1.0, *p.Step, 0)
	assert.Empty(t, p.Options)
	assert.NotNil(t, p.Options)
	assert.Equal(t, "3", p.DefaultValueJSON)
}

func TestExtract_DocPrecedence(t *testing.T) {
	p, ok := script.FindParameter(Extract(wallScript), "Offset")
	require.True(t, ok)
	assert.Equal(t, "Height above the level.", p.Description)
	assert.Equal(t, "0.0", p.DefaultValueJSON)
}

func TestExtract_RevitElementFallback(t *testing.T) {
	p, ok := script.FindParameter(Extract(wallScript), "WallTypeName")
	require.True(t, ok)
	assert.True(t, p.IsRevitElement)
	assert.Equal(t, "WallType", p.RevitElementType)
	assert.False(t, p.RequiresCompute)
	assert.Equal(t, script.OptionsElements, p.OptionsSource)
	assert.Equal(t, `""`, p.DefaultValueJSON)
}

func TestExtract_OptionsCompanion(t *testing.T) {
	p, ok := script.FindParameter(Extract(wallScript), "LevelName")
	require.True(t, ok)
	assert.True(t, p.IsRevitElement)
	assert.True(t, p.RequiresCompute)
	assert.Equal(t, script.OptionsComputed, p.OptionsSource)
}

func TestExtract_StaticOptionsAndConditions(t *testing.T) {
	params := Extract(wallScript)

	speed, ok := script.FindParameter(params, "Speed")
	require.True(t, ok)
	assert.Equal(t, []string{"Fast", "Slow"}, speed.Options)
	assert.Equal(t, "Mode", speed.Group)
	assert.Equal(t, script.OptionsStatic, speed.OptionsSource)

	confirm, ok := script.FindParameter(params, "Confirm")
	require.True(t, ok)
	assert.Equal(t, script.TypeBoolean, confirm.Type)
	assert.Equal(t, "Speed == 'Slow'", confirm.VisibleWhen)
	assert.True(t, confirm.IsRequired)
	assert.True(t, confirm.HasVisibleFunction)
	assert.Equal(t, "true", confirm.DefaultValueJSON)
}

func TestExtract_StringList(t *testing.T) {
	p, ok := script.FindParameter(Extract(wallScript), "Tags")
	require.True(t, ok)
	assert.Equal(t, script.TypeStringList, p.Type)
	assert.JSONEq(t, `["a","b"]`, p.DefaultValueJSON)
}

func TestExtract_DefaultRoundTrip(t *testing.T) {
	src := `public class Params {
    public string Name { get; set; } = "Tower \"A\"";
    public int Floors { get; set; } = 12;
    public double Ratio { get; set; } = 0.75;
    public bool Enabled { get; set; } = false;
    public double Computed { get; set; } = Math.PI;
    public int Wrong { get; set; } = "text";
}`
	params := Extract(src)
	require.Len(t, params, 6)

	var name string
	require.NoError(t, json.Unmarshal([]byte(params[0].DefaultValueJSON), &name))
	assert.Equal(t, `Tower "A"`, name)
	assert.Equal(t, "12", params[1].DefaultValueJSON)
	assert.Equal(t, "0.75", params[2].DefaultValueJSON)
	assert.Equal(t, "false", params[3].DefaultValueJSON)
	assert.Equal(t, "0.0", params[4].DefaultValueJSON)
	assert.Equal(t, "0", params[5].DefaultValueJSON)
}

func TestExtract_NoParams(t *testing.T) {
	assert.Empty(t, Extract("Println(\"hi\");"))
	assert.Empty(t, Extract(""))
	assert.NotNil(t, Extract("public class {{{"))
}

func TestExtract_LegacyAndUmbrellaAttributes(t *testing.T) {
	src := `public class Params {
    [RevitElement("Floor")]
    public string FloorType { get; set; }

    [ScriptParameter(Description = "Pick a point", SelectionType = SelectionType.Point, Group = "Input")]
    public string Origin { get; set; }

    [EnabledWhen("Origin != ''"), Pattern("^[A-Z]+$"), Suffix("units")]
    public string Code { get; set; } = "ABC";
}`
	params := Extract(src)
	require.Len(t, params, 3)

	assert.True(t, params[0].IsRevitElement)
	assert.Equal(t, "Floor", params[0].RevitElementType)

	assert.Equal(t, "Pick a point", params[1].Description)
	assert.Equal(t, script.SelectPoint, params[1].SelectionType)
	assert.Equal(t, "Input", params[1].Group)

	assert.Equal(t, "Origin != ''", params[2].EnabledWhen)
	assert.Equal(t, "^[A-Z]+$", params[2].Pattern)
	assert.Equal(t, "units", params[2].Suffix)
}

func TestExtract_TypeArgumentFollowsAttribute(t *testing.T) {
	src := `public class Params {
    [Selection(Type = "Point")]
    public string Pick { get; set; }

    [RevitElements(Type = "WallType")]
    public string Wall { get; set; }

    [Description("Mark", Type = "Text")]
    public string Mark { get; set; }
}`
	params := Extract(src)
	require.Len(t, params, 3)

	assert.Equal(t, script.SelectPoint, params[0].SelectionType)
	assert.False(t, params[0].IsRevitElement)
	assert.Empty(t, params[0].RevitElementType)

	assert.True(t, params[1].IsRevitElement)
	assert.Equal(t, "WallType", params[1].RevitElementType)

	assert.False(t, params[2].IsRevitElement)
	assert.Empty(t, params[2].RevitElementType)
	assert.Equal(t, "Mark", params[2].Description)
}

func TestExtract_ArrayInitializerDefault(t *testing.T) {
	src := `public class Params {
    public string[] Arr = { "x" };
    public string[] Names { get; set; } = { "a", "b" };
}`
	params := Extract(src)
	require.Len(t, params, 2)
	assert.JSONEq(t, `["x"]`, params[0].DefaultValueJSON)
	assert.JSONEq(t, `["a","b"]`, params[1].DefaultValueJSON)
}

func TestExtract_MultiSelectDefault(t *testing.T) {
	src := `public class Params {
    [Options("A", "B"), MultiSelect(false)]
    public List<string> Single { get; set; }

    [Options("A", "B")]
    public List<string> Many { get; set; }

    [ScriptParameter(Options = "A, B", MultiSelect = false)]
    public List<string> Named { get; set; }
}`
	params := Extract(src)
	require.Len(t, params, 3)
	assert.False(t, params[0].MultiSelect)
	assert.True(t, params[1].MultiSelect)
	assert.False(t, params[2].MultiSelect)
	assert.Equal(t, []string{"A", "B"}, params[2].Options)
}

func TestMapType(t *testing.T) {
	tests := map[string]script.ParameterType{
		"string":              script.TypeString,
		"int?":                script.TypeInteger,
		"System.Double":       script.TypeFloat,
		"Nullable<bool>":      script.TypeBoolean,
		"List<string>":        script.TypeStringList,
		"string[]":            script.TypeStringList,
		"IEnumerable<String>": script.TypeStringList,
	}
	for in, want := range tests {
		got, ok := MapType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"XYZ", "List<int>", "Dictionary<string,int>", "Reference"} {
		_, ok := MapType(in)
		assert.False(t, ok, in)
	}
}
