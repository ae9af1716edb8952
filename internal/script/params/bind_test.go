package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/script"
)

func TestBind(t *testing.T) {
	descriptors := Extract(`public class Params {
    [Unit("cm")] public double Radius { get; set; } = 2400.0;
    [Range(1, 20, 1)] public int Count { get; set; } = 3;
    [Options("Fast", "Slow")] public string Speed { get; set; } = "Fast";
    public List<string> Tags { get; set; }
    public bool Flag { get; set; }
}`)
	require.Len(t, descriptors, 5)

	t.Run("defaults", func(t *testing.T) {
		values, err := Bind(descriptors, nil)
		require.NoError(t, err)
		assert.InDelta(t, 2400.0/30.48, values["Radius"], 1e-9)
		assert.Equal(t, int64(3), values["Count"])
		assert.Equal(t, "Fast", values["Speed"])
		assert.Equal(t, []string{}, values["Tags"])
		assert.Equal(t, false, values["Flag"])
	})

	t.Run("object form", func(t *testing.T) {
		values, err := Bind(descriptors, []byte(`{"Radius": 50, "Count": "7", "Tags": "a, b", "Flag": "true", "Extra": 1}`))
		require.NoError(t, err)
		assert.InDelta(t, 50/30.48, values["Radius"], 1e-9)
		assert.Equal(t, int64(7), values["Count"])
		assert.Equal(t, []string{"a", "b"}, values["Tags"])
		assert.Equal(t, true, values["Flag"])
		assert.Contains(t, values, "Extra")
	})

	t.Run("list form", func(t *testing.T) {
		values, err := Bind(descriptors, []byte(`[{"name": "Speed", "value": "Slow"}, {"name": "Tags", "value": ["x"]}]`))
		require.NoError(t, err)
		assert.Equal(t, "Slow", values["Speed"])
		assert.Equal(t, []string{"x"}, values["Tags"])
	})

	t.Run("violations are joined", func(t *testing.T) {
		_, err := Bind(descriptors, []byte(`{"Count": 40, "Speed": "Medium", "Flag": "maybe"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Contains(t, err.Error(), "Count")
		assert.Contains(t, err.Error(), "Speed")
		assert.Contains(t, err.Error(), "Flag")
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := Bind(descriptors, []byte(`"nope"`))
		assert.ErrorIs(t, err, ErrInvalidValues)

		_, err = Bind(descriptors, []byte(`[{"name":"Speed","value":"Fast"},{"name":"Speed","value":"Slow"}]`))
		assert.ErrorIs(t, err, ErrInvalidValues)
	})
}

func TestBind_RequiredAndPattern(t *testing.T) {
	descriptors := []script.Parameter{
		{Name: "Code", Type: script.TypeString, DefaultValueJSON: `""`, IsRequired: true, Pattern: "^[A-Z]+$"},
	}
	_, err := Bind(descriptors, nil)
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = Bind(descriptors, []byte(`{"Code": "abc"}`))
	require.ErrorIs(t, err, ErrInvalidValue)

	values, err := Bind(descriptors, []byte(`{"Code": "ABC"}`))
	require.NoError(t, err)
	assert.Equal(t, "ABC", values["Code"])
}

func TestUnits(t *testing.T) {
	ft, ok := ToInternal(304.8, "mm")
	require.True(t, ok)
	assert.InDelta(t, 1.0, ft, 1e-12)

	rad, ok := ToInternal(180, "degrees")
	require.True(t, ok)
	assert.InDelta(t, 3.141592653589793, rad, 1e-12)

	back, ok := FromInternal(1, "m")
	require.True(t, ok)
	assert.InDelta(t, 0.3048, back, 1e-12)

	v, ok := ToInternal(5, "widgets")
	assert.False(t, ok)
	assert.InDelta(t, 5.0, v, 0)
}
