package polyscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/host/sqlhost"
	"github.com/Sey56/Paracore-sub001/internal/script"
)

func TestLanguageOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want Language
		ok   bool
	}{
		{"main.risor", LanguageRisor, true},
		{"main.RSR", LanguageRisor, true},
		{"main.star", LanguageStarlark, true},
		{"lib.starlark", LanguageStarlark, true},
		{"Main.cs", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LanguageOf(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryFile(t *testing.T) {
	t.Parallel()
	files := []script.File{
		{Name: "Params.cs", Content: "public class Params {}"},
		{Name: "main.star", Content: "_ = 1"},
	}
	f, lang, ok := EntryFile(files)
	require.True(t, ok)
	assert.Equal(t, "main.star", f.Name)
	assert.Equal(t, LanguageStarlark, lang)

	_, _, ok = EntryFile(files[:1])
	assert.False(t, ok)
}

func TestHasFunction(t *testing.T) {
	t.Parallel()
	risorSrc := "func Level_Options() {\n  return [\"L1\"]\n}\n"
	starSrc := "def Level_Range():\n    return [0, 10, 1]\n"

	assert.True(t, HasFunction(LanguageRisor, risorSrc, "Level_Options"))
	assert.False(t, HasFunction(LanguageRisor, risorSrc, "Level"))
	assert.False(t, HasFunction(LanguageStarlark, risorSrc, "Level_Options"))
	assert.True(t, HasFunction(LanguageStarlark, starSrc, "Level_Range"))
	assert.False(t, HasFunction("lua", starSrc, "Level_Range"))
}

func TestCallSource(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "x := 1\nF()\n", callSource(LanguageRisor, "x := 1", "F"))
	assert.Equal(t, "x = 1\n_ = F()\n", callSource(LanguageStarlark, "x = 1", "F"))
}

func TestApplyResult(t *testing.T) {
	t.Parallel()

	t.Run("string prints", func(t *testing.T) {
		x := execution.New("id", nil)
		require.NoError(t, applyResult(t.Context(), x, "hello"))
		assert.Equal(t, "hello\n", x.Drain().Output)
	})

	t.Run("plain values become result items", func(t *testing.T) {
		x := execution.New("id", nil)
		require.NoError(t, applyResult(t.Context(), x, int64(42)))
		require.NoError(t, applyResult(t.Context(), x, map[string]any{"total": 3}))
		c := x.Drain()
		require.Len(t, c.StructuredOutput, 2)
		assert.JSONEq(t, `42`, string(c.StructuredOutput[0].Data))
		assert.JSONEq(t, `{"total":3}`, string(c.StructuredOutput[1].Data))
	})

	t.Run("print output and result keys", func(t *testing.T) {
		x := execution.New("id", nil)
		err := applyResult(t.Context(), x, map[string]any{
			"print": []any{"one", "two"},
			"output": []any{
				map[string]any{"type": "table", "data": []any{map[string]any{"a": 1}}},
				map[string]any{"data": "note"},
			},
			"result": "done",
		})
		require.NoError(t, err)
		c := x.Drain()
		assert.Equal(t, "one\ntwo\n", c.Output)
		require.Len(t, c.StructuredOutput, 3)
		assert.Equal(t, "table", c.StructuredOutput[0].Type)
		assert.Equal(t, "message", c.StructuredOutput[1].Type)
		assert.Equal(t, "result", c.StructuredOutput[2].Type)
	})

	t.Run("create runs a transaction", func(t *testing.T) {
		doc, err := sqlhost.Open(":memory:")
		require.NoError(t, err)
		defer func() { assert.NoError(t, doc.Close()) }()

		x := execution.New("id", doc)
		err = applyResult(t.Context(), x, map[string]any{
			"transaction": "Create levels",
			"create": []any{
				map[string]any{"type": "Level", "name": "L1", "params": map[string]any{"Elevation": 0}},
				map[string]any{"type": "Level", "name": "L2"},
			},
		})
		require.NoError(t, err)

		n, err := doc.Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		ws, ok := execution.ParseWorkingSet(x.InternalData())
		require.True(t, ok)
		assert.Equal(t, execution.OperationAdd, ws.Operation)
		assert.Len(t, ws.ElementIDs, 2)
	})

	t.Run("create item without a type fails", func(t *testing.T) {
		x := execution.New("id", nil)
		err := applyResult(t.Context(), x, map[string]any{"create": []any{map[string]any{"name": "x"}}})
		assert.ErrorContains(t, err, "has no type")
	})

	t.Run("working set replaces", func(t *testing.T) {
		x := execution.New("id", nil)
		require.NoError(t, applyResult(t.Context(), x, map[string]any{"working_set": []any{int64(4), float64(5)}}))
		ws, ok := execution.ParseWorkingSet(x.InternalData())
		require.True(t, ok)
		assert.Equal(t, execution.OperationReplace, ws.Operation)
		assert.Equal(t, []int64{4, 5}, ws.ElementIDs)
	})

	t.Run("error key fails", func(t *testing.T) {
		x := execution.New("id", nil)
		err := applyResult(t.Context(), x, map[string]any{"print": "before", "error": "bad input"})
		require.ErrorIs(t, err, ErrScript)
		assert.Contains(t, err.Error(), "bad input")
		assert.Equal(t, "before\n", x.Drain().Output)
	})
}
