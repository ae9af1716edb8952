package fancy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sey56/Paracore-sub001/internal/fancy"
)

func TestTree(t *testing.T) {
	tree := fancy.Tree()
	assert.NotNil(t, tree)

	tree.Root("Root Node")
	child := tree.Child("Child Node")
	child.Child("Grandchild")

	treeString := tree.String()
	assert.Contains(t, treeString, "Root Node")
	assert.Contains(t, treeString, "Child Node")
	assert.Contains(t, treeString, "Grandchild")
}

func TestBranchNode(t *testing.T) {
	branchNode := fancy.BranchNode("Parameters", "(5)")
	treeString := branchNode.String()
	assert.Contains(t, treeString, "Parameters")
	assert.Contains(t, treeString, "(5)")
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "shorter than max", input: "Short string", maxLength: 20, want: "Short string"},
		{name: "exactly max", input: "Exactly twenty chars", maxLength: 20, want: "Exactly twenty chars"},
		{name: "longer than max", input: "This string is definitely too long", maxLength: 10, want: "This st..."},
		{name: "tiny max", input: "abcdef", maxLength: 2, want: "ab"},
		{name: "empty", input: "", maxLength: 5, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fancy.TruncateString(tt.input, tt.maxLength))
		})
	}
}

func TestComponentTrees(t *testing.T) {
	section := fancy.SectionTree("Geometry")
	param := fancy.ParameterTree("Radius", "number")
	param.AddBranch("default: 2400")
	section.AddChild(param.Tree())
	section.AddBranch("Count integer")

	out := section.String()
	assert.Contains(t, out, "Geometry")
	assert.Contains(t, out, "Radius")
	assert.Contains(t, out, "number")
	assert.Contains(t, out, "default: 2400")
	assert.Contains(t, out, "Count integer")
	assert.Same(t, section.Tree(), section.Tree())
}
