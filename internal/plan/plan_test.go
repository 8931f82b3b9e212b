package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cmd(label, command string) *Node {
	return &Node{Kind: Command, Label: label, Cmd: command, Dir: "/tmp"}
}

func TestBuild_CountsLeaves(t *testing.T) {
	root := &Node{Kind: Sequence, Children: []*Node{
		cmd("a", "echo a"),
		{Kind: Parallel, Children: []*Node{
			cmd("b", "echo b"),
			cmd("c", "echo c"),
		}},
	}}

	p, err := Build(root)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Leaves)
}

func TestBuild_RejectsNestedParallel(t *testing.T) {
	root := &Node{Kind: Parallel, Label: "outer", Children: []*Node{
		{Kind: Parallel, Label: "inner", Children: []*Node{cmd("a", "echo a")}},
	}}

	_, err := Build(root)
	require.ErrorIs(t, err, ErrNestedParallel)
}

func TestBuild_RejectsParallelNestedThroughSequence(t *testing.T) {
	// A task reference inside a parallel group expands to a sequence;
	// a parallel group inside that expansion is still nested.
	root := &Node{Kind: Parallel, Label: "outer", Children: []*Node{
		{Kind: Sequence, Label: "ref", Children: []*Node{
			{Kind: Parallel, Label: "inner", Children: []*Node{cmd("a", "echo a")}},
		}},
	}}

	_, err := Build(root)
	require.ErrorIs(t, err, ErrNestedParallel)
}

func TestBuild_AllowsParallelUnderTopLevelSequence(t *testing.T) {
	root := &Node{Kind: Sequence, Children: []*Node{
		{Kind: Parallel, Children: []*Node{cmd("a", "echo a")}},
		{Kind: Parallel, Children: []*Node{cmd("b", "echo b")}},
	}}

	_, err := Build(root)
	require.NoError(t, err)
}

func TestBuild_RejectsRelativeLeafDir(t *testing.T) {
	root := &Node{Kind: Command, Label: "a", Cmd: "echo a", Dir: "relative/path"}

	_, err := Build(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-absolute")
}

func TestBuild_RejectsEmptyCommand(t *testing.T) {
	_, err := Build(&Node{Kind: Command, Label: "a", Dir: "/tmp"})
	require.Error(t, err)
}

func TestBuild_RejectsNilRoot(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
}
