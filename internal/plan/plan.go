// Package plan defines the resolved execution plan: an immutable tree of
// command leaves, sequences, and parallel groups, each annotated with
// the effective working directory and environment computed during
// resolution. The executor walks this tree without ever touching the
// registry or the filesystem.
package plan

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Kind discriminates the node variants of an execution plan.
type Kind int

const (
	// Command is a leaf that spawns one external process.
	Command Kind = iota
	// Sequence runs its children strictly in order.
	Sequence
	// Parallel starts all children concurrently and joins them all.
	Parallel
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "command"
	case Sequence:
		return "sequence"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one vertex of the execution plan. A node tree is owned by the
// single execution in progress and is never mutated after Build returns.
type Node struct {
	Kind  Kind
	Label string // task name or command excerpt, for diagnostics and output prefixes
	Cmd   string // Command nodes only

	// Dir is the effective working directory, always absolute.
	Dir string
	// Env is the fully merged effective environment overlay for this
	// node. It is applied on top of the invoking process environment at
	// spawn time.
	Env map[string]string

	Children []*Node // Sequence and Parallel nodes only
}

// ErrNestedParallel reports a parallel group inside another parallel
// group, which the engine rejects at plan-build time.
var ErrNestedParallel = errors.New("parallel group nested inside a parallel group")

// Plan is a validated, executable node tree.
type Plan struct {
	Root   *Node
	Leaves int
}

// Build validates a resolved node tree and wraps it into a Plan. It
// checks that no parallel group contains another parallel group anywhere
// in its subtree and that every leaf carries an absolute working
// directory, so the executor can rely on both.
func Build(root *Node) (*Plan, error) {
	if root == nil {
		return nil, errors.New("plan: nil root node")
	}
	if err := validate(root, false); err != nil {
		return nil, err
	}
	return &Plan{Root: root, Leaves: CountLeaves(root)}, nil
}

func validate(n *Node, inParallel bool) error {
	switch n.Kind {
	case Command:
		if n.Cmd == "" {
			return fmt.Errorf("plan: command node %q with empty command", n.Label)
		}
		if !filepath.IsAbs(n.Dir) {
			return fmt.Errorf("plan: command node %q with non-absolute dir %q", n.Label, n.Dir)
		}
		return nil
	case Parallel:
		if inParallel {
			return fmt.Errorf("%w (group %q)", ErrNestedParallel, n.Label)
		}
		inParallel = true
	case Sequence:
		// Sequences are transparent for the nesting check: a task
		// reference inside a parallel group expands to a sequence, and a
		// parallel group inside that expansion is still nested.
	default:
		return fmt.Errorf("plan: unknown node kind %v", n.Kind)
	}
	for _, child := range n.Children {
		if err := validate(child, inParallel); err != nil {
			return err
		}
	}
	return nil
}

// CountLeaves returns the number of Command leaves in the subtree.
func CountLeaves(n *Node) int {
	if n.Kind == Command {
		return 1
	}
	total := 0
	for _, child := range n.Children {
		total += CountLeaves(child)
	}
	return total
}
