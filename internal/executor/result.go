package executor

import (
	"io"

	"github.com/vk/rnrgo/internal/plan"
)

// SpawnFailedCode is the sentinel exit code recorded for a command that
// could not be started at all, as opposed to one that started and exited
// non-zero.
const SpawnFailedCode = -1

// Result is the outcome of running one plan node. For Sequence and
// Parallel nodes it carries the results of every child that was
// attempted, in declaration order.
type Result struct {
	Node     *plan.Node
	Code     int
	Err      error // set on leaves whose process could not be started
	Children []*Result
}

// OK reports whether the node and everything under it succeeded.
func (r *Result) OK() bool { return r.Code == 0 }

// FailedLeaves returns the command leaves that failed, in execution
// order, for structured reporting.
func (r *Result) FailedLeaves() []*Result {
	var failed []*Result
	r.collectFailed(&failed)
	return failed
}

func (r *Result) collectFailed(out *[]*Result) {
	if r.Node.Kind == plan.Command {
		if r.Code != 0 {
			*out = append(*out, r)
		}
		return
	}
	for _, child := range r.Children {
		child.collectFailed(out)
	}
}

// discardMember is the output channel used when no sink is configured.
type discardMember struct{}

func (discardMember) Stdout() io.Writer { return io.Discard }
func (discardMember) Stderr() io.Writer { return io.Discard }
func (discardMember) Close() error      { return nil }
