// Package executor walks a validated execution plan and runs its command
// leaves as external processes. Sequences run strictly in order under a
// fail-fast or continue-on-error policy; parallel groups fan out one
// goroutine per member and join them all before reducing the member
// results. All resolution has already happened by the time a plan reaches
// this package, so execution needs no registry or filesystem access.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/rnrgo/internal/ctxlog"
	"github.com/vk/rnrgo/internal/output"
	"github.com/vk/rnrgo/internal/plan"
)

// Policy controls how a sequence reacts to a failing child.
type Policy int

const (
	// FailFast stops a sequence at the first non-zero child; remaining
	// siblings are never spawned.
	FailFast Policy = iota
	// ContinueOnError runs every child of a sequence regardless of
	// earlier failures; the last non-zero code wins.
	ContinueOnError
)

// Executor runs execution plans through a Spawner.
type Executor struct {
	spawner Spawner
	sink    output.Sink
	policy  Policy
}

// Option configures an Executor.
type Option func(*Executor)

// WithPolicy sets the sequence failure policy.
func WithPolicy(p Policy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithSink sets the output sink command leaves write through.
func WithSink(s output.Sink) Option {
	return func(e *Executor) { e.sink = s }
}

// New creates an executor. The default policy is fail-fast; without a
// configured sink, command output is discarded.
func New(spawner Spawner, opts ...Option) *Executor {
	e := &Executor{spawner: spawner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the plan and returns the aggregated result. It is
// synchronous: it returns only after every started process has exited.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) *Result {
	return e.run(ctx, p.Root)
}

func (e *Executor) run(ctx context.Context, n *plan.Node) *Result {
	switch n.Kind {
	case plan.Command:
		return e.runCommand(ctx, n)
	case plan.Parallel:
		return e.runParallel(ctx, n)
	default:
		return e.runSequence(ctx, n)
	}
}

// runCommand spawns one external process and blocks until it exits. A
// process that could not be started at all is recorded as a leaf failure
// with a sentinel code; it never aborts unrelated siblings.
func (e *Executor) runCommand(ctx context.Context, n *plan.Node) *Result {
	logger := ctxlog.FromContext(ctx).With("task", n.Label)

	member := e.member(n.Label)
	defer member.Close()

	fmt.Fprintf(member.Stdout(), "$ %s\n", n.Cmd)
	logger.Debug("Spawning command.", "cmd", n.Cmd, "dir", n.Dir)

	code, err := e.spawner.Spawn(ctx, n.Cmd, n.Dir, n.Env, member.Stdout(), member.Stderr())
	if err != nil {
		spawnErr := &SpawnError{Cmd: n.Cmd, Err: err}
		logger.Error("Command could not be started.", "cmd", n.Cmd, "error", err)
		fmt.Fprintln(member.Stderr(), spawnErr.Error())
		return &Result{Node: n, Code: SpawnFailedCode, Err: spawnErr}
	}
	if code != 0 {
		logger.Debug("Command exited non-zero.", "cmd", n.Cmd, "code", code)
	}
	return &Result{Node: n, Code: code}
}

// runSequence runs children strictly left to right and reduces their
// results per the configured policy.
func (e *Executor) runSequence(ctx context.Context, n *plan.Node) *Result {
	res := &Result{Node: n}
	for _, child := range n.Children {
		childRes := e.run(ctx, child)
		res.Children = append(res.Children, childRes)
		if childRes.Code != 0 {
			res.Code = childRes.Code
			if e.policy == FailFast {
				break
			}
		}
	}
	return res
}

// runParallel starts every member concurrently and joins them all before
// reducing: members already running cannot be safely discarded, so a
// failing member never cancels its siblings. The surfaced code is the
// first failing member's, in declaration order, for determinism; callers
// needing per-member detail consult Children.
func (e *Executor) runParallel(ctx context.Context, n *plan.Node) *Result {
	results := make([]*Result, len(n.Children))

	var wg sync.WaitGroup
	for i, child := range n.Children {
		wg.Add(1)
		go func(i int, child *plan.Node) {
			defer wg.Done()
			results[i] = e.run(ctx, child)
		}(i, child)
	}
	wg.Wait()

	res := &Result{Node: n, Children: results}
	for _, childRes := range results {
		if childRes.Code != 0 {
			res.Code = childRes.Code
			break
		}
	}
	return res
}

func (e *Executor) member(label string) output.Member {
	if e.sink == nil {
		return discardMember{}
	}
	return e.sink.Member(label)
}
