package app

import (
	"context"

	"github.com/vk/rnrgo/internal/ctxlog"
	"github.com/vk/rnrgo/internal/executor"
	"github.com/vk/rnrgo/internal/output"
	"github.com/vk/rnrgo/internal/resolver"
)

// Run resolves taskName into a plan and executes it, returning the exit
// code the process should terminate with. Resolution and validation
// complete before anything is spawned, so a bad reference or a cycle
// anywhere in the plan surfaces as an error with no side effects.
func (a *App) Run(ctx context.Context, taskName string) (int, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	p, err := resolver.New(a.reg).Resolve(ctx, taskName)
	if err != nil {
		return 0, err
	}
	a.logger.Debug("Plan built.", "task", taskName, "leaves", p.Leaves)

	exec := executor.New(
		executor.LocalSpawner{},
		executor.WithPolicy(a.policy()),
		executor.WithSink(output.NewSink(output.Mode(a.config.Output), a.outW, a.errW)),
	)
	result := exec.Execute(ctx, p)

	for _, leaf := range result.FailedLeaves() {
		if leaf.Err != nil {
			a.logger.Error("Step could not be started.", "task", leaf.Node.Label, "cmd", leaf.Node.Cmd, "error", leaf.Err)
			continue
		}
		a.logger.Error("Step failed.", "task", leaf.Node.Label, "cmd", leaf.Node.Cmd, "code", leaf.Code)
	}

	return exitCode(result), nil
}

func (a *App) policy() executor.Policy {
	if a.config.ContinueOnError {
		return executor.ContinueOnError
	}
	return executor.FailFast
}

// exitCode maps a result to a process exit status. Sentinel codes from
// unstartable commands map to a conventional shell "command not found"
// style failure rather than a negative status.
func exitCode(r *executor.Result) int {
	if r.Code == executor.SpawnFailedCode {
		return 127
	}
	if r.Code < 0 || r.Code > 255 {
		return 1
	}
	return r.Code
}
