// Package resolver turns a requested task name into a fully-dereferenced
// execution plan. Resolution is a depth-first walk over task definitions
// that follows dir+task delegation into nested task files, computes each
// node's effective working directory and environment as it goes, and
// detects delegation cycles with an explicit visited path, so a cycle is
// a reported error rather than unbounded recursion.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/rnrgo/internal/ctxlog"
	"github.com/vk/rnrgo/internal/plan"
	"github.com/vk/rnrgo/internal/registry"
	"github.com/vk/rnrgo/internal/taskfile"
)

// ref identifies one task entered on the current resolution path.
type ref struct {
	filePath string
	task     string
}

func (r ref) String() string {
	return fmt.Sprintf("%s (%s)", r.task, r.filePath)
}

// CycleError reports a task that transitively delegates to itself. Chain
// holds the full delegation path for diagnostics, ending with the
// repeated task.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "cyclic task delegation: " + strings.Join(e.Chain, " -> ")
}

// scope is the context a node inherits from its caller: the effective
// working directory and environment in force at the point of reference.
type scope struct {
	dir string
	env map[string]string
}

// withDir anchors a relative dir to the declaring file's own directory.
// An absent dir leaves the inherited directory in force; an explicit one
// replaces it outright, it never concatenates with the parent's.
func (s scope) withDir(fileDir, dir string) scope {
	if dir == "" {
		return s
	}
	s.dir = filepath.Join(fileDir, dir)
	return s
}

// withEnv overlays env on the inherited environment; the overlay wins on
// key collisions.
func (s scope) withEnv(env map[string]string) scope {
	if len(env) == 0 {
		return s
	}
	merged := make(map[string]string, len(s.env)+len(env))
	for k, v := range s.env {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	s.env = merged
	return s
}

// Resolver resolves task names against a loaded registry.
type Resolver struct {
	reg *registry.Registry
}

// New creates a resolver over the given registry.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve expands name, starting from the root task file, into a
// validated execution plan. All resolution and validation errors surface
// here, before anything is spawned.
func (r *Resolver) Resolve(ctx context.Context, name string) (*plan.Plan, error) {
	root := r.reg.Root()
	start := scope{dir: root.Dir}
	node, err := r.resolveRef(ctx, root, name, start, nil)
	if err != nil {
		return nil, err
	}
	p, err := plan.Build(node)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Task resolved into plan.", "task", name, "leaves", p.Leaves)
	return p, nil
}

// resolveRef enters the named task in file: it checks the visited path
// for a cycle, looks the definition up, and resolves it.
func (r *Resolver) resolveRef(ctx context.Context, file *taskfile.File, name string, sc scope, path []ref) (*plan.Node, error) {
	target := ref{filePath: file.Path, task: name}
	for _, seen := range path {
		if seen == target {
			chain := make([]string, 0, len(path)+1)
			for _, p := range path {
				chain = append(chain, p.String())
			}
			chain = append(chain, target.String())
			return nil, &CycleError{Chain: chain}
		}
	}

	def, err := r.reg.Lookup(file, name)
	if err != nil {
		return nil, err
	}
	// Copy the path so sibling branches never share a backing array.
	entered := make([]ref, 0, len(path)+1)
	entered = append(entered, path...)
	entered = append(entered, target)
	return r.resolveDef(ctx, file, def, sc, entered)
}

// resolveDef resolves one task definition. The effective dir/env are
// computed here, during the walk: dir relative to the declaring file's
// directory, env overlaid on the caller's.
func (r *Resolver) resolveDef(ctx context.Context, file *taskfile.File, def *taskfile.TaskDef, sc scope, path []ref) (*plan.Node, error) {
	sc = sc.withDir(file.Dir, def.Dir).withEnv(def.Env)

	switch {
	case def.Cmd != "":
		return commandNode(def.Name, def.Cmd, sc), nil

	case def.Task != "":
		return r.delegate(ctx, file, def.Task, def.Dir != "", sc, path)

	default:
		seq := &plan.Node{Kind: plan.Sequence, Label: def.Name, Dir: sc.dir, Env: sc.env}
		for i, step := range def.Steps {
			child, err := r.resolveStep(ctx, file, def.Name, i, step, sc, path)
			if err != nil {
				return nil, err
			}
			seq.Children = append(seq.Children, child)
		}
		return seq, nil
	}
}

// resolveStep resolves one entry of a steps sequence.
func (r *Resolver) resolveStep(ctx context.Context, file *taskfile.File, task string, index int, step *taskfile.StepSpec, sc scope, path []ref) (*plan.Node, error) {
	if step.IsParallel() {
		group := &plan.Node{
			Kind:  plan.Parallel,
			Label: fmt.Sprintf("%s[%d]", task, index+1),
			Dir:   sc.dir,
			Env:   sc.env,
		}
		for _, member := range step.Parallel {
			child, err := r.resolveLeaf(ctx, file, task, member, sc, path)
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, child)
		}
		return group, nil
	}
	return r.resolveLeaf(ctx, file, task, step, sc, path)
}

// resolveLeaf resolves a command leaf or task reference step.
func (r *Resolver) resolveLeaf(ctx context.Context, file *taskfile.File, task string, step *taskfile.StepSpec, sc scope, path []ref) (*plan.Node, error) {
	sc = sc.withDir(file.Dir, step.Dir).withEnv(step.Env)
	if step.Task != "" {
		return r.delegate(ctx, file, step.Task, step.Dir != "", sc, path)
	}
	return commandNode(task, step.Cmd, sc), nil
}

// delegate follows a task reference: into the nested task file at the
// already-resolved scope directory when the reference carries a dir, or
// within the current file otherwise. The target inherits the scope in
// force at the point of reference.
func (r *Resolver) delegate(ctx context.Context, file *taskfile.File, name string, hasDir bool, sc scope, path []ref) (*plan.Node, error) {
	target := file
	if hasDir {
		nested, err := r.reg.Nested(ctx, sc.dir)
		if err != nil {
			return nil, err
		}
		target = nested
	}
	return r.resolveRef(ctx, target, name, sc, path)
}

func commandNode(label, cmd string, sc scope) *plan.Node {
	return &plan.Node{
		Kind:  plan.Command,
		Label: label,
		Cmd:   cmd,
		Dir:   sc.dir,
		Env:   sc.env,
	}
}
