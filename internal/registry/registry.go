// Package registry holds the task definitions visible to one invocation:
// the root task file plus an on-demand cache of nested task files reached
// through dir+task delegation. The registry is read-only once the root is
// loaded; nested files are faulted in at most once per directory and may
// be read concurrently by parallel plan branches.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/rnrgo/internal/ctxlog"
	"github.com/vk/rnrgo/internal/fsutil"
	"github.com/vk/rnrgo/internal/taskfile"
)

// ErrUnknownTask reports a task name absent from the file it was looked
// up in.
var ErrUnknownTask = errors.New("unknown task")

// ErrMissingTaskFile reports a delegation target directory that contains
// no task file.
var ErrMissingTaskFile = errors.New("no task file")

// Registry is the process-scoped view of all reachable task definitions.
type Registry struct {
	root *taskfile.File

	mu     sync.Mutex
	nested map[string]*taskfile.File // keyed by absolute directory
}

// Load parses the root task file at path and returns a registry anchored
// to it. Nested files are not loaded here; they are only ever loaded on
// demand as delegation targets.
func Load(ctx context.Context, path string) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	root, err := taskfile.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Root task file loaded.", "path", root.Path, "tasks", len(root.Tasks()))
	return &Registry{
		root:   root,
		nested: make(map[string]*taskfile.File),
	}, nil
}

// Root returns the root task file.
func (r *Registry) Root() *taskfile.File {
	return r.root
}

// Lookup finds name in the given file. It fails with ErrUnknownTask when
// the file does not declare it.
func (r *Registry) Lookup(file *taskfile.File, name string) (*taskfile.TaskDef, error) {
	if def := file.Lookup(name); def != nil {
		return def, nil
	}
	return nil, fmt.Errorf("%w %q in %s", ErrUnknownTask, name, file.Path)
}

// Nested returns the task file declared in dir (an absolute path),
// loading and caching it on first use. A given directory is parsed at
// most once per invocation, however many delegations point at it.
func (r *Registry) Nested(ctx context.Context, dir string) (*taskfile.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if file, ok := r.nested[dir]; ok {
		return file, nil
	}

	path, err := fsutil.FindTaskFile(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w in %s", ErrMissingTaskFile, dir)
	}

	file, err := taskfile.Load(path)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Nested task file loaded.", "path", file.Path, "tasks", len(file.Tasks()))
	r.nested[dir] = file
	return file, nil
}

// TaskInfo is one row of the task listing.
type TaskInfo struct {
	Name        string
	Description string
}

// List enumerates the root file's tasks sorted by name. Nested-file tasks
// are not listed; they only surface through explicit delegation.
func (r *Registry) List() []TaskInfo {
	defs := r.root.Tasks()
	infos := make([]TaskInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, TaskInfo{Name: def.Name, Description: def.Description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
