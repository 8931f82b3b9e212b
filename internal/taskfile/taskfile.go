// Package taskfile loads declarative task files into a format-agnostic
// model. Two textual frontends are supported: HCL (rnr.hcl) and YAML
// (rnr.yaml / rnr.yml). Both yield the same ordered collection of
// TaskDef values, so everything downstream of this package is
// format-agnostic.
package taskfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TaskDef is the declarative unit read from a task file. Exactly one of
// Cmd, Task, or Steps must be set; Load enforces this.
type TaskDef struct {
	Name        string
	Description string
	Dir         string            // relative to the declaring file's directory
	Env         map[string]string // overlaid on the inherited environment
	Cmd         string            // literal shell command
	Task        string            // reference to another task name
	Steps       []*StepSpec       // ordered sequence
}

// StepSpec is one entry inside a steps sequence: a command leaf, a task
// reference, or a parallel group. Parallel members are leaves or task
// references only; the grammar of both frontends does not admit a
// parallel group inside another one.
type StepSpec struct {
	Cmd      string
	Task     string
	Dir      string
	Env      map[string]string
	Parallel []*StepSpec
}

// IsParallel reports whether the step is a parallel group.
func (s *StepSpec) IsParallel() bool { return s.Parallel != nil }

// File is one loaded task file: an ordered, name-indexed collection of
// task definitions plus the location they were declared in. A File is
// immutable after Load returns it.
type File struct {
	Path   string // absolute path of the task file
	Dir    string // absolute directory containing it
	defs   []*TaskDef
	byName map[string]*TaskDef
}

// Lookup returns the named task definition, or nil if the file does not
// declare it.
func (f *File) Lookup(name string) *TaskDef {
	return f.byName[name]
}

// Tasks returns the task definitions in declaration order.
func (f *File) Tasks() []*TaskDef {
	return f.defs
}

// MalformedError reports a task file that could not be parsed or that
// violates the TaskDef invariants.
type MalformedError struct {
	Path   string
	Detail string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed task file %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed task file %s: %s", e.Path, e.Detail)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Load parses the task file at path, choosing the frontend from the file
// extension, and validates the result. The returned File records the
// absolute path so that dir-relative resolution downstream is anchored
// to where the file actually lives.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	var defs []*TaskDef
	switch ext := strings.ToLower(filepath.Ext(abs)); ext {
	case ".hcl":
		defs, err = parseHCL(abs)
	case ".yaml", ".yml":
		defs, err = parseYAML(abs)
	default:
		return nil, &MalformedError{Path: abs, Detail: fmt.Sprintf("unsupported task file extension %q", ext)}
	}
	if err != nil {
		return nil, err
	}

	f := &File{
		Path:   abs,
		Dir:    filepath.Dir(abs),
		defs:   defs,
		byName: make(map[string]*TaskDef, len(defs)),
	}
	for _, def := range defs {
		if err := validateDef(abs, def); err != nil {
			return nil, err
		}
		if _, dup := f.byName[def.Name]; dup {
			return nil, &MalformedError{Path: abs, Detail: fmt.Sprintf("task %q declared more than once", def.Name)}
		}
		f.byName[def.Name] = def
	}
	return f, nil
}

// validateDef enforces the exactly-one-of {cmd, task, steps} invariant on
// a task definition and the analogous invariant on each of its steps.
func validateDef(path string, def *TaskDef) error {
	if def.Name == "" {
		return &MalformedError{Path: path, Detail: "task with empty name"}
	}
	n := 0
	if def.Cmd != "" {
		n++
	}
	if def.Task != "" {
		n++
	}
	if def.Steps != nil {
		n++
	}
	if n != 1 {
		return &MalformedError{Path: path, Detail: fmt.Sprintf("task %q must have exactly one of cmd, task, or steps", def.Name)}
	}
	for i, step := range def.Steps {
		if err := validateStep(path, def.Name, i, step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(path, task string, index int, step *StepSpec) error {
	n := 0
	if step.Cmd != "" {
		n++
	}
	if step.Task != "" {
		n++
	}
	if step.Parallel != nil {
		n++
	}
	if n != 1 {
		return &MalformedError{Path: path, Detail: fmt.Sprintf("task %q step %d must have exactly one of cmd, task, or parallel", task, index+1)}
	}
	for j, member := range step.Parallel {
		if member.Parallel != nil {
			return &MalformedError{Path: path, Detail: fmt.Sprintf("task %q step %d: parallel member %d may not itself be a parallel group", task, index+1, j+1)}
		}
		if (member.Cmd == "") == (member.Task == "") {
			return &MalformedError{Path: path, Detail: fmt.Sprintf("task %q step %d: parallel member %d must have exactly one of cmd or task", task, index+1, j+1)}
		}
	}
	return nil
}
