package taskfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// parseHCL decodes an HCL task file into ordered task definitions. The
// grammar mirrors the YAML frontend: a top-level string attribute is the
// shorthand form, and a `task "name" { ... }` block is the full form with
// `cmd`/`task`/`dir`/`env`/`description` attributes plus ordered `step`
// and `parallel` blocks. Decoding walks the hclsyntax body directly
// (rather than gohcl) because the engine needs declaration order across
// mixed attributes and blocks, which struct decoding discards.
func parseHCL(path string) ([]*TaskDef, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &MalformedError{Path: path, Detail: "invalid HCL", Err: diags}
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &MalformedError{Path: path, Detail: "unexpected HCL body type"}
	}

	// Merge shorthand attributes and task blocks back into source order.
	type entry struct {
		pos   int
		attr  *hclsyntax.Attribute
		block *hclsyntax.Block
	}
	entries := make([]entry, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		entries = append(entries, entry{pos: attr.SrcRange.Start.Byte, attr: attr})
	}
	for _, block := range body.Blocks {
		entries = append(entries, entry{pos: block.DefRange().Start.Byte, block: block})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })

	defs := make([]*TaskDef, 0, len(entries))
	for _, e := range entries {
		if e.attr != nil {
			cmd, err := stringValue(path, e.attr.Name, e.attr.Expr)
			if err != nil {
				return nil, err
			}
			defs = append(defs, &TaskDef{Name: e.attr.Name, Cmd: cmd})
			continue
		}
		def, err := decodeHCLTask(path, e.block)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func decodeHCLTask(path string, block *hclsyntax.Block) (*TaskDef, error) {
	if block.Type != "task" {
		return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("unsupported top-level block %q", block.Type)}
	}
	if len(block.Labels) != 1 {
		return nil, &MalformedError{Path: path, Detail: "task block requires exactly one name label"}
	}
	def := &TaskDef{Name: block.Labels[0]}

	for _, attr := range block.Body.Attributes {
		switch attr.Name {
		case "description":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			def.Description = v
		case "dir":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			def.Dir = v
		case "cmd":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			def.Cmd = v
		case "task":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			def.Task = v
		case "env":
			env, err := envValue(path, attr.Expr)
			if err != nil {
				return nil, err
			}
			def.Env = env
		default:
			return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q: unsupported attribute %q", def.Name, attr.Name)}
		}
	}

	for _, inner := range block.Body.Blocks {
		switch inner.Type {
		case "step":
			step, err := decodeHCLStep(path, def.Name, inner)
			if err != nil {
				return nil, err
			}
			def.Steps = append(def.Steps, step)
		case "parallel":
			group := &StepSpec{Parallel: []*StepSpec{}}
			for _, member := range inner.Body.Blocks {
				if member.Type != "step" {
					return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q: parallel block may contain only step blocks, got %q", def.Name, member.Type)}
				}
				leaf, err := decodeHCLStep(path, def.Name, member)
				if err != nil {
					return nil, err
				}
				group.Parallel = append(group.Parallel, leaf)
			}
			def.Steps = append(def.Steps, group)
		default:
			return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q: unsupported block %q", def.Name, inner.Type)}
		}
	}
	return def, nil
}

func decodeHCLStep(path, task string, block *hclsyntax.Block) (*StepSpec, error) {
	if len(block.Labels) != 0 {
		return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q: step block takes no labels", task)}
	}
	step := &StepSpec{}
	for _, attr := range block.Body.Attributes {
		switch attr.Name {
		case "cmd":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			step.Cmd = v
		case "task":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			step.Task = v
		case "dir":
			v, err := stringValue(path, attr.Name, attr.Expr)
			if err != nil {
				return nil, err
			}
			step.Dir = v
		case "env":
			env, err := envValue(path, attr.Expr)
			if err != nil {
				return nil, err
			}
			step.Env = env
		default:
			return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q: unsupported step attribute %q", task, attr.Name)}
		}
	}
	if len(block.Body.Blocks) != 0 {
		return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q: step blocks may not contain nested blocks", task)}
	}
	return step, nil
}

// stringValue evaluates an expression that must yield a literal string.
func stringValue(path, name string, expr hclsyntax.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", &MalformedError{Path: path, Detail: fmt.Sprintf("attribute %q", name), Err: diags}
	}
	if val.Type() != cty.String {
		return "", &MalformedError{Path: path, Detail: fmt.Sprintf("attribute %q must be a string, got %s", name, val.Type().FriendlyName())}
	}
	return val.AsString(), nil
}

// envValue evaluates an expression that must yield a string-to-string
// mapping.
func envValue(path string, expr hclsyntax.Expression) (map[string]string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, &MalformedError{Path: path, Detail: "attribute \"env\"", Err: diags}
	}
	if !val.CanIterateElements() {
		return nil, &MalformedError{Path: path, Detail: "attribute \"env\" must be a map of strings"}
	}
	env := make(map[string]string)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if k.Type() != cty.String || v.Type() != cty.String {
			return nil, &MalformedError{Path: path, Detail: "attribute \"env\" must map string keys to string values"}
		}
		env[k.AsString()] = v.AsString()
	}
	return env, nil
}
