package taskfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlTask mirrors the full mapping form of a task definition.
type yamlTask struct {
	Description string            `yaml:"description"`
	Dir         string            `yaml:"dir"`
	Env         map[string]string `yaml:"env"`
	Cmd         string            `yaml:"cmd"`
	Task        string            `yaml:"task"`
	Steps       []yaml.Node       `yaml:"steps"`
}

// yamlStep mirrors one entry of a steps sequence. A step is either a
// simple leaf (cmd/task) or a parallel group; which one is decided after
// decoding by looking at the Parallel field.
type yamlStep struct {
	Cmd      string            `yaml:"cmd"`
	Task     string            `yaml:"task"`
	Dir      string            `yaml:"dir"`
	Env      map[string]string `yaml:"env"`
	Parallel []yamlLeaf        `yaml:"parallel"`
}

// yamlLeaf is a member of a parallel group. The grammar deliberately has
// no parallel field here, so nested groups cannot be written.
type yamlLeaf struct {
	Cmd  string            `yaml:"cmd"`
	Task string            `yaml:"task"`
	Dir  string            `yaml:"dir"`
	Env  map[string]string `yaml:"env"`
}

// parseYAML decodes a YAML task file into ordered task definitions. The
// document root must be a mapping of task name to either a scalar command
// string (shorthand) or a full task mapping. Decoding goes through
// yaml.Node so that the declaration order of the mapping keys survives.
func parseYAML(path string) ([]*TaskDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Path: path, Detail: "invalid YAML", Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &MalformedError{Path: path, Detail: "top level must be a mapping of task name to definition"}
	}

	defs := make([]*TaskDef, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		def, err := decodeYAMLTask(path, keyNode.Value, valNode)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func decodeYAMLTask(path, name string, node *yaml.Node) (*TaskDef, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		// Shorthand form: name maps straight to a command string.
		return &TaskDef{Name: name, Cmd: node.Value}, nil
	case yaml.MappingNode:
		var raw yamlTask
		if err := node.Decode(&raw); err != nil {
			return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q", name), Err: err}
		}
		def := &TaskDef{
			Name:        name,
			Description: raw.Description,
			Dir:         raw.Dir,
			Env:         raw.Env,
			Cmd:         raw.Cmd,
			Task:        raw.Task,
		}
		if raw.Steps != nil {
			def.Steps = make([]*StepSpec, 0, len(raw.Steps))
			for j := range raw.Steps {
				step, err := decodeYAMLStep(path, name, &raw.Steps[j])
				if err != nil {
					return nil, err
				}
				def.Steps = append(def.Steps, step)
			}
		}
		return def, nil
	default:
		return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q must be a command string or a mapping", name)}
	}
}

func decodeYAMLStep(path, task string, node *yaml.Node) (*StepSpec, error) {
	var raw yamlStep
	if err := node.Decode(&raw); err != nil {
		return nil, &MalformedError{Path: path, Detail: fmt.Sprintf("task %q steps", task), Err: err}
	}
	step := &StepSpec{Cmd: raw.Cmd, Task: raw.Task, Dir: raw.Dir, Env: raw.Env}
	if raw.Parallel != nil {
		step.Parallel = make([]*StepSpec, 0, len(raw.Parallel))
		for _, leaf := range raw.Parallel {
			step.Parallel = append(step.Parallel, &StepSpec{
				Cmd:  leaf.Cmd,
				Task: leaf.Task,
				Dir:  leaf.Dir,
				Env:  leaf.Env,
			})
		}
	}
	return step, nil
}
