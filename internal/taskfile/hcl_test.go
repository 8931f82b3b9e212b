package taskfile_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rnrgo/internal/taskfile"
	"github.com/vk/rnrgo/internal/testutil"
)

func loadHCL(t *testing.T, content string) *taskfile.File {
	t.Helper()
	root := testutil.WriteTree(t, map[string]string{"rnr.hcl": content})
	f, err := taskfile.Load(filepath.Join(root, "rnr.hcl"))
	require.NoError(t, err)
	return f
}

func TestHCL_ShorthandAttribute(t *testing.T) {
	f := loadHCL(t, `lint = "cargo clippy"`)

	def := f.Lookup("lint")
	require.NotNil(t, def)
	assert.Equal(t, "cargo clippy", def.Cmd)
}

func TestHCL_TaskBlock(t *testing.T) {
	f := loadHCL(t, `
task "build" {
  description = "Build the API"
  dir         = "services/api"
  env = {
    RUST_LOG = "info"
  }
  cmd = "cargo build --release"
}
`)

	def := f.Lookup("build")
	require.NotNil(t, def)
	assert.Equal(t, "Build the API", def.Description)
	assert.Equal(t, "services/api", def.Dir)
	assert.Equal(t, map[string]string{"RUST_LOG": "info"}, def.Env)
	assert.Equal(t, "cargo build --release", def.Cmd)
}

func TestHCL_StepsAndParallel(t *testing.T) {
	f := loadHCL(t, `
task "deploy" {
  step {
    cmd = "echo start"
  }
  parallel {
    step {
      task = "build-api"
    }
    step {
      cmd = "npm run build"
    }
  }
  step {
    cmd = "echo done"
  }
}
`)

	def := f.Lookup("deploy")
	require.NotNil(t, def)
	require.Len(t, def.Steps, 3)
	assert.Equal(t, "echo start", def.Steps[0].Cmd)
	require.True(t, def.Steps[1].IsParallel())
	require.Len(t, def.Steps[1].Parallel, 2)
	assert.Equal(t, "build-api", def.Steps[1].Parallel[0].Task)
	assert.Equal(t, "echo done", def.Steps[2].Cmd)
}

func TestHCL_MixedShorthandAndBlocksKeepSourceOrder(t *testing.T) {
	f := loadHCL(t, `
zebra = "echo z"

task "alpha" {
  cmd = "echo a"
}

middle = "echo m"
`)

	var names []string
	for _, def := range f.Tasks() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"zebra", "alpha", "middle"}, names)
}

func TestHCL_ShorthandEquivalentToBlockForm(t *testing.T) {
	short := loadHCL(t, `build = "cargo build"`)
	full := loadHCL(t, `
task "build" {
  cmd = "cargo build"
}
`)

	assert.Equal(t, short.Lookup("build").Cmd, full.Lookup("build").Cmd)
	assert.Equal(t, short.Lookup("build").Task, full.Lookup("build").Task)
}

func TestHCL_RejectsInvalidSyntax(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"rnr.hcl": `task "broken" {`})

	_, err := taskfile.Load(filepath.Join(root, "rnr.hcl"))
	var malformed *taskfile.MalformedError
	require.ErrorAs(t, err, &malformed)
}

func TestHCL_RejectsUnknownAttribute(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"rnr.hcl": `
task "broken" {
  cmd   = "echo hi"
  watch = true
}
`})

	_, err := taskfile.Load(filepath.Join(root, "rnr.hcl"))
	var malformed *taskfile.MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Detail, "watch")
}

func TestHCL_RejectsDuplicateTaskNames(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"rnr.hcl": `
build = "echo one"

task "build" {
  cmd = "echo two"
}
`})

	_, err := taskfile.Load(filepath.Join(root, "rnr.hcl"))
	var malformed *taskfile.MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Detail, "more than once")
}
