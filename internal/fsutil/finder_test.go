package fsutil_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rnrgo/internal/fsutil"
	"github.com/vk/rnrgo/internal/testutil"
)

func TestFindTaskFile_PrefersHCLOverYAML(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"rnr.hcl":  `build = "echo hcl"`,
		"rnr.yaml": "build: echo yaml\n",
	})

	path, err := fsutil.FindTaskFile(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "rnr.hcl"), path)
}

func TestFindTaskFile_EmptyWhenAbsent(t *testing.T) {
	path, err := fsutil.FindTaskFile(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFindProjectTaskFile_WalksUpward(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"rnr.yaml":                "build: echo hi\n",
		"services/api/deep/.keep": "",
	})

	path, err := fsutil.FindProjectTaskFile(filepath.Join(root, "services", "api", "deep"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "rnr.yaml"), path)
}

func TestFindProjectTaskFile_NearestFileWins(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"rnr.yaml":              "build: echo root\n",
		"services/api/rnr.yaml": "build: echo nested\n",
	})

	path, err := fsutil.FindProjectTaskFile(filepath.Join(root, "services", "api"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "services", "api", "rnr.yaml"), path)
}

func TestFindProjectTaskFile_ErrorsWithoutAnyTaskFile(t *testing.T) {
	_, err := fsutil.FindProjectTaskFile(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no task file")
}
