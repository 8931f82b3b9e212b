package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rnrgo/internal/cli"
)

func TestParse_TaskArgument(t *testing.T) {
	var out bytes.Buffer
	inv, exit, err := cli.Parse([]string{"build"}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "build", inv.Task)
	assert.False(t, inv.List)
	assert.False(t, inv.Config.ContinueOnError)
	assert.Equal(t, "prefix", inv.Config.Output)
}

func TestParse_NoTaskMeansList(t *testing.T) {
	var out bytes.Buffer
	inv, exit, err := cli.Parse(nil, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.True(t, inv.List)
}

func TestParse_ListFlag(t *testing.T) {
	var out bytes.Buffer
	inv, _, err := cli.Parse([]string{"-l"}, &out)
	require.NoError(t, err)
	assert.True(t, inv.List)

	inv, _, err = cli.Parse([]string{"--list"}, &out)
	require.NoError(t, err)
	assert.True(t, inv.List)
}

func TestParse_ContinueOnErrorAndFile(t *testing.T) {
	var out bytes.Buffer
	inv, _, err := cli.Parse([]string{"--continue-on-error", "-f", "custom/rnr.yaml", "ci"}, &out)
	require.NoError(t, err)

	assert.True(t, inv.Config.ContinueOnError)
	assert.Equal(t, "custom/rnr.yaml", inv.Config.TaskFile)
	assert.Equal(t, "ci", inv.Task)
}

func TestParse_OutputModes(t *testing.T) {
	var out bytes.Buffer
	for _, mode := range []string{"stream", "prefix", "buffer"} {
		inv, _, err := cli.Parse([]string{"--output", mode, "build"}, &out)
		require.NoError(t, err)
		assert.Equal(t, mode, inv.Config.Output)
	}

	_, _, err := cli.Parse([]string{"--output", "tee", "build"}, &out)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_InvalidLogSettings(t *testing.T) {
	var out bytes.Buffer

	_, _, err := cli.Parse([]string{"--log-level", "loud", "build"}, &out)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	_, _, err = cli.Parse([]string{"--log-format", "xml", "build"}, &out)
	require.ErrorAs(t, err, &exitErr)
}

func TestParse_RejectsMultipleTasks(t *testing.T) {
	var out bytes.Buffer
	_, _, err := cli.Parse([]string{"build", "test"}, &out)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_HelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	_, exit, err := cli.Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "Usage:")
}
