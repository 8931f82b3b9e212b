package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Spawner is the process-spawning capability the engine runs leaves
// through. Spawn blocks until the process exits and returns its exit
// code; it returns an error only when the process could not be started
// at all.
type Spawner interface {
	Spawn(ctx context.Context, cmd, dir string, env map[string]string, stdout, stderr io.Writer) (int, error)
}

// SpawnError reports a command whose process could not be started.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start command %q: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// LocalSpawner runs commands through the platform shell, with the
// effective environment overlaid on the parent process environment.
type LocalSpawner struct{}

// Spawn implements Spawner.
func (LocalSpawner) Spawn(ctx context.Context, cmdStr, dir string, env map[string]string, stdout, stderr io.Writer) (int, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", cmdStr)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", cmdStr)
	}
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
