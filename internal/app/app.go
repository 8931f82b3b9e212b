// Package app wires the engine together: it builds the logger, locates
// and loads the root task file, and exposes the surface the CLI layer
// calls — Run for executing a task and List for enumerating the root
// registry.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/rnrgo/internal/ctxlog"
	"github.com/vk/rnrgo/internal/fsutil"
	"github.com/vk/rnrgo/internal/registry"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config
	reg    *registry.Registry
}

// NewApp constructs a fully initialized App: logger configured, root task
// file located and loaded. Nested task files are loaded later, on demand,
// during resolution.
func NewApp(outW, errW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	path := cfg.TaskFile
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = fsutil.FindProjectTaskFile(wd)
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("Using task file.", "path", path)

	reg, err := registry.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:   outW,
		errW:   errW,
		logger: logger,
		config: cfg,
		reg:    reg,
	}, nil
}

// Registry returns the loaded task registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.reg
}

// List writes the root file's tasks, name-sorted, with descriptions.
func (a *App) List() {
	fmt.Fprintln(a.outW, "Available tasks:")
	for _, info := range a.reg.List() {
		if info.Description != "" {
			fmt.Fprintf(a.outW, "  %-20s %s\n", info.Name, info.Description)
		} else {
			fmt.Fprintf(a.outW, "  %s\n", info.Name)
		}
	}
}
