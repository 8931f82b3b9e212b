// Package cli parses the command line into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/rnrgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is the parsed command line: the task to run (empty when
// listing) and the engine configuration.
type Invocation struct {
	Task   string
	List   bool
	Config *app.Config
}

// Parse processes command-line arguments. It returns the parsed
// invocation, a boolean indicating the program should exit cleanly (help
// was shown), or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	flagSet := flag.NewFlagSet("rnr", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
rnr - a local task runner.

Usage:
  rnr [options] [TASK]

Arguments:
  TASK
    Name of the task to run, as declared in the task file. When omitted,
    the available tasks are listed.

Options:
`)
		flagSet.PrintDefaults()
	}

	listFlag := flagSet.Bool("list", false, "List the tasks declared in the root task file.")
	lFlag := flagSet.Bool("l", false, "List the tasks declared in the root task file (shorthand).")
	fileFlag := flagSet.String("file", "", "Path to the task file. Defaults to searching upward from the working directory.")
	fFlag := flagSet.String("f", "", "Path to the task file (shorthand).")
	continueFlag := flagSet.Bool("continue-on-error", false, "Run all steps of a sequence even after one fails.")
	outputFlag := flagSet.String("output", "prefix", "Command output mode. Options: 'stream', 'prefix', or 'buffer'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "at most one task may be given"}
	}
	task := flagSet.Arg(0)

	outputMode := strings.ToLower(*outputFlag)
	switch outputMode {
	case "stream", "prefix", "buffer":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid output: must be 'stream', 'prefix', or 'buffer'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	taskFile := *fileFlag
	if taskFile == "" {
		taskFile = *fFlag
	}

	config, err := app.NewConfig(app.Config{
		TaskFile:        taskFile,
		ContinueOnError: *continueFlag,
		Output:          outputMode,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return &Invocation{
		Task:   task,
		List:   *listFlag || *lFlag || task == "",
		Config: config,
	}, false, nil
}
