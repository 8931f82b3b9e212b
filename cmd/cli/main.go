package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/rnrgo/internal/app"
	"github.com/vk/rnrgo/internal/cli"
)

// main is the entrypoint for the rnr binary.
func main() {
	code, err := run(os.Stdout, os.Stderr, os.Args[1:])
	if err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run encapsulates the main application logic for easier testing and
// error handling. The returned code is the process exit status: the
// executed task's aggregated exit code, or 0 for listing.
func run(outW, errW io.Writer, args []string) (int, error) {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return 0, err
	}
	if shouldExit {
		return 0, nil
	}

	rnrApp, err := app.NewApp(outW, errW, inv.Config)
	if err != nil {
		return 0, err
	}

	if inv.List {
		rnrApp.List()
		return 0, nil
	}

	return rnrApp.Run(context.Background(), inv.Task)
}
