package main

import (
	"fmt"
	"os"

	"github.com/dovetail-dev/dovetail/cmd/cli"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/ui"
)

// main executes the dovetail command-line application and maps the outcome
// to the process exit status.
func main() {
	executionError := cli.Execute()
	if executionError != nil && !outcome.IsReported(executionError) {
		fmt.Fprintln(os.Stderr, ui.RenderError(ui.PaletteFor(os.Stderr), executionError))
	}
	os.Exit(outcome.ExitCode(executionError))
}
