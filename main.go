// Command panaudit is the entrypoint for the firewall configuration analyzer CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/panosec/panaudit/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

func main() {
	os.Exit(runApplication(os.Stderr, cli.Execute))
}

// runApplication reports the execution error on the error stream so operators
// always see why the process exits non-zero.
func runApplication(errorOutput io.Writer, executeCommand func() error) int {
	if executionError := executeCommand(); executionError != nil {
		fmt.Fprintf(errorOutput, exitErrorTemplateConstant, executionError)
		return 1
	}
	return 0
}
