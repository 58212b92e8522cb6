// Command zkssa inspects, validates and builds SSA programs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/zkssa/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own errors; flag and argument errors from cobra do not.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
