package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/zkssa/internal/harness"
	"github.com/roach88/zkssa/internal/program"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output string // file to write; stdout when empty
}

// BuildResult is the JSON payload of the build command when writing to a file.
type BuildResult struct {
	Output    string `json:"output"`
	Functions int    `json:"functions"`
	Hash      string `json:"hash"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <scenario.yaml>",
		Short: "Build a program from a scenario file",
		Long: `Build the program described by a YAML scenario and write its
persisted JSON form. Assertions in the scenario are not evaluated.

Examples:
  zkssa build testdata/add_mul.yaml
  zkssa build testdata/add_mul.yaml -o add_mul.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the program to this file")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return formatter.fail(ErrCodeNotFound, fmt.Sprintf("scenario file not found: %s", path))
	}
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.fail(ErrCodeReadFailed, err.Error())
	}
	p, err := scenario.Build()
	if err != nil {
		return formatter.fail(ErrCodeBuildFailed, err.Error())
	}
	formatter.VerboseLog("Built %d function(s) from %s", p.NumFunctions(), path)

	data, err := program.Marshal(p)
	if err != nil {
		return formatter.fail(ErrCodeGeneric, err.Error())
	}

	if opts.Output == "" {
		_, err := fmt.Fprintln(formatter.Writer, string(data))
		return err
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return formatter.fail(ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", opts.Output, err))
	}

	hash, err := p.Hash()
	if err != nil {
		return formatter.fail(ErrCodeGeneric, err.Error())
	}
	if formatter.Format == "json" {
		return formatter.Success(BuildResult{Output: opts.Output, Functions: p.NumFunctions(), Hash: hash})
	}
	fmt.Fprintf(formatter.Writer, "✓ wrote %s (%d function(s))\n", opts.Output, p.NumFunctions())
	return nil
}
