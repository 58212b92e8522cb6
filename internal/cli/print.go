package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/zkssa/internal/ir"
)

// PrintOptions holds flags for the print command.
type PrintOptions struct {
	*RootOptions
	Function string // only this function, as "fN"
}

// FunctionText is the JSON payload of the print command.
type FunctionText struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// NewPrintCommand creates the print command.
func NewPrintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "print <program.json>",
		Short: "Render a program as text",
		Long: `Render every function of a persisted program in the textual SSA form,
in ascending function id order. The program is validated first; a
malformed program is reported like the validate command (exit 1).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Function, "function", "f", "", "print only this function (fN)")

	return cmd
}

func runPrint(opts *PrintOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := loadOrFail(formatter, path, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	functions, err := selectFunctions(formatter, p, opts.Function)
	if err != nil {
		return err
	}
	if err := requireValid(formatter, p); err != nil {
		return err
	}

	if formatter.Format == "json" {
		out := make([]FunctionText, len(functions))
		for i, fn := range functions {
			out[i] = FunctionText{ID: fn.ID().String(), Name: fn.Name(), Text: ir.Sprint(fn)}
		}
		return formatter.Success(out)
	}

	for _, fn := range functions {
		if err := ir.Fprint(formatter.Writer, fn); err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}
