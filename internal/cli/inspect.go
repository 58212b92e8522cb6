package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/validate"
)

// HashResult is the JSON payload of the hash command.
type HashResult struct {
	Program   string            `json:"program"`
	Functions map[string]string `json:"functions,omitempty"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	var perFunction bool

	cmd := &cobra.Command{
		Use:   "hash <program.json>",
		Short: "Print the content hash of a program",
		Long: `Print the domain-separated sha256 of the program's canonical JSON form.
With --functions, also print the hash of each function.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			p, err := loadOrFail(formatter, args[0], rootOpts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			hash, err := p.Hash()
			if err != nil {
				return formatter.fail(ErrCodeGeneric, err.Error())
			}
			result := HashResult{Program: hash}
			if perFunction {
				result.Functions = make(map[string]string, p.NumFunctions())
				for _, fn := range p.Functions() {
					h, err := ir.FunctionHash(fn)
					if err != nil {
						return formatter.fail(ErrCodeGeneric, err.Error())
					}
					result.Functions[fn.ID().String()] = h
				}
			}

			if formatter.Format == "json" {
				return formatter.Success(result)
			}
			fmt.Fprintln(formatter.Writer, result.Program)
			for _, fn := range p.Functions() {
				if h, ok := result.Functions[fn.ID().String()]; ok {
					fmt.Fprintf(formatter.Writer, "  %s %s\n", fn.ID(), h)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&perFunction, "functions", false, "also hash each function")

	return cmd
}

// FunctionLoops is the JSON payload of the loops command.
type FunctionLoops struct {
	ID    string   `json:"id"`
	Loops []string `json:"loops"`
}

// NewLoopsCommand creates the loops command.
func NewLoopsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "loops <program.json>",
		Short:         "List the loops of each function",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			p, err := loadOrFail(formatter, args[0], opts.logger(cmd.ErrOrStderr()))
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

			out := make([]FunctionLoops, len(functions))
			for i, fn := range functions {
				loops := validate.Loops(fn)
				out[i] = FunctionLoops{ID: fn.ID().String(), Loops: make([]string, len(loops))}
				for j, l := range loops {
					out[i].Loops[j] = l.String()
				}
			}

			if formatter.Format == "json" {
				return formatter.Success(out)
			}
			for _, fl := range out {
				fmt.Fprintf(formatter.Writer, "%s: %d loop(s)\n", fl.ID, len(fl.Loops))
				for _, l := range fl.Loops {
					fmt.Fprintf(formatter.Writer, "  %s\n", l)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Function, "function", "f", "", "only this function (fN)")

	return cmd
}

// EntryPoint is one row of the entrypoints command output.
type EntryPoint struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Runtime string `json:"runtime"`
	Index   uint32 `json:"index"`
}

// NewEntryPointsCommand creates the entrypoints command.
func NewEntryPointsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entrypoints <program.json>",
		Short: "Finalize and list the entry-point index",
		Long: `Generate the entry-point index of a program and list each entry point
with its dense index. Fails if a reachable block lacks a terminator.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			p, err := loadOrFail(formatter, args[0], rootOpts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			// GenerateEntryPointIndex panics on incomplete functions
			for _, fn := range p.Functions() {
				if err := fn.CheckComplete(); err != nil {
					_ = formatter.Error(validate.ErrMissingTerminator, err.Error(), nil)
					return WrapExitError(ExitFailure, "program is incomplete", err)
				}
			}
			p.GenerateEntryPointIndex()

			var out []EntryPoint
			for _, fn := range p.Functions() {
				if idx, ok := p.EntryPointIndex(fn.ID()); ok {
					out = append(out, EntryPoint{
						ID:      fn.ID().String(),
						Name:    fn.Name(),
						Runtime: fn.Runtime().String(),
						Index:   idx,
					})
				}
			}

			if formatter.Format == "json" {
				return formatter.Success(out)
			}
			for _, ep := range out {
				fmt.Fprintf(formatter.Writer, "%d %s %s %s\n", ep.Index, ep.ID, ep.Name, ep.Runtime)
			}
			return nil
		},
	}

	return cmd
}
