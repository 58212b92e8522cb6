package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/zkssa/internal/program"
	"github.com/roach88/zkssa/internal/validate"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []validate.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program.json>",
		Short: "Check a program for well-formedness",
		Long: `Check a persisted program for well-formedness.

Decoding runs the schema checks first; a program that decodes is then
checked for missing terminators, undefined operands, mismatched jump
arguments and the other structural rules. Every problem is reported.

Exit codes:
  0 - Program is well formed
  1 - One or more validation errors
  2 - Command error (missing file, schema violation, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := loadOrFail(formatter, path, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	for _, fn := range p.Functions() {
		formatter.VerboseLog("Validating function: %s %s", fn.ID(), fn.Name())
	}
	errs := validate.ValidateProgram(p)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, p.NumFunctions())
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, functions int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d function(s) valid\n", functions)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []validate.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
	}

	// Validation failures = exit code 1
	return failure
}

// requireValid reports the validation errors of p and fails with exit
// code 1. Rendering and loop discovery assume a well-formed program.
func requireValid(formatter *OutputFormatter, p *program.Program) error {
	if errs := validate.ValidateProgram(p); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return nil
}
