package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
)

// Error codes for command-level failures.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No scenario files found
	ErrCodeReadFailed      = "E004" // File read error
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeInvalidProgram  = "E006" // Program fails schema or decode checks
	ErrCodeWriteFailed     = "E007" // File write error
	ErrCodeUnknownFunction = "E008" // --function names no function
	ErrCodeBuildFailed     = "E009" // Scenario could not be built
)

// LoadError represents an error that occurred while loading a program.
type LoadError struct {
	Code    string
	Message string
	Path    string // JSON path of a schema violation, if any
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProgram reads a persisted program from path.
func LoadProgram(path string, logger *slog.Logger) (*program.Program, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("program file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	p, err := program.Unmarshal(data, program.WithLogger(logger))
	if err != nil {
		var schemaErr *program.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, &LoadError{Code: ErrCodeInvalidProgram, Message: schemaErr.Message, Path: schemaErr.Path}
		}
		return nil, &LoadError{Code: ErrCodeInvalidProgram, Message: err.Error()}
	}
	return p, nil
}

// loadOrFail loads a program and reports load errors through f.
func loadOrFail(f *OutputFormatter, path string, logger *slog.Logger) (*program.Program, error) {
	p, err := LoadProgram(path, logger)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			msg := loadErr.Message
			if loadErr.Path != "" {
				msg = loadErr.Path + ": " + msg
			}
			return nil, f.fail(loadErr.Code, msg)
		}
		return nil, f.fail(ErrCodeGeneric, err.Error())
	}
	f.VerboseLog("Loaded %d function(s) from %s", p.NumFunctions(), path)
	return p, nil
}

// parseFunctionFlag parses "fN" or "N" into a function id.
func parseFunctionFlag(s string) (ir.FunctionID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "f"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid function %q: want fN", s)
	}
	return ir.FunctionID(n), nil
}

// selectFunctions returns every function of p, or only the one named by
// flag when it is set.
func selectFunctions(f *OutputFormatter, p *program.Program, flag string) ([]*ir.Function, error) {
	if flag == "" {
		return p.Functions(), nil
	}
	id, err := parseFunctionFlag(flag)
	if err != nil {
		return nil, f.fail(ErrCodeUnknownFunction, err.Error())
	}
	fn := p.Function(id)
	if fn == nil {
		return nil, f.fail(ErrCodeUnknownFunction, fmt.Sprintf("function %s not in program", id))
	}
	return []*ir.Function{fn}, nil
}
