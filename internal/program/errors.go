package program

import (
	"errors"
	"fmt"

	"github.com/roach88/zkssa/internal/ir"
)

// InvariantError reports misuse of a Program. Invariant violations are
// programming errors: Program methods panic with an *InvariantError
// rather than returning it.
type InvariantError struct {
	// Code identifies the violated invariant.
	Code InvariantCode

	// Message is a human-readable description.
	Message string

	// Function is the function involved, if any.
	Function ir.FunctionID

	// HasFunction reports whether Function is meaningful.
	HasFunction bool
}

// InvariantCode categorizes invariant violations.
type InvariantCode string

const (
	// ErrCodeEmptyProgram indicates New was given no functions.
	ErrCodeEmptyProgram InvariantCode = "EMPTY_PROGRAM"

	// ErrCodeDuplicateFunction indicates two functions share an id.
	ErrCodeDuplicateFunction InvariantCode = "DUPLICATE_FUNCTION"

	// ErrCodeUnknownFunction indicates an id that names no function.
	ErrCodeUnknownFunction InvariantCode = "UNKNOWN_FUNCTION"

	// ErrCodeIncompleteFunction indicates a reachable block without a
	// terminator at finalize time.
	ErrCodeIncompleteFunction InvariantCode = "INCOMPLETE_FUNCTION"

	// ErrCodeUninitializedEntryPointIndex indicates the entry-point index
	// was read before GenerateEntryPointIndex.
	ErrCodeUninitializedEntryPointIndex InvariantCode = "UNINITIALIZED_ENTRY_POINT_INDEX"

	// ErrCodeFunctionIDOverflow indicates the counter ran out of ids.
	ErrCodeFunctionIDOverflow InvariantCode = "FUNCTION_ID_OVERFLOW"
)

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.HasFunction {
		return fmt.Sprintf("%s: %s (function=%s)", e.Code, e.Message, e.Function)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvariantError returns true if err is an *InvariantError with the
// given code. Uses errors.As to handle wrapped errors.
func IsInvariantError(err error, code InvariantCode) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

func newFunctionError(code InvariantCode, id ir.FunctionID, format string, args ...any) *InvariantError {
	return &InvariantError{
		Code:        code,
		Message:     fmt.Sprintf(format, args...),
		Function:    id,
		HasFunction: true,
	}
}
