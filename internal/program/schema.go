package program

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// SchemaError reports a persisted payload that does not match the
// program schema.
type SchemaError struct {
	// Path is the dotted path of the offending field, if known.
	Path string

	// Message is the CUE diagnostic.
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema: %s: %s", e.Path, e.Message)
	}
	return "schema: " + e.Message
}

// programSchema compiles the embedded schema once. A cue.Context is not
// safe for concurrent use, so validation is serialized on schemaMu.
var (
	schemaOnce sync.Once
	schemaMu   sync.Mutex
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func programSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile program schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Program"))
		schemaErr = schemaDef.Err()
	})
	return schemaCtx, schemaDef, schemaErr
}

// ValidateSchema checks a persisted JSON payload against the program
// schema without building anything.
func ValidateSchema(data []byte) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, def, err := programSchema()
	if err != nil {
		return err
	}

	doc := ctx.CompileBytes(data, cue.Filename("program.json"))
	if err := doc.Err(); err != nil {
		return formatCUEError(err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError converts the first CUE error into a *SchemaError.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &SchemaError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}
