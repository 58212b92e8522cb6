package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
	"github.com/roach88/zkssa/internal/validate"
)

// AssertionError is returned when an assertion fails.
// It includes the rendering to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Text     string // Program rendering for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Text != "" {
		fmt.Fprintf(&buf, "\nProgram:\n%s", e.Text)
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertValidation:
			err = assertValidation(result, assertion)
		case AssertEntryPoints:
			err = assertEntryPoints(result, assertion)
		case AssertLoops:
			err = assertLoops(result, assertion)
		case AssertContains:
			err = assertContains(result, assertion)
		case AssertRoundTrip:
			err = assertRoundTrip(result)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// assertValidation checks that validation reports exactly the listed
// codes, in order.
func assertValidation(result *Result, assertion Assertion) error {
	errs := validate.ValidateProgram(result.Program)
	got := make([]string, len(errs))
	for i, e := range errs {
		got[i] = e.Code
	}
	want := assertion.Codes
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}

	actual := make([]string, len(errs))
	for i, e := range errs {
		actual[i] = e.Error()
	}
	return &AssertionError{
		Type:     AssertValidation,
		Expected: fmt.Sprintf("codes %v", want),
		Actual:   fmt.Sprintf("%v", actual),
		Text:     result.Text,
	}
}

// assertEntryPoints finalizes the entry-point index and compares it.
func assertEntryPoints(result *Result, assertion Assertion) error {
	for _, fn := range result.Program.Functions() {
		if err := fn.CheckComplete(); err != nil {
			return fmt.Errorf("entry_points: %w", err)
		}
	}
	result.Program.GenerateEntryPointIndex()
	got := result.Program.EntryPoints()

	want := make(map[ir.FunctionID]uint32, len(assertion.Expect))
	for name, idx := range assertion.Expect {
		id, err := parseFunctionID(name)
		if err != nil {
			return err
		}
		want[id] = idx
	}

	if len(got) == len(want) {
		match := true
		for id, idx := range want {
			if g, ok := got[id]; !ok || g != idx {
				match = false
				break
			}
		}
		if match {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEntryPoints,
		Expected: formatEntryPoints(want),
		Actual:   formatEntryPoints(got),
		Text:     result.Text,
	}
}

// assertLoops compares the rendered loops of one function.
func assertLoops(result *Result, assertion Assertion) error {
	id, err := parseFunctionID(assertion.Function)
	if err != nil {
		return err
	}
	fn := result.Program.Function(id)
	if fn == nil {
		return fmt.Errorf("loops: function %s not in program", id)
	}

	loops := validate.Loops(fn)
	got := make([]string, len(loops))
	for i, l := range loops {
		got[i] = l.String()
	}
	want := assertion.Loops
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLoops,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
		Text:     result.Text,
	}
}

// assertContains checks each line appears in the rendering.
func assertContains(result *Result, assertion Assertion) error {
	for _, line := range assertion.Lines {
		if !strings.Contains(result.Text, line) {
			return &AssertionError{
				Type:     AssertContains,
				Expected: fmt.Sprintf("rendering contains %q", line),
				Actual:   "not found",
				Text:     result.Text,
			}
		}
	}
	return nil
}

// assertRoundTrip decodes the persisted form and compares rendering and
// hash with the original.
func assertRoundTrip(result *Result) error {
	data, err := program.Marshal(result.Program)
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}
	decoded, err := program.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}

	if text := decoded.String(); text != result.Text {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "identical rendering after decode",
			Actual:   text,
			Text:     result.Text,
		}
	}
	hash, err := decoded.Hash()
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}
	if hash != result.Hash {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "hash " + result.Hash,
			Actual:   "hash " + hash,
		}
	}
	return nil
}

func parseFunctionID(name string) (ir.FunctionID, error) {
	digits, ok := strings.CutPrefix(name, "f")
	if !ok {
		return 0, fmt.Errorf("function %q: want fN", name)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("function %q: want fN", name)
	}
	return ir.FunctionID(n), nil
}

func formatEntryPoints(m map[ir.FunctionID]uint32) string {
	ids := make([]ir.FunctionID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s: %d", id, m[id])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
