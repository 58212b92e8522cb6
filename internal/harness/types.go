package harness

import "github.com/roach88/zkssa/internal/program"

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Text is the program rendering.
	Text string `json:"text"`

	// Hash is the program content hash.
	Hash string `json:"hash"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Program is the built program.
	Program *program.Program `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
