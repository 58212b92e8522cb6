// Package validate checks SSA functions and programs for well-formedness
// and finds loops in their block graphs.
//
// Validation collects every problem it finds and never panics, so it is
// safe to run on graphs that were decoded or rewritten by hand.
package validate

import (
	"fmt"

	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
)

// Validation error codes (E200-E299)
const (
	ErrMissingTerminator    = "E201" // reachable block has no terminator
	ErrValueDefinedTwice    = "E202" // value produced or bound more than once
	ErrUnknownBlock         = "E203" // terminator targets a missing block
	ErrJumpArgumentCount    = "E204" // jump arguments do not match block parameters
	ErrUndefinedOperand     = "E205" // operand names no value
	ErrInstructionReused    = "E206" // instruction placed in more than one block
	ErrResultArity          = "E207" // wrong number of results for the instruction
	ErrEntryBlockMissing    = "E208" // function entry block does not exist
	ErrMainMissing          = "E209" // program main function does not exist
	ErrUnknownInstruction   = "E210" // block lists an instruction id that does not exist
	ErrUnknownFunctionValue = "E211" // function reference to a function not in the program
)

// ValidationError represents one well-formedness violation.
type ValidationError struct {
	Field   string `json:"field"` // location, e.g. "f0.b1" or "f0.b1.i3"
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateFunction checks fn and returns every error found (does not
// fail-fast). Blocks are visited in creation order.
func ValidateFunction(fn *ir.Function) []ValidationError {
	v := &functionValidator{
		fn:      fn,
		dfg:     fn.DFG(),
		defined: make(map[ir.ValueID]string),
		placed:  make(map[ir.InstructionID]ir.BlockID),
	}
	return v.run()
}

// ValidateProgram checks every function of p plus program-level rules.
func ValidateProgram(p *program.Program) []ValidationError {
	var errs []ValidationError

	if p.Function(p.MainID()) == nil {
		errs = append(errs, ValidationError{
			Field:   "program",
			Message: fmt.Sprintf("main function %s does not exist", p.MainID()),
			Code:    ErrMainMissing,
		})
	}

	for _, fn := range p.Functions() {
		errs = append(errs, ValidateFunction(fn)...)

		dfg := fn.DFG()
		for i := 0; i < dfg.NumValues(); i++ {
			id := ir.ValueID(i)
			if !dfg.IsDefined(dfg.Resolve(id)) {
				continue // reported by ValidateFunction when used
			}
			ref, ok := dfg.Value(id).(ir.FunctionRef)
			if ok && p.Function(ref.ID) == nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.%s", fn.ID(), id),
					Message: fmt.Sprintf("refers to function %s which is not in the program", ref.ID),
					Code:    ErrUnknownFunctionValue,
				})
			}
		}
	}
	return errs
}

type functionValidator struct {
	fn   *ir.Function
	dfg  *ir.DataFlowGraph
	errs []ValidationError

	// defined records where each parameter or result was bound
	defined map[ir.ValueID]string
	placed  map[ir.InstructionID]ir.BlockID
}

func (v *functionValidator) report(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *functionValidator) where(parts ...fmt.Stringer) string {
	s := v.fn.ID().String()
	for _, p := range parts {
		s += "." + p.String()
	}
	return s
}

func (v *functionValidator) run() []ValidationError {
	// E208: nothing else is meaningful without an entry block
	if !v.dfg.HasBlock(v.fn.EntryBlock()) {
		v.report(ErrEntryBlockMissing, v.where(), "entry block %s does not exist", v.fn.EntryBlock())
		return v.errs
	}

	v.checkResults()
	for _, b := range v.dfg.BlockIDs() {
		v.checkBlock(b)
	}

	// E201: only blocks reachable from entry must be complete
	for _, b := range v.fn.ReachableBlocks() {
		block := v.dfg.Block(b)
		if block != nil && block.Terminator() == nil {
			v.report(ErrMissingTerminator, v.where(b), "block has no terminator")
		}
	}
	return v.errs
}

// checkResults verifies result arity and that no value is the result of
// two instructions.
func (v *functionValidator) checkResults() {
	for i := 0; i < v.dfg.NumInstructions(); i++ {
		id := ir.InstructionID(i)
		results := v.dfg.InstructionResults(id)

		// E207
		if n, fixed := ir.ResultArity(v.dfg.Instruction(id)); fixed && len(results) != n {
			v.report(ErrResultArity, v.where(id), "%T yields %d results, want %d",
				v.dfg.Instruction(id), len(results), n)
		}

		for _, r := range results {
			v.define(r, v.where(id))
		}
	}
}

// define records a binding site for value r (E202, E205).
func (v *functionValidator) define(r ir.ValueID, site string) {
	if !v.dfg.IsDefined(r) {
		v.report(ErrUndefinedOperand, site, "binds %s which is not in the value table", r)
		return
	}
	if prev, dup := v.defined[r]; dup {
		v.report(ErrValueDefinedTwice, site, "%s already defined at %s", r, prev)
		return
	}
	v.defined[r] = site
}

func (v *functionValidator) checkBlock(b ir.BlockID) {
	block := v.dfg.Block(b)

	for _, param := range block.Parameters() {
		v.define(param, v.where(b))
	}

	for _, id := range block.Instructions() {
		// E210
		if int(id) >= v.dfg.NumInstructions() {
			v.report(ErrUnknownInstruction, v.where(b), "instruction %s does not exist", id)
			continue
		}
		// E206
		if prev, dup := v.placed[id]; dup {
			v.report(ErrInstructionReused, v.where(b, id), "instruction already placed in %s", prev)
		} else {
			v.placed[id] = b
		}
		v.checkOperands(v.where(b, id), v.dfg.Instruction(id).Operands())
	}

	term := block.Terminator()
	if term == nil {
		return
	}
	site := v.where(b)
	v.checkOperands(site, term.Operands())

	for _, succ := range term.Successors() {
		// E203
		if !v.dfg.HasBlock(succ) {
			v.report(ErrUnknownBlock, site, "jumps to missing block %s", succ)
		}
	}

	// E204
	switch t := term.(type) {
	case ir.Jump:
		if dest := v.dfg.Block(t.Destination); dest != nil && len(dest.Parameters()) != len(t.Arguments) {
			v.report(ErrJumpArgumentCount, site, "jmp %s passes %d arguments, block takes %d",
				t.Destination, len(t.Arguments), len(dest.Parameters()))
		}
	case ir.JumpIf:
		for _, d := range t.Successors() {
			if dest := v.dfg.Block(d); dest != nil && len(dest.Parameters()) != 0 {
				v.report(ErrJumpArgumentCount, site, "jmpif target %s takes %d parameters, want 0",
					d, len(dest.Parameters()))
			}
		}
	}
}

// checkOperands reports operands missing from the value table (E205),
// including the elements of array literals they refer to.
func (v *functionValidator) checkOperands(site string, operands []ir.ValueID) {
	for _, op := range operands {
		if !v.dfg.IsDefined(op) || !v.dfg.IsDefined(v.dfg.Resolve(op)) {
			v.report(ErrUndefinedOperand, site, "operand %s is not defined", op)
			continue
		}
		if arr, ok := v.dfg.Value(op).(ir.ArrayValue); ok {
			for _, e := range arr.Elements {
				if !v.dfg.IsDefined(e) {
					v.report(ErrUndefinedOperand, site, "array %s element %s is not defined", op, e)
				}
			}
		}
	}
}
