package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/zkssa/internal/builder"
	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
)

// Build constructs the scenario's program through the builder.
func (s *Scenario) Build() (*program.Program, error) {
	var fb *builder.FunctionBuilder
	globals := make(map[ir.FunctionID][]ir.ValueID)

	for i, spec := range s.Functions {
		var opts []builder.Option
		if spec.Runtime != "" {
			runtime, err := ir.ParseRuntimeType(spec.Runtime)
			if err != nil {
				return nil, fmt.Errorf("function %s: %w", spec.Name, err)
			}
			opts = append(opts, builder.WithRuntime(runtime))
		}

		id := ir.FunctionID(spec.ID)
		if i == 0 {
			fb = builder.New(spec.Name, id, opts...)
		} else {
			fb.NewFunction(spec.Name, id, opts...)
		}

		scope := &functionScope{
			b:      fb,
			values: make(map[string]ir.ValueID),
			blocks: make(map[string]ir.BlockID),
		}
		if err := scope.build(spec); err != nil {
			return nil, fmt.Errorf("function %s: %w", spec.Name, err)
		}

		if len(spec.UsedGlobals) > 0 {
			vals, err := scope.operands(spec.UsedGlobals)
			if err != nil {
				return nil, fmt.Errorf("function %s: used_globals: %w", spec.Name, err)
			}
			globals[id] = vals
		}
	}

	if len(s.ErrorTypes) > 0 {
		types := make(map[ir.ErrorSelector]program.ErrorType, len(s.ErrorTypes))
		for sel, t := range s.ErrorTypes {
			types[ir.ErrorSelector(sel)] = program.ErrorType(t)
		}
		fb.SetErrorTypes(types)
	}

	p := fb.Finish()
	for id, vals := range globals {
		p.SetUsedGlobals(id, vals)
	}
	return p, nil
}

// functionScope resolves the names used by one function's blocks.
type functionScope struct {
	b      *builder.FunctionBuilder
	values map[string]ir.ValueID
	blocks map[string]ir.BlockID
}

func (s *functionScope) build(spec FunctionSpec) error {
	// Blocks and their parameters come first so that any block can
	// jump to any other.
	ids := make([]ir.BlockID, len(spec.Blocks))
	for i, blk := range spec.Blocks {
		if i == 0 {
			ids[i] = s.b.CurrentFunction().EntryBlock()
		} else {
			ids[i] = s.b.InsertBlock()
		}
		s.blocks[blk.Name] = ids[i]
	}
	for i, blk := range spec.Blocks {
		for _, param := range blk.Params {
			t, err := ir.ParseType(param.Type)
			if err != nil {
				return fmt.Errorf("block %s: param %s: %w", blk.Name, param.Name, err)
			}
			if err := s.bind(param.Name, s.b.AddBlockParameter(ids[i], t)); err != nil {
				return fmt.Errorf("block %s: %w", blk.Name, err)
			}
		}
	}

	for i, blk := range spec.Blocks {
		s.b.SwitchToBlock(ids[i])
		for j, instr := range blk.Instructions {
			if err := s.instruction(instr); err != nil {
				return fmt.Errorf("block %s: instructions[%d] (%s): %w", blk.Name, j, instr.Op, err)
			}
		}
		if blk.Terminator != nil {
			if err := s.terminator(*blk.Terminator); err != nil {
				return fmt.Errorf("block %s: terminator: %w", blk.Name, err)
			}
		}
	}
	return nil
}

func (s *functionScope) bind(name string, v ir.ValueID) error {
	if name == "" || name == "_" {
		return nil
	}
	if _, dup := s.values[name]; dup {
		return fmt.Errorf("value %q bound twice", name)
	}
	s.values[name] = v
	return nil
}

// operand resolves a value name, constant, function or intrinsic.
func (s *functionScope) operand(text string) (ir.ValueID, error) {
	if v, ok := s.values[text]; ok {
		return v, nil
	}
	if name, ok := strings.CutPrefix(text, "@"); ok {
		if k, ok := ir.LookupIntrinsic(name); ok {
			return s.b.ImportIntrinsic(k), nil
		}
		return s.b.ImportForeignFunction(name), nil
	}
	if typ, num, ok := strings.Cut(text, " "); ok {
		t, err := ir.ParseNumericType(typ)
		if err != nil {
			return 0, fmt.Errorf("constant %q: %w", text, err)
		}
		c, err := ir.FieldFromDecimal(num)
		if err != nil {
			return 0, fmt.Errorf("constant %q: %w", text, err)
		}
		return s.b.NumericConstant(c, t), nil
	}
	if digits, ok := strings.CutPrefix(text, "f"); ok {
		if n, err := strconv.ParseUint(digits, 10, 32); err == nil {
			return s.b.ImportFunction(ir.FunctionID(n)), nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", text)
}

func (s *functionScope) operands(texts []string) ([]ir.ValueID, error) {
	out := make([]ir.ValueID, len(texts))
	for i, text := range texts {
		v, err := s.operand(text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *functionScope) block(name string) (ir.BlockID, error) {
	b, ok := s.blocks[name]
	if !ok {
		return 0, fmt.Errorf("unknown block %q", name)
	}
	return b, nil
}

// arity lists how many operands each keyword takes; -1 means any.
var arity = map[string]int{
	"cast":                1,
	"not":                 1,
	"truncate":            1,
	"constrain":           2,
	"call":                -1,
	"allocate":            0,
	"load":                1,
	"store":               2,
	"enable_side_effects": 1,
	"array_get":           2,
	"array_set":           3,
	"inc_rc":              1,
	"dec_rc":              1,
	"range_check":         1,
	"if_else":             4,
	"make_array":          -1,
}

func (s *functionScope) instruction(spec InstructionSpec) error {
	args, err := s.operands(spec.Args)
	if err != nil {
		return err
	}

	n, known := arity[spec.Op]
	binary, binErr := ir.ParseBinaryOp(spec.Op)
	switch {
	case binErr == nil:
		n = 2
	case !known:
		return fmt.Errorf("unknown op %q", spec.Op)
	}
	if n >= 0 && len(args) != n {
		return fmt.Errorf("takes %d operands, got %d", n, len(args))
	}

	var results []ir.ValueID
	switch spec.Op {
	case "cast":
		t, err := ir.ParseNumericType(spec.Type)
		if err != nil {
			return err
		}
		results = []ir.ValueID{s.b.InsertCast(args[0], t)}
	case "not":
		results = []ir.ValueID{s.b.InsertNot(args[0])}
	case "truncate":
		results = []ir.ValueID{s.b.InsertTruncate(args[0], spec.BitSize, spec.MaxBitSize)}
	case "constrain":
		constrainErr, err := s.constrainError(spec)
		if err != nil {
			return err
		}
		s.b.InsertConstrain(args[0], args[1], constrainErr)
	case "call":
		if len(args) == 0 {
			return fmt.Errorf("call needs a function operand")
		}
		types, err := parseTypes(spec.Types)
		if err != nil {
			return err
		}
		results = s.b.InsertCall(args[0], args[1:], types...)
	case "allocate":
		t, err := ir.ParseType(spec.Type)
		if err != nil {
			return err
		}
		results = []ir.ValueID{s.b.InsertAllocate(t)}
	case "load":
		t, err := ir.ParseType(spec.Type)
		if err != nil {
			return err
		}
		results = []ir.ValueID{s.b.InsertLoad(args[0], t)}
	case "store":
		s.b.InsertStore(args[1], args[0])
	case "enable_side_effects":
		s.b.InsertEnableSideEffectsIf(args[0])
	case "array_get":
		t, err := ir.ParseType(spec.Type)
		if err != nil {
			return err
		}
		results = []ir.ValueID{s.b.InsertArrayGet(args[0], args[1], t)}
	case "array_set":
		results = []ir.ValueID{s.b.InsertArraySet(args[0], args[1], args[2], spec.Mutable)}
	case "inc_rc":
		s.b.InsertIncrementRc(args[0])
	case "dec_rc":
		s.b.InsertDecrementRc(args[0])
	case "range_check":
		s.b.InsertRangeCheck(args[0], spec.MaxBitSize, spec.Message)
	case "if_else":
		results = []ir.ValueID{s.b.InsertIfElse(args[0], args[1], args[2], args[3])}
	case "make_array":
		t, err := ir.ParseType(spec.Type)
		if err != nil {
			return err
		}
		results = []ir.ValueID{s.b.ArrayConstant(args, t)}
	default:
		results = []ir.ValueID{s.b.InsertBinary(args[0], binary, args[1])}
	}

	// unnamed trailing results stay reachable only by their value id
	if len(spec.Results) > len(results) {
		return fmt.Errorf("names %d results, instruction yields %d", len(spec.Results), len(results))
	}
	for i, name := range spec.Results {
		if err := s.bind(name, results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *functionScope) constrainError(spec InstructionSpec) (ir.ConstrainError, error) {
	switch {
	case spec.Error != nil && spec.Message != "":
		return nil, fmt.Errorf("message and error are mutually exclusive")
	case spec.Error != nil:
		values, err := s.operands(spec.Error.Values)
		if err != nil {
			return nil, err
		}
		return ir.DynamicError{Selector: ir.ErrorSelector(spec.Error.Selector), Values: values}, nil
	case spec.Message != "":
		return ir.StaticError{Message: spec.Message}, nil
	default:
		return nil, nil
	}
}

func (s *functionScope) terminator(spec TerminatorSpec) error {
	args, err := s.operands(spec.Args)
	if err != nil {
		return err
	}

	switch spec.Kind {
	case "jmp":
		dest, err := s.block(spec.Block)
		if err != nil {
			return err
		}
		s.b.TerminateWithJmp(dest, args...)
	case "jmpif":
		cond, err := s.operand(spec.Condition)
		if err != nil {
			return err
		}
		then, err := s.block(spec.Then)
		if err != nil {
			return err
		}
		otherwise, err := s.block(spec.Else)
		if err != nil {
			return err
		}
		s.b.TerminateWithJmpIf(cond, then, otherwise)
	case "return":
		s.b.TerminateWithReturn(args...)
	default:
		return fmt.Errorf("unknown terminator kind %q", spec.Kind)
	}
	return nil
}

func parseTypes(texts []string) ([]ir.Type, error) {
	out := make([]ir.Type, len(texts))
	for i, text := range texts {
		t, err := ir.ParseType(text)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
