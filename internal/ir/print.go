package ir

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Fprint writes the canonical text of a function to w.
//
// Format:
//
//	acir(inline) fn main f0 {
//	  b0(v0: Field):
//	    v3 = add v0, Field 1
//	    v4 = mul v3, Field 3
//	    return v4
//	}
//
// Blocks are emitted in a depth-first walk from the entry block; every
// reachable block appears exactly once, even on loop back-edges.
func Fprint(w io.Writer, f *Function) error {
	_, err := io.WriteString(w, Sprint(f))
	return err
}

// Sprint returns the canonical text of a function without a trailing
// newline.
func Sprint(f *Function) string {
	p := printer{fn: f, dfg: f.dfg}
	fmt.Fprintf(&p.sb, "%s fn %s %s {\n", f.runtime, f.name, f.id)
	p.blockWithSuccessors(f.entryBlock, make(map[BlockID]bool))
	p.sb.WriteString("}")
	return p.sb.String()
}

// String implements fmt.Stringer using Sprint.
func (f *Function) String() string {
	return Sprint(f)
}

type printer struct {
	fn  *Function
	dfg *DataFlowGraph
	sb  strings.Builder
}

// blockWithSuccessors prints b and then each unvisited successor.
// visited prevents infinite recursion on loops.
func (p *printer) blockWithSuccessors(b BlockID, visited map[BlockID]bool) {
	p.block(b)
	visited[b] = true

	for _, succ := range p.dfg.Block(b).Successors() {
		if !visited[succ] && p.dfg.HasBlock(succ) {
			p.blockWithSuccessors(succ, visited)
		}
	}
}

func (p *printer) block(b BlockID) {
	block := p.dfg.Block(b)
	fmt.Fprintf(&p.sb, "  %s(%s):\n", b, p.valueListWithTypes(block.Parameters()))
	for _, instr := range block.Instructions() {
		p.instruction(instr)
	}
	p.terminator(block.Terminator())
}

// DisplayValue renders a single value operand, resolving aliases first.
// Constants, function references and arrays are printed inline.
func (dfg *DataFlowGraph) DisplayValue(id ValueID) string {
	id = dfg.Resolve(id)
	switch val := dfg.Value(id).(type) {
	case NumericConstant:
		return fmt.Sprintf("%s %s", val.Typ, val.Constant)
	case FunctionRef:
		return val.ID.String()
	case IntrinsicRef:
		return val.Kind.String()
	case ArrayValue:
		elems := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			elems[i] = dfg.DisplayValue(e)
		}
		lanes := ElementTypes(val.Typ)
		laneNames := make([]string, len(lanes))
		for i, t := range lanes {
			laneNames[i] = t.String()
		}
		if len(lanes) == 1 {
			return fmt.Sprintf("[%s] of %s", strings.Join(elems, ", "), laneNames[0])
		}
		return fmt.Sprintf("[%s] of (%s)", strings.Join(elems, ", "), strings.Join(laneNames, ", "))
	default: // Param, InstructionResult, ForeignFunction
		return id.String()
	}
}

func (p *printer) value(id ValueID) string {
	return p.dfg.DisplayValue(id)
}

func (p *printer) valueList(ids []ValueID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = p.value(id)
	}
	return strings.Join(parts, ", ")
}

// valueListWithTypes renders e.g. "v0: Field, v1: u64".
func (p *printer) valueListWithTypes(ids []ValueID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s: %s", p.value(id), p.dfg.TypeOf(id))
	}
	return strings.Join(parts, ", ")
}

func (p *printer) terminator(t Terminator) {
	switch term := t.(type) {
	case Jump:
		fmt.Fprintf(&p.sb, "    jmp %s(%s)\n", term.Destination, p.valueList(term.Arguments))
	case JumpIf:
		fmt.Fprintf(&p.sb, "    jmpif %s then: %s, else: %s\n",
			p.value(term.Condition), term.ThenDestination, term.ElseDestination)
	case Return:
		if len(term.Values) == 0 {
			p.sb.WriteString("    return\n")
		} else {
			fmt.Fprintf(&p.sb, "    return %s\n", p.valueList(term.Values))
		}
	default:
		p.sb.WriteString("    (no terminator instruction)\n")
	}
}

func (p *printer) instruction(id InstructionID) {
	// instructions are always indented within a function
	p.sb.WriteString("    ")

	results := p.dfg.InstructionResults(id)
	if len(results) > 0 {
		fmt.Fprintf(&p.sb, "%s = ", p.valueList(results))
	}
	p.sb.WriteString(p.instructionBody(p.dfg.Instruction(id), results))
	p.sb.WriteByte('\n')
}

func (p *printer) instructionBody(instr Instruction, results []ValueID) string {
	show := p.value

	switch i := instr.(type) {
	case Binary:
		return fmt.Sprintf("%s %s, %s", i.Operator, show(i.Lhs), show(i.Rhs))
	case Cast:
		return fmt.Sprintf("cast %s as %s", show(i.Value), i.Type)
	case Not:
		return "not " + show(i.Value)
	case Truncate:
		return fmt.Sprintf("truncate %s to %d bits, max_bit_size: %d", show(i.Value), i.BitSize, i.MaxBitSize)
	case Constrain:
		return fmt.Sprintf("constrain %s == %s%s", show(i.Lhs), show(i.Rhs), p.constrainError(i.Error))
	case Call:
		return fmt.Sprintf("call %s(%s)%s", show(i.Func), p.valueList(i.Arguments), p.resultTypes(results))
	case Allocate:
		return "allocate" + p.resultTypes(results)
	case Load:
		return fmt.Sprintf("load %s%s", show(i.Address), p.resultTypes(results))
	case Store:
		return fmt.Sprintf("store %s at %s", show(i.Value), show(i.Address))
	case EnableSideEffectsIf:
		return "enable_side_effects " + show(i.Condition)
	case ArrayGet:
		return fmt.Sprintf("array_get %s, index %s%s", show(i.Array), show(i.Index), p.resultTypes(results))
	case ArraySet:
		mut := ""
		if i.Mutable {
			mut = " mut"
		}
		return fmt.Sprintf("array_set%s %s, index %s, value %s", mut, show(i.Array), show(i.Index), show(i.Value))
	case IncrementRc:
		return "inc_rc " + show(i.Value)
	case DecrementRc:
		return "dec_rc " + show(i.Value)
	case RangeCheck:
		return fmt.Sprintf("range_check %s to %d bits", show(i.Value), i.MaxBitSize)
	case IfElse:
		return fmt.Sprintf("if %s then %s else if %s then %s",
			show(i.ThenCondition), show(i.ThenValue), show(i.ElseCondition), show(i.ElseValue))
	default:
		panic(fmt.Sprintf("unknown Instruction type: %T", instr))
	}
}

// resultTypes renders " -> T" for one result, " -> (T0, T1)" for many.
func (p *printer) resultTypes(results []ValueID) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " -> " + p.dfg.TypeOf(results[0]).String()
	default:
		types := make([]string, len(results))
		for i, r := range results {
			types[i] = p.dfg.TypeOf(r).String()
		}
		return " -> (" + strings.Join(types, ", ") + ")"
	}
}

// debugQuote double-quotes s using debug-string escapes: \n \r \t \0
// \\ \" and \u{hex} for anything unprintable. A combining mark is
// escaped only when it opens the string. Control characters come out as
// \u{1}, never as strconv.Quote's \x01.
func debugQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if !unicode.IsGraphic(r) || (i == 0 && unicode.In(r, unicode.Mn, unicode.Me)) {
				fmt.Fprintf(&sb, `\u{%x}`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (p *printer) constrainError(err ConstrainError) string {
	switch e := err.(type) {
	case StaticError:
		return " '" + debugQuote(e.Message) + "'"
	case DynamicError:
		if s, ok := TryExtractStringFromErrorPayload(e.Selector, e.Values, p.dfg); ok {
			return " '" + s + "'"
		}
		return ", data " + p.valueList(e.Values)
	default:
		return ""
	}
}
