package ir

import (
	"fmt"
)

// instructionJSON is the flat tagged wire form shared by every
// instruction variant. Args holds the operands in Operands() order.
type instructionJSON struct {
	Op         string     `json:"op"`
	Operator   string     `json:"operator,omitempty"`
	Args       []ValueID  `json:"args"`
	Type       *typeJSON  `json:"type,omitempty"`
	BitSize    uint32     `json:"bit_size,omitempty"`
	MaxBitSize uint32     `json:"max_bit_size,omitempty"`
	Mutable    bool       `json:"mutable,omitempty"`
	Message    string     `json:"message,omitempty"`
	Error      *errorJSON `json:"error,omitempty"`
}

type errorJSON struct {
	Kind     string        `json:"kind"` // "static" or "dynamic"
	Message  string        `json:"message,omitempty"`
	Selector ErrorSelector `json:"selector,omitempty"`
	Values   []ValueID     `json:"values,omitempty"`
}

func encodeInstruction(instr Instruction) instructionJSON {
	out := instructionJSON{Args: []ValueID{}}
	switch i := instr.(type) {
	case Binary:
		out.Op, out.Operator, out.Args = "binary", i.Operator.String(), []ValueID{i.Lhs, i.Rhs}
	case Cast:
		t := encodeType(i.Type)
		out.Op, out.Args, out.Type = "cast", []ValueID{i.Value}, &t
	case Not:
		out.Op, out.Args = "not", []ValueID{i.Value}
	case Truncate:
		out.Op, out.Args = "truncate", []ValueID{i.Value}
		out.BitSize, out.MaxBitSize = i.BitSize, i.MaxBitSize
	case Constrain:
		out.Op, out.Args = "constrain", []ValueID{i.Lhs, i.Rhs}
		switch e := i.Error.(type) {
		case StaticError:
			out.Error = &errorJSON{Kind: "static", Message: e.Message}
		case DynamicError:
			vals := make([]ValueID, len(e.Values))
			copy(vals, e.Values)
			out.Error = &errorJSON{Kind: "dynamic", Selector: e.Selector, Values: vals}
		}
	case Call:
		out.Op, out.Args = "call", i.Operands()
	case Allocate:
		out.Op = "allocate"
	case Load:
		out.Op, out.Args = "load", []ValueID{i.Address}
	case Store:
		out.Op, out.Args = "store", []ValueID{i.Address, i.Value}
	case EnableSideEffectsIf:
		out.Op, out.Args = "enable_side_effects", []ValueID{i.Condition}
	case ArrayGet:
		out.Op, out.Args = "array_get", []ValueID{i.Array, i.Index}
	case ArraySet:
		out.Op, out.Args, out.Mutable = "array_set", []ValueID{i.Array, i.Index, i.Value}, i.Mutable
	case IncrementRc:
		out.Op, out.Args = "inc_rc", []ValueID{i.Value}
	case DecrementRc:
		out.Op, out.Args = "dec_rc", []ValueID{i.Value}
	case RangeCheck:
		out.Op, out.Args = "range_check", []ValueID{i.Value}
		out.MaxBitSize, out.Message = i.MaxBitSize, i.AssertMessage
	case IfElse:
		out.Op, out.Args = "if_else", i.Operands()
	default:
		panic(fmt.Sprintf("unknown Instruction type: %T", instr))
	}
	return out
}

// instructionArgCount is the operand count each fixed-shape op expects.
var instructionArgCount = map[string]int{
	"binary":              2,
	"cast":                1,
	"not":                 1,
	"truncate":            1,
	"constrain":           2,
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
}

func decodeInstruction(raw instructionJSON) (Instruction, error) {
	args := raw.Args
	if raw.Op == "call" {
		if len(args) == 0 {
			return nil, fmt.Errorf("call without callee")
		}
		return Call{Func: args[0], Arguments: append([]ValueID{}, args[1:]...)}, nil
	}
	want, ok := instructionArgCount[raw.Op]
	if !ok {
		return nil, fmt.Errorf("unknown instruction op %q", raw.Op)
	}
	if len(args) != want {
		return nil, fmt.Errorf("%s: expected %d args, got %d", raw.Op, want, len(args))
	}

	switch raw.Op {
	case "binary":
		op, err := ParseBinaryOp(raw.Operator)
		if err != nil {
			return nil, err
		}
		return Binary{Lhs: args[0], Operator: op, Rhs: args[1]}, nil
	case "cast":
		if raw.Type == nil {
			return nil, fmt.Errorf("cast without target type")
		}
		t, err := decodeType(*raw.Type)
		if err != nil {
			return nil, fmt.Errorf("cast: %w", err)
		}
		nt, ok := t.(NumericType)
		if !ok {
			return nil, fmt.Errorf("cast to non-numeric type %s", t)
		}
		return Cast{Value: args[0], Type: nt}, nil
	case "not":
		return Not{Value: args[0]}, nil
	case "truncate":
		return Truncate{Value: args[0], BitSize: raw.BitSize, MaxBitSize: raw.MaxBitSize}, nil
	case "constrain":
		c := Constrain{Lhs: args[0], Rhs: args[1]}
		if raw.Error != nil {
			switch raw.Error.Kind {
			case "static":
				c.Error = StaticError{Message: raw.Error.Message}
			case "dynamic":
				vals := raw.Error.Values
				if vals == nil {
					vals = []ValueID{}
				}
				c.Error = DynamicError{Selector: raw.Error.Selector, Values: vals}
			default:
				return nil, fmt.Errorf("unknown constrain error kind %q", raw.Error.Kind)
			}
		}
		return c, nil
	case "allocate":
		return Allocate{}, nil
	case "load":
		return Load{Address: args[0]}, nil
	case "store":
		return Store{Address: args[0], Value: args[1]}, nil
	case "enable_side_effects":
		return EnableSideEffectsIf{Condition: args[0]}, nil
	case "array_get":
		return ArrayGet{Array: args[0], Index: args[1]}, nil
	case "array_set":
		return ArraySet{Array: args[0], Index: args[1], Value: args[2], Mutable: raw.Mutable}, nil
	case "inc_rc":
		return IncrementRc{Value: args[0]}, nil
	case "dec_rc":
		return DecrementRc{Value: args[0]}, nil
	case "range_check":
		return RangeCheck{Value: args[0], MaxBitSize: raw.MaxBitSize, AssertMessage: raw.Message}, nil
	default: // "if_else"
		return IfElse{ThenCondition: args[0], ThenValue: args[1], ElseCondition: args[2], ElseValue: args[3]}, nil
	}
}
