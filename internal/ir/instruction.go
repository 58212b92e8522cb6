package ir

import (
	"fmt"
)

// Instruction is a sealed interface over the SSA instruction set.
// Consumers are expected to switch exhaustively over the variants below.
type Instruction interface {
	irInstruction() // Sealed
	// Operands returns the value operands in display order.
	Operands() []ValueID
}

// Binary applies Operator to Lhs and Rhs.
type Binary struct {
	Lhs      ValueID
	Operator BinaryOp
	Rhs      ValueID
}

// Cast reinterprets Value as Type.
type Cast struct {
	Value ValueID
	Type  NumericType
}

// Not is the bitwise complement of Value.
type Not struct {
	Value ValueID
}

// Truncate narrows Value to BitSize bits; MaxBitSize bounds the input.
type Truncate struct {
	Value      ValueID
	BitSize    uint32
	MaxBitSize uint32
}

// Constrain asserts Lhs == Rhs. Error is optional.
type Constrain struct {
	Lhs   ValueID
	Rhs   ValueID
	Error ConstrainError
}

// Call invokes Func, which may be a function, intrinsic, foreign
// function or any other function-typed value.
type Call struct {
	Func      ValueID
	Arguments []ValueID
}

// Allocate introduces a mutable memory cell; its result is a Reference.
type Allocate struct{}

// Load reads the current value at Address.
type Load struct {
	Address ValueID
}

// Store writes Value to Address.
type Store struct {
	Address ValueID
	Value   ValueID
}

// EnableSideEffectsIf toggles the side-effect predicate for the
// instructions that follow it.
type EnableSideEffectsIf struct {
	Condition ValueID
}

// ArrayGet reads Array[Index]. Bounds are checked elsewhere.
type ArrayGet struct {
	Array ValueID
	Index ValueID
}

// ArraySet yields Array with Index set to Value. Mutable marks an
// in-place update instead of copy-on-write.
type ArraySet struct {
	Array   ValueID
	Index   ValueID
	Value   ValueID
	Mutable bool
}

// IncrementRc bumps the reference count of a shared array.
type IncrementRc struct {
	Value ValueID
}

// DecrementRc drops the reference count of a shared array.
type DecrementRc struct {
	Value ValueID
}

// RangeCheck asserts Value fits in MaxBitSize bits.
type RangeCheck struct {
	Value         ValueID
	MaxBitSize    uint32
	AssertMessage string
}

// IfElse selects ThenValue under ThenCondition, else ElseValue.
type IfElse struct {
	ThenCondition ValueID
	ThenValue     ValueID
	ElseCondition ValueID
	ElseValue     ValueID
}

func (Binary) irInstruction()              {}
func (Cast) irInstruction()                {}
func (Not) irInstruction()                 {}
func (Truncate) irInstruction()            {}
func (Constrain) irInstruction()           {}
func (Call) irInstruction()                {}
func (Allocate) irInstruction()            {}
func (Load) irInstruction()                {}
func (Store) irInstruction()               {}
func (EnableSideEffectsIf) irInstruction() {}
func (ArrayGet) irInstruction()            {}
func (ArraySet) irInstruction()            {}
func (IncrementRc) irInstruction()         {}
func (DecrementRc) irInstruction()         {}
func (RangeCheck) irInstruction()          {}
func (IfElse) irInstruction()              {}

func (i Binary) Operands() []ValueID   { return []ValueID{i.Lhs, i.Rhs} }
func (i Cast) Operands() []ValueID     { return []ValueID{i.Value} }
func (i Not) Operands() []ValueID      { return []ValueID{i.Value} }
func (i Truncate) Operands() []ValueID { return []ValueID{i.Value} }

func (i Constrain) Operands() []ValueID {
	ops := []ValueID{i.Lhs, i.Rhs}
	if dyn, ok := i.Error.(DynamicError); ok {
		ops = append(ops, dyn.Values...)
	}
	return ops
}

func (i Call) Operands() []ValueID {
	return append([]ValueID{i.Func}, i.Arguments...)
}

func (Allocate) Operands() []ValueID              { return nil }
func (i Load) Operands() []ValueID                { return []ValueID{i.Address} }
func (i Store) Operands() []ValueID               { return []ValueID{i.Value, i.Address} }
func (i EnableSideEffectsIf) Operands() []ValueID { return []ValueID{i.Condition} }
func (i ArrayGet) Operands() []ValueID            { return []ValueID{i.Array, i.Index} }
func (i ArraySet) Operands() []ValueID            { return []ValueID{i.Array, i.Index, i.Value} }
func (i IncrementRc) Operands() []ValueID         { return []ValueID{i.Value} }
func (i DecrementRc) Operands() []ValueID         { return []ValueID{i.Value} }
func (i RangeCheck) Operands() []ValueID          { return []ValueID{i.Value} }

func (i IfElse) Operands() []ValueID {
	return []ValueID{i.ThenCondition, i.ThenValue, i.ElseCondition, i.ElseValue}
}

// ResultArity returns how many results instr yields. fixed is false for
// Call, whose result count comes from the callee signature.
func ResultArity(instr Instruction) (n int, fixed bool) {
	switch instr.(type) {
	case Call:
		return 0, false
	case Binary, Cast, Not, Truncate, Allocate, Load, ArrayGet, ArraySet, IfElse:
		return 1, true
	default:
		return 0, true
	}
}

// BinaryOperator enumerates the binary operations.
type BinaryOperator uint8

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpLt
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	binaryOperatorCount // sentinel; must be last
)

var binaryOperatorNames = [binaryOperatorCount]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
	OpMod: "mod",
	OpEq:  "eq",
	OpLt:  "lt",
	OpAnd: "and",
	OpOr:  "or",
	OpXor: "xor",
	OpShl: "shl",
	OpShr: "shr",
}

// BinaryOp is an operator plus its overflow-checking mode.
// Unchecked is only meaningful for add, sub and mul.
type BinaryOp struct {
	Operator  BinaryOperator
	Unchecked bool
}

// Op returns the checked form of the given operator.
func Op(operator BinaryOperator) BinaryOp {
	return BinaryOp{Operator: operator}
}

// IsComparison reports whether the operator yields a u1.
func (op BinaryOp) IsComparison() bool {
	return op.Operator == OpEq || op.Operator == OpLt
}

func (op BinaryOp) String() string {
	if op.Operator >= binaryOperatorCount {
		return fmt.Sprintf("binary(%d)", uint8(op.Operator))
	}
	name := binaryOperatorNames[op.Operator]
	if op.Unchecked && (op.Operator == OpAdd || op.Operator == OpSub || op.Operator == OpMul) {
		return "unchecked_" + name
	}
	return name
}

// ParseBinaryOp is the inverse of BinaryOp.String.
func ParseBinaryOp(s string) (BinaryOp, error) {
	unchecked := false
	if len(s) > len("unchecked_") && s[:len("unchecked_")] == "unchecked_" {
		unchecked = true
		s = s[len("unchecked_"):]
	}
	for i, name := range binaryOperatorNames {
		if name == s {
			return BinaryOp{Operator: BinaryOperator(i), Unchecked: unchecked}, nil
		}
	}
	return BinaryOp{}, fmt.Errorf("unknown binary operator %q", s)
}

// ErrorSelector tags the shape of a dynamic constrain error payload.
type ErrorSelector uint64

// StringErrorSelector marks a payload that is a single encoded string.
const StringErrorSelector ErrorSelector = 0

// ConstrainError is a sealed interface: StaticError or DynamicError.
// A nil ConstrainError means the constraint carries no message.
type ConstrainError interface {
	irConstrainError() // Sealed
}

// StaticError is a compile-time message.
type StaticError struct {
	Message string
}

// DynamicError is a payload computed at runtime, tagged by Selector.
type DynamicError struct {
	Selector ErrorSelector
	Values   []ValueID
}

func (StaticError) irConstrainError()  {}
func (DynamicError) irConstrainError() {}
