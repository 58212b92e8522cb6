package ir

import (
	"fmt"
)

// Value is a sealed interface representing everything a ValueID can name.
// Only Param, InstructionResult, NumericConstant, FunctionRef, IntrinsicRef,
// ForeignFunction and ArrayValue implement it.
type Value interface {
	irValue() // Sealed
	// Type returns the type of the value.
	Type() Type
}

// Param is a block parameter. It has no defining instruction.
type Param struct {
	Block    BlockID
	Position int
	Typ      Type
}

// InstructionResult is the Position'th result of Instruction.
type InstructionResult struct {
	Instruction InstructionID
	Position    int
	Typ         Type
}

// NumericConstant is an immutable literal.
type NumericConstant struct {
	Constant FieldElement
	Typ      NumericType
}

// FunctionRef refers to another function in the program.
type FunctionRef struct {
	ID FunctionID
}

// IntrinsicRef refers to a builtin operation.
type IntrinsicRef struct {
	Kind Intrinsic
}

// ForeignFunction refers to an externally linked function by name.
type ForeignFunction struct {
	Name string
}

// ArrayValue is an array literal. Typ is an Array or Slice whose lanes
// describe the element types.
type ArrayValue struct {
	Elements []ValueID
	Typ      Type
}

func (Param) irValue()             {}
func (InstructionResult) irValue() {}
func (NumericConstant) irValue()   {}
func (FunctionRef) irValue()       {}
func (IntrinsicRef) irValue()      {}
func (ForeignFunction) irValue()   {}
func (ArrayValue) irValue()        {}

func (v Param) Type() Type             { return v.Typ }
func (v InstructionResult) Type() Type { return v.Typ }
func (v NumericConstant) Type() Type   { return v.Typ }
func (FunctionRef) Type() Type         { return FunctionType{} }
func (IntrinsicRef) Type() Type        { return FunctionType{} }
func (ForeignFunction) Type() Type     { return FunctionType{} }
func (v ArrayValue) Type() Type        { return v.Typ }

// Intrinsic enumerates the builtin operations callable from SSA.
type Intrinsic uint8

const (
	IntrinsicArrayLen Intrinsic = iota
	IntrinsicAsSlice
	IntrinsicAssertConstant
	IntrinsicStaticAssert
	IntrinsicSlicePushBack
	IntrinsicSlicePushFront
	IntrinsicSlicePopBack
	IntrinsicSlicePopFront
	IntrinsicSliceInsert
	IntrinsicSliceRemove
	IntrinsicApplyRangeConstraint
	IntrinsicToLeBits
	IntrinsicToBeBits
	IntrinsicToLeRadix
	IntrinsicToBeRadix
	IntrinsicFieldLessThan
	IntrinsicIsUnconstrained
	IntrinsicDerivePedersenGenerators
	intrinsicCount // sentinel; must be last
)

var intrinsicNames = [intrinsicCount]string{
	IntrinsicArrayLen:                 "array_len",
	IntrinsicAsSlice:                  "as_slice",
	IntrinsicAssertConstant:           "assert_constant",
	IntrinsicStaticAssert:             "static_assert",
	IntrinsicSlicePushBack:            "slice_push_back",
	IntrinsicSlicePushFront:           "slice_push_front",
	IntrinsicSlicePopBack:             "slice_pop_back",
	IntrinsicSlicePopFront:            "slice_pop_front",
	IntrinsicSliceInsert:              "slice_insert",
	IntrinsicSliceRemove:              "slice_remove",
	IntrinsicApplyRangeConstraint:     "apply_range_constraint",
	IntrinsicToLeBits:                 "to_le_bits",
	IntrinsicToBeBits:                 "to_be_bits",
	IntrinsicToLeRadix:                "to_le_radix",
	IntrinsicToBeRadix:                "to_be_radix",
	IntrinsicFieldLessThan:            "field_less_than",
	IntrinsicIsUnconstrained:          "is_unconstrained",
	IntrinsicDerivePedersenGenerators: "derive_pedersen_generators",
}

func (k Intrinsic) String() string {
	if k < intrinsicCount {
		return intrinsicNames[k]
	}
	return fmt.Sprintf("intrinsic(%d)", uint8(k))
}

// LookupIntrinsic returns the intrinsic with the given name.
func LookupIntrinsic(name string) (Intrinsic, bool) {
	for k, n := range intrinsicNames {
		if n == name {
			return Intrinsic(k), true
		}
	}
	return 0, false
}

// valueJSON is the tagged wire form of a Value.
type valueJSON struct {
	Kind        string        `json:"kind"`
	Block       BlockID       `json:"block,omitempty"`
	Instruction InstructionID `json:"instruction,omitempty"`
	Position    int           `json:"position,omitempty"`
	Type        *typeJSON     `json:"type,omitempty"`
	Constant    *FieldElement `json:"constant,omitempty"`
	Function    FunctionID    `json:"function,omitempty"`
	Name        string        `json:"name,omitempty"`
	Elements    []ValueID     `json:"elements,omitempty"`
}

func encodeValue(v Value) valueJSON {
	switch val := v.(type) {
	case Param:
		t := encodeType(val.Typ)
		return valueJSON{Kind: "param", Block: val.Block, Position: val.Position, Type: &t}
	case InstructionResult:
		t := encodeType(val.Typ)
		return valueJSON{Kind: "instruction", Instruction: val.Instruction, Position: val.Position, Type: &t}
	case NumericConstant:
		t := encodeType(val.Typ)
		c := val.Constant
		return valueJSON{Kind: "numeric_constant", Constant: &c, Type: &t}
	case FunctionRef:
		return valueJSON{Kind: "function", Function: val.ID}
	case IntrinsicRef:
		return valueJSON{Kind: "intrinsic", Name: val.Kind.String()}
	case ForeignFunction:
		return valueJSON{Kind: "foreign_function", Name: val.Name}
	case ArrayValue:
		t := encodeType(val.Typ)
		elems := make([]ValueID, len(val.Elements))
		copy(elems, val.Elements)
		return valueJSON{Kind: "array", Elements: elems, Type: &t}
	default:
		panic(fmt.Sprintf("unknown Value type: %T", v))
	}
}

func decodeValue(raw valueJSON) (Value, error) {
	typ := func() (Type, error) {
		if raw.Type == nil {
			return nil, fmt.Errorf("%s value without type", raw.Kind)
		}
		return decodeType(*raw.Type)
	}

	switch raw.Kind {
	case "param":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		return Param{Block: raw.Block, Position: raw.Position, Typ: t}, nil
	case "instruction":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		return InstructionResult{Instruction: raw.Instruction, Position: raw.Position, Typ: t}, nil
	case "numeric_constant":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		nt, ok := t.(NumericType)
		if !ok {
			return nil, fmt.Errorf("numeric constant with non-numeric type %s", t)
		}
		if raw.Constant == nil {
			return nil, fmt.Errorf("numeric constant without value")
		}
		return NumericConstant{Constant: *raw.Constant, Typ: nt}, nil
	case "function":
		return FunctionRef{ID: raw.Function}, nil
	case "intrinsic":
		k, ok := LookupIntrinsic(raw.Name)
		if !ok {
			return nil, fmt.Errorf("unknown intrinsic %q", raw.Name)
		}
		return IntrinsicRef{Kind: k}, nil
	case "foreign_function":
		return ForeignFunction{Name: raw.Name}, nil
	case "array":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		elems := raw.Elements
		if elems == nil {
			elems = []ValueID{}
		}
		return ArrayValue{Elements: elems, Typ: t}, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", raw.Kind)
	}
}
