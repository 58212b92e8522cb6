package ir

import (
	"fmt"
	"strings"
)

// Type is a sealed interface over the SSA value types.
// Only NumericType, Reference, Array, Slice and FunctionType implement it.
type Type interface {
	irType() // Sealed
	String() string
}

// NumericKind distinguishes the numeric families.
type NumericKind uint8

const (
	NativeField NumericKind = iota
	Unsigned
	Signed
)

// NumericType is a field element or a fixed-width integer.
type NumericType struct {
	Kind    NumericKind
	BitSize uint32 // ignored for NativeField
}

// Reference is a mutable memory cell holding Element.
type Reference struct {
	Element Type
}

// Array is a fixed-length array. Each entry of Elements is one lane;
// arrays of tuples carry more than one lane.
type Array struct {
	Elements []Type
	Length   uint32
}

// Slice is a dynamically sized array.
type Slice struct {
	Elements []Type
}

// FunctionType is the type of function, intrinsic and foreign references.
type FunctionType struct{}

func (NumericType) irType()  {}
func (Reference) irType()    {}
func (Array) irType()        {}
func (Slice) irType()        {}
func (FunctionType) irType() {}

// Field returns the native field element type.
func Field() NumericType { return NumericType{Kind: NativeField} }

// UnsignedType returns the unsigned integer type of the given width.
func UnsignedType(bits uint32) NumericType { return NumericType{Kind: Unsigned, BitSize: bits} }

// SignedType returns the signed integer type of the given width.
func SignedType(bits uint32) NumericType { return NumericType{Kind: Signed, BitSize: bits} }

// Bool returns u1, the boolean type.
func Bool() NumericType { return UnsignedType(1) }

func (t NumericType) String() string {
	switch t.Kind {
	case Unsigned:
		return fmt.Sprintf("u%d", t.BitSize)
	case Signed:
		return fmt.Sprintf("i%d", t.BitSize)
	default:
		return "Field"
	}
}

func (t Reference) String() string { return "&mut " + t.Element.String() }

func (t Array) String() string {
	return fmt.Sprintf("[%s; %d]", laneList(t.Elements), t.Length)
}

func (t Slice) String() string {
	return fmt.Sprintf("[%s]", laneList(t.Elements))
}

func (FunctionType) String() string { return "function" }

// ElementTypes returns the lane types of an Array.
func (t Array) ElementTypes() []Type { return t.Elements }

// ElementTypes returns the lane types of a Slice.
func (t Slice) ElementTypes() []Type { return t.Elements }

// ElementTypes returns the lane types of an array-like type, or nil.
func ElementTypes(t Type) []Type {
	switch typ := t.(type) {
	case Array:
		return typ.Elements
	case Slice:
		return typ.Elements
	default:
		return nil
	}
}

// laneList renders a single lane bare and several lanes as a tuple.
func laneList(lanes []Type) string {
	parts := make([]string, len(lanes))
	for i, lane := range lanes {
		parts[i] = lane.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// typeJSON is the tagged wire form of a Type.
type typeJSON struct {
	Kind     string     `json:"kind"` // "numeric", "reference", "array", "slice", "function"
	Numeric  string     `json:"numeric,omitempty"`
	BitSize  uint32     `json:"bit_size,omitempty"`
	Element  *typeJSON  `json:"element,omitempty"`
	Elements []typeJSON `json:"elements,omitempty"`
	Length   uint32     `json:"length,omitempty"`
}

var numericKindNames = map[NumericKind]string{
	NativeField: "field",
	Unsigned:    "unsigned",
	Signed:      "signed",
}

func encodeType(t Type) typeJSON {
	switch typ := t.(type) {
	case NumericType:
		out := typeJSON{Kind: "numeric", Numeric: numericKindNames[typ.Kind]}
		if typ.Kind != NativeField {
			out.BitSize = typ.BitSize
		}
		return out
	case Reference:
		elem := encodeType(typ.Element)
		return typeJSON{Kind: "reference", Element: &elem}
	case Array:
		return typeJSON{Kind: "array", Elements: encodeTypes(typ.Elements), Length: typ.Length}
	case Slice:
		return typeJSON{Kind: "slice", Elements: encodeTypes(typ.Elements)}
	default:
		return typeJSON{Kind: "function"}
	}
}

func encodeTypes(ts []Type) []typeJSON {
	out := make([]typeJSON, len(ts))
	for i, t := range ts {
		out[i] = encodeType(t)
	}
	return out
}

func decodeType(raw typeJSON) (Type, error) {
	switch raw.Kind {
	case "numeric":
		for kind, name := range numericKindNames {
			if name == raw.Numeric {
				if kind == NativeField {
					return Field(), nil
				}
				return NumericType{Kind: kind, BitSize: raw.BitSize}, nil
			}
		}
		return nil, fmt.Errorf("unknown numeric kind %q", raw.Numeric)
	case "reference":
		if raw.Element == nil {
			return nil, fmt.Errorf("reference type without element")
		}
		elem, err := decodeType(*raw.Element)
		if err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
		return Reference{Element: elem}, nil
	case "array":
		elems, err := decodeTypes(raw.Elements)
		if err != nil {
			return nil, fmt.Errorf("array: %w", err)
		}
		return Array{Elements: elems, Length: raw.Length}, nil
	case "slice":
		elems, err := decodeTypes(raw.Elements)
		if err != nil {
			return nil, fmt.Errorf("slice: %w", err)
		}
		return Slice{Elements: elems}, nil
	case "function":
		return FunctionType{}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", raw.Kind)
	}
}

func decodeTypes(raw []typeJSON) ([]Type, error) {
	out := make([]Type, len(raw))
	for i, r := range raw {
		t, err := decodeType(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
