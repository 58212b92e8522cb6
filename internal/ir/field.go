package ir

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// fieldModulus is the BN254 scalar field prime.
var fieldModulus = uint256.MustFromDecimal(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617")

// FieldElement is an element of the native proof field.
// The zero value is the field element 0.
type FieldElement struct {
	v uint256.Int
}

// FieldFromUint64 returns n as a field element.
func FieldFromUint64(n uint64) FieldElement {
	var fe FieldElement
	fe.v.SetUint64(n)
	return fe
}

// FieldFromInt64 returns n as a field element; negative values wrap
// around the field modulus.
func FieldFromInt64(n int64) FieldElement {
	if n >= 0 {
		return FieldFromUint64(uint64(n))
	}
	var fe FieldElement
	abs := uint256.NewInt(uint64(-n))
	fe.v.Sub(fieldModulus, abs)
	return fe
}

// FieldFromDecimal parses a decimal string and reduces it modulo the field.
func FieldFromDecimal(s string) (FieldElement, error) {
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return FieldElement{}, fmt.Errorf("field element %q: %w", s, err)
	}
	var fe FieldElement
	fe.v.Mod(n, fieldModulus)
	return fe, nil
}

// MustFieldFromDecimal is like FieldFromDecimal but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFieldFromDecimal(s string) FieldElement {
	fe, err := FieldFromDecimal(s)
	if err != nil {
		panic(err)
	}
	return fe
}

// TryToUint64 returns the element as a uint64 if it fits.
func (fe FieldElement) TryToUint64() (uint64, bool) {
	if !fe.v.IsUint64() {
		return 0, false
	}
	return fe.v.Uint64(), true
}

// Equal reports whether two field elements are identical.
func (fe FieldElement) Equal(other FieldElement) bool {
	return fe.v.Eq(&other.v)
}

// String renders the element in decimal.
func (fe FieldElement) String() string {
	return fe.v.Dec()
}

// MarshalJSON encodes the element as a decimal string so values above
// 2^53 survive JSON round trips.
func (fe FieldElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(fe.String())
}

// UnmarshalJSON decodes a decimal string.
func (fe *FieldElement) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("field element: %w", err)
	}
	parsed, err := FieldFromDecimal(s)
	if err != nil {
		return err
	}
	*fe = parsed
	return nil
}
