package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseType is the inverse of Type.String. It accepts "Field", "u8",
// "i32", "&mut T", "[T; N]", "[(T0, T1); N]", "[T]" and "function".
func ParseType(s string) (Type, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse type %q: trailing input at offset %d", s, p.pos)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseNumericType parses a numeric type name such as "Field" or "u32".
func ParseNumericType(s string) (NumericType, error) {
	t, err := ParseType(s)
	if err != nil {
		return NumericType{}, err
	}
	n, ok := t.(NumericType)
	if !ok {
		return NumericType{}, fmt.Errorf("%s is not a numeric type", s)
	}
	return n, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) consume(prefix string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *typeParser) expect(prefix string) error {
	if !p.consume(prefix) {
		return fmt.Errorf("expected %q at offset %d", prefix, p.pos)
	}
	return nil
}

func (p *typeParser) number() (uint32, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.ParseUint(p.src[start:p.pos], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	return uint32(n), nil
}

func (p *typeParser) parseType() (Type, error) {
	switch {
	case p.consume("Field"):
		return Field(), nil
	case p.consume("function"):
		return FunctionType{}, nil
	case p.consume("&mut "):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return Reference{Element: elem}, nil
	case p.consume("u"):
		bits, err := p.number()
		return UnsignedType(bits), err
	case p.consume("i"):
		bits, err := p.number()
		return SignedType(bits), err
	case p.consume("["):
		lanes, err := p.parseLanes()
		if err != nil {
			return nil, err
		}
		if p.consume("]") {
			return Slice{Elements: lanes}, nil
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		length, err := p.number()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return Array{Elements: lanes, Length: length}, nil
	}
	return nil, fmt.Errorf("unexpected input at offset %d", p.pos)
}

// parseLanes reads a single lane type or a parenthesised tuple of them.
func (p *typeParser) parseLanes() ([]Type, error) {
	if !p.consume("(") {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return []Type{t}, nil
	}
	var lanes []Type
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, t)
		if p.consume(")") {
			return lanes, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
