package ir

import (
	"fmt"
)

// Terminator is a sealed interface over block-ending control transfers.
type Terminator interface {
	irTerminator() // Sealed
	// Successors returns the destination blocks in order.
	Successors() []BlockID
	// Operands returns the value operands.
	Operands() []ValueID
}

// Jump transfers control to Destination, binding Arguments to its
// parameters.
type Jump struct {
	Destination BlockID
	Arguments   []ValueID
}

// JumpIf branches on Condition.
type JumpIf struct {
	Condition       ValueID
	ThenDestination BlockID
	ElseDestination BlockID
}

// Return leaves the function with Values.
type Return struct {
	Values []ValueID
}

func (Jump) irTerminator()   {}
func (JumpIf) irTerminator() {}
func (Return) irTerminator() {}

func (t Jump) Successors() []BlockID { return []BlockID{t.Destination} }
func (t JumpIf) Successors() []BlockID {
	return []BlockID{t.ThenDestination, t.ElseDestination}
}
func (Return) Successors() []BlockID { return nil }

func (t Jump) Operands() []ValueID   { return t.Arguments }
func (t JumpIf) Operands() []ValueID { return []ValueID{t.Condition} }
func (t Return) Operands() []ValueID { return t.Values }

// BasicBlock is a straight-line instruction sequence with parameters and
// at most one terminator. It is read through accessors and mutated only
// through the owning DataFlowGraph.
type BasicBlock struct {
	parameters   []ValueID
	instructions []InstructionID
	terminator   Terminator
}

// Parameters returns the block parameters in order.
func (b *BasicBlock) Parameters() []ValueID { return b.parameters }

// Instructions returns the instruction ids in definition order.
func (b *BasicBlock) Instructions() []InstructionID { return b.instructions }

// Terminator returns the block terminator, or nil while the block is
// still under construction.
func (b *BasicBlock) Terminator() Terminator { return b.terminator }

// Successors returns the blocks reachable from this block's terminator.
func (b *BasicBlock) Successors() []BlockID {
	if b.terminator == nil {
		return nil
	}
	return b.terminator.Successors()
}

// blockJSON is the wire form of a BasicBlock.
type blockJSON struct {
	Parameters   []ValueID       `json:"parameters"`
	Instructions []InstructionID `json:"instructions"`
	Terminator   *terminatorJSON `json:"terminator,omitempty"`
}

type terminatorJSON struct {
	Kind        string    `json:"kind"` // "jmp", "jmpif", "return"
	Destination BlockID   `json:"destination,omitempty"`
	Else        BlockID   `json:"else_destination,omitempty"`
	Condition   ValueID   `json:"condition,omitempty"`
	Values      []ValueID `json:"values"`
}

func encodeBlock(b *BasicBlock) blockJSON {
	out := blockJSON{
		Parameters:   append([]ValueID{}, b.parameters...),
		Instructions: append([]InstructionID{}, b.instructions...),
	}
	switch t := b.terminator.(type) {
	case Jump:
		out.Terminator = &terminatorJSON{Kind: "jmp", Destination: t.Destination, Values: append([]ValueID{}, t.Arguments...)}
	case JumpIf:
		out.Terminator = &terminatorJSON{Kind: "jmpif", Condition: t.Condition, Destination: t.ThenDestination, Else: t.ElseDestination, Values: []ValueID{}}
	case Return:
		out.Terminator = &terminatorJSON{Kind: "return", Values: append([]ValueID{}, t.Values...)}
	}
	return out
}

func decodeBlock(raw blockJSON) (*BasicBlock, error) {
	b := &BasicBlock{
		parameters:   append([]ValueID{}, raw.Parameters...),
		instructions: append([]InstructionID{}, raw.Instructions...),
	}
	if raw.Terminator == nil {
		return b, nil
	}
	t := raw.Terminator
	switch t.Kind {
	case "jmp":
		b.terminator = Jump{Destination: t.Destination, Arguments: append([]ValueID{}, t.Values...)}
	case "jmpif":
		b.terminator = JumpIf{Condition: t.Condition, ThenDestination: t.Destination, ElseDestination: t.Else}
	case "return":
		b.terminator = Return{Values: append([]ValueID{}, t.Values...)}
	default:
		return nil, fmt.Errorf("unknown terminator kind %q", t.Kind)
	}
	return b, nil
}
