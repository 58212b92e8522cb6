package ir

import "fmt"

// ValueID identifies a value within a function's DataFlowGraph.
// A ValueID is not necessarily canonical; use DataFlowGraph.Resolve.
type ValueID uint32

// BlockID identifies a basic block within a function.
type BlockID uint32

// InstructionID identifies an instruction within a function.
type InstructionID uint32

// FunctionID identifies a function within a program.
type FunctionID uint32

func (id ValueID) String() string       { return fmt.Sprintf("v%d", uint32(id)) }
func (id BlockID) String() string       { return fmt.Sprintf("b%d", uint32(id)) }
func (id InstructionID) String() string { return fmt.Sprintf("i%d", uint32(id)) }
func (id FunctionID) String() string    { return fmt.Sprintf("f%d", uint32(id)) }
