// Package builder constructs SSA functions and programs.
//
// A FunctionBuilder keeps a cursor on one block of the function under
// construction; Insert* methods append to that block and return the new
// result values. Calling NewFunction moves on to a fresh function, and
// Finish assembles everything built so far into a program.Program whose
// first function is main.
package builder

import (
	"fmt"
	"log/slog"

	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
)

// FunctionBuilder builds functions block by block.
// It is not safe for concurrent use; run one builder per goroutine and
// share the program's function id counter between them.
type FunctionBuilder struct {
	current    *ir.Function
	block      ir.BlockID
	finished   []*ir.Function
	errorTypes map[ir.ErrorSelector]program.ErrorType
	logger     *slog.Logger
}

// Option configures the function under construction.
type Option func(*ir.Function)

// WithRuntime sets the runtime of the function being started.
func WithRuntime(runtime ir.RuntimeType) Option {
	return func(f *ir.Function) {
		f.SetRuntime(runtime)
	}
}

// New starts a builder whose first function (main) has the given name
// and id. The cursor is placed on the entry block.
func New(name string, id ir.FunctionID, opts ...Option) *FunctionBuilder {
	b := &FunctionBuilder{logger: slog.Default()}
	b.start(name, id, opts)
	return b
}

func (b *FunctionBuilder) start(name string, id ir.FunctionID, opts []Option) {
	f := ir.NewFunction(name, id)
	for _, opt := range opts {
		opt(f)
	}
	b.current = f
	b.block = f.EntryBlock()
}

// NewFunction finishes the current function and starts another one.
func (b *FunctionBuilder) NewFunction(name string, id ir.FunctionID, opts ...Option) {
	b.finished = append(b.finished, b.current)
	b.logger.Debug("function built", "function", b.current.ID().String(), "name", b.current.Name())
	b.start(name, id, opts)
}

// CurrentFunction returns the function under construction.
func (b *FunctionBuilder) CurrentFunction() *ir.Function { return b.current }

// SetErrorTypes records the error selector metadata handed to the
// program by Finish.
func (b *FunctionBuilder) SetErrorTypes(types map[ir.ErrorSelector]program.ErrorType) {
	b.errorTypes = types
}

// Finish returns a program holding every function built, main first.
// The builder must not be used afterwards.
func (b *FunctionBuilder) Finish() *program.Program {
	functions := append(b.finished, b.current)
	b.logger.Debug("function built", "function", b.current.ID().String(), "name", b.current.Name())
	b.current, b.finished = nil, nil
	return program.New(functions, program.WithErrorTypes(b.errorTypes))
}

func (b *FunctionBuilder) dfg() *ir.DataFlowGraph { return b.current.DFG() }

// AddParameter appends a parameter of type t to the entry block.
func (b *FunctionBuilder) AddParameter(t ir.Type) ir.ValueID {
	return b.dfg().AddBlockParameter(b.current.EntryBlock(), t)
}

// FieldConstant returns the native field constant n.
func (b *FunctionBuilder) FieldConstant(n uint64) ir.ValueID {
	return b.dfg().MakeConstant(ir.FieldFromUint64(n), ir.Field())
}

// NumericConstant returns the constant c of type t.
func (b *FunctionBuilder) NumericConstant(c ir.FieldElement, t ir.NumericType) ir.ValueID {
	return b.dfg().MakeConstant(c, t)
}

// ArrayConstant returns an array literal of type t.
func (b *FunctionBuilder) ArrayConstant(elements []ir.ValueID, t ir.Type) ir.ValueID {
	return b.dfg().MakeArray(elements, t)
}

// ImportFunction returns a value referring to function id.
func (b *FunctionBuilder) ImportFunction(id ir.FunctionID) ir.ValueID {
	return b.dfg().ImportFunction(id)
}

// ImportIntrinsic returns a value referring to intrinsic k.
func (b *FunctionBuilder) ImportIntrinsic(k ir.Intrinsic) ir.ValueID {
	return b.dfg().ImportIntrinsic(k)
}

// ImportForeignFunction returns a value referring to a foreign function.
func (b *FunctionBuilder) ImportForeignFunction(name string) ir.ValueID {
	return b.dfg().ImportForeignFunction(name)
}

// InsertBlock creates a new block without moving the cursor.
func (b *FunctionBuilder) InsertBlock() ir.BlockID {
	return b.dfg().MakeBlock()
}

// AddBlockParameter appends a parameter of type t to block blk.
func (b *FunctionBuilder) AddBlockParameter(blk ir.BlockID, t ir.Type) ir.ValueID {
	return b.dfg().AddBlockParameter(blk, t)
}

// SwitchToBlock moves the cursor to blk.
func (b *FunctionBuilder) SwitchToBlock(blk ir.BlockID) {
	if !b.dfg().HasBlock(blk) {
		panic(fmt.Sprintf("builder: unknown block %s", blk))
	}
	b.block = blk
}

// CurrentBlock returns the block under the cursor.
func (b *FunctionBuilder) CurrentBlock() ir.BlockID { return b.block }

func (b *FunctionBuilder) insert(instr ir.Instruction, resultTypes ...ir.Type) []ir.ValueID {
	id := b.dfg().InsertInstructionAndResults(instr, b.block, resultTypes)
	return b.dfg().InstructionResults(id)
}

// InsertBinary inserts lhs op rhs. Comparisons yield u1; every other
// operator yields the type of lhs.
func (b *FunctionBuilder) InsertBinary(lhs ir.ValueID, op ir.BinaryOp, rhs ir.ValueID) ir.ValueID {
	var t ir.Type = ir.Bool()
	if !op.IsComparison() {
		t = b.dfg().TypeOf(lhs)
	}
	return b.insert(ir.Binary{Lhs: lhs, Operator: op, Rhs: rhs}, t)[0]
}

// InsertCast inserts a cast of v to t.
func (b *FunctionBuilder) InsertCast(v ir.ValueID, t ir.NumericType) ir.ValueID {
	return b.insert(ir.Cast{Value: v, Type: t}, t)[0]
}

// InsertNot inserts the bitwise complement of v.
func (b *FunctionBuilder) InsertNot(v ir.ValueID) ir.ValueID {
	return b.insert(ir.Not{Value: v}, b.dfg().TypeOf(v))[0]
}

// InsertTruncate narrows v to bitSize bits.
func (b *FunctionBuilder) InsertTruncate(v ir.ValueID, bitSize, maxBitSize uint32) ir.ValueID {
	return b.insert(ir.Truncate{Value: v, BitSize: bitSize, MaxBitSize: maxBitSize}, b.dfg().TypeOf(v))[0]
}

// InsertConstrain asserts lhs == rhs. err may be nil.
func (b *FunctionBuilder) InsertConstrain(lhs, rhs ir.ValueID, err ir.ConstrainError) {
	b.insert(ir.Constrain{Lhs: lhs, Rhs: rhs, Error: err})
}

// InsertCall calls fn with args; the callee signature supplies
// resultTypes.
func (b *FunctionBuilder) InsertCall(fn ir.ValueID, args []ir.ValueID, resultTypes ...ir.Type) []ir.ValueID {
	return b.insert(ir.Call{Func: fn, Arguments: append([]ir.ValueID{}, args...)}, resultTypes...)
}

// InsertAllocate introduces a memory cell holding elementType.
func (b *FunctionBuilder) InsertAllocate(elementType ir.Type) ir.ValueID {
	return b.insert(ir.Allocate{}, ir.Reference{Element: elementType})[0]
}

// InsertLoad reads a value of type t from address.
func (b *FunctionBuilder) InsertLoad(address ir.ValueID, t ir.Type) ir.ValueID {
	return b.insert(ir.Load{Address: address}, t)[0]
}

// InsertStore writes value to address.
func (b *FunctionBuilder) InsertStore(address, value ir.ValueID) {
	b.insert(ir.Store{Address: address, Value: value})
}

// InsertEnableSideEffectsIf sets the side-effect predicate.
func (b *FunctionBuilder) InsertEnableSideEffectsIf(condition ir.ValueID) {
	b.insert(ir.EnableSideEffectsIf{Condition: condition})
}

// InsertArrayGet reads array[index] as elementType.
func (b *FunctionBuilder) InsertArrayGet(array, index ir.ValueID, elementType ir.Type) ir.ValueID {
	return b.insert(ir.ArrayGet{Array: array, Index: index}, elementType)[0]
}

// InsertArraySet yields array with index set to value.
func (b *FunctionBuilder) InsertArraySet(array, index, value ir.ValueID, mutable bool) ir.ValueID {
	instr := ir.ArraySet{Array: array, Index: index, Value: value, Mutable: mutable}
	return b.insert(instr, b.dfg().TypeOf(array))[0]
}

// InsertIncrementRc bumps the reference count of v.
func (b *FunctionBuilder) InsertIncrementRc(v ir.ValueID) {
	b.insert(ir.IncrementRc{Value: v})
}

// InsertDecrementRc drops the reference count of v.
func (b *FunctionBuilder) InsertDecrementRc(v ir.ValueID) {
	b.insert(ir.DecrementRc{Value: v})
}

// InsertRangeCheck asserts v fits in maxBitSize bits.
func (b *FunctionBuilder) InsertRangeCheck(v ir.ValueID, maxBitSize uint32, message string) {
	b.insert(ir.RangeCheck{Value: v, MaxBitSize: maxBitSize, AssertMessage: message})
}

// InsertIfElse selects thenValue or elseValue; the result has the type of
// thenValue.
func (b *FunctionBuilder) InsertIfElse(thenCondition, thenValue, elseCondition, elseValue ir.ValueID) ir.ValueID {
	instr := ir.IfElse{
		ThenCondition: thenCondition,
		ThenValue:     thenValue,
		ElseCondition: elseCondition,
		ElseValue:     elseValue,
	}
	return b.insert(instr, b.dfg().TypeOf(thenValue))[0]
}

// TerminateWithJmp ends the current block with a jump to destination.
func (b *FunctionBuilder) TerminateWithJmp(destination ir.BlockID, args ...ir.ValueID) {
	b.dfg().SetTerminator(b.block, ir.Jump{Destination: destination, Arguments: append([]ir.ValueID{}, args...)})
}

// TerminateWithJmpIf ends the current block with a conditional branch.
func (b *FunctionBuilder) TerminateWithJmpIf(condition ir.ValueID, thenDestination, elseDestination ir.BlockID) {
	b.dfg().SetTerminator(b.block, ir.JumpIf{
		Condition:       condition,
		ThenDestination: thenDestination,
		ElseDestination: elseDestination,
	})
}

// TerminateWithReturn ends the current block by returning values.
func (b *FunctionBuilder) TerminateWithReturn(values ...ir.ValueID) {
	b.dfg().SetTerminator(b.block, ir.Return{Values: append([]ir.ValueID{}, values...)})
}
