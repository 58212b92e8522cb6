package program

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/zkssa/internal/ir"
)

// ErrorType is the declared payload type behind an error selector, in
// its source-level textual form (e.g. "str<3>" or "fmtstr<8, (Field)>").
type ErrorType string

// Program is a whole SSA program: every function keyed by id, the main
// function, the shared function id counter and the derived entry-point
// index.
//
// Thread-safety: Counter().Next may be called from any goroutine.
// AddFunction and the read accessors are guarded by an internal lock, so
// builders running in parallel can insert the functions they allocate.
type Program struct {
	mu          sync.RWMutex
	functions   map[ir.FunctionID]*ir.Function
	order       []ir.FunctionID // ascending
	mainID      ir.FunctionID
	counter     *FunctionIDCounter
	usedGlobals map[ir.FunctionID][]ir.ValueID
	errorTypes  map[ir.ErrorSelector]ErrorType

	// entry-point index state; entryPoints is only valid when finalized
	finalized   bool
	entryPoints map[ir.FunctionID]uint32

	logger *slog.Logger
}

// Option configures a Program.
type Option func(*Program)

// WithErrorTypes sets the error selector metadata.
func WithErrorTypes(types map[ir.ErrorSelector]ErrorType) Option {
	return func(p *Program) {
		p.errorTypes = copyErrorTypes(types)
	}
}

// WithLogger sets the logger used for lifecycle events.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Program from functions. The first function is main.
// The function id counter is seeded so that the next allocated id is one
// past the largest id present.
//
// New panics with an *InvariantError if functions is empty or two
// functions share an id.
func New(functions []*ir.Function, opts ...Option) *Program {
	if len(functions) == 0 {
		panic(&InvariantError{Code: ErrCodeEmptyProgram, Message: "a program needs at least one function"})
	}

	p := &Program{
		functions:   make(map[ir.FunctionID]*ir.Function, len(functions)),
		mainID:      functions[0].ID(),
		usedGlobals: make(map[ir.FunctionID][]ir.ValueID),
		errorTypes:  make(map[ir.ErrorSelector]ErrorType),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var maxID ir.FunctionID
	for _, f := range functions {
		if _, dup := p.functions[f.ID()]; dup {
			panic(newFunctionError(ErrCodeDuplicateFunction, f.ID(), "function id used twice"))
		}
		p.functions[f.ID()] = f
		p.order = append(p.order, f.ID())
		maxID = max(maxID, f.ID())
	}
	slices.Sort(p.order)
	p.counter = NewFunctionIDCounterAfter(maxID)

	p.logger.Debug("program created",
		"functions", len(functions),
		"main", p.mainID.String(),
		"next_id", (maxID + 1).String(),
	)
	return p
}

// Main returns the main function.
func (p *Program) Main() *ir.Function {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.functions[p.mainID]
}

// MainID returns the id of the main function.
func (p *Program) MainID() ir.FunctionID { return p.mainID }

// Function returns the function with the given id, or nil.
func (p *Program) Function(id ir.FunctionID) *ir.Function {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.functions[id]
}

// Functions returns every function in ascending id order.
func (p *Program) Functions() []*ir.Function {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*ir.Function, len(p.order))
	for i, id := range p.order {
		out[i] = p.functions[id]
	}
	return out
}

// FunctionIDs returns every function id in ascending order.
func (p *Program) FunctionIDs() []ir.FunctionID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.order)
}

// NumFunctions returns the number of functions.
func (p *Program) NumFunctions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Counter returns the program-wide function id counter.
func (p *Program) Counter() *FunctionIDCounter { return p.counter }

// AddFunction allocates a fresh id from the counter, calls build with it
// and inserts the returned function. build must return a function with
// the id it was given.
//
// Adding a function after the entry-point index was finalized discards
// the index; it must be generated again before it is read.
func (p *Program) AddFunction(build func(id ir.FunctionID) *ir.Function) ir.FunctionID {
	id := p.counter.Next()
	f := build(id)
	if f == nil || f.ID() != id {
		panic(newFunctionError(ErrCodeUnknownFunction, id, "build must return a function with the allocated id"))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.functions[id] = f
	p.order = append(p.order, id)
	// ids from the counter only grow, but concurrent builders may finish
	// out of order
	slices.Sort(p.order)
	if p.finalized {
		p.finalized = false
		p.entryPoints = nil
		p.logger.Info("entry point index invalidated", "function", id.String())
	}

	p.logger.Debug("function added", "function", id.String(), "name", f.Name())
	return id
}

// IsEntryPoint reports whether id is entry-capable: the main function or
// any function whose runtime marks it as a program entry.
func (p *Program) IsEntryPoint(id ir.FunctionID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isEntryPointLocked(id)
}

func (p *Program) isEntryPointLocked(id ir.FunctionID) bool {
	f, ok := p.functions[id]
	if !ok {
		return false
	}
	return id == p.mainID || f.Runtime().IsEntryPoint()
}

// GenerateEntryPointIndex finalizes the entry-point index: entry-capable
// functions, in ascending id order, receive dense indices from 0. The
// result is cached; repeated calls are no-ops until AddFunction
// invalidates it.
//
// It panics with ErrCodeIncompleteFunction if any reachable block of any
// function lacks a terminator.
func (p *Program) GenerateEntryPointIndex() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized {
		return
	}

	for _, id := range p.order {
		if err := p.functions[id].CheckComplete(); err != nil {
			panic(newFunctionError(ErrCodeIncompleteFunction, id, "%v", err))
		}
	}

	index := make(map[ir.FunctionID]uint32)
	for _, id := range p.order {
		if p.isEntryPointLocked(id) {
			index[id] = uint32(len(index))
		}
	}
	p.entryPoints = index
	p.finalized = true

	p.logger.Info("entry point index generated",
		"functions", len(p.order),
		"entry_points", len(index),
	)
}

// EntryPointsFinalized reports whether GenerateEntryPointIndex has run
// since the last change to the function set.
func (p *Program) EntryPointsFinalized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finalized
}

// EntryPointIndex returns the generated index of id. ok is false when id
// is not entry-capable.
//
// It panics with ErrCodeUninitializedEntryPointIndex if the index has not
// been generated.
func (p *Program) EntryPointIndex(id ir.FunctionID) (index uint32, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.finalized {
		panic(&InvariantError{
			Code:    ErrCodeUninitializedEntryPointIndex,
			Message: "entry point index read before GenerateEntryPointIndex",
		})
	}
	index, ok = p.entryPoints[id]
	return index, ok
}

// EntryPoints returns a copy of the finalized index.
// It panics like EntryPointIndex when the index has not been generated.
func (p *Program) EntryPoints() map[ir.FunctionID]uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.finalized {
		panic(&InvariantError{
			Code:    ErrCodeUninitializedEntryPointIndex,
			Message: "entry point index read before GenerateEntryPointIndex",
		})
	}
	out := make(map[ir.FunctionID]uint32, len(p.entryPoints))
	for k, v := range p.entryPoints {
		out[k] = v
	}
	return out
}

// SetUsedGlobals records the global values referenced by function fn.
// Values are resolved through the function's DataFlowGraph, deduplicated
// and sorted.
func (p *Program) SetUsedGlobals(fn ir.FunctionID, values []ir.ValueID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.functions[fn]
	if !ok {
		panic(newFunctionError(ErrCodeUnknownFunction, fn, "cannot record used globals"))
	}
	p.usedGlobals[fn] = normalizeGlobals(f.DFG(), values)
}

// UsedGlobals returns the sorted global values referenced by fn.
func (p *Program) UsedGlobals(fn ir.FunctionID) []ir.ValueID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.usedGlobals[fn])
}

func normalizeGlobals(dfg *ir.DataFlowGraph, values []ir.ValueID) []ir.ValueID {
	out := make([]ir.ValueID, 0, len(values))
	for _, v := range values {
		out = append(out, dfg.Resolve(v))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ErrorTypes returns a copy of the error selector metadata.
func (p *Program) ErrorTypes() map[ir.ErrorSelector]ErrorType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyErrorTypes(p.errorTypes)
}

// ErrorType returns the declared type for selector.
func (p *Program) ErrorType(selector ir.ErrorSelector) (ErrorType, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.errorTypes[selector]
	return t, ok
}

// SetErrorTypes replaces the error selector metadata. Error types are not
// persisted and must be supplied again after Unmarshal.
func (p *Program) SetErrorTypes(types map[ir.ErrorSelector]ErrorType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorTypes = copyErrorTypes(types)
}

func copyErrorTypes(types map[ir.ErrorSelector]ErrorType) map[ir.ErrorSelector]ErrorType {
	out := make(map[ir.ErrorSelector]ErrorType, len(types))
	for k, v := range types {
		out[k] = v
	}
	return out
}

// String renders every function in ascending id order, each followed by
// a newline.
func (p *Program) String() string {
	var sb strings.Builder
	for _, f := range p.Functions() {
		sb.WriteString(ir.Sprint(f))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Hash returns the content hash of the persisted form.
func (p *Program) Hash() (string, error) {
	canonical, err := ir.MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("program hash: %w", err)
	}
	return ir.HashWithDomain(ir.DomainProgram, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func (p *Program) MustHash() string {
	h, err := p.Hash()
	if err != nil {
		panic(err)
	}
	return h
}
