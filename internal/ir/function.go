package ir

import (
	"encoding/json"
	"fmt"
)

// RuntimeKind says which backend a function is compiled for.
type RuntimeKind uint8

const (
	ACIR RuntimeKind = iota
	Brillig
)

// InlineType controls how a function is treated by inlining and whether
// it becomes a separate program entry point.
type InlineType uint8

const (
	Inline InlineType = iota
	InlineAlways
	Fold
	NoPredicates
)

var inlineTypeNames = map[InlineType]string{
	Inline:       "inline",
	InlineAlways: "inline_always",
	Fold:         "fold",
	NoPredicates: "no_predicates",
}

// RuntimeType is the runtime classification of a function.
type RuntimeType struct {
	Kind   RuntimeKind
	Inline InlineType
}

// ACIRRuntime returns an ACIR runtime with the given inline type.
func ACIRRuntime(inline InlineType) RuntimeType { return RuntimeType{Kind: ACIR, Inline: inline} }

// BrilligRuntime returns a Brillig runtime with the given inline type.
func BrilligRuntime(inline InlineType) RuntimeType { return RuntimeType{Kind: Brillig, Inline: inline} }

// IsEntryPoint reports whether functions of this runtime are entry
// capable. ACIR functions are entry points only when folded; Brillig
// functions always are.
func (r RuntimeType) IsEntryPoint() bool {
	if r.Kind == Brillig {
		return true
	}
	return r.Inline == Fold
}

// String renders the runtime tag, e.g. "acir(inline)".
func (r RuntimeType) String() string {
	kind := "acir"
	if r.Kind == Brillig {
		kind = "brillig"
	}
	return fmt.Sprintf("%s(%s)", kind, inlineTypeNames[r.Inline])
}

// ParseRuntimeType is the inverse of RuntimeType.String.
func ParseRuntimeType(s string) (RuntimeType, error) {
	for _, kind := range []RuntimeKind{ACIR, Brillig} {
		for inline := range inlineTypeNames {
			r := RuntimeType{Kind: kind, Inline: inline}
			if r.String() == s {
				return r, nil
			}
		}
	}
	return RuntimeType{}, fmt.Errorf("unknown runtime %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r RuntimeType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RuntimeType) UnmarshalText(data []byte) error {
	parsed, err := ParseRuntimeType(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Function is one SSA function: identity, runtime, entry block and the
// DataFlowGraph that owns its IR.
type Function struct {
	id         FunctionID
	name       string
	runtime    RuntimeType
	entryBlock BlockID
	dfg        *DataFlowGraph
}

// NewFunction creates a function with an empty entry block and the
// default acir(inline) runtime.
func NewFunction(name string, id FunctionID) *Function {
	dfg := NewDataFlowGraph()
	entry := dfg.MakeBlock()
	return &Function{
		id:         id,
		name:       name,
		runtime:    ACIRRuntime(Inline),
		entryBlock: entry,
		dfg:        dfg,
	}
}

func (f *Function) ID() FunctionID       { return f.id }
func (f *Function) Name() string         { return f.name }
func (f *Function) Runtime() RuntimeType { return f.runtime }
func (f *Function) EntryBlock() BlockID  { return f.entryBlock }
func (f *Function) DFG() *DataFlowGraph  { return f.dfg }

// SetRuntime changes the runtime classification.
func (f *Function) SetRuntime(r RuntimeType) { f.runtime = r }

// Parameters returns the entry block parameters.
func (f *Function) Parameters() []ValueID {
	return f.dfg.Block(f.entryBlock).Parameters()
}

// ReachableBlocks returns the blocks reachable from the entry block in
// depth-first preorder, each exactly once.
func (f *Function) ReachableBlocks() []BlockID {
	var order []BlockID
	visited := make(map[BlockID]bool)

	var visit func(BlockID)
	visit = func(b BlockID) {
		order = append(order, b)
		visited[b] = true
		block := f.dfg.Block(b)
		if block == nil {
			return
		}
		for _, succ := range block.Successors() {
			if !visited[succ] {
				visit(succ)
			}
		}
	}
	visit(f.entryBlock)
	return order
}

// CheckComplete returns an error naming the first reachable block that
// has no terminator or does not exist.
func (f *Function) CheckComplete() error {
	for _, b := range f.ReachableBlocks() {
		block := f.dfg.Block(b)
		if block == nil {
			return fmt.Errorf("function %s %s: block %s does not exist", f.name, f.id, b)
		}
		if block.Terminator() == nil {
			return fmt.Errorf("function %s %s: block %s has no terminator", f.name, f.id, b)
		}
	}
	return nil
}

type functionJSON struct {
	ID         FunctionID     `json:"id"`
	Name       string         `json:"name"`
	Runtime    RuntimeType    `json:"runtime"`
	EntryBlock BlockID        `json:"entry_block"`
	DFG        *DataFlowGraph `json:"dfg"`
}

// MarshalJSON implements json.Marshaler for Function.
func (f *Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(functionJSON{
		ID:         f.id,
		Name:       f.name,
		Runtime:    f.runtime,
		EntryBlock: f.entryBlock,
		DFG:        f.dfg,
	})
}

// UnmarshalJSON implements json.Unmarshaler for Function.
func (f *Function) UnmarshalJSON(data []byte) error {
	raw := functionJSON{DFG: NewDataFlowGraph()}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("function: %w", err)
	}
	if !raw.DFG.HasBlock(raw.EntryBlock) {
		return fmt.Errorf("function %s: entry block %s does not exist", raw.Name, raw.EntryBlock)
	}
	*f = Function{
		id:         raw.ID,
		name:       raw.Name,
		runtime:    raw.Runtime,
		entryBlock: raw.EntryBlock,
		dfg:        raw.DFG,
	}
	return nil
}
