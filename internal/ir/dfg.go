package ir

import (
	"encoding/json"
	"fmt"
)

// DataFlowGraph owns every value, instruction and block of one function.
// It is the only mutation surface for a function's IR.
//
// Thread-safety: read-only queries (Resolve, Value, TypeOf, Block, ...)
// may run concurrently with each other. Nothing may run concurrently
// with a mutation.
type DataFlowGraph struct {
	values       []Value
	instructions []Instruction
	results      [][]ValueID // indexed by InstructionID
	blocks       []*BasicBlock

	// replaced maps an aliased value to its replacement. Chains are
	// followed by Resolve; entries never form a cycle.
	replaced map[ValueID]ValueID

	// Intern tables. Rebuilt from values on decode, never persisted.
	constants  map[constantKey]ValueID
	functions  map[FunctionID]ValueID
	intrinsics map[Intrinsic]ValueID
	foreign    map[string]ValueID
}

type constantKey struct {
	value string
	typ   NumericType
}

// NewDataFlowGraph creates an empty graph with no blocks.
func NewDataFlowGraph() *DataFlowGraph {
	return &DataFlowGraph{
		replaced:   make(map[ValueID]ValueID),
		constants:  make(map[constantKey]ValueID),
		functions:  make(map[FunctionID]ValueID),
		intrinsics: make(map[Intrinsic]ValueID),
		foreign:    make(map[string]ValueID),
	}
}

func (dfg *DataFlowGraph) pushValue(v Value) ValueID {
	id := ValueID(len(dfg.values))
	dfg.values = append(dfg.values, v)
	return id
}

// MakeBlock appends an empty block and returns its id.
func (dfg *DataFlowGraph) MakeBlock() BlockID {
	id := BlockID(len(dfg.blocks))
	dfg.blocks = append(dfg.blocks, &BasicBlock{})
	return id
}

// Block returns the block with the given id, or nil if it does not exist.
func (dfg *DataFlowGraph) Block(id BlockID) *BasicBlock {
	if int(id) >= len(dfg.blocks) {
		return nil
	}
	return dfg.blocks[id]
}

// HasBlock reports whether id names a block of this graph.
func (dfg *DataFlowGraph) HasBlock(id BlockID) bool {
	return int(id) < len(dfg.blocks)
}

// NumBlocks returns the number of blocks.
func (dfg *DataFlowGraph) NumBlocks() int { return len(dfg.blocks) }

// BlockIDs returns every block id in creation order.
func (dfg *DataFlowGraph) BlockIDs() []BlockID {
	ids := make([]BlockID, len(dfg.blocks))
	for i := range dfg.blocks {
		ids[i] = BlockID(i)
	}
	return ids
}

// AddBlockParameter appends a parameter of type t to block b.
func (dfg *DataFlowGraph) AddBlockParameter(b BlockID, t Type) ValueID {
	block := dfg.mustBlock(b)
	id := dfg.pushValue(Param{Block: b, Position: len(block.parameters), Typ: t})
	block.parameters = append(block.parameters, id)
	return id
}

// MakeInstruction records instr and creates one result value per entry
// of resultTypes. The instruction is not placed in any block.
func (dfg *DataFlowGraph) MakeInstruction(instr Instruction, resultTypes []Type) InstructionID {
	id := InstructionID(len(dfg.instructions))
	dfg.instructions = append(dfg.instructions, instr)

	results := make([]ValueID, len(resultTypes))
	for i, t := range resultTypes {
		results[i] = dfg.pushValue(InstructionResult{Instruction: id, Position: i, Typ: t})
	}
	dfg.results = append(dfg.results, results)
	return id
}

// InsertInstructionInBlock appends an existing instruction to block b.
func (dfg *DataFlowGraph) InsertInstructionInBlock(b BlockID, id InstructionID) {
	block := dfg.mustBlock(b)
	block.instructions = append(block.instructions, id)
}

// InsertInstructionAndResults records instr, appends it to block b and
// returns its id. Results are available via InstructionResults.
func (dfg *DataFlowGraph) InsertInstructionAndResults(instr Instruction, b BlockID, resultTypes []Type) InstructionID {
	dfg.mustBlock(b)
	id := dfg.MakeInstruction(instr, resultTypes)
	dfg.InsertInstructionInBlock(b, id)
	return id
}

// ReplaceInstruction swaps the instruction stored under id, keeping its
// results and block position.
func (dfg *DataFlowGraph) ReplaceInstruction(id InstructionID, instr Instruction) {
	dfg.mustInstruction(id)
	dfg.instructions[id] = instr
}

// Instruction returns the instruction stored under id.
func (dfg *DataFlowGraph) Instruction(id InstructionID) Instruction {
	dfg.mustInstruction(id)
	return dfg.instructions[id]
}

// InstructionResults returns the values produced by the instruction.
func (dfg *DataFlowGraph) InstructionResults(id InstructionID) []ValueID {
	dfg.mustInstruction(id)
	return dfg.results[id]
}

// NumInstructions returns the number of recorded instructions.
func (dfg *DataFlowGraph) NumInstructions() int { return len(dfg.instructions) }

// SetTerminator sets or replaces the terminator of block b.
func (dfg *DataFlowGraph) SetTerminator(b BlockID, t Terminator) {
	dfg.mustBlock(b).terminator = t
}

// MakeConstant returns the value for the numeric constant (c, t),
// reusing an existing value with the same constant and type.
func (dfg *DataFlowGraph) MakeConstant(c FieldElement, t NumericType) ValueID {
	key := constantKey{value: c.String(), typ: t}
	if id, ok := dfg.constants[key]; ok {
		return id
	}
	id := dfg.pushValue(NumericConstant{Constant: c, Typ: t})
	dfg.constants[key] = id
	return id
}

// MakeArray creates an array value. Arrays are not interned.
func (dfg *DataFlowGraph) MakeArray(elements []ValueID, t Type) ValueID {
	elems := make([]ValueID, len(elements))
	copy(elems, elements)
	return dfg.pushValue(ArrayValue{Elements: elems, Typ: t})
}

// ImportFunction returns the value referring to function id.
func (dfg *DataFlowGraph) ImportFunction(id FunctionID) ValueID {
	if v, ok := dfg.functions[id]; ok {
		return v
	}
	v := dfg.pushValue(FunctionRef{ID: id})
	dfg.functions[id] = v
	return v
}

// ImportIntrinsic returns the value referring to intrinsic k.
func (dfg *DataFlowGraph) ImportIntrinsic(k Intrinsic) ValueID {
	if v, ok := dfg.intrinsics[k]; ok {
		return v
	}
	v := dfg.pushValue(IntrinsicRef{Kind: k})
	dfg.intrinsics[k] = v
	return v
}

// ImportForeignFunction returns the value referring to the named
// foreign function.
func (dfg *DataFlowGraph) ImportForeignFunction(name string) ValueID {
	if v, ok := dfg.foreign[name]; ok {
		return v
	}
	v := dfg.pushValue(ForeignFunction{Name: name})
	dfg.foreign[name] = v
	return v
}

// SetValueFromID makes original resolve to replacement. The value table
// is left untouched so handles captured earlier stay valid inputs to
// Resolve.
func (dfg *DataFlowGraph) SetValueFromID(original, replacement ValueID) {
	dfg.mustValue(original)
	root := dfg.Resolve(replacement)
	if root == original || dfg.Resolve(original) == root {
		return
	}
	dfg.replaced[original] = root
}

// Resolve returns the canonical value for id. Resolve is idempotent and
// does not mutate the graph.
func (dfg *DataFlowGraph) Resolve(id ValueID) ValueID {
	for {
		next, ok := dfg.replaced[id]
		if !ok {
			return id
		}
		id = next
	}
}

// IsDefined reports whether id names a value of this graph.
func (dfg *DataFlowGraph) IsDefined(id ValueID) bool {
	return int(id) < len(dfg.values)
}

// Value returns the resolved value for id.
func (dfg *DataFlowGraph) Value(id ValueID) Value {
	id = dfg.Resolve(id)
	dfg.mustValue(id)
	return dfg.values[id]
}

// TypeOf returns the type of the resolved value.
func (dfg *DataFlowGraph) TypeOf(id ValueID) Type {
	return dfg.Value(id).Type()
}

// NumericConstant returns the constant behind id, if it is one.
func (dfg *DataFlowGraph) NumericConstant(id ValueID) (FieldElement, NumericType, bool) {
	c, ok := dfg.Value(id).(NumericConstant)
	if !ok {
		return FieldElement{}, NumericType{}, false
	}
	return c.Constant, c.Typ, true
}

// NumValues returns the size of the value table, aliases included.
func (dfg *DataFlowGraph) NumValues() int { return len(dfg.values) }

func (dfg *DataFlowGraph) mustBlock(b BlockID) *BasicBlock {
	if int(b) >= len(dfg.blocks) {
		panic(fmt.Sprintf("ir: unknown block %s", b))
	}
	return dfg.blocks[b]
}

func (dfg *DataFlowGraph) mustInstruction(id InstructionID) {
	if int(id) >= len(dfg.instructions) {
		panic(fmt.Sprintf("ir: unknown instruction %s", id))
	}
}

func (dfg *DataFlowGraph) mustValue(id ValueID) {
	if int(id) >= len(dfg.values) {
		panic(fmt.Sprintf("ir: unknown value %s", id))
	}
}

// dfgJSON is the wire form of a DataFlowGraph.
type dfgJSON struct {
	Values         []valueJSON         `json:"values"`
	Instructions   []instructionJSON   `json:"instructions"`
	Results        [][]ValueID         `json:"results"`
	Blocks         []blockJSON         `json:"blocks"`
	ReplacedValues map[ValueID]ValueID `json:"replaced_values,omitempty"`
}

// MarshalJSON implements json.Marshaler for DataFlowGraph.
func (dfg *DataFlowGraph) MarshalJSON() ([]byte, error) {
	out := dfgJSON{
		Values:       make([]valueJSON, len(dfg.values)),
		Instructions: make([]instructionJSON, len(dfg.instructions)),
		Results:      make([][]ValueID, len(dfg.results)),
		Blocks:       make([]blockJSON, len(dfg.blocks)),
	}
	for i, v := range dfg.values {
		out.Values[i] = encodeValue(v)
	}
	for i, instr := range dfg.instructions {
		out.Instructions[i] = encodeInstruction(instr)
	}
	for i, res := range dfg.results {
		out.Results[i] = append([]ValueID{}, res...)
	}
	for i, b := range dfg.blocks {
		out.Blocks[i] = encodeBlock(b)
	}
	if len(dfg.replaced) > 0 {
		out.ReplacedValues = make(map[ValueID]ValueID, len(dfg.replaced))
		for k, v := range dfg.replaced {
			out.ReplacedValues[k] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler for DataFlowGraph.
// Intern tables are rebuilt from the decoded value table.
func (dfg *DataFlowGraph) UnmarshalJSON(data []byte) error {
	var raw dfgJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dfg: %w", err)
	}
	if len(raw.Results) != len(raw.Instructions) {
		return fmt.Errorf("dfg: %d instructions but %d result lists", len(raw.Instructions), len(raw.Results))
	}

	out := NewDataFlowGraph()
	for i, rv := range raw.Values {
		v, err := decodeValue(rv)
		if err != nil {
			return fmt.Errorf("dfg: values[%d]: %w", i, err)
		}
		out.values = append(out.values, v)
	}
	for i, ri := range raw.Instructions {
		instr, err := decodeInstruction(ri)
		if err != nil {
			return fmt.Errorf("dfg: instructions[%d]: %w", i, err)
		}
		out.instructions = append(out.instructions, instr)
		out.results = append(out.results, append([]ValueID{}, raw.Results[i]...))
	}
	for i, rb := range raw.Blocks {
		b, err := decodeBlock(rb)
		if err != nil {
			return fmt.Errorf("dfg: blocks[%d]: %w", i, err)
		}
		out.blocks = append(out.blocks, b)
	}
	for k, v := range raw.ReplacedValues {
		out.replaced[k] = v
	}
	if err := out.checkReplacements(); err != nil {
		return fmt.Errorf("dfg: %w", err)
	}
	if err := out.checkArrays(); err != nil {
		return fmt.Errorf("dfg: %w", err)
	}
	out.rebuildInternTables()

	*dfg = *out
	return nil
}

// checkReplacements rejects aliases that leave the value table or form a
// cycle, so Resolve always terminates on decoded graphs.
func (dfg *DataFlowGraph) checkReplacements() error {
	for k, v := range dfg.replaced {
		if !dfg.IsDefined(k) || !dfg.IsDefined(v) {
			return fmt.Errorf("replaced value %s -> %s outside value table of %d", k, v, len(dfg.values))
		}
	}
	done := make(map[ValueID]bool, len(dfg.replaced))
	for start := range dfg.replaced {
		seen := map[ValueID]bool{}
		for id := start; !done[id]; {
			if seen[id] {
				return fmt.Errorf("replaced values form a cycle through %s", id)
			}
			seen[id] = true
			next, ok := dfg.replaced[id]
			if !ok {
				break
			}
			id = next
		}
		for id := range seen {
			done[id] = true
		}
	}
	return nil
}

// checkArrays rejects array elements outside the value table and arrays
// that contain themselves after resolution.
func (dfg *DataFlowGraph) checkArrays() error {
	const (
		visiting = 1
		finished = 2
	)
	state := make(map[ValueID]int)
	var visit func(id ValueID) error
	visit = func(id ValueID) error {
		id = dfg.Resolve(id)
		switch state[id] {
		case visiting:
			return fmt.Errorf("array %s contains itself", id)
		case finished:
			return nil
		}
		arr, ok := dfg.values[id].(ArrayValue)
		if !ok {
			state[id] = finished
			return nil
		}
		state[id] = visiting
		for _, e := range arr.Elements {
			if !dfg.IsDefined(e) {
				return fmt.Errorf("array %s: element %s is not defined", id, e)
			}
			if err := visit(e); err != nil {
				return err
			}
		}
		state[id] = finished
		return nil
	}
	for i := range dfg.values {
		if err := visit(ValueID(i)); err != nil {
			return err
		}
	}
	return nil
}

// rebuildInternTables indexes constants and imported references so that
// later Make*/Import* calls keep deduplicating after a decode.
func (dfg *DataFlowGraph) rebuildInternTables() {
	for i, v := range dfg.values {
		id := ValueID(i)
		if _, aliased := dfg.replaced[id]; aliased {
			continue
		}
		switch val := v.(type) {
		case NumericConstant:
			key := constantKey{value: val.Constant.String(), typ: val.Typ}
			if _, ok := dfg.constants[key]; !ok {
				dfg.constants[key] = id
			}
		case FunctionRef:
			if _, ok := dfg.functions[val.ID]; !ok {
				dfg.functions[val.ID] = id
			}
		case IntrinsicRef:
			if _, ok := dfg.intrinsics[val.Kind]; !ok {
				dfg.intrinsics[val.Kind] = id
			}
		case ForeignFunction:
			if _, ok := dfg.foreign[val.Name]; !ok {
				dfg.foreign[val.Name] = id
			}
		}
	}
}
