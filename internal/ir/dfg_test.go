package ir

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataFlowGraph_ConstantsAreInterned(t *testing.T) {
	dfg := NewDataFlowGraph()

	a := dfg.MakeConstant(FieldFromUint64(7), Field())
	b := dfg.MakeConstant(FieldFromUint64(7), Field())
	c := dfg.MakeConstant(FieldFromUint64(7), UnsignedType(8))

	assert.Equal(t, a, b, "same constant and type share a value")
	assert.NotEqual(t, a, c, "same constant with another type is distinct")
	assert.Equal(t, 2, dfg.NumValues())
}

func TestDataFlowGraph_ImportsAreInterned(t *testing.T) {
	dfg := NewDataFlowGraph()

	assert.Equal(t, dfg.ImportFunction(3), dfg.ImportFunction(3))
	assert.Equal(t, dfg.ImportIntrinsic(IntrinsicToLeBits), dfg.ImportIntrinsic(IntrinsicToLeBits))
	assert.Equal(t, dfg.ImportForeignFunction("print"), dfg.ImportForeignFunction("print"))
	assert.NotEqual(t, dfg.ImportFunction(3), dfg.ImportFunction(4))
	assert.Equal(t, 4, dfg.NumValues())
}

func TestDataFlowGraph_InstructionResults(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()
	p := dfg.AddBlockParameter(b0, Field())

	id := dfg.InsertInstructionAndResults(Binary{Lhs: p, Operator: Op(OpAdd), Rhs: p}, b0, []Type{Field()})
	results := dfg.InstructionResults(id)
	require.Len(t, results, 1)

	res, ok := dfg.Value(results[0]).(InstructionResult)
	require.True(t, ok)
	assert.Equal(t, id, res.Instruction)
	assert.Equal(t, 0, res.Position)
	assert.Equal(t, Field(), dfg.TypeOf(results[0]))
	assert.Equal(t, []InstructionID{id}, dfg.Block(b0).Instructions())
}

func TestDataFlowGraph_MakeInstructionLeavesBlocksAlone(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()

	id := dfg.MakeInstruction(Allocate{}, []Type{Reference{Element: Field()}})
	assert.Empty(t, dfg.Block(b0).Instructions())

	dfg.InsertInstructionInBlock(b0, id)
	assert.Equal(t, []InstructionID{id}, dfg.Block(b0).Instructions())
}

func TestDataFlowGraph_ReplaceInstructionKeepsResults(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()
	p := dfg.AddBlockParameter(b0, Field())
	id := dfg.InsertInstructionAndResults(Not{Value: p}, b0, []Type{Field()})
	before := dfg.InstructionResults(id)

	dfg.ReplaceInstruction(id, Cast{Value: p, Type: Field()})

	assert.Equal(t, Cast{Value: p, Type: Field()}, dfg.Instruction(id))
	assert.Equal(t, before, dfg.InstructionResults(id))
}

func TestDataFlowGraph_BlockParameters(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()
	b1 := dfg.MakeBlock()

	p0 := dfg.AddBlockParameter(b1, Field())
	p1 := dfg.AddBlockParameter(b1, Bool())

	assert.Empty(t, dfg.Block(b0).Parameters())
	assert.Equal(t, []ValueID{p0, p1}, dfg.Block(b1).Parameters())
	assert.Equal(t, Param{Block: b1, Position: 1, Typ: Bool()}, dfg.Value(p1))
	assert.Equal(t, []BlockID{b0, b1}, dfg.BlockIDs())
}

func TestDataFlowGraph_UnknownHandlesPanic(t *testing.T) {
	dfg := NewDataFlowGraph()

	assert.Nil(t, dfg.Block(9))
	assert.False(t, dfg.HasBlock(9))
	assert.False(t, dfg.IsDefined(0))
	assert.Panics(t, func() { dfg.AddBlockParameter(9, Field()) })
	assert.Panics(t, func() { dfg.Instruction(0) })
	assert.Panics(t, func() { dfg.Value(0) })
	assert.Panics(t, func() { dfg.SetTerminator(9, Return{}) })
}

func TestDataFlowGraph_SetValueFromID(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()
	a := dfg.AddBlockParameter(b0, Field())
	b := dfg.AddBlockParameter(b0, Field())
	c := dfg.AddBlockParameter(b0, Field())

	dfg.SetValueFromID(a, b)
	dfg.SetValueFromID(b, c)

	assert.Equal(t, c, dfg.Resolve(a), "chains resolve to the root")
	assert.Equal(t, c, dfg.Resolve(b))
	assert.Equal(t, c, dfg.Resolve(c))
	assert.Equal(t, dfg.Value(c), dfg.Value(a))

	// closing the loop is a no-op rather than a cycle
	dfg.SetValueFromID(c, a)
	assert.Equal(t, c, dfg.Resolve(a))
	assert.Equal(t, c, dfg.Resolve(c))
}

func TestDataFlowGraph_UnmarshalRejectsBrokenValueGraphs(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()
	v0 := dfg.AddBlockParameter(b0, Field())
	v1 := dfg.AddBlockParameter(b0, Field())
	arr := dfg.MakeArray([]ValueID{v0, v1}, Array{Elements: []Type{Field()}, Length: 2})
	dfg.SetTerminator(b0, Return{Values: []ValueID{arr}})

	valid, err := json.Marshal(dfg)
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(doc map[string]any)
		message string
	}{
		{"alias cycle", func(doc map[string]any) {
			doc["replaced_values"] = map[string]any{"0": 1, "1": 0}
		}, "replaced values form a cycle"},
		{"self alias", func(doc map[string]any) {
			doc["replaced_values"] = map[string]any{"1": 1}
		}, "replaced values form a cycle"},
		{"alias key out of range", func(doc map[string]any) {
			doc["replaced_values"] = map[string]any{"7": 0}
		}, "outside value table"},
		{"alias target out of range", func(doc map[string]any) {
			doc["replaced_values"] = map[string]any{"0": 7}
		}, "outside value table"},
		{"array contains itself", func(doc map[string]any) {
			doc["values"].([]any)[2].(map[string]any)["elements"] = []any{0, 2}
		}, "array v2 contains itself"},
		{"array contains itself through an alias", func(doc map[string]any) {
			doc["replaced_values"] = map[string]any{"1": 2}
		}, "array v2 contains itself"},
		{"array element undefined", func(doc map[string]any) {
			doc["values"].([]any)[2].(map[string]any)["elements"] = []any{0, 9}
		}, "element v9 is not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal(valid, &doc))
			tt.mutate(doc)
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			var decoded DataFlowGraph
			err = json.Unmarshal(data, &decoded)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("acyclic aliases decode", func(t *testing.T) {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(valid, &doc))
		doc["replaced_values"] = map[string]any{"0": 1}
		data, err := json.Marshal(doc)
		require.NoError(t, err)

		var decoded DataFlowGraph
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, v1, decoded.Resolve(v0))
		assert.Equal(t, "[v1, v1] of Field", decoded.DisplayValue(arr))
	})
}

func TestDataFlowGraph_NumericConstant(t *testing.T) {
	dfg := NewDataFlowGraph()
	b0 := dfg.MakeBlock()
	p := dfg.AddBlockParameter(b0, Field())
	k := dfg.MakeConstant(FieldFromUint64(42), UnsignedType(32))

	c, typ, ok := dfg.NumericConstant(k)
	require.True(t, ok)
	assert.True(t, c.Equal(FieldFromUint64(42)))
	assert.Equal(t, UnsignedType(32), typ)

	_, _, ok = dfg.NumericConstant(p)
	assert.False(t, ok)

	dfg.SetValueFromID(p, k)
	_, _, ok = dfg.NumericConstant(p)
	assert.True(t, ok, "constant lookup sees through aliases")
}

// TestDataFlowGraph_ResolveProperties checks that any sequence of aliasing
// operations leaves Resolve idempotent and acyclic.
func TestDataFlowGraph_ResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	const numValues = 16
	build := func(pairs []uint8) *DataFlowGraph {
		dfg := NewDataFlowGraph()
		b0 := dfg.MakeBlock()
		for i := 0; i < numValues; i++ {
			dfg.AddBlockParameter(b0, Field())
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			dfg.SetValueFromID(ValueID(pairs[i]%numValues), ValueID(pairs[i+1]%numValues))
		}
		return dfg
	}

	properties.Property("resolve is idempotent", prop.ForAll(
		func(pairs []uint8) bool {
			dfg := build(pairs)
			for i := 0; i < numValues; i++ {
				r := dfg.Resolve(ValueID(i))
				if dfg.Resolve(r) != r {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("aliasing never touches the value table", prop.ForAll(
		func(pairs []uint8) bool {
			return build(pairs).NumValues() == numValues
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("aliased values resolve together", prop.ForAll(
		func(pairs []uint8, a, b uint8) bool {
			dfg := build(pairs)
			x, y := ValueID(a%numValues), ValueID(b%numValues)
			dfg.SetValueFromID(x, y)
			return dfg.Resolve(x) == dfg.Resolve(y)
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
