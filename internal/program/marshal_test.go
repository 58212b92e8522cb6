package program

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zkssa/internal/ir"
)

// addMul builds main computing (v0 + 1) * 3.
func addMul(id ir.FunctionID) *ir.Function {
	f := ir.NewFunction("main", id)
	dfg := f.DFG()
	b0 := f.EntryBlock()
	v0 := dfg.AddBlockParameter(b0, ir.Field())
	one := dfg.MakeConstant(ir.FieldFromUint64(1), ir.Field())
	three := dfg.MakeConstant(ir.FieldFromUint64(3), ir.Field())
	add := dfg.InsertInstructionAndResults(ir.Binary{Lhs: v0, Operator: ir.Op(ir.OpAdd), Rhs: one}, b0, []ir.Type{ir.Field()})
	sum := dfg.InstructionResults(add)[0]
	mul := dfg.InsertInstructionAndResults(ir.Binary{Lhs: sum, Operator: ir.Op(ir.OpMul), Rhs: three}, b0, []ir.Type{ir.Field()})
	dfg.SetTerminator(b0, ir.Return{Values: dfg.InstructionResults(mul)})
	return f
}

func TestMarshal_RoundTripRendersIdentically(t *testing.T) {
	p := New([]*ir.Function{addMul(0)})
	expected := "acir(inline) fn main f0 {\n" +
		"  b0(v0: Field):\n" +
		"    v3 = add v0, Field 1\n" +
		"    v4 = mul v3, Field 3\n" +
		"    return v4\n" +
		"}\n"
	require.Equal(t, expected, p.String())

	data, err := Marshal(p)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, expected, decoded.String())
	assert.Equal(t, p.MustHash(), decoded.MustHash())
}

func TestMarshal_PersistsOnlyFunctionsGlobalsAndMain(t *testing.T) {
	p := New([]*ir.Function{acir("main", 2), returning("entry", 0, ir.ACIRRuntime(ir.Fold))},
		WithErrorTypes(map[ir.ErrorSelector]ErrorType{1: "str<2>"}))
	p.SetUsedGlobals(2, []ir.ValueID{})
	p.GenerateEntryPointIndex()

	data, err := Marshal(p)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.ElementsMatch(t, []string{"main_id", "functions", "used_globals"}, keysOf(fields))

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, ir.FunctionID(2), decoded.MainID())
	assert.Equal(t, []ir.FunctionID{0, 2}, decoded.FunctionIDs())
	assert.False(t, decoded.EntryPointsFinalized(), "entry point index must be regenerated")
	assert.Empty(t, decoded.ErrorTypes(), "error types are not persisted")
	assert.Equal(t, ir.FunctionID(3), decoded.Counter().Next(), "counter is reseeded past the largest id")

	requireInvariantPanic(t, ErrCodeUninitializedEntryPointIndex, func() { decoded.EntryPointIndex(0) })
	decoded.GenerateEntryPointIndex()
	assert.Equal(t, p.EntryPoints(), decoded.EntryPoints())
}

func TestUnmarshal_ErrorTypesOption(t *testing.T) {
	data, err := Marshal(New([]*ir.Function{acir("main", 0)}))
	require.NoError(t, err)

	decoded, err := Unmarshal(data, WithErrorTypes(map[ir.ErrorSelector]ErrorType{0: "str<3>"}))
	require.NoError(t, err)
	got, ok := decoded.ErrorType(0)
	assert.True(t, ok)
	assert.Equal(t, ErrorType("str<3>"), got)
}

func TestMarshal_UsedGlobalsSurvive(t *testing.T) {
	main := acir("main", 0)
	g := main.DFG().MakeConstant(ir.FieldFromUint64(7), ir.Field())
	p := New([]*ir.Function{main})
	p.SetUsedGlobals(0, []ir.ValueID{g})

	data, err := Marshal(p)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []ir.ValueID{g}, decoded.UsedGlobals(0))
}

func TestUnmarshal_SchemaViolations(t *testing.T) {
	valid, err := Marshal(New([]*ir.Function{acir("main", 0)}))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{"missing main_id", func(doc map[string]any) { delete(doc, "main_id") }},
		{"negative main_id", func(doc map[string]any) { doc["main_id"] = -1 }},
		{"no functions", func(doc map[string]any) { doc["functions"] = []any{} }},
		{"bad runtime", func(doc map[string]any) {
			fn(doc)["runtime"] = "wasm(inline)"
		}},
		{"empty name", func(doc map[string]any) { fn(doc)["name"] = "" }},
		{"unknown instruction op", func(doc map[string]any) {
			dfg := fn(doc)["dfg"].(map[string]any)
			dfg["instructions"] = []any{map[string]any{"op": "jump_table", "args": []any{}}}
			dfg["results"] = []any{[]any{}}
		}},
		{"unknown value kind", func(doc map[string]any) {
			dfg := fn(doc)["dfg"].(map[string]any)
			dfg["values"] = []any{map[string]any{"kind": "global"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal(valid, &doc))
			tt.mutate(doc)
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = Unmarshal(data)
			require.Error(t, err)
			var se *SchemaError
			assert.True(t, errors.As(err, &se), "want *SchemaError, got %v", err)
		})
	}
}

func TestUnmarshal_StructuralErrors(t *testing.T) {
	valid, err := Marshal(New([]*ir.Function{addMul(0), acir("other", 1)}))
	require.NoError(t, err)

	mainDFG := func(doc map[string]any) map[string]any {
		return doc["functions"].([]any)[0].(map[string]any)["dfg"].(map[string]any)
	}

	tests := []struct {
		name    string
		mutate  func(doc map[string]any)
		message string
	}{
		{"main missing", func(doc map[string]any) { doc["main_id"] = 9 }, "main function f9 is missing"},
		{"duplicate function", func(doc map[string]any) {
			fns := doc["functions"].([]any)
			fns[1].(map[string]any)["id"] = 0
		}, "appears twice"},
		{"globals for unknown function", func(doc map[string]any) {
			doc["used_globals"] = map[string]any{"4": []any{}}
		}, "unknown function f4"},
		{"replaced values cycle", func(doc map[string]any) {
			mainDFG(doc)["replaced_values"] = map[string]any{"0": 1, "1": 0}
		}, "replaced values form a cycle"},
		{"replaced value out of range", func(doc map[string]any) {
			mainDFG(doc)["replaced_values"] = map[string]any{"0": 42}
		}, "outside value table"},
		{"array contains itself", func(doc map[string]any) {
			mainDFG(doc)["values"].([]any)[1] = map[string]any{
				"kind":     "array",
				"type":     map[string]any{"kind": "array", "elements": []any{map[string]any{"kind": "numeric", "numeric": "field"}}, "length": 1},
				"elements": []any{1},
			}
		}, "array v1 contains itself"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal(valid, &doc))
			tt.mutate(doc)
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = Unmarshal(data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateSchema_AcceptsMarshalOutput(t *testing.T) {
	p := New([]*ir.Function{addMul(0), returning("brillig", 1, ir.BrilligRuntime(ir.InlineAlways))})
	data, err := Marshal(p)
	require.NoError(t, err)
	assert.NoError(t, ValidateSchema(data))
}

func TestHash_ChangesWithContent(t *testing.T) {
	a := New([]*ir.Function{addMul(0)})
	b := New([]*ir.Function{addMul(0)})
	assert.Equal(t, a.MustHash(), b.MustHash())

	b.AddFunction(func(id ir.FunctionID) *ir.Function { return acir("extra", id) })
	assert.NotEqual(t, a.MustHash(), b.MustHash())

	// finalize state and error types are not part of the identity
	a.GenerateEntryPointIndex()
	a.SetErrorTypes(map[ir.ErrorSelector]ErrorType{0: "str<1>"})
	assert.Equal(t, New([]*ir.Function{addMul(0)}).MustHash(), a.MustHash())
}

func fn(doc map[string]any) map[string]any {
	return doc["functions"].([]any)[0].(map[string]any)
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
