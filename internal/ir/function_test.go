package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeType_String(t *testing.T) {
	tests := []struct {
		runtime  RuntimeType
		expected string
		entry    bool
	}{
		{ACIRRuntime(Inline), "acir(inline)", false},
		{ACIRRuntime(InlineAlways), "acir(inline_always)", false},
		{ACIRRuntime(Fold), "acir(fold)", true},
		{ACIRRuntime(NoPredicates), "acir(no_predicates)", false},
		{BrilligRuntime(Inline), "brillig(inline)", true},
		{BrilligRuntime(InlineAlways), "brillig(inline_always)", true},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.runtime.String())
			assert.Equal(t, tt.entry, tt.runtime.IsEntryPoint())

			parsed, err := ParseRuntimeType(tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.runtime, parsed)
		})
	}
}

func TestParseRuntimeType_Unknown(t *testing.T) {
	_, err := ParseRuntimeType("wasm(inline)")
	assert.Error(t, err)
}

func TestNewFunction_Defaults(t *testing.T) {
	f := NewFunction("helper", 4)

	assert.Equal(t, FunctionID(4), f.ID())
	assert.Equal(t, "helper", f.Name())
	assert.Equal(t, ACIRRuntime(Inline), f.Runtime())
	assert.Equal(t, BlockID(0), f.EntryBlock())
	assert.Equal(t, 1, f.DFG().NumBlocks())
	assert.Empty(t, f.Parameters())
}

func TestFunction_ReachableBlocks(t *testing.T) {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	b0 := f.EntryBlock()
	b1 := dfg.MakeBlock()
	b2 := dfg.MakeBlock()
	dfg.MakeBlock() // unreachable
	cond := dfg.AddBlockParameter(b0, Bool())

	dfg.SetTerminator(b0, JumpIf{Condition: cond, ThenDestination: b1, ElseDestination: b2})
	dfg.SetTerminator(b1, Jump{Destination: b0, Arguments: []ValueID{cond}})
	dfg.SetTerminator(b2, Return{})

	assert.Equal(t, []BlockID{b0, b1, b2}, f.ReachableBlocks())
}

func TestFunction_CheckComplete(t *testing.T) {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	b1 := dfg.MakeBlock()
	dfg.SetTerminator(f.EntryBlock(), Jump{Destination: b1})

	err := f.CheckComplete()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b1 has no terminator")

	dfg.SetTerminator(b1, Return{})
	assert.NoError(t, f.CheckComplete())
}

func TestFunction_CheckCompleteDanglingJump(t *testing.T) {
	f := NewFunction("main", 0)
	f.DFG().SetTerminator(f.EntryBlock(), Jump{Destination: 7})

	err := f.CheckComplete()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b7 does not exist")
}

func TestFunction_JSONRoundTripRendersIdentically(t *testing.T) {
	f := addMulFunction()
	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded Function
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, addMulText, Sprint(&decoded))
	assert.Equal(t, MustFunctionHash(f), MustFunctionHash(&decoded))
}

func TestFunction_JSONRoundTripEveryShape(t *testing.T) {
	f := NewFunction("shapes", 3)
	f.SetRuntime(BrilligRuntime(Fold))
	dfg := f.DFG()
	b0 := f.EntryBlock()
	b1 := dfg.MakeBlock()
	arrType := Array{Elements: []Type{Field(), SignedType(16)}, Length: 1}

	v0 := dfg.AddBlockParameter(b0, Field())
	flag := dfg.AddBlockParameter(b0, Bool())
	arr := dfg.AddBlockParameter(b0, arrType)
	slice := dfg.AddBlockParameter(b0, Slice{Elements: []Type{Field()}})
	big := dfg.MakeConstant(MustFieldFromDecimal("123456789012345678901234567890"), Field())
	msg := stringPayload(dfg, FieldFromUint64('n'), FieldFromUint64('o'))

	insert(f, b0, Constrain{Lhs: v0, Rhs: big, Error: StaticError{Message: "static"}})
	insert(f, b0, Constrain{Lhs: v0, Rhs: big, Error: DynamicError{Selector: StringErrorSelector, Values: []ValueID{msg}}})
	insert(f, b0, Constrain{Lhs: v0, Rhs: big, Error: DynamicError{Selector: 9, Values: []ValueID{v0, flag}}})
	insert(f, b0, RangeCheck{Value: v0, MaxBitSize: 16, AssertMessage: "too big"})
	insert(f, b0, ArraySet{Array: arr, Index: big, Value: v0}, arrType)
	insert(f, b0, Cast{Value: flag, Type: SignedType(16)}, SignedType(16))
	insert(f, b0, Call{Func: dfg.ImportIntrinsic(IntrinsicAsSlice), Arguments: []ValueID{arr}}, UnsignedType(32), Slice{Elements: []Type{Field()}})
	insert(f, b0, Call{Func: dfg.ImportForeignFunction("print"), Arguments: nil})
	dfg.SetTerminator(b0, JumpIf{Condition: flag, ThenDestination: b1, ElseDestination: b1})
	dfg.SetTerminator(b1, Return{Values: []ValueID{v0, slice}})
	dfg.SetValueFromID(slice, arr)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded Function
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Sprint(f), Sprint(&decoded))
	assert.Equal(t, f.Runtime(), decoded.Runtime())
	assert.Equal(t, MustFunctionHash(f), MustFunctionHash(&decoded))

	// intern tables survive decoding
	assert.Equal(t, big, decoded.DFG().MakeConstant(MustFieldFromDecimal("123456789012345678901234567890"), Field()))
	assert.Equal(t, dfg.ImportForeignFunction("print"), decoded.DFG().ImportForeignFunction("print"))
}

func TestFunction_UnmarshalRejectsMissingEntryBlock(t *testing.T) {
	raw := `{"id":0,"name":"main","runtime":"acir(inline)","entry_block":3,
		"dfg":{"values":[],"instructions":[],"results":[],"blocks":[]}}`

	var f Function
	err := json.Unmarshal([]byte(raw), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry block b3 does not exist")
}

func TestFunction_UnmarshalRejectsBadInstruction(t *testing.T) {
	tests := []struct {
		name  string
		instr string
	}{
		{"unknown op", `{"op":"jump_table","args":[]}`},
		{"wrong arity", `{"op":"not","args":[0,0]}`},
		{"unknown operator", `{"op":"binary","operator":"pow","args":[0,0]}`},
		{"call without callee", `{"op":"call","args":[]}`},
		{"cast without type", `{"op":"cast","args":[0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"id":0,"name":"main","runtime":"acir(inline)","entry_block":0,
				"dfg":{"values":[],"instructions":[` + tt.instr + `],"results":[[]],"blocks":[{"parameters":[],"instructions":[]}]}}`
			var f Function
			assert.Error(t, json.Unmarshal([]byte(raw), &f))
		})
	}
}
