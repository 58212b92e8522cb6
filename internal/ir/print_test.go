package ir

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insert appends instr to block b and returns its results.
func insert(f *Function, b BlockID, instr Instruction, types ...Type) []ValueID {
	id := f.DFG().InsertInstructionAndResults(instr, b, types)
	return f.DFG().InstructionResults(id)
}

// addMulFunction builds main computing (v0 + 1) * 3.
func addMulFunction() *Function {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	b0 := f.EntryBlock()

	v0 := dfg.AddBlockParameter(b0, Field())
	one := dfg.MakeConstant(FieldFromUint64(1), Field())
	three := dfg.MakeConstant(FieldFromUint64(3), Field())
	sum := insert(f, b0, Binary{Lhs: v0, Operator: Op(OpAdd), Rhs: one}, Field())[0]
	prod := insert(f, b0, Binary{Lhs: sum, Operator: Op(OpMul), Rhs: three}, Field())[0]
	dfg.SetTerminator(b0, Return{Values: []ValueID{prod}})
	return f
}

const addMulText = "acir(inline) fn main f0 {\n" +
	"  b0(v0: Field):\n" +
	"    v3 = add v0, Field 1\n" +
	"    v4 = mul v3, Field 3\n" +
	"    return v4\n" +
	"}"

func TestSprint_AddMul(t *testing.T) {
	f := addMulFunction()
	assert.Equal(t, addMulText, Sprint(f))
	assert.Equal(t, addMulText, f.String())

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, f))
	assert.Equal(t, addMulText, buf.String())
}

func TestSprint_CyclicBlocksPrintedOnce(t *testing.T) {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	b0 := f.EntryBlock()
	b1 := dfg.MakeBlock()
	dfg.SetTerminator(b0, Jump{Destination: b1})
	dfg.SetTerminator(b1, Jump{Destination: b0})

	expected := "acir(inline) fn main f0 {\n" +
		"  b0():\n" +
		"    jmp b1()\n" +
		"  b1():\n" +
		"    jmp b0()\n" +
		"}"
	assert.Equal(t, expected, Sprint(f))
}

func TestSprint_BranchOrder(t *testing.T) {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	b0 := f.EntryBlock()
	cond := dfg.AddBlockParameter(b0, Bool())
	b1 := dfg.MakeBlock()
	b2 := dfg.MakeBlock()
	b3 := dfg.MakeBlock()
	joined := dfg.AddBlockParameter(b3, Field())

	dfg.SetTerminator(b0, JumpIf{Condition: cond, ThenDestination: b2, ElseDestination: b1})
	dfg.SetTerminator(b1, Jump{Destination: b3, Arguments: []ValueID{dfg.MakeConstant(FieldFromUint64(1), Field())}})
	dfg.SetTerminator(b2, Jump{Destination: b3, Arguments: []ValueID{dfg.MakeConstant(FieldFromUint64(2), Field())}})
	dfg.SetTerminator(b3, Return{Values: []ValueID{joined}})

	// then-destination is walked first, b3 is reached through b2
	expected := "acir(inline) fn main f0 {\n" +
		"  b0(v0: u1):\n" +
		"    jmpif v0 then: b2, else: b1\n" +
		"  b2():\n" +
		"    jmp b3(Field 2)\n" +
		"  b3(v1: Field):\n" +
		"    return v1\n" +
		"  b1():\n" +
		"    jmp b3(Field 1)\n" +
		"}"
	assert.Equal(t, expected, Sprint(f))
}

func TestSprint_UnreachableBlocksOmitted(t *testing.T) {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	dfg.SetTerminator(f.EntryBlock(), Return{})
	orphan := dfg.MakeBlock()
	dfg.SetTerminator(orphan, Return{})

	assert.Equal(t, "acir(inline) fn main f0 {\n  b0():\n    return\n}", Sprint(f))
}

func TestSprint_MissingTerminator(t *testing.T) {
	f := NewFunction("main", 0)
	assert.Equal(t, "acir(inline) fn main f0 {\n  b0():\n    (no terminator instruction)\n}", Sprint(f))
}

func TestSprint_EveryInstruction(t *testing.T) {
	f := NewFunction("sink", 1)
	f.SetRuntime(BrilligRuntime(Inline))
	dfg := f.DFG()
	b0 := f.EntryBlock()
	arrType := Array{Elements: []Type{Field()}, Length: 2}
	u32 := UnsignedType(32)

	v0 := dfg.AddBlockParameter(b0, Field())
	v1 := dfg.AddBlockParameter(b0, u32)
	v2 := dfg.AddBlockParameter(b0, arrType)

	v3 := insert(f, b0, Allocate{}, Reference{Element: Field()})[0]
	insert(f, b0, Store{Address: v3, Value: v0})
	v4 := insert(f, b0, Load{Address: v3}, Field())[0]
	v5 := insert(f, b0, ArrayGet{Array: v2, Index: v1}, Field())[0]
	insert(f, b0, ArraySet{Array: v2, Index: v1, Value: v5, Mutable: true}, arrType)
	insert(f, b0, Cast{Value: v1, Type: Field()}, Field())
	insert(f, b0, Not{Value: v1}, u32)
	insert(f, b0, Truncate{Value: v0, BitSize: 32, MaxBitSize: 254}, Field())
	insert(f, b0, RangeCheck{Value: v1, MaxBitSize: 8})
	v10 := insert(f, b0, Binary{Lhs: v1, Operator: BinaryOp{Operator: OpAdd, Unchecked: true}, Rhs: v1}, u32)[0]
	v11 := insert(f, b0, Binary{Lhs: v1, Operator: Op(OpEq), Rhs: v10}, Bool())[0]
	insert(f, b0, EnableSideEffectsIf{Condition: v11})
	v12 := insert(f, b0, IfElse{ThenCondition: v11, ThenValue: v4, ElseCondition: v11, ElseValue: v5}, Field())[0]
	insert(f, b0, IncrementRc{Value: v2})
	insert(f, b0, DecrementRc{Value: v2})
	callee := dfg.ImportFunction(2)
	v14 := insert(f, b0, Call{Func: callee, Arguments: []ValueID{v0, v12}}, Field(), u32)[0]
	arrayLen := dfg.ImportIntrinsic(IntrinsicArrayLen)
	v17 := insert(f, b0, Call{Func: arrayLen, Arguments: []ValueID{v2}}, u32)[0]
	printer := dfg.ImportForeignFunction("print")
	insert(f, b0, Call{Func: printer, Arguments: []ValueID{v0}})
	dfg.SetTerminator(b0, Return{Values: []ValueID{v14, v17}})

	expected := "brillig(inline) fn sink f1 {\n" +
		"  b0(v0: Field, v1: u32, v2: [Field; 2]):\n" +
		"    v3 = allocate -> &mut Field\n" +
		"    store v0 at v3\n" +
		"    v4 = load v3 -> Field\n" +
		"    v5 = array_get v2, index v1 -> Field\n" +
		"    v6 = array_set mut v2, index v1, value v5\n" +
		"    v7 = cast v1 as Field\n" +
		"    v8 = not v1\n" +
		"    v9 = truncate v0 to 32 bits, max_bit_size: 254\n" +
		"    range_check v1 to 8 bits\n" +
		"    v10 = unchecked_add v1, v1\n" +
		"    v11 = eq v1, v10\n" +
		"    enable_side_effects v11\n" +
		"    v12 = if v11 then v4 else if v11 then v5\n" +
		"    inc_rc v2\n" +
		"    dec_rc v2\n" +
		"    v14, v15 = call f2(v0, v12) -> (Field, u32)\n" +
		"    v17 = call array_len(v2) -> u32\n" +
		"    call v18(v0)\n" +
		"    return v14, v17\n" +
		"}"
	assert.Equal(t, expected, Sprint(f))
}

func TestSprint_ResolvesAliases(t *testing.T) {
	f := addMulFunction()
	// v3 now stands for v0, so the mul reads the parameter directly
	f.DFG().SetValueFromID(3, 0)

	assert.Contains(t, Sprint(f), "    v4 = mul v0, Field 3\n")
}

func TestSprint_ArrayConstants(t *testing.T) {
	f := NewFunction("main", 0)
	dfg := f.DFG()
	b0 := f.EntryBlock()

	one := dfg.MakeConstant(FieldFromUint64(1), Field())
	two := dfg.MakeConstant(FieldFromUint64(2), UnsignedType(8))
	single := dfg.MakeArray([]ValueID{one, one}, Array{Elements: []Type{Field()}, Length: 2})
	tuple := dfg.MakeArray([]ValueID{one, two}, Slice{Elements: []Type{Field(), UnsignedType(8)}})
	dfg.SetTerminator(b0, Return{Values: []ValueID{single, tuple}})

	assert.Contains(t, Sprint(f), "    return [Field 1, Field 1] of Field, [Field 1, u8 2] of (Field, u8)\n")
}

func TestSprint_ConstrainErrors(t *testing.T) {
	badArray := func(f *Function) ValueID {
		dfg := f.DFG()
		elems := make([]ValueID, 0, 3)
		for _, c := range "bad" {
			elems = append(elems, dfg.MakeConstant(FieldFromUint64(uint64(c)), UnsignedType(8)))
		}
		return dfg.MakeArray(elems, Array{Elements: []Type{UnsignedType(8)}, Length: 3})
	}

	tests := []struct {
		name     string
		errFn    func(f *Function, param ValueID) ConstrainError
		expected string
	}{
		{
			name:     "no message",
			errFn:    func(*Function, ValueID) ConstrainError { return nil },
			expected: "    constrain v0 == Field 1\n",
		},
		{
			name:     "static message",
			errFn:    func(*Function, ValueID) ConstrainError { return StaticError{Message: "oops"} },
			expected: "    constrain v0 == Field 1 '\"oops\"'\n",
		},
		{
			name:     "static message with quotes",
			errFn:    func(*Function, ValueID) ConstrainError { return StaticError{Message: `say "hi"`} },
			expected: "    constrain v0 == Field 1 '\"say \\\"hi\\\"\"'\n",
		},
		{
			name:     "static message with control characters",
			errFn:    func(*Function, ValueID) ConstrainError { return StaticError{Message: "a\x01b\tc\n\x00"} },
			expected: `    constrain v0 == Field 1 '"a\u{1}b\tc\n\0"'` + "\n",
		},
		{
			name:     "static message keeps printable unicode",
			errFn:    func(*Function, ValueID) ConstrainError { return StaticError{Message: "caf\u00e9 \u00a0it's"} },
			expected: "    constrain v0 == Field 1 '\"caf\u00e9 \u00a0it's\"'\n",
		},
		{
			name:     "static message with leading combining mark",
			errFn:    func(*Function, ValueID) ConstrainError { return StaticError{Message: "\u0301x\u0301"} },
			expected: "    constrain v0 == Field 1 '\"\\u{301}x\u0301\"'\n",
		},
		{
			name: "dynamic string payload",
			errFn: func(f *Function, _ ValueID) ConstrainError {
				return DynamicError{Selector: StringErrorSelector, Values: []ValueID{badArray(f)}}
			},
			expected: "    constrain v0 == Field 1 'bad'\n",
		},
		{
			name: "dynamic payload with other selector",
			errFn: func(f *Function, param ValueID) ConstrainError {
				return DynamicError{Selector: 7, Values: []ValueID{param}}
			},
			expected: "    constrain v0 == Field 1, data v0\n",
		},
		{
			name: "dynamic payload not an array",
			errFn: func(f *Function, param ValueID) ConstrainError {
				return DynamicError{Selector: StringErrorSelector, Values: []ValueID{param, param}}
			},
			expected: "    constrain v0 == Field 1, data v0, v0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFunction("main", 0)
			dfg := f.DFG()
			b0 := f.EntryBlock()
			v0 := dfg.AddBlockParameter(b0, Field())
			one := dfg.MakeConstant(FieldFromUint64(1), Field())
			insert(f, b0, Constrain{Lhs: v0, Rhs: one, Error: tt.errFn(f, v0)})
			dfg.SetTerminator(b0, Return{})

			assert.Contains(t, Sprint(f), tt.expected)
		})
	}
}
