package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
)

func TestBuilder_AddMul(t *testing.T) {
	b := New("main", 0)
	v0 := b.AddParameter(ir.Field())
	one := b.FieldConstant(1)
	three := b.FieldConstant(3)
	sum := b.InsertBinary(v0, ir.Op(ir.OpAdd), one)
	prod := b.InsertBinary(sum, ir.Op(ir.OpMul), three)
	b.TerminateWithReturn(prod)

	p := b.Finish()
	expected := "acir(inline) fn main f0 {\n" +
		"  b0(v0: Field):\n" +
		"    v3 = add v0, Field 1\n" +
		"    v4 = mul v3, Field 3\n" +
		"    return v4\n" +
		"}\n"
	assert.Equal(t, expected, p.String())
}

func TestBuilder_ResultTypeInference(t *testing.T) {
	b := New("main", 0)
	u8 := ir.UnsignedType(8)
	x := b.AddParameter(u8)
	arr := b.AddParameter(ir.Array{Elements: []ir.Type{u8}, Length: 4})
	dfg := b.CurrentFunction().DFG()

	assert.Equal(t, u8, dfg.TypeOf(b.InsertBinary(x, ir.Op(ir.OpAdd), x)))
	assert.Equal(t, ir.Bool(), dfg.TypeOf(b.InsertBinary(x, ir.Op(ir.OpLt), x)))
	assert.Equal(t, ir.Bool(), dfg.TypeOf(b.InsertBinary(x, ir.Op(ir.OpEq), x)))
	assert.Equal(t, ir.Field(), dfg.TypeOf(b.InsertCast(x, ir.Field())))
	assert.Equal(t, u8, dfg.TypeOf(b.InsertNot(x)))
	assert.Equal(t, u8, dfg.TypeOf(b.InsertTruncate(x, 4, 8)))
	ref := b.InsertAllocate(u8)
	assert.Equal(t, ir.Reference{Element: u8}, dfg.TypeOf(ref))
	assert.Equal(t, u8, dfg.TypeOf(b.InsertLoad(ref, u8)))
	assert.Equal(t, u8, dfg.TypeOf(b.InsertArrayGet(arr, x, u8)))
	assert.Equal(t, dfg.TypeOf(arr), dfg.TypeOf(b.InsertArraySet(arr, x, x, false)))
	cond := b.InsertBinary(x, ir.Op(ir.OpEq), x)
	assert.Equal(t, u8, dfg.TypeOf(b.InsertIfElse(cond, x, cond, x)))
}

func TestBuilder_ZeroResultInstructions(t *testing.T) {
	b := New("main", 0)
	x := b.AddParameter(ir.Field())
	ref := b.InsertAllocate(ir.Field())
	b.InsertStore(ref, x)
	b.InsertConstrain(x, x, nil)
	b.InsertEnableSideEffectsIf(x)
	b.InsertIncrementRc(x)
	b.InsertDecrementRc(x)
	b.InsertRangeCheck(x, 8, "")
	b.TerminateWithReturn()

	dfg := b.CurrentFunction().DFG()
	instrs := dfg.Block(b.CurrentBlock()).Instructions()
	require.Len(t, instrs, 7)
	for _, id := range instrs[1:] {
		assert.Empty(t, dfg.InstructionResults(id), "%T has no results", dfg.Instruction(id))
	}
}

func TestBuilder_CallsAndImports(t *testing.T) {
	b := New("main", 0)
	x := b.AddParameter(ir.Field())
	helper := b.ImportFunction(1)
	results := b.InsertCall(helper, []ir.ValueID{x}, ir.Field(), ir.Bool())
	require.Len(t, results, 2)

	bits := b.InsertCall(b.ImportIntrinsic(ir.IntrinsicToLeBits), []ir.ValueID{x},
		ir.Array{Elements: []ir.Type{ir.Bool()}, Length: 254})
	require.Len(t, bits, 1)
	assert.Empty(t, b.InsertCall(b.ImportForeignFunction("print"), []ir.ValueID{x}))
	assert.Equal(t, helper, b.ImportFunction(1), "imports are interned")
	b.TerminateWithReturn(results[0])

	b.NewFunction("helper", 1, WithRuntime(ir.BrilligRuntime(ir.Inline)))
	y := b.AddParameter(ir.Field())
	b.TerminateWithReturn(y, b.NumericConstant(ir.FieldFromUint64(1), ir.Bool()))

	p := b.Finish()
	assert.Equal(t, "main", p.Main().Name())
	assert.Equal(t, ir.BrilligRuntime(ir.Inline), p.Function(1).Runtime())
	assert.Contains(t, p.String(), "    v2, v3 = call f1(v0) -> (Field, u1)\n")
	assert.Contains(t, p.String(), "    v5 = call to_le_bits(v0) -> [u1; 254]\n")
	assert.Contains(t, p.String(), "    call v6(v0)\n")
}

func TestBuilder_Blocks(t *testing.T) {
	b := New("main", 0)
	cond := b.AddParameter(ir.Bool())
	then := b.InsertBlock()
	otherwise := b.InsertBlock()
	join := b.InsertBlock()
	joined := b.AddBlockParameter(join, ir.Field())
	assert.Equal(t, b.CurrentFunction().EntryBlock(), b.CurrentBlock(), "InsertBlock keeps the cursor")

	b.TerminateWithJmpIf(cond, then, otherwise)
	b.SwitchToBlock(then)
	b.TerminateWithJmp(join, b.FieldConstant(1))
	b.SwitchToBlock(otherwise)
	b.TerminateWithJmp(join, b.FieldConstant(2))
	b.SwitchToBlock(join)
	b.TerminateWithReturn(joined)

	assert.NoError(t, b.CurrentFunction().CheckComplete())
	assert.Panics(t, func() { b.SwitchToBlock(42) })
}

func TestBuilder_ArrayConstantAndErrors(t *testing.T) {
	b := New("main", 0)
	x := b.AddParameter(ir.Field())
	u8 := ir.UnsignedType(8)
	msg := b.ArrayConstant([]ir.ValueID{
		b.NumericConstant(ir.FieldFromUint64('n'), u8),
		b.NumericConstant(ir.FieldFromUint64('o'), u8),
	}, ir.Array{Elements: []ir.Type{u8}, Length: 2})
	b.InsertConstrain(x, b.FieldConstant(0), ir.DynamicError{Selector: ir.StringErrorSelector, Values: []ir.ValueID{msg}})
	b.TerminateWithReturn()
	b.SetErrorTypes(map[ir.ErrorSelector]program.ErrorType{ir.StringErrorSelector: "str<2>"})

	p := b.Finish()
	assert.Contains(t, p.String(), "    constrain v0 == Field 0 'no'\n")
	et, ok := p.ErrorType(ir.StringErrorSelector)
	assert.True(t, ok)
	assert.Equal(t, program.ErrorType("str<2>"), et)
}
