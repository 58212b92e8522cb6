// Package testutil provides deterministic fixture programs for tests.
//
// Every fixture is built through the builder, so value, block and
// function ids are the same on every call and renderings can be
// compared byte for byte.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/zkssa/internal/builder"
	"github.com/roach88/zkssa/internal/ir"
	"github.com/roach88/zkssa/internal/program"
)

// AddMulText is the rendering of AddMul.
const AddMulText = "acir(inline) fn main f0 {\n" +
	"  b0(v0: Field):\n" +
	"    v3 = add v0, Field 1\n" +
	"    v4 = mul v3, Field 3\n" +
	"    return v4\n" +
	"}\n"

// AddMul returns a single ACIR function computing (v0 + 1) * 3.
func AddMul() *program.Program {
	b := builder.New("main", 0)
	v0 := b.AddParameter(ir.Field())
	one := b.FieldConstant(1)
	three := b.FieldConstant(3)
	sum := b.InsertBinary(v0, ir.Op(ir.OpAdd), one)
	b.TerminateWithReturn(b.InsertBinary(sum, ir.Op(ir.OpMul), three))
	return b.Finish()
}

// CountedLoop returns main f0, which counts a u32 from 0 to 10 in the
// loop b1 -> b2 -> b1 and exits through b3, plus an empty Brillig
// function f1 named "helper".
func CountedLoop() *program.Program {
	u32 := ir.UnsignedType(32)
	b := builder.New("main", 0)
	header := b.InsertBlock()
	body := b.InsertBlock()
	exit := b.InsertBlock()
	i := b.AddBlockParameter(header, u32)
	b.TerminateWithJmp(header, b.NumericConstant(ir.FieldFromUint64(0), u32))

	b.SwitchToBlock(header)
	cond := b.InsertBinary(i, ir.Op(ir.OpLt), b.NumericConstant(ir.FieldFromUint64(10), u32))
	b.TerminateWithJmpIf(cond, body, exit)

	b.SwitchToBlock(body)
	b.TerminateWithJmp(header, b.InsertBinary(i, ir.Op(ir.OpAdd), b.NumericConstant(ir.FieldFromUint64(1), u32)))

	b.SwitchToBlock(exit)
	b.TerminateWithReturn()

	b.NewFunction("helper", 1, builder.WithRuntime(ir.BrilligRuntime(ir.Inline)))
	b.TerminateWithReturn()
	return b.Finish()
}

// Unterminated returns main f0 whose entry jumps to a b1 that has no
// terminator.
func Unterminated() *program.Program {
	b := builder.New("main", 0)
	next := b.InsertBlock()
	b.TerminateWithJmp(next)
	return b.Finish()
}

// WriteProgram persists p into a fresh temp dir and returns the file path.
func WriteProgram(t *testing.T, p *program.Program) string {
	t.Helper()
	data, err := program.Marshal(p)
	if err != nil {
		t.Fatalf("marshal program: %v", err)
	}
	path := filepath.Join(t.TempDir(), "program.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	return path
}
