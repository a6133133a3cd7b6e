package vm

import (
	"math"
	"strings"
	"testing"

	"github.com/pl0dash/plzero/lang/codegen"
	"github.com/pl0dash/plzero/lang/symtab"
	"github.com/stretchr/testify/require"
)

func newProgram(t *testing.T) (*codegen.Program, *symtab.Table) {
	t.Helper()
	tb := symtab.New()
	tb.BlockBegin(symtab.FirstAddr)
	return codegen.New(tb), tb
}

func TestRunArithmeticAndWrite(t *testing.T) {
	p, tb := newProgram(t)
	j := p.EmitValue(codegen.Jmp, 0)
	p.BackPatch(j)
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitValue(codegen.Lit, 2)
	p.EmitValue(codegen.Lit, 3)
	p.EmitOperator(codegen.Mul)
	p.EmitOperator(codegen.Wrt)
	p.EmitReturn()

	var out strings.Builder
	Machine{}.Run(p, &out)
	require.Equal(t, "6", out.String())
}

func TestRunLoadStoreVariable(t *testing.T) {
	p, tb := newProgram(t)
	x := tb.EnterVar("x")
	j := p.EmitValue(codegen.Jmp, 0)
	p.BackPatch(j)
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitValue(codegen.Lit, 41)
	p.EmitAddr(codegen.Sto, x)
	p.EmitAddr(codegen.Lod, x)
	p.EmitValue(codegen.Lit, 1)
	p.EmitOperator(codegen.Add)
	p.EmitOperator(codegen.Wrt)
	p.EmitReturn()

	var out strings.Builder
	Machine{}.Run(p, &out)
	require.Equal(t, "42", out.String())
}

func TestRunJpcSkipsOnFalse(t *testing.T) {
	p, tb := newProgram(t)
	j := p.EmitValue(codegen.Jmp, 0)
	p.BackPatch(j)
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitValue(codegen.Lit, 0) // false condition
	jpc := p.EmitValue(codegen.Jpc, 0)
	p.EmitValue(codegen.Lit, 99)
	p.EmitOperator(codegen.Wrt)
	p.BackPatch(jpc)
	p.EmitValue(codegen.Lit, 7)
	p.EmitOperator(codegen.Wrt)
	p.EmitReturn()

	var out strings.Builder
	Machine{}.Run(p, &out)
	require.Equal(t, "7", out.String())
}

// TestRunCallReturnsValue exercises a function of one parameter that
// doubles it, called from main with Cal/Ret, matching the frame layout
// symtab assigns: the callee's parameter sits at a negative offset below
// its own frame base, and Ret drops it once the call unwinds.
func TestRunCallReturnsValue(t *testing.T) {
	tb := symtab.New()
	tb.BlockBegin(symtab.FirstAddr)
	p := codegen.New(tb)

	mainJ := p.EmitValue(codegen.Jmp, 0)

	f := tb.EnterFunc("f", p.NextIndex())
	tb.BlockBegin(symtab.FirstAddr)
	a := tb.EnterPar("a")
	tb.EndPar()
	tb.ChangeEntryAddr(f, p.NextIndex())
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitAddr(codegen.Lod, a)
	p.EmitValue(codegen.Lit, 2)
	p.EmitOperator(codegen.Mul)
	p.EmitReturn()
	tb.BlockEnd()

	p.BackPatch(mainJ)
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitValue(codegen.Lit, 20)
	p.EmitAddr(codegen.Cal, f)
	p.EmitOperator(codegen.Wrt)
	p.EmitReturn()

	var out strings.Builder
	Machine{}.Run(p, &out)
	require.Equal(t, "40", out.String())
}

func TestRunDivisionByZeroIsFatal(t *testing.T) {
	p, tb := newProgram(t)
	j := p.EmitValue(codegen.Jmp, 0)
	p.BackPatch(j)
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitValue(codegen.Lit, 1)
	p.EmitValue(codegen.Lit, 0)
	p.EmitOperator(codegen.Div)
	p.EmitReturn()

	require.Panics(t, func() {
		Machine{}.Run(p, &strings.Builder{})
	})
}

func TestRunArithmeticWrapsOnOverflow(t *testing.T) {
	p, tb := newProgram(t)
	j := p.EmitValue(codegen.Jmp, 0)
	p.BackPatch(j)
	p.EmitValue(codegen.Ict, tb.FrameSize())
	p.EmitValue(codegen.Lit, int(math.MaxInt32))
	p.EmitValue(codegen.Lit, 1)
	p.EmitOperator(codegen.Add)
	p.EmitOperator(codegen.Wrt)
	p.EmitReturn()

	var out strings.Builder
	Machine{}.Run(p, &out)
	require.Equal(t, "-2147483648", out.String())
}
