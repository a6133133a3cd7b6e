package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockBeginMain(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	require.Equal(t, 0, tb.BlockLevel())
	require.Equal(t, FirstAddr, tb.FrameSize())
}

func TestEnterVarAllocatesOffsets(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	a := tb.EnterVar("a")
	b := tb.EnterVar("b")
	require.Equal(t, RelAddr{Level: 0, Offset: 2}, tb.RelAddr(a))
	require.Equal(t, RelAddr{Level: 0, Offset: 3}, tb.RelAddr(b))
	require.Equal(t, 4, tb.FrameSize())
}

func TestEndParOffsets(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	f := tb.EnterFunc("f", 0)
	tb.BlockBegin(FirstAddr)
	p1 := tb.EnterPar("a")
	p2 := tb.EnterPar("b")
	p3 := tb.EnterPar("c")
	tb.EndPar()

	require.Equal(t, 3, tb.ParamCount(f))
	require.Equal(t, -3, tb.RelAddr(p1).Offset)
	require.Equal(t, -2, tb.RelAddr(p2).Offset)
	require.Equal(t, -1, tb.RelAddr(p3).Offset)
}

func TestBlockEndRestoresScope(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	outer := tb.EnterVar("x")
	tb.BlockBegin(FirstAddr)
	inner := tb.EnterVar("x")
	require.NotEqual(t, tb.RelAddr(outer), tb.RelAddr(inner))
	ti, found := tb.Search("x", Var)
	require.True(t, found)
	require.Equal(t, inner, ti)

	tb.BlockEnd()
	// "x" now resolves to the outer declaration again, since the inner
	// entry's index is beyond the restored tIndex.
	ti, found = tb.Search("x", Var)
	require.True(t, found)
	require.Equal(t, outer, ti)
}

func TestSearchAutoVivifiesVar(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	ti, found := tb.Search("undeclared", Var)
	require.False(t, found)
	require.Equal(t, Var, tb.Kind(ti))
}

func TestSearchMissingNonVarReturnsZero(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	ti, found := tb.Search("nope", Func)
	require.False(t, found)
	require.Equal(t, 0, ti)
}

func TestChangeEntryAddrCreatesMainEntry(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	tb.ChangeEntryAddr(0, 7)
	require.Equal(t, Func, tb.Kind(0))
	require.Equal(t, 7, tb.RelAddr(0).Offset)
}

func TestBlockBeginTooDeep(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	for i := 0; i < MaxLevel-1; i++ {
		tb.BlockBegin(FirstAddr)
	}
	require.Equal(t, MaxLevel-1, tb.BlockLevel())
	require.Panics(t, func() { tb.BlockBegin(FirstAddr) })
}

func TestEnterVarTableOverflow(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	require.Panics(t, func() {
		for i := 0; i < MaxTable+1; i++ {
			tb.EnterVar("v")
		}
	})
}

func TestKindPanicsOnUnknownEntry(t *testing.T) {
	tb := New()
	require.Panics(t, func() { tb.Kind(42) })
}

func TestEnclosingParamCount(t *testing.T) {
	tb := New()
	tb.BlockBegin(FirstAddr)
	require.Equal(t, 0, tb.EnclosingParamCount())

	f := tb.EnterFunc("f", 0)
	tb.BlockBegin(FirstAddr)
	tb.EnterPar("a")
	tb.EnterPar("b")
	tb.EndPar()
	require.Equal(t, 2, tb.EnclosingParamCount())
	require.Equal(t, 2, tb.ParamCount(f))
}
