// Package codegen implements the code buffer the parser emits into: an
// append-only instruction array plus the small set of emission primitives
// and the back-patch operation that rewrites a previously emitted jump's
// target once it becomes known.
//
// Grounded on original_source/src/codegen.rs (CodeGenerator) for exact
// semantics, and on lang/compiler/opcode.go for the Go idiom of a sized
// integer Opcode type with a name table and String().
package codegen

import (
	"fmt"
	"strings"

	"github.com/pl0dash/plzero/lang/fatal"
	"github.com/pl0dash/plzero/lang/symtab"
)

// MaxCode bounds the number of instructions a program may hold.
const MaxCode = 100

type immKind uint8

const (
	immNone immKind = iota
	immInt
	immAddr
	immOp
)

// Instruction is a single VM instruction. Its immediate is one of {int,
// symtab.RelAddr, Operator} depending on kind; Opcode implies exactly one
// of those alternatives.
type Instruction struct {
	Op Opcode

	kind   immKind
	intImm int
	addr   symtab.RelAddr
	opImm  Operator
}

// Int returns the integer immediate of a Lit/Ict/Jmp/Jpc instruction (or the
// back-patched target of a jump). Panics if the instruction carries a
// different kind of immediate.
func (in Instruction) Int() int {
	if in.kind != immInt {
		panic("codegen: instruction has no integer immediate")
	}
	return in.intImm
}

// Addr returns the (level, offset) immediate of a Lod/Sto/Cal/Ret
// instruction. Panics if the instruction carries a different kind of
// immediate.
func (in Instruction) Addr() symtab.RelAddr {
	if in.kind != immAddr {
		panic("codegen: instruction has no address immediate")
	}
	return in.addr
}

// Operator returns the Operator immediate of an Opr instruction. Panics if
// the instruction carries a different kind of immediate.
func (in Instruction) Operator() Operator {
	if in.kind != immOp {
		panic("codegen: instruction has no operator immediate")
	}
	return in.opImm
}

func (in Instruction) String() string {
	switch in.kind {
	case immInt:
		return fmt.Sprintf("%s %d", in.Op, in.intImm)
	case immAddr:
		return fmt.Sprintf("%s %d,%d", in.Op, in.addr.Level, in.addr.Offset)
	case immOp:
		return fmt.Sprintf("%s %s", in.Op, in.opImm)
	default:
		return in.Op.String()
	}
}

// Program is the append-only instruction buffer produced by the parser and
// consumed by the VM. It holds a reference to the symbol table so that
// EmitAddr can resolve a table index to its address at emission time.
type Program struct {
	code  []Instruction
	Table *symtab.Table
}

// New returns an empty program bound to table.
func New(table *symtab.Table) *Program {
	return &Program{Table: table}
}

// NextIndex returns the index the next emitted instruction will occupy.
func (p *Program) NextIndex() int { return len(p.code) }

// Len returns the number of instructions emitted so far.
func (p *Program) Len() int { return len(p.code) }

// At returns the instruction at index i.
func (p *Program) At(i int) Instruction { return p.code[i] }

func (p *Program) checkCapacity() {
	if len(p.code) >= MaxCode {
		fatal.Raise("too many code")
	}
}

// EmitValue appends an instruction whose immediate is the integer v, and
// returns its index.
func (p *Program) EmitValue(op Opcode, v int) int {
	p.checkCapacity()
	p.code = append(p.code, Instruction{Op: op, kind: immInt, intImm: v})
	return len(p.code) - 1
}

// EmitAddr appends an instruction whose immediate is the address of table
// entry ti, resolved through Table at emission time, and returns its index.
func (p *Program) EmitAddr(op Opcode, ti int) int {
	p.checkCapacity()
	p.code = append(p.code, Instruction{Op: op, kind: immAddr, addr: p.Table.RelAddr(ti)})
	return len(p.code) - 1
}

// EmitOperator appends an Opr instruction with operator immediate o, and
// returns its index.
func (p *Program) EmitOperator(o Operator) int {
	p.checkCapacity()
	p.code = append(p.code, Instruction{Op: Opr, kind: immOp, opImm: o})
	return len(p.code) - 1
}

// EmitReturn appends a Ret instruction addressed at the current block level
// and the enclosing function's parameter count, unless the previously
// emitted instruction is already a Ret, in which case it does nothing and
// returns that instruction's index.
func (p *Program) EmitReturn() int {
	if n := len(p.code); n > 0 && p.code[n-1].Op == Ret {
		return n - 1
	}
	p.checkCapacity()
	addr := symtab.RelAddr{Level: p.Table.BlockLevel(), Offset: p.Table.EnclosingParamCount()}
	p.code = append(p.code, Instruction{Op: Ret, kind: immAddr, addr: addr})
	return len(p.code) - 1
}

// BackPatch rewrites the immediate of the instruction at index i to the
// index that the next emitted instruction will occupy. Only the immediate
// changes; the opcode is untouched.
func (p *Program) BackPatch(i int) {
	p.code[i] = Instruction{Op: p.code[i].Op, kind: immInt, intImm: len(p.code)}
}

// Dump renders the program as a debug-readable instruction listing, one
// instruction per line prefixed with its index. There is no compatibility
// commitment on this format.
func (p *Program) Dump() string {
	var b strings.Builder
	for i, in := range p.code {
		fmt.Fprintf(&b, "%3d %s\n", i, in)
	}
	return b.String()
}
