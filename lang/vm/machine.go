// Package vm implements the display-based stack machine that executes a
// compiled codegen.Program: a flat instruction array, a fixed-size data
// stack, and a small display array that lets a nested function address its
// enclosing blocks' frames without walking a static link chain.
//
// Grounded on original_source/src/codegen.rs (CodeGenerator::execute) for
// the exact per-opcode semantics, including the Cal/Ret display-juggling
// protocol and the implicit "pop one value" every Ret performs even when
// the block it closes never executed an explicit return statement.
package vm

import (
	"fmt"
	"io"

	"github.com/pl0dash/plzero/lang/codegen"
	"github.com/pl0dash/plzero/lang/fatal"
)

const (
	// MaxMem bounds the data stack.
	MaxMem = 2000
	// MaxLevel bounds static nesting depth (mirrors symtab.MaxLevel).
	MaxLevel = 5
	// MaxReg is headroom reserved above the data stack for operand
	// evaluation, so Ict's growth check trips before a deeply nested
	// expression could run off the end of stack.
	MaxReg = 20
)

// Machine runs a compiled program. The zero value is ready to use.
type Machine struct{}

// Run executes prog to completion, writing write/writeln output to out.
// Arithmetic wraps on int32 overflow; division by zero raises a fatal.Error
// ("division by zero").
func (Machine) Run(prog *codegen.Program, out io.Writer) {
	var stack [MaxMem]int32
	var display [MaxLevel]int32

	pc := 0
	top := 0
	stack[0] = 0
	stack[1] = 0
	display[0] = 0

	for {
		in := prog.At(pc)
		pc++

		switch in.Op {
		case codegen.Lit:
			stack[top] = int32(in.Int())
			top++

		case codegen.Lod:
			a := in.Addr()
			stack[top] = stack[int(display[a.Level])+a.Offset]
			top++

		case codegen.Sto:
			a := in.Addr()
			top--
			stack[int(display[a.Level])+a.Offset] = stack[top]

		case codegen.Cal:
			a := in.Addr()
			lev := a.Level + 1
			stack[top] = display[lev]
			stack[top+1] = int32(pc)
			display[lev] = int32(top)
			pc = a.Offset

		case codegen.Ret:
			a := in.Addr()
			top--
			ret := stack[top]
			top = int(display[a.Level])
			display[a.Level] = stack[top]
			pc = int(stack[top+1])
			top -= a.Offset
			stack[top] = ret
			top++

		case codegen.Ict:
			top += in.Int()
			if top >= MaxMem-MaxReg {
				fatal.Raise("stack overflow")
			}

		case codegen.Jmp:
			pc = in.Int()

		case codegen.Jpc:
			top--
			if stack[top] == 0 {
				pc = in.Int()
			}

		case codegen.Opr:
			top = execOperator(in.Operator(), stack[:], top, out)
		}

		if pc == 0 {
			return
		}
	}
}

func execOperator(op codegen.Operator, stack []int32, top int, out io.Writer) int {
	switch op {
	case codegen.Neg:
		stack[top-1] = -stack[top-1]
	case codegen.Add:
		top--
		stack[top-1] += stack[top]
	case codegen.Sub:
		top--
		stack[top-1] -= stack[top]
	case codegen.Mul:
		top--
		stack[top-1] *= stack[top]
	case codegen.Div:
		top--
		if stack[top] == 0 {
			fatal.Raise("division by zero")
		}
		stack[top-1] /= stack[top]
	case codegen.Odd:
		stack[top-1] &= 1
	case codegen.Eq:
		top--
		stack[top-1] = boolInt(stack[top-1] == stack[top])
	case codegen.Ls:
		top--
		stack[top-1] = boolInt(stack[top-1] < stack[top])
	case codegen.Gr:
		top--
		stack[top-1] = boolInt(stack[top-1] > stack[top])
	case codegen.Neq:
		top--
		stack[top-1] = boolInt(stack[top-1] != stack[top])
	case codegen.Lseq:
		top--
		stack[top-1] = boolInt(stack[top-1] <= stack[top])
	case codegen.Greq:
		top--
		stack[top-1] = boolInt(stack[top-1] >= stack[top])
	case codegen.Wrt:
		top--
		fmt.Fprint(out, stack[top])
	case codegen.Wrl:
		fmt.Fprintln(out)
	}
	return top
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
