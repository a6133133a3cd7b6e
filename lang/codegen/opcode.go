package codegen

// Opcode is a virtual-machine instruction code.
type Opcode uint8

//nolint:revive
const (
	Lit Opcode = iota // push an integer literal
	Opr               // perform an arithmetic/relational/IO operation
	Lod               // push the value at a (level, offset) address
	Sto               // pop into a (level, offset) address
	Cal               // call the function at a (level, offset) entry point
	Ret               // return, dropping paramCount arguments
	Ict               // reserve frame slots for locals
	Jmp               // unconditional jump
	Jpc               // pop and jump if the popped value is 0

	maxOpcode
)

var opcodeNames = [...]string{
	Lit: "lit", Opr: "opr", Lod: "lod", Sto: "sto", Cal: "cal",
	Ret: "ret", Ict: "ict", Jmp: "jmp", Jpc: "jpc",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		return opcodeNames[op]
	}
	return "illegal opcode"
}

// Operator identifies the operation an Opr instruction performs.
type Operator uint8

//nolint:revive
const (
	Neg  Operator = iota // unary negation
	Add                  // binary addition
	Sub                  // binary subtraction
	Mul                  // binary multiplication
	Div                  // binary integer division
	Odd                  // unary: value & 1
	Eq                   // binary: ==
	Ls                   // binary: <
	Gr                   // binary: >
	Neq                  // binary: !=
	Lseq                 // binary: <=
	Greq                 // binary: >=
	Wrt                  // pop and print an integer, no trailing newline
	Wrl                  // print a newline

	maxOperator
)

var operatorNames = [...]string{
	Neg: "neg", Add: "add", Sub: "sub", Mul: "mul", Div: "div", Odd: "odd",
	Eq: "eq", Ls: "ls", Gr: "gr", Neq: "neq", Lseq: "lseq", Greq: "greq",
	Wrt: "wrt", Wrl: "wrl",
}

func (o Operator) String() string {
	if o < maxOperator {
		return operatorNames[o]
	}
	return "illegal operator"
}

// IsUnary reports whether o consumes a single operand.
func (o Operator) IsUnary() bool {
	return o == Neg || o == Odd
}
