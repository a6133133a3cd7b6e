package token

import "fmt"

// Pos is a 1-based source line/column position. A zero value means
// "unknown". Unlike a multi-file compiler's position type, PL/0' compiles a
// single source at a time, so there is no need to pack an interned file
// index alongside line/column: the pair is kept as plain ints for clarity.
type Pos struct {
	Line int
	Col  int
}

// Unknown reports whether either coordinate is unset.
func (p Pos) Unknown() bool { return p.Line == 0 || p.Col == 0 }

func (p Pos) String() string {
	if p.Unknown() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}
