package lexer

import (
	"fmt"
	"io"

	"github.com/pl0dash/plzero/lang/fatal"
)

// MaxError bounds the number of diagnostics a compilation may accumulate
// before compilation is aborted outright.
const MaxError = 30

// Diagnostics accumulates the compiler's user-facing diagnostics: it
// echoes source lines as they are read (the lexer does that directly, see
// Lexer.nextChar) and renders each diagnostic as a caret line followed by
// an "*** error ***" line. Past MaxError it raises a fatal.Error, treating
// "too many errors" as an unrecoverable compilation, not an ordinary
// diagnostic.
type Diagnostics struct {
	out   io.Writer
	count int
}

// NewDiagnostics returns a Diagnostics sink that writes to out.
func NewDiagnostics(out io.Writer) *Diagnostics {
	return &Diagnostics{out: out}
}

// Count returns the number of diagnostics reported so far.
func (d *Diagnostics) Count() int { return d.count }

// Report renders one diagnostic at column col (0-based; the column of the
// character the lexer was looking at when the error was detected) with
// message msg.
func (d *Diagnostics) Report(col int, msg string) {
	if col > 0 {
		fmt.Fprintf(d.out, "%*s\n", col, "***^")
	} else {
		fmt.Fprintln(d.out, "^")
	}
	fmt.Fprintf(d.out, "*** error *** %s\n", msg)
	d.count++
	if d.count > MaxError {
		fatal.Raise("too many errors")
	}
}

// Summarize prints the "N errors occur" / "1 error occur" trailer after
// compilation ends, iff any diagnostic was reported.
func (d *Diagnostics) Summarize() {
	switch d.count {
	case 0:
		return
	case 1:
		fmt.Fprintln(d.out, "1 error occur")
	default:
		fmt.Fprintf(d.out, "%d errors occur\n", d.count)
	}
}
