// Package maincmd implements the plzero command-line entry point: flag
// parsing, source acquisition, and wiring the lexer/parser/codegen/vm
// pipeline together, returning a process exit code.
//
// Grounded on github.com/mna/nenuphar's internal/maincmd.go for the
// mainer.Cmd shape (SetArgs/SetFlags/Validate/Main), simplified from its
// multi-subcommand dispatch to the single compile-then-execute command PL/0'
// needs, and on original_source/src/main.rs and get_source.rs's open_source
// for the source-acquisition and -p flag behavior.
package maincmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mna/mainer"
	"github.com/pl0dash/plzero/lang/codegen"
	"github.com/pl0dash/plzero/lang/fatal"
	"github.com/pl0dash/plzero/lang/lexer"
	"github.com/pl0dash/plzero/lang/parser"
	"github.com/pl0dash/plzero/lang/symtab"
	"github.com/pl0dash/plzero/lang/vm"
)

const binName = "plzero"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<source-file>] [-p]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<source-file>] [-p]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the PL/0' teaching language.

If <source-file> is given, it is opened and compiled; otherwise the
program prompts "enter source file name" on standard output and reads a
file name from standard input.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -p                        After a successful compile, print the
                                 generated instructions instead of
                                 executing them.
`, binName)
)

// Cmd is the plzero command. BuildVersion and BuildDate are set by
// cmd/plzero/main.go at build time.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Dump    bool `flag:"p"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(map[string]bool) {}

// Validate checks the positional arguments: at most one, naming the source
// file to compile.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one source file may be given")
	}
	return nil
}

// Main parses flags, resolves the source, and runs the compile/execute
// pipeline, returning the process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if err := c.run(stdio); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}
	return mainer.Success
}

// run reads the source, then compiles and either dumps or executes it.
// Compile errors below MinError do not make run fail: exit 0 on normal
// termination, including after compile errors that stay under the
// execution threshold; only source-acquisition errors and fatal limits do.
func (c *Cmd) run(stdio mainer.Stdio) error {
	src, err := c.readSource(stdio)
	if err != nil {
		return err
	}

	return fatal.Guard(func() {
		table := symtab.New()
		prog := codegen.New(table)
		lx := lexer.New(src, stdio.Stdout)
		pr := parser.New(lx, prog, stdio.Stdout)

		if !pr.Compile() {
			return
		}
		if c.Dump {
			fmt.Fprint(stdio.Stdout, prog.Dump())
			return
		}
		vm.Machine{}.Run(prog, stdio.Stdout)
	})
}

// readSource returns the source file's contents: from the path given as the
// single positional argument, or, if none was given, from a file whose name
// is read from a line of standard input after a prompt.
func (c *Cmd) readSource(stdio mainer.Stdio) ([]byte, error) {
	if len(c.args) == 1 {
		return os.ReadFile(c.args[0])
	}

	fmt.Fprintln(stdio.Stdout, "enter source file name")
	name, err := readLine(stdio.Stdin)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(strings.TrimRight(name, "\r\n"))
}

func readLine(r io.Reader) (string, error) {
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return line.String(), nil
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if err == io.EOF && line.Len() > 0 {
				return line.String(), nil
			}
			return line.String(), err
		}
	}
}
