// Package parser implements the single-pass PL/0' translator: it drives
// lang/lexer token by token and, as it recognizes each production, emits
// code directly into a lang/codegen.Program and records declarations in
// that program's lang/symtab.Table. There is no intermediate AST and no
// separate name-resolution pass: the grammar, the symbol table, and code
// generation all run in the same recursive descent.
//
// Grounded on original_source/src/compile.rs (Compiler) for the exact
// per-production translation schema, including which recovery messages
// count as diagnostics (self.error, which counts toward MinError/MaxError)
// versus which are plain "delete X" notices that do not.
package parser

import (
	"fmt"
	"io"

	"github.com/pl0dash/plzero/lang/codegen"
	"github.com/pl0dash/plzero/lang/lexer"
	"github.com/pl0dash/plzero/lang/symtab"
	"github.com/pl0dash/plzero/lang/token"
)

// MinError is the diagnostic-count threshold below which Compile reports
// success and the caller may go on to execute the program. At or above
// it, compilation is considered to have failed, though parsing itself
// always runs to completion (or to a fatal error).
const MinError = 3

// Parser holds the one token of lookahead the grammar needs, plus
// references to the lexer it reads from and the program it emits into.
type Parser struct {
	lex  *lexer.Lexer
	prog *codegen.Program
	out  io.Writer
	tok  lexer.Token
}

// New returns a Parser that will read from lex and emit into prog, writing
// banner text and non-counted recovery notices to out (normally the same
// writer lex itself echoes source lines and diagnostics to, so that
// output interleaves in source order).
func New(lex *lexer.Lexer, prog *codegen.Program, out io.Writer) *Parser {
	return &Parser{lex: lex, prog: prog, out: out}
}

// Compile translates the whole source as one main block terminated by a
// period, and reports whether the result is clean enough to execute: the
// diagnostic count is under MinError. It always returns, even when the
// count reaches MinError or more; only a fatal.Error aborts outright.
func (p *Parser) Compile() bool {
	fmt.Fprintln(p.out, "start compilation:")
	fmt.Fprintln(p.out)

	p.tok = p.lex.Next()
	p.prog.Table.BlockBegin(symtab.FirstAddr)
	p.block(0)

	n := p.lex.Diagnostics().Count()
	p.lex.Diagnostics().Summarize()
	return n < MinError
}

// block compiles one block (the main program, or a function body), whose
// entry address is recorded at table index pIndex (0 names the main
// block, which has no declared name of its own).
func (p *Parser) block(pIndex int) {
	backP := p.prog.EmitValue(codegen.Jmp, 0) // jump over any nested function bodies

	for {
		switch p.tok.Kind {
		case token.CONST:
			p.tok = p.lex.Next()
			p.constDecl()
		case token.VAR:
			p.tok = p.lex.Next()
			p.varDecl()
		case token.FUNCTION:
			p.tok = p.lex.Next()
			p.funcDecl()
		default:
			goto declsDone
		}
	}
declsDone:
	p.prog.BackPatch(backP)
	p.prog.Table.ChangeEntryAddr(pIndex, p.prog.NextIndex())
	p.prog.EmitValue(codegen.Ict, p.prog.Table.FrameSize())

	p.statement()
	p.prog.EmitReturn()
	p.prog.Table.BlockEnd()
}

func (p *Parser) constDecl() {
	for {
		if p.tok.Kind == token.IDENT {
			name := p.tok.Name
			p.tok = p.lex.Next()
			p.tok = p.lex.CheckGet(p.tok, token.EQ)
			if p.tok.Kind == token.NUM {
				p.prog.Table.EnterConst(name, int(p.tok.Value))
			} else {
				p.lex.Errorf("number")
			}
			p.tok = p.lex.Next()
		} else {
			p.lex.Errorf("missing Identifier")
		}
		if p.tok.Kind != token.COMMA {
			if p.tok.Kind == token.IDENT {
				p.lex.Errorf("insert %#v", token.COMMA)
				continue
			}
			break
		}
		p.tok = p.lex.Next()
	}
	p.tok = p.lex.CheckGet(p.tok, token.SEMI)
}

func (p *Parser) varDecl() {
	for {
		if p.tok.Kind == token.IDENT {
			p.prog.Table.EnterVar(p.tok.Name)
			p.tok = p.lex.Next()
		} else {
			p.lex.Errorf("missing Identifier")
		}
		if p.tok.Kind != token.COMMA {
			if p.tok.Kind == token.IDENT {
				p.lex.Errorf("insert %#v", token.COMMA)
				continue
			}
			break
		}
		p.tok = p.lex.Next()
	}
	p.tok = p.lex.CheckGet(p.tok, token.SEMI)
}

func (p *Parser) funcDecl() {
	if p.tok.Kind != token.IDENT {
		p.lex.Errorf("missing Identifier")
		return
	}
	name := p.tok.Name
	fIndex := p.prog.Table.EnterFunc(name, p.prog.NextIndex())
	p.tok = p.lex.Next()
	p.tok = p.lex.CheckGet(p.tok, token.LPAREN)
	p.prog.Table.BlockBegin(symtab.FirstAddr) // parameters live at the function's own level

	for {
		if p.tok.Kind == token.IDENT {
			p.prog.Table.EnterPar(p.tok.Name)
			p.tok = p.lex.Next()
		} else {
			break
		}
		if p.tok.Kind != token.COMMA {
			if p.tok.Kind == token.IDENT {
				p.lex.Errorf("insert %#v", token.COMMA)
				continue
			}
			break
		}
		p.tok = p.lex.Next()
	}
	p.tok = p.lex.CheckGet(p.tok, token.RPAREN)
	p.prog.Table.EndPar()

	if p.tok.Kind == token.SEMI {
		// A ';' between the parameter list and the function body is
		// discarded with a plain "delete" notice, not diagnosed: this is
		// the one recovery the original treats as cosmetic rather than an
		// error.
		fmt.Fprintf(p.out, "delete %#v\n", token.SEMI)
		p.tok = p.lex.Next()
	}

	p.block(fIndex)
	p.tok = p.lex.CheckGet(p.tok, token.SEMI)
}

func (p *Parser) statement() {
	for {
		switch p.tok.Kind {
		case token.IDENT:
			name := p.tok.Name
			ti, found := p.prog.Table.Search(name, symtab.Var)
			if !found {
				p.lex.Errorf("undeclared identifier: %s", name)
			}
			if k := p.prog.Table.Kind(ti); k != symtab.Var && k != symtab.Par {
				p.lex.Errorf("type error: var/par")
			}
			p.tok = p.lex.Next()
			p.tok = p.lex.CheckGet(p.tok, token.ASSIGN)
			p.expression()
			p.prog.EmitAddr(codegen.Sto, ti)
			return

		case token.IF:
			p.tok = p.lex.Next()
			p.condition()
			p.tok = p.lex.CheckGet(p.tok, token.THEN)
			backP := p.prog.EmitValue(codegen.Jpc, 0)
			p.statement()
			p.prog.BackPatch(backP)
			return

		case token.RETURN:
			p.tok = p.lex.Next()
			p.expression()
			p.prog.EmitReturn()
			return

		case token.BEGIN:
			p.tok = p.lex.Next()
			for {
				p.statement()
				for {
					if p.tok.Kind == token.SEMI {
						p.tok = p.lex.Next()
						break
					}
					if p.tok.Kind == token.END {
						p.tok = p.lex.Next()
						return
					}
					if p.tok.Kind.IsStmtStart() {
						p.lex.Errorf("insert %#v", token.SEMI)
						break
					}
					fmt.Fprintf(p.out, "delete %#v\n", p.tok.Kind)
					p.tok = p.lex.Next()
				}
			}

		case token.WHILE:
			p.tok = p.lex.Next()
			loopStart := p.prog.NextIndex()
			p.condition()
			p.tok = p.lex.CheckGet(p.tok, token.DO)
			backP := p.prog.EmitValue(codegen.Jpc, 0)
			p.statement()
			p.prog.EmitValue(codegen.Jmp, loopStart)
			p.prog.BackPatch(backP)
			return

		case token.WRITE:
			p.tok = p.lex.Next()
			p.expression()
			p.prog.EmitOperator(codegen.Wrt)
			return

		case token.WRITELN:
			p.tok = p.lex.Next()
			p.prog.EmitOperator(codegen.Wrl)
			return

		case token.END, token.SEMI, token.PERIOD:
			return

		default:
			fmt.Fprintf(p.out, "delete %#v\n", p.tok.Kind)
			p.tok = p.lex.Next()
		}
	}
}

func (p *Parser) expression() {
	k := p.tok.Kind
	if k == token.PLUS || k == token.MINUS {
		p.tok = p.lex.Next()
		p.term()
		if k == token.MINUS {
			p.prog.EmitOperator(codegen.Neg)
		}
	} else {
		p.term()
	}
	for k = p.tok.Kind; k == token.PLUS || k == token.MINUS; k = p.tok.Kind {
		p.tok = p.lex.Next()
		p.term()
		if k == token.MINUS {
			p.prog.EmitOperator(codegen.Sub)
		} else {
			p.prog.EmitOperator(codegen.Add)
		}
	}
}

func (p *Parser) term() {
	p.factor()
	for k := p.tok.Kind; k == token.STAR || k == token.SLASH; k = p.tok.Kind {
		p.tok = p.lex.Next()
		p.factor()
		if k == token.STAR {
			p.prog.EmitOperator(codegen.Mul)
		} else {
			p.prog.EmitOperator(codegen.Div)
		}
	}
}

func (p *Parser) factor() {
	switch p.tok.Kind {
	case token.IDENT:
		name := p.tok.Name
		ti, found := p.prog.Table.Search(name, symtab.Var)
		if !found {
			p.lex.Errorf("undeclared identifier: %s", name)
		}
		switch p.prog.Table.Kind(ti) {
		case symtab.Var, symtab.Par:
			p.prog.EmitAddr(codegen.Lod, ti)
			p.tok = p.lex.Next()
		case symtab.Const:
			p.prog.EmitValue(codegen.Lit, p.prog.Table.Value(ti))
			p.tok = p.lex.Next()
		case symtab.Func:
			p.tok = p.lex.Next()
			p.funcCall(ti)
		}

	case token.NUM:
		p.prog.EmitValue(codegen.Lit, int(p.tok.Value))
		p.tok = p.lex.Next()

	case token.LPAREN:
		p.tok = p.lex.Next()
		p.expression()
		p.tok = p.lex.CheckGet(p.tok, token.RPAREN)
	}

	switch p.tok.Kind {
	case token.IDENT, token.NUM, token.LPAREN:
		p.lex.Errorf("missing operator: %#v", p.tok.Kind)
		p.factor()
	}
}

func (p *Parser) funcCall(ti int) {
	argc := 0
	if p.tok.Kind == token.LPAREN {
		p.tok = p.lex.Next()
		if p.tok.Kind != token.RPAREN {
			for {
				p.expression()
				argc++
				if p.tok.Kind == token.COMMA {
					p.tok = p.lex.Next()
					continue
				}
				p.tok = p.lex.CheckGet(p.tok, token.RPAREN)
				break
			}
		} else {
			p.tok = p.lex.Next()
		}
		if p.prog.Table.ParamCount(ti) != argc {
			p.lex.Errorf("unmatched par")
		}
	} else {
		p.lex.Errorf("insert %#v", token.LPAREN)
		p.lex.Errorf("insert %#v", token.RPAREN)
	}
	p.prog.EmitAddr(codegen.Cal, ti)
}

func (p *Parser) condition() {
	if p.tok.Kind == token.ODD {
		p.tok = p.lex.Next()
		p.expression()
		p.prog.EmitOperator(codegen.Odd)
		return
	}
	p.expression()
	k := p.tok.Kind
	switch k {
	case token.EQ, token.LT, token.GT, token.NEQ, token.LE, token.GE:
	default:
		p.lex.Errorf("type error: rel-op")
	}
	p.tok = p.lex.Next()
	p.expression()
	switch k {
	case token.EQ:
		p.prog.EmitOperator(codegen.Eq)
	case token.LT:
		p.prog.EmitOperator(codegen.Ls)
	case token.GT:
		p.prog.EmitOperator(codegen.Gr)
	case token.NEQ:
		p.prog.EmitOperator(codegen.Neq)
	case token.LE:
		p.prog.EmitOperator(codegen.Lseq)
	case token.GE:
		p.prog.EmitOperator(codegen.Greq)
	}
}
