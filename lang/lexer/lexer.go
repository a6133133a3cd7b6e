// Package lexer turns PL/0' source text into a stream of lang/token.Kind
// tokens, one character of lookahead at a time. There is no separate
// scanning pass: the parser drives Lexer.Next() token by token as it
// recognizes productions, and the lexer echoes each source line to its
// output writer the moment it is first read, the way a line-oriented
// listing compiler does.
//
// Grounded on original_source/src/get_source.rs (Lexer, next_char,
// next_token, check_get, the MaxName/MaxNum/column bookkeeping) and on
// lang/scanner/scanner.go for the Go idiom of threading an error sink
// through the scanner rather than returning an error per call.
package lexer

import (
	"fmt"
	"io"
	"strings"

	"github.com/pl0dash/plzero/lang/fatal"
	"github.com/pl0dash/plzero/lang/token"
)

// MaxName is the number of identifier characters kept; the rest are still
// consumed but discarded, with a diagnostic.
const MaxName = 32

// MaxNum is the number of digits of a numeral accepted without a
// diagnostic. Digits past MaxNum are still accumulated.
const MaxNum = 14

// TabWidth is the number of columns a tab character advances the column
// cursor by.
const TabWidth = 5

// Token is one lexical token: its Kind, its source position, and, for
// IDENT and NUM, the spelling or value that goes with it.
type Token struct {
	Kind  token.Kind
	Pos   token.Pos
	Name  string // set iff Kind == token.IDENT
	Value int32  // set iff Kind == token.NUM
}

func (t Token) String() string {
	switch t.Kind {
	case token.IDENT:
		return fmt.Sprintf("%s %q", t.Kind, t.Name)
	case token.NUM:
		return fmt.Sprintf("%s %d", t.Kind, t.Value)
	default:
		return t.Kind.String()
	}
}

// Lexer scans one source text into tokens.
type Lexer struct {
	lines []string
	diag  *Diagnostics

	lineIdx   int  // index into lines of the line ch was read from; -1 before the first line
	col       int  // 0-based column of ch within lines[lineIdx], a tab counting TabWidth; -1 right after switching lines
	pos       int  // cursor into lines[lineIdx]: index of the next unread byte
	ch        byte // current lookahead character
	exhausted bool // true once real source has run out once already
}

// New returns a Lexer over src, echoing source lines and diagnostics to out.
func New(src []byte, out io.Writer) *Lexer {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	// A single trailing newline does not count as its own line, matching
	// Rust's str::lines(): "a\n" is one line, not two.
	text = strings.TrimSuffix(text, "\n")
	lx := &Lexer{
		lines:   strings.Split(text, "\n"),
		diag:    NewDiagnostics(out),
		lineIdx: -1,
		ch:      '\n',
	}
	return lx
}

// Diagnostics returns the sink this lexer reports to.
func (lx *Lexer) Diagnostics() *Diagnostics { return lx.diag }

// Errorf reports a diagnostic at the lexer's current position. The parser
// calls this directly for diagnostics that are not simply "wrong token".
func (lx *Lexer) Errorf(format string, args ...any) {
	lx.diag.Report(lx.col, fmt.Sprintf(format, args...))
}

func (lx *Lexer) pos1() token.Pos {
	return token.Pos{Line: lx.lineIdx + 1, Col: lx.col + 1}
}

// nextChar advances to, and returns, the next source character, echoing
// each newly-entered line to the diagnostics writer the moment it is first
// reached. Real source is followed by one virtual trailing newline, so
// that a token ending exactly at the last character of input can still be
// recognized without lookahead running off the edge; asking for a
// character past that virtual newline is fatal, since it means a token was
// still being read with nothing left to read.
func (lx *Lexer) nextChar() byte {
	if lx.lineIdx >= 0 && lx.lineIdx < len(lx.lines) && lx.pos < len(lx.lines[lx.lineIdx]) {
		c := lx.lines[lx.lineIdx][lx.pos]
		lx.pos++
		if c == '\t' {
			lx.col += TabWidth
		} else {
			lx.col++
		}
		return c
	}
	lx.lineIdx++
	if lx.lineIdx >= len(lx.lines) {
		if lx.exhausted {
			fatal.Raise("end of file")
		}
		lx.exhausted = true
		lx.col = -1
		return '\n'
	}
	fmt.Fprintln(lx.diag.out, lx.lines[lx.lineIdx])
	lx.pos = 0
	lx.col = -1
	return '\n'
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

// Next scans and returns the next token, skipping intervening whitespace.
func (lx *Lexer) Next() Token {
	for lx.ch == ' ' || lx.ch == '\t' || lx.ch == '\n' {
		lx.ch = lx.nextChar()
	}
	pos := lx.pos1()

	switch {
	case isLetter(lx.ch):
		return lx.scanIdent(pos)
	case isDigit(lx.ch):
		return lx.scanNumber(pos)
	default:
		return lx.scanPunct(pos)
	}
}

func (lx *Lexer) scanIdent(pos token.Pos) Token {
	var b strings.Builder
	n := 0
	for isLetter(lx.ch) || isDigit(lx.ch) {
		if n < MaxName {
			b.WriteByte(lx.ch)
		}
		n++
		lx.ch = lx.nextChar()
	}
	if n > MaxName {
		lx.diag.Report(lx.col, "too long")
	}
	name := b.String()
	if k, ok := token.Lookup(name); ok {
		return Token{Kind: k, Pos: pos}
	}
	return Token{Kind: token.IDENT, Pos: pos, Name: name}
}

func (lx *Lexer) scanNumber(pos token.Pos) Token {
	var v int32
	n := 0
	for isDigit(lx.ch) {
		v = v*10 + int32(lx.ch-'0')
		n++
		lx.ch = lx.nextChar()
	}
	if n > MaxNum {
		lx.diag.Report(lx.col, "too large")
	}
	return Token{Kind: token.NUM, Pos: pos, Value: v}
}

func (lx *Lexer) scanPunct(pos token.Pos) Token {
	ch := lx.ch
	lx.ch = lx.nextChar()

	switch ch {
	case '+':
		return Token{Kind: token.PLUS, Pos: pos}
	case '-':
		return Token{Kind: token.MINUS, Pos: pos}
	case '*':
		return Token{Kind: token.STAR, Pos: pos}
	case '/':
		return Token{Kind: token.SLASH, Pos: pos}
	case '(':
		return Token{Kind: token.LPAREN, Pos: pos}
	case ')':
		return Token{Kind: token.RPAREN, Pos: pos}
	case '=':
		return Token{Kind: token.EQ, Pos: pos}
	case ',':
		return Token{Kind: token.COMMA, Pos: pos}
	case '.':
		return Token{Kind: token.PERIOD, Pos: pos}
	case ';':
		return Token{Kind: token.SEMI, Pos: pos}
	case '<':
		switch lx.ch {
		case '=':
			lx.ch = lx.nextChar()
			return Token{Kind: token.LE, Pos: pos}
		case '>':
			lx.ch = lx.nextChar()
			return Token{Kind: token.NEQ, Pos: pos}
		default:
			return Token{Kind: token.LT, Pos: pos}
		}
	case '>':
		if lx.ch == '=' {
			lx.ch = lx.nextChar()
			return Token{Kind: token.GE, Pos: pos}
		}
		return Token{Kind: token.GT, Pos: pos}
	case ':':
		if lx.ch == '=' {
			lx.ch = lx.nextChar()
			return Token{Kind: token.ASSIGN, Pos: pos}
		}
		// A bare ':' is not itself diagnosed here, mirroring
		// get_source.rs: it comes back as an unclassified token and
		// the parser's CheckGet reports it when it turns out not to
		// fit wherever it was found.
		return Token{Kind: token.ILLEGAL, Pos: pos}
	default:
		return Token{Kind: token.ILLEGAL, Pos: pos}
	}
}

// CheckGet reports a diagnostic and resyncs if t is not of kind want, then
// returns the next token. If t and want are both punctuators, or both
// reserved words, the mismatch is treated as "delete t, insert want" and t
// is skipped. Otherwise it is treated as "insert want" and t is kept, on
// the theory that t is more likely the start of the next construct than
// noise to discard.
func (lx *Lexer) CheckGet(t Token, want token.Kind) Token {
	if t.Kind == want {
		return lx.Next()
	}
	sameClass := (want.IsPunctuator() && t.Kind.IsPunctuator()) ||
		(want.IsReservedWord() && t.Kind.IsReservedWord())
	if sameClass {
		lx.Errorf("delete %#v, and insert %#v", t.Kind, want)
		return lx.Next()
	}
	lx.Errorf("insert %#v", want)
	return t
}
