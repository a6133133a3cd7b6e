// Package symtab implements the block-scoped symbol table that the parser
// consults while it translates source into code: it is the component that
// turns a declaration into a (level, offset) address and a later reference
// back into the same address.
//
// Grounded on original_source/src/table.rs (NameTable), the Rust reference
// implementation this compiler was distilled from; entries, scope
// bookkeeping and the lazy-var-on-lookup behavior all match it exactly.
package symtab

import "github.com/pl0dash/plzero/lang/fatal"

// Kind identifies what an Entry names.
type Kind int8

const (
	Var Kind = iota
	Par
	Const
	Func
)

func (k Kind) String() string {
	switch k {
	case Var:
		return "var"
	case Par:
		return "par"
	case Const:
		return "const"
	case Func:
		return "func"
	default:
		return "unknown kind"
	}
}

// RelAddr is a (level, offset) address: level is the static nesting depth of
// the block that owns the slot (0 is the main block), offset is the slot's
// position relative to the frame base of that level (negative for
// parameters, >= 2 for locals).
type RelAddr struct {
	Level  int
	Offset int
}

const (
	// MaxTable bounds the number of entries the table can hold.
	MaxTable = 100
	// MaxLevel bounds static nesting depth.
	MaxLevel = 5
	// FirstAddr is the offset of the first local variable in any frame;
	// slots 0 and 1 are reserved by the VM for the saved display and the
	// return address.
	FirstAddr = 2
)

type entry struct {
	kind Kind
	name string

	// Var, Par
	addr RelAddr

	// Const
	value int

	// Func
	entryAddr  int
	paramCount int
}

// Table is the symbol table. The zero value is not usable; use New.
type Table struct {
	entries map[int]entry
	tIndex  int
	level   int

	// per-level saved state, restored on BlockEnd
	savedIndex  [MaxLevel]int
	savedOffset [MaxLevel]int

	offset    int // next free offset in the current block (local_addr)
	funcIndex int // table index of the function whose parameter list is open
}

// New returns an empty symbol table, level -1 (not yet in the main block).
func New() *Table {
	return &Table{entries: make(map[int]entry), level: -1}
}

// BlockBegin opens a new block whose first local variable will be allocated
// at firstAddr. The first call (for the main block) sets level to 0 instead
// of nesting one level deeper.
func (t *Table) BlockBegin(firstAddr int) {
	if t.level == -1 {
		t.offset = firstAddr
		t.tIndex = 0
		t.level = 0
		return
	}
	if t.level == MaxLevel-1 {
		fatal.Raise("too many nested blocks")
	}
	t.savedIndex[t.level] = t.tIndex
	t.savedOffset[t.level] = t.offset
	t.offset = firstAddr
	t.level++
}

// BlockEnd closes the current block. Entries declared in it remain
// physically in the table (their slots may be overwritten by later
// additions) but become unreachable because tIndex retreats.
func (t *Table) BlockEnd() {
	t.level--
	if t.level > -1 {
		t.tIndex = t.savedIndex[t.level]
		t.offset = t.savedOffset[t.level]
	}
}

// BlockLevel returns the static nesting depth of the block currently open.
func (t *Table) BlockLevel() int { return t.level }

// FrameSize returns the number of slots the current block's frame needs.
func (t *Table) FrameSize() int { return t.offset }

// EnclosingParamCount returns the parameter count of the function whose body
// is the current block (0 for the main block), used when emitting Ret.
func (t *Table) EnclosingParamCount() int {
	if t.level <= 0 {
		return 0
	}
	e, ok := t.entries[t.savedIndex[t.level-1]]
	if !ok || e.kind != Func {
		return 0
	}
	return e.paramCount
}

func (t *Table) appendEntry(e entry) int {
	t.tIndex++
	if t.tIndex >= MaxTable {
		fatal.Raise("too many names")
	}
	t.entries[t.tIndex] = e
	return t.tIndex
}

// EnterConst declares a constant and returns its table index.
func (t *Table) EnterConst(name string, value int) int {
	return t.appendEntry(entry{kind: Const, name: name, value: value})
}

// EnterVar declares a variable, allocating the next offset in the current
// frame, and returns its table index.
func (t *Table) EnterVar(name string) int {
	ti := t.appendEntry(entry{kind: Var, name: name, addr: RelAddr{Level: t.level, Offset: t.offset}})
	t.offset++
	return ti
}

// EnterPar declares a parameter of the function whose list is currently
// open (see EnterFunc). Its offset is left at 0 until EndPar assigns the
// final negative offsets. Returns its table index.
func (t *Table) EnterPar(name string) int {
	ti := t.appendEntry(entry{kind: Par, name: name, addr: RelAddr{Level: t.level}})
	fe := t.entries[t.funcIndex]
	fe.paramCount++
	t.entries[t.funcIndex] = fe
	return ti
}

// EnterFunc declares a function with a provisional entry address (rewritten
// later by ChangeEntryAddr once the body's first instruction is known) and
// returns its table index. Subsequent EnterPar calls attach to this entry.
func (t *Table) EnterFunc(name string, provisionalAddr int) int {
	ti := t.appendEntry(entry{kind: Func, name: name, entryAddr: provisionalAddr, addr: RelAddr{Level: t.level}})
	t.funcIndex = ti
	return ti
}

// EndPar assigns final offsets to the parameters of the function whose list
// was most recently opened: parameter i (1-based) gets offset i-1-paramCount,
// so the sequence runs -paramCount, ..., -1 in declaration order.
func (t *Table) EndPar() {
	fe := t.entries[t.funcIndex]
	p := fe.paramCount
	for i := 1; i <= p; i++ {
		ti := t.funcIndex + i
		pe := t.entries[ti]
		pe.addr.Offset = i - 1 - p
		t.entries[ti] = pe
	}
}

// ChangeEntryAddr rewrites the entry address of the function at table index
// ti. ti == 0 is special: it names the main block, whose Func entry is
// created lazily on first use.
func (t *Table) ChangeEntryAddr(ti, newAddr int) {
	e, ok := t.entries[ti]
	if !ok {
		t.entries[ti] = entry{kind: Func, addr: RelAddr{Level: 0}, entryAddr: newAddr}
		return
	}
	e.entryAddr = newAddr
	t.entries[ti] = e
}

// Search returns the table index of the most recently declared entry named
// name, scanning only entries with index <= tIndex (i.e. still in scope).
// found is true iff an existing entry matched. If none did and kind is
// Var, a new Var entry is quietly inserted (a tentative binding so parsing
// can continue after a reference to an undeclared name) and its index is
// returned with found false; otherwise 0 (the main block) is returned with
// found false.
func (t *Table) Search(name string, kind Kind) (ti int, found bool) {
	for i := t.tIndex; i >= 1; i-- {
		if e, ok := t.entries[i]; ok && e.name == name {
			return i, true
		}
	}
	if kind == Var {
		return t.EnterVar(name), false
	}
	return 0, false
}

// Kind returns the kind of the entry at table index ti. Panics if ti is not
// a valid entry: querying an undeclared index is a compiler bug, not a user
// error.
func (t *Table) Kind(ti int) Kind {
	e, ok := t.entries[ti]
	if !ok {
		panic("symtab: no such entry")
	}
	return e.kind
}

// RelAddr returns the address of a Var, Par, or Func entry. Panics on any
// other kind.
func (t *Table) RelAddr(ti int) RelAddr {
	e, ok := t.entries[ti]
	if !ok {
		panic("symtab: no such entry")
	}
	switch e.kind {
	case Var, Par:
		return e.addr
	case Func:
		return RelAddr{Level: e.addr.Level, Offset: e.entryAddr}
	default:
		panic("symtab: entry has no address")
	}
}

// Value returns the value of a Const entry. Panics on any other kind.
func (t *Table) Value(ti int) int {
	e, ok := t.entries[ti]
	if !ok || e.kind != Const {
		panic("symtab: entry is not a const")
	}
	return e.value
}

// ParamCount returns the parameter count of a Func entry. Panics on any
// other kind.
func (t *Table) ParamCount(ti int) int {
	e, ok := t.entries[ti]
	if !ok || e.kind != Func {
		panic("symtab: entry is not a func")
	}
	return e.paramCount
}
