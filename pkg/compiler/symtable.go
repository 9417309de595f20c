package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// SymbolTable maps variable names to their stack slots and tracks the type
// each variable holds at the current point of the lowering. Offsets are
// handed out in first-assignment order, 4 bytes apart, and are never reused
// or reclaimed; the table lives for exactly one Generate call.
type SymbolTable struct {
	offsets map[string]int
	types   map[string]Type
	next    int // next free slot offset from sp
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		offsets: make(map[string]int),
		types:   make(map[string]Type),
	}
}

// Slot returns the stack offset for name, allocating the next free 4-byte
// slot the first time the name is seen.
func (st *SymbolTable) Slot(name string) int {
	if off, ok := st.offsets[name]; ok {
		return off
	}
	off := st.next
	st.offsets[name] = off
	st.next += 4
	return off
}

// Lookup returns the stack offset for name without allocating.
func (st *SymbolTable) Lookup(name string) (int, bool) {
	off, ok := st.offsets[name]
	return off, ok
}

// SetType records the type produced by the latest assignment to name.
// A reassignment may change it; reads between two assignments see the
// earlier type.
func (st *SymbolTable) SetType(name string, t Type) {
	st.types[name] = t
}

// TypeOf returns the recorded type for name.
func (st *SymbolTable) TypeOf(name string) (Type, bool) {
	t, ok := st.types[name]
	return t, ok
}

// String returns a deterministically ordered dump of the table.
func (st *SymbolTable) String() string {
	names := make([]string, 0, len(st.offsets))
	for name := range st.offsets {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%-20s  %-6s  sp+%d\n", name, st.types[name], st.offsets[name])
	}
	return sb.String()
}
