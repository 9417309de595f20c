package compiler

import (
	"fmt"
	"testing"
)

func TestSymbolTable(t *testing.T) {
	t.Run("SlotAllocation", func(t *testing.T) {
		st := NewSymbolTable()

		// Slots are handed out in first-seen order, 4 bytes apart.
		if off := st.Slot("a"); off != 0 {
			t.Errorf("Slot(a): expected 0, got %d", off)
		}
		if off := st.Slot("b"); off != 4 {
			t.Errorf("Slot(b): expected 4, got %d", off)
		}
		if off := st.Slot("c"); off != 8 {
			t.Errorf("Slot(c): expected 8, got %d", off)
		}

		// Repeated names keep their slot.
		if off := st.Slot("a"); off != 0 {
			t.Errorf("Slot(a) again: expected 0, got %d", off)
		}
		if off := st.Slot("d"); off != 12 {
			t.Errorf("Slot(d): expected 12, got %d", off)
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		st := NewSymbolTable()
		st.Slot("x")

		if off, ok := st.Lookup("x"); !ok || off != 0 {
			t.Errorf("Lookup(x) = %d, %v; want 0, true", off, ok)
		}

		// Lookup never allocates.
		if _, ok := st.Lookup("missing"); ok {
			t.Errorf("Lookup(missing) succeeded, expected failure")
		}
		if off := st.Slot("y"); off != 4 {
			t.Errorf("Slot(y): expected 4, got %d", off)
		}
	})

	t.Run("Types", func(t *testing.T) {
		st := NewSymbolTable()

		if _, ok := st.TypeOf("x"); ok {
			t.Errorf("TypeOf(x) succeeded before any SetType")
		}

		st.SetType("x", TypeInt)
		if got, ok := st.TypeOf("x"); !ok || got != TypeInt {
			t.Errorf("TypeOf(x) = %v, %v; want Int, true", got, ok)
		}

		// Reassignment may change the type.
		st.SetType("x", TypeString)
		if got, _ := st.TypeOf("x"); got != TypeString {
			t.Errorf("TypeOf(x) after retype = %v; want String", got)
		}
	})

	t.Run("StringDump", func(t *testing.T) {
		st := NewSymbolTable()
		st.Slot("b")
		st.SetType("b", TypeInt)
		st.Slot("a")
		st.SetType("a", TypeString)

		// The dump is sorted by name regardless of allocation order.
		want := fmt.Sprintf("%-20s  %-6s  sp+%d\n", "a", TypeString, 4) +
			fmt.Sprintf("%-20s  %-6s  sp+%d\n", "b", TypeInt, 0)
		if got := st.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
		if st.String() != st.String() {
			t.Errorf("String() is not stable across calls")
		}
	})
}
