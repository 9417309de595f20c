package compiler

import (
	"strings"
	"testing"
)

func TestGenerate_WhileLoop(t *testing.T) {
	code := generate(t, "x = 0 while x < 3 { x = x + 1 }")

	assertContains(t, code, "W0_start:")
	assertContains(t, code, "W0_end:")
	assertContains(t, code, "  beq t4, x0, W0_end")
	assertContains(t, code, "  j W0_start")

	// The condition is re-evaluated at the top of every iteration, so the
	// start label comes before the condition's first instruction.
	start := strings.Index(code, "W0_start:")
	cond := strings.Index(code, "  lw t6, 0(sp) # Load variable x")
	if start == -1 || cond == -1 || start > cond {
		t.Errorf("Expected the loop label before the condition load.\nCode:\n%s", code)
	}
}

func TestGenerate_NestedWhileLabels(t *testing.T) {
	code := generate(t, `
i = 0
while i < 2 {
  j = 0
  while j < 2 {
    j = j + 1
  }
  i = i + 1
}
`)

	// Inner and outer loops get distinct counters.
	assertContains(t, code, "W0_start:")
	assertContains(t, code, "W0_end:")
	assertContains(t, code, "W1_start:")
	assertContains(t, code, "W1_end:")

	for _, label := range []string{"W0_start:", "W0_end:", "W1_start:", "W1_end:"} {
		if n := strings.Count(code, "\n"+label); n != 1 {
			t.Errorf("Expected label %q exactly once, got %d.\nCode:\n%s", label, n, code)
		}
	}
}

func TestGenerate_IfWithoutElse(t *testing.T) {
	code := generate(t, "x = 1 if x { print x }")

	assertContains(t, code, "  beq t6, x0, IF0_end # Jump to end if condition is false")
	assertContains(t, code, "IF0_end:")

	// No else branch, so no else label and no jump over one.
	assertNotContains(t, code, "IF0_else")
	assertNotContains(t, code, "Skip else block")
}

func TestGenerate_IfElse(t *testing.T) {
	code := generate(t, "x = 1 if x { print 1 } else { print 2 }")

	assertContains(t, code, "  beq t6, x0, IF0_else # Jump to else branch if condition is false")
	assertContains(t, code, "  j IF0_end # Skip else block")
	assertContains(t, code, "IF0_else:")
	assertContains(t, code, "IF0_end:")

	// Then branch, jump, else label, else branch, end label, in that order.
	jump := strings.Index(code, "  j IF0_end # Skip else block")
	elseLabel := strings.Index(code, "IF0_else:")
	endLabel := strings.Index(code, "IF0_end:")
	if !(jump < elseLabel && elseLabel < endLabel) {
		t.Errorf("Expected jump, else label, end label in order.\nCode:\n%s", code)
	}
}

func TestGenerate_SiblingIfLabels(t *testing.T) {
	code := generate(t, "x = 1 if x { print 1 } if x { print 2 }")

	assertContains(t, code, "IF0_end:")
	assertContains(t, code, "IF1_end:")
}

func TestGenerate_IfInsideWhile(t *testing.T) {
	// While and if counters are independent.
	code := generate(t, `
x = 0
while x < 4 {
  if x == 2 {
    print x
  }
  x = x + 1
}
`)

	assertContains(t, code, "W0_start:")
	assertContains(t, code, "W0_end:")
	assertContains(t, code, "IF0_end:")
	assertNotContains(t, code, "W1_")
	assertNotContains(t, code, "IF1_")
}

func TestGenerate_EmptyElse(t *testing.T) {
	// An empty else block still produces the else-shaped layout.
	code := generate(t, "x = 1 if x { print x } else { }")

	assertContains(t, code, "  beq t6, x0, IF0_else # Jump to else branch if condition is false")
	assertContains(t, code, "IF0_else:")
	assertContains(t, code, "IF0_end:")
}

func TestGenerate_ConditionRegisterFreed(t *testing.T) {
	// The condition's register is released before the body runs, so body
	// statements draw recycled registers instead of draining the pool.
	code := generate(t, "x = 1 if x < 2 { y = 3 + 4 }")

	// Condition uses t6, t5, t4; the body pops them back in LIFO order.
	assertContains(t, code, "  slt t4, t6, t5 # left < right")
	assertContains(t, code, "  li t4, 3 # Load immediate 3")
	assertContains(t, code, "  li t5, 4 # Load immediate 4")
	assertContains(t, code, "  add t6, t4, t5 # addition")
	assertNotContains(t, code, "Spill")
}
