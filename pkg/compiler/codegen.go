package compiler

import (
	"fmt"
	"strings"
)

// frameSize is the fixed stack frame reserved by main: 128 bytes of
// variable slots (32 variables) below spillBase, spill slots above it.
// Programs that need more variables or deeper expressions than that are
// outside the supported size; the frame never grows.
const frameSize = 512

// CodeGen walks a type-checked Program and emits RISC-V assembly text for
// the Venus simulator. One instance serves exactly one Generate call; the
// label counters, register pool, and string pool all live on the instance,
// so concurrent compilations cannot interfere.
type CodeGen struct {
	out          strings.Builder
	syms         *SymbolTable
	regs         *regPool
	strs         map[string]string // string value -> data label
	strOrder     []string          // values in first-seen order
	whileCounter int
	ifCounter    int
	spillOffset  int
}

func newCodeGen() *CodeGen {
	return &CodeGen{
		syms:        NewSymbolTable(),
		regs:        newRegPool(),
		strs:        make(map[string]string),
		spillOffset: spillBase,
	}
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

// nl emits a blank separator line.
func (cg *CodeGen) nl() {
	cg.out.WriteByte('\n')
}

// stringLabel interns s in the string pool and returns its label. Labels
// are handed out in first-seen order so that emission is reproducible.
func (cg *CodeGen) stringLabel(s string) string {
	if label, ok := cg.strs[s]; ok {
		return label
	}
	label := fmt.Sprintf("str%d", len(cg.strs))
	cg.strs[s] = label
	cg.strOrder = append(cg.strOrder, s)
	return label
}

// escapeAsciz escapes s for a Venus .asciiz directive. Backslash, quote,
// newline, tab, and carriage return become two-character escapes; anything
// else outside the printable ASCII range becomes a \xHH escape.
func escapeAsciz(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == ' ' || (c >= 0x21 && c <= 0x7E):
			b.WriteRune(c)
		default:
			fmt.Fprintf(&b, `\x%02X`, c)
		}
	}
	return b.String()
}

// Generate lowers prog and returns the complete assembly text. It cannot
// fail on input that passed the parser; an inconsistency that would break
// the parser's guarantees panics instead of returning an error.
func Generate(prog *Program) string {
	cg := newCodeGen()
	cg.line("  .text")
	cg.line("  .globl main")
	cg.line("main:")
	cg.line("  addi sp, sp, -%d # Set up stack frame", frameSize)
	cg.nl()

	for _, stmt := range prog.Stmts {
		cg.genStmt(stmt)
		cg.nl()
	}

	cg.line("  # Exit with code 0")
	cg.line("  li a1, 0 # Exit code 0")
	cg.line("  li a0, 17 # Syscall 17: exit2")
	cg.line("  ecall")

	// The data section comes first in the final text, but its contents are
	// only known once every statement has been lowered.
	var b strings.Builder
	b.WriteString("  .data\n")
	for _, s := range cg.strOrder {
		fmt.Fprintf(&b, "%s: .asciiz \"%s\"\n", cg.strs[s], escapeAsciz(s))
	}
	b.WriteByte('\n')
	b.WriteString(cg.out.String())
	return b.String()
}

func (cg *CodeGen) genStmt(stmt Stmt) {
	switch n := stmt.(type) {
	case *Assignment:
		reg := cg.genExpr(n.Value)
		cg.syms.SetType(n.Name, cg.inferType(n.Value))
		offset := cg.syms.Slot(n.Name)
		cg.line("  sw %s, %d(sp) # Store variable %s", reg, offset, n.Name)
		cg.freeReg(reg)

	case *ExitStmt:
		if n.Code != nil {
			reg := cg.genExpr(n.Code)
			cg.line("  mv a1, %s # exit code", reg)
			cg.line("  li a0, 17 # Syscall 17: exit2")
			cg.freeReg(reg)
		} else {
			cg.line("  li a0, 10 # Syscall 10: exit")
		}
		cg.line("  ecall")

	case *PrintStmt:
		cg.genPrint(n.Expr, false)

	case *PrintlnStmt:
		if n.Expr != nil {
			cg.genPrint(n.Expr, true)
		} else {
			cg.genNewline()
		}

	case *WhileStmt:
		count := cg.whileCounter
		cg.whileCounter++
		start := fmt.Sprintf("W%d_start", count)
		end := fmt.Sprintf("W%d_end", count)
		cg.line("%s:", start)
		reg := cg.genExpr(n.Condition)
		cg.line("  beq %s, x0, %s", reg, end)
		cg.freeReg(reg)
		for _, s := range n.Body {
			cg.genStmt(s)
		}
		cg.line("  j %s", start)
		cg.line("%s:", end)

	case *IfStmt:
		count := cg.ifCounter
		cg.ifCounter++
		elseLabel := fmt.Sprintf("IF%d_else", count)
		endLabel := fmt.Sprintf("IF%d_end", count)
		reg := cg.genExpr(n.Condition)
		if n.ElseBody != nil {
			cg.line("  beq %s, x0, %s # Jump to else branch if condition is false", reg, elseLabel)
		} else {
			cg.line("  beq %s, x0, %s # Jump to end if condition is false", reg, endLabel)
		}
		cg.freeReg(reg)
		for _, s := range n.Body {
			cg.genStmt(s)
		}
		if n.ElseBody != nil {
			cg.line("  j %s # Skip else block", endLabel)
			cg.line("%s:", elseLabel)
			for _, s := range n.ElseBody {
				cg.genStmt(s)
			}
		}
		cg.line("%s:", endLabel)

	default:
		panic(fmt.Sprintf("compiler: unhandled statement node %T", stmt))
	}
}

// inferType mirrors the parser's type derivation but reads the codegen-side
// table, which tracks each variable's type at the current point of the
// lowering: a print before a reassignment sees the type the variable had
// there, not the one from the parser's final table.
func (cg *CodeGen) inferType(e Expr) Type {
	switch n := e.(type) {
	case *Literal:
		return TypeInt
	case *StringLiteral:
		return TypeString
	case *VarRef:
		t, ok := cg.syms.TypeOf(n.Name)
		if !ok {
			panic(fmt.Sprintf("compiler: variable %q type not tracked", n.Name))
		}
		return t
	case *BinaryExpr:
		return TypeInt
	case *UnaryExpr:
		return TypeInt
	}
	panic(fmt.Sprintf("compiler: unhandled expression node %T", e))
}

// genNewline emits the print_character syscall for a single '\n'.
func (cg *CodeGen) genNewline() {
	cg.line(`  li a1, '\n' # Load newline char`)
	cg.line("  li a0, 11 # Syscall 11: print_character")
	cg.line("  ecall")
}

// genPrint dispatches on the expression's type: strings go through the
// print_string syscall (by pooled label for literals, by stored address for
// variables), everything else through print_int.
func (cg *CodeGen) genPrint(expr Expr, newline bool) {
	switch cg.inferType(expr) {
	case TypeString:
		switch n := expr.(type) {
		case *StringLiteral:
			label := cg.stringLabel(n.Value)
			cg.line("  la a1, %s # Load string %s", label, escapeAsciz(n.Value))
			cg.line("  li a0, 4 # Syscall 4: print_string")
			cg.line("  ecall")
		case *VarRef:
			reg := cg.genExpr(expr)
			cg.line("  mv a1, %s # Load string from variable %s", reg, n.Name)
			cg.line("  li a0, 4 # Syscall 4: print_string")
			cg.line("  ecall")
			cg.freeReg(reg)
		default:
			panic(fmt.Sprintf("compiler: string-typed %T cannot be printed", expr))
		}
	case TypeInt:
		reg := cg.genExpr(expr)
		cg.line("  mv a1, %s # Expression to print", reg)
		cg.line("  li a0, 1 # Syscall 1: print_int")
		cg.line("  ecall")
		cg.freeReg(reg)
	}

	if newline {
		cg.genNewline()
	}
}

// genExpr lowers e post-order and returns the register holding its value.
// The caller owns that register and must hand it back through freeReg.
func (cg *CodeGen) genExpr(e Expr) string {
	switch n := e.(type) {
	case *Literal:
		reg := cg.allocReg()
		cg.line("  li %s, %d # Load immediate %d", reg, n.Value, n.Value)
		return reg

	case *VarRef:
		offset, ok := cg.syms.Lookup(n.Name)
		if !ok {
			panic(fmt.Sprintf("compiler: variable %q not stored", n.Name))
		}
		reg := cg.allocReg()
		cg.line("  lw %s, %d(sp) # Load variable %s", reg, offset, n.Name)
		return reg

	case *StringLiteral:
		reg := cg.allocReg()
		label := cg.stringLabel(n.Value)
		cg.line("  la %s, %s # Store string %q", reg, label, escapeAsciz(n.Value))
		return reg

	case *BinaryExpr:
		leftReg := cg.genExpr(n.Left)
		rightReg := cg.genExpr(n.Right)
		resultReg := cg.allocReg()
		cg.genBinaryOp(n.Op, resultReg, leftReg, rightReg)
		cg.freeReg(leftReg)
		cg.freeReg(rightReg)
		return resultReg

	case *UnaryExpr:
		reg := cg.genExpr(n.Right)
		switch n.Op {
		case NOT:
			cg.line("  sltiu %s, %s, 1", reg, reg)
		case MINUS:
			cg.line("  sub %s, x0, %s", reg, reg)
		case TILDE:
			cg.line("  not %s, %s", reg, reg)
		default:
			panic(fmt.Sprintf("compiler: unhandled unary operator %s", n.Op))
		}
		return reg
	}
	panic(fmt.Sprintf("compiler: unhandled expression node %T", e))
}

// genBinaryOp emits the instruction sequence for op into res. Comparison
// and logical results are normalized to exactly 0 or 1 with a final
// sltu-against-zero; bitwise ops and shifts map straight to their
// instruction and keep the raw value.
func (cg *CodeGen) genBinaryOp(op TokenType, res, left, right string) {
	switch op {
	case PLUS:
		cg.line("  add %s, %s, %s # addition", res, left, right)
	case MINUS:
		cg.line("  sub %s, %s, %s # subtraction", res, left, right)
	case STAR:
		cg.line("  mul %s, %s, %s # multiplication", res, left, right)
	case SLASH:
		cg.line("  div %s, %s, %s # division", res, left, right)
	case LESS:
		cg.line("  slt %s, %s, %s # left < right", res, left, right)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case LESS_EQ:
		cg.line("  slt %s, %s, %s # right < left", res, right, left)
		cg.line("  xori %s, %s, 1 # For <=", res, res)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case GREATER:
		cg.line("  slt %s, %s, %s # right < left", res, right, left)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case GREATER_EQ:
		cg.line("  slt %s, %s, %s # left < right", res, left, right)
		cg.line("  xori %s, %s, 1 # For >=", res, res)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case EQUALS:
		cg.line("  sub %s, %s, %s # diff = left - right", res, left, right)
		cg.line("  sltu %s, x0, %s # (diff != 0)", res, res)
		cg.line("  xori %s, %s, 1 # !(diff != 0) -> (diff == 0)", res, res)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case NOT_EQ:
		cg.line("  sub %s, %s, %s # diff = left - right", res, left, right)
		cg.line("  sltu %s, x0, %s # diff != 0", res, res)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case AND_LOGICAL:
		cg.line("  and %s, %s, %s # Logical and", res, left, right)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case OR_LOGICAL:
		cg.line("  or %s, %s, %s # Logical or", res, left, right)
		cg.line("  sltu %s, x0, %s # Normalize result", res, res)
	case AND:
		cg.line("  and %s, %s, %s", res, left, right)
	case PIPE:
		cg.line("  or %s, %s, %s", res, left, right)
	case CARET:
		cg.line("  xor %s, %s, %s", res, left, right)
	case SHL_OP:
		cg.line("  sll %s, %s, %s", res, left, right)
	case SHR_OP:
		cg.line("  sra %s, %s, %s", res, left, right)
	default:
		panic(fmt.Sprintf("compiler: unhandled binary operator %s", op))
	}
}
