// Package rvsim interprets the subset of RV32IM text assembly that the Pine
// compiler emits, with the Venus simulator's syscall conventions. It exists
// so generated programs can be executed and their output observed in tests
// without an external simulator.
package rvsim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	dataBase = 0x10000000 // data segment origin, matching Venus
	spInit   = 0x7FFFF000 // initial stack pointer, well above the data segment
)

type instruction struct {
	op     string
	args   []string
	lineNo int
}

// Machine holds the state of one loaded program: registers, sparse byte
// memory, the decoded instruction list, and everything the program printed.
type Machine struct {
	regs   map[string]int32
	mem    map[uint32]byte
	prog   []instruction
	labels map[string]int    // text label -> instruction index
	data   map[string]uint32 // data label -> address
	pc     int
	out    strings.Builder

	Exited   bool
	ExitCode int32
}

// registers lists every register name the interpreter accepts. x0 reads as
// zero and ignores writes.
var registers = map[string]bool{
	"x0": true, "zero": true, "sp": true, "a0": true, "a1": true,
	"t0": true, "t1": true, "t2": true, "t3": true, "t4": true, "t5": true, "t6": true,
}

// rOps maps three-register instructions to their semantics.
var rOps = map[string]func(a, b int32) int32{
	"add":  func(a, b int32) int32 { return a + b },
	"sub":  func(a, b int32) int32 { return a - b },
	"mul":  func(a, b int32) int32 { return a * b },
	"div":  divRV,
	"and":  func(a, b int32) int32 { return a & b },
	"or":   func(a, b int32) int32 { return a | b },
	"xor":  func(a, b int32) int32 { return a ^ b },
	"sll":  func(a, b int32) int32 { return a << (uint32(b) & 31) },
	"sra":  func(a, b int32) int32 { return a >> (uint32(b) & 31) },
	"slt":  func(a, b int32) int32 { return boolToInt(a < b) },
	"sltu": func(a, b int32) int32 { return boolToInt(uint32(a) < uint32(b)) },
}

// iOps maps register-immediate instructions to their semantics.
var iOps = map[string]func(a, imm int32) int32{
	"addi":  func(a, imm int32) int32 { return a + imm },
	"xori":  func(a, imm int32) int32 { return a ^ imm },
	"sltiu": func(a, imm int32) int32 { return boolToInt(uint32(a) < uint32(imm)) },
}

// divRV implements RV32M signed division: divide-by-zero yields -1 and the
// overflow case MinInt32 / -1 yields MinInt32; neither traps.
func divRV(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == math.MinInt32 && b == -1 {
		return a
	}
	return a / b
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Load parses asmText into a ready-to-run Machine. It understands the
// .data/.text/.globl/.asciiz directives, resolves labels in both sections,
// and rejects undefined branch targets up front.
func Load(asmText string) (*Machine, error) {
	m := &Machine{
		regs:   map[string]int32{"sp": spInit},
		mem:    make(map[uint32]byte),
		labels: make(map[string]int),
		data:   make(map[string]uint32),
	}
	section := ".text"
	dataAddr := uint32(dataBase)

	for i, raw := range strings.Split(asmText, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if colon := strings.IndexByte(line, ':'); colon > 0 && isIdentifier(line[:colon]) {
			label := line[:colon]
			if section == ".data" {
				m.data[label] = dataAddr
			} else {
				if _, exists := m.labels[label]; exists {
					return nil, fmt.Errorf("line %d: duplicate label %q", lineNo, label)
				}
				m.labels[label] = len(m.prog)
			}
			line = strings.TrimSpace(line[colon+1:])
			if line == "" {
				continue
			}
		}

		switch {
		case line == ".data", line == ".text":
			section = line
		case strings.HasPrefix(line, ".globl"):
			// entry symbol declaration, nothing to resolve
		case strings.HasPrefix(line, ".asciiz"):
			if section != ".data" {
				return nil, fmt.Errorf("line %d: .asciiz outside .data section", lineNo)
			}
			s, err := unquoteAsciz(strings.TrimSpace(line[len(".asciiz"):]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			for _, b := range []byte(s) {
				m.mem[dataAddr] = b
				dataAddr++
			}
			m.mem[dataAddr] = 0 // terminating NUL
			dataAddr++
		case strings.HasPrefix(line, "."):
			return nil, fmt.Errorf("line %d: unknown directive %q", lineNo, line)
		default:
			if section != ".text" {
				return nil, fmt.Errorf("line %d: instruction outside .text section", lineNo)
			}
			fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
			m.prog = append(m.prog, instruction{op: fields[0], args: fields[1:], lineNo: lineNo})
		}
	}

	for _, ins := range m.prog {
		switch ins.op {
		case "j", "beq", "bne":
			if len(ins.args) == 0 {
				continue // operand count is checked at execution
			}
			target := ins.args[len(ins.args)-1]
			if _, ok := m.labels[target]; !ok {
				return nil, fmt.Errorf("line %d: undefined label %q", ins.lineNo, target)
			}
		case "la":
			if len(ins.args) == 2 {
				if _, ok := m.data[ins.args[1]]; !ok {
					return nil, fmt.Errorf("line %d: undefined data label %q", ins.lineNo, ins.args[1])
				}
			}
		}
	}
	return m, nil
}

// Run executes until the program exits via syscall or maxSteps instructions
// have retired, whichever comes first. Exhausting the budget is an error so
// that runaway loops fail tests instead of hanging them.
func (m *Machine) Run(maxSteps int) error {
	for steps := 0; !m.Exited; steps++ {
		if steps >= maxSteps {
			return fmt.Errorf("no exit after %d steps", maxSteps)
		}
		if m.pc < 0 || m.pc >= len(m.prog) {
			return fmt.Errorf("execution ran past the text segment (pc=%d)", m.pc)
		}
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

// Output returns everything the program printed so far.
func (m *Machine) Output() string {
	return m.out.String()
}

// Reg returns the current value of a register, for assertions in tests.
func (m *Machine) Reg(name string) int32 {
	if name == "x0" || name == "zero" {
		return 0
	}
	return m.regs[name]
}

func (m *Machine) step() error {
	ins := m.prog[m.pc]
	next := m.pc + 1

	if err := m.exec(ins, &next); err != nil {
		return fmt.Errorf("line %d: %s: %v", ins.lineNo, ins.op, err)
	}
	m.pc = next
	return nil
}

func (m *Machine) exec(ins instruction, next *int) error {
	if want, ok := operandCount(ins.op); !ok {
		return fmt.Errorf("unknown instruction")
	} else if len(ins.args) != want {
		return fmt.Errorf("expected %d operands, got %d", want, len(ins.args))
	}

	if fn, ok := rOps[ins.op]; ok {
		a, err := m.reg(ins.args[1])
		if err != nil {
			return err
		}
		b, err := m.reg(ins.args[2])
		if err != nil {
			return err
		}
		return m.setReg(ins.args[0], fn(a, b))
	}
	if fn, ok := iOps[ins.op]; ok {
		a, err := m.reg(ins.args[1])
		if err != nil {
			return err
		}
		imm, err := immediate(ins.args[2])
		if err != nil {
			return err
		}
		return m.setReg(ins.args[0], fn(a, imm))
	}

	switch ins.op {
	case "li":
		imm, err := immediate(ins.args[1])
		if err != nil {
			return err
		}
		return m.setReg(ins.args[0], imm)

	case "la":
		addr, ok := m.data[ins.args[1]]
		if !ok {
			return fmt.Errorf("undefined data label %q", ins.args[1])
		}
		return m.setReg(ins.args[0], int32(addr))

	case "mv":
		v, err := m.reg(ins.args[1])
		if err != nil {
			return err
		}
		return m.setReg(ins.args[0], v)

	case "not":
		v, err := m.reg(ins.args[1])
		if err != nil {
			return err
		}
		return m.setReg(ins.args[0], ^v)

	case "lw":
		addr, err := m.memAddress(ins.args[1])
		if err != nil {
			return err
		}
		return m.setReg(ins.args[0], m.readWord(addr))

	case "sw":
		addr, err := m.memAddress(ins.args[1])
		if err != nil {
			return err
		}
		v, err := m.reg(ins.args[0])
		if err != nil {
			return err
		}
		m.writeWord(addr, v)
		return nil

	case "beq", "bne":
		a, err := m.reg(ins.args[0])
		if err != nil {
			return err
		}
		b, err := m.reg(ins.args[1])
		if err != nil {
			return err
		}
		taken := a == b
		if ins.op == "bne" {
			taken = !taken
		}
		if taken {
			*next = m.labels[ins.args[2]]
		}
		return nil

	case "j":
		*next = m.labels[ins.args[0]]
		return nil

	case "ecall":
		return m.syscall()
	}
	return fmt.Errorf("unknown instruction")
}

// operandCount returns how many operands op takes.
func operandCount(op string) (int, bool) {
	if _, ok := rOps[op]; ok {
		return 3, true
	}
	if _, ok := iOps[op]; ok {
		return 3, true
	}
	switch op {
	case "ecall":
		return 0, true
	case "j":
		return 1, true
	case "li", "la", "mv", "not", "lw", "sw":
		return 2, true
	case "beq", "bne":
		return 3, true
	}
	return 0, false
}

// syscall dispatches an ecall using the Venus convention: syscall number in
// a0, argument in a1.
func (m *Machine) syscall() error {
	switch n := m.regs["a0"]; n {
	case 1: // print_int
		fmt.Fprintf(&m.out, "%d", m.regs["a1"])
	case 4: // print_string
		addr := uint32(m.regs["a1"])
		for m.mem[addr] != 0 {
			m.out.WriteByte(m.mem[addr])
			addr++
		}
	case 10: // exit
		m.Exited = true
		m.ExitCode = 0
	case 11: // print_character
		m.out.WriteRune(rune(m.regs["a1"]))
	case 17: // exit2
		m.Exited = true
		m.ExitCode = m.regs["a1"]
	default:
		return fmt.Errorf("unknown syscall %d", n)
	}
	return nil
}

func (m *Machine) reg(tok string) (int32, error) {
	if !registers[tok] {
		return 0, fmt.Errorf("invalid register %q", tok)
	}
	if tok == "x0" || tok == "zero" {
		return 0, nil
	}
	return m.regs[tok], nil
}

func (m *Machine) setReg(tok string, v int32) error {
	if !registers[tok] {
		return fmt.Errorf("invalid register %q", tok)
	}
	if tok == "x0" || tok == "zero" {
		return nil
	}
	m.regs[tok] = v
	return nil
}

// memAddress resolves an "offset(base)" operand to an absolute address.
func (m *Machine) memAddress(tok string) (uint32, error) {
	open := strings.IndexByte(tok, '(')
	if open < 0 || !strings.HasSuffix(tok, ")") {
		return 0, fmt.Errorf("invalid memory operand %q", tok)
	}
	offset, err := strconv.ParseInt(tok[:open], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid offset in %q", tok)
	}
	base, err := m.reg(tok[open+1 : len(tok)-1])
	if err != nil {
		return 0, err
	}
	return uint32(base + int32(offset)), nil
}

// immediate parses a numeric operand or a single-quoted character literal
// such as '\n'.
func immediate(tok string) (int32, error) {
	if strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'") && len(tok) >= 3 {
		body := tok[1 : len(tok)-1]
		if body == `\n` {
			return '\n', nil
		}
		if body == `\t` {
			return '\t', nil
		}
		r := []rune(body)
		if len(r) == 1 {
			return int32(r[0]), nil
		}
		return 0, fmt.Errorf("invalid character literal %s", tok)
	}
	v, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q", tok)
	}
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, fmt.Errorf("immediate out of range: %s", tok)
	}
	return int32(v), nil
}

func (m *Machine) readWord(addr uint32) int32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.mem[addr+i]) << (8 * i)
	}
	return int32(v)
}

func (m *Machine) writeWord(addr uint32, v int32) {
	for i := uint32(0); i < 4; i++ {
		m.mem[addr+i] = byte(uint32(v) >> (8 * i))
	}
}

// stripComment removes a '#' comment, ignoring '#' characters inside quoted
// strings so .asciiz text survives intact.
func stripComment(line string) string {
	inQuote := false
	escaped := false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == '#' && !inQuote:
			return line[:i]
		}
	}
	return line
}

// unquoteAsciz decodes the quoted operand of an .asciiz directive,
// reversing the escapes the compiler emits: the two-character forms for
// backslash, quote, newline, tab, and carriage return plus \xHH hex
// escapes.
func unquoteAsciz(tok string) (string, error) {
	if len(tok) < 2 || !strings.HasPrefix(tok, `"`) || !strings.HasSuffix(tok, `"`) {
		return "", fmt.Errorf("invalid .asciiz operand %s", tok)
	}
	body := []rune(tok[1 : len(tok)-1])
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		r := body[i]
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in .asciiz operand")
		}
		switch body[i] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'x':
			j := i + 1
			for j < len(body) && isHexDigit(body[j]) {
				j++
			}
			if j == i+1 {
				return "", fmt.Errorf("invalid hex escape in .asciiz operand")
			}
			v, err := strconv.ParseUint(string(body[i+1:j]), 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid hex escape in .asciiz operand")
			}
			b.WriteRune(rune(v))
			i = j - 1
		default:
			return "", fmt.Errorf("unknown escape \\%c in .asciiz operand", body[i])
		}
	}
	return b.String(), nil
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
