package compiler

// regPool hands out the seven temporary registers as a LIFO free list.
// Pop takes from the tail, so a fresh pool yields t6 first and t0 last.
type regPool struct {
	free []string
}

func newRegPool() *regPool {
	return &regPool{free: []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"}}
}

// pop removes and returns the most recently freed register, or "" when the
// pool is empty.
func (rp *regPool) pop() string {
	if len(rp.free) == 0 {
		return ""
	}
	reg := rp.free[len(rp.free)-1]
	rp.free = rp.free[:len(rp.free)-1]
	return reg
}

// push returns reg to the pool.
func (rp *regPool) push(reg string) {
	rp.free = append(rp.free, reg)
}

// spillBase is the stack offset of the first spill slot, just past the
// variable slots at the bottom of the frame.
const spillBase = 128

// allocReg takes a register from the pool. When the pool is empty it spills
// t0 to the next spill slot and reuses t0. Spilled values are never
// restored: a temporary is consumed immediately after it is produced, so by
// the time t0 is recycled its previous value has already been folded into a
// parent operation or stored.
func (cg *CodeGen) allocReg() string {
	if reg := cg.regs.pop(); reg != "" {
		return reg
	}
	victim := "t0"
	cg.line("  sw %s, %d(sp) # Spill %s to stack", victim, cg.spillOffset, victim)
	cg.spillOffset += 4
	return victim
}

// freeReg returns reg to the pool once its value has been consumed. Every
// allocReg must be matched by exactly one freeReg on every code path.
func (cg *CodeGen) freeReg(reg string) {
	cg.regs.push(reg)
}
