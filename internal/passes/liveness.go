package passes

import "vtilcore/internal/ir"

// regKey collapses a RegisterDescriptor to the identity (type, id) the
// dataflow analyses below key on, ignoring access width exactly like
// RegisterDescriptor.Equal.
type regKey struct {
	typ ir.RegisterType
	id  uint64
}

func keyOf(r ir.RegisterDescriptor) regKey { return regKey{typ: r.Type, id: r.ID} }

type regSet map[regKey]bool

func (s regSet) clone() regSet {
	c := make(regSet, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

func (s regSet) union(o regSet) regSet {
	for k := range o {
		s[k] = true
	}
	return s
}

func (s regSet) equal(o regSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}

// liveness holds, per block VIP, the set of registers live entering and
// leaving that block (classic backward may-be-used-later dataflow).
type liveness struct {
	liveIn  map[ir.VIP]regSet
	liveOut map[ir.VIP]regSet
}

// computeLiveness runs a fixed-point backward liveness analysis over
// the whole routine, which DeadCodeElimination's cross-block variant
// uses to answer "is this register read on some path forward from
// here".
func computeLiveness(r *ir.Routine) *liveness {
	blocks := r.Blocks()
	l := &liveness{liveIn: make(map[ir.VIP]regSet), liveOut: make(map[ir.VIP]regSet)}
	for _, b := range blocks {
		l.liveIn[b.VIP] = regSet{}
		l.liveOut[b.VIP] = regSet{}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			out := regSet{}
			for _, succVIP := range b.Successors() {
				out = out.union(l.liveIn[succVIP])
			}
			in := blockTransfer(b, out)
			if !in.equal(l.liveIn[b.VIP]) {
				l.liveIn[b.VIP] = in
				changed = true
			}
			if !out.equal(l.liveOut[b.VIP]) {
				l.liveOut[b.VIP] = out
				changed = true
			}
		}
	}
	return l
}

// blockTransfer computes live-in from live-out by scanning the block's
// instructions in reverse: a write kills the register (it is redefined
// before any use further up), a read generates it.
func blockTransfer(b *ir.BasicBlock, liveOut regSet) regSet {
	live := liveOut.clone()
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		instr := b.Instructions[i]
		if dst, ok := instr.Destination(); ok {
			delete(live, keyOf(dst))
		}
		for _, src := range instr.Sources() {
			live[keyOf(src)] = true
		}
	}
	return live
}

// liveAfter returns the set of registers live immediately after
// instruction index idx within block b, given the block's liveOut.
func liveAfter(b *ir.BasicBlock, idx int, liveOut regSet) regSet {
	live := liveOut.clone()
	for i := len(b.Instructions) - 1; i > idx; i-- {
		instr := b.Instructions[i]
		if dst, ok := instr.Destination(); ok {
			delete(live, keyOf(dst))
		}
		for _, src := range instr.Sources() {
			live[keyOf(src)] = true
		}
	}
	return live
}
