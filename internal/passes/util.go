package passes

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/errtag"
	"vtilcore/internal/ir"
)

// checkEdgeSymmetry verifies that every successor/predecessor pair in
// the routine is reciprocal before a CFG-mutating pass starts rewriting
// edges. An asymmetric edge is a state no correct caller can produce,
// so the pass leaves the routine untouched and reports the violation
// for the pipeline to log instead of rewriting on top of it.
func checkEdgeSymmetry(r *ir.Routine) error {
	blocks := r.Blocks()
	byVIP := make(map[ir.VIP]*ir.BasicBlock, len(blocks))
	for _, b := range blocks {
		byVIP[b.VIP] = b
	}
	for _, b := range blocks {
		for _, s := range b.Successors() {
			succ, ok := byVIP[s]
			if !ok || !hasVIP(succ.Predecessors(), b.VIP) {
				return errtag.InvariantViolationf("edge %d -> %d has no reciprocal predecessor link", b.VIP, s)
			}
		}
		for _, pv := range b.Predecessors() {
			pred, ok := byVIP[pv]
			if !ok || !hasVIP(pred.Successors(), b.VIP) {
				return errtag.InvariantViolationf("edge %d <- %d has no reciprocal successor link", b.VIP, pv)
			}
		}
	}
	return nil
}

func hasVIP(list []ir.VIP, v ir.VIP) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// mustUint64 reads an Immediate operand's unsigned value, used for
// target VIPs encoded as jump/branch operands. Callers only ever pass
// operands already validated as immediates by the instruction
// descriptor's OperandTypes, so this never needs an ok-form.
func mustUint64(op ir.Operand) uint64 {
	v, _ := op.ImmediateValue()
	return v.Unsigned(64).Uint64()
}

// mustImm builds the bv.Int encoding of a VIP for use as a jump-target
// immediate operand.
func mustImm(vip ir.VIP) bv.Int {
	return bv.FromUint64(uint64(vip), 64)
}

// mustSignedImm builds the bv.Int encoding of a signed displacement at
// the given width, used by StackPinning to emit a resolved stack offset.
func mustSignedImm(v int64, size bv.Bitcount) bv.Int {
	return bv.FromInt64(v, size)
}
