package passes

import "vtilcore/internal/ir"

// BranchCorrection resolves branches whose targets simplify to
// constants and collapses tautologies/contradictions in conditional
// branches. It mutates the CFG (an untaken edge is torn down), so it
// only runs as RunCross under the routine lock.
type BranchCorrection struct{ basePass }

func NewBranchCorrection() *BranchCorrection { return &BranchCorrection{} }

func (*BranchCorrection) Name() string                   { return "branch_correction" }
func (*BranchCorrection) ExecutionOrder() ExecutionOrder { return Serial }
func (*BranchCorrection) MutatesCFG() bool               { return true }

func (p *BranchCorrection) RunCross(r *ir.Routine) (uint32, error) {
	if err := checkEdgeSymmetry(r); err != nil {
		return 0, err
	}
	var count uint32
	for _, b := range r.Blocks() {
		n, err := p.resolveBlock(r, b)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

// resolveBlock looks for a `jcc cond, trueVIP, falseVIP` as the block's
// terminator whose cond register was just assigned a constant 0/1 by
// the immediately preceding `movi` in the same block (the only
// constant-provenance this pass can see without re-running the
// simplifier over a full symbolic trace of the block, which is
// SymbolicRewrite's job, not this pass's).
func (p *BranchCorrection) resolveBlock(r *ir.Routine, b *ir.BasicBlock) (uint32, error) {
	n := len(b.Instructions)
	if n == 0 {
		return 0, nil
	}
	term := b.Instructions[n-1]
	if term.Descriptor.Name != "jcc" || len(term.Operands) != 3 {
		return 0, nil
	}
	condReg, ok := term.Operands[0].RegisterDescriptor()
	if !ok {
		return 0, nil
	}
	if n < 2 {
		return 0, nil
	}
	prev := b.Instructions[n-2]
	if prev.Descriptor.Name != "movi" || len(prev.Operands) != 2 {
		return 0, nil
	}
	prevDst, ok := prev.Operands[0].RegisterDescriptor()
	if !ok || !prevDst.Equal(condReg) {
		return 0, nil
	}
	val, ok := prev.Operands[1].ImmediateValue()
	if !ok {
		return 0, nil
	}

	trueVIP := ir.VIP(mustUint64(term.Operands[1]))
	falseVIP := ir.VIP(mustUint64(term.Operands[2]))
	takenVIP, droppedVIP := falseVIP, trueVIP
	if !val.IsZero() {
		takenVIP, droppedVIP = trueVIP, falseVIP
	}

	jmp, err := ir.NewInstruction(ir.Descriptors["jmp"], []ir.Operand{ir.Immediate(mustImm(takenVIP), 64)}, term.AccessSize)
	if err != nil {
		return 0, err
	}
	if err := b.ReplaceInstruction(n-1, jmp); err != nil {
		return 0, err
	}
	if dropped, err := r.Block(droppedVIP); err == nil {
		_ = b.RemoveSuccessor(dropped)
	}
	return 1, nil
}
