package passes

import "vtilcore/internal/ir"

// BasicBlockThunkRemoval removes blocks whose only content is an
// unconditional jump, retargeting every predecessor directly at the
// thunk's single successor. The entry block and blocks with no
// predecessors are not treated as thunks.
type BasicBlockThunkRemoval struct{ basePass }

func NewBasicBlockThunkRemoval() *BasicBlockThunkRemoval { return &BasicBlockThunkRemoval{} }

func (*BasicBlockThunkRemoval) Name() string                   { return "basic_block_thunk_removal" }
func (*BasicBlockThunkRemoval) ExecutionOrder() ExecutionOrder { return Serial }
func (*BasicBlockThunkRemoval) MutatesCFG() bool               { return true }

func (p *BasicBlockThunkRemoval) RunCross(r *ir.Routine) (uint32, error) {
	if err := checkEdgeSymmetry(r); err != nil {
		return 0, err
	}
	var count uint32
	for _, t := range r.Blocks() {
		if len(t.Instructions) != 1 || t.Instructions[0].Descriptor.Name != "jmp" {
			continue
		}
		succs := t.Successors()
		if len(succs) != 1 || succs[0] == t.VIP {
			continue
		}
		if entry, ok := r.EntryBlock(); ok && entry.VIP == t.VIP {
			continue
		}
		if len(t.Predecessors()) == 0 {
			continue
		}
		target, err := r.Block(succs[0])
		if err != nil {
			continue
		}
		for _, predVIP := range t.Predecessors() {
			pred, err := r.Block(predVIP)
			if err != nil {
				continue
			}
			if err := pred.RemoveSuccessor(t); err != nil {
				return count, err
			}
			if err := pred.AddSuccessor(target); err != nil {
				return count, err
			}
			retargetBranchOperands(pred, t.VIP, target.VIP)
		}
		if err := t.RemoveSuccessor(target); err != nil {
			return count, err
		}
		if err := r.RemoveBlock(t.VIP); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// retargetBranchOperands rewrites any jmp/jcc immediate operand in pred
// that names the thunk's VIP to name the thunk's target instead, so the
// instruction stream agrees with the CFG edges updated above.
func retargetBranchOperands(pred *ir.BasicBlock, from, to ir.VIP) {
	for idx, instr := range pred.Instructions {
		bi := instr.Descriptor.BranchOperandIndex
		if bi < 0 || bi >= len(instr.Operands) {
			continue
		}
		op := instr.Operands[bi]
		v, ok := op.ImmediateValue()
		if !ok || ir.VIP(v.Unsigned(64).Uint64()) != from {
			continue
		}
		newOperands := append([]ir.Operand{}, instr.Operands...)
		newOperands[bi] = ir.Immediate(mustImm(to), op.Size())
		replaced, err := ir.NewInstruction(instr.Descriptor, newOperands, instr.AccessSize)
		if err != nil {
			continue
		}
		_ = pred.ReplaceInstruction(idx, replaced)
	}
}
