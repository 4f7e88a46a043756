package passes

import "vtilcore/internal/ir"

// DeadCodeElimination removes instructions whose writes are provably
// unused on all paths to any exit and which have no observable side
// effects: not volatile, not a memory write, not a branch. It never
// increases instruction count; every transformation here is a pure
// removal.
type DeadCodeElimination struct{ basePass }

func NewDeadCodeElimination() *DeadCodeElimination { return &DeadCodeElimination{} }

func (*DeadCodeElimination) Name() string                   { return "dead_code_elimination" }
func (*DeadCodeElimination) ExecutionOrder() ExecutionOrder { return ParallelBFS }

// RunCross performs the cross-block variant: liveness is computed over
// the whole routine once, then each block is scanned independently
// using its own live-out set.
func (p *DeadCodeElimination) RunCross(r *ir.Routine) (uint32, error) {
	l := computeLiveness(r)
	var total uint32
	for _, b := range r.Blocks() {
		n, err := p.runOnBlock(b, l.liveOut[b.VIP])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Run implements the local (crossBlock=false) contract: with no
// cross-block liveness information it uses intraBlockExitLive as the
// block's live-out set, so it can only remove writes that are dead
// *within* the block itself.
func (p *DeadCodeElimination) Run(block *ir.BasicBlock, crossBlock bool) (uint32, error) {
	if !crossBlock {
		return p.runOnBlock(block, intraBlockExitLive(block))
	}
	return 0, nil
}

// intraBlockExitLive approximates "live at block exit" when no
// cross-block liveness is available. A block with no successors has
// nothing live at exit, as in the routine-wide analysis; otherwise
// every register the block's own instructions read or write is treated
// as potentially live at exit, so a value a successor may read is
// never removed.
func intraBlockExitLive(b *ir.BasicBlock) regSet {
	live := regSet{}
	if len(b.Successors()) == 0 {
		return live
	}
	for _, instr := range b.Instructions {
		if dst, ok := instr.Destination(); ok {
			live[keyOf(dst)] = true
		}
		for _, src := range instr.Sources() {
			live[keyOf(src)] = true
		}
	}
	return live
}

func (p *DeadCodeElimination) runOnBlock(b *ir.BasicBlock, liveOut regSet) (uint32, error) {
	var removed uint32
	live := liveOut.clone()
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		instr := b.Instructions[i]
		dst, hasDst := instr.Destination()
		dead := hasDst && !instr.HasSideEffects() && !live[keyOf(dst)]
		if dead {
			if err := b.RemoveInstruction(i); err != nil {
				return removed, err
			}
			removed++
			continue
		}
		if hasDst {
			delete(live, keyOf(dst))
		}
		for _, src := range instr.Sources() {
			live[keyOf(src)] = true
		}
	}
	return removed, nil
}
