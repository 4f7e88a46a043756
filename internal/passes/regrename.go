package passes

import "vtilcore/internal/ir"

// RegisterRenaming gives internal (virtual) registers whose written
// value is dead by the end of the block a fresh name. It never alters
// instruction count and preserves data-flow equivalence: it
// only rewrites Operand register descriptors in place, never adds or
// removes an Instruction.
type RegisterRenaming struct{ basePass }

func NewRegisterRenaming() *RegisterRenaming { return &RegisterRenaming{} }

func (*RegisterRenaming) Name() string                   { return "register_renaming" }
func (*RegisterRenaming) ExecutionOrder() ExecutionOrder { return ParallelBFS }

// Run renames virtual (RegInternal) registers within a single block:
// a register written where its value is neither live afterwards in the
// block nor live at block exit takes the next unused slot id for its
// width (rentBase + n), and all its later uses in the block follow.
// Slots are not reused within a block. Only RegInternal registers
// are ever renamed: architectural/ABI registers are never touched since
// a lifter or caller outside this pass may depend on their identity.
func (p *RegisterRenaming) Run(block *ir.BasicBlock, crossBlock bool) (uint32, error) {
	liveOut := intraBlockExitLive(block)
	assignment := map[regKey]ir.RegisterDescriptor{}
	nextSlot := map[uint32]uint64{} // bitcount -> next free virtual id within this block's renaming
	var count uint32

	for idx, instr := range block.Instructions {
		changed := false
		newOperands := append([]ir.Operand{}, instr.Operands...)
		for oi, op := range instr.Operands {
			if !op.IsRegister() {
				continue
			}
			reg, _ := op.RegisterDescriptor()
			if reg.Type != ir.RegInternal {
				continue
			}
			access, _ := op.RegisterAccess()
			if access == ir.AccessWrite {
				live := liveAfter(block, idx, liveOut)
				if !live[keyOf(reg)] && !liveOut[keyOf(reg)] {
					if _, already := assignment[keyOf(reg)]; !already {
						slot := nextSlot[reg.Bitcount]
						nextSlot[reg.Bitcount]++
						assignment[keyOf(reg)] = ir.RegisterDescriptor{Type: ir.RegInternal, ID: slot + rentBase, Bitcount: reg.Bitcount}
					}
				}
			}
			if renamed, ok := assignment[keyOf(reg)]; ok && renamed.ID != reg.ID {
				newOperands[oi] = ir.Register(renamed, access, op.Size())
				changed = true
			}
		}
		if changed {
			replaced, err := ir.NewInstruction(instr.Descriptor, newOperands, instr.AccessSize)
			if err != nil {
				continue
			}
			if err := block.ReplaceInstruction(idx, replaced); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// rentBase offsets renamed virtual ids well away from any id an
// upstream allocator is likely to have handed out, avoiding an
// accidental collision between a renamed register and one that has not
// been visited by this pass yet within the same routine.
const rentBase = 1 << 32
