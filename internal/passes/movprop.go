package passes

import "vtilcore/internal/ir"

// MovPropagation replaces reads of a register r with the last value
// assigned into r when that assignment dominates the read, nothing
// clobbers r (or, if the source was itself a register, the source) in
// between, and the source is an immediate or a still-live register. It
// never increases instruction count: it only rewrites operands in
// place.
type MovPropagation struct{ basePass }

func NewMovPropagation() *MovPropagation { return &MovPropagation{} }

func (*MovPropagation) Name() string                   { return "mov_propagation" }
func (*MovPropagation) ExecutionOrder() ExecutionOrder { return ParallelBFS }

type movBinding struct {
	srcReg   ir.RegisterDescriptor
	srcIsReg bool
	srcImm   ir.Operand
}

// Run propagates within a single block; straight-line dominance inside
// a block is trivial (every earlier instruction dominates every later
// one), so crossBlock has no effect on the local pass — cross-block
// propagation would require a dominator tree over the CFG, which this
// pass does not attempt (MovPropagation's RunCross is intentionally the
// no-op basePass default; only per-block propagation is implemented).
func (p *MovPropagation) Run(block *ir.BasicBlock, crossBlock bool) (uint32, error) {
	bindings := map[regKey]movBinding{}
	var count uint32

	for idx := 0; idx < len(block.Instructions); idx++ {
		instr := block.Instructions[idx]

		changed := false
		newOperands := append([]ir.Operand{}, instr.Operands...)
		for oi, op := range instr.Operands {
			if !op.IsRegister() {
				continue
			}
			access, _ := op.RegisterAccess()
			if access != ir.AccessRead {
				continue
			}
			reg, _ := op.RegisterDescriptor()
			b, ok := bindings[keyOf(reg)]
			if !ok {
				continue
			}
			if b.srcIsReg {
				newOperands[oi] = ir.Register(b.srcReg, ir.AccessRead, op.Size())
			} else {
				newOperands[oi] = b.srcImm
			}
			changed = true
		}
		if changed {
			replaced, err := ir.NewInstruction(instr.Descriptor, newOperands, instr.AccessSize)
			if err != nil {
				// Invalid substitution (e.g. width mismatch): leave the
				// instruction untouched rather than corrupt the block.
				changed = false
			} else {
				if err := block.ReplaceInstruction(idx, replaced); err != nil {
					return count, err
				}
				instr = replaced
				count++
			}
		}

		// Update bindings for this instruction's effect.
		if dst, ok := instr.Destination(); ok {
			invalidateBindingsOn(bindings, dst)
			if instr.Descriptor.Name == "mov" && len(instr.Operands) == 2 {
				src := instr.Operands[1]
				if srcReg, ok := src.RegisterDescriptor(); ok {
					bindings[keyOf(dst)] = movBinding{srcReg: srcReg, srcIsReg: true}
				}
			} else if instr.Descriptor.Name == "movi" && len(instr.Operands) == 2 {
				bindings[keyOf(dst)] = movBinding{srcImm: instr.Operands[1]}
			} else {
				delete(bindings, keyOf(dst))
			}
		}
	}
	return count, nil
}

// invalidateBindingsOn drops any binding that is itself sourced from
// reg (reg was just clobbered, so propagating its old value further
// would be unsound) as well as the binding for reg's own destination.
func invalidateBindingsOn(bindings map[regKey]movBinding, reg ir.RegisterDescriptor) {
	k := keyOf(reg)
	delete(bindings, k)
	for dest, b := range bindings {
		if b.srcIsReg && keyOf(b.srcReg) == k {
			delete(bindings, dest)
		}
	}
}
