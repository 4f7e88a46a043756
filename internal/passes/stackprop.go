package passes

import "vtilcore/internal/ir"

// StackPropagation is MovPropagation's analogue over stack-slot writes
// and reads: a `str base, off, value` followed later by
// `ldr dst, base, off` with no intervening write to the same (base,
// off) pair, no intervening call/syscall, and the same base register
// still holding what it held at the store is replaced with `mov dst,
// value` (or `movi dst, value` if value was an immediate). It never
// increases instruction count: only in-place replacement.
type StackPropagation struct{ basePass }

func NewStackPropagation() *StackPropagation { return &StackPropagation{} }

func (*StackPropagation) Name() string                   { return "stack_propagation" }
func (*StackPropagation) ExecutionOrder() ExecutionOrder { return ParallelBFS }

type stackSlot struct {
	base ir.RegisterDescriptor
	off  int64
}

func (p *StackPropagation) Run(block *ir.BasicBlock, crossBlock bool) (uint32, error) {
	slots := map[stackSlot]ir.Operand{}
	var count uint32

	clobberAll := func() { slots = map[stackSlot]ir.Operand{} }

	for idx := 0; idx < len(block.Instructions); idx++ {
		instr := block.Instructions[idx]
		name := instr.Descriptor.Name

		switch {
		case name == "call" || name == "syscall" || name == "vmenter" || name == "vmexit":
			clobberAll()

		case name == "str" && len(instr.Operands) == 3:
			base, ok1 := instr.Operands[0].RegisterDescriptor()
			off, ok2 := instr.Operands[1].ImmediateValue()
			if ok1 && ok2 {
				slots[stackSlot{base: base, off: off.Big().Int64()}] = instr.Operands[2]
			} else {
				clobberAll()
			}

		case name == "ldr" && len(instr.Operands) == 3:
			base, ok1 := instr.Operands[1].RegisterDescriptor()
			off, ok2 := instr.Operands[2].ImmediateValue()
			if ok1 && ok2 {
				if val, ok := slots[stackSlot{base: base, off: off.Big().Int64()}]; ok {
					dst, _ := instr.Operands[0].RegisterDescriptor()
					var replacement *ir.Instruction
					var err error
					if val.IsImmediate() {
						v, _ := val.ImmediateValue()
						replacement, err = ir.NewInstruction(ir.Descriptors["movi"],
							[]ir.Operand{ir.Register(dst, ir.AccessWrite, instr.Operands[0].Size()), ir.Immediate(v, val.Size())},
							instr.AccessSize)
					} else if srcReg, ok := val.RegisterDescriptor(); ok {
						replacement, err = ir.NewInstruction(ir.Descriptors["mov"],
							[]ir.Operand{ir.Register(dst, ir.AccessWrite, instr.Operands[0].Size()), ir.Register(srcReg, ir.AccessRead, val.Size())},
							instr.AccessSize)
					}
					if replacement != nil && err == nil {
						if err := block.ReplaceInstruction(idx, replacement); err != nil {
							return count, err
						}
						count++
					}
				}
			}
		}
		// A write to a slot's base register, or to the register whose
		// value the slot recorded, makes that slot stale.
		if dst, ok := instr.Destination(); ok {
			for slot, val := range slots {
				if held, isReg := val.RegisterDescriptor(); slot.base.Equal(dst) || (isReg && held.Equal(dst)) {
					delete(slots, slot)
				}
			}
		}
	}
	return count, nil
}
