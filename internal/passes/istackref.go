package passes

import "vtilcore/internal/ir"

// IStackRefSubstitution replaces references to the architecture-level
// stack register with the IR-internal stack register where equivalent,
// rewriting the RegisterDescriptor.Type of every operand whose
// descriptor is RegStackPointer to RegStack while preserving its
// id/width. A pure in-place relabeling; instruction count never
// changes.
type IStackRefSubstitution struct{ basePass }

func NewIStackRefSubstitution() *IStackRefSubstitution { return &IStackRefSubstitution{} }

func (*IStackRefSubstitution) Name() string                   { return "istack_ref_substitution" }
func (*IStackRefSubstitution) ExecutionOrder() ExecutionOrder { return ParallelBFS }

func (p *IStackRefSubstitution) Run(block *ir.BasicBlock, crossBlock bool) (uint32, error) {
	var count uint32
	for idx, instr := range block.Instructions {
		changed := false
		newOperands := append([]ir.Operand{}, instr.Operands...)
		for oi, op := range instr.Operands {
			if !op.IsRegister() {
				continue
			}
			reg, _ := op.RegisterDescriptor()
			if reg.Type != ir.RegStackPointer {
				continue
			}
			access, _ := op.RegisterAccess()
			internal := ir.RegisterDescriptor{Type: ir.RegStack, ID: reg.ID, Bitcount: reg.Bitcount}
			newOperands[oi] = ir.Register(internal, access, op.Size())
			changed = true
		}
		if !changed {
			continue
		}
		replaced, err := ir.NewInstruction(instr.Descriptor, newOperands, instr.AccessSize)
		if err != nil {
			continue
		}
		if err := block.ReplaceInstruction(idx, replaced); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
