package passes

import "vtilcore/internal/ir"

// StackPinning rewrites reads of the stack-pointer register into
// constants wherever the stack pointer's absolute displacement from
// function entry is provably known at that point. Displacements are
// propagated routine-wide: the entry block starts at offset 0, each
// block's exit offset is its entry offset plus the net effect of the
// addi/subi adjustments it applies to the stack pointer, and a
// successor's entry offset is known only when every predecessor agrees
// on it. Within a known block, a `mov dst, sp` is rewritten to
// `movi dst, offset`. Any stack-pointer write this pass cannot
// interpret (anything other than addi/subi by an immediate), and any
// push/pop/call/syscall, makes the offset unknown from that point on.
type StackPinning struct{ basePass }

func NewStackPinning() *StackPinning { return &StackPinning{} }

func (*StackPinning) Name() string                   { return "stack_pinning" }
func (*StackPinning) ExecutionOrder() ExecutionOrder { return Serial }

func (p *StackPinning) RunCross(r *ir.Routine) (uint32, error) {
	entryOffsets := spEntryOffsets(r)
	var total uint32
	for _, b := range r.Blocks() {
		off, known := entryOffsets[b.VIP]
		if !known {
			continue
		}
		n, err := p.pinBlock(b, off)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// spEntryOffsets computes, per block, the stack pointer's displacement
// from function entry on block entry — present in the map only when
// provable. Forward fixed point: an offset flows along an edge only
// when the source block's exit offset is computable, and a block whose
// predecessors disagree is dropped for good.
func spEntryOffsets(r *ir.Routine) map[ir.VIP]int64 {
	known := map[ir.VIP]int64{}
	entry, ok := r.EntryBlock()
	if !ok {
		return known
	}
	known[entry.VIP] = 0
	conflicted := map[ir.VIP]bool{}

	changed := true
	for changed {
		changed = false
		for _, b := range r.Blocks() {
			off, ok := known[b.VIP]
			if !ok {
				continue
			}
			exit, exitKnown := spExitOffset(b, off)
			if !exitKnown {
				continue
			}
			for _, succVIP := range b.Successors() {
				if conflicted[succVIP] {
					continue
				}
				if prev, seen := known[succVIP]; seen {
					if prev != exit {
						conflicted[succVIP] = true
						delete(known, succVIP)
						changed = true
					}
					continue
				}
				known[succVIP] = exit
				changed = true
			}
		}
	}
	return known
}

// spExitOffset walks a block and returns its exit displacement given
// its entry displacement, or ok=false if any instruction moves the
// stack pointer in a way this analysis cannot track.
func spExitOffset(b *ir.BasicBlock, entryOffset int64) (int64, bool) {
	offset := entryOffset
	for _, instr := range b.Instructions {
		delta, known := spDelta(instr)
		if !known {
			return 0, false
		}
		offset += delta
	}
	return offset, true
}

// spDelta returns the stack-pointer displacement an instruction applies,
// or known=false for adjustments the analysis cannot interpret.
func spDelta(instr *ir.Instruction) (int64, bool) {
	switch instr.Descriptor.Name {
	case "push", "pop", "call", "syscall", "vmenter", "vmexit":
		return 0, false
	}
	dst, ok := instr.Destination()
	if !ok || dst.Type != ir.RegStackPointer {
		return 0, true
	}
	name := instr.Descriptor.Name
	if (name == "addi" || name == "subi") && len(instr.Operands) == 3 {
		if imm, ok := instr.Operands[2].ImmediateValue(); ok {
			v := imm.Big().Int64()
			if name == "subi" {
				v = -v
			}
			return v, true
		}
	}
	return 0, false
}

func (p *StackPinning) pinBlock(b *ir.BasicBlock, entryOffset int64) (uint32, error) {
	var count uint32
	offset := entryOffset
	known := true

	for idx, instr := range b.Instructions {
		if instr.Descriptor.Name == "mov" && known && len(instr.Operands) == 2 {
			if src, ok := instr.Operands[1].RegisterDescriptor(); ok && src.Type == ir.RegStackPointer {
				size := instr.Operands[1].Size()
				replacement, err := ir.NewInstruction(ir.Descriptors["movi"],
					[]ir.Operand{instr.Operands[0], ir.Immediate(mustSignedImm(offset, size), size)},
					instr.AccessSize)
				if err == nil {
					if err := b.ReplaceInstruction(idx, replacement); err != nil {
						return count, err
					}
					count++
					continue
				}
			}
		}
		delta, deltaKnown := spDelta(instr)
		if !deltaKnown {
			known = false
			continue
		}
		offset += delta
	}
	return count, nil
}
