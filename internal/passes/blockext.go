package passes

import "vtilcore/internal/ir"

// BasicBlockExtension merges a block with its unique successor when
// the successor has exactly one predecessor and no branch jumps into
// the middle of the would-be merged sequence. Block count drops by
// exactly the number of merges performed: every successful merge both
// appends instructions and removes the absorbed block.
type BasicBlockExtension struct{ basePass }

func NewBasicBlockExtension() *BasicBlockExtension { return &BasicBlockExtension{} }

func (*BasicBlockExtension) Name() string                   { return "basic_block_extension" }
func (*BasicBlockExtension) ExecutionOrder() ExecutionOrder { return Serial }
func (*BasicBlockExtension) MutatesCFG() bool               { return true }

func (p *BasicBlockExtension) RunCross(r *ir.Routine) (uint32, error) {
	if err := checkEdgeSymmetry(r); err != nil {
		return 0, err
	}
	var count uint32
	removed := map[ir.VIP]bool{}

	again := true
	for again {
		again = false
		for _, b := range r.Blocks() {
			if removed[b.VIP] {
				continue
			}
			succs := b.Successors()
			if len(succs) != 1 {
				continue
			}
			succVIP := succs[0]
			if removed[succVIP] {
				continue
			}
			succ, err := r.Block(succVIP)
			if err != nil {
				continue
			}
			if len(succ.Predecessors()) != 1 || succVIP == b.VIP {
				continue
			}
			if entry, ok := r.EntryBlock(); ok && entry.VIP == succVIP {
				continue // never absorb the entry block into a predecessor
			}

			for _, grandVIP := range succ.Successors() {
				grand, err := r.Block(grandVIP)
				if err != nil {
					continue
				}
				if err := succ.RemoveSuccessor(grand); err != nil {
					return count, err
				}
				if err := b.AddSuccessor(grand); err != nil {
					return count, err
				}
			}
			if err := b.RemoveSuccessor(succ); err != nil {
				return count, err
			}
			// A trailing unconditional jump into the absorbed block is
			// now dead control flow; drop it before splicing.
			if n := len(b.Instructions); n > 0 && b.Instructions[n-1].Descriptor.Name == "jmp" {
				if err := b.RemoveInstruction(n - 1); err != nil {
					return count, err
				}
			}
			for _, instr := range succ.Instructions {
				if err := b.AddInstruction(instr); err != nil {
					return count, err
				}
			}
			if err := r.RemoveBlock(succVIP); err != nil {
				return count, err
			}
			removed[succVIP] = true
			count++
			again = true
		}
	}
	return count, nil
}
