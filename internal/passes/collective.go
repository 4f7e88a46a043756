package passes

import "vtilcore/internal/ir"

// CollectivePropagation runs the propagation passes (MovPropagation,
// StackPropagation) repeatedly over every block until neither makes
// further progress. Both passes are re-run against each other's output
// in the same call; a shared cache object is unnecessary since both
// are O(n) per block and cheap to repeat to convergence.
type CollectivePropagation struct {
	basePass
	mov   *MovPropagation
	stack *StackPropagation
}

func NewCollectivePropagation() *CollectivePropagation {
	return &CollectivePropagation{mov: NewMovPropagation(), stack: NewStackPropagation()}
}

func (*CollectivePropagation) Name() string                   { return "collective_propagation" }
func (*CollectivePropagation) ExecutionOrder() ExecutionOrder { return ParallelBFS }

func (p *CollectivePropagation) RunCross(r *ir.Routine) (uint32, error) {
	var total uint32
	for _, b := range r.Blocks() {
		for {
			n1, err := p.mov.Run(b, false)
			if err != nil {
				return total, err
			}
			n2, err := p.stack.Run(b, false)
			if err != nil {
				return total, err
			}
			total += n1 + n2
			if n1 == 0 && n2 == 0 {
				break
			}
		}
	}
	return total, nil
}
