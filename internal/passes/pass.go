// Package passes implements the IR rewrite-pass catalogue: a common
// contract (Run over a single block, RunCross over a whole routine)
// shared by every pass, plus the concrete passes the pipeline
// schedules.
package passes

import "vtilcore/internal/ir"

// ExecutionOrder is the pass-declared traversal strategy a scheduler
// may use; CFG-mutating passes always report a serial order since the
// pipeline never parallelizes them regardless of what they declare.
type ExecutionOrder int

const (
	Serial ExecutionOrder = iota
	SerialBFS
	SerialDFS
	Parallel
	ParallelBFS
	ParallelDFS
	Custom
)

// Pass is the uniform interface every rewrite pass implements.
// Run operates on a single block (crossBlock hints whether the pass may
// also reason about neighboring blocks' instructions without mutating
// them); RunCross operates on the whole routine and is the only place a
// pass may mutate the CFG itself.
//
// A pass that cannot transform returns (0, nil). A pass must never
// corrupt the CFG; if it detects an invariant violation it leaves the
// routine untouched and returns the violation as an error for the
// pipeline to log, rather than panicking.
type Pass interface {
	Name() string
	ExecutionOrder() ExecutionOrder
	MutatesCFG() bool
	Run(block *ir.BasicBlock, crossBlock bool) (uint32, error)
	RunCross(routine *ir.Routine) (uint32, error)
}

// basePass supplies the trivial RunCross/Run default (0, nil) so each
// concrete pass only needs to override whichever of the two methods it
// actually implements, mirroring a common base-class pattern without
// requiring embedding boilerplate at every call site.
type basePass struct{}

func (basePass) Run(*ir.BasicBlock, bool) (uint32, error) { return 0, nil }
func (basePass) RunCross(*ir.Routine) (uint32, error)     { return 0, nil }
func (basePass) MutatesCFG() bool                         { return false }
