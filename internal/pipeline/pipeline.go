package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"vtilcore/internal/errtag"
	"vtilcore/internal/ir"
	"vtilcore/internal/passes"
	"vtilcore/internal/pipelinelog"
)

// Summary is the result of RunAll: per-pass transformation counts, the
// grand total, and wall-clock duration.
type Summary struct {
	PerPassCounts map[string]uint32
	Total         uint32
	Duration      time.Duration
}

// defaultOrder is the fixed pass sequence: stack pinning and the
// internal-stack substitution run first so later
// passes see resolved stack references, block extension and stack
// propagation clean up the resulting CFG/memory shape, two
// DeadCodeElimination passes bracket MovPropagation/RegisterRenaming,
// then symbolic rewriting and branch correction run, collective
// propagation mops up what branch correction exposed, a second
// symbolic rewrite picks up anything collective propagation folded,
// and thunk removal runs last once no pass upstream still depends on
// the thunk blocks it deletes.
func defaultOrder() []passes.Pass {
	return []passes.Pass{
		passes.NewStackPinning(),
		passes.NewIStackRefSubstitution(),
		passes.NewBasicBlockExtension(),
		passes.NewStackPropagation(),
		passes.NewDeadCodeElimination(),
		passes.NewMovPropagation(),
		passes.NewRegisterRenaming(),
		passes.NewDeadCodeElimination(),
		passes.NewSymbolicRewrite(),
		passes.NewBranchCorrection(),
		passes.NewCollectivePropagation(),
		passes.NewSymbolicRewrite(),
		passes.NewBasicBlockThunkRemoval(),
	}
}

var log = pipelinelog.ForComponent("pipeline")

// RunAll executes the default pass sequence over routine to completion,
// honoring ctx cancellation at pass and block boundaries. A pass that
// returns an InvariantViolation is logged and the run for this routine
// stops there — the partial summary accumulated so far is still
// returned, and the process itself never crashes, but no further pass
// is attempted against a routine a correct caller cannot have produced.
func RunAll(ctx context.Context, routine *ir.Routine) Summary {
	return runOrdered(ctx, routine, defaultOrder())
}

// RunOne runs a single named pass, for callers (tests, the demo CLI)
// that want to inspect one stage's effect in isolation.
func RunOne(ctx context.Context, routine *ir.Routine, p passes.Pass) Summary {
	return runOrdered(ctx, routine, []passes.Pass{p})
}

func runOrdered(ctx context.Context, routine *ir.Routine, sequence []passes.Pass) Summary {
	start := time.Now()
	summary := Summary{PerPassCounts: make(map[string]uint32, len(sequence))}

	for _, p := range sequence {
		select {
		case <-ctx.Done():
			summary.Duration = time.Since(start)
			return summary
		default:
		}

		count, err := runPass(ctx, routine, p)
		summary.PerPassCounts[p.Name()] += count
		summary.Total += count
		if err != nil {
			switch {
			case errtag.Is(err, errtag.CancelledOrTimedOut):
				// Cooperative stop; everything committed at block
				// boundaries so far stays.
			case errtag.Is(err, errtag.InvariantViolation):
				log.Errorf("pass %s reported an invariant violation, aborting this routine's run: %v", p.Name(), err)
			default:
				log.Errorf("pass %s failed: %v", p.Name(), err)
			}
			break
		}
	}

	summary.Duration = time.Since(start)
	return summary
}

// runPass drives both halves of the Pass contract: RunCross once for
// the whole routine, then Run over each block still present afterward
// (a CFG-mutating pass may have removed blocks RunCross already
// accounted for). Per-block progress already applied is never rolled
// back on a later cancellation or error. A pass whose declared
// ExecutionOrder is one of the Parallel variants and which does not
// mutate the CFG is fanned out across a bounded worker pool, since its
// own contract promises it never touches a block other than the one it
// is handed.
func runPass(ctx context.Context, routine *ir.Routine, p passes.Pass) (uint32, error) {
	var total uint32

	crossCount, err := p.RunCross(routine)
	total += crossCount
	if err != nil {
		return total, err
	}

	blocks := routine.Blocks()
	if isParallel(p.ExecutionOrder()) && !p.MutatesCFG() {
		n, err := runBlocksParallel(ctx, blocks, p)
		return total + n, err
	}

	for _, b := range blocks {
		select {
		case <-ctx.Done():
			return total, errtag.CancelledOrTimedOutf("pass %s stopped at a block boundary: %v", p.Name(), ctx.Err())
		default:
		}
		n, err := p.Run(b, p.MutatesCFG())
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

func isParallel(o passes.ExecutionOrder) bool {
	return o == passes.Parallel || o == passes.ParallelBFS || o == passes.ParallelDFS
}

// runBlocksParallel runs a block-local pass over every block
// concurrently, bounded to GOMAXPROCS workers. Each Parallel-declared
// pass promises to touch only the block it is handed, which is what
// makes a shared total/error accumulator under a single mutex
// sufficient: no two goroutines ever race on the same block.
func runBlocksParallel(ctx context.Context, blocks []*ir.BasicBlock, p passes.Pass) (uint32, error) {
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var total uint32
	var firstErr error

	for _, b := range blocks {
		select {
		case <-ctx.Done():
			wg.Wait()
			return total, firstErr
		default:
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(b *ir.BasicBlock) {
			defer wg.Done()
			defer func() { <-sem }()
			n, err := p.Run(b, false)
			mu.Lock()
			total += n
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(b)
	}
	wg.Wait()
	return total, firstErr
}
