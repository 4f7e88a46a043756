package ir

import (
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"

	"vtilcore/internal/arch"
	"vtilcore/internal/errtag"
)

// CallConvention lists the registers a routine or call site treats as
// parameters, clobbered, and preserved — a minimal stand-in for the
// richer convention tables a full lifter would carry. No pass in
// internal/passes reads it.
type CallConvention struct {
	Parameters []RegisterDescriptor
	Clobbered  []RegisterDescriptor
	Preserved  []RegisterDescriptor
}

// Routine is the top-level IR unit: architecture id, the VIP->block
// map it owns, the entry block, two call conventions, a per-call-site
// convention override map, and the epoch/cfg_epoch/internal-register
// counters.
//
// Mutating operations (add/remove block, add/remove edge, add
// instruction) are serialized under Routine's lock; epoch/cfg_epoch
// are atomics readable without it.
type Routine struct {
	Arch arch.ID

	mu deadlock.Mutex

	blocks   map[VIP]*BasicBlock
	entry    VIP
	hasEntry bool

	routineConvention    CallConvention
	defaultSubConvention CallConvention
	callSiteConventions  map[VIP]CallConvention

	epoch        atomic.Uint64
	cfgEpoch     atomic.Uint64
	nextInternal atomic.Uint64
}

// NewRoutine creates an empty routine for the given architecture.
func NewRoutine(a arch.ID) *Routine {
	return &Routine{
		Arch:                a,
		blocks:              make(map[VIP]*BasicBlock),
		callSiteConventions: make(map[VIP]CallConvention),
	}
}

// Epoch / CFGEpoch are lock-free reads for "no change since X" checks.
func (r *Routine) Epoch() uint64    { return r.epoch.Load() }
func (r *Routine) CFGEpoch() uint64 { return r.cfgEpoch.Load() }

func (r *Routine) bumpEpochLocked()    { r.epoch.Add(1) }
func (r *Routine) bumpCFGEpochLocked() { r.epoch.Add(1); r.cfgEpoch.Add(1) }

// AllocRegister mints a fresh, monotonically numbered internal register
// of the given width.
func (r *Routine) AllocRegister(bitcount uint32) RegisterDescriptor {
	id := r.nextInternal.Add(1)
	return RegisterDescriptor{Type: RegInternal, ID: id, Bitcount: bitcount}
}

// CreateBlock returns the block for vip, creating it if absent. The
// first block ever created becomes the entry unless SetEntry is called
// explicitly.
func (r *Routine) CreateBlock(vip VIP) (*BasicBlock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.blocks[vip]; ok {
		return b, false
	}
	b := &BasicBlock{VIP: vip, routine: r}
	r.blocks[vip] = b
	if !r.hasEntry {
		r.entry = vip
		r.hasEntry = true
	}
	r.bumpEpochLocked()
	return b, true
}

// Block looks up a block by VIP.
func (r *Routine) Block(vip VIP) (*BasicBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[vip]
	if !ok {
		return nil, errtag.NotFoundf("no block at vip %d", vip)
	}
	return b, nil
}

// Blocks returns every block in the routine, in unspecified order.
func (r *Routine) Blocks() []*BasicBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*BasicBlock, 0, len(r.blocks))
	for _, b := range r.blocks {
		out = append(out, b)
	}
	return out
}

// BlockCount reports the number of live blocks, used by passes (e.g.
// BasicBlockExtension, BasicBlockThunkRemoval) and their tests to
// verify block-count invariants.
func (r *Routine) BlockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks)
}

// EntryBlock returns the routine's entry block, if one exists (an
// empty routine has none).
func (r *Routine) EntryBlock() (*BasicBlock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasEntry {
		return nil, false
	}
	b, ok := r.blocks[r.entry]
	return b, ok
}

// SetEntry overrides which block is the entry.
func (r *Routine) SetEntry(vip VIP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[vip]; !ok {
		return errtag.NotFoundf("no block at vip %d", vip)
	}
	r.entry = vip
	r.hasEntry = true
	r.bumpEpochLocked()
	return nil
}

// RemoveBlock deletes a block after nullifying all of its links. If
// the removed block was the entry, the routine picks any surviving
// block as the new entry (map iteration order; which one is
// unspecified).
func (r *Routine) RemoveBlock(vip VIP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[vip]
	if !ok {
		return errtag.NotFoundf("no block at vip %d", vip)
	}
	for _, predVIP := range append([]VIP{}, b.predecessors...) {
		if pred, ok := r.blocks[predVIP]; ok {
			pred.successors = removeVIP(pred.successors, vip)
		}
	}
	for _, succVIP := range append([]VIP{}, b.successors...) {
		if succ, ok := r.blocks[succVIP]; ok {
			succ.predecessors = removeVIP(succ.predecessors, vip)
		}
	}
	delete(r.blocks, vip)
	delete(r.callSiteConventions, vip)
	if r.hasEntry && r.entry == vip {
		r.hasEntry = false
		for otherVIP := range r.blocks {
			r.entry = otherVIP
			r.hasEntry = true
			break
		}
	}
	r.bumpCFGEpochLocked()
	return nil
}

// RoutineConvention / DefaultSubConvention are the two call conventions
// a routine always carries.
func (r *Routine) RoutineConvention() CallConvention {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routineConvention
}

func (r *Routine) SetRoutineConvention(c CallConvention) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routineConvention = c
}

func (r *Routine) DefaultSubConvention() CallConvention {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultSubConvention
}

func (r *Routine) SetDefaultSubConvention(c CallConvention) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultSubConvention = c
}

// ConventionAt returns the call-site-specific convention override for
// vip, falling back to DefaultSubConvention if none was set.
func (r *Routine) ConventionAt(vip VIP) CallConvention {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.callSiteConventions[vip]; ok {
		return c
	}
	return r.defaultSubConvention
}

// SetConventionAt installs a specialized convention for a call-site VIP.
func (r *Routine) SetConventionAt(vip VIP, c CallConvention) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callSiteConventions[vip] = c
}
