package simplify

import (
	"vtilcore/internal/tls"
)

// joinDepthLimit bounds the join-descriptor recursion, preventing
// associativity/distribution rewrites (which may temporarily increase
// complexity) from chasing each other forever.
const joinDepthLimit = 20

// State is the simplifier's per-goroutine working set: the bounded
// cache, the join-depth counter and the reentrancy stack. It is
// exported so a caller can build a fresh one for SwapState's
// scoped-batch use.
type State struct {
	cache     *cache
	joinDepth int
	inFlight  map[uint64]bool // hashes currently being simplified, reentrancy guard
}

// NewState returns a fresh, empty simplifier state.
func NewState() *State {
	return &State{cache: newCache(), inFlight: make(map[uint64]bool)}
}

var slot = tls.NewSlot[*State]()

// current returns the calling goroutine's State, lazily creating one on
// first use so callers never have to initialize it explicitly.
func current() *State {
	s, ok := slot.Get()
	if !ok {
		s = NewState()
		slot.Set(s)
	}
	return s
}

// PurgeState clears the thread-local cache for the calling goroutine,
// leaving the join-depth counter and reentrancy guard (which are always
// zero/empty between top-level calls) untouched.
func PurgeState() {
	current().cache.clear()
}

// SwapState installs newState as the calling goroutine's simplifier
// state and returns whatever was previously installed, for scoped
// batch operations. Passing nil
// is invalid; callers that merely want a clean slate should use
// PurgeState or pass NewState().
func SwapState(newState *State) *State {
	old, ok := slot.Get()
	if !ok {
		old = NewState()
	}
	slot.Set(newState)
	return old
}

func (s *State) tryEnter(h uint64) bool {
	if s.inFlight[h] {
		return false
	}
	s.inFlight[h] = true
	return true
}

func (s *State) leave(h uint64) {
	delete(s.inFlight, h)
}
