package simplify

import (
	"sort"

	"vtilcore/internal/expr"
)

// maxEntries bounds the cache; on overflow the oldest pruneFrac
// fraction of entries is dropped in one sweep.
const (
	maxEntries = 65536
	pruneFrac  = 0.35
)

// entry is one cache slot: the simplified result, a finality flag, and
// a monotonic sequence number used as the approximate LRU recency
// (insertion order, not access order — good enough for a prune that
// drops a third of the cache at a time).
type entry struct {
	result   expr.Expression
	isFinal  bool
	sequence uint64
}

// cache is the per-State bounded cache keyed by structural hash plus a
// linear scan over hash collisions (expression equality is not a valid
// map key on its own since *expr.Expr pointers may differ for
// structurally-equal nodes unless the hash-consing arena happens to
// have interned them).
type cache struct {
	entries map[uint64][]cacheSlot
	seq     uint64
	count   int
}

type cacheSlot struct {
	key expr.Expression
	e   entry
}

func newCache() *cache {
	return &cache{entries: make(map[uint64][]cacheSlot)}
}

func (c *cache) get(e expr.Expression) (expr.Expression, bool, bool) {
	bucket := c.entries[e.Hash()]
	for _, s := range bucket {
		if expr.Equal(s.key, e) {
			return s.e.result, s.e.isFinal, true
		}
	}
	return nil, false, false
}

func (c *cache) put(e expr.Expression, result expr.Expression, isFinal bool) {
	if c.count >= maxEntries {
		c.prune()
	}
	c.seq++
	bucket := c.entries[e.Hash()]
	for i, s := range bucket {
		if expr.Equal(s.key, e) {
			bucket[i].e = entry{result: result, isFinal: isFinal, sequence: c.seq}
			c.entries[e.Hash()] = bucket
			return
		}
	}
	c.entries[e.Hash()] = append(bucket, cacheSlot{key: e, e: entry{result: result, isFinal: isFinal, sequence: c.seq}})
	c.count++
}

// prune drops the oldest pruneFrac fraction of entries by insertion
// sequence.
func (c *cache) prune() {
	type flat struct {
		hash uint64
		idx  int
		seq  uint64
	}
	var all []flat
	for h, bucket := range c.entries {
		for i, s := range bucket {
			all = append(all, flat{hash: h, idx: i, seq: s.e.sequence})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	toDrop := int(float64(len(all)) * pruneFrac)
	dropSet := make(map[uint64]map[int]bool, toDrop)
	for i := 0; i < toDrop && i < len(all); i++ {
		f := all[i]
		if dropSet[f.hash] == nil {
			dropSet[f.hash] = make(map[int]bool)
		}
		dropSet[f.hash][f.idx] = true
	}
	for h, drops := range dropSet {
		bucket := c.entries[h]
		kept := bucket[:0]
		for i, s := range bucket {
			if !drops[i] {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(c.entries, h)
		} else {
			c.entries[h] = kept
		}
		c.count -= len(drops)
	}
}

func (c *cache) clear() {
	c.entries = make(map[uint64][]cacheSlot)
	c.count = 0
}
