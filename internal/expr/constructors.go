package expr

import (
	"sync"

	"vtilcore/internal/bv"
	"vtilcore/internal/errtag"
	"vtilcore/internal/uid"
)

// intern is the hash-consing arena: structurally equal nodes share one
// allocation, keyed by structural hash. Not required for correctness
// (Equal works without it), but it keeps the DAG compact and makes
// pointer identity a fast path. It is a concurrent map so construction
// stays safe to call from any goroutine.
func intern(n *Expr) *Expr {
	if existing, ok := lookupBucket(n.hash, n); ok {
		return existing
	}
	storeBucket(n.hash, n)
	return n
}

type bucketEntry struct {
	mu    sync.Mutex
	nodes []*Expr
}

var buckets sync.Map // uint64 -> *bucketEntry

func lookupBucket(h uint64, n *Expr) (*Expr, bool) {
	v, ok := buckets.Load(h)
	if !ok {
		return nil, false
	}
	be := v.(*bucketEntry)
	be.mu.Lock()
	defer be.mu.Unlock()
	for _, cand := range be.nodes {
		if Equal(cand, n) {
			return cand, true
		}
	}
	return nil, false
}

func storeBucket(h uint64, n *Expr) {
	v, _ := buckets.LoadOrStore(h, &bucketEntry{})
	be := v.(*bucketEntry)
	be.mu.Lock()
	defer be.mu.Unlock()
	be.nodes = append(be.nodes, n)
}

// NewConstant builds a Constant node, canonicalizing value to the
// signed representative of size bits.
func NewConstant(value bv.Int, size bv.Bitcount) Expression {
	v := bv.FromBigInt(value.Big(), size)
	n := &Expr{kind: KindConstant, size: size, constVal: v}
	n.hash = computeHash(n.kind, n.size, bv.OpInvalid, n.constVal, uid.ID{}, nil, nil)
	n.signature = computeSignature(n.kind, bv.OpInvalid, nil, nil)
	n.complexity = computeComplexity(n.kind, bv.OpInvalid, nil, nil)
	n.depth = computeDepth(n.kind, nil, nil)
	n.isSimplified = true
	return intern(n)
}

// ConstFromInt64 is a convenience wrapper over NewConstant.
func ConstFromInt64(v int64, size bv.Bitcount) Expression {
	return NewConstant(bv.FromInt64(v, size), size)
}

// NewVariable builds a Variable node of the given size.
func NewVariable(id uid.ID, size bv.Bitcount) (Expression, error) {
	if size == 0 {
		return nil, errtag.New("variable %s has non-positive size", id)
	}
	n := &Expr{kind: KindVariable, size: size, varID: id}
	n.hash = computeHash(n.kind, n.size, bv.OpInvalid, bv.Int{}, id, nil, nil)
	n.signature = computeSignature(n.kind, bv.OpInvalid, nil, nil)
	n.complexity = computeComplexity(n.kind, bv.OpInvalid, nil, nil)
	n.depth = computeDepth(n.kind, nil, nil)
	n.containsVariable = true
	return intern(n), nil
}

// NewUnary builds a unary Operation node (not, neg), folding constants
// and applying the strict peephole identities before allocating.
func NewUnary(op bv.Op, operand Expression) (Expression, error) {
	info := bv.Table[op]
	if info.Arity != bv.Unary || info.Symbolic {
		return nil, errtag.New("operator %s is not a rewritable unary operator", info.Symbol)
	}
	if operand == nil {
		return nil, errtag.New("nil operand to unary operator %s", info.Symbol)
	}
	size := operand.Size()

	if c, ok := operand.ConstValue(); ok && info.Eval1 != nil {
		if folded, ok := info.Eval1(c, size); ok {
			return NewConstant(folded, size), nil
		}
	}

	// Involution: ~~e -> e, -(-e) -> e.
	if operand.Kind() == KindOperation && operand.Op() == op && bv.IsSelfInverse(op) {
		return operand.Args()[0], nil
	}

	return newOperationNode(op, nil, operand, size)
}

// NewBinary builds a binary Operation node, applying width validation,
// constant folding and peephole identities.
func NewBinary(op bv.Op, lhs, rhs Expression) (Expression, error) {
	info := bv.Table[op]
	if info.Arity != bv.Binary || info.Symbolic {
		return nil, errtag.New("operator %s is not a rewritable binary operator", info.Symbol)
	}
	if lhs == nil || rhs == nil {
		return nil, errtag.New("nil operand to binary operator %s", info.Symbol)
	}

	isShift := op == bv.OpShl || op == bv.OpShr || op == bv.OpSar || op == bv.OpRol || op == bv.OpRor
	if !isShift && !info.Comparison && lhs.Size() != rhs.Size() {
		return nil, errtag.New("operator %s requires equal operand sizes, got %d and %d", info.Symbol, lhs.Size(), rhs.Size())
	}
	if info.Comparison && lhs.Size() != rhs.Size() {
		return nil, errtag.New("comparison %s requires equal operand sizes, got %d and %d", info.Symbol, lhs.Size(), rhs.Size())
	}

	var size bv.Bitcount
	if info.Comparison {
		size = 1
	} else {
		size = lhs.Size()
	}

	if lc, lok := lhs.ConstValue(); lok {
		if rc, rok := rhs.ConstValue(); rok && info.Eval2 != nil {
			// Comparisons produce a 1-bit result but their operands are
			// interpreted at the operand width (unsigned comparisons
			// would otherwise see only the low bit).
			evalWidth := size
			if info.Comparison {
				evalWidth = lhs.Size()
			}
			if folded, ok := info.Eval2(lc, rc, evalWidth); ok {
				return NewConstant(folded, size), nil
			}
		}
	}

	if simplified, ok := tryPeephole(op, lhs, rhs, size); ok {
		return simplified, nil
	}

	return newOperationNode(op, lhs, rhs, size)
}

// tryPeephole applies the strict-simplification identities: cheap
// rewrites applied unconditionally at construction, before the general
// rewrite engine ever runs, to keep the DAG small.
func tryPeephole(op bv.Op, lhs, rhs Expression, size bv.Bitcount) (Expression, bool) {
	isZero := func(e Expression) bool { c, ok := e.ConstValue(); return ok && c.IsZero() }
	isAllOnes := func(e Expression) bool {
		c, ok := e.ConstValue()
		if !ok {
			return false
		}
		return c.Eq(bv.Not(bv.Zero(e.Size()), e.Size()))
	}
	isOne := func(e Expression) bool {
		c, ok := e.ConstValue()
		return ok && c.Eq(bv.FromInt64(1, e.Size()))
	}

	switch op {
	case bv.OpAdd:
		if isZero(rhs) {
			return lhs, true
		}
		if isZero(lhs) {
			return rhs, true
		}
	case bv.OpSub:
		if isZero(rhs) {
			return lhs, true
		}
		if Equal(lhs, rhs) {
			return NewConstant(bv.Zero(size), size), true
		}
	case bv.OpMul:
		if isOne(rhs) {
			return lhs, true
		}
		if isOne(lhs) {
			return rhs, true
		}
		if isZero(rhs) || isZero(lhs) {
			return NewConstant(bv.Zero(size), size), true
		}
	case bv.OpXor:
		if Equal(lhs, rhs) {
			return NewConstant(bv.Zero(size), size), true
		}
		if isZero(rhs) {
			return lhs, true
		}
		if isZero(lhs) {
			return rhs, true
		}
	case bv.OpAnd:
		if Equal(lhs, rhs) {
			return lhs, true
		}
		if isAllOnes(rhs) {
			return lhs, true
		}
		if isAllOnes(lhs) {
			return rhs, true
		}
		if isZero(rhs) || isZero(lhs) {
			return NewConstant(bv.Zero(size), size), true
		}
	case bv.OpOr:
		if Equal(lhs, rhs) {
			return lhs, true
		}
		if isZero(rhs) {
			return lhs, true
		}
		if isZero(lhs) {
			return rhs, true
		}
		if isAllOnes(rhs) || isAllOnes(lhs) {
			return NewConstant(bv.Not(bv.Zero(size), size), size), true
		}
	case bv.OpShl, bv.OpShr, bv.OpSar, bv.OpRol, bv.OpRor:
		if isZero(rhs) {
			return lhs, true
		}
	case bv.OpEq:
		if Equal(lhs, rhs) {
			return NewConstant(bv.Not(bv.Zero(1), 1), 1), true
		}
	case bv.OpNe:
		if Equal(lhs, rhs) {
			return NewConstant(bv.Zero(1), 1), true
		}
	}
	return nil, false
}

func newOperationNode(op bv.Op, lhs, rhs *Expr, size bv.Bitcount) (Expression, error) {
	n := &Expr{kind: KindOperation, size: size, op: op, lhs: lhs, rhs: rhs}
	n.hash = computeHash(n.kind, n.size, op, bv.Int{}, uid.ID{}, lhs, rhs)
	n.signature = computeSignature(n.kind, op, lhs, rhs)
	n.complexity = computeComplexity(n.kind, op, lhs, rhs)
	n.depth = computeDepth(n.kind, lhs, rhs)
	n.containsVariable = computeContainsVariable(n.kind, lhs, rhs)
	return intern(n), nil
}

// NewCast signed-extends (or truncates) e to n bits.
func NewCast(e Expression, n bv.Bitcount) (Expression, error) {
	if e == nil {
		return nil, errtag.New("nil operand to cast")
	}
	if n == e.Size() {
		return e, nil
	}
	if c, ok := e.ConstValue(); ok {
		return NewConstant(bv.Cast(c, n), n), nil
	}
	if e.Kind() == KindOperation && e.Op() == bv.OpCast && e.Args()[0].Size() >= n {
		return NewCast(e.Args()[0], n)
	}
	node := &Expr{kind: KindOperation, size: n, op: bv.OpCast, lhs: nil, rhs: e}
	node.hash = computeHash(node.kind, node.size, node.op, bv.Int{}, uid.ID{}, nil, e)
	node.signature = computeSignature(node.kind, node.op, nil, e)
	node.complexity = computeComplexity(node.kind, node.op, nil, e)
	node.depth = computeDepth(node.kind, nil, e)
	node.containsVariable = computeContainsVariable(node.kind, nil, e)
	return intern(node), nil
}

// NewUCast zero-extends (or truncates) e to n bits.
func NewUCast(e Expression, n bv.Bitcount) (Expression, error) {
	if e == nil {
		return nil, errtag.New("nil operand to ucast")
	}
	if n == e.Size() {
		return e, nil
	}
	if c, ok := e.ConstValue(); ok {
		return NewConstant(bv.UCast(c, e.Size(), n), n), nil
	}
	node := &Expr{kind: KindOperation, size: n, op: bv.OpUcast, lhs: nil, rhs: e}
	node.hash = computeHash(node.kind, node.size, node.op, bv.Int{}, uid.ID{}, nil, e)
	node.signature = computeSignature(node.kind, node.op, nil, e)
	node.complexity = computeComplexity(node.kind, node.op, nil, e)
	node.depth = computeDepth(node.kind, nil, e)
	node.containsVariable = computeContainsVariable(node.kind, nil, e)
	return intern(node), nil
}
