// Package expr implements the immutable, hash-consed DAG of fixed-width
// bitvector expressions: Constant, Variable and Operation nodes with
// memoized hash/signature/complexity/depth.
package expr

import (
	"encoding/binary"
	"hash/fnv"

	"vtilcore/internal/bv"
	"vtilcore/internal/uid"
)

// Kind distinguishes the three expression variants.
type Kind int

const (
	KindConstant Kind = iota
	KindVariable
	KindOperation
)

// Expr is the single concrete representation of all three expression
// variants. It is always referenced through the Expression pointer type
// and never mutated after construction; every derived attribute is
// computed once at construction time.
type Expr struct {
	kind Kind

	size bv.Bitcount

	// Constant
	constVal bv.Int

	// Variable
	varID uid.ID

	// Operation
	op  bv.Op
	lhs *Expr // nil iff op is unary
	rhs *Expr

	// Derived, memoized at construction.
	hash             uint64
	signature        uint64
	complexity       float64
	depth            int
	containsVariable bool
	isSimplified     bool
}

// Expression is the shared, immutable handle every component operates
// on. Ownership is "shared, immutable": expressions outlive any
// simplifier state and are freely aliased across goroutines.
type Expression = *Expr

// Kind, Size and the per-variant accessors below let callers avoid a
// type switch; accessors for the wrong variant return the zero value.

func (e *Expr) Kind() Kind             { return e.kind }
func (e *Expr) Size() bv.Bitcount      { return e.size }
func (e *Expr) Hash() uint64           { return e.hash }
func (e *Expr) Signature() uint64      { return e.signature }
func (e *Expr) Complexity() float64    { return e.complexity }
func (e *Expr) Depth() int             { return e.depth }
func (e *Expr) ContainsVariable() bool { return e.containsVariable }

// IsSimplified is a hint only: a true value means this node was last
// produced by the simplifier's bottom-up pass and is believed to be in
// normal form, but is not a correctness guarantee by itself.
func (e *Expr) IsSimplified() bool { return e.isSimplified }

func (e *Expr) ConstValue() (bv.Int, bool) {
	if e.kind != KindConstant {
		return bv.Int{}, false
	}
	return e.constVal, true
}

func (e *Expr) VarID() (uid.ID, bool) {
	if e.kind != KindVariable {
		return uid.ID{}, false
	}
	return e.varID, true
}

func (e *Expr) Op() bv.Op {
	if e.kind != KindOperation {
		return bv.OpInvalid
	}
	return e.op
}

// LHS returns the left operand. Unary operations store their sole
// operand in the rhs slot, so LHS is nil for them; Args()[0] is always
// the first operand regardless of arity.
func (e *Expr) LHS() Expression {
	if e.kind != KindOperation {
		return nil
	}
	return e.lhs
}

func (e *Expr) RHS() Expression {
	if e.kind != KindOperation {
		return nil
	}
	return e.rhs
}

// Args returns the operation's operands in evaluation order: a single
// element for unary operators, two for binary. Returns nil for
// non-operations.
func (e *Expr) Args() []Expression {
	if e.kind != KindOperation {
		return nil
	}
	if e.lhs == nil {
		return []Expression{e.rhs}
	}
	return []Expression{e.lhs, e.rhs}
}

// IsUnary reports whether an Operation node has a single operand.
func (e *Expr) IsUnary() bool { return e.kind == KindOperation && e.lhs == nil }

// Variables returns the set of distinct variable identifiers occurring
// in this subtree. It walks the DAG fresh on every call (there is no
// per-node memoized set, only the containsVariable boolean hint, to
// avoid an allocation per node that most callers never need).
func (e *Expr) Variables() []uid.ID {
	seen := map[uid.ID]bool{}
	var out []uid.ID
	var walk func(n *Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		switch n.kind {
		case KindVariable:
			if !seen[n.varID] {
				seen[n.varID] = true
				out = append(out, n.varID)
			}
		case KindOperation:
			walk(n.lhs)
			walk(n.rhs)
		}
	}
	walk(e)
	return out
}

// Equal implements structural equality: constants compare by value and
// size, variables by uid equality and size, operations by operator,
// size and recursive child equality. The cached hash is checked first
// so that unequal subtrees are almost always rejected in O(1).
func Equal(a, b Expression) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.hash != b.hash || a.kind != b.kind || a.size != b.size {
		return false
	}
	switch a.kind {
	case KindConstant:
		return a.constVal.Eq(b.constVal)
	case KindVariable:
		return a.varID.Equal(b.varID)
	case KindOperation:
		if a.op != b.op {
			return false
		}
		if (a.lhs == nil) != (b.lhs == nil) {
			return false
		}
		if a.lhs != nil && !Equal(a.lhs, b.lhs) {
			return false
		}
		return Equal(a.rhs, b.rhs)
	}
	return false
}

// computeHash derives a 64-bit structural hash, stable across runs for
// a given set of constant/variable values. Structurally equal
// expressions always hash equal.
func computeHash(kind Kind, size bv.Bitcount, op bv.Op, constVal bv.Int, id uid.ID, lhs, rhs *Expr) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeU64(uint64(kind))
	writeU64(uint64(size))
	switch kind {
	case KindConstant:
		h.Write([]byte(constVal.String()))
	case KindVariable:
		b := id.Value()
		h.Write(b[:])
	case KindOperation:
		writeU64(uint64(op))
		if lhs != nil {
			writeU64(lhs.hash)
		}
		writeU64(rhs.hash)
	}
	return h.Sum64()
}
