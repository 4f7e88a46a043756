// Package simplify implements the bounded fixed-point rewrite driver:
// bottom-up simplification of children, partial evaluation, then the
// universal, boolean, join and pack/unpack rule tables in that order,
// cached in the calling goroutine's State (kept across calls) and
// guarded by a join-depth limit and a reentrancy stack.
package simplify

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/expr"
	"vtilcore/internal/match"
	"vtilcore/internal/rules"
	"vtilcore/internal/transform"
)

func init() {
	// internal/match and internal/transform need a reducer to evaluate
	// iff/simplify template conditions to a constant; wiring it here
	// (rather than the other direction) is what avoids the import cycle
	// noted in match.go's doc comment: simplify already imports match
	// and transform, so the reverse dependency would be circular.
	reduce := func(e expr.Expression) expr.Expression { return Simplify(e, false, false) }
	match.SetReducer(reduce)
	transform.SetReducer(reduce)
}

// Simplify reduces e to normal form under the rewrite-rule libraries.
// pretty requests pack-table rewrites
// (compound __bt/__min/__max operators introduced for display); unpack
// requests the inverse expansion. Passing both true is valid (pack then
// immediately unpack is a no-op in practice since the unpack table only
// ever matches what pack itself can introduce).
func Simplify(e expr.Expression, pretty, unpack bool) expr.Expression {
	if e == nil {
		return nil
	}
	st := current()
	return simplifyWith(st, e, pretty, unpack)
}

func simplifyWith(st *State, e expr.Expression, pretty, unpack bool) expr.Expression {
	// Cache check.
	if cached, _, ok := st.cache.get(e); ok {
		return cached
	}

	// Constants and variables are already in normal form.
	if e.Kind() == expr.KindConstant || e.Kind() == expr.KindVariable {
		st.cache.put(e, e, true)
		return e
	}

	// Reentrancy guard: if we are already simplifying this exact node
	// further up the call stack (possible via iff conditions that
	// reference an ancestor expression), return it unchanged rather
	// than recursing forever.
	h := e.Hash()
	if !st.tryEnter(h) {
		return e
	}
	defer st.leave(h)

	result := simplifyOnce(st, e, pretty, unpack)
	st.cache.put(e, result, true)
	return result
}

func simplifyOnce(st *State, e expr.Expression, pretty, unpack bool) expr.Expression {
	// Bottom-up simplification of children: reconstruct via the smart
	// constructors if anything changed, which alone may constant-fold
	// the whole node.
	node := e
	if e.Kind() == expr.KindOperation {
		rebuilt := rebuildChildren(st, e, pretty, unpack)
		if rebuilt != nil {
			node = rebuilt
		}
	}

	if node.Kind() != expr.KindOperation {
		return node
	}

	// rebuildChildren already folds via the constructors when both
	// operands become constant, so by this point `node` is either
	// already a Constant or is genuinely symbolic.

	op := node.Op()
	info := bv.Table[op]

	// Universal simplifiers.
	if out, _, ok := rules.Universal.Apply(node); ok {
		return simplifyWith(st, out, pretty, unpack)
	}

	// Boolean simplifiers, for comparisons and the and/or combinators
	// the comparison rules nest under.
	if info.Comparison || op == bv.OpAnd || op == bv.OpOr {
		if out, _, ok := rules.Boolean.Apply(node); ok {
			return simplifyWith(st, out, pretty, unpack)
		}
	}

	// Join descriptors, speculative and depth-bounded. A join may
	// temporarily increase complexity (distribution does, always), so
	// the rewrite is taken unconditionally, re-simplified while the
	// depth counter is held, and kept only if the settled result does
	// not regress the original node. The depth counter spans the
	// re-simplification so chained joins cannot explode.
	if st.joinDepth < joinDepthLimit {
		st.joinDepth++
		var settled expr.Expression
		if out, _, ok := rules.Join.Apply(node); ok && !expr.Equal(out, node) {
			settled = simplifyWith(st, out, pretty, unpack)
		}
		st.joinDepth--
		if settled != nil && settled.Complexity() <= node.Complexity() {
			return settled
		}
	}

	// Pack, only when pretty output was requested.
	if pretty {
		if out, _, ok := rules.Pack.Apply(node); ok && !expr.Equal(out, node) {
			return simplifyWith(st, out, pretty, unpack)
		}
	}

	// Unpack, only when requested.
	if unpack {
		if out, _, ok := rules.Unpack.Apply(node); ok && !expr.Equal(out, node) {
			return simplifyWith(st, out, pretty, unpack)
		}
	}

	return node
}

// rebuildChildren simplifies an operation's operands and, if any
// changed, reconstructs the node through the smart constructors so
// width validation, constant folding and peephole identities all run
// again on the new children. Returns nil if nothing changed.
func rebuildChildren(st *State, e expr.Expression, pretty, unpack bool) expr.Expression {
	op := e.Op()

	if e.IsUnary() {
		child := e.Args()[0]
		newChild := simplifyWith(st, child, pretty, unpack)
		if expr.Equal(newChild, child) {
			return nil
		}
		if op == bv.OpCast {
			out, err := expr.NewCast(newChild, e.Size())
			if err != nil {
				return nil
			}
			return out
		}
		if op == bv.OpUcast {
			out, err := expr.NewUCast(newChild, e.Size())
			if err != nil {
				return nil
			}
			return out
		}
		out, err := expr.NewUnary(op, newChild)
		if err != nil {
			return nil
		}
		return out
	}

	lhs, rhs := e.LHS(), e.RHS()
	newLHS := simplifyWith(st, lhs, pretty, unpack)
	newRHS := simplifyWith(st, rhs, pretty, unpack)
	if expr.Equal(newLHS, lhs) && expr.Equal(newRHS, rhs) {
		return nil
	}
	out, err := expr.NewBinary(op, newLHS, newRHS)
	if err != nil {
		return nil
	}
	return out
}
