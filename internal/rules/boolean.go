package rules

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/transform"
)

// Boolean is the comparison-centric rule table, applied only when the
// simplifier's driver is looking at a comparison node or a boolean
// combinator over comparisons.
// Several entries use iff to make a rewrite conditional on a relation
// between two *other* captured bindings, e.g. "(A>B) & (A>C) -> A>B
// when B>=C" — the iff condition is itself instantiated and reduced
// under the same bindings before the rewrite is accepted.
var Boolean = NewTable(buildBoolean())

func buildBoolean() []*Rule {
	var rs []*Rule

	// X == Y  ->  (X - Y) == 0. Puts equality of two symbolic operands
	// into a single canonical shape so downstream rules only ever need
	// to recognize "Z == 0". Both operands must be non-constant: the
	// canonical form's zero side is a constant, so the rule can never
	// re-match its own output, which is what makes the unconditional
	// acceptance safe. The zero literal is width-specific, so the rule
	// is generated per width; wrong-width instances fail instantiation
	// and the table falls through to the matching one.
	rs = append(rs, forEachWidth(func(w bv.Bitcount) *Rule {
		return &Rule{
			Name:     "eq_to_sub_zero",
			Pattern:  directive.Bin(bv.OpEq, directive.NonConst("X"), directive.NonConst("Y")),
			Template: directive.Bin(bv.OpEq, directive.Bin(bv.OpSub, directive.NonConst("X"), directive.NonConst("Y")), directive.Const(bv.Zero(w), w)),
			Accept:   transform.Always,
		}
	})...)

	// (A > B) & (A > C)  ->  iff(B >= C, A > B): when B dominates C the
	// second comparison is redundant.
	rs = append(rs, &Rule{
		Name: "and_sgt_sgt_dominant",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Bin(bv.OpSgt, d("A"), d("B")),
			directive.Bin(bv.OpSgt, d("A"), d("C"))),
		Template: directive.Iff(
			directive.Bin(bv.OpSge, d("B"), d("C")),
			directive.Bin(bv.OpSgt, d("A"), d("B"))),
		Accept: transform.ComplexityLess,
	})
	// (A > B) & (A > C)  ->  iff(C >= B, A > C): the symmetric case.
	rs = append(rs, &Rule{
		Name: "and_sgt_sgt_dominant_swapped",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Bin(bv.OpSgt, d("A"), d("B")),
			directive.Bin(bv.OpSgt, d("A"), d("C"))),
		Template: directive.Iff(
			directive.Bin(bv.OpSge, d("C"), d("B")),
			directive.Bin(bv.OpSgt, d("A"), d("C"))),
		Accept: transform.ComplexityLess,
	})
	// (A < B) | (A < C)  ->  iff(B >= C, A < B): dominance, union side.
	rs = append(rs, &Rule{
		Name: "or_slt_slt_dominant",
		Pattern: directive.Bin(bv.OpOr,
			directive.Bin(bv.OpSlt, d("A"), d("B")),
			directive.Bin(bv.OpSlt, d("A"), d("C"))),
		Template: directive.Iff(
			directive.Bin(bv.OpSge, d("B"), d("C")),
			directive.Bin(bv.OpSlt, d("A"), d("B"))),
		Accept: transform.ComplexityLess,
	})

	// (A == B) & (A == C)  ->  iff(B == C, A == B); otherwise the
	// conjunction is unsatisfiable, but proving that in general needs an
	// SMT solver, so this entry only fires the satisfiable case and
	// leaves the rest symbolic.
	rs = append(rs, &Rule{
		Name: "and_eq_eq_same",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Bin(bv.OpEq, d("A"), d("B")),
			directive.Bin(bv.OpEq, d("A"), d("C"))),
		Template: directive.Iff(
			directive.Bin(bv.OpEq, d("B"), d("C")),
			directive.Bin(bv.OpEq, d("A"), d("B"))),
		Accept: transform.ComplexityLess,
	})

	// There is deliberately no A != B -> ~(A == B) entry: the universal
	// comparison-inversion rule rewrites ~(A == B) straight back to
	// A != B, so the pair would only chase each other.

	// (A > B) & (A < B)  ->  0: contradictory range, always false.
	rs = append(rs, &Rule{
		Name: "and_sgt_slt_contradiction",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Bin(bv.OpSgt, d("A"), d("B")),
			directive.Bin(bv.OpSlt, d("A"), d("B"))),
		Template: directive.ConstInt64(0, 1),
		Accept:   transform.ComplexityLess,
	})
	// (A > B) | (A < B)  ->  A != B.
	rs = append(rs, &Rule{
		Name: "or_sgt_slt_to_ne",
		Pattern: directive.Bin(bv.OpOr,
			directive.Bin(bv.OpSgt, d("A"), d("B")),
			directive.Bin(bv.OpSlt, d("A"), d("B"))),
		Template: directive.Bin(bv.OpNe, d("A"), d("B")),
		Accept:   transform.ComplexityLessEqual,
	})
	// (A >= B) & (A <= B)  ->  A == B.
	rs = append(rs, &Rule{
		Name: "and_sge_sle_to_eq",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Bin(bv.OpSge, d("A"), d("B")),
			directive.Bin(bv.OpSle, d("A"), d("B"))),
		Template: directive.Bin(bv.OpEq, d("A"), d("B")),
		Accept:   transform.ComplexityLess,
	})

	return rs
}
