package rules

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/transform"
)

// d is a local alias purely for terseness in the rule tables below.
var d = directive.Any

// Universal is the unconditional, complexity-non-increasing rule
// table: add/sub cancellation, NEG over SUB, AND/OR absorption,
// De Morgan, x ^ ~x, and comparison inversions.
// Most single-operand identities (e+0, e*1, e-e, e^e, ~~e) are already
// caught earlier by internal/expr's peephole constructors; the entries
// here cover the
// genuinely two-(or more)-variable algebraic identities that the
// peephole cannot, since it only ever looks at its own two direct
// operands.
var Universal = NewTable(buildUniversal())

func buildUniversal() []*Rule {
	var rs []*Rule

	// Double inverse over two distinct operators is not expressible
	// generically without losing termination (only literal double
	// application is safe, and the peephole already handles that);
	// sub/neg canonicalizations that usefully generalize across
	// variables follow.

	// (A - B) + B -> A
	rs = append(rs, &Rule{
		Name:     "sub_add_cancel",
		Pattern:  directive.Bin(bv.OpAdd, directive.Bin(bv.OpSub, d("A"), d("B")), d("B")),
		Template: d("A"),
		Accept:   transform.ComplexityLess,
	})
	// (A + B) - B -> A
	rs = append(rs, &Rule{
		Name:     "add_sub_cancel",
		Pattern:  directive.Bin(bv.OpSub, directive.Bin(bv.OpAdd, d("A"), d("B")), d("B")),
		Template: d("A"),
		Accept:   transform.ComplexityLess,
	})
	// A - (A + B) -> -B
	rs = append(rs, &Rule{
		Name:     "sub_of_add_self",
		Pattern:  directive.Bin(bv.OpSub, d("A"), directive.Bin(bv.OpAdd, d("A"), d("B"))),
		Template: directive.Un(bv.OpNeg, d("B")),
		Accept:   transform.ComplexityLess,
	})
	// -A + A -> 0 is not covered by this table or by the add peephole;
	// -(A - B) -> B - A generalizes neg distribution over sub:
	rs = append(rs, &Rule{
		Name:     "neg_distribute_sub",
		Pattern:  directive.Un(bv.OpNeg, directive.Bin(bv.OpSub, d("A"), d("B"))),
		Template: directive.Bin(bv.OpSub, d("B"), d("A")),
		Accept:   transform.ComplexityLessEqual,
	})
	// A & (A | B) -> A  (absorption)
	rs = append(rs, &Rule{
		Name:     "and_or_absorption",
		Pattern:  directive.Bin(bv.OpAnd, d("A"), directive.Bin(bv.OpOr, d("A"), d("B"))),
		Template: d("A"),
		Accept:   transform.ComplexityLess,
	})
	// A | (A & B) -> A  (absorption)
	rs = append(rs, &Rule{
		Name:     "or_and_absorption",
		Pattern:  directive.Bin(bv.OpOr, d("A"), directive.Bin(bv.OpAnd, d("A"), d("B"))),
		Template: d("A"),
		Accept:   transform.ComplexityLess,
	})
	// ~A & ~B -> ~(A | B)  (De Morgan)
	rs = append(rs, &Rule{
		Name: "demorgan_and",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Un(bv.OpNot, d("A")),
			directive.Un(bv.OpNot, d("B"))),
		Template: directive.Un(bv.OpNot, directive.Bin(bv.OpOr, d("A"), d("B"))),
		Accept:   transform.ComplexityLessEqual,
	})
	// ~A | ~B -> ~(A & B)  (De Morgan)
	rs = append(rs, &Rule{
		Name: "demorgan_or",
		Pattern: directive.Bin(bv.OpOr,
			directive.Un(bv.OpNot, d("A")),
			directive.Un(bv.OpNot, d("B"))),
		Template: directive.Un(bv.OpNot, directive.Bin(bv.OpAnd, d("A"), d("B"))),
		Accept:   transform.ComplexityLessEqual,
	})
	// A ^ ~A -> -1 (all ones), generalized per width.
	rs = append(rs, forEachWidth(func(w bv.Bitcount) *Rule {
		return &Rule{
			Name:     "xor_complement",
			Pattern:  directive.Bin(bv.OpXor, d("A"), directive.Un(bv.OpNot, d("A"))),
			Template: directive.Const(bv.Not(bv.Zero(w), w), w),
			Accept:   transform.ComplexityLess,
		}
	})...)
	// Comparison inversions: ~(A > B) -> A <= B, and friends.
	rs = append(rs, invertedComparison(bv.OpSgt, bv.OpSle)...)
	rs = append(rs, invertedComparison(bv.OpSge, bv.OpSlt)...)
	rs = append(rs, invertedComparison(bv.OpSlt, bv.OpSge)...)
	rs = append(rs, invertedComparison(bv.OpSle, bv.OpSgt)...)
	rs = append(rs, invertedComparison(bv.OpUgt, bv.OpUle)...)
	rs = append(rs, invertedComparison(bv.OpUge, bv.OpUlt)...)
	rs = append(rs, invertedComparison(bv.OpUlt, bv.OpUge)...)
	rs = append(rs, invertedComparison(bv.OpUle, bv.OpUgt)...)
	rs = append(rs, invertedComparison(bv.OpEq, bv.OpNe)...)
	rs = append(rs, invertedComparison(bv.OpNe, bv.OpEq)...)

	return rs
}

// invertedComparison builds the ~(A cmp B) -> A cmp' B rule for a
// single (cmp, cmp') inversion pair. Comparisons always produce a
// 1-bit result, so bitwise NOT of a 1-bit value is exactly logical
// negation: ~(x > y) rewrites to x <= y.
func invertedComparison(from, to bv.Op) []*Rule {
	return []*Rule{{
		Name:     "invert_" + bv.Table[from].Symbol,
		Pattern:  directive.Un(bv.OpNot, directive.Bin(from, d("A"), d("B"))),
		Template: directive.Bin(to, d("A"), d("B")),
		Accept:   transform.ComplexityLessEqual,
	}}
}
