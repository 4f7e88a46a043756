package rules

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/transform"
)

// Join is the non-commuting algebraic rearrangement table:
// associativity and distribution rewrites that are conservatively
// valid even though they may temporarily increase complexity
// (distribution always does). Every entry accepts unconditionally; it
// is the simplifier that takes the rewrite speculatively, re-simplifies
// it under the join-depth bound, and keeps it only if the settled
// result did not regress the original (see internal/simplify).
var Join = NewTable(buildJoin())

func buildJoin() []*Rule {
	var rs []*Rule

	// (A + B) + C -> A + (B + C): right-associate additions so that
	// constant operands drift together and fold via the peephole
	// constructors on the next bottom-up pass.
	rs = append(rs, &Rule{
		Name:     "assoc_add",
		Pattern:  directive.Bin(bv.OpAdd, directive.Bin(bv.OpAdd, d("A"), d("B")), d("C")),
		Template: directive.Bin(bv.OpAdd, d("A"), directive.Bin(bv.OpAdd, d("B"), d("C"))),
		Accept:   transform.Always,
	})
	// (A * B) * C -> A * (B * C)
	rs = append(rs, &Rule{
		Name:     "assoc_mul",
		Pattern:  directive.Bin(bv.OpMul, directive.Bin(bv.OpMul, d("A"), d("B")), d("C")),
		Template: directive.Bin(bv.OpMul, d("A"), directive.Bin(bv.OpMul, d("B"), d("C"))),
		Accept:   transform.Always,
	})
	// (A & B) & C -> A & (B & C)
	rs = append(rs, &Rule{
		Name:     "assoc_and",
		Pattern:  directive.Bin(bv.OpAnd, directive.Bin(bv.OpAnd, d("A"), d("B")), d("C")),
		Template: directive.Bin(bv.OpAnd, d("A"), directive.Bin(bv.OpAnd, d("B"), d("C"))),
		Accept:   transform.Always,
	})
	// (A | B) | C -> A | (B | C)
	rs = append(rs, &Rule{
		Name:     "assoc_or",
		Pattern:  directive.Bin(bv.OpOr, directive.Bin(bv.OpOr, d("A"), d("B")), d("C")),
		Template: directive.Bin(bv.OpOr, d("A"), directive.Bin(bv.OpOr, d("B"), d("C"))),
		Accept:   transform.Always,
	})
	// (A ^ B) ^ C -> A ^ (B ^ C)
	rs = append(rs, &Rule{
		Name:     "assoc_xor",
		Pattern:  directive.Bin(bv.OpXor, directive.Bin(bv.OpXor, d("A"), d("B")), d("C")),
		Template: directive.Bin(bv.OpXor, d("A"), directive.Bin(bv.OpXor, d("B"), d("C"))),
		Accept:   transform.Always,
	})

	// A * (B + C) -> (A * B) + (A * C): distribution over addition,
	// useful when B or C is a constant and will fold against A on the
	// next bottom-up step.
	rs = append(rs, &Rule{
		Name:     "distribute_mul_add",
		Pattern:  directive.Bin(bv.OpMul, d("A"), directive.Bin(bv.OpAdd, d("B"), d("C"))),
		Template: directive.Bin(bv.OpAdd, directive.Bin(bv.OpMul, d("A"), d("B")), directive.Bin(bv.OpMul, d("A"), d("C"))),
		Accept:   transform.Always,
	})
	// A & (B ^ C) -> (A & B) ^ (A & C): distribution over xor.
	rs = append(rs, &Rule{
		Name:     "distribute_and_xor",
		Pattern:  directive.Bin(bv.OpAnd, d("A"), directive.Bin(bv.OpXor, d("B"), d("C"))),
		Template: directive.Bin(bv.OpXor, directive.Bin(bv.OpAnd, d("A"), d("B")), directive.Bin(bv.OpAnd, d("A"), d("C"))),
		Accept:   transform.Always,
	})
	// (A << U) + (B << U) -> (A + B) << U: common-factor extraction from
	// two shifts by the same constant amount.
	rs = append(rs, &Rule{
		Name: "factor_shl_add",
		Pattern: directive.Bin(bv.OpAdd,
			directive.Bin(bv.OpShl, d("A"), directive.AnyConst("U")),
			directive.Bin(bv.OpShl, d("B"), directive.AnyConst("U"))),
		Template: directive.Bin(bv.OpShl, directive.Bin(bv.OpAdd, d("A"), d("B")), directive.AnyConst("U")),
		Accept:   transform.Always,
	})

	return rs
}
