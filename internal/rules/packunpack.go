package rules

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/transform"
)

// Pack holds the pretty-printing rules, consulted only when the
// simplifier is called with pretty=true. Its one rule rewrites to a
// __bt template, and instantiating __bt yields the plain (A >> U) & 1
// fragment again, so a Pack match leaves the expression unchanged. The
// rules are never part of the non-regression termination argument, so
// their acceptance filter is unconditional (Always).
var Pack = NewTable(buildPack())

// Unpack is the inverse table, consulted only when unpack=true. Its
// pattern is a __bt directive, which the matcher never matches against
// an expression (no expression node carries a compound operator), so
// this table rewrites nothing.
var Unpack = NewTable(buildUnpack())

func buildPack() []*Rule {
	var rs []*Rule

	// (A >> U) & 1 -> __bt(A, U): recognize a single-bit test.
	rs = append(rs, &Rule{
		Name: "pack_bit_test",
		Pattern: directive.Bin(bv.OpAnd,
			directive.Bin(bv.OpShr, d("A"), directive.AnyConst("U")),
			directive.ConstInt64(1, 64)),
		Template: directive.BT(d("A"), directive.AnyConst("U")),
		Accept:   transform.Always,
	})
	// The algebra has no ternary node, so __min/__max are only ever
	// introduced directly by instantiate.go's SpecialMin/SpecialMax
	// helpers inside other templates, not discovered here; this table
	// exists so a future compound-operator addition has a home.

	return rs
}

func buildUnpack() []*Rule {
	var rs []*Rule

	// __bt(A, U) -> (A >> U) & 1: the only direction the simplifier's
	// "unpack" step needs, since internal/transform/instantiate.go's
	// SpecialUnpack already delegates straight through to plain operator
	// construction for any body that reached it in already-concrete
	// form; this entry documents the expansion explicitly for callers
	// that hold on to a packed (__bt) expression across a simplify call
	// with unpack=true.
	rs = append(rs, &Rule{
		Name:     "unpack_bit_test",
		Pattern:  directive.BT(d("A"), directive.AnyConst("U")),
		Template: directive.Bin(bv.OpAnd, directive.Bin(bv.OpShr, d("A"), directive.AnyConst("U")), directive.ConstInt64(1, 64)),
		Accept:   transform.Always,
	})

	return rs
}
