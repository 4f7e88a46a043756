package directive

import "vtilcore/internal/expr"

// computeSig computes the same O(1)-prefilter fingerprint as
// expr.Expression, once per node at construction time (see the sig
// field on Directive). Meta-variables of any class contribute no bits:
// they must be able to match subjects with arbitrary signatures.
func computeSig(d *Directive) uint64 {
	switch d.Kind {
	case KindConstant:
		return expr.SigBitConstant
	case KindMeta:
		return 0
	case KindOperation:
		sig := expr.SigForOp(d.Op)
		if d.LHS != nil {
			sig |= d.LHS.sig
		}
		if d.RHS != nil {
			sig |= d.RHS.sig
		}
		return sig
	case KindSpecial:
		switch d.Special {
		case SpecialIff, SpecialIfTrue, SpecialIfFalse:
			// Only the body is matched structurally; the condition is
			// instantiated from the bindings afterward, so its operators
			// must not narrow the prefilter.
			return d.Args[1].sig
		}
		var sig uint64
		for _, a := range d.Args {
			sig |= a.sig
		}
		return sig
	}
	return 0
}

// Signature returns the node's memoized match-prefilter signature.
func Signature(d *Directive) uint64 { return d.sig }
