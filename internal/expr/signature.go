package expr

import "vtilcore/internal/bv"

// signature computes the O(1) match-prefilter fingerprint: an encoding
// of which operators and leaf kinds occur in this subtree, collapsed
// into a bitset. A pattern can only
// match a subject if the pattern's bits are a subset of the subject's
// bits (see internal/match).
const (
	sigBitConstant uint64 = 1 << 0
	sigBitVariable uint64 = 1 << 1
	sigOpBase             = 2
	sigOpBits             = 62
)

func opBit(op bv.Op) uint64 {
	return 1 << (sigOpBase + (uint64(op) % sigOpBits))
}

// Exported building blocks so internal/directive can compute a
// directly-comparable signature for pattern trees without duplicating
// the bit layout.
const (
	SigBitConstant = sigBitConstant
	SigBitVariable = sigBitVariable
)

// SigForOp returns the operator's contribution to a signature.
func SigForOp(op bv.Op) uint64 { return opBit(op) }

func computeSignature(kind Kind, op bv.Op, lhs, rhs *Expr) uint64 {
	switch kind {
	case KindConstant:
		return sigBitConstant
	case KindVariable:
		return sigBitVariable
	case KindOperation:
		sig := opBit(op)
		if lhs != nil {
			sig |= lhs.signature
		}
		if rhs != nil {
			sig |= rhs.signature
		}
		return sig
	}
	return 0
}

// SignatureSubset reports whether pattern's signature bits are all
// present in subject's signature: the O(1) rejection test.
func SignatureSubset(pattern, subject uint64) bool {
	return pattern&^subject == 0
}
