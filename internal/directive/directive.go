// Package directive implements the pattern/template AST of the rewrite
// engine: a tree shaped like internal/expr's Expression but with typed
// meta-variable leaves and a handful of special forms (iff,
// if_true/if_false, simplify/try_simplify, unpack, pop_flags,
// __bt/__min/__max) that only ever appear inside a rewrite template.
//
// Meta-variable kinds are an explicit tagged variant (MetaClass) so
// internal/match dispatches on the tag rather than sniffing a label's
// first letter, even though rule tables still follow the A/B/C vs U/V
// vs X/Y naming convention for readability.
package directive

import "vtilcore/internal/bv"

// Kind distinguishes directive node variants.
type Kind int

const (
	KindConstant Kind = iota
	KindMeta
	KindOperation
	KindSpecial
)

// MetaClass is the tagged variant for meta-variable kinds.
type MetaClass int

const (
	MetaAny      MetaClass = iota // A, B, C, ... — matches any expression
	MetaConst                     // U, V, Σ, ... — matches constants only
	MetaNonConst                  // X, Y, ... — matches non-constants only
)

func (c MetaClass) String() string {
	switch c {
	case MetaAny:
		return "any"
	case MetaConst:
		return "const"
	case MetaNonConst:
		return "non_const"
	}
	return "?"
}

// Special enumerates the directive-only operators.
type Special int

const (
	SpecialIff Special = iota
	SpecialIfTrue
	SpecialIfFalse
	SpecialSimplify
	SpecialTrySimplify
	SpecialUnpack
	SpecialPopFlags
	SpecialBT  // __bt: bit-test constructor
	SpecialMin // __min
	SpecialMax // __max
)

// Directive is the single concrete node type for patterns and
// templates, mirroring expr.Expr's "one struct, tagged union" shape.
type Directive struct {
	Kind Kind

	// KindConstant: an exact literal the subject must structurally equal.
	ConstValue bv.Int
	Size       bv.Bitcount

	// KindMeta
	Label string
	Class MetaClass

	// KindOperation
	Op  bv.Op
	LHS *Directive // nil iff Op is unary
	RHS *Directive

	// KindSpecial
	Special Special
	Args    []*Directive

	// sig is the memoized O(1)-prefilter signature, computed once at
	// construction time exactly like expr.Expr's signature field,
	// rather than recomputed on every match attempt.
	sig uint64
}

// Sig returns the node's memoized match-prefilter signature.
func (d *Directive) Sig() uint64 { return d.sig }

// Const builds a literal-constant directive node: it matches only a
// structurally equal Constant expression.
func Const(v bv.Int, size bv.Bitcount) *Directive {
	d := &Directive{Kind: KindConstant, ConstValue: v, Size: size}
	d.sig = computeSig(d)
	return d
}

// ConstInt64 is a convenience wrapper over Const.
func ConstInt64(v int64, size bv.Bitcount) *Directive {
	return Const(bv.FromInt64(v, size), size)
}

// Meta builds a meta-variable directive of the given class and label.
func Meta(class MetaClass, label string) *Directive {
	d := &Directive{Kind: KindMeta, Class: class, Label: label}
	d.sig = computeSig(d)
	return d
}

// Any is the A/B/C… meta-variable class: matches any expression.
func Any(label string) *Directive { return Meta(MetaAny, label) }

// AnyConst is the U/V/Σ… meta-variable class: matches constants only.
func AnyConst(label string) *Directive { return Meta(MetaConst, label) }

// NonConst is the X/Y… meta-variable class: matches non-constants only.
func NonConst(label string) *Directive { return Meta(MetaNonConst, label) }

// Bin builds a binary operation directive.
func Bin(op bv.Op, lhs, rhs *Directive) *Directive {
	d := &Directive{Kind: KindOperation, Op: op, LHS: lhs, RHS: rhs}
	d.sig = computeSig(d)
	return d
}

// Un builds a unary operation directive.
func Un(op bv.Op, operand *Directive) *Directive {
	d := &Directive{Kind: KindOperation, Op: op, RHS: operand}
	d.sig = computeSig(d)
	return d
}

// Cast builds a signed-resize directive: cast(operand, n).
func Cast(operand *Directive, n bv.Bitcount) *Directive {
	d := &Directive{Kind: KindOperation, Op: bv.OpCast, RHS: operand, Size: n}
	d.sig = computeSig(d)
	return d
}

// UCast builds a zero-extend/truncate directive: ucast(operand, n).
func UCast(operand *Directive, n bv.Bitcount) *Directive {
	d := &Directive{Kind: KindOperation, Op: bv.OpUcast, RHS: operand, Size: n}
	d.sig = computeSig(d)
	return d
}

func special(kind Special, args ...*Directive) *Directive {
	d := &Directive{Kind: KindSpecial, Special: kind, Args: args}
	d.sig = computeSig(d)
	return d
}

// Iff applies body only if cond reduces to a nonzero constant under the
// current bindings.
func Iff(cond, body *Directive) *Directive { return special(SpecialIff, cond, body) }

// IfTrue/IfFalse are the single-branch variants of Iff.
func IfTrue(cond, body *Directive) *Directive  { return special(SpecialIfTrue, cond, body) }
func IfFalse(cond, body *Directive) *Directive { return special(SpecialIfFalse, cond, body) }

// Simplify/TrySimplify/Unpack/PopFlags are template-only helpers that
// expand to a concrete expression fragment at instantiation time.
func Simplify(body *Directive) *Directive    { return special(SpecialSimplify, body) }
func TrySimplify(body *Directive) *Directive { return special(SpecialTrySimplify, body) }
func Unpack(body *Directive) *Directive      { return special(SpecialUnpack, body) }
func PopFlags(body *Directive) *Directive    { return special(SpecialPopFlags, body) }

// BT, Min, Max are arithmetic constructors that appear only in
// templates and expand to concrete expression fragments (bit-test and
// min/max via comparison+select) on instantiation.
func BT(value, bit *Directive) *Directive { return special(SpecialBT, value, bit) }
func Min(a, b *Directive) *Directive      { return special(SpecialMin, a, b) }
func Max(a, b *Directive) *Directive      { return special(SpecialMax, a, b) }

// IsLeaf reports whether d has no structural children of its own kind
// (constants and meta-variables are leaves; operations and specials are
// not, though an operation's RHS/LHS may itself be a leaf).
func (d *Directive) IsLeaf() bool {
	return d.Kind == KindConstant || d.Kind == KindMeta
}
