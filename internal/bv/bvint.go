// Package bv implements fixed-width bitvector arithmetic backed by
// arbitrary-precision integers, normalized modulo 2^bitcount into the
// signed representative of that width.
package bv

import "math/big"

// Bitcount is the bit width of an expression or operand. It is always
// non-negative; a width of 0 never occurs in a well-formed expression.
type Bitcount uint32

// Int is an arbitrary-precision signed integer interpreted modulo
// 2^width. It is immutable from the caller's perspective: every
// operation returns a new value already normalized to its width.
type Int struct {
	v *big.Int
}

var (
	bigOne  = big.NewInt(1)
	bigZero = big.NewInt(0)
)

// modulus returns 2^width.
func modulus(width Bitcount) *big.Int {
	return new(big.Int).Lsh(bigOne, uint(width))
}

// Normalize reduces v modulo 2^width and returns the signed
// representative in [-2^(width-1), 2^(width-1)-1].
func Normalize(v *big.Int, width Bitcount) Int {
	if width == 0 {
		return Int{v: new(big.Int)}
	}
	m := modulus(width)
	r := new(big.Int).Mod(v, m)
	if r.Sign() < 0 {
		r.Add(r, m)
	}
	half := new(big.Int).Rsh(m, 1)
	if r.Cmp(half) >= 0 {
		r.Sub(r, m)
	}
	return Int{v: r}
}

// FromInt64 builds a normalized Int from a machine integer.
func FromInt64(v int64, width Bitcount) Int {
	return Normalize(big.NewInt(v), width)
}

// FromUint64 builds a normalized Int from an unsigned machine integer.
func FromUint64(v uint64, width Bitcount) Int {
	return Normalize(new(big.Int).SetUint64(v), width)
}

// FromBigInt builds a normalized Int from an existing big.Int, without
// mutating the argument.
func FromBigInt(v *big.Int, width Bitcount) Int {
	return Normalize(new(big.Int).Set(v), width)
}

// Zero returns the zero value at the given width.
func Zero(width Bitcount) Int { return Int{v: new(big.Int)} }

// Big returns the underlying signed big.Int; callers must not mutate it.
func (a Int) Big() *big.Int { return a.v }

// Sign returns -1, 0 or 1.
func (a Int) Sign() int { return a.v.Sign() }

// IsZero reports whether the value is zero.
func (a Int) IsZero() bool { return a.v.Sign() == 0 }

// Eq reports structural (value) equality. Two Ints from different
// widths can compare equal if their signed values coincide; callers
// that care about width must compare it separately.
func (a Int) Eq(b Int) bool { return a.v.Cmp(b.v) == 0 }

// Cmp provides a total order over the signed values.
func (a Int) Cmp(b Int) int { return a.v.Cmp(b.v) }

// Unsigned returns the unsigned representative of a in the given width,
// i.e. a value in [0, 2^width).
func (a Int) Unsigned(width Bitcount) *big.Int {
	if a.v.Sign() >= 0 {
		return new(big.Int).Set(a.v)
	}
	return new(big.Int).Add(a.v, modulus(width))
}

// String renders the signed decimal value.
func (a Int) String() string { return a.v.String() }

// Add, Sub, Mul, Neg, Not and the bitwise/shift helpers all operate on
// the unsigned bit pattern where that matters (shifts, bitwise ops) and
// re-normalize the result to the signed representative.

func Add(a, b Int, width Bitcount) Int {
	return Normalize(new(big.Int).Add(a.v, b.v), width)
}

func Sub(a, b Int, width Bitcount) Int {
	return Normalize(new(big.Int).Sub(a.v, b.v), width)
}

func Neg(a Int, width Bitcount) Int {
	return Normalize(new(big.Int).Neg(a.v), width)
}

func Mul(a, b Int, width Bitcount) Int {
	return Normalize(new(big.Int).Mul(a.v, b.v), width)
}

// MulHi returns the high half of a full-width signed multiplication.
func MulHi(a, b Int, width Bitcount) Int {
	full := new(big.Int).Mul(a.v, b.v)
	shifted := new(big.Int).Rsh(full, uint(width))
	return Normalize(shifted, width)
}

// SDiv, SMod implement truncating signed division/remainder; ok is
// false on division by zero (the operator table maps this to Undefined,
// not a panic).
func SDiv(a, b Int, width Bitcount) (Int, bool) {
	if b.IsZero() {
		return Int{}, false
	}
	q := new(big.Int).Quo(a.v, b.v)
	return Normalize(q, width), true
}

func SMod(a, b Int, width Bitcount) (Int, bool) {
	if b.IsZero() {
		return Int{}, false
	}
	r := new(big.Int).Rem(a.v, b.v)
	return Normalize(r, width), true
}

func UDiv(a, b Int, width Bitcount) (Int, bool) {
	if b.IsZero() {
		return Int{}, false
	}
	ua, ub := a.Unsigned(width), b.Unsigned(width)
	q := new(big.Int).Quo(ua, ub)
	return Normalize(q, width), true
}

func UMod(a, b Int, width Bitcount) (Int, bool) {
	if b.IsZero() {
		return Int{}, false
	}
	ua, ub := a.Unsigned(width), b.Unsigned(width)
	r := new(big.Int).Rem(ua, ub)
	return Normalize(r, width), true
}

func And(a, b Int, width Bitcount) Int {
	return Normalize(new(big.Int).And(a.Unsigned(width), b.Unsigned(width)), width)
}

func Or(a, b Int, width Bitcount) Int {
	return Normalize(new(big.Int).Or(a.Unsigned(width), b.Unsigned(width)), width)
}

func Xor(a, b Int, width Bitcount) Int {
	return Normalize(new(big.Int).Xor(a.Unsigned(width), b.Unsigned(width)), width)
}

func Not(a Int, width Bitcount) Int {
	mask := new(big.Int).Sub(modulus(width), bigOne)
	r := new(big.Int).Xor(a.Unsigned(width), mask)
	return Normalize(r, width)
}

// shiftAmount reduces a shift-amount operand modulo the shifted value's
// width.
func shiftAmount(n Int, width Bitcount) uint {
	if width == 0 {
		return 0
	}
	m := new(big.Int).Mod(n.Unsigned(width), big.NewInt(int64(width)))
	return uint(m.Uint64())
}

func Shl(a, n Int, width Bitcount) Int {
	amt := shiftAmount(n, width)
	return Normalize(new(big.Int).Lsh(a.Unsigned(width), amt), width)
}

func Shr(a, n Int, width Bitcount) Int {
	amt := shiftAmount(n, width)
	return Normalize(new(big.Int).Rsh(a.Unsigned(width), amt), width)
}

func Sar(a, n Int, width Bitcount) Int {
	amt := shiftAmount(n, width)
	return Normalize(new(big.Int).Rsh(a.v, amt), width)
}

func Rol(a, n Int, width Bitcount) Int {
	if width == 0 {
		return a
	}
	amt := shiftAmount(n, width)
	u := a.Unsigned(width)
	left := new(big.Int).Lsh(u, amt)
	right := new(big.Int).Rsh(u, uint(width)-amt%uint(width))
	if amt == 0 {
		return Normalize(u, width)
	}
	r := new(big.Int).Or(left, right)
	return Normalize(r, width)
}

func Ror(a, n Int, width Bitcount) Int {
	if width == 0 {
		return a
	}
	amt := shiftAmount(n, width)
	if amt == 0 {
		return Normalize(a.Unsigned(width), width)
	}
	u := a.Unsigned(width)
	right := new(big.Int).Rsh(u, amt)
	left := new(big.Int).Lsh(u, uint(width)-amt)
	r := new(big.Int).Or(left, right)
	return Normalize(r, width)
}

// Cast sign-extends (or truncates) a from its own width to n bits.
func Cast(a Int, n Bitcount) Int {
	return Normalize(a.v, n)
}

// UCast zero-extends (or truncates) a, interpreted at fromWidth, to n bits.
func UCast(a Int, fromWidth, n Bitcount) Int {
	u := a.Unsigned(fromWidth)
	return Normalize(u, n)
}

// Comparison operators all produce a 1-bit boolean encoded as Int.
func boolInt(v bool) Int {
	if v {
		return Int{v: big.NewInt(-1)} // all-ones pattern in width 1 == -1 signed
	}
	return Int{v: new(big.Int)}
}

func Eq(a, b Int) Int  { return boolInt(a.v.Cmp(b.v) == 0) }
func Ne(a, b Int) Int  { return boolInt(a.v.Cmp(b.v) != 0) }
func Sgt(a, b Int) Int { return boolInt(a.v.Cmp(b.v) > 0) }
func Sge(a, b Int) Int { return boolInt(a.v.Cmp(b.v) >= 0) }
func Slt(a, b Int) Int { return boolInt(a.v.Cmp(b.v) < 0) }
func Sle(a, b Int) Int { return boolInt(a.v.Cmp(b.v) <= 0) }

func Ugt(a, b Int, width Bitcount) Int { return boolInt(a.Unsigned(width).Cmp(b.Unsigned(width)) > 0) }
func Uge(a, b Int, width Bitcount) Int {
	return boolInt(a.Unsigned(width).Cmp(b.Unsigned(width)) >= 0)
}
func Ult(a, b Int, width Bitcount) Int { return boolInt(a.Unsigned(width).Cmp(b.Unsigned(width)) < 0) }
func Ule(a, b Int, width Bitcount) Int {
	return boolInt(a.Unsigned(width).Cmp(b.Unsigned(width)) <= 0)
}
