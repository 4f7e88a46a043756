package bv

// Op is the closed enum of operators shared by the expression algebra,
// the directive pattern language and the IR's symbolic-operator
// lowering. Every other component reads evaluation semantics and flags
// from the Table below rather than re-implementing a switch of its own.
type Op int

const (
	OpInvalid Op = iota

	// Arithmetic
	OpAdd
	OpSub
	OpNeg
	OpMul
	OpMulHi
	OpSDiv
	OpUDiv
	OpSMod
	OpUMod

	// Bitwise
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr
	OpSar
	OpRol
	OpRor

	// Comparison
	OpEq
	OpNe
	OpSgt
	OpSge
	OpSlt
	OpSle
	OpUgt
	OpUge
	OpUlt
	OpUle

	// Casts
	OpCast  // signed resize
	OpUcast // zero-extend / truncate

	// Symbolic IR-only markers: never participate in rewriting.
	OpRead
	OpWrite
	OpPush
	OpPop
	OpJump
	OpCall
	OpReturn
	OpSyscall
	OpIntrinsic
	OpVMEnter
	OpVMExit
	OpVMCall

	opCount
)

// Arity is 1 or 2. Symbolic markers use whatever arity their IR use
// needs; they are given Arity 2 here as a safe default since they never
// pass through the constructors' arity checks (they are rejected by
// smart constructors, see expr package).
type Arity int

const (
	Unary  Arity = 1
	Binary Arity = 2
)

// SizeRule describes how an operation's result bitwidth is derived from
// its operands.
type SizeRule int

const (
	SizeFromLHS  SizeRule = iota // arithmetic/bitwise: width of first operand
	SizeOne                      // comparisons: always 1 bit
	SizeExplicit                 // cast/ucast: width is the constructor's explicit argument
)

// Info is one row of the operator table.
type Info struct {
	Op           Op
	Symbol       string
	Arity        Arity
	Commutative  bool
	Bitwise      bool
	Comparison   bool
	SizePreserve bool // true if result width == lhs width (subset of SizeFromLHS)
	SizeRule     SizeRule
	Symbolic     bool // IR-only marker, never rewritten
	Eval2        func(a, b Int, width Bitcount) (Int, bool)
	Eval1        func(a Int, width Bitcount) (Int, bool)
}

// Table is indexed by Op. Entries for symbolic markers carry no Eval
// functions: folding never applies to them.
var Table [opCount]Info

func reg(i Info) { Table[i.Op] = i }

func init() {
	reg(Info{Op: OpAdd, Symbol: "+", Arity: Binary, Commutative: true, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Add(a, b, w), true }})
	reg(Info{Op: OpSub, Symbol: "-", Arity: Binary, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Sub(a, b, w), true }})
	reg(Info{Op: OpNeg, Symbol: "-", Arity: Unary, SizePreserve: true,
		Eval1: func(a Int, w Bitcount) (Int, bool) { return Neg(a, w), true }})
	reg(Info{Op: OpMul, Symbol: "*", Arity: Binary, Commutative: true, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Mul(a, b, w), true }})
	reg(Info{Op: OpMulHi, Symbol: "muhi", Arity: Binary, Commutative: true, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return MulHi(a, b, w), true }})
	reg(Info{Op: OpSDiv, Symbol: "/", Arity: Binary, SizePreserve: true,
		Eval2: SDiv})
	reg(Info{Op: OpUDiv, Symbol: "u/", Arity: Binary, SizePreserve: true,
		Eval2: UDiv})
	reg(Info{Op: OpSMod, Symbol: "%", Arity: Binary, SizePreserve: true,
		Eval2: SMod})
	reg(Info{Op: OpUMod, Symbol: "u%", Arity: Binary, SizePreserve: true,
		Eval2: UMod})

	reg(Info{Op: OpAnd, Symbol: "&", Arity: Binary, Commutative: true, Bitwise: true, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return And(a, b, w), true }})
	reg(Info{Op: OpOr, Symbol: "|", Arity: Binary, Commutative: true, Bitwise: true, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Or(a, b, w), true }})
	reg(Info{Op: OpXor, Symbol: "^", Arity: Binary, Commutative: true, Bitwise: true, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Xor(a, b, w), true }})
	reg(Info{Op: OpNot, Symbol: "~", Arity: Unary, Bitwise: true, SizePreserve: true,
		Eval1: func(a Int, w Bitcount) (Int, bool) { return Not(a, w), true }})
	reg(Info{Op: OpShl, Symbol: "<<", Arity: Binary, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Shl(a, b, w), true }})
	reg(Info{Op: OpShr, Symbol: ">>", Arity: Binary, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Shr(a, b, w), true }})
	reg(Info{Op: OpSar, Symbol: ">>a", Arity: Binary, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Sar(a, b, w), true }})
	reg(Info{Op: OpRol, Symbol: "rol", Arity: Binary, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Rol(a, b, w), true }})
	reg(Info{Op: OpRor, Symbol: "ror", Arity: Binary, SizePreserve: true,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Ror(a, b, w), true }})

	reg(Info{Op: OpEq, Symbol: "==", Arity: Binary, Commutative: true, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Eq(a, b), true }})
	reg(Info{Op: OpNe, Symbol: "!=", Arity: Binary, Commutative: true, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Ne(a, b), true }})
	reg(Info{Op: OpSgt, Symbol: ">", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Sgt(a, b), true }})
	reg(Info{Op: OpSge, Symbol: ">=", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Sge(a, b), true }})
	reg(Info{Op: OpSlt, Symbol: "<", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Slt(a, b), true }})
	reg(Info{Op: OpSle, Symbol: "<=", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Sle(a, b), true }})
	reg(Info{Op: OpUgt, Symbol: "u>", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Ugt(a, b, w), true }})
	reg(Info{Op: OpUge, Symbol: "u>=", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Uge(a, b, w), true }})
	reg(Info{Op: OpUlt, Symbol: "u<", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Ult(a, b, w), true }})
	reg(Info{Op: OpUle, Symbol: "u<=", Arity: Binary, Comparison: true, SizeRule: SizeOne,
		Eval2: func(a, b Int, w Bitcount) (Int, bool) { return Ule(a, b, w), true }})

	reg(Info{Op: OpCast, Symbol: "cast", Arity: Unary, SizeRule: SizeExplicit})
	reg(Info{Op: OpUcast, Symbol: "ucast", Arity: Unary, SizeRule: SizeExplicit})

	for _, op := range []Op{OpRead, OpWrite, OpPush, OpPop, OpJump, OpCall, OpReturn,
		OpSyscall, OpIntrinsic, OpVMEnter, OpVMExit, OpVMCall} {
		reg(Info{Op: op, Symbol: symbolicName(op), Arity: Binary, Symbolic: true})
	}
}

func symbolicName(op Op) string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	case OpJump:
		return "jump"
	case OpCall:
		return "call"
	case OpReturn:
		return "return"
	case OpSyscall:
		return "syscall"
	case OpIntrinsic:
		return "intrinsic"
	case OpVMEnter:
		return "vm_enter"
	case OpVMExit:
		return "vm_exit"
	case OpVMCall:
		return "vm_call"
	}
	return "?"
}

// IsSelfInverse reports operators that are their own inverse under
// double application (not, neg): used by universal simplifiers for the
// involution identity.
func IsSelfInverse(op Op) bool { return op == OpNot || op == OpNeg }
