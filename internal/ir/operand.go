package ir

import (
	"fmt"

	"vtilcore/internal/bv"
	"vtilcore/internal/errtag"
)

// Access describes how an instruction touches a register operand.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "r"
	case AccessWrite:
		return "w"
	case AccessReadWrite:
		return "rw"
	}
	return "?"
}

// OperandKind distinguishes the two operand variants. Memory is not a
// third kind: it is addressed via a (base register, immediate offset)
// pair of Operands inside an Instruction.
type OperandKind int

const (
	KindImmediate OperandKind = iota
	KindRegister
)

// Operand is the tagged union of Immediate(bvint, size) and
// Register(descriptor, access, size).
type Operand struct {
	kind OperandKind

	imm  bv.Int
	size bv.Bitcount

	reg    RegisterDescriptor
	access Access
}

// Immediate builds an Immediate operand.
func Immediate(v bv.Int, size bv.Bitcount) Operand {
	return Operand{kind: KindImmediate, imm: v, size: size}
}

// Register builds a Register operand.
func Register(desc RegisterDescriptor, access Access, size bv.Bitcount) Operand {
	return Operand{kind: KindRegister, reg: desc, access: access, size: size}
}

func (o Operand) Kind() OperandKind { return o.kind }
func (o Operand) Size() bv.Bitcount { return o.size }
func (o Operand) IsImmediate() bool { return o.kind == KindImmediate }
func (o Operand) IsRegister() bool  { return o.kind == KindRegister }

func (o Operand) ImmediateValue() (bv.Int, bool) {
	if o.kind != KindImmediate {
		return bv.Int{}, false
	}
	return o.imm, true
}

func (o Operand) RegisterDescriptor() (RegisterDescriptor, bool) {
	if o.kind != KindRegister {
		return RegisterDescriptor{}, false
	}
	return o.reg, true
}

func (o Operand) RegisterAccess() (Access, bool) {
	if o.kind != KindRegister {
		return 0, false
	}
	return o.access, true
}

func (o Operand) String() string {
	switch o.kind {
	case KindImmediate:
		return fmt.Sprintf("%s:%d", o.imm.String(), o.size)
	case KindRegister:
		return fmt.Sprintf("%s(%s)", o.reg, o.access)
	}
	return "<invalid operand>"
}

// validate checks a single operand against its declared type in a
// descriptor's operand type list.
func (o Operand) validate(wantKind OperandKind) error {
	if o.kind != wantKind {
		return errtag.New("operand kind mismatch: want %v, got %v", wantKind, o.kind)
	}
	return nil
}
