// Package ir implements the operand/instruction/block/routine model
// and its control-flow graph. Blocks are owned by the routine (a map
// from VIP to block), edges are non-owning references mutated
// symmetrically under the routine lock, and any structural/CFG edit
// bumps the routine's epoch counters.
package ir

import "fmt"

// RegisterType is the closed set of register kinds.
type RegisterType int

const (
	RegGeneralPurpose RegisterType = iota
	RegStackPointer
	RegInstructionPointer
	RegFlags
	RegSegment
	RegControl
	RegDebug
	RegTest
	RegFP
	RegMMX
	RegXMM
	RegYMM
	RegZMM
	RegInternal // virtual, allocated by the routine's internal-register counter
	RegStack    // IR-internal stack-slot pseudo-register
)

func (t RegisterType) String() string {
	switch t {
	case RegGeneralPurpose:
		return "gpr"
	case RegStackPointer:
		return "sp"
	case RegInstructionPointer:
		return "ip"
	case RegFlags:
		return "flags"
	case RegSegment:
		return "seg"
	case RegControl:
		return "ctrl"
	case RegDebug:
		return "dbg"
	case RegTest:
		return "test"
	case RegFP:
		return "fp"
	case RegMMX:
		return "mmx"
	case RegXMM:
		return "xmm"
	case RegYMM:
		return "ymm"
	case RegZMM:
		return "zmm"
	case RegInternal:
		return "vr"
	case RegStack:
		return "stk"
	}
	return "?"
}

// RegisterDescriptor is a (type, id, bitcount) triple. Two descriptors
// name the same physical/virtual register iff Type and ID match;
// Bitcount only affects how wide an access is.
type RegisterDescriptor struct {
	Type     RegisterType
	ID       uint64
	Bitcount uint32
}

func (r RegisterDescriptor) String() string {
	return fmt.Sprintf("%s%d:%d", r.Type, r.ID, r.Bitcount)
}

// Equal compares identity (type+id), ignoring width: r8/r16/r32/r64
// name the same register at different access widths on real
// architectures, and callers that care about the width compare
// Bitcount separately (mirroring Operand's own size field).
func (r RegisterDescriptor) Equal(o RegisterDescriptor) bool {
	return r.Type == o.Type && r.ID == o.ID
}

// IsVirtual reports whether this descriptor is an internal register
// (as minted by (*Routine).AllocRegister) or the virtual stack pointer,
// rather than a real architectural register.
func (r RegisterDescriptor) IsVirtual() bool {
	return r.Type == RegInternal || r.Type == RegStack
}
