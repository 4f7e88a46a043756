package ir

import (
	"fmt"

	"vtilcore/internal/bv"
	"vtilcore/internal/errtag"
)

// InstructionDescriptor is the per-mnemonic metadata: operand shape,
// which operand (if any) is the memory base, whether the
// instruction reads/writes memory, its symbolic-operator lowering (used
// by the SymbolicRewrite pass), branch-operand indices and volatility.
// It does not name an operand index for the access size; each
// Instruction carries its own AccessSize instead.
type InstructionDescriptor struct {
	Name string

	// OperandTypes enumerates each operand's expected OperandKind, in
	// declaration order. A memory reference is two consecutive entries
	// (KindRegister base, KindImmediate offset) at MemoryOperandIndex.
	OperandTypes []OperandKind

	MemoryOperandIndex int // -1 if the instruction never touches memory
	MemoryReads        bool
	MemoryWrites       bool

	// SymbolicOp is the bv.Op this instruction lowers to for
	// SymbolicRewrite, or bv.OpInvalid if the instruction has no direct
	// expression-algebra meaning (e.g. a raw syscall).
	SymbolicOp bv.Op

	// BranchOperandIndex / VirtualBranchOperandIndex name which operand
	// holds the real vs. virtual instruction pointer target for branch
	// instructions; -1 when not applicable.
	BranchOperandIndex        int
	VirtualBranchOperandIndex int

	Volatile bool // true if the instruction must never be eliminated
}

// Descriptors is the global instruction-set table, a constant mapping
// from mnemonic to descriptor. Consumers compare by descriptor
// identity; the table is never mutated after init.
var Descriptors = map[string]*InstructionDescriptor{
	"mov":     {Name: "mov", OperandTypes: []OperandKind{KindRegister, KindRegister}, MemoryOperandIndex: -1, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"movi":    {Name: "movi", OperandTypes: []OperandKind{KindRegister, KindImmediate}, MemoryOperandIndex: -1, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"ldr":     {Name: "ldr", OperandTypes: []OperandKind{KindRegister, KindRegister, KindImmediate}, MemoryOperandIndex: 1, MemoryReads: true, SymbolicOp: bv.OpRead, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"str":     {Name: "str", OperandTypes: []OperandKind{KindRegister, KindImmediate, KindRegister}, MemoryOperandIndex: 0, MemoryWrites: true, SymbolicOp: bv.OpWrite, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"add":     {Name: "add", OperandTypes: []OperandKind{KindRegister, KindRegister, KindRegister}, MemoryOperandIndex: -1, SymbolicOp: bv.OpAdd, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"addi":    {Name: "addi", OperandTypes: []OperandKind{KindRegister, KindRegister, KindImmediate}, MemoryOperandIndex: -1, SymbolicOp: bv.OpAdd, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"sub":     {Name: "sub", OperandTypes: []OperandKind{KindRegister, KindRegister, KindRegister}, MemoryOperandIndex: -1, SymbolicOp: bv.OpSub, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"subi":    {Name: "subi", OperandTypes: []OperandKind{KindRegister, KindRegister, KindImmediate}, MemoryOperandIndex: -1, SymbolicOp: bv.OpSub, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"and":     {Name: "and", OperandTypes: []OperandKind{KindRegister, KindRegister, KindRegister}, MemoryOperandIndex: -1, SymbolicOp: bv.OpAnd, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"or":      {Name: "or", OperandTypes: []OperandKind{KindRegister, KindRegister, KindRegister}, MemoryOperandIndex: -1, SymbolicOp: bv.OpOr, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"xor":     {Name: "xor", OperandTypes: []OperandKind{KindRegister, KindRegister, KindRegister}, MemoryOperandIndex: -1, SymbolicOp: bv.OpXor, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"push":    {Name: "push", OperandTypes: []OperandKind{KindRegister}, MemoryOperandIndex: -1, MemoryWrites: true, SymbolicOp: bv.OpPush, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"pop":     {Name: "pop", OperandTypes: []OperandKind{KindRegister}, MemoryOperandIndex: -1, MemoryReads: true, SymbolicOp: bv.OpPop, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1},
	"jmp":     {Name: "jmp", OperandTypes: []OperandKind{KindImmediate}, MemoryOperandIndex: -1, SymbolicOp: bv.OpJump, BranchOperandIndex: 0, VirtualBranchOperandIndex: 0},
	"jcc":     {Name: "jcc", OperandTypes: []OperandKind{KindRegister, KindImmediate, KindImmediate}, MemoryOperandIndex: -1, SymbolicOp: bv.OpJump, BranchOperandIndex: 1, VirtualBranchOperandIndex: 2},
	"call":    {Name: "call", OperandTypes: []OperandKind{KindImmediate}, MemoryOperandIndex: -1, SymbolicOp: bv.OpCall, BranchOperandIndex: 0, VirtualBranchOperandIndex: 0, Volatile: true},
	"ret":     {Name: "ret", OperandTypes: nil, MemoryOperandIndex: -1, SymbolicOp: bv.OpReturn, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1, Volatile: true},
	"syscall": {Name: "syscall", OperandTypes: nil, MemoryOperandIndex: -1, SymbolicOp: bv.OpSyscall, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1, Volatile: true},
	"vmenter": {Name: "vmenter", OperandTypes: nil, MemoryOperandIndex: -1, SymbolicOp: bv.OpVMEnter, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1, Volatile: true},
	"vmexit":  {Name: "vmexit", OperandTypes: nil, MemoryOperandIndex: -1, SymbolicOp: bv.OpVMExit, BranchOperandIndex: -1, VirtualBranchOperandIndex: -1, Volatile: true},
}

// Lookup fetches a descriptor by mnemonic.
func Lookup(name string) (*InstructionDescriptor, error) {
	d, ok := Descriptors[name]
	if !ok {
		return nil, errtag.NotFoundf("no instruction descriptor named %q", name)
	}
	return d, nil
}

// Instruction is a (descriptor, operands, access size) triple.
type Instruction struct {
	Descriptor *InstructionDescriptor
	Operands   []Operand
	AccessSize uint32
}

// NewInstruction validates operand count/types and access size against
// the descriptor before returning.
func NewInstruction(desc *InstructionDescriptor, operands []Operand, accessSize uint32) (*Instruction, error) {
	if desc == nil {
		return nil, errtag.New("nil instruction descriptor")
	}
	if len(operands) != len(desc.OperandTypes) {
		return nil, errtag.New("instruction %s expects %d operands, got %d", desc.Name, len(desc.OperandTypes), len(operands))
	}
	for i, want := range desc.OperandTypes {
		if err := operands[i].validate(want); err != nil {
			return nil, errtag.New("instruction %s operand %d: %s", desc.Name, i, err)
		}
	}
	if desc.MemoryOperandIndex >= 0 {
		if desc.MemoryOperandIndex+1 >= len(operands) {
			return nil, errtag.New("instruction %s declares memory operand index %d out of range", desc.Name, desc.MemoryOperandIndex)
		}
		base := operands[desc.MemoryOperandIndex]
		off := operands[desc.MemoryOperandIndex+1]
		if !base.IsRegister() || !off.IsImmediate() {
			return nil, errtag.New("instruction %s memory operand must be (register, immediate)", desc.Name)
		}
	}
	if accessSize == 0 || accessSize > 512 {
		return nil, errtag.New("instruction %s access size %d out of (0, 512]", desc.Name, accessSize)
	}
	return &Instruction{Descriptor: desc, Operands: operands, AccessSize: accessSize}, nil
}

// Destination returns the first write/read-write register operand, if
// any — the value that DeadCodeElimination and MovPropagation treat as
// "what this instruction defines".
func (i *Instruction) Destination() (RegisterDescriptor, bool) {
	for _, op := range i.Operands {
		if op.IsRegister() {
			if acc, _ := op.RegisterAccess(); acc == AccessWrite || acc == AccessReadWrite {
				reg, _ := op.RegisterDescriptor()
				return reg, true
			}
		}
	}
	return RegisterDescriptor{}, false
}

// Sources returns every register operand read by the instruction
// (AccessRead or AccessReadWrite), in operand order.
func (i *Instruction) Sources() []RegisterDescriptor {
	var out []RegisterDescriptor
	for _, op := range i.Operands {
		if op.IsRegister() {
			if acc, _ := op.RegisterAccess(); acc == AccessRead || acc == AccessReadWrite {
				reg, _ := op.RegisterDescriptor()
				out = append(out, reg)
			}
		}
	}
	return out
}

// HasSideEffects reports whether this instruction can never be removed
// purely because its destination is unused: volatile, memory-writing or
// branching instructions are always observable.
func (i *Instruction) HasSideEffects() bool {
	d := i.Descriptor
	return d.Volatile || d.MemoryWrites || d.BranchOperandIndex >= 0
}

func (i *Instruction) String() string {
	s := i.Descriptor.Name
	for _, op := range i.Operands {
		s += " " + op.String()
	}
	return fmt.Sprintf("%s [sz=%d]", s, i.AccessSize)
}
