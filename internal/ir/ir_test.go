package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/arch"
	"vtilcore/internal/bv"
	"vtilcore/internal/errtag"
)

func reg(id uint64) RegisterDescriptor {
	return RegisterDescriptor{Type: RegInternal, ID: id, Bitcount: 64}
}

func movi(t *testing.T, dst RegisterDescriptor, v int64) *Instruction {
	t.Helper()
	instr, err := NewInstruction(Descriptors["movi"],
		[]Operand{Register(dst, AccessWrite, 64), Immediate(bv.FromInt64(v, 64), 64)}, 64)
	require.NoError(t, err)
	return instr
}

func TestCreateBlockSetsEntryOnce(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	a, created := r.CreateBlock(0x1000)
	require.True(t, created)
	b, created := r.CreateBlock(0x2000)
	require.True(t, created)
	require.NotNil(t, b)

	again, created := r.CreateBlock(0x1000)
	require.False(t, created)
	require.Same(t, a, again)

	entry, ok := r.EntryBlock()
	require.True(t, ok)
	require.Equal(t, VIP(0x1000), entry.VIP)
}

func TestSymmetricEdges(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	a, _ := r.CreateBlock(1)
	b, _ := r.CreateBlock(2)

	require.NoError(t, a.AddSuccessor(b))
	require.Equal(t, []VIP{2}, a.Successors())
	require.Equal(t, []VIP{1}, b.Predecessors())

	// Adding the same edge twice is a no-op.
	require.NoError(t, a.AddSuccessor(b))
	require.Len(t, a.Successors(), 1)

	require.NoError(t, a.RemoveSuccessor(b))
	require.Empty(t, a.Successors())
	require.Empty(t, b.Predecessors())
}

func TestEpochMonotonicity(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	e0 := r.Epoch()
	a, _ := r.CreateBlock(1)
	require.Greater(t, r.Epoch(), e0)

	b, _ := r.CreateBlock(2)
	eBefore, cBefore := r.Epoch(), r.CFGEpoch()
	require.NoError(t, a.AddSuccessor(b))
	require.Greater(t, r.Epoch(), eBefore)
	require.Greater(t, r.CFGEpoch(), cBefore)

	// An instruction edit bumps epoch but not cfg_epoch.
	eBefore, cBefore = r.Epoch(), r.CFGEpoch()
	require.NoError(t, a.AddInstruction(movi(t, reg(1), 5)))
	require.Greater(t, r.Epoch(), eBefore)
	require.Equal(t, cBefore, r.CFGEpoch())
}

func TestRemoveBlockNullifiesLinksAndRepicksEntry(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	a, _ := r.CreateBlock(1)
	b, _ := r.CreateBlock(2)
	c, _ := r.CreateBlock(3)
	require.NoError(t, a.AddSuccessor(b))
	require.NoError(t, b.AddSuccessor(c))

	require.NoError(t, r.RemoveBlock(2))
	require.Empty(t, a.Successors())
	require.Empty(t, c.Predecessors())
	require.Equal(t, 2, r.BlockCount())

	// Removing the entry picks a survivor.
	require.NoError(t, r.RemoveBlock(1))
	entry, ok := r.EntryBlock()
	require.True(t, ok)
	require.Equal(t, VIP(3), entry.VIP)
}

func TestBlockLookupNotFound(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	_, err := r.Block(99)
	require.Error(t, err)
	require.True(t, errtag.Is(err, errtag.NotFound))
}

func TestAllocRegisterMonotonic(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	a := r.AllocRegister(64)
	b := r.AllocRegister(32)
	require.Equal(t, RegInternal, a.Type)
	require.Greater(t, b.ID, a.ID)
	require.Equal(t, uint32(32), b.Bitcount)
	require.True(t, a.IsVirtual())
}

func TestNewInstructionValidation(t *testing.T) {
	// Wrong operand count.
	_, err := NewInstruction(Descriptors["mov"], []Operand{Register(reg(1), AccessWrite, 64)}, 64)
	require.Error(t, err)

	// Wrong operand kind.
	_, err = NewInstruction(Descriptors["mov"],
		[]Operand{Register(reg(1), AccessWrite, 64), Immediate(bv.FromInt64(1, 64), 64)}, 64)
	require.Error(t, err)

	// Access size bounds.
	_, err = NewInstruction(Descriptors["ret"], nil, 0)
	require.Error(t, err)
	_, err = NewInstruction(Descriptors["ret"], nil, 513)
	require.Error(t, err)
	_, err = NewInstruction(Descriptors["ret"], nil, 512)
	require.NoError(t, err)
}

func TestMemoryOperandShape(t *testing.T) {
	// ldr dst, base, offset: memory operand is (register, immediate).
	instr, err := NewInstruction(Descriptors["ldr"],
		[]Operand{
			Register(reg(1), AccessWrite, 64),
			Register(reg(2), AccessRead, 64),
			Immediate(bv.FromInt64(8, 64), 64),
		}, 64)
	require.NoError(t, err)
	require.True(t, instr.Descriptor.MemoryReads)
}

func TestInstructionAccessors(t *testing.T) {
	instr := movi(t, reg(7), 42)
	dst, ok := instr.Destination()
	require.True(t, ok)
	require.Equal(t, uint64(7), dst.ID)
	require.Empty(t, instr.Sources())
	require.False(t, instr.HasSideEffects())

	ret, err := NewInstruction(Descriptors["ret"], nil, 64)
	require.NoError(t, err)
	require.True(t, ret.HasSideEffects())
}

func TestInsertReplaceRemoveInstruction(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	b, _ := r.CreateBlock(1)
	require.NoError(t, b.AddInstruction(movi(t, reg(1), 1)))
	require.NoError(t, b.AddInstruction(movi(t, reg(2), 2)))
	require.NoError(t, b.InsertInstruction(1, movi(t, reg(3), 3)))
	require.Len(t, b.Instructions, 3)
	dst, _ := b.Instructions[1].Destination()
	require.Equal(t, uint64(3), dst.ID)

	require.NoError(t, b.ReplaceInstruction(1, movi(t, reg(4), 4)))
	dst, _ = b.Instructions[1].Destination()
	require.Equal(t, uint64(4), dst.ID)

	require.NoError(t, b.RemoveInstruction(1))
	require.Len(t, b.Instructions, 2)

	require.Error(t, b.RemoveInstruction(5))
	require.Error(t, b.InsertInstruction(-1, movi(t, reg(5), 5)))
}

func TestCallConventions(t *testing.T) {
	r := NewRoutine(arch.Amd64)
	def := CallConvention{Clobbered: []RegisterDescriptor{reg(1)}}
	r.SetDefaultSubConvention(def)
	require.Len(t, r.ConventionAt(0x50).Clobbered, 1)

	site := CallConvention{Preserved: []RegisterDescriptor{reg(2)}}
	r.SetConventionAt(0x50, site)
	require.Len(t, r.ConventionAt(0x50).Preserved, 1)
	require.Empty(t, r.ConventionAt(0x60).Preserved)
}
