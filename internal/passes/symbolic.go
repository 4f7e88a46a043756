package passes

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/expr"
	"vtilcore/internal/ir"
	"vtilcore/internal/simplify"
	"vtilcore/internal/uid"
)

// SymbolicRewrite lowers each instruction whose descriptor carries a
// symbolic operator to its expression-algebra meaning, runs it through
// the simplifier, and
// substitutes back a shorter instruction when the simplified result
// collapsed to something a single instruction can already express: a
// constant (-> movi) or a bare source operand other than the
// destination (-> mov). When the result is the destination register
// itself, the instruction is left as it is.
// Anything else is left untouched — this pass never invents a general
// expression-to-instruction-sequence lowering, since that is exactly
// the lifter's job in reverse and out of scope here.
type SymbolicRewrite struct{ basePass }

func NewSymbolicRewrite() *SymbolicRewrite { return &SymbolicRewrite{} }

func (*SymbolicRewrite) Name() string                   { return "symbolic_rewrite" }
func (*SymbolicRewrite) ExecutionOrder() ExecutionOrder { return ParallelBFS }

func (p *SymbolicRewrite) Run(block *ir.BasicBlock, crossBlock bool) (uint32, error) {
	var count uint32
	for idx, instr := range block.Instructions {
		desc := instr.Descriptor
		op := desc.SymbolicOp
		info := bv.Table[op]
		if info.Symbolic || op == bv.OpInvalid || info.Arity != bv.Binary {
			continue
		}
		dst, ok := instr.Destination()
		if !ok || len(instr.Operands) < 3 {
			continue
		}
		lhsExpr, lhsOK := operandExpr(instr.Operands[1])
		rhsExpr, rhsOK := operandExpr(instr.Operands[2])
		if !lhsOK || !rhsOK {
			continue
		}
		built, err := expr.NewBinary(op, lhsExpr, rhsExpr)
		if err != nil {
			continue
		}
		reduced := simplify.Simplify(built, false, true)

		replacement := instructionFor(dst, reduced, instr.AccessSize)
		if replacement == nil {
			continue
		}
		if err := block.ReplaceInstruction(idx, replacement); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// operandExpr builds the expression-algebra leaf for a source operand:
// a Constant for an immediate, a Variable for a register (keyed by a
// uid derived deterministically from the register's type and id, so the
// same register always yields equal variables and NewBinary's peephole
// identities can recognise it).
func operandExpr(op ir.Operand) (expr.Expression, bool) {
	if v, ok := op.ImmediateValue(); ok {
		return expr.NewConstant(v, op.Size()), true
	}
	reg, ok := op.RegisterDescriptor()
	if !ok {
		return nil, false
	}
	id := uid.FromValue(reg.String(), regKSUID(reg))
	v, err := expr.NewVariable(id, op.Size())
	if err != nil {
		return nil, false
	}
	return v, true
}

// instructionFor lowers a simplified expression back to a single
// instruction writing dst, or nil if the expression is not one of the
// shapes this pass knows how to re-emit (see SymbolicRewrite's doc
// comment).
func instructionFor(dst ir.RegisterDescriptor, e expr.Expression, accessSize uint32) *ir.Instruction {
	size := bv.Bitcount(dst.Bitcount)
	switch e.Kind() {
	case expr.KindConstant:
		c, _ := e.ConstValue()
		instr, err := ir.NewInstruction(ir.Descriptors["movi"],
			[]ir.Operand{ir.Register(dst, ir.AccessWrite, size), ir.Immediate(c, e.Size())},
			accessSize)
		if err != nil {
			return nil
		}
		return instr
	case expr.KindVariable:
		srcReg, ok := regFromVarID(e)
		if !ok {
			return nil
		}
		if srcReg.Equal(dst) {
			return nil // already holds this value: the instruction is left unchanged
		}
		instr, err := ir.NewInstruction(ir.Descriptors["mov"],
			[]ir.Operand{ir.Register(dst, ir.AccessWrite, size), ir.Register(srcReg, ir.AccessRead, e.Size())},
			accessSize)
		if err != nil {
			return nil
		}
		return instr
	}
	return nil
}
