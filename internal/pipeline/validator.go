// Package pipeline implements the pass scheduler and the structural
// validator: the default pass ordering over a Routine, and checks that
// distinguish hard errors from advisory warnings.
package pipeline

import (
	"fmt"

	"vtilcore/internal/ir"
)

// Report is the validator's result: errors indicate a Routine a pass
// must never produce, warnings are advisory findings a legitimate
// lifter output can still trigger. Rejecting warnings as errors would
// disqualify real lifter output, so the two levels stay separate.
type Report struct {
	Errors   []string
	Warnings []string
}

func (r *Report) addErr(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
func (r *Report) addWarn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs every structural check over routine.
func Validate(routine *ir.Routine) Report {
	var report Report

	entry, hasEntry := routine.EntryBlock()
	if !hasEntry {
		report.addErr("routine has no entry block")
	}

	blocks := routine.Blocks()
	byVIP := make(map[ir.VIP]*ir.BasicBlock, len(blocks))
	for _, b := range blocks {
		byVIP[b.VIP] = b
	}

	checkReachability(&report, entry, hasEntry, byVIP)
	checkEdgeSymmetry(&report, blocks, byVIP)

	for _, b := range blocks {
		checkInstructions(&report, b)
		checkTerminator(&report, b)
	}

	if hasEntry {
		checkStackBalance(&report, routine, entry, byVIP)
	}
	checkUseBeforeDef(&report, blocks)

	return report
}

func checkReachability(report *Report, entry *ir.BasicBlock, hasEntry bool, byVIP map[ir.VIP]*ir.BasicBlock) {
	if !hasEntry {
		return
	}
	seen := map[ir.VIP]bool{entry.VIP: true}
	stack := []ir.VIP{entry.VIP}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b, ok := byVIP[v]
		if !ok {
			continue
		}
		for _, s := range b.Successors() {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	for vip := range byVIP {
		if !seen[vip] {
			report.addWarn("block %d is unreachable from the entry block", vip)
		}
	}
}

func checkEdgeSymmetry(report *Report, blocks []*ir.BasicBlock, byVIP map[ir.VIP]*ir.BasicBlock) {
	for _, b := range blocks {
		for _, s := range b.Successors() {
			succ, ok := byVIP[s]
			if !ok {
				report.addErr("block %d has successor %d which does not exist", b.VIP, s)
				continue
			}
			if !containsVIP(succ.Predecessors(), b.VIP) {
				report.addErr("block %d lists %d as successor but %d does not list %d as predecessor", b.VIP, s, s, b.VIP)
			}
		}
		for _, p := range b.Predecessors() {
			pred, ok := byVIP[p]
			if !ok {
				report.addErr("block %d has predecessor %d which does not exist", b.VIP, p)
				continue
			}
			if !containsVIP(pred.Successors(), b.VIP) {
				report.addErr("block %d lists %d as predecessor but %d does not list %d as successor", b.VIP, p, p, b.VIP)
			}
		}
	}
}

func containsVIP(list []ir.VIP, v ir.VIP) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func checkInstructions(report *Report, b *ir.BasicBlock) {
	for i, instr := range b.Instructions {
		desc := instr.Descriptor
		if len(instr.Operands) != len(desc.OperandTypes) {
			report.addErr("block %d instruction %d (%s): operand count %d does not match descriptor's %d", b.VIP, i, desc.Name, len(instr.Operands), len(desc.OperandTypes))
			continue
		}
		for oi, want := range desc.OperandTypes {
			if instr.Operands[oi].Kind() != want {
				report.addErr("block %d instruction %d (%s): operand %d kind mismatch", b.VIP, i, desc.Name, oi)
			}
		}
		if desc.MemoryOperandIndex >= 0 {
			if desc.MemoryOperandIndex+1 >= len(instr.Operands) ||
				!instr.Operands[desc.MemoryOperandIndex].IsRegister() ||
				!instr.Operands[desc.MemoryOperandIndex+1].IsImmediate() {
				report.addErr("block %d instruction %d (%s): memory operand is not (register, immediate)", b.VIP, i, desc.Name)
			}
		}
		if instr.AccessSize == 0 || instr.AccessSize > 512 {
			report.addErr("block %d instruction %d (%s): access size %d out of (0, 512]", b.VIP, i, desc.Name, instr.AccessSize)
		}
	}
}

func checkTerminator(report *Report, b *ir.BasicBlock) {
	n := len(b.Instructions)
	numSucc := len(b.Successors())
	if n == 0 {
		if numSucc > 1 {
			report.addErr("block %d has no instructions but %d successors", b.VIP, numSucc)
		}
		return
	}
	term := b.Instructions[n-1]
	switch term.Descriptor.Name {
	case "ret":
		if numSucc != 0 {
			report.addErr("block %d terminates in ret but has %d successors", b.VIP, numSucc)
		}
	case "jmp":
		if numSucc != 1 {
			report.addErr("block %d terminates in unconditional jmp but has %d successors", b.VIP, numSucc)
		}
	case "jcc":
		if numSucc > 2 {
			report.addErr("block %d terminates in conditional branch but has %d successors", b.VIP, numSucc)
		}
	default:
		if numSucc > 1 {
			report.addErr("block %d terminates in a non-branching instruction but has %d successors", b.VIP, numSucc)
		}
	}
}

// checkStackBalance walks the static CFG from entry carrying the
// running sum of push/pop deltas and warns (never errors) when that sum
// is not zero at a ret. Each ret block is checked on every arrival, but
// every other block is expanded only once, with the delta of the first
// path that reaches it, so a path that reaches an already-expanded
// block with a different delta is not followed further.
func checkStackBalance(report *Report, routine *ir.Routine, entry *ir.BasicBlock, byVIP map[ir.VIP]*ir.BasicBlock) {
	type frame struct {
		vip   ir.VIP
		delta int64
	}
	visited := map[ir.VIP]bool{}
	stack := []frame{{vip: entry.VIP, delta: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b, ok := byVIP[f.vip]
		if !ok {
			continue
		}
		delta := f.delta
		for _, instr := range b.Instructions {
			switch instr.Descriptor.Name {
			case "push":
				delta++
			case "pop":
				delta--
			}
		}
		if len(b.Instructions) > 0 && b.Instructions[len(b.Instructions)-1].Descriptor.Name == "ret" {
			if delta != 0 {
				report.addWarn("stack imbalance of %d reaching ret in block %d", delta, b.VIP)
			}
			continue
		}
		key := f.vip
		if visited[key] {
			continue
		}
		visited[key] = true
		for _, s := range b.Successors() {
			stack = append(stack, frame{vip: s, delta: delta})
		}
	}
}

// checkUseBeforeDef warns (never errors, since lifters can legitimately
// produce reads of external/incoming state) when a register is read in
// a block before any instruction in that block has written it and the
// block has no predecessors to have defined it either.
func checkUseBeforeDef(report *Report, blocks []*ir.BasicBlock) {
	for _, b := range blocks {
		defined := map[string]bool{}
		for i, instr := range b.Instructions {
			for _, src := range instr.Sources() {
				if !defined[regName(src)] && len(b.Predecessors()) == 0 {
					report.addWarn("block %d instruction %d reads %s before any definition reaches it", b.VIP, i, src)
				}
			}
			if dst, ok := instr.Destination(); ok {
				defined[regName(dst)] = true
			}
		}
	}
}

func regName(r ir.RegisterDescriptor) string { return r.String() }
