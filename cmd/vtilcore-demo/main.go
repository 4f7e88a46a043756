// vtilcore-demo builds a small lifted routine through the IR
// construction API, runs the optimization pipeline over it, and prints
// a colorized per-pass summary plus the validator report. With -expr it
// instead parses and simplifies a single expression, e.g.
//
//	vtilcore-demo -expr '(x:64 + 0) * 1'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"vtilcore/internal/arch"
	"vtilcore/internal/bv"
	"vtilcore/internal/exprtext"
	"vtilcore/internal/ir"
	"vtilcore/internal/pipeline"
	"vtilcore/internal/pipelinelog"
	"vtilcore/internal/simplify"
)

func main() {
	exprSrc := flag.String("expr", "", "simplify a single expression instead of running the pipeline demo")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	pipelinelog.Configure(*verbosity)

	if *exprSrc != "" {
		if err := runExpr(*exprSrc); err != nil {
			color.Red("error: %s", err)
			os.Exit(1)
		}
		return
	}

	if err := runPipelineDemo(); err != nil {
		color.Red("error: %s", err)
		os.Exit(1)
	}
}

func runExpr(src string) error {
	e, err := exprtext.Parse(src, nil)
	if err != nil {
		return err
	}
	out := simplify.Simplify(e, false, true)
	fmt.Printf("input:      %s   (complexity %.1f)\n", e, e.Complexity())
	fmt.Printf("simplified: %s   (complexity %.1f)\n", out, out.Complexity())
	if out.Complexity() < e.Complexity() {
		color.Green("reduced")
	} else {
		color.Yellow("already in normal form")
	}
	return nil
}

// runPipelineDemo lifts a toy obfuscated stub by hand: a mov chain
// feeding one live computation, a dead constant load, and a jump thunk
// on the way to the exit block.
func runPipelineDemo() error {
	r := ir.NewRoutine(arch.Amd64)

	v1 := r.AllocRegister(64)
	v2 := r.AllocRegister(64)
	v3 := r.AllocRegister(64)
	v4 := r.AllocRegister(64)
	v5 := r.AllocRegister(64)
	base := ir.RegisterDescriptor{Type: ir.RegGeneralPurpose, ID: 0, Bitcount: 64}

	entry, _ := r.CreateBlock(0x1000)
	thunk, _ := r.CreateBlock(0x2000)
	exit, _ := r.CreateBlock(0x3000)
	if err := entry.AddSuccessor(thunk); err != nil {
		return err
	}
	if err := thunk.AddSuccessor(exit); err != nil {
		return err
	}

	emit := func(b *ir.BasicBlock, name string, operands ...ir.Operand) error {
		instr, err := ir.NewInstruction(ir.Descriptors[name], operands, 64)
		if err != nil {
			return err
		}
		return b.AddInstruction(instr)
	}

	wr := func(reg ir.RegisterDescriptor) ir.Operand { return ir.Register(reg, ir.AccessWrite, 64) }
	rd := func(reg ir.RegisterDescriptor) ir.Operand { return ir.Register(reg, ir.AccessRead, 64) }
	imm := func(v int64) ir.Operand { return ir.Immediate(bv.FromInt64(v, 64), 64) }

	steps := []error{
		emit(entry, "movi", wr(v1), imm(42)),
		emit(entry, "mov", wr(v2), rd(v1)),
		emit(entry, "mov", wr(v3), rd(v2)),
		emit(entry, "movi", wr(v4), imm(100)),
		emit(entry, "addi", wr(v5), rd(v3), imm(10)),
		emit(entry, "jmp", imm(0x2000)),
		emit(thunk, "jmp", imm(0x3000)),
		emit(exit, "str", rd(base), imm(0), rd(v5)),
		emit(exit, "ret"),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}

	countBefore := instructionCount(r)
	fmt.Printf("before: %d blocks, %d instructions\n", r.BlockCount(), countBefore)
	printRoutine(r)

	summary := pipeline.RunAll(context.Background(), r)

	fmt.Println()
	color.Cyan("pipeline: %d transformations in %s", summary.Total, summary.Duration)
	names := make([]string, 0, len(summary.PerPassCounts))
	for name := range summary.PerPassCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n := summary.PerPassCounts[name]
		if n > 0 {
			color.Green("  %-28s %d", name, n)
		} else {
			fmt.Printf("  %-28s %d\n", name, n)
		}
	}

	fmt.Println()
	fmt.Printf("after: %d blocks, %d instructions\n", r.BlockCount(), instructionCount(r))
	printRoutine(r)

	report := pipeline.Validate(r)
	for _, warn := range report.Warnings {
		color.Yellow("warning: %s", warn)
	}
	for _, e := range report.Errors {
		color.Red("error: %s", e)
	}
	if len(report.Errors) == 0 {
		color.Green("✅ routine validates cleanly")
	} else {
		return fmt.Errorf("%d validator errors", len(report.Errors))
	}
	return nil
}

func instructionCount(r *ir.Routine) int {
	total := 0
	for _, b := range r.Blocks() {
		total += len(b.Instructions)
	}
	return total
}

func printRoutine(r *ir.Routine) {
	blocks := r.Blocks()
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].VIP < blocks[j].VIP })
	for _, b := range blocks {
		fmt.Printf("  %#x:\n", uint64(b.VIP))
		for _, instr := range b.Instructions {
			fmt.Printf("    %s\n", instr)
		}
	}
}
