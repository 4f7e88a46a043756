// Package transform applies (pattern, template) rewrites to a subject
// expression, instantiating the template under the match's bindings
// and accepting the result only if it passes a caller-supplied
// acceptance filter (typically the complexity filter).
package transform

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/errtag"
	"vtilcore/internal/expr"
	"vtilcore/internal/match"
	"vtilcore/internal/symtab"
)

func init() {
	match.SetInstantiator(Instantiate)
}

// reducer is used to evaluate simplify/try_simplify template helpers.
// internal/simplify overrides this at init; by default it is the
// identity, which is correct (if weaker) for templates that only
// combine already-simplified bindings.
var reducer func(expr.Expression) expr.Expression = func(e expr.Expression) expr.Expression { return e }

// SetReducer installs the simplifier used for the simplify/try_simplify
// template helpers. Called once from internal/simplify's init.
func SetReducer(f func(expr.Expression) expr.Expression) { reducer = f }

// Instantiate recursively substitutes each meta-variable in tpl with
// its bound expression, evaluates directive-only helpers, and builds
// the result through internal/expr's smart constructors.
func Instantiate(tpl *directive.Directive, table *symtab.Table) (expr.Expression, error) {
	switch tpl.Kind {
	case directive.KindConstant:
		return expr.NewConstant(tpl.ConstValue, tpl.Size), nil

	case directive.KindMeta:
		e, ok := table.Get(tpl.Label)
		if !ok {
			return nil, errtag.NotFoundf("unbound meta-variable %q in template", tpl.Label)
		}
		return e, nil

	case directive.KindOperation:
		return instantiateOperation(tpl, table)

	case directive.KindSpecial:
		return instantiateSpecial(tpl, table)
	}
	return nil, errtag.New("unknown directive kind %d", tpl.Kind)
}

func instantiateOperation(tpl *directive.Directive, table *symtab.Table) (expr.Expression, error) {
	rhs, err := Instantiate(tpl.RHS, table)
	if err != nil {
		return nil, err
	}
	if tpl.Op == bv.OpCast {
		return expr.NewCast(rhs, tpl.Size)
	}
	if tpl.Op == bv.OpUcast {
		return expr.NewUCast(rhs, tpl.Size)
	}
	if tpl.LHS == nil {
		return expr.NewUnary(tpl.Op, rhs)
	}
	lhs, err := Instantiate(tpl.LHS, table)
	if err != nil {
		return nil, err
	}
	return expr.NewBinary(tpl.Op, lhs, rhs)
}

func instantiateSpecial(tpl *directive.Directive, table *symtab.Table) (expr.Expression, error) {
	switch tpl.Special {
	case directive.SpecialIff, directive.SpecialIfTrue, directive.SpecialIfFalse:
		cond, body := tpl.Args[0], tpl.Args[1]
		condExpr, err := Instantiate(cond, table)
		if err != nil {
			return nil, err
		}
		reduced := reducer(condExpr)
		c, ok := reduced.ConstValue()
		if !ok {
			return nil, errtag.New("condition did not reduce to a constant")
		}
		nonzero := !c.IsZero()
		proceed := nonzero
		if tpl.Special == directive.SpecialIfFalse {
			proceed = !nonzero
		}
		if !proceed {
			return nil, errtag.New("template condition not satisfied")
		}
		return Instantiate(body, table)

	case directive.SpecialSimplify, directive.SpecialTrySimplify:
		body, err := Instantiate(tpl.Args[0], table)
		if err != nil {
			if tpl.Special == directive.SpecialTrySimplify {
				return body, nil
			}
			return nil, err
		}
		return reducer(body), nil

	case directive.SpecialUnpack:
		// Unpack expands a compound (__bt/__min/__max) operator back
		// into its concrete expression fragment; since those are
		// themselves instantiated into plain operator expressions here
		// (see SpecialBT/Min/Max below), unpack on an already-concrete
		// body is the identity.
		return Instantiate(tpl.Args[0], table)

	case directive.SpecialPopFlags:
		// pop_flags drops comparison/boolean "flag" decoration produced
		// by the boolean rule library, forcing the body's top-level
		// comparison (if any) down to its plain arithmetic equivalent
		// (A==B) -> (A-B); anything else instantiates unchanged.
		body, err := Instantiate(tpl.Args[0], table)
		if err != nil {
			return nil, err
		}
		if body.Kind() == expr.KindOperation && body.Op() == bv.OpEq {
			return expr.NewBinary(bv.OpSub, body.LHS(), body.RHS())
		}
		return body, nil

	case directive.SpecialBT:
		// __bt(value, bit) -> (value >> bit) & 1
		value, err := Instantiate(tpl.Args[0], table)
		if err != nil {
			return nil, err
		}
		bit, err := Instantiate(tpl.Args[1], table)
		if err != nil {
			return nil, err
		}
		shifted, err := expr.NewBinary(bv.OpShr, value, bit)
		if err != nil {
			return nil, err
		}
		one := expr.ConstFromInt64(1, value.Size())
		return expr.NewBinary(bv.OpAnd, shifted, one)

	case directive.SpecialMin:
		a, err := Instantiate(tpl.Args[0], table)
		if err != nil {
			return nil, err
		}
		b, err := Instantiate(tpl.Args[1], table)
		if err != nil {
			return nil, err
		}
		return selectByComparison(bv.OpSlt, a, b)

	case directive.SpecialMax:
		a, err := Instantiate(tpl.Args[0], table)
		if err != nil {
			return nil, err
		}
		b, err := Instantiate(tpl.Args[1], table)
		if err != nil {
			return nil, err
		}
		return selectByComparison(bv.OpSgt, a, b)
	}
	return nil, errtag.New("unknown special directive %d", tpl.Special)
}

// selectByComparison builds "cmp(a,b) ? a : b" without a ternary
// expression node (the algebra has none): when either side is already
// constant the comparison itself folds away via the smart constructors,
// collapsing __min/__max of two literals to a single literal, which is
// the only case the pack/unpack tables are expected to simplify (see
// internal/rules's pack/unpack library).
func selectByComparison(cmp bv.Op, a, b expr.Expression) (expr.Expression, error) {
	ac, aok := a.ConstValue()
	bc, bok := b.ConstValue()
	if aok && bok {
		switch cmp {
		case bv.OpSlt:
			if ac.Cmp(bc) < 0 {
				return a, nil
			}
			return b, nil
		case bv.OpSgt:
			if ac.Cmp(bc) > 0 {
				return a, nil
			}
			return b, nil
		}
	}
	// Symbolic case: no native select, so __min/__max over a symbolic
	// operand stays an uninstantiated comparison pair; callers needing
	// the actual branchless min/max expression should avoid matching
	// pack rules when operands are not both constant (see
	// internal/rules/packunpack.go).
	return expr.NewBinary(cmp, a, b)
}
