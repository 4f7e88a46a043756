// Package match implements the fast matcher: an O(1) signature
// prefilter followed by a recursive structural match that tries both
// operand orderings for commutative operators.
package match

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/expr"
	"vtilcore/internal/symtab"
)

// reducer reduces an expression toward a constant. By default this is
// just the identity (the smart constructors in internal/expr already
// fold pure-constant subtrees, which covers the common "iff" case of a
// condition built entirely from already-constant bindings). The
// internal/simplify package registers the full rule-driven simplifier
// here via SetReducer at init time, which is how iff conditions get
// fully reduced to a concrete constant without internal/match
// importing internal/simplify directly and creating an import cycle
// (simplify -> transform -> match).
var reducer func(expr.Expression) expr.Expression = func(e expr.Expression) expr.Expression { return e }

// SetReducer installs the function used to reduce an iff/if_true/
// if_false condition to a constant. Called once, from
// internal/simplify's init.
func SetReducer(f func(expr.Expression) expr.Expression) { reducer = f }

// Instantiator builds a concrete expression from a directive template
// under a binding table. internal/transform supplies the real
// implementation via SetInstantiator at init time; internal/match only
// needs it to evaluate an iff condition.
var instantiator func(tpl *directive.Directive, table *symtab.Table) (expr.Expression, error)

// SetInstantiator installs the template-instantiation function.
func SetInstantiator(f func(tpl *directive.Directive, table *symtab.Table) (expr.Expression, error)) {
	instantiator = f
}

// Match attempts to match pattern against subject, recording captures
// into table. On failure it returns false and leaves table unchanged:
// speculative branches bind into clones, which are copied back only on
// success.
func Match(pattern *directive.Directive, subject expr.Expression, table *symtab.Table) bool {
	if subject == nil {
		return false
	}
	// O(1) signature prefilter.
	if !expr.SignatureSubset(directive.Signature(pattern), subject.Signature()) {
		return false
	}

	switch pattern.Kind {
	case directive.KindMeta:
		switch pattern.Class {
		case directive.MetaConst:
			if subject.Kind() != expr.KindConstant {
				return false
			}
		case directive.MetaNonConst:
			if subject.Kind() == expr.KindConstant {
				return false
			}
		}
		return table.TryBind(pattern.Label, subject)

	case directive.KindConstant:
		if subject.Kind() != expr.KindConstant {
			return false
		}
		c, _ := subject.ConstValue()
		return subject.Size() == pattern.Size && c.Eq(pattern.ConstValue)

	case directive.KindOperation:
		if subject.Kind() != expr.KindOperation || subject.Op() != pattern.Op {
			return false
		}
		isUnary := pattern.LHS == nil
		if isUnary != subject.IsUnary() {
			return false
		}
		if pattern.Op == bv.OpCast || pattern.Op == bv.OpUcast {
			if subject.Size() != pattern.Size {
				return false
			}
		}
		if isUnary {
			return Match(pattern.RHS, subject.RHS(), table)
		}
		info := bv.Table[pattern.Op]
		// Try the direct ordering first.
		direct := table.Clone()
		if Match(pattern.LHS, subject.LHS(), direct) && Match(pattern.RHS, subject.RHS(), direct) {
			*table = *direct
			return true
		}
		if info.Commutative {
			swapped := table.Clone()
			if Match(pattern.LHS, subject.RHS(), swapped) && Match(pattern.RHS, subject.LHS(), swapped) {
				*table = *swapped
				return true
			}
		}
		// A commutative child commits to the first ordering that fits the
		// bindings made so far, so also try binding the right operand
		// first: its captures then steer the left child's choice.
		if retry := table.Clone(); Match(pattern.RHS, subject.RHS(), retry) && Match(pattern.LHS, subject.LHS(), retry) {
			*table = *retry
			return true
		}
		if info.Commutative {
			if retry := table.Clone(); Match(pattern.RHS, subject.LHS(), retry) && Match(pattern.LHS, subject.RHS(), retry) {
				*table = *retry
				return true
			}
		}
		return false

	case directive.KindSpecial:
		return matchSpecial(pattern, subject, table)
	}
	return false
}

func matchSpecial(pattern *directive.Directive, subject expr.Expression, table *symtab.Table) bool {
	switch pattern.Special {
	case directive.SpecialIff:
		cond, body := pattern.Args[0], pattern.Args[1]
		attempt := table.Clone()
		if !Match(body, subject, attempt) {
			return false
		}
		if !conditionHolds(cond, attempt) {
			return false
		}
		*table = *attempt
		return true
	case directive.SpecialIfTrue:
		cond, body := pattern.Args[0], pattern.Args[1]
		attempt := table.Clone()
		if !Match(body, subject, attempt) || !conditionHolds(cond, attempt) {
			return false
		}
		*table = *attempt
		return true
	case directive.SpecialIfFalse:
		cond, body := pattern.Args[0], pattern.Args[1]
		attempt := table.Clone()
		if !Match(body, subject, attempt) || conditionHolds(cond, attempt) {
			return false
		}
		*table = *attempt
		return true
	}
	return false
}

// conditionHolds instantiates cond under table's bindings, reduces it,
// and reports whether it is a nonzero constant.
func conditionHolds(cond *directive.Directive, table *symtab.Table) bool {
	if instantiator == nil {
		return false
	}
	inst, err := instantiator(cond, table)
	if err != nil {
		return false
	}
	reduced := reducer(inst)
	c, ok := reduced.ConstValue()
	if !ok {
		return false
	}
	return !c.IsZero()
}
