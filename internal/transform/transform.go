package transform

import (
	"vtilcore/internal/directive"
	"vtilcore/internal/expr"
	"vtilcore/internal/match"
	"vtilcore/internal/symtab"
)

// AcceptFilter decides whether an instantiated rewrite result should be
// accepted in place of the original subject.
type AcceptFilter func(subject, candidate expr.Expression) bool

// ComplexityLess is the universal-simplifier acceptance filter: the
// rewrite is accepted only if it strictly decreases complexity, which
// is what guarantees the simplifier's termination.
func ComplexityLess(subject, candidate expr.Expression) bool {
	return candidate.Complexity() < subject.Complexity()
}

// ComplexityLessEqual accepts rewrites that keep complexity flat or
// shrink it: the canonicalization family (De Morgan, comparison
// inversion, negation over subtraction) whose score never moves but
// whose shape unlocks other rules.
func ComplexityLessEqual(subject, candidate expr.Expression) bool {
	return candidate.Complexity() <= subject.Complexity()
}

// Always accepts any instantiated candidate unconditionally. Join and
// pack/unpack descriptors use it: joins are allowed to grow the
// expression because the simplifier takes them speculatively and keeps
// only results whose settled complexity does not regress, and
// pack/unpack exist purely for display, outside the non-regression
// argument.
func Always(subject, candidate expr.Expression) bool { return true }

// Transform attempts to match pattern against subject; on success it
// instantiates template under the resulting bindings and returns the
// instantiated expression iff accept approves it. It returns (nil,
// false) on any failure: no match, instantiation error, or a rejected
// acceptance filter.
func Transform(subject expr.Expression, pattern, template *directive.Directive, accept AcceptFilter) (expr.Expression, bool) {
	table := symtab.New()
	if !match.Match(pattern, subject, table) {
		return nil, false
	}
	candidate, err := Instantiate(template, table)
	if err != nil {
		return nil, false
	}
	if !accept(subject, candidate) {
		return nil, false
	}
	return candidate, true
}
