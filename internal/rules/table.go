// Package rules holds the four static rewrite-rule libraries
// (universal, boolean, join, pack/unpack) as tables of (pattern,
// template, acceptance filter) triples, each indexed by the pattern's
// top-level operator so internal/simplify only ever tries rules that
// could possibly apply to the node it is looking at.
package rules

import (
	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/expr"
	"vtilcore/internal/transform"
)

// Rule is one (pattern -> template) rewrite entry.
type Rule struct {
	Name     string
	Pattern  *directive.Directive
	Template *directive.Directive
	Accept   transform.AcceptFilter
}

// Table indexes a rule list by the pattern's top-level operator, with a
// wildcard bucket for patterns whose top node is a bare meta-variable
// (matches any subject, so it must be tried regardless of operator).
type Table struct {
	byOp     map[bv.Op][]*Rule
	wildcard []*Rule
}

// NewTable builds an indexed Table from a flat rule list.
func NewTable(rules []*Rule) *Table {
	t := &Table{byOp: make(map[bv.Op][]*Rule, len(rules))}
	for _, r := range rules {
		if r.Pattern.Kind == directive.KindOperation {
			t.byOp[r.Pattern.Op] = append(t.byOp[r.Pattern.Op], r)
		} else {
			t.wildcard = append(t.wildcard, r)
		}
	}
	return t
}

// Apply tries every rule applicable to subject's top-level shape, in
// table order, and returns the first accepted rewrite.
func (t *Table) Apply(subject expr.Expression) (expr.Expression, string, bool) {
	var candidates []*Rule
	if subject.Kind() == expr.KindOperation {
		candidates = t.byOp[subject.Op()]
	}
	if len(t.wildcard) > 0 {
		candidates = append(append([]*Rule{}, candidates...), t.wildcard...)
	}
	for _, r := range candidates {
		if out, ok := transform.Transform(subject, r.Pattern, r.Template, r.Accept); ok {
			return out, r.Name, true
		}
	}
	return nil, "", false
}

// commonWidths is the set of bit widths rule generators instantiate
// literal-constant rules for. The directive AST has no notion of "a
// zero matching this other meta-variable's width", so width-specific
// identity rules are generated once per width seen in practice rather
// than expressed as one dependently-typed pattern.
var commonWidths = []bv.Bitcount{1, 8, 16, 32, 64, 128}

// forEachWidth calls mk once per commonWidths entry and collects the
// resulting rules.
func forEachWidth(mk func(w bv.Bitcount) *Rule) []*Rule {
	out := make([]*Rule, 0, len(commonWidths))
	for _, w := range commonWidths {
		out = append(out, mk(w))
	}
	return out
}
