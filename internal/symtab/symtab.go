// Package symtab implements the small symbol table that carries
// meta-variable bindings during a match attempt.
package symtab

import "vtilcore/internal/expr"

// Table maps a meta-variable label to the expression it was bound to
// during a match attempt. It is not safe for concurrent use: each match
// attempt constructs its own Table.
type Table struct {
	bindings map[string]expr.Expression
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{bindings: make(map[string]expr.Expression, 8)}
}

// TryBind attempts to bind label to e. If label is unbound, it binds
// and returns true. If label is already bound, it succeeds (returning
// true) iff the previous binding is structurally equal to e — this is
// what makes repeated meta-variables (e.g. "A - A") enforce that both
// occurrences matched the same subexpression.
func (t *Table) TryBind(label string, e expr.Expression) bool {
	if existing, ok := t.bindings[label]; ok {
		return expr.Equal(existing, e)
	}
	t.bindings[label] = e
	return true
}

// Get returns the expression bound to label, or (nil, false) if unbound.
func (t *Table) Get(label string) (expr.Expression, bool) {
	e, ok := t.bindings[label]
	return e, ok
}

// Clone returns a shallow copy, used so speculative match attempts
// (e.g. trying both commutative orderings) can be rolled back cheaply
// by discarding the clone on failure.
func (t *Table) Clone() *Table {
	c := New()
	for k, v := range t.bindings {
		c.bindings[k] = v
	}
	return c
}

// Merge copies all bindings of other into t, returning false (without
// partially applying) if any label conflicts.
func (t *Table) Merge(other *Table) bool {
	for k, v := range other.bindings {
		if existing, ok := t.bindings[k]; ok && !expr.Equal(existing, v) {
			return false
		}
	}
	for k, v := range other.bindings {
		t.bindings[k] = v
	}
	return true
}

// Labels returns the bound labels, for diagnostics/tests.
func (t *Table) Labels() []string {
	out := make([]string, 0, len(t.bindings))
	for k := range t.bindings {
		out = append(out, k)
	}
	return out
}
