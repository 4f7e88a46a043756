package expr

import (
	"fmt"
	"strings"

	"vtilcore/internal/bv"
)

// Format renders an expression as a fully-parenthesized infix string,
// e.g. "((x:64 + 0:64) * 1:64)". Template instantiation in
// internal/transform expands __bt/__min/__max into plain operators, so
// no expression node carries a compound operator and Format itself only
// needs to know about the closed operator table in internal/bv.
func Format(e Expression) string {
	var sb strings.Builder
	format(e, &sb)
	return sb.String()
}

func format(e Expression, sb *strings.Builder) {
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch e.Kind() {
	case KindConstant:
		c, _ := e.ConstValue()
		fmt.Fprintf(sb, "%s:%d", c.String(), e.Size())
	case KindVariable:
		id, _ := e.VarID()
		fmt.Fprintf(sb, "%s:%d", id.String(), e.Size())
	case KindOperation:
		info := bv.Table[e.Op()]
		sb.WriteByte('(')
		if e.IsUnary() {
			sb.WriteString(info.Symbol)
			format(e.Args()[0], sb)
		} else {
			format(e.LHS(), sb)
			sb.WriteByte(' ')
			sb.WriteString(info.Symbol)
			sb.WriteByte(' ')
			format(e.RHS(), sb)
		}
		sb.WriteByte(')')
	}
}

func (e *Expr) String() string { return Format(e) }
