package exprtext

import (
	"math/big"

	"vtilcore/internal/bv"
	"vtilcore/internal/errtag"
	"vtilcore/internal/expr"
	"vtilcore/internal/uid"
)

// binaryOps maps each rewritable binary operator's surface symbol
// (bv.Table is the single source of truth for operator symbols, per
// the algebra's own convention) to its bv.Op, so the parser never
// hand-duplicates the operator list the expression package already
// owns.
var binaryOps = buildBinaryOps()

func buildBinaryOps() map[string]bv.Op {
	out := make(map[string]bv.Op)
	for op := bv.Op(1); op < bv.Op(len(bv.Table)); op++ {
		info := bv.Table[op]
		if info.Symbol == "" || info.Symbolic || info.Arity != bv.Binary {
			continue
		}
		if op == bv.OpCast || op == bv.OpUcast {
			continue
		}
		// First writer wins: "-" is claimed by OpSub (binary) before
		// OpNeg (unary) is ever considered here, since only Binary-arity
		// entries are visited at all.
		if _, exists := out[info.Symbol]; !exists {
			out[info.Symbol] = op
		}
	}
	return out
}

// precedenceOf orders operators the way a reader of a C-like bitwise
// DSL expects: multiplicative tightest, then additive, shifts,
// bitwise and/xor/or loosening in turn, comparisons loosest.
func precedenceOf(op bv.Op) int {
	info := bv.Table[op]
	switch {
	case info.Comparison:
		return 1
	case op == bv.OpOr:
		return 2
	case op == bv.OpXor:
		return 3
	case op == bv.OpAnd:
		return 4
	case op == bv.OpShl, op == bv.OpShr, op == bv.OpSar, op == bv.OpRol, op == bv.OpRor:
		return 5
	case op == bv.OpAdd, op == bv.OpSub:
		return 6
	default:
		return 7
	}
}

const defaultWidth bv.Bitcount = 64

// node carries an expression alongside whether it is a bare literal
// subtree that has not yet been pinned to a concrete width by any
// sized operand it has met — the mechanism behind "100 + x:32"
// resolving the literal to 32 bits without requiring every number to
// spell out its own width.
type node struct {
	e       expr.Expression
	unsized bool
}

// parser walks a flat token slice with peek/advance/check helpers.
type parser struct {
	tokens []token
	pos    int
	vars   map[string]bv.Bitcount
	ids    map[string]uid.ID
}

// Parse turns src into an expr.Expression. vars declares the width of
// every variable name src may reference; a name can also declare (or
// redeclare, consistently) its own width inline as "name:NN". Bare
// numeric literals default to 64 bits unless given an inline ":NN"
// suffix or combined with a sized operand, in which case they widen or
// narrow to match it.
func Parse(src string, vars map[string]bv.Bitcount) (expr.Expression, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: toks, vars: vars, ids: make(map[string]uid.ID)}
	n, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if !p.check("EOF") {
		return nil, errtag.New("exprtext: unexpected trailing token %q", p.peek().value)
	}
	return n.e, nil
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: "EOF"}
	}
	return p.tokens[p.pos]
}

func (p *parser) check(kind string) bool { return p.peek().kind == kind }

func (p *parser) advance() token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr(minPrec int) (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return node{}, err
	}

	for {
		t := p.peek()
		if t.kind != "Operator" {
			break
		}
		op, ok := binaryOps[t.value]
		if !ok {
			break
		}
		prec := precedenceOf(op)
		if prec < minPrec {
			break
		}
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return node{}, err
		}
		left, err = p.combine(op, left, right)
		if err != nil {
			return node{}, err
		}
	}

	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == "Operator" && (t.value == "-" || t.value == "~") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return node{}, err
		}
		op := bv.OpNeg
		if t.value == "~" {
			op = bv.OpNot
		}
		e, err := expr.NewUnary(op, operand.e)
		if err != nil {
			return node{}, errtag.New("exprtext: %s", err)
		}
		return node{e: e, unsized: operand.unsized}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case "LParen":
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return node{}, err
		}
		if !p.check("RParen") {
			return node{}, errtag.New("exprtext: expected ')'")
		}
		p.advance()
		return p.parseSuffixWidth(inner)

	case "Hex", "Decimal":
		p.advance()
		v, err := parseLiteral(t)
		if err != nil {
			return node{}, err
		}
		n := node{e: expr.NewConstant(bv.FromBigInt(v, defaultWidth), defaultWidth), unsized: true}
		return p.parseSuffixWidth(n)

	case "Ident":
		p.advance()
		return p.parseIdent(t.value)
	}
	return node{}, errtag.New("exprtext: unexpected token %q", t.value)
}

// parseSuffixWidth consumes an optional ":NN" width declarator trailing
// a literal or parenthesized subexpression, re-pinning a still-unsized
// literal to that width.
func (p *parser) parseSuffixWidth(n node) (node, error) {
	if !p.check("Colon") {
		return n, nil
	}
	p.advance()
	if !p.check("Decimal") {
		return node{}, errtag.New("exprtext: expected a width after ':'")
	}
	widthTok := p.advance()
	width, err := parseWidth(widthTok.value)
	if err != nil {
		return node{}, err
	}
	return p.pin(n, width)
}

func (p *parser) parseIdent(name string) (node, error) {
	width, declared := p.vars[name]
	if p.check("Colon") {
		p.advance()
		if !p.check("Decimal") {
			return node{}, errtag.New("exprtext: expected a width after ':'")
		}
		widthTok := p.advance()
		inline, err := parseWidth(widthTok.value)
		if err != nil {
			return node{}, err
		}
		if declared && inline != width {
			return node{}, errtag.New("exprtext: variable %q declared at %d bits but used at %d bits", name, width, inline)
		}
		width, declared = inline, true
	}
	if !declared {
		return node{}, errtag.New("exprtext: undeclared variable %q (give it a width via vars or a \"%s:NN\" suffix)", name, name)
	}

	id, ok := p.ids[name]
	if !ok {
		id = uid.New(name)
		p.ids[name] = id
	}
	e, err := expr.NewVariable(id, width)
	if err != nil {
		return node{}, errtag.New("exprtext: %s", err)
	}
	return node{e: e}, nil
}

// pin forces a still-unsized literal subtree to width bits. It is only
// ever called on constants (unsized is only set on pure-literal
// subtrees), so ConstValue always succeeds here.
func (p *parser) pin(n node, width bv.Bitcount) (node, error) {
	if !n.unsized {
		if n.e.Size() != width {
			return node{}, errtag.New("exprtext: width mismatch: %d bits vs %d bits", n.e.Size(), width)
		}
		return n, nil
	}
	c, _ := n.e.ConstValue()
	return node{e: expr.NewConstant(bv.FromBigInt(c.Big(), width), width)}, nil
}

// combine builds a binary operation node, widening whichever side (if
// either) is still an unsized bare literal to match its sibling before
// calling the strict-width smart constructor.
func (p *parser) combine(op bv.Op, l, r node) (node, error) {
	switch {
	case l.unsized && !r.unsized:
		widened, err := p.pin(l, r.e.Size())
		if err != nil {
			return node{}, err
		}
		l = widened
	case r.unsized && !l.unsized:
		widened, err := p.pin(r, l.e.Size())
		if err != nil {
			return node{}, err
		}
		r = widened
	}

	e, err := expr.NewBinary(op, l.e, r.e)
	if err != nil {
		return node{}, errtag.New("exprtext: %s", err)
	}
	return node{e: e, unsized: l.unsized && r.unsized}, nil
}

func parseLiteral(t token) (*big.Int, error) {
	v := new(big.Int)
	base := 10
	s := t.value
	if t.kind == "Hex" {
		base = 16
		s = s[2:]
	}
	if _, ok := v.SetString(s, base); !ok {
		return nil, errtag.New("exprtext: malformed numeric literal %q", t.value)
	}
	return v, nil
}

func parseWidth(s string) (bv.Bitcount, error) {
	v := new(big.Int)
	if _, ok := v.SetString(s, 10); !ok || !v.IsUint64() || v.Uint64() == 0 {
		return 0, errtag.New("exprtext: invalid width %q", s)
	}
	return bv.Bitcount(v.Uint64()), nil
}
