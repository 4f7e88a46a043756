// Package exprtext implements a small textual surface for the
// expression algebra: a Pratt-precedence parser turning arithmetic,
// bitwise, comparison and shift notation into expr.Expression values,
// for tests and the demo CLI to build expressions from plain source
// rather than constructing a DAG by hand. Tokenization uses a
// github.com/alecthomas/participle/v2/lexer stateful lexer; the
// precedence climbing calls straight through to the expression
// algebra's smart constructors.
package exprtext

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"vtilcore/internal/errtag"
)

var textLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Hex", Pattern: `0[xX][0-9a-fA-F]+`},
		{Name: "Decimal", Pattern: `[0-9]+`},
		{Name: "Operator", Pattern: `(==|!=|<=|>=|<<|>>|[-+*/%&|^<>~])`},
		{Name: "Colon", Pattern: `:`},
		{Name: "LParen", Pattern: `\(`},
		{Name: "RParen", Pattern: `\)`},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	},
})

var symbolNames = buildSymbolNames()

func buildSymbolNames() map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string)
	for name, tt := range textLexer.Symbols() {
		out[tt] = name
	}
	return out
}

// token is a classified lexeme: kind names the lexer rule that produced
// it ("Ident", "Hex", "Operator", ...), or "EOF" at the end of input.
type token struct {
	kind  string
	value string
}

func tokenize(src string) ([]token, error) {
	lx, err := textLexer.Lex("exprtext", strings.NewReader(src))
	if err != nil {
		return nil, errtag.New("exprtext: %s", err)
	}
	raw, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, errtag.New("exprtext: %s", err)
	}

	out := make([]token, 0, len(raw))
	for _, t := range raw {
		if t.EOF() {
			out = append(out, token{kind: "EOF"})
			continue
		}
		name := symbolNames[t.Type]
		if name == "Whitespace" {
			continue
		}
		out = append(out, token{kind: name, value: t.Value})
	}
	return out, nil
}
