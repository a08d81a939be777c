package lexer

import (
	"minisynth/internal/token"
)

// scanIdentOrKeyword reads [A-Za-z_$][A-Za-z0-9_$]*. Identifiers starting with an
// uppercase letter are TypeIdent.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	first := lx.cursor.Bump()
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	kind := token.Ident
	if first >= 'A' && first <= 'Z' {
		kind = token.TypeIdent
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}
