package lexer

import (
	"minisynth/internal/diag"
	"minisynth/internal/token"
)

// scanNumber reads decimal integers and sized literals:
//
//	123  1_000  4'b1010  8'hff  'd12  16'o17
//
// A width without a base (e.g. "4'") is reported and returned as Invalid.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() != '\'' {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.IntLit, Span: sp, Text: lx.text(sp)}
	}
	lx.cursor.Bump() // '
	base := lx.cursor.Peek()
	if base >= 'A' && base <= 'Z' {
		base += 'a' - 'A'
	}
	switch base {
	case 'b', 'o', 'd', 'h':
		lx.cursor.Bump()
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexBadSizedLiteral, sp, "expected base b, o, d or h after '")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	digits := 0
	for isDigitOfBase(lx.cursor.Peek(), base) {
		if lx.cursor.Bump() != '_' {
			digits++
		}
	}
	sp := lx.cursor.SpanFrom(start)
	if digits == 0 {
		lx.report(diag.LexBadSizedLiteral, sp, "sized literal has no digits")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	if isIdentContinueByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp = lx.cursor.SpanFrom(start)
		lx.report(diag.LexBadNumber, sp, "invalid digit in sized literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: token.SizedLit, Span: sp, Text: lx.text(sp)}
}
