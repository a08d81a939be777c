package lexer

import (
	"fmt"

	"minisynth/internal/diag"
	"minisynth/internal/token"
)

// scanOperatorOrPunct matches the longest operator at the cursor.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	kind := token.Invalid

	switch {
	case lx.try2('*', '*'):
		kind = token.StarStar
	case lx.try2('<', '<'):
		kind = token.Shl
	case lx.try2('>', '>'):
		kind = token.Shr
	case lx.try2('<', '='):
		kind = token.LtEq
	case lx.try2('>', '='):
		kind = token.GtEq
	case lx.try2('=', '='):
		kind = token.EqEq
	case lx.try2('!', '='):
		kind = token.BangEq
	case lx.try2('&', '&'):
		kind = token.AndAnd
	case lx.try2('|', '|'):
		kind = token.OrOr
	case lx.try2('^', '~'), lx.try2('~', '^'):
		kind = token.CaretTilde
	default:
		kind = singleCharKind(lx.cursor.Peek())
		lx.cursor.Bump()
	}

	sp := lx.cursor.SpanFrom(start)
	if kind == token.Invalid {
		lx.report(diag.LexUnknownChar, sp, fmt.Sprintf("unknown character %q", lx.text(sp)))
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

func singleCharKind(b byte) token.Kind {
	switch b {
	case '+':
		return token.Plus
	case '-':
		return token.Minus
	case '*':
		return token.Star
	case '/':
		return token.Slash
	case '%':
		return token.Percent
	case '<':
		return token.Lt
	case '>':
		return token.Gt
	case '&':
		return token.Amp
	case '|':
		return token.Pipe
	case '^':
		return token.Caret
	case '~':
		return token.Tilde
	case '!':
		return token.Bang
	case '?':
		return token.Question
	case ':':
		return token.Colon
	case ';':
		return token.Semicolon
	case ',':
		return token.Comma
	case '.':
		return token.Dot
	case '=':
		return token.Assign
	case '#':
		return token.Hash
	case '(':
		return token.LParen
	case ')':
		return token.RParen
	case '[':
		return token.LBracket
	case ']':
		return token.RBracket
	case '{':
		return token.LBrace
	case '}':
		return token.RBrace
	}
	return token.Invalid
}
