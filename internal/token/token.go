package token

import (
	"minisynth/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric, boolean or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, SizedLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFunction && t.Kind <= KwFalse
}

// IsPunctOrOp reports whether the token is punctuation or an operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind >= Plus && t.Kind <= RBrace
}

// IsIdent reports whether the token is any identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident || t.Kind == TypeIdent }
