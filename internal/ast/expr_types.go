package ast

import (
	"minisynth/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	// ExprVar is an identifier, optionally with parameters: x, f#(2), Bit#(4).
	ExprVar ExprKind = iota
	// ExprLit is an integer, sized, boolean or don't-care literal.
	ExprLit
	ExprBinary
	ExprUnary
	ExprTernary
	// ExprCall applies a callee (normally an ExprVar) to arguments.
	ExprCall
	// ExprField is a member access: s.field or sub.method.
	ExprField
	ExprIndex
	// ExprSlice is x[msb:lsb].
	ExprSlice
	// ExprConcat is {a, b, c}.
	ExprConcat
	// ExprStruct is a struct literal T{a: x, b: y}.
	ExprStruct
	// ExprCase is the expression form of case ... endcase.
	ExprCase
	// ExprParen keeps the grouping span; it evaluates to its inner expression.
	ExprParen
)

var exprKindNames = [...]string{
	ExprVar:     "Var",
	ExprLit:     "Lit",
	ExprBinary:  "Binary",
	ExprUnary:   "Unary",
	ExprTernary: "Ternary",
	ExprCall:    "Call",
	ExprField:   "Field",
	ExprIndex:   "Index",
	ExprSlice:   "Slice",
	ExprConcat:  "Concat",
	ExprStruct:  "Struct",
	ExprCase:    "Case",
	ExprParen:   "Paren",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "ExprKind(?)"
}

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprLitKind distinguishes literal spellings.
type ExprLitKind uint8

const (
	LitInt ExprLitKind = iota
	// LitSized is 4'b1010 / 'hff; Text keeps the spelling.
	LitSized
	LitTrue
	LitFalse
	// LitDontCare is '?'.
	LitDontCare
)

type ExprVarData struct {
	Name source.StringID
	// HasParams is set when a #(...) list was written, even if empty.
	HasParams bool
	Params    []ExprID
}

type ExprLitData struct {
	Kind ExprLitKind
	Text string
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type ExprTernaryData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprFieldData struct {
	Target ExprID
	Field  source.StringID
}

type ExprIndexData struct {
	Target ExprID
	Index  ExprID
}

type ExprSliceData struct {
	Target ExprID
	Msb    ExprID
	Lsb    ExprID
}

type ExprConcatData struct {
	Parts []ExprID
}

type FieldInit struct {
	Name  source.StringID
	Value ExprID
	Span  source.Span
}

type ExprStructData struct {
	Type   ExprID
	Fields []FieldInit
}

// CaseExprArm is one `l1, l2: value;` arm.
type CaseExprArm struct {
	Labels []ExprID
	Value  ExprID
	Span   source.Span
}

type ExprCaseData struct {
	Selector ExprID
	Arms     []CaseExprArm
	// Default is NoExprID when the case has no default arm.
	Default ExprID
}

type ExprParenData struct {
	Inner ExprID
}
