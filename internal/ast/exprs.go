package ast

import (
	"minisynth/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena    *Arena[Expr]
	Vars     *Arena[ExprVarData]
	Literals *Arena[ExprLitData]
	Binaries *Arena[ExprBinaryData]
	Unaries  *Arena[ExprUnaryData]
	Ternary  *Arena[ExprTernaryData]
	Calls    *Arena[ExprCallData]
	Fields   *Arena[ExprFieldData]
	Indices  *Arena[ExprIndexData]
	Slices   *Arena[ExprSliceData]
	Concats  *Arena[ExprConcatData]
	Structs  *Arena[ExprStructData]
	Cases    *Arena[ExprCaseData]
	Parens   *Arena[ExprParenData]
}

// NewExprs creates the expression arenas; capHint 0 selects 256.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Exprs{
		Arena:    NewArena[Expr](capHint),
		Vars:     NewArena[ExprVarData](capHint),
		Literals: NewArena[ExprLitData](capHint),
		Binaries: NewArena[ExprBinaryData](capHint),
		Unaries:  NewArena[ExprUnaryData](small),
		Ternary:  NewArena[ExprTernaryData](small),
		Calls:    NewArena[ExprCallData](small),
		Fields:   NewArena[ExprFieldData](small),
		Indices:  NewArena[ExprIndexData](small),
		Slices:   NewArena[ExprSliceData](small),
		Concats:  NewArena[ExprConcatData](small),
		Structs:  NewArena[ExprStructData](small),
		Cases:    NewArena[ExprCaseData](small),
		Parens:   NewArena[ExprParenData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

// NewVar creates an identifier expression with optional parameters.
func (e *Exprs) NewVar(span source.Span, name source.StringID, hasParams bool, params []ExprID) ExprID {
	payload := e.Vars.Allocate(ExprVarData{
		Name:      name,
		HasParams: hasParams,
		Params:    append([]ExprID(nil), params...),
	})
	return e.new(ExprVar, span, payload)
}

func (e *Exprs) Var(id ExprID) (*ExprVarData, bool) {
	p, ok := e.payload(id, ExprVar)
	if !ok {
		return nil, false
	}
	return e.Vars.Get(p), true
}

func (e *Exprs) NewLit(span source.Span, kind ExprLitKind, text string) ExprID {
	payload := e.Literals.Allocate(ExprLitData{Kind: kind, Text: text})
	return e.new(ExprLit, span, payload)
}

func (e *Exprs) Lit(id ExprID) (*ExprLitData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, payload)
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	payload := e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand})
	return e.new(ExprUnary, span, payload)
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

func (e *Exprs) NewTernary(span source.Span, cond, then, els ExprID) ExprID {
	payload := e.Ternary.Allocate(ExprTernaryData{Cond: cond, Then: then, Else: els})
	return e.new(ExprTernary, span, payload)
}

func (e *Exprs) TernaryOf(id ExprID) (*ExprTernaryData, bool) {
	p, ok := e.payload(id, ExprTernary)
	if !ok {
		return nil, false
	}
	return e.Ternary.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	payload := e.Calls.Allocate(ExprCallData{Callee: callee, Args: append([]ExprID(nil), args...)})
	return e.new(ExprCall, span, payload)
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewField(span source.Span, target ExprID, field source.StringID) ExprID {
	payload := e.Fields.Allocate(ExprFieldData{Target: target, Field: field})
	return e.new(ExprField, span, payload)
}

func (e *Exprs) Field(id ExprID) (*ExprFieldData, bool) {
	p, ok := e.payload(id, ExprField)
	if !ok {
		return nil, false
	}
	return e.Fields.Get(p), true
}

func (e *Exprs) NewIndex(span source.Span, target, index ExprID) ExprID {
	payload := e.Indices.Allocate(ExprIndexData{Target: target, Index: index})
	return e.new(ExprIndex, span, payload)
}

func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	p, ok := e.payload(id, ExprIndex)
	if !ok {
		return nil, false
	}
	return e.Indices.Get(p), true
}

func (e *Exprs) NewSlice(span source.Span, target, msb, lsb ExprID) ExprID {
	payload := e.Slices.Allocate(ExprSliceData{Target: target, Msb: msb, Lsb: lsb})
	return e.new(ExprSlice, span, payload)
}

func (e *Exprs) Slice(id ExprID) (*ExprSliceData, bool) {
	p, ok := e.payload(id, ExprSlice)
	if !ok {
		return nil, false
	}
	return e.Slices.Get(p), true
}

func (e *Exprs) NewConcat(span source.Span, parts []ExprID) ExprID {
	payload := e.Concats.Allocate(ExprConcatData{Parts: append([]ExprID(nil), parts...)})
	return e.new(ExprConcat, span, payload)
}

func (e *Exprs) Concat(id ExprID) (*ExprConcatData, bool) {
	p, ok := e.payload(id, ExprConcat)
	if !ok {
		return nil, false
	}
	return e.Concats.Get(p), true
}

func (e *Exprs) NewStruct(span source.Span, typ ExprID, fields []FieldInit) ExprID {
	payload := e.Structs.Allocate(ExprStructData{Type: typ, Fields: append([]FieldInit(nil), fields...)})
	return e.new(ExprStruct, span, payload)
}

func (e *Exprs) Struct(id ExprID) (*ExprStructData, bool) {
	p, ok := e.payload(id, ExprStruct)
	if !ok {
		return nil, false
	}
	return e.Structs.Get(p), true
}

func (e *Exprs) NewCase(span source.Span, selector ExprID, arms []CaseExprArm, def ExprID) ExprID {
	payload := e.Cases.Allocate(ExprCaseData{Selector: selector, Arms: append([]CaseExprArm(nil), arms...), Default: def})
	return e.new(ExprCase, span, payload)
}

func (e *Exprs) Case(id ExprID) (*ExprCaseData, bool) {
	p, ok := e.payload(id, ExprCase)
	if !ok {
		return nil, false
	}
	return e.Cases.Get(p), true
}

func (e *Exprs) NewParen(span source.Span, inner ExprID) ExprID {
	payload := e.Parens.Allocate(ExprParenData{Inner: inner})
	return e.new(ExprParen, span, payload)
}

func (e *Exprs) Paren(id ExprID) (*ExprParenData, bool) {
	p, ok := e.payload(id, ExprParen)
	if !ok {
		return nil, false
	}
	return e.Parens.Get(p), true
}

// Unparen strips any number of enclosing parentheses.
func (e *Exprs) Unparen(id ExprID) ExprID {
	for {
		p, ok := e.Paren(id)
		if !ok {
			return id
		}
		id = p.Inner
	}
}
