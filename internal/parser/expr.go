package parser

import (
	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/token"
)

// parseExpr parses a full expression including the conditional operator.
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	cond, ok := p.parseBinary(1)
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.Question) {
		return cond, true
	}
	p.advance()
	then, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' in conditional expression"); !ok {
		return ast.NoExprID, false
	}
	els, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	exprs := p.arenas.Exprs
	return exprs.NewTernary(exprs.Get(cond).Span.Cover(exprs.Get(els).Span), cond, then, els), true
}

func binaryOpOf(k token.Kind) (ast.BinaryOp, bool) {
	switch k {
	case token.StarStar:
		return ast.OpPow, true
	case token.Star:
		return ast.OpMul, true
	case token.Slash:
		return ast.OpDiv, true
	case token.Percent:
		return ast.OpMod, true
	case token.Plus:
		return ast.OpAdd, true
	case token.Minus:
		return ast.OpSub, true
	case token.Shl:
		return ast.OpShl, true
	case token.Shr:
		return ast.OpShr, true
	case token.Lt:
		return ast.OpLt, true
	case token.LtEq:
		return ast.OpLe, true
	case token.Gt:
		return ast.OpGt, true
	case token.GtEq:
		return ast.OpGe, true
	case token.EqEq:
		return ast.OpEq, true
	case token.BangEq:
		return ast.OpNe, true
	case token.Amp:
		return ast.OpBitAnd, true
	case token.Caret:
		return ast.OpBitXor, true
	case token.CaretTilde:
		return ast.OpBitXnor, true
	case token.Pipe:
		return ast.OpBitOr, true
	case token.AndAnd:
		return ast.OpAnd, true
	case token.OrOr:
		return ast.OpOr, true
	}
	return 0, false
}

// parseBinary is precedence climbing; ** is right-associative, the rest associate left.
func (p *Parser) parseBinary(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		op, isOp := binaryOpOf(p.lx.Peek().Kind)
		if !isOp || op.Precedence() < minPrec {
			return left, true
		}
		p.advance()
		next := op.Precedence() + 1
		if op == ast.OpPow {
			next = op.Precedence()
		}
		right, ok := p.parseBinary(next)
		if !ok {
			return ast.NoExprID, false
		}
		exprs := p.arenas.Exprs
		left = exprs.NewBinary(exprs.Get(left).Span.Cover(exprs.Get(right).Span), op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	var op ast.UnaryOp
	switch tok.Kind {
	case token.Minus:
		op = ast.OpNeg
	case token.Plus:
		op = ast.OpPlus
	case token.Bang:
		op = ast.OpNot
	case token.Tilde:
		op = ast.OpBitNot
	case token.Amp:
		op = ast.OpRedAnd
	case token.Pipe:
		op = ast.OpRedOr
	case token.Caret:
		op = ast.OpRedXor
	case token.CaretTilde:
		op = ast.OpRedXnor
	default:
		primary, ok := p.parsePrimary()
		if !ok {
			return ast.NoExprID, false
		}
		return p.parsePostfix(primary)
	}
	p.advance()
	if op == ast.OpBitNot {
		switch {
		case p.at(token.Amp):
			p.advance()
			op = ast.OpRedNand
		case p.at(token.Pipe):
			p.advance()
			op = ast.OpRedNor
		}
	}
	operand, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	exprs := p.arenas.Exprs
	return exprs.NewUnary(tok.Span.Cover(exprs.Get(operand).Span), op, operand), true
}

func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	exprs := p.arenas.Exprs
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return exprs.NewLit(tok.Span, ast.LitInt, tok.Text), true
	case token.SizedLit:
		p.advance()
		return exprs.NewLit(tok.Span, ast.LitSized, tok.Text), true
	case token.KwTrue:
		p.advance()
		return exprs.NewLit(tok.Span, ast.LitTrue, tok.Text), true
	case token.KwFalse:
		p.advance()
		return exprs.NewLit(tok.Span, ast.LitFalse, tok.Text), true
	case token.Question:
		p.advance()
		return exprs.NewLit(tok.Span, ast.LitDontCare, tok.Text), true
	case token.Ident, token.TypeIdent:
		v, ok := p.parseVar()
		if !ok {
			return ast.NoExprID, false
		}
		if tok.Kind == token.TypeIdent && p.at(token.LBrace) {
			return p.parseStructLit(v)
		}
		return v, true
	case token.LParen:
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
			return ast.NoExprID, false
		}
		return exprs.NewParen(tok.Span.Cover(p.lastSpan), inner), true
	case token.LBrace:
		p.advance()
		var parts []ast.ExprID
		for {
			part, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			parts = append(parts, part)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.RBrace, diag.SynExpectRightBrace, "expected '}'"); !ok {
			return ast.NoExprID, false
		}
		return exprs.NewConcat(tok.Span.Cover(p.lastSpan), parts), true
	case token.KwCase:
		return p.parseCaseExpr()
	default:
		p.err(diag.SynExpectExpression, "expected expression, got \""+tok.Text+"\"")
		return ast.NoExprID, false
	}
}

// parseVar parses `name` or `name#(p1, p2)`.
func (p *Parser) parseVar() (ast.ExprID, bool) {
	tok := p.advance()
	name := p.arenas.Strings.Intern(tok.Text)
	if !p.at(token.Hash) {
		return p.arenas.Exprs.NewVar(tok.Span, name, false, nil), true
	}
	p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after '#'"); !ok {
		return ast.NoExprID, false
	}
	var params []ast.ExprID
	for !p.at(token.RParen) {
		param, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		params = append(params, param)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewVar(tok.Span.Cover(p.lastSpan), name, true, params), true
}

// parseTypeExpr parses a type reference, which is represented as a variable expression.
func (p *Parser) parseTypeExpr() (ast.ExprID, bool) {
	if !p.atOr(token.TypeIdent, token.Ident) {
		p.err(diag.SynExpectType, "expected type, got \""+p.lx.Peek().Text+"\"")
		return ast.NoExprID, false
	}
	return p.parseVar()
}

func (p *Parser) parsePostfix(target ast.ExprID) (ast.ExprID, bool) {
	exprs := p.arenas.Exprs
	for {
		switch {
		case p.at(token.LParen):
			args, ok := p.parseCallArgs()
			if !ok {
				return ast.NoExprID, false
			}
			target = exprs.NewCall(exprs.Get(target).Span.Cover(p.lastSpan), target, args)
		case p.at(token.Dot):
			p.advance()
			field, sp, ok := p.parseName()
			if !ok {
				return ast.NoExprID, false
			}
			target = exprs.NewField(exprs.Get(target).Span.Cover(sp), target, field)
		case p.at(token.LBracket):
			var ok bool
			if target, ok = p.parseIndexSuffix(target); !ok {
				return ast.NoExprID, false
			}
		default:
			return target, true
		}
	}
}

// parseIndexSuffix parses `[i]` or `[msb:lsb]` applied to target.
func (p *Parser) parseIndexSuffix(target ast.ExprID) (ast.ExprID, bool) {
	p.advance()
	idx, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	lsb := ast.NoExprID
	if p.at(token.Colon) {
		p.advance()
		if lsb, ok = p.parseExpr(); !ok {
			return ast.NoExprID, false
		}
	}
	if _, ok := p.expect(token.RBracket, diag.SynExpectRightBracket, "expected ']'"); !ok {
		return ast.NoExprID, false
	}
	exprs := p.arenas.Exprs
	sp := exprs.Get(target).Span.Cover(p.lastSpan)
	if lsb.IsValid() {
		return exprs.NewSlice(sp, target, idx, lsb), true
	}
	return exprs.NewIndex(sp, target, idx), true
}

func (p *Parser) parseCallArgs() ([]ast.ExprID, bool) {
	p.advance() // '('
	var args []ast.ExprID
	for !p.at(token.RParen) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return nil, false
	}
	return args, true
}

// parseStructLit parses `T{a: x, b: y}` after the type.
func (p *Parser) parseStructLit(typ ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '{'
	var fields []ast.FieldInit
	for !p.at(token.RBrace) {
		name, sp, ok := p.parseName()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after field name"); !ok {
			return ast.NoExprID, false
		}
		value, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		fields = append(fields, ast.FieldInit{Name: name, Value: value, Span: sp.Cover(p.lastSpan)})
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RBrace, diag.SynExpectRightBrace, "expected '}'"); !ok {
		return ast.NoExprID, false
	}
	exprs := p.arenas.Exprs
	return exprs.NewStruct(exprs.Get(typ).Span.Cover(p.lastSpan), typ, fields), true
}

// parseCaseExpr parses `case (s) l1, l2: e; default: e; endcase`.
func (p *Parser) parseCaseExpr() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	selector, ok := p.parseCaseHead()
	if !ok {
		return ast.NoExprID, false
	}
	var arms []ast.CaseExprArm
	def := ast.NoExprID
	for !p.at(token.KwEndCase) {
		if p.at(token.EOF) {
			p.err(diag.SynExpectEnd, "expected 'endcase'")
			return ast.NoExprID, false
		}
		armStart := p.lx.Peek().Span
		if p.at(token.KwDefault) {
			p.advance()
			if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':'"); !ok {
				return ast.NoExprID, false
			}
			if def, ok = p.parseExpr(); !ok || !p.expectSemicolon() {
				return ast.NoExprID, false
			}
			continue
		}
		labels, ok := p.parseCaseLabels()
		if !ok {
			return ast.NoExprID, false
		}
		value, ok := p.parseExpr()
		if !ok || !p.expectSemicolon() {
			return ast.NoExprID, false
		}
		arms = append(arms, ast.CaseExprArm{Labels: labels, Value: value, Span: armStart.Cover(p.lastSpan)})
	}
	p.advance()
	if len(arms) == 0 && !def.IsValid() {
		p.report(diag.SynEmptyCase, diag.SevError, start.Cover(p.lastSpan), "case expression has no arms")
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewCase(start.Cover(p.lastSpan), selector, arms, def), true
}
