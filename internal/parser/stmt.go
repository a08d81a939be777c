package parser

import (
	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/source"
	"minisynth/internal/token"
)

func (p *Parser) parseStmt() (ast.StmtID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwCase:
		return p.parseCaseStmt()
	case token.KwFor:
		return p.parseFor()
	case token.KwBegin:
		return p.parseBlock()
	case token.KwReturn:
		p.advance()
		value, ok := p.parseExpr()
		if !ok || !p.expectSemicolon() {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewReturn(tok.Span.Cover(p.lastSpan), value), true
	case token.TypeIdent:
		typ, ok := p.parseTypeExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		name, nameSpan, ok := p.parseName()
		if !ok {
			return ast.NoStmtID, false
		}
		return p.finishVarBinding(tok.Span, typ, name, nameSpan)
	case token.Ident:
		return p.parseAssign()
	default:
		p.err(diag.SynUnexpectedToken, "unexpected \""+tok.Text+"\" at start of statement")
		return ast.NoStmtID, false
	}
}

// finishVarBinding parses the rest of `T a = e, b;` after the first name.
func (p *Parser) finishVarBinding(start source.Span, typ ast.ExprID, name source.StringID, nameSpan source.Span) (ast.StmtID, bool) {
	var vars []ast.VarInit
	for {
		v := ast.VarInit{Name: name, Span: nameSpan}
		if p.at(token.Assign) {
			p.advance()
			init, ok := p.parseExpr()
			if !ok {
				return ast.NoStmtID, false
			}
			v.Init = init
			v.Span = nameSpan.Cover(p.lastSpan)
		}
		vars = append(vars, v)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
		var ok bool
		if name, nameSpan, ok = p.parseName(); !ok {
			return ast.NoStmtID, false
		}
	}
	if !p.expectSemicolon() {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewVarBinding(start.Cover(p.lastSpan), typ, vars), true
}

// parseLet parses `let x = e;` and `let {a, b} = e;`.
func (p *Parser) parseLet() (ast.StmtID, bool) {
	start := p.advance().Span
	var names []source.StringID
	if p.at(token.LBrace) {
		p.advance()
		for {
			name, _, ok := p.parseName()
			if !ok {
				return ast.NoStmtID, false
			}
			names = append(names, name)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.RBrace, diag.SynExpectRightBrace, "expected '}'"); !ok {
			return ast.NoStmtID, false
		}
	} else {
		name, _, ok := p.parseName()
		if !ok {
			return ast.NoStmtID, false
		}
		names = append(names, name)
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '='"); !ok {
		return ast.NoStmtID, false
	}
	init, ok := p.parseExpr()
	if !ok || !p.expectSemicolon() {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewLet(start.Cover(p.lastSpan), names, init), true
}

// parseAssign parses `lvalue = e;` and `lvalue <= e;`.
func (p *Parser) parseAssign() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	target, ok := p.parseLvalue()
	if !ok {
		return ast.NoStmtID, false
	}
	regWrite := false
	switch {
	case p.at(token.Assign):
	case p.at(token.LtEq):
		regWrite = true
	default:
		p.err(diag.SynBadLvalue, "expected '=' or '<=' after assignment target")
		return ast.NoStmtID, false
	}
	p.advance()
	value, ok := p.parseExpr()
	if !ok || !p.expectSemicolon() {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewAssign(start.Cover(p.lastSpan), regWrite, target, value), true
}

// parseLvalue accepts a name followed by any chain of .field, [i] and [msb:lsb].
func (p *Parser) parseLvalue() (ast.ExprID, bool) {
	tok := p.advance()
	exprs := p.arenas.Exprs
	target := exprs.NewVar(tok.Span, p.arenas.Strings.Intern(tok.Text), false, nil)
	for {
		switch {
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

func (p *Parser) parseIf() (ast.StmtID, bool) {
	start := p.advance().Span
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after if"); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return ast.NoStmtID, false
	}
	then, ok := p.parseStmt()
	if !ok {
		return ast.NoStmtID, false
	}
	els := ast.NoStmtID
	if p.at(token.KwElse) {
		p.advance()
		if els, ok = p.parseStmt(); !ok {
			return ast.NoStmtID, false
		}
	}
	return p.arenas.Stmts.NewIf(start.Cover(p.lastSpan), cond, then, els), true
}

func (p *Parser) parseCaseStmt() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	selector, ok := p.parseCaseHead()
	if !ok {
		return ast.NoStmtID, false
	}
	var arms []ast.CaseStmtArm
	def := ast.NoStmtID
	for !p.at(token.KwEndCase) {
		if p.at(token.EOF) {
			p.err(diag.SynExpectEnd, "expected 'endcase'")
			return ast.NoStmtID, false
		}
		armStart := p.lx.Peek().Span
		if p.at(token.KwDefault) {
			p.advance()
			if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':'"); !ok {
				return ast.NoStmtID, false
			}
			if def, ok = p.parseStmt(); !ok {
				return ast.NoStmtID, false
			}
			continue
		}
		labels, ok := p.parseCaseLabels()
		if !ok {
			return ast.NoStmtID, false
		}
		body, ok := p.parseStmt()
		if !ok {
			return ast.NoStmtID, false
		}
		arms = append(arms, ast.CaseStmtArm{Labels: labels, Body: body, Span: armStart.Cover(p.lastSpan)})
	}
	p.advance()
	if len(arms) == 0 && !def.IsValid() {
		p.report(diag.SynEmptyCase, diag.SevError, start.Cover(p.lastSpan), "case statement has no arms")
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewCase(start.Cover(p.lastSpan), selector, arms, def), true
}

// parseCaseHead parses `case (selector)`.
func (p *Parser) parseCaseHead() (ast.ExprID, bool) {
	p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after case"); !ok {
		return ast.NoExprID, false
	}
	selector, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return ast.NoExprID, false
	}
	return selector, true
}

// parseCaseLabels parses `l1, l2:`.
func (p *Parser) parseCaseLabels() ([]ast.ExprID, bool) {
	var labels []ast.ExprID
	for {
		label, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		labels = append(labels, label)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after case labels"); !ok {
		return nil, false
	}
	return labels, true
}

// parseFor parses `for (T i = init; cond; i = update) body`.
func (p *Parser) parseFor() (ast.StmtID, bool) {
	start := p.advance().Span
	var data ast.StmtForData
	bad := func() (ast.StmtID, bool) {
		p.err(diag.SynForBadHeader, "malformed for-loop header")
		return ast.NoStmtID, false
	}
	if !p.at(token.LParen) {
		return bad()
	}
	p.advance()
	var ok bool
	if data.VarType, ok = p.parseTypeExpr(); !ok {
		return ast.NoStmtID, false
	}
	if data.Var, _, ok = p.parseName(); !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.Assign) {
		return bad()
	}
	p.advance()
	if data.Init, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	if !p.expectSemicolon() {
		return ast.NoStmtID, false
	}
	if data.Cond, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	if !p.expectSemicolon() {
		return ast.NoStmtID, false
	}
	if data.UpdVar, _, ok = p.parseName(); !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.Assign) {
		return bad()
	}
	p.advance()
	if data.Update, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return ast.NoStmtID, false
	}
	if data.Body, ok = p.parseStmt(); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewFor(start.Cover(p.lastSpan), data), true
}

func (p *Parser) parseBlock() (ast.StmtID, bool) {
	start := p.advance().Span
	stmts, ok := p.parseStmtsUntil(token.KwEnd)
	if !ok {
		return ast.NoStmtID, false
	}
	p.advance()
	return p.arenas.Stmts.NewBlock(start.Cover(p.lastSpan), stmts), true
}
