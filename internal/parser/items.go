package parser

import (
	"strings"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/token"
)

// parseImportItem parses `import a, "b.ms";`.
func (p *Parser) parseImportItem() (ast.ItemID, bool) {
	start := p.advance().Span
	var paths []string
	for {
		switch {
		case p.at(token.StringLit):
			paths = append(paths, strings.Trim(p.advance().Text, `"`))
		case p.atOr(token.Ident, token.TypeIdent):
			paths = append(paths, p.advance().Text)
		default:
			p.err(diag.SynExpectIdentifier, "expected import name")
			return ast.NoItemID, false
		}
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if !p.expectSemicolon() {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewImport(start.Cover(p.lastSpan), paths), true
}

// parseTypedefItem parses synonym, struct and enum typedefs.
func (p *Parser) parseTypedefItem() (ast.ItemID, bool) {
	start := p.advance().Span
	var data ast.TypedefData
	switch {
	case p.at(token.KwStruct):
		p.advance()
		data.Kind = ast.TypedefStruct
		if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'"); !ok {
			return ast.NoItemID, false
		}
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			typ, ok := p.parseTypeExpr()
			if !ok {
				return ast.NoItemID, false
			}
			name, sp, ok := p.parseName()
			if !ok || !p.expectSemicolon() {
				return ast.NoItemID, false
			}
			data.Fields = append(data.Fields, ast.StructField{Type: typ, Name: name, Span: sp})
		}
		if _, ok := p.expect(token.RBrace, diag.SynExpectRightBrace, "expected '}'"); !ok {
			return ast.NoItemID, false
		}
	case p.at(token.KwEnum):
		p.advance()
		data.Kind = ast.TypedefEnum
		if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'"); !ok {
			return ast.NoItemID, false
		}
		for {
			name, _, ok := p.parseName()
			if !ok {
				return ast.NoItemID, false
			}
			data.Members = append(data.Members, name)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.RBrace, diag.SynExpectRightBrace, "expected '}'"); !ok {
			return ast.NoItemID, false
		}
	default:
		data.Kind = ast.TypedefSynonym
		typ, ok := p.parseTypeExpr()
		if !ok {
			return ast.NoItemID, false
		}
		data.Type = typ
	}
	nameTok, ok := p.expect(token.TypeIdent, diag.SynExpectType, "expected type name")
	if !ok {
		return ast.NoItemID, false
	}
	if p.at(token.Hash) {
		params, ok := p.parseParamFormals()
		if !ok {
			return ast.NoItemID, false
		}
		data.HasParams, data.Params = true, params
	}
	if !p.expectSemicolon() {
		return ast.NoItemID, false
	}
	name := p.arenas.Strings.Intern(nameTok.Text)
	return p.arenas.Items.NewTypedef(start.Cover(p.lastSpan), name, data), true
}

// parseParamFormals parses `#(Integer n, type T, 2)`.
func (p *Parser) parseParamFormals() ([]ast.ParamFormal, bool) {
	p.advance() // '#'
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after '#'"); !ok {
		return nil, false
	}
	var out []ast.ParamFormal
	for !p.at(token.RParen) {
		tok := p.lx.Peek()
		switch {
		case tok.Kind == token.KwType:
			p.advance()
			name, sp, ok := p.parseName()
			if !ok {
				return nil, false
			}
			out = append(out, ast.ParamFormal{Kind: ast.ParamType, Name: name, Span: tok.Span.Cover(sp)})
		case tok.Kind == token.TypeIdent && tok.Text == "Integer":
			p.advance()
			nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
			if !ok {
				return nil, false
			}
			name := p.arenas.Strings.Intern(nameTok.Text)
			out = append(out, ast.ParamFormal{Kind: ast.ParamInteger, Name: name, Span: tok.Span.Cover(nameTok.Span)})
		default:
			expr, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			out = append(out, ast.ParamFormal{Kind: ast.ParamFixed, Expr: expr, Span: p.arenas.Exprs.Get(expr).Span})
		}
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return nil, false
	}
	return out, true
}

// parseArgFormals parses `(Bit#(4) a, Bool b)`.
func (p *Parser) parseArgFormals() ([]ast.ArgFormal, bool) {
	p.advance() // '('
	var out []ast.ArgFormal
	for !p.at(token.RParen) {
		typ, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		name, sp, ok := p.parseName()
		if !ok {
			return nil, false
		}
		out = append(out, ast.ArgFormal{Type: typ, Name: name, Span: p.arenas.Exprs.Get(typ).Span.Cover(sp)})
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynExpectRightParen, "expected ')'"); !ok {
		return nil, false
	}
	return out, true
}

// parseFunctionItem parses
//
//	function T name#(params)(args); stmts endfunction
//	function T name(args) = expr;
func (p *Parser) parseFunctionItem() (ast.ItemID, bool) {
	start := p.advance().Span
	var data ast.FunctionData
	ret, ok := p.parseTypeExpr()
	if !ok {
		return ast.NoItemID, false
	}
	data.RetType = ret
	name, _, ok := p.parseName()
	if !ok {
		return ast.NoItemID, false
	}
	if p.at(token.Hash) {
		if data.Params, ok = p.parseParamFormals(); !ok {
			return ast.NoItemID, false
		}
		data.HasParams = true
	}
	if p.at(token.LParen) {
		if data.Args, ok = p.parseArgFormals(); !ok {
			return ast.NoItemID, false
		}
	}
	if p.at(token.Assign) {
		p.advance()
		if data.Short, ok = p.parseExpr(); !ok {
			return ast.NoItemID, false
		}
		if !p.expectSemicolon() {
			return ast.NoItemID, false
		}
		return p.arenas.Items.NewFunction(start.Cover(p.lastSpan), name, data), true
	}
	if !p.expectSemicolon() {
		return ast.NoItemID, false
	}
	if data.Body, ok = p.parseStmtsUntil(token.KwEndFunction); !ok {
		return ast.NoItemID, false
	}
	p.advance()
	p.eatEndLabel()
	return p.arenas.Items.NewFunction(start.Cover(p.lastSpan), name, data), true
}

// parseModuleItem parses a module definition and sorts its body by declaration kind.
func (p *Parser) parseModuleItem() (ast.ItemID, bool) {
	start := p.advance().Span
	var data ast.ModuleData
	name, _, ok := p.parseName()
	if !ok {
		return ast.NoItemID, false
	}
	if p.at(token.Hash) {
		if data.Params, ok = p.parseParamFormals(); !ok {
			return ast.NoItemID, false
		}
		data.HasParams = true
	}
	if p.at(token.LParen) {
		if data.Args, ok = p.parseArgFormals(); !ok {
			return ast.NoItemID, false
		}
	}
	if !p.expectSemicolon() {
		return ast.NoItemID, false
	}
	for !p.at(token.KwEndModule) {
		if p.at(token.EOF) {
			p.err(diag.SynExpectEnd, "expected 'endmodule'")
			return ast.NoItemID, false
		}
		if !p.parseModuleStmt(&data) {
			return ast.NoItemID, false
		}
	}
	p.advance()
	p.eatEndLabel()
	return p.arenas.Items.NewModule(start.Cover(p.lastSpan), name, data), true
}

func (p *Parser) parseModuleStmt(data *ast.ModuleData) bool {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwInput:
		p.advance()
		typ, ok := p.parseTypeExpr()
		if !ok {
			return false
		}
		name, _, ok := p.parseName()
		if !ok {
			return false
		}
		decl := ast.InputDecl{Type: typ, Name: name}
		if p.at(token.KwDefault) {
			p.advance()
			if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' after default"); !ok {
				return false
			}
			if decl.Default, ok = p.parseExpr(); !ok {
				return false
			}
		}
		if !p.expectSemicolon() {
			return false
		}
		decl.Span = tok.Span.Cover(p.lastSpan)
		data.Inputs = append(data.Inputs, decl)
		return true
	case token.KwMethod:
		m, ok := p.parseMethod()
		if ok {
			data.Methods = append(data.Methods, m)
		}
		return ok
	case token.KwRule:
		p.advance()
		name, _, ok := p.parseName()
		if !ok || !p.expectSemicolon() {
			return false
		}
		body, ok := p.parseStmtsUntil(token.KwEndRule)
		if !ok {
			return false
		}
		p.advance()
		p.eatEndLabel()
		data.Rules = append(data.Rules, ast.RuleDecl{Name: name, Body: body, Span: tok.Span.Cover(p.lastSpan)})
		return true
	case token.KwFunction:
		fn, ok := p.parseFunctionItem()
		if ok {
			data.Functions = append(data.Functions, fn)
		}
		return ok
	case token.TypeIdent:
		return p.parseModuleDecl(data)
	default:
		st, ok := p.parseStmt()
		if ok {
			data.Stmts = append(data.Stmts, st)
		}
		return ok
	}
}

// parseModuleDecl handles a statement starting with a type: either a submodule
// declaration `T name;` / `T name(args);` or a variable binding `T name = e;`.
func (p *Parser) parseModuleDecl(data *ast.ModuleData) bool {
	start := p.lx.Peek().Span
	typ, ok := p.parseTypeExpr()
	if !ok {
		return false
	}
	name, nameSpan, ok := p.parseName()
	if !ok {
		return false
	}
	switch {
	case p.at(token.Semicolon) || p.at(token.LParen):
		decl := ast.SubmoduleDecl{Type: typ, Name: name}
		if p.at(token.LParen) {
			if decl.Args, ok = p.parseCallArgs(); !ok {
				return false
			}
		}
		if !p.expectSemicolon() {
			return false
		}
		decl.Span = start.Cover(p.lastSpan)
		data.Submodules = append(data.Submodules, decl)
		return true
	default:
		st, ok := p.finishVarBinding(start, typ, name, nameSpan)
		if ok {
			data.Stmts = append(data.Stmts, st)
		}
		return ok
	}
}

// parseMethod parses `method T name = e;`, `method T name; ... endmethod`, and the
// argumented forms of both.
func (p *Parser) parseMethod() (ast.MethodDecl, bool) {
	start := p.advance().Span
	var m ast.MethodDecl
	var ok bool
	if m.RetType, ok = p.parseTypeExpr(); !ok {
		return m, false
	}
	if m.Name, _, ok = p.parseName(); !ok {
		return m, false
	}
	if p.at(token.LParen) {
		m.HasArgs = true
		if m.Args, ok = p.parseArgFormals(); !ok {
			return m, false
		}
	}
	if p.at(token.Assign) {
		p.advance()
		if m.Short, ok = p.parseExpr(); !ok {
			return m, false
		}
		if !p.expectSemicolon() {
			return m, false
		}
		m.Span = start.Cover(p.lastSpan)
		return m, true
	}
	if !p.expectSemicolon() {
		return m, false
	}
	if m.Body, ok = p.parseStmtsUntil(token.KwEndMethod); !ok {
		return m, false
	}
	p.advance()
	p.eatEndLabel()
	m.Span = start.Cover(p.lastSpan)
	return m, true
}

// parseConstItem parses a top-level `T name = e;`.
func (p *Parser) parseConstItem() (ast.ItemID, bool) {
	start := p.lx.Peek().Span
	typ, ok := p.parseTypeExpr()
	if !ok {
		return ast.NoItemID, false
	}
	name, nameSpan, ok := p.parseName()
	if !ok {
		return ast.NoItemID, false
	}
	st, ok := p.finishVarBinding(start, typ, name, nameSpan)
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewConst(p.arenas.Stmts.Get(st).Span, st), true
}

// parseStmtsUntil parses statements up to, but not including, the closing keyword.
func (p *Parser) parseStmtsUntil(end token.Kind) ([]ast.StmtID, bool) {
	var out []ast.StmtID
	for !p.at(end) {
		if p.at(token.EOF) {
			p.err(diag.SynExpectEnd, "expected '"+end.String()+"'")
			return nil, false
		}
		st, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		out = append(out, st)
	}
	return out, true
}
