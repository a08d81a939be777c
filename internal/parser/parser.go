package parser

import (
	"slices"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/lexer"
	"minisynth/internal/source"
	"minisynth/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit has been reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	File   ast.FileID
	Errors uint
}

// Parser holds the state for parsing one file.
type Parser struct {
	lx       *lexer.Lexer
	arenas   *ast.Builder
	file     ast.FileID
	opts     Options
	lastSpan source.Span // span of the last consumed token
}

// ParseFile parses every item of the lexer's file into arenas.
func ParseFile(lx *lexer.Lexer, arenas *ast.Builder, opts Options) Result {
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		file:     arenas.NewFile(lx.EmptySpan()),
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	p.parseItems()
	return Result{File: p.file, Errors: p.opts.CurrentErrors}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) parseItems() {
	startSpan := p.lx.Peek().Span
	for !p.at(token.EOF) {
		if p.opts.Enough() {
			return
		}
		itemID, ok := p.parseItem()
		if !ok {
			p.resyncTop()
			continue
		}
		p.arenas.PushItem(p.file, itemID)
	}
	p.arenas.Files.Get(p.file).Span = startSpan.Cover(p.lx.Peek().Span)
}

// parseItem dispatches on the first token of a top-level construct.
func (p *Parser) parseItem() (ast.ItemID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwImport:
		return p.parseImportItem()
	case token.KwTypedef:
		return p.parseTypedefItem()
	case token.KwFunction:
		return p.parseFunctionItem()
	case token.KwModule:
		return p.parseModuleItem()
	case token.TypeIdent:
		return p.parseConstItem()
	default:
		p.report(diag.SynUnexpectedTopLevel, diag.SevError, p.lx.Peek().Span,
			"unexpected top-level construct \""+p.lx.Peek().Text+"\"")
		return ast.NoItemID, false
	}
}

// resyncTop skips to the next token that can start an item. Closing keywords of a
// broken definition are consumed on the way.
func (p *Parser) resyncTop() {
	p.advance()
	for !p.at(token.EOF) && !isTopLevelStarter(p.lx.Peek().Kind) {
		p.advance()
	}
}

func isTopLevelStarter(k token.Kind) bool {
	switch k {
	case token.KwImport, token.KwTypedef, token.KwFunction, token.KwModule:
		return true
	default:
		return false
	}
}

// ParseExpr parses one expression that must cover the whole input. It is used
// for synthesis targets given on the command line, such as `fifo#(4, Bit#(8))`.
func ParseExpr(lx *lexer.Lexer, arenas *ast.Builder, opts Options) (ast.ExprID, bool) {
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	expr, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.EOF) {
		p.err(diag.SynUnexpectedToken, "unexpected \""+p.lx.Peek().Text+"\" after expression")
		return ast.NoExprID, false
	}
	return expr, true
}
