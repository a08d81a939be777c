package lexer_test

import (
	"testing"

	"minisynth/internal/diag"
	"minisynth/internal/lexer"
	"minisynth/internal/source"
	"minisynth/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ms", []byte(src))
	bag := diag.NewBag(100)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestLexer_Basics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"function header", "function Bit#(1) f(Bit#(1) a);", []token.Kind{
			token.KwFunction, token.TypeIdent, token.Hash, token.LParen, token.IntLit, token.RParen,
			token.Ident, token.LParen, token.TypeIdent, token.Hash, token.LParen, token.IntLit, token.RParen,
			token.Ident, token.RParen, token.Semicolon, token.EOF,
		}},
		{"sized literals", "4'b1010 8'hff 'd3", []token.Kind{
			token.SizedLit, token.SizedLit, token.SizedLit, token.EOF,
		}},
		{"operators greedy", "a <= b ** c ^~ d ~^ e >> 1", []token.Kind{
			token.Ident, token.LtEq, token.Ident, token.StarStar, token.Ident, token.CaretTilde,
			token.Ident, token.CaretTilde, token.Ident, token.Shr, token.IntLit, token.EOF,
		}},
		{"comments skipped", "x // line\n /* block\n */ y", []token.Kind{
			token.Ident, token.Ident, token.EOF,
		}},
		{"booleans are keywords", "True False Truth", []token.Kind{
			token.KwTrue, token.KwFalse, token.TypeIdent, token.EOF,
		}},
		{"dont care", "x = ?;", []token.Kind{
			token.Ident, token.Assign, token.Question, token.Semicolon, token.EOF,
		}},
		{"string", `import "foo.ms";`, []token.Kind{
			token.KwImport, token.StringLit, token.Semicolon, token.EOF,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lexAll(t, tt.src)
			if bag.HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %s, want %s (all %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestLexer_TokenText(t *testing.T) {
	toks, _ := lexAll(t, "  counter <= 4'b0_001;")
	if toks[0].Text != "counter" {
		t.Fatalf("text: %q", toks[0].Text)
	}
	if toks[2].Text != "4'b0_001" {
		t.Fatalf("sized text: %q", toks[2].Text)
	}
	if toks[0].Span.Start != 2 || toks[0].Span.End != 9 {
		t.Fatalf("span: %v", toks[0].Span)
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"a @ b", diag.LexUnknownChar},
		{"/* never closed", diag.LexUnterminatedBlockComment},
		{"4'q101", diag.LexBadSizedLiteral},
		{"4'b", diag.LexBadSizedLiteral},
		{"4'b102", diag.LexBadNumber},
	}
	for _, tt := range tests {
		_, bag := lexAll(t, tt.src)
		if !bag.HasErrors() {
			t.Fatalf("%q: expected an error", tt.src)
		}
		if got := bag.Items()[0].Code; got != tt.code {
			t.Fatalf("%q: got %v, want %v", tt.src, got, tt.code)
		}
	}
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("p.ms", []byte("a b"))
	lx := lexer.New(fs.Get(id), lexer.Options{})
	if lx.Peek().Text != "a" || lx.Next().Text != "a" || lx.Next().Text != "b" {
		t.Fatal("peek/next mismatch")
	}
	if lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Fatal("EOF must be sticky")
	}
}
