package testkit

import (
	"fmt"
	"strings"
	"testing"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/lexer"
	"minisynth/internal/parser"
	"minisynth/internal/source"
)

// ParseSource parses src as a virtual file and fails tb on any diagnostic.
func ParseSource(tb testing.TB, name, src string) (*ast.Builder, ast.FileID, *source.FileSet) {
	tb.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(src))
	bag := diag.NewBag(50)
	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(lx, b, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		tb.Fatalf("parse %s: %s", name, Summary(bag))
	}
	if err := CheckSpanInvariants(b, res.File, fs.Get(id)); err != nil {
		tb.Fatalf("parse %s: %v", name, err)
	}
	return b, res.File, fs
}

// Summary renders diagnostics as "[CODE] message" joined by "; ".
func Summary(bag *diag.Bag) string {
	items := bag.Items()
	if len(items) == 0 {
		return "<none>"
	}
	lines := make([]string, len(items))
	for i, d := range items {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}
