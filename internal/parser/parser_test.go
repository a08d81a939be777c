package parser_test

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

func parseSource(t *testing.T, src string) (*ast.Builder, ast.FileID, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ms", []byte(src))
	bag := diag.NewBag(50)
	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(lx, b, parser.Options{Reporter: rep})
	return b, res.File, bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func mustParse(t *testing.T, src string) (*ast.Builder, *ast.File) {
	t.Helper()
	b, file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	return b, b.Files.Get(file)
}

func TestParseFunction(t *testing.T) {
	b, f := mustParse(t, `
function Bit#(1) f(Bit#(1) a, Bit#(1) b);
    return a ^ b;
endfunction
`)
	if len(f.Items) != 1 {
		t.Fatalf("items: %d", len(f.Items))
	}
	item := b.Items.Get(f.Items[0])
	if item.Kind != ast.ItemFunction || b.Name(item.Name) != "f" {
		t.Fatalf("unexpected item %v %q", item.Kind, b.Name(item.Name))
	}
	fn, _ := b.Items.Function(f.Items[0])
	if len(fn.Args) != 2 || b.Name(fn.Args[1].Name) != "b" {
		t.Fatalf("args: %+v", fn.Args)
	}
	ret, ok := b.Exprs.Var(fn.RetType)
	if !ok || b.Name(ret.Name) != "Bit" || !ret.HasParams || len(ret.Params) != 1 {
		t.Fatalf("return type: %+v", ret)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body: %d", len(fn.Body))
	}
	r, ok := b.Stmts.Return(fn.Body[0])
	if !ok {
		t.Fatalf("expected return")
	}
	bin, ok := b.Exprs.Binary(r.Value)
	if !ok || bin.Op != ast.OpBitXor {
		t.Fatalf("expected ^, got %+v", b.Exprs.Get(r.Value))
	}
}

func TestParseParamFormals(t *testing.T) {
	b, f := mustParse(t, `
function Bit#(n) g#(Integer n, type T, 2)(Bit#(n) x) = x + 1;
`)
	fn, _ := b.Items.Function(f.Items[0])
	if !fn.HasParams || len(fn.Params) != 3 {
		t.Fatalf("params: %+v", fn.Params)
	}
	want := []ast.ParamFormalKind{ast.ParamInteger, ast.ParamType, ast.ParamFixed}
	for i, k := range want {
		if fn.Params[i].Kind != k {
			t.Fatalf("param %d: got %v want %v", i, fn.Params[i].Kind, k)
		}
	}
	if !fn.Short.IsValid() || len(fn.Body) != 0 {
		t.Fatalf("expected short form")
	}
}

func TestParsePrecedence(t *testing.T) {
	b, f := mustParse(t, "Integer x = 1 + 2 * 3 == 7 && True;")
	c, ok := b.Items.Const(f.Items[0])
	if !ok {
		t.Fatalf("expected const")
	}
	vb, _ := b.Stmts.VarBinding(c.Stmt)
	top, _ := b.Exprs.Binary(vb.Vars[0].Init)
	if top.Op != ast.OpAnd {
		t.Fatalf("top op %s", top.Op)
	}
	eq, _ := b.Exprs.Binary(top.Left)
	if eq.Op != ast.OpEq {
		t.Fatalf("eq op %s", eq.Op)
	}
	add, _ := b.Exprs.Binary(eq.Left)
	if add.Op != ast.OpAdd {
		t.Fatalf("add op %s", add.Op)
	}
	mul, _ := b.Exprs.Binary(add.Right)
	if mul.Op != ast.OpMul {
		t.Fatalf("mul op %s", mul.Op)
	}
}

func TestParseModule(t *testing.T) {
	b, f := mustParse(t, `
module Counter;
    Reg#(Bit#(4)) count(0);
    input Bool enable default = False;
    method Bit#(4) getCount = count;
    rule increment;
        if (enable) count <= count + 1;
    endrule
    function Bit#(4) inc(Bit#(4) v) = v + 1;
endmodule
`)
	m, ok := b.Items.Module(f.Items[0])
	if !ok {
		t.Fatalf("expected module")
	}
	if len(m.Submodules) != 1 || len(m.Inputs) != 1 || len(m.Methods) != 1 || len(m.Rules) != 1 || len(m.Functions) != 1 {
		t.Fatalf("module body: %+v", m)
	}
	if len(m.Submodules[0].Args) != 1 {
		t.Fatalf("register init arg missing")
	}
	if !m.Inputs[0].Default.IsValid() {
		t.Fatalf("input default missing")
	}
	rule := m.Rules[0]
	ifs, ok := b.Stmts.If(rule.Body[0])
	if !ok {
		t.Fatalf("expected if in rule")
	}
	if b.Stmts.Get(ifs.Then).Kind != ast.StmtRegWrite {
		t.Fatalf("expected register write, got %s", b.Stmts.Get(ifs.Then).Kind)
	}
}

func TestParseStatements(t *testing.T) {
	b, f := mustParse(t, `
function Bit#(8) h(Bit#(8) x, Bit#(2) s);
    Bit#(8) y = x, z;
    let w = {x[3:0], x[7:4]};
    y[0] = 1'b1;
    case (s)
        0, 1: z = y;
        2: begin z = w; end
        default: z = 0;
    endcase
    for (Integer i = 0; i < 4; i = i + 1)
        z = z ^ y;
    return s == 0 ? z : case (s) 1: y; default: w; endcase;
endfunction
`)
	fn, _ := b.Items.Function(f.Items[0])
	kinds := make([]ast.StmtKind, len(fn.Body))
	for i, s := range fn.Body {
		kinds[i] = b.Stmts.Get(s).Kind
	}
	want := []ast.StmtKind{ast.StmtVarBinding, ast.StmtLet, ast.StmtAssign, ast.StmtCase, ast.StmtFor, ast.StmtReturn}
	if len(kinds) != len(want) {
		t.Fatalf("got %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("stmt %d: got %s want %s", i, kinds[i], want[i])
		}
	}
	vb, _ := b.Stmts.VarBinding(fn.Body[0])
	if len(vb.Vars) != 2 || vb.Vars[1].Init.IsValid() {
		t.Fatalf("binding: %+v", vb.Vars)
	}
	cs, _ := b.Stmts.Case(fn.Body[3])
	if len(cs.Arms) != 2 || len(cs.Arms[0].Labels) != 2 || !cs.Default.IsValid() {
		t.Fatalf("case: %+v", cs)
	}
	as, _ := b.Stmts.Assign(fn.Body[2])
	if _, ok := b.Exprs.Index(as.Target); !ok {
		t.Fatalf("expected index lvalue")
	}
	ret, _ := b.Stmts.Return(fn.Body[5])
	tern, ok := b.Exprs.TernaryOf(ret.Value)
	if !ok {
		t.Fatalf("expected ternary")
	}
	if b.Exprs.Get(tern.Else).Kind != ast.ExprCase {
		t.Fatalf("expected case expression in else")
	}
}

func TestParseTypedefs(t *testing.T) {
	b, f := mustParse(t, `
typedef Bit#(8) Byte;
typedef struct { Byte lo; Bool ok; } Pair;
typedef enum { Red, Green, Blue } Color;
function Pair mk(Byte v) = Pair{lo: v, ok: True};
`)
	if len(f.Items) != 4 {
		t.Fatalf("items %d", len(f.Items))
	}
	st, _ := b.Items.Typedef(f.Items[1])
	if st.Kind != ast.TypedefStruct || len(st.Fields) != 2 {
		t.Fatalf("struct: %+v", st)
	}
	en, _ := b.Items.Typedef(f.Items[2])
	if en.Kind != ast.TypedefEnum || len(en.Members) != 3 {
		t.Fatalf("enum: %+v", en)
	}
	fn, _ := b.Items.Function(f.Items[3])
	lit, ok := b.Exprs.Struct(fn.Short)
	if !ok || len(lit.Fields) != 2 {
		t.Fatalf("struct literal: %+v", b.Exprs.Get(fn.Short))
	}
}

func TestParseReductionsAndCalls(t *testing.T) {
	b, f := mustParse(t, "Integer x = ~&f#(2)(a, b)[1];")
	c, _ := b.Items.Const(f.Items[0])
	vb, _ := b.Stmts.VarBinding(c.Stmt)
	u, ok := b.Exprs.Unary(vb.Vars[0].Init)
	if !ok || u.Op != ast.OpRedNand {
		t.Fatalf("expected ~&, got %+v", b.Exprs.Get(vb.Vars[0].Init))
	}
	idx, ok := b.Exprs.Index(u.Operand)
	if !ok {
		t.Fatalf("expected index")
	}
	call, ok := b.Exprs.Call(idx.Target)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("expected call")
	}
	callee, _ := b.Exprs.Var(call.Callee)
	if !callee.HasParams || len(callee.Params) != 1 {
		t.Fatalf("callee params: %+v", callee)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing semicolon", "function Bit#(1) f(Bit#(1) a); return a endfunction", diag.SynExpectSemicolon},
		{"bad top level", "return 1;", diag.SynUnexpectedTopLevel},
		{"unterminated function", "function Bit#(1) f(Bit#(1) a); return a;", diag.SynExpectEnd},
		{"bad lvalue", "function Bit#(1) f(Bit#(1) a); a + 1; endfunction", diag.SynBadLvalue},
		{"empty case", "function Bit#(1) f(Bit#(1) a); case (a) endcase endfunction", diag.SynEmptyCase},
		{"bad for", "function Bit#(1) f(Bit#(1) a); for Integer i endfunction", diag.SynForBadHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := parseSource(t, tt.src)
			if !bag.HasErrors() {
				t.Fatalf("expected diagnostics")
			}
			if got := bag.Items()[0].Code; got != tt.code {
				t.Fatalf("got %s, want %s (%s)", got.ID(), tt.code.ID(), diagnosticsSummary(bag))
			}
		})
	}
}

func TestParseRecoversAtNextItem(t *testing.T) {
	b, file, bag := parseSource(t, `
function Bit#(1) broken(Bit#(1) a); return ; endfunction
function Bit#(1) ok(Bit#(1) a) = a;
`)
	if !bag.HasErrors() {
		t.Fatalf("expected an error")
	}
	f := b.Files.Get(file)
	if len(f.Items) != 1 || b.Name(b.Items.Get(f.Items[0]).Name) != "ok" {
		t.Fatalf("expected recovery to parse 'ok'")
	}
}
