package synth_test

import (
	"testing"

	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/synth"
	"minisynth/internal/testkit"
)

func run(t *testing.T, src, target string) (*synth.Result, error) {
	t.Helper()
	b, file, fs := testkit.ParseSource(t, "test.ms", src)
	return synth.Synthesize(b, file, target, synth.Options{Files: fs})
}

func synthesize(t *testing.T, src, target string) *synth.Result {
	t.Helper()
	res, err := run(t, src, target)
	if err != nil {
		t.Fatalf("Synthesize(%s): %v", target, err)
	}
	if err := testkit.CheckNetlistInvariants(res.Netlist, res.Root); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	return res
}

func expectCode(t *testing.T, src, target string, want diag.Code) {
	t.Helper()
	_, err := run(t, src, target)
	if err == nil {
		t.Fatalf("Synthesize(%s) succeeded, want %s", target, want.ID())
	}
	if got := synth.CodeOf(err); got != want {
		t.Fatalf("Synthesize(%s): got %v, want %s", target, err, want.ID())
	}
}

// children returns the direct children of the root with the given kind.
func children(res *synth.Result, kind netlist.Kind) []*netlist.Component {
	root, _ := res.Netlist.Component(res.Root)
	var out []*netlist.Component
	for _, id := range root.Children {
		if c, _ := res.Netlist.Component(id); c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func named(t *testing.T, res *synth.Result, name string) *netlist.Component {
	t.Helper()
	for _, id := range res.Netlist.Subtree(res.Root) {
		if c, _ := res.Netlist.Component(id); c.Name == name {
			return c
		}
	}
	t.Fatalf("no component %q", name)
	return nil
}

func driver(t *testing.T, n *netlist.Netlist, node netlist.NodeID) netlist.NodeID {
	t.Helper()
	src, ok := n.Driver(node)
	if !ok {
		t.Fatalf("node %d is undriven", node)
	}
	return src
}

func port(t *testing.T, n *netlist.Netlist, c netlist.CompID, label string, input bool) netlist.NodeID {
	t.Helper()
	var id netlist.NodeID
	var ok bool
	if input {
		id, ok = n.Input(c, label)
	} else {
		id, ok = n.Output(c, label)
	}
	if !ok {
		t.Fatalf("component %d has no port %q", c, label)
	}
	return id
}

const xorSrc = `
function Bit#(1) f(Bit#(1) a, Bit#(1) b);
    return a ^ b;
endfunction
`

func TestXorFunction(t *testing.T) {
	res := synthesize(t, xorSrc, "f")
	n := res.Netlist
	root, _ := n.Component(res.Root)
	if root.Kind != netlist.KindFunction || root.Name != "f" {
		t.Fatalf("root = %s %s", root.Kind, root.Name)
	}
	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(root.Children))
	}
	xor, _ := n.Component(root.Children[0])
	if xor.Name != "^" {
		t.Fatalf("child %q, want ^", xor.Name)
	}
	a := port(t, n, res.Root, "a", true)
	b := port(t, n, res.Root, "b", true)
	if driver(t, n, port(t, n, xor.ID, "0", true)) != a || driver(t, n, port(t, n, xor.ID, "1", true)) != b {
		t.Fatalf("^ inputs are not wired to a and b")
	}
	if driver(t, n, port(t, n, res.Root, netlist.LabelOut, false)) != n.Out(xor.ID) {
		t.Fatalf("output is not driven by ^")
	}
}

const counterSrc = `
module Counter;
    Reg#(Bit#(4)) count(0);
    input Bool enable;
    method Bit#(4) getCount = count;
    rule increment;
        if (enable) count <= count + 1;
    endrule
endmodule
`

func TestCounter(t *testing.T) {
	res := synthesize(t, counterSrc, "Counter")
	n := res.Netlist
	for _, tt := range []struct {
		kind netlist.Kind
		want int
	}{
		{netlist.KindRegister, 1},
		{netlist.KindFunction, 1},
		{netlist.KindMux, 1},
		{netlist.KindConstant, 1},
	} {
		if got := len(children(res, tt.kind)); got != tt.want {
			t.Errorf("%s children = %d, want %d", tt.kind, got, tt.want)
		}
	}
	reg := named(t, res, "count")
	if !literal.Equal(reg.Value, literal.BitFromUint64(4, 0)) {
		t.Errorf("register init = %v", reg.Value)
	}
	mux := children(res, netlist.KindMux)[0]
	enable := port(t, n, res.Root, "enable", true)
	if driver(t, n, port(t, n, mux.ID, netlist.LabelSel, true)) != enable {
		t.Errorf("mux is not steered by enable")
	}
	value := port(t, n, reg.ID, netlist.LabelRegValue, false)
	if driver(t, n, port(t, n, mux.ID, "1", true)) != value {
		t.Errorf("else branch does not hold the register value")
	}
	if driver(t, n, port(t, n, reg.ID, netlist.LabelRegIn, true)) != n.Out(mux.ID) {
		t.Errorf("register input is not the mux output")
	}
	if driver(t, n, port(t, n, res.Root, "getCount", false)) != value {
		t.Errorf("getCount does not read the register")
	}
	if got := n.CollectLocal(res.Root); got != 0 {
		t.Errorf("CollectLocal removed %d", got)
	}
	if got := n.CollectGlobal(res.Root); got != 0 {
		t.Errorf("CollectGlobal removed %d", got)
	}
}

func TestCounterMatchesClone(t *testing.T) {
	res := synthesize(t, counterSrc, "Counter")
	cn, croot, err := res.Netlist.Clone(res.Root)
	if err != nil {
		t.Fatal(err)
	}
	if !netlist.Match(res.Netlist, res.Root, cn, croot) {
		t.Fatalf("counter does not match its clone")
	}
	again := synthesize(t, counterSrc, "Counter")
	if !netlist.Match(res.Netlist, res.Root, again.Netlist, again.Root) {
		t.Fatalf("two elaborations of the same target differ")
	}
}

const overloadSrc = `
function Integer f = 0;
function Integer f#(Integer n) = n;
function Integer f#(Integer a, Integer b) = a + b;
function Integer f#(2, Integer k) = 100 + k;
function Bit#(8) top(Bit#(8) x) = x + (f + f#(3) + f#(1, 2) + f#(2, 5));
`

func TestParametricResolution(t *testing.T) {
	res := synthesize(t, overloadSrc, "top")
	fns := children(res, netlist.KindFunction)
	consts := children(res, netlist.KindConstant)
	if len(fns) != 1 || fns[0].Name != "+" {
		t.Fatalf("want a single +, got %d functions", len(fns))
	}
	if len(consts) != 1 || !literal.Equal(consts[0].Value, literal.BitFromUint64(8, 111)) {
		t.Fatalf("want the folded constant 111, got %+v", consts)
	}
}

func TestResolutionIgnoresDeclarationOrder(t *testing.T) {
	src := `
function Integer f#(Integer a, Integer b) = a + b;
function Integer f#(Integer n) = n;
function Integer f = 0;
function Integer g = f + f#(3) + f#(1, 2);
`
	res := synthesize(t, src, "g")
	consts := children(res, netlist.KindConstant)
	if len(consts) != 1 || !literal.Equal(consts[0].Value, literal.NewInt(6)) {
		t.Fatalf("g = %+v, want 6", consts)
	}
}

func TestParametersNameTheInstance(t *testing.T) {
	src := `
function Bit#(4) f#(Integer n)(Bit#(4) x) = x + n;
`
	one := synthesize(t, src, "f#(1)")
	two := synthesize(t, src, "f#(2)")
	if one.Name != "f#(1)" {
		t.Fatalf("name = %q", one.Name)
	}
	if netlist.Match(one.Netlist, one.Root, two.Netlist, two.Root) {
		t.Fatalf("f#(1) and f#(2) must not match")
	}
	again := synthesize(t, src, "f#(1)")
	if !netlist.Match(one.Netlist, one.Root, again.Netlist, again.Root) {
		t.Fatalf("f#(1) does not match itself")
	}
}

func TestRegisterWritesUseOldValues(t *testing.T) {
	src := `
module Pair;
    Reg#(Bit#(4)) a(1);
    Reg#(Bit#(4)) b(2);
    method Bit#(4) getA = a;
    method Bit#(4) getB = b;
    rule step;
        a <= a + 1;
        b <= a;
    endrule
endmodule
`
	res := synthesize(t, src, "Pair")
	n := res.Netlist
	a, b := named(t, res, "a"), named(t, res, "b")
	aValue := port(t, n, a.ID, netlist.LabelRegValue, false)
	if driver(t, n, port(t, n, b.ID, netlist.LabelRegIn, true)) != aValue {
		t.Fatalf("b must load the value a had before the rule")
	}
	add := children(res, netlist.KindFunction)
	if len(add) != 1 || driver(t, n, port(t, n, a.ID, netlist.LabelRegIn, true)) != n.Out(add[0].ID) {
		t.Fatalf("a must load a + 1")
	}
}

func TestConstantFolding(t *testing.T) {
	src := `
function Bit#(8) f(Bit#(8) x);
    Integer k = 3 * 4 + (1 << 2);
    Bit#(8) m = (k == 16) ? 8'h0f : 8'hff;
    if (k > 100) m = 0;
    return x & m;
endfunction
`
	res := synthesize(t, src, "f")
	if got := len(children(res, netlist.KindMux)); got != 0 {
		t.Fatalf("constant conditions produced %d muxes", got)
	}
	fns := children(res, netlist.KindFunction)
	consts := children(res, netlist.KindConstant)
	if len(fns) != 1 || fns[0].Name != "&" {
		t.Fatalf("functions = %d", len(fns))
	}
	if len(consts) != 1 || !literal.Equal(consts[0].Value, literal.BitFromUint64(8, 0x0f)) {
		t.Fatalf("constants = %+v", consts)
	}
}

func TestIfBuildsOneMux(t *testing.T) {
	src := `
function Bit#(4) pick(Bool c, Bit#(4) x, Bit#(4) y);
    Bit#(4) r = y;
    if (c) r = x;
    return r;
endfunction
`
	res := synthesize(t, src, "pick")
	n := res.Netlist
	muxes := children(res, netlist.KindMux)
	if len(muxes) != 1 {
		t.Fatalf("muxes = %d, want 1", len(muxes))
	}
	m := muxes[0].ID
	checks := []struct {
		label string
		from  string
	}{
		{netlist.LabelSel, "c"},
		{"0", "x"},
		{"1", "y"},
	}
	for _, c := range checks {
		if driver(t, n, port(t, n, m, c.label, true)) != port(t, n, res.Root, c.from, true) {
			t.Errorf("mux %s is not driven by %s", c.label, c.from)
		}
	}
	if driver(t, n, port(t, n, res.Root, netlist.LabelOut, false)) != n.Out(m) {
		t.Errorf("result is not the mux output")
	}
}

func TestConstantConditionMatchesDirectForm(t *testing.T) {
	withIf := synthesize(t, `
function Bit#(4) inc(Bit#(4) x);
    Bit#(4) y = x;
    if (True) y = x + 1;
    return y;
endfunction
`, "inc")
	direct := synthesize(t, `
function Bit#(4) inc(Bit#(4) x) = x + 1;
`, "inc")
	if len(children(withIf, netlist.KindMux)) != 0 {
		t.Fatalf("if (True) built a mux")
	}
	if !netlist.Match(withIf.Netlist, withIf.Root, direct.Netlist, direct.Root) {
		t.Fatalf("if (True) form does not match the direct form")
	}
}

func TestCaseWithConstantLabels(t *testing.T) {
	src := `
function Bit#(2) dec(Bit#(2) s);
    Bit#(2) r = 0;
    case (s)
        0: r = 3;
        1, 2: r = 1;
        1: r = 2;
        default: r = 0;
    endcase
    return r;
endfunction
`
	res := synthesize(t, src, "dec")
	muxes := children(res, netlist.KindMux)
	if len(muxes) != 1 {
		t.Fatalf("muxes = %d, want 1", len(muxes))
	}
	var labels []string
	for _, p := range muxes[0].Inputs {
		labels = append(labels, p.Label)
	}
	want := []string{"0", "1|2", "default", netlist.LabelSel}
	if len(labels) != len(want) {
		t.Fatalf("mux inputs = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("mux inputs = %v, want %v", labels, want)
		}
	}
}

func TestCaseOnConstantSelectorFolds(t *testing.T) {
	src := `
function Bit#(4) pick(Bit#(4) x);
    Integer mode = 2;
    Bit#(4) r = x;
    case (mode)
        1: r = x + 1;
        2: r = x + 2;
        2: r = x + 3;
    endcase
    return r;
endfunction
`
	res := synthesize(t, src, "pick")
	if len(children(res, netlist.KindMux)) != 0 {
		t.Fatalf("constant selector built a mux")
	}
	consts := children(res, netlist.KindConstant)
	if len(consts) != 1 || !literal.Equal(consts[0].Value, literal.BitFromUint64(4, 2)) {
		t.Fatalf("expected the first matching arm x + 2, got %+v", consts)
	}
}

func TestForLoopUnrolls(t *testing.T) {
	src := `
function Bit#(4) rev(Bit#(4) x);
    Bit#(4) r = 0;
    for (Integer i = 0; i < 4; i = i + 1)
        r[i] = x[3 - i];
    return r;
endfunction
`
	res := synthesize(t, src, "rev")
	reads, writes := 0, 0
	for _, c := range children(res, netlist.KindFunction) {
		switch c.Name {
		case "[0]", "[1]", "[2]", "[3]":
			reads++
		case "[0]=", "[1]=", "[2]=", "[3]=":
			writes++
		}
	}
	if reads != 4 || writes != 4 {
		t.Fatalf("reads = %d, writes = %d, want 4 each", reads, writes)
	}
}

func TestSubmoduleInputs(t *testing.T) {
	src := `
module Inner;
    input Bit#(4) in default = 0;
    input Bool en;
    Reg#(Bit#(4)) r(0);
    method Bit#(4) out = r;
    rule tick;
        if (en) r <= in;
    endrule
endmodule

module Outer;
    Inner i;
    input Bool go;
    method Bit#(4) value = i.out;
    rule drive;
        i.en = go;
    endrule
endmodule
`
	res := synthesize(t, src, "Outer")
	n := res.Netlist
	inner := named(t, res, "i")
	if driver(t, n, port(t, n, inner.ID, "en", true)) != port(t, n, res.Root, "go", true) {
		t.Fatalf("i.en is not driven by go")
	}
	src2 := driver(t, n, port(t, n, inner.ID, "in", true))
	nd, _ := n.Node(src2)
	owner, _ := n.Component(nd.Parent)
	if owner.Kind != netlist.KindConstant {
		t.Fatalf("i.in should take its default, driven by %s", owner.Kind)
	}
	if driver(t, n, port(t, n, res.Root, "value", false)) != port(t, n, inner.ID, "out", false) {
		t.Fatalf("value does not read i.out")
	}
}

func TestVectorOfRegisters(t *testing.T) {
	src := `
module Shift;
    Vector#(3, Reg#(Bit#(1))) regs(0);
    input Bit#(1) din;
    method Bit#(1) dout = regs[2];
    rule shift;
        regs[0] <= din;
        for (Integer i = 1; i < 3; i = i + 1)
            regs[i] <= regs[i - 1];
    endrule
endmodule
`
	res := synthesize(t, src, "Shift")
	n := res.Netlist
	vec := named(t, res, "regs")
	if vec.Kind != netlist.KindVectorModule || len(vec.Numbered) != 3 {
		t.Fatalf("regs = %s with %d elements", vec.Kind, len(vec.Numbered))
	}
	r1 := named(t, res, "regs[1]")
	r0 := named(t, res, "regs[0]")
	if driver(t, n, port(t, n, r1.ID, netlist.LabelRegIn, true)) != port(t, n, r0.ID, netlist.LabelRegValue, false) {
		t.Fatalf("regs[1] must load regs[0]")
	}
	if got := n.CollectGlobal(res.Root); got != 0 {
		t.Fatalf("CollectGlobal removed %d live registers", got)
	}
}

func TestCollectGlobalDropsUnobservedRegister(t *testing.T) {
	src := `
module M;
    Reg#(Bit#(2)) seen(0);
    Reg#(Bit#(2)) hidden(0);
    method Bit#(2) get = seen;
    rule r;
        seen <= seen + 1;
        hidden <= hidden + 1;
    endrule
endmodule
`
	res := synthesize(t, src, "M")
	n := res.Netlist
	if got := n.CollectLocal(res.Root); got != 0 {
		t.Fatalf("CollectLocal removed %d: the hidden register feeds itself", got)
	}
	if got := n.CollectGlobal(res.Root); got != 3 {
		t.Fatalf("CollectGlobal removed %d, want register, adder and constant", got)
	}
	if err := testkit.CheckNetlistInvariants(n, res.Root); err != nil {
		t.Fatal(err)
	}
	if got := n.CollectGlobal(res.Root); got != 0 {
		t.Fatalf("second sweep removed %d", got)
	}
}

func TestEarlyReturn(t *testing.T) {
	src := `
function Bit#(4) clamp(Bool big, Bit#(4) x);
    if (big) return 15;
    return x;
endfunction
`
	res := synthesize(t, src, "clamp")
	n := res.Netlist
	muxes := children(res, netlist.KindMux)
	if len(muxes) != 1 {
		t.Fatalf("muxes = %d, want 1", len(muxes))
	}
	m := muxes[0].ID
	if driver(t, n, port(t, n, m, netlist.LabelSel, true)) != port(t, n, res.Root, "big", true) {
		t.Errorf("mux is not steered by big")
	}
	if driver(t, n, port(t, n, m, "1", true)) != port(t, n, res.Root, "x", true) {
		t.Errorf("fall-through input is not x")
	}
	consts := children(res, netlist.KindConstant)
	if len(consts) != 1 || !literal.Equal(consts[0].Value, literal.BitFromUint64(4, 15)) {
		t.Fatalf("constants = %+v, want only 15", consts)
	}
	if driver(t, n, port(t, n, m, "0", true)) != n.Out(consts[0].ID) {
		t.Errorf("taken input is not the constant 15")
	}
	if got := n.CollectLocal(res.Root); got != 0 {
		t.Errorf("CollectLocal removed %d", got)
	}
}

func TestBranchOnlyAssignmentKeepsOtherValue(t *testing.T) {
	src := `
function Bit#(4) f(Bool c, Bit#(4) x);
    Bit#(4) r;
    if (c) r = x;
    return r;
endfunction
`
	res := synthesize(t, src, "f")
	if got := len(children(res, netlist.KindMux)); got != 0 {
		t.Fatalf("muxes = %d, want 0: the unassigned side is a don't care", got)
	}
	n := res.Netlist
	if driver(t, n, port(t, n, res.Root, netlist.LabelOut, false)) != port(t, n, res.Root, "x", true) {
		t.Fatalf("result is not x")
	}
}

func functionNames(res *synth.Result) map[string]int {
	out := map[string]int{}
	for _, c := range children(res, netlist.KindFunction) {
		out[c.Name]++
	}
	return out
}

func TestCaseMixedLabels(t *testing.T) {
	tests := []struct {
		name   string
		header string
		eq     int
		not    int
		muxes  int
		consts int
	}{
		{"constant selector", "case (True)\n s: r = 1;\n u: r = 2;", 0, 0, 2, 3},
		{"true label", "case (s)\n True: r = 1;\n u: r = 2;", 1, 0, 2, 3},
		{"false label", "case (s)\n False: r = 1;\n u: r = 2;", 1, 1, 2, 3},
		{"false selector", "case (False)\n s: r = 1;\n u: r = 2;", 0, 2, 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "function Bit#(2) f(Bool s, Bool u);\n Bit#(2) r = 0;\n" + tt.header + "\n endcase\n return r;\nendfunction\n"
			res := synthesize(t, src, "f")
			names := functionNames(res)
			if names["=="] != tt.eq || names["!"] != tt.not {
				t.Errorf("functions = %v, want %d == and %d !", names, tt.eq, tt.not)
			}
			if got := len(children(res, netlist.KindMux)); got != tt.muxes {
				t.Errorf("muxes = %d, want %d", got, tt.muxes)
			}
			if got := len(children(res, netlist.KindConstant)); got != tt.consts {
				t.Errorf("constants = %d, want %d", got, tt.consts)
			}
		})
	}
}

func TestCaseConstantSelectorSteersBySignal(t *testing.T) {
	src := `
function Bit#(2) f(Bool s, Bool u);
    Bit#(2) r = 0;
    case (True)
        s: r = 1;
        u: r = 2;
    endcase
    return r;
endfunction
`
	res := synthesize(t, src, "f")
	n := res.Netlist
	topNode, _ := n.Node(driver(t, n, port(t, n, res.Root, netlist.LabelOut, false)))
	m := topNode.Parent
	if driver(t, n, port(t, n, m, netlist.LabelSel, true)) != port(t, n, res.Root, "s", true) {
		t.Fatalf("outer mux is not steered by s")
	}
	innerOut := driver(t, n, port(t, n, m, "1", true))
	inner, _ := n.Node(innerOut)
	if driver(t, n, port(t, n, inner.Parent, netlist.LabelSel, true)) != port(t, n, res.Root, "u", true) {
		t.Fatalf("inner mux is not steered by u")
	}
}

func TestCaseExpressionMixedLabelsNest(t *testing.T) {
	src := `
function Bit#(2) g(Bit#(2) s, Bit#(2) k, Bit#(2) a, Bit#(2) b, Bit#(2) c);
    return case (s) 0: a; k: b; default: c; endcase;
endfunction
`
	res := synthesize(t, src, "g")
	n := res.Netlist
	in := func(name string) netlist.NodeID { return port(t, n, res.Root, name, true) }
	owner := func(node netlist.NodeID) *netlist.Component {
		nd, _ := n.Node(node)
		c, _ := n.Component(nd.Parent)
		return c
	}
	if names := functionNames(res); names["=="] != 2 {
		t.Fatalf("functions = %v, want two ==", names)
	}
	outer := owner(driver(t, n, port(t, n, res.Root, netlist.LabelOut, false)))
	if outer.Kind != netlist.KindMux {
		t.Fatalf("result driven by %s, want a mux", outer.Kind)
	}
	if driver(t, n, port(t, n, outer.ID, "0", true)) != in("a") {
		t.Errorf("first arm is not a")
	}
	inner := owner(driver(t, n, port(t, n, outer.ID, "1", true)))
	if inner.Kind != netlist.KindMux {
		t.Fatalf("else input driven by %s, want the inner mux", inner.Kind)
	}
	if driver(t, n, port(t, n, inner.ID, "0", true)) != in("b") || driver(t, n, port(t, n, inner.ID, "1", true)) != in("c") {
		t.Errorf("inner mux does not choose b over c")
	}
	firstEq := owner(driver(t, n, port(t, n, outer.ID, netlist.LabelSel, true)))
	secondEq := owner(driver(t, n, port(t, n, inner.ID, netlist.LabelSel, true)))
	if firstEq.Name != "==" || secondEq.Name != "==" {
		t.Fatalf("mux controls come from %q and %q", firstEq.Name, secondEq.Name)
	}
	if driver(t, n, port(t, n, secondEq.ID, "1", true)) != in("k") {
		t.Errorf("inner control does not compare against k")
	}
	if owner(driver(t, n, port(t, n, firstEq.ID, "1", true))).Kind != netlist.KindConstant {
		t.Errorf("outer control does not compare against the constant label")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target string
		want   diag.Code
	}{
		{"undefined", "function Bit#(1) f(Bit#(1) a) = a ^ nope;", "f", diag.ElbLookup},
		{"arity", "function Bit#(1) g(Bit#(1) a) = a;\nfunction Bit#(1) f(Bit#(1) a) = g(a, a);", "f", diag.ElbArityOrPattern},
		{"range", "function Bit#(2) f(Bit#(2) a); Bit#(2) y = 5; return a + y; endfunction", "f", diag.ElbRange},
		{"missing target", xorSrc, "g", diag.ElbTargetNotFound},
		{"bad target", xorSrc, "f(", diag.ElbBadTargetSpec},
		{"expression target", xorSrc, "1 + 2", diag.ElbBadTargetSpec},
		{"dynamic loop", `
function Bit#(4) f(Bit#(4) x);
    Bit#(4) r = 0;
    for (Integer i = 0; i < x; i = i + 1) r = r + 1;
    return r;
endfunction`, "f", diag.ElbInvariantViolation},
		{"no return", "function Bit#(1) f(Bit#(1) a); Bit#(1) b = a; endfunction", "f", diag.ElbInvariantViolation},
		{"two writers", `
module M;
    Reg#(Bit#(1)) r(0);
    method Bit#(1) get = r;
    rule a; r <= 1; endrule
    rule b; r <= 0; endrule
endmodule`, "M", diag.ElbInvariantViolation},
		{"unbound input", `
module Inner;
    input Bit#(1) x;
    method Bit#(1) get = x;
endmodule
module Outer;
    Inner i;
    method Bit#(1) get = i.get;
endmodule`, "Outer", diag.ElbInvariantViolation},
		{"write outside rule", `
module M;
    Reg#(Bit#(1)) r(0);
    method Bit#(1) get;
        r <= 1;
        return r;
    endmethod
endmodule`, "M", diag.ElbUnsupported},
		{"import", "import other;\nfunction Bit#(1) f(Bit#(1) a) = a;", "f", diag.ElbUnsupported},
		{"recursion", "function Integer f#(Integer n) = f#(n + 1);\nfunction Integer g = f#(0);", "g", diag.ElbRecursionLimit},
		{"bool condition", "function Bit#(2) f(Bit#(2) a) = a ? a : 0;", "f", diag.ElbTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.src, tt.target, tt.want)
		})
	}
}

func TestConcatNameSpellsConstantParts(t *testing.T) {
	src := `
function Bit#(8) f(Bit#(4) x);
    Bit#(8) p = {4'h1, x};
    Bit#(8) q = {4'h2, x};
    return p ^ q;
endfunction
`
	res := synthesize(t, src, "f")
	names := functionNames(res)
	for _, k := range []uint64{1, 2} {
		want := "{" + literal.BitFromUint64(4, k).String() + ",_}"
		if names[want] != 1 {
			t.Errorf("no Function %q in %v", want, names)
		}
	}
}
