package netlist_test

import (
	"errors"
	"strings"
	"testing"

	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/testkit"
	"minisynth/internal/types"
)

type design struct {
	n        *netlist.Netlist
	root     netlist.CompID
	a, b     netlist.NodeID
	out      netlist.NodeID
	xor, add netlist.CompID
	one      netlist.CompID
}

func mustConnect(t *testing.T, n *netlist.Netlist, src, dst netlist.NodeID) {
	t.Helper()
	if _, err := n.Connect(src, dst); err != nil {
		t.Fatalf("Connect(%d, %d): %v", src, dst, err)
	}
}

func in(t *testing.T, n *netlist.Netlist, c netlist.CompID, label string) netlist.NodeID {
	t.Helper()
	id, ok := n.Input(c, label)
	if !ok {
		t.Fatalf("no input %q", label)
	}
	return id
}

// buildDesign makes top(a, b) = a ^ b plus an unused a + 1.
func buildDesign(t *testing.T) design {
	t.Helper()
	bit4 := types.Bit(4)
	n := netlist.New()
	d := design{n: n, root: n.NewModule("top")}
	d.a = n.NewNode("a", bit4)
	d.b = n.NewNode("b", bit4)
	d.out = n.NewNode("out", bit4)
	for _, err := range []error{
		n.AddInput(d.root, "a", d.a),
		n.AddInput(d.root, "b", d.b),
		n.AddOutput(d.root, "out", d.out),
	} {
		if err != nil {
			t.Fatalf("ports: %v", err)
		}
	}
	d.xor = n.NewFunction("^", []*types.Type{bit4, bit4}, bit4)
	d.add = n.NewFunction("+", []*types.Type{bit4, bit4}, bit4)
	d.one = n.NewConstant(literal.BitFromUint64(4, 1))
	for _, c := range []netlist.CompID{d.xor, d.add, d.one} {
		if err := n.AddChild(d.root, c); err != nil {
			t.Fatalf("AddChild: %v", err)
		}
	}
	mustConnect(t, n, d.a, in(t, n, d.xor, "0"))
	mustConnect(t, n, d.b, in(t, n, d.xor, "1"))
	mustConnect(t, n, n.Out(d.xor), d.out)
	mustConnect(t, n, d.a, in(t, n, d.add, "0"))
	mustConnect(t, n, n.Out(d.one), in(t, n, d.add, "1"))
	if err := testkit.CheckNetlistInvariants(n, d.root); err != nil {
		t.Fatalf("invariants after build: %v", err)
	}
	return d
}

func TestConnectErrors(t *testing.T) {
	d := buildDesign(t)
	if _, err := d.n.Connect(d.b, d.out); !errors.Is(err, netlist.ErrDstBound) {
		t.Fatalf("second driver: got %v, want ErrDstBound", err)
	}
	if _, err := d.n.Connect(d.a, d.a); !errors.Is(err, netlist.ErrSelfLoop) {
		t.Fatalf("self loop: got %v", err)
	}
	if err := d.n.AddInput(d.root, "a", d.n.NewNode("", nil)); !errors.Is(err, netlist.ErrDuplicatePort) {
		t.Fatalf("duplicate label: got %v", err)
	}
	if err := d.n.AddInput(d.xor, "x", d.a); !errors.Is(err, netlist.ErrReparent) {
		t.Fatalf("reattach node: got %v", err)
	}
	if err := d.n.AddChild(d.xor, d.root); !errors.Is(err, netlist.ErrCycle) {
		t.Fatalf("cycle: got %v", err)
	}
	if err := d.n.AddChild(d.root, d.xor); !errors.Is(err, netlist.ErrReparent) {
		t.Fatalf("second parent: got %v", err)
	}
}

func TestAllWiresAndWeight(t *testing.T) {
	d := buildDesign(t)
	if got := len(d.n.AllWires(d.root)); got != 5 {
		t.Fatalf("AllWires = %d, want 5", got)
	}
	if got := len(d.n.AllWires(d.xor)); got != 1 {
		t.Fatalf("AllWires(xor) = %d, want 1 (its output wire)", got)
	}
	if got := d.n.Weight(d.root); got != 4 {
		t.Fatalf("Weight = %d, want 4", got)
	}
}

func TestCollectLocalRemovesDeadLogic(t *testing.T) {
	d := buildDesign(t)
	removed := d.n.CollectLocal(d.root)
	if removed != 2 {
		t.Fatalf("removed %d components, want 2", removed)
	}
	if _, ok := d.n.Component(d.add); ok {
		t.Fatalf("unused + survived")
	}
	if _, ok := d.n.Component(d.one); ok {
		t.Fatalf("constant feeding only the unused + survived")
	}
	if _, ok := d.n.Component(d.xor); !ok {
		t.Fatalf("live ^ was removed")
	}
	root, _ := d.n.Component(d.root)
	if len(root.Inputs) != 2 {
		t.Fatalf("root inputs must survive, have %d", len(root.Inputs))
	}
	a, _ := d.n.Node(d.a)
	if len(a.Out) != 1 {
		t.Fatalf("a fan-out = %d, want 1", len(a.Out))
	}
	if err := testkit.CheckNetlistInvariants(d.n, d.root); err != nil {
		t.Fatal(err)
	}
}

func TestCollectLocalKeepsPersistent(t *testing.T) {
	n := netlist.New()
	root := n.NewModule("top")
	reg := n.NewRegister("r", types.Bit(2), literal.BitFromUint64(2, 0))
	if err := n.AddChild(root, reg); err != nil {
		t.Fatal(err)
	}
	zero := n.NewConstant(literal.BitFromUint64(2, 0))
	if err := n.AddChild(root, zero); err != nil {
		t.Fatal(err)
	}
	mustConnect(t, n, n.Out(zero), in(t, n, reg, netlist.LabelRegIn))
	if got := n.CollectLocal(root); got != 0 {
		t.Fatalf("removed %d, want 0: register output is persistent", got)
	}
}

func TestCollectGlobalIdempotent(t *testing.T) {
	d := buildDesign(t)
	first := d.n.CollectGlobal(d.root)
	if first != 2 {
		t.Fatalf("first sweep removed %d, want 2", first)
	}
	wires := len(d.n.AllWires(d.root))
	if wires != 3 {
		t.Fatalf("wires after sweep = %d, want 3", wires)
	}
	if err := testkit.CheckNetlistInvariants(d.n, d.root); err != nil {
		t.Fatal(err)
	}
	if again := d.n.CollectGlobal(d.root); again != 0 {
		t.Fatalf("second sweep removed %d", again)
	}
	if got := len(d.n.AllWires(d.root)); got != wires {
		t.Fatalf("second sweep changed wires: %d -> %d", wires, got)
	}
}

func TestCollectGlobalKeepsBlackBoxInputs(t *testing.T) {
	bit := types.Bit(1)
	n := netlist.New()
	root := n.NewModule("top")
	out := n.NewNode("", bit)
	if err := n.AddOutput(root, "out", out); err != nil {
		t.Fatal(err)
	}
	not := n.NewFunction("~", []*types.Type{bit}, bit)
	c := n.NewConstant(literal.BitFromUint64(1, 0))
	for _, ch := range []netlist.CompID{not, c} {
		if err := n.AddChild(root, ch); err != nil {
			t.Fatal(err)
		}
	}
	mustConnect(t, n, n.Out(c), in(t, n, not, "0"))
	mustConnect(t, n, n.Out(not), out)
	if got := n.CollectGlobal(root); got != 0 {
		t.Fatalf("removed %d, want 0", got)
	}
	if _, ok := n.Component(c); !ok {
		t.Fatalf("constant upstream of a live black box was removed")
	}
}

func TestMatchClone(t *testing.T) {
	d := buildDesign(t)
	cn, croot, err := d.n.Clone(d.root)
	if err != nil {
		t.Fatal(err)
	}
	if !netlist.Match(d.n, d.root, cn, croot) {
		t.Fatalf("design does not match its clone")
	}
	if err := testkit.CheckNetlistInvariants(cn, croot); err != nil {
		t.Fatal(err)
	}
	other := buildDesign(t)
	other.n.CollectGlobal(other.root)
	if netlist.Match(d.n, d.root, other.n, other.root) {
		t.Fatalf("collected design must not match the uncollected one")
	}
}

// twoAdders builds top(a, b, c) = (a + b, c + b) with the children added in the given order.
func twoAdders(t *testing.T, swap bool) (*netlist.Netlist, netlist.CompID) {
	t.Helper()
	bit := types.Bit(8)
	n := netlist.New()
	root := n.NewModule("top")
	ins := map[string]netlist.NodeID{}
	for _, l := range []string{"a", "b", "c"} {
		ins[l] = n.NewNode(l, bit)
		if err := n.AddInput(root, l, ins[l]); err != nil {
			t.Fatal(err)
		}
	}
	outs := map[string]netlist.NodeID{}
	for _, l := range []string{"x", "y"} {
		outs[l] = n.NewNode(l, bit)
		if err := n.AddOutput(root, l, outs[l]); err != nil {
			t.Fatal(err)
		}
	}
	f := n.NewFunction("+", []*types.Type{bit, bit}, bit)
	g := n.NewFunction("+", []*types.Type{bit, bit}, bit)
	order := []netlist.CompID{f, g}
	if swap {
		order = []netlist.CompID{g, f}
	}
	for _, c := range order {
		if err := n.AddChild(root, c); err != nil {
			t.Fatal(err)
		}
	}
	mustConnect(t, n, ins["a"], in(t, n, f, "0"))
	mustConnect(t, n, ins["b"], in(t, n, f, "1"))
	mustConnect(t, n, n.Out(f), outs["x"])
	mustConnect(t, n, ins["c"], in(t, n, g, "0"))
	mustConnect(t, n, ins["b"], in(t, n, g, "1"))
	mustConnect(t, n, n.Out(g), outs["y"])
	return n, root
}

func TestMatchPermutesEqualChildren(t *testing.T) {
	n1, r1 := twoAdders(t, false)
	n2, r2 := twoAdders(t, true)
	if !netlist.Match(n1, r1, n2, r2) {
		t.Fatalf("child order must not matter")
	}
}

func TestMatchDetectsWiring(t *testing.T) {
	n1, r1 := twoAdders(t, false)
	n2, r2 := twoAdders(t, false)
	// same tree, but x now reads from the second adder's output path
	root, _ := n2.Component(r2)
	x, _ := n2.Output(r2, "x")
	y, _ := n2.Output(r2, "y")
	xn, _ := n2.Node(x)
	yn, _ := n2.Node(y)
	xn.Label, yn.Label = "y", "x"
	root.Outputs[0].Label, root.Outputs[1].Label = "y", "x"
	if netlist.Match(n1, r1, n2, r2) {
		t.Fatalf("swapped outputs must not match")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := buildDesign(t)
	d.n.AddOrigin(d.xor)
	data, err := d.n.MarshalSnapshot(d.root)
	if err != nil {
		t.Fatal(err)
	}
	rn, rroot, err := netlist.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := testkit.CheckNetlistInvariants(rn, rroot); err != nil {
		t.Fatal(err)
	}
	if !netlist.Match(d.n, d.root, rn, rroot) {
		t.Fatalf("restored design does not match")
	}
	var one *netlist.Component
	for _, id := range rn.Subtree(rroot) {
		if c, _ := rn.Component(id); c.Kind == netlist.KindConstant {
			one = c
		}
	}
	if one == nil || !literal.Equal(one.Value, literal.BitFromUint64(4, 1)) {
		t.Fatalf("constant value lost: %+v", one)
	}
}

func TestDump(t *testing.T) {
	d := buildDesign(t)
	var sb strings.Builder
	if err := d.n.Dump(&sb, d.root); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"module top", "function ^", "constant 4'b0001", "in  a", "Bit#(4)"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}

func TestAddNumbered(t *testing.T) {
	n := netlist.New()
	vec := n.NewVectorModule("regs")
	r0 := n.NewRegister("regs[0]", types.Bit(2), nil)
	stray := n.NewRegister("other", types.Bit(2), nil)
	if err := n.AddChild(vec, r0); err != nil {
		t.Fatal(err)
	}
	if err := n.AddNumbered(vec, r0); err != nil {
		t.Fatalf("AddNumbered: %v", err)
	}
	if got, ok := n.Numbered(vec, 0); !ok || got != r0 {
		t.Fatalf("Numbered(0) = %d, %v", got, ok)
	}
	if err := n.AddNumbered(vec, stray); !errors.Is(err, netlist.ErrReparent) {
		t.Fatalf("detached register: got %v, want ErrReparent", err)
	}
	if err := n.AddNumbered(r0, stray); !errors.Is(err, netlist.ErrUnknown) {
		t.Fatalf("non-vector parent: got %v, want ErrUnknown", err)
	}
	if _, ok := n.Numbered(vec, 1); ok {
		t.Fatalf("only one numbered submodule was added")
	}
}

func TestCollectGlobalKeepsUnusedRootInput(t *testing.T) {
	bit := types.Bit(1)
	n := netlist.New()
	root := n.NewModule("top")
	a := n.NewNode("a", bit)
	unused := n.NewNode("b", bit)
	out := n.NewNode("", bit)
	if err := n.AddInput(root, "a", a); err != nil {
		t.Fatal(err)
	}
	if err := n.AddInput(root, "b", unused); err != nil {
		t.Fatal(err)
	}
	if err := n.AddOutput(root, "out", out); err != nil {
		t.Fatal(err)
	}
	mustConnect(t, n, a, out)
	if got := n.CollectGlobal(root); got != 0 {
		t.Fatalf("removed %d, want 0", got)
	}
	if _, ok := n.Node(unused); !ok {
		t.Fatalf("unused root input was removed")
	}
	if _, ok := n.Input(root, "b"); !ok {
		t.Fatalf("root lost input port b")
	}
}
