package export_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"minisynth/internal/export"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/types"
)

// counter builds top(en) with a register r, r + 1 and a mux choosing between them.
func counter(t *testing.T) (*netlist.Netlist, netlist.CompID) {
	t.Helper()
	bit := types.Bit(4)
	n := netlist.New()
	root := n.NewModule("top")
	en := n.NewNode("en", types.Bool)
	get := n.NewNode("get", bit)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(n.AddInput(root, "en", en))
	must(n.AddOutput(root, "get", get))
	reg := n.NewRegister("r", bit, literal.BitFromUint64(4, 0))
	add := n.NewFunction("+", []*types.Type{bit, bit}, bit)
	one := n.NewConstant(literal.BitFromUint64(4, 1))
	mux := n.NewMux(2, bit)
	for _, c := range []netlist.CompID{reg, add, one, mux} {
		must(n.AddChild(root, c))
	}
	port := func(c netlist.CompID, label string, input bool) netlist.NodeID {
		t.Helper()
		var id netlist.NodeID
		var ok bool
		if input {
			id, ok = n.Input(c, label)
		} else {
			id, ok = n.Output(c, label)
		}
		if !ok {
			t.Fatalf("no port %q", label)
		}
		return id
	}
	connect := func(src, dst netlist.NodeID) {
		t.Helper()
		if _, err := n.Connect(src, dst); err != nil {
			t.Fatal(err)
		}
	}
	value := port(reg, netlist.LabelRegValue, false)
	connect(value, port(add, "0", true))
	connect(n.Out(one), port(add, "1", true))
	connect(n.Out(add), port(mux, "0", true))
	connect(value, port(mux, "1", true))
	connect(en, port(mux, netlist.LabelSel, true))
	connect(n.Out(mux), port(reg, netlist.LabelRegIn, true))
	connect(value, get)
	return n, root
}

func TestELKPlacesEdgesAtCommonAncestor(t *testing.T) {
	n, root := counter(t)
	g, err := export.ELK(n, root, export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Children) != 1 {
		t.Fatalf("graph children = %d", len(g.Children))
	}
	top := g.Children[0]
	if got := len(top.Edges); got != len(n.AllWires(root)) {
		t.Fatalf("top edges = %d, want every wire (%d)", got, len(n.AllWires(root)))
	}
	for _, ch := range top.Children {
		if len(ch.Edges) != 0 {
			t.Errorf("leaf %s carries edges", ch.ID)
		}
	}
	if top.Info == nil || top.Info.Name != "top" || top.Info.NumSubcomponents != 5 {
		t.Fatalf("info = %+v", top.Info)
	}
}

func TestELKPortSides(t *testing.T) {
	n, root := counter(t)
	g, err := export.ELK(n, root, export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var mux *export.Node
	for _, ch := range g.Children[0].Children {
		if ch.IsMux {
			mux = ch
		}
	}
	if mux == nil {
		t.Fatal("no mux node")
	}
	sides := map[string]int{}
	for _, p := range mux.Ports {
		sides[p.Properties["port.side"].(string)]++
	}
	if sides["WEST"] != 2 || sides["SOUTH"] != 1 || sides["EAST"] != 1 {
		t.Fatalf("mux sides = %v", sides)
	}
	if !mux.Info.IsMux || mux.Height != 20 {
		t.Fatalf("mux info = %+v height %g", mux.Info, mux.Height)
	}
}

func TestELKSplitsPassThrough(t *testing.T) {
	bit := types.Bit(1)
	n := netlist.New()
	root := n.NewModule("wire")
	a := n.NewNode("a", bit)
	out := n.NewNode("out", bit)
	if err := n.AddInput(root, "a", a); err != nil {
		t.Fatal(err)
	}
	if err := n.AddOutput(root, "out", out); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Connect(a, out); err != nil {
		t.Fatal(err)
	}
	g, err := export.ELK(n, root, export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	top := g.Children[0]
	if len(top.Children) != 1 || len(top.Edges) != 2 {
		t.Fatalf("children = %d, edges = %d; want one via node and two edges", len(top.Children), len(top.Edges))
	}
	if !strings.HasPrefix(top.Edges[0].ID, "part1_") || top.Edges[1].Sources[0] != top.Children[0].ID {
		t.Fatalf("edges = %+v", top.Edges)
	}
}

func TestWriteFormats(t *testing.T) {
	n, root := counter(t)
	for _, name := range []string{"text", "json", "elk"} {
		f, err := export.ParseFormat(name)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := export.Write(&buf, f, n, root, export.Options{}); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("%s: empty output", name)
		}
		if f != export.FormatText && !json.Valid(buf.Bytes()) {
			t.Fatalf("%s: invalid JSON", name)
		}
	}
	if _, err := export.ParseFormat("svg"); err == nil {
		t.Fatal("svg accepted")
	}
}
