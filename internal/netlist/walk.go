package netlist

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Subtree lists c and all its live descendants in pre-order.
func (n *Netlist) Subtree(c CompID) []CompID {
	var out []CompID
	var walk func(id CompID)
	walk = func(id CompID) {
		comp, ok := n.Component(id)
		if !ok {
			return
		}
		out = append(out, id)
		for _, ch := range comp.Children {
			walk(ch)
		}
	}
	walk(c)
	return out
}

// Ports returns every port node of c, inputs first.
func (c *Component) Ports() []NodeID {
	out := make([]NodeID, 0, len(c.Inputs)+len(c.Outputs))
	for _, p := range c.Inputs {
		out = append(out, p.Node)
	}
	for _, p := range c.Outputs {
		out = append(out, p.Node)
	}
	return out
}

// Nodes lists every port node in the subtree of c.
func (n *Netlist) Nodes(c CompID) []NodeID {
	var out []NodeID
	for _, id := range n.Subtree(c) {
		comp, _ := n.Component(id)
		out = append(out, comp.Ports()...)
	}
	return out
}

// AllWires collects every wire leaving a port in the subtree of c, sorted by id.
func (n *Netlist) AllWires(c CompID) []WireID {
	seen := set.New[WireID](64)
	for _, id := range n.Nodes(c) {
		nd, _ := n.Node(id)
		for _, w := range nd.Out {
			if _, ok := n.Wire(w); ok {
				seen.Insert(w)
			}
		}
	}
	out := seen.Slice()
	slices.Sort(out)
	return out
}

// Weight is one plus the weight of every child.
func (n *Netlist) Weight(c CompID) int {
	comp, ok := n.Component(c)
	if !ok {
		return 0
	}
	w := 1
	for _, ch := range comp.Children {
		w += n.Weight(ch)
	}
	return w
}

// Count tallies live components of each kind under c.
func (n *Netlist) Count(c CompID) map[Kind]int {
	out := make(map[Kind]int)
	for _, id := range n.Subtree(c) {
		comp, _ := n.Component(id)
		out[comp.Kind]++
	}
	return out
}
