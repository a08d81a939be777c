package netlist

import (
	"fmt"
	"slices"
)

// Clone copies the subtree of c into a fresh Netlist. Wires with an endpoint
// outside the subtree are dropped.
func (n *Netlist) Clone(c CompID) (*Netlist, CompID, error) {
	if _, ok := n.Component(c); !ok {
		return nil, NoCompID, fmt.Errorf("%w: component %d", ErrUnknown, c)
	}
	dst := New()
	nodes := make(map[NodeID]NodeID)
	var copyComp func(id CompID) (CompID, error)
	copyComp = func(id CompID) (CompID, error) {
		src, _ := n.Component(id)
		nc := dst.NewComponent(src.Kind, src.Name)
		for _, p := range src.Inputs {
			old, _ := n.Node(p.Node)
			nn := dst.NewNode(old.Name, old.Type)
			if err := dst.AddInput(nc, p.Label, nn); err != nil {
				return NoCompID, err
			}
			nodes[p.Node] = nn
		}
		for _, p := range src.Outputs {
			old, _ := n.Node(p.Node)
			nn := dst.NewNode(old.Name, old.Type)
			if err := dst.AddOutput(nc, p.Label, nn); err != nil {
				return NoCompID, err
			}
			nodes[p.Node] = nn
		}
		kids := make(map[CompID]CompID, len(src.Children))
		for _, ch := range src.Children {
			if _, ok := n.Component(ch); !ok {
				continue
			}
			cc, err := copyComp(ch)
			if err != nil {
				return NoCompID, err
			}
			if err := dst.AddChild(nc, cc); err != nil {
				return NoCompID, err
			}
			kids[ch] = cc
		}
		comp, _ := dst.Component(nc)
		comp.Persistent = src.Persistent
		comp.Value = src.Value
		comp.Origin = slices.Clone(src.Origin)
		for _, k := range src.Numbered {
			if cc, ok := kids[k]; ok {
				comp.Numbered = append(comp.Numbered, cc)
			}
		}
		return nc, nil
	}
	root, err := copyComp(c)
	if err != nil {
		return nil, NoCompID, err
	}
	for _, w := range n.AllWires(c) {
		wire, _ := n.Wire(w)
		s, okS := nodes[wire.Src]
		d, okD := nodes[wire.Dst]
		if !okS || !okD {
			continue
		}
		if _, err := dst.Connect(s, d, wire.Origin...); err != nil {
			return nil, NoCompID, err
		}
	}
	return dst, root, nil
}
