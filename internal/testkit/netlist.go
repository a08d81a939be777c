package testkit

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"minisynth/internal/netlist"
)

// CheckNetlistInvariants walks the subtree of root and verifies:
// 1) every port node is live, has the owning component as parent and the matching role and label
// 2) no node appears on two ports and no component appears twice in the tree
// 3) every child points back at its parent
// 4) every wire reachable from a port has two live endpoints, and the
// destination's inbound wire is that wire
func CheckNetlistInvariants(n *netlist.Netlist, root netlist.CompID) error {
	if n == nil {
		return fmt.Errorf("nil netlist")
	}
	comps := set.New[netlist.CompID](32)
	nodes := set.New[netlist.NodeID](64)
	for _, id := range n.Subtree(root) {
		comp, ok := n.Component(id)
		if !ok {
			return fmt.Errorf("component %d is not live", id)
		}
		if !comps.Insert(id) {
			return fmt.Errorf("component %s #%d appears twice", comp.Name, id)
		}
		check := func(ports []netlist.Port, role netlist.Role) error {
			for _, p := range ports {
				nd, ok := n.Node(p.Node)
				if !ok {
					return fmt.Errorf("%s.%s: node %d is not live", comp.Name, p.Label, p.Node)
				}
				if nd.Parent != id || nd.Role != role || nd.Label != p.Label {
					return fmt.Errorf("%s.%s: node %d has parent=%d role=%s label=%q",
						comp.Name, p.Label, p.Node, nd.Parent, nd.Role, nd.Label)
				}
				if !nodes.Insert(p.Node) {
					return fmt.Errorf("node %d is attached twice", p.Node)
				}
			}
			return nil
		}
		if err := check(comp.Inputs, netlist.RoleInput); err != nil {
			return err
		}
		if err := check(comp.Outputs, netlist.RoleOutput); err != nil {
			return err
		}
		for _, ch := range comp.Children {
			child, ok := n.Component(ch)
			if !ok {
				return fmt.Errorf("%s: child %d is not live", comp.Name, ch)
			}
			if child.Parent != id {
				return fmt.Errorf("%s: child %s has parent %d", comp.Name, child.Name, child.Parent)
			}
		}
	}
	for _, w := range n.AllWires(root) {
		wire, ok := n.Wire(w)
		if !ok {
			return fmt.Errorf("wire %d is not live", w)
		}
		if _, ok := n.Node(wire.Src); !ok {
			return fmt.Errorf("wire %d: source %d is not live", w, wire.Src)
		}
		dst, ok := n.Node(wire.Dst)
		if !ok {
			return fmt.Errorf("wire %d: destination %d is not live", w, wire.Dst)
		}
		if dst.In != w {
			return fmt.Errorf("wire %d: destination %d is driven by wire %d", w, wire.Dst, dst.In)
		}
	}
	for _, id := range nodes.Slice() {
		nd, _ := n.Node(id)
		if nd.In.IsValid() {
			if _, ok := n.Wire(nd.In); !ok {
				return fmt.Errorf("node %d: inbound wire %d is not live", id, nd.In)
			}
		}
	}
	return nil
}
