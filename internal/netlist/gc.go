package netlist

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// CollectLocal removes unused outputs of non-persistent components under root
// and everything that only fed them. A component left with no children and no
// fan-out is detached, and the check moves up to its parent. root itself is
// never removed. It returns the number of removed components.
func (n *Netlist) CollectLocal(root CompID) int {
	g := localGC{n: n, root: root}
	for _, id := range n.Subtree(root) {
		comp, ok := n.Component(id)
		if !ok || n.protected(id) {
			continue
		}
		for _, p := range slices.Clone(comp.Outputs) {
			g.dropOutput(p.Node)
		}
		g.maybeDrop(id)
	}
	return g.removed
}

type localGC struct {
	n       *Netlist
	root    CompID
	removed int
}

func (n *Netlist) protected(id CompID) bool {
	comp, ok := n.Component(id)
	return !ok || comp.Persistent || !comp.Parent.IsValid()
}

func (g *localGC) dropOutput(id NodeID) {
	nd, ok := g.n.Node(id)
	if !ok || nd.Role != RoleOutput || len(nd.Out) > 0 {
		return
	}
	owner := nd.Parent
	if owner == g.root || g.n.protected(owner) {
		return
	}
	g.removeNode(id)
	g.maybeDrop(owner)
}

// removeNode detaches a node from its component and cuts its inbound wire.
func (g *localGC) removeNode(id NodeID) {
	nd, _ := g.n.Node(id)
	in := nd.In
	if comp, ok := g.n.Component(nd.Parent); ok {
		comp.Inputs = slices.DeleteFunc(comp.Inputs, func(p Port) bool { return p.Node == id })
		comp.Outputs = slices.DeleteFunc(comp.Outputs, func(p Port) bool { return p.Node == id })
	}
	nd.removed = true
	nd.In = NoWireID
	if in.IsValid() {
		g.cut(in)
	}
}

// cut removes a wire and follows the source when its fan-out drops to zero.
func (g *localGC) cut(wid WireID) {
	w, ok := g.n.Wire(wid)
	if !ok {
		return
	}
	w.removed = true
	src, ok := g.n.Node(w.Src)
	if !ok {
		return
	}
	src.Out = slices.DeleteFunc(src.Out, func(o WireID) bool { return o == wid })
	if len(src.Out) > 0 {
		return
	}
	if src.Role == RoleOutput {
		g.dropOutput(src.ID)
		return
	}
	g.maybeDrop(src.Parent)
}

// maybeDrop removes c once it has no children and none of its nodes drives a wire.
func (g *localGC) maybeDrop(id CompID) {
	if id == g.root || g.n.protected(id) {
		return
	}
	comp, _ := g.n.Component(id)
	if len(comp.Children) > 0 {
		return
	}
	for _, p := range comp.Ports() {
		nd, _ := g.n.Node(p)
		if len(nd.Out) > 0 {
			return
		}
	}
	for _, p := range comp.Ports() {
		if _, ok := g.n.Node(p); ok {
			g.removeNode(p)
		}
	}
	// ports may have cascaded into an ancestor removal already
	comp, ok := g.n.Component(id)
	if !ok {
		return
	}
	parent := comp.Parent
	g.n.detach(id)
	g.removed++
	g.maybeDrop(parent)
}

// detach unlinks c from its parent and marks its subtree removed.
func (n *Netlist) detach(id CompID) {
	comp, ok := n.Component(id)
	if !ok {
		return
	}
	if p, ok := n.Component(comp.Parent); ok {
		p.Children = slices.DeleteFunc(p.Children, func(c CompID) bool { return c == id })
		p.Numbered = slices.DeleteFunc(p.Numbered, func(c CompID) bool { return c == id })
	}
	for _, ch := range comp.Children {
		n.detach(ch)
	}
	for _, p := range comp.Ports() {
		if nd, ok := n.Node(p); ok {
			if w, ok := n.Wire(nd.In); ok {
				w.removed = true
			}
			nd.removed = true
		}
	}
	comp.removed = true
}

// CollectGlobal is a mark-and-sweep pass over the subtree of root. Live nodes
// are the outputs of root and everything upstream of them through inbound
// wires. A leaf black box with a live output keeps all of its inputs live, and
// the inputs of root are always kept. A component is live when an output or a
// child is live. It returns the number of removed components.
func (n *Netlist) CollectGlobal(root CompID) int {
	rc, ok := n.Component(root)
	if !ok {
		return 0
	}
	live := set.New[NodeID](64)
	var stack []NodeID
	mark := func(id NodeID) {
		if live.Insert(id) {
			stack = append(stack, id)
		}
	}
	for _, p := range rc.Outputs {
		mark(p.Node)
	}
	for _, p := range rc.Inputs {
		mark(p.Node)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd, _ := n.Node(id)
		if src, ok := n.Driver(id); ok {
			mark(src)
		}
		if nd.Role != RoleOutput {
			continue
		}
		owner, _ := n.Component(nd.Parent)
		if owner != nil && owner.ID != root && len(owner.Children) == 0 {
			for _, p := range owner.Inputs {
				mark(p.Node)
			}
		}
	}

	liveComp := set.New[CompID](32)
	var markComp func(id CompID) bool
	markComp = func(id CompID) bool {
		comp, _ := n.Component(id)
		alive := id == root
		for _, ch := range comp.Children {
			if markComp(ch) {
				alive = true
			}
		}
		for _, p := range comp.Outputs {
			if live.Contains(p.Node) {
				alive = true
			}
		}
		if alive {
			liveComp.Insert(id)
		}
		return alive
	}
	markComp(root)

	removed := 0
	for _, id := range n.Subtree(root) {
		comp, ok := n.Component(id)
		if !ok {
			continue
		}
		if !liveComp.Contains(id) {
			n.detach(id)
			removed++
			continue
		}
		for _, p := range comp.Ports() {
			if !live.Contains(p) {
				n.dropPort(id, p)
			}
		}
	}
	// a wire survives iff its destination survived
	for _, id := range n.Nodes(root) {
		nd, _ := n.Node(id)
		nd.Out = slices.DeleteFunc(nd.Out, func(w WireID) bool {
			wire, ok := n.Wire(w)
			if !ok {
				return true
			}
			if _, ok := n.Node(wire.Dst); !ok {
				wire.removed = true
				return true
			}
			return false
		})
	}
	return removed
}

func (n *Netlist) dropPort(c CompID, id NodeID) {
	comp, _ := n.Component(c)
	comp.Inputs = slices.DeleteFunc(comp.Inputs, func(p Port) bool { return p.Node == id })
	comp.Outputs = slices.DeleteFunc(comp.Outputs, func(p Port) bool { return p.Node == id })
	nd, _ := n.Node(id)
	if w, ok := n.Wire(nd.In); ok {
		w.removed = true
	}
	nd.removed = true
}
