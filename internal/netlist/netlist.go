// Package netlist holds the elaborated hardware: a graph of nodes joined by
// directed wires, organized by a tree of components.
//
// Every node is a port of exactly one component and has at most one inbound
// wire. Components form a tree through parent pointers. All records live in
// id-addressed arenas owned by one Netlist.
package netlist

import (
	"fmt"
	"slices"

	"minisynth/internal/literal"
	"minisynth/internal/source"
	"minisynth/internal/types"
)

// Role says which side of its parent a node sits on.
type Role uint8

const (
	RoleNone Role = iota
	RoleInput
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "in"
	case RoleOutput:
		return "out"
	}
	return "none"
}

type Node struct {
	ID     NodeID
	Name   string
	Type   *types.Type
	In     WireID
	Out    []WireID
	Parent CompID
	Role   Role
	Label  string

	removed bool
}

type Wire struct {
	ID     WireID
	Src    NodeID
	Dst    NodeID
	Origin []source.Span

	removed bool
}

// Kind selects the component variant.
type Kind uint8

const (
	KindFunction Kind = iota
	KindMux
	KindConstant
	KindModule
	KindRegister
	KindVectorModule
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMux:
		return "mux"
	case KindConstant:
		return "constant"
	case KindModule:
		return "module"
	case KindRegister:
		return "register"
	case KindVectorModule:
		return "vector"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Port is a labelled node of a component.
type Port struct {
	Label string
	Node  NodeID
}

type Component struct {
	ID         CompID
	Kind       Kind
	Name       string
	Inputs     []Port
	Outputs    []Port
	Children   []CompID
	Parent     CompID
	Persistent bool
	// Value is the literal of a Constant or the initial value of a Register.
	Value literal.Value
	// Numbered lists the indexed submodules of a VectorModule.
	Numbered []CompID
	Origin   []source.Span

	removed bool
}

// Netlist owns all nodes, wires and components of one elaboration.
type Netlist struct {
	nodes *arena[Node]
	wires *arena[Wire]
	comps *arena[Component]
}

func New() *Netlist {
	return &Netlist{
		nodes: newArena[Node](64),
		wires: newArena[Wire](64),
		comps: newArena[Component](32),
	}
}

// Node returns the live node with id.
func (n *Netlist) Node(id NodeID) (*Node, bool) {
	nd := n.nodes.get(uint32(id))
	if nd == nil || nd.removed {
		return nil, false
	}
	return nd, true
}

func (n *Netlist) Wire(id WireID) (*Wire, bool) {
	w := n.wires.get(uint32(id))
	if w == nil || w.removed {
		return nil, false
	}
	return w, true
}

func (n *Netlist) Component(id CompID) (*Component, bool) {
	c := n.comps.get(uint32(id))
	if c == nil || c.removed {
		return nil, false
	}
	return c, true
}

// NewNode allocates a detached node; it becomes usable once attached with AddInput or AddOutput.
func (n *Netlist) NewNode(name string, t *types.Type) NodeID {
	if t == nil {
		t = types.Any
	}
	id := NodeID(n.nodes.allocate(Node{Name: name, Type: t}))
	n.nodes.get(uint32(id)).ID = id
	return id
}

// NewComponent allocates an empty component of the given kind.
func (n *Netlist) NewComponent(kind Kind, name string) CompID {
	id := CompID(n.comps.allocate(Component{Kind: kind, Name: name}))
	n.comps.get(uint32(id)).ID = id
	return id
}

// AddInput attaches node to c under label.
func (n *Netlist) AddInput(c CompID, label string, node NodeID) error {
	return n.attach(c, label, node, RoleInput)
}

// AddOutput attaches node to c under label.
func (n *Netlist) AddOutput(c CompID, label string, node NodeID) error {
	return n.attach(c, label, node, RoleOutput)
}

func (n *Netlist) attach(c CompID, label string, node NodeID, role Role) error {
	comp, ok := n.Component(c)
	if !ok {
		return fmt.Errorf("%w: component %d", ErrUnknown, c)
	}
	nd, ok := n.Node(node)
	if !ok {
		return fmt.Errorf("%w: node %d", ErrUnknown, node)
	}
	if nd.Parent.IsValid() {
		return fmt.Errorf("%w: node %d belongs to component %d", ErrReparent, node, nd.Parent)
	}
	ports := &comp.Inputs
	if role == RoleOutput {
		ports = &comp.Outputs
	}
	for _, p := range *ports {
		if p.Label == label {
			return fmt.Errorf("%w: %s %q on %s", ErrDuplicatePort, role, label, comp.Name)
		}
	}
	*ports = append(*ports, Port{Label: label, Node: node})
	nd.Parent = c
	nd.Role = role
	nd.Label = label
	return nil
}

// AddChild makes child a subcomponent of parent.
func (n *Netlist) AddChild(parent, child CompID) error {
	p, ok := n.Component(parent)
	if !ok {
		return fmt.Errorf("%w: component %d", ErrUnknown, parent)
	}
	ch, ok := n.Component(child)
	if !ok {
		return fmt.Errorf("%w: component %d", ErrUnknown, child)
	}
	if ch.Parent.IsValid() {
		return fmt.Errorf("%w: component %s", ErrReparent, ch.Name)
	}
	for at := parent; at.IsValid(); {
		if at == child {
			return fmt.Errorf("%w: %s is an ancestor of %s", ErrCycle, ch.Name, p.Name)
		}
		c, _ := n.Component(at)
		if c == nil {
			break
		}
		at = c.Parent
	}
	p.Children = append(p.Children, child)
	ch.Parent = parent
	return nil
}

// Connect adds a wire src -> dst. The destination must not already be driven.
func (n *Netlist) Connect(src, dst NodeID, origin ...source.Span) (WireID, error) {
	if src == dst {
		return NoWireID, fmt.Errorf("%w: node %d", ErrSelfLoop, src)
	}
	s, ok := n.Node(src)
	if !ok {
		return NoWireID, fmt.Errorf("%w: node %d", ErrUnknown, src)
	}
	d, ok := n.Node(dst)
	if !ok {
		return NoWireID, fmt.Errorf("%w: node %d", ErrUnknown, dst)
	}
	if d.In.IsValid() {
		return NoWireID, fmt.Errorf("%w: %s", ErrDstBound, n.describe(d))
	}
	id := WireID(n.wires.allocate(Wire{Src: src, Dst: dst, Origin: slices.Clone(origin)}))
	n.wires.get(uint32(id)).ID = id
	s.Out = append(s.Out, id)
	d.In = id
	return id, nil
}

// AddOrigin records source spans that produced c.
func (n *Netlist) AddOrigin(c CompID, spans ...source.Span) {
	if comp, ok := n.Component(c); ok {
		comp.Origin = append(comp.Origin, spans...)
	}
}

// Input returns the input node of c labelled label.
func (n *Netlist) Input(c CompID, label string) (NodeID, bool) {
	comp, ok := n.Component(c)
	if !ok {
		return NoNodeID, false
	}
	return findPort(comp.Inputs, label)
}

// Output returns the output node of c labelled label.
func (n *Netlist) Output(c CompID, label string) (NodeID, bool) {
	comp, ok := n.Component(c)
	if !ok {
		return NoNodeID, false
	}
	return findPort(comp.Outputs, label)
}

func findPort(ports []Port, label string) (NodeID, bool) {
	for _, p := range ports {
		if p.Label == label {
			return p.Node, true
		}
	}
	return NoNodeID, false
}

// Driver returns the source node of the wire into id, if any.
func (n *Netlist) Driver(id NodeID) (NodeID, bool) {
	nd, ok := n.Node(id)
	if !ok || !nd.In.IsValid() {
		return NoNodeID, false
	}
	w, ok := n.Wire(nd.In)
	if !ok {
		return NoNodeID, false
	}
	return w.Src, true
}

func (n *Netlist) describe(nd *Node) string {
	owner := "?"
	if c, ok := n.Component(nd.Parent); ok {
		owner = c.Name
	}
	if nd.Name != "" {
		return fmt.Sprintf("%s.%s (%s)", owner, nd.Label, nd.Name)
	}
	return owner + "." + nd.Label
}
