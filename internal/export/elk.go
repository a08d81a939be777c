// Package export renders elaborated netlists for external viewers.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"minisynth/internal/netlist"
	"minisynth/internal/source"
)

// Graph is the top-level ELK JSON document.
type Graph struct {
	ID            string            `json:"id"`
	LayoutOptions map[string]string `json:"layoutOptions"`
	Children      []*Node           `json:"children"`
	Edges         []*Edge           `json:"edges"`
}

// Node is one component in ELK form.
type Node struct {
	ID         string         `json:"id"`
	Ports      []*Port        `json:"ports,omitempty"`
	Children   []*Node        `json:"children,omitempty"`
	Edges      []*Edge        `json:"edges,omitempty"`
	Width      float64        `json:"width,omitempty"`
	Height     float64        `json:"height,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	IsMux      bool           `json:"isMux,omitempty"`
	Info       *Info          `json:"i,omitempty"`

	comp   netlist.CompID
	parent *Node
}

type Port struct {
	ID         string         `json:"id"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Labels     []Label        `json:"labels,omitempty"`
	Properties map[string]any `json:"properties"`
}

type Label struct {
	Text string `json:"text"`
}

type Edge struct {
	ID         string         `json:"id"`
	Sources    []string       `json:"sources"`
	Targets    []string       `json:"targets"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Info carries viewer data that the layout engine ignores.
type Info struct {
	Name              string     `json:"name"`
	Weight            float64    `json:"weight"`
	NumSubcomponents  int        `json:"numSubcomponents"`
	IsMux             bool       `json:"isMux,omitempty"`
	TokensSourcedFrom []Location `json:"tokensSourcedFrom"`
}

// Location is a source range a component was built from.
type Location struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
}

// Options control the export.
type Options struct {
	// Files resolves provenance spans to paths and lines. Nil leaves them numeric.
	Files *source.FileSet
}

const (
	sideWest  = "WEST"
	sideEast  = "EAST"
	sideSouth = "SOUTH"

	propSide     = "port.side"
	propIndex    = "port.index"
	propPriority = "org.eclipse.elk.layered.priority.direction"
)

type portInfo struct {
	owner *Node
	side  string
}

type builder struct {
	n     *netlist.Netlist
	opts  Options
	ports map[string]portInfo
	nodes map[netlist.CompID]*Node
	vias  int
}

// ELK converts the subtree of root into an ELK graph. Wires are placed on the
// lowest common ancestor of their endpoints and vector modules without ports
// are flattened into their parent.
func ELK(n *netlist.Netlist, root netlist.CompID, opts Options) (*Graph, error) {
	if _, ok := n.Component(root); !ok {
		return nil, fmt.Errorf("%w: component %d", netlist.ErrUnknown, root)
	}
	b := &builder{
		n:     n,
		opts:  opts,
		ports: make(map[string]portInfo),
		nodes: make(map[netlist.CompID]*Node),
	}
	top := b.node(root, nil)
	for _, w := range n.AllWires(root) {
		if err := b.place(top, w); err != nil {
			return nil, err
		}
	}
	prioritizeUniqueStarts(top)
	return &Graph{
		ID: "root",
		LayoutOptions: map[string]string{
			"algorithm":         "layered",
			"hierarchyHandling": "INCLUDE_CHILDREN",
		},
		Children: []*Node{top},
		Edges:    []*Edge{},
	}, nil
}

// WriteELK encodes the ELK graph of root as JSON.
func WriteELK(w io.Writer, n *netlist.Netlist, root netlist.CompID, opts Options) error {
	g, err := ELK(n, root, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func compID(id netlist.CompID) string { return "c" + strconv.FormatUint(uint64(id), 10) }
func nodeID(id netlist.NodeID) string { return "n" + strconv.FormatUint(uint64(id), 10) }
func wireID(id netlist.WireID) string { return "w" + strconv.FormatUint(uint64(id), 10) }

// labelSpace is the room reserved for a component label given its weight.
func labelSpace(weight int) float64 {
	return 30 * math.Pow(float64(weight), 0.25)
}

func (b *builder) node(id netlist.CompID, parent *Node) *Node {
	comp, _ := b.n.Component(id)
	weight := b.n.Weight(id)
	space := labelSpace(weight)
	nd := &Node{
		ID:     compID(id),
		comp:   id,
		parent: parent,
		Info: &Info{
			Name:              comp.Name,
			Weight:            space,
			NumSubcomponents:  weight,
			TokensSourcedFrom: b.locations(comp.Origin),
		},
	}
	b.nodes[id] = nd

	switch comp.Kind {
	case netlist.KindFunction:
		idx := len(comp.Inputs)
		for _, p := range comp.Inputs {
			port := b.port(nd, p.Node, sideWest)
			port.Properties[propIndex] = idx
			if len(comp.Children) > 0 {
				labelPort(port, p.Label, space, space/2)
			}
			idx--
		}
		for _, p := range comp.Outputs {
			b.port(nd, p.Node, sideEast).Properties[propIndex] = 0
		}
		nd.Properties = map[string]any{"portConstraints": "FIXED_ORDER"}
		setPadding(nd, space)
		if !hasFunctionChild(b.n, comp) {
			nd.Width, nd.Height = 15, 15
		}
	case netlist.KindConstant:
		for _, p := range comp.Outputs {
			b.port(nd, p.Node, sideEast)
		}
		nd.Properties = map[string]any{"portConstraints": "FIXED_SIDE"}
		nd.Width, nd.Height = 15, 15
	case netlist.KindMux:
		data := 0
		for _, p := range comp.Inputs {
			if p.Label == netlist.LabelSel {
				continue
			}
			port := b.port(nd, p.Node, sideWest)
			if p.Label != strconv.Itoa(data) {
				labelPort(port, p.Label, 0, 0)
			}
			data++
		}
		if sel, ok := b.n.Input(id, netlist.LabelSel); ok {
			b.port(nd, sel, sideSouth)
		}
		for _, p := range comp.Outputs {
			b.port(nd, p.Node, sideEast)
		}
		nd.Properties = map[string]any{"portConstraints": "FIXED_SIDE"}
		nd.Width, nd.Height = 10, float64(10*data)
		nd.IsMux = true
		nd.Info.Name = ""
		nd.Info.IsMux = true
	default:
		labelled := comp.Kind == netlist.KindModule
		for _, p := range comp.Inputs {
			port := b.port(nd, p.Node, sideWest)
			if labelled {
				labelPort(port, p.Label, space, space/2)
			}
		}
		for _, p := range comp.Outputs {
			port := b.port(nd, p.Node, sideEast)
			if labelled {
				labelPort(port, p.Label, space, space/2)
			}
		}
		nd.Properties = map[string]any{"portConstraints": "FIXED_SIDE"}
		setPadding(nd, space)
		if len(comp.Children) == 0 {
			nd.Width, nd.Height = 15, 15
		}
	}

	for _, ch := range comp.Children {
		child, _ := b.n.Component(ch)
		if child.Kind == netlist.KindVectorModule && len(child.Inputs) == 0 && len(child.Outputs) == 0 {
			// flatten: the elements become children of nd
			for _, el := range child.Children {
				nd.Children = append(nd.Children, b.node(el, nd))
			}
			b.nodes[ch] = nd
			continue
		}
		nd.Children = append(nd.Children, b.node(ch, nd))
	}
	return nd
}

func (b *builder) port(owner *Node, id netlist.NodeID, side string) *Port {
	p := &Port{ID: nodeID(id), Properties: map[string]any{propSide: side}}
	owner.Ports = append(owner.Ports, p)
	b.ports[p.ID] = portInfo{owner: owner, side: side}
	return p
}

func labelPort(p *Port, text string, w, h float64) {
	p.Labels = []Label{{Text: text}}
	p.Width, p.Height = w, h
}

func setPadding(nd *Node, space float64) {
	nd.Properties["elk.padding"] = fmt.Sprintf("[top=%g,left=12,bottom=12,right=12]", space+12)
}

func hasFunctionChild(n *netlist.Netlist, comp *netlist.Component) bool {
	for _, ch := range comp.Children {
		if c, ok := n.Component(ch); ok && c.Kind == netlist.KindFunction {
			return true
		}
	}
	return false
}

// place attaches a wire to the lowest component that contains both ends.
// A wire from an input straight to an output of the same component is split
// through a zero-size node so the layout keeps it inside.
func (b *builder) place(top *Node, id netlist.WireID) error {
	w, _ := b.n.Wire(id)
	src, okS := b.ports[nodeID(w.Src)]
	dst, okD := b.ports[nodeID(w.Dst)]
	if !okS || !okD {
		return fmt.Errorf("%w: wire %d leaves the exported tree", netlist.ErrUnknown, id)
	}
	edge := &Edge{ID: wireID(id), Sources: []string{nodeID(w.Src)}, Targets: []string{nodeID(w.Dst)}}
	if src.owner == dst.owner && src.side != sideEast {
		b.vias++
		via := &Node{ID: fmt.Sprintf("v%d", b.vias), parent: src.owner}
		src.owner.Children = append(src.owner.Children, via)
		src.owner.Edges = append(src.owner.Edges,
			&Edge{ID: "part1_" + edge.ID, Sources: edge.Sources, Targets: []string{via.ID}},
			&Edge{ID: "part2_" + edge.ID, Sources: []string{via.ID}, Targets: edge.Targets},
		)
		return nil
	}
	from := src.owner
	if src.side == sideEast {
		from = parentOr(from, top)
	}
	to := dst.owner
	if dst.side != sideEast {
		to = parentOr(to, top)
	}
	at := commonAncestor(from, to, top)
	at.Edges = append(at.Edges, edge)
	return nil
}

func parentOr(nd, top *Node) *Node {
	if nd.parent == nil {
		return top
	}
	return nd.parent
}

func commonAncestor(a, b, top *Node) *Node {
	seen := make(map[*Node]bool)
	for x := a; x != nil; x = x.parent {
		seen[x] = true
	}
	for x := b; x != nil; x = x.parent {
		if seen[x] {
			return x
		}
	}
	return top
}

// prioritizeUniqueStarts marks every edge whose source port drives no other
// edge so the layered layout keeps it pointing forward.
func prioritizeUniqueStarts(top *Node) {
	count := make(map[string]int)
	var edges []*Edge
	var walk func(nd *Node)
	walk = func(nd *Node) {
		for _, e := range nd.Edges {
			count[e.Sources[0]]++
			edges = append(edges, e)
		}
		for _, ch := range nd.Children {
			walk(ch)
		}
	}
	walk(top)
	for _, e := range edges {
		if count[e.Sources[0]] != 1 {
			continue
		}
		if e.Properties == nil {
			e.Properties = make(map[string]any)
		}
		e.Properties[propPriority] = 10
	}
}

func (b *builder) locations(spans []source.Span) []Location {
	out := make([]Location, 0, len(spans))
	for _, sp := range spans {
		loc := Location{StartByte: sp.Start, EndByte: sp.End}
		if b.opts.Files != nil {
			if f := b.opts.Files.Get(sp.File); f != nil {
				loc.File = f.Path
				start, _ := b.opts.Files.Resolve(sp)
				loc.StartLine, loc.StartCol = start.Line, start.Col
			}
		}
		if loc.File == "" {
			loc.File = strconv.FormatUint(uint64(sp.File), 10)
		}
		out = append(out, loc)
	}
	return out
}
