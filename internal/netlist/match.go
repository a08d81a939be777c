package netlist

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-set/v3"
)

// Match reports whether the subtree of a in na and the subtree of b in nb
// describe the same hardware: the component trees are isomorphic with equal
// names and port labels, and the induced node bijection preserves every wire.
func Match(na *Netlist, a CompID, nb *Netlist, b CompID) bool {
	if _, ok := na.Component(a); !ok {
		return false
	}
	if _, ok := nb.Component(b); !ok {
		return false
	}
	m := &matcher{
		a:    side{n: na, sig: make(map[CompID]uint64), kids: make(map[CompID][]CompID)},
		b:    side{n: nb, sig: make(map[CompID]uint64), kids: make(map[CompID][]CompID)},
		fwd:  make(map[NodeID]NodeID),
		back: make(map[NodeID]NodeID),
		root: a,
	}
	if m.a.signature(a) != m.b.signature(b) {
		return false
	}
	if len(na.Nodes(a)) != len(nb.Nodes(b)) {
		return false
	}
	m.a.order(a)
	m.b.order(b)
	if !m.bindPorts(a, b) {
		return false
	}
	return m.solve([]pair{{a, b}})
}

type side struct {
	n    *Netlist
	sig  map[CompID]uint64
	kids map[CompID][]CompID
}

func (s *side) signature(id CompID) uint64 {
	comp, _ := s.n.Component(id)
	childSigs := make([]uint64, 0, len(comp.Children))
	for _, ch := range comp.Children {
		childSigs = append(childSigs, s.signature(ch))
	}
	slices.Sort(childSigs)

	h := xxhash.New()
	var buf [8]byte
	_, _ = h.Write([]byte{byte(comp.Kind)})
	_, _ = h.WriteString(comp.Name)
	writeLabels := func(ports []Port) {
		labels := make([]string, len(ports))
		for i, p := range ports {
			labels[i] = p.Label
		}
		slices.Sort(labels)
		binary.LittleEndian.PutUint64(buf[:], uint64(len(labels)))
		_, _ = h.Write(buf[:])
		for _, l := range labels {
			_, _ = h.WriteString(l)
			_, _ = h.Write([]byte{0})
		}
	}
	writeLabels(comp.Inputs)
	writeLabels(comp.Outputs)
	for _, cs := range childSigs {
		binary.LittleEndian.PutUint64(buf[:], cs)
		_, _ = h.Write(buf[:])
	}
	sum := h.Sum64()
	s.sig[id] = sum
	return sum
}

// order sorts children by how many siblings share their signature, then by
// signature, so unique children come first and equal ones sit together.
func (s *side) order(id CompID) {
	comp, _ := s.n.Component(id)
	counts := make(map[uint64]int, len(comp.Children))
	for _, ch := range comp.Children {
		counts[s.sig[ch]]++
	}
	kids := slices.Clone(comp.Children)
	slices.SortStableFunc(kids, func(x, y CompID) int {
		if c := cmp.Compare(counts[s.sig[x]], counts[s.sig[y]]); c != 0 {
			return c
		}
		return cmp.Compare(s.sig[x], s.sig[y])
	})
	s.kids[id] = kids
	for _, ch := range kids {
		s.order(ch)
	}
}

type pair struct{ a, b CompID }

type matcher struct {
	a, b side
	fwd  map[NodeID]NodeID
	back map[NodeID]NodeID
	log  []NodeID
	root CompID
}

// solve expands matched pairs breadth first, assigning children of the first
// pending pair and recursing on the rest.
func (m *matcher) solve(pending []pair) bool {
	if len(pending) == 0 {
		return m.verify()
	}
	p := pending[0]
	ka, kb := m.a.kids[p.a], m.b.kids[p.b]
	if len(ka) != len(kb) {
		return false
	}
	used := make([]bool, len(kb))
	next := make([]pair, 0, len(pending)-1+len(ka))
	next = append(next, pending[1:]...)
	return m.assign(ka, kb, 0, used, next)
}

func (m *matcher) assign(ka, kb []CompID, i int, used []bool, next []pair) bool {
	if i == len(ka) {
		return m.solve(next)
	}
	want := m.a.sig[ka[i]]
	for j, cand := range kb {
		if used[j] || m.b.sig[cand] != want {
			continue
		}
		mark := len(m.log)
		if m.bindPorts(ka[i], cand) {
			used[j] = true
			if m.assign(ka, kb, i+1, used, append(next, pair{ka[i], cand})) {
				return true
			}
			used[j] = false
		}
		m.undo(mark)
	}
	return false
}

// bindPorts maps the ports of ca onto the equally labelled ports of cb and
// checks every wire between already mapped nodes.
func (m *matcher) bindPorts(ca, cb CompID) bool {
	x, _ := m.a.n.Component(ca)
	y, _ := m.b.n.Component(cb)
	if x.Kind != y.Kind || x.Name != y.Name || len(x.Inputs) != len(y.Inputs) || len(x.Outputs) != len(y.Outputs) {
		return false
	}
	bind := func(px, py []Port) bool {
		for _, p := range px {
			q, ok := findPort(py, p.Label)
			if !ok {
				return false
			}
			m.fwd[p.Node] = q
			m.back[q] = p.Node
			m.log = append(m.log, p.Node)
		}
		return true
	}
	if !bind(x.Inputs, y.Inputs) || !bind(x.Outputs, y.Outputs) {
		return false
	}
	for _, p := range x.Ports() {
		if !m.consistent(p) {
			return false
		}
	}
	return true
}

// consistent checks the wires touching a against its image where the other end is mapped.
func (m *matcher) consistent(a NodeID) bool {
	b := m.fwd[a]
	if src, ok := m.a.n.Driver(a); ok {
		if img, mapped := m.fwd[src]; mapped {
			if got, ok := m.b.n.Driver(b); !ok || got != img {
				return false
			}
		}
	}
	if src, ok := m.b.n.Driver(b); ok {
		if img, mapped := m.back[src]; mapped {
			if got, ok := m.a.n.Driver(a); !ok || got != img {
				return false
			}
		}
	}
	na, _ := m.a.n.Node(a)
	nb, _ := m.b.n.Node(b)
	mappedOut := func(n *Netlist, nd *Node, tbl map[NodeID]NodeID) *set.Set[NodeID] {
		out := set.New[NodeID](len(nd.Out))
		for _, w := range nd.Out {
			wire, ok := n.Wire(w)
			if !ok {
				continue
			}
			if img, mapped := tbl[wire.Dst]; mapped {
				out.Insert(img)
			}
		}
		return out
	}
	dstB := dsts(m.b.n, nb)
	for _, img := range mappedOut(m.a.n, na, m.fwd).Slice() {
		if !dstB.Contains(img) {
			return false
		}
	}
	dstA := dsts(m.a.n, na)
	for _, img := range mappedOut(m.b.n, nb, m.back).Slice() {
		if !dstA.Contains(img) {
			return false
		}
	}
	return true
}

func dsts(n *Netlist, nd *Node) *set.Set[NodeID] {
	out := set.New[NodeID](len(nd.Out))
	for _, w := range nd.Out {
		if wire, ok := n.Wire(w); ok {
			out.Insert(wire.Dst)
		}
	}
	return out
}

func (m *matcher) undo(mark int) {
	for _, a := range m.log[mark:] {
		delete(m.back, m.fwd[a])
		delete(m.fwd, a)
	}
	m.log = m.log[:mark]
}

// verify runs the full adjacency check once every node is mapped, in tree order.
func (m *matcher) verify() bool {
	for _, a := range m.a.n.Nodes(m.root) {
		b, ok := m.fwd[a]
		if !ok {
			return false
		}
		na, _ := m.a.n.Node(a)
		nb, _ := m.b.n.Node(b)
		da, db := dsts(m.a.n, na), dsts(m.b.n, nb)
		if da.Size() != db.Size() {
			return false
		}
		for _, d := range da.Slice() {
			img, ok := m.fwd[d]
			if !ok || !db.Contains(img) {
				return false
			}
		}
	}
	return true
}
