package netlist

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/vmihailenco/msgpack/v5"

	"minisynth/internal/literal"
	"minisynth/internal/source"
	"minisynth/internal/types"
)

// SnapshotVersion changes whenever the encoded layout changes.
const SnapshotVersion = 1

// Snapshot is the serializable form of one component subtree. Ids are
// renumbered densely from 1 in tree order.
type Snapshot struct {
	Version    int
	Root       uint32
	Nodes      []SnapNode
	Wires      []SnapWire
	Components []SnapComponent
}

type SnapNode struct {
	Name string
	Type *SnapType
}

type SnapWire struct {
	Src, Dst uint32
	Origin   []source.Span
}

type SnapPort struct {
	Label string
	Node  uint32
}

type SnapComponent struct {
	Kind       uint8
	Name       string
	Inputs     []SnapPort
	Outputs    []SnapPort
	Children   []uint32
	Numbered   []uint32
	Persistent bool
	Value      *SnapValue
	Origin     []source.Span
}

type SnapType struct {
	Kind    uint8
	Width   int
	Len     int
	Elem    *SnapType
	Name    string
	Fields  []SnapField
	Members []string
}

type SnapField struct {
	Name string
	Type *SnapType
}

type SnapValue struct {
	Kind   uint8
	Width  int
	Int    string
	Bool   bool
	Valid  bool
	Inner  *SnapValue
	Type   *SnapType
	Fields []SnapValueField
	Index  int
}

type SnapValueField struct {
	Name  string
	Value *SnapValue
}

// Snapshot captures the subtree of c.
func (n *Netlist) Snapshot(c CompID) (*Snapshot, error) {
	if _, ok := n.Component(c); !ok {
		return nil, fmt.Errorf("%w: component %d", ErrUnknown, c)
	}
	snap := &Snapshot{Version: SnapshotVersion}
	nodeIdx := make(map[NodeID]uint32)
	compIdx := make(map[CompID]uint32)
	subtree := n.Subtree(c)
	for i, id := range subtree {
		compIdx[id] = uint32(i + 1)
	}
	ports := func(ps []Port) []SnapPort {
		out := make([]SnapPort, len(ps))
		for i, p := range ps {
			nd, _ := n.Node(p.Node)
			snap.Nodes = append(snap.Nodes, SnapNode{Name: nd.Name, Type: encodeType(nd.Type)})
			idx := uint32(len(snap.Nodes))
			nodeIdx[p.Node] = idx
			out[i] = SnapPort{Label: p.Label, Node: idx}
		}
		return out
	}
	for _, id := range subtree {
		comp, _ := n.Component(id)
		sc := SnapComponent{
			Kind:       uint8(comp.Kind),
			Name:       comp.Name,
			Inputs:     ports(comp.Inputs),
			Outputs:    ports(comp.Outputs),
			Persistent: comp.Persistent,
			Value:      encodeValue(comp.Value),
			Origin:     comp.Origin,
		}
		for _, ch := range comp.Children {
			if idx, ok := compIdx[ch]; ok {
				sc.Children = append(sc.Children, idx)
			}
		}
		for _, ch := range comp.Numbered {
			if idx, ok := compIdx[ch]; ok {
				sc.Numbered = append(sc.Numbered, idx)
			}
		}
		snap.Components = append(snap.Components, sc)
	}
	snap.Root = compIdx[c]
	for _, w := range n.AllWires(c) {
		wire, _ := n.Wire(w)
		s, okS := nodeIdx[wire.Src]
		d, okD := nodeIdx[wire.Dst]
		if okS && okD {
			snap.Wires = append(snap.Wires, SnapWire{Src: s, Dst: d, Origin: wire.Origin})
		}
	}
	return snap, nil
}

// Restore rebuilds a Netlist from a snapshot and returns the new root.
func Restore(snap *Snapshot) (*Netlist, CompID, error) {
	if snap.Version != SnapshotVersion {
		return nil, NoCompID, fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	n := New()
	nodes := make([]NodeID, len(snap.Nodes)+1)
	for i, sn := range snap.Nodes {
		nodes[i+1] = n.NewNode(sn.Name, decodeType(sn.Type))
	}
	comps := make([]CompID, len(snap.Components)+1)
	for i, sc := range snap.Components {
		comps[i+1] = n.NewComponent(Kind(sc.Kind), sc.Name)
	}
	node := func(idx uint32) (NodeID, error) {
		if idx == 0 || int(idx) >= len(nodes) {
			return NoNodeID, fmt.Errorf("%w: snapshot node %d", ErrUnknown, idx)
		}
		return nodes[idx], nil
	}
	comp := func(idx uint32) (CompID, error) {
		if idx == 0 || int(idx) >= len(comps) {
			return NoCompID, fmt.Errorf("%w: snapshot component %d", ErrUnknown, idx)
		}
		return comps[idx], nil
	}
	for i, sc := range snap.Components {
		id := comps[i+1]
		for _, p := range sc.Inputs {
			nd, err := node(p.Node)
			if err != nil {
				return nil, NoCompID, err
			}
			if err := n.AddInput(id, p.Label, nd); err != nil {
				return nil, NoCompID, err
			}
		}
		for _, p := range sc.Outputs {
			nd, err := node(p.Node)
			if err != nil {
				return nil, NoCompID, err
			}
			if err := n.AddOutput(id, p.Label, nd); err != nil {
				return nil, NoCompID, err
			}
		}
		for _, ch := range sc.Children {
			cid, err := comp(ch)
			if err != nil {
				return nil, NoCompID, err
			}
			if err := n.AddChild(id, cid); err != nil {
				return nil, NoCompID, err
			}
		}
		c, _ := n.Component(id)
		for _, k := range sc.Numbered {
			cid, err := comp(k)
			if err != nil {
				return nil, NoCompID, err
			}
			c.Numbered = append(c.Numbered, cid)
		}
		c.Persistent = sc.Persistent
		c.Origin = sc.Origin
		v, err := decodeValue(sc.Value)
		if err != nil {
			return nil, NoCompID, err
		}
		c.Value = v
	}
	for _, sw := range snap.Wires {
		s, err := node(sw.Src)
		if err != nil {
			return nil, NoCompID, err
		}
		d, err := node(sw.Dst)
		if err != nil {
			return nil, NoCompID, err
		}
		if _, err := n.Connect(s, d, sw.Origin...); err != nil {
			return nil, NoCompID, err
		}
	}
	root, err := comp(snap.Root)
	if err != nil {
		return nil, NoCompID, err
	}
	return n, root, nil
}

// MarshalSnapshot encodes the subtree of c with msgpack.
func (n *Netlist) MarshalSnapshot(c CompID) ([]byte, error) {
	snap, err := n.Snapshot(c)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalSnapshot decodes data produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Netlist, CompID, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, NoCompID, fmt.Errorf("decode snapshot: %w", err)
	}
	return Restore(&snap)
}

func encodeType(t *types.Type) *SnapType {
	if t == nil {
		return nil
	}
	st := &SnapType{
		Kind:    uint8(t.Kind),
		Width:   t.Width,
		Len:     t.Len,
		Elem:    encodeType(t.Elem),
		Name:    t.Name,
		Members: t.Members,
	}
	for _, f := range t.Fields {
		st.Fields = append(st.Fields, SnapField{Name: f.Name, Type: encodeType(f.Type)})
	}
	return st
}

func decodeType(st *SnapType) *types.Type {
	if st == nil {
		return types.Any
	}
	switch types.Kind(st.Kind) {
	case types.KindAny:
		return types.Any
	case types.KindInteger:
		return types.Integer
	case types.KindBool:
		return types.Bool
	case types.KindBit:
		return types.Bit(st.Width)
	case types.KindVector:
		return types.Vector(st.Len, decodeType(st.Elem))
	case types.KindMaybe:
		return types.Maybe(decodeType(st.Elem))
	case types.KindRegister:
		return types.Register(decodeType(st.Elem))
	case types.KindEnum:
		return types.Enum(st.Name, st.Members)
	case types.KindStruct:
		fields := make([]types.Field, len(st.Fields))
		for i, f := range st.Fields {
			fields[i] = types.Field{Name: f.Name, Type: decodeType(f.Type)}
		}
		return types.Struct(st.Name, fields)
	}
	return types.Any
}

func encodeValue(v literal.Value) *SnapValue {
	if v == nil {
		return nil
	}
	sv := &SnapValue{Kind: uint8(v.Kind())}
	switch x := v.(type) {
	case literal.Integer:
		sv.Int = x.V.String()
	case literal.Bit:
		sv.Width = x.Width
		sv.Int = x.V.String()
	case literal.Bool:
		sv.Bool = x.V
	case literal.Maybe:
		sv.Valid = x.Valid
		sv.Inner = encodeValue(x.Inner)
	case literal.Struct:
		sv.Type = encodeType(x.Type)
		for _, f := range x.Fields {
			sv.Fields = append(sv.Fields, SnapValueField{Name: f.Name, Value: encodeValue(f.Value)})
		}
	case literal.Enum:
		sv.Type = encodeType(x.Type)
		sv.Index = x.Index
	}
	return sv
}

func decodeValue(sv *SnapValue) (literal.Value, error) {
	if sv == nil {
		return nil, nil
	}
	parseInt := func() (*big.Int, error) {
		v, ok := new(big.Int).SetString(sv.Int, 10)
		if !ok {
			return nil, fmt.Errorf("snapshot literal %q", sv.Int)
		}
		return v, nil
	}
	switch literal.Kind(sv.Kind) {
	case literal.KindInteger:
		v, err := parseInt()
		if err != nil {
			return nil, err
		}
		return literal.Integer{V: v}, nil
	case literal.KindBit:
		v, err := parseInt()
		if err != nil {
			return nil, err
		}
		return literal.NewBit(sv.Width, v)
	case literal.KindBool:
		return literal.Bool{V: sv.Bool}, nil
	case literal.KindMaybe:
		if !sv.Valid {
			return literal.Invalid(), nil
		}
		inner, err := decodeValue(sv.Inner)
		if err != nil {
			return nil, err
		}
		return literal.Valid(inner), nil
	case literal.KindDontCare:
		return literal.DontCare{}, nil
	case literal.KindStruct:
		s := literal.Struct{Type: decodeType(sv.Type)}
		for _, f := range sv.Fields {
			fv, err := decodeValue(f.Value)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, literal.StructField{Name: f.Name, Value: fv})
		}
		return s, nil
	case literal.KindEnum:
		return literal.Enum{Type: decodeType(sv.Type), Index: sv.Index}, nil
	}
	return nil, fmt.Errorf("snapshot literal kind %d", sv.Kind)
}
