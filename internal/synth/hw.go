package synth

import (
	"slices"
	"strconv"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/source"
	"minisynth/internal/trace"
	"minisynth/internal/types"
)

// typeOfValue is the hardware type a value would carry on a node.
func (s *Synthesizer) typeOfValue(v value) *types.Type {
	switch x := v.(type) {
	case litVal:
		return literal.TypeOf(x.v)
	case nodeVal:
		if nd, ok := s.n.Node(x.id); ok && nd.Type != nil {
			return nd.Type
		}
	}
	return types.Any
}

// coerce sizes an Integer constant for a Bit context; everything else passes.
func (s *Synthesizer) coerce(v value, t *types.Type, sp source.Span) (value, error) {
	lit, ok := v.(litVal)
	if !ok || t == nil || t.Kind != types.KindBit {
		return v, nil
	}
	c, err := literal.CoerceTo(lit.v, t.Width)
	if err != nil {
		return nil, literalError(sp, err)
	}
	return litVal{c}, nil
}

func (s *Synthesizer) requireHardware(what string, sp source.Span) error {
	if !s.comp.IsValid() {
		return errorf(diag.ElbTypeMismatch, sp, "%s is not a constant expression", what)
	}
	return nil
}

func (s *Synthesizer) addChild(c netlist.CompID, sp source.Span) error {
	s.n.AddOrigin(c, sp)
	if err := s.n.AddChild(s.comp, c); err != nil {
		return netlistError(sp, err)
	}
	return nil
}

// hw turns v into a node, materializing constants in the current component.
func (s *Synthesizer) hw(v value, want *types.Type, sp source.Span) (netlist.NodeID, error) {
	switch x := v.(type) {
	case nodeVal:
		return x.id, nil
	case litVal:
		c, err := s.coerce(x, want, sp)
		if err != nil {
			return netlist.NoNodeID, err
		}
		lit := c.(litVal).v
		if err := s.requireHardware(lit.String(), sp); err != nil {
			return netlist.NoNodeID, err
		}
		comp := s.n.NewConstant(lit)
		if err := s.addChild(comp, sp); err != nil {
			return netlist.NoNodeID, err
		}
		trace.Point(s.tracer, trace.ScopeNode, "constant", lit.String(), s.span)
		return s.n.Out(comp), nil
	}
	return netlist.NoNodeID, errorf(diag.ElbTypeMismatch, sp, "%s cannot be used as a signal", valueString(v))
}

func (s *Synthesizer) connect(src, dst netlist.NodeID, sp source.Span) error {
	if _, err := s.n.Connect(src, dst, sp); err != nil {
		return netlistError(sp, err)
	}
	return nil
}

// function instantiates a black box named name over ins and returns its output.
func (s *Synthesizer) function(name string, ins []value, inTypes []*types.Type, out *types.Type, sp source.Span) (value, error) {
	if err := s.requireHardware(name, sp); err != nil {
		return nil, err
	}
	c := s.n.NewFunction(name, inTypes, out)
	if err := s.addChild(c, sp); err != nil {
		return nil, err
	}
	for i, v := range ins {
		src, err := s.hw(v, inTypes[i], sp)
		if err != nil {
			return nil, err
		}
		dst, _ := s.n.Input(c, strconv.Itoa(i))
		if err := s.connect(src, dst, sp); err != nil {
			return nil, err
		}
	}
	return nodeVal{s.n.Out(c)}, nil
}

// unaryFunction is function with the input typed by its own value.
func (s *Synthesizer) unaryFunction(name string, in value, out *types.Type, sp source.Span) (value, error) {
	return s.function(name, []value{in}, []*types.Type{s.typeOfValue(in)}, out, sp)
}

// commonType picks the signal type for values merged by a mux.
func (s *Synthesizer) commonType(vals []value) *types.Type {
	var best *types.Type
	for _, v := range vals {
		t := s.typeOfValue(v)
		if _, ok := v.(nodeVal); ok {
			return t
		}
		if best == nil || best.Kind == types.KindAny || best.Kind == types.KindInteger {
			best = t
		}
	}
	if best == nil {
		return types.Any
	}
	return best
}

// selectValue merges vals under sel. Identical values need no hardware.
// labels names the data ports of case muxes; nil gives positional labels.
func (s *Synthesizer) selectValue(sel netlist.NodeID, labels []string, vals []value, sp source.Span) (value, error) {
	vals = fillDontCare(vals)
	if labels == nil && len(vals) == 2 {
		if a, ok := boolLit(vals[0]); ok {
			if b, ok := boolLit(vals[1]); ok && a != b {
				if a {
					return nodeVal{sel}, nil
				}
				return s.unary(ast.OpNot, nodeVal{sel}, sp)
			}
		}
	}
	same := true
	for _, v := range vals[1:] {
		if !sameValue(vals[0], v) {
			same = false
			break
		}
	}
	if same {
		return vals[0], nil
	}
	if err := s.requireHardware("mux", sp); err != nil {
		return nil, err
	}
	t := s.commonType(vals)
	var mux netlist.CompID
	if labels == nil {
		mux = s.n.NewMux(len(vals), t)
	} else {
		mux = s.n.NewCaseMux(labels, t)
	}
	if err := s.addChild(mux, sp); err != nil {
		return nil, err
	}
	trace.Point(s.tracer, trace.ScopeNode, "mux", strconv.Itoa(len(vals))+" ways", s.span)
	comp, _ := s.n.Component(mux)
	for i, v := range vals {
		src, err := s.hw(v, t, sp)
		if err != nil {
			return nil, err
		}
		if err := s.connect(src, comp.Inputs[i].Node, sp); err != nil {
			return nil, err
		}
	}
	ctl, _ := s.n.Input(mux, netlist.LabelSel)
	if err := s.connect(sel, ctl, sp); err != nil {
		return nil, err
	}
	return nodeVal{s.n.Out(mux)}, nil
}

// fillDontCare gives DontCare data inputs the first specified value, since
// any choice is valid for them.
func fillDontCare(vals []value) []value {
	var fill value
	for _, v := range vals {
		if !sameValue(v, dontCare) {
			fill = v
			break
		}
	}
	if fill == nil {
		return vals
	}
	out := slices.Clone(vals)
	for i, v := range out {
		if sameValue(v, dontCare) {
			out[i] = fill
		}
	}
	return out
}

func boolLit(v value) (bool, bool) {
	lit, ok := v.(litVal)
	if !ok || lit.v.Kind() != literal.KindBool {
		return false, false
	}
	return literal.IsTrue(lit.v), true
}

// condition checks that v can steer a mux.
func (s *Synthesizer) condition(v value, sp source.Span) (value, error) {
	switch x := v.(type) {
	case litVal:
		switch c := x.v.(type) {
		case literal.Bool:
			return x, nil
		case literal.Bit:
			if c.Width == 1 {
				return litVal{literal.Bool{V: c.V.Sign() != 0}}, nil
			}
		}
		return nil, errorf(diag.ElbTypeMismatch, sp, "condition %s is not a Bool", x.v)
	case nodeVal:
		t := s.typeOfValue(x)
		if t.Kind == types.KindBool || t.Kind == types.KindAny || (t.Kind == types.KindBit && t.Width == 1) {
			return x, nil
		}
		return nil, errorf(diag.ElbTypeMismatch, sp, "condition of type %s is not a Bool", t)
	}
	return nil, errorf(diag.ElbTypeMismatch, sp, "%s is not a condition", valueString(v))
}

// choose is a two-way select that folds when the condition is known.
func (s *Synthesizer) choose(cond, then, els value, sp source.Span) (value, error) {
	cond, err := s.condition(cond, sp)
	if err != nil {
		return nil, err
	}
	if c, ok := cond.(litVal); ok {
		if literal.IsTrue(c.v) {
			return then, nil
		}
		return els, nil
	}
	return s.selectValue(cond.(nodeVal).id, nil, []value{then, els}, sp)
}

// spanOr keeps the enclosing span when sp was filtered out by the trace level.
func spanOr(sp *trace.Span, parent uint64) uint64 {
	if id := sp.ID(); id != 0 {
		return id
	}
	return parent
}
