package netlist

import (
	"fmt"
	"strconv"

	"minisynth/internal/literal"
	"minisynth/internal/types"
)

// Port labels shared by the fixed-shape variants.
const (
	LabelOut      = "out"
	LabelSel      = "sel"
	LabelRegIn    = "input"
	LabelRegValue = "value"
	MuxName       = "_mux"
)

// NewFunction builds a black box with inputs "0".."n-1" and one output "out".
func (n *Netlist) NewFunction(name string, in []*types.Type, out *types.Type) CompID {
	c := n.NewComponent(KindFunction, name)
	for i, t := range in {
		n.mustAttach(n.AddInput(c, strconv.Itoa(i), n.NewNode("", t)))
	}
	n.mustAttach(n.AddOutput(c, LabelOut, n.NewNode("", out)))
	return c
}

// NewMux builds a selector with data inputs "0".."ways-1", control "sel" and output "out".
func (n *Netlist) NewMux(ways int, t *types.Type) CompID {
	c := n.NewComponent(KindMux, MuxName)
	for i := 0; i < ways; i++ {
		n.mustAttach(n.AddInput(c, strconv.Itoa(i), n.NewNode("", t)))
	}
	n.mustAttach(n.AddInput(c, LabelSel, n.NewNode("", types.Any)))
	n.mustAttach(n.AddOutput(c, LabelOut, n.NewNode("", t)))
	return c
}

// NewCaseMux is NewMux with data inputs labelled by case arm instead of position.
func (n *Netlist) NewCaseMux(labels []string, t *types.Type) CompID {
	c := n.NewComponent(KindMux, MuxName)
	for _, l := range labels {
		n.mustAttach(n.AddInput(c, l, n.NewNode("", t)))
	}
	n.mustAttach(n.AddInput(c, LabelSel, n.NewNode("", types.Any)))
	n.mustAttach(n.AddOutput(c, LabelOut, n.NewNode("", t)))
	return c
}

// NewConstant builds a zero-input component driving v.
func (n *Netlist) NewConstant(v literal.Value) CompID {
	c := n.NewComponent(KindConstant, v.String())
	n.mustAttach(n.AddOutput(c, LabelOut, n.NewNode("", literal.TypeOf(v))))
	comp, _ := n.Component(c)
	comp.Value = v
	return c
}

// NewModule builds an empty persistent module; ports are added by the caller.
func (n *Netlist) NewModule(name string) CompID {
	c := n.NewComponent(KindModule, name)
	comp, _ := n.Component(c)
	comp.Persistent = true
	return c
}

// NewRegister builds a register holding t. init may be nil.
func (n *Netlist) NewRegister(name string, t *types.Type, init literal.Value) CompID {
	c := n.NewComponent(KindRegister, name)
	n.mustAttach(n.AddInput(c, LabelRegIn, n.NewNode(name, t)))
	n.mustAttach(n.AddOutput(c, LabelRegValue, n.NewNode(name, t)))
	comp, _ := n.Component(c)
	comp.Persistent = true
	comp.Value = init
	return c
}

// NewVectorModule builds a module that also indexes its submodules by number.
func (n *Netlist) NewVectorModule(name string) CompID {
	c := n.NewComponent(KindVectorModule, name)
	comp, _ := n.Component(c)
	comp.Persistent = true
	return c
}

// AddNumbered records sub, already a child of vec, as its next numbered
// submodule.
func (n *Netlist) AddNumbered(vec, sub CompID) error {
	v, ok := n.Component(vec)
	if !ok || v.Kind != KindVectorModule {
		return fmt.Errorf("%w: vector module %d", ErrUnknown, vec)
	}
	c, ok := n.Component(sub)
	if !ok {
		return fmt.Errorf("%w: component %d", ErrUnknown, sub)
	}
	if c.Parent != vec {
		return fmt.Errorf("%w: component %d is not a child of %d", ErrReparent, sub, vec)
	}
	v.Numbered = append(v.Numbered, sub)
	return nil
}

// Numbered returns submodule i of a vector module.
func (n *Netlist) Numbered(vec CompID, i int) (CompID, bool) {
	comp, ok := n.Component(vec)
	if !ok || i < 0 || i >= len(comp.Numbered) {
		return NoCompID, false
	}
	return comp.Numbered[i], true
}

// Out returns the "out" node of a single-output variant.
func (n *Netlist) Out(c CompID) NodeID {
	id, _ := n.Output(c, LabelOut)
	return id
}

// fresh nodes on a fresh component cannot collide
func (n *Netlist) mustAttach(err error) {
	if err != nil {
		panic(err)
	}
}
