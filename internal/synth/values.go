package synth

import (
	"strings"

	"minisynth/internal/ast"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/types"
)

// value is anything an expression can evaluate to during elaboration.
type value interface{ isValue() }

// litVal is a compile-time constant.
type litVal struct{ v literal.Value }

// nodeVal is a hardware signal.
type nodeVal struct{ id netlist.NodeID }

// instVal is a submodule, register or vector instance.
type instVal struct{ comp netlist.CompID }

type typeVal struct{ t *types.Type }

// regKind is the declaration type Reg#(T).
type regKind struct{ elem *types.Type }

// moduleKind is a user module resolved with its parameters bound.
type moduleKind struct {
	name string
	def  found
}

// vectorKind is Vector#(n, X) where X declares instances.
type vectorKind struct {
	n    int
	elem value
}

func (litVal) isValue()     {}
func (nodeVal) isValue()    {}
func (instVal) isValue()    {}
func (typeVal) isValue()    {}
func (regKind) isValue()    {}
func (moduleKind) isValue() {}
func (vectorKind) isValue() {}

var (
	dontCare = litVal{literal.DontCare{}}
	litTrue  = litVal{literal.Bool{V: true}}
	litFalse = litVal{literal.Bool{V: false}}
)

func isLit(v value) bool {
	_, ok := v.(litVal)
	return ok
}

func allLit(vs []value) bool {
	for _, v := range vs {
		if !isLit(v) {
			return false
		}
	}
	return true
}

// sameValue is identity for signals and value-and-kind equality for constants.
func sameValue(a, b value) bool {
	switch x := a.(type) {
	case litVal:
		y, ok := b.(litVal)
		return ok && literal.Equal(x.v, y.v)
	case nodeVal:
		y, ok := b.(nodeVal)
		return ok && x.id == y.id
	case instVal:
		y, ok := b.(instVal)
		return ok && x.comp == y.comp
	case typeVal:
		y, ok := b.(typeVal)
		return ok && types.Equal(x.t, y.t)
	}
	return false
}

// paramEqual compares an actual parameter with a fixed pattern value. Integer
// and sized literals compare by numeric value.
func paramEqual(a, b value) bool {
	if sameValue(a, b) {
		return true
	}
	x, okA := a.(litVal)
	y, okB := b.(litVal)
	if !okA || !okB {
		return false
	}
	eq, err := literal.Binary(ast.OpEq, x.v, y.v)
	return err == nil && literal.IsTrue(eq)
}

func valueString(v value) string {
	switch x := v.(type) {
	case litVal:
		return x.v.String()
	case typeVal:
		return x.t.String()
	case regKind:
		return "Reg#(" + x.elem.String() + ")"
	case moduleKind:
		return x.name
	case vectorKind:
		return "Vector of " + valueString(x.elem)
	case nodeVal:
		return "signal"
	case instVal:
		return "instance"
	}
	return "?"
}

// instanceName renders name#(p1,p2) for parametric definitions.
func instanceName(name string, hasParams bool, params []value) string {
	if !hasParams {
		return name
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = valueString(p)
	}
	return name + "#(" + strings.Join(parts, ",") + ")"
}
