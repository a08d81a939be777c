package synth

import (
	"minisynth/internal/ast"
	"minisynth/internal/types"
)

// Scope is one level of the name chain. Permanent bindings (definitions,
// parameters, ports, instances) are append-only and shadow by recency; a
// temporary binding is a mutable variable.
type Scope struct {
	Name   string
	parent *Scope
	mod    *moduleState

	permanent map[string][]*permEntry
	temporary map[string]value
	declared  map[string]bool
	vtypes    map[string]*types.Type
	// assigned lists names set here but declared further out, in first-write order.
	assigned []string
}

// permEntry is one permanent binding. A parametric entry matches only actuals
// that fit its pattern; a plain one matches only unparameterized lookups.
type permEntry struct {
	hasParams bool
	pattern   []ast.ParamFormal
	item      ast.ItemID
	val       value
	scope     *Scope
}

func NewScope(name string, parent *Scope) *Scope {
	sc := &Scope{
		Name:      name,
		parent:    parent,
		permanent: make(map[string][]*permEntry),
		temporary: make(map[string]value),
		declared:  make(map[string]bool),
		vtypes:    make(map[string]*types.Type),
	}
	if parent != nil {
		sc.mod = parent.mod
	}
	return sc
}

// Parent returns the enclosing scope, or nil for the global scope.
func (sc *Scope) Parent() *Scope { return sc.parent }

func (sc *Scope) bind(name string, e *permEntry) {
	if e.scope == nil {
		e.scope = sc
	}
	sc.permanent[name] = append(sc.permanent[name], e)
}

func (sc *Scope) bindValue(name string, v value) {
	sc.bind(name, &permEntry{val: v})
}

// declare introduces a variable local to sc.
func (sc *Scope) declare(name string, v value) {
	sc.temporary[name] = v
	sc.declared[name] = true
}

// declareTyped is declare for a variable with a written type.
func (sc *Scope) declareTyped(name string, v value, t *types.Type) {
	sc.declare(name, v)
	sc.vtypes[name] = t
}

// varType is the written type of the innermost variable called name.
func (sc *Scope) varType(name string) (*types.Type, bool) {
	for s := sc; s != nil; s = s.parent {
		if _, ok := s.temporary[name]; ok && s.declared[name] {
			t, ok := s.vtypes[name]
			return t, ok
		}
	}
	return nil, false
}

// set updates a variable, recording the write when the variable lives further out.
func (sc *Scope) set(name string, v value) {
	if _, seen := sc.temporary[name]; !seen && !sc.declared[name] {
		sc.assigned = append(sc.assigned, name)
	}
	sc.temporary[name] = v
}

// variable finds the innermost visible temporary.
func (sc *Scope) variable(name string) (value, bool) {
	for s := sc; s != nil; s = s.parent {
		if v, ok := s.temporary[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// changes returns the outer variables written in sc with their final values.
func (sc *Scope) changes() []string {
	return sc.assigned
}

// commit copies the outer variables written in sc into its parent.
func (sc *Scope) commit() {
	for _, name := range sc.assigned {
		sc.parent.set(name, sc.temporary[name])
	}
}
