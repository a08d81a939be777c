package synth

import (
	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/source"
	"minisynth/internal/types"
)

// found is a resolved name: either a plain value or a definition together
// with the parameters that selected it.
type found struct {
	val       value
	entry     *permEntry
	binds     []binding
	hasParams bool
	params    []value
}

type binding struct {
	name string
	val  value
}

// lookup walks the scope chain from the innermost scope. Within one scope a
// variable wins over permanents for plain names, and the most recently bound
// permanent whose pattern accepts the actuals wins over older ones.
func (s *Synthesizer) lookup(name string, hasParams bool, params []value) (found, bool, error) {
	for sc := s.scope; sc != nil; sc = sc.parent {
		if !hasParams {
			if v, ok := sc.temporary[name]; ok {
				return found{val: v}, true, nil
			}
		}
		entries := sc.permanent[name]
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			binds, ok, err := s.matchPattern(e, hasParams, params)
			if err != nil {
				return found{}, false, err
			}
			if ok {
				return found{val: e.val, entry: e, binds: binds, hasParams: hasParams, params: params}, true, nil
			}
		}
	}
	return found{}, false, nil
}

func (s *Synthesizer) matchPattern(e *permEntry, hasParams bool, params []value) ([]binding, bool, error) {
	if !e.hasParams || !hasParams {
		return nil, e.hasParams == hasParams, nil
	}
	if len(params) != len(e.pattern) {
		return nil, false, nil
	}
	var binds []binding
	for i, p := range e.pattern {
		switch p.Kind {
		case ast.ParamInteger:
			lit, ok := params[i].(litVal)
			if !ok {
				return nil, false, nil
			}
			n, ok := integerParam(lit.v)
			if !ok {
				return nil, false, nil
			}
			binds = append(binds, binding{name: s.b.Name(p.Name), val: litVal{n}})
		case ast.ParamType:
			if _, ok := params[i].(typeVal); !ok {
				return nil, false, nil
			}
			binds = append(binds, binding{name: s.b.Name(p.Name), val: params[i]})
		case ast.ParamFixed:
			want, err := s.evalIn(e.scope, p.Expr)
			if err != nil {
				return nil, false, err
			}
			if !paramEqual(want, params[i]) {
				return nil, false, nil
			}
		}
	}
	return binds, true, nil
}

// integerParam accepts Integer actuals and the numeric value of sized ones.
func integerParam(v literal.Value) (literal.Value, bool) {
	switch x := v.(type) {
	case literal.Integer:
		return x, true
	case literal.Bit:
		return literal.Integer{V: x.V}, true
	}
	return nil, false
}

func (s *Synthesizer) evalIn(sc *Scope, id ast.ExprID) (value, error) {
	saved := s.scope
	s.scope = sc
	defer func() { s.scope = saved }()
	return s.expr(id)
}

// paramScope opens a scope under the definition's scope holding the bound
// pattern names.
func (s *Synthesizer) paramScope(f found, name string) *Scope {
	sc := NewScope(name, f.entry.scope)
	for _, b := range f.binds {
		sc.bindValue(b.name, b.val)
	}
	return sc
}

// variableRef resolves a name used as a value.
func (s *Synthesizer) variableRef(id ast.ExprID) (value, error) {
	v, _ := s.b.Exprs.Var(id)
	sp := s.b.Exprs.Get(id).Span
	name := s.b.Name(v.Name)
	params, err := s.exprList(v.Params)
	if err != nil {
		return nil, err
	}
	f, ok, err := s.lookup(name, v.HasParams, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.builtinVar(name, v.HasParams, params, sp)
	}
	return s.fromFound(f, name, sp)
}

func (s *Synthesizer) fromFound(f found, name string, sp source.Span) (value, error) {
	if f.entry == nil || !f.entry.item.IsValid() {
		if inst, ok := f.val.(instVal); ok {
			return s.instanceValue(inst.comp), nil
		}
		return f.val, nil
	}
	display := instanceName(name, f.hasParams, f.params)
	switch s.b.Items.Get(f.entry.item).Kind {
	case ast.ItemFunction:
		return s.callFunction(f, display, nil, sp)
	case ast.ItemModule:
		return moduleKind{name: display, def: f}, nil
	case ast.ItemTypedef:
		t, err := s.typedefType(f, display, sp)
		if err != nil {
			return nil, err
		}
		return typeVal{t}, nil
	}
	return nil, errorf(diag.ElbLookup, sp, "%s cannot be used here", display)
}

func (s *Synthesizer) typedefType(f found, name string, sp source.Span) (*types.Type, error) {
	id := f.entry.item
	td, _ := s.b.Items.Typedef(id)
	switch td.Kind {
	case ast.TypedefEnum:
		return s.enumType(id, name), nil
	case ast.TypedefStruct:
		if td.HasParams {
			return nil, errorf(diag.ElbUnsupported, sp, "parametric struct %s", name)
		}
		if t, ok := s.typedefs[id]; ok {
			return t, nil
		}
		fields := make([]types.Field, len(td.Fields))
		for i, fd := range td.Fields {
			v, err := s.evalIn(f.entry.scope, fd.Type)
			if err != nil {
				return nil, err
			}
			tv, ok := v.(typeVal)
			if !ok {
				return nil, errorf(diag.ElbTypeMismatch, fd.Span, "field %s of %s does not have a type", s.b.Name(fd.Name), name)
			}
			fields[i] = types.Field{Name: s.b.Name(fd.Name), Type: tv.t}
		}
		t := types.Struct(name, fields)
		s.typedefs[id] = t
		return t, nil
	}
	v, err := s.evalIn(s.paramScope(f, name), td.Type)
	if err != nil {
		return nil, err
	}
	tv, ok := v.(typeVal)
	if !ok {
		return nil, errorf(diag.ElbTypeMismatch, sp, "%s does not name a type", name)
	}
	return tv.t, nil
}

func (s *Synthesizer) enumType(id ast.ItemID, name string) *types.Type {
	if t, ok := s.typedefs[id]; ok {
		return t
	}
	td, _ := s.b.Items.Typedef(id)
	members := make([]string, len(td.Members))
	for i, m := range td.Members {
		members[i] = s.b.Name(m)
	}
	t := types.Enum(name, members)
	s.typedefs[id] = t
	return t
}

// typeExpr evaluates an expression that must denote a type.
func (s *Synthesizer) typeExpr(id ast.ExprID) (*types.Type, error) {
	v, err := s.expr(id)
	if err != nil {
		return nil, err
	}
	tv, ok := v.(typeVal)
	if !ok {
		return nil, errorf(diag.ElbTypeMismatch, s.b.Exprs.Get(id).Span, "%s is not a type", valueString(v))
	}
	return tv.t, nil
}
