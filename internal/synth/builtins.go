package synth

import (
	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/source"
	"minisynth/internal/types"
)

func arity(name string, want int, got int, sp source.Span) error {
	if want != got {
		return errorf(diag.ElbArityOrPattern, sp, "%s takes %d parameters, got %d", name, want, got)
	}
	return nil
}

func (s *Synthesizer) intParam(name string, v value, sp source.Span) (int, error) {
	if lit, ok := v.(litVal); ok {
		if n, ok := literal.AsInt(lit.v); ok {
			return n, nil
		}
	}
	return 0, errorf(diag.ElbArityOrPattern, sp, "%s expects an integer parameter, got %s", name, valueString(v))
}

func typeParam(name string, v value, sp source.Span) (*types.Type, error) {
	if tv, ok := v.(typeVal); ok {
		return tv.t, nil
	}
	return nil, errorf(diag.ElbArityOrPattern, sp, "%s expects a type parameter, got %s", name, valueString(v))
}

// builtinVar resolves the predefined names that are not user definitions.
func (s *Synthesizer) builtinVar(name string, hasParams bool, params []value, sp source.Span) (value, error) {
	switch name {
	case "Bool", "Integer":
		if hasParams {
			return nil, errorf(diag.ElbArityOrPattern, sp, "%s takes no parameters", name)
		}
		if name == "Bool" {
			return typeVal{types.Bool}, nil
		}
		return typeVal{types.Integer}, nil
	case "Bit":
		if err := arity(name, 1, len(params), sp); err != nil {
			return nil, err
		}
		n, err := s.intParam(name, params[0], sp)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, errorf(diag.ElbRange, sp, "Bit#(%d) must have a positive width", n)
		}
		return typeVal{types.Bit(n)}, nil
	case "Maybe":
		if err := arity(name, 1, len(params), sp); err != nil {
			return nil, err
		}
		t, err := typeParam(name, params[0], sp)
		if err != nil {
			return nil, err
		}
		return typeVal{types.Maybe(t)}, nil
	case "Reg":
		if err := arity(name, 1, len(params), sp); err != nil {
			return nil, err
		}
		t, err := typeParam(name, params[0], sp)
		if err != nil {
			return nil, err
		}
		return regKind{elem: t}, nil
	case "Vector":
		if err := arity(name, 2, len(params), sp); err != nil {
			return nil, err
		}
		n, err := s.intParam(name, params[0], sp)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errorf(diag.ElbRange, sp, "Vector#(%d, ...) must not be negative", n)
		}
		switch elem := params[1].(type) {
		case typeVal:
			return typeVal{types.Vector(n, elem.t)}, nil
		case regKind, moduleKind, vectorKind:
			return vectorKind{n: n, elem: elem}, nil
		}
		return nil, errorf(diag.ElbArityOrPattern, sp, "Vector element %s is not a type", valueString(params[1]))
	case "Invalid":
		if hasParams {
			return nil, errorf(diag.ElbArityOrPattern, sp, "%s takes no parameters", name)
		}
		return litVal{literal.Invalid()}, nil
	}
	if _, ok := builtinFuncs[name]; ok {
		return nil, errorf(diag.ElbArityOrPattern, sp, "%s must be called with arguments", name)
	}
	return nil, errorf(diag.ElbLookup, sp, "undefined identifier %s", instanceName(name, hasParams, params))
}

var builtinFuncs = map[string]int{
	"Valid":      1,
	"isValid":    1,
	"fromMaybe":  2,
	"log2":       1,
	"signExtend": 1,
	"zeroExtend": 1,
	"truncate":   1,
}

func (s *Synthesizer) builtinCall(name string, hasParams bool, params []value, argExprs []ast.ExprID, sp source.Span) (value, error) {
	n, ok := builtinFuncs[name]
	if !ok {
		return nil, errorf(diag.ElbLookup, sp, "undefined function %s", instanceName(name, hasParams, params))
	}
	if hasParams {
		return nil, errorf(diag.ElbArityOrPattern, sp, "%s takes no parameters", name)
	}
	if len(argExprs) != n {
		return nil, errorf(diag.ElbArityOrPattern, sp, "%s takes %d arguments, got %d", name, n, len(argExprs))
	}
	want := s.want
	args := make([]value, n)
	for i, a := range argExprs {
		v, err := s.exprWant(a, nil)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	switch name {
	case "Valid":
		if lit, ok := args[0].(litVal); ok {
			return litVal{literal.Valid(lit.v)}, nil
		}
		return s.unaryFunction(name, args[0], types.Maybe(s.typeOfValue(args[0])), sp)
	case "isValid":
		if lit, ok := args[0].(litVal); ok {
			m, ok := lit.v.(literal.Maybe)
			if !ok {
				return nil, errorf(diag.ElbTypeMismatch, sp, "isValid of %s", lit.v)
			}
			return litVal{literal.Bool{V: m.Valid}}, nil
		}
		return s.unaryFunction(name, args[0], types.Bool, sp)
	case "fromMaybe":
		def, m := args[0], args[1]
		if lit, ok := m.(litVal); ok {
			mv, ok := lit.v.(literal.Maybe)
			if !ok {
				return nil, errorf(diag.ElbTypeMismatch, sp, "fromMaybe of %s", lit.v)
			}
			if mv.Valid {
				return litVal{mv.Inner}, nil
			}
			return def, nil
		}
		out := s.typeOfValue(def)
		if mt := s.typeOfValue(m); mt.Kind == types.KindMaybe && mt.Elem != nil && mt.Elem.Kind != types.KindAny {
			out = mt.Elem
		}
		return s.function(name, args, []*types.Type{out, s.typeOfValue(m)}, out, sp)
	case "log2":
		lit, ok := args[0].(litVal)
		if !ok {
			return nil, errorf(diag.ElbTypeMismatch, sp, "log2 needs a constant argument")
		}
		v, err := literal.Log2(lit.v)
		if err != nil {
			return nil, literalError(sp, err)
		}
		return litVal{v}, nil
	}
	return s.resize(name, args[0], want, sp)
}

// resize implements signExtend, zeroExtend and truncate, which take the
// target width from the surrounding context.
func (s *Synthesizer) resize(name string, v value, want *types.Type, sp source.Span) (value, error) {
	if want == nil || want.Kind != types.KindBit {
		return nil, errorf(diag.ElbTypeMismatch, sp, "cannot infer the result width of %s", name)
	}
	if lit, ok := v.(litVal); ok {
		var out literal.Value
		var err error
		if name == "truncate" {
			out, err = literal.Truncate(lit.v, want.Width)
		} else {
			out, err = literal.Extend(lit.v, want.Width, name == "signExtend")
		}
		if err != nil {
			return nil, literalError(sp, err)
		}
		return litVal{out}, nil
	}
	t := s.typeOfValue(v)
	if t.Kind == types.KindBit {
		if name == "truncate" && t.Width < want.Width {
			return nil, errorf(diag.ElbRange, sp, "cannot truncate %s to %s", t, want)
		}
		if name != "truncate" && t.Width > want.Width {
			return nil, errorf(diag.ElbRange, sp, "cannot extend %s to %s", t, want)
		}
		if t.Width == want.Width {
			return v, nil
		}
	}
	return s.unaryFunction(name, v, want, sp)
}
