package synth

import (
	"fmt"
	"strings"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/source"
	"minisynth/internal/types"
)

func (s *Synthesizer) exprList(ids []ast.ExprID) ([]value, error) {
	out := make([]value, len(ids))
	for i, id := range ids {
		v, err := s.expr(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// exprWant evaluates id with t as the expected type.
func (s *Synthesizer) exprWant(id ast.ExprID, t *types.Type) (value, error) {
	saved := s.want
	s.want = t
	defer func() { s.want = saved }()
	return s.expr(id)
}

func (s *Synthesizer) expr(id ast.ExprID) (value, error) {
	e := s.b.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprVar:
		return s.variableRef(id)
	case ast.ExprLit:
		return s.literal(id)
	case ast.ExprParen:
		p, _ := s.b.Exprs.Paren(id)
		return s.expr(p.Inner)
	case ast.ExprBinary:
		bin, _ := s.b.Exprs.Binary(id)
		l, err := s.expr(bin.Left)
		if err != nil {
			return nil, err
		}
		r, err := s.expr(bin.Right)
		if err != nil {
			return nil, err
		}
		return s.binary(bin.Op, l, r, e.Span)
	case ast.ExprUnary:
		un, _ := s.b.Exprs.Unary(id)
		v, err := s.expr(un.Operand)
		if err != nil {
			return nil, err
		}
		return s.unary(un.Op, v, e.Span)
	case ast.ExprTernary:
		return s.ternary(id)
	case ast.ExprCall:
		return s.call(id)
	case ast.ExprField:
		return s.field(id)
	case ast.ExprIndex:
		return s.index(id)
	case ast.ExprSlice:
		return s.slice(id)
	case ast.ExprConcat:
		return s.concat(id)
	case ast.ExprStruct:
		return s.structLit(id)
	case ast.ExprCase:
		return s.caseExpr(id)
	}
	return nil, errorf(diag.ElbUnsupported, e.Span, "%s expression", e.Kind)
}

func (s *Synthesizer) literal(id ast.ExprID) (value, error) {
	lit, _ := s.b.Exprs.Lit(id)
	sp := s.b.Exprs.Get(id).Span
	switch lit.Kind {
	case ast.LitTrue:
		return litTrue, nil
	case ast.LitFalse:
		return litFalse, nil
	case ast.LitDontCare:
		return dontCare, nil
	case ast.LitInt:
		v, err := literal.ParseInt(lit.Text)
		if err != nil {
			return nil, literalError(sp, err)
		}
		return litVal{v}, nil
	}
	v, err := literal.ParseSized(lit.Text)
	if err != nil {
		return nil, literalError(sp, err)
	}
	return litVal{v}, nil
}

func isComparison(op ast.BinaryOp) bool {
	switch op {
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe, ast.OpAnd, ast.OpOr:
		return true
	}
	return false
}

// binary folds constant operands and otherwise instantiates the operator as a
// black box. An Integer constant next to a sized signal takes its width.
func (s *Synthesizer) binary(op ast.BinaryOp, l, r value, sp source.Span) (value, error) {
	if x, ok := l.(litVal); ok {
		if y, ok := r.(litVal); ok {
			v, err := literal.Binary(op, x.v, y.v)
			if err != nil {
				return nil, literalError(sp, err)
			}
			return litVal{v}, nil
		}
	}
	tl, tr := s.typeOfValue(l), s.typeOfValue(r)
	if isLit(l) && tl.Kind == types.KindInteger && tr.Kind == types.KindBit {
		tl = tr
	}
	if isLit(r) && tr.Kind == types.KindInteger && tl.Kind == types.KindBit {
		tr = tl
	}
	if op == ast.OpAnd || op == ast.OpOr {
		for _, v := range []value{l, r} {
			if lit, ok := v.(litVal); ok && lit.v.Kind() != literal.KindBool {
				return nil, errorf(diag.ElbTypeMismatch, sp, "%s requires Bool operands, got %s", op, lit.v)
			}
		}
	}
	out := tl
	switch {
	case isComparison(op):
		out = types.Bool
	case op == ast.OpShl || op == ast.OpShr:
	case tl.Kind != types.KindBit && tr.Kind == types.KindBit:
		out = tr
	case tl.Kind == types.KindBit && tr.Kind == types.KindBit && tr.Width > tl.Width:
		out = tr
	}
	return s.function(op.String(), []value{l, r}, []*types.Type{tl, tr}, out, sp)
}

func (s *Synthesizer) unary(op ast.UnaryOp, v value, sp source.Span) (value, error) {
	if lit, ok := v.(litVal); ok {
		r, err := literal.Unary(op, lit.v)
		if err != nil {
			return nil, literalError(sp, err)
		}
		return litVal{r}, nil
	}
	out := s.typeOfValue(v)
	switch op {
	case ast.OpPlus:
		return v, nil
	case ast.OpNot:
		out = types.Bool
	case ast.OpRedAnd, ast.OpRedOr, ast.OpRedXor, ast.OpRedNand, ast.OpRedNor, ast.OpRedXnor:
		out = types.Bit(1)
	}
	return s.unaryFunction(op.String(), v, out, sp)
}

func (s *Synthesizer) ternary(id ast.ExprID) (value, error) {
	t, _ := s.b.Exprs.TernaryOf(id)
	sp := s.b.Exprs.Get(id).Span
	c, err := s.expr(t.Cond)
	if err != nil {
		return nil, err
	}
	c, err = s.condition(c, sp)
	if err != nil {
		return nil, err
	}
	if lit, ok := c.(litVal); ok {
		if literal.IsTrue(lit.v) {
			return s.expr(t.Then)
		}
		return s.expr(t.Else)
	}
	a, err := s.expr(t.Then)
	if err != nil {
		return nil, err
	}
	b, err := s.expr(t.Else)
	if err != nil {
		return nil, err
	}
	return s.choose(c, a, b, sp)
}

func (s *Synthesizer) call(id ast.ExprID) (value, error) {
	c, _ := s.b.Exprs.Call(id)
	sp := s.b.Exprs.Get(id).Span
	callee := s.b.Exprs.Unparen(c.Callee)
	ce := s.b.Exprs.Get(callee)
	if ce.Kind == ast.ExprField {
		return nil, errorf(diag.ElbUnsupported, sp, "methods with arguments")
	}
	if ce.Kind != ast.ExprVar {
		return nil, errorf(diag.ElbTypeMismatch, sp, "%s expression is not callable", ce.Kind)
	}
	v, _ := s.b.Exprs.Var(callee)
	name := s.b.Name(v.Name)
	params, err := s.exprList(v.Params)
	if err != nil {
		return nil, err
	}
	f, ok, err := s.lookup(name, v.HasParams, params)
	if err != nil {
		return nil, err
	}
	display := instanceName(name, v.HasParams, params)
	if !ok {
		return s.builtinCall(name, v.HasParams, params, c.Args, sp)
	}
	if f.entry == nil || !f.entry.item.IsValid() || s.b.Items.Get(f.entry.item).Kind != ast.ItemFunction {
		return nil, errorf(diag.ElbTypeMismatch, sp, "%s is not a function", display)
	}
	return s.callFunction(f, display, c.Args, sp)
}

// instanceOf resolves expressions naming an instance: x, v[2], (x).
func (s *Synthesizer) instanceOf(id ast.ExprID) (netlist.CompID, bool, error) {
	id = s.b.Exprs.Unparen(id)
	e := s.b.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprVar:
		v, _ := s.b.Exprs.Var(id)
		if v.HasParams {
			return netlist.NoCompID, false, nil
		}
		f, ok, err := s.lookup(s.b.Name(v.Name), false, nil)
		if err != nil || !ok {
			return netlist.NoCompID, false, err
		}
		if inst, ok := f.val.(instVal); ok {
			return inst.comp, true, nil
		}
	case ast.ExprIndex:
		ix, _ := s.b.Exprs.Index(id)
		vec, ok, err := s.instanceOf(ix.Target)
		if err != nil || !ok {
			return netlist.NoCompID, false, err
		}
		comp, _ := s.n.Component(vec)
		if comp.Kind != netlist.KindVectorModule {
			return netlist.NoCompID, false, nil
		}
		iv, err := s.expr(ix.Index)
		if err != nil {
			return netlist.NoCompID, false, err
		}
		lit, ok := iv.(litVal)
		if !ok {
			return netlist.NoCompID, false, errorf(diag.ElbUnsupported, e.Span, "dynamic index into vector of submodules %s", comp.Name)
		}
		i, ok := literal.AsInt(lit.v)
		sub, found := s.n.Numbered(vec, i)
		if !ok || !found {
			return netlist.NoCompID, false, errorf(diag.ElbRange, e.Span, "index %s out of range for %s", lit.v, comp.Name)
		}
		return sub, true, nil
	}
	return netlist.NoCompID, false, nil
}

// instanceValue reads an instance as a value: registers yield their current value.
func (s *Synthesizer) instanceValue(c netlist.CompID) value {
	if comp, _ := s.n.Component(c); comp != nil && comp.Kind == netlist.KindRegister {
		out, _ := s.n.Output(c, netlist.LabelRegValue)
		return nodeVal{out}
	}
	return instVal{c}
}

func (s *Synthesizer) field(id ast.ExprID) (value, error) {
	fd, _ := s.b.Exprs.Field(id)
	sp := s.b.Exprs.Get(id).Span
	name := s.b.Name(fd.Field)
	if inst, ok, err := s.instanceOf(fd.Target); err != nil {
		return nil, err
	} else if ok {
		comp, _ := s.n.Component(inst)
		if comp.Kind != netlist.KindRegister {
			out, ok := s.n.Output(inst, name)
			if !ok {
				return nil, errorf(diag.ElbLookup, sp, "%s has no method %s", comp.Name, name)
			}
			return nodeVal{out}, nil
		}
	}
	base, err := s.expr(fd.Target)
	if err != nil {
		return nil, err
	}
	return s.fieldOf(base, name, sp)
}

func (s *Synthesizer) fieldOf(base value, name string, sp source.Span) (value, error) {
	switch x := base.(type) {
	case litVal:
		if x.v.Kind() == literal.KindDontCare {
			return dontCare, nil
		}
		st, ok := x.v.(literal.Struct)
		if !ok {
			return nil, errorf(diag.ElbTypeMismatch, sp, "%s has no field %s", x.v, name)
		}
		v, ok := st.Field(name)
		if !ok {
			return nil, errorf(diag.ElbLookup, sp, "%s has no field %s", st.Type, name)
		}
		return litVal{v}, nil
	case nodeVal:
		t := s.typeOfValue(x)
		ft, ok := t.Field(name)
		if !ok {
			return nil, errorf(diag.ElbLookup, sp, "%s has no field %s", t, name)
		}
		return s.unaryFunction("."+name, x, ft, sp)
	}
	return nil, errorf(diag.ElbTypeMismatch, sp, "%s has no field %s", valueString(base), name)
}

func (s *Synthesizer) constInt(id ast.ExprID) (int, error) {
	v, err := s.expr(id)
	if err != nil {
		return 0, err
	}
	sp := s.b.Exprs.Get(id).Span
	lit, ok := v.(litVal)
	if !ok {
		return 0, errorf(diag.ElbUnsupported, sp, "index must be a constant")
	}
	n, ok := literal.AsInt(lit.v)
	if !ok {
		return 0, errorf(diag.ElbTypeMismatch, sp, "%s is not an integer", lit.v)
	}
	return n, nil
}

// elemType is the type selected by an index into t.
func elemType(t *types.Type) *types.Type {
	if t.Kind == types.KindVector {
		return t.Elem
	}
	return types.Bit(1)
}

func (s *Synthesizer) index(id ast.ExprID) (value, error) {
	ix, _ := s.b.Exprs.Index(id)
	sp := s.b.Exprs.Get(id).Span
	if inst, ok, err := s.instanceOf(id); err != nil {
		return nil, err
	} else if ok {
		return s.instanceValue(inst), nil
	}
	base, err := s.expr(ix.Target)
	if err != nil {
		return nil, err
	}
	idx, err := s.expr(ix.Index)
	if err != nil {
		return nil, err
	}
	if il, ok := idx.(litVal); ok {
		i, ok := literal.AsInt(il.v)
		if !ok {
			return nil, errorf(diag.ElbTypeMismatch, sp, "index %s is not an integer", il.v)
		}
		if bl, ok := base.(litVal); ok {
			v, err := literal.Index(bl.v, i)
			if err != nil {
				return nil, literalError(sp, err)
			}
			return litVal{v}, nil
		}
		t := s.typeOfValue(base)
		if w, ok := t.BitWidth(); ok && t.Kind == types.KindBit && i >= w {
			return nil, errorf(diag.ElbRange, sp, "index %d out of range for %s", i, t)
		}
		return s.unaryFunction(fmt.Sprintf("[%d]", i), base, elemType(t), sp)
	}
	t := s.typeOfValue(base)
	return s.function("[]", []value{base, idx}, []*types.Type{t, s.typeOfValue(idx)}, elemType(t), sp)
}

func (s *Synthesizer) slice(id ast.ExprID) (value, error) {
	sl, _ := s.b.Exprs.Slice(id)
	sp := s.b.Exprs.Get(id).Span
	base, err := s.expr(sl.Target)
	if err != nil {
		return nil, err
	}
	msb, err := s.constInt(sl.Msb)
	if err != nil {
		return nil, err
	}
	lsb, err := s.constInt(sl.Lsb)
	if err != nil {
		return nil, err
	}
	if lit, ok := base.(litVal); ok {
		v, err := literal.Slice(lit.v, msb, lsb)
		if err != nil {
			return nil, literalError(sp, err)
		}
		return litVal{v}, nil
	}
	if lsb < 0 || msb < lsb {
		return nil, errorf(diag.ElbRange, sp, "bad slice [%d:%d]", msb, lsb)
	}
	return s.unaryFunction(fmt.Sprintf("[%d:%d]", msb, lsb), base, types.Bit(msb-lsb+1), sp)
}

// partial builds a black box for a constructor whose constant parts are
// spelled out in its name and whose signal parts become inputs, left to right.
func (s *Synthesizer) partial(open, close string, names []string, parts []value, out *types.Type, sp source.Span) (value, error) {
	var sb strings.Builder
	sb.WriteString(open)
	var ins []value
	var inTypes []*types.Type
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte(',')
		}
		if names != nil {
			sb.WriteString(names[i])
			sb.WriteByte(':')
		}
		if lit, ok := p.(litVal); ok {
			sb.WriteString(lit.v.String())
			continue
		}
		sb.WriteByte('_')
		ins = append(ins, p)
		inTypes = append(inTypes, s.typeOfValue(p))
	}
	sb.WriteString(close)
	return s.function(sb.String(), ins, inTypes, out, sp)
}

func (s *Synthesizer) concat(id ast.ExprID) (value, error) {
	c, _ := s.b.Exprs.Concat(id)
	sp := s.b.Exprs.Get(id).Span
	parts, err := s.exprList(c.Parts)
	if err != nil {
		return nil, err
	}
	width := 0
	for _, p := range parts {
		t := s.typeOfValue(p)
		if t.Kind != types.KindBit {
			return nil, errorf(diag.ElbTypeMismatch, sp, "concatenation needs sized parts, got %s", t)
		}
		width += t.Width
	}
	if allLit(parts) {
		lits := make([]literal.Value, len(parts))
		for i, p := range parts {
			lits[i] = p.(litVal).v
		}
		v, err := literal.Concat(lits)
		if err != nil {
			return nil, literalError(sp, err)
		}
		return litVal{v}, nil
	}
	return s.partial("{", "}", nil, parts, types.Bit(width), sp)
}

func (s *Synthesizer) structLit(id ast.ExprID) (value, error) {
	st, _ := s.b.Exprs.Struct(id)
	sp := s.b.Exprs.Get(id).Span
	t, err := s.typeExpr(st.Type)
	if err != nil {
		return nil, err
	}
	if t.Kind != types.KindStruct {
		return nil, errorf(diag.ElbTypeMismatch, sp, "%s is not a struct type", t)
	}
	given := make(map[string]ast.ExprID, len(st.Fields))
	for _, fi := range st.Fields {
		name := s.b.Name(fi.Name)
		if _, ok := t.Field(name); !ok {
			return nil, errorf(diag.ElbLookup, fi.Span, "%s has no field %s", t, name)
		}
		given[name] = fi.Value
	}
	names := make([]string, len(t.Fields))
	parts := make([]value, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
		parts[i] = dontCare
		if e, ok := given[f.Name]; ok {
			v, err := s.exprWant(e, f.Type)
			if err != nil {
				return nil, err
			}
			if parts[i], err = s.coerce(v, f.Type, sp); err != nil {
				return nil, err
			}
		}
	}
	if allLit(parts) {
		out := literal.Struct{Type: t}
		for i, p := range parts {
			out.Fields = append(out.Fields, literal.StructField{Name: names[i], Value: p.(litVal).v})
		}
		return litVal{out}, nil
	}
	return s.partial(t.Name+"{", "}", names, parts, t, sp)
}

// labelKey renders a case label for mux port names.
func labelKey(vals []value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = valueString(v)
	}
	return strings.Join(parts, "|")
}

// caseArm is one arm with its labels already evaluated and deduplicated.
type caseArm struct {
	labels []value
	index  int
}

// caseArms evaluates arm labels. Constant labels already claimed by an earlier
// arm are dropped, and arms left without labels are pruned.
func (s *Synthesizer) caseArms(labelLists [][]ast.ExprID) ([]caseArm, bool, error) {
	var seen []literal.Value
	allConst := true
	var arms []caseArm
	for i, labels := range labelLists {
		arm := caseArm{index: i}
		for _, l := range labels {
			v, err := s.expr(l)
			if err != nil {
				return nil, false, err
			}
			if lit, ok := v.(litVal); ok {
				dup := false
				for _, p := range seen {
					if literal.Equal(p, lit.v) {
						dup = true
						break
					}
				}
				if dup {
					continue
				}
				seen = append(seen, lit.v)
			} else {
				allConst = false
			}
			arm.labels = append(arm.labels, v)
		}
		if len(arm.labels) > 0 {
			arms = append(arms, arm)
		}
	}
	return arms, allConst, nil
}

// matches decides a constant selector against constant labels.
func (s *Synthesizer) matches(sel value, labels []value, sp source.Span) (bool, error) {
	for _, l := range labels {
		eq, err := literal.Binary(ast.OpEq, sel.(litVal).v, l.(litVal).v)
		if err != nil {
			return false, literalError(sp, err)
		}
		if literal.IsTrue(eq) {
			return true, nil
		}
	}
	return false, nil
}

// boolOperand splits a comparison between a Bool literal and hardware into the
// hardware side and the literal's value.
func boolOperand(a, b value) (value, bool, bool) {
	if isLit(a) == isLit(b) {
		return nil, false, false
	}
	lit, hw := a, b
	if !isLit(a) {
		lit, hw = b, a
	}
	v := lit.(litVal).v
	if v.Kind() != literal.KindBool {
		return nil, false, false
	}
	return hw, literal.IsTrue(v), true
}

// armCondition is sel == l1 || sel == l2 ... A Bool literal on either side
// feeds the other operand, or its complement, straight through.
func (s *Synthesizer) armCondition(sel value, labels []value, sp source.Span) (value, error) {
	var cond value = litFalse
	for _, l := range labels {
		var eq value
		var err error
		if hw, want, ok := boolOperand(sel, l); ok {
			eq = hw
			if !want {
				eq, err = s.unary(ast.OpNot, hw, sp)
			}
		} else {
			eq, err = s.binary(ast.OpEq, sel, l, sp)
		}
		if err != nil {
			return nil, err
		}
		if lit, ok := cond.(litVal); ok {
			if literal.IsTrue(lit.v) {
				return cond, nil
			}
			cond = eq
			continue
		}
		if cond, err = s.binary(ast.OpOr, cond, eq, sp); err != nil {
			return nil, err
		}
	}
	return cond, nil
}

func (s *Synthesizer) caseExpr(id ast.ExprID) (value, error) {
	c, _ := s.b.Exprs.Case(id)
	sp := s.b.Exprs.Get(id).Span
	sel, err := s.expr(c.Selector)
	if err != nil {
		return nil, err
	}
	lists := make([][]ast.ExprID, len(c.Arms))
	for i, a := range c.Arms {
		lists[i] = a.Labels
	}
	arms, allConst, err := s.caseArms(lists)
	if err != nil {
		return nil, err
	}
	def := func() (value, error) {
		if !c.Default.IsValid() {
			return dontCare, nil
		}
		return s.expr(c.Default)
	}
	if allConst && isLit(sel) {
		for _, a := range arms {
			ok, err := s.matches(sel, a.labels, sp)
			if err != nil {
				return nil, err
			}
			if ok {
				return s.expr(c.Arms[a.index].Value)
			}
		}
		return def()
	}
	vals := make([]value, 0, len(arms)+1)
	for _, a := range arms {
		v, err := s.expr(c.Arms[a.index].Value)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	dv, err := def()
	if err != nil {
		return nil, err
	}
	if allConst {
		node, ok := sel.(nodeVal)
		if !ok {
			return nil, errorf(diag.ElbTypeMismatch, sp, "%s cannot select a case arm", valueString(sel))
		}
		labels := make([]string, 0, len(arms)+1)
		for _, a := range arms {
			labels = append(labels, labelKey(a.labels))
		}
		return s.selectValue(node.id, append(labels, "default"), append(vals, dv), sp)
	}
	conds := make([]value, len(arms))
	for i, a := range arms {
		if conds[i], err = s.armCondition(sel, a.labels, sp); err != nil {
			return nil, err
		}
	}
	out := dv
	for i := len(arms) - 1; i >= 0; i-- {
		if out, err = s.choose(conds[i], vals[i], out, sp); err != nil {
			return nil, err
		}
	}
	return out, nil
}
