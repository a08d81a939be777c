package synth

import (
	"fmt"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/source"
	"minisynth/internal/types"
)

// Variables used to thread function results through control flow.
const (
	retValue = "#return"
	retDone  = "#returned"
)

func (s *Synthesizer) stmts(list []ast.StmtID) error {
	for _, id := range list {
		if s.returned() {
			return nil
		}
		if err := s.stmt(id); err != nil {
			return err
		}
	}
	return nil
}

// returned reports whether every path through the current function has returned.
func (s *Synthesizer) returned() bool {
	v, ok := s.scope.variable(retDone)
	if !ok {
		return false
	}
	lit, ok := v.(litVal)
	return ok && literal.IsTrue(lit.v)
}

func (s *Synthesizer) stmt(id ast.StmtID) error {
	st := s.b.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtVarBinding:
		return s.varBinding(id)
	case ast.StmtLet:
		let, _ := s.b.Stmts.Let(id)
		if len(let.Names) != 1 {
			return errorf(diag.ElbUnsupported, st.Span, "destructuring let")
		}
		v, err := s.expr(let.Init)
		if err != nil {
			return err
		}
		s.scope.declare(s.b.Name(let.Names[0]), v)
		return nil
	case ast.StmtAssign:
		a, _ := s.b.Stmts.Assign(id)
		return s.assignStmt(a.Target, a.Value, st.Span)
	case ast.StmtRegWrite:
		a, _ := s.b.Stmts.Assign(id)
		return s.regWrite(a.Target, a.Value, st.Span)
	case ast.StmtIf:
		return s.ifStmt(id)
	case ast.StmtCase:
		return s.caseStmt(id)
	case ast.StmtFor:
		return s.forStmt(id)
	case ast.StmtBlock:
		blk, _ := s.b.Stmts.Block(id)
		return s.nested("begin", func() error { return s.stmts(blk.Stmts) })
	case ast.StmtReturn:
		r, _ := s.b.Stmts.Return(id)
		return s.returnStmt(r.Value, st.Span)
	}
	return errorf(diag.ElbUnsupported, st.Span, "%s statement", st.Kind)
}

// nested runs body in a child scope and commits its writes to outer variables.
func (s *Synthesizer) nested(name string, body func() error) error {
	parent := s.scope
	sc := NewScope(name, parent)
	s.scope = sc
	err := body()
	s.scope = parent
	if err != nil {
		return err
	}
	sc.commit()
	return nil
}

func (s *Synthesizer) varBinding(id ast.StmtID) error {
	vb, _ := s.b.Stmts.VarBinding(id)
	t, err := s.typeExpr(vb.Type)
	if err != nil {
		return err
	}
	for _, vi := range vb.Vars {
		name := s.b.Name(vi.Name)
		if !vi.Init.IsValid() {
			s.scope.declareTyped(name, dontCare, t)
			continue
		}
		v, err := s.exprWant(vi.Init, t)
		if err != nil {
			return err
		}
		if v, err = s.coerce(v, t, vi.Span); err != nil {
			return err
		}
		s.scope.declareTyped(name, v, t)
	}
	return nil
}

func (s *Synthesizer) assignStmt(target, val ast.ExprID, sp source.Span) error {
	if inst, label, ok, err := s.inputTarget(target); err != nil {
		return err
	} else if ok {
		return s.setInput(inst, label, val, sp)
	}
	t, err := s.lvalueType(target)
	if err != nil {
		return err
	}
	v, err := s.exprWant(val, t)
	if err != nil {
		return err
	}
	if v, err = s.coerce(v, t, sp); err != nil {
		return err
	}
	return s.assign(target, v, sp)
}

// lvalueType is the type of an assignment target, computed without building
// the hardware that reading it would need.
func (s *Synthesizer) lvalueType(target ast.ExprID) (*types.Type, error) {
	e := s.b.Exprs.Get(target)
	switch e.Kind {
	case ast.ExprParen:
		p, _ := s.b.Exprs.Paren(target)
		return s.lvalueType(p.Inner)
	case ast.ExprVar:
		vr, _ := s.b.Exprs.Var(target)
		name := s.b.Name(vr.Name)
		v, ok := s.scope.variable(name)
		if !ok || vr.HasParams {
			return nil, errorf(diag.ElbTypeMismatch, e.Span, "cannot assign to %s", name)
		}
		if t, ok := s.scope.varType(name); ok && t.Kind != types.KindAny {
			return t, nil
		}
		return s.typeOfValue(v), nil
	case ast.ExprField:
		fd, _ := s.b.Exprs.Field(target)
		t, err := s.lvalueType(fd.Target)
		if err != nil {
			return nil, err
		}
		if ft, ok := t.Field(s.b.Name(fd.Field)); ok {
			return ft, nil
		}
		return types.Any, nil
	case ast.ExprIndex:
		ix, _ := s.b.Exprs.Index(target)
		t, err := s.lvalueType(ix.Target)
		if err != nil {
			return nil, err
		}
		return elemType(t), nil
	case ast.ExprSlice:
		sl, _ := s.b.Exprs.Slice(target)
		if _, err := s.lvalueType(sl.Target); err != nil {
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
		return types.Bit(max(msb-lsb+1, 1)), nil
	}
	return nil, errorf(diag.ElbUnsupported, e.Span, "assignment to a %s expression", e.Kind)
}

// assign stores v into the lvalue target by rebuilding the enclosing value.
func (s *Synthesizer) assign(target ast.ExprID, v value, sp source.Span) error {
	e := s.b.Exprs.Get(target)
	switch e.Kind {
	case ast.ExprParen:
		p, _ := s.b.Exprs.Paren(target)
		return s.assign(p.Inner, v, sp)
	case ast.ExprVar:
		vr, _ := s.b.Exprs.Var(target)
		name := s.b.Name(vr.Name)
		if _, ok := s.scope.variable(name); !ok || vr.HasParams {
			return errorf(diag.ElbTypeMismatch, e.Span, "cannot assign to %s", name)
		}
		s.scope.set(name, v)
		return nil
	case ast.ExprField:
		fd, _ := s.b.Exprs.Field(target)
		base, t, err := s.lvalue(fd.Target)
		if err != nil {
			return err
		}
		upd, err := s.withField(base, t, s.b.Name(fd.Field), v, e.Span)
		if err != nil {
			return err
		}
		return s.assign(fd.Target, upd, sp)
	case ast.ExprIndex:
		ix, _ := s.b.Exprs.Index(target)
		base, t, err := s.lvalue(ix.Target)
		if err != nil {
			return err
		}
		idx, err := s.expr(ix.Index)
		if err != nil {
			return err
		}
		upd, err := s.withIndex(base, t, idx, v, e.Span)
		if err != nil {
			return err
		}
		return s.assign(ix.Target, upd, sp)
	case ast.ExprSlice:
		sl, _ := s.b.Exprs.Slice(target)
		base, t, err := s.lvalue(sl.Target)
		if err != nil {
			return err
		}
		msb, err := s.constInt(sl.Msb)
		if err != nil {
			return err
		}
		lsb, err := s.constInt(sl.Lsb)
		if err != nil {
			return err
		}
		upd, err := s.withBits(base, t, msb, lsb, v, e.Span)
		if err != nil {
			return err
		}
		return s.assign(sl.Target, upd, sp)
	}
	return errorf(diag.ElbUnsupported, e.Span, "assignment to a %s expression", e.Kind)
}

// lvalue reads the current value of an assignment target together with its type.
func (s *Synthesizer) lvalue(target ast.ExprID) (value, *types.Type, error) {
	t, err := s.lvalueType(target)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.expr(target)
	if err != nil {
		return nil, nil, err
	}
	if t.Kind == types.KindAny {
		t = s.typeOfValue(v)
	}
	return v, t, nil
}

func (s *Synthesizer) withField(base value, t *types.Type, name string, v value, sp source.Span) (value, error) {
	ft, ok := t.Field(name)
	if !ok {
		return nil, errorf(diag.ElbLookup, sp, "%s has no field %s", t, name)
	}
	v, err := s.coerce(v, ft, sp)
	if err != nil {
		return nil, err
	}
	if bl, ok := base.(litVal); ok {
		st, isStruct := bl.v.(literal.Struct)
		if lv, ok := v.(litVal); ok && isStruct {
			out := literal.Struct{Type: st.Type}
			for _, f := range st.Fields {
				if f.Name == name {
					f.Value = lv.v
				}
				out.Fields = append(out.Fields, f)
			}
			return litVal{out}, nil
		}
	}
	return s.function("."+name+"=", []value{base, v}, []*types.Type{t, ft}, t, sp)
}

func (s *Synthesizer) withBits(base value, t *types.Type, msb, lsb int, v value, sp source.Span) (value, error) {
	part := types.Bit(max(msb-lsb+1, 1))
	v, err := s.coerce(v, part, sp)
	if err != nil {
		return nil, err
	}
	if bl, ok := base.(litVal); ok {
		if lv, ok := v.(litVal); ok {
			out, err := literal.Update(bl.v, msb, lsb, lv.v)
			if err != nil {
				return nil, literalError(sp, err)
			}
			return litVal{out}, nil
		}
	}
	name := fmt.Sprintf("[%d:%d]=", msb, lsb)
	if msb == lsb {
		name = fmt.Sprintf("[%d]=", msb)
	}
	return s.function(name, []value{base, v}, []*types.Type{t, part}, t, sp)
}

func (s *Synthesizer) withIndex(base value, t *types.Type, idx, v value, sp source.Span) (value, error) {
	if il, ok := idx.(litVal); ok {
		i, ok := literal.AsInt(il.v)
		if !ok {
			return nil, errorf(diag.ElbTypeMismatch, sp, "index %s is not an integer", il.v)
		}
		if t.Kind == types.KindVector {
			v, err := s.coerce(v, t.Elem, sp)
			if err != nil {
				return nil, err
			}
			return s.function(fmt.Sprintf("[%d]=", i), []value{base, v}, []*types.Type{t, t.Elem}, t, sp)
		}
		return s.withBits(base, t, i, i, v, sp)
	}
	elem := elemType(t)
	v, err := s.coerce(v, elem, sp)
	if err != nil {
		return nil, err
	}
	return s.function("[]=", []value{base, idx, v}, []*types.Type{t, s.typeOfValue(idx), elem}, t, sp)
}

func (s *Synthesizer) ifStmt(id ast.StmtID) error {
	is, _ := s.b.Stmts.If(id)
	sp := s.b.Stmts.Get(id).Span
	c, err := s.expr(is.Cond)
	if err != nil {
		return err
	}
	then := func() error { return s.stmt(is.Then) }
	var els func() error
	if is.Else.IsValid() {
		els = func() error { return s.stmt(is.Else) }
	}
	return s.ifElse(c, then, els, sp)
}

func (s *Synthesizer) ifElse(c value, then, els func() error, sp source.Span) error {
	c, err := s.condition(c, sp)
	if err != nil {
		return err
	}
	if lit, ok := c.(litVal); ok {
		body := els
		if literal.IsTrue(lit.v) {
			body = then
		}
		if body == nil {
			return nil
		}
		return s.nested("if", body)
	}
	return s.branches(c.(nodeVal).id, nil, []func() error{then, els}, sp)
}

// branches runs each body in its own scope and merges every outer variable
// written by any of them through one mux steered by sel. A nil body leaves
// all variables unchanged.
func (s *Synthesizer) branches(sel netlist.NodeID, labels []string, bodies []func() error, sp source.Span) error {
	parent := s.scope
	scopes := make([]*Scope, len(bodies))
	for i, body := range bodies {
		sc := NewScope("branch", parent)
		scopes[i] = sc
		if body == nil {
			continue
		}
		s.scope = sc
		err := body()
		s.scope = parent
		if err != nil {
			return err
		}
	}
	var names []string
	seen := make(map[string]bool)
	for _, sc := range scopes {
		for _, name := range sc.changes() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	for _, name := range names {
		vals := make([]value, len(scopes))
		for i, sc := range scopes {
			if v, ok := sc.temporary[name]; ok && !sc.declared[name] {
				vals[i] = v
				continue
			}
			v, err := s.current(name, sp)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		merged, err := s.selectValue(sel, labels, vals, sp)
		if err != nil {
			return err
		}
		parent.set(name, merged)
	}
	return nil
}

// current is the value a branch that did not write name leaves behind.
func (s *Synthesizer) current(name string, sp source.Span) (value, error) {
	if v, ok := s.scope.variable(name); ok {
		return v, nil
	}
	if st := s.scope.mod; st != nil {
		if in, ok := st.inputs[name]; ok {
			return s.inputDefault(in, sp)
		}
	}
	return nil, errorf(diag.ElbInvariantViolation, sp, "%s is not assigned on every path", name)
}

func (s *Synthesizer) caseStmt(id ast.StmtID) error {
	c, _ := s.b.Stmts.Case(id)
	sp := s.b.Stmts.Get(id).Span
	sel, err := s.expr(c.Selector)
	if err != nil {
		return err
	}
	lists := make([][]ast.ExprID, len(c.Arms))
	for i, a := range c.Arms {
		lists[i] = a.Labels
	}
	arms, allConst, err := s.caseArms(lists)
	if err != nil {
		return err
	}
	body := func(st ast.StmtID) func() error {
		if !st.IsValid() {
			return nil
		}
		return func() error { return s.stmt(st) }
	}
	if allConst && isLit(sel) {
		for _, a := range arms {
			ok, err := s.matches(sel, a.labels, sp)
			if err != nil {
				return err
			}
			if ok {
				return s.nested("case", body(c.Arms[a.index].Body))
			}
		}
		if b := body(c.Default); b != nil {
			return s.nested("case", b)
		}
		return nil
	}
	if allConst {
		node, ok := sel.(nodeVal)
		if !ok {
			return errorf(diag.ElbTypeMismatch, sp, "%s cannot select a case arm", valueString(sel))
		}
		labels := make([]string, 0, len(arms)+1)
		bodies := make([]func() error, 0, len(arms)+1)
		for _, a := range arms {
			labels = append(labels, labelKey(a.labels))
			bodies = append(bodies, body(c.Arms[a.index].Body))
		}
		return s.branches(node.id, append(labels, "default"), append(bodies, body(c.Default)), sp)
	}
	var chain func(i int) error
	chain = func(i int) error {
		if i == len(arms) {
			if b := body(c.Default); b != nil {
				return b()
			}
			return nil
		}
		cond, err := s.armCondition(sel, arms[i].labels, sp)
		if err != nil {
			return err
		}
		return s.ifElse(cond, body(c.Arms[arms[i].index].Body), func() error { return chain(i + 1) }, sp)
	}
	return s.nested("case", func() error { return chain(0) })
}

// forStmt unrolls a loop whose bounds are all constants.
func (s *Synthesizer) forStmt(id ast.StmtID) error {
	f, _ := s.b.Stmts.For(id)
	sp := s.b.Stmts.Get(id).Span
	return s.nested("for", func() error {
		t, err := s.typeExpr(f.VarType)
		if err != nil {
			return err
		}
		name := s.b.Name(f.Var)
		init, err := s.exprWant(f.Init, t)
		if err != nil {
			return err
		}
		if !isLit(init) {
			return errorf(diag.ElbInvariantViolation, sp, "loop variable %s must start from a constant", name)
		}
		s.scope.declare(name, init)
		for iter := 0; ; iter++ {
			if iter >= s.maxIter {
				return errorf(diag.ElbRecursionLimit, sp, "loop over %s did not finish after %d iterations", name, s.maxIter)
			}
			c, err := s.expr(f.Cond)
			if err != nil {
				return err
			}
			lit, ok := c.(litVal)
			if !ok {
				return errorf(diag.ElbInvariantViolation, sp, "loop condition must be a constant")
			}
			if lit.v.Kind() != literal.KindBool {
				return errorf(diag.ElbTypeMismatch, sp, "loop condition %s is not a Bool", lit.v)
			}
			if !literal.IsTrue(lit.v) {
				return nil
			}
			if err := s.nested("body", func() error { return s.stmt(f.Body) }); err != nil {
				return err
			}
			next, err := s.exprWant(f.Update, t)
			if err != nil {
				return err
			}
			if !isLit(next) {
				return errorf(diag.ElbInvariantViolation, sp, "loop update of %s must be a constant", name)
			}
			upd := s.b.Name(f.UpdVar)
			if _, ok := s.scope.variable(upd); !ok {
				return errorf(diag.ElbLookup, sp, "loop updates unknown variable %s", upd)
			}
			s.scope.set(upd, next)
		}
	})
}

func (s *Synthesizer) returnStmt(val ast.ExprID, sp source.Span) error {
	done, ok := s.scope.variable(retDone)
	if !ok {
		return errorf(diag.ElbUnsupported, sp, "return outside a function or method")
	}
	want := s.retType
	v, err := s.exprWant(val, want)
	if err != nil {
		return err
	}
	if v, err = s.coerce(v, want, sp); err != nil {
		return err
	}
	switch d := done.(type) {
	case litVal:
		if literal.IsTrue(d.v) {
			return nil
		}
		s.scope.set(retValue, v)
	case nodeVal:
		old, _ := s.scope.variable(retValue)
		merged, err := s.choose(d, old, v, sp)
		if err != nil {
			return err
		}
		s.scope.set(retValue, merged)
	}
	s.scope.set(retDone, litTrue)
	return nil
}
