package synth

import (
	"fmt"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/source"
	"minisynth/internal/trace"
	"minisynth/internal/types"
)

// moduleState tracks the registers and submodule inputs of the module being built.
type moduleState struct {
	comp netlist.CompID
	// paths names every instance declared in this module: "r", "regs[2]".
	paths    map[netlist.CompID]string
	regs     map[string]*register
	regOrder []string
	// inputs holds the submodule inputs keyed "path.label".
	inputs     map[string]*pendingInput
	inputOrder []string
}

type register struct {
	comp   netlist.CompID
	typ    *types.Type
	value  netlist.NodeID
	input  netlist.NodeID
	writer string
}

type pendingInput struct {
	key   string
	node  netlist.NodeID
	typ   *types.Type
	def   ast.ExprID
	scope *Scope
	// writer is the rule that drives the input, empty until one does.
	writer string
}

// moduleInput is a declared input port of an instantiated module.
type moduleInput struct {
	label string
	node  netlist.NodeID
	typ   *types.Type
	def   ast.ExprID
	scope *Scope
}

func regKey(path string) string { return "<=" + path }

// saveState is the part of the synthesizer replaced while building a nested definition.
type saveState struct {
	scope   *Scope
	comp    netlist.CompID
	span    uint64
	want    *types.Type
	retType *types.Type
	inRule  bool
}

func (s *Synthesizer) save() saveState {
	return saveState{scope: s.scope, comp: s.comp, span: s.span, want: s.want, retType: s.retType, inRule: s.inRule}
}

func (s *Synthesizer) restore(st saveState) {
	s.scope, s.comp, s.span, s.want, s.retType, s.inRule = st.scope, st.comp, st.span, st.want, st.retType, st.inRule
}

func (s *Synthesizer) enter(name string, sp source.Span) error {
	if s.depth >= s.maxDepth {
		return errorf(diag.ElbRecursionLimit, sp, "instantiating %s exceeds the nesting limit of %d", name, s.maxDepth)
	}
	s.depth++
	return nil
}

// callFunction applies a user function. Constant arguments fold the body
// away; otherwise the function becomes a child component of the caller.
func (s *Synthesizer) callFunction(f found, display string, argExprs []ast.ExprID, sp source.Span) (value, error) {
	fn, _ := s.b.Items.Function(f.entry.item)
	if len(argExprs) != len(fn.Args) {
		return nil, errorf(diag.ElbArityOrPattern, sp, "%s takes %d arguments, got %d", display, len(fn.Args), len(argExprs))
	}
	sc := s.paramScope(f, display)
	argTypes := make([]*types.Type, len(fn.Args))
	for i, a := range fn.Args {
		v, err := s.evalIn(sc, a.Type)
		if err != nil {
			return nil, err
		}
		tv, ok := v.(typeVal)
		if !ok {
			return nil, errorf(diag.ElbTypeMismatch, a.Span, "argument %s of %s has no type", s.b.Name(a.Name), display)
		}
		argTypes[i] = tv.t
	}
	args := make([]value, len(argExprs))
	for i, a := range argExprs {
		v, err := s.exprWant(a, argTypes[i])
		if err != nil {
			return nil, err
		}
		if args[i], err = s.coerce(v, argTypes[i], s.b.Exprs.Get(a).Span); err != nil {
			return nil, err
		}
	}
	if allLit(args) {
		if err := s.enter(display, sp); err != nil {
			return nil, err
		}
		defer func() { s.depth-- }()
		saved := s.save()
		defer s.restore(saved)
		s.scope = sc
		for i, a := range fn.Args {
			sc.declareTyped(s.b.Name(a.Name), args[i], argTypes[i])
		}
		return s.functionBody(fn, display, sp)
	}
	inst, err := s.buildFunction(f, sc, fn, display, argTypes, sp)
	if err != nil {
		return nil, err
	}
	if err := s.addChild(inst.comp, sp); err != nil {
		return nil, err
	}
	for i, v := range args {
		src, err := s.hw(v, argTypes[i], sp)
		if err != nil {
			return nil, err
		}
		if err := s.connect(src, inst.inputs[i], sp); err != nil {
			return nil, err
		}
	}
	return nodeVal{inst.out}, nil
}

type functionInst struct {
	comp   netlist.CompID
	inputs []netlist.NodeID
	out    netlist.NodeID
}

// functionInstance builds a function as a free-standing root component.
func (s *Synthesizer) functionInstance(f found, display string, sp source.Span) (functionInst, error) {
	fn, _ := s.b.Items.Function(f.entry.item)
	sc := s.paramScope(f, display)
	argTypes := make([]*types.Type, len(fn.Args))
	for i, a := range fn.Args {
		v, err := s.evalIn(sc, a.Type)
		if err != nil {
			return functionInst{}, err
		}
		tv, ok := v.(typeVal)
		if !ok {
			return functionInst{}, errorf(diag.ElbTypeMismatch, a.Span, "argument %s of %s has no type", s.b.Name(a.Name), display)
		}
		argTypes[i] = tv.t
	}
	return s.buildFunction(f, sc, fn, display, argTypes, sp)
}

func (s *Synthesizer) buildFunction(f found, sc *Scope, fn *ast.FunctionData, display string, argTypes []*types.Type, sp source.Span) (functionInst, error) {
	if err := s.enter(display, sp); err != nil {
		return functionInst{}, err
	}
	defer func() { s.depth-- }()
	saved := s.save()
	defer s.restore(saved)

	inst := functionInst{comp: s.n.NewComponent(netlist.KindFunction, display)}
	s.n.AddOrigin(inst.comp, s.b.Items.Get(f.entry.item).Span)
	for i, a := range fn.Args {
		name := s.b.Name(a.Name)
		node := s.n.NewNode(name, argTypes[i])
		if err := s.n.AddInput(inst.comp, name, node); err != nil {
			return functionInst{}, netlistError(a.Span, err)
		}
		inst.inputs = append(inst.inputs, node)
		sc.declareTyped(name, nodeVal{node}, argTypes[i])
	}
	span := trace.Begin(s.tracer, trace.ScopeModule, display, s.span)
	defer span.End("")
	s.span = spanOr(span, s.span)
	s.scope = sc
	s.comp = inst.comp

	ret, err := s.functionBody(fn, display, sp)
	if err != nil {
		return functionInst{}, err
	}
	rt := s.retType
	inst.out = s.n.NewNode(netlist.LabelOut, rt)
	if err := s.n.AddOutput(inst.comp, netlist.LabelOut, inst.out); err != nil {
		return functionInst{}, netlistError(sp, err)
	}
	src, err := s.hw(ret, rt, sp)
	if err != nil {
		return functionInst{}, err
	}
	if err := s.connect(src, inst.out, sp); err != nil {
		return functionInst{}, err
	}
	return inst, nil
}

// functionBody evaluates the body in the current scope and returns the result.
func (s *Synthesizer) functionBody(fn *ast.FunctionData, display string, sp source.Span) (value, error) {
	rt, err := s.typeExpr(fn.RetType)
	if err != nil {
		return nil, err
	}
	s.retType = rt
	s.inRule = false
	return s.body(fn.Short, fn.Body, display, sp)
}

// body runs either a short `= expr` form or a statement list ending in return.
func (s *Synthesizer) body(short ast.ExprID, stmts []ast.StmtID, display string, sp source.Span) (value, error) {
	if short.IsValid() {
		v, err := s.exprWant(short, s.retType)
		if err != nil {
			return nil, err
		}
		return s.coerce(v, s.retType, sp)
	}
	s.scope.declare(retValue, dontCare)
	s.scope.declare(retDone, litFalse)
	if err := s.stmts(stmts); err != nil {
		return nil, err
	}
	done, _ := s.scope.variable(retDone)
	if lit, ok := done.(litVal); ok && !literal.IsTrue(lit.v) {
		return nil, errorf(diag.ElbInvariantViolation, sp, "%s does not return a value", display)
	}
	v, _ := s.scope.variable(retValue)
	return v, nil
}

// instantiateModule builds a module component named inst and returns its
// declared inputs for the parent to bind.
func (s *Synthesizer) instantiateModule(f found, display, inst string, sp source.Span) (netlist.CompID, []moduleInput, error) {
	md, _ := s.b.Items.Module(f.entry.item)
	if len(md.Args) > 0 {
		return netlist.NoCompID, nil, errorf(diag.ElbUnsupported, sp, "module arguments on %s", display)
	}
	if err := s.enter(display, sp); err != nil {
		return netlist.NoCompID, nil, err
	}
	defer func() { s.depth-- }()
	saved := s.save()
	defer s.restore(saved)

	comp := s.n.NewModule(inst)
	s.n.AddOrigin(comp, s.b.Items.Get(f.entry.item).Span)
	sc := s.paramScope(f, display)
	st := &moduleState{
		comp:   comp,
		paths:  make(map[netlist.CompID]string),
		regs:   make(map[string]*register),
		inputs: make(map[string]*pendingInput),
	}
	sc.mod = st
	span := trace.Begin(s.tracer, trace.ScopeModule, display, s.span)
	defer span.End(inst)
	s.span = spanOr(span, s.span)
	s.scope, s.comp, s.inRule, s.want, s.retType = sc, comp, false, nil, nil

	for _, id := range md.Functions {
		if err := s.declareItem(sc, id); err != nil {
			return netlist.NoCompID, nil, err
		}
	}
	for _, id := range md.Stmts {
		if err := s.stmt(id); err != nil {
			return netlist.NoCompID, nil, err
		}
	}
	var inputs []moduleInput
	for _, in := range md.Inputs {
		t, err := s.typeExpr(in.Type)
		if err != nil {
			return netlist.NoCompID, nil, err
		}
		name := s.b.Name(in.Name)
		node := s.n.NewNode(name, t)
		if err := s.n.AddInput(comp, name, node); err != nil {
			return netlist.NoCompID, nil, errorf(diag.ElbInvariantViolation, in.Span, "duplicate input %s", name)
		}
		sc.bindValue(name, nodeVal{node})
		inputs = append(inputs, moduleInput{label: name, node: node, typ: t, def: in.Default, scope: sc})
	}
	for _, d := range md.Submodules {
		if err := s.submodule(d); err != nil {
			return netlist.NoCompID, nil, err
		}
	}
	for _, m := range md.Methods {
		if err := s.method(m); err != nil {
			return netlist.NoCompID, nil, err
		}
	}
	for _, r := range md.Rules {
		if err := s.rule(r); err != nil {
			return netlist.NoCompID, nil, err
		}
	}
	if err := s.finishModule(st, sp); err != nil {
		return netlist.NoCompID, nil, err
	}
	return comp, inputs, nil
}

// submodule declares a register, a user module, a vector of either, or a
// plain variable of a data type.
func (s *Synthesizer) submodule(d ast.SubmoduleDecl) error {
	name := s.b.Name(d.Name)
	kind, err := s.expr(d.Type)
	if err != nil {
		return err
	}
	if tv, ok := kind.(typeVal); ok {
		if len(d.Args) > 0 {
			return errorf(diag.ElbArityOrPattern, d.Span, "variable %s of type %s takes no arguments", name, tv.t)
		}
		s.scope.declareTyped(name, dontCare, tv.t)
		return nil
	}
	args, err := s.exprList(d.Args)
	if err != nil {
		return err
	}
	comp, err := s.instance(name, kind, args, d.Span)
	if err != nil {
		return err
	}
	s.scope.bindValue(name, instVal{comp})
	return nil
}

// instance builds one instance at path inside the current module.
func (s *Synthesizer) instance(path string, kind value, args []value, sp source.Span) (netlist.CompID, error) {
	st := s.scope.mod
	switch k := kind.(type) {
	case regKind:
		if len(args) > 1 {
			return netlist.NoCompID, errorf(diag.ElbArityOrPattern, sp, "register %s takes at most one initial value", path)
		}
		var init literal.Value
		if len(args) == 1 {
			lit, ok := args[0].(litVal)
			if !ok {
				return netlist.NoCompID, errorf(diag.ElbTypeMismatch, sp, "initial value of %s must be a constant", path)
			}
			c, err := s.coerce(lit, k.elem, sp)
			if err != nil {
				return netlist.NoCompID, err
			}
			init = c.(litVal).v
		}
		comp := s.n.NewRegister(path, k.elem, init)
		if err := s.addChild(comp, sp); err != nil {
			return netlist.NoCompID, err
		}
		in, _ := s.n.Input(comp, netlist.LabelRegIn)
		out, _ := s.n.Output(comp, netlist.LabelRegValue)
		st.paths[comp] = path
		st.regs[path] = &register{comp: comp, typ: k.elem, value: out, input: in}
		st.regOrder = append(st.regOrder, path)
		return comp, nil
	case moduleKind:
		if len(args) > 0 {
			return netlist.NoCompID, errorf(diag.ElbUnsupported, sp, "module arguments on %s", path)
		}
		comp, inputs, err := s.instantiateModule(k.def, k.name, path, sp)
		if err != nil {
			return netlist.NoCompID, err
		}
		if err := s.addChild(comp, sp); err != nil {
			return netlist.NoCompID, err
		}
		st.paths[comp] = path
		for _, in := range inputs {
			key := path + "." + in.label
			st.inputs[key] = &pendingInput{key: key, node: in.node, typ: in.typ, def: in.def, scope: in.scope}
			st.inputOrder = append(st.inputOrder, key)
		}
		return comp, nil
	case vectorKind:
		vec := s.n.NewVectorModule(path)
		if err := s.addChild(vec, sp); err != nil {
			return netlist.NoCompID, err
		}
		st.paths[vec] = path
		saved := s.comp
		s.comp = vec
		defer func() { s.comp = saved }()
		for i := 0; i < k.n; i++ {
			c, err := s.instance(fmt.Sprintf("%s[%d]", path, i), k.elem, args, sp)
			if err != nil {
				return netlist.NoCompID, err
			}
			if err := s.n.AddNumbered(vec, c); err != nil {
				return netlist.NoCompID, errorf(diag.ElbInvariantViolation, sp, "%v", err)
			}
		}
		return vec, nil
	}
	return netlist.NoCompID, errorf(diag.ElbTypeMismatch, sp, "%s cannot declare %s", valueString(kind), path)
}

// method builds an argument-free method as an output port of the module.
func (s *Synthesizer) method(m ast.MethodDecl) error {
	name := s.b.Name(m.Name)
	if m.HasArgs {
		return errorf(diag.ElbUnsupported, m.Span, "method %s has arguments", name)
	}
	t, err := s.typeExpr(m.RetType)
	if err != nil {
		return err
	}
	saved := s.save()
	defer s.restore(saved)
	s.scope = NewScope(name, saved.scope)
	s.retType = t
	v, err := s.body(m.Short, m.Body, "method "+name, m.Span)
	if err != nil {
		return err
	}
	out := s.n.NewNode(name, t)
	if err := s.n.AddOutput(s.comp, name, out); err != nil {
		return errorf(diag.ElbInvariantViolation, m.Span, "duplicate method %s", name)
	}
	src, err := s.hw(v, t, m.Span)
	if err != nil {
		return err
	}
	return s.connect(src, out, m.Span)
}

// rule runs one rule. Registers read their pre-rule values throughout;
// writes become the register inputs when the rule ends.
func (s *Synthesizer) rule(r ast.RuleDecl) error {
	name := s.b.Name(r.Name)
	st := s.scope.mod
	saved := s.save()
	defer s.restore(saved)
	rs := NewScope(name, saved.scope)
	for _, path := range st.regOrder {
		rs.declare(regKey(path), nodeVal{st.regs[path].value})
	}
	s.scope = rs
	s.inRule = true
	if err := s.stmts(r.Body); err != nil {
		return err
	}
	for _, path := range st.regOrder {
		reg := st.regs[path]
		v := rs.temporary[regKey(path)]
		if sameValue(v, nodeVal{reg.value}) {
			continue
		}
		if reg.writer != "" {
			return errorf(diag.ElbInvariantViolation, r.Span, "register %s is written by rules %s and %s", path, reg.writer, name)
		}
		reg.writer = name
		src, err := s.hw(v, reg.typ, r.Span)
		if err != nil {
			return err
		}
		if err := s.connect(src, reg.input, r.Span); err != nil {
			return err
		}
	}
	for _, key := range st.inputOrder {
		in := st.inputs[key]
		v, ok := rs.temporary[key]
		if !ok {
			continue
		}
		if in.writer != "" {
			return errorf(diag.ElbInvariantViolation, r.Span, "input %s is driven by rules %s and %s", key, in.writer, name)
		}
		in.writer = name
		src, err := s.hw(v, in.typ, r.Span)
		if err != nil {
			return err
		}
		if err := s.connect(src, in.node, r.Span); err != nil {
			return err
		}
	}
	return nil
}

// finishModule holds unwritten registers and binds input defaults.
func (s *Synthesizer) finishModule(st *moduleState, sp source.Span) error {
	for _, path := range st.regOrder {
		reg := st.regs[path]
		if _, driven := s.n.Driver(reg.input); driven {
			continue
		}
		if err := s.connect(reg.value, reg.input, sp); err != nil {
			return err
		}
	}
	for _, key := range st.inputOrder {
		in := st.inputs[key]
		if in.writer != "" {
			continue
		}
		v, err := s.inputDefault(in, sp)
		if err != nil {
			return err
		}
		src, err := s.hw(v, in.typ, sp)
		if err != nil {
			return err
		}
		if err := s.connect(src, in.node, sp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) inputDefault(in *pendingInput, sp source.Span) (value, error) {
	if !in.def.IsValid() {
		return nil, errorf(diag.ElbInvariantViolation, sp, "submodule input %s is never driven and has no default", in.key)
	}
	saved := s.scope
	s.scope = in.scope
	defer func() { s.scope = saved }()
	v, err := s.exprWant(in.def, in.typ)
	if err != nil {
		return nil, err
	}
	return s.coerce(v, in.typ, sp)
}

// inputTarget recognizes `sub.in = ...` where sub is a submodule instance.
func (s *Synthesizer) inputTarget(target ast.ExprID) (string, string, bool, error) {
	target = s.b.Exprs.Unparen(target)
	if s.b.Exprs.Get(target).Kind != ast.ExprField {
		return "", "", false, nil
	}
	fd, _ := s.b.Exprs.Field(target)
	inst, ok, err := s.instanceOf(fd.Target)
	if err != nil || !ok {
		return "", "", false, err
	}
	st := s.scope.mod
	if st == nil {
		return "", "", false, nil
	}
	path, ok := st.paths[inst]
	if !ok {
		return "", "", false, nil
	}
	return path, s.b.Name(fd.Field), true, nil
}

func (s *Synthesizer) setInput(path, label string, val ast.ExprID, sp source.Span) error {
	st := s.scope.mod
	key := path + "." + label
	in, ok := st.inputs[key]
	if !ok {
		return errorf(diag.ElbLookup, sp, "%s has no input %s", path, label)
	}
	if !s.inRule {
		return errorf(diag.ElbUnsupported, sp, "submodule input %s assigned outside a rule", key)
	}
	v, err := s.exprWant(val, in.typ)
	if err != nil {
		return err
	}
	if v, err = s.coerce(v, in.typ, sp); err != nil {
		return err
	}
	s.scope.set(key, v)
	return nil
}

// regWrite records `r <= v` for the end of the rule.
func (s *Synthesizer) regWrite(target, val ast.ExprID, sp source.Span) error {
	if !s.inRule {
		return errorf(diag.ElbUnsupported, sp, "register write outside a rule")
	}
	inst, ok, err := s.instanceOf(target)
	if err != nil {
		return err
	}
	st := s.scope.mod
	path := ""
	if ok {
		path = st.paths[inst]
	}
	reg, isReg := st.regs[path]
	if !ok || !isReg {
		return errorf(diag.ElbTypeMismatch, sp, "<= needs a register of this module")
	}
	v, err := s.exprWant(val, reg.typ)
	if err != nil {
		return err
	}
	if v, err = s.coerce(v, reg.typ, sp); err != nil {
		return err
	}
	s.scope.set(regKey(path), v)
	return nil
}
