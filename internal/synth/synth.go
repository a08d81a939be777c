package synth

import (
	"strconv"
	"strings"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/lexer"
	"minisynth/internal/literal"
	"minisynth/internal/netlist"
	"minisynth/internal/parser"
	"minisynth/internal/source"
	"minisynth/internal/trace"
	"minisynth/internal/types"
)

const (
	DefaultMaxDepth      = 512
	DefaultMaxIterations = 1 << 16
)

type Options struct {
	Tracer trace.Tracer
	// ParentSpan is the trace span elaboration nests under.
	ParentSpan uint64
	// MaxDepth bounds nested function and module instantiation.
	MaxDepth int
	// MaxIterations bounds every unrolled for loop.
	MaxIterations int
	// Files receives the virtual file holding the target text. A private
	// set is used when nil.
	Files *source.FileSet
}

// Result is one elaborated target.
type Result struct {
	Netlist *netlist.Netlist
	Root    netlist.CompID
	// Name is the target as it appears on the root, e.g. "fifo#(4)".
	Name string
}

// Synthesizer walks the AST of one file and builds a netlist for a target.
// It is single-use and not safe for concurrent use.
type Synthesizer struct {
	b      *ast.Builder
	n      *netlist.Netlist
	global *Scope
	scope  *Scope
	comp   netlist.CompID
	tracer trace.Tracer
	span   uint64

	depth    int
	maxDepth int
	maxIter  int
	// want is the type the enclosing context expects, used by the
	// extension builtins that take their width from it.
	want *types.Type
	// retType is the declared result of the function or method being built.
	retType *types.Type
	inRule  bool

	typedefs map[ast.ItemID]*types.Type
}

func newSynthesizer(b *ast.Builder, opts Options) *Synthesizer {
	s := &Synthesizer{
		b:        b,
		n:        netlist.New(),
		global:   NewScope("global", nil),
		tracer:   opts.Tracer,
		span:     opts.ParentSpan,
		maxDepth: opts.MaxDepth,
		maxIter:  opts.MaxIterations,
		typedefs: make(map[ast.ItemID]*types.Type),
	}
	if s.tracer == nil {
		s.tracer = trace.Nop
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}
	if s.maxIter <= 0 {
		s.maxIter = DefaultMaxIterations
	}
	s.scope = s.global
	return s
}

// Synthesize elaborates target, a function or module name with optional
// parameters such as "counter" or "f#(2, Bit#(4))", from the items of file.
// The target expression is appended to b, so concurrent callers need their
// own Builder.
func Synthesize(b *ast.Builder, file ast.FileID, target string, opts Options) (*Result, error) {
	s := newSynthesizer(b, opts)
	if err := s.declareFile(file); err != nil {
		return nil, err
	}
	expr, err := s.parseTarget(target, opts.Files)
	if err != nil {
		return nil, err
	}
	root, name, err := s.elaborateTarget(expr)
	if err != nil {
		return nil, err
	}
	return &Result{Netlist: s.n, Root: root, Name: name}, nil
}

func (s *Synthesizer) parseTarget(target string, files *source.FileSet) (ast.ExprID, error) {
	if files == nil {
		files = source.NewFileSet()
	}
	id := files.AddVirtual("<target>", []byte(target))
	sp := source.Span{File: id, End: uint32(len(target))}
	if strings.TrimSpace(target) == "" {
		return ast.NoExprID, errorf(diag.ElbBadTargetSpec, sp, "empty synthesis target")
	}
	bag := diag.NewBag(8)
	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(files.Get(id), lexer.Options{Reporter: rep})
	expr, ok := parser.ParseExpr(lx, s.b, parser.Options{Reporter: rep})
	if !ok || bag.HasErrors() {
		msg := "cannot parse target " + strconv.Quote(target)
		if items := bag.Items(); len(items) > 0 {
			msg += ": " + items[0].Message
		}
		return ast.NoExprID, errorf(diag.ElbBadTargetSpec, sp, "%s", msg)
	}
	expr = s.b.Exprs.Unparen(expr)
	if s.b.Exprs.Get(expr).Kind != ast.ExprVar {
		return ast.NoExprID, errorf(diag.ElbBadTargetSpec, sp, "target %q must be a name with optional #(...) parameters", target)
	}
	return expr, nil
}

func (s *Synthesizer) elaborateTarget(expr ast.ExprID) (netlist.CompID, string, error) {
	v, _ := s.b.Exprs.Var(expr)
	sp := s.b.Exprs.Get(expr).Span
	name := s.b.Name(v.Name)
	params, err := s.exprList(v.Params)
	if err != nil {
		return netlist.NoCompID, "", err
	}
	display := instanceName(name, v.HasParams, params)
	f, ok, err := s.lookup(name, v.HasParams, params)
	if err != nil {
		return netlist.NoCompID, "", err
	}
	if !ok || f.entry == nil || !f.entry.item.IsValid() {
		return netlist.NoCompID, "", errorf(diag.ElbTargetNotFound, sp, "no function or module matches %s", display)
	}
	span := trace.Begin(s.tracer, trace.ScopePass, "elaborate", s.span)
	defer span.End(display)
	s.span = spanOr(span, s.span)

	switch s.b.Items.Get(f.entry.item).Kind {
	case ast.ItemModule:
		root, _, err := s.instantiateModule(f, display, display, sp)
		return root, display, err
	case ast.ItemFunction:
		inst, err := s.functionInstance(f, display, sp)
		if err != nil {
			return netlist.NoCompID, "", err
		}
		return inst.comp, display, nil
	}
	return netlist.NoCompID, "", errorf(diag.ElbTargetNotFound, sp, "%s is not a function or module", display)
}

// declareFile binds every top-level definition in the global scope, then
// evaluates top-level constants in source order.
func (s *Synthesizer) declareFile(file ast.FileID) error {
	f := s.b.Files.Get(file)
	if f == nil {
		return errorf(diag.ElbTargetNotFound, source.Span{}, "no parsed file")
	}
	var consts []ast.ItemID
	for _, id := range f.Items {
		item := s.b.Items.Get(id)
		switch item.Kind {
		case ast.ItemImport:
			return errorf(diag.ElbUnsupported, item.Span, "import is not supported")
		case ast.ItemConst:
			consts = append(consts, id)
		default:
			if err := s.declareItem(s.global, id); err != nil {
				return err
			}
		}
	}
	for _, id := range consts {
		c, _ := s.b.Items.Const(id)
		if err := s.constant(c.Stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) declareItem(sc *Scope, id ast.ItemID) error {
	item := s.b.Items.Get(id)
	name := s.b.Name(item.Name)
	e := &permEntry{item: id}
	switch item.Kind {
	case ast.ItemFunction:
		fn, _ := s.b.Items.Function(id)
		e.hasParams, e.pattern = fn.HasParams, fn.Params
	case ast.ItemModule:
		md, _ := s.b.Items.Module(id)
		e.hasParams, e.pattern = md.HasParams, md.Params
	case ast.ItemTypedef:
		td, _ := s.b.Items.Typedef(id)
		e.hasParams, e.pattern = td.HasParams, td.Params
		if td.Kind == ast.TypedefEnum {
			if td.HasParams {
				return errorf(diag.ElbUnsupported, item.Span, "parametric enum %s", name)
			}
			t := s.enumType(id, name)
			for i, m := range td.Members {
				sc.bindValue(s.b.Name(m), litVal{literal.Enum{Type: t, Index: i}})
			}
		}
	default:
		return errorf(diag.ElbUnsupported, item.Span, "%s item in this position", item.Kind)
	}
	sc.bind(name, e)
	return nil
}

// constant evaluates a top-level binding into permanent global values.
func (s *Synthesizer) constant(id ast.StmtID) error {
	st := s.b.Stmts.Get(id)
	bindConst := func(name string, v value, sp source.Span) error {
		if _, ok := v.(nodeVal); ok {
			return errorf(diag.ElbTypeMismatch, sp, "%s is not a constant", name)
		}
		s.global.bindValue(name, v)
		return nil
	}
	switch st.Kind {
	case ast.StmtVarBinding:
		vb, _ := s.b.Stmts.VarBinding(id)
		t, err := s.typeExpr(vb.Type)
		if err != nil {
			return err
		}
		for _, vi := range vb.Vars {
			name := s.b.Name(vi.Name)
			if !vi.Init.IsValid() {
				return errorf(diag.ElbTypeMismatch, vi.Span, "constant %s has no value", name)
			}
			v, err := s.exprWant(vi.Init, t)
			if err != nil {
				return err
			}
			if v, err = s.coerce(v, t, vi.Span); err != nil {
				return err
			}
			if err := bindConst(name, v, vi.Span); err != nil {
				return err
			}
		}
		return nil
	case ast.StmtLet:
		let, _ := s.b.Stmts.Let(id)
		if len(let.Names) != 1 {
			return errorf(diag.ElbUnsupported, st.Span, "destructuring let")
		}
		v, err := s.expr(let.Init)
		if err != nil {
			return err
		}
		return bindConst(s.b.Name(let.Names[0]), v, st.Span)
	}
	return errorf(diag.ElbUnsupported, st.Span, "%s at top level", st.Kind)
}
