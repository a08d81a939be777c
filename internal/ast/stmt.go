package ast

import (
	"minisynth/internal/source"
)

type StmtKind uint8

const (
	// StmtVarBinding declares typed variables: Bit#(4) a = 1, b;
	StmtVarBinding StmtKind = iota
	// StmtLet declares untyped variables: let x = e;
	StmtLet
	// StmtAssign is `lvalue = expr;`.
	StmtAssign
	// StmtRegWrite is `lvalue <= expr;`.
	StmtRegWrite
	StmtIf
	StmtCase
	StmtFor
	// StmtBlock is begin ... end.
	StmtBlock
	StmtReturn
)

var stmtKindNames = [...]string{
	StmtVarBinding: "VarBinding",
	StmtLet:        "Let",
	StmtAssign:     "Assign",
	StmtRegWrite:   "RegWrite",
	StmtIf:         "If",
	StmtCase:       "Case",
	StmtFor:        "For",
	StmtBlock:      "Block",
	StmtReturn:     "Return",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "StmtKind(?)"
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// VarInit is one declarator of a binding; Init may be NoExprID.
type VarInit struct {
	Name source.StringID
	Init ExprID
	Span source.Span
}

type StmtVarBindingData struct {
	Type ExprID
	Vars []VarInit
}

type StmtLetData struct {
	// More than one name is destructuring, which elaboration rejects.
	Names []source.StringID
	Init  ExprID
}

type StmtAssignData struct {
	Target ExprID
	Value  ExprID
}

type StmtIfData struct {
	Cond ExprID
	Then StmtID
	Else StmtID // NoStmtID when absent
}

type CaseStmtArm struct {
	Labels []ExprID
	Body   StmtID
	Span   source.Span
}

type StmtCaseData struct {
	Selector ExprID
	Arms     []CaseStmtArm
	Default  StmtID // NoStmtID when absent
}

// StmtForData models `for (Integer i = init; cond; i = update) body`.
type StmtForData struct {
	VarType ExprID
	Var     source.StringID
	Init    ExprID
	Cond    ExprID
	UpdVar  source.StringID
	Update  ExprID
	Body    StmtID
}

type StmtBlockData struct {
	Stmts []StmtID
}

type StmtReturnData struct {
	Value ExprID
}

type Stmts struct {
	Arena    *Arena[Stmt]
	Bindings *Arena[StmtVarBindingData]
	Lets     *Arena[StmtLetData]
	Assigns  *Arena[StmtAssignData]
	Ifs      *Arena[StmtIfData]
	Cases    *Arena[StmtCaseData]
	Fors     *Arena[StmtForData]
	Blocks   *Arena[StmtBlockData]
	Returns  *Arena[StmtReturnData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Stmts{
		Arena:    NewArena[Stmt](capHint),
		Bindings: NewArena[StmtVarBindingData](small),
		Lets:     NewArena[StmtLetData](small),
		Assigns:  NewArena[StmtAssignData](capHint),
		Ifs:      NewArena[StmtIfData](small),
		Cases:    NewArena[StmtCaseData](small),
		Fors:     NewArena[StmtForData](small),
		Blocks:   NewArena[StmtBlockData](small),
		Returns:  NewArena[StmtReturnData](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) payload(id StmtID, kind StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != kind {
		return 0, false
	}
	return uint32(st.Payload), true
}

func (s *Stmts) NewVarBinding(span source.Span, typ ExprID, vars []VarInit) StmtID {
	p := s.Bindings.Allocate(StmtVarBindingData{Type: typ, Vars: append([]VarInit(nil), vars...)})
	return s.new(StmtVarBinding, span, p)
}

func (s *Stmts) VarBinding(id StmtID) (*StmtVarBindingData, bool) {
	p, ok := s.payload(id, StmtVarBinding)
	if !ok {
		return nil, false
	}
	return s.Bindings.Get(p), true
}

func (s *Stmts) NewLet(span source.Span, names []source.StringID, init ExprID) StmtID {
	p := s.Lets.Allocate(StmtLetData{Names: append([]source.StringID(nil), names...), Init: init})
	return s.new(StmtLet, span, p)
}

func (s *Stmts) Let(id StmtID) (*StmtLetData, bool) {
	p, ok := s.payload(id, StmtLet)
	if !ok {
		return nil, false
	}
	return s.Lets.Get(p), true
}

// NewAssign creates an assignment; regWrite selects `<=` over `=`.
func (s *Stmts) NewAssign(span source.Span, regWrite bool, target, value ExprID) StmtID {
	p := s.Assigns.Allocate(StmtAssignData{Target: target, Value: value})
	kind := StmtAssign
	if regWrite {
		kind = StmtRegWrite
	}
	return s.new(kind, span, p)
}

// Assign returns the payload of both StmtAssign and StmtRegWrite.
func (s *Stmts) Assign(id StmtID) (*StmtAssignData, bool) {
	st := s.Get(id)
	if st == nil || (st.Kind != StmtAssign && st.Kind != StmtRegWrite) {
		return nil, false
	}
	return s.Assigns.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	p := s.Ifs.Allocate(StmtIfData{Cond: cond, Then: then, Else: els})
	return s.new(StmtIf, span, p)
}

func (s *Stmts) If(id StmtID) (*StmtIfData, bool) {
	p, ok := s.payload(id, StmtIf)
	if !ok {
		return nil, false
	}
	return s.Ifs.Get(p), true
}

func (s *Stmts) NewCase(span source.Span, selector ExprID, arms []CaseStmtArm, def StmtID) StmtID {
	p := s.Cases.Allocate(StmtCaseData{Selector: selector, Arms: append([]CaseStmtArm(nil), arms...), Default: def})
	return s.new(StmtCase, span, p)
}

func (s *Stmts) Case(id StmtID) (*StmtCaseData, bool) {
	p, ok := s.payload(id, StmtCase)
	if !ok {
		return nil, false
	}
	return s.Cases.Get(p), true
}

func (s *Stmts) NewFor(span source.Span, data StmtForData) StmtID {
	p := s.Fors.Allocate(data)
	return s.new(StmtFor, span, p)
}

func (s *Stmts) For(id StmtID) (*StmtForData, bool) {
	p, ok := s.payload(id, StmtFor)
	if !ok {
		return nil, false
	}
	return s.Fors.Get(p), true
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	p := s.Blocks.Allocate(StmtBlockData{Stmts: append([]StmtID(nil), stmts...)})
	return s.new(StmtBlock, span, p)
}

func (s *Stmts) Block(id StmtID) (*StmtBlockData, bool) {
	p, ok := s.payload(id, StmtBlock)
	if !ok {
		return nil, false
	}
	return s.Blocks.Get(p), true
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	p := s.Returns.Allocate(StmtReturnData{Value: value})
	return s.new(StmtReturn, span, p)
}

func (s *Stmts) Return(id StmtID) (*StmtReturnData, bool) {
	p, ok := s.payload(id, StmtReturn)
	if !ok {
		return nil, false
	}
	return s.Returns.Get(p), true
}
