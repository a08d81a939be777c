package ast

import (
	"minisynth/internal/source"
)

type ItemKind uint8

const (
	ItemFunction ItemKind = iota
	ItemModule
	ItemTypedef
	// ItemConst is a top-level binding such as `Integer n = 4;`; its payload is a statement.
	ItemConst
	ItemImport
)

var itemKindNames = [...]string{
	ItemFunction: "Function",
	ItemModule:   "Module",
	ItemTypedef:  "Typedef",
	ItemConst:    "Const",
	ItemImport:   "Import",
}

func (k ItemKind) String() string {
	if int(k) < len(itemKindNames) {
		return itemKindNames[k]
	}
	return "ItemKind(?)"
}

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Name    source.StringID
	Payload PayloadID
}

// ParamFormalKind says how a declared parameter matches actual parameters.
type ParamFormalKind uint8

const (
	// ParamInteger binds a free name to an Integer actual: `Integer n`.
	ParamInteger ParamFormalKind = iota
	// ParamType binds a free name to a type actual: `type T`.
	ParamType
	// ParamFixed only matches an actual equal to the evaluated expression: `2`.
	ParamFixed
)

type ParamFormal struct {
	Kind ParamFormalKind
	Name source.StringID // ParamInteger, ParamType
	Expr ExprID          // ParamFixed
	Span source.Span
}

// ArgFormal is a typed argument: `Bit#(4) a`.
type ArgFormal struct {
	Type ExprID
	Name source.StringID
	Span source.Span
}

type FunctionData struct {
	HasParams bool
	Params    []ParamFormal
	RetType   ExprID
	Args      []ArgFormal
	Body      []StmtID
	// Short is the `= expr;` form; Body is empty when it is set.
	Short ExprID
}

type InputDecl struct {
	Type    ExprID
	Name    source.StringID
	Default ExprID // NoExprID when no default
	Span    source.Span
}

// SubmoduleDecl is `Type#(p) name(args);`.
type SubmoduleDecl struct {
	Type ExprID
	Name source.StringID
	Args []ExprID
	Span source.Span
}

type MethodDecl struct {
	RetType ExprID
	Name    source.StringID
	HasArgs bool
	Args    []ArgFormal
	Body    []StmtID
	Short   ExprID
	Span    source.Span
}

type RuleDecl struct {
	Name source.StringID
	Body []StmtID
	Span source.Span
}

type ModuleData struct {
	HasParams  bool
	Params     []ParamFormal
	Args       []ArgFormal
	Inputs     []InputDecl
	Submodules []SubmoduleDecl
	Methods    []MethodDecl
	Rules      []RuleDecl
	Functions  []ItemID
	// Stmts holds module-level bindings such as `Integer n = 3;`.
	Stmts []StmtID
}

type TypedefKind uint8

const (
	TypedefSynonym TypedefKind = iota
	TypedefStruct
	TypedefEnum
)

type StructField struct {
	Type ExprID
	Name source.StringID
	Span source.Span
}

type TypedefData struct {
	Kind      TypedefKind
	HasParams bool
	Params    []ParamFormal
	Type      ExprID // TypedefSynonym
	Fields    []StructField
	Members   []source.StringID // TypedefEnum
}

type ConstData struct {
	Stmt StmtID
}

type ImportData struct {
	Paths []string
}

type Items struct {
	Arena     *Arena[Item]
	Functions *Arena[FunctionData]
	Modules   *Arena[ModuleData]
	Typedefs  *Arena[TypedefData]
	Consts    *Arena[ConstData]
	Imports   *Arena[ImportData]
}

func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Items{
		Arena:     NewArena[Item](capHint),
		Functions: NewArena[FunctionData](capHint),
		Modules:   NewArena[ModuleData](capHint / 2),
		Typedefs:  NewArena[TypedefData](capHint / 2),
		Consts:    NewArena[ConstData](capHint / 2),
		Imports:   NewArena[ImportData](1),
	}
}

func (i *Items) new(kind ItemKind, span source.Span, name source.StringID, payload uint32) ItemID {
	return ItemID(i.Arena.Allocate(Item{Kind: kind, Span: span, Name: name, Payload: PayloadID(payload)}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) payload(id ItemID, kind ItemKind) (uint32, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != kind {
		return 0, false
	}
	return uint32(it.Payload), true
}

func (i *Items) NewFunction(span source.Span, name source.StringID, data FunctionData) ItemID {
	return i.new(ItemFunction, span, name, i.Functions.Allocate(data))
}

func (i *Items) Function(id ItemID) (*FunctionData, bool) {
	p, ok := i.payload(id, ItemFunction)
	if !ok {
		return nil, false
	}
	return i.Functions.Get(p), true
}

func (i *Items) NewModule(span source.Span, name source.StringID, data ModuleData) ItemID {
	return i.new(ItemModule, span, name, i.Modules.Allocate(data))
}

func (i *Items) Module(id ItemID) (*ModuleData, bool) {
	p, ok := i.payload(id, ItemModule)
	if !ok {
		return nil, false
	}
	return i.Modules.Get(p), true
}

func (i *Items) NewTypedef(span source.Span, name source.StringID, data TypedefData) ItemID {
	return i.new(ItemTypedef, span, name, i.Typedefs.Allocate(data))
}

func (i *Items) Typedef(id ItemID) (*TypedefData, bool) {
	p, ok := i.payload(id, ItemTypedef)
	if !ok {
		return nil, false
	}
	return i.Typedefs.Get(p), true
}

func (i *Items) NewConst(span source.Span, stmt StmtID) ItemID {
	return i.new(ItemConst, span, source.NoStringID, i.Consts.Allocate(ConstData{Stmt: stmt}))
}

func (i *Items) Const(id ItemID) (*ConstData, bool) {
	p, ok := i.payload(id, ItemConst)
	if !ok {
		return nil, false
	}
	return i.Consts.Get(p), true
}

func (i *Items) NewImport(span source.Span, paths []string) ItemID {
	return i.new(ItemImport, span, source.NoStringID, i.Imports.Allocate(ImportData{Paths: paths}))
}

func (i *Items) Import(id ItemID) (*ImportData, bool) {
	p, ok := i.payload(id, ItemImport)
	if !ok {
		return nil, false
	}
	return i.Imports.Get(p), true
}
