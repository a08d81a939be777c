package types

import (
	"fmt"
	"math/bits"
	"strings"
	"sync"
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindAny Kind = iota
	KindInteger
	KindBit
	KindBool
	KindVector
	KindMaybe
	KindStruct
	KindEnum
	KindRegister
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "Any"
	case KindInteger:
		return "Integer"
	case KindBit:
		return "Bit"
	case KindBool:
		return "Bool"
	case KindVector:
		return "Vector"
	case KindMaybe:
		return "Maybe"
	case KindStruct:
		return "Struct"
	case KindEnum:
		return "Enum"
	case KindRegister:
		return "Reg"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a structural type descriptor. Bit types are interned by width, so two
// Bit#(n) of the same n are the same pointer; every other kind is compared with Equal.
type Type struct {
	Kind    Kind
	Width   int    // KindBit
	Len     int    // KindVector
	Elem    *Type  // KindVector, KindMaybe, KindRegister
	Name    string // KindStruct, KindEnum
	Fields  []Field
	Members []string // KindEnum
}

type Field struct {
	Name string
	Type *Type
}

var (
	Any     = &Type{Kind: KindAny}
	Integer = &Type{Kind: KindInteger}
	Bool    = &Type{Kind: KindBool}
)

var bitTable = struct {
	sync.Mutex
	byWidth map[int]*Type
}{byWidth: make(map[int]*Type)}

// Bit returns the interned Bit#(n).
func Bit(n int) *Type {
	bitTable.Lock()
	defer bitTable.Unlock()
	if t, ok := bitTable.byWidth[n]; ok {
		return t
	}
	t := &Type{Kind: KindBit, Width: n}
	bitTable.byWidth[n] = t
	return t
}

func Vector(k int, elem *Type) *Type {
	return &Type{Kind: KindVector, Len: k, Elem: elem}
}

func Maybe(elem *Type) *Type {
	return &Type{Kind: KindMaybe, Elem: elem}
}

func Register(elem *Type) *Type {
	return &Type{Kind: KindRegister, Elem: elem}
}

func Struct(name string, fields []Field) *Type {
	return &Type{Kind: KindStruct, Name: name, Fields: append([]Field(nil), fields...)}
}

func Enum(name string, members []string) *Type {
	return &Type{Kind: KindEnum, Name: name, Members: append([]string(nil), members...)}
}

func (t *Type) String() string {
	if t == nil {
		return "Any"
	}
	switch t.Kind {
	case KindBit:
		return fmt.Sprintf("Bit#(%d)", t.Width)
	case KindVector:
		return fmt.Sprintf("Vector#(%d, %s)", t.Len, t.Elem)
	case KindMaybe:
		return fmt.Sprintf("Maybe#(%s)", t.Elem)
	case KindRegister:
		return fmt.Sprintf("Reg#(%s)", t.Elem)
	case KindStruct, KindEnum:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// Field returns the type of the named struct field.
func (t *Type) Field(name string) (*Type, bool) {
	if t == nil || t.Kind != KindStruct {
		return nil, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// MemberIndex returns the ordinal of an enum member.
func (t *Type) MemberIndex(name string) (int, bool) {
	if t == nil || t.Kind != KindEnum {
		return 0, false
	}
	for i, m := range t.Members {
		if m == name {
			return i, true
		}
	}
	return 0, false
}

// BitWidth is the number of bits needed to store a value of t. Integer and Any
// have no width.
func (t *Type) BitWidth() (int, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case KindBit:
		return t.Width, true
	case KindBool:
		return 1, true
	case KindVector:
		w, ok := t.Elem.BitWidth()
		return w * t.Len, ok
	case KindMaybe:
		w, ok := t.Elem.BitWidth()
		return w + 1, ok
	case KindRegister:
		return t.Elem.BitWidth()
	case KindEnum:
		return EnumWidth(len(t.Members)), true
	case KindStruct:
		total := 0
		for _, f := range t.Fields {
			w, ok := f.Type.BitWidth()
			if !ok {
				return 0, false
			}
			total += w
		}
		return total, true
	}
	return 0, false
}

// EnumWidth is ceil(log2(n)) with a minimum of one bit.
func EnumWidth(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}

// Equal reports structural equality.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBit:
		return a.Width == b.Width
	case KindVector:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case KindMaybe, KindRegister:
		return Equal(a.Elem, b.Elem)
	case KindStruct:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindEnum:
		return a.Name == b.Name && strings.Join(a.Members, ",") == strings.Join(b.Members, ",")
	}
	return true
}
