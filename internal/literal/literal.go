// Package literal implements compile-time values and the folding rules between them.
// Two literals combined always fold; anything touching DontCare yields DontCare.
package literal

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"minisynth/internal/types"
)

var (
	// ErrRange is returned when a value does not fit the requested bit width.
	ErrRange = errors.New("literal out of range")
	// ErrType is returned when operand kinds cannot be combined.
	ErrType = errors.New("literal type mismatch")
	// ErrDivByZero is returned for / and % with a zero divisor.
	ErrDivByZero = errors.New("division by zero")
)

type Kind uint8

const (
	KindInteger Kind = iota
	KindBit
	KindBool
	KindMaybe
	KindDontCare
	KindStruct
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindBit:
		return "Bit"
	case KindBool:
		return "Bool"
	case KindMaybe:
		return "Maybe"
	case KindDontCare:
		return "DontCare"
	case KindStruct:
		return "Struct"
	case KindEnum:
		return "Enum"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a literal. Implementations are immutable.
type Value interface {
	Kind() Kind
	String() string
}

// Integer is an unbounded compile-time integer.
type Integer struct{ V *big.Int }

// Bit is a fixed-width vector; V is kept in [0, 2^Width).
type Bit struct {
	Width int
	V     *big.Int
}

type Bool struct{ V bool }

// Maybe is Valid(Inner) or Invalid (Inner nil).
type Maybe struct {
	Valid bool
	Inner Value
}

type DontCare struct{}

type StructField struct {
	Name  string
	Value Value
}

type Struct struct {
	Type   *types.Type
	Fields []StructField
}

// Enum is a member of an enum typedef.
type Enum struct {
	Type  *types.Type
	Index int
}

func (Integer) Kind() Kind  { return KindInteger }
func (Bit) Kind() Kind      { return KindBit }
func (Bool) Kind() Kind     { return KindBool }
func (Maybe) Kind() Kind    { return KindMaybe }
func (DontCare) Kind() Kind { return KindDontCare }
func (Struct) Kind() Kind   { return KindStruct }
func (Enum) Kind() Kind     { return KindEnum }

var (
	True  = Bool{V: true}
	False = Bool{V: false}
)

func NewInt(v int64) Integer { return Integer{V: big.NewInt(v)} }

// NewBit checks that v lies in [-2^(width-1), 2^width - 1] and wraps negatives.
func NewBit(width int, v *big.Int) (Bit, error) {
	if width <= 0 {
		return Bit{}, fmt.Errorf("%w: Bit#(%d) has no bits", ErrRange, width)
	}
	hi := pow2(width)
	lo := new(big.Int).Neg(pow2(width - 1))
	if v.Cmp(lo) < 0 || v.Cmp(hi) >= 0 {
		return Bit{}, fmt.Errorf("%w: %s does not fit in Bit#(%d)", ErrRange, v, width)
	}
	return Bit{Width: width, V: wrap(v, width)}, nil
}

// BitFromUint64 wraps v to width bits.
func BitFromUint64(width int, v uint64) Bit {
	return Bit{Width: width, V: wrap(new(big.Int).SetUint64(v), width)}
}

func Valid(v Value) Maybe { return Maybe{Valid: true, Inner: v} }

func Invalid() Maybe { return Maybe{} }

func (v Integer) String() string { return v.V.String() }

// String prints MSB first, e.g. 4'b0101.
func (v Bit) String() string {
	digits := v.V.Text(2)
	if pad := v.Width - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return fmt.Sprintf("%d'b%s", v.Width, digits)
}

func (v Bool) String() string {
	if v.V {
		return "True"
	}
	return "False"
}

func (v Maybe) String() string {
	if !v.Valid {
		return "Invalid"
	}
	return "Valid(" + v.Inner.String() + ")"
}

func (DontCare) String() string { return "?" }

func (v Struct) String() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return v.Type.String() + "{" + strings.Join(parts, ", ") + "}"
}

func (v Enum) String() string {
	if v.Type != nil && v.Index < len(v.Type.Members) {
		return v.Type.Members[v.Index]
	}
	return fmt.Sprintf("enum(%d)", v.Index)
}

// Field returns the named field of a struct literal.
func (v Struct) Field(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Equal is value-and-kind equality: Integer 1 and 1'b1 are different.
func Equal(a, b Value) bool {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Integer:
		return x.V.Cmp(b.(Integer).V) == 0
	case Bit:
		y := b.(Bit)
		return x.Width == y.Width && x.V.Cmp(y.V) == 0
	case Bool:
		return x.V == b.(Bool).V
	case Maybe:
		y := b.(Maybe)
		if x.Valid != y.Valid {
			return false
		}
		return !x.Valid || Equal(x.Inner, y.Inner)
	case DontCare:
		return true
	case Struct:
		y := b.(Struct)
		if !types.Equal(x.Type, y.Type) || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !Equal(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	case Enum:
		y := b.(Enum)
		return types.Equal(x.Type, y.Type) && x.Index == y.Index
	}
	return false
}

// TypeOf returns the type tag of a literal; DontCare has type Any.
func TypeOf(v Value) *types.Type {
	switch x := v.(type) {
	case Integer:
		return types.Integer
	case Bit:
		return types.Bit(x.Width)
	case Bool:
		return types.Bool
	case Maybe:
		if x.Valid {
			return types.Maybe(TypeOf(x.Inner))
		}
		return types.Maybe(types.Any)
	case Struct:
		return x.Type
	case Enum:
		return x.Type
	}
	return types.Any
}

// AsInt extracts a small integer from an Integer or Bit literal.
func AsInt(v Value) (int, bool) {
	var b *big.Int
	switch x := v.(type) {
	case Integer:
		b = x.V
	case Bit:
		b = x.V
	default:
		return 0, false
	}
	if !b.IsInt64() {
		return 0, false
	}
	n := b.Int64()
	if int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

// IsTrue reports whether v is the Boolean True.
func IsTrue(v Value) bool {
	b, ok := v.(Bool)
	return ok && b.V
}

func pow2(n int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(max(n, 0)))
}

// wrap reduces v modulo 2^width into [0, 2^width).
func wrap(v *big.Int, width int) *big.Int {
	m := pow2(width)
	out := new(big.Int).Mod(v, m)
	return out
}
