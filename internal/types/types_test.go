package types_test

import (
	"testing"

	"minisynth/internal/types"
)

func TestBitInterned(t *testing.T) {
	if types.Bit(4) != types.Bit(4) {
		t.Fatalf("Bit#(4) must be interned")
	}
	if types.Bit(4) == types.Bit(5) {
		t.Fatalf("different widths must differ")
	}
}

func TestVectorStructural(t *testing.T) {
	a := types.Vector(4, types.Bit(8))
	b := types.Vector(4, types.Bit(8))
	if a == b {
		t.Fatalf("vectors are not interned")
	}
	if !types.Equal(a, b) {
		t.Fatalf("vectors must compare structurally equal")
	}
	if types.Equal(a, types.Vector(3, types.Bit(8))) {
		t.Fatalf("length must matter")
	}
}

func TestBitWidth(t *testing.T) {
	pair := types.Struct("Pair", []types.Field{{Name: "lo", Type: types.Bit(8)}, {Name: "ok", Type: types.Bool}})
	tests := []struct {
		typ  *types.Type
		want int
		ok   bool
	}{
		{types.Bit(5), 5, true},
		{types.Bool, 1, true},
		{types.Vector(3, types.Bit(4)), 12, true},
		{types.Maybe(types.Bit(8)), 9, true},
		{pair, 9, true},
		{types.Enum("Color", []string{"R", "G", "B"}), 2, true},
		{types.Integer, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.typ.BitWidth()
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: got (%d,%v), want (%d,%v)", tt.typ, got, ok, tt.want, tt.ok)
		}
	}
	if ft, ok := pair.Field("ok"); !ok || ft != types.Bool {
		t.Errorf("field lookup failed")
	}
}

func TestString(t *testing.T) {
	if s := types.Vector(2, types.Maybe(types.Bit(3))).String(); s != "Vector#(2, Maybe#(Bit#(3)))" {
		t.Fatalf("got %q", s)
	}
}
