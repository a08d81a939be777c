package literal

import (
	"fmt"
	"math/big"
)

// Concat joins Bit literals, first part most significant.
func Concat(parts []Value) (Value, error) {
	width := 0
	acc := new(big.Int)
	for _, p := range parts {
		if p.Kind() == KindDontCare {
			return DontCare{}, nil
		}
		b, ok := p.(Bit)
		if !ok {
			return nil, fmt.Errorf("%w: concatenation requires Bit values, got %s", ErrType, p.Kind())
		}
		acc.Lsh(acc, uint(b.Width))
		acc.Or(acc, b.V)
		width += b.Width
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: empty concatenation", ErrRange)
	}
	return Bit{Width: width, V: acc}, nil
}

// Slice returns bits msb..lsb inclusive.
func Slice(v Value, msb, lsb int) (Value, error) {
	if v.Kind() == KindDontCare {
		return DontCare{}, nil
	}
	b, ok := v.(Bit)
	if !ok {
		return nil, fmt.Errorf("%w: cannot slice %s", ErrType, v.Kind())
	}
	if lsb < 0 || msb < lsb || msb >= b.Width {
		return nil, fmt.Errorf("%w: slice [%d:%d] of Bit#(%d)", ErrRange, msb, lsb, b.Width)
	}
	w := msb - lsb + 1
	shifted := new(big.Int).Rsh(b.V, uint(lsb))
	return Bit{Width: w, V: wrap(shifted, w)}, nil
}

// Index returns bit i of a Bit literal as Bit#(1).
func Index(v Value, i int) (Value, error) {
	return Slice(v, i, i)
}

// Update replaces bits msb..lsb of v with part. An Integer part is first
// coerced to the slice width.
func Update(v Value, msb, lsb int, part Value) (Value, error) {
	if v.Kind() == KindDontCare || part.Kind() == KindDontCare {
		return DontCare{}, nil
	}
	b, ok := v.(Bit)
	if !ok {
		return nil, fmt.Errorf("%w: cannot assign bits of %s", ErrType, v.Kind())
	}
	if lsb < 0 || msb < lsb || msb >= b.Width {
		return nil, fmt.Errorf("%w: slice [%d:%d] of Bit#(%d)", ErrRange, msb, lsb, b.Width)
	}
	w := msb - lsb + 1
	part, err := CoerceTo(part, w)
	if err != nil {
		return nil, err
	}
	p, ok := part.(Bit)
	if !ok || p.Width != w {
		return nil, fmt.Errorf("%w: %s does not fit [%d:%d]", ErrType, part, msb, lsb)
	}
	mask := new(big.Int).Lsh(new(big.Int).Sub(pow2(w), big.NewInt(1)), uint(lsb))
	out := new(big.Int).AndNot(b.V, mask)
	out.Or(out, new(big.Int).Lsh(p.V, uint(lsb)))
	return Bit{Width: b.Width, V: out}, nil
}

// Extend widens v to width bits, replicating the top bit when signed. An
// Integer is coerced directly.
func Extend(v Value, width int, signed bool) (Value, error) {
	switch x := v.(type) {
	case DontCare:
		return x, nil
	case Integer:
		return NewBit(width, x.V)
	case Bit:
		if width < x.Width {
			return nil, fmt.Errorf("%w: cannot extend Bit#(%d) to %d bits", ErrRange, x.Width, width)
		}
		if signed && x.V.Bit(x.Width-1) == 1 {
			neg := new(big.Int).Sub(x.V, pow2(x.Width))
			return Bit{Width: width, V: wrap(neg, width)}, nil
		}
		return Bit{Width: width, V: new(big.Int).Set(x.V)}, nil
	}
	return nil, fmt.Errorf("%w: cannot extend %s", ErrType, v.Kind())
}

// Truncate keeps the low width bits of v.
func Truncate(v Value, width int) (Value, error) {
	switch x := v.(type) {
	case DontCare:
		return x, nil
	case Integer:
		return Bit{Width: width, V: wrap(x.V, width)}, nil
	case Bit:
		if width > x.Width {
			return nil, fmt.Errorf("%w: cannot truncate Bit#(%d) to %d bits", ErrRange, x.Width, width)
		}
		return Slice(v, width-1, 0)
	}
	return nil, fmt.Errorf("%w: cannot truncate %s", ErrType, v.Kind())
}

// Log2 is the ceiling of log2 for a positive Integer: the number of bits
// needed to count to v-1.
func Log2(v Value) (Value, error) {
	x, ok := v.(Integer)
	if !ok {
		return nil, fmt.Errorf("%w: log2 requires an Integer, got %s", ErrType, v.Kind())
	}
	if x.V.Sign() <= 0 {
		return nil, fmt.Errorf("%w: log2 of %s", ErrRange, x.V)
	}
	return NewInt(int64(new(big.Int).Sub(x.V, big.NewInt(1)).BitLen())), nil
}
