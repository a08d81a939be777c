package literal

import (
	"fmt"
	"math/big"

	"minisynth/internal/ast"
)

type intOp func(x, y *big.Int) (Value, error)

// intOps is the Integer operation table. Bit operations reuse it on the unsigned
// representation and wrap the result to the operand width.
var intOps = map[ast.BinaryOp]intOp{
	ast.OpPow: func(x, y *big.Int) (Value, error) {
		if y.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative exponent", ErrRange)
		}
		return Integer{V: new(big.Int).Exp(x, y, nil)}, nil
	},
	ast.OpMul: arith(func(z, x, y *big.Int) *big.Int { return z.Mul(x, y) }),
	ast.OpAdd: arith(func(z, x, y *big.Int) *big.Int { return z.Add(x, y) }),
	ast.OpSub: arith(func(z, x, y *big.Int) *big.Int { return z.Sub(x, y) }),
	ast.OpDiv: func(x, y *big.Int) (Value, error) {
		if y.Sign() == 0 {
			return nil, ErrDivByZero
		}
		return Integer{V: new(big.Int).Quo(x, y)}, nil
	},
	ast.OpMod: func(x, y *big.Int) (Value, error) {
		if y.Sign() == 0 {
			return nil, ErrDivByZero
		}
		return Integer{V: new(big.Int).Rem(x, y)}, nil
	},
	ast.OpShl: func(x, y *big.Int) (Value, error) {
		n, err := shiftAmount(y)
		if err != nil {
			return nil, err
		}
		return Integer{V: new(big.Int).Lsh(x, n)}, nil
	},
	ast.OpShr: func(x, y *big.Int) (Value, error) {
		n, err := shiftAmount(y)
		if err != nil {
			return nil, err
		}
		return Integer{V: new(big.Int).Rsh(x, n)}, nil
	},
	ast.OpLt:      cmp(func(c int) bool { return c < 0 }),
	ast.OpLe:      cmp(func(c int) bool { return c <= 0 }),
	ast.OpGt:      cmp(func(c int) bool { return c > 0 }),
	ast.OpGe:      cmp(func(c int) bool { return c >= 0 }),
	ast.OpEq:      cmp(func(c int) bool { return c == 0 }),
	ast.OpNe:      cmp(func(c int) bool { return c != 0 }),
	ast.OpBitAnd:  arith(func(z, x, y *big.Int) *big.Int { return z.And(x, y) }),
	ast.OpBitOr:   arith(func(z, x, y *big.Int) *big.Int { return z.Or(x, y) }),
	ast.OpBitXor:  arith(func(z, x, y *big.Int) *big.Int { return z.Xor(x, y) }),
	ast.OpBitXnor: arith(func(z, x, y *big.Int) *big.Int { return z.Not(z.Xor(x, y)) }),
}

func arith(f func(z, x, y *big.Int) *big.Int) intOp {
	return func(x, y *big.Int) (Value, error) {
		return Integer{V: f(new(big.Int), x, y)}, nil
	}
}

func cmp(pred func(int) bool) intOp {
	return func(x, y *big.Int) (Value, error) {
		return Bool{V: pred(x.Cmp(y))}, nil
	}
}

func shiftAmount(y *big.Int) (uint, error) {
	if y.Sign() < 0 || !y.IsUint64() || y.Uint64() > 1<<16 {
		return 0, fmt.Errorf("%w: shift amount %s", ErrRange, y)
	}
	return uint(y.Uint64()), nil
}

type boolOp func(x, y bool) bool

var boolOps = map[ast.BinaryOp]boolOp{
	ast.OpAnd: func(x, y bool) bool { return x && y },
	ast.OpOr:  func(x, y bool) bool { return x || y },
	ast.OpEq:  func(x, y bool) bool { return x == y },
	ast.OpNe:  func(x, y bool) bool { return x != y },
}

// Binary folds a binary operator over two literals.
func Binary(op ast.BinaryOp, a, b Value) (Value, error) {
	if a.Kind() == KindDontCare || b.Kind() == KindDontCare {
		return DontCare{}, nil
	}
	if op == ast.OpAnd || op == ast.OpOr {
		x, okA := a.(Bool)
		y, okB := b.(Bool)
		if !okA || !okB {
			return nil, fmt.Errorf("%w: %s requires Bool operands, got %s and %s", ErrType, op, a.Kind(), b.Kind())
		}
		return Bool{V: boolOps[op](x.V, y.V)}, nil
	}
	if op == ast.OpShl || op == ast.OpShr {
		return shift(op, a, b)
	}
	a, b, err := Coerce(a, b)
	if err != nil {
		return nil, err
	}
	switch x := a.(type) {
	case Integer:
		return intOps[op](x.V, b.(Integer).V)
	case Bit:
		y := b.(Bit)
		if op == ast.OpPow {
			return nil, fmt.Errorf("%w: ** requires Integer operands", ErrType)
		}
		w := max(x.Width, y.Width)
		res, err := intOps[op](x.V, y.V)
		if err != nil {
			return nil, err
		}
		if n, ok := res.(Integer); ok {
			return Bit{Width: w, V: wrap(n.V, w)}, nil
		}
		return res, nil
	case Bool:
		if f, ok := boolOps[op]; ok {
			return Bool{V: f(x.V, b.(Bool).V)}, nil
		}
	default:
		switch op {
		case ast.OpEq:
			return Bool{V: Equal(a, b)}, nil
		case ast.OpNe:
			return Bool{V: !Equal(a, b)}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not defined on %s", ErrType, op, a.Kind())
}

// shift keeps the width of the left operand; the amount may be any integer-like literal.
func shift(op ast.BinaryOp, a, b Value) (Value, error) {
	var amount *big.Int
	switch y := b.(type) {
	case Integer:
		amount = y.V
	case Bit:
		amount = y.V
	default:
		return nil, fmt.Errorf("%w: shift amount must be numeric, got %s", ErrType, b.Kind())
	}
	switch x := a.(type) {
	case Integer:
		return intOps[op](x.V, amount)
	case Bit:
		res, err := intOps[op](x.V, amount)
		if err != nil {
			return nil, err
		}
		return Bit{Width: x.Width, V: wrap(res.(Integer).V, x.Width)}, nil
	}
	return nil, fmt.Errorf("%w: cannot shift %s", ErrType, a.Kind())
}

// Coerce brings two literals to a common kind: an Integer next to a Bit is promoted
// to that width, failing with ErrRange when it does not fit. Other mixed kinds fail.
func Coerce(a, b Value) (Value, Value, error) {
	switch x := a.(type) {
	case Integer:
		if y, ok := b.(Bit); ok {
			c, err := NewBit(y.Width, x.V)
			return c, b, err
		}
	case Bit:
		if y, ok := b.(Integer); ok {
			c, err := NewBit(x.Width, y.V)
			return a, c, err
		}
	}
	if a.Kind() != b.Kind() {
		return nil, nil, fmt.Errorf("%w: cannot combine %s and %s", ErrType, a.Kind(), b.Kind())
	}
	return a, b, nil
}

// CoerceTo converts v to a Bit of width when v is an Integer; other values pass through.
func CoerceTo(v Value, width int) (Value, error) {
	if x, ok := v.(Integer); ok {
		return NewBit(width, x.V)
	}
	return v, nil
}

// Unary folds a prefix operator.
func Unary(op ast.UnaryOp, v Value) (Value, error) {
	if v.Kind() == KindDontCare {
		return DontCare{}, nil
	}
	switch x := v.(type) {
	case Integer:
		switch op {
		case ast.OpNeg:
			return Integer{V: new(big.Int).Neg(x.V)}, nil
		case ast.OpPlus:
			return x, nil
		case ast.OpBitNot:
			return Integer{V: new(big.Int).Not(x.V)}, nil
		}
	case Bit:
		switch op {
		case ast.OpNeg:
			return Bit{Width: x.Width, V: wrap(new(big.Int).Neg(x.V), x.Width)}, nil
		case ast.OpPlus:
			return x, nil
		case ast.OpBitNot:
			return Bit{Width: x.Width, V: wrap(new(big.Int).Not(x.V), x.Width)}, nil
		case ast.OpRedAnd, ast.OpRedOr, ast.OpRedXor, ast.OpRedNand, ast.OpRedNor, ast.OpRedXnor:
			return reduce(op, x), nil
		}
	case Bool:
		if op == ast.OpNot {
			return Bool{V: !x.V}, nil
		}
	}
	return nil, fmt.Errorf("%w: unary %s is not defined on %s", ErrType, op, v.Kind())
}

func reduce(op ast.UnaryOp, x Bit) Bit {
	ones := 0
	for i := 0; i < x.Width; i++ {
		ones += int(x.V.Bit(i))
	}
	var r bool
	switch op {
	case ast.OpRedAnd, ast.OpRedNand:
		r = ones == x.Width
	case ast.OpRedOr, ast.OpRedNor:
		r = ones > 0
	default:
		r = ones%2 == 1
	}
	if op == ast.OpRedNand || op == ast.OpRedNor || op == ast.OpRedXnor {
		r = !r
	}
	if r {
		return BitFromUint64(1, 1)
	}
	return BitFromUint64(1, 0)
}
