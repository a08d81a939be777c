package literal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParseInt parses a decimal literal with optional '_' separators.
func ParseInt(text string) (Integer, error) {
	v, ok := new(big.Int).SetString(strings.ReplaceAll(text, "_", ""), 10)
	if !ok {
		return Integer{}, fmt.Errorf("%w: bad integer literal %q", ErrType, text)
	}
	return Integer{V: v}, nil
}

// ParseSized parses 4'b1010, 8'hff or 'd12. Without a width the literal is an
// Integer; with a width the value must fit it.
func ParseSized(text string) (Value, error) {
	tick := strings.IndexByte(text, '\'')
	if tick < 0 || tick+1 >= len(text) {
		return nil, fmt.Errorf("%w: bad sized literal %q", ErrType, text)
	}
	var base int
	switch text[tick+1] {
	case 'b', 'B':
		base = 2
	case 'o', 'O':
		base = 8
	case 'd', 'D':
		base = 10
	case 'h', 'H':
		base = 16
	default:
		return nil, fmt.Errorf("%w: bad base in %q", ErrType, text)
	}
	digits := strings.ReplaceAll(text[tick+2:], "_", "")
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("%w: bad digits in %q", ErrType, text)
	}
	if tick == 0 {
		return Integer{V: v}, nil
	}
	width, err := strconv.Atoi(strings.ReplaceAll(text[:tick], "_", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad width in %q", ErrType, text)
	}
	if v.Cmp(pow2(width)) >= 0 {
		return nil, fmt.Errorf("%w: %q does not fit in %d bits", ErrRange, text, width)
	}
	return NewBit(width, v)
}
