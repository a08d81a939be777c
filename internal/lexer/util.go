package lexer

func isIdentStartByte(b byte) bool {
	return b == '_' || b == '$' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// isDigitOfBase accepts '_' separators and the don't-care digits x/z/? outside decimal.
func isDigitOfBase(b byte, base byte) bool {
	switch base {
	case 'b':
		return b == '0' || b == '1' || b == '_'
	case 'o':
		return (b >= '0' && b <= '7') || b == '_'
	case 'h':
		return isHex(b) || b == '_'
	default:
		return isDec(b) || b == '_'
	}
}

// try2 consumes the two bytes a, b if they come next.
func (lx *Lexer) try2(a, b byte) bool {
	if lx.cursor.Peek() != a || lx.cursor.PeekAt(1) != b {
		return false
	}
	lx.cursor.Bump()
	lx.cursor.Bump()
	return true
}
