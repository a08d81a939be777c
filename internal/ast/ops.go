package ast

// BinaryOp enumerates binary operators. String returns the source spelling, which is also the
// name of the Function component a non-folded operator lowers to.
type BinaryOp uint8

const (
	OpPow BinaryOp = iota
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpShl
	OpShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpBitAnd
	OpBitXor
	OpBitXnor
	OpBitOr
	OpAnd
	OpOr
)

var binaryOpNames = [...]string{
	OpPow:     "**",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpAdd:     "+",
	OpSub:     "-",
	OpShl:     "<<",
	OpShr:     ">>",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpEq:      "==",
	OpNe:      "!=",
	OpBitAnd:  "&",
	OpBitXor:  "^",
	OpBitXnor: "^~",
	OpBitOr:   "|",
	OpAnd:     "&&",
	OpOr:      "||",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// Precedence returns the binding strength; higher binds tighter.
func (op BinaryOp) Precedence() int {
	switch op {
	case OpPow:
		return 12
	case OpMul, OpDiv, OpMod:
		return 11
	case OpAdd, OpSub:
		return 10
	case OpShl, OpShr:
		return 9
	case OpLt, OpLe, OpGt, OpGe:
		return 8
	case OpEq, OpNe:
		return 7
	case OpBitAnd:
		return 6
	case OpBitXor, OpBitXnor:
		return 5
	case OpBitOr:
		return 4
	case OpAnd:
		return 3
	case OpOr:
		return 2
	}
	return 0
}

// UnaryOp enumerates prefix operators; the reductions apply a bitwise operator across all bits.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpPlus
	OpNot
	OpBitNot
	OpRedAnd
	OpRedOr
	OpRedXor
	OpRedNand
	OpRedNor
	OpRedXnor
)

var unaryOpNames = [...]string{
	OpNeg:     "-",
	OpPlus:    "+",
	OpNot:     "!",
	OpBitNot:  "~",
	OpRedAnd:  "&",
	OpRedOr:   "|",
	OpRedXor:  "^",
	OpRedNand: "~&",
	OpRedNor:  "~|",
	OpRedXnor: "^~",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryOpNames) {
		return unaryOpNames[op]
	}
	return "?"
}
