package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident is a lowercase-or-underscore identifier (variables, functions, methods).
	Ident
	// TypeIdent is an identifier starting with an uppercase letter (types, modules, constructors).
	TypeIdent
	// IntLit is an unsized decimal integer literal.
	IntLit
	// SizedLit is a sized literal such as 4'b1010 or 'hff.
	SizedLit
	// StringLit is a double-quoted string; only accepted in import paths.
	StringLit

	KwFunction
	KwEndFunction
	KwModule
	KwEndModule
	KwMethod
	KwEndMethod
	KwRule
	KwEndRule
	KwInput
	KwDefault
	KwIf
	KwElse
	KwCase
	KwEndCase
	KwFor
	KwBegin
	KwEnd
	KwReturn
	KwLet
	KwTypedef
	KwStruct
	KwEnum
	KwType
	KwImport
	KwTrue
	KwFalse

	Plus       // +
	Minus      // -
	Star       // *
	StarStar   // **
	Slash      // /
	Percent    // %
	Shl        // <<
	Shr        // >>
	Lt         // <
	LtEq       // <=
	Gt         // >
	GtEq       // >=
	EqEq       // ==
	BangEq     // !=
	Amp        // &
	Pipe       // |
	Caret      // ^
	CaretTilde // ^~ or ~^
	Tilde      // ~
	Bang       // !
	AndAnd     // &&
	OrOr       // ||
	Question   // ?
	Colon      // :
	Semicolon  // ;
	Comma      // ,
	Dot        // .
	Assign     // =
	Hash       // #
	LParen     // (
	RParen     // )
	LBracket   // [
	RBracket   // ]
	LBrace     // {
	RBrace     // }
)

var kindNames = [...]string{
	Invalid:       "Invalid",
	EOF:           "EOF",
	Ident:         "Ident",
	TypeIdent:     "TypeIdent",
	IntLit:        "IntLit",
	SizedLit:      "SizedLit",
	StringLit:     "StringLit",
	KwFunction:    "function",
	KwEndFunction: "endfunction",
	KwModule:      "module",
	KwEndModule:   "endmodule",
	KwMethod:      "method",
	KwEndMethod:   "endmethod",
	KwRule:        "rule",
	KwEndRule:     "endrule",
	KwInput:       "input",
	KwDefault:     "default",
	KwIf:          "if",
	KwElse:        "else",
	KwCase:        "case",
	KwEndCase:     "endcase",
	KwFor:         "for",
	KwBegin:       "begin",
	KwEnd:         "end",
	KwReturn:      "return",
	KwLet:         "let",
	KwTypedef:     "typedef",
	KwStruct:      "struct",
	KwEnum:        "enum",
	KwType:        "type",
	KwImport:      "import",
	KwTrue:        "True",
	KwFalse:       "False",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	StarStar:      "**",
	Slash:         "/",
	Percent:       "%",
	Shl:           "<<",
	Shr:           ">>",
	Lt:            "<",
	LtEq:          "<=",
	Gt:            ">",
	GtEq:          ">=",
	EqEq:          "==",
	BangEq:        "!=",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	CaretTilde:    "^~",
	Tilde:         "~",
	Bang:          "!",
	AndAnd:        "&&",
	OrOr:          "||",
	Question:      "?",
	Colon:         ":",
	Semicolon:     ";",
	Comma:         ",",
	Dot:           ".",
	Assign:        "=",
	Hash:          "#",
	LParen:        "(",
	RParen:        ")",
	LBracket:      "[",
	RBracket:      "]",
	LBrace:        "{",
	RBrace:        "}",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}
