package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedBlockComment Code = 1002
	LexBadNumber                Code = 1003
	LexBadSizedLiteral          Code = 1004

	// Syntax
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynUnexpectedTopLevel Code = 2002
	SynExpectSemicolon    Code = 2003
	SynExpectIdentifier   Code = 2004
	SynExpectExpression   Code = 2005
	SynExpectType         Code = 2006
	SynExpectRightParen   Code = 2007
	SynExpectRightBracket Code = 2008
	SynExpectRightBrace   Code = 2009
	SynExpectColon        Code = 2010
	SynExpectEnd          Code = 2011
	SynBadLvalue          Code = 2012
	SynForBadHeader       Code = 2013
	SynEmptyCase          Code = 2014

	// Elaboration
	ElbInfo               Code = 3000
	ElbLookup             Code = 3001
	ElbArityOrPattern     Code = 3002
	ElbRange              Code = 3003
	ElbUnsupported        Code = 3004
	ElbInvariantViolation Code = 3005
	ElbTypeMismatch       Code = 3006
	ElbTargetNotFound     Code = 3007
	ElbBadTargetSpec      Code = 3008
	ElbRecursionLimit     Code = 3009

	// IO
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Project
	ProjConfigInvalid Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number",
	LexBadSizedLiteral:          "Malformed sized literal",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynUnexpectedTopLevel:       "Unexpected top-level construct",
	SynExpectSemicolon:          "Expect semicolon",
	SynExpectIdentifier:         "Expect identifier",
	SynExpectExpression:         "Expect expression",
	SynExpectType:               "Expect type",
	SynExpectRightParen:         "Expect right parenthesis",
	SynExpectRightBracket:       "Expect right bracket",
	SynExpectRightBrace:         "Expect right brace",
	SynExpectColon:              "Expect colon",
	SynExpectEnd:                "Expect block terminator",
	SynBadLvalue:                "Invalid assignment target",
	SynForBadHeader:             "Malformed for-loop header",
	SynEmptyCase:                "Case without arms",
	ElbInfo:                     "Elaboration information",
	ElbLookup:                   "Unresolved identifier",
	ElbArityOrPattern:           "Parameter arity or pattern mismatch",
	ElbRange:                    "Literal out of range",
	ElbUnsupported:              "Unsupported construct",
	ElbInvariantViolation:       "Netlist invariant violation",
	ElbTypeMismatch:             "Type mismatch",
	ElbTargetNotFound:           "Synthesis target not found",
	ElbBadTargetSpec:            "Malformed synthesis target",
	ElbRecursionLimit:           "Elaboration recursion limit exceeded",
	IOLoadFileError:             "Failed to load file",
	IOCacheError:                "Cache failure",
	ProjConfigInvalid:           "Invalid project configuration",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("ELB%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
