// Package diag defines the diagnostic model shared by the lexer, parser and elaborator.
//
// Diagnostic is the central record: Severity, Code, Message, a Primary span and
// optional Notes. Phases never format or print; they emit through a Reporter
// (usually BagReporter feeding a bounded Bag) and internal/diagfmt renders the
// result.
//
// Codes are grouped by range:
//
//	LEX1xxx  lexical
//	SYN2xxx  syntax
//	ELB3xxx  elaboration (lookup, arity, range, unsupported, invariant, type)
//	IO4xxx   file system
//	PRJ5xxx  project configuration
package diag
