package synth

import (
	"errors"
	"fmt"

	"minisynth/internal/diag"
	"minisynth/internal/literal"
	"minisynth/internal/source"
)

// Error is an elaboration failure tied to the source that caused it.
type Error struct {
	Code diag.Code
	Msg  string
	Span source.Span
	Err  error
}

func (e *Error) Error() string {
	return e.Code.ID() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Diagnostic converts the error for reporting through a diag.Bag.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

// CodeOf extracts the diagnostic code of an elaboration error, or
// diag.UnknownCode when err did not come from this package.
func CodeOf(err error) diag.Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return diag.UnknownCode
}

func errorf(code diag.Code, sp source.Span, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Span: sp}
}

// literalError maps a folding failure onto an elaboration code.
func literalError(sp source.Span, err error) error {
	code := diag.ElbTypeMismatch
	if errors.Is(err, literal.ErrRange) || errors.Is(err, literal.ErrDivByZero) {
		code = diag.ElbRange
	}
	return &Error{Code: code, Msg: err.Error(), Span: sp, Err: err}
}

// netlistError reports a failed graph mutation; these only happen when
// elaboration would break a structural rule such as driving a node twice.
func netlistError(sp source.Span, err error) error {
	return &Error{Code: diag.ElbInvariantViolation, Msg: err.Error(), Span: sp, Err: err}
}
