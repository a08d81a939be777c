package driver

import (
	"fmt"

	"minisynth/internal/diag"
)

// Error is a failure that has no source span, such as an unreadable input
// or a broken cache entry.
type Error struct {
	Code diag.Code
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code.ID(), e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func loadError(path string, err error) error {
	return &Error{Code: diag.IOLoadFileError, Path: path, Err: err}
}

func cacheError(path string, err error) error {
	return &Error{Code: diag.IOCacheError, Path: path, Err: err}
}
