package diagfmt

import (
	"path/filepath"

	"minisynth/internal/diag"
	"minisynth/internal/source"
)

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case PathModeRelative:
		base := fs.BaseDir()
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return f.Path
		}
		if rel, err := filepath.Rel(base, abs); err == nil {
			return filepath.ToSlash(rel)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	return f.DisplayPath(fs.BaseDir())
}

// located reports whether d points into a source file. IO and project
// errors carry no span.
func located(d diag.Diagnostic, fs *source.FileSet) bool {
	if fs == nil || fs.Get(d.Primary.File) == nil {
		return false
	}
	return d.Code != diag.UnknownCode && d.Code < diag.IOLoadFileError
}
