package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"minisynth/internal/diag"
	"minisynth/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty renders each diagnostic of bag as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline under the span and,
// with ShowNotes, one line per note. Callers sort the bag first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		header := fmt.Sprintf("%s %s: %s", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), d.Message)
		if located(d, fs) {
			header = location(fs, d.Primary, opts.PathMode) + ": " + header
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		if located(d, fs) {
			if err := snippet(w, fs, d.Primary, opts.Context, p); err != nil {
				return err
			}
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			line := "  " + p.note.Sprint("note") + ": " + n.Msg
			if fs != nil && fs.Get(n.Span.File) != nil {
				line = "  " + p.note.Sprint("note") + ": " + location(fs, n.Span, opts.PathMode) + ": " + n.Msg
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, fs.Get(sp.File), mode), start.Line, start.Col)
}

// snippet prints the primary line, context lines around it, and the
// underline. Multi-line spans are underlined to the end of the first line.
func snippet(w io.Writer, fs *source.FileSet, sp source.Span, context int, p palette) error {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return nil
	}
	context = max(context, 0)
	line := int(start.Line)
	first := max(line-context, 1)
	last := min(line+context, len(f.LineIdx)+1)
	width := len(fmt.Sprint(last))
	for ln := first; ln <= last; ln++ {
		text := f.GetLine(uint32(ln))
		if _, err := fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), text); err != nil {
			return err
		}
		if ln != line {
			continue
		}
		col := int(start.Col) - 1
		prefix := runewidth.StringWidth(expandPrefix(text, col))
		n := 1
		if end.Line == start.Line && end.Col > start.Col {
			n = runewidth.StringWidth(sliceCols(text, col, int(end.Col)-1))
		} else if end.Line != start.Line {
			n = max(runewidth.StringWidth(sliceCols(text, col, len(text))), 1)
		}
		mark := "^" + strings.Repeat("~", max(n-1, 0))
		if _, err := fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", prefix), p.caret.Sprint(mark)); err != nil {
			return err
		}
	}
	return nil
}

// expandPrefix returns the first col bytes of line with tabs kept as single
// spaces so the underline lines up.
func expandPrefix(line string, col int) string {
	if col > len(line) {
		col = len(line)
	}
	if col < 0 {
		col = 0
	}
	return strings.ReplaceAll(line[:col], "\t", " ")
}

func sliceCols(line string, from, to int) string {
	from = min(max(from, 0), len(line))
	to = min(max(to, from), len(line))
	return line[from:to]
}
