package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"minisynth/internal/ast"
	"minisynth/internal/source"
)

// CheckSpanInvariants verifies that every top-level item of fileID has a
// non-empty span in sf and that the file span lies within the content and
// covers all items.
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file %d not in builder", fileID)
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return err
	}
	if f.Span.File != sf.ID || f.Span.End > size || f.Span.Start > f.Span.End {
		return fmt.Errorf("file span %v outside %s (%d bytes)", f.Span, sf.Path, size)
	}
	for _, id := range f.Items {
		item := b.Items.Get(id)
		if item == nil {
			return fmt.Errorf("item %d missing", id)
		}
		sp := item.Span
		switch {
		case sp.Empty():
			return fmt.Errorf("item %d has an empty span", id)
		case !f.Span.Contains(sp):
			return fmt.Errorf("item %d span %v not inside file span %v", id, sp, f.Span)
		}
	}
	return nil
}
