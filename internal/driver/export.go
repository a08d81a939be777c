package driver

import (
	"context"
	"fmt"
	"io"

	"minisynth/internal/export"
	"minisynth/internal/observ"
	"minisynth/internal/trace"
)

// Export renders a successful target in format f.
func Export(ctx context.Context, w io.Writer, tr *TargetResult, f export.Format, timer *observ.Timer) error {
	if tr == nil || tr.Netlist == nil {
		return fmt.Errorf("nothing to export")
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "export", trace.CurrentSpan(ctx).SpanID)
	end := phase(timer, "export", tr.Target)
	err := export.Write(w, f, tr.Netlist, tr.Root, export.Options{Files: tr.FileSet})
	end(string(f))
	span.End(string(f))
	return err
}
