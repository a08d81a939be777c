package driver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"minisynth/internal/buildpipeline"
	"minisynth/internal/diag"
	"minisynth/internal/netlist"
	"minisynth/internal/trace"
)

// Side names one design to compare.
type Side struct {
	Path   string
	Target string
}

// MatchRequest compares Left and Right after synthesis and collection.
// Base supplies GC mode, cache and limits; its Path and Targets are ignored.
type MatchRequest struct {
	Left, Right Side
	Base        Request
}

// MatchResult carries both synthesis results. Equal is only meaningful when
// neither side has errors.
type MatchResult struct {
	Left, Right *Result
	Equal       bool
}

func (m *MatchResult) HasErrors() bool {
	return m.Left.HasErrors() || m.Right.HasErrors()
}

// Match synthesizes both sides, concurrently when they live in different
// files, and runs the structural matcher on their roots.
func Match(ctx context.Context, req *MatchRequest) (*MatchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing match request")
	}
	out := &MatchResult{}
	if req.Left.Path == req.Right.Path {
		r := req.Base
		r.Path = req.Left.Path
		r.Targets = []string{req.Left.Target, req.Right.Target}
		res, err := Synthesize(ctx, &r)
		if err != nil {
			return nil, err
		}
		out.Left = res
		// file diagnostics stay with the left side only
		out.Right = &Result{FileSet: res.FileSet, File: res.File, Bag: diag.NewBag(1), Targets: res.Targets[1:]}
		out.Left.Targets = res.Targets[:1]
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range []struct {
			side Side
			dst  **Result
		}{{req.Left, &out.Left}, {req.Right, &out.Right}} {
			g.Go(func() error {
				r := req.Base
				r.Path = s.side.Path
				r.Targets = []string{s.side.Target}
				res, err := Synthesize(gctx, &r)
				if err != nil {
					return err
				}
				*s.dst = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	if out.HasErrors() {
		return out, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "match", trace.CurrentSpan(ctx).SpanID)
	endMatch := phase(req.Base.Timer, "match", "")
	buildpipeline.Emit(req.Base.Progress, buildpipeline.Event{Stage: buildpipeline.StageMatch, Status: buildpipeline.StatusWorking})
	l, r := out.Left.Targets[0], out.Right.Targets[0]
	out.Equal = netlist.Match(l.Netlist, l.Root, r.Netlist, r.Root)
	note := fmt.Sprintf("%s vs %s: %t", l.Name, r.Name, out.Equal)
	endMatch(note)
	span.End(note)
	buildpipeline.Emit(req.Base.Progress, buildpipeline.Event{Stage: buildpipeline.StageMatch, Status: buildpipeline.StatusDone})
	return out, nil
}
