package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"minisynth/internal/ast"
	"minisynth/internal/buildpipeline"
	"minisynth/internal/diag"
	"minisynth/internal/netlist"
	"minisynth/internal/observ"
	"minisynth/internal/project"
	"minisynth/internal/source"
	"minisynth/internal/synth"
	"minisynth/internal/trace"
)

// Request describes one synthesis run over a single source file.
type Request struct {
	Path    string
	Targets []string
	GC      project.GCMode

	// Cache is consulted before elaboration and filled after it; nil
	// disables caching.
	Cache    *DiskCache
	Progress buildpipeline.ProgressSink
	Timer    *observ.Timer

	MaxDiagnostics int
	MaxDepth       int
	MaxIterations  int
	// Jobs bounds concurrent targets; zero means GOMAXPROCS.
	Jobs int
}

// TargetResult is the outcome for one target. Netlist is nil when Bag holds
// an error.
type TargetResult struct {
	Target string
	// Name is the instance name of the root, e.g. "fifo#(4)".
	Name    string
	Netlist *netlist.Netlist
	Root    netlist.CompID
	GC      project.GCMode
	Removed int
	Cached  bool

	// FileSet resolves the spans in Bag. The source file has the same id
	// here as in Result.FileSet.
	FileSet *source.FileSet
	Bag     *diag.Bag
}

// Failed reports whether the target produced no netlist.
func (t *TargetResult) Failed() bool {
	return t.Netlist == nil || t.Bag.HasErrors()
}

// Result holds file-level diagnostics and per-target outcomes in request order.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	// Bag holds lexer and parser diagnostics. Targets are not elaborated
	// when it has errors.
	Bag     *diag.Bag
	Targets []*TargetResult
}

// HasErrors reports whether the file or any target failed.
func (r *Result) HasErrors() bool {
	if r.Bag.HasErrors() {
		return true
	}
	for _, t := range r.Targets {
		if t.Failed() {
			return true
		}
	}
	return false
}

// Synthesize loads req.Path once, checks its syntax and elaborates every
// target concurrently. Each target parses the file into its own arena so
// no AST or netlist state is shared between goroutines. Per-target failures
// land in the target's Bag; the returned error is reserved for load and
// cancellation failures.
func Synthesize(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing synth request")
	}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	fs := source.NewFileSet()
	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", parent)
	endLoad := phase(req.Timer, "load", "")
	buildpipeline.Emit(req.Progress, buildpipeline.Event{File: req.Path, Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking})
	fileID, err := fs.Load(req.Path)
	endLoad("")
	loadSpan.End(req.Path)
	if err != nil {
		buildpipeline.Emit(req.Progress, buildpipeline.Event{File: req.Path, Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusError, Err: err})
		return nil, loadError(req.Path, err)
	}
	file := fs.Get(fileID)

	res := &Result{FileSet: fs, File: file, Bag: diag.NewBag(req.MaxDiagnostics)}
	parseSpan := trace.Begin(tracer, trace.ScopePass, "parse", parent)
	endParse := phase(req.Timer, "parse", "")
	buildpipeline.Emit(req.Progress, buildpipeline.Event{File: req.Path, Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
	if _, _, err := parseInto(fs, fileID, res.Bag); err != nil {
		return nil, err
	}
	endParse(fmt.Sprintf("%d diagnostics", res.Bag.Len()))
	parseSpan.End("")

	res.Targets = make([]*TargetResult, len(req.Targets))
	for i, target := range req.Targets {
		res.Targets[i] = &TargetResult{Target: target, GC: req.GC, Bag: diag.NewBag(req.MaxDiagnostics)}
	}
	if res.Bag.HasErrors() {
		for _, tr := range res.Targets {
			buildpipeline.Emit(req.Progress, buildpipeline.Event{File: req.Path, Target: tr.Target, Stage: buildpipeline.StageParse, Status: buildpipeline.StatusError})
		}
		return res, nil
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, tr := range res.Targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			synthesizeTarget(gctx, req, file, tr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// synthesizeTarget runs cache lookup, elaboration, collection and cache fill
// for one target. Failures are recorded in tr.Bag.
func synthesizeTarget(ctx context.Context, req *Request, file *source.File, tr *TargetResult) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "target", trace.CurrentSpan(ctx).SpanID)
	defer span.End(tr.Target)
	emit := func(stage buildpipeline.Stage, status buildpipeline.Status, err error) {
		buildpipeline.Emit(req.Progress, buildpipeline.Event{File: req.Path, Target: tr.Target, Stage: stage, Status: status, Err: err})
	}

	fs := source.NewFileSet()
	fileID := fs.Add(file.Path, file.Content, file.Flags)
	tr.FileSet = fs

	key := NewCacheKey(file.Hash, tr.Target, req.GC)
	if req.Cache != nil {
		hit, err := req.Cache.load(key, tr)
		if err != nil {
			tr.Bag.Add(warning(err))
		}
		if hit {
			trace.Point(tracer, trace.ScopePass, "cache", "hit "+key.String(), span.ID())
			emit(buildpipeline.StageCache, buildpipeline.StatusDone, nil)
			return
		}
	}

	emit(buildpipeline.StageParse, buildpipeline.StatusWorking, nil)
	b, astFile, err := parseInto(fs, fileID, tr.Bag)
	if err != nil {
		tr.Bag.Add(errorDiagnostic(err))
		emit(buildpipeline.StageParse, buildpipeline.StatusError, err)
		return
	}

	emit(buildpipeline.StageElaborate, buildpipeline.StatusWorking, nil)
	endElab := phase(req.Timer, "elaborate", tr.Target)
	out, err := elaborate(b, astFile, tr.Target, fs, req, tracer, span.ID())
	endElab("")
	if err != nil {
		tr.Bag.Add(errorDiagnostic(err))
		emit(buildpipeline.StageElaborate, buildpipeline.StatusError, err)
		return
	}
	tr.Netlist, tr.Root, tr.Name = out.Netlist, out.Root, out.Name

	emit(buildpipeline.StageCollect, buildpipeline.StatusWorking, nil)
	collectSpan := trace.Begin(tracer, trace.ScopePass, "collect", span.ID())
	endCollect := phase(req.Timer, "collect", tr.Target)
	tr.Removed = Collect(tr.Netlist, tr.Root, req.GC)
	note := fmt.Sprintf("%s removed %d", req.GC, tr.Removed)
	endCollect(note)
	collectSpan.End(note)

	if req.Cache != nil {
		if err := req.Cache.store(key, tr); err != nil {
			tr.Bag.Add(warning(err))
		}
	}
	emit(buildpipeline.StageCollect, buildpipeline.StatusDone, nil)
}

func elaborate(b *ast.Builder, file ast.FileID, target string, fs *source.FileSet, req *Request, tracer trace.Tracer, parent uint64) (*synth.Result, error) {
	return synth.Synthesize(b, file, target, synth.Options{
		Tracer:        tracer,
		ParentSpan:    parent,
		MaxDepth:      req.MaxDepth,
		MaxIterations: req.MaxIterations,
		Files:         fs,
	})
}

// Collect runs the passes selected by mode over the subtree of root and
// returns the number of removed components.
func Collect(n *netlist.Netlist, root netlist.CompID, mode project.GCMode) int {
	removed := 0
	if mode == project.GCLocal || mode == project.GCBoth {
		removed += n.CollectLocal(root)
	}
	if mode == project.GCGlobal || mode == project.GCBoth {
		removed += n.CollectGlobal(root)
	}
	return removed
}

// errorDiagnostic converts elaboration and driver errors into a diagnostic.
func errorDiagnostic(err error) diag.Diagnostic {
	var se *synth.Error
	if errors.As(err, &se) {
		return se.Diagnostic()
	}
	var de *Error
	if errors.As(err, &de) {
		return diag.NewError(de.Code, source.Span{}, err.Error())
	}
	return diag.NewError(diag.UnknownCode, source.Span{}, err.Error())
}

// warning reports a cache problem without failing the target.
func warning(err error) diag.Diagnostic {
	d := errorDiagnostic(err)
	d.Severity = diag.SevWarning
	return d
}

// phase starts a timer phase and returns its closer. A nil timer is a no-op.
func phase(t *observ.Timer, name, target string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	idx := t.Begin(name, target)
	return func(note string) { t.End(idx, note) }
}
