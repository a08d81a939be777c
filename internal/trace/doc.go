// Package trace records spans and instant events for the minisynth pipeline:
// the driver, its passes (load, parse, elaborate, collect, export) and one span
// per instantiated definition during elaboration.
//
// Enable it from the command line:
//
//	minisynth synth --trace=- --trace-level=detail design.ms top
//
// Tracers: Nop (disabled), StreamTracer (writes as events arrive), RingTracer
// (keeps the last N events for a dump after a failure) and MultiTracer.
//
// Levels map to scopes: phase shows driver and pass events, detail adds
// module spans, debug adds per-node events such as constant folds.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", 0)
//	defer span.End("")
package trace
