package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"minisynth/internal/trace"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeModule, false},
		{trace.LevelDetail, trace.ScopeModule, true},
		{trace.LevelDetail, trace.ScopeNode, false},
		{trace.LevelDebug, trace.ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestRingKeepsLatest(t *testing.T) {
	r := trace.NewRingTracer(2, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		trace.Point(r, trace.ScopeNode, name, "", 0)
	}
	events := r.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("ring = %+v", events)
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := trace.NewStreamTracer(&buf, trace.LevelDetail, trace.FormatChrome)
	span := trace.Begin(st, trace.ScopePass, "elaborate", 0)
	inner := trace.Begin(st, trace.ScopeModule, "counter", span.ID())
	inner.End("")
	span.WithExtra("components", "3").End("ok")
	trace.Point(st, trace.ScopeNode, "fold", "", span.ID()) // filtered at detail
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 4 {
		t.Fatalf("got %d events, want 4", len(doc.TraceEvents))
	}
}

func TestContextPropagation(t *testing.T) {
	if trace.FromContext(context.Background()) != trace.Nop {
		t.Fatalf("empty context must yield Nop")
	}
	r := trace.NewRingTracer(8, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), r)
	trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "synth", 0).End("")
	var out strings.Builder
	if err := r.Dump(&out, trace.FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "synth") {
		t.Fatalf("dump lacks span: %q", out.String())
	}
}

func TestParseNames(t *testing.T) {
	if l, err := trace.ParseLevel("Detail"); err != nil || l != trace.LevelDetail {
		t.Fatalf("ParseLevel(Detail) = %v, %v", l, err)
	}
	if _, err := trace.ParseLevel("verbose"); err == nil {
		t.Fatalf("ParseLevel(verbose) should fail")
	}
	if m, err := trace.ParseMode("both"); err != nil || m != trace.ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if _, err := trace.ParseMode("disk"); err == nil {
		t.Fatalf("ParseMode(disk) should fail")
	}
}

func TestNewBothExposesRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeBoth, Format: trace.FormatText, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	trace.Begin(tr, trace.ScopePass, "parse", 0).End("")
	ring, ok := trace.RingOf(tr)
	if !ok {
		t.Fatalf("both mode has no ring")
	}
	if got := len(ring.Snapshot()); got != 2 {
		t.Fatalf("ring holds %d events, want 2", got)
	}
	if strings.Count(buf.String(), "parse") != 2 {
		t.Fatalf("stream output:\n%s", buf.String())
	}
	if _, ok := trace.RingOf(trace.Nop); ok {
		t.Fatalf("Nop has no ring")
	}
}

func TestHeartbeatStop(t *testing.T) {
	r := trace.NewRingTracer(16, trace.LevelPhase)
	h := trace.StartHeartbeat(r, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	h.Stop()
	h.Stop()
	n := len(r.Snapshot())
	time.Sleep(5 * time.Millisecond)
	if len(r.Snapshot()) != n {
		t.Fatalf("heartbeat kept running after Stop")
	}
	if trace.StartHeartbeat(trace.Nop, time.Millisecond) != nil {
		t.Fatalf("disabled tracer must not start a heartbeat")
	}
}
