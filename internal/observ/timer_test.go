package observ_test

import (
	"strings"
	"sync"
	"testing"

	"minisynth/internal/observ"
)

func TestTimerReport(t *testing.T) {
	tm := observ.NewTimer()
	load := tm.Begin("load", "")
	tm.End(load, "1 file")
	var wg sync.WaitGroup
	for _, target := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx := tm.Begin("elaborate", target)
			tm.End(idx, "")
		}()
	}
	wg.Wait()
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 4 {
		t.Fatalf("phases = %d, want 4", len(r.Phases))
	}
	if r.Phases[0].Note != "1 file" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
	if r.TotalMS < 0 {
		t.Fatalf("total = %f", r.TotalMS)
	}
	s := tm.Summary()
	for _, want := range []string{"timings:", "load", "elaborate b", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary lacks %q:\n%s", want, s)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := observ.NewTimer().Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("empty report = %+v", r)
	}
}
