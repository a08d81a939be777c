package ui

import (
	"math"
	"strings"
	"testing"

	"minisynth/internal/buildpipeline"
)

func TestProgressTracksTargets(t *testing.T) {
	events := make(chan buildpipeline.Event)
	m := NewProgressModel("synth", []string{"a", "b"}, events).(*progressModel)

	m.apply(buildpipeline.Event{Target: "a", Stage: buildpipeline.StageElaborate, Status: buildpipeline.StatusWorking})
	m.apply(buildpipeline.Event{Target: "b", Stage: buildpipeline.StageCollect, Status: buildpipeline.StatusDone})
	m.apply(buildpipeline.Event{Target: "unknown", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking})

	if got := m.targets[0].label(); got != "elaborating" {
		t.Fatalf("a status = %q", got)
	}
	if got := m.targets[1].label(); got != "done" {
		t.Fatalf("b status = %q", got)
	}
	if got, want := m.fraction(), 0.7; math.Abs(got-want) > 1e-9 {
		t.Fatalf("fraction = %v, want %v", got, want)
	}
	view := m.View()
	for _, want := range []string{"elaborating", "done", "synth"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressRunLabel(t *testing.T) {
	m := NewProgressModel("match", []string{"x"}, nil).(*progressModel)
	m.apply(buildpipeline.Event{Stage: buildpipeline.StageMatch, Status: buildpipeline.StatusWorking})
	if m.run != "matching" {
		t.Fatalf("stage label = %q", m.run)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("short value changed: %q", got)
	}
}
