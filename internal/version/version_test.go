package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestDescribe(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "1.2.3-rc.1", "abc123", ""
	got := Describe(false)
	if !strings.HasPrefix(got, "minisynth 1.2.3-rc.1\n") {
		t.Fatalf("Describe = %q", got)
	}
	if !strings.Contains(got, "commit: abc123") || strings.Contains(got, "built:") {
		t.Fatalf("Describe = %q", got)
	}
}

func TestColoredKeepsText(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = origVersion, origNoColor }()
	color.NoColor = true

	for _, v := range []string{"0.3.0-dev", "1.0.0", "weird"} {
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored(%q) = %q", v, got)
		}
	}
}
