package prof_test

import (
	"os"
	"path/filepath"
	"testing"

	"minisynth/internal/prof"
)

func TestSessionWritesFiles(t *testing.T) {
	dir := t.TempDir()
	opts := prof.Options{
		CPU:   filepath.Join(dir, "cpu.out"),
		Mem:   filepath.Join(dir, "mem.out"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	if !opts.Enabled() {
		t.Fatal("options with paths must be enabled")
	}
	s, err := prof.Start(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{opts.CPU, opts.Mem, opts.Trace} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
}

func TestDisabled(t *testing.T) {
	if (prof.Options{}).Enabled() {
		t.Fatal("empty options enabled")
	}
	var s *prof.Session
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}
