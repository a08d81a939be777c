package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minisynth/internal/diag"
	"minisynth/internal/project"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, project.ConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
[synth]
gc = "global"
targets = ["Counter", "f#(4)"]

[trace]
level = "phase"

[cache]
enabled = false
`)
	cfg, err := project.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Synth.GC != project.GCGlobal {
		t.Errorf("gc = %s", cfg.Synth.GC)
	}
	if len(cfg.Synth.Targets) != 2 || cfg.Synth.Targets[1] != "f#(4)" {
		t.Errorf("targets = %v", cfg.Synth.Targets)
	}
	if cfg.Cache.Enabled {
		t.Errorf("cache stayed enabled")
	}
	if cfg.Synth.MaxDiagnostics != 100 || cfg.Trace.Mode != "stream" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if got := cfg.CacheDir(); got != filepath.Join(dir, ".minisynth-cache") {
		t.Errorf("cache dir = %s", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"unknown key", "[synth]\ngc = \"both\"\nspeed = 3\n", "synth.speed"},
		{"bad gc", "[synth]\ngc = \"sometimes\"\n", "invalid gc mode"},
		{"bad level", "[trace]\nlevel = \"loud\"\n", "trace.level"},
		{"syntax", "[synth\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := project.Load(write(t, t.TempDir(), tt.body))
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q lacks %q", err, tt.want)
			}
			var perr *project.Error
			if !errors.As(err, &perr) || perr.Code() != diag.ProjConfigInvalid {
				t.Fatalf("error %T is not a project error", err)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, root, "[synth]\ngc = \"local\"\n")
	nested := filepath.Join(root, "rtl", "alu")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := project.Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Synth.GC != project.GCLocal || cfg.Dir() != root {
		t.Fatalf("discovered %+v at %s", cfg.Synth, cfg.Dir())
	}
}

func TestParseGC(t *testing.T) {
	for in, want := range map[string]project.GCMode{
		"":       project.GCBoth,
		"none":   project.GCNone,
		"LOCAL":  project.GCLocal,
		"global": project.GCGlobal,
	} {
		got, err := project.ParseGC(in)
		if err != nil || got != want {
			t.Errorf("ParseGC(%q) = %v, %v", in, got, err)
		}
	}
}
