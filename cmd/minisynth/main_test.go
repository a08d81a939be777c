package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minisynth/internal/export"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	discovered = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	runCleanup()
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "design.bsv")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const xorSrc = `
function Bit#(1) f(Bit#(1) a, Bit#(1) b) = a ^ b;
function Bit#(1) g(Bit#(1) a, Bit#(1) b) = a & b;
`

func TestSynthCommand(t *testing.T) {
	path := writeSource(t, xorSrc)
	out, errOut, err := execute(t, "synth", "--ui", "off", "--no-cache", "--color", "off", path, "f")
	if err != nil {
		t.Fatalf("synth: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "function f") || !strings.Contains(out, "function ^") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestSynthCommandReportsErrors(t *testing.T) {
	path := writeSource(t, xorSrc)
	_, errOut, err := execute(t, "synth", "--ui", "off", "--no-cache", "--color", "off", path, "missing")
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(errOut, "ELB3007") {
		t.Fatalf("stderr lacks the diagnostic:\n%s", errOut)
	}
}

func TestMatchCommand(t *testing.T) {
	path := writeSource(t, xorSrc)
	out, errOut, err := execute(t, "match", "--ui", "off", "--no-cache", path, "f", "f")
	if err != nil {
		t.Fatalf("match: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "f and f match") {
		t.Fatalf("output: %q", out)
	}
	out, _, err = execute(t, "match", "--ui", "off", "--no-cache", path, "f", "g")
	if !errors.Is(err, errReported) || !strings.Contains(out, "f and g differ") {
		t.Fatalf("f vs g: err=%v out=%q", err, out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var p versionPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatal(err)
	}
	if p.Tool != "minisynth" || p.Version == "" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name   string
		format export.Format
		want   string
	}{
		{"Counter", export.FormatText, "Counter.txt"},
		{"fifo#(4)", export.FormatELK, "fifo__4.json"},
		{"f#(2, Bit#(4))", export.FormatJSON, "f__2_Bit__4.json"},
	}
	for _, tt := range tests {
		if got := outputName(tt.name, tt.format); got != tt.want {
			t.Errorf("outputName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("invalid mode accepted")
	}
}
