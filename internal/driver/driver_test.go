package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minisynth/internal/buildpipeline"
	"minisynth/internal/diag"
	"minisynth/internal/driver"
	"minisynth/internal/export"
	"minisynth/internal/netlist"
	"minisynth/internal/observ"
	"minisynth/internal/project"
	"minisynth/internal/testkit"
	"minisynth/internal/token"
)

const counterSrc = `
module Counter;
    Reg#(Bit#(4)) count(0);
    input Bool enable;
    method Bit#(4) getCount = count;
    rule increment;
        if (enable) count <= count + 1;
    endrule
endmodule

function Bit#(1) f(Bit#(1) a, Bit#(1) b);
    return a ^ b;
endfunction
`

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenize(t *testing.T) {
	path := writeSource(t, "x.bsv", counterSrc)
	res, err := driver.Tokenize(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tokens) < 2 || res.Tokens[len(res.Tokens)-1].Kind != token.EOF {
		t.Fatalf("tokens must end with EOF, got %d tokens", len(res.Tokens))
	}
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %s", testkit.Summary(res.Bag))
	}
}

func TestParse(t *testing.T) {
	path := writeSource(t, "x.bsv", counterSrc)
	res, err := driver.Parse(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %s", testkit.Summary(res.Bag))
	}
	if !res.FileID.IsValid() {
		t.Fatalf("no file id")
	}
}

func TestLoadError(t *testing.T) {
	_, err := driver.Synthesize(context.Background(), &driver.Request{
		Path:    filepath.Join(t.TempDir(), "missing.bsv"),
		Targets: []string{"f"},
	})
	var de *driver.Error
	if !errors.As(err, &de) || de.Code != diag.IOLoadFileError {
		t.Fatalf("got %v, want IO load error", err)
	}
}

func TestSynthesizeTargets(t *testing.T) {
	path := writeSource(t, "x.bsv", counterSrc)
	var rec buildpipeline.Recorder
	timer := observ.NewTimer()
	res, err := driver.Synthesize(context.Background(), &driver.Request{
		Path:     path,
		Targets:  []string{"Counter", "f", "nope"},
		GC:       project.GCBoth,
		Progress: &rec,
		Timer:    timer,
		Jobs:     2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Targets) != 3 {
		t.Fatalf("targets = %d", len(res.Targets))
	}
	for _, tr := range res.Targets[:2] {
		if tr.Failed() {
			t.Fatalf("%s failed: %s", tr.Target, testkit.Summary(tr.Bag))
		}
		if err := testkit.CheckNetlistInvariants(tr.Netlist, tr.Root); err != nil {
			t.Fatalf("%s: %v", tr.Target, err)
		}
		if tr.Removed != 0 {
			t.Errorf("%s: GC removed %d", tr.Target, tr.Removed)
		}
	}
	if res.Targets[0].Name != "Counter" {
		t.Errorf("name = %q", res.Targets[0].Name)
	}
	bad := res.Targets[2]
	if !bad.Failed() || bad.Bag.Len() != 1 || bad.Bag.Items()[0].Code != diag.ElbTargetNotFound {
		t.Fatalf("nope: %s", testkit.Summary(bad.Bag))
	}
	if !res.HasErrors() {
		t.Fatalf("HasErrors must see the failed target")
	}

	done := map[string]bool{}
	for _, ev := range rec.Events() {
		if ev.Stage == buildpipeline.StageCollect && ev.Status == buildpipeline.StatusDone {
			done[ev.Target] = true
		}
	}
	if !done["Counter"] || !done["f"] || done["nope"] {
		t.Fatalf("collect events = %v", done)
	}
	if len(timer.Report().Phases) == 0 {
		t.Fatalf("no phases timed")
	}
}

func TestSyntaxErrorSkipsElaboration(t *testing.T) {
	path := writeSource(t, "bad.bsv", "function Bit#(1) f(Bit#(1) a) = ;\n")
	res, err := driver.Synthesize(context.Background(), &driver.Request{Path: path, Targets: []string{"f"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("expected a syntax error")
	}
	if res.Targets[0].Netlist != nil {
		t.Fatalf("target elaborated despite syntax errors")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	path := writeSource(t, "x.bsv", counterSrc)
	cache, err := driver.OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	req := &driver.Request{Path: path, Targets: []string{"Counter"}, GC: project.GCGlobal, Cache: cache}

	first, err := driver.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := driver.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	a, b := first.Targets[0], second.Targets[0]
	if a.Cached || !b.Cached {
		t.Fatalf("cached = %t, %t; want false, true", a.Cached, b.Cached)
	}
	if b.Bag.Len() != 0 {
		t.Fatalf("diagnostics on cache hit: %s", testkit.Summary(b.Bag))
	}
	if b.Name != "Counter" {
		t.Fatalf("cached name = %q", b.Name)
	}
	if !netlist.Match(a.Netlist, a.Root, b.Netlist, b.Root) {
		t.Fatalf("cached netlist differs from the synthesized one")
	}

	req.GC = project.GCNone
	third, err := driver.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if third.Targets[0].Cached {
		t.Fatalf("a different GC mode must miss the cache")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	req.GC = project.GCGlobal
	fourth, err := driver.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.Targets[0].Cached {
		t.Fatalf("hit after DropAll")
	}
}

func TestCacheKey(t *testing.T) {
	var h [32]byte
	k := driver.NewCacheKey(h, "f", project.GCBoth)
	if k != driver.NewCacheKey(h, "f", project.GCBoth) {
		t.Fatalf("key is not deterministic")
	}
	for _, other := range []driver.CacheKey{
		driver.NewCacheKey(h, "g", project.GCBoth),
		driver.NewCacheKey(h, "f", project.GCLocal),
		driver.NewCacheKey([32]byte{1}, "f", project.GCBoth),
	} {
		if other == k {
			t.Fatalf("distinct inputs share key %s", k)
		}
	}
	if len(k.String()) != 16 {
		t.Fatalf("key string %q", k.String())
	}
}

func TestMatch(t *testing.T) {
	xor := writeSource(t, "xor.bsv", "function Bit#(1) f(Bit#(1) a, Bit#(1) b) = a ^ b;\n")
	xorToo := writeSource(t, "xor2.bsv", `
function Bit#(1) unused(Bit#(1) a) = a;

function Bit#(1) f(Bit#(1) a, Bit#(1) b);
    return a ^ b;
endfunction
`)
	and := writeSource(t, "and.bsv", "function Bit#(1) f(Bit#(1) a, Bit#(1) b) = a & b;\n")

	tests := []struct {
		name  string
		left  driver.Side
		right driver.Side
		want  bool
	}{
		{"same file", driver.Side{Path: xor, Target: "f"}, driver.Side{Path: xor, Target: "f"}, true},
		{"reformatted", driver.Side{Path: xor, Target: "f"}, driver.Side{Path: xorToo, Target: "f"}, true},
		{"different op", driver.Side{Path: xor, Target: "f"}, driver.Side{Path: and, Target: "f"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := driver.Match(context.Background(), &driver.MatchRequest{
				Left:  tt.left,
				Right: tt.right,
				Base:  driver.Request{GC: project.GCBoth},
			})
			if err != nil {
				t.Fatal(err)
			}
			if res.HasErrors() {
				t.Fatalf("synthesis failed")
			}
			if res.Equal != tt.want {
				t.Fatalf("Equal = %t, want %t", res.Equal, tt.want)
			}
		})
	}
}

func TestExport(t *testing.T) {
	path := writeSource(t, "x.bsv", counterSrc)
	res, err := driver.Synthesize(context.Background(), &driver.Request{Path: path, Targets: []string{"f"}})
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := driver.Export(context.Background(), &sb, res.Targets[0], export.FormatText, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "function f") {
		t.Fatalf("text export:\n%s", sb.String())
	}
	if err := driver.Export(context.Background(), &sb, &driver.TargetResult{Target: "x"}, export.FormatText, nil); err == nil {
		t.Fatalf("exporting a failed target must error")
	}
}
