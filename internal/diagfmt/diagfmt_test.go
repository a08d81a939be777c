package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"minisynth/internal/diag"
	"minisynth/internal/diagfmt"
	"minisynth/internal/lexer"
	"minisynth/internal/source"
	"minisynth/internal/testkit"
)

const src = "function Bit#(1) f(Bit#(1) a);\n    return a ^ nope;\nendfunction\n"

func lookupBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	fs.SetBaseDir("/work")
	id := fs.AddVirtual("/work/rtl/xor.bsv", []byte(src))
	start := uint32(strings.Index(src, "nope"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.ElbLookup, source.Span{File: id, Start: start, End: start + 4}, "unresolved identifier nope").
		WithNote(source.Span{File: id, Start: 17, End: 18}, "while elaborating f")
	bag.Add(d)
	bag.Add(diag.NewError(diag.IOCacheError, source.Span{}, "cache unreadable"))
	return bag, fs
}

func TestPretty(t *testing.T) {
	bag, fs := lookupBag(t)
	tests := []struct {
		name string
		mode diagfmt.PathMode
		want string
	}{
		{"auto", diagfmt.PathModeAuto, "rtl/xor.bsv:2:16: "},
		{"absolute", diagfmt.PathModeAbsolute, "/work/rtl/xor.bsv:2:16: "},
		{"basename", diagfmt.PathModeBasename, "xor.bsv:2:16: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{PathMode: tt.mode, ShowNotes: true}); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, want := range []string{
				tt.want + "ERROR ELB3001: unresolved identifier nope",
				"2 |     return a ^ nope;",
				" |" + strings.Repeat(" ", 16) + "^~~~",
				"note: ",
				"while elaborating f",
				"ERROR IO4002: cache unreadable",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("output lacks %q:\n%s", want, out)
				}
			}
			if strings.Contains(out, "\x1b[") {
				t.Errorf("color codes with Color off:\n%s", out)
			}
		})
	}
}

func TestPrettyContext(t *testing.T) {
	bag, fs := lookupBag(t)
	var buf bytes.Buffer
	if err := diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{Context: 1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"1 | function", "3 | endfunction"} {
		if !strings.Contains(out, want) {
			t.Errorf("context lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "note:") {
		t.Errorf("notes shown without ShowNotes")
	}
}

func TestJSON(t *testing.T) {
	bag, fs := lookupBag(t)
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: diagfmt.PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "ELB3001" || first.Location == nil || first.Location.File != "xor.bsv" || first.Location.StartLine != 2 {
		t.Fatalf("first = %+v", first)
	}
	if len(first.Notes) != 1 {
		t.Fatalf("notes = %+v", first.Notes)
	}
	if out.Diagnostics[1].Location != nil {
		t.Fatalf("IO diagnostic has a location")
	}

	buf.Reset()
	if err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	out = diagfmt.DiagnosticsOutput{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 {
		t.Fatalf("Max ignored: count = %d", out.Count)
	}
}

func TestTokens(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.bsv", []byte("a ^ b;"))
	toks := lexer.New(fs.Get(id), lexer.Options{}).All()
	var buf bytes.Buffer
	if err := diagfmt.FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"a"`) || !strings.Contains(buf.String(), "EOF") {
		t.Fatalf("pretty tokens:\n%s", buf.String())
	}
	buf.Reset()
	if err := diagfmt.FormatTokensJSON(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	var out []diagfmt.TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(toks) || out[0].Text != "a" || out[0].Line != 1 {
		t.Fatalf("json tokens = %+v", out)
	}
}

const moduleSrc = `
module Counter;
    Reg#(Bit#(4)) count(0);
    input Bool enable;
    method Bit#(4) getCount = count;
    rule increment;
        if (enable) count <= count + 1;
    endrule
endmodule
`

func TestOutline(t *testing.T) {
	b, file, fs := testkit.ParseSource(t, "counter.bsv", moduleSrc)
	root, err := diagfmt.Outline(b, file, fs)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 || root.Children[0].Type != "Module" || root.Children[0].Name != "Counter" {
		t.Fatalf("items = %+v", root.Children)
	}
	var buf bytes.Buffer
	if err := diagfmt.FormatASTPretty(&buf, b, file, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"└─ Module Counter", "Input enable: Bool", "Method getCount: Bit#(4)", "Rule increment", "If: if (enable) count <= count + 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("outline lacks %q:\n%s", want, out)
		}
	}
}
