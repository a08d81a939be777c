package source

import (
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.ms", []byte("hello world"), 0)
	id2 := fs.Add("test.ms", []byte("hello universe"), 0)
	if id1 != 0 || id2 != 1 {
		t.Fatalf("unexpected ids %d %d", id1, id2)
	}
	latest, ok := fs.GetLatest("test.ms")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d", latest, ok, id2)
	}
	if string(fs.Get(id1).Content) != "hello world" {
		t.Errorf("old version lost: %q", fs.Get(id1).Content)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("v.ms", []byte("ab\ncd\n\nef"))
	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Errorf("offset %d: got %+v, want %+v", tc.off, start, tc.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("v.ms", []byte("first\nsecond\nthird")))
	for i, want := range []string{"first", "second", "third", ""} {
		if got := f.GetLine(uint32(i + 1)); got != want {
			t.Errorf("line %d: got %q, want %q", i+1, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	in := []byte("\xEF\xBB\xBFa\r\nb\rc")
	out, flags := Normalize(in)
	if string(out) != "a\nb\rc" {
		t.Fatalf("got %q", out)
	}
	if flags&FileHadBOM == 0 || flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", flags)
	}
	// "e" + combining acute composes to U+00E9
	out, flags = Normalize([]byte("e\u0301"))
	if string(out) != "\u00e9" || flags&FileNormalizedNFC == 0 {
		t.Fatalf("NFC not applied: %q %b", out, flags)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 1}); got != a {
		t.Fatalf("cross-file cover changed span: %v", got)
	}
	if !a.Cover(b).Contains(a) {
		t.Fatalf("cover must contain its input")
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("clk")
	if in.Intern("clk") != a {
		t.Fatalf("re-interning must be stable")
	}
	if s, ok := in.Lookup(a); !ok || s != "clk" {
		t.Fatalf("Lookup = %q,%v", s, ok)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatalf("unknown id resolved")
	}
}
