package diag

import (
	"testing"

	"minisynth/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(3)
	spans := []uint32{9, 1, 5, 7}
	for _, s := range spans {
		bag.Add(NewError(SynUnexpectedToken, source.Span{Start: s, End: s + 1}, "x"))
	}
	if bag.Len() != 3 {
		t.Fatalf("limit not enforced: %d", bag.Len())
	}
	bag.Sort()
	items := bag.Items()
	if items[0].Primary.Start != 1 || items[2].Primary.Start != 9 {
		t.Fatalf("unexpected order: %+v", items)
	}
	if !bag.HasErrors() {
		t.Fatalf("HasErrors = false")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 2, End: 4}
	r.Report(LexUnknownChar, SevError, sp, "unknown '$'", nil)
	r.Report(LexUnknownChar, SevError, sp, "unknown '$'", nil)
	r.Report(LexUnknownChar, SevWarning, sp, "unknown '$'", nil)
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics after dedup, got %d", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexBadNumber:          "LEX1003",
		SynExpectSemicolon:    "SYN2003",
		ElbInvariantViolation: "ELB3005",
		IOLoadFileError:       "IO4001",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d: got %s, want %s", code, got, want)
		}
	}
}
