package token

import "testing"

func TestKeywordsRoundTrip(t *testing.T) {
	for text, kind := range keywords {
		if kind.String() != text {
			t.Errorf("%q: String() = %q", text, kind.String())
		}
		if !(Token{Kind: kind}).IsKeyword() {
			t.Errorf("%q not classified as keyword", text)
		}
	}
}

func TestKindNamesComplete(t *testing.T) {
	for k := Invalid; k <= RBrace; k++ {
		if k.String() == "Unknown" {
			t.Errorf("kind %d has no name", k)
		}
	}
}
