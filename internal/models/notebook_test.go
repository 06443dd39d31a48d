package models

import "testing"

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Biology", "biology", "", "  ", "Cell Theory", "BIOLOGY"})
	want := []string{"biology", "cell theory"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if out := NormalizeTags(nil); out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("  the quick\nbrown\tfox "); n != 4 {
		t.Fatalf("expected 4 words, got %d", n)
	}
	if n := WordCount(""); n != 0 {
		t.Fatalf("expected 0 words, got %d", n)
	}
}
