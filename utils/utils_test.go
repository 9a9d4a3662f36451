package utils

import "testing"

func TestNewIDLengthAndUniqueness(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 17 {
		t.Fatalf("expected 13+4 digit id, got %q (%d)", a, len(a))
	}
	if a == b {
		t.Fatalf("two ids collided: %s", a)
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags("Ramen, sushi , ramen,, Izakaya")
	want := []string{"ramen", "sushi", "izakaya"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSplitTagsEmpty(t *testing.T) {
	if got := SplitTags(""); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}
