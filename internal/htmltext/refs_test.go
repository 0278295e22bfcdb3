package htmltext_test

import (
	"reflect"
	"testing"

	"deckrip/internal/htmltext"
)

func TestRefsScanPartitionsByKind(t *testing.T) {
	refs := htmltext.NewRefs()
	refs.Scan(
		`See <img src="a.jpg"> twice <img src="a.jpg">`,
		`hear [sound:b.mp3] and [sound:c.wav]`,
	)

	if len(refs.Images) != 1 {
		t.Fatalf("images: %v", refs.Images)
	}
	if len(refs.Sounds) != 2 {
		t.Fatalf("sounds: %v", refs.Sounds)
	}
	if !refs.Contains("a.jpg") || !refs.Contains("c.wav") {
		t.Fatal("Contains missed a reference")
	}
	if refs.Contains("d.png") {
		t.Fatal("Contains reported an absent file")
	}
	if refs.Len() != 3 {
		t.Fatalf("Len: got %d want 3", refs.Len())
	}

	want := []string{"a.jpg", "b.mp3", "c.wav"}
	if got := refs.Filenames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Filenames: got %v want %v", got, want)
	}
}

func TestRefsEmptyCorpus(t *testing.T) {
	refs := htmltext.NewRefs()
	refs.Scan("no media here", "")
	if refs.Len() != 0 {
		t.Fatalf("expected empty set, got %v", refs.Filenames())
	}
}

func TestRefsSameNameBothKindsCountedOnce(t *testing.T) {
	refs := htmltext.NewRefs()
	refs.Scan(`<img src="dual.png"> [sound:dual.png]`)
	if refs.Len() != 1 {
		t.Fatalf("Len: got %d want 1", refs.Len())
	}
	if got := refs.Filenames(); len(got) != 1 || got[0] != "dual.png" {
		t.Fatalf("Filenames: %v", got)
	}
}
