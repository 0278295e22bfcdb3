package htmltext_test

import (
	"testing"

	"deckrip/internal/htmltext"
)

func TestCleanStripsTagsKeepsReferences(t *testing.T) {
	raw := `<p>See <img src="x.png"> and [sound:y.mp3]</p>`
	want := `See <img src="x.png"> and [sound:y.mp3]`
	if got := htmltext.Clean(raw); got != want {
		t.Fatalf("Clean(%q) = %q, want %q", raw, got, want)
	}
}

func TestCleanIdempotentOnCleanInput(t *testing.T) {
	clean := `{{c1::aortic stenosis}} murmur radiates to <img src="carotid.png">`
	if got := htmltext.Clean(clean); got != clean {
		t.Fatalf("Clean changed already-clean text:\n got %q\nwant %q", got, clean)
	}
}

func TestCleanDecodesEntities(t *testing.T) {
	if got := htmltext.Clean("A &amp; B"); got != "A & B" {
		t.Fatalf("entity decode: got %q", got)
	}
	if got := htmltext.Clean("Na&nbsp;&lt;135"); got != "Na <135" {
		t.Fatalf("entity decode: got %q", got)
	}
}

func TestCleanCanonicalizesImageTags(t *testing.T) {
	raw := `<img class="big" src='heart.jpg' width="200">`
	want := `<img src="heart.jpg">`
	if got := htmltext.Clean(raw); got != want {
		t.Fatalf("Clean(%q) = %q, want %q", raw, got, want)
	}
}

func TestCleanPreservesClozeSpans(t *testing.T) {
	raw := "<div>{{c1::IgA nephropathy::dx}} follows {{c2::URI}} by <b>days</b></div>"
	want := "{{c1::IgA nephropathy::dx}} follows {{c2::URI}} by days"
	if got := htmltext.Clean(raw); got != want {
		t.Fatalf("Clean(%q) = %q, want %q", raw, got, want)
	}
}

func TestCleanNewlineCollapse(t *testing.T) {
	// Exactly two newlines stay; three or more collapse to a blank line.
	if got := htmltext.Clean("a\n\nb"); got != "a\n\nb" {
		t.Fatalf("double newline altered: %q", got)
	}
	if got := htmltext.Clean("a\n\n\nb"); got != "a\n\nb" {
		t.Fatalf("triple newline not collapsed: %q", got)
	}
	if got := htmltext.Clean("a\n\n\n\n\nb"); got != "a\n\nb" {
		t.Fatalf("newline run not collapsed: %q", got)
	}
}

func TestCleanTrimsWhitespace(t *testing.T) {
	if got := htmltext.Clean("  \n hello \t\n"); got != "hello" {
		t.Fatalf("trim: got %q", got)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	if got := htmltext.Clean(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestCountClozeGroupsDistinct(t *testing.T) {
	text := "{{c1::A}} and {{c2::B}} and {{c1::C}}"
	if got := htmltext.CountClozeGroups(text); got != 2 {
		t.Fatalf("CountClozeGroups(%q) = %d, want 2", text, got)
	}
	if got := htmltext.CountClozeGroups("no clozes here"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := htmltext.CountClozeGroups("{{c10::hint form::extra}}"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"y", true},
		{"Y", true},
		{"yes", true},
		{"y<br>", true},
		{"<br>", false},
		{"  <div></div>  ", false},
	}
	for _, tc := range cases {
		if got := htmltext.Truthy(tc.value); got != tc.want {
			t.Errorf("Truthy(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
