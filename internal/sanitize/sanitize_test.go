package sanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "mentions and hashtags", input: "Hello #world @friend", want: "Hello _world _friend"},
		{name: "markup stripped", input: "<p>Read <a href=\"x\">this</a></p>", want: "Read this"},
		{name: "whitespace trimmed", input: "  \n spaced out \t", want: "spaced out"},
		{name: "trim after strip", input: "<br/>  padded  <br/>", want: "padded"},
		{name: "sigils inside tags removed with tag", input: "<a href=\"#top\">top</a> @me", want: "top _me"},
		{name: "repeated sigils", input: "##@@", want: "____"},
		{name: "email address", input: "mail me@example.com", want: "mail me_example.com"},
		{name: "empty", input: "", want: ""},
		{name: "unicode", input: "Привіт #світ", want: "Привіт _світ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello #world @friend",
		"<b>bold</b> and <i>italic</i>",
		"   padded   ",
		"Tom &amp; Jerry",
		"5 < 6 and I <3 Go",
		"already clean text",
	}

	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Errorf("Text not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestText_NoSigilsRemain(t *testing.T) {
	got := Text("@a #b <i>@c</i> #d@e")
	if strings.ContainsAny(got, "@#") {
		t.Errorf("sigils left in %q", got)
	}
}
