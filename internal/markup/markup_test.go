package markup

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "Hello world", want: "Hello world"},
		{name: "inline tags", input: "Hello <b>world</b>", want: "Hello world"},
		{name: "anchor", input: `read <a href="https://example.com">this</a> now`, want: "read this now"},
		{name: "comment", input: "a<!-- hidden -->b", want: "ab"},
		{name: "self closing", input: "line<br/>break", want: "linebreak"},
		{name: "entities kept", input: "Tom &amp; Jerry", want: "Tom &amp; Jerry"},
		{name: "less than sign", input: "5 < 6", want: "5 < 6"},
		{name: "heart", input: "I <3 Go", want: "I <3 Go"},
		{name: "sigils untouched", input: "<p>Hello #world @friend</p>", want: "Hello #world @friend"},
		{name: "empty", input: "", want: ""},
		{name: "only tags", input: "<p></p>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "translator response",
			input: `<string xmlns="http://schemas.microsoft.com/2003/10/Serialization/">Привет мир</string>`,
			want:  "Привет мир",
		},
		{name: "decodes entities", input: "<string>Tom &amp; Jerry</string>", want: "Tom & Jerry"},
		{name: "plain", input: "hola", want: "hola"},
		{name: "empty element", input: "<string></string>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
