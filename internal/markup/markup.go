// Package markup removes HTML/XML tags from short texts.
package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Strip removes tags, comments and doctype declarations and returns the
// remaining text exactly as written, entities included. A '<' that does not
// open a tag ("5 < 6", "<3") is kept.
func Strip(s string) string {
	return walk(s, func(z *html.Tokenizer, buf *bytes.Buffer) {
		buf.Write(z.Raw())
	})
}

// Text is like Strip but decodes character references, so "&amp;" becomes "&".
// It is meant for backend responses that wrap the payload in an XML element.
func Text(s string) string {
	return walk(s, func(z *html.Tokenizer, buf *bytes.Buffer) {
		buf.Write(z.Text())
	})
}

func walk(s string, text func(z *html.Tokenizer, buf *bytes.Buffer)) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var buf bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF at the end of input; the tokenizer reports nothing else
			// for an in-memory reader.
			return buf.String()
		case html.TextToken:
			text(z, &buf)
		}
	}
}
