// Package sanitize prepares raw post text for translation and republishing.
package sanitize

import (
	"strings"

	"github.com/valpere/feedmunger/internal/markup"
)

// Placeholder replaces mention and hashtag sigils. It is not itself a sigil
// on the destination platform.
const Placeholder = "_"

var sigils = strings.NewReplacer("@", Placeholder, "#", Placeholder)

// Text strips markup, trims surrounding whitespace and neutralizes '@' and
// '#' so the republished post neither mentions accounts nor creates
// hashtags. Text(Text(s)) == Text(s).
func Text(s string) string {
	s = markup.Strip(s)
	s = strings.TrimSpace(s)
	return sigils.Replace(s)
}
