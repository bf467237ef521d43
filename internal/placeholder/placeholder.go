// Package placeholder shields links from the translation chain. Each URL is
// replaced by a numbered marker ([PH0], [PH1], …) before the first hop and
// put back after the last one.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reURL = regexp.MustCompile(`https?://[^\s<>"]+`)

	// Some backends insert spaces inside brackets or change the case.
	reMarker = regexp.MustCompile(`(?i)\[\s*PH\s*(\d+)\s*\]`)
)

// Protect replaces every URL in text with a marker and returns the
// originals in marker order.
func Protect(text string) (string, []string) {
	var originals []string
	text = reURL.ReplaceAllStringFunc(text, func(match string) string {
		originals = append(originals, match)
		return fmt.Sprintf("[PH%d]", len(originals)-1)
	})
	return text, originals
}

// Restore puts the originals back in place of their markers. Originals
// whose marker did not survive translation are appended at the end so no
// link is lost.
func Restore(text string, originals []string) string {
	if len(originals) == 0 {
		return text
	}

	seen := make([]bool, len(originals))
	text = reMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reMarker.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(originals) {
			return match
		}
		seen[idx] = true
		return originals[idx]
	})

	var tail []string
	for i, ok := range seen {
		if !ok {
			tail = append(tail, originals[i])
		}
	}
	if len(tail) == 0 {
		return text
	}
	return strings.TrimSpace(text + " " + strings.Join(tail, " "))
}

// Has reports whether text carries any marker.
func Has(text string) bool {
	return reMarker.MatchString(text)
}

// InstructionHint is appended to LLM prompts when the text carries markers.
func InstructionHint() string {
	return "Keep every [PHn] marker exactly as written; do not translate, move or remove them."
}
