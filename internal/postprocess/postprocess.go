// Package postprocess strips the chatter that LLM-backed translators wrap
// around their answer, so only the translated text reaches the next hop.
package postprocess

import (
	"regexp"
	"strings"
)

var (
	// Closed reasoning blocks. RE2 has no backreferences, so every tag
	// pair is spelled out.
	reasoningRe = regexp.MustCompile(`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`)

	// A reasoning block the model never closed runs to the end of the text.
	openReasoningRe = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>).*$`)

	// "Sure! Here is the translation into Polish:" and shorter variants.
	// A colon is required so ordinary sentences are left alone.
	preambleRe = regexp.MustCompile(`(?i)^(?:(?:sure|certainly|of course)[,.!]?\s+)?(?:here(?:'s| is)\s+)?(?:the\s+)?(?:translation|translated text)(?:\s+(?:in|to|into)\s+[\p{L}()-]+)?\s*:`)
)

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'“': '”',
	'„': '“',
}

// Clean removes reasoning blocks, a leading "Translation:" style preamble,
// and one pair of quotes wrapping the whole answer.
func Clean(text string) string {
	text = dropReasoning(text)
	text = dropPreamble(text)
	return unquote(text)
}

func dropReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func dropPreamble(text string) string {
	if loc := preambleRe.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
	}
	return strings.TrimSpace(text)
}

func unquote(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[len(runes)-1] == closing {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return text
}
