package translator

import (
	"fmt"
	"math/rand"

	"github.com/valpere/feedmunger/internal/placeholder"
)

// hopPrompt is the instruction given to LLM-backed services for one hop.
// Mentions and hashtags were already neutralized, so the text is plain prose.
func hopPrompt(req TranslateRequest) string {
	prompt := fmt.Sprintf("You are a translation engine. Translate the user's text from %s to %s.\n"+
		"Reply with the translation only: no explanations, no notes, no quotes.",
		req.SourceLang, req.TargetLang)
	if placeholder.Has(req.Text) {
		prompt += "\n" + placeholder.InstructionHint()
	}
	return prompt
}

// pickModel returns pinned when set, otherwise a random entry of models.
func pickModel(pinned string, models []string) string {
	if pinned != "" {
		return pinned
	}
	if len(models) == 0 {
		return ""
	}
	return models[rand.Intn(len(models))]
}
