// Package publish sends relayed text to the destination account.
package publish

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/valpere/feedmunger/internal/feed"
)

// DefaultMaxLength is the post length limit of the destination platform.
const DefaultMaxLength = 280

const ellipsis = "…"

// Outcome describes one publish. In dry-run PostID is empty and Text is
// what would have been sent.
type Outcome struct {
	Text   string
	DryRun bool
	PostID feed.PostID
}

type Publisher struct {
	poster feed.Poster
	dryRun bool
	maxLen int
	log    zerolog.Logger
}

// New returns a Publisher. maxLen is in runes; zero disables truncation. In
// dry-run poster is never called and may be nil.
func New(poster feed.Poster, dryRun bool, maxLen int, log zerolog.Logger) *Publisher {
	return &Publisher{
		poster: poster,
		dryRun: dryRun,
		maxLen: maxLen,
		log:    log.With().Str("component", "publish").Logger(),
	}
}

func (p *Publisher) Publish(ctx context.Context, text string) (Outcome, error) {
	text = Truncate(text, p.maxLen)

	if p.dryRun {
		p.log.Info().Bool("dry_run", true).Str("text", text).Msg("would publish")
		return Outcome{Text: text, DryRun: true}, nil
	}

	id, err := p.poster.Post(ctx, text)
	if err != nil {
		return Outcome{Text: text}, fmt.Errorf("publish: %w", err)
	}
	p.log.Debug().Str("post_id", string(id)).Msg("published")
	return Outcome{Text: text, PostID: id}, nil
}

// Truncate shortens s to at most n runes, ending it with an ellipsis when
// anything was cut. A non-positive n returns s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return ellipsis
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n-1]), " \t\n") + ellipsis
}
