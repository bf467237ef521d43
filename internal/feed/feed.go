// Package feed defines the social-feed collaborators of the relay and an
// X (Twitter) API v2 implementation of them.
package feed

import (
	"context"
	"strings"
)

// PostID identifies a post on the feed service. It is opaque to the relay
// except for ordering numeric IDs (see After).
type PostID string

// Post is a single post fetched from an account.
type Post struct {
	ID      PostID
	Text    string
	Account string
	// Reshare is set when the feed service itself marks the post as a
	// repost of another account's content.
	Reshare bool
}

// Searcher lists an account's posts newest-first. An empty since applies no
// lower bound; otherwise only posts newer than since are returned.
type Searcher interface {
	Search(ctx context.Context, account string, since PostID, limit int) ([]Post, error)
}

// Poster publishes a new post on the authenticated account.
type Poster interface {
	Post(ctx context.Context, text string) (PostID, error)
}

// After reports whether id orders strictly after other. Numeric IDs are
// compared by value; for anything else only inequality is known, so After
// returns true for any id != other.
func After(id, other PostID) bool {
	a, b := string(id), string(other)
	if a == b {
		return false
	}
	if !isDigits(a) || !isDigits(b) {
		return true
	}
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
