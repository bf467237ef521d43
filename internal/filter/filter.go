// Package filter decides which fetched posts are not relayed.
package filter

import (
	"strings"

	"github.com/valpere/feedmunger/internal/feed"
)

// ReshareMarker is the prefix that marks a reshared post.
const ReshareMarker = "RT"

// ReasonReshare is reported for posts dropped as reshares.
const ReasonReshare = "reshare"

// IsReshare reports whether text starts with ReshareMarker at position zero.
// The check is case-sensitive and does not skip leading whitespace.
func IsReshare(text string) bool {
	return strings.HasPrefix(text, ReshareMarker)
}

// Filter applies the reshare policy.
type Filter struct {
	ignoreReshares bool
}

// New returns a Filter. When ignoreReshares is false no post is skipped.
func New(ignoreReshares bool) *Filter {
	return &Filter{ignoreReshares: ignoreReshares}
}

// Skip reports whether p must not be relayed and why. A post counts as a
// reshare when its text carries the marker or the feed service flagged it.
func (f *Filter) Skip(p feed.Post) (string, bool) {
	if !f.ignoreReshares {
		return "", false
	}
	if IsReshare(p.Text) || p.Reshare {
		return ReasonReshare, true
	}
	return "", false
}
