// Package watermark finds where the previous relay run stopped and fetches
// the source posts published since.
//
// The destination account is the only ledger: its newest post carries the
// ID of the last source post relayed, because every relayed post is
// published in source order.
package watermark

import (
	"context"
	"fmt"

	"github.com/valpere/feedmunger/internal/feed"
)

// Mark is the exclusive lower bound for fetching. The zero Mark is absent.
type Mark struct {
	ID    feed.PostID
	Valid bool
}

func (m Mark) String() string {
	if !m.Valid {
		return "none"
	}
	return string(m.ID)
}

// Tracker reads the watermark from the destination account.
type Tracker struct {
	searcher    feed.Searcher
	destination string
}

func NewTracker(searcher feed.Searcher, destination string) *Tracker {
	return &Tracker{searcher: searcher, destination: destination}
}

// Latest returns the ID of the destination account's most recent post, or
// an absent Mark when the account has none.
func (t *Tracker) Latest(ctx context.Context) (Mark, error) {
	posts, err := t.searcher.Search(ctx, t.destination, "", 1)
	if err != nil {
		return Mark{}, fmt.Errorf("watermark from %s: %w", t.destination, err)
	}
	if len(posts) == 0 {
		return Mark{}, nil
	}
	return Mark{ID: posts[0].ID, Valid: true}, nil
}

// Fetcher lists new posts of a source account.
type Fetcher struct {
	searcher feed.Searcher
}

func NewFetcher(searcher feed.Searcher) *Fetcher {
	return &Fetcher{searcher: searcher}
}

// FetchSince returns at most limit posts of account newer than mark,
// newest first. Posts at or before the mark are discarded even if the feed
// service returns them.
func (f *Fetcher) FetchSince(ctx context.Context, account string, mark Mark, limit int) ([]feed.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("fetch limit must be positive, got %d", limit)
	}

	var since feed.PostID
	if mark.Valid {
		since = mark.ID
	}

	posts, err := f.searcher.Search(ctx, account, since, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s since %s: %w", account, mark, err)
	}

	fresh := posts[:0:0]
	for _, p := range posts {
		if mark.Valid && !feed.After(p.ID, mark.ID) {
			continue
		}
		fresh = append(fresh, p)
		if len(fresh) == limit {
			break
		}
	}
	return fresh, nil
}
