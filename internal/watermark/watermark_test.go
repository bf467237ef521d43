package watermark

import (
	"context"
	"errors"
	"testing"

	"github.com/valpere/feedmunger/internal/feed"
)

type searchCall struct {
	account string
	since   feed.PostID
	limit   int
}

type mockSearcher struct {
	searchFunc func(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error)
	calls      []searchCall
}

func (m *mockSearcher) Search(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error) {
	m.calls = append(m.calls, searchCall{account, since, limit})
	if m.searchFunc != nil {
		return m.searchFunc(ctx, account, since, limit)
	}
	return nil, nil
}

func posts(ids ...string) []feed.Post {
	out := make([]feed.Post, len(ids))
	for i, id := range ids {
		out[i] = feed.Post{ID: feed.PostID(id), Text: "post " + id}
	}
	return out
}

func TestTracker_Latest(t *testing.T) {
	s := &mockSearcher{searchFunc: func(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error) {
		return posts("900"), nil
	}}

	mark, err := NewTracker(s, "munged").Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mark.Valid || mark.ID != "900" {
		t.Errorf("mark = %+v", mark)
	}
	if len(s.calls) != 1 || s.calls[0].account != "munged" || s.calls[0].limit != 1 || s.calls[0].since != "" {
		t.Errorf("unexpected search calls %+v", s.calls)
	}
}

func TestTracker_Latest_EmptyDestination(t *testing.T) {
	mark, err := NewTracker(&mockSearcher{}, "munged").Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mark.Valid {
		t.Errorf("expected absent mark, got %+v", mark)
	}
	if mark.String() != "none" {
		t.Errorf("String() = %q", mark.String())
	}
}

func TestTracker_Latest_Error(t *testing.T) {
	boom := errors.New("401")
	s := &mockSearcher{searchFunc: func(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error) {
		return nil, boom
	}}
	if _, err := NewTracker(s, "munged").Latest(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestFetcher_FetchSince_NoMark(t *testing.T) {
	s := &mockSearcher{searchFunc: func(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error) {
		return posts("30", "20", "10"), nil
	}}

	got, err := NewFetcher(s).FetchSince(context.Background(), "source", Mark{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(got))
	}
	if s.calls[0].since != "" || s.calls[0].limit != 10 {
		t.Errorf("absent mark must not bound the search: %+v", s.calls[0])
	}
}

func TestFetcher_FetchSince_DiscardsAtOrBeforeMark(t *testing.T) {
	s := &mockSearcher{searchFunc: func(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error) {
		// A misbehaving service that ignores since.
		return posts("130", "120", "100", "99"), nil
	}}

	got, err := NewFetcher(s).FetchSince(context.Background(), "source", Mark{ID: "100", Valid: true}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "130" || got[1].ID != "120" {
		t.Errorf("got %+v", got)
	}
	if s.calls[0].since != "100" {
		t.Errorf("since = %q", s.calls[0].since)
	}
	for _, p := range got {
		if !feed.After(p.ID, "100") {
			t.Errorf("post %s is not after the watermark", p.ID)
		}
	}
}

func TestFetcher_FetchSince_TruncatesToLimit(t *testing.T) {
	s := &mockSearcher{searchFunc: func(ctx context.Context, account string, since feed.PostID, limit int) ([]feed.Post, error) {
		return posts("5", "4", "3", "2", "1"), nil
	}}

	got, err := NewFetcher(s).FetchSince(context.Background(), "source", Mark{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "5" || got[1].ID != "4" {
		t.Errorf("got %+v", got)
	}
}

func TestFetcher_FetchSince_InvalidLimit(t *testing.T) {
	s := &mockSearcher{}
	if _, err := NewFetcher(s).FetchSince(context.Background(), "source", Mark{}, 0); err == nil {
		t.Error("expected error for zero limit")
	}
	if len(s.calls) != 0 {
		t.Error("no search expected for invalid limit")
	}
}
