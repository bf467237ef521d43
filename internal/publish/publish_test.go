package publish

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/valpere/feedmunger/internal/feed"
)

type mockPoster struct {
	postFunc  func(ctx context.Context, text string) (feed.PostID, error)
	callCount atomic.Int32
	lastText  string
}

func (m *mockPoster) Post(ctx context.Context, text string) (feed.PostID, error) {
	m.callCount.Add(1)
	m.lastText = text
	if m.postFunc != nil {
		return m.postFunc(ctx, text)
	}
	return "1001", nil
}

func TestPublisher_DryRun(t *testing.T) {
	poster := &mockPoster{}
	p := New(poster, true, DefaultMaxLength, zerolog.Nop())

	out, err := p.Publish(context.Background(), "Hello _world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.DryRun || out.Text != "Hello _world" || out.PostID != "" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if poster.callCount.Load() != 0 {
		t.Errorf("dry run must not post, got %d calls", poster.callCount.Load())
	}
}

func TestPublisher_DryRun_NilPoster(t *testing.T) {
	p := New(nil, true, 0, zerolog.Nop())
	if _, err := p.Publish(context.Background(), "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPublisher_Publish(t *testing.T) {
	poster := &mockPoster{}
	p := New(poster, false, DefaultMaxLength, zerolog.Nop())

	out, err := p.Publish(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.DryRun || out.PostID != "1001" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if poster.lastText != "Hello" {
		t.Errorf("posted %q", poster.lastText)
	}
}

func TestPublisher_Publish_Error(t *testing.T) {
	boom := errors.New("403 duplicate content")
	poster := &mockPoster{postFunc: func(ctx context.Context, text string) (feed.PostID, error) {
		return "", boom
	}}

	_, err := New(poster, false, 0, zerolog.Nop()).Publish(context.Background(), "Hello")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestPublisher_Publish_Truncates(t *testing.T) {
	poster := &mockPoster{}
	p := New(poster, false, 10, zerolog.Nop())

	if _, err := p.Publish(context.Background(), strings.Repeat("ж", 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := utf8.RuneCountInString(poster.lastText); n != 10 {
		t.Errorf("posted %d runes, want 10", n)
	}
	if !strings.HasSuffix(poster.lastText, ellipsis) {
		t.Errorf("expected ellipsis, got %q", poster.lastText)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 7, "hello…"},
		{"abcdef", 1, "…"},
		{"unlimited text", 0, "unlimited text"},
		{"Привет мир", 4, "При…"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
