package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// instantTimer fires at once and records every requested wait.
type instantTimer struct {
	waits *[]time.Duration
	c     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	*t.waits = append(*t.waits, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := newTimer
	newTimer = func() backoff.Timer {
		return &instantTimer{waits: &waits, c: make(chan time.Time, 1)}
	}
	t.Cleanup(func() { newTimer = orig })
	return &waits
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	waits := noSleep(t)
	calls := 0

	err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(*waits) != 0 {
		t.Errorf("expected no backoff, got %v", *waits)
	}
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	waits := noSleep(t)
	calls := 0

	err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Second}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("expected waits %v, got %v", want, *waits)
	}
	for i := range want {
		if (*waits)[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, (*waits)[i], want[i])
		}
	}
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	noSleep(t)
	calls := 0

	err := Do(context.Background(), Policy{MaxAttempts: 2, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	})

	if err == nil || err.Error() != "timeout" {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_StopsOnPermanent(t *testing.T) {
	noSleep(t)
	calls := 0
	base := errors.New("bad request")

	err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) error {
		calls++
		return Permanent(base)
	})

	if !errors.Is(err, base) {
		t.Errorf("expected wrapped base error, got %v", err)
	}
	if !IsPermanent(err) {
		t.Error("expected permanent error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	noSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, DefaultPolicy, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("interrupted")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_DelayCapped(t *testing.T) {
	waits := noSleep(t)

	_ = Do(context.Background(), Policy{MaxAttempts: 4, Delay: time.Second, MaxDelay: 2 * time.Second}, func(ctx context.Context) error {
		return errors.New("again")
	})

	want := []time.Duration{time.Second, 2 * time.Second, 2 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("expected waits %v, got %v", want, *waits)
	}
	for i := range want {
		if (*waits)[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, (*waits)[i], want[i])
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code      int
		permanent bool
	}{
		{400, true},
		{401, true},
		{403, true},
		{404, true},
		{429, false},
		{500, false},
		{503, false},
	}

	for _, tt := range tests {
		err := HTTPStatus(tt.code, errors.New("status"))
		if IsPermanent(err) != tt.permanent {
			t.Errorf("HTTPStatus(%d) permanent = %v, want %v", tt.code, IsPermanent(err), tt.permanent)
		}
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("expected nil")
	}
}

func TestDo_SingleAttempt(t *testing.T) {
	waits := noSleep(t)
	calls := 0

	err := Do(context.Background(), Policy{MaxAttempts: 1}, func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 || len(*waits) != 0 {
		t.Errorf("calls = %d, waits = %v", calls, *waits)
	}
}
