// Package retry runs collaborator calls with exponential backoff.
//
// Errors are retried unless they are wrapped with Permanent or the context
// is done. Callers classify their own failures: HTTP clients mark 4xx
// responses (other than 429) as permanent and leave transport errors, 429
// and 5xx retryable.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy controls how many times a call is attempted and how long to wait
// between attempts. The delay doubles after every failed attempt.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
}

const (
	defaultMaxAttempts = 3
	defaultDelay       = time.Second
	defaultMaxDelay    = 30 * time.Second
)

// DefaultPolicy is 3 attempts waiting 1s, then 2s.
var DefaultPolicy = Policy{MaxAttempts: defaultMaxAttempts, Delay: defaultDelay, MaxDelay: defaultMaxDelay}

// newTimer returns the timer used between attempts; nil selects the
// library's real timer. Tests replace it.
var newTimer = func() backoff.Timer { return nil }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

// BackOff returns the exponential schedule of p, bounded by its attempts
// and by ctx.
func (p Policy) BackOff(ctx context.Context) backoff.BackOff {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = defaultDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Delay
	exp.MaxInterval = p.MaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1)), ctx)
}

// Do calls fn until it succeeds, returns a permanent error, the context is
// done, or the policy's attempts are exhausted. The last error fn returned
// is passed back unchanged, permanent marker included.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	err := backoff.RetryNotifyWithTimer(func() error {
		lastErr = fn(ctx)
		return lastErr
	}, p.BackOff(ctx), nil, newTimer())
	if err == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

// HTTPStatus classifies an HTTP status code: 429 and 5xx are transient,
// any other non-2xx code is permanent.
func HTTPStatus(code int, err error) error {
	if code == 429 || code >= 500 {
		return err
	}
	return Permanent(err)
}
