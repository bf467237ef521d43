// Package orchestrator runs one relay pass: find the watermark, fetch the
// backlog, and take each post through filter, sanitizer, translation chain
// and publisher, oldest first.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/feedmunger/internal/chain"
	"github.com/valpere/feedmunger/internal/feed"
	"github.com/valpere/feedmunger/internal/filter"
	"github.com/valpere/feedmunger/internal/metrics"
	"github.com/valpere/feedmunger/internal/publish"
	"github.com/valpere/feedmunger/internal/sanitize"
	"github.com/valpere/feedmunger/internal/watermark"
)

// State is the position of a post in the relay.
type State string

const (
	StateFetched   State = "fetched"
	StateFiltered  State = "filtered"
	StateSanitized State = "sanitized"
	StateChaining  State = "chaining"
	StateDropped   State = "dropped"
	StateChained   State = "chained"
	StatePublished State = "published"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateFiltered, StateDropped, StatePublished, StateFailed:
		return true
	}
	return false
}

// Outcome summarises how a post left the relay.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomePublished Outcome = "published"
	OutcomeDropped   Outcome = "dropped"
	OutcomeFailed    Outcome = "failed"
)

// ReasonEmptyTranslation is the Reason of dropped posts.
const ReasonEmptyTranslation = "empty_translation"

// Result is the per-post record of a run. It is for reporting only.
type Result struct {
	PostID  feed.PostID
	Outcome Outcome
	State   State
	// Reason is set for skipped and dropped posts.
	Reason string
	// Text is the published (or, in dry-run, the would-be published) text.
	Text        string
	Hops        []chain.Hop
	PublishedID feed.PostID
	DryRun      bool
	Err         error
}

type Report struct {
	Mark       watermark.Mark
	Fetched    int
	Results    []Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns the number of results with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

type Tracker interface {
	Latest(ctx context.Context) (watermark.Mark, error)
}

type Fetcher interface {
	FetchSince(ctx context.Context, account string, mark watermark.Mark, limit int) ([]feed.Post, error)
}

type Chain interface {
	Service() string
	Run(ctx context.Context, text string) (chain.Run, error)
}

type Publisher interface {
	Publish(ctx context.Context, text string) (publish.Outcome, error)
}

type Config struct {
	SourceAccount string
	FetchLimit    int
}

// Deps are the collaborators of a relay run. Metrics may be nil.
type Deps struct {
	Tracker   Tracker
	Fetcher   Fetcher
	Filter    *filter.Filter
	Chain     Chain
	Publisher Publisher
	Metrics   *metrics.Recorder
	Log       zerolog.Logger
}

type Orchestrator struct {
	config Config
	deps   Deps
	log    zerolog.Logger
}

func New(config Config, deps Deps) *Orchestrator {
	if deps.Filter == nil {
		deps.Filter = filter.New(true)
	}
	return &Orchestrator{
		config: config,
		deps:   deps,
		log:    deps.Log.With().Str("component", "relay").Logger(),
	}
}

// Run performs one relay pass. Failing to read the watermark or the backlog
// aborts the run; a post whose translation or publish fails is recorded as
// failed and the next post is processed. Cancelling ctx stops the run
// before the next post.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	report := Report{StartedAt: time.Now()}

	mark, err := o.deps.Tracker.Latest(ctx)
	if err != nil {
		return report, fmt.Errorf("read watermark: %w", err)
	}
	report.Mark = mark
	o.log.Info().Str("watermark", mark.String()).Msg("resuming")

	posts, err := o.deps.Fetcher.FetchSince(ctx, o.config.SourceAccount, mark, o.config.FetchLimit)
	if err != nil {
		return report, fmt.Errorf("fetch backlog: %w", err)
	}
	report.Fetched = len(posts)
	o.log.Info().Int("count", len(posts)).Str("account", o.config.SourceAccount).Msg("fetched")

	// The feed answers newest first; relay in publication order so the
	// destination's newest post is always the watermark of the next run.
	for i := len(posts) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}

		res := o.relay(ctx, posts[i])
		report.Results = append(report.Results, res)
		o.deps.Metrics.Post(string(res.Outcome))

		if res.Outcome == OutcomeFailed && ctx.Err() != nil {
			report.FinishedAt = time.Now()
			return report, ctx.Err()
		}
	}

	report.FinishedAt = time.Now()
	o.deps.Metrics.RunFinished(report.FinishedAt)
	o.log.Info().
		Int("published", report.Count(OutcomePublished)).
		Int("skipped", report.Count(OutcomeSkipped)).
		Int("dropped", report.Count(OutcomeDropped)).
		Int("failed", report.Count(OutcomeFailed)).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("run complete")
	return report, nil
}

func (o *Orchestrator) relay(ctx context.Context, p feed.Post) Result {
	res := Result{PostID: p.ID}
	log := o.log.With().Str("post_id", string(p.ID)).Logger()

	o.enter(&res, log, StateFetched).Str("text", p.Text).Msg("post")

	if reason, skip := o.deps.Filter.Skip(p); skip {
		res.Outcome = OutcomeSkipped
		res.Reason = reason
		o.enter(&res, log, StateFiltered).Str("reason", reason).Msg("skipped")
		return res
	}

	text := sanitize.Text(p.Text)
	o.enter(&res, log, StateSanitized).Str("text", text).Msg("sanitized")

	o.enter(&res, log, StateChaining).Msg("translating")
	run, err := o.deps.Chain.Run(ctx, text)
	res.Hops = run.Hops
	o.recordHops(run.Hops, err)

	switch {
	case errors.Is(err, chain.ErrEmptyTranslation):
		res.Outcome = OutcomeDropped
		res.Reason = ReasonEmptyTranslation
		res.Err = err
		o.enter(&res, log, StateDropped).Int("hops", len(run.Hops)).Msg("dropped")
		return res
	case err != nil:
		return o.fail(&res, log, err)
	}
	o.enter(&res, log, StateChained).Int("hops", len(run.Hops)).Str("text", run.Text).Msg("chained")

	out, err := o.deps.Publisher.Publish(ctx, run.Text)
	if err != nil {
		return o.fail(&res, log, err)
	}
	res.Outcome = OutcomePublished
	res.Text = out.Text
	res.DryRun = out.DryRun
	res.PublishedID = out.PostID
	o.enter(&res, log, StatePublished).
		Bool("dry_run", out.DryRun).
		Str("published_id", string(out.PostID)).
		Str("text", out.Text).
		Msg("published")
	return res
}

func (o *Orchestrator) enter(res *Result, log zerolog.Logger, s State) *zerolog.Event {
	res.State = s
	if s == StateFailed {
		return log.Error().Str("state", string(s))
	}
	return log.Info().Str("state", string(s))
}

func (o *Orchestrator) fail(res *Result, log zerolog.Logger, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	o.enter(res, log, StateFailed).Err(err).Msg("failed")
	return *res
}

func (o *Orchestrator) recordHops(hops []chain.Hop, err error) {
	for i, h := range hops {
		status := metrics.StatusOK
		switch {
		case h.Cached:
			status = metrics.StatusCached
		case i == len(hops)-1 && errors.Is(err, chain.ErrEmptyTranslation):
			status = metrics.StatusEmpty
		}
		o.deps.Metrics.Hop(h.Service, status, h.Latency)
	}
	if err != nil && !errors.Is(err, chain.ErrEmptyTranslation) {
		o.deps.Metrics.Hop(o.deps.Chain.Service(), metrics.StatusError, 0)
	}
}
