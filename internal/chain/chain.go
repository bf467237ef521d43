// Package chain drives text through an ordered sequence of translation hops
// that leaves the source language and returns to it.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/feedmunger/internal/placeholder"
	"github.com/valpere/feedmunger/internal/translator"
)

var (
	// ErrEmptyTranslation is returned when a hop yields blank text. The
	// chain stops at that hop.
	ErrEmptyTranslation = errors.New("empty translation")

	ErrNoLanguages    = errors.New("language chain is empty")
	ErrBlankLanguage  = errors.New("language chain contains a blank code")
	ErrSourceInChain  = errors.New("language chain contains the source language")
	ErrMissingService = errors.New("no translation service")
)

// Languages is the list of intermediate languages, in hop order. The return
// hop to the source language is implicit.
type Languages []string

// Validate checks that langs is usable as a chain away from source.
func (langs Languages) Validate(source string) error {
	if len(langs) == 0 {
		return ErrNoLanguages
	}
	for i, l := range langs {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w at position %d", ErrBlankLanguage, i)
		}
		if strings.EqualFold(l, source) {
			return fmt.Errorf("%w at position %d: %s", ErrSourceInChain, i, l)
		}
	}
	return nil
}

// Sequence returns [source, langs..., source]. Hop i translates seq[i] to
// seq[i+1], so a chain makes len(langs)+1 calls.
func Sequence(source string, langs Languages) []string {
	seq := make([]string, 0, len(langs)+2)
	seq = append(seq, source)
	seq = append(seq, langs...)
	return append(seq, source)
}

// Hop records one translation call of a run.
type Hop struct {
	From    string
	To      string
	Text    string
	Service string
	Latency time.Duration
	Cached  bool
}

// Run is the trace of one text through the chain. Text is the output of the
// last completed hop.
type Run struct {
	Text string
	Hops []Hop
}

// Executor translates text along a fixed language sequence with a single
// translation service.
type Executor struct {
	svc     translator.TranslationService
	seq     []string
	timeout time.Duration
	links   bool
	log     zerolog.Logger
}

// New validates langs and returns an Executor. A non-positive timeout
// leaves hops bounded only by ctx.
func New(svc translator.TranslationService, source string, langs Languages, timeout time.Duration, log zerolog.Logger) (*Executor, error) {
	if svc == nil {
		return nil, ErrMissingService
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: source language", ErrBlankLanguage)
	}
	if err := langs.Validate(source); err != nil {
		return nil, err
	}
	return &Executor{
		svc:     svc,
		seq:     Sequence(source, langs),
		timeout: timeout,
		log:     log.With().Str("component", "chain").Str("service", svc.Name()).Logger(),
	}, nil
}

// Service returns the name of the translation service.
func (e *Executor) Service() string {
	return e.svc.Name()
}

// ProtectLinks makes e hide URLs behind markers for the whole chain and
// restore them in the final text.
func (e *Executor) ProtectLinks() *Executor {
	e.links = true
	return e
}

// Sequence returns the full language sequence of e.
func (e *Executor) Sequence() []string {
	return append([]string(nil), e.seq...)
}

// Run feeds text through every hop in order. On error the returned Run holds
// the hops completed so far. Blank text fails with ErrEmptyTranslation
// before any hop.
func (e *Executor) Run(ctx context.Context, text string) (Run, error) {
	if strings.TrimSpace(text) == "" {
		return Run{Text: text}, fmt.Errorf("blank input: %w", ErrEmptyTranslation)
	}

	var links []string
	if e.links {
		text, links = placeholder.Protect(text)
	}
	run := Run{Text: text, Hops: make([]Hop, 0, len(e.seq)-1)}

	for i := 0; i+1 < len(e.seq); i++ {
		from, to := e.seq[i], e.seq[i+1]

		result, err := e.hop(ctx, translator.TranslateRequest{Text: run.Text, SourceLang: from, TargetLang: to})
		if err != nil {
			return run, fmt.Errorf("hop %d %s->%s: %w", i+1, from, to, err)
		}

		h := Hop{
			From:    from,
			To:      to,
			Text:    result.TranslatedText,
			Service: result.ServiceName,
			Latency: result.Latency,
			Cached:  result.Cached,
		}
		run.Hops = append(run.Hops, h)

		e.log.Debug().
			Int("hop", i+1).
			Str("from", from).
			Str("to", to).
			Dur("latency", h.Latency).
			Bool("cached", h.Cached).
			Msg("hop done")

		if strings.TrimSpace(h.Text) == "" {
			return run, fmt.Errorf("hop %d %s->%s: %w", i+1, from, to, ErrEmptyTranslation)
		}
		run.Text = h.Text
	}

	run.Text = placeholder.Restore(run.Text, links)
	return run, nil
}

func (e *Executor) hop(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	result, err := e.svc.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%s returned no result", e.svc.Name())
	}
	return result, nil
}
