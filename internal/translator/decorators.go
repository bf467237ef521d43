package translator

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/feedmunger/internal/retry"
)

// Memory is a translation cache keyed by text, language pair and service.
type Memory interface {
	Lookup(ctx context.Context, text, sourceLang, targetLang, service string) (string, bool, error)
	Save(ctx context.Context, text, sourceLang, targetLang, translated, service string) error
}

type retrying struct {
	TranslationService
	policy retry.Policy
}

// WithRetry retries failed calls of svc with exponential backoff. Errors
// marked retry.Permanent are returned at once.
func WithRetry(svc TranslationService, policy retry.Policy) TranslationService {
	return &retrying{TranslationService: svc, policy: policy}
}

func (s *retrying) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	var result *ServiceResult
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var err error
		result, err = s.TranslationService.Translate(ctx, req)
		return err
	})
	return result, err
}

type paced struct {
	TranslationService
	limiter *rate.Limiter
}

// WithRateLimit spaces calls of svc to at most perSecond per second. A
// non-positive perSecond returns svc unchanged.
func WithRateLimit(svc TranslationService, perSecond float64) TranslationService {
	if perSecond <= 0 {
		return svc
	}
	return &paced{TranslationService: svc, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (s *paced) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return &ServiceResult{ServiceName: s.Name(), Error: err.Error()}, err
	}
	return s.TranslationService.Translate(ctx, req)
}

type remembering struct {
	TranslationService
	mem Memory
	log zerolog.Logger
}

// WithMemory answers repeated hops from the entries svc itself made in mem
// and stores every non-empty translation svc returns. Cache failures are
// logged and never fail a hop.
func WithMemory(svc TranslationService, mem Memory, log zerolog.Logger) TranslationService {
	return &remembering{
		TranslationService: svc,
		mem:                mem,
		log:                log.With().Str("component", "memory").Str("service", svc.Name()).Logger(),
	}
}

func (s *remembering) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	cached, found, err := s.mem.Lookup(ctx, req.Text, req.SourceLang, req.TargetLang, s.Name())
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("from", req.SourceLang).Str("to", req.TargetLang).Msg("memory lookup failed")
	case found:
		return &ServiceResult{ServiceName: s.Name(), TranslatedText: cached, Cached: true}, nil
	}

	result, err := s.TranslationService.Translate(ctx, req)
	if err != nil {
		return result, err
	}
	if strings.TrimSpace(result.TranslatedText) != "" {
		if err := s.mem.Save(ctx, req.Text, req.SourceLang, req.TargetLang, result.TranslatedText, s.Name()); err != nil {
			s.log.Warn().Err(err).Str("from", req.SourceLang).Str("to", req.TargetLang).Msg("memory save failed")
		}
	}
	return result, nil
}
