package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/valpere/feedmunger/internal/retry"
)

// GoogleService uses the Cloud Translation v2 API, which answers with JSON
// carrying a single best translation per input.
type GoogleService struct {
	opts          []option.ClientOption
	authenticated bool
}

// NewGoogleService authenticates with cfg.APIKey, or with the service
// account file in cfg.Credentials when no key is set. cfg.BaseURL overrides
// the endpoint.
func NewGoogleService(cfg ServiceConfig) *GoogleService {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.Credentials != "":
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	return &GoogleService{opts: opts, authenticated: cfg.APIKey != "" || cfg.Credentials != ""}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetTag, err := language.Parse(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, retry.Permanent(fmt.Errorf("invalid target language %q: %w", req.TargetLang, err))
	}
	sourceTag, err := language.Parse(req.SourceLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid source language: %v", err)
		return result, retry.Permanent(fmt.Errorf("invalid source language %q: %w", req.SourceLang, err))
	}

	client, err := translate.NewClient(ctx, s.opts...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, retry.Permanent(fmt.Errorf("failed to create client: %w", err))
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, &translate.Options{
		Source: sourceTag,
		Format: translate.Text,
	})
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}

	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = translations[0].Text
	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	if !s.authenticated {
		return fmt.Errorf("Google Translate API key or credentials not configured")
	}
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	client, err := translate.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	langs, err := client.SupportedLanguages(ctx, language.English)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Tag.String())
	}
	return codes, nil
}
