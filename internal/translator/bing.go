package translator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/feedmunger/internal/markup"
	"github.com/valpere/feedmunger/internal/retry"
)

const bingDefaultBaseURL = "http://api.microsofttranslator.com/v2/Http.svc"

// BingService calls the Microsoft Translator HTTP endpoint, which answers
// with the translation wrapped in a <string> XML element.
type BingService struct {
	appID   string
	baseURL string
	client  *http.Client
}

func NewBingService(cfg ServiceConfig) *BingService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = bingDefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BingService{
		appID:   cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *BingService) Name() string {
	return "bing"
}

func (s *BingService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.appID == "" {
		result.Error = "Bing app ID required"
		return result, retry.Permanent(fmt.Errorf("Bing app ID required"))
	}

	q := url.Values{}
	q.Set("appId", s.appID)
	q.Set("text", req.Text)
	q.Set("from", req.SourceLang)
	q.Set("to", req.TargetLang)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/Translate?"+q.Encode(), nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, retry.Permanent(err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read response: %v", err)
		return result, err
	}

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("API returned status %d: %s", resp.StatusCode, markup.Text(string(body)))
		return result, retry.HTTPStatus(resp.StatusCode, fmt.Errorf("API returned status %d", resp.StatusCode))
	}

	result.TranslatedText = strings.TrimSpace(markup.Text(string(body)))
	return result, nil
}

func (s *BingService) IsAvailable(ctx context.Context) error {
	if s.appID == "" {
		return fmt.Errorf("Bing app ID not configured")
	}
	return nil
}

func (s *BingService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{
		"ar", "bg", "ca", "zh-CHS", "zh-CHT", "cs", "da", "nl", "en", "et",
		"fi", "fr", "de", "el", "ht", "he", "hi", "hu", "id", "it",
		"ja", "ko", "lv", "lt", "no", "pl", "pt", "ro", "ru", "sk",
		"sl", "es", "sv", "th", "tr", "uk", "vi",
	}, nil
}
