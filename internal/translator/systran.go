package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/feedmunger/internal/retry"
)

const (
	systranDefaultBaseURL = "https://api-systran-systran-translation-v1.p.rapidapi.com"
	systranRapidAPIHost   = "api-systran-systran-translation-v1.p.rapidapi.com"
)

// SystranService calls Systran Translate through RapidAPI.
type SystranService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystranService(cfg ServiceConfig) *SystranService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = systranDefaultBaseURL
	}
	return &SystranService{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

func (s *SystranService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.apiKey == "" {
		result.Error = "Systran API key required"
		return result, retry.Permanent(fmt.Errorf("Systran API key required"))
	}

	jsonData, err := json.Marshal(map[string]interface{}{
		"input":  []string{req.Text},
		"source": req.SourceLang,
		"target": req.TargetLang,
		"format": "text",
	})
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, retry.Permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translation/text/translate", bytes.NewReader(jsonData))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, retry.Permanent(err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-RapidAPI-Key", s.apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", systranRapidAPIHost)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		result.Error = fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(body))
		return result, retry.HTTPStatus(resp.StatusCode, fmt.Errorf("API returned status %d", resp.StatusCode))
	}

	var systranResp struct {
		Outputs []struct {
			Output string `json:"output"`
		} `json:"outputs"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&systranResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, retry.Permanent(err)
	}

	// An empty output is returned as-is; the chain decides what empty means.
	if len(systranResp.Outputs) > 0 {
		result.TranslatedText = systranResp.Outputs[0].Output
	}
	return result, nil
}

func (s *SystranService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Systran API key not configured")
	}
	return nil
}

func (s *SystranService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "fr", "es", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar"}, nil
}
