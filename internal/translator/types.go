package translator

import (
	"context"
	"time"
)

// ServiceConfig holds the settings of one translation provider as read from
// the "providers.<name>" configuration section.
type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials" yaml:"credentials,omitempty"`
	APIKey      string        `mapstructure:"api_key" json:"api_key" yaml:"api_key,omitempty"`
	Email       string        `mapstructure:"email" json:"email" yaml:"email,omitempty"`
	Model       string        `mapstructure:"model" json:"model" yaml:"model,omitempty"`
	Models      []string      `mapstructure:"models" json:"models" yaml:"models,omitempty"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url" yaml:"base_url,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout,omitempty"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id" yaml:"project_id,omitempty"`
}

// TranslateRequest is a single hop: Text in SourceLang to TargetLang.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// ServiceResult is the outcome of one Translate call.
type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Cached         bool              `json:"cached"`
	Error          string            `json:"error,omitempty"`
}

// TranslationService is a machine-translation backend. Implementations return
// a non-nil result even on failure so callers can log the latency and error.
type TranslationService interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
	SupportedLanguages(ctx context.Context) ([]string, error)
}
