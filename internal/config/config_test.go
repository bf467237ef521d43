package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valpere/feedmunger/internal/chain"
	"github.com/valpere/feedmunger/internal/translator"
)

func validConfig() Config {
	return Config{
		SourceAccount:      "source",
		DestinationAccount: "munged",
		FetchLimit:         10,
		IgnoreRetweets:     true,
		Provider:           "bing",
		SourceLanguage:     "en",
		Languages:          []string{"Ru", "zh-CHT", "Pl"},
		Twitter: TwitterConfig{
			ConsumerKey:    "ck",
			ConsumerSecret: "cs",
			AccessToken:    "at",
			AccessSecret:   "as",
		},
		Providers: map[string]translator.ServiceConfig{
			"bing": {APIKey: "app-id"},
		},
		Translate: TranslateConfig{Timeout: 30 * time.Second, MaxAttempts: 3, RetryDelay: time.Second},
		Publish:   PublishConfig{MaxLength: 280},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FetchLimit != 10 {
		t.Errorf("FetchLimit = %d", cfg.FetchLimit)
	}
	if !cfg.IgnoreRetweets {
		t.Error("IgnoreRetweets should default to true")
	}
	if cfg.Provider != "bing" || cfg.SourceLanguage != "en" {
		t.Errorf("Provider = %q, SourceLanguage = %q", cfg.Provider, cfg.SourceLanguage)
	}
	if cfg.Translate.Timeout != 30*time.Second || cfg.Translate.MaxAttempts != 3 || cfg.Translate.RetryDelay != time.Second {
		t.Errorf("unexpected translate defaults %+v", cfg.Translate)
	}
	if cfg.Publish.MaxLength != 280 {
		t.Errorf("MaxLength = %d", cfg.Publish.MaxLength)
	}
	if cfg.Cache.Enabled || cfg.Cache.Path != "./data/feedmunger.db" {
		t.Errorf("unexpected cache defaults %+v", cfg.Cache)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.Providers == nil {
		t.Error("Providers should be non-nil")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedmunger.yaml")
	yaml := `
source_account: source
destination_account: munged
fetch_limit: 5
provider: google
languages: [ru, ja]
translate:
  timeout: 10s
  protect_links: true
providers:
  google:
    api_key: secret
    project_id: demo
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourceAccount != "source" || cfg.FetchLimit != 5 || cfg.Provider != "google" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[1] != "ja" {
		t.Errorf("Languages = %v", cfg.Languages)
	}
	if cfg.Translate.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Translate.Timeout)
	}
	if !cfg.Translate.ProtectLinks {
		t.Error("ProtectLinks should be read from file")
	}
	if cfg.Translate.MaxAttempts != 3 {
		t.Errorf("defaults should fill unset keys, MaxAttempts = %d", cfg.Translate.MaxAttempts)
	}
	if got := cfg.ProviderConfig(); got.APIKey != "secret" || got.ProjectID != "demo" {
		t.Errorf("ProviderConfig() = %+v", got)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for explicit missing file")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("FEEDMUNGER_SOURCE_ACCOUNT", "from-env")
	t.Setenv("FEEDMUNGER_FETCH_LIMIT", "3")
	t.Setenv("FEEDMUNGER_LANGUAGES", "ru,pl")
	t.Setenv("FEEDMUNGER_TWITTER_CONSUMER_KEY", "ck-env")
	t.Setenv("FEEDMUNGER_PROVIDERS_BING_API_KEY", "bing-env")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourceAccount != "from-env" || cfg.FetchLimit != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "ru" {
		t.Errorf("Languages = %v", cfg.Languages)
	}
	if cfg.Twitter.ConsumerKey != "ck-env" {
		t.Errorf("ConsumerKey = %q", cfg.Twitter.ConsumerKey)
	}
	if cfg.Providers["bing"].APIKey != "bing-env" {
		t.Errorf("bing api key = %q", cfg.Providers["bing"].APIKey)
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.SourceAccount = ""
	cfg.FetchLimit = 0
	cfg.Twitter.AccessSecret = ""
	cfg.Languages = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"source_account", "fetch_limit", "twitter.access_secret", "languages"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Error("expected a ValidationError in the chain")
	}
	if !errors.Is(err, chain.ErrNoLanguages) {
		t.Error("expected chain.ErrNoLanguages in the chain")
	}
}

func TestValidate_SameAccounts(t *testing.T) {
	cfg := validConfig()
	cfg.DestinationAccount = "SOURCE"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when source and destination are the same account")
	}
}

func TestValidateTranslation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Provider = "babelfish" }, translator.ErrUnknownProvider},
		{"missing key", func(c *Config) { c.Providers = nil }, translator.ErrMissingCredential},
		{"source in chain", func(c *Config) { c.Languages = []string{"ru", "en"} }, chain.ErrSourceInChain},
		{"keyless provider", func(c *Config) { c.Provider = "mymemory" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.ValidateTranslation()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateTranslation_IgnoresFeedSettings(t *testing.T) {
	cfg := validConfig()
	cfg.SourceAccount = ""
	cfg.Twitter = TwitterConfig{}
	if err := cfg.ValidateTranslation(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	red := cfg.Redacted()

	if red.Twitter.ConsumerSecret != redactedValue || red.Twitter.AccessToken != redactedValue {
		t.Errorf("twitter secrets not redacted: %+v", red.Twitter)
	}
	if red.Providers["bing"].APIKey != redactedValue {
		t.Errorf("provider key not redacted")
	}
	if cfg.Providers["bing"].APIKey != "app-id" || cfg.Twitter.AccessToken != "at" {
		t.Error("Redacted must not modify the original")
	}
	if red.SourceAccount != "source" {
		t.Error("non-secret fields must be kept")
	}

	empty := Config{}.Redacted()
	if empty.Twitter.ConsumerKey != "" {
		t.Error("empty secrets should stay empty")
	}
}
