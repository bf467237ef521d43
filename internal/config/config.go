// Package config loads feedmunger settings from a YAML file, FEEDMUNGER_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/feedmunger/internal/chain"
	"github.com/valpere/feedmunger/internal/translator"
)

const (
	EnvPrefix         = "FEEDMUNGER"
	DefaultConfigName = "feedmunger"
)

type Config struct {
	SourceAccount      string   `mapstructure:"source_account" yaml:"source_account"`
	DestinationAccount string   `mapstructure:"destination_account" yaml:"destination_account"`
	FetchLimit         int      `mapstructure:"fetch_limit" yaml:"fetch_limit"`
	IgnoreRetweets     bool     `mapstructure:"ignore_retweets" yaml:"ignore_retweets"`
	Provider           string   `mapstructure:"provider" yaml:"provider"`
	SourceLanguage     string   `mapstructure:"source_language" yaml:"source_language"`
	Languages          []string `mapstructure:"languages" yaml:"languages"`
	DryRun             bool     `mapstructure:"dry_run" yaml:"dry_run"`

	Twitter   TwitterConfig                       `mapstructure:"twitter" yaml:"twitter"`
	Providers map[string]translator.ServiceConfig `mapstructure:"providers" yaml:"providers,omitempty"`
	Translate TranslateConfig                     `mapstructure:"translate" yaml:"translate"`
	Publish   PublishConfig                       `mapstructure:"publish" yaml:"publish"`
	Cache     CacheConfig                         `mapstructure:"cache" yaml:"cache"`
	Metrics   MetricsConfig                       `mapstructure:"metrics" yaml:"metrics"`
	Log       LogConfig                           `mapstructure:"log" yaml:"log"`
}

type TwitterConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key" yaml:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret" yaml:"consumer_secret"`
	AccessToken    string `mapstructure:"access_token" yaml:"access_token"`
	AccessSecret   string `mapstructure:"access_secret" yaml:"access_secret"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

type TranslateConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	ProtectLinks  bool          `mapstructure:"protect_links" yaml:"protect_links"`
}

type PublishConfig struct {
	MaxLength int `mapstructure:"max_length" yaml:"max_length"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]interface{}{
	"fetch_limit":               10,
	"ignore_retweets":           true,
	"provider":                  "bing",
	"source_language":           "en",
	"languages":                 []string{},
	"dry_run":                   false,
	"translate.timeout":         30 * time.Second,
	"translate.max_attempts":    3,
	"translate.retry_delay":     time.Second,
	"translate.rate_per_second": 0.0,
	"translate.protect_links":   false,
	"publish.max_length":        280,
	"cache.enabled":             false,
	"cache.path":                "./data/feedmunger.db",
	"metrics.textfile":          "",
	"log.level":                 "info",
	"log.format":                "console",
}

var twitterKeys = []string{"consumer_key", "consumer_secret", "access_token", "access_secret", "base_url"}

var providerKeys = []string{"api_key", "credentials", "project_id", "base_url", "email", "model", "models", "timeout"}

// NewViper returns a viper instance with defaults and environment bindings.
// Nested keys that have no default are bound explicitly so that variables
// such as FEEDMUNGER_PROVIDERS_BING_API_KEY are seen by Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{"source_account", "destination_account"} {
		_ = v.BindEnv(key)
	}
	for _, key := range twitterKeys {
		_ = v.BindEnv("twitter." + key)
	}
	for _, name := range translator.Providers() {
		for _, key := range providerKeys {
			_ = v.BindEnv("providers." + name + "." + key)
		}
	}
	return v
}

// ReadFile loads path into v. With an empty path ./feedmunger.yaml is read
// when it exists.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]translator.ServiceConfig)
	}
	return cfg, nil
}

// ProviderConfig returns the settings of the selected provider.
func (c Config) ProviderConfig() translator.ServiceConfig {
	return c.Providers[c.Provider]
}

// Validate checks everything a relay run needs. All problems are reported
// at once, joined with errors.Join.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SourceAccount) == "" {
		errs = append(errs, &ValidationError{Field: "source_account", Problem: "is required"})
	}
	if strings.TrimSpace(c.DestinationAccount) == "" {
		errs = append(errs, &ValidationError{Field: "destination_account", Problem: "is required"})
	}
	if c.SourceAccount != "" && strings.EqualFold(c.SourceAccount, c.DestinationAccount) {
		errs = append(errs, &ValidationError{Field: "destination_account", Problem: "must differ from source_account"})
	}
	if c.FetchLimit <= 0 {
		errs = append(errs, &ValidationError{Field: "fetch_limit", Problem: fmt.Sprintf("must be positive, got %d", c.FetchLimit)})
	}
	if c.Publish.MaxLength < 0 {
		errs = append(errs, &ValidationError{Field: "publish.max_length", Problem: "must not be negative"})
	}

	creds := map[string]string{
		"consumer_key":    c.Twitter.ConsumerKey,
		"consumer_secret": c.Twitter.ConsumerSecret,
		"access_token":    c.Twitter.AccessToken,
		"access_secret":   c.Twitter.AccessSecret,
	}
	for _, key := range twitterKeys[:4] {
		if creds[key] == "" {
			errs = append(errs, &ValidationError{Field: "twitter." + key, Problem: "is required"})
		}
	}

	if err := c.ValidateTranslation(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateTranslation checks only what translating text needs: the
// provider, its credentials, the language chain and the retry settings.
func (c Config) ValidateTranslation() error {
	var errs []error

	if err := translator.CheckCredentials(c.Provider, c.ProviderConfig()); err != nil {
		field := "providers." + c.Provider
		if errors.Is(err, translator.ErrUnknownProvider) {
			field = "provider"
		}
		errs = append(errs, &ValidationError{Field: field, Problem: err.Error(), Err: err})
	}
	if strings.TrimSpace(c.SourceLanguage) == "" {
		errs = append(errs, &ValidationError{Field: "source_language", Problem: "is required"})
	} else if err := chain.Languages(c.Languages).Validate(c.SourceLanguage); err != nil {
		errs = append(errs, &ValidationError{Field: "languages", Problem: err.Error(), Err: err})
	}

	if c.Translate.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "translate.timeout", Problem: "must not be negative"})
	}
	if c.Translate.MaxAttempts < 1 {
		errs = append(errs, &ValidationError{Field: "translate.max_attempts", Problem: "must be at least 1"})
	}
	if c.Translate.RetryDelay < 0 {
		errs = append(errs, &ValidationError{Field: "translate.retry_delay", Problem: "must not be negative"})
	}
	if c.Translate.RatePerSecond < 0 {
		errs = append(errs, &ValidationError{Field: "translate.rate_per_second", Problem: "must not be negative"})
	}
	return errors.Join(errs...)
}

const redactedValue = "REDACTED"

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redactedValue
}

// Redacted returns a copy of c with every secret masked.
func (c Config) Redacted() Config {
	out := c
	out.Languages = append([]string(nil), c.Languages...)
	out.Twitter.ConsumerKey = redact(c.Twitter.ConsumerKey)
	out.Twitter.ConsumerSecret = redact(c.Twitter.ConsumerSecret)
	out.Twitter.AccessToken = redact(c.Twitter.AccessToken)
	out.Twitter.AccessSecret = redact(c.Twitter.AccessSecret)

	out.Providers = make(map[string]translator.ServiceConfig, len(c.Providers))
	for name, p := range c.Providers {
		p.APIKey = redact(p.APIKey)
		p.Models = append([]string(nil), p.Models...)
		out.Providers[name] = p
	}
	return out
}
