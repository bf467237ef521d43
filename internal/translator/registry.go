package translator

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownProvider   = errors.New("unknown translation provider")
	ErrMissingCredential = errors.New("missing provider credential")
)

type provider struct {
	build func(cfg ServiceConfig) TranslationService
	// hasCredential is nil for providers that need none.
	hasCredential func(cfg ServiceConfig) bool
	credentialKey string
}

func hasAPIKey(cfg ServiceConfig) bool { return cfg.APIKey != "" }

var registry = map[string]provider{
	"google": {
		build:         func(cfg ServiceConfig) TranslationService { return NewGoogleService(cfg) },
		hasCredential: func(cfg ServiceConfig) bool { return cfg.APIKey != "" || cfg.Credentials != "" },
		credentialKey: "api_key or credentials",
	},
	"bing": {
		build:         func(cfg ServiceConfig) TranslationService { return NewBingService(cfg) },
		hasCredential: hasAPIKey,
		credentialKey: "api_key",
	},
	"mymemory": {
		build: func(cfg ServiceConfig) TranslationService { return NewMyMemoryService(cfg) },
	},
	"systran": {
		build:         func(cfg ServiceConfig) TranslationService { return NewSystranService(cfg) },
		hasCredential: hasAPIKey,
		credentialKey: "api_key",
	},
	"ollama": {
		build: func(cfg ServiceConfig) TranslationService { return NewOllamaTranslator(cfg) },
	},
	"openrouter": {
		build:         func(cfg ServiceConfig) TranslationService { return NewOpenRouterService(cfg) },
		hasCredential: hasAPIKey,
		credentialKey: "api_key",
	},
}

// Providers returns the registered provider names in lexical order.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider registered under name.
func New(name string, cfg ServiceConfig) (TranslationService, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p.build(cfg), nil
}

// CheckCredentials reports whether cfg carries what provider name needs to
// authenticate, without making any network call.
func CheckCredentials(name string, cfg ServiceConfig) error {
	p, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	if p.hasCredential != nil && !p.hasCredential(cfg) {
		return fmt.Errorf("%w: providers.%s.%s", ErrMissingCredential, name, p.credentialKey)
	}
	return nil
}
