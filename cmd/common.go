/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/valpere/feedmunger/internal/chain"
	"github.com/valpere/feedmunger/internal/config"
	"github.com/valpere/feedmunger/internal/retry"
	"github.com/valpere/feedmunger/internal/store"
	"github.com/valpere/feedmunger/internal/translator"
)

func retryPolicy(cfg config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Translate.MaxAttempts,
		Delay:       cfg.Translate.RetryDelay,
	}
}

// buildService returns the configured provider wrapped, innermost first, in
// rate limiting, retries and the translation memory. The returned func
// releases the memory database.
func buildService(cfg config.Config, noCache bool, log zerolog.Logger) (translator.TranslationService, func() error, error) {
	noop := func() error { return nil }

	svcCfg := cfg.ProviderConfig()
	if svcCfg.Timeout <= 0 {
		svcCfg.Timeout = cfg.Translate.Timeout
	}
	svc, err := translator.New(cfg.Provider, svcCfg)
	if err != nil {
		return nil, noop, err
	}

	svc = translator.WithRateLimit(svc, cfg.Translate.RatePerSecond)
	svc = translator.WithRetry(svc, retryPolicy(cfg))

	if !cfg.Cache.Enabled || noCache {
		return svc, noop, nil
	}

	db, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open translation memory: %w", err)
	}
	log.Debug().Str("path", cfg.Cache.Path).Msg("translation memory enabled")
	return translator.WithMemory(svc, db, log), db.Close, nil
}

func buildChain(cfg config.Config, svc translator.TranslationService) (*chain.Executor, error) {
	exec, err := chain.New(svc, cfg.SourceLanguage, chain.Languages(cfg.Languages), cfg.Translate.Timeout, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Translate.ProtectLinks {
		exec.ProtectLinks()
	}
	return exec, nil
}
