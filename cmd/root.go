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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/valpere/feedmunger/internal/config"
)

var version = "0.1.0"

var (
	cfgFile string

	v         = config.NewViper()
	appConfig config.Config
	logger    = zerolog.Nop()
)

// flagKeys maps command-line flags to configuration keys. Flags are bound
// for the command being run only, so several commands can share a name.
var flagKeys = map[string]string{
	"dry-run":     "dry_run",
	"limit":       "fetch_limit",
	"provider":    "provider",
	"languages":   "languages",
	"source-lang": "source_language",
	"db":          "cache.path",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

var rootCmd = &cobra.Command{
	Use:   "feedmunger",
	Short: "Relay a feed through a chain of machine translations",
	Long: `feedmunger reads new posts from a source account, translates each one
through a chain of languages and back, and publishes the result on a
destination account.

Configuration is read from ./feedmunger.yaml (or --config), FEEDMUNGER_*
environment variables and flags, in increasing precedence.

Use "feedmunger relay --help" for relay options.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		appConfig = cfg

		logger, err = newLogger(cfg.Log, os.Stderr)
		return err
	},
}

func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log.level %q: %w", cfg.Level, err)
	}

	switch cfg.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log.format %q: want console or json", cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./feedmunger.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
}
