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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/feedmunger/internal/sanitize"
)

var mungeNoCache bool

var mungeCmd = &cobra.Command{
	Use:   "munge <text>",
	Short: "Run text through the translation chain and print every hop",
	Long: `Munge sanitizes the given text the way relay does and sends it through the
configured translation chain, printing the output of every hop. Nothing is
read from or published to the feed, so only provider credentials are needed.`,
	Example: `  feedmunger munge "Hello #world @friend" --provider mymemory --languages ru,ja,pl`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if err := cfg.ValidateTranslation(); err != nil {
			return err
		}

		svc, closeSvc, err := buildService(cfg, mungeNoCache, logger)
		if err != nil {
			return err
		}
		defer closeSvc()

		exec, err := buildChain(cfg, svc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		text := sanitize.Text(strings.Join(args, " "))
		fmt.Fprintf(out, "0. %s\n   %s\n", cfg.SourceLanguage, text)

		run, runErr := exec.Run(cmd.Context(), text)
		for i, h := range run.Hops {
			note := h.Latency.Round(time.Millisecond).String()
			if h.Cached {
				note = "cached"
			}
			fmt.Fprintf(out, "%d. %s -> %s (%s, %s)\n   %s\n", i+1, h.From, h.To, h.Service, note, h.Text)
		}
		if runErr != nil {
			return runErr
		}
		fmt.Fprintf(out, "=> %s\n", run.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mungeCmd)

	mungeCmd.Flags().String("provider", "bing", "Translation provider")
	mungeCmd.Flags().StringSlice("languages", nil, "Intermediate languages, in hop order")
	mungeCmd.Flags().String("source-lang", "en", "Language of the input text")
	mungeCmd.Flags().BoolVar(&mungeNoCache, "no-cache", false, "Bypass the translation memory")
}
