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
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/feedmunger/internal/feed"
	"github.com/valpere/feedmunger/internal/filter"
	"github.com/valpere/feedmunger/internal/metrics"
	"github.com/valpere/feedmunger/internal/orchestrator"
	"github.com/valpere/feedmunger/internal/publish"
	"github.com/valpere/feedmunger/internal/watermark"
)

var relayNoCache bool

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay new posts through the translation chain",
	Long: `Relay reads the newest post of the destination account to find where the
previous run stopped, fetches newer posts of the source account, and
publishes each one after translating it through every configured language
and back to the source language.

Reshares are skipped unless ignore_retweets is false. Posts whose
translation comes back empty are dropped. With --dry-run nothing is
published and the munged text is printed instead.

The Twitter credentials must belong to the destination account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if err := cfg.Validate(); err != nil {
			return err
		}

		svc, closeSvc, err := buildService(cfg, relayNoCache, logger)
		if err != nil {
			return err
		}
		defer closeSvc()

		exec, err := buildChain(cfg, svc)
		if err != nil {
			return err
		}

		tw := feed.NewTwitter(feed.TwitterCredentials{
			ConsumerKey:    cfg.Twitter.ConsumerKey,
			ConsumerSecret: cfg.Twitter.ConsumerSecret,
			AccessToken:    cfg.Twitter.AccessToken,
			AccessSecret:   cfg.Twitter.AccessSecret,
		}, cfg.Twitter.BaseURL, retryPolicy(cfg), logger)

		rec := metrics.New()
		orch := orchestrator.New(orchestrator.Config{
			SourceAccount: cfg.SourceAccount,
			FetchLimit:    cfg.FetchLimit,
		}, orchestrator.Deps{
			Tracker:   watermark.NewTracker(tw, cfg.DestinationAccount),
			Fetcher:   watermark.NewFetcher(tw),
			Filter:    filter.New(cfg.IgnoreRetweets),
			Chain:     exec,
			Publisher: publish.New(tw, cfg.DryRun, cfg.Publish.MaxLength, logger),
			Metrics:   rec,
			Log:       logger,
		})

		report, runErr := orch.Run(cmd.Context())
		if err := printReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Msg("metrics not written")
		}
		return runErr
	},
}

func printReport(out io.Writer, report orchestrator.Report) error {
	if len(report.Results) == 0 {
		fmt.Fprintf(out, "No new posts since %s.\n", report.Mark)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POST\tOUTCOME\tHOPS\tDETAIL")
	for _, r := range report.Results {
		detail := r.Text
		switch r.Outcome {
		case orchestrator.OutcomeSkipped, orchestrator.OutcomeDropped:
			detail = r.Reason
		case orchestrator.OutcomeFailed:
			detail = r.Err.Error()
		case orchestrator.OutcomePublished:
			if r.DryRun {
				detail = "(dry run) " + detail
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.PostID, r.Outcome, len(r.Hops), detail)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().Bool("dry-run", false, "Translate but do not publish")
	relayCmd.Flags().Int("limit", 10, "Maximum number of source posts to fetch")
	relayCmd.Flags().String("provider", "bing", "Translation provider")
	relayCmd.Flags().StringSlice("languages", nil, "Intermediate languages, in hop order (e.g. Ru,zh-CHT,Pl)")
	relayCmd.Flags().String("source-lang", "en", "Language of the source account")
	relayCmd.Flags().BoolVar(&relayNoCache, "no-cache", false, "Bypass the translation memory")
}
