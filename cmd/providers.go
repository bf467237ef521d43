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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/feedmunger/internal/translator"
)

const availabilityTimeout = 5 * time.Second

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List translation providers and whether they are usable",
	Long: `Providers lists every registered translation provider, whether the
configuration carries the credentials it needs, and whether it reports
itself available. The selected provider is marked with '*'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tPROVIDER\tCREDENTIALS\tAVAILABLE")
		for _, name := range translator.Providers() {
			selected := ""
			if name == cfg.Provider {
				selected = "*"
			}

			svcCfg := cfg.Providers[name]
			creds := "ok"
			if err := translator.CheckCredentials(name, svcCfg); err != nil {
				creds = "missing"
			}

			svc, err := translator.New(name, svcCfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), availabilityTimeout)
			available := "yes"
			if err := svc.IsAvailable(ctx); err != nil {
				available = "no: " + err.Error()
			}
			cancel()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", selected, name, creds, available)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
