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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/valpere/feedmunger/internal/chain"
	"github.com/valpere/feedmunger/internal/orchestrator"
	"github.com/valpere/feedmunger/internal/watermark"
)

func TestPrintReport(t *testing.T) {
	hops := make([]chain.Hop, 4)
	report := orchestrator.Report{
		Mark:    watermark.Mark{ID: "99", Valid: true},
		Fetched: 3,
		Results: []orchestrator.Result{
			{PostID: "100", Outcome: orchestrator.OutcomeSkipped, Reason: "reshare"},
			{PostID: "101", Outcome: orchestrator.OutcomePublished, Text: "Hello _world", Hops: hops, DryRun: true},
			{PostID: "102", Outcome: orchestrator.OutcomeFailed, Err: errors.New("503 service unavailable")},
		},
	}

	var buf bytes.Buffer
	if err := printReport(&buf, report); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"POST", "reshare", "(dry run) Hello _world", "503 service unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "101") && !strings.Contains(line, " 4 ") {
			t.Errorf("expected hop count 4 in %q", line)
		}
	}
}

func TestPrintReport_Published(t *testing.T) {
	report := orchestrator.Report{Results: []orchestrator.Result{
		{PostID: "101", Outcome: orchestrator.OutcomePublished, Text: "Hello _world", PublishedID: "900"},
	}}

	var buf bytes.Buffer
	if err := printReport(&buf, report); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	if strings.Contains(buf.String(), "dry run") {
		t.Errorf("live post marked as dry run:\n%s", buf.String())
	}
}

func TestPrintReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printReport(&buf, orchestrator.Report{}); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	if got := buf.String(); got != "No new posts since none.\n" {
		t.Errorf("got %q", got)
	}
}
