// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/confighub/sourcesense/pkg/results"
	"github.com/confighub/sourcesense/pkg/workflows"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the output of the current workflow",
	Long: `Show the output of the workflow started from this shell.

Without a remembered id, or when the remembered run has no output, the
server's latest run is used. --id looks at another run without
replacing the remembered one. --mode is remembered across sessions.

Examples:
  sourcesense results                  # One attempt, current view mode
  sourcesense results --wait           # Retry until the output exists
  sourcesense results --id wf-123      # Another run, read only
  sourcesense results --mode text      # Switch to the text artifact
  sourcesense results -o yaml          # JSON artifact rendered as YAML
  sourcesense results --summary        # Entity counts only
`,
	RunE: runResults,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the workflow dashboard and result links",
	RunE:  runDashboard,
}

func init() {
	f := resultsCmd.Flags()
	f.String("id", "", "Workflow id to read instead of the remembered one")
	f.String("mode", "", "View mode: json or text (default: last used)")
	f.Bool("wait", false, "Retry until the output exists")
	f.Int("delay", 0, "Seconds to wait before the first fetch with --wait")
	f.Duration("timeout", 10*time.Minute, "Give up waiting after this long")
	f.StringP("output", "o", "", "Output format for JSON artifacts: json or yaml")
	f.Bool("summary", false, "Print the entity summary instead of the artifact")
	resultsCmd.RegisterFlagCompletionFunc("mode", completeViewModes)
	resultsCmd.RegisterFlagCompletionFunc("id", completeWorkflowIDs)
	resultsCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)

	rootCmd.AddCommand(resultsCmd, dashboardCmd)
}

type resultsOptions struct {
	output  string
	summary bool
}

func runResults(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, "results")
	if err != nil {
		return err
	}
	defer a.Close()

	flags := cmd.Flags()
	id, _ := flags.GetString("id")
	if raw, _ := flags.GetString("mode"); raw != "" {
		mode, err := workflows.ParseViewMode(raw)
		if err != nil {
			return usageErrorf("%v", err)
		}
		if err := a.store.SetViewMode(mode); err != nil {
			return err
		}
	}

	opts := resultsOptions{}
	opts.output, _ = flags.GetString("output")
	opts.summary, _ = flags.GetBool("summary")
	switch opts.output {
	case "", "json", "yaml":
	default:
		return usageErrorf("unsupported output %q (want json or yaml)", opts.output)
	}

	if wait, _ := flags.GetBool("wait"); wait {
		delay, _ := flags.GetInt("delay")
		timeout, _ := flags.GetDuration("timeout")
		return waitAndPrint(cmd, a, id, delay, timeout, opts)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout*3)
	defer cancel()
	r, err := results.NewFetcher(a.client, a.store, a.workflowLogger()).Pin(id).Fetch(ctx)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), r, opts)
}

// waitAndPrint polls until the output exists, reporting progress on stderr.
func waitAndPrint(cmd *cobra.Command, a *app, id string, delay int, timeout time.Duration, opts resultsOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	status := cmd.ErrOrStderr()
	f := results.NewFetcher(a.client, a.store, a.workflowLogger()).Pin(id)
	r, err := results.Wait(ctx, f, delay, a.cfg.PollInterval, func(e results.Event) {
		switch e.Phase {
		case results.Countdown:
			if e.Remaining > 0 && (e.Remaining%5 == 0 || e.Remaining <= 3) {
				fmt.Fprintf(status, "Fetching results in %ds...\n", e.Remaining)
			}
		case results.NotReady:
			a.logger.Log("Not ready: %v", e.Err)
			fmt.Fprintf(status, "%s Retrying every %s.\n", results.MsgNotReady, a.cfg.PollInterval)
		}
	})
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), status, r, opts)
}

func printResult(out, status io.Writer, r *results.Result, opts resultsOptions) error {
	fmt.Fprintf(status, "Workflow %s (%s)\n", r.WorkflowID, r.Source)

	if opts.summary {
		renderSummary(out, r.Summary)
		if r.SummaryURL != "" {
			fmt.Fprintf(status, "Summary: %s\n", r.SummaryURL)
		}
		return nil
	}

	body := r.Body
	if opts.output == "yaml" && r.Mode == workflows.ViewJSON && len(r.Raw) > 0 {
		y, err := yaml.JSONToYAML(r.Raw)
		if err != nil {
			return fmt.Errorf("convert %s to yaml: %w", r.Source, err)
		}
		body = string(y)
	}
	fmt.Fprintln(out, body)
	fmt.Fprintf(status, "%s: %s\n", r.Mode.OpenLabel(), r.RawURL)
	return nil
}

func renderSummary(w io.Writer, lines []results.SummaryLine) {
	if len(lines) == 0 {
		fmt.Fprintln(w, results.MsgNoSummary)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Entity", "Rows", "Chunks"})
	for _, l := range lines {
		t.AppendRow(table.Row{l.Label(), l.Rows, l.Chunks})
	}
	t.Render()
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, "dashboard")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dashboard: %s\n", a.cfg.DashboardURL())
	run := a.store.Run()
	if run.WorkflowID == "" || run.Synthesized {
		return nil
	}
	mode := a.store.ViewMode()
	fmt.Fprintf(out, "Workflow:  %s\n", run.WorkflowID)
	fmt.Fprintf(out, "%s: %s\n", mode.OpenLabel(), a.client.URL(workflows.ResultPath(run.WorkflowID, mode)))
	fmt.Fprintf(out, "Summary:   %s\n", a.client.URL(workflows.SummaryArtifactPath(run.WorkflowID)))
	return nil
}
