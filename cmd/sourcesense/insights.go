// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confighub/sourcesense/pkg/insights"
	"github.com/confighub/sourcesense/pkg/results"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "AI summaries and diagrams of a finished run",
	Long: `Ask the server for model-generated views of a finished run.

The first entry of candidate_models (CANDIDATE_MODELS) is requested; the
full list is sent so the server can fall back.

Examples:
  sourcesense insights summary
  sourcesense insights diagram lineage -O lineage.mmd
  sourcesense insights diagram er --id wf-42
`,
}

var insightsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Prose summary of the extracted metadata",
	Args:  cobra.NoArgs,
	RunE:  runInsightsSummary,
}

var insightsDiagramCmd = &cobra.Command{
	Use:               "diagram [lineage|er]",
	Short:             "Mermaid lineage or entity-relationship diagram",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDiagramKinds,
	RunE:              runInsightsDiagram,
}

func init() {
	for _, c := range []*cobra.Command{insightsSummaryCmd, insightsDiagramCmd} {
		c.Flags().String("id", "", "Workflow id (default: the current run)")
		c.Flags().StringP("out-file", "O", "", "Write to a file instead of stdout")
		c.RegisterFlagCompletionFunc("id", completeWorkflowIDs)
	}
	insightsCmd.AddCommand(insightsSummaryCmd, insightsDiagramCmd)
	rootCmd.AddCommand(insightsCmd)
}

func runInsightsSummary(cmd *cobra.Command, args []string) error {
	return runInsight(cmd, "insights-summary", func(ctx context.Context, svc *insights.Service, id string) (string, error) {
		return svc.Summarize(ctx, id)
	})
}

func runInsightsDiagram(cmd *cobra.Command, args []string) error {
	kind, err := insights.ParseDiagramKind(args[0])
	if err != nil {
		return usageErrorf("%v", err)
	}
	return runInsight(cmd, "insights-diagram", func(ctx context.Context, svc *insights.Service, id string) (string, error) {
		return svc.Diagram(ctx, kind, id)
	})
}

func runInsight(cmd *cobra.Command, command string, call func(context.Context, *insights.Service, string) (string, error)) error {
	a, err := newApp(cmd, command)
	if err != nil {
		return err
	}
	defer a.Close()

	// Model calls are slow; allow several request timeouts.
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout*4)
	defer cancel()

	id, _ := cmd.Flags().GetString("id")
	if id == "" {
		id, err = results.NewFetcher(a.client, a.store, a.workflowLogger()).Discover(ctx)
		if err != nil {
			return fmt.Errorf("no run to describe: %w", err)
		}
	}

	text, err := call(ctx, insights.New(a.client, a.cfg.Candidates(), a.workflowLogger()), id)
	if err != nil {
		return err
	}

	outFile, _ := cmd.Flags().GetString("out-file")
	if outFile == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outFile, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outFile)
	return nil
}
