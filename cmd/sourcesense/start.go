// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/confighub/sourcesense/pkg/launcher"
	"github.com/confighub/sourcesense/pkg/metadata"
	"github.com/confighub/sourcesense/pkg/results"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a metadata extraction workflow",
	Long: `Start a metadata extraction workflow and remember its id for this shell.

Filters are full-match patterns built from --include and --exclude. A bare
database name selects all of its schemas; db:s1,s2 selects just those.
A schema cannot be both included and excluded.

Examples:
  sourcesense start --url postgres://app:secret@db/sales --name sales-prod
  sourcesense start --url postgres://app:secret@db/sales --name sales-prod \
      --include sales --exclude sales:audit
  sourcesense start --url postgres://app:secret@db/sales --name sales-prod --wait
`,
	RunE: runStart,
}

var (
	startConn    *connFlags
	startFilters *filterFlags
)

func init() {
	startConn = addConnectionFlags(startCmd)
	startFilters = addFilterFlags(startCmd)
	startCmd.Flags().String("name", "", "Connection name (required)")
	startCmd.Flags().Bool("preflight", false, "Run preflight checks first and stop if any fail")
	startCmd.Flags().Bool("wait", false, "Wait for the results after starting")
	startCmd.Flags().Int("delay", results.DefaultDelay, "Seconds to wait before the first fetch with --wait")
	startCmd.Flags().Duration("timeout", 10*time.Minute, "Give up waiting after this long")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if strings.TrimSpace(name) == "" {
		return usageErrorf("connection name is required (--name)")
	}

	a, err := newApp(cmd, "start")
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := startConn.params(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()

	sel, err := startFilters.selection(ctx, metadata.NewLoader(a.client, a.workflowLogger()), p)
	if err != nil {
		return err
	}
	a.logger.LogSelection(sel)

	req := launcher.Request{
		Params:         p,
		ConnectionName: strings.TrimSpace(name),
		Filters:        sel.Serialize(),
		TempTableRegex: a.cfg.TempTableRegex,
		Tenant:         a.cfg.TenantID,
		App:            a.cfg.AppName,
	}

	out := cmd.OutOrStdout()
	if pre, _ := cmd.Flags().GetBool("preflight"); pre {
		lines := launcher.Preflight(ctx, a.client, req)
		renderCheckLines(out, lines)
		if !launcher.Passed(lines) {
			return fmt.Errorf("preflight checks failed")
		}
	}

	run, err := launcher.New(a.client, a.store, a.workflowLogger()).Launch(ctx, req)
	a.logger.LogRun(run, err)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Started workflow %s (%s)\n", run.ID, req.QualifiedName())
	if run.Synthesized {
		fmt.Fprintln(out, "The server returned no workflow id; results will use the latest run.")
	}
	fmt.Fprintf(out, "Dashboard: %s\n", a.cfg.DashboardURL())

	if wait, _ := cmd.Flags().GetBool("wait"); !wait {
		fmt.Fprintln(out, "\nNext: sourcesense results --wait")
		return nil
	}
	delay, _ := cmd.Flags().GetInt("delay")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return waitAndPrint(cmd, a, "", delay, timeout, resultsOptions{})
}
