// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/confighub/sourcesense/internal/config"
	"github.com/confighub/sourcesense/pkg/session"
	"github.com/confighub/sourcesense/pkg/workflows"
)

// Workflow id completion cache (avoid repeated API calls during tab-complete)
var (
	cachedWorkflowIDs     []string
	workflowIDCacheExpiry time.Time
	workflowIDCacheMu     sync.Mutex
)

// completeWorkflowIDs offers the remembered run and the server's latest run.
func completeWorkflowIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	workflowIDCacheMu.Lock()
	defer workflowIDCacheMu.Unlock()

	// Return cache if fresh (3 second TTL)
	if time.Now().Before(workflowIDCacheExpiry) && len(cachedWorkflowIDs) > 0 {
		return filterPrefix(cachedWorkflowIDs, toComplete), cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	if store, err := session.Open(cfg.SessionFile, cfg.PreferencesFile); err == nil {
		if run := store.Run(); run.WorkflowID != "" && !run.Synthesized {
			ids = append(ids, run.WorkflowID)
		}
	}

	// Quick timeout for completion - don't block shell
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	latest, err := workflows.NewClient(cfg.ServerURL).LatestOutput(ctx)
	if err == nil && latest != "" && (len(ids) == 0 || ids[0] != latest) {
		ids = append(ids, latest)
	}

	cachedWorkflowIDs = ids
	workflowIDCacheExpiry = time.Now().Add(3 * time.Second)

	return filterPrefix(ids, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeViewModes returns the values of --mode.
func completeViewModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	modes := []string{string(workflows.ViewJSON), string(workflows.ViewText)}
	return filterPrefix(modes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeOutputFormats returns the values of results -o.
func completeOutputFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix([]string{"json", "yaml"}, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDiagramKinds completes the argument of insights diagram.
func completeDiagramKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix([]string{"lineage", "er"}, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeSSLModes returns libpq sslmode values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	modes := []string{
		"disable",
		"allow",
		"prefer",
		"require",
		"verify-ca",
		"verify-full",
	}
	return filterPrefix(modes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// filterPrefix filters strings by prefix (case-insensitive)
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var filtered []string
	lowerPrefix := strings.ToLower(prefix)
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
