// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/confighub/sourcesense/internal/clierr"
	"github.com/confighub/sourcesense/pkg/connection"
	"github.com/confighub/sourcesense/pkg/launcher"
	"github.com/confighub/sourcesense/pkg/metadata"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Test database credentials",
	Long: `Test database credentials through the SourceSense server.

The server connects to the database and reports whether the login works.
Common failures are translated:

  Wrong password/username   password authentication failed
  User does not exist       the role is unknown
  Database does not exist   the database is unknown

Examples:
  sourcesense auth --url postgres://app:secret@db:5432/sales
  sourcesense auth --host db -U app -d sales --sslmode require
`,
	RunE: runAuth,
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "List databases and schemas visible to the connection",
	Long: `List the databases and schemas the connection can see, in the order
the server reports them.

Examples:
  sourcesense metadata --url postgres://app:secret@db/sales
  sourcesense metadata --url postgres://app:secret@db/sales --json
`,
	RunE: runMetadata,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run preflight checks for a selection",
	Long: `Run the server's preflight checks (database and schema access, tables,
version) for the given connection and filters.

Examples:
  sourcesense check --url postgres://app:secret@db/sales --include sales:public
`,
	RunE: runCheck,
}

var (
	authConn     *connFlags
	metadataConn *connFlags
	checkConn    *connFlags
	checkFilters *filterFlags
)

func init() {
	authConn = addConnectionFlags(authCmd)

	metadataConn = addConnectionFlags(metadataCmd)
	metadataCmd.Flags().Bool("json", false, "Output as JSON")

	checkConn = addConnectionFlags(checkCmd)
	checkFilters = addFilterFlags(checkCmd)

	rootCmd.AddCommand(authCmd, metadataCmd, checkCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, "auth")
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := authConn.params(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()
	tester := connection.NewTester(a.client, a.workflowLogger())
	tester.Busy = func(on bool) {
		if on {
			fmt.Fprintf(cmd.ErrOrStderr(), "Testing connection to %s...\n", p.Redacted())
		}
	}
	if err := tester.Test(ctx, p, authRecorder{logger: a.logger, params: p}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Connected to %s\n", p.Redacted())
	return nil
}

// authRecorder writes the outcome of a connection test to the run log.
type authRecorder struct {
	logger *RunLogger
	params connection.Params
}

func (r authRecorder) SetAuthenticated(ok bool) {
	r.logger.Log("Authenticated %s: %t", r.params.Redacted(), ok)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, "metadata")
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := metadataConn.params(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()
	// The wizard tolerates failures here; the command reports them.
	rows, err := a.client.Metadata(ctx, p.Credentials())
	if err != nil {
		return err
	}
	catalog := metadata.Normalize(rows)
	a.logger.Log("Metadata: %d databases, %d schemas", catalog.Len(), catalog.SchemaCount())

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeCatalogJSON(out, catalog)
	}
	if catalog.Len() == 0 {
		fmt.Fprintln(out, clierr.NothingFound("schemas"))
		return nil
	}
	renderCatalog(out, catalog)
	return nil
}

func writeCatalogJSON(w io.Writer, c *metadata.Catalog) error {
	type entry struct {
		Database string   `json:"database"`
		Schemas  []string `json:"schemas"`
	}
	entries := make([]entry, 0, c.Len())
	for _, db := range c.Databases() {
		entries = append(entries, entry{Database: db, Schemas: c.Schemas(db)})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func renderCatalog(w io.Writer, c *metadata.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Database", "Schemas", "Count"})
	for _, db := range c.Databases() {
		schemas := c.Schemas(db)
		t.AppendRow(table.Row{db, strings.Join(schemas, ", "), len(schemas)})
	}
	t.AppendFooter(table.Row{"", "Total", c.SchemaCount()})
	t.Render()
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, "check")
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := checkConn.params(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()
	sel, err := checkFilters.selection(ctx, metadata.NewLoader(a.client, a.workflowLogger()), p)
	if err != nil {
		return err
	}

	lines := launcher.Preflight(ctx, a.client, launcher.Request{
		Params:         p,
		Filters:        sel.Serialize(),
		TempTableRegex: a.cfg.TempTableRegex,
	})
	renderCheckLines(cmd.OutOrStdout(), lines)
	if !launcher.Passed(lines) {
		return fmt.Errorf("preflight checks failed")
	}
	return nil
}

func renderCheckLines(w io.Writer, lines []launcher.CheckLine) {
	for _, l := range lines {
		mark := "✔"
		if !l.OK {
			mark = "✘"
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark, l.Name, l.Message)
	}
}
