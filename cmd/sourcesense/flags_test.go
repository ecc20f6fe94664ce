// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confighub/sourcesense/internal/testutil"
	"github.com/confighub/sourcesense/pkg/connection"
	"github.com/confighub/sourcesense/pkg/metadata"
	"github.com/confighub/sourcesense/pkg/selection"
)

func TestParseFilterSpec(t *testing.T) {
	tests := []struct {
		raw     string
		want    filterSpec
		wantErr bool
	}{
		{raw: "sales", want: filterSpec{db: "sales"}},
		{raw: " sales : public, audit ", want: filterSpec{db: "sales", schemas: []string{"public", "audit"}}},
		{raw: "sales:public,,", want: filterSpec{db: "sales", schemas: []string{"public"}}},
		{raw: ":public", wantErr: true},
		{raw: "sales:", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseFilterSpec(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func parseConnFlags(t *testing.T, args ...string) (connection.Params, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := addConnectionFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return f.params(cmd)
}

func TestConnFlagsParams(t *testing.T) {
	t.Setenv("PGPASSWORD", "")

	p, err := parseConnFlags(t, "--url", "postgres://app:secret@db:6543/sales?sslmode=require")
	require.NoError(t, err)
	assert.Equal(t, connection.Params{
		AuthType: connection.DefaultAuthType,
		Host:     "db",
		Port:     6543,
		Username: "app",
		Password: "secret",
		Database: "sales",
		SSLMode:  "require",
	}, p)

	// Explicit flags win over the URL.
	p, err = parseConnFlags(t, "--url", "postgres://app:secret@db/sales", "--host", "replica", "-d", "hr")
	require.NoError(t, err)
	assert.Equal(t, "replica", p.Host)
	assert.Equal(t, "hr", p.Database)
	assert.Equal(t, connection.DefaultPort, p.Port)

	p, err = parseConnFlags(t, "--host", "db", "-U", "app", "--port", "5433")
	require.NoError(t, err)
	assert.Equal(t, 5433, p.Port)
	assert.Empty(t, p.Password)
}

func TestConnFlagsPasswordFromEnv(t *testing.T) {
	t.Setenv("PGPASSWORD", "from-env")

	p, err := parseConnFlags(t, "--host", "db", "-U", "app")
	require.NoError(t, err)
	assert.Equal(t, "from-env", p.Password)

	p, err = parseConnFlags(t, "--host", "db", "-U", "app", "--password", "typed")
	require.NoError(t, err)
	assert.Equal(t, "typed", p.Password)
}

func TestConnFlagsRequired(t *testing.T) {
	_, err := parseConnFlags(t, "-U", "app")
	assert.ErrorContains(t, err, "host is required")

	_, err = parseConnFlags(t, "--host", "db")
	assert.ErrorContains(t, err, "username is required")

	_, err = parseConnFlags(t, "--url", "postgres://app@db:notaport/x")
	assert.Error(t, err)
}

func TestFilterFlagsSelection(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetMetadata(
		map[string]string{"catalog_name": "sales", "schema_name": "public"},
		map[string]string{"catalog_name": "sales", "schema_name": "audit"},
	)
	loader := metadata.NewLoader(b.Client(), nil)
	p := connection.Params{Host: "db", Username: "app", Port: connection.DefaultPort}

	f := &filterFlags{include: []string{"sales:public"}, exclude: []string{"sales"}}
	sel, err := f.selection(context.Background(), loader, p)
	require.NoError(t, err)
	// The whole-database exclude skips the included schema.
	assert.Equal(t, []string{"public"}, sel.Schemas(selection.Include, "sales"))
	assert.Equal(t, []string{"audit"}, sel.Schemas(selection.Exclude, "sales"))

	f = &filterFlags{include: []string{"missing"}}
	_, err = f.selection(context.Background(), loader, p)
	assert.ErrorContains(t, err, `database "missing" has no visible schemas`)
}

func TestFilterFlagsSkipMetadataForExplicitSchemas(t *testing.T) {
	b := testutil.NewBackend(t)
	loader := metadata.NewLoader(b.Client(), nil)

	f := &filterFlags{include: []string{"sales:public,audit"}}
	sel, err := f.selection(context.Background(), loader, connection.Params{Host: "db", Username: "app"})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Count(selection.Include, "sales"))
	assert.Empty(t, b.Requests())
}

func TestCompletions(t *testing.T) {
	cmd := &cobra.Command{}

	modes, _ := completeSSLModes(cmd, nil, "VER")
	assert.Equal(t, []string{"verify-ca", "verify-full"}, modes)

	views, _ := completeViewModes(cmd, nil, "")
	assert.Equal(t, []string{"json", "text"}, views)

	kinds, _ := completeDiagramKinds(cmd, nil, "l")
	assert.Equal(t, []string{"lineage"}, kinds)

	kinds, _ = completeDiagramKinds(cmd, []string{"er"}, "")
	assert.Empty(t, kinds)

	assert.Nil(t, filterPrefix([]string{"json", "yaml"}, "x"))
}
