// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for name := range sharedEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	for _, name := range []string{"SOURCESENSE_SERVER_URL", "SOURCESENSE_TENANT_ID", "SOURCESENSE_RESULTS_DELAY"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, "default", cfg.TenantID)
	assert.Equal(t, "postgres", cfg.AppName)
	assert.Equal(t, 8233, cfg.DashboardPort)
	assert.Equal(t, 20, cfg.ResultsDelay)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.FileUsed)
	assert.Equal(t, "http://localhost:8233/namespaces/default/workflows", cfg.DashboardURL())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sourcesense.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server_url: http://file:8000/
tenant_id: from-file
app_name: from-file
results_delay: 5
poll_interval: 2s
candidate_models: "gpt-4o-mini, claude-3-haiku"
`), 0o600))

	t.Setenv("TENANT_ID", "acme")
	t.Setenv("TEMPORAL_UI_HOST", "temporal.internal")
	t.Setenv("TEMPORAL_UI_PORT", "9000")
	t.Setenv("SOURCESENSE_TENANT_ID", "acme-override")
	t.Setenv("UNRELATED_VAR", "ignored")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("app-name", "", "")
	flags.Int("results-delay", 0, "")
	require.NoError(t, flags.Parse([]string{"--app-name", "mysql"}))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, cfgPath, cfg.FileUsed)
	assert.Equal(t, "http://file:8000", cfg.ServerURL)
	assert.Equal(t, "acme-override", cfg.TenantID)
	assert.Equal(t, "mysql", cfg.AppName)
	// Unchanged flags do not override the file.
	assert.Equal(t, 5, cfg.ResultsDelay)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, []string{"gpt-4o-mini", "claude-3-haiku"}, cfg.Candidates())
	assert.Equal(t, "http://temporal.internal:9000/namespaces/acme-override/workflows", cfg.DashboardURL())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{ServerURL: "http://localhost:8000", DashboardPort: 8233, PollInterval: time.Second}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative server", func(c *Config) { c.ServerURL = "localhost:8000/x" }, "server_url"},
		{"port range", func(c *Config) { c.DashboardPort = 70000 }, "dashboard_port"},
		{"negative delay", func(c *Config) { c.ResultsDelay = -1 }, "results_delay"},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCandidatesEmpty(t *testing.T) {
	assert.Nil(t, (&Config{CandidateModels: " , "}).Candidates())
}
