// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package config loads sourcesense settings.
//
// Precedence, lowest to highest: defaults, sourcesense.yaml, the bare
// environment names the SourceSense server also reads (TENANT_ID, ...),
// SOURCESENSE_* variables, then command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/confighub/sourcesense/pkg/session"
)

// DefaultFile is read from the working directory when present.
const DefaultFile = "sourcesense.yaml"

// EnvPrefix marks sourcesense's own variables.
const EnvPrefix = "SOURCESENSE_"

// Defaults.
const (
	DefaultServerURL     = "http://localhost:8000"
	DefaultTenantID      = "default"
	DefaultAppName       = "postgres"
	DefaultDashboardHost = "localhost"
	DefaultDashboardPort = 8233
	DefaultResultsDelay  = 20
)

// sharedEnv maps variables shared with the server to config keys.
var sharedEnv = map[string]string{
	"TENANT_ID":            "tenant_id",
	"APP_NAME":             "app_name",
	"TEMPORAL_UI_HOST":     "dashboard_host",
	"TEMPORAL_UI_PORT":     "dashboard_port",
	"CANDIDATE_MODELS":     "candidate_models",
	"CREDENTIALS_DOCS_URL": "credentials_docs_url",
}

// Config is the merged configuration.
type Config struct {
	ServerURL          string        `koanf:"server_url"`
	TenantID           string        `koanf:"tenant_id"`
	AppName            string        `koanf:"app_name"`
	DashboardHost      string        `koanf:"dashboard_host"`
	DashboardPort      int           `koanf:"dashboard_port"`
	CandidateModels    string        `koanf:"candidate_models"`
	CredentialsDocsURL string        `koanf:"credentials_docs_url"`
	TempTableRegex     string        `koanf:"temp_table_regex"`
	ResultsDelay       int           `koanf:"results_delay"`
	PollInterval       time.Duration `koanf:"poll_interval"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
	SessionFile        string        `koanf:"session_file"`
	PreferencesFile    string        `koanf:"preferences_file"`
	LogDir             string        `koanf:"log_dir"`

	// FileUsed is the config file that was read, if any.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server_url":       DefaultServerURL,
		"tenant_id":        DefaultTenantID,
		"app_name":         DefaultAppName,
		"dashboard_host":   DefaultDashboardHost,
		"dashboard_port":   DefaultDashboardPort,
		"results_delay":    DefaultResultsDelay,
		"poll_interval":    "5s",
		"request_timeout":  "30s",
		"session_file":     session.DefaultSessionPath(),
		"preferences_file": session.DefaultPreferencesPath(),
		"log_dir":          "",
	}
}

// Load merges every source. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// TENANT_ID -> tenant_id; anything not in sharedEnv is skipped.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return sharedEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// SOURCESENSE_SERVER_URL -> server_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// Validate checks values that would break later in confusing ways.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not an absolute URL", c.ServerURL)
	}
	if c.DashboardPort <= 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("dashboard_port %d is out of range", c.DashboardPort)
	}
	if c.ResultsDelay < 0 {
		return fmt.Errorf("results_delay must not be negative")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

// Candidates splits candidate_models on commas.
func (c *Config) Candidates() []string {
	var out []string
	for _, m := range strings.Split(c.CandidateModels, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// DashboardURL is the workflow list of the tenant's namespace.
func (c *Config) DashboardURL() string {
	return fmt.Sprintf("http://%s:%d/namespaces/%s/workflows", c.DashboardHost, c.DashboardPort, url.PathEscape(c.TenantID))
}
