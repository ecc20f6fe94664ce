// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Command sourcesense sets up and runs SourceSense metadata extraction
// workflows against a PostgreSQL database.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/confighub/sourcesense/internal/clierr"
	"github.com/confighub/sourcesense/internal/config"
	"github.com/confighub/sourcesense/pkg/session"
	"github.com/confighub/sourcesense/pkg/workflows"
)

var (
	// BuildTag is set during build
	BuildTag = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sourcesense",
	Short: "Extract PostgreSQL metadata with SourceSense workflows",
	Long: `sourcesense - extract PostgreSQL metadata with SourceSense workflows

Run without a subcommand to open the setup wizard:

  1. Connect          test database credentials
  2. Name Connection  label the connection
  3. Select Metadata  include and exclude databases and schemas
  4. Results          watch the workflow and read its output

Every step is also available as a subcommand for scripts.

Environment Variables:
  SOURCESENSE_SERVER_URL  SourceSense server (default: http://localhost:8000)
  TENANT_ID               Tenant the workflows run under (default: default)
  APP_NAME                Application name (default: postgres)
  TEMPORAL_UI_HOST        Workflow dashboard host (default: localhost)
  TEMPORAL_UI_PORT        Workflow dashboard port (default: 8233)
  CANDIDATE_MODELS        Comma-separated models for AI summaries
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWizard,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", clierr.Pretty(err))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	pf.String("server-url", config.DefaultServerURL, "SourceSense server URL")
	pf.String("tenant-id", config.DefaultTenantID, "Tenant id")
	pf.String("app-name", config.DefaultAppName, "Application name")
	pf.String("dashboard-host", config.DefaultDashboardHost, "Workflow dashboard host")
	pf.Int("dashboard-port", config.DefaultDashboardPort, "Workflow dashboard port")
	pf.String("candidate-models", "", "Comma-separated models for AI summaries")
	pf.String("temp-table-regex", "", "Regex of temporary tables to skip")
	pf.Duration("poll-interval", 5*time.Second, "Retry interval while results are not ready")
	pf.Duration("request-timeout", workflows.DefaultTimeout, "Timeout for each server request")
	pf.String("session-file", session.DefaultSessionPath(), "File holding the current workflow id")
	pf.String("preferences-file", session.DefaultPreferencesPath(), "File holding view preferences")
	pf.String("log-dir", "", "Directory for run logs (default: "+DefaultLogDir+")")

	rootCmd.RegisterFlagCompletionFunc("server-url", cobra.NoFileCompletions)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sourcesense version %s (built %s)\n", BuildTag, BuildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for sourcesense.

Bash:
  $ source <(sourcesense completion bash)
  # Or add to ~/.bashrc:
  $ sourcesense completion bash >> ~/.bashrc

Zsh:
  $ source <(sourcesense completion zsh)
  # Or install to fpath:
  $ sourcesense completion zsh > "${fpath[1]}/_sourcesense"

Fish:
  $ sourcesense completion fish | source
  # Or install:
  $ sourcesense completion fish > ~/.config/fish/completions/sourcesense.fish

PowerShell:
  PS> sourcesense completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})
}

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	client *workflows.Client
	store  *session.Store
	logger *RunLogger
}

// newApp loads configuration, opens the session store and starts a run
// log named after command. A log that cannot be created is skipped.
func newApp(cmd *cobra.Command, command string) (*app, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, clierr.WrapWithHint(err, "check "+config.DefaultFile+" and SOURCESENSE_* variables")
	}

	store, err := session.Open(cfg.SessionFile, cfg.PreferencesFile)
	if err != nil {
		return nil, err
	}

	logger, _ := NewRunLogger(cfg.LogDir, command)
	if cfg.FileUsed != "" {
		logger.Log("Config: %s", cfg.FileUsed)
	}
	logger.Log("Server: %s (tenant %s, app %s)", cfg.ServerURL, cfg.TenantID, cfg.AppName)

	a := &app{cfg: cfg, store: store, logger: logger}
	a.client = workflows.NewClient(cfg.ServerURL,
		workflows.WithTimeout(cfg.RequestTimeout),
		workflows.WithLogger(a.workflowLogger()),
	)
	return a, nil
}

// Close finishes the run log and reports where it went.
func (a *app) Close() string {
	return a.logger.Close()
}

// workflowLogger returns the run log as a workflows.Logger, or nil.
func (a *app) workflowLogger() workflows.Logger {
	if a.logger == nil {
		return nil
	}
	return a.logger
}
