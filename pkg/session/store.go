// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package session persists the client state that outlives one command:
// the current workflow run for the shell session, and the view-mode
// preference across restarts.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// Run is the workflow the session last started or discovered.
type Run struct {
	WorkflowID string `yaml:"workflow_id"`
	// Synthesized is set when the server did not name the run and the id
	// was made up locally. Such an id is not trusted for lookups.
	Synthesized bool      `yaml:"synthesized,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"`
}

// Preferences survive restarts.
type Preferences struct {
	ViewMode workflows.ViewMode `yaml:"view_mode"`
}

// Store reads and writes both files. Writes happen on every change.
// An empty path keeps that half in memory only.
type Store struct {
	mu          sync.Mutex
	sessionPath string
	prefsPath   string
	run         Run
	prefs       Preferences
}

// DefaultSessionPath is scoped to the parent shell so each terminal has
// its own run.
func DefaultSessionPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("sourcesense-session-%d.yaml", os.Getppid()))
}

// DefaultPreferencesPath is ~/.sourcesense/preferences.yaml.
func DefaultPreferencesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sourcesense", "preferences.yaml")
}

// Open loads the store. Missing files are not an error.
func Open(sessionPath, prefsPath string) (*Store, error) {
	s := &Store{
		sessionPath: sessionPath,
		prefsPath:   prefsPath,
		prefs:       Preferences{ViewMode: workflows.ViewJSON},
	}
	if err := load(sessionPath, &s.run); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := load(prefsPath, &s.prefs); err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if _, err := workflows.ParseViewMode(string(s.prefs.ViewMode)); err != nil {
		s.prefs.ViewMode = workflows.ViewJSON
	}
	return s, nil
}

// Memory returns a store that writes nothing.
func Memory() *Store {
	s, _ := Open("", "")
	return s
}

func (s *Store) Run() Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// WorkflowID is the current run id, or "".
func (s *Store) WorkflowID() string {
	return s.Run().WorkflowID
}

// SetRun replaces the current run and writes the session file.
func (s *Store) SetRun(r Run) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = r
	return save(s.sessionPath, s.run)
}

// Adopt records an id the server reported, clearing Synthesized.
func (s *Store) Adopt(id string) error {
	return s.SetRun(Run{WorkflowID: id})
}

func (s *Store) ViewMode() workflows.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.ViewMode
}

// SetViewMode stores m and writes the preferences file.
func (s *Store) SetViewMode(m workflows.ViewMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.ViewMode = m
	return save(s.prefsPath, s.prefs)
}

func load(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func save(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
