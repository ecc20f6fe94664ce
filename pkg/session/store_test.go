// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confighub/sourcesense/pkg/workflows"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.yaml")
	prefsPath := filepath.Join(dir, "prefs", "preferences.yaml")

	s, err := Open(sessionPath, prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "", s.WorkflowID())
	assert.Equal(t, workflows.ViewJSON, s.ViewMode())

	require.NoError(t, s.SetRun(Run{WorkflowID: "default-1700000000", Synthesized: true}))
	require.NoError(t, s.SetViewMode(workflows.ViewText))

	reopened, err := Open(sessionPath, prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "default-1700000000", reopened.WorkflowID())
	assert.True(t, reopened.Run().Synthesized)
	assert.Equal(t, workflows.ViewText, reopened.ViewMode())

	require.NoError(t, reopened.Adopt("wf-99"))
	assert.False(t, reopened.Run().Synthesized)
}

func TestStoreIgnoresBadViewMode(t *testing.T) {
	dir := t.TempDir()
	prefsPath := filepath.Join(dir, "preferences.yaml")
	require.NoError(t, os.WriteFile(prefsPath, []byte("view_mode: xml\n"), 0o600))

	s, err := Open("", prefsPath)
	require.NoError(t, err)
	assert.Equal(t, workflows.ViewJSON, s.ViewMode())
}

func TestStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(sessionPath, []byte("workflow_id: [unterminated"), 0o600))

	_, err := Open(sessionPath, "")
	assert.Error(t, err)
}

func TestMemoryWritesNothing(t *testing.T) {
	s := Memory()
	require.NoError(t, s.SetRun(Run{WorkflowID: "wf-1"}))
	require.NoError(t, s.SetViewMode(workflows.ViewText))
	assert.Equal(t, "wf-1", s.WorkflowID())
	assert.False(t, s.Run().UpdatedAt.IsZero())
}
