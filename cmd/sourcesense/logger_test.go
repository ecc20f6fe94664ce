// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/confighub/sourcesense/pkg/launcher"
	"github.com/confighub/sourcesense/pkg/selection"
)

func TestNewRunLogger(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewRunLogger(dir, "test")
	if err != nil {
		t.Fatalf("NewRunLogger failed: %v", err)
	}

	logger.Log("Test message %d", 1)
	logger.Section("TEST SECTION")
	logger.Log("Another message")

	logPath := logger.Close()
	if logPath == "" {
		t.Fatal("Expected log path, got empty string")
	}
	if !strings.HasPrefix(filepath.Base(logPath), "test-") {
		t.Errorf("Unexpected log path: %s", logPath)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	contentStr := string(content)

	for _, want := range []string{"SourceSense: test", "Test message 1", "--- TEST SECTION ---", "Another message", "Completed:"} {
		if !strings.Contains(contentStr, want) {
			t.Errorf("Missing %q in log", want)
		}
	}
}

func TestRunLoggerDefaultDir(t *testing.T) {
	t.Chdir(t.TempDir())

	logger, err := NewRunLogger("", "dir-test")
	if err != nil {
		t.Fatalf("NewRunLogger failed: %v", err)
	}
	logger.Close()

	info, err := os.Stat(DefaultLogDir)
	if err != nil {
		t.Fatalf("Log directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Expected %s to be a directory", DefaultLogDir)
	}
}

func TestLogSelection(t *testing.T) {
	logger, err := NewRunLogger(t.TempDir(), "selection-test")
	if err != nil {
		t.Fatalf("NewRunLogger failed: %v", err)
	}

	m := selection.New()
	m.SetDatabase(selection.Include, "sales", []string{"public", "audit"}, true)
	logger.LogSelection(m)
	content, err := os.ReadFile(logger.Close())
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	contentStr := string(content)

	if !strings.Contains(contentStr, "include: sales (2 schemas)") {
		t.Error("Missing include summary")
	}
	if !strings.Contains(contentStr, `include-filter: {"^sales$":["^public$","^audit$"]}`) {
		t.Errorf("Missing include filter:\n%s", contentStr)
	}
	if !strings.Contains(contentStr, "exclude-filter: {}") {
		t.Error("Missing empty exclude filter")
	}
}

func TestLogRun(t *testing.T) {
	logger, err := NewRunLogger(t.TempDir(), "run-test")
	if err != nil {
		t.Fatalf("NewRunLogger failed: %v", err)
	}
	logger.LogRun(launcher.Run{ID: "default-1700000000", Synthesized: true}, nil)
	logger.LogRun(launcher.Run{}, errors.New("boom"))

	content, err := os.ReadFile(logger.Close())
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	contentStr := string(content)

	if !strings.Contains(contentStr, "Workflow: default-1700000000") {
		t.Error("Missing workflow id")
	}
	if !strings.Contains(contentStr, "until the server reports one") {
		t.Error("Missing synthesized note")
	}
	if !strings.Contains(contentStr, "ERROR: boom") {
		t.Error("Missing error")
	}
}

func TestNilLoggerSafety(t *testing.T) {
	var logger *RunLogger

	logger.Log("test")
	logger.Section("test")
	logger.LogSelection(nil)
	logger.LogRun(launcher.Run{}, nil)
	if path := logger.Close(); path != "" {
		t.Errorf("Expected empty path from nil logger, got: %s", path)
	}
}

func TestLogFileNaming(t *testing.T) {
	dir := t.TempDir()
	logger1, _ := NewRunLogger(dir, "wizard")
	logger2, _ := NewRunLogger(dir, "start")

	path1 := logger1.Close()
	path2 := logger2.Close()

	if !strings.Contains(filepath.Base(path1), "wizard-") {
		t.Errorf("Wizard log should contain 'wizard-': %s", path1)
	}
	if !strings.Contains(filepath.Base(path2), "start-") {
		t.Errorf("Start log should contain 'start-': %s", path2)
	}
}
