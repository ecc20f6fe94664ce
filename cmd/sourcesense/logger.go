// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/confighub/sourcesense/pkg/launcher"
	"github.com/confighub/sourcesense/pkg/selection"
)

// DefaultLogDir is used when log_dir is not configured.
const DefaultLogDir = ".sourcesense/logs"

// RunLogger logs one command's activity to a file. Fetch commands run
// off the UI goroutine, so writes are serialized.
type RunLogger struct {
	mu        sync.Mutex
	file      *os.File
	startTime time.Time
	command   string
}

// NewRunLogger creates dir (DefaultLogDir when empty) and a log file
// named after command.
func NewRunLogger(dir, command string) (*RunLogger, error) {
	if dir == "" {
		dir = DefaultLogDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	logPath := filepath.Join(dir, fmt.Sprintf("%s-%s.log", command, timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	logger := &RunLogger{
		file:      file,
		startTime: time.Now(),
		command:   command,
	}
	logger.writeHeader()
	return logger, nil
}

func (l *RunLogger) writeHeader() {
	rule := strings.Repeat("=", 80) + "\n"
	l.write(rule)
	l.write(fmt.Sprintf("SourceSense: %s\n", l.command))
	l.write(fmt.Sprintf("Started: %s\n", l.startTime.Format(time.RFC3339)))
	l.write(rule + "\n")
}

func (l *RunLogger) write(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.WriteString(s)
	}
}

// Log writes a timestamped line.
func (l *RunLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	l.write(fmt.Sprintf("[%s] %s\n", timestamp, fmt.Sprintf(format, args...)))
}

// Section writes a section header
func (l *RunLogger) Section(title string) {
	if l == nil || l.file == nil {
		return
	}
	l.write(fmt.Sprintf("\n--- %s ---\n", title))
}

// LogSelection writes the filters a run is about to use.
func (l *RunLogger) LogSelection(m *selection.Model) {
	if l == nil || l.file == nil || m == nil {
		return
	}
	l.Section("SELECTION")
	for _, t := range []selection.Type{selection.Include, selection.Exclude} {
		s := m.Summary(t)
		l.Log("%s: %s", t, s.Text)
		for _, d := range s.Detail {
			l.Log("  %s", d)
		}
	}
	include, exclude := m.Serialize().JSON()
	l.Log("include-filter: %s", include)
	l.Log("exclude-filter: %s", exclude)
}

// LogRun writes the outcome of a start request.
func (l *RunLogger) LogRun(run launcher.Run, err error) {
	if l == nil || l.file == nil {
		return
	}
	l.Section("RESULT")
	if err != nil {
		l.Log("ERROR: %v", err)
	} else {
		l.Log("Workflow: %s", run.ID)
		if run.Synthesized {
			l.Log("Workflow id was not returned; using %s until the server reports one", run.ID)
		}
	}
	l.Log("Duration: %s", time.Since(l.startTime).Round(time.Millisecond))
}

// Close closes the log file and returns its path.
func (l *RunLogger) Close() string {
	if l == nil || l.file == nil {
		return ""
	}
	l.write(fmt.Sprintf("\n\nCompleted: %s\n", time.Now().Format(time.RFC3339)))
	l.write(fmt.Sprintf("Duration: %s\n", time.Since(l.startTime).Round(time.Millisecond)))

	l.mu.Lock()
	defer l.mu.Unlock()
	path := l.file.Name()
	l.file.Close()
	l.file = nil
	return path
}
