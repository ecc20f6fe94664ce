// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package results finds, fetches and renders the output of a workflow run.
//
// Fetcher does one attempt: discover the run id, try the static artifact,
// fall back to the API route, and on a 404 switch once to a newer run.
// Poller wraps Fetcher in a countdown-then-retry state machine for the
// TUI; Wait does the same for headless commands.
package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/confighub/sourcesense/pkg/session"
	"github.com/confighub/sourcesense/pkg/workflows"
)

// Texts shown in the results view.
const (
	MsgNotReady  = "Results not ready yet. You can try again in a few seconds."
	MsgEmptyFile = "(empty file)"
)

// ErrNoWorkflowID means no run id is held and the server knows none.
var ErrNoWorkflowID = errors.New("workflow id unavailable")

// NotReadyError is a failed attempt that is worth retrying.
type NotReadyError struct {
	WorkflowID string
	Cause      error
}

func (e *NotReadyError) Error() string {
	if e.WorkflowID == "" {
		return fmt.Sprintf("results not ready: %v", e.Cause)
	}
	return fmt.Sprintf("results for %s not ready: %v", e.WorkflowID, e.Cause)
}

func (e *NotReadyError) Unwrap() error {
	return e.Cause
}

// ErrorType classifies the error for the CLI.
func (e *NotReadyError) ErrorType() string {
	return "not_found"
}

// Result is a fetched and rendered artifact.
type Result struct {
	WorkflowID string
	Mode       workflows.ViewMode
	// Source is the path the artifact came from.
	Source string
	Raw    []byte
	Body   string

	// RawURL opens the artifact through the API route for Mode.
	RawURL string
	// SummaryURL is set when the summary could be fetched.
	SummaryURL string
	Summary    []SummaryLine
}

// Fetcher makes single fetch attempts.
type Fetcher struct {
	client *workflows.Client
	store  *session.Store
	logger workflows.Logger
	pinned string
}

// NewFetcher reads the run id and view mode from store. logger may be nil.
func NewFetcher(client *workflows.Client, store *session.Store, logger workflows.Logger) *Fetcher {
	return &Fetcher{client: client, store: store, logger: logger}
}

// Client is the client fetches go through.
func (f *Fetcher) Client() *workflows.Client {
	return f.client
}

// Store is the session the fetcher reads and updates.
func (f *Fetcher) Store() *session.Store {
	return f.store
}

// Pin makes every attempt fetch id. The store's run is neither read nor
// replaced, and a 404 does not switch to a newer run.
func (f *Fetcher) Pin(id string) *Fetcher {
	f.pinned = id
	return f
}

// Discover returns the id to fetch. A missing or synthesized id is
// replaced by the server's latest run when it reports one.
func (f *Fetcher) Discover(ctx context.Context) (string, error) {
	if f.pinned != "" {
		return f.pinned, nil
	}
	run := f.store.Run()
	if run.WorkflowID != "" && !run.Synthesized {
		return run.WorkflowID, nil
	}
	latest, err := f.client.LatestOutput(ctx)
	if err != nil {
		f.logf("latest-output failed: %v", err)
	}
	if latest != "" {
		f.adopt(latest)
		return latest, nil
	}
	if run.WorkflowID != "" {
		return run.WorkflowID, nil
	}
	return "", ErrNoWorkflowID
}

// Fetch makes one attempt. Every failure is a *NotReadyError.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	id, err := f.Discover(ctx)
	if err != nil {
		return nil, &NotReadyError{Cause: err}
	}
	return f.fetch(ctx, id, f.store.ViewMode(), f.pinned == "")
}

func (f *Fetcher) fetch(ctx context.Context, id string, mode workflows.ViewMode, rediscover bool) (*Result, error) {
	source := workflows.ArtifactPath(id, mode)
	body, directErr := f.client.Artifact(ctx, id, mode)
	err := directErr
	if directErr != nil {
		source = workflows.ResultPath(id, mode)
		body, err = f.client.Result(ctx, id, mode)
	}

	if err != nil {
		if rediscover && apierrors.IsNotFound(directErr) {
			latest, lerr := f.client.LatestOutput(ctx)
			if lerr == nil && latest != "" && latest != id {
				f.logf("Switching to newer workflow %s (was %s)", latest, id)
				f.adopt(latest)
				return f.fetch(ctx, latest, mode, false)
			}
		}
		f.logf("Results for %s not available: %v", id, err)
		return nil, &NotReadyError{WorkflowID: id, Cause: err}
	}

	r := &Result{
		WorkflowID: id,
		Mode:       mode,
		Source:     source,
		Raw:        body,
		Body:       Render(body, mode),
		RawURL:     f.client.URL(workflows.ResultPath(id, mode)),
	}

	summary, err := f.client.Summary(ctx, id)
	if err != nil {
		f.logf("Summary for %s not available: %v", id, err)
		summary = &workflows.Summary{}
	} else {
		r.SummaryURL = f.client.URL(workflows.SummaryArtifactPath(id))
	}
	r.Summary = SummaryLines(summary)
	f.logf("Results loaded for %s from %s (%d bytes)", id, source, len(body))
	return r, nil
}

func (f *Fetcher) adopt(id string) {
	if err := f.store.Adopt(id); err != nil {
		f.logf("Saving session failed: %v", err)
	}
}

func (f *Fetcher) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Log(format, args...)
	}
}

// Render pretty-prints JSON with two-space indent. Text mode and bodies
// that are not JSON pass through unchanged.
func Render(body []byte, mode workflows.ViewMode) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return MsgEmptyFile
	}
	if mode == workflows.ViewJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err == nil {
			return buf.String()
		}
	}
	return string(body)
}
