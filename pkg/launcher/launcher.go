// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package launcher starts extraction workflows and remembers their ids.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/confighub/sourcesense/pkg/connection"
	"github.com/confighub/sourcesense/pkg/selection"
	"github.com/confighub/sourcesense/pkg/session"
	"github.com/confighub/sourcesense/pkg/workflows"
)

// Defaults used when tenant or app are not configured.
const (
	DefaultTenant = "default"
	DefaultApp    = "postgres"
)

// MsgStartFailed is shown when the server gives no reason.
const MsgStartFailed = "Failed to start workflow"

// Request is everything a start call needs.
type Request struct {
	Params         connection.Params
	ConnectionName string
	Filters        selection.Filters
	TempTableRegex string
	Tenant         string
	App            string
	Now            time.Time
}

func (r Request) tenant() string {
	if r.Tenant == "" {
		return DefaultTenant
	}
	return r.Tenant
}

func (r Request) app() string {
	if r.App == "" {
		return DefaultApp
	}
	return r.App
}

// Epoch is the request time in Unix seconds.
func (r Request) Epoch() int64 {
	if r.Now.IsZero() {
		return time.Now().Unix()
	}
	return r.Now.Unix()
}

// QualifiedName is tenant/app/epoch.
func (r Request) QualifiedName() string {
	return fmt.Sprintf("%s/%s/%d", r.tenant(), r.app(), r.Epoch())
}

// FallbackID is the id used when the server does not return one.
func (r Request) FallbackID() string {
	return fmt.Sprintf("%s-%d", r.tenant(), r.Epoch())
}

// Metadata is the filter block shared with the preflight check.
func (r Request) Metadata() workflows.MetadataFilters {
	include, exclude := r.Filters.JSON()
	return workflows.MetadataFilters{
		IncludeFilter:  include,
		ExcludeFilter:  exclude,
		TempTableRegex: r.TempTableRegex,
	}
}

// Body builds the start request.
func (r Request) Body() workflows.StartRequest {
	return workflows.StartRequest{
		Credentials: r.Params.Credentials(),
		Connection: workflows.Connection{
			ConnectionName: r.ConnectionName,
			QualifiedName:  r.QualifiedName(),
		},
		Metadata: r.Metadata(),
		TenantID: r.tenant(),
	}
}

// Run identifies a started workflow.
type Run struct {
	ID          string
	Synthesized bool
}

// StartError is a rejected or failed start.
type StartError struct {
	Message string
	Cause   error
}

func (e *StartError) Error() string {
	return e.Message
}

func (e *StartError) Unwrap() error {
	return e.Cause
}

// ExtractWorkflowID looks for workflow_id, id or workflowId at the top
// level, then workflow_id or id under "data".
func ExtractWorkflowID(body map[string]interface{}) (string, bool) {
	for _, key := range []string{"workflow_id", "id", "workflowId"} {
		if id, ok := idValue(body[key]); ok {
			return id, true
		}
	}
	if data, ok := body["data"].(map[string]interface{}); ok {
		for _, key := range []string{"workflow_id", "id"} {
			if id, ok := idValue(data[key]); ok {
				return id, true
			}
		}
	}
	return "", false
}

func idValue(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		if x == 0 {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

// Launcher starts workflows.
type Launcher struct {
	client *workflows.Client
	store  *session.Store
	logger workflows.Logger
}

// New returns a launcher that records runs in store. logger may be nil.
func New(client *workflows.Client, store *session.Store, logger workflows.Logger) *Launcher {
	return &Launcher{client: client, store: store, logger: logger}
}

// Launch starts a workflow and stores its id in the session.
func (l *Launcher) Launch(ctx context.Context, req Request) (Run, error) {
	l.logf("Starting workflow %s (%s)", req.QualifiedName(), req.ConnectionName)

	body, err := l.client.Start(ctx, req.Body())
	if err != nil {
		msg := MsgStartFailed
		var rerr *workflows.ResponseError
		if errors.As(err, &rerr) {
			if text := firstString(body, "error", "message"); text != "" {
				msg = text
			}
		}
		l.logf("Start failed: %v", err)
		return Run{}, &StartError{Message: msg, Cause: err}
	}

	run := Run{}
	if id, ok := ExtractWorkflowID(body); ok {
		run.ID = id
	} else {
		run.ID = req.FallbackID()
		run.Synthesized = true
		l.logf("Start response had no workflow id, using %s", run.ID)
	}

	if err := l.store.SetRun(session.Run{WorkflowID: run.ID, Synthesized: run.Synthesized}); err != nil {
		// The run started; a failed write only loses it for the next command.
		l.logf("Saving session failed: %v", err)
	}
	l.logf("Workflow started: %s", run.ID)
	return run, nil
}

func firstString(body map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := body[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (l *Launcher) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Log(format, args...)
	}
}
