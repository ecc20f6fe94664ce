// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package connection tests database credentials against the SourceSense
// server and turns driver errors into messages a user can act on.
package connection

import (
	"context"
	"errors"
	"strings"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// Messages shown for the failures the server reports most often.
const (
	MsgWrongPassword    = "Wrong password/username"
	MsgUserMissing      = "User does not exist"
	MsgDatabaseMissing  = "Database does not exist"
	MsgConnectionFailed = "Connection failed"
	MsgFailedToConnect  = "Failed to connect."
)

// AuthError is a failed connection test.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// ErrorType classifies the error for the CLI.
func (e *AuthError) ErrorType() string {
	var rerr *workflows.ResponseError
	if e.Cause != nil && !errors.As(e.Cause, &rerr) {
		return "network"
	}
	return "auth"
}

// AuthState receives the outcome of Test.
type AuthState interface {
	SetAuthenticated(bool)
}

// Tester runs connection tests.
type Tester struct {
	client *workflows.Client
	logger workflows.Logger

	// Busy, if set, is called with true before the request and false
	// after it, whatever the outcome.
	Busy func(bool)
}

// NewTester returns a tester using client. logger may be nil.
func NewTester(client *workflows.Client, logger workflows.Logger) *Tester {
	return &Tester{client: client, logger: logger}
}

// Check calls the auth endpoint and returns nil or an *AuthError.
func (t *Tester) Check(ctx context.Context, p Params) error {
	if t.Busy != nil {
		t.Busy(true)
		defer t.Busy(false)
	}
	t.logf("Testing connection %s", p.Redacted())

	resp, err := t.client.Auth(ctx, p.Credentials())
	if err != nil {
		var rerr *workflows.ResponseError
		if errors.As(err, &rerr) {
			return t.fail(friendly(rerr.Text(), rerr.Message), err)
		}
		return t.fail(MsgFailedToConnect, err)
	}
	if !resp.Success {
		details := firstNonEmpty(resp.Details, resp.Error, resp.Message)
		return t.fail(friendly(details, resp.Message), nil)
	}
	t.logf("Connection OK")
	return nil
}

// Test runs Check and records the outcome in state. The returned error is
// the one Check reported; nil means state was marked authenticated.
func (t *Tester) Test(ctx context.Context, p Params, state AuthState) error {
	err := t.Check(ctx, p)
	state.SetAuthenticated(err == nil)
	return err
}

func (t *Tester) fail(msg string, cause error) error {
	if cause != nil {
		t.logf("Connection failed: %s (%v)", msg, cause)
	} else {
		t.logf("Connection failed: %s", msg)
	}
	return &AuthError{Message: msg, Cause: cause}
}

func (t *Tester) logf(format string, args ...interface{}) {
	if t.logger != nil {
		t.logger.Log(format, args...)
	}
}

// friendly maps server details to a user message, falling back to the
// server's own message and then to MsgConnectionFailed.
func friendly(details, message string) string {
	lower := strings.ToLower(details)
	switch {
	case strings.Contains(lower, "password authentication failed"):
		return MsgWrongPassword
	case strings.Contains(lower, "role") && strings.Contains(lower, "does not exist"):
		return MsgUserMissing
	case strings.Contains(lower, "database") && strings.Contains(lower, "does not exist"):
		return MsgDatabaseMissing
	case message != "":
		return message
	default:
		return MsgConnectionFailed
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
