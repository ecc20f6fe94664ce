// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package launcher

import (
	"context"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// CheckLine is one rendered preflight outcome.
type CheckLine struct {
	Name    string
	OK      bool
	Message string
}

// Preflight runs the server checks for req. Any request failure collapses
// into a single failed "Preflight" line.
func Preflight(ctx context.Context, client *workflows.Client, req Request) []CheckLine {
	resp, err := client.Check(ctx, workflows.CheckRequest{
		Credentials: req.Params.Credentials(),
		Metadata:    req.Metadata(),
	})
	if err != nil {
		return []CheckLine{{Name: "Preflight", Message: "Failed"}}
	}
	return []CheckLine{
		checkLine("Database and schema", resp.Data.DatabaseSchemaCheck),
		checkLine("Tables", resp.Data.TablesCheck),
		checkLine("Version", resp.Data.VersionCheck),
	}
}

func checkLine(name string, r workflows.CheckResult) CheckLine {
	line := CheckLine{Name: name, OK: r.Success}
	if r.Success {
		line.Message = r.SuccessMessage
		if line.Message == "" {
			line.Message = "OK"
		}
	} else {
		line.Message = r.FailureMessage
		if line.Message == "" {
			line.Message = "Failed"
		}
	}
	return line
}

// Passed reports whether every line succeeded.
func Passed(lines []CheckLine) bool {
	for _, l := range lines {
		if !l.OK {
			return false
		}
	}
	return len(lines) > 0
}
