// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package results

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// MsgNoSummary is shown when a run has no summary.
const MsgNoSummary = "No summary available."

// SummaryOrder is the display order of entity types. Types not listed
// are not shown.
var SummaryOrder = []string{
	"database",
	"schema",
	"table",
	"column",
	"index",
	"quality_metric",
	"view_dependency",
	"relationship",
}

// SummaryLine is the count for one entity type.
type SummaryLine struct {
	Entity string
	Rows   int64
	Chunks int64
}

// Label is the entity name for tables, e.g. "Quality Metric".
func (l SummaryLine) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(l.Entity, "_", " "))
}

func (l SummaryLine) String() string {
	return fmt.Sprintf("%s: %d rows (%d chunks)", l.Entity, l.Rows, l.Chunks)
}

// SummaryLines picks the known entity types from s in display order.
func SummaryLines(s *workflows.Summary) []SummaryLine {
	if s == nil {
		return nil
	}
	var out []SummaryLine
	for _, k := range SummaryOrder {
		e, ok := s.Types[k]
		if !ok {
			continue
		}
		out = append(out, SummaryLine{Entity: k, Rows: e.TotalRecordCount, Chunks: e.ChunkCount})
	}
	return out
}

// SummaryText joins lines, or returns MsgNoSummary.
func SummaryText(lines []SummaryLine) string {
	if len(lines) == 0 {
		return MsgNoSummary
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}
