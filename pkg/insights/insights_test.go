// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package insights

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/confighub/sourcesense/internal/testutil"
	"github.com/confighub/sourcesense/pkg/workflows"
)

func TestSummarizeSendsFirstCandidate(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetInsight("ai-summary", "One database with two schemas.")
	svc := New(b.Client(), []string{"gpt-4o-mini", "claude-3-haiku"}, nil)

	out, err := svc.Summarize(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "One database with two schemas.", out)

	req, ok := b.Last(workflows.AISummaryPath("wf-1"))
	require.True(t, ok)
	var body workflows.InsightRequest
	req.Decode(t, &body)
	assert.Equal(t, "gpt-4o-mini", body.Model)
	assert.Equal(t, []string{"gpt-4o-mini", "claude-3-haiku"}, body.Candidates)
}

func TestDiagram(t *testing.T) {
	tests := []struct {
		kind  DiagramKind
		route string
		text  string
	}{
		{Lineage, "lineage-mermaid", "flowchart LR"},
		{ER, "er-mermaid", "erDiagram"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			b := testutil.NewBackend(t)
			b.SetInsight(tt.route, tt.text)
			out, err := New(b.Client(), nil, nil).Diagram(context.Background(), tt.kind, "wf-1")
			require.NoError(t, err)
			assert.Equal(t, tt.text, out)
		})
	}
}

func TestInsightErrors(t *testing.T) {
	b := testutil.NewBackend(t)
	b.FailInsights(http.StatusServiceUnavailable)
	svc := New(b.Client(), nil, nil)

	_, err := svc.Summarize(context.Background(), "wf-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")

	_, err = svc.Diagram(context.Background(), "flow", "wf-1")
	assert.Error(t, err)

	b2 := testutil.NewBackend(t)
	_, err = New(b2.Client(), nil, nil).Diagram(context.Background(), ER, "wf-1")
	assert.True(t, apierrors.IsNotFound(err))
}

func TestParseDiagramKind(t *testing.T) {
	k, err := ParseDiagramKind("ER")
	require.NoError(t, err)
	assert.Equal(t, ER, k)

	_, err = ParseDiagramKind("sequence")
	assert.Error(t, err)
}
