// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package insights asks the server for model-generated views of a run:
// a prose summary and Mermaid diagrams.
package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// DiagramKind selects a diagram.
type DiagramKind string

const (
	Lineage DiagramKind = "lineage"
	ER      DiagramKind = "er"
)

// ParseDiagramKind accepts "lineage" or "er".
func ParseDiagramKind(s string) (DiagramKind, error) {
	switch DiagramKind(strings.ToLower(strings.TrimSpace(s))) {
	case Lineage:
		return Lineage, nil
	case ER:
		return ER, nil
	}
	return "", fmt.Errorf("unknown diagram %q (want lineage or er)", s)
}

// Service calls the insight routes.
type Service struct {
	client     *workflows.Client
	candidates []string
	logger     workflows.Logger
}

// New returns a service that offers candidates to the server, first one
// preferred. logger may be nil.
func New(client *workflows.Client, candidates []string, logger workflows.Logger) *Service {
	return &Service{client: client, candidates: candidates, logger: logger}
}

func (s *Service) request() workflows.InsightRequest {
	req := workflows.InsightRequest{Candidates: s.candidates}
	if req.Candidates == nil {
		req.Candidates = []string{}
	}
	if len(s.candidates) > 0 {
		req.Model = s.candidates[0]
	}
	return req
}

// Summarize returns a prose summary of run id.
func (s *Service) Summarize(ctx context.Context, id string) (string, error) {
	s.logf("Requesting AI summary for %s (model %q)", id, s.request().Model)
	out, err := s.client.AISummary(ctx, id, s.request())
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", id, err)
	}
	return out, nil
}

// Diagram returns Mermaid source for run id.
func (s *Service) Diagram(ctx context.Context, kind DiagramKind, id string) (string, error) {
	s.logf("Requesting %s diagram for %s", kind, id)
	var (
		out string
		err error
	)
	switch kind {
	case Lineage:
		out, err = s.client.LineageMermaid(ctx, id, s.request())
	case ER:
		out, err = s.client.ERMermaid(ctx, id, s.request())
	default:
		return "", fmt.Errorf("unknown diagram %q", kind)
	}
	if err != nil {
		return "", fmt.Errorf("%s diagram for %s: %w", kind, id, err)
	}
	return out, nil
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Log(format, args...)
	}
}
