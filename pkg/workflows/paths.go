package workflows

import (
	"fmt"
	"net/url"
	"strings"
)

// Server paths. This file is the SINGLE SOURCE OF TRUTH for every route the
// wizard calls; the server depends on these exact strings.
const (
	AuthPath         = "/workflows/v1/auth"
	MetadataPath     = "/workflows/v1/metadata"
	CheckPath        = "/workflows/v1/check"
	StartPath        = "/workflows/v1/start"
	LatestOutputPath = "/workflows/v1/latest-output"

	resultPrefix         = "/workflows/v1/result/"
	resultJSONPrefix     = "/workflows/v1/result-json/"
	summaryPrefix        = "/workflows/v1/summary/"
	aiSummaryPrefix      = "/workflows/v1/ai-summary/"
	lineageMermaidPrefix = "/workflows/v1/lineage-mermaid/"
	erMermaidPrefix      = "/workflows/v1/er-mermaid/"
	outputPrefix         = "/output/"
)

// ViewMode selects which artifact of a run is displayed.
type ViewMode string

const (
	ViewJSON ViewMode = "json"
	ViewText ViewMode = "text"
)

// ParseViewMode accepts "json" or "text" in any case.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewJSON:
		return ViewJSON, nil
	case ViewText:
		return ViewText, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want json or text)", s)
}

// String returns the mode name.
func (m ViewMode) String() string {
	return string(m)
}

// Toggle returns the other view mode.
func (m ViewMode) Toggle() ViewMode {
	if m == ViewText {
		return ViewJSON
	}
	return ViewText
}

// ArtifactFile is the file name the workflow writes for this mode.
func (m ViewMode) ArtifactFile() string {
	if m == ViewText {
		return "output.txt"
	}
	return "output.json"
}

// OpenLabel is the caption for the "open raw" action.
func (m ViewMode) OpenLabel() string {
	if m == ViewText {
		return "Open Text"
	}
	return "Open JSON"
}

// ArtifactPath is the static output path, e.g. /output/wf-1/output.json.
func ArtifactPath(id string, m ViewMode) string {
	return outputPrefix + url.PathEscape(id) + "/" + m.ArtifactFile()
}

// ResultPath is the API fallback for an artifact: result-json for JSON, result for text.
func ResultPath(id string, m ViewMode) string {
	if m == ViewText {
		return resultPrefix + url.PathEscape(id)
	}
	return resultJSONPrefix + url.PathEscape(id)
}

// SummaryPath is the API route for a run's entity summary.
func SummaryPath(id string) string {
	return summaryPrefix + url.PathEscape(id)
}

// SummaryArtifactPath is the static summary.json written next to the outputs.
func SummaryArtifactPath(id string) string {
	return outputPrefix + url.PathEscape(id) + "/summary.json"
}

func AISummaryPath(id string) string {
	return aiSummaryPrefix + url.PathEscape(id)
}

func LineageMermaidPath(id string) string {
	return lineageMermaidPrefix + url.PathEscape(id)
}

func ERMermaidPath(id string) string {
	return erMermaidPrefix + url.PathEscape(id)
}
