// Package workflows is the client for the SourceSense workflow server.
// Every request the wizard and the CLI make goes through this package.
package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response is read into memory.
const maxBodyBytes = 64 << 20

// Logger receives debug lines. A nil Logger discards them.
type Logger interface {
	Log(format string, args ...interface{})
}

// Client talks to one SourceSense server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the server at baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the absolute URL for a server path.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Log(format, args...)
	}
}

// do sends one request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("%s %s failed: %v", method, path, err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	c.logf("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, newResponseError(method, path, resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func decode(path string, body []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Auth verifies credentials. A non-2xx answer is returned as *ResponseError;
// a 2xx answer with success=false is returned as-is for the caller to judge.
func (c *Client) Auth(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	body, err := c.do(ctx, http.MethodPost, AuthPath, creds)
	if err != nil {
		return nil, err
	}
	// An unparsable body is treated like {} so the caller sees success=false.
	_ = json.Unmarshal(body, &out)
	return &out, nil
}

// Metadata lists catalog/schema rows for the credentials.
func (c *Client) Metadata(ctx context.Context, creds Credentials) ([]MetadataRow, error) {
	var out MetadataResponse
	req := MetadataRequest{Type: "all", Credentials: creds}
	if err := c.postJSON(ctx, MetadataPath, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Check runs the preflight checks.
func (c *Client) Check(ctx context.Context, req CheckRequest) (*CheckResponse, error) {
	var out CheckResponse
	if err := c.postJSON(ctx, CheckPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start launches a workflow. The body is returned undecoded into a struct
// because servers disagree on where they put the workflow id.
func (c *Client) Start(ctx context.Context, req StartRequest) (map[string]interface{}, error) {
	body, err := c.do(ctx, http.MethodPost, StartPath, req)
	out := map[string]interface{}{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &out)
	}
	return out, err
}

// LatestOutput returns the id of the most recently completed workflow, or "".
func (c *Client) LatestOutput(ctx context.Context) (string, error) {
	var out LatestOutputResponse
	if err := c.getJSON(ctx, LatestOutputPath, &out); err != nil {
		return "", err
	}
	return out.WorkflowID, nil
}

// Artifact fetches /output/{id}/output.json|txt.
func (c *Client) Artifact(ctx context.Context, id string, mode ViewMode) ([]byte, error) {
	return c.do(ctx, http.MethodGet, ArtifactPath(id, mode), nil)
}

// Result fetches the artifact through the API route instead of the static mount.
func (c *Client) Result(ctx context.Context, id string, mode ViewMode) ([]byte, error) {
	return c.do(ctx, http.MethodGet, ResultPath(id, mode), nil)
}

// Summary fetches the per-entity counts of a run.
func (c *Client) Summary(ctx context.Context, id string) (*Summary, error) {
	var out Summary
	if err := c.getJSON(ctx, SummaryPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AISummary asks the server for a natural-language summary of a run.
func (c *Client) AISummary(ctx context.Context, id string, req InsightRequest) (string, error) {
	var out AISummaryResponse
	if err := c.postJSON(ctx, AISummaryPath(id), req, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// LineageMermaid returns a Mermaid lineage diagram for a run.
func (c *Client) LineageMermaid(ctx context.Context, id string, req InsightRequest) (string, error) {
	var out MermaidResponse
	if err := c.postJSON(ctx, LineageMermaidPath(id), req, &out); err != nil {
		return "", err
	}
	return out.Mermaid, nil
}

// ERMermaid returns a Mermaid entity-relationship diagram for a run.
func (c *Client) ERMermaid(ctx context.Context, id string, req InsightRequest) (string, error) {
	var out MermaidResponse
	if err := c.postJSON(ctx, ERMermaidPath(id), req, &out); err != nil {
		return "", err
	}
	return out.Mermaid, nil
}
