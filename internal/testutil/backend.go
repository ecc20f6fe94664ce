// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package testutil provides a fake SourceSense server for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// Request is a request the fake server received.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Decode unmarshals the recorded body.
func (r Request) Decode(t testing.TB, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Body, out); err != nil {
		t.Fatalf("decode %s body: %v", r.Path, err)
	}
}

type reply struct {
	status int
	body   interface{}
}

// Backend is an in-process SourceSense server. Every route answers 404
// until a test configures it.
type Backend struct {
	server *httptest.Server

	mu         sync.Mutex
	auth       *reply
	metadata   *reply
	check      *reply
	start      *reply
	latest     *reply
	artifacts  map[string][]byte // "<id>/<file>"
	results    map[string][]byte // "result/<id>" or "result-json/<id>"
	summaries  map[string]workflows.Summary
	insights   map[string]string // route name -> text
	insightErr int
	requests   []Request
}

// NewBackend starts a fake server that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		artifacts: map[string][]byte{},
		results:   map[string][]byte{},
		summaries: map[string]workflows.Summary{},
		insights:  map[string]string{},
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Post(workflows.AuthPath, b.serveReply(func() *reply { return b.auth }))
	r.Post(workflows.MetadataPath, b.serveReply(func() *reply { return b.metadata }))
	r.Post(workflows.CheckPath, b.serveReply(func() *reply { return b.check }))
	r.Post(workflows.StartPath, b.serveReply(func() *reply { return b.start }))
	r.Get(workflows.LatestOutputPath, b.serveReply(func() *reply { return b.latest }))
	r.Get("/output/{id}/{file}", b.serveArtifact)
	r.Get("/workflows/v1/result/{id}", b.serveResult("result"))
	r.Get("/workflows/v1/result-json/{id}", b.serveResult("result-json"))
	r.Get("/workflows/v1/summary/{id}", b.serveSummary)
	for _, kind := range []string{"ai-summary", "lineage-mermaid", "er-mermaid"} {
		r.Post("/workflows/v1/"+kind+"/{id}", b.serveInsight(kind))
	}

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the server root.
func (b *Backend) URL() string {
	return b.server.URL
}

// Client returns a workflows client pointed at the fake server.
func (b *Backend) Client() *workflows.Client {
	return workflows.NewClient(b.server.URL)
}

func (b *Backend) SetAuth(status int, body interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = &reply{status, body}
}

// SetMetadata answers the metadata route with {"data": rows}.
func (b *Backend) SetMetadata(rows ...map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metadata = &reply{http.StatusOK, map[string]interface{}{"data": rows}}
}

func (b *Backend) SetMetadataStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metadata = &reply{status, map[string]string{"error": http.StatusText(status)}}
}

func (b *Backend) SetCheck(status int, body interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.check = &reply{status, body}
}

func (b *Backend) SetStart(status int, body interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = &reply{status, body}
}

// SetLatest makes latest-output return id.
func (b *Backend) SetLatest(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = &reply{http.StatusOK, workflows.LatestOutputResponse{WorkflowID: id}}
}

// SetArtifact serves body at /output/<id>/<file>.
func (b *Backend) SetArtifact(id, file string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.artifacts[id+"/"+file] = body
}

// SetResult serves body at /workflows/v1/<kind>/<id>; kind is "result" or "result-json".
func (b *Backend) SetResult(kind, id string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[kind+"/"+id] = body
}

func (b *Backend) SetSummary(id string, s workflows.Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summaries[id] = s
}

// SetInsight answers kind ("ai-summary", "lineage-mermaid", "er-mermaid") with text.
func (b *Backend) SetInsight(kind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insights[kind] = text
}

// FailInsights makes every insight route answer with status.
func (b *Backend) FailInsights(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insightErr = status
}

// Requests returns everything received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Paths returns the paths received so far, in order.
func (b *Backend) Paths() []string {
	var out []string
	for _, r := range b.Requests() {
		out = append(out, r.Path)
	}
	return out
}

// Last returns the most recent request for path.
func (b *Backend) Last(path string) (Request, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.mu.Lock()
		b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) serveReply(get func() *reply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		rep := get()
		b.mu.Unlock()
		if rep == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, rep.status, rep.body)
	}
}

func (b *Backend) serveArtifact(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id") + "/" + chi.URLParam(r, "file")
	b.mu.Lock()
	body, ok := b.artifacts[key]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(body)
}

func (b *Backend) serveResult(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := kind + "/" + chi.URLParam(r, "id")
		b.mu.Lock()
		body, ok := b.results[key]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Result not found"})
			return
		}
		_, _ = w.Write(body)
	}
}

func (b *Backend) serveSummary(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	s, ok := b.summaries[chi.URLParam(r, "id")]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Summary not found"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (b *Backend) serveInsight(kind string) http.HandlerFunc {
	field := "mermaid"
	if kind == "ai-summary" {
		field = "summary"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		text, ok := b.insights[kind]
		status := b.insightErr
		b.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": "model unavailable"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{field: text})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
