package workflows

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ResponseError is returned for any non-2xx answer from the server.
// It wraps an apimachinery StatusError so callers can use
// apierrors.IsNotFound and friends on it.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int

	// Text fields the server may put in an error body.
	Details string
	Err     string
	Message string

	Body   []byte
	status *apierrors.StatusError
}

func newResponseError(method, path string, code int, body []byte) *ResponseError {
	e := &ResponseError{
		Method:     method,
		Path:       path,
		StatusCode: code,
		Body:       body,
	}

	var fields struct {
		Details json.RawMessage `json:"details"`
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &fields); err == nil {
		e.Details = rawText(fields.Details)
		e.Err = rawText(fields.Error)
		e.Message = rawText(fields.Message)
	}

	gr := schema.GroupResource{Group: "workflows", Resource: resourceOf(path)}
	e.status = apierrors.NewGenericServerResponse(code, method, gr, "", e.Text(), 0, true)
	return e
}

// Text returns details, error or message, whichever the server filled first.
func (e *ResponseError) Text() string {
	switch {
	case e.Details != "":
		return e.Details
	case e.Err != "":
		return e.Err
	default:
		return e.Message
	}
}

func (e *ResponseError) Error() string {
	text := e.Text()
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, text)
}

func (e *ResponseError) Unwrap() error {
	return e.status
}

// rawText turns a JSON string into its value and anything else into its JSON text.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// resourceOf names the resource for a path: "result-json" for
// /workflows/v1/result-json/wf-1, "output" for /output/wf-1/output.json.
func resourceOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/workflows/v1/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "workflows"
	}
	return trimmed
}
