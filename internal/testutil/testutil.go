// Package testutil provides shared helpers for handler tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// NewTestRequest creates an HTTP request with a JSON content type.
func NewTestRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewTestRequestWithJSON creates an HTTP request carrying data as a
// JSON body.
func NewTestRequestWithJSON(t *testing.T, method, path string, data interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	return NewTestRequest(method, path, strings.NewReader(string(body)))
}

// AssertStatusCode fails the test if the recorded status differs,
// printing the body to make mismatches diagnosable.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ErrorMessage extracts the error field from a JSON error response.
func ErrorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("parsing error response %q: %v", body, err)
	}
	return resp.Error
}
