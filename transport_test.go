package langprompt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func noopSleep(_ context.Context, _ time.Duration) error { return nil }

func testTransportConfig(baseURL string, maxRetries int) *Config {
	return &Config{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Timeout:       5 * time.Second,
		MaxRetries:    maxRetries,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 10 * time.Millisecond,
	}
}

func newTestTransport(baseURL string, maxRetries int) *transport {
	cfg := testTransportConfig(baseURL, maxRetries)
	return newTransport(cfg, nil, newRetryer(cfg, nil, noopSleep, nil, nil), nil, nil)
}

func TestTransportSendsHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 0)
	defer tr.close()

	if _, err := tr.get(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", got.Get("Accept"))
	}
	if got.Get("X-API-Key") != "test-key" {
		t.Errorf("X-API-Key = %q", got.Get("X-API-Key"))
	}
	if !strings.HasPrefix(got.Get("User-Agent"), "langprompt-go/") {
		t.Errorf("User-Agent = %q", got.Get("User-Agent"))
	}
	if got.Get("Content-Type") != "" {
		t.Errorf("GET should not carry Content-Type, got %q", got.Get("Content-Type"))
	}
}

func TestTransportOmitsAPIKeyWhenUnset(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := testTransportConfig(server.URL, 0)
	cfg.APIKey = ""
	tr := newTransport(cfg, nil, newRetryer(cfg, nil, noopSleep, nil, nil), nil, nil)
	defer tr.close()

	if _, err := tr.get(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := got["X-Api-Key"]; present {
		t.Error("X-API-Key header should be absent without a key")
	}
}

func TestTransportPostEncodesBody(t *testing.T) {
	var decoded map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p-1"}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 0)
	defer tr.close()

	resp, err := tr.post(context.Background(), "/projects", map[string]any{"name": "demo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if decoded["name"] != "demo" {
		t.Errorf("body name = %v", decoded["name"])
	}
}

func TestTransportQueryParameters(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 0)
	defer tr.close()

	query := url.Values{}
	query.Set("name", "demo project")
	query.Set("limit", "50")
	if _, err := tr.get(context.Background(), "/projects", query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Get("name") != "demo project" {
		t.Errorf("name = %q", gotQuery.Get("name"))
	}
	if gotQuery.Get("limit") != "50" {
		t.Errorf("limit = %q", gotQuery.Get("limit"))
	}
}

func TestTransportTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL+"/", 0)
	defer tr.close()

	if _, err := tr.get(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/projects" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestTransportErrorEnvelope(t *testing.T) {
	cases := []struct {
		status       int
		body         string
		expectedType ErrorType
		expectedMsg  string
		expectedCode string
	}{
		{401, `{"error_code":"UNAUTHORIZED","message":"invalid api key"}`, ErrorTypeAuthentication, "invalid api key", "UNAUTHORIZED"},
		{403, `{"error_code":"FORBIDDEN","message":"no access"}`, ErrorTypePermission, "no access", "FORBIDDEN"},
		{404, `{"error_code":"NOT_FOUND","message":"prompt not found"}`, ErrorTypeNotFound, "prompt not found", "NOT_FOUND"},
		{422, `{"error_code":"VALIDATION_ERROR","message":"bad payload"}`, ErrorTypeValidation, "bad payload", "VALIDATION_ERROR"},
		{500, `{"message":"internal"}`, ErrorTypeServer, "internal", ""},
		{400, `{"message":"bad request"}`, ErrorTypeAPI, "bad request", ""},
	}

	for _, c := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(c.status)
			w.Write([]byte(c.body))
		}))

		tr := newTestTransport(server.URL, 0)
		_, err := tr.get(context.Background(), "/projects", nil)
		tr.close()
		server.Close()

		var typed *Error
		if !errors.As(err, &typed) {
			t.Fatalf("status %d: expected *Error, got %v", c.status, err)
		}
		if typed.Type != c.expectedType {
			t.Errorf("status %d: type = %s, want %s", c.status, typed.Type, c.expectedType)
		}
		if typed.Message != c.expectedMsg {
			t.Errorf("status %d: message = %q, want %q", c.status, typed.Message, c.expectedMsg)
		}
		if typed.Code != c.expectedCode {
			t.Errorf("status %d: code = %q, want %q", c.status, typed.Code, c.expectedCode)
		}
		if typed.StatusCode != c.status {
			t.Errorf("status %d: StatusCode = %d", c.status, typed.StatusCode)
		}
	}
}

func TestErrorFromResponseFallbacks(t *testing.T) {
	e := errorFromResponse(404, http.Header{}, []byte("plain text failure"))
	if e.Message != "plain text failure" {
		t.Errorf("raw body fallback: message = %q", e.Message)
	}

	e = errorFromResponse(503, http.Header{}, nil)
	if e.Message != "HTTP 503" {
		t.Errorf("empty body fallback: message = %q", e.Message)
	}
	if e.Type != ErrorTypeServer {
		t.Errorf("empty body fallback: type = %s", e.Type)
	}
}

func TestTransportRateLimitRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 0)
	defer tr.close()

	_, err := tr.get(context.Background(), "/projects", nil)

	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if typed.Type != ErrorTypeRateLimit {
		t.Errorf("type = %s", typed.Type)
	}
	if typed.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", typed.RetryAfter)
	}
}

func TestTransportNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	tr := newTestTransport(server.URL, 0)
	_, err := tr.get(context.Background(), "/projects", nil)

	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if typed.Type != ErrorTypeNetwork {
		t.Errorf("type = %s, want Network", typed.Type)
	}
	if typed.Code != "NETWORK_ERROR" {
		t.Errorf("code = %q", typed.Code)
	}
	if typed.Cause == nil {
		t.Error("expected underlying cause")
	}
}

func TestTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := testTransportConfig(server.URL, 0)
	cfg.Timeout = 50 * time.Millisecond
	tr := newTransport(cfg, nil, newRetryer(cfg, nil, noopSleep, nil, nil), nil, nil)
	defer tr.close()

	_, err := tr.get(context.Background(), "/projects", nil)

	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if typed.Type != ErrorTypeTimeout {
		t.Errorf("type = %s, want Timeout", typed.Type)
	}
	if typed.Code != "TIMEOUT" {
		t.Errorf("code = %q", typed.Code)
	}
}

func TestTransportRetriesServerErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"flaky"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 3)
	defer tr.close()

	resp, err := tr.get(context.Background(), "/projects", nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestTransportDoesNotRetryClientErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"missing"}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 3)
	defer tr.close()

	_, err := tr.get(context.Background(), "/projects", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestTransportRetriesExhaustedSurfacesLastError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"down"}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL, 2)
	defer tr.close()

	_, err := tr.get(context.Background(), "/projects", nil)

	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if typed.Type != ErrorTypeServer {
		t.Errorf("type = %s", typed.Type)
	}
	if requests != 3 {
		t.Errorf("expected maxRetries+1 = 3 requests, got %d", requests)
	}
}

func TestTransportUnencodableBody(t *testing.T) {
	tr := newTestTransport("http://localhost:0", 0)
	defer tr.close()

	_, err := tr.post(context.Background(), "/projects", map[string]any{"bad": make(chan int)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected Validation error, got %v", err)
	}
}

func TestTransportCloseIdempotent(t *testing.T) {
	tr := newTestTransport("http://localhost:0", 0)
	tr.close()
	tr.close()
}
