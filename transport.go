package langprompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// apiResponse is a fully drained HTTP response handed to the resource layer.
type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// errorEnvelope is the service's error body: {"error_code", "message",
// "details"}. Any of the fields may be absent.
type errorEnvelope struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
}

// transport issues HTTP requests against the configured base endpoint and
// translates failures into the typed error taxonomy. Every request runs
// inside the retry engine; the resource layer never bypasses it.
type transport struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *retryer
	logger     Logger
	metrics    *MetricsCollector
	closeOnce  sync.Once
}

func newTransport(cfg *Config, httpClient *http.Client, retry *retryer, logger Logger, metrics *MetricsCollector) *transport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = cfg.Timeout

	return &transport{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
		metrics:    metrics,
	}
}

// close releases pooled connections. Idempotent.
func (t *transport) close() {
	t.closeOnce.Do(func() {
		t.httpClient.CloseIdleConnections()
	})
}

// get issues a GET with query parameters.
func (t *transport) get(ctx context.Context, path string, query url.Values) (*apiResponse, error) {
	return t.request(ctx, http.MethodGet, path, query, nil)
}

// post issues a POST with a JSON body.
func (t *transport) post(ctx context.Context, path string, body any) (*apiResponse, error) {
	return t.request(ctx, http.MethodPost, path, nil, body)
}

// request executes one API call through the retry engine and returns either a
// 2xx response or exactly one typed error.
func (t *transport) request(ctx context.Context, method, path string, query url.Values, body any) (*apiResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, validationError("failed to encode request body: %v", err)
		}
	}

	start := time.Now()
	var out *apiResponse
	err := t.retry.do(ctx, path, func() error {
		resp, attemptErr := t.attempt(ctx, method, path, query, payload)
		if attemptErr != nil {
			return attemptErr
		}
		out = resp
		return nil
	})

	if t.metrics != nil {
		status := 0
		if out != nil {
			status = out.StatusCode
		}
		var typed *Error
		if err != nil && errors.As(err, &typed) {
			status = typed.StatusCode
			t.metrics.RecordError(typed.Type, path)
		}
		t.metrics.RecordRequest(method, path, status, time.Since(start))
	}

	if err != nil {
		return nil, err
	}
	return out, nil
}

// attempt performs a single HTTP roundtrip and classifies its outcome.
func (t *transport) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) (*apiResponse, error) {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, &Error{Type: ErrorTypeNetwork, Message: fmt.Sprintf("failed to build request: %v", err), Cause: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent())
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if t.logger != nil {
		t.logger.Debug("request", "method", method, "url", u)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Type: ErrorTypeNetwork, Message: fmt.Sprintf("failed to read response body: %v", err), Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: bodyBytes}, nil
	}

	return nil, errorFromResponse(resp.StatusCode, resp.Header, bodyBytes)
}

// classifyTransportError maps a roundtrip failure to Timeout or Network.
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrorTypeTimeout, Code: "TIMEOUT", Message: fmt.Sprintf("request timeout: %v", err), Cause: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return &Error{Type: ErrorTypeTimeout, Code: "TIMEOUT", Message: fmt.Sprintf("request timeout: %v", err), Cause: err}
	}
	return &Error{Type: ErrorTypeNetwork, Code: "NETWORK_ERROR", Message: fmt.Sprintf("network error: %v", err), Cause: err}
}

// errorFromResponse builds the typed error for a non-2xx response. The error
// envelope is used when the body parses as JSON; otherwise the raw body text
// or a generic "HTTP <status>" message stands in.
func errorFromResponse(status int, header http.Header, body []byte) *Error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		env.Message = strings.TrimSpace(string(body))
		if env.Message == "" {
			env.Message = fmt.Sprintf("HTTP %d", status)
		}
	}

	e := &Error{
		Type:       errorTypeForStatus(status),
		Message:    env.Message,
		Code:       env.ErrorCode,
		Details:    env.Details,
		StatusCode: status,
	}

	if e.Type == ErrorTypeRateLimit {
		if after := header.Get("Retry-After"); after != "" {
			if seconds, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && seconds > 0 {
				e.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
	}

	return e
}
