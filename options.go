package langprompt

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Client at construction time. Settings given through
// options are explicit values: they take priority over environment variables
// and config files, even when set to a zero value.
type Option func(*options)

type options struct {
	projectName   *string
	projectID     *string
	apiKey        *string
	baseURL       *string
	timeout       *time.Duration
	maxRetries    *int
	retryDelay    *time.Duration
	maxRetryDelay *time.Duration
	enableCache   *bool
	cacheTTL      *time.Duration

	configEnv  string
	skipFiles  bool
	httpClient *http.Client
	logger     Logger
	metrics    *MetricsCollector
	retryCond  RetryCondition
	sleep      SleepFunc
}

func defaultOptions() *options {
	return &options{
		configEnv: "default",
	}
}

// WithProjectName sets the project name used for scope resolution.
func WithProjectName(name string) Option {
	return func(o *options) { o.projectName = &name }
}

// WithProjectID sets the project id; it takes priority over the project name.
func WithProjectID(id string) Option {
	return func(o *options) { o.projectID = &id }
}

// WithAPIKey sets the API key sent in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = &key }
}

// WithBaseURL sets the API base URL, including the versioned path prefix.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = &url }
}

// WithTimeout sets the per-request HTTP timeout. It bounds a single
// roundtrip, not the cumulative retry sequence.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = &d }
}

// WithMaxRetries sets the maximum number of retries; an operation is
// attempted at most maxRetries+1 times.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = &n }
}

// WithRetryDelay sets the base retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = &d }
}

// WithMaxRetryDelay caps the computed retry delay.
func WithMaxRetryDelay(d time.Duration) Option {
	return func(o *options) { o.maxRetryDelay = &d }
}

// WithCache enables the response cache with the given default TTL.
func WithCache(ttl time.Duration) Option {
	return func(o *options) {
		enabled := true
		o.enableCache = &enabled
		o.cacheTTL = &ttl
	}
}

// WithCacheEnabled toggles the cache without changing the TTL.
func WithCacheEnabled(enabled bool) Option {
	return func(o *options) { o.enableCache = &enabled }
}

// WithCacheTTL sets the default cache TTL without enabling the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = &ttl }
}

// WithConfigEnv selects the section read from config files (default
// "default").
func WithConfigEnv(name string) Option {
	return func(o *options) { o.configEnv = name }
}

// WithoutConfigFiles skips the project- and user-level config files. Explicit
// options, environment variables and defaults still apply.
func WithoutConfigFiles() Option {
	return func(o *options) { o.skipFiles = true }
}

// WithHTTPClient sets a custom HTTP client for the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithLogger sets a logger for structured debug output. No logging happens
// without one.
func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(o *options) { o.metrics = NewMetricsCollector() }
}

// WithMetricsRegistry enables Prometheus metrics on the supplied registerer.
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(o *options) { o.metrics = NewMetricsCollectorWithRegistry(registry) }
}

// WithRetryCondition overrides the default retry-eligibility predicate.
func WithRetryCondition(cond RetryCondition) Option {
	return func(o *options) { o.retryCond = cond }
}

// WithBlockingRetry makes retry waits suspend the calling goroutine with a
// plain sleep instead of the default context-aware wait. The delay formula
// and attempt semantics are identical in both modes.
func WithBlockingRetry() Option {
	return func(o *options) { o.sleep = SleepBlocking }
}

// WithSleepFunc overrides how the retry engine suspends between attempts.
// Intended for tests and custom schedulers.
func WithSleepFunc(sleep SleepFunc) Option {
	return func(o *options) { o.sleep = sleep }
}
