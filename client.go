package langprompt

import "sync"

// Client is the entry point to the LangPrompt API. It resolves configuration
// once at construction and exposes the resource modules; a single instance
// is safe for concurrent use.
type Client struct {
	config    *Config
	cache     *Cache
	transport *transport
	closeOnce sync.Once

	// Projects accesses project records.
	Projects *ProjectsResource
	// Prompts accesses prompts and their versions.
	Prompts *PromptsResource
}

// New constructs a Client from the provided functional options layered over
// environment variables, config files and defaults. Invalid configuration
// fails here; no partial client is produced.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := resolveConfig(o)
	if err != nil {
		return nil, err
	}

	cache := NewCache(cfg.EnableCache, cfg.CacheTTL)
	retry := newRetryer(cfg, o.retryCond, o.sleep, o.logger, o.metrics)
	tr := newTransport(cfg, o.httpClient, retry, o.logger, o.metrics)

	base := resource{
		tr:      tr,
		config:  cfg,
		cache:   cache,
		logger:  o.logger,
		metrics: o.metrics,
	}

	return &Client{
		config:    cfg,
		cache:     cache,
		transport: tr,
		Projects:  newProjectsResource(base),
		Prompts:   newPromptsResource(base),
	}, nil
}

// Close releases pooled transport connections. Idempotent: closing twice is
// harmless.
func (c *Client) Close() {
	c.closeOnce.Do(c.transport.close)
}

// Config returns the resolved, immutable configuration.
func (c *Client) Config() *Config {
	return c.config
}

// Cache returns the client's cache instance.
func (c *Client) Cache() *Cache {
	return c.cache
}
