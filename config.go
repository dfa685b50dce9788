package langprompt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variables consulted during config resolution.
const (
	EnvProjectName = "LANGPROMPT_PROJECT_NAME"
	EnvProjectID   = "LANGPROMPT_PROJECT_ID"
	EnvAPIKey      = "LANGPROMPT_API_KEY"
	EnvBaseURL     = "LANGPROMPT_API_URL"
)

// Config file locations: a project-scoped file in the working directory and
// a user-scoped file under the home directory. Both are TOML keyed by an
// environment-name section.
const (
	projectConfigFile = ".langprompt"
	userConfigDir     = ".langprompt"
	userConfigFile    = "config"
)

// Hardcoded defaults, the lowest-priority configuration source.
const (
	DefaultBaseURL       = "http://localhost:8100/api/v1"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = 30 * time.Second
	DefaultCacheTTL      = time.Hour
)

// Config holds the fully resolved client settings. It is built once at
// construction and immutable afterward.
//
// Resolution priority per key, highest first: explicit option, environment
// variable, project-level config file, user-level config file, default.
type Config struct {
	ProjectName   string
	ProjectID     string
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	EnableCache   bool
	CacheTTL      time.Duration
	ConfigEnv     string
}

// LoadConfig resolves and validates configuration from the given options plus
// environment variables, config files and defaults. Any validation failure
// returns a Configuration error and no config.
func LoadConfig(opts ...Option) (*Config, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return resolveConfig(o)
}

func resolveConfig(o *options) (*Config, error) {
	var projectCfg, userCfg map[string]any
	if !o.skipFiles {
		var err error
		if projectCfg, err = loadConfigSection(projectConfigPath(), o.configEnv); err != nil {
			return nil, err
		}
		if userCfg, err = loadConfigSection(userConfigPath(), o.configEnv); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		ProjectName:   resolveString(o.projectName, EnvProjectName, "project_name", projectCfg, userCfg, ""),
		ProjectID:     resolveString(o.projectID, EnvProjectID, "project_id", projectCfg, userCfg, ""),
		APIKey:        resolveString(o.apiKey, EnvAPIKey, "api_key", projectCfg, userCfg, ""),
		BaseURL:       resolveString(o.baseURL, EnvBaseURL, "base_url", projectCfg, userCfg, DefaultBaseURL),
		Timeout:       resolveSeconds(o.timeout, "timeout", projectCfg, userCfg, DefaultTimeout),
		MaxRetries:    resolveInt(o.maxRetries, "max_retries", projectCfg, userCfg, DefaultMaxRetries),
		RetryDelay:    resolveSeconds(o.retryDelay, "retry_delay", projectCfg, userCfg, DefaultRetryDelay),
		MaxRetryDelay: resolveSeconds(o.maxRetryDelay, "max_retry_delay", projectCfg, userCfg, DefaultMaxRetryDelay),
		EnableCache:   resolveBool(o.enableCache, "enable_cache", projectCfg, userCfg, false),
		CacheTTL:      resolveSeconds(o.cacheTTL, "cache_ttl", projectCfg, userCfg, DefaultCacheTTL),
		ConfigEnv:     o.configEnv,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return configurationError("MISSING_BASE_URL", "API base URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		err := configurationError("INVALID_BASE_URL", "API base URL must start with http:// or https://")
		err.Details = map[string]any{"base_url": c.BaseURL}
		return err
	}
	if c.Timeout <= 0 {
		err := configurationError("INVALID_TIMEOUT", "timeout must be positive")
		err.Details = map[string]any{"timeout": c.Timeout.String()}
		return err
	}
	if c.MaxRetries < 0 {
		err := configurationError("INVALID_MAX_RETRIES", "max retries must be non-negative")
		err.Details = map[string]any{"max_retries": c.MaxRetries}
		return err
	}
	if c.RetryDelay <= 0 {
		err := configurationError("INVALID_RETRY_DELAY", "retry delay must be positive")
		err.Details = map[string]any{"retry_delay": c.RetryDelay.String()}
		return err
	}
	if c.MaxRetryDelay < c.RetryDelay {
		err := configurationError("INVALID_MAX_RETRY_DELAY", "max retry delay must be >= retry delay")
		err.Details = map[string]any{
			"retry_delay":     c.RetryDelay.String(),
			"max_retry_delay": c.MaxRetryDelay.String(),
		}
		return err
	}
	if c.CacheTTL <= 0 {
		err := configurationError("INVALID_CACHE_TTL", "cache TTL must be positive")
		err.Details = map[string]any{"cache_ttl": c.CacheTTL.String()}
		return err
	}
	return nil
}

func projectConfigPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return projectConfigFile
	}
	return filepath.Join(wd, projectConfigFile)
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, userConfigDir, userConfigFile)
}

// loadConfigSection reads the named environment section from a TOML config
// file. A missing file is treated as empty; a malformed one is fatal.
func loadConfigSection(path, env string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		cfgErr := configurationError("CONFIG_LOAD_ERROR", "failed to load config file %s: %v", path, err)
		cfgErr.Details = map[string]any{"path": path}
		cfgErr.Cause = err
		return nil, cfgErr
	}

	section, ok := v.AllSettings()[strings.ToLower(env)].(map[string]any)
	if !ok {
		return nil, nil
	}
	return section, nil
}

func resolveString(explicit *string, envVar, key string, projectCfg, userCfg map[string]any, def string) string {
	if explicit != nil {
		return *explicit
	}
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	for _, cfg := range []map[string]any{projectCfg, userCfg} {
		if s, ok := cfg[key].(string); ok {
			return s
		}
	}
	return def
}

// resolveSeconds resolves a duration setting; config files express durations
// as seconds (integer or float), matching the service's conventions.
func resolveSeconds(explicit *time.Duration, key string, projectCfg, userCfg map[string]any, def time.Duration) time.Duration {
	if explicit != nil {
		return *explicit
	}
	for _, cfg := range []map[string]any{projectCfg, userCfg} {
		if f, ok := numericValue(cfg[key]); ok {
			return time.Duration(f * float64(time.Second))
		}
	}
	return def
}

func resolveInt(explicit *int, key string, projectCfg, userCfg map[string]any, def int) int {
	if explicit != nil {
		return *explicit
	}
	for _, cfg := range []map[string]any{projectCfg, userCfg} {
		if f, ok := numericValue(cfg[key]); ok {
			return int(f)
		}
	}
	return def
}

func resolveBool(explicit *bool, key string, projectCfg, userCfg map[string]any, def bool) bool {
	if explicit != nil {
		return *explicit
	}
	for _, cfg := range []map[string]any{projectCfg, userCfg} {
		if b, ok := cfg[key].(bool); ok {
			return b
		}
	}
	return def
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
