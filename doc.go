// Package langprompt is a Go client for the LangPrompt prompt-management
// service: it resolves projects and prompts by name or id, fetches immutable
// versioned prompt content by label or version number, and creates new
// prompt versions.
//
// Around that core it layers:
//
//   - Configuration resolution from explicit options, environment variables,
//     a project-level ./.langprompt file, a user-level ~/.langprompt/config
//     file and defaults, in that priority order
//   - An optional in-process TTL cache (disabled by default)
//   - Retries with exponential backoff + jitter for transient failures
//   - A typed error taxonomy mirroring the service's HTTP contract
//   - Optional Prometheus metrics and structured debug logging
//
// Typical usage:
//
//	client, err := langprompt.New(
//	    langprompt.WithProjectName("my-project"),
//	    langprompt.WithAPIKey("your-api-key"),
//	    langprompt.WithCache(10*time.Minute),
//	)
//	if err != nil {
//	    // configuration problem; no partial client is produced
//	}
//	defer client.Close()
//
//	version, err := client.Prompts.Get(ctx, "greeting", langprompt.VersionRef{Label: "production"})
//
// Errors are inspected with errors.Is against the exported sentinels
// (ErrNotFound, ErrRateLimit, ...) or errors.As with *langprompt.Error.
package langprompt
