package langprompt

import (
	"fmt"
	"runtime"
)

var (
	// Version is the SDK semantic version (injected at build time optionally).
	Version = "0.2.0"
	// GitCommit is the git SHA (inject via -ldflags at build time).
	GitCommit = "unknown"
	// GoVersion records the Go toolchain version used.
	GoVersion = runtime.Version()
)

// userAgent is the fixed client identifier sent with every request.
func userAgent() string {
	return "langprompt-go/" + Version
}

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return fmt.Sprintf("langprompt-go v%s (commit: %s, go: %s)", Version, GitCommit, GoVersion)
}
