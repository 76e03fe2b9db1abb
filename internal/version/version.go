// Package version provides the redisproxy version string.
// The version is set at build time via -ldflags.
package version

import "fmt"

// Version is the current redisproxy version.
// Override at build time: go build -ldflags "-X github.com/flashdb/redisproxy/internal/version.Version=1.0.0"
var Version = "1.0.0"

// BuildTime is the build timestamp.
// Override at build time: go build -ldflags "-X github.com/flashdb/redisproxy/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var BuildTime = "unknown"

// String formats the version line printed by the tools.
func String(tool string) string {
	return fmt.Sprintf("%s v%s (built %s)", tool, Version, BuildTime)
}
