package version

import "fmt"

// Product names the binaries in version output.
const Product = "crew-alert"

var (
	// Version is the semantic version of the build. Overridden via ldflags.
	Version = "0.1.0-dev"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the product, version, commit and build time on one line.
func Full() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Product, Version, Commit, BuildTime)
}
