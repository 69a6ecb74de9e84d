// Package version carries build information stamped in at link time.
package version

import "fmt"

// Build information set by ldflags, e.g.
// -X github.com/arthur-debert/dotman/internal/version.Version={{.Version}}
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a one-line summary of the build.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
