// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the single-line build description used by the version
// subcommand and the wide-event log.
func String() string {
	return fmt.Sprintf("boardex %s (commit %s, built %s)", Version, Commit, Date)
}
