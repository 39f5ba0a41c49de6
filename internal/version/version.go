// Package version holds build information, set with -ldflags -X.
package version

import "fmt"

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build information for -version output.
func String() string {
	return fmt.Sprintf("insar-viewer %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
