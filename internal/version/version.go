// Package version exposes build metadata injected through -ldflags.
package version

import "fmt"

const summaryTemplateConstant = "%s (commit %s, built %s)"

// Build metadata set at link time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Summary renders the build metadata as a single line suitable for `bp --version`.
func Summary() string {
	return fmt.Sprintf(summaryTemplateConstant, Version, GitCommit, BuildTime)
}
