package runner

import (
	"context"

	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/status"
)

// Outcome is what a check reports for one project.
type Outcome[D any] struct {
	Changed     bool
	ProjectType string
	Detail      D
}

// Result is the per-project record kept by the runner.
type Result[D any] struct {
	Project       discovery.Project
	Record        status.Record
	Excluded      bool
	Outcome       Outcome[D]
	StatusUpdated bool
	Failure       error
}

// ProjectType returns the type reported by the check, falling back to the stored record type.
func (result Result[D]) ProjectType() string {
	if len(result.Outcome.ProjectType) > 0 {
		return result.Outcome.ProjectType
	}
	return result.Record.Type
}

// Failed reports whether processing or the status write failed.
func (result Result[D]) Failed() bool {
	return result.Failure != nil
}

// Check processes one project at a time.
type Check[D any] interface {
	Identifier() string
	Process(executionContext context.Context, project discovery.Project, record status.Record) (Outcome[D], error)
}

// ReportDefinition describes the markdown report of a check.
type ReportDefinition[D any] struct {
	Title    string
	Columns  []string
	FileName string
	Row      func(result Result[D]) []string
	Summary  func(results []Result[D]) []report.SummaryEntry
}

// ProjectDiscoverer locates projects beneath roots.
type ProjectDiscoverer interface {
	DiscoverProjects(roots []string) ([]discovery.Project, error)
}

// StatusStore reads and stamps project status files.
type StatusStore interface {
	Read(statusPath string) status.Record
	Write(statusPath string, checkIdentifier string) error
}

// ReportWriter persists rendered reports.
type ReportWriter interface {
	Write(reportPath string, markdown string) error
}

// Options configures a single run.
type Options struct {
	Roots           []string
	ReportDirectory string
}

// Summary aggregates a completed run.
type Summary[D any] struct {
	RunIdentifier string
	Results       []Result[D]
	Succeeded     int
	Failed        int
	Excluded      int
	ReportPath    string
}
