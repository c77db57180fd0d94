// Package projects registers every discovered project by stamping its status file.
package projects

import (
	"context"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "find-projects"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_PROJECTS.gitignored.md"

	descriptionConstant = "List projects and register them with the current tool version"
	reportTitleConstant = "Projects with Best Practices Status"
)

// Detail is the per-project outcome of the registration.
type Detail struct {
	RegistrationUpdated bool
}

// Check registers projects.
type Check struct {
	toolVersion string
}

// NewCheck constructs a Check that registers projects against toolVersion.
func NewCheck(toolVersion string) *Check {
	return &Check{toolVersion: toolVersion}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process marks the registration as outdated when the project was never registered or was stamped by another tool version.
func (check *Check) Process(_ context.Context, _ discovery.Project, record status.Record) (runner.Outcome[Detail], error) {
	_, registered := record.Timestamp(Identifier)
	registrationUpdated := !registered || record.Version != check.toolVersion
	return runner.Outcome[Detail]{Changed: registrationUpdated, Detail: Detail{RegistrationUpdated: registrationUpdated}}, nil
}

// Definition describes the project listing report.
func Definition() runner.ReportDefinition[Detail] {
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", "Excluded", "bpstatus.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			return []string{result.Project.Name, result.Project.Path, report.Mark(result.Excluded), report.Mark(result.StatusUpdated)}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			return []report.SummaryEntry{report.CountEntry("Total projects found", len(results))}
		},
	}
}

// Executable registers the check with the command suite.
type Executable struct{}

// Identifier returns the check identifier.
func (Executable) Identifier() string {
	return Identifier
}

// Description summarizes the check for help output.
func (Executable) Description() string {
	return descriptionConstant
}

// Execute registers every project.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	_, runError := checks.RunCheck[Detail](executionContext, environment, NewCheck(environment.Store.ToolVersion()), Definition())
	return runError
}
