// Package summary aggregates every project's status file into a single read-only report.
package summary

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/checks/gitignore"
	"github.com/mlefree/mle-best-practices/internal/checks/projects"
	"github.com/mlefree/mle-best-practices/internal/checks/projecttype"
	"github.com/mlefree/mle-best-practices/internal/checks/releasescripts"
	"github.com/mlefree/mle-best-practices/internal/checks/rules"
	"github.com/mlefree/mle-best-practices/internal/checks/scripts"
	"github.com/mlefree/mle-best-practices/internal/checks/style"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/manifest"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "check-all"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_ALL.gitignored.md"
	// UnknownValue fills missing versions and types.
	UnknownValue = "unknown"

	descriptionConstant               = "Summarize the status of every project"
	reportTitleConstant               = "All Projects Status Summary"
	manifestUnreadableMessageConstant = "package.json unreadable; version reported as unknown"
	projectPathLogFieldConstant       = "project_path"
)

// TrackedCheckIdentifiers are the synchronization checks whose timestamps appear in the summary, in column order.
var TrackedCheckIdentifiers = []string{
	projects.Identifier,
	projecttype.Identifier,
	gitignore.Identifier,
	rules.Identifier,
	scripts.Identifier,
	style.Identifier,
	releasescripts.Identifier,
}

// Detail is the per-project snapshot of the status file.
type Detail struct {
	PackageVersion string
	ProjectType    string
	StatusUpdates  map[string]string
}

// Check reads status files and manifests without modifying them.
type Check struct {
	fileSystem afero.Fs
	logger     *zap.Logger
}

// NewCheck constructs a Check.
func NewCheck(fileSystem afero.Fs, logger *zap.Logger) *Check {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Check{fileSystem: fileSystem, logger: logger}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process captures the project version, type and recorded timestamps. It never changes anything.
func (check *Check) Process(_ context.Context, project discovery.Project, record status.Record) (runner.Outcome[Detail], error) {
	detail := Detail{PackageVersion: UnknownValue, ProjectType: UnknownValue, StatusUpdates: record.Status}
	if len(record.Type) > 0 {
		detail.ProjectType = record.Type
	}

	projectManifest, loadError := manifest.Load(check.fileSystem, project.Path)
	switch {
	case loadError == nil:
		if packageVersion, present := projectManifest.Version(); present && len(packageVersion) > 0 {
			detail.PackageVersion = packageVersion
		}
	case !errors.Is(loadError, manifest.ErrManifestNotFound):
		check.logger.Debug(manifestUnreadableMessageConstant, zap.String(projectPathLogFieldConstant, project.Path), zap.Error(loadError))
	}
	return runner.Outcome[Detail]{Detail: detail}, nil
}

// Definition describes the summary report.
func Definition() runner.ReportDefinition[Detail] {
	columns := []string{"Project Name", "Package Version", "Project Type", "Project Path"}
	columns = append(columns, TrackedCheckIdentifiers...)
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  columns,
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			detail := result.Outcome.Detail
			row := []string{result.Project.Name, detail.PackageVersion, detail.ProjectType, result.Project.Path}
			for _, checkIdentifier := range TrackedCheckIdentifiers {
				row = append(row, detail.StatusUpdates[checkIdentifier])
			}
			return row
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var appCount, packageCount, standaloneCount, unknownCount, updatedProjectCount, updateCount int
			for _, result := range results {
				detail := result.Outcome.Detail
				switch detail.ProjectType {
				case status.ProjectTypeApp:
					appCount++
				case status.ProjectTypePackage:
					packageCount++
				case status.ProjectTypeStandalone:
					standaloneCount++
				case UnknownValue:
					unknownCount++
				}
				if len(detail.StatusUpdates) > 0 {
					updatedProjectCount++
					updateCount += len(detail.StatusUpdates)
				}
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("App projects", appCount),
				report.CountEntry("Package projects", packageCount),
				report.CountEntry("Standalone projects", standaloneCount),
				report.CountEntry("Unknown type projects", unknownCount),
				report.CountEntry("Projects with status updates", updatedProjectCount),
				report.CountEntry("Total status updates", updateCount),
			}
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

// Execute writes the summary report.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	_, runError := checks.RunCheck[Detail](executionContext, environment, NewCheck(environment.FileSystem, environment.Logger), Definition())
	return runError
}
