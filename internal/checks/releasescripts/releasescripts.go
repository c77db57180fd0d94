// Package releasescripts prunes the release scripts that do not apply to a project type.
package releasescripts

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/manifest"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "clean-release-scripts"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_RELEASE_SCRIPTS.gitignored.md"

	descriptionConstant             = "Remove release scripts that do not match the project type"
	reportTitleConstant             = "Release Scripts Cleanup Status"
	removedScriptsSeparatorConstant = ", "
	noRemovedScriptsLabelConstant   = "None"
	scriptsRemovedMessageConstant   = "release scripts removed"
	projectPathLogFieldConstant     = "project_path"
	scriptNamesLogFieldConstant     = "scripts"
)

// Detail is the per-project outcome of the cleanup.
type Detail struct {
	ProjectType        string
	ScriptsRemoved     []string
	PackageJSONUpdated bool
}

// Check removes disallowed release scripts.
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

// Process prunes package.json according to the recorded project type. Projects without package.json are left untouched.
func (check *Check) Process(_ context.Context, project discovery.Project, record status.Record) (runner.Outcome[Detail], error) {
	projectType := record.Type
	if len(projectType) == 0 {
		projectType = status.ProjectTypeStandalone
	}
	outcome := runner.Outcome[Detail]{ProjectType: projectType, Detail: Detail{ProjectType: projectType}}

	projectManifest, loadError := manifest.Load(check.fileSystem, project.Path)
	if loadError != nil {
		if errors.Is(loadError, manifest.ErrManifestNotFound) {
			return outcome, nil
		}
		return outcome, loadError
	}

	policy, policyError := NewPolicy(check.fileSystem, project.Path, projectType)
	if policyError != nil {
		return outcome, policyError
	}
	removedNames := policy.Prune(projectManifest)
	if len(removedNames) == 0 {
		return outcome, nil
	}
	if saveError := projectManifest.Save(); saveError != nil {
		return outcome, saveError
	}

	check.logger.Info(scriptsRemovedMessageConstant, zap.String(projectPathLogFieldConstant, project.Path), zap.Strings(scriptNamesLogFieldConstant, removedNames))
	outcome.Changed = true
	outcome.Detail.ScriptsRemoved = removedNames
	outcome.Detail.PackageJSONUpdated = true
	return outcome, nil
}

// FormatRemovedScripts joins removed script names for a report cell.
func FormatRemovedScripts(scriptNames []string) string {
	if len(scriptNames) == 0 {
		return noRemovedScriptsLabelConstant
	}
	return strings.Join(scriptNames, removedScriptsSeparatorConstant)
}

// Definition describes the cleanup report.
func Definition() runner.ReportDefinition[Detail] {
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", "Project Type", "Excluded", "Scripts Removed", "package.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			return []string{
				result.Project.Name,
				result.Project.Path,
				result.ProjectType(),
				report.Mark(result.Excluded),
				FormatRemovedScripts(result.Outcome.Detail.ScriptsRemoved),
				report.Mark(result.Outcome.Detail.PackageJSONUpdated),
			}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var excludedCount, appCount, packageCount, standaloneCount, prunedCount, removedCount int
			for _, result := range results {
				if result.Excluded {
					excludedCount++
				}
				switch result.ProjectType() {
				case status.ProjectTypeApp:
					appCount++
				case status.ProjectTypePackage:
					packageCount++
				case status.ProjectTypeStandalone:
					standaloneCount++
				}
				if len(result.Outcome.Detail.ScriptsRemoved) > 0 {
					prunedCount++
					removedCount += len(result.Outcome.Detail.ScriptsRemoved)
				}
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("Projects excluded by rules", excludedCount),
				report.CountEntry("App projects", appCount),
				report.CountEntry("Package projects", packageCount),
				report.CountEntry("Standalone projects", standaloneCount),
				report.CountEntry("Projects with scripts removed", prunedCount),
				report.CountEntry("Total scripts removed", removedCount),
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

// Execute prunes release scripts across every project.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	_, runError := checks.RunCheck[Detail](executionContext, environment, NewCheck(environment.FileSystem, environment.Logger), Definition())
	return runError
}
