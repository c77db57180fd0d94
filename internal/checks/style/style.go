// Package style distributes formatter and linter configuration and the development dependencies they rely on.
package style

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/filesync"
	"github.com/mlefree/mle-best-practices/internal/manifest"
	"github.com/mlefree/mle-best-practices/internal/registry"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "check-style"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_STYLE.gitignored.md"

	descriptionConstant               = "Copy style configuration and add missing lint dependencies"
	reportTitleConstant               = "Projects Style Files Status"
	caretRangePrefixConstant          = "^"
	versionUnresolvedMessageConstant  = "latest version unavailable; dependency skipped"
	dependencyAddedMessageConstant    = "development dependency added"
	projectPathLogFieldConstant       = "project_path"
	dependencyNameLogFieldConstant    = "dependency"
	dependencyVersionLogFieldConstant = "version_range"
)

// Detail is the per-project outcome of the style check.
type Detail struct {
	FilesUpdated        bool
	FilesCopied         int
	DependenciesUpdated bool
	DependenciesAdded   int
}

// Check synchronizes style files and development dependencies.
type Check struct {
	fileSystem      afero.Fs
	styleFiles      []filesync.File
	devDependencies []string
	resolver        registry.LatestVersionResolver
	logger          *zap.Logger
}

// NewCheck constructs a Check.
func NewCheck(fileSystem afero.Fs, styleFiles []filesync.File, devDependencies []string, resolver registry.LatestVersionResolver, logger *zap.Logger) *Check {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Check{fileSystem: fileSystem, styleFiles: styleFiles, devDependencies: devDependencies, resolver: resolver, logger: logger}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process copies the style files into the project root and adds each missing development dependency
// at the caret range of its latest published version. Dependencies whose version cannot be resolved are skipped.
func (check *Check) Process(executionContext context.Context, project discovery.Project, _ status.Record) (runner.Outcome[Detail], error) {
	var detail Detail
	copiedCount, copyError := filesync.CopyFiles(check.fileSystem, check.styleFiles, project.Path)
	detail.FilesCopied = copiedCount
	detail.FilesUpdated = copiedCount > 0
	if copyError != nil {
		return runner.Outcome[Detail]{Changed: detail.FilesUpdated, Detail: detail}, copyError
	}

	dependencyError := check.ensureDevDependencies(executionContext, project, &detail)
	if dependencyError != nil && !errors.Is(dependencyError, manifest.ErrManifestNotFound) {
		return runner.Outcome[Detail]{Changed: detail.FilesUpdated, Detail: detail}, dependencyError
	}
	detail.FilesUpdated = detail.FilesUpdated || detail.DependenciesUpdated
	return runner.Outcome[Detail]{Changed: detail.FilesUpdated, Detail: detail}, nil
}

func (check *Check) ensureDevDependencies(executionContext context.Context, project discovery.Project, detail *Detail) error {
	projectManifest, loadError := manifest.Load(check.fileSystem, project.Path)
	if loadError != nil {
		return loadError
	}

	addedCount := 0
	for _, dependencyName := range check.devDependencies {
		if projectManifest.HasDevDependency(dependencyName) {
			continue
		}
		latestVersion, resolved := check.resolver.ResolveLatestVersion(executionContext, dependencyName)
		if !resolved {
			check.logger.Warn(versionUnresolvedMessageConstant, zap.String(projectPathLogFieldConstant, project.Path), zap.String(dependencyNameLogFieldConstant, dependencyName))
			continue
		}
		versionRange := caretRangePrefixConstant + latestVersion
		if projectManifest.EnsureDevDependency(dependencyName, versionRange) {
			addedCount++
			check.logger.Info(
				dependencyAddedMessageConstant,
				zap.String(projectPathLogFieldConstant, project.Path),
				zap.String(dependencyNameLogFieldConstant, dependencyName),
				zap.String(dependencyVersionLogFieldConstant, versionRange),
			)
		}
	}
	if addedCount == 0 {
		return nil
	}
	if saveError := projectManifest.Save(); saveError != nil {
		return saveError
	}
	detail.DependenciesUpdated = true
	detail.DependenciesAdded = addedCount
	return nil
}

// Definition describes the style report.
func Definition() runner.ReportDefinition[Detail] {
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", "Excluded", "Style Files Updated", "Style Files Copied", "Dependencies Updated", "Dependencies Added", "bpstatus.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			detail := result.Outcome.Detail
			return []string{
				result.Project.Name,
				result.Project.Path,
				report.Mark(result.Excluded),
				report.Mark(detail.FilesUpdated),
				strconv.Itoa(detail.FilesCopied),
				report.Mark(detail.DependenciesUpdated),
				strconv.Itoa(detail.DependenciesAdded),
				report.Mark(result.StatusUpdated),
			}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var excludedCount, filesUpdatedCount, copiedCount, dependenciesUpdatedCount, addedCount, statusUpdatedCount int
			for _, result := range results {
				detail := result.Outcome.Detail
				if result.Excluded {
					excludedCount++
				}
				if detail.FilesUpdated {
					filesUpdatedCount++
				}
				if detail.DependenciesUpdated {
					dependenciesUpdatedCount++
				}
				if result.StatusUpdated {
					statusUpdatedCount++
				}
				copiedCount += detail.FilesCopied
				addedCount += detail.DependenciesAdded
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("Projects excluded by rules", excludedCount),
				report.CountEntry("Projects with style files updated", filesUpdatedCount),
				report.CountEntry("Total style files copied", copiedCount),
				report.CountEntry("Projects with dependencies updated", dependenciesUpdatedCount),
				report.CountEntry("Total dependencies added", addedCount),
				report.CountEntry("Projects with bpstatus.json updated", statusUpdatedCount),
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

// Execute loads the style files and runs the check.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	styleFiles, loadError := environment.Catalog.LoadStyleFiles()
	if loadError != nil {
		return loadError
	}
	check := NewCheck(environment.FileSystem, styleFiles, environment.Configuration.Style.DevDependencies, environment.Resolver, environment.Logger)
	_, runError := checks.RunCheck[Detail](executionContext, environment, check, Definition())
	return runError
}
