// Package projecttype classifies projects as app, package or standalone from their git branches.
package projecttype

import (
	"context"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/gitrepo"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "check-project-type"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_PROJECT_TYPES.gitignored.md"

	// SandboxBranchName marks deployable applications.
	SandboxBranchName = "sandbox"
	// PackageBranchName marks published libraries.
	PackageBranchName = "package"

	descriptionConstant                = "Detect whether projects are apps, packages or standalone"
	reportTitleConstant                = "Projects Type Status"
	branchPathSeparatorConstant        = "/"
	branchListingFailedMessageConstant = "branch listing failed; treating project as standalone"
	projectPathLogFieldConstant        = "project_path"
	projectTypeLogFieldConstant        = "project_type"
	typeDetectedMessageConstant        = "project type detected"
)

// Detail is the per-project outcome of the type check.
type Detail struct {
	ProjectType string
	TypeUpdated bool
}

// Check detects and records project types.
type Check struct {
	fileSystem   afero.Fs
	branchLister gitrepo.BranchLister
	store        *status.Store
	logger       *zap.Logger
}

// NewCheck constructs a Check.
func NewCheck(fileSystem afero.Fs, branchLister gitrepo.BranchLister, store *status.Store, logger *zap.Logger) *Check {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Check{fileSystem: fileSystem, branchLister: branchLister, store: store, logger: logger}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process detects the project type and stores it when it differs from the recorded one.
func (check *Check) Process(executionContext context.Context, project discovery.Project, _ status.Record) (runner.Outcome[Detail], error) {
	projectType := check.DetectType(executionContext, project.Path)
	check.logger.Debug(typeDetectedMessageConstant, zap.String(projectPathLogFieldConstant, project.Path), zap.String(projectTypeLogFieldConstant, projectType))

	typeUpdated, writeError := check.store.WriteType(project.StatusPath, projectType)
	detail := Detail{ProjectType: projectType, TypeUpdated: typeUpdated}
	if writeError != nil {
		return runner.Outcome[Detail]{ProjectType: projectType, Detail: detail}, writeError
	}
	return runner.Outcome[Detail]{Changed: typeUpdated, ProjectType: projectType, Detail: detail}, nil
}

// DetectType returns app when a sandbox branch exists, package when a package branch exists and standalone otherwise.
// Projects without git metadata or whose branches cannot be listed are standalone.
func (check *Check) DetectType(executionContext context.Context, projectPath string) string {
	if !gitrepo.HasMetadata(check.fileSystem, projectPath) {
		return status.ProjectTypeStandalone
	}
	branchNames, listError := check.branchLister.ListBranches(executionContext, projectPath)
	if listError != nil {
		check.logger.Warn(branchListingFailedMessageConstant, zap.String(projectPathLogFieldConstant, projectPath), zap.Error(listError))
		return status.ProjectTypeStandalone
	}
	return ClassifyBranches(branchNames)
}

// ClassifyBranches maps a branch listing to a project type. Remote-tracking names match by their last segment.
func ClassifyBranches(branchNames []string) string {
	if containsBranch(branchNames, SandboxBranchName) {
		return status.ProjectTypeApp
	}
	if containsBranch(branchNames, PackageBranchName) {
		return status.ProjectTypePackage
	}
	return status.ProjectTypeStandalone
}

func containsBranch(branchNames []string, branchName string) bool {
	for _, candidate := range branchNames {
		if candidate == branchName || strings.HasSuffix(candidate, branchPathSeparatorConstant+branchName) {
			return true
		}
	}
	return false
}

// Definition describes the project type report.
func Definition() runner.ReportDefinition[Detail] {
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", "Project Type", "Excluded", "bpstatus.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			return []string{
				result.Project.Name,
				result.Project.Path,
				result.ProjectType(),
				report.Mark(result.Excluded),
				report.Mark(result.StatusUpdated),
			}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var excludedCount, appCount, packageCount, standaloneCount, statusUpdatedCount int
			for _, result := range results {
				if result.Excluded {
					excludedCount++
				}
				switch result.Outcome.Detail.ProjectType {
				case status.ProjectTypeApp:
					appCount++
				case status.ProjectTypePackage:
					packageCount++
				case status.ProjectTypeStandalone:
					standaloneCount++
				}
				if result.StatusUpdated {
					statusUpdatedCount++
				}
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("Projects excluded by rules", excludedCount),
				report.CountEntry("App projects", appCount),
				report.CountEntry("Package projects", packageCount),
				report.CountEntry("Standalone projects", standaloneCount),
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

// Execute runs the type detection across every project.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	check := NewCheck(environment.FileSystem, environment.BranchLister, environment.Store, environment.Logger)
	_, runError := checks.RunCheck[Detail](executionContext, environment, check, Definition())
	return runError
}
