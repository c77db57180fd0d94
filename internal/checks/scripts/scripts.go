// Package scripts distributes the bp helper scripts and their package.json entries.
package scripts

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/checks/releasescripts"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/filesync"
	"github.com/mlefree/mle-best-practices/internal/manifest"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
	"github.com/mlefree/mle-best-practices/internal/templates"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "check-scripts"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_SCRIPTS.gitignored.md"

	descriptionConstant            = "Copy bp helper scripts and align bp: package.json scripts"
	reportTitleConstant            = "Projects Scripts Status"
	manifestUpdatedMessageConstant = "package.json scripts updated"
	projectPathLogFieldConstant    = "project_path"
	scriptsAddedLogFieldConstant   = "scripts_added"
	scriptsRemovedLogFieldConstant = "scripts_removed"
)

// Detail is the per-project outcome of the scripts check.
type Detail struct {
	ScriptsUpdated     bool
	ScriptsCopied      int
	PackageJSONUpdated bool
	ScriptsAdded       int
	ScriptsRemoved     int
}

// Check synchronizes helper scripts and bp: script entries.
type Check struct {
	fileSystem       afero.Fs
	scriptFiles      []filesync.File
	canonicalScripts []manifest.Script
	logger           *zap.Logger
}

// NewCheck constructs a Check from the template script files and bp: script entries.
func NewCheck(fileSystem afero.Fs, scriptFiles []filesync.File, canonicalScripts []manifest.Script, logger *zap.Logger) *Check {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Check{fileSystem: fileSystem, scriptFiles: scriptFiles, canonicalScripts: canonicalScripts, logger: logger}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process copies the helper scripts into scripts/bp, then aligns the bp: entries of package.json
// with the canonical set the project type allows and prunes the release scripts it disallows.
func (check *Check) Process(_ context.Context, project discovery.Project, record status.Record) (runner.Outcome[Detail], error) {
	var detail Detail
	copiedCount, copyError := filesync.CopyFiles(check.fileSystem, check.scriptFiles, filepath.Join(project.Path, templates.ScriptsRelativeDirectory))
	detail.ScriptsCopied = copiedCount
	detail.ScriptsUpdated = copiedCount > 0
	if copyError != nil {
		return runner.Outcome[Detail]{Changed: detail.ScriptsUpdated, Detail: detail}, copyError
	}

	manifestError := check.alignManifest(project, record.Type, &detail)
	if manifestError != nil && !errors.Is(manifestError, manifest.ErrManifestNotFound) {
		return runner.Outcome[Detail]{Changed: detail.ScriptsUpdated, Detail: detail}, manifestError
	}
	return runner.Outcome[Detail]{Changed: detail.ScriptsUpdated || detail.PackageJSONUpdated, Detail: detail}, nil
}

func (check *Check) alignManifest(project discovery.Project, projectType string, detail *Detail) error {
	projectManifest, loadError := manifest.Load(check.fileSystem, project.Path)
	if loadError != nil {
		return loadError
	}
	policy, policyError := releasescripts.NewPolicy(check.fileSystem, project.Path, projectType)
	if policyError != nil {
		return policyError
	}

	allowedScripts := make([]manifest.Script, 0, len(check.canonicalScripts))
	for _, canonicalScript := range check.canonicalScripts {
		if policy.Allows(canonicalScript.Name) {
			allowedScripts = append(allowedScripts, canonicalScript)
		}
	}

	merge := projectManifest.MergeNamespacedScripts(allowedScripts, templates.ScriptNamespacePrefix)
	prunedNames := policy.Prune(projectManifest)
	projectManifest.ReorderSections()

	if !merge.Changed() && len(prunedNames) == 0 {
		return nil
	}
	if saveError := projectManifest.Save(); saveError != nil {
		return saveError
	}

	detail.PackageJSONUpdated = true
	detail.ScriptsAdded = len(merge.Added)
	detail.ScriptsRemoved = len(withoutNames(merge.Removed, merge.Added)) + len(prunedNames)
	check.logger.Info(
		manifestUpdatedMessageConstant,
		zap.String(projectPathLogFieldConstant, project.Path),
		zap.Int(scriptsAddedLogFieldConstant, detail.ScriptsAdded),
		zap.Int(scriptsRemovedLogFieldConstant, detail.ScriptsRemoved),
	)
	return nil
}

func withoutNames(names []string, excludedNames []string) []string {
	excluded := make(map[string]struct{}, len(excludedNames))
	for _, excludedName := range excludedNames {
		excluded[excludedName] = struct{}{}
	}
	var remaining []string
	for _, name := range names {
		if _, skip := excluded[name]; !skip {
			remaining = append(remaining, name)
		}
	}
	return remaining
}

// Definition describes the scripts report.
func Definition() runner.ReportDefinition[Detail] {
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", "Excluded", "Script Files Updated", "Script Files Copied", "Package.json Updated", "BP Scripts Added", "bpstatus.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			detail := result.Outcome.Detail
			return []string{
				result.Project.Name,
				result.Project.Path,
				report.Mark(result.Excluded),
				report.Mark(detail.ScriptsUpdated),
				strconv.Itoa(detail.ScriptsCopied),
				report.Mark(detail.PackageJSONUpdated),
				strconv.Itoa(detail.ScriptsAdded),
				report.Mark(result.StatusUpdated),
			}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var excludedCount, scriptsUpdatedCount, copiedCount, manifestUpdatedCount, addedCount, removedCount, statusUpdatedCount int
			for _, result := range results {
				detail := result.Outcome.Detail
				if result.Excluded {
					excludedCount++
				}
				if detail.ScriptsUpdated {
					scriptsUpdatedCount++
				}
				if detail.PackageJSONUpdated {
					manifestUpdatedCount++
				}
				if result.StatusUpdated {
					statusUpdatedCount++
				}
				copiedCount += detail.ScriptsCopied
				addedCount += detail.ScriptsAdded
				removedCount += detail.ScriptsRemoved
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("Projects excluded by rules", excludedCount),
				report.CountEntry("Projects with script files updated", scriptsUpdatedCount),
				report.CountEntry("Total script files copied", copiedCount),
				report.CountEntry("Projects with package.json updated", manifestUpdatedCount),
				report.CountEntry("Total BP scripts added to package.json", addedCount),
				report.CountEntry("Total BP scripts removed from package.json", removedCount),
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

// Execute loads the helper scripts and bp: entries and runs the check.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	scriptFiles, scriptFilesError := environment.Catalog.LoadScriptFiles()
	if scriptFilesError != nil {
		return scriptFilesError
	}
	canonicalScripts, canonicalError := environment.Catalog.LoadNamespacedScripts()
	if canonicalError != nil {
		return canonicalError
	}
	check := NewCheck(environment.FileSystem, scriptFiles, canonicalScripts, environment.Logger)
	_, runError := checks.RunCheck[Detail](executionContext, environment, check, Definition())
	return runError
}
