// Package gitignore appends the reference ignore entries missing from each project's .gitignore.
package gitignore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
	"github.com/mlefree/mle-best-practices/internal/templates"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "check-gitignore"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_GITIGNORE.gitignored.md"
	// AddedLinesMarker precedes the lines appended to a project's .gitignore.
	AddedLinesMarker = "# Added by mle-best-practices"

	descriptionConstant             = "Append missing reference entries to every project's .gitignore"
	reportTitleConstant             = "Projects .gitignore Status"
	lineSeparatorConstant           = "\n"
	gitignorePermissionsConstant    = 0o644
	readErrorTemplateConstant       = "failed to read %s: %w"
	writeErrorTemplateConstant      = "failed to write %s: %w"
	gitignoreUpdatedMessageConstant = "appended missing .gitignore entries"
	gitignoreAlignedMessageConstant = "no missing .gitignore entries"
	missingLinesLogFieldConstant    = "missing_lines"
	projectNameLogFieldConstant     = "project_name"
)

// Detail is the per-project outcome of the gitignore check.
type Detail struct {
	GitignoreStatus  bool
	GitignoreUpdated bool
	LinesAdded       int
}

// Check synchronizes .gitignore entries.
type Check struct {
	fileSystem     afero.Fs
	referenceLines []string
	logger         *zap.Logger
}

// NewCheck constructs a Check for the reference lines.
func NewCheck(fileSystem afero.Fs, referenceLines []string, logger *zap.Logger) *Check {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Check{fileSystem: fileSystem, referenceLines: referenceLines, logger: logger}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process reports whether the project already held every reference line and appends the missing ones.
func (check *Check) Process(_ context.Context, project discovery.Project, _ status.Record) (runner.Outcome[Detail], error) {
	gitignorePath := filepath.Join(project.Path, templates.GitignoreFileName)

	var existingLines []string
	content, readError := afero.ReadFile(check.fileSystem, gitignorePath)
	fileExists := readError == nil
	switch {
	case fileExists:
		existingLines = strings.Split(string(content), lineSeparatorConstant)
	case errors.Is(readError, fs.ErrNotExist):
	default:
		return runner.Outcome[Detail]{}, fmt.Errorf(readErrorTemplateConstant, gitignorePath, readError)
	}

	missingLines := MissingLines(existingLines, check.referenceLines)
	detail := Detail{GitignoreStatus: fileExists && len(missingLines) == 0}
	if len(missingLines) == 0 {
		check.logger.Debug(gitignoreAlignedMessageConstant, zap.String(projectNameLogFieldConstant, project.Name))
		return runner.Outcome[Detail]{Detail: detail}, nil
	}

	updatedContent := AppendMissingLines(existingLines, missingLines)
	if writeError := afero.WriteFile(check.fileSystem, gitignorePath, []byte(updatedContent), gitignorePermissionsConstant); writeError != nil {
		return runner.Outcome[Detail]{Detail: detail}, fmt.Errorf(writeErrorTemplateConstant, gitignorePath, writeError)
	}
	check.logger.Info(
		gitignoreUpdatedMessageConstant,
		zap.String(projectNameLogFieldConstant, project.Name),
		zap.Strings(missingLinesLogFieldConstant, missingLines),
	)

	detail.GitignoreUpdated = true
	detail.LinesAdded = len(missingLines)
	return runner.Outcome[Detail]{Changed: true, Detail: detail}, nil
}

// MissingLines returns the reference lines absent from existingLines, compared after trimming.
func MissingLines(existingLines []string, referenceLines []string) []string {
	presentLines := make(map[string]struct{}, len(existingLines))
	for _, existingLine := range existingLines {
		presentLines[strings.TrimSpace(existingLine)] = struct{}{}
	}
	var missingLines []string
	for _, referenceLine := range referenceLines {
		if _, present := presentLines[referenceLine]; present {
			continue
		}
		presentLines[referenceLine] = struct{}{}
		missingLines = append(missingLines, referenceLine)
	}
	return missingLines
}

// AppendMissingLines appends the marker and missing lines, separated from existing content by a blank line.
func AppendMissingLines(existingLines []string, missingLines []string) string {
	updatedLines := append([]string{}, existingLines...)
	if len(updatedLines) > 0 && updatedLines[len(updatedLines)-1] != "" {
		updatedLines = append(updatedLines, "")
	}
	updatedLines = append(updatedLines, AddedLinesMarker)
	updatedLines = append(updatedLines, missingLines...)
	return strings.Join(updatedLines, lineSeparatorConstant)
}

// Definition describes the gitignore report.
func Definition() runner.ReportDefinition[Detail] {
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", ".gitignore Status", "Excluded", ".gitignore Updated", "bpstatus.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			return []string{
				result.Project.Name,
				result.Project.Path,
				report.Mark(result.Outcome.Detail.GitignoreStatus),
				report.Mark(result.Excluded),
				report.Mark(result.Outcome.Detail.GitignoreUpdated),
				report.Mark(result.StatusUpdated),
			}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var excludedCount, matchingCount, nonMatchingCount, updatedCount, statusUpdatedCount int
			for _, result := range results {
				switch {
				case result.Excluded:
					excludedCount++
				case result.Outcome.Detail.GitignoreStatus:
					matchingCount++
				default:
					nonMatchingCount++
				}
				if result.Outcome.Detail.GitignoreUpdated {
					updatedCount++
				}
				if result.StatusUpdated {
					statusUpdatedCount++
				}
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("Projects excluded by rules", excludedCount),
				report.CountEntry("Projects with matching .gitignore", matchingCount),
				report.CountEntry("Projects with non-matching .gitignore", nonMatchingCount),
				report.CountEntry("Projects with .gitignore updated", updatedCount),
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

// Execute loads the reference .gitignore and runs the check.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	referenceLines, loadError := environment.Catalog.LoadGitignoreReference()
	if loadError != nil {
		return loadError
	}
	_, runError := checks.RunCheck[Detail](executionContext, environment, NewCheck(environment.FileSystem, referenceLines, environment.Logger), Definition())
	return runError
}
