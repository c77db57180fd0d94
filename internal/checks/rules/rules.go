package rules

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/filesync"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/runner"
	"github.com/mlefree/mle-best-practices/internal/status"
	"github.com/mlefree/mle-best-practices/internal/templates"
)

const (
	// Identifier names the check in status files, exclusion rules and workflows.
	Identifier = "check-memory-bank"
	// ReportFileName is the markdown report written by the check.
	ReportFileName = "STATUS_MEMORY_BANK.gitignored.md"

	descriptionConstant              = "Copy the memory-bank rules document into every project"
	reportTitleConstant              = "Projects Memory Bank Status"
	unversionedDocumentLabelConstant = "unversioned"
)

// Detail is the per-project outcome of the rules check.
type Detail struct {
	MemoryBankEnabled bool
	RulesUpdated      bool
}

// Check synchronizes the rules document.
type Check struct {
	fileSystem afero.Fs
	document   templates.RulesDocument
}

// NewCheck constructs a Check for document.
func NewCheck(fileSystem afero.Fs, document templates.RulesDocument) *Check {
	return &Check{fileSystem: fileSystem, document: document}
}

// Identifier returns the check identifier.
func (check *Check) Identifier() string {
	return Identifier
}

// Process copies the document when it differs and reports whether the project opted into the memory bank.
func (check *Check) Process(_ context.Context, project discovery.Project, record status.Record) (runner.Outcome[Detail], error) {
	memoryBankTimestamp, _ := record.Timestamp(status.MemoryBankStatusKey)
	detail := Detail{MemoryBankEnabled: len(memoryBankTimestamp) > 0}

	rulesDirectory := filepath.Join(project.Path, templates.RulesDirectoryName)
	copied, copyError := filesync.CopyIfDifferent(check.fileSystem, check.document.Content, rulesDirectory, templates.RulesFileName)
	if copyError != nil {
		return runner.Outcome[Detail]{Detail: detail}, copyError
	}
	detail.RulesUpdated = copied
	return runner.Outcome[Detail]{Changed: copied, Detail: detail}, nil
}

// Definition describes the memory-bank report. The document version, when declared in its front matter, is part of the summary.
func Definition(document templates.RulesDocument) runner.ReportDefinition[Detail] {
	documentVersion := document.Version
	if len(documentVersion) == 0 {
		documentVersion = unversionedDocumentLabelConstant
	}
	return runner.ReportDefinition[Detail]{
		Title:    reportTitleConstant,
		Columns:  []string{"Project Name", "Project Path", "Memory Bank Enabled", "Excluded", "Rules Updated", "bpstatus.json Updated"},
		FileName: ReportFileName,
		Row: func(result runner.Result[Detail]) []string {
			return []string{
				result.Project.Name,
				result.Project.Path,
				report.Mark(result.Outcome.Detail.MemoryBankEnabled),
				report.Mark(result.Excluded),
				report.Mark(result.Outcome.Detail.RulesUpdated),
				report.Mark(result.StatusUpdated),
			}
		},
		Summary: func(results []runner.Result[Detail]) []report.SummaryEntry {
			var enabledCount, updatedCount, statusUpdatedCount int
			for _, result := range results {
				if result.Outcome.Detail.MemoryBankEnabled {
					enabledCount++
				}
				if result.Outcome.Detail.RulesUpdated {
					updatedCount++
				}
				if result.StatusUpdated {
					statusUpdatedCount++
				}
			}
			return []report.SummaryEntry{
				report.CountEntry("Total projects found", len(results)),
				report.CountEntry("Projects with memory-bank enabled", enabledCount),
				report.CountEntry("Projects with rules updated", updatedCount),
				report.CountEntry("Projects with bpstatus.json updated", statusUpdatedCount),
				{Label: "Rules document version", Value: documentVersion},
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

// Execute loads the rules document and runs the check.
func (Executable) Execute(executionContext context.Context, environment checks.Environment) error {
	document, loadError := environment.Catalog.LoadRulesDocument()
	if loadError != nil {
		return loadError
	}
	_, runError := checks.RunCheck[Detail](executionContext, environment, NewCheck(environment.FileSystem, document), Definition(document))
	return runError
}
