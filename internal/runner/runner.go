package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/shared"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// FailuresSummaryLabel is appended to every report summary.
	FailuresSummaryLabel = "Projects with failures"

	otherProjectTypeRankConstant = 4

	missingCheckMessageConstant        = "runner requires a check"
	missingDiscovererMessageConstant   = "runner requires a project discoverer"
	missingStoreMessageConstant        = "runner requires a status store"
	missingReportWriterMessageConstant = "runner requires a report writer"
	discoveryErrorTemplateConstant     = "project discovery failed: %w"
	reportErrorTemplateConstant        = "failed to write %s report: %w"
	statusWriteErrorTemplateConstant   = "failed to update %s: %w"
	projectExcludedMessageConstant     = "check excluded by status file, skipping"
	projectUnchangedMessageConstant    = "no changes made, skipping status update"
	projectFailedMessageConstant       = "project processing failed"
	statusWriteFailedMessageConstant   = "status update failed"
	runStartedMessageConstant          = "check run started"
	runCompletedMessageConstant        = "check run completed"
	runIdentifierLogFieldConstant      = "run_id"
	checkIdentifierLogFieldConstant    = "check_id"
	projectNameLogFieldConstant        = "project_name"
	projectPathLogFieldConstant        = "project_path"
	projectCountLogFieldConstant       = "project_count"
	succeededCountLogFieldConstant     = "succeeded"
	failedCountLogFieldConstant        = "failed"
	excludedCountLogFieldConstant      = "excluded"
	reportPathLogFieldConstant         = "report_path"
)

var (
	// ErrCheckNotConfigured indicates a runner built without a check.
	ErrCheckNotConfigured = errors.New(missingCheckMessageConstant)
	// ErrDiscovererNotConfigured indicates a runner built without a discoverer.
	ErrDiscovererNotConfigured = errors.New(missingDiscovererMessageConstant)
	// ErrStoreNotConfigured indicates a runner built without a status store.
	ErrStoreNotConfigured = errors.New(missingStoreMessageConstant)
	// ErrReportWriterNotConfigured indicates a runner built without a report writer.
	ErrReportWriterNotConfigured = errors.New(missingReportWriterMessageConstant)
)

var projectTypeRanks = map[string]int{
	status.ProjectTypeReference: 1,
	status.ProjectTypeApp:       2,
	status.ProjectTypePackage:   3,
}

// Dependencies are the collaborators shared by every run.
type Dependencies struct {
	Discoverer   ProjectDiscoverer
	Store        StatusStore
	ReportWriter ReportWriter
	Clock        shared.Clock
	Logger       *zap.Logger
}

// Runner applies one check to every discovered project.
type Runner[D any] struct {
	check        Check[D]
	definition   ReportDefinition[D]
	dependencies Dependencies
	comparator   *discovery.NameComparator
}

// New validates the collaborators and constructs a Runner.
func New[D any](check Check[D], definition ReportDefinition[D], dependencies Dependencies) (*Runner[D], error) {
	if check == nil {
		return nil, ErrCheckNotConfigured
	}
	if dependencies.Discoverer == nil {
		return nil, ErrDiscovererNotConfigured
	}
	if dependencies.Store == nil {
		return nil, ErrStoreNotConfigured
	}
	if dependencies.ReportWriter == nil {
		return nil, ErrReportWriterNotConfigured
	}
	if dependencies.Clock == nil {
		dependencies.Clock = shared.SystemClock{}
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Runner[D]{
		check:        check,
		definition:   definition,
		dependencies: dependencies,
		comparator:   discovery.NewNameComparator(),
	}, nil
}

// Run discovers the projects, processes each one and writes the report.
// Errors are returned only for discovery, cancellation and report failures.
func (runner *Runner[D]) Run(executionContext context.Context, options Options) (Summary[D], error) {
	checkIdentifier := runner.check.Identifier()
	summary := Summary[D]{RunIdentifier: uuid.NewString()}
	runLogger := runner.dependencies.Logger.With(
		zap.String(runIdentifierLogFieldConstant, summary.RunIdentifier),
		zap.String(checkIdentifierLogFieldConstant, checkIdentifier),
	)

	projects, discoveryError := runner.dependencies.Discoverer.DiscoverProjects(options.Roots)
	if discoveryError != nil {
		return summary, fmt.Errorf(discoveryErrorTemplateConstant, discoveryError)
	}
	runLogger.Info(runStartedMessageConstant, zap.Int(projectCountLogFieldConstant, len(projects)))

	results := make([]Result[D], 0, len(projects))
	for _, project := range projects {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		result := runner.processProject(executionContext, runLogger, checkIdentifier, project)
		switch {
		case result.Excluded:
			summary.Excluded++
		case result.Failed():
			summary.Failed++
		default:
			summary.Succeeded++
		}
		results = append(results, result)
	}

	slices.SortStableFunc(results, runner.compareResults)
	summary.Results = results

	document := report.Document{
		Title:   runner.definition.Title,
		Columns: runner.definition.Columns,
		Summary: runner.buildSummary(results, summary.Failed),
	}
	if runner.definition.Row != nil {
		for _, result := range results {
			document.Rows = append(document.Rows, runner.definition.Row(result))
		}
	}

	summary.ReportPath = filepath.Join(options.ReportDirectory, runner.definition.FileName)
	markdown := report.Render(document, runner.dependencies.Clock.Now())
	if writeError := runner.dependencies.ReportWriter.Write(summary.ReportPath, markdown); writeError != nil {
		return summary, fmt.Errorf(reportErrorTemplateConstant, checkIdentifier, writeError)
	}

	runLogger.Info(
		runCompletedMessageConstant,
		zap.Int(projectCountLogFieldConstant, len(results)),
		zap.Int(succeededCountLogFieldConstant, summary.Succeeded),
		zap.Int(failedCountLogFieldConstant, summary.Failed),
		zap.Int(excludedCountLogFieldConstant, summary.Excluded),
		zap.String(reportPathLogFieldConstant, summary.ReportPath),
	)
	return summary, nil
}

func (runner *Runner[D]) processProject(executionContext context.Context, runLogger *zap.Logger, checkIdentifier string, project discovery.Project) Result[D] {
	projectLogger := runLogger.With(
		zap.String(projectNameLogFieldConstant, project.Name),
		zap.String(projectPathLogFieldConstant, project.Path),
	)
	record := runner.dependencies.Store.Read(project.StatusPath)
	result := Result[D]{Project: project, Record: record}

	if status.IsExcluded(record, checkIdentifier) {
		projectLogger.Info(projectExcludedMessageConstant)
		result.Excluded = true
		return result
	}

	outcome, processError := runner.check.Process(executionContext, project, record)
	result.Outcome = outcome
	if processError != nil {
		projectLogger.Error(projectFailedMessageConstant, zap.Error(processError))
		result.Outcome.Changed = false
		result.Failure = processError
		return result
	}

	if !outcome.Changed {
		projectLogger.Debug(projectUnchangedMessageConstant)
		return result
	}

	if writeError := runner.dependencies.Store.Write(project.StatusPath, checkIdentifier); writeError != nil {
		projectLogger.Error(statusWriteFailedMessageConstant, zap.Error(writeError))
		result.Failure = fmt.Errorf(statusWriteErrorTemplateConstant, project.StatusPath, writeError)
		return result
	}
	result.StatusUpdated = true
	return result
}

func (runner *Runner[D]) compareResults(first Result[D], second Result[D]) int {
	firstRank := projectTypeRank(first.ProjectType())
	secondRank := projectTypeRank(second.ProjectType())
	if firstRank != secondRank {
		return firstRank - secondRank
	}
	return runner.comparator.Compare(first.Project.Name, second.Project.Name)
}

func (runner *Runner[D]) buildSummary(results []Result[D], failedCount int) []report.SummaryEntry {
	var entries []report.SummaryEntry
	if runner.definition.Summary != nil {
		entries = append(entries, runner.definition.Summary(results)...)
	}
	return append(entries, report.SummaryEntry{Label: FailuresSummaryLabel, Value: strconv.Itoa(failedCount)})
}

func projectTypeRank(projectType string) int {
	if rank, known := projectTypeRanks[projectType]; known {
		return rank
	}
	return otherProjectTypeRankConstant
}
