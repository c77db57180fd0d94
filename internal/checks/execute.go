package checks

import (
	"context"

	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/runner"
)

const (
	checkCompletedMessageConstant   = "check completed"
	checkIdentifierLogFieldConstant = "check_id"
	succeededLogFieldConstant       = "succeeded"
	failedLogFieldConstant          = "failed"
	excludedLogFieldConstant        = "excluded"
	reportPathLogFieldConstant      = "report_path"
)

// Executable is a check that can be invoked by name from the command line or a workflow.
type Executable interface {
	Identifier() string
	Description() string
	Execute(executionContext context.Context, environment Environment) error
}

// RunCheck applies check to every configured project and writes its report.
// Per-project failures are logged and counted; only run-level failures are returned.
func RunCheck[D any](executionContext context.Context, environment Environment, check runner.Check[D], definition runner.ReportDefinition[D]) (runner.Summary[D], error) {
	checkRunner, creationError := runner.New(check, definition, runner.Dependencies{
		Discoverer:   environment.Discoverer,
		Store:        environment.Store,
		ReportWriter: environment.ReportWriter,
		Clock:        environment.Clock,
		Logger:       environment.Logger,
	})
	if creationError != nil {
		return runner.Summary[D]{}, creationError
	}

	summary, runError := checkRunner.Run(executionContext, runner.Options{
		Roots:           environment.Configuration.Projects.Folders,
		ReportDirectory: environment.Configuration.Reports.Directory,
	})
	if runError != nil {
		return summary, runError
	}

	environment.Logger.Info(
		checkCompletedMessageConstant,
		zap.String(checkIdentifierLogFieldConstant, check.Identifier()),
		zap.Int(succeededLogFieldConstant, summary.Succeeded),
		zap.Int(failedLogFieldConstant, summary.Failed),
		zap.Int(excludedLogFieldConstant, summary.Excluded),
		zap.String(reportPathLogFieldConstant, summary.ReportPath),
	)
	return summary, nil
}
