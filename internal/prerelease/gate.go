// Package prerelease runs the build and test scripts that must pass before a release.
package prerelease

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/execshell"
)

const (
	// BuildScriptName is the npm script that compiles the project.
	BuildScriptName = "build"
	// TestScriptName is the npm script that runs the project tests.
	TestScriptName = "test"

	npmRunSubcommandConstant         = "run"
	executorMissingMessageConstant   = "pre-release gate requires an npm executor"
	stepFailedTemplateConstant       = "pre-release %s failed: %w"
	stepStartedMessageConstant       = "pre-release step started"
	stepPassedMessageConstant        = "pre-release step passed"
	gatePassedMessageConstant        = "all pre-release checks passed"
	scriptLogFieldConstant           = "script"
	projectDirectoryLogFieldConstant = "project_directory"
)

// ErrExecutorNotConfigured indicates a gate built without an npm executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// NpmExecutor runs npm commands.
type NpmExecutor interface {
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Gate runs the pre-release scripts in order and stops at the first failure.
type Gate struct {
	executor    NpmExecutor
	logger      *zap.Logger
	scriptNames []string
}

// NewGate constructs a Gate running the build and test scripts.
func NewGate(executor NpmExecutor, logger *zap.Logger) (*Gate, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{executor: executor, logger: logger, scriptNames: []string{BuildScriptName, TestScriptName}}, nil
}

// Run executes `npm run <script>` for each gate script inside projectDirectory.
// An empty directory runs in the current working directory.
func (gate *Gate) Run(executionContext context.Context, projectDirectory string) error {
	for _, scriptName := range gate.scriptNames {
		gate.logger.Info(stepStartedMessageConstant, zap.String(scriptLogFieldConstant, scriptName), zap.String(projectDirectoryLogFieldConstant, projectDirectory))
		_, executionError := gate.executor.ExecuteNpm(executionContext, execshell.CommandDetails{
			Arguments:        []string{npmRunSubcommandConstant, scriptName},
			WorkingDirectory: projectDirectory,
		})
		if executionError != nil {
			return fmt.Errorf(stepFailedTemplateConstant, scriptName, executionError)
		}
		gate.logger.Info(stepPassedMessageConstant, zap.String(scriptLogFieldConstant, scriptName))
	}
	gate.logger.Info(gatePassedMessageConstant, zap.String(projectDirectoryLogFieldConstant, projectDirectory))
	return nil
}
