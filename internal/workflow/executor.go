package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
)

const (
	workflowExecutionErrorTemplateConstant = "workflow step %s failed: %w"
	workflowUnknownCheckTemplateConstant   = "workflow step %d references unknown check %q"
	workflowResolverMissingMessageConstant = "workflow executor requires a check resolver"
	stepStartedMessageConstant             = "workflow step started"
	stepFailedMessageConstant              = "workflow step failed"
	workflowCompletedMessageConstant       = "workflow completed"
	checkIdentifierLogFieldConstant        = "check_id"
	stepIndexLogFieldConstant              = "step"
	failedStepsLogFieldConstant            = "failed_steps"
)

// ErrResolverNotConfigured indicates an executor built without a check resolver.
var ErrResolverNotConfigured = errors.New(workflowResolverMissingMessageConstant)

// Executor runs workflow steps sequentially against a shared environment.
type Executor struct {
	resolver CheckResolver
	logger   *zap.Logger
}

// NewExecutor constructs an Executor instance.
func NewExecutor(resolver CheckResolver, logger *zap.Logger) (*Executor, error) {
	if resolver == nil {
		return nil, ErrResolverNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{resolver: resolver, logger: logger}, nil
}

// Validate ensures every step references a registered check.
func (executor *Executor) Validate(configuration Configuration) error {
	if len(configuration.Steps) == 0 {
		return ErrEmptyWorkflow
	}
	for stepIndex, step := range configuration.Steps {
		if _, registered := executor.resolver.Lookup(step.Check); !registered {
			return fmt.Errorf(workflowUnknownCheckTemplateConstant, stepIndex+1, step.Check)
		}
	}
	return nil
}

// Execute runs every step in order. A failed step does not stop the following ones;
// the step errors are joined and returned once the workflow finishes.
func (executor *Executor) Execute(executionContext context.Context, environment checks.Environment, configuration Configuration) error {
	if validationError := executor.Validate(configuration); validationError != nil {
		return validationError
	}

	var stepErrors []error
	for stepIndex, step := range configuration.Steps {
		if contextError := executionContext.Err(); contextError != nil {
			stepErrors = append(stepErrors, contextError)
			break
		}
		executable, _ := executor.resolver.Lookup(step.Check)
		executor.logger.Info(stepStartedMessageConstant, zap.Int(stepIndexLogFieldConstant, stepIndex+1), zap.String(checkIdentifierLogFieldConstant, step.Check))
		if executeError := executable.Execute(executionContext, environment); executeError != nil {
			executor.logger.Error(stepFailedMessageConstant, zap.String(checkIdentifierLogFieldConstant, step.Check), zap.Error(executeError))
			stepErrors = append(stepErrors, fmt.Errorf(workflowExecutionErrorTemplateConstant, step.Check, executeError))
		}
	}

	executor.logger.Info(workflowCompletedMessageConstant, zap.Int(failedStepsLogFieldConstant, len(stepErrors)))
	return errors.Join(stepErrors...)
}
