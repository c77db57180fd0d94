package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/workflow"
)

type recordingExecutable struct {
	identifier   string
	executeError error
	invocations  *[]string
}

func (executable recordingExecutable) Identifier() string {
	return executable.identifier
}

func (executable recordingExecutable) Description() string {
	return executable.identifier
}

func (executable recordingExecutable) Execute(context.Context, checks.Environment) error {
	*executable.invocations = append(*executable.invocations, executable.identifier)
	return executable.executeError
}

type mapResolver map[string]checks.Executable

func (resolver mapResolver) Lookup(checkIdentifier string) (checks.Executable, bool) {
	executable, registered := resolver[checkIdentifier]
	return executable, registered
}

func TestExecutorContinuesAfterFailedStep(testInstance *testing.T) {
	var invocations []string
	resolver := mapResolver{
		"first":  recordingExecutable{identifier: "first", invocations: &invocations},
		"second": recordingExecutable{identifier: "second", executeError: errors.New("template missing"), invocations: &invocations},
		"third":  recordingExecutable{identifier: "third", invocations: &invocations},
	}
	executor, executorError := workflow.NewExecutor(resolver, zap.NewNop())
	require.NoError(testInstance, executorError)

	executeError := executor.Execute(context.Background(), checks.Environment{}, workflow.NewConfiguration("first", "second", "third"))
	require.EqualError(testInstance, executeError, "workflow step second failed: template missing")
	require.Equal(testInstance, []string{"first", "second", "third"}, invocations)
}

func TestExecutorRejectsUnknownChecksBeforeRunning(testInstance *testing.T) {
	var invocations []string
	executor, executorError := workflow.NewExecutor(mapResolver{"first": recordingExecutable{identifier: "first", invocations: &invocations}}, zap.NewNop())
	require.NoError(testInstance, executorError)

	executeError := executor.Execute(context.Background(), checks.Environment{}, workflow.NewConfiguration("first", "check-missing"))
	require.EqualError(testInstance, executeError, `workflow step 2 references unknown check "check-missing"`)
	require.Empty(testInstance, invocations)
}

func TestExecutorStopsWhenContextIsCancelled(testInstance *testing.T) {
	var invocations []string
	executor, executorError := workflow.NewExecutor(mapResolver{"first": recordingExecutable{identifier: "first", invocations: &invocations}}, zap.NewNop())
	require.NoError(testInstance, executorError)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	executeError := executor.Execute(cancelledContext, checks.Environment{}, workflow.NewConfiguration("first"))
	require.ErrorIs(testInstance, executeError, context.Canceled)
	require.Empty(testInstance, invocations)
}

func TestNewExecutorRequiresResolver(testInstance *testing.T) {
	_, executorError := workflow.NewExecutor(nil, zap.NewNop())
	require.ErrorIs(testInstance, executorError, workflow.ErrResolverNotConfigured)
}
