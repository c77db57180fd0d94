package prerelease_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/execshell"
	"github.com/mlefree/mle-best-practices/internal/prerelease"
)

const (
	testProjectDirectoryConstant = "/projects/demo"
	testCaseNameTemplateConstant = "%d_%s"
)

type recordingNpmExecutor struct {
	failingScript string
	invocations   []execshell.CommandDetails
}

func (executor *recordingNpmExecutor) ExecuteNpm(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.invocations = append(executor.invocations, details)
	if len(details.Arguments) == 2 && details.Arguments[1] == executor.failingScript {
		command := execshell.ShellCommand{Name: execshell.CommandNpm, Details: details}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: execshell.ExecutionResult{ExitCode: 1, StandardError: "boom"}}
	}
	return execshell.ExecutionResult{}, nil
}

func TestGateRunsScriptsInOrder(testInstance *testing.T) {
	testCases := []struct {
		name                string
		failingScript       string
		expectedInvocations [][]string
		expectedError       string
	}{
		{
			name:                "all_steps_pass",
			expectedInvocations: [][]string{{"run", "build"}, {"run", "test"}},
		},
		{
			name:                "build_failure_stops_gate",
			failingScript:       prerelease.BuildScriptName,
			expectedInvocations: [][]string{{"run", "build"}},
			expectedError:       "pre-release build failed: npm run build exited with code 1: boom",
		},
		{
			name:                "test_failure",
			failingScript:       prerelease.TestScriptName,
			expectedInvocations: [][]string{{"run", "build"}, {"run", "test"}},
			expectedError:       "pre-release test failed: npm run test exited with code 1: boom",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			executor := &recordingNpmExecutor{failingScript: testCase.failingScript}
			gate, gateError := prerelease.NewGate(executor, zap.NewNop())
			require.NoError(testInstance, gateError)

			runError := gate.Run(context.Background(), testProjectDirectoryConstant)
			if len(testCase.expectedError) > 0 {
				require.EqualError(testInstance, runError, testCase.expectedError)
				require.ErrorAs(testInstance, runError, &execshell.CommandFailedError{})
			} else {
				require.NoError(testInstance, runError)
			}

			var invokedArguments [][]string
			for _, invocation := range executor.invocations {
				require.Equal(testInstance, testProjectDirectoryConstant, invocation.WorkingDirectory)
				invokedArguments = append(invokedArguments, invocation.Arguments)
			}
			require.Equal(testInstance, testCase.expectedInvocations, invokedArguments)
		})
	}
}

func TestNewGateRequiresExecutor(testInstance *testing.T) {
	_, gateError := prerelease.NewGate(nil, zap.NewNop())
	require.ErrorIs(testInstance, gateError, prerelease.ErrExecutorNotConfigured)
}
