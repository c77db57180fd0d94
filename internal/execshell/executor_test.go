package execshell_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mlefree/mle-best-practices/internal/execshell"
)

const (
	testCaseNameTemplateConstant     = "%d_%s"
	testProjectDirectoryConstant     = "/workspace/projects/alpha"
	testBranchListingOutputConstant  = "* main\n  sandbox\n  remotes/origin/package\n"
	testBuildFailureOutputConstant   = " src/index.ts(3,1): error TS1005 \n"
	testMissingBinaryMessageConstant = "executable file not found in $PATH"
	testStartedEventConstant         = "started"
	testCompletedEventConstant       = "completed"
	testFailedEventConstant          = "execution_failed"
)

type scriptedCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *scriptedCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

type eventRecorder struct {
	events []string
}

func (recorder *eventRecorder) CommandStarted(execshell.ShellCommand) {
	recorder.events = append(recorder.events, testStartedEventConstant)
}

func (recorder *eventRecorder) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	recorder.events = append(recorder.events, testCompletedEventConstant)
}

func (recorder *eventRecorder) CommandExecutionFailed(execshell.ShellCommand, error) {
	recorder.events = append(recorder.events, testFailedEventConstant)
}

func TestNewShellExecutorRequiresCollaborators(testInstance *testing.T) {
	_, missingLoggerError := execshell.NewShellExecutor(nil, &scriptedCommandRunner{})
	require.ErrorIs(testInstance, missingLoggerError, execshell.ErrLoggerNotConfigured)

	_, missingRunnerError := execshell.NewShellExecutor(zap.NewNop(), nil)
	require.ErrorIs(testInstance, missingRunnerError, execshell.ErrCommandRunnerNotConfigured)

	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), &scriptedCommandRunner{}, execshell.WithCommandEventObserver(nil))
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, shellExecutor)
}

func TestShellExecutorReportsOutcomes(testInstance *testing.T) {
	testCases := []struct {
		name              string
		invoke            func(shellExecutor *execshell.ShellExecutor) (execshell.ExecutionResult, error)
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectedCommand   execshell.ShellCommand
		expectedOutput    string
		expectFailedError bool
		expectStartError  bool
		expectedEvents    []string
		expectedLastLevel zapcore.Level
	}{
		{
			name: "git_branch_listing_returns_output",
			invoke: func(shellExecutor *execshell.ShellExecutor) (execshell.ExecutionResult, error) {
				return shellExecutor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"branch", "-a"}, WorkingDirectory: testProjectDirectoryConstant})
			},
			runnerResult: execshell.ExecutionResult{StandardOutput: testBranchListingOutputConstant},
			expectedCommand: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"branch", "-a"}, WorkingDirectory: testProjectDirectoryConstant},
			},
			expectedOutput:    testBranchListingOutputConstant,
			expectedEvents:    []string{testStartedEventConstant, testCompletedEventConstant},
			expectedLastLevel: zap.DebugLevel,
		},
		{
			name: "npm_build_exit_code_is_a_failure",
			invoke: func(shellExecutor *execshell.ShellExecutor) (execshell.ExecutionResult, error) {
				return shellExecutor.ExecuteNpm(context.Background(), execshell.CommandDetails{Arguments: []string{"run", "build"}, WorkingDirectory: testProjectDirectoryConstant})
			},
			runnerResult: execshell.ExecutionResult{StandardError: testBuildFailureOutputConstant, ExitCode: 2},
			expectedCommand: execshell.ShellCommand{
				Name:    execshell.CommandNpm,
				Details: execshell.CommandDetails{Arguments: []string{"run", "build"}, WorkingDirectory: testProjectDirectoryConstant},
			},
			expectFailedError: true,
			expectedEvents:    []string{testStartedEventConstant, testCompletedEventConstant},
			expectedLastLevel: zap.WarnLevel,
		},
		{
			name: "npm_missing_binary_cannot_start",
			invoke: func(shellExecutor *execshell.ShellExecutor) (execshell.ExecutionResult, error) {
				return shellExecutor.ExecuteNpm(context.Background(), execshell.CommandDetails{Arguments: []string{"run", "test"}})
			},
			runnerError: errors.New(testMissingBinaryMessageConstant),
			expectedCommand: execshell.ShellCommand{
				Name:    execshell.CommandNpm,
				Details: execshell.CommandDetails{Arguments: []string{"run", "test"}},
			},
			expectStartError:  true,
			expectedEvents:    []string{testStartedEventConstant, testFailedEventConstant},
			expectedLastLevel: zap.ErrorLevel,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.DebugLevel)
			commandRunner := &scriptedCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}
			recorder := &eventRecorder{}

			shellExecutor, creationError := execshell.NewShellExecutor(zap.New(observerCore), commandRunner, execshell.WithCommandEventObserver(recorder))
			require.NoError(testInstance, creationError)

			executionResult, executionError := testCase.invoke(shellExecutor)

			require.Equal(testInstance, []execshell.ShellCommand{testCase.expectedCommand}, commandRunner.recordedCommands)
			require.Equal(testInstance, testCase.expectedEvents, recorder.events)

			switch {
			case testCase.expectFailedError:
				var failedError execshell.CommandFailedError
				require.ErrorAs(testInstance, executionError, &failedError)
				require.Equal(testInstance, 2, failedError.Result.ExitCode)
			case testCase.expectStartError:
				var startError execshell.CommandExecutionError
				require.ErrorAs(testInstance, executionError, &startError)
				require.ErrorIs(testInstance, executionError, testCase.runnerError)
			default:
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.expectedOutput, executionResult.StandardOutput)
			}

			entries := observedLogs.All()
			require.Len(testInstance, entries, 2)
			require.Equal(testInstance, zap.DebugLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedLastLevel, entries[1].Level)
			require.Equal(testInstance, string(testCase.expectedCommand.Name), entries[1].ContextMap()["command"])
		})
	}
}

func TestCommandErrorsDescribeCommand(testInstance *testing.T) {
	command := execshell.ShellCommand{Name: execshell.CommandNpm, Details: execshell.CommandDetails{Arguments: []string{"run", "build"}}}

	failedError := execshell.CommandFailedError{Command: command, Result: execshell.ExecutionResult{ExitCode: 2, StandardError: testBuildFailureOutputConstant}}
	require.Equal(testInstance, "npm run build exited with code 2: src/index.ts(3,1): error TS1005", failedError.Error())

	silentError := execshell.CommandFailedError{Command: command, Result: execshell.ExecutionResult{ExitCode: 1}}
	require.Equal(testInstance, "npm run build exited with code 1", silentError.Error())

	cause := errors.New(testMissingBinaryMessageConstant)
	executionError := execshell.CommandExecutionError{Command: command, Cause: cause}
	require.ErrorIs(testInstance, executionError, cause)
	require.Contains(testInstance, executionError.Error(), "npm run build")
}
