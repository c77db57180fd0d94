package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/checks/projects"
	"github.com/mlefree/mle-best-practices/internal/execshell"
	"github.com/mlefree/mle-best-practices/internal/shared"
	"github.com/mlefree/mle-best-practices/internal/status"
	"github.com/mlefree/mle-best-practices/internal/suite"
	"github.com/mlefree/mle-best-practices/internal/utils"
	"github.com/mlefree/mle-best-practices/internal/version"
)

const (
	testCaseNameTemplateConstant        = "%d_%s"
	testConfigurationFileNameConstant   = "config.yaml"
	testTemplatesDirectoryNameConstant  = "templates"
	testProjectsDirectoryNameConstant   = "projects"
	testProjectNameConstant             = "alpha"
	testTemplatesManifestConstant       = `{"name":"mle-best-practices","version":"3.2.1"}`
	testConfigurationTemplateConstant   = "templates:\n  directory: %s\n"
	testFoldersConfigurationTemplate    = "projects:\n  folders: %s\n"
	testEnvironmentFileTemplateConstant = "PROJECTS_FOLDERS=%s\n"
	testConfigFlagConstant              = "--config"
)

type workspaceFixture struct {
	rootDirectory      string
	templatesDirectory string
	projectsDirectory  string
	projectDirectory   string
	configurationPath  string
}

func newWorkspaceFixture(testInstance *testing.T) workspaceFixture {
	testInstance.Helper()
	rootDirectory := testInstance.TempDir()
	fixture := workspaceFixture{
		rootDirectory:      rootDirectory,
		templatesDirectory: filepath.Join(rootDirectory, testTemplatesDirectoryNameConstant),
		projectsDirectory:  filepath.Join(rootDirectory, testProjectsDirectoryNameConstant),
		configurationPath:  filepath.Join(rootDirectory, testConfigurationFileNameConstant),
	}
	fixture.projectDirectory = filepath.Join(fixture.projectsDirectory, testProjectNameConstant)

	require.NoError(testInstance, os.MkdirAll(fixture.templatesDirectory, 0o755))
	require.NoError(testInstance, os.MkdirAll(fixture.projectDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(fixture.templatesDirectory, "package.json"), []byte(testTemplatesManifestConstant), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(fixture.projectDirectory, status.FileName), []byte("{}"), 0o644))
	return fixture
}

func newTestApplication(testInstance *testing.T, workingDirectory string, logOutput *bytes.Buffer) *Application {
	testInstance.Helper()
	testInstance.Setenv(checks.ProjectsFoldersEnvironmentVariable, "")
	testInstance.Setenv("BP_PROJECTS_FOLDERS", "")

	application := NewApplication()
	application.workingDirectory = workingDirectory
	application.loggerFactory = utils.NewLoggerFactoryWithOutput(logOutput)
	application.environmentOptions = checks.EnvironmentOptions{
		Clock: shared.FixedClock{Instant: time.Date(2025, time.March, 4, 9, 30, 0, 0, time.Local)},
	}
	return application
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := NewApplication()

	expectedNames := append(suite.DefaultRegistry().Identifiers(), workflowCommandNameConstant, watchCommandNameConstant, releaseCommandNameConstant)
	for _, expectedName := range expectedNames {
		command, _, findError := application.rootCommand.Find([]string{expectedName})
		require.NoError(testInstance, findError)
		require.Equal(testInstance, expectedName, command.Name())
	}
}

func TestApplicationPrintsVersion(testInstance *testing.T) {
	output := &bytes.Buffer{}
	application := newTestApplication(testInstance, testInstance.TempDir(), &bytes.Buffer{})
	application.rootCommand.SetOut(output)
	application.rootCommand.SetArgs([]string{"--version"})

	require.NoError(testInstance, application.Execute())
	require.Contains(testInstance, output.String(), version.Summary())
}

func TestApplicationResolvesProjectFolders(testInstance *testing.T) {
	testCases := []struct {
		name                    string
		configureFolders        bool
		templatesEnvironment    bool
		workingEnvironment      bool
		expectMissingFolders    bool
		expectRegisteredProject bool
	}{
		{
			name:                    "configuration_file",
			configureFolders:        true,
			expectRegisteredProject: true,
		},
		{
			name:                    "templates_environment_file",
			templatesEnvironment:    true,
			expectRegisteredProject: true,
		},
		{
			name:                    "working_directory_environment_file",
			workingEnvironment:      true,
			expectRegisteredProject: true,
		},
		{
			name:                 "missing_folders",
			expectMissingFolders: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fixture := newWorkspaceFixture(testInstance)
			workingDirectory := testInstance.TempDir()

			configurationContent := fmt.Sprintf(testConfigurationTemplateConstant, fixture.templatesDirectory)
			if testCase.configureFolders {
				configurationContent += fmt.Sprintf(testFoldersConfigurationTemplate, fixture.projectsDirectory)
			}
			require.NoError(testInstance, os.WriteFile(fixture.configurationPath, []byte(configurationContent), 0o600))

			environmentContent := []byte(fmt.Sprintf(testEnvironmentFileTemplateConstant, fixture.projectsDirectory))
			if testCase.templatesEnvironment {
				require.NoError(testInstance, os.WriteFile(filepath.Join(fixture.templatesDirectory, ".env"), environmentContent, 0o600))
			}
			if testCase.workingEnvironment {
				require.NoError(testInstance, os.WriteFile(filepath.Join(workingDirectory, ".env"), environmentContent, 0o600))
			}

			logOutput := &bytes.Buffer{}
			application := newTestApplication(testInstance, workingDirectory, logOutput)
			application.rootCommand.SetArgs([]string{projects.Identifier, testConfigFlagConstant, fixture.configurationPath})

			executionError := application.Execute()
			if testCase.expectMissingFolders {
				require.ErrorIs(testInstance, executionError, checks.ErrMissingProjectFolders)
				return
			}
			require.NoError(testInstance, executionError)

			reportContent, readError := os.ReadFile(filepath.Join(fixture.templatesDirectory, projects.ReportFileName))
			require.NoError(testInstance, readError)
			require.Contains(testInstance, string(reportContent), testProjectNameConstant)

			statusContent, statusError := os.ReadFile(filepath.Join(fixture.projectDirectory, status.FileName))
			require.NoError(testInstance, statusError)
			require.Contains(testInstance, string(statusContent), `"version": "3.2.1"`)
			require.Contains(testInstance, string(statusContent), projects.Identifier)
		})
	}
}

func TestApplicationLoggingFlags(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectError   bool
		expectJSONLog bool
	}{
		{
			name:          "structured_debug",
			arguments:     []string{"--log-level", "debug"},
			expectJSONLog: true,
		},
		{
			name:      "console_debug",
			arguments: []string{"--log-level", "debug", "--log-format", "console"},
		},
		{
			name:        "unsupported_level",
			arguments:   []string{"--log-level", "verbose"},
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fixture := newWorkspaceFixture(testInstance)
			configurationContent := fmt.Sprintf(testConfigurationTemplateConstant, fixture.templatesDirectory) + fmt.Sprintf(testFoldersConfigurationTemplate, fixture.projectsDirectory)
			require.NoError(testInstance, os.WriteFile(fixture.configurationPath, []byte(configurationContent), 0o600))

			logOutput := &bytes.Buffer{}
			application := newTestApplication(testInstance, fixture.rootDirectory, logOutput)
			arguments := append([]string{projects.Identifier, testConfigFlagConstant, fixture.configurationPath}, testCase.arguments...)
			application.rootCommand.SetArgs(arguments)

			executionError := application.Execute()
			if testCase.expectError {
				require.Error(testInstance, executionError)
				return
			}
			require.NoError(testInstance, executionError)
			require.Contains(testInstance, logOutput.String(), configurationInitializedMessageConstant)
			require.Equal(testInstance, testCase.expectJSONLog, bytes.HasPrefix(bytes.TrimSpace(logOutput.Bytes()), []byte("{")))
		})
	}
}

type recordingCommandRunner struct {
	failingScript string
	commands      []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	arguments := command.Details.Arguments
	if len(arguments) > 0 && arguments[len(arguments)-1] == runner.failingScript {
		return execshell.ExecutionResult{ExitCode: 1, StandardError: "failed"}, nil
	}
	return execshell.ExecutionResult{}, nil
}

func TestApplicationCheckBeforeRelease(testInstance *testing.T) {
	testCases := []struct {
		name              string
		failingScript     string
		expectedArguments [][]string
		expectError       bool
	}{
		{
			name:              "build_and_test_succeed",
			expectedArguments: [][]string{{"run", "build"}, {"run", "test"}},
		},
		{
			name:              "build_failure_stops_gate",
			failingScript:     "build",
			expectedArguments: [][]string{{"run", "build"}},
			expectError:       true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			projectDirectory := testInstance.TempDir()
			commandRunner := &recordingCommandRunner{failingScript: testCase.failingScript}

			application := newTestApplication(testInstance, testInstance.TempDir(), &bytes.Buffer{})
			application.environmentOptions.CommandRunner = commandRunner
			application.rootCommand.SetArgs([]string{releaseCommandNameConstant, "--project", projectDirectory})

			executionError := application.Execute()
			if testCase.expectError {
				require.Error(testInstance, executionError)
			} else {
				require.NoError(testInstance, executionError)
			}

			recordedArguments := make([][]string, 0, len(commandRunner.commands))
			for _, command := range commandRunner.commands {
				require.Equal(testInstance, execshell.CommandNpm, command.Name)
				require.Equal(testInstance, projectDirectory, command.Details.WorkingDirectory)
				recordedArguments = append(recordedArguments, command.Details.Arguments)
			}
			require.Equal(testInstance, testCase.expectedArguments, recordedArguments)
		})
	}
}

func TestEmbeddedDefaultConfigurationMatchesDefaults(testInstance *testing.T) {
	application := newTestApplication(testInstance, testInstance.TempDir(), &bytes.Buffer{})
	require.NoError(testInstance, application.initializeConfiguration(nil))

	loaded := application.configuration
	require.Equal(testInstance, string(utils.LogLevelInfo), loaded.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatStructured), loaded.Common.LogFormat)
	require.Equal(testInstance, checks.DefaultStyleDevDependencies, loaded.Style.DevDependencies)
	require.Equal(testInstance, 10*time.Second, loaded.Registry.Timeout)
	require.Equal(testInstance, 500*time.Millisecond, loaded.Tools.Watch.Debounce)
	require.True(testInstance, loaded.Tools.Watch.RunOnStart)
	require.Empty(testInstance, loaded.Projects.Folders)
}
