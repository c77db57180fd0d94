package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/execshell"
	"github.com/mlefree/mle-best-practices/internal/prerelease"
	"github.com/mlefree/mle-best-practices/internal/ui"
	"github.com/mlefree/mle-best-practices/internal/utils"
)

const (
	releaseCommandNameConstant             = "check-before-release"
	releaseCommandShortDescriptionConstant = "Build and test a project before releasing it"
	releaseCommandLongDescriptionConstant  = "check-before-release runs npm run build and then npm run test in the project directory and fails on the first error."
	projectFlagNameConstant                = "project"
	projectFlagUsageConstant               = "Project directory to verify (defaults to the working directory)"
	projectConfigurationKeySuffixConstant  = ".project"
	currentDirectoryConstant               = "."
)

// ReleaseConfiguration captures configuration values for check-before-release.
type ReleaseConfiguration struct {
	Project string `mapstructure:"project"`
}

// DefaultReleaseConfigurationValues exposes the check-before-release defaults keyed under prefix.
func DefaultReleaseConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + projectConfigurationKeySuffixConstant: "",
	}
}

// ReleaseCommandBuilder assembles the check-before-release command.
type ReleaseCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ReleaseConfiguration
	CommandRunnerProvider        func() execshell.CommandRunner
}

// Build constructs the check-before-release command.
func (builder *ReleaseCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   releaseCommandNameConstant,
		Short: releaseCommandShortDescriptionConstant,
		Long:  releaseCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().String(projectFlagNameConstant, "", projectFlagUsageConstant)
	return command, nil
}

func (builder *ReleaseCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := zap.NewNop()
	if builder.LoggerProvider != nil && builder.LoggerProvider() != nil {
		logger = builder.LoggerProvider()
	}

	var commandRunner execshell.CommandRunner
	if builder.CommandRunnerProvider != nil {
		commandRunner = builder.CommandRunnerProvider()
	}
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	var executorOptions []execshell.ShellExecutorOption
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, executorOptions...)
	if executorError != nil {
		return executorError
	}

	gate, gateError := prerelease.NewGate(shellExecutor, logger)
	if gateError != nil {
		return gateError
	}
	return gate.Run(command.Context(), builder.resolveProjectDirectory(command))
}

// resolveProjectDirectory prefers the --project flag, then configuration, then the working directory.
func (builder *ReleaseCommandBuilder) resolveProjectDirectory(command *cobra.Command) string {
	if command.Flags().Changed(projectFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(projectFlagNameConstant)
		if trimmedValue := strings.TrimSpace(flagValue); len(trimmedValue) > 0 {
			return trimmedValue
		}
	}
	if builder.ConfigurationProvider != nil {
		if configuredProject := strings.TrimSpace(builder.ConfigurationProvider().Project); len(configuredProject) > 0 {
			return configuredProject
		}
	}
	if workingDirectory, available := utils.NewCommandContextAccessor().WorkingDirectory(command.Context()); available {
		return workingDirectory
	}
	return currentDirectoryConstant
}
