package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	workflowcmd "github.com/mlefree/mle-best-practices/cmd/cli/workflow"
	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/execshell"
	"github.com/mlefree/mle-best-practices/internal/suite"
	"github.com/mlefree/mle-best-practices/internal/templates"
	"github.com/mlefree/mle-best-practices/internal/utils"
	"github.com/mlefree/mle-best-practices/internal/version"
)

const (
	applicationNameConstant                 = "bp"
	applicationShortDescriptionConstant     = "Keep npm projects aligned with shared best practices"
	applicationLongDescriptionConstant      = "bp discovers the projects under the configured folders, synchronizes canonical templates into them and writes a markdown report per check."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	projectsFoldersConfigKeyConstant        = "projects.folders"
	workflowCommandNameConstant             = "workflow"
	watchCommandNameConstant                = "watch"
	toolsConfigurationKeyConstant           = "tools"
	workflowConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".workflow"
	watchConfigurationKeyConstant           = toolsConfigurationKeyConstant + ".watch"
	releaseConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".release"
	environmentPrefixConstant               = "BP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	projectFoldersFieldConstant             = "project_folders"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common               ApplicationCommonConfiguration `mapstructure:"common"`
	checks.Configuration `mapstructure:",squash"`
	Tools                ApplicationToolsConfiguration `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for the commands that are not checks.
type ApplicationToolsConfiguration struct {
	Workflow workflowcmd.CommandConfiguration `mapstructure:"workflow"`
	Watch    workflowcmd.WatchConfiguration   `mapstructure:"watch"`
	Release  ReleaseConfiguration             `mapstructure:"release"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	registry               *suite.Registry
	environmentOptions     checks.EnvironmentOptions
	workingDirectory       string
	buildErrors            []error
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.BindEnvironmentVariable(projectsFoldersConfigKeyConstant, checks.ProjectsFoldersEnvironmentVariable)

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		workingDirectory = defaultConfigurationSearchPathConstant
	}

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		registry:               suite.DefaultRegistry(),
		workingDirectory:       workingDirectory,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       version.Summary(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	for _, executable := range application.registry.Executables() {
		checkBuilder := CheckCommandBuilder{
			Executable:         executable,
			EnvironmentFactory: application.buildEnvironment,
		}
		application.addCommand(cobraCommand, executable.Identifier(), checkBuilder.Build)
	}

	workflowBuilder := workflowcmd.CommandBuilder{
		LoggerProvider:     application.loggerProvider,
		EnvironmentFactory: application.buildEnvironment,
		Registry:           application.registry,
		ConfigurationProvider: func() workflowcmd.CommandConfiguration {
			return application.configuration.Tools.Workflow
		},
	}
	application.addCommand(cobraCommand, workflowCommandNameConstant, workflowBuilder.Build)

	watchBuilder := workflowcmd.WatchCommandBuilder{
		LoggerProvider:     application.loggerProvider,
		EnvironmentFactory: application.buildEnvironment,
		Registry:           application.registry,
		ConfigurationProvider: func() workflowcmd.CommandConfiguration {
			return application.configuration.Tools.Workflow
		},
		WatchConfigurationProvider: func() workflowcmd.WatchConfiguration {
			return application.configuration.Tools.Watch
		},
	}
	application.addCommand(cobraCommand, watchCommandNameConstant, watchBuilder.Build)

	releaseBuilder := ReleaseCommandBuilder{
		LoggerProvider:               application.loggerProvider,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() ReleaseConfiguration {
			return application.configuration.Tools.Release
		},
		CommandRunnerProvider: func() execshell.CommandRunner {
			return application.environmentOptions.CommandRunner
		},
	}
	application.addCommand(cobraCommand, releaseCommandNameConstant, releaseBuilder.Build)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	if buildError := errors.Join(application.buildErrors...); buildError != nil {
		return buildError
	}
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) addCommand(rootCommand *cobra.Command, commandName string, build func() (*cobra.Command, error)) {
	command, buildError := build()
	if buildError != nil {
		application.buildErrors = append(application.buildErrors, fmt.Errorf(commandBuildErrorTemplateConstant, commandName, buildError))
		return
	}
	rootCommand.AddCommand(command)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range checks.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range workflowcmd.DefaultConfigurationValues(workflowConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range workflowcmd.DefaultWatchConfigurationValues(watchConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range DefaultReleaseConfigurationValues(releaseConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	if loadError := application.loadConfiguration(defaultValues); loadError != nil {
		return loadError
	}

	// Project folders missing from the environment and configuration files fall back to dotenv files.
	if len(application.configuration.Projects.Folders) == 0 {
		templatesDirectory := application.configuration.Configuration.Sanitize().Templates.Directory
		application.configurationLoader.SetEnvironmentFiles(
			filepath.Join(templatesDirectory, templates.EnvironmentFileName),
			filepath.Join(application.workingDirectory, templates.EnvironmentFileName),
		)
		if loadError := application.loadConfiguration(defaultValues); loadError != nil {
			return loadError
		}
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(strings.TrimSpace(application.configuration.Common.LogLevel)),
		utils.LogFormat(strings.TrimSpace(application.configuration.Common.LogFormat)),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(projectFoldersFieldConstant, application.configuration.Projects.Folders),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFile(command.Context(), application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithWorkingDirectory(updatedContext, application.workingDirectory)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) loadConfiguration(defaultValues map[string]any) error {
	loadedConfiguration := ApplicationConfiguration{}
	metadata, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &loadedConfiguration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configuration = loadedConfiguration
	application.configurationMetadata = metadata
	return nil
}

func (application *Application) buildEnvironment() (checks.Environment, error) {
	options := application.environmentOptions
	options.HumanReadableLogging = application.humanReadableLoggingEnabled()
	return checks.NewEnvironment(application.configuration.Configuration, application.logger, options)
}

func (application *Application) loggerProvider() *zap.Logger {
	return application.logger
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
