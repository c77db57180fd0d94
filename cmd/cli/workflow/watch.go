package workflow

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/suite"
	"github.com/mlefree/mle-best-practices/internal/watch"
	"github.com/mlefree/mle-best-practices/internal/workflow"
)

const (
	watchCommandUseConstant              = "watch"
	watchCommandShortDescriptionConstant = "Re-run the workflow whenever the templates change"
	watchCommandLongDescriptionConstant  = "watch observes the templates directory and re-runs the workflow after each debounced batch of changes until interrupted."
	debounceFlagNameConstant             = "debounce"
	debounceFlagDescriptionConstant      = "Quiet period awaited after the last change before re-running"
	noInitialRunFlagNameConstant         = "no-initial-run"
	noInitialRunFlagDescriptionConstant  = "Wait for the first change instead of running immediately"
	debounceLogFieldConstant             = "debounce"
	watchConfiguredMessageConstant       = "watch configured"
)

// WatchCommandBuilder assembles the watch command.
type WatchCommandBuilder struct {
	LoggerProvider             LoggerProvider
	EnvironmentFactory         checks.EnvironmentFactory
	Registry                   *suite.Registry
	FileSystem                 afero.Fs
	ConfigurationProvider      func() CommandConfiguration
	WatchConfigurationProvider func() WatchConfiguration
	// ContextDecorator wraps the command context; it defaults to cancellation on SIGINT and SIGTERM.
	ContextDecorator func(parent context.Context) (context.Context, context.CancelFunc)
}

// Build constructs the watch command.
func (builder *WatchCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   watchCommandUseConstant,
		Short: watchCommandShortDescriptionConstant,
		Long:  watchCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(fileFlagNameConstant, "", fileFlagDescriptionConstant)
	command.Flags().Duration(debounceFlagNameConstant, watch.DefaultDebounce, debounceFlagDescriptionConstant)
	command.Flags().Bool(noInitialRunFlagNameConstant, false, noInitialRunFlagDescriptionConstant)

	return command, nil
}

func (builder *WatchCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	registry := resolveRegistry(builder.Registry)
	watchConfiguration := builder.resolveWatchConfiguration(command)

	commandConfiguration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		commandConfiguration = builder.ConfigurationProvider().Sanitize()
	}
	workflowFile := resolveWorkflowFile(command, commandConfiguration.File)
	fileSystem := resolveFileSystem(builder.FileSystem)

	executor, executorError := workflow.NewExecutor(registry, logger)
	if executorError != nil {
		return executorError
	}

	initialEnvironment, environmentError := buildEnvironment(builder.EnvironmentFactory)
	if environmentError != nil {
		return environmentError
	}
	initialConfiguration, configurationError := loadWorkflowConfiguration(fileSystem, registry, workflowFile, logger)
	if configurationError != nil {
		return configurationError
	}
	if validationError := executor.Validate(initialConfiguration); validationError != nil {
		return validationError
	}

	trigger := func(executionContext context.Context) error {
		environment, buildError := buildEnvironment(builder.EnvironmentFactory)
		if buildError != nil {
			return buildError
		}
		workflowConfiguration, loadError := loadWorkflowConfiguration(fileSystem, registry, workflowFile, logger)
		if loadError != nil {
			return loadError
		}
		return executor.Execute(executionContext, environment, workflowConfiguration)
	}

	watcher, watcherError := watch.NewWatcher(watch.Options{
		Directory:  initialEnvironment.Configuration.Templates.Directory,
		Debounce:   watchConfiguration.Debounce,
		RunOnStart: watchConfiguration.RunOnStart,
	}, trigger, logger)
	if watcherError != nil {
		return watcherError
	}

	watchContext, cancel := builder.decorateContext(command.Context())
	defer cancel()

	logger.Debug(watchConfiguredMessageConstant, zap.Duration(debounceLogFieldConstant, watchConfiguration.Debounce))
	return watcher.Run(watchContext)
}

func (builder *WatchCommandBuilder) resolveWatchConfiguration(command *cobra.Command) WatchConfiguration {
	configuration := DefaultWatchConfiguration()
	if builder.WatchConfigurationProvider != nil {
		configuration = builder.WatchConfigurationProvider()
	}
	if command != nil && command.Flags().Changed(debounceFlagNameConstant) {
		debounce, _ := command.Flags().GetDuration(debounceFlagNameConstant)
		configuration.Debounce = debounce
	}
	if command != nil && command.Flags().Changed(noInitialRunFlagNameConstant) {
		noInitialRun, _ := command.Flags().GetBool(noInitialRunFlagNameConstant)
		configuration.RunOnStart = !noInitialRun
	}
	return configuration.Sanitize()
}

func (builder *WatchCommandBuilder) decorateContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if builder.ContextDecorator != nil {
		return builder.ContextDecorator(parent)
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
