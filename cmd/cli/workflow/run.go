package workflow

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/suite"
	"github.com/mlefree/mle-best-practices/internal/workflow"
)

const (
	commandUseConstant              = "workflow"
	commandShortDescriptionConstant = "Run several checks in sequence"
	commandLongDescriptionConstant  = "workflow runs the checks listed in a YAML workflow file, or every check in its default order, against the configured project folders. A failed step does not stop the following ones."
)

// CommandBuilder assembles the workflow command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	EnvironmentFactory    checks.EnvironmentFactory
	Registry              *suite.Registry
	FileSystem            afero.Fs
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the workflow command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(fileFlagNameConstant, "", fileFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	registry := resolveRegistry(builder.Registry)
	commandConfiguration := builder.resolveConfiguration()

	workflowFile := resolveWorkflowFile(command, commandConfiguration.File)
	workflowConfiguration, configurationError := loadWorkflowConfiguration(resolveFileSystem(builder.FileSystem), registry, workflowFile, logger)
	if configurationError != nil {
		return configurationError
	}

	executor, executorError := workflow.NewExecutor(registry, logger)
	if executorError != nil {
		return executorError
	}
	if validationError := executor.Validate(workflowConfiguration); validationError != nil {
		return validationError
	}

	environment, environmentError := buildEnvironment(builder.EnvironmentFactory)
	if environmentError != nil {
		return environmentError
	}

	return executor.Execute(command.Context(), environment, workflowConfiguration)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}
