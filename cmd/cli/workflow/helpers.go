package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/suite"
	"github.com/mlefree/mle-best-practices/internal/workflow"
)

const (
	fileFlagNameConstant                     = "file"
	fileFlagDescriptionConstant              = "Workflow file listing the checks to run (defaults to the built-in workflow)"
	loadConfigurationErrorTemplateConstant   = "unable to load workflow configuration: %w"
	environmentFactoryMissingMessageConstant = "workflow environment factory not configured"
	workflowFileLogFieldConstant             = "workflow_file"
	workflowStepsLogFieldConstant            = "steps"
	workflowResolvedMessageConstant          = "workflow configuration resolved"
)

// ErrEnvironmentFactoryNotConfigured indicates a builder constructed without an environment factory.
var ErrEnvironmentFactoryNotConfigured = errors.New(environmentFactoryMissingMessageConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveRegistry(registry *suite.Registry) *suite.Registry {
	if registry == nil {
		return suite.DefaultRegistry()
	}
	return registry
}

func resolveFileSystem(fileSystem afero.Fs) afero.Fs {
	if fileSystem == nil {
		return afero.NewOsFs()
	}
	return fileSystem
}

func buildEnvironment(factory checks.EnvironmentFactory) (checks.Environment, error) {
	if factory == nil {
		return checks.Environment{}, ErrEnvironmentFactoryNotConfigured
	}
	return factory()
}

// resolveWorkflowFile prefers the --file flag over the configured workflow file.
func resolveWorkflowFile(command *cobra.Command, configured string) string {
	if command != nil && command.Flags().Changed(fileFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(fileFlagNameConstant)
		return strings.TrimSpace(flagValue)
	}
	return strings.TrimSpace(configured)
}

// loadWorkflowConfiguration reads workflowFile, or returns the registry default workflow when it is empty.
func loadWorkflowConfiguration(fileSystem afero.Fs, registry *suite.Registry, workflowFile string, logger *zap.Logger) (workflow.Configuration, error) {
	workflowConfiguration := registry.DefaultWorkflow()
	if len(workflowFile) > 0 {
		loadedConfiguration, loadError := workflow.LoadConfiguration(fileSystem, workflowFile)
		if loadError != nil {
			return workflow.Configuration{}, fmt.Errorf(loadConfigurationErrorTemplateConstant, loadError)
		}
		workflowConfiguration = loadedConfiguration
	}

	logger.Debug(
		workflowResolvedMessageConstant,
		zap.String(workflowFileLogFieldConstant, workflowFile),
		zap.Strings(workflowStepsLogFieldConstant, workflowConfiguration.CheckIdentifiers()),
	)
	return workflowConfiguration, nil
}
