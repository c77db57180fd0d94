package utils

import "context"

const (
	configurationFileContextKeyConstant = commandContextKey("configurationFile")
	workingDirectoryContextKeyConstant  = commandContextKey("workingDirectory")
)

type commandContextKey string

// CommandContextAccessor stores command-scoped values on execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFile records the configuration file resolved by the loader.
func (accessor CommandContextAccessor) WithConfigurationFile(parentContext context.Context, configurationFilePath string) context.Context {
	return withValue(parentContext, configurationFileContextKeyConstant, configurationFilePath)
}

// ConfigurationFile returns the recorded configuration file, if any.
func (accessor CommandContextAccessor) ConfigurationFile(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFileContextKeyConstant)
}

// WithWorkingDirectory records the directory the command was started from.
func (accessor CommandContextAccessor) WithWorkingDirectory(parentContext context.Context, workingDirectory string) context.Context {
	return withValue(parentContext, workingDirectoryContextKeyConstant, workingDirectory)
}

// WorkingDirectory returns the recorded working directory, if any.
func (accessor CommandContextAccessor) WorkingDirectory(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, workingDirectoryContextKeyConstant)
}

func withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	if !available || len(value) == 0 {
		return "", false
	}
	return value, true
}
