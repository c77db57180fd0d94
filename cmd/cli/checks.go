package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mlefree/mle-best-practices/internal/checks"
)

const (
	executableMissingMessageConstant         = "check command requires an executable"
	environmentFactoryMissingMessageConstant = "check command requires an environment factory"
)

var (
	// ErrExecutableNotConfigured indicates a check command built without a check.
	ErrExecutableNotConfigured = errors.New(executableMissingMessageConstant)
	// ErrEnvironmentFactoryNotConfigured indicates a check command built without an environment factory.
	ErrEnvironmentFactoryNotConfigured = errors.New(environmentFactoryMissingMessageConstant)
)

// CheckCommandBuilder exposes a registered check as a subcommand named after its identifier.
type CheckCommandBuilder struct {
	Executable         checks.Executable
	EnvironmentFactory checks.EnvironmentFactory
}

// Build constructs the check command.
func (builder *CheckCommandBuilder) Build() (*cobra.Command, error) {
	if builder.Executable == nil {
		return nil, ErrExecutableNotConfigured
	}
	if builder.EnvironmentFactory == nil {
		return nil, ErrEnvironmentFactoryNotConfigured
	}

	command := &cobra.Command{
		Use:   builder.Executable.Identifier(),
		Short: builder.Executable.Description(),
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CheckCommandBuilder) run(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.EnvironmentFactory()
	if environmentError != nil {
		return environmentError
	}
	return builder.Executable.Execute(command.Context(), environment)
}
