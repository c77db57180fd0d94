package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlefree/mle-best-practices/internal/utils"
)

func TestCommandContextAccessor(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, configurationAvailable := accessor.ConfigurationFile(context.Background())
	require.False(testInstance, configurationAvailable)

	executionContext := accessor.WithConfigurationFile(context.Background(), "/etc/bp/config.yaml")
	executionContext = accessor.WithWorkingDirectory(executionContext, "/work")

	configurationFile, configurationAvailable := accessor.ConfigurationFile(executionContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "/etc/bp/config.yaml", configurationFile)

	workingDirectory, workingDirectoryAvailable := accessor.WorkingDirectory(executionContext)
	require.True(testInstance, workingDirectoryAvailable)
	require.Equal(testInstance, "/work", workingDirectory)

	emptyContext := accessor.WithConfigurationFile(context.Background(), "")
	_, configurationAvailable = accessor.ConfigurationFile(emptyContext)
	require.False(testInstance, configurationAvailable)
}
