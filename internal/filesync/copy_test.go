package filesync_test

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/mlefree/mle-best-practices/internal/filesync"
)

const (
	testDestinationDirectoryConstant = "/project/scripts/bp"
	testFileNameConstant             = "release.js"
	testCaseNameTemplateConstant     = "%d_%s"
)

func TestCopyIfDifferent(testInstance *testing.T) {
	testCases := []struct {
		name            string
		existingContent *string
		expectedCopied  bool
	}{
		{name: "missing_destination", existingContent: nil, expectedCopied: true},
		{name: "different_destination", existingContent: stringPointer("old"), expectedCopied: true},
		{name: "identical_destination", existingContent: stringPointer("canonical"), expectedCopied: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			destinationPath := testDestinationDirectoryConstant + "/" + testFileNameConstant
			if testCase.existingContent != nil {
				require.NoError(testInstance, afero.WriteFile(fileSystem, destinationPath, []byte(*testCase.existingContent), 0o644))
			}

			copied, copyError := filesync.CopyIfDifferent(fileSystem, []byte("canonical"), testDestinationDirectoryConstant, testFileNameConstant)
			require.NoError(testInstance, copyError)
			require.Equal(testInstance, testCase.expectedCopied, copied)

			content, readError := afero.ReadFile(fileSystem, destinationPath)
			require.NoError(testInstance, readError)
			require.Equal(testInstance, "canonical", string(content))
		})
	}
}

func TestCopyFilesCountsWrites(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/project/.prettierrc", []byte("{}"), 0o644))

	files := []filesync.File{
		{Name: ".prettierrc", Content: []byte("{}")},
		{Name: "eslint.config.js", Content: []byte("export default [];")},
	}

	copiedCount, copyError := filesync.CopyFiles(fileSystem, files, "/project")
	require.NoError(testInstance, copyError)
	require.Equal(testInstance, 1, copiedCount)

	copiedCount, copyError = filesync.CopyFiles(fileSystem, files, "/project")
	require.NoError(testInstance, copyError)
	require.Zero(testInstance, copiedCount)
}

func TestCopyFilesReportsFailures(testInstance *testing.T) {
	fileSystem := afero.NewReadOnlyFs(afero.NewMemMapFs())
	copiedCount, copyError := filesync.CopyFiles(fileSystem, []filesync.File{{Name: "a.js", Content: []byte("a")}}, "/project")
	require.Error(testInstance, copyError)
	require.Zero(testInstance, copiedCount)
}

func stringPointer(value string) *string {
	return &value
}
