package pathutils_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/mlefree/mle-best-practices/internal/utils/path"
)

const (
	testHomeDirectoryConstant    = "/home/developer"
	testCaseNameTemplateConstant = "%d_%s"
)

func TestRootPathSanitizerNormalizesInputs(testInstance *testing.T) {
	homeProvider := func() (string, error) { return testHomeDirectoryConstant, nil }

	testCases := []struct {
		name            string
		provider        pathutils.HomeDirectoryProvider
		inputs          []string
		expectedOutputs []string
	}{
		{
			name:            "trims_and_expands",
			provider:        homeProvider,
			inputs:          []string{"", "  /srv/projects\t", " ~/Projects/example ", "~"},
			expectedOutputs: []string{"/srv/projects", filepath.Join(testHomeDirectoryConstant, "Projects/example"), testHomeDirectoryConstant},
		},
		{
			name:            "cleans_and_deduplicates",
			provider:        homeProvider,
			inputs:          []string{"/srv/projects/", "/srv/./projects", "/srv/other"},
			expectedOutputs: []string{"/srv/projects", "/srv/other"},
		},
		{
			name:            "keeps_tilde_when_home_unknown",
			provider:        func() (string, error) { return "", errors.New("no home") },
			inputs:          []string{"~/code"},
			expectedOutputs: []string{"~/code"},
		},
		{
			name:            "only_blank_entries",
			provider:        homeProvider,
			inputs:          []string{" ", ""},
			expectedOutputs: nil,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			sanitizer := pathutils.NewRootPathSanitizerWithProvider(testCase.provider)
			require.Equal(testInstance, testCase.expectedOutputs, sanitizer.Sanitize(testCase.inputs))
		})
	}
}

func TestSplitList(testInstance *testing.T) {
	require.Equal(testInstance, []string{"/a", " /b", "/c"}, pathutils.SplitList([]string{"/a, /b", "/c"}))
}
