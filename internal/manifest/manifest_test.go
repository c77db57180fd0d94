package manifest_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/mlefree/mle-best-practices/internal/manifest"
)

const (
	testProjectPathConstant      = "/projects/demo"
	testManifestPathConstant     = "/projects/demo/package.json"
	testNamespacePrefixConstant  = "bp:"
	testCaseNameTemplateConstant = "%d_%s"
)

func loadTestManifest(testInstance *testing.T, content string) (*manifest.Manifest, afero.Fs) {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testManifestPathConstant, []byte(content), 0o644))
	loadedManifest, loadError := manifest.Load(fileSystem, testProjectPathConstant)
	require.NoError(testInstance, loadError)
	return loadedManifest, fileSystem
}

func TestLoadReportsMissingManifest(testInstance *testing.T) {
	_, loadError := manifest.Load(afero.NewMemMapFs(), testProjectPathConstant)
	require.ErrorIs(testInstance, loadError, manifest.ErrManifestNotFound)
}

func TestLoadRejectsMalformedManifest(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testManifestPathConstant, []byte("{"), 0o644))
	_, loadError := manifest.Load(fileSystem, testProjectPathConstant)
	require.Error(testInstance, loadError)
	require.NotErrorIs(testInstance, loadError, manifest.ErrManifestNotFound)
}

func TestMergeNamespacedScripts(testInstance *testing.T) {
	canonicalScripts := []manifest.Script{
		{Name: "bp:release", Command: "node scripts/bp/release.js"},
		{Name: "bp:check", Command: "node scripts/bp/check-before-release.js"},
	}

	testCases := []struct {
		name            string
		content         string
		expectedAdded   []string
		expectedRemoved []string
		expectedOrder   []string
	}{
		{
			name:          "adds_missing_scripts_in_front",
			content:       `{"scripts":{"build":"tsc","test":"jest"}}`,
			expectedAdded: []string{"bp:release", "bp:check"},
			expectedOrder: []string{"bp:release", "bp:check", "build", "test"},
		},
		{
			name:            "replaces_stale_and_unknown_scripts",
			content:         `{"scripts":{"build":"tsc","bp:release":"old","bp:legacy":"x","bp:check":"node scripts/bp/check-before-release.js"}}`,
			expectedAdded:   []string{"bp:release"},
			expectedRemoved: []string{"bp:release", "bp:legacy"},
			expectedOrder:   []string{"bp:check", "bp:release", "build"},
		},
		{
			name:          "already_aligned",
			content:       `{"scripts":{"bp:release":"node scripts/bp/release.js","bp:check":"node scripts/bp/check-before-release.js","build":"tsc"}}`,
			expectedOrder: []string{"bp:release", "bp:check", "build"},
		},
		{
			name:          "creates_scripts_section",
			content:       `{"name":"demo"}`,
			expectedAdded: []string{"bp:release", "bp:check"},
			expectedOrder: []string{"bp:release", "bp:check"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			loadedManifest, _ := loadTestManifest(testInstance, testCase.content)
			merge := loadedManifest.MergeNamespacedScripts(canonicalScripts, testNamespacePrefixConstant)
			require.Equal(testInstance, testCase.expectedAdded, merge.Added)
			require.Equal(testInstance, testCase.expectedRemoved, merge.Removed)
			require.Equal(testInstance, len(testCase.expectedAdded)+len(testCase.expectedRemoved) > 0, merge.Changed())
			require.Equal(testInstance, testCase.expectedOrder, loadedManifest.ScriptNames())
		})
	}
}

func TestRemoveScripts(testInstance *testing.T) {
	loadedManifest, _ := loadTestManifest(testInstance, `{"scripts":{"bp:main:sandbox":"a","bp:use-local-deps":"b","bp:use-remote-deps":"c","build":"d"}}`)

	require.Equal(testInstance, []string{"bp:use-local-deps", "bp:use-remote-deps"}, loadedManifest.RemoveScriptsMatching(regexp.MustCompile(`^bp:use-.*-deps$`)))
	require.Equal(testInstance, []string{"bp:main:sandbox"}, loadedManifest.RemoveScripts("bp:main:sandbox", "bp:main:package"))
	require.Equal(testInstance, []string{"build"}, loadedManifest.ScriptNames())
}

func TestDevDependencies(testInstance *testing.T) {
	loadedManifest, fileSystem := loadTestManifest(testInstance, `{"name":"demo","devDependencies":{"prettier":"^3.0.0","eslint":""}}`)

	require.True(testInstance, loadedManifest.HasDevDependency("prettier"))
	require.False(testInstance, loadedManifest.HasDevDependency("eslint"))
	require.False(testInstance, loadedManifest.EnsureDevDependency("prettier", "^4.0.0"))
	require.True(testInstance, loadedManifest.EnsureDevDependency("eslint", "^9.1.0"))
	require.NoError(testInstance, loadedManifest.Save())

	saved, readError := afero.ReadFile(fileSystem, testManifestPathConstant)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "{\n  \"name\": \"demo\",\n  \"devDependencies\": {\n    \"prettier\": \"^3.0.0\",\n    \"eslint\": \"^9.1.0\"\n  }\n}", string(saved))
}

func TestReorderSections(testInstance *testing.T) {
	loadedManifest, _ := loadTestManifest(testInstance, `{"devDependencies":{},"name":"demo","scripts":{},"dependencies":{},"version":"1.0.0"}`)
	loadedManifest.ReorderSections()
	require.Equal(testInstance, []string{"name", "version", "scripts", "dependencies", "devDependencies"}, loadedManifest.Keys())

	version, present := loadedManifest.Version()
	require.True(testInstance, present)
	require.Equal(testInstance, "1.0.0", version)
}
