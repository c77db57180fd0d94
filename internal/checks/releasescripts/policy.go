package releasescripts

import (
	"fmt"
	"regexp"

	"github.com/spf13/afero"

	"github.com/mlefree/mle-best-practices/internal/manifest"
	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	// SandboxReleaseScriptName publishes an app to its sandbox branch.
	SandboxReleaseScriptName = "bp:main:sandbox"
	// PackageReleaseScriptName publishes a library to its package branch.
	PackageReleaseScriptName = "bp:main:package"

	readProjectDirectoryErrorTemplateConstant = "failed to list %s: %w"
)

var (
	dependencySwitchScriptPattern = regexp.MustCompile(`^bp:use-.*-deps$`)
	packageVariantFilePattern     = regexp.MustCompile(`^package\.[^.]+\.json$`)
)

// Policy decides which release scripts a project keeps. Types other than app, package and standalone keep both release scripts.
type Policy struct {
	ProjectType        string
	HasPackageVariants bool
}

// NewPolicy inspects the project directory for package.<variant>.json files. An empty type means standalone.
func NewPolicy(fileSystem afero.Fs, projectPath string, projectType string) (Policy, error) {
	if len(projectType) == 0 {
		projectType = status.ProjectTypeStandalone
	}
	entries, readError := afero.ReadDir(fileSystem, projectPath)
	if readError != nil {
		return Policy{}, fmt.Errorf(readProjectDirectoryErrorTemplateConstant, projectPath, readError)
	}
	policy := Policy{ProjectType: projectType}
	for _, entry := range entries {
		if !entry.IsDir() && packageVariantFilePattern.MatchString(entry.Name()) {
			policy.HasPackageVariants = true
			break
		}
	}
	return policy, nil
}

// Allows reports whether the script survives pruning.
func (policy Policy) Allows(scriptName string) bool {
	if !policy.HasPackageVariants && dependencySwitchScriptPattern.MatchString(scriptName) {
		return false
	}
	for _, disallowedName := range policy.disallowedReleaseScripts() {
		if scriptName == disallowedName {
			return false
		}
	}
	return true
}

// Prune removes the scripts the policy disallows and returns their names in removal order.
func (policy Policy) Prune(projectManifest *manifest.Manifest) []string {
	var removedNames []string
	if !policy.HasPackageVariants {
		removedNames = append(removedNames, projectManifest.RemoveScriptsMatching(dependencySwitchScriptPattern)...)
	}
	return append(removedNames, projectManifest.RemoveScripts(policy.disallowedReleaseScripts()...)...)
}

func (policy Policy) disallowedReleaseScripts() []string {
	switch policy.ProjectType {
	case status.ProjectTypePackage:
		return []string{SandboxReleaseScriptName}
	case status.ProjectTypeApp:
		return []string{PackageReleaseScriptName}
	case status.ProjectTypeStandalone:
		return []string{SandboxReleaseScriptName, PackageReleaseScriptName}
	default:
		return nil
	}
}
