package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/mlefree/mle-best-practices/internal/jsondoc"
)

const (
	// FileName is the npm manifest file name.
	FileName = "package.json"

	versionKeyConstant                  = "version"
	scriptsKeyConstant                  = "scripts"
	dependenciesKeyConstant             = "dependencies"
	devDependenciesKeyConstant          = "devDependencies"
	manifestFilePermissionsConstant     = 0o644
	manifestNotFoundMessageConstant     = "package.json not found"
	readManifestErrorTemplateConstant   = "failed to read %s: %w"
	parseManifestErrorTemplateConstant  = "failed to parse %s: %w"
	encodeManifestErrorTemplateConstant = "failed to encode %s: %w"
	writeManifestErrorTemplateConstant  = "failed to write %s: %w"
)

// ErrManifestNotFound indicates a project directory without package.json.
var ErrManifestNotFound = errors.New(manifestNotFoundMessageConstant)

// Script is a named package.json script entry.
type Script struct {
	Name    string
	Command string
}

// ScriptMerge lists the script names touched by MergeNamespacedScripts.
type ScriptMerge struct {
	Added   []string
	Removed []string
}

// Changed reports whether the merge modified the manifest.
func (merge ScriptMerge) Changed() bool {
	return len(merge.Added) > 0 || len(merge.Removed) > 0
}

// Manifest is an order-preserving view of a package.json document.
type Manifest struct {
	fileSystem afero.Fs
	path       string
	document   *jsondoc.Object
}

// Load reads package.json from the project directory.
func Load(fileSystem afero.Fs, projectPath string) (*Manifest, error) {
	manifestPath := filepath.Join(projectPath, FileName)
	content, readError := afero.ReadFile(fileSystem, manifestPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, ErrManifestNotFound
		}
		return nil, fmt.Errorf(readManifestErrorTemplateConstant, manifestPath, readError)
	}

	document, parseError := jsondoc.Parse(content)
	if parseError != nil {
		return nil, fmt.Errorf(parseManifestErrorTemplateConstant, manifestPath, parseError)
	}
	return &Manifest{fileSystem: fileSystem, path: manifestPath, document: document}, nil
}

// Path returns the manifest file location.
func (manifest *Manifest) Path() string {
	return manifest.path
}

// Save writes the manifest with two-space indentation and no trailing newline.
func (manifest *Manifest) Save() error {
	encoded, encodeError := jsondoc.Marshal(manifest.document)
	if encodeError != nil {
		return fmt.Errorf(encodeManifestErrorTemplateConstant, manifest.path, encodeError)
	}
	if writeError := afero.WriteFile(manifest.fileSystem, manifest.path, encoded, manifestFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeManifestErrorTemplateConstant, manifest.path, writeError)
	}
	return nil
}

// Version returns the manifest version field.
func (manifest *Manifest) Version() (string, bool) {
	return manifest.document.String(versionKeyConstant)
}

// Scripts returns the string-valued script entries in document order.
func (manifest *Manifest) Scripts() []Script {
	scriptsObject, present := manifest.document.Object(scriptsKeyConstant)
	if !present {
		return nil
	}
	scripts := make([]Script, 0, scriptsObject.Len())
	for _, scriptName := range scriptsObject.Keys() {
		if command, isString := scriptsObject.String(scriptName); isString {
			scripts = append(scripts, Script{Name: scriptName, Command: command})
		}
	}
	return scripts
}

// NamespacedScripts returns the scripts whose name starts with prefix.
func (manifest *Manifest) NamespacedScripts(prefix string) []Script {
	var namespacedScripts []Script
	for _, script := range manifest.Scripts() {
		if strings.HasPrefix(script.Name, prefix) {
			namespacedScripts = append(namespacedScripts, script)
		}
	}
	return namespacedScripts
}

// ScriptNames returns every script name in document order.
func (manifest *Manifest) ScriptNames() []string {
	scriptsObject, present := manifest.document.Object(scriptsKeyConstant)
	if !present {
		return nil
	}
	return scriptsObject.Keys()
}

// MergeNamespacedScripts aligns the prefix-namespaced scripts with the canonical set.
// Namespaced entries that are not canonical or whose command differs are removed,
// missing or changed canonical entries are added, and namespaced entries are moved
// ahead of the other scripts.
func (manifest *Manifest) MergeNamespacedScripts(canonicalScripts []Script, prefix string) ScriptMerge {
	canonicalCommands := make(map[string]string, len(canonicalScripts))
	for _, canonicalScript := range canonicalScripts {
		canonicalCommands[canonicalScript.Name] = canonicalScript.Command
	}

	scriptsObject := manifest.document.EnsureObject(scriptsKeyConstant)
	var merge ScriptMerge
	for _, scriptName := range scriptsObject.Keys() {
		if !strings.HasPrefix(scriptName, prefix) {
			continue
		}
		existingCommand, isString := scriptsObject.String(scriptName)
		canonicalCommand, isCanonical := canonicalCommands[scriptName]
		if isCanonical && isString && existingCommand == canonicalCommand {
			continue
		}
		scriptsObject.Delete(scriptName)
		merge.Removed = append(merge.Removed, scriptName)
	}

	for _, canonicalScript := range canonicalScripts {
		if existingCommand, isString := scriptsObject.String(canonicalScript.Name); isString && existingCommand == canonicalScript.Command {
			continue
		}
		scriptsObject.Set(canonicalScript.Name, canonicalScript.Command)
		merge.Added = append(merge.Added, canonicalScript.Name)
	}

	scriptsObject.MoveToFront(func(scriptName string) bool {
		return strings.HasPrefix(scriptName, prefix)
	})
	return merge
}

// RemoveScripts deletes the named scripts and returns the names that were present.
func (manifest *Manifest) RemoveScripts(scriptNames ...string) []string {
	scriptsObject, present := manifest.document.Object(scriptsKeyConstant)
	if !present {
		return nil
	}
	var removedNames []string
	for _, scriptName := range scriptNames {
		if scriptsObject.Delete(scriptName) {
			removedNames = append(removedNames, scriptName)
		}
	}
	return removedNames
}

// RemoveScriptsMatching deletes every script whose name matches pattern and returns the removed names.
func (manifest *Manifest) RemoveScriptsMatching(pattern *regexp.Regexp) []string {
	var matchingNames []string
	for _, scriptName := range manifest.ScriptNames() {
		if pattern.MatchString(scriptName) {
			matchingNames = append(matchingNames, scriptName)
		}
	}
	return manifest.RemoveScripts(matchingNames...)
}

// HasDevDependency reports whether a non-empty devDependencies entry exists for name.
func (manifest *Manifest) HasDevDependency(dependencyName string) bool {
	devDependencies, present := manifest.document.Object(devDependenciesKeyConstant)
	if !present {
		return false
	}
	value, found := devDependencies.Get(dependencyName)
	if !found || value == nil {
		return false
	}
	if versionRange, isString := value.(string); isString {
		return len(versionRange) > 0
	}
	return true
}

// EnsureDevDependency adds the dependency when missing and reports whether it was added.
func (manifest *Manifest) EnsureDevDependency(dependencyName string, versionRange string) bool {
	if manifest.HasDevDependency(dependencyName) {
		return false
	}
	manifest.document.EnsureObject(devDependenciesKeyConstant).Set(dependencyName, versionRange)
	return true
}

// ReorderSections keeps every other key first in its original order, followed by
// scripts, dependencies and devDependencies.
func (manifest *Manifest) ReorderSections() {
	manifest.document.MoveToBack(scriptsKeyConstant, dependenciesKeyConstant, devDependenciesKeyConstant)
}

// Keys returns the top-level keys in document order.
func (manifest *Manifest) Keys() []string {
	return manifest.document.Keys()
}
