package templates

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/spf13/afero"

	"github.com/mlefree/mle-best-practices/internal/filesync"
	"github.com/mlefree/mle-best-practices/internal/manifest"
)

const (
	// GitignoreFileName is the reference ignore file name.
	GitignoreFileName = ".gitignore"
	// RulesDirectoryName holds the shared rules document inside a project.
	RulesDirectoryName = ".memory-bank"
	// RulesFileName is the shared rules document name.
	RulesFileName = "memory-bank-rules.md"
	// PrettierConfigurationFileName is the canonical formatter configuration.
	PrettierConfigurationFileName = ".prettierrc"
	// ESLintConfigurationFileName is the canonical linter configuration.
	ESLintConfigurationFileName = "eslint.config.js"
	// ScriptNamespacePrefix marks package.json scripts owned by the tool.
	ScriptNamespacePrefix = "bp:"

	// EnvironmentFileName holds optional environment defaults next to the templates.
	EnvironmentFileName = ".env"

	scriptsDirectoryNameConstant          = "scripts"
	scriptsNamespaceDirectoryNameConstant = "bp"
	scriptFileExtensionConstant           = ".js"
	lineSeparatorConstant                 = "\n"
	templateMissingMessageConstant        = "template missing"
	templateMissingTemplateConstant       = "%w: %s"
	templateReadErrorTemplateConstant     = "failed to read template %s: %w"
	frontMatterErrorTemplateConstant      = "failed to parse front matter of %s: %w"
)

// ErrTemplateMissing indicates a canonical template absent from the templates directory.
var ErrTemplateMissing = errors.New(templateMissingMessageConstant)

// ScriptsRelativeDirectory is the location of helper scripts relative to a project or the templates directory.
var ScriptsRelativeDirectory = filepath.Join(scriptsDirectoryNameConstant, scriptsNamespaceDirectoryNameConstant)

// RulesDocument is the shared rules file with its optional front matter.
type RulesDocument struct {
	Content []byte
	Version string
	Title   string
}

type rulesFrontMatter struct {
	Version string `yaml:"version" toml:"version" json:"version"`
	Title   string `yaml:"title" toml:"title" json:"title"`
}

// Catalog reads canonical artifacts from the templates directory. Loaded values are copies and never change afterwards.
type Catalog struct {
	fileSystem afero.Fs
	directory  string
}

// NewCatalog constructs a catalog rooted at directory.
func NewCatalog(fileSystem afero.Fs, directory string) *Catalog {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Catalog{fileSystem: fileSystem, directory: directory}
}

// Directory returns the templates directory.
func (catalog *Catalog) Directory() string {
	return catalog.directory
}

// LoadGitignoreReference returns the trimmed, non-blank lines of the reference .gitignore.
func (catalog *Catalog) LoadGitignoreReference() ([]string, error) {
	content, readError := catalog.readTemplate(GitignoreFileName)
	if readError != nil {
		return nil, readError
	}
	var referenceLines []string
	for _, line := range strings.Split(string(content), lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		referenceLines = append(referenceLines, trimmedLine)
	}
	return referenceLines, nil
}

// LoadRulesDocument returns the shared rules document and its front matter metadata.
func (catalog *Catalog) LoadRulesDocument() (RulesDocument, error) {
	relativePath := filepath.Join(RulesDirectoryName, RulesFileName)
	content, readError := catalog.readTemplate(relativePath)
	if readError != nil {
		return RulesDocument{}, readError
	}

	var metadata rulesFrontMatter
	if _, parseError := frontmatter.Parse(bytes.NewReader(content), &metadata); parseError != nil {
		return RulesDocument{}, fmt.Errorf(frontMatterErrorTemplateConstant, relativePath, parseError)
	}
	return RulesDocument{Content: content, Version: metadata.Version, Title: metadata.Title}, nil
}

// LoadScriptFiles returns the helper scripts sorted by file name.
func (catalog *Catalog) LoadScriptFiles() ([]filesync.File, error) {
	scriptsDirectory := filepath.Join(catalog.directory, ScriptsRelativeDirectory)
	entries, readError := afero.ReadDir(catalog.fileSystem, scriptsDirectory)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, fmt.Errorf(templateMissingTemplateConstant, ErrTemplateMissing, scriptsDirectory)
		}
		return nil, fmt.Errorf(templateReadErrorTemplateConstant, scriptsDirectory, readError)
	}

	var scriptNames []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scriptFileExtensionConstant) {
			continue
		}
		scriptNames = append(scriptNames, entry.Name())
	}
	sort.Strings(scriptNames)

	scriptFiles := make([]filesync.File, 0, len(scriptNames))
	for _, scriptName := range scriptNames {
		content, contentError := catalog.readTemplate(filepath.Join(ScriptsRelativeDirectory, scriptName))
		if contentError != nil {
			return nil, contentError
		}
		scriptFiles = append(scriptFiles, filesync.File{Name: scriptName, Content: content})
	}
	return scriptFiles, nil
}

// LoadNamespacedScripts returns the bp: scripts declared by the templates package.json in document order.
func (catalog *Catalog) LoadNamespacedScripts() ([]manifest.Script, error) {
	templatesManifest, loadError := catalog.loadManifest()
	if loadError != nil {
		return nil, loadError
	}
	return templatesManifest.NamespacedScripts(ScriptNamespacePrefix), nil
}

// LoadStyleFiles returns the formatter and linter configurations.
func (catalog *Catalog) LoadStyleFiles() ([]filesync.File, error) {
	styleFileNames := []string{PrettierConfigurationFileName, ESLintConfigurationFileName}
	styleFiles := make([]filesync.File, 0, len(styleFileNames))
	for _, styleFileName := range styleFileNames {
		content, readError := catalog.readTemplate(styleFileName)
		if readError != nil {
			return nil, readError
		}
		styleFiles = append(styleFiles, filesync.File{Name: styleFileName, Content: content})
	}
	return styleFiles, nil
}

// ToolVersion returns the templates package.json version, or fallbackVersion when it is unavailable.
func (catalog *Catalog) ToolVersion(fallbackVersion string) string {
	templatesManifest, loadError := catalog.loadManifest()
	if loadError != nil {
		return fallbackVersion
	}
	if manifestVersion, present := templatesManifest.Version(); present && len(manifestVersion) > 0 {
		return manifestVersion
	}
	return fallbackVersion
}

func (catalog *Catalog) loadManifest() (*manifest.Manifest, error) {
	templatesManifest, loadError := manifest.Load(catalog.fileSystem, catalog.directory)
	if loadError != nil {
		if errors.Is(loadError, manifest.ErrManifestNotFound) {
			return nil, fmt.Errorf(templateMissingTemplateConstant, ErrTemplateMissing, filepath.Join(catalog.directory, manifest.FileName))
		}
		return nil, loadError
	}
	return templatesManifest, nil
}

func (catalog *Catalog) readTemplate(relativePath string) ([]byte, error) {
	templatePath := filepath.Join(catalog.directory, relativePath)
	content, readError := afero.ReadFile(catalog.fileSystem, templatePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, fmt.Errorf(templateMissingTemplateConstant, ErrTemplateMissing, templatePath)
		}
		return nil, fmt.Errorf(templateReadErrorTemplateConstant, templatePath, readError)
	}
	return content, nil
}
