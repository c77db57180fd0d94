package checks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mlefree/mle-best-practices/internal/gitrepo"
	"github.com/mlefree/mle-best-practices/internal/registry"
	pathutils "github.com/mlefree/mle-best-practices/internal/utils/path"
)

const (
	// ProjectsFoldersEnvironmentVariable lists the roots searched for projects.
	ProjectsFoldersEnvironmentVariable = "PROJECTS_FOLDERS"

	defaultTemplatesDirectoryConstant = "."
	defaultRegistryTimeoutConstant    = 10 * time.Second

	missingProjectFoldersMessageConstant       = "PROJECTS_FOLDERS is not configured"
	missingProjectFoldersGuidanceLine1Constant = "Please add PROJECTS_FOLDERS to your .env file with comma-separated paths to search"
	missingProjectFoldersGuidanceLine2Constant = "Example: PROJECTS_FOLDERS=/path/to/projects1,/path/to/projects2"
	guidanceSeparatorConstant                  = "\n"
	missingProjectFoldersErrorTemplateConstant = "%w\n%s"
)

// ErrMissingProjectFolders indicates that no project root was configured.
var ErrMissingProjectFolders = errors.New(missingProjectFoldersMessageConstant)

// DefaultStyleDevDependencies are the linting and formatting packages required by the style check.
var DefaultStyleDevDependencies = []string{
	"eslint",
	"eslint-config-prettier",
	"eslint-plugin-import",
	"eslint-plugin-prettier",
	"prettier",
	"@typescript-eslint/eslint-plugin",
	"@typescript-eslint/parser",
}

// Configuration captures the settings shared by every check command.
type Configuration struct {
	Projects  ProjectsConfiguration  `mapstructure:"projects"`
	Templates TemplatesConfiguration `mapstructure:"templates"`
	Reports   ReportsConfiguration   `mapstructure:"reports"`
	Registry  RegistryConfiguration  `mapstructure:"registry"`
	Style     StyleConfiguration     `mapstructure:"style"`
	Git       GitConfiguration       `mapstructure:"git"`
}

// ProjectsConfiguration lists the roots searched for projects.
type ProjectsConfiguration struct {
	Folders []string `mapstructure:"folders"`
}

// TemplatesConfiguration locates the canonical artifacts.
type TemplatesConfiguration struct {
	Directory string `mapstructure:"directory"`
}

// ReportsConfiguration controls where reports are written.
type ReportsConfiguration struct {
	Directory string `mapstructure:"directory"`
	HTML      bool   `mapstructure:"html"`
}

// RegistryConfiguration configures the package registry client.
type RegistryConfiguration struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StyleConfiguration lists the dev dependencies enforced by the style check.
type StyleConfiguration struct {
	DevDependencies []string `mapstructure:"dev_dependencies"`
}

// GitConfiguration selects the branch lister used for project classification.
type GitConfiguration struct {
	BranchLister string `mapstructure:"branch_lister"`
}

// DefaultConfigurationValues returns the viper defaults keyed by their dotted path.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		"templates.directory":    defaultTemplatesDirectoryConstant,
		"reports.html":           false,
		"registry.base_url":      registry.DefaultBaseURL,
		"registry.timeout":       defaultRegistryTimeoutConstant,
		"style.dev_dependencies": DefaultStyleDevDependencies,
		"git.branch_lister":      gitrepo.ListerCommandLine,
	}
}

// Sanitize trims values, splits comma-separated folder lists, expands ~ and applies defaults.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitizer := pathutils.NewRootPathSanitizer()

	sanitized.Projects.Folders = sanitizer.Sanitize(pathutils.SplitList(configuration.Projects.Folders))

	sanitized.Templates.Directory = sanitizer.Expand(strings.TrimSpace(configuration.Templates.Directory))
	if len(sanitized.Templates.Directory) == 0 {
		sanitized.Templates.Directory = defaultTemplatesDirectoryConstant
	}

	// An empty report directory places reports next to the templates.
	sanitized.Reports.Directory = sanitizer.Expand(strings.TrimSpace(configuration.Reports.Directory))
	if len(sanitized.Reports.Directory) == 0 {
		sanitized.Reports.Directory = sanitized.Templates.Directory
	}

	sanitized.Registry.BaseURL = strings.TrimSpace(configuration.Registry.BaseURL)
	if len(sanitized.Registry.BaseURL) == 0 {
		sanitized.Registry.BaseURL = registry.DefaultBaseURL
	}
	if configuration.Registry.Timeout < 0 {
		sanitized.Registry.Timeout = 0
	}

	var dependencies []string
	for _, dependency := range pathutils.SplitList(configuration.Style.DevDependencies) {
		if trimmedDependency := strings.TrimSpace(dependency); len(trimmedDependency) > 0 {
			dependencies = append(dependencies, trimmedDependency)
		}
	}
	if len(dependencies) == 0 {
		dependencies = append([]string{}, DefaultStyleDevDependencies...)
	}
	sanitized.Style.DevDependencies = dependencies

	sanitized.Git.BranchLister = strings.TrimSpace(configuration.Git.BranchLister)
	return sanitized
}

// Validate reports ErrMissingProjectFolders, with remediation guidance, when no root is configured.
func (configuration Configuration) Validate() error {
	if len(configuration.Projects.Folders) == 0 {
		return fmt.Errorf(missingProjectFoldersErrorTemplateConstant, ErrMissingProjectFolders, MissingProjectFoldersGuidance())
	}
	return nil
}

// MissingProjectFoldersGuidance explains how to configure the project roots.
func MissingProjectFoldersGuidance() string {
	return strings.Join([]string{missingProjectFoldersGuidanceLine1Constant, missingProjectFoldersGuidanceLine2Constant}, guidanceSeparatorConstant)
}
