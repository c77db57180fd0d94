package checks

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/discovery"
	"github.com/mlefree/mle-best-practices/internal/execshell"
	"github.com/mlefree/mle-best-practices/internal/gitrepo"
	"github.com/mlefree/mle-best-practices/internal/registry"
	"github.com/mlefree/mle-best-practices/internal/report"
	"github.com/mlefree/mle-best-practices/internal/shared"
	"github.com/mlefree/mle-best-practices/internal/status"
	"github.com/mlefree/mle-best-practices/internal/templates"
	"github.com/mlefree/mle-best-practices/internal/ui"
	"github.com/mlefree/mle-best-practices/internal/version"
)

// Environment bundles the collaborators handed to every check.
type Environment struct {
	Configuration   Configuration
	FileSystem      afero.Fs
	Catalog         *templates.Catalog
	Store           *status.Store
	Discoverer      *discovery.FilesystemProjectDiscoverer
	ReportWriter    *report.Writer
	Resolver        registry.LatestVersionResolver
	BranchLister    gitrepo.BranchLister
	CommandExecutor *execshell.ShellExecutor
	Clock           shared.Clock
	Logger          *zap.Logger
}

// EnvironmentFactory assembles an Environment on demand, so long-running commands observe template changes.
type EnvironmentFactory func() (Environment, error)

// EnvironmentOptions overrides the default collaborators, mostly for tests.
type EnvironmentOptions struct {
	FileSystem           afero.Fs
	Clock                shared.Clock
	HTTPClient           registry.HTTPClient
	CommandRunner        execshell.CommandRunner
	Resolver             registry.LatestVersionResolver
	BranchLister         gitrepo.BranchLister
	HumanReadableLogging bool
}

// NewEnvironment validates the configuration and assembles the collaborators.
func NewEnvironment(configuration Configuration, logger *zap.Logger, options EnvironmentOptions) (Environment, error) {
	sanitizedConfiguration := configuration.Sanitize()
	if validationError := sanitizedConfiguration.Validate(); validationError != nil {
		return Environment{}, validationError
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := options.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	clock := options.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}

	catalog := templates.NewCatalog(fileSystem, sanitizedConfiguration.Templates.Directory)
	toolVersion := catalog.ToolVersion(version.Version)

	resolver := options.Resolver
	if resolver == nil {
		registryClient := registry.NewNPMRegistryClient(options.HTTPClient, sanitizedConfiguration.Registry.BaseURL, sanitizedConfiguration.Registry.Timeout, logger)
		resolver = registry.NewCachingResolver(registryClient)
	}

	commandRunner := options.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	var executorOptions []execshell.ShellExecutorOption
	if options.HumanReadableLogging {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, executorOptions...)
	if executorError != nil {
		return Environment{}, executorError
	}

	branchLister := options.BranchLister
	if branchLister == nil {
		createdLister, listerError := gitrepo.NewBranchLister(sanitizedConfiguration.Git.BranchLister, shellExecutor)
		if listerError != nil {
			return Environment{}, listerError
		}
		branchLister = createdLister
	}

	return Environment{
		Configuration:   sanitizedConfiguration,
		FileSystem:      fileSystem,
		Catalog:         catalog,
		Store:           status.NewStore(fileSystem, clock, logger, toolVersion),
		Discoverer:      discovery.NewFilesystemProjectDiscoverer(fileSystem, logger),
		ReportWriter:    report.NewWriter(fileSystem, logger, report.WithHTMLOutput(sanitizedConfiguration.Reports.HTML)),
		Resolver:        resolver,
		BranchLister:    branchLister,
		CommandExecutor: shellExecutor,
		Clock:           clock,
		Logger:          logger,
	}, nil
}
