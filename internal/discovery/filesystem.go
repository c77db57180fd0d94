package discovery

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/status"
)

const (
	nodeModulesDirectoryNameConstant   = "node_modules"
	hiddenEntryPrefixConstant          = "."
	searchingRootMessageConstant       = "searching for projects"
	missingRootMessageConstant         = "search root does not exist"
	unreadableDirectoryMessageConstant = "unable to read directory"
	rootLogFieldConstant               = "root"
	directoryLogFieldConstant          = "directory"
	projectsFoundLogFieldConstant      = "projects_found"
	discoveryCompletedMessageConstant  = "project discovery completed"
)

// FilesystemProjectDiscoverer locates projects by walking directories for status files.
type FilesystemProjectDiscoverer struct {
	fileSystem afero.Fs
	logger     *zap.Logger
	comparator *NameComparator
}

// NewFilesystemProjectDiscoverer constructs a discoverer over the provided filesystem.
func NewFilesystemProjectDiscoverer(fileSystem afero.Fs, logger *zap.Logger) *FilesystemProjectDiscoverer {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemProjectDiscoverer{fileSystem: fileSystem, logger: logger, comparator: NewNameComparator()}
}

// DiscoverProjects walks every root below its top level and returns the projects sorted by name.
// Missing roots and unreadable directories are logged and skipped.
func (discoverer *FilesystemProjectDiscoverer) DiscoverProjects(roots []string) ([]Project, error) {
	seenPaths := make(map[string]struct{})
	var projects []Project

	for _, root := range roots {
		rootInfo, statError := discoverer.fileSystem.Stat(root)
		if statError != nil || !rootInfo.IsDir() {
			discoverer.logger.Warn(missingRootMessageConstant, zap.String(rootLogFieldConstant, root))
			continue
		}
		discoverer.logger.Debug(searchingRootMessageConstant, zap.String(rootLogFieldConstant, root))

		for _, projectPath := range discoverer.collectProjectPaths(root) {
			if _, alreadySeen := seenPaths[projectPath]; alreadySeen {
				continue
			}
			seenPaths[projectPath] = struct{}{}
			projects = append(projects, NewProject(projectPath))
		}
	}

	slices.SortStableFunc(projects, discoverer.comparator.CompareProjects)
	discoverer.logger.Info(discoveryCompletedMessageConstant, zap.Int(projectsFoundLogFieldConstant, len(projects)))
	return projects, nil
}

func (discoverer *FilesystemProjectDiscoverer) collectProjectPaths(directory string) []string {
	entries, readError := afero.ReadDir(discoverer.fileSystem, directory)
	if readError != nil {
		discoverer.logger.Warn(unreadableDirectoryMessageConstant, zap.String(directoryLogFieldConstant, directory), zap.Error(readError))
		return nil
	}

	var projectPaths []string
	for _, entry := range entries {
		if !entry.IsDir() || isSkippedDirectory(entry.Name()) {
			continue
		}
		childPath := filepath.Join(directory, entry.Name())
		if discoverer.containsStatusFile(childPath) {
			projectPaths = append(projectPaths, childPath)
		}
		projectPaths = append(projectPaths, discoverer.collectProjectPaths(childPath)...)
	}
	return projectPaths
}

func (discoverer *FilesystemProjectDiscoverer) containsStatusFile(directory string) bool {
	_, statError := discoverer.fileSystem.Stat(filepath.Join(directory, status.FileName))
	return statError == nil
}

func isSkippedDirectory(directoryName string) bool {
	return directoryName == nodeModulesDirectoryNameConstant || strings.HasPrefix(directoryName, hiddenEntryPrefixConstant)
}
