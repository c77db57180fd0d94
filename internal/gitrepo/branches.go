package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/afero"

	"github.com/mlefree/mle-best-practices/internal/execshell"
)

const (
	// MetadataDirectoryName marks a directory under version control.
	MetadataDirectoryName = ".git"

	// ListerCommandLine selects the git executable lister.
	ListerCommandLine = "git"
	// ListerInProcess selects the go-git lister.
	ListerInProcess = "go-git"

	branchSubcommandConstant             = "branch"
	allBranchesFlagConstant              = "-a"
	branchOutputLineSeparatorConstant    = "\n"
	remoteBranchPrefixConstant           = "remotes/"
	executorNotConfiguredMessageConstant = "branch lister requires a shell executor"
	unknownListerTemplateConstant        = "unknown branch lister %q"
	listBranchesErrorTemplateConstant    = "failed to list branches in %s: %w"
	openRepositoryErrorTemplateConstant  = "failed to open repository %s: %w"
)

var (
	currentBranchMarkerPattern = regexp.MustCompile(`^\*\s+`)

	// ErrExecutorNotConfigured indicates a command-line lister built without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// BranchLister lists local and remote branches of a repository.
type BranchLister interface {
	ListBranches(executionContext context.Context, repositoryPath string) ([]string, error)
}

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandLineBranchLister runs `git branch -a` in the repository.
type CommandLineBranchLister struct {
	executor GitExecutor
}

// NewCommandLineBranchLister constructs a lister backed by executor.
func NewCommandLineBranchLister(executor GitExecutor) (*CommandLineBranchLister, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &CommandLineBranchLister{executor: executor}, nil
}

// ListBranches returns the trimmed branch lines without the current-branch marker.
func (lister *CommandLineBranchLister) ListBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	executionResult, executionError := lister.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{branchSubcommandConstant, allBranchesFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, repositoryPath, executionError)
	}
	return ParseBranchListing(executionResult.StandardOutput), nil
}

// ParseBranchListing converts `git branch -a` output into branch lines.
func ParseBranchListing(output string) []string {
	var branchLines []string
	for _, line := range strings.Split(output, branchOutputLineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		branchLines = append(branchLines, currentBranchMarkerPattern.ReplaceAllString(trimmedLine, ""))
	}
	return branchLines
}

// InProcessBranchLister reads branch references with go-git.
type InProcessBranchLister struct{}

// NewInProcessBranchLister constructs a go-git backed lister.
func NewInProcessBranchLister() *InProcessBranchLister {
	return &InProcessBranchLister{}
}

// ListBranches returns local branches as `name` and remote branches as `remotes/<remote>/<name>`.
func (lister *InProcessBranchLister) ListBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, openError)
	}
	references, referencesError := repository.References()
	if referencesError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, repositoryPath, referencesError)
	}
	defer references.Close()

	var branchLines []string
	iterationError := references.ForEach(func(reference *plumbing.Reference) error {
		referenceName := reference.Name()
		switch {
		case referenceName.IsBranch():
			branchLines = append(branchLines, referenceName.Short())
		case referenceName.IsRemote():
			branchLines = append(branchLines, remoteBranchPrefixConstant+referenceName.Short())
		}
		return nil
	})
	if iterationError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, repositoryPath, iterationError)
	}
	return branchLines, nil
}

// NewBranchLister returns the lister registered under listerName.
func NewBranchLister(listerName string, executor GitExecutor) (BranchLister, error) {
	switch strings.TrimSpace(listerName) {
	case "", ListerCommandLine:
		commandLineLister, creationError := NewCommandLineBranchLister(executor)
		if creationError != nil {
			return nil, creationError
		}
		return commandLineLister, nil
	case ListerInProcess:
		return NewInProcessBranchLister(), nil
	default:
		return nil, fmt.Errorf(unknownListerTemplateConstant, listerName)
	}
}

// HasMetadata reports whether projectPath contains a .git entry.
func HasMetadata(fileSystem afero.Fs, projectPath string) bool {
	_, statError := fileSystem.Stat(filepath.Join(projectPath, MetadataDirectoryName))
	return statError == nil
}
