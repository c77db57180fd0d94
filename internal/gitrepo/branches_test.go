package gitrepo_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/mlefree/mle-best-practices/internal/execshell"
	"github.com/mlefree/mle-best-practices/internal/gitrepo"
)

const (
	testRepositoryPathConstant   = "/projects/demo"
	testCaseNameTemplateConstant = "%d_%s"
)

type stubGitExecutor struct {
	output          string
	executionError  error
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executionError != nil {
		return execshell.ExecutionResult{}, executor.executionError
	}
	return execshell.ExecutionResult{StandardOutput: executor.output}, nil
}

func TestParseBranchListing(testInstance *testing.T) {
	testCases := []struct {
		name     string
		output   string
		expected []string
	}{
		{
			name:     "current_branch_marker",
			output:   "* main\n  sandbox\n  remotes/origin/HEAD -> origin/main\n  remotes/origin/package\n",
			expected: []string{"main", "sandbox", "remotes/origin/HEAD -> origin/main", "remotes/origin/package"},
		},
		{
			name:   "empty_output",
			output: "\n\n",
		},
		{
			name:     "marker_with_tabs",
			output:   "*\tdevelop",
			expected: []string{"develop"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, gitrepo.ParseBranchListing(testCase.output))
		})
	}
}

func TestCommandLineBranchLister(testInstance *testing.T) {
	executor := &stubGitExecutor{output: "* main\n  remotes/origin/sandbox\n"}
	lister, creationError := gitrepo.NewCommandLineBranchLister(executor)
	require.NoError(testInstance, creationError)

	branchLines, listError := lister.ListBranches(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{"main", "remotes/origin/sandbox"}, branchLines)
	require.Len(testInstance, executor.recordedDetails, 1)
	require.Equal(testInstance, []string{"branch", "-a"}, executor.recordedDetails[0].Arguments)
	require.Equal(testInstance, testRepositoryPathConstant, executor.recordedDetails[0].WorkingDirectory)

	failure := errors.New("not a git repository")
	failingLister, _ := gitrepo.NewCommandLineBranchLister(&stubGitExecutor{executionError: failure})
	_, failingError := failingLister.ListBranches(context.Background(), testRepositoryPathConstant)
	require.ErrorIs(testInstance, failingError, failure)

	_, nilExecutorError := gitrepo.NewCommandLineBranchLister(nil)
	require.ErrorIs(testInstance, nilExecutorError, gitrepo.ErrExecutorNotConfigured)
}

func TestInProcessBranchLister(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	repository, initError := git.PlainInit(repositoryPath, false)
	require.NoError(testInstance, initError)

	worktree, worktreeError := repository.Worktree()
	require.NoError(testInstance, worktreeError)
	commitHash, commitError := worktree.Commit("initial", &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(testInstance, commitError)

	require.NoError(testInstance, repository.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("sandbox"), commitHash)))
	require.NoError(testInstance, repository.Storer.SetReference(plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "package"), commitHash)))

	headReference, headError := repository.Head()
	require.NoError(testInstance, headError)

	branchLines, listError := gitrepo.NewInProcessBranchLister().ListBranches(context.Background(), repositoryPath)
	require.NoError(testInstance, listError)
	require.ElementsMatch(testInstance, []string{headReference.Name().Short(), "sandbox", "remotes/origin/package"}, branchLines)

	_, missingError := gitrepo.NewInProcessBranchLister().ListBranches(context.Background(), filepath.Join(repositoryPath, "missing"))
	require.Error(testInstance, missingError)
}

func TestNewBranchLister(testInstance *testing.T) {
	commandLineLister, commandLineError := gitrepo.NewBranchLister(gitrepo.ListerCommandLine, &stubGitExecutor{})
	require.NoError(testInstance, commandLineError)
	require.IsType(testInstance, &gitrepo.CommandLineBranchLister{}, commandLineLister)

	inProcessLister, inProcessError := gitrepo.NewBranchLister(gitrepo.ListerInProcess, nil)
	require.NoError(testInstance, inProcessError)
	require.IsType(testInstance, &gitrepo.InProcessBranchLister{}, inProcessLister)

	_, unknownError := gitrepo.NewBranchLister("svn", nil)
	require.Error(testInstance, unknownError)
}

func TestHasMetadata(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Join(testRepositoryPathConstant, ".git"), 0o755))
	require.True(testInstance, gitrepo.HasMetadata(fileSystem, testRepositoryPathConstant))
	require.False(testInstance, gitrepo.HasMetadata(fileSystem, "/projects/other"))
}
