package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"

	gitBranchSubcommandNameConstant = "branch"
	npmRunSubcommandNameConstant    = "run"

	gitBranchListingStartTemplateConstant   = "Listing branches in %s"
	gitBranchListingSuccessTemplateConstant = "Listed branches in %s"
	gitBranchListingFailureTemplateConstant = "Failed to list branches in %s (exit code %d%s)"
	npmScriptStartTemplateConstant          = "Running npm script %s in %s"
	npmScriptSuccessTemplateConstant        = "npm script %s succeeded in %s"
	npmScriptFailureTemplateConstant        = "npm script %s failed in %s (exit code %d%s)"
	currentDirectoryLabelConstant           = "current directory"
)

// CommandMessageFormatter turns command lifecycle events into human-readable sentences.
// Known git and npm invocations get dedicated wording; anything else uses the generic templates.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	switch {
	case isBranchListing(command):
		return fmt.Sprintf(gitBranchListingStartTemplateConstant, directoryLabel(command))
	case isNpmScript(command):
		return fmt.Sprintf(npmScriptStartTemplateConstant, npmScriptName(command), directoryLabel(command))
	default:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabelWithDirectory(command))
	}
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	switch {
	case isBranchListing(command):
		return fmt.Sprintf(gitBranchListingSuccessTemplateConstant, directoryLabel(command))
	case isNpmScript(command):
		return fmt.Sprintf(npmScriptSuccessTemplateConstant, npmScriptName(command), directoryLabel(command))
	default:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabelWithDirectory(command))
	}
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	standardErrorSuffix := formatStandardErrorSuffix(result.StandardError)
	switch {
	case isBranchListing(command):
		return fmt.Sprintf(gitBranchListingFailureTemplateConstant, directoryLabel(command), result.ExitCode, standardErrorSuffix)
	case isNpmScript(command):
		return fmt.Sprintf(npmScriptFailureTemplateConstant, npmScriptName(command), directoryLabel(command), result.ExitCode, standardErrorSuffix)
	default:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabelWithDirectory(command), result.ExitCode, standardErrorSuffix)
	}
}

// BuildExecutionFailureMessage describes a command that could not run at all.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabelWithDirectory(command), failureMessage)
}

func isBranchListing(command ShellCommand) bool {
	return command.Name == CommandGit && len(command.Details.Arguments) > 0 && command.Details.Arguments[0] == gitBranchSubcommandNameConstant
}

func isNpmScript(command ShellCommand) bool {
	return command.Name == CommandNpm && len(command.Details.Arguments) > 1 && command.Details.Arguments[0] == npmRunSubcommandNameConstant
}

func npmScriptName(command ShellCommand) string {
	return command.Details.Arguments[1]
}

func directoryLabel(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return currentDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func commandLabelWithDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return command.Label()
	}
	return command.Label() + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}
