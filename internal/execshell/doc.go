// Package execshell runs external tools such as git and npm with structured logging.
//
// ShellExecutor validates each result, turns non-zero exit codes into
// CommandFailedError values and notifies an optional CommandEventObserver.
// OSCommandRunner is the default os/exec backed CommandRunner.
package execshell
