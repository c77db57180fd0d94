// Package checks holds the configuration, shared collaborators and execution
// helper used by every synchronization check. Each check lives in its own
// subpackage and exposes an Executable that the command suite registers.
package checks
