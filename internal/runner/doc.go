// Package runner drives a single check across every discovered project.
//
// Runner reads each project's status record, honours its exclusion rules, hands
// the project to the check, stamps the status file when the check reports a
// change and finally renders the check's markdown report. Per-project failures
// are collected rather than aborting the run.
package runner
