// Package rules copies the shared memory-bank rules document into every project.
package rules
