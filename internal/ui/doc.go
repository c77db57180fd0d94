// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate command and project-check events into concise messages
// while detailed telemetry continues to flow through structured loggers.
package ui
