// Package templates loads the canonical artifacts that the checks synchronize into projects.
package templates
