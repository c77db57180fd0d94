// Package registry resolves the latest published versions of npm packages.
package registry
