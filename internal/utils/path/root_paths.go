package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	listSeparatorConstant           = ","
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RootPathSanitizer normalizes configured search roots: it trims whitespace, expands "~",
// cleans the path and drops empty or repeated entries.
type RootPathSanitizer struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewRootPathSanitizer constructs a sanitizer using the operating system home lookup.
func NewRootPathSanitizer() *RootPathSanitizer {
	return NewRootPathSanitizerWithProvider(os.UserHomeDir)
}

// NewRootPathSanitizerWithProvider constructs a sanitizer with a custom home provider.
func NewRootPathSanitizerWithProvider(provider HomeDirectoryProvider) *RootPathSanitizer {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &RootPathSanitizer{homeDirectoryProvider: provider}
}

// SplitList splits comma-separated path lists. Entries that already hold a single path are kept as is.
func SplitList(candidates []string) []string {
	splitCandidates := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		splitCandidates = append(splitCandidates, strings.Split(candidate, listSeparatorConstant)...)
	}
	return splitCandidates
}

// Sanitize normalizes the candidate roots preserving their order.
func (sanitizer *RootPathSanitizer) Sanitize(candidatePaths []string) []string {
	seenPaths := make(map[string]struct{}, len(candidatePaths))
	sanitizedPaths := make([]string, 0, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		trimmedCandidate := strings.TrimSpace(candidatePath)
		if len(trimmedCandidate) == 0 {
			continue
		}
		cleanedPath := filepath.Clean(sanitizer.Expand(trimmedCandidate))
		if _, alreadySeen := seenPaths[cleanedPath]; alreadySeen {
			continue
		}
		seenPaths[cleanedPath] = struct{}{}
		sanitizedPaths = append(sanitizedPaths, cleanedPath)
	}
	if len(sanitizedPaths) == 0 {
		return nil
	}
	return sanitizedPaths
}

// Expand resolves a leading tilde to the user's home directory.
func (sanitizer *RootPathSanitizer) Expand(candidatePath string) string {
	if sanitizer == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	resolvedHomeDirectory := sanitizer.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == tildeSymbolConstant {
		return resolvedHomeDirectory
	}

	tildeWithPathSeparatorPrefix := tildeSymbolConstant + string(os.PathSeparator)
	for _, prefix := range []string{tildeForwardSlashPrefixConstant, tildeWithPathSeparatorPrefix} {
		if strings.HasPrefix(candidatePath, prefix) {
			return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(candidatePath, prefix))
		}
	}

	return candidatePath
}

func (sanitizer *RootPathSanitizer) resolveHomeDirectory() string {
	sanitizer.initializationGuard.Do(func() {
		sanitizer.homeDirectory, sanitizer.homeDirectoryError = sanitizer.homeDirectoryProvider()
	})
	if sanitizer.homeDirectoryError != nil {
		return ""
	}
	return sanitizer.homeDirectory
}
