// Package filesync writes canonical file content into project directories when it differs.
package filesync

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	directoryPermissionsConstant         = 0o755
	filePermissionsConstant              = 0o644
	createDirectoryErrorTemplateConstant = "failed to create directory %s: %w"
	writeFileErrorTemplateConstant       = "failed to write %s: %w"
)

// File is a named piece of canonical content.
type File struct {
	Name    string
	Content []byte
}

// CopyIfDifferent writes content to destinationDirectory/fileName when the file is absent or its bytes differ.
// The destination directory is created when missing. The result reports whether a write happened.
func CopyIfDifferent(fileSystem afero.Fs, content []byte, destinationDirectory string, fileName string) (bool, error) {
	if mkdirError := fileSystem.MkdirAll(destinationDirectory, directoryPermissionsConstant); mkdirError != nil {
		return false, fmt.Errorf(createDirectoryErrorTemplateConstant, destinationDirectory, mkdirError)
	}

	destinationPath := filepath.Join(destinationDirectory, fileName)
	existingContent, readError := afero.ReadFile(fileSystem, destinationPath)
	if readError == nil && bytes.Equal(existingContent, content) {
		return false, nil
	}

	if writeError := afero.WriteFile(fileSystem, destinationPath, content, filePermissionsConstant); writeError != nil {
		return false, fmt.Errorf(writeFileErrorTemplateConstant, destinationPath, writeError)
	}
	return true, nil
}

// CopyFiles applies CopyIfDifferent to every file and returns how many were written.
// Individual failures do not stop the remaining copies and are returned joined.
func CopyFiles(fileSystem afero.Fs, files []File, destinationDirectory string) (int, error) {
	copiedCount := 0
	var copyErrors []error
	for _, file := range files {
		copied, copyError := CopyIfDifferent(fileSystem, file.Content, destinationDirectory, file.Name)
		if copyError != nil {
			copyErrors = append(copyErrors, copyError)
			continue
		}
		if copied {
			copiedCount++
		}
	}
	return copiedCount, errors.Join(copyErrors...)
}
