package status

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/jsondoc"
	"github.com/mlefree/mle-best-practices/internal/shared"
)

const (
	statusFilePermissionsConstant   = 0o644
	readFailureMessageConstant      = "unable to read status file"
	parseFailureMessageConstant     = "unable to parse status file"
	statusWrittenMessageConstant    = "status file updated"
	typeWrittenMessageConstant      = "project type recorded"
	encodeErrorTemplateConstant     = "failed to encode status file %s: %w"
	writeErrorTemplateConstant      = "failed to write status file %s: %w"
	statusPathLogFieldConstant      = "status_path"
	checkIdentifierLogFieldConstant = "check_id"
	toolVersionLogFieldConstant     = "version"
	timestampLogFieldConstant       = "timestamp"
	projectTypeLogFieldConstant     = "project_type"
)

// Store reads and writes project status files.
type Store struct {
	fileSystem  afero.Fs
	clock       shared.Clock
	logger      *zap.Logger
	toolVersion string
}

// NewStore constructs a Store. Nil collaborators fall back to the OS filesystem, the system clock and a no-op logger.
func NewStore(fileSystem afero.Fs, clock shared.Clock, logger *zap.Logger, toolVersion string) *Store {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fileSystem: fileSystem, clock: clock, logger: logger, toolVersion: toolVersion}
}

// ToolVersion returns the version stamped into status files.
func (store *Store) ToolVersion() string {
	return store.toolVersion
}

// Read returns the record stored at path. Missing or malformed files yield an empty record.
func (store *Store) Read(statusPath string) Record {
	return decodeRecord(store.readDocument(statusPath))
}

// Write stamps the tool version and the current local time for the check identifier.
func (store *Store) Write(statusPath string, checkIdentifier string) error {
	document := store.readDocument(statusPath)
	timestamp := store.clock.Now().Format(TimestampLayout)

	document.Set(versionKeyConstant, store.toolVersion)
	document.EnsureObject(statusKeyConstant).Set(checkIdentifier, timestamp)

	if writeError := store.writeDocument(statusPath, document); writeError != nil {
		return writeError
	}

	store.logger.Info(
		statusWrittenMessageConstant,
		zap.String(statusPathLogFieldConstant, statusPath),
		zap.String(checkIdentifierLogFieldConstant, checkIdentifier),
		zap.String(toolVersionLogFieldConstant, store.toolVersion),
		zap.String(timestampLogFieldConstant, timestamp),
	)
	return nil
}

// WriteType records the project type when it differs from the stored one and reports whether a write happened.
func (store *Store) WriteType(statusPath string, projectType string) (bool, error) {
	document := store.readDocument(statusPath)
	if storedType, present := document.String(typeKeyConstant); present && storedType == projectType {
		return false, nil
	}

	document.Set(typeKeyConstant, projectType)
	if writeError := store.writeDocument(statusPath, document); writeError != nil {
		return false, writeError
	}

	store.logger.Info(
		typeWrittenMessageConstant,
		zap.String(statusPathLogFieldConstant, statusPath),
		zap.String(projectTypeLogFieldConstant, projectType),
	)
	return true, nil
}

func (store *Store) readDocument(statusPath string) *jsondoc.Object {
	content, readError := afero.ReadFile(store.fileSystem, statusPath)
	if readError != nil {
		if !errors.Is(readError, fs.ErrNotExist) {
			store.logger.Warn(readFailureMessageConstant, zap.String(statusPathLogFieldConstant, statusPath), zap.Error(readError))
		}
		return jsondoc.NewObject()
	}

	document, parseError := jsondoc.Parse(content)
	if parseError != nil {
		store.logger.Warn(parseFailureMessageConstant, zap.String(statusPathLogFieldConstant, statusPath), zap.Error(parseError))
		return jsondoc.NewObject()
	}
	return document
}

func (store *Store) writeDocument(statusPath string, document *jsondoc.Object) error {
	encoded, encodeError := jsondoc.Marshal(document)
	if encodeError != nil {
		return fmt.Errorf(encodeErrorTemplateConstant, statusPath, encodeError)
	}
	if writeError := afero.WriteFile(store.fileSystem, statusPath, encoded, statusFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, statusPath, writeError)
	}
	return nil
}
