// Package watch re-runs a workflow whenever the canonical templates change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mlefree/mle-best-practices/internal/status"
	"github.com/mlefree/mle-best-practices/internal/templates"
)

const (
	// DefaultDebounce is the quiet period awaited after the last change before a run starts.
	DefaultDebounce = 500 * time.Millisecond

	hiddenNamePrefixConstant        = "."
	triggerMissingMessageConstant   = "watcher requires a trigger"
	directoryMissingMessageConstant = "watcher requires a directory"
	watchStartedMessageConstant     = "watching templates for changes"
	watchStoppedMessageConstant     = "watcher stopped"
	changeDetectedMessageConstant   = "template change detected"
	watchAddFailedMessageConstant   = "failed to watch directory"
	watcherErrorMessageConstant     = "file watcher error"
	runFailedMessageConstant        = "triggered run failed"
	directoryLogFieldConstant       = "directory"
	pathLogFieldConstant            = "path"
	operationLogFieldConstant       = "operation"
)

var (
	// ErrTriggerNotConfigured indicates a watcher built without a trigger.
	ErrTriggerNotConfigured = errors.New(triggerMissingMessageConstant)
	// ErrDirectoryNotConfigured indicates a watcher built without a directory.
	ErrDirectoryNotConfigured = errors.New(directoryMissingMessageConstant)

	generatedFilePatterns = []string{"*.gitignored.md", "*.gitignored.html", status.FileName}
)

// Trigger is invoked after a debounced batch of changes.
type Trigger func(executionContext context.Context) error

// Options configures a Watcher.
type Options struct {
	Directory  string
	Debounce   time.Duration
	RunOnStart bool
}

// Watcher observes a directory tree and serializes trigger runs. Changes arriving while a run is
// in progress schedule exactly one follow-up run.
type Watcher struct {
	options Options
	trigger Trigger
	logger  *zap.Logger
}

// NewWatcher constructs a Watcher. A non-positive debounce falls back to DefaultDebounce.
func NewWatcher(options Options, trigger Trigger, logger *zap.Logger) (*Watcher, error) {
	if trigger == nil {
		return nil, ErrTriggerNotConfigured
	}
	if len(strings.TrimSpace(options.Directory)) == 0 {
		return nil, ErrDirectoryNotConfigured
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{options: options, trigger: trigger, logger: logger}, nil
}

// Run watches until the context is cancelled. Trigger failures are logged and do not stop the watcher.
func (watcher *Watcher) Run(executionContext context.Context) error {
	fileWatcher, creationError := fsnotify.NewWatcher()
	if creationError != nil {
		return creationError
	}
	defer fileWatcher.Close()

	if addError := watcher.addTree(fileWatcher, watcher.options.Directory); addError != nil {
		return addError
	}
	watcher.logger.Info(watchStartedMessageConstant, zap.String(directoryLogFieldConstant, watcher.options.Directory))

	runRequests := make(chan struct{}, 1)
	runnerDone := make(chan struct{})
	go watcher.serveRuns(executionContext, runRequests, runnerDone)
	defer func() {
		close(runRequests)
		<-runnerDone
	}()
	if watcher.options.RunOnStart {
		requestRun(runRequests)
	}

	debounceTimer := time.NewTimer(watcher.options.Debounce)
	stopTimer(debounceTimer)
	for {
		select {
		case <-executionContext.Done():
			stopTimer(debounceTimer)
			watcher.logger.Info(watchStoppedMessageConstant)
			return nil
		case event, open := <-fileWatcher.Events:
			if !open {
				return nil
			}
			if !watcher.handleEvent(fileWatcher, event) {
				continue
			}
			stopTimer(debounceTimer)
			debounceTimer.Reset(watcher.options.Debounce)
		case watchError, open := <-fileWatcher.Errors:
			if !open {
				return nil
			}
			watcher.logger.Warn(watcherErrorMessageConstant, zap.Error(watchError))
		case <-debounceTimer.C:
			requestRun(runRequests)
		}
	}
}

func (watcher *Watcher) serveRuns(executionContext context.Context, runRequests <-chan struct{}, runnerDone chan<- struct{}) {
	defer close(runnerDone)
	for range runRequests {
		if executionContext.Err() != nil {
			continue
		}
		if runError := watcher.trigger(executionContext); runError != nil {
			watcher.logger.Error(runFailedMessageConstant, zap.Error(runError))
		}
	}
}

func (watcher *Watcher) handleEvent(fileWatcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, statError := os.Stat(event.Name); statError == nil && info.IsDir() {
			if addError := watcher.addTree(fileWatcher, event.Name); addError != nil {
				watcher.logger.Warn(watchAddFailedMessageConstant, zap.String(directoryLogFieldConstant, event.Name), zap.Error(addError))
			}
			return ShouldWatchDirectory(filepath.Base(event.Name))
		}
	}
	if event.Op == fsnotify.Chmod || IsGeneratedFile(event.Name) {
		return false
	}
	watcher.logger.Debug(changeDetectedMessageConstant, zap.String(pathLogFieldConstant, event.Name), zap.String(operationLogFieldConstant, event.Op.String()))
	return true
}

func (watcher *Watcher) addTree(fileWatcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(currentPath string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !entry.IsDir() {
			return nil
		}
		if currentPath != root && !ShouldWatchDirectory(entry.Name()) {
			return filepath.SkipDir
		}
		if addError := fileWatcher.Add(currentPath); addError != nil {
			watcher.logger.Warn(watchAddFailedMessageConstant, zap.String(directoryLogFieldConstant, currentPath), zap.Error(addError))
		}
		return nil
	})
}

// ShouldWatchDirectory reports whether a directory is part of the watched tree.
// Hidden directories are skipped except the rules directory.
func ShouldWatchDirectory(directoryName string) bool {
	if directoryName == templates.RulesDirectoryName {
		return true
	}
	return !strings.HasPrefix(directoryName, hiddenNamePrefixConstant)
}

// IsGeneratedFile reports whether path is a report or status file written by the checks themselves.
func IsGeneratedFile(path string) bool {
	baseName := filepath.Base(path)
	for _, pattern := range generatedFilePatterns {
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

func requestRun(runRequests chan<- struct{}) {
	select {
	case runRequests <- struct{}{}:
	default:
	}
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
