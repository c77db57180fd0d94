package workflow

import (
	"strings"
	"time"

	"github.com/mlefree/mle-best-practices/internal/watch"
)

const (
	fileConfigurationKeySuffixConstant       = ".file"
	debounceConfigurationKeySuffixConstant   = ".debounce"
	runOnStartConfigurationKeySuffixConstant = ".run_on_start"
)

// CommandConfiguration captures configuration values for the workflow command.
type CommandConfiguration struct {
	File string `mapstructure:"file"`
}

// WatchConfiguration captures configuration values for the watch command.
type WatchConfiguration struct {
	Debounce   time.Duration `mapstructure:"debounce"`
	RunOnStart bool          `mapstructure:"run_on_start"`
}

// DefaultCommandConfiguration runs the built-in workflow.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// DefaultWatchConfiguration debounces bursts of template edits and runs once on start.
func DefaultWatchConfiguration() WatchConfiguration {
	return WatchConfiguration{Debounce: watch.DefaultDebounce, RunOnStart: true}
}

// DefaultConfigurationValues exposes the workflow defaults keyed under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + fileConfigurationKeySuffixConstant: defaults.File,
	}
}

// DefaultWatchConfigurationValues exposes the watch defaults keyed under prefix.
func DefaultWatchConfigurationValues(prefix string) map[string]any {
	defaults := DefaultWatchConfiguration()
	return map[string]any{
		prefix + debounceConfigurationKeySuffixConstant:   defaults.Debounce,
		prefix + runOnStartConfigurationKeySuffixConstant: defaults.RunOnStart,
	}
}

// Sanitize trims the workflow file path.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.File = strings.TrimSpace(configuration.File)
	return sanitized
}

// Sanitize replaces a non-positive debounce with the default.
func (configuration WatchConfiguration) Sanitize() WatchConfiguration {
	sanitized := configuration
	if sanitized.Debounce <= 0 {
		sanitized.Debounce = watch.DefaultDebounce
	}
	return sanitized
}
