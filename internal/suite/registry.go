// Package suite registers the available checks and the default workflow order.
package suite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mlefree/mle-best-practices/internal/checks"
	"github.com/mlefree/mle-best-practices/internal/checks/gitignore"
	"github.com/mlefree/mle-best-practices/internal/checks/projects"
	"github.com/mlefree/mle-best-practices/internal/checks/projecttype"
	"github.com/mlefree/mle-best-practices/internal/checks/releasescripts"
	"github.com/mlefree/mle-best-practices/internal/checks/rules"
	"github.com/mlefree/mle-best-practices/internal/checks/scripts"
	"github.com/mlefree/mle-best-practices/internal/checks/style"
	"github.com/mlefree/mle-best-practices/internal/checks/summary"
	"github.com/mlefree/mle-best-practices/internal/workflow"
)

const (
	emptyIdentifierMessageConstant      = "check identifier must be non-empty"
	duplicateIdentifierTemplateConstant = "check %s registered twice"
)

// ErrEmptyIdentifier indicates a check registered without an identifier.
var ErrEmptyIdentifier = errors.New(emptyIdentifierMessageConstant)

// Registry holds checks in registration order.
type Registry struct {
	executables  []checks.Executable
	byIdentifier map[string]checks.Executable
}

// NewRegistry registers executables in order and rejects duplicate identifiers.
func NewRegistry(executables ...checks.Executable) (*Registry, error) {
	registry := &Registry{byIdentifier: make(map[string]checks.Executable, len(executables))}
	for _, executable := range executables {
		identifier := strings.TrimSpace(executable.Identifier())
		if len(identifier) == 0 {
			return nil, ErrEmptyIdentifier
		}
		if _, exists := registry.byIdentifier[identifier]; exists {
			return nil, fmt.Errorf(duplicateIdentifierTemplateConstant, identifier)
		}
		registry.byIdentifier[identifier] = executable
		registry.executables = append(registry.executables, executable)
	}
	return registry, nil
}

// DefaultRegistry returns every check in default workflow order.
func DefaultRegistry() *Registry {
	registry, _ := NewRegistry(
		projects.Executable{},
		projecttype.Executable{},
		gitignore.Executable{},
		rules.Executable{},
		scripts.Executable{},
		style.Executable{},
		releasescripts.Executable{},
		summary.Executable{},
	)
	return registry
}

// Lookup returns the check registered under checkIdentifier.
func (registry *Registry) Lookup(checkIdentifier string) (checks.Executable, bool) {
	executable, registered := registry.byIdentifier[strings.TrimSpace(checkIdentifier)]
	return executable, registered
}

// Executables returns the registered checks in order.
func (registry *Registry) Executables() []checks.Executable {
	return append([]checks.Executable{}, registry.executables...)
}

// Identifiers returns the registered check identifiers in order.
func (registry *Registry) Identifiers() []string {
	identifiers := make([]string, 0, len(registry.executables))
	for _, executable := range registry.executables {
		identifiers = append(identifiers, executable.Identifier())
	}
	return identifiers
}

// DefaultWorkflow runs every registered check in registration order.
func (registry *Registry) DefaultWorkflow() workflow.Configuration {
	return workflow.NewConfiguration(registry.Identifiers()...)
}
