package workflow

import (
	"github.com/mlefree/mle-best-practices/internal/checks"
)

// CheckResolver looks up registered checks by identifier.
type CheckResolver interface {
	Lookup(checkIdentifier string) (checks.Executable, bool)
}
