// Package access holds the pure role/branch decision functions. Nothing here
// performs I/O or keeps state, so every function is safe to call concurrently
// and can be tested in isolation.
package access

import (
	"fmt"
	"strings"

	"ventas/backend/internal/domain"
)

// Mode distinguishes what the caller wants to do with a record.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeDelete
)

// ResolveWriteBranch decides which branch a new record lands in.
//
// CENTRAL callers write wherever they ask, but must ask: a blank requested
// branch is a validation failure. BRANCH callers always write to their home
// branch; naming any other branch is denied rather than silently corrected.
func ResolveWriteBranch(actor domain.Actor, requested string) (string, error) {
	requested = strings.TrimSpace(requested)

	switch actor.Role {
	case domain.RoleCentral:
		if requested == "" {
			return "", fmt.Errorf("%w: branch is required", domain.ErrValidation)
		}
		return requested, nil
	case domain.RoleBranch:
		if requested != "" && requested != actor.Branch {
			return "", fmt.Errorf("%w: cannot create sales for another branch", domain.ErrAccessDenied)
		}
		return actor.Branch, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrAccessDenied, actor.Role)
	}
}

// ResolveReadScope decides the branch filter actually applied to a query.
// BRANCH callers are forced onto their home branch no matter what they
// requested; the override is silent, not an error. "" means all branches.
func ResolveReadScope(actor domain.Actor, requested string) string {
	if actor.Role == domain.RoleBranch {
		return actor.Branch
	}
	return strings.TrimSpace(requested)
}

// Authorize checks whether the actor may touch an existing record. Delete is
// reserved for CENTRAL regardless of branch match; reads and writes require a
// branch match for BRANCH callers.
func Authorize(actor domain.Actor, sale domain.Sale, mode Mode) error {
	if mode == ModeDelete {
		if actor.Role != domain.RoleCentral {
			return fmt.Errorf("%w: only CENTRAL can delete sales", domain.ErrAccessDenied)
		}
		return nil
	}

	if actor.Role == domain.RoleBranch && sale.Branch != actor.Branch {
		verb := "view"
		if mode == ModeWrite {
			verb = "modify"
		}
		return fmt.Errorf("%w: cannot %s sales of another branch", domain.ErrAccessDenied, verb)
	}
	return nil
}
