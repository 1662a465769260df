package tenant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTenantNotFound is returned when a tenant cannot be found in the registry.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when a resolved identifier has an invalid format.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when trying to use an inactive tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrResolutionFailed is returned when a strict chain produces no match.
	ErrResolutionFailed = errors.New("tenant resolution failed")

	// ErrAmbiguousResolution is returned when strict-mode resolvers disagree.
	ErrAmbiguousResolution = errors.New("ambiguous tenant resolution")
)

// Attempt records the outcome of one resolver within a chain run.
// Skipped resolvers were never invoked; Reason explains why.
type Attempt struct {
	Resolver string
	Slug     string
	Skipped  bool
	Reason   string
}

// ResolutionError reports a strict chain run that produced no usable
// match. Attempts carries the per-resolver outcomes for diagnostics;
// callers decide how much of it to surface.
type ResolutionError struct {
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("tenant resolution failed: %d resolvers tried, none matched", len(e.Attempts))
}

func (e *ResolutionError) Unwrap() error { return ErrResolutionFailed }

// AmbiguityError reports strict-mode resolvers that matched distinct
// tenants. Matches names each contributing resolver and the slug it
// produced.
type AmbiguityError struct {
	Matches  []Attempt
	Attempts []Attempt
}

func (e *AmbiguityError) Error() string {
	pairs := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		pairs = append(pairs, m.Resolver+"->"+m.Slug)
	}
	return "ambiguous tenant resolution: " + strings.Join(pairs, ", ")
}

func (e *AmbiguityError) Unwrap() error { return ErrAmbiguousResolution }
