package tenant

import (
	"context"
	"time"
)

// Tenant represents a tenant in the system with the minimal information
// needed for request-scoped operations and data isolation.
//
// ID is either an integer rendered as decimal text or a UUID-shaped
// string; the isolation layer coerces it to the scoping column's declared
// type at bind time. Both ID and Slug are immutable after creation.
type Tenant struct {
	ID        string            `json:"id"`
	Slug      string            `json:"slug"`
	Name      string            `json:"name"`
	Active    bool              `json:"active"`
	Settings  map[string]string `json:"settings,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Registry looks tenants up from a data source. Implementations are
// expected to be simple key-value lookups; persistence is not this
// package's concern.
type Registry interface {
	// GetBySlug retrieves a tenant by its unique slug.
	// Returns ErrTenantNotFound if no tenant matches.
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)

	// GetByID retrieves a tenant by its unique identifier.
	// Returns ErrTenantNotFound if no tenant matches.
	GetByID(ctx context.Context, id string) (*Tenant, error)
}
