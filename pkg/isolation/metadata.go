package isolation

import (
	"fmt"
	"sort"
	"sync"
)

// ColumnType declares how tenant IDs are bound against a scoping column.
type ColumnType int

const (
	// ColumnString binds the tenant ID as text.
	ColumnString ColumnType = iota
	// ColumnInteger binds the tenant ID as a 64-bit integer.
	ColumnInteger
	// ColumnUUID binds the tenant ID as a UUID value.
	ColumnUUID
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInteger:
		return "integer"
	case ColumnUUID:
		return "uuid"
	default:
		return "string"
	}
}

// Strategy declares how an entity's data is isolated between tenants.
type Strategy int

const (
	// SharedTable keeps all tenants in one table, scoped by a column.
	// Entities with this strategy are filtered at query time and receive
	// a row-security policy.
	SharedTable Strategy = iota
	// DatabasePerTenant keeps each tenant in its own database. No
	// scoping column or policy is needed.
	DatabasePerTenant
)

// DefaultScopingColumn is the scoping column used when none is declared.
const DefaultScopingColumn = "tenant_id"

// EntityMeta describes one entity's tenancy for both isolation layers.
// The query filter and the policy synchronizer read the same record, so
// column names and types can never drift between the two.
type EntityMeta struct {
	// Entity is the identifier the query layer uses for this entity.
	Entity string
	// Table is the backing table name. Defaults to Entity.
	Table string
	// TenantAware marks the entity as scoped per tenant. Entities that
	// are not tenant-aware are never filtered and visible to all tenants.
	TenantAware bool
	// Column is the scoping column. Defaults to DefaultScopingColumn.
	Column string
	// ColumnType is the scoping column's declared value type.
	ColumnType ColumnType
	// Strategy selects the isolation strategy for tenant-aware entities.
	Strategy Strategy
}

// Catalog is the static entity metadata registry. It is built once at
// process startup through explicit Register calls and read-only
// afterwards; there is no runtime reflection involved.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]EntityMeta
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]EntityMeta)}
}

// Register adds an entity's metadata, applying defaults for Table and
// Column. Registering the same entity twice is a programming error.
func (c *Catalog) Register(meta EntityMeta) error {
	if meta.Entity == "" {
		return fmt.Errorf("entity metadata: empty entity name")
	}
	if meta.Table == "" {
		meta.Table = meta.Entity
	}
	if meta.Column == "" {
		meta.Column = DefaultScopingColumn
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[meta.Entity]; exists {
		return fmt.Errorf("entity metadata: %q already registered", meta.Entity)
	}
	c.entries[meta.Entity] = meta
	return nil
}

// MustRegister is Register panicking on error, for startup wiring.
func (c *Catalog) MustRegister(meta EntityMeta) {
	if err := c.Register(meta); err != nil {
		panic(err)
	}
}

// Lookup returns the metadata for an entity. The second return value is
// false when the entity is unknown to the catalog.
func (c *Catalog) Lookup(entity string) (EntityMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.entries[entity]
	return meta, ok
}

// SharedTenantTables returns the metadata of every tenant-aware entity
// using the SharedTable strategy, sorted by table name. This is the set
// the policy synchronizer operates on.
func (c *Catalog) SharedTenantTables() []EntityMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]EntityMeta, 0, len(c.entries))
	for _, meta := range c.entries {
		if meta.TenantAware && meta.Strategy == SharedTable {
			out = append(out, meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}
