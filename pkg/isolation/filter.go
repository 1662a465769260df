package isolation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

// TableRef is one table reference inside a query, identified by the
// entity it maps to and the alias it is joined under.
type TableRef struct {
	Entity string
	Alias  string
}

// Query is the shape the ORM hook hands to the filter: the table/alias
// references one query level touches, plus any nested sub-queries.
type Query struct {
	Refs       []TableRef
	Subqueries []*Query
}

// Predicate is one scoping condition to conjoin (AND) with the query's
// existing condition for Alias. SQL uses a single ? placeholder for Arg;
// the host query compiler renumbers it to its own parameter style.
type Predicate struct {
	Alias  string
	Column string
	SQL    string
	Arg    any
}

// disabledKey marks a context in which the filter is switched off.
type disabledKey struct{}

// WithoutFilter returns a context in which Apply emits no predicates.
// The toggle is scoped to the returned context and restores itself when
// that context is discarded, so a test can prove the database-level
// layer isolates on its own without any global switch.
func WithoutFilter(ctx context.Context) context.Context {
	return context.WithValue(ctx, disabledKey{}, true)
}

// FilterDisabled reports whether the filter is switched off for ctx.
func FilterDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(disabledKey{}).(bool)
	return disabled
}

// Filter injects tenant-scoping predicates into queries based on the
// entity metadata catalog and the tenant carried by the context.
type Filter struct {
	catalog *Catalog
	log     *slog.Logger
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithFilterLogger sets the logger used for diagnostic-level records.
func WithFilterLogger(log *slog.Logger) FilterOption {
	return func(f *Filter) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFilter creates a query isolation filter over the catalog.
func NewFilter(catalog *Catalog, opts ...FilterOption) *Filter {
	f := &Filter{catalog: catalog, log: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply returns the scoping predicates for a query, one per distinct
// tenant-aware table/alias reference, recursing into sub-queries with
// the same rule. It returns nil when no tenant is set in ctx or the
// filter is disabled for ctx. Entities unknown to the catalog are
// skipped, never an error: the database-level layer is the safety net.
func (f *Filter) Apply(ctx context.Context, q *Query) ([]Predicate, error) {
	if q == nil {
		return nil, nil
	}
	if FilterDisabled(ctx) {
		f.log.DebugContext(ctx, "query filter disabled for this unit of work")
		return nil, nil
	}

	t, ok := tenant.FromContext(ctx)
	if !ok || t == nil {
		return nil, nil
	}

	var preds []Predicate
	if err := f.apply(ctx, q, t, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

func (f *Filter) apply(ctx context.Context, q *Query, t *tenant.Tenant, preds *[]Predicate) error {
	seen := make(map[TableRef]struct{}, len(q.Refs))

	for _, ref := range q.Refs {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}

		meta, ok := f.catalog.Lookup(ref.Entity)
		if !ok {
			f.log.DebugContext(ctx, "entity not in metadata catalog, not filtered",
				slog.String("entity", ref.Entity), slog.String("alias", ref.Alias))
			continue
		}
		if !meta.TenantAware {
			f.log.DebugContext(ctx, "entity not tenant aware, not filtered",
				slog.String("entity", ref.Entity), slog.String("alias", ref.Alias))
			continue
		}
		if meta.Strategy == DatabasePerTenant {
			f.log.DebugContext(ctx, "entity isolated per database, no column to filter",
				slog.String("entity", ref.Entity), slog.String("alias", ref.Alias))
			continue
		}

		arg, err := CoerceTenantID(t.ID, meta.ColumnType)
		if err != nil {
			return fmt.Errorf("scoping %s as %s: %w", ref.Entity, ref.Alias, err)
		}

		alias := ref.Alias
		if alias == "" {
			alias = meta.Table
		}

		*preds = append(*preds, Predicate{
			Alias:  alias,
			Column: meta.Column,
			SQL:    fmt.Sprintf("%s.%s = ?", alias, meta.Column),
			Arg:    arg,
		})
		f.log.DebugContext(ctx, "tenant scoping predicate applied",
			slog.String("entity", ref.Entity),
			slog.String("alias", alias),
			slog.String("column", meta.Column),
			slog.String("type", meta.ColumnType.String()))
	}

	for _, sub := range q.Subqueries {
		if err := f.apply(ctx, sub, t, preds); err != nil {
			return err
		}
	}
	return nil
}

// CoerceTenantID converts a tenant ID to the declared scoping column
// type: integer IDs bind as int64, UUID-shaped IDs as uuid.UUID,
// anything else as text.
func CoerceTenantID(id string, t ColumnType) (any, error) {
	switch t {
	case ColumnInteger:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tenant id %q is not an integer: %w", id, err)
		}
		return n, nil
	case ColumnUUID:
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("tenant id %q is not a uuid: %w", id, err)
		}
		return u, nil
	default:
		return id, nil
	}
}
