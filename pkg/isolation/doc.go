// Package isolation scopes data access to the current tenant at the
// application layer.
//
// A Catalog holds static, startup-registered metadata describing which
// entities are tenant-aware, the scoping column each uses and that
// column's value type. A Filter consumes the catalog and the tenant
// carried by the context to produce scoping predicates for the host
// ORM's query-compilation hook: one predicate per distinct tenant-aware
// table/alias reference, sub-queries included.
//
// The filter deliberately favors availability: entities unknown to the
// catalog pass through unfiltered, on the assumption that the
// database-level row-security layer (pkg/rlssync) backs it up. Both
// layers read the same catalog, so the column names and the session
// variable they rely on cannot drift apart.
package isolation
