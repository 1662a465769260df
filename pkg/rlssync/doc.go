// Package rlssync mirrors the application-level query filter with
// database-level row-security policies, the second layer of
// defense-in-depth.
//
// The synchronizer reads the same entity metadata catalog as the query
// filter, introspects the live PostgreSQL catalog, and emits the minimal
// idempotent DDL to converge: ALTER TABLE ... ENABLE ROW LEVEL SECURITY
// where row security is off, and one CREATE POLICY per tenant-aware
// shared table reading the tenant session variable:
//
//	CREATE POLICY tenant_isolation_products ON products
//	USING (tenant_id::text = current_setting('app.tenant_id', true))
//
// current_setting's missing_ok form returns empty text when the variable
// is unset, which matches no tenant ID: an unscoped session sees no
// rows. Apply mode executes statements one at a time and stops at the
// first failure without rollback; the partial-apply risk is intentional
// and documented rather than hidden behind a transaction PostgreSQL
// would not honor for all DDL mixes.
package rlssync
