// Package pg provides the PostgreSQL plumbing for tenant-isolated data
// access: pooled connectivity with startup retries, goose migrations,
// health checks, common error helpers, and the tenant session guard.
//
// The session guard is the piece the row-security layer depends on.
// Because the tenant session variable is connection-scoped and
// connections are pooled, a connection returned to the pool with the
// variable still set would leak tenant scope into the next unit of work
// that borrows it. Session encodes the acquire→set / release→clear
// pairing as a non-bypassable guard:
//
//	err := pg.WithSession(ctx, pool, cfg.SessionVariable, func(conn pg.SessionConn) error {
//		// every statement on conn runs with app.tenant_id set
//		return nil
//	})
//
// The clear step runs on a background context so request cancellation
// cannot skip it, and a connection whose variable could not be cleared
// is destroyed rather than pooled again.
package pg
