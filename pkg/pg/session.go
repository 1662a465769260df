package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

// DefaultSessionVariable is the session variable the row-security
// policies read to determine the current tenant.
const DefaultSessionVariable = "app.tenant_id"

// SessionConn is the subset of *pgxpool.Conn the session guard needs.
type SessionConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Release()
}

// hijacker is implemented by *pgxpool.Conn; it lets the guard take a
// connection out of the pool permanently when its session state could
// not be cleaned.
type hijacker interface {
	Hijack() *pgx.Conn
}

// Session pairs a pooled connection with the tenant session variable.
// Acquiring sets the variable, releasing always clears it; the pairing
// is the single invariant the row-security policies rely on, so it is
// encoded in this guard type rather than left as a convention.
type Session struct {
	conn     SessionConn
	variable string
	released bool
}

// AcquireSession borrows a connection from the pool for the tenant in
// ctx and sets the session variable to that tenant's ID before handing
// the connection out. Returns tenant.ErrNoTenantInContext when ctx
// carries no tenant.
func AcquireSession(ctx context.Context, pool *pgxpool.Pool, variable string) (*Session, error) {
	t, ok := tenant.FromContext(ctx)
	if !ok || t == nil {
		return nil, tenant.ErrNoTenantInContext
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return NewSession(ctx, conn, variable, t.ID)
}

// NewSession wraps an already-borrowed connection, setting the session
// variable to tenantID (as text). On failure the connection is released
// immediately and never handed out with unknown session state.
func NewSession(ctx context.Context, conn SessionConn, variable, tenantID string) (*Session, error) {
	if variable == "" {
		variable = DefaultSessionVariable
	}

	if _, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", variable, tenantID); err != nil {
		conn.Release()
		return nil, errors.Join(ErrSessionVariableNotSet, err)
	}
	return &Session{conn: conn, variable: variable}, nil
}

// Conn exposes the scoped connection for queries within the unit of work.
func (s *Session) Conn() SessionConn { return s.conn }

// Release clears the session variable and returns the connection to the
// pool. It is idempotent and uses a background context so unit-of-work
// cancellation cannot skip the clear step. If clearing fails, the
// connection is destroyed instead of returned: hijacked and closed for
// *pgxpool.Conn, closed via an optional Close method otherwise, dropped
// without Release as the last resort. A connection with a lingering
// tenant variable must never reach the next borrower.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true

	if _, err := s.conn.Exec(context.Background(), "SELECT set_config($1, '', false)", s.variable); err != nil {
		switch c := s.conn.(type) {
		case hijacker:
			_ = c.Hijack().Close(context.Background())
		case interface{ Close() error }:
			_ = c.Close()
		}
		return
	}
	s.conn.Release()
}

// WithSession runs fn with a tenant-scoped connection, enforcing the
// set-before/clear-after pairing via defer so it holds on every exit
// path, panics included.
func WithSession(ctx context.Context, pool *pgxpool.Pool, variable string, fn func(conn SessionConn) error) error {
	s, err := AcquireSession(ctx, pool, variable)
	if err != nil {
		return err
	}
	defer s.Release()

	return fn(s.conn)
}
