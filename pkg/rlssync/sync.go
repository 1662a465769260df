package rlssync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tenantkit/tenantkit/pkg/isolation"
)

const (
	// DefaultPolicyPrefix names generated policies <prefix>_<table>.
	DefaultPolicyPrefix = "tenant_isolation"
	// DefaultSessionVariable must match what the session guard sets.
	DefaultSessionVariable = "app.tenant_id"

	// minServerVersion is PostgreSQL 9.5, the first release with
	// row-level security.
	minServerVersion = 90500
)

// Config carries the synchronizer's tunables. Both values must agree
// with the application side: the session variable with pg.Config, the
// prefix only with previous runs of this tool.
type Config struct {
	PolicyPrefix    string `env:"RLS_POLICY_PREFIX" envDefault:"tenant_isolation"`
	SessionVariable string `env:"RLS_SESSION_VAR" envDefault:"app.tenant_id"`
}

// DB is the database surface the synchronizer needs. *pgxpool.Pool
// satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Statement is one generated DDL statement, tagged with the table it
// targets.
type Statement struct {
	Table string
	SQL   string
}

// Synchronizer generates and applies idempotent row-security DDL for
// every tenant-aware shared table in the catalog. Running it twice in
// apply mode yields zero statements on the second run unless force is
// set.
//
// It is a one-shot offline tool: single-threaded, no concurrent
// invocation expected. Running two instances against the same database
// concurrently has no guaranteed statement ordering.
type Synchronizer struct {
	db         DB
	catalog    *isolation.Catalog
	prefix     string
	sessionVar string
	force      bool
	log        *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPolicyPrefix overrides the generated policy name prefix.
func WithPolicyPrefix(prefix string) Option {
	return func(s *Synchronizer) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithSessionVariable overrides the session variable the policies read.
func WithSessionVariable(variable string) Option {
	return func(s *Synchronizer) {
		if variable != "" {
			s.sessionVar = variable
		}
	}
}

// WithForce drops and recreates policies that already exist.
func WithForce(force bool) Option {
	return func(s *Synchronizer) { s.force = force }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Synchronizer) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Synchronizer over the database and the entity catalog.
func New(db DB, catalog *isolation.Catalog, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		db:         db,
		catalog:    catalog,
		prefix:     DefaultPolicyPrefix,
		sessionVar: DefaultSessionVariable,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan generates the DDL needed to bring the database in line with the
// catalog, without executing anything. An empty plan means nothing to do.
func (s *Synchronizer) Plan(ctx context.Context) ([]Statement, error) {
	if err := s.checkEngine(ctx); err != nil {
		return nil, err
	}

	var stmts []Statement
	for _, meta := range s.catalog.SharedTenantTables() {
		policy := s.prefix + "_" + meta.Table

		rlsEnabled, policyExists, err := s.introspect(ctx, meta.Table, policy)
		if err != nil {
			// Best effort: without catalog state, emit the full pair
			// unconditionally rather than guess.
			s.log.WarnContext(ctx, "catalog introspection failed, emitting full statement pair",
				slog.String("table", meta.Table), slog.Any("error", err))
			stmts = append(stmts, s.enableStatement(meta), s.createStatement(meta, policy))
			continue
		}

		if !rlsEnabled {
			stmts = append(stmts, s.enableStatement(meta))
		}
		switch {
		case !policyExists:
			stmts = append(stmts, s.createStatement(meta, policy))
		case s.force:
			stmts = append(stmts,
				Statement{Table: meta.Table, SQL: fmt.Sprintf("DROP POLICY %s ON %s", policy, meta.Table)},
				s.createStatement(meta, policy))
		}
	}
	return stmts, nil
}

// Apply plans and executes the statements one at a time in order. On the
// first failure it stops immediately and returns the statements already
// applied together with an *ApplyError carrying the exact SQL and the
// engine's message. No rollback is attempted.
func (s *Synchronizer) Apply(ctx context.Context) ([]Statement, error) {
	stmts, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}

	for i, st := range stmts {
		if _, err := s.db.Exec(ctx, st.SQL); err != nil {
			return stmts[:i], &ApplyError{SQL: st.SQL, Err: err}
		}
		s.log.InfoContext(ctx, "applied", slog.String("table", st.Table), slog.String("sql", st.SQL))
	}
	return stmts, nil
}

func (s *Synchronizer) enableStatement(meta isolation.EntityMeta) Statement {
	return Statement{
		Table: meta.Table,
		SQL:   fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", meta.Table),
	}
}

func (s *Synchronizer) createStatement(meta isolation.EntityMeta, policy string) Statement {
	return Statement{
		Table: meta.Table,
		SQL: fmt.Sprintf("CREATE POLICY %s ON %s USING (%s::text = current_setting('%s', true))",
			policy, meta.Table, meta.Column, s.sessionVar),
	}
}

// checkEngine fails fast when the server predates row-level security or
// its version cannot be determined at all.
func (s *Synchronizer) checkEngine(ctx context.Context) error {
	var raw string
	if err := s.db.QueryRow(ctx, "SELECT current_setting('server_version_num')").Scan(&raw); err != nil {
		return errors.Join(ErrUnsupportedEngine, err)
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return errors.Join(ErrUnsupportedEngine, fmt.Errorf("unparseable server_version_num %q", raw))
	}
	if version < minServerVersion {
		return fmt.Errorf("%w: server_version_num %d, need at least %d", ErrUnsupportedEngine, version, minServerVersion)
	}
	return nil
}
