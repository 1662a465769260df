package rlssync

import "context"

// introspect reads the live database catalog for one table: whether row
// security is already enabled and whether the named policy exists.
func (s *Synchronizer) introspect(ctx context.Context, table, policy string) (rlsEnabled, policyExists bool, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT relrowsecurity FROM pg_catalog.pg_class WHERE relname = $1 AND relkind = 'r'`,
		table).Scan(&rlsEnabled)
	if err != nil {
		return false, false, err
	}

	err = s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_policies WHERE tablename = $1 AND policyname = $2)`,
		table, policy).Scan(&policyExists)
	if err != nil {
		return false, false, err
	}
	return rlsEnabled, policyExists, nil
}
