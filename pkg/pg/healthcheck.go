package pg

import (
	"context"
	"errors"
)

// pinger is the connectivity surface the healthcheck needs.
// *pgxpool.Pool satisfies it.
type pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a closure validating database connectivity, shaped
// for health endpoints that expect func(context.Context) error.
func Healthcheck(db pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
