package pg_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tenantkit/tenantkit/pkg/pg"
)

func TestMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := slog.Default()

	t.Run("empty migrations path", func(t *testing.T) {
		t.Parallel()

		err := pg.Migrate(ctx, nil, pg.Config{}, log)
		assert.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
		assert.ErrorIs(t, err, pg.ErrMigrationPathNotProvided)
	})

	t.Run("missing migrations directory", func(t *testing.T) {
		t.Parallel()

		cfg := pg.Config{MigrationsPath: filepath.Join(t.TempDir(), "does-not-exist")}
		err := pg.Migrate(ctx, nil, cfg, log)
		assert.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
	})
}
