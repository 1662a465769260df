package tenant_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

func TestLoadChainConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("parses yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "chain.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
resolvers: [subdomain, header, query]
strict: true
header_allow_list: [X-Tenant-ID]
`), 0o600))

		cfg, err := tenant.LoadChainConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"subdomain", "header", "query"}, cfg.Resolvers)
		assert.True(t, cfg.Strict)
		assert.Equal(t, []string{"X-Tenant-ID"}, cfg.HeaderAllowList)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.LoadChainConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("resolvers: [unclosed"), 0o600))

		_, err := tenant.LoadChainConfigFile(path)
		assert.Error(t, err)
	})
}

func TestBuildChain(t *testing.T) {
	t.Parallel()

	available := []tenant.NamedResolver{
		tenant.Named("subdomain", fixedResolver("acme")),
		tenant.NamedHeader("header", "X-Tenant-ID", fixedResolver("beta")),
		tenant.Named("query", fixedResolver("")),
	}

	t.Run("selects configured subset in order", func(t *testing.T) {
		t.Parallel()

		chain, err := tenant.BuildChain(tenant.ChainConfig{
			Resolvers:       []string{"header", "subdomain"},
			HeaderAllowList: []string{"X-Tenant-ID"},
		}, testRegistry(), available)
		require.NoError(t, err)

		resolved, err := chain.Resolve(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, "beta", resolved.Slug, "header is configured first, so it wins")
	})

	t.Run("strict flag carries over", func(t *testing.T) {
		t.Parallel()

		chain, err := tenant.BuildChain(tenant.ChainConfig{
			Resolvers:       []string{"subdomain", "header"},
			Strict:          true,
			HeaderAllowList: []string{"X-Tenant-ID"},
		}, testRegistry(), available)
		require.NoError(t, err)

		_, err = chain.Resolve(httptest.NewRequest("GET", "/", nil))
		assert.ErrorIs(t, err, tenant.ErrAmbiguousResolution)
	})

	t.Run("unknown resolver name fails", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.BuildChain(tenant.ChainConfig{
			Resolvers: []string{"subdomain", "carrier-pigeon"},
		}, testRegistry(), available)
		assert.ErrorContains(t, err, "carrier-pigeon")
	})
}
