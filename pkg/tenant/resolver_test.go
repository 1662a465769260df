package tenant_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()

	t.Run("extracts subdomain from host", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "https://acme.app.com/test", nil)

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("extracts subdomain with custom suffix", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewSubdomainResolver(".saas.com")
		req := httptest.NewRequest("GET", "https://acme.saas.com/test", nil)
		req.Host = "acme.saas.com"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("handles host with port", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "http://acme.app.localhost:8080/test", nil)
		req.Host = "acme.app.localhost:8080"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("skips www prefix", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "https://www.acme.app.com/test", nil)

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("returns empty for base domain", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "https://app.com/test", nil)
		req.Host = "app.com"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Empty(t, slug)
	})

	t.Run("rejects invalid subdomain format", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "https://app.com/test", nil)
		req.Host = "tenant_123.app.com"

		slug, err := resolver(req)
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
		assert.Empty(t, slug)
	})
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	t.Run("extracts value from configured header", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewHeaderResolver("X-Tenant-ID")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Tenant-ID", "acme")

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("returns empty when header missing", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewHeaderResolver("X-Tenant-ID")
		slug, err := resolver(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Empty(t, slug)
	})

	t.Run("defaults to X-Tenant-ID", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewHeaderResolver("")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Tenant-ID", "beta")

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "beta", slug)
	})
}

func TestPathResolver(t *testing.T) {
	t.Parallel()

	t.Run("extracts segment at position", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewPathResolver(2)
		req := httptest.NewRequest("GET", "/tenants/acme/dashboard", nil)

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("returns empty past end of path", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewPathResolver(5)
		slug, err := resolver(httptest.NewRequest("GET", "/tenants/acme", nil))
		require.NoError(t, err)
		assert.Empty(t, slug)
	})

	t.Run("rejects invalid position", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewPathResolver(0)
		_, err := resolver(httptest.NewRequest("GET", "/tenants/acme", nil))
		assert.Error(t, err)
	})
}

func TestQueryResolver(t *testing.T) {
	t.Parallel()

	t.Run("extracts configured parameter", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewQueryResolver("org")
		slug, err := resolver(httptest.NewRequest("GET", "/?org=acme", nil))
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("defaults to tenant parameter", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewQueryResolver("")
		slug, err := resolver(httptest.NewRequest("GET", "/?tenant=beta", nil))
		require.NoError(t, err)
		assert.Equal(t, "beta", slug)
	})

	t.Run("returns empty when parameter absent", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewQueryResolver("tenant")
		slug, err := resolver(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Empty(t, slug)
	})
}

func TestDomainMapResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewDomainMapResolver(map[string]string{
		"shop.acme-corp.com": "acme",
	})

	t.Run("maps custom domain to slug", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "https://shop.acme-corp.com/", nil)
		req.Host = "shop.acme-corp.com"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("ignores port and case", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "https://example.com/", nil)
		req.Host = "Shop.Acme-Corp.com:8443"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("returns empty for unmapped domain", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "https://other.com/", nil)
		req.Host = "other.com"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Empty(t, slug)
	})
}

func TestDNSResolver(t *testing.T) {
	t.Parallel()

	t.Run("resolves slug from TXT record", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewDNSResolver(tenant.DNSResolverConfig{
			Lookup: func(ctx context.Context, name string) ([]string, error) {
				assert.Equal(t, "_tenant.shop.example.com", name)
				return []string{"acme"}, nil
			},
		})

		req := httptest.NewRequest("GET", "https://shop.example.com/", nil)
		req.Host = "shop.example.com"

		slug, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", slug)
	})

	t.Run("caches successful lookups", func(t *testing.T) {
		t.Parallel()

		calls := 0
		resolver := tenant.NewDNSResolver(tenant.DNSResolverConfig{
			CacheTTL: time.Minute,
			Lookup: func(ctx context.Context, name string) ([]string, error) {
				calls++
				return []string{"acme"}, nil
			},
		})

		req := httptest.NewRequest("GET", "https://shop.example.com/", nil)
		req.Host = "shop.example.com"

		for i := 0; i < 3; i++ {
			slug, err := resolver(req)
			require.NoError(t, err)
			assert.Equal(t, "acme", slug)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("lookup failure is an error", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewDNSResolver(tenant.DNSResolverConfig{
			Lookup: func(ctx context.Context, name string) ([]string, error) {
				return nil, errors.New("no such host")
			},
		})

		req := httptest.NewRequest("GET", "https://shop.example.com/", nil)
		req.Host = "shop.example.com"

		_, err := resolver(req)
		assert.Error(t, err)
	})

	t.Run("lookup is bounded by the configured timeout", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewDNSResolver(tenant.DNSResolverConfig{
			Timeout:  10 * time.Millisecond,
			CacheTTL: -1,
			Lookup: func(ctx context.Context, name string) ([]string, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		})

		req := httptest.NewRequest("GET", "https://shop.example.com/", nil)
		req.Host = "shop.example.com"

		start := time.Now()
		_, err := resolver(req)
		assert.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}
