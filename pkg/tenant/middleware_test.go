package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

func testChain(opts ...tenant.ChainOption) *tenant.Chain {
	base := []tenant.ChainOption{tenant.WithAllowedHeaders("X-Tenant-ID")}
	return tenant.NewChain(testRegistry(), []tenant.NamedResolver{
		tenant.NamedHeader("header", "X-Tenant-ID", tenant.NewHeaderResolver("X-Tenant-ID")),
	}, append(base, opts...)...)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("resolved tenant lands in context", func(t *testing.T) {
		t.Parallel()

		var seen *tenant.Tenant
		handler := tenant.Middleware(testChain())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = tenant.FromContext(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Tenant-ID", "acme")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotNil(t, seen)
		assert.Equal(t, "acme", seen.Slug)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unresolvable request is rejected by default", func(t *testing.T) {
		t.Parallel()

		handler := tenant.Middleware(testChain())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("allow unresolved passes request through without tenant", func(t *testing.T) {
		t.Parallel()

		reached := false
		handler := tenant.Middleware(testChain(), tenant.WithAllowUnresolved(true))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				_, ok := tenant.FromContext(r.Context())
				assert.False(t, ok)
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ambiguous resolution maps to bad request", func(t *testing.T) {
		t.Parallel()

		chain := tenant.NewChain(testRegistry(), []tenant.NamedResolver{
			tenant.Named("a", fixedResolver("acme")),
			tenant.Named("b", fixedResolver("beta")),
		}, tenant.WithStrict(true))

		handler := tenant.Middleware(chain)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inactive tenant is forbidden", func(t *testing.T) {
		t.Parallel()

		registry := tenant.NewStaticRegistry(
			&tenant.Tenant{ID: "9", Slug: "dormant", Active: false},
		)
		chain := tenant.NewChain(registry, []tenant.NamedResolver{
			tenant.Named("fixed", fixedResolver("dormant")),
		})

		handler := tenant.Middleware(chain)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()

		handler := tenant.Middleware(testChain(), tenant.WithSkipPaths([]string{"/healthz"}))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok := tenant.FromContext(r.Context())
				assert.False(t, ok)
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()

		handler := tenant.Middleware(testChain(), tenant.WithErrorHandler(
			func(w http.ResponseWriter, r *http.Request, err error) {
				w.WriteHeader(http.StatusTeapot)
			}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	t.Run("blocks requests without tenant", func(t *testing.T) {
		t.Parallel()

		handler := tenant.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("passes requests with tenant", func(t *testing.T) {
		t.Parallel()

		handler := tenant.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(tenant.WithTenant(req.Context(), &tenant.Tenant{ID: "1", Slug: "acme"}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
