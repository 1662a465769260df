// Package tenant resolves which tenant owns an incoming unit of work and
// carries that identity through the request context.
//
// # Resolution
//
// Individual Resolver strategies each extract a tenant slug from one
// aspect of the request (subdomain, path segment, header, query
// parameter, custom domain mapping, DNS TXT record). A Chain composes an
// ordered, configured subset of them:
//
//	registry := tenant.NewStaticRegistry(acme, beta)
//	chain := tenant.NewChain(registry, []tenant.NamedResolver{
//		tenant.Named("subdomain", tenant.NewSubdomainResolver(".saas.com")),
//		tenant.NamedHeader("header", "X-Tenant-ID", tenant.NewHeaderResolver("X-Tenant-ID")),
//	}, tenant.WithAllowedHeaders("X-Tenant-ID"))
//
// In non-strict mode the first match wins. In strict mode every resolver
// runs and all matches must agree; disagreement fails with an
// AmbiguityError listing each contributor, absence of any match fails
// with a ResolutionError. Header-bound resolvers whose header is not
// allow-listed are skipped without being invoked. A resolver error or
// panic never aborts the chain.
//
// # Context
//
// Middleware resolves the tenant once per request and stores it in the
// request context. Concurrent requests never observe each other's
// tenant: the value lives in the per-request context, not in any
// process-wide state, and disappears with the request on every exit
// path including errors.
//
// # Registry and caching
//
// Registry is the lookup boundary to wherever tenants are persisted.
// CachedRegistry adds a Cache in front of it; NewMemoryCache and
// NewRedisCache are provided.
package tenant
