package tenant

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// MaxIdentifierLength prevents abuse via very long identifiers and keeps
	// slugs DNS-compatible.
	MaxIdentifierLength = 63
	MinIdentifierLength = 1
)

// identifierPattern ensures DNS-safe identifiers: alphanumeric start, allows hyphens.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// Resolver extracts a tenant slug from an HTTP request.
// Returns empty string if no tenant is found, error if extraction failed.
// Resolvers must treat the request as read-only.
type Resolver func(r *http.Request) (string, error)

func isValidIdentifier(id string) bool {
	if len(id) < MinIdentifierLength || len(id) > MaxIdentifierLength {
		return false
	}
	return identifierPattern.MatchString(id)
}

// stripPort removes a trailing :port from a host value if present.
func stripPort(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}
	return host
}

// NewSubdomainResolver extracts the tenant slug from the request
// subdomain, optionally stripping a configured suffix (e.g. ".saas.com").
// Returns empty string for the base domain and skips a leading "www".
func NewSubdomainResolver(suffix string) Resolver {
	return func(req *http.Request) (string, error) {
		host := stripPort(req.Host)

		originalParts := strings.Split(host, ".")

		if suffix != "" && strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			host = host[:len(host)-len(suffix)]
		}

		parts := strings.Split(host, ".")
		if len(parts) == 0 || parts[0] == "" {
			return "", nil
		}

		subdomain := parts[0]
		if subdomain == "www" {
			if len(parts) > 1 {
				subdomain = parts[1]
			} else {
				return "", nil
			}
		}

		// Require at least subdomain.domain.tld so the base domain is
		// never mistaken for a tenant.
		if len(originalParts) < 3 {
			return "", nil
		}

		subdomain = strings.TrimSpace(subdomain)
		if subdomain == "" {
			return "", nil
		}
		if !isValidIdentifier(subdomain) {
			return "", fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, subdomain)
		}
		return subdomain, nil
	}
}

// NewHeaderResolver extracts the tenant slug from an HTTP header.
// Defaults to "X-Tenant-ID" if headerName is empty. Whether the header
// may be trusted at all is the chain's concern (allow-list), not the
// resolver's.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}

	return func(req *http.Request) (string, error) {
		value := strings.TrimSpace(req.Header.Get(headerName))
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: header value %q", ErrInvalidIdentifier, value)
		}
		return value, nil
	}
}

// NewPathResolver extracts the tenant slug from a URL path segment at a
// 1-based position. Position 2 extracts from /tenants/{slug}/dashboard.
func NewPathResolver(position int) Resolver {
	return func(req *http.Request) (string, error) {
		if position < 1 {
			return "", fmt.Errorf("invalid path position: %d", position)
		}

		path := strings.TrimPrefix(req.URL.Path, "/")
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			return "", nil
		}

		parts := strings.Split(path, "/")
		if position > len(parts) {
			return "", nil
		}

		value := strings.TrimSpace(parts[position-1])
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: path segment %q", ErrInvalidIdentifier, value)
		}
		return value, nil
	}
}

// NewQueryResolver extracts the tenant slug from a URL query parameter.
// Defaults to "tenant" if param is empty.
func NewQueryResolver(param string) Resolver {
	if param == "" {
		param = "tenant"
	}

	return func(req *http.Request) (string, error) {
		value := strings.TrimSpace(req.URL.Query().Get(param))
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: query value %q", ErrInvalidIdentifier, value)
		}
		return value, nil
	}
}

// NewDomainMapResolver maps full custom domains to tenant slugs, for
// tenants serving traffic on their own apex domains. Lookup is
// case-insensitive and ignores the port.
func NewDomainMapResolver(domains map[string]string) Resolver {
	normalized := make(map[string]string, len(domains))
	for domain, slug := range domains {
		normalized[strings.ToLower(domain)] = slug
	}

	return func(req *http.Request) (string, error) {
		host := strings.ToLower(stripPort(req.Host))
		return normalized[host], nil
	}
}

// DNSResolverConfig configures a TXT-record-backed resolver.
type DNSResolverConfig struct {
	// RecordPrefix is prepended to the request host when querying,
	// e.g. "_tenant" queries "_tenant.shop.example.com".
	RecordPrefix string
	// Timeout bounds each DNS lookup. Defaults to 2s.
	Timeout time.Duration
	// CacheTTL controls how long successful lookups are reused.
	// Defaults to 5 minutes; negative disables caching.
	CacheTTL time.Duration
	// Lookup overrides the DNS query, mainly for tests.
	// Defaults to net.DefaultResolver.LookupTXT.
	Lookup func(ctx context.Context, name string) ([]string, error)
}

// NewDNSResolver resolves the tenant slug from a TXT record published
// under the request's host. The lookup is bounded by the configured
// timeout and results are cached per host; both policies are this
// resolver's own concern, the chain never waits beyond them.
func NewDNSResolver(cfg DNSResolverConfig) Resolver {
	if cfg.RecordPrefix == "" {
		cfg.RecordPrefix = "_tenant"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Lookup == nil {
		cfg.Lookup = net.DefaultResolver.LookupTXT
	}

	type cacheEntry struct {
		slug      string
		expiresAt time.Time
	}
	var (
		mu    sync.Mutex
		cache = make(map[string]cacheEntry)
	)

	return func(req *http.Request) (string, error) {
		host := stripPort(req.Host)
		if host == "" {
			return "", nil
		}

		if cfg.CacheTTL > 0 {
			mu.Lock()
			entry, ok := cache[host]
			mu.Unlock()
			if ok && time.Now().Before(entry.expiresAt) {
				return entry.slug, nil
			}
		}

		ctx, cancel := context.WithTimeout(req.Context(), cfg.Timeout)
		defer cancel()

		records, err := cfg.Lookup(ctx, cfg.RecordPrefix+"."+host)
		if err != nil {
			return "", fmt.Errorf("dns resolver: lookup %s.%s: %w", cfg.RecordPrefix, host, err)
		}

		var slug string
		for _, rec := range records {
			rec = strings.TrimSpace(rec)
			if rec != "" {
				slug = rec
				break
			}
		}
		if slug != "" && !isValidIdentifier(slug) {
			return "", fmt.Errorf("%w: dns record %q", ErrInvalidIdentifier, slug)
		}

		if cfg.CacheTTL > 0 {
			mu.Lock()
			cache[host] = cacheEntry{slug: slug, expiresAt: time.Now().Add(cfg.CacheTTL)}
			mu.Unlock()
		}

		return slug, nil
	}
}
