package tenant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// NamedResolver binds a resolver to the name it is configured under.
// Header, when non-empty, names the inbound header the resolver reads;
// the chain consults its allow-list before invoking such resolvers.
type NamedResolver struct {
	Name    string
	Header  string
	Resolve Resolver
}

// Named wraps a resolver with its configuration name.
func Named(name string, r Resolver) NamedResolver {
	return NamedResolver{Name: name, Resolve: r}
}

// NamedHeader wraps a header-bound resolver with its configuration name
// and the header it reads.
func NamedHeader(name, header string, r Resolver) NamedResolver {
	return NamedResolver{Name: name, Header: header, Resolve: r}
}

// Chain runs an ordered list of named resolvers against a request and
// resolves the winning slug to a Tenant through the registry.
//
// In non-strict mode the first resolver producing a known tenant wins,
// so declared order is a priority order. In strict mode every resolver
// runs and all matches must agree on the slug; disagreement yields an
// AmbiguityError naming each contributor.
type Chain struct {
	resolvers      []NamedResolver
	registry       Registry
	strict         bool
	allowedHeaders map[string]struct{}
	log            *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithStrict toggles strict consensus mode.
func WithStrict(strict bool) ChainOption {
	return func(c *Chain) { c.strict = strict }
}

// WithAllowedHeaders sets the inbound headers that header-bound
// resolvers may read. A header-bound resolver whose header is not
// listed is skipped without being invoked.
func WithAllowedHeaders(headers ...string) ChainOption {
	return func(c *Chain) {
		c.allowedHeaders = make(map[string]struct{}, len(headers))
		for _, h := range headers {
			c.allowedHeaders[http.CanonicalHeaderKey(h)] = struct{}{}
		}
	}
}

// WithChainLogger sets the logger used for diagnostic-level skip and
// failure records.
func WithChainLogger(log *slog.Logger) ChainOption {
	return func(c *Chain) {
		if log != nil {
			c.log = log
		}
	}
}

// NewChain creates a resolver chain over the given registry. Resolver
// order is significant. The configuration is immutable once built.
func NewChain(registry Registry, resolvers []NamedResolver, opts ...ChainOption) *Chain {
	c := &Chain{
		resolvers:      resolvers,
		registry:       registry,
		allowedHeaders: map[string]struct{}{},
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve runs the chain against the request.
//
// On failure it returns a *ResolutionError (no resolver produced a known
// tenant) or, in strict mode, a *AmbiguityError (resolvers disagree).
// Resolver errors and panics never abort the chain; they count as
// "no match" for that resolver and are logged.
func (c *Chain) Resolve(r *http.Request) (*Tenant, error) {
	ctx := r.Context()

	var (
		attempts []Attempt
		matches  []Attempt
		bySlug   = map[string]*Tenant{}
	)

	for _, nr := range c.resolvers {
		if nr.Header != "" {
			if _, ok := c.allowedHeaders[http.CanonicalHeaderKey(nr.Header)]; !ok {
				attempts = append(attempts, Attempt{Resolver: nr.Name, Skipped: true, Reason: "disallowed header " + nr.Header})
				c.log.DebugContext(ctx, "resolver skipped: header not allow-listed",
					slog.String("resolver", nr.Name), slog.String("header", nr.Header))
				continue
			}
		}

		slug := c.invoke(ctx, nr, r)
		if slug == "" {
			attempts = append(attempts, Attempt{Resolver: nr.Name, Reason: "no match"})
			continue
		}

		t := c.lookup(ctx, nr.Name, slug, bySlug)
		if t == nil {
			attempts = append(attempts, Attempt{Resolver: nr.Name, Slug: slug, Reason: "unknown tenant"})
			continue
		}

		attempts = append(attempts, Attempt{Resolver: nr.Name, Slug: slug})

		if !c.strict {
			return t, nil
		}
		matches = append(matches, Attempt{Resolver: nr.Name, Slug: slug})
	}

	if len(matches) == 0 {
		return nil, &ResolutionError{Attempts: attempts}
	}

	// Strict consensus compares slug strings: resolvers yield slugs, and
	// the registry maps each slug to exactly one tenant.
	agreed := matches[0].Slug
	for _, m := range matches[1:] {
		if m.Slug != agreed {
			return nil, &AmbiguityError{Matches: matches, Attempts: attempts}
		}
	}

	return bySlug[agreed], nil
}

// invoke runs one resolver, converting errors and panics into "no match".
func (c *Chain) invoke(ctx context.Context, nr NamedResolver, r *http.Request) (slug string) {
	defer func() {
		if p := recover(); p != nil {
			c.log.ErrorContext(ctx, "tenant resolver panicked",
				slog.String("resolver", nr.Name), slog.Any("panic", p))
			slug = ""
		}
	}()

	s, err := nr.Resolve(r)
	if err != nil {
		c.log.WarnContext(ctx, "tenant resolver failed",
			slog.String("resolver", nr.Name), slog.Any("error", err))
		return ""
	}
	return strings.TrimSpace(s)
}

// lookup resolves a slug through the registry, memoizing per chain run.
// Unknown slugs and registry failures both count as "no match" for the
// resolver that produced them.
func (c *Chain) lookup(ctx context.Context, resolver, slug string, memo map[string]*Tenant) *Tenant {
	if t, ok := memo[slug]; ok {
		return t
	}

	t, err := c.registry.GetBySlug(ctx, slug)
	if err != nil {
		memo[slug] = nil
		c.log.DebugContext(ctx, "tenant slug did not resolve",
			slog.String("resolver", resolver), slog.String("slug", slug), slog.Any("error", err))
		return nil
	}
	memo[slug] = t
	return t
}
