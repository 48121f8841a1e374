package tenant

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/tmskit/pkg/dbname"
	"github.com/dmitrymomot/tmskit/pkg/jwt"
)

// DefaultOverrideHeader is the trusted per-request override header carrying
// a physical database name directly. Intended for narrow, audited use by
// internal tools acting on behalf of a tenant, not the general request path.
const DefaultOverrideHeader = "X-Tenant-Database"

// DefaultAuthCookie is the cookie browser clients carry the bearer
// credential in when no Authorization header is present.
const DefaultAuthCookie = "auth_token"

// Resolver determines the tenant binding for an inbound request.
//
// Resolution never errors: a malformed or claim-less credential carries no
// trustworthy tenant hint either way, so every failure collapses into
// "no binding", and the authentication layer rejects the request downstream.
// There is no default tenant.
type Resolver interface {
	// Resolve extracts the tenant binding from the request.
	// Returns false if the request carries no resolvable tenant.
	Resolve(r *http.Request) (Binding, bool)
}

// ResolverFunc adapts ordinary functions to the Resolver interface.
type ResolverFunc func(r *http.Request) (Binding, bool)

func (f ResolverFunc) Resolve(r *http.Request) (Binding, bool) {
	return f(r)
}

// HeaderResolver reads a physical database name directly from a trusted
// override header. The value must be a well-formed derived tenant database
// name; anything else is ignored.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a header resolver, defaulting to
// DefaultOverrideHeader.
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = DefaultOverrideHeader
	}
	return &HeaderResolver{HeaderName: headerName}
}

func (h *HeaderResolver) Resolve(r *http.Request) (Binding, bool) {
	value := strings.TrimSpace(r.Header.Get(h.HeaderName))
	if value == "" || !dbname.Valid(value) {
		return Binding{}, false
	}
	return Binding{DatabaseName: value}, true
}

// BearerResolver decodes the bearer credential WITHOUT verifying it and
// reads the tenant claims. The binding must be knowable before full
// authentication because authentication itself is tenant-scoped: different
// tenants may hold colliding usernames in distinct credential stores. The
// decoded claims are used exclusively as a routing key and authorize
// nothing.
type BearerResolver struct{}

func (BearerResolver) Resolve(r *http.Request) (Binding, bool) {
	raw, err := jwt.BearerTokenExtractor(r)
	if err != nil {
		return Binding{}, false
	}
	return bindingFromToken(raw)
}

// CookieResolver applies the same unverified decode to a credential carried
// in a named cookie when no header credential is present.
type CookieResolver struct {
	CookieName string
}

// NewCookieResolver creates a cookie resolver, defaulting to
// DefaultAuthCookie.
func NewCookieResolver(cookieName string) *CookieResolver {
	if cookieName == "" {
		cookieName = DefaultAuthCookie
	}
	return &CookieResolver{CookieName: cookieName}
}

func (c *CookieResolver) Resolve(r *http.Request) (Binding, bool) {
	cookie, err := r.Cookie(c.CookieName)
	if err != nil || cookie.Value == "" {
		return Binding{}, false
	}
	return bindingFromToken(cookie.Value)
}

// IdentityResolver falls back to the tenant fields of an identity a prior
// middleware already fully authenticated and attached to the request
// context.
type IdentityResolver struct{}

func (IdentityResolver) Resolve(r *http.Request) (Binding, bool) {
	ctx := r.Context()

	if claims, ok := jwt.GetClaims[Claims](ctx); ok {
		return claims.Binding()
	}

	// The generic JWT middleware stores claims as a map.
	if m, ok := jwt.GetClaims[map[string]any](ctx); ok {
		database, _ := m["databaseName"].(string)
		id, _ := m["organisationId"].(float64)
		if database != "" && id != 0 {
			return Binding{DatabaseName: database, TenantID: int64(id)}, true
		}
	}

	return Binding{}, false
}

// ChainResolver tries resolvers in order; the first binding wins.
type ChainResolver struct {
	Resolvers []Resolver
}

// NewChainResolver creates a chain resolver.
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{Resolvers: resolvers}
}

func (c *ChainResolver) Resolve(r *http.Request) (Binding, bool) {
	for _, resolver := range c.Resolvers {
		if b, ok := resolver.Resolve(r); ok {
			return b, true
		}
	}
	return Binding{}, false
}

// DefaultResolver returns the production resolution chain in its strict
// precedence order: trusted header override, unverified bearer decode,
// unverified cookie decode, previously authenticated identity.
func DefaultResolver() Resolver {
	return NewChainResolver(
		NewHeaderResolver(""),
		BearerResolver{},
		NewCookieResolver(""),
		IdentityResolver{},
	)
}

// bindingFromToken reads tenant claims out of a credential without
// verification. Malformed tokens and tokens missing either tenant claim
// yield no binding.
func bindingFromToken(raw string) (Binding, bool) {
	var claims Claims
	if err := jwt.DecodeUnverified(raw, &claims); err != nil {
		return Binding{}, false
	}
	if !dbname.Valid(claims.DatabaseName) {
		return Binding{}, false
	}
	return claims.Binding()
}
