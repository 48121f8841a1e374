package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tmskit/pkg/jwt"
	"github.com/dmitrymomot/tmskit/pkg/tenant"
)

func signedToken(t *testing.T, claims tenant.Claims) string {
	t.Helper()

	svc, err := jwt.NewFromString("resolver-test-signing-key-32-bytes!!")
	require.NoError(t, err)

	token, err := svc.Generate(claims)
	require.NoError(t, err)
	return token
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewHeaderResolver("")

	t.Run("resolves well-formed database name", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultOverrideHeader, "tenant_acme_corp")

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_acme_corp", b.DatabaseName)
	})

	t.Run("ignores missing header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})

	t.Run("ignores malformed database names", func(t *testing.T) {
		t.Parallel()

		for _, value := range []string{"acme", "tenant_", "tenant_Acme", "tenant_x;DROP DATABASE"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(tenant.DefaultOverrideHeader, value)

			_, ok := resolver.Resolve(req)
			assert.False(t, ok, "value %q", value)
		}
	})
}

func TestBearerResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.BearerResolver{}

	t.Run("resolves tenant claims without verification", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, tenant.Claims{DatabaseName: "tenant_x", OrganisationID: 12})

		// Corrupt the signature; routing must still work because the claim
		// is only a routing key, not an authorization.
		tampered := token[:len(token)-2] + "zz"

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tampered)

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_x", b.DatabaseName)
		assert.Equal(t, int64(12), b.TenantID)
	})

	t.Run("missing databaseName claim yields no binding", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, tenant.Claims{OrganisationID: 12})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})

	t.Run("missing organisationId claim yields no binding", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, tenant.Claims{DatabaseName: "tenant_x"})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})

	t.Run("malformed token yields no binding", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")

		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})

	t.Run("unprefixed database claim yields no binding", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, tenant.Claims{DatabaseName: "postgres", OrganisationID: 1})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})
}

func TestCookieResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewCookieResolver("")

	t.Run("resolves claims from cookie credential", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, tenant.Claims{DatabaseName: "tenant_y", OrganisationID: 4})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tenant.DefaultAuthCookie, Value: token})

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_y", b.DatabaseName)
		assert.Equal(t, int64(4), b.TenantID)
	})

	t.Run("no cookie yields no binding", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})
}

func TestIdentityResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.IdentityResolver{}

	t.Run("resolves typed claims from context", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := jwt.SetClaims(req.Context(), tenant.Claims{DatabaseName: "tenant_z", OrganisationID: 9})
		req = req.WithContext(ctx)

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_z", b.DatabaseName)
		assert.Equal(t, int64(9), b.TenantID)
	})

	t.Run("resolves map claims from generic middleware", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := jwt.SetClaims(req.Context(), map[string]any{
			"databaseName":   "tenant_w",
			"organisationId": float64(5),
		})
		req = req.WithContext(ctx)

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_w", b.DatabaseName)
		assert.Equal(t, int64(5), b.TenantID)
	})

	t.Run("no identity yields no binding", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})
}

func TestDefaultResolverPrecedence(t *testing.T) {
	t.Parallel()

	resolver := tenant.DefaultResolver()

	t.Run("header override beats bearer credential", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, tenant.Claims{DatabaseName: "tenant_from_jwt", OrganisationID: 2})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultOverrideHeader, "tenant_override")
		req.Header.Set("Authorization", "Bearer "+token)

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_override", b.DatabaseName)
	})

	t.Run("bearer beats cookie", func(t *testing.T) {
		t.Parallel()

		bearer := signedToken(t, tenant.Claims{DatabaseName: "tenant_bearer", OrganisationID: 2})
		cookie := signedToken(t, tenant.Claims{DatabaseName: "tenant_cookie", OrganisationID: 3})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		req.AddCookie(&http.Cookie{Name: tenant.DefaultAuthCookie, Value: cookie})

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_bearer", b.DatabaseName)
	})

	t.Run("cookie beats authenticated identity", func(t *testing.T) {
		t.Parallel()

		cookie := signedToken(t, tenant.Claims{DatabaseName: "tenant_cookie", OrganisationID: 3})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tenant.DefaultAuthCookie, Value: cookie})
		req = req.WithContext(jwt.SetClaims(req.Context(),
			tenant.Claims{DatabaseName: "tenant_identity", OrganisationID: 8}))

		b, ok := resolver.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "tenant_cookie", b.DatabaseName)
	})

	t.Run("nothing resolvable yields no binding", func(t *testing.T) {
		t.Parallel()

		// Credential present but without a databaseName claim; no override,
		// no identity. Resolution must produce nothing, never a default.
		token := signedToken(t, tenant.Claims{
			StandardClaims: jwt.StandardClaims{Subject: "user-1", ExpiresAt: time.Now().Add(time.Hour).Unix()},
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, ok := resolver.Resolve(req)
		assert.False(t, ok)
	})
}
