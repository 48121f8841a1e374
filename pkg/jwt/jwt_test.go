package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tmskit/pkg/jwt"
)

type tenantClaims struct {
	jwt.StandardClaims
	DatabaseName   string `json:"databaseName,omitempty"`
	OrganisationID int64  `json:"organisationId,omitempty"`
}

func TestServiceGenerateParse(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!!")
	require.NoError(t, err)

	t.Run("round trip preserves claims", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(tenantClaims{
			StandardClaims: jwt.StandardClaims{
				Subject:   "42",
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
			DatabaseName:   "tenant_acme_corp",
			OrganisationID: 7,
		})
		require.NoError(t, err)

		var parsed tenantClaims
		require.NoError(t, svc.Parse(token, &parsed))
		assert.Equal(t, "tenant_acme_corp", parsed.DatabaseName)
		assert.Equal(t, int64(7), parsed.OrganisationID)
		assert.Equal(t, "42", parsed.Subject)
	})

	t.Run("rejects tampered signature", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(tenantClaims{DatabaseName: "tenant_x"})
		require.NoError(t, err)

		var parsed tenantClaims
		err = svc.Parse(token+"x", &parsed)
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(tenantClaims{
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(-time.Minute).Unix(),
			},
		})
		require.NoError(t, err)

		var parsed tenantClaims
		assert.ErrorIs(t, svc.Parse(token, &parsed), jwt.ErrExpiredToken)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		t.Parallel()

		var parsed tenantClaims
		assert.ErrorIs(t, svc.Parse("not-a-jwt", &parsed), jwt.ErrInvalidToken)
	})
}

func TestDecodeUnverified(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!!")
	require.NoError(t, err)

	t.Run("reads claims without signature check", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(tenantClaims{DatabaseName: "tenant_x", OrganisationID: 3})
		require.NoError(t, err)

		// Corrupt the signature; the claims must still decode.
		tampered := token[:len(token)-2] + "zz"

		var decoded tenantClaims
		require.NoError(t, jwt.DecodeUnverified(tampered, &decoded))
		assert.Equal(t, "tenant_x", decoded.DatabaseName)
		assert.Equal(t, int64(3), decoded.OrganisationID)
	})

	t.Run("reads claims of expired token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(tenantClaims{
			StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()},
			DatabaseName:   "tenant_y",
		})
		require.NoError(t, err)

		var decoded tenantClaims
		require.NoError(t, jwt.DecodeUnverified(token, &decoded))
		assert.Equal(t, "tenant_y", decoded.DatabaseName)
	})

	t.Run("fails on malformed token", func(t *testing.T) {
		t.Parallel()

		var decoded tenantClaims
		assert.ErrorIs(t, jwt.DecodeUnverified("abc.def", &decoded), jwt.ErrInvalidToken)
	})
}
