package dbname_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tmskit/pkg/dbname"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	t.Run("derives prefixed sanitized name", func(t *testing.T) {
		t.Parallel()

		name, err := dbname.Derive("Acme Corp")
		require.NoError(t, err)
		assert.Equal(t, "tenant_acme_corp", name)
	})

	t.Run("deterministic and idempotent", func(t *testing.T) {
		t.Parallel()

		first, err := dbname.Derive("Nørdic Logistics & Sons")
		require.NoError(t, err)
		second, err := dbname.Derive("Nørdic Logistics & Sons")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("collapses special character runs", func(t *testing.T) {
		t.Parallel()

		name, err := dbname.Derive("Fast -- Freight!! GmbH")
		require.NoError(t, err)
		assert.Equal(t, "tenant_fast_freight_gmbh", name)
	})

	t.Run("strips leading digits", func(t *testing.T) {
		t.Parallel()

		name, err := dbname.Derive("24-7 Haulage")
		require.NoError(t, err)
		assert.Equal(t, "tenant_haulage", name)
	})

	t.Run("rejects empty result", func(t *testing.T) {
		t.Parallel()

		_, err := dbname.Derive("!!! ***")
		assert.ErrorIs(t, err, dbname.ErrEmptyName)

		_, err = dbname.Derive("")
		assert.ErrorIs(t, err, dbname.ErrEmptyName)
	})

	t.Run("rejects reserved names", func(t *testing.T) {
		t.Parallel()

		for _, label := range []string{"postgres", "Template1", "admin"} {
			_, err := dbname.Derive(label)
			assert.ErrorIs(t, err, dbname.ErrReservedName, "label %q", label)
		}
	})

	t.Run("truncates to identifier limit", func(t *testing.T) {
		t.Parallel()

		long := "organization with an exceptionally verbose legal company name beyond limits"
		name, err := dbname.Derive(long)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(name), 63)
		assert.True(t, dbname.Valid(name))
	})
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, dbname.Valid("tenant_acme_corp"))
	assert.False(t, dbname.Valid("acme_corp"))       // missing prefix
	assert.False(t, dbname.Valid("tenant_"))         // empty remainder
	assert.False(t, dbname.Valid("tenant_Acme"))     // unsanitized charset
	assert.False(t, dbname.Valid("tenant_postgres")) // reserved
	assert.False(t, dbname.Valid("tenant_a;drop"))   // injection attempt
}
