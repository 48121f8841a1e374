package provisioning_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tmskit/modules/provisioning"
)

func TestRouter(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*memControlPlane, http.Handler) {
		t.Helper()
		cp := newMemControlPlane()
		svc := testService(t, cp, newMemCluster())
		return cp, provisioning.Router(svc, nil)
	}

	post := func(h http.Handler, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("invitation lifecycle over HTTP", func(t *testing.T) {
		t.Parallel()

		_, h := setup(t)

		rec := post(h, "/invitations", `{"email":"owner@acme.test","label":"Acme Corp"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var inv provisioning.Invitation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
		require.NotEmpty(t, inv.Token)

		rec = post(h, "/provision", `{
			"token": "`+inv.Token+`",
			"organizationLabel": "Acme Corp",
			"contactEmail": "owner@acme.test",
			"adminAccount": {"name":"Ada","email":"ada@acme.test","username":"ada","password":"secret-pass"}
		}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var res provisioning.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "tenant_acme_corp", res.Tenant.DatabaseName)
		assert.NotEmpty(t, res.SessionCredential)

		// Listing no longer shows the consumed invitation.
		req := httptest.NewRequest(http.MethodGet, "/invitations", nil)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null\n", rec.Body.String())
	})

	t.Run("error mapping", func(t *testing.T) {
		t.Parallel()

		cp, h := setup(t)

		rec := post(h, "/provision", `not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = post(h, "/invitations", `{"label":"no email"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = post(h, "/provision", `{"token":"bogus","organizationLabel":"Acme","adminAccount":{"username":"a","password":"p"}}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid_token", body.Code)

		inv, err := provisioning.NewInvitation("a@b.test", "x", provisioning.DefaultInvitationTTL)
		require.NoError(t, err)
		require.NoError(t, cp.CreateInvitation(context.Background(), inv))

		rec = post(h, "/provision", `{"token":"`+inv.Token+`","organizationLabel":"***","adminAccount":{"username":"a","password":"p"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
