package tenant

import "github.com/dmitrymomot/tmskit/pkg/jwt"

// Claims is the tenant-bearing JWT claim set issued at login and after
// provisioning. The databaseName and organisationId claim names are part of
// the wire contract with existing clients.
type Claims struct {
	jwt.StandardClaims
	DatabaseName   string `json:"databaseName,omitempty"`
	OrganisationID int64  `json:"organisationId,omitempty"`
}

// Binding returns the tenant binding carried by the claims, or false when
// either tenant claim is absent.
func (c Claims) Binding() (Binding, bool) {
	if c.DatabaseName == "" || c.OrganisationID == 0 {
		return Binding{}, false
	}
	return Binding{DatabaseName: c.DatabaseName, TenantID: c.OrganisationID}, true
}
