// Package provisioning creates new isolated tenants from single-use
// invitation tokens.
//
// A provisioning attempt moves through: token validation, database name
// derivation, uniqueness check, physical database creation, baseline schema
// application, admin account seeding, and finally one control-plane
// transaction that registers the tenant and consumes the invitation
// together. The invitation consume is a compare-and-set, so concurrent
// attempts on one token produce exactly one tenant.
package provisioning
