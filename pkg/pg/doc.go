// Package pg bootstraps PostgreSQL connectivity for the control plane and
// for per-tenant databases using the pgx/v5 driver.
//
// It exposes a small API: Config (populated from environment variables),
// Connect / ConnectTo (retrying pool constructors), Migrate (goose schema
// application, shared by control-plane and tenant baseline migrations),
// Healthcheck, and error classification helpers such as
// [IsDuplicateKeyError] and [IsInvalidCatalogError] so business code never
// inspects SQLSTATE codes directly.
package pg
