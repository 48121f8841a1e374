// Package tenant binds inbound requests to exactly one tenant's isolated
// database and provides the only sanctioned accessors through which
// downstream code reaches tenant state.
//
// # Resolution
//
// A [Resolver] chain determines the binding per request in strict precedence
// order: trusted header override, unverified bearer credential decode,
// unverified cookie credential decode, previously authenticated identity.
// Resolution failure is not an error. It is the absence of context, which
// [RequireTenant] and the context accessors convert into an authentication
// failure. There is no default tenant to fall back to.
//
// # Registry
//
// The [Registry] is the control-plane store of record for tenant existence.
// The pgx-backed implementation lives in this package; a pluggable [Cache]
// (in-memory or Redis) absorbs the hot-path lookups the middleware performs.
package tenant
