// Package jwt implements a minimal HMAC-SHA256 JWT codec: token generation,
// full verification, and an explicitly-unverified claims decode used for
// tenant routing before authentication.
//
// The unverified decode ([DecodeUnverified]) deserves a caveat: it reads
// claims without checking the signature and exists solely so the tenant
// resolver can learn which database a request addresses before the
// tenant-scoped credential check runs. Nothing read through it may be used
// for authorization.
package jwt
