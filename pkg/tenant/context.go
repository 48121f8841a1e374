package tenant

import (
	"context"
	"log/slog"
)

// Binding is the request-scoped outcome of tenant resolution: which physical
// database and tenant id one inbound request is bound to. It is derived once
// per request, read many times, and never shared between requests.
//
// TenantID may be zero when the binding came from the trusted header
// override, which carries only a database name.
type Binding struct {
	DatabaseName string
	TenantID     int64
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// tenantKey stores the full Tenant when the middleware loaded it from the
// registry.
type tenantKey struct{}

// WithBinding attaches a resolved tenant binding to the context.
func WithBinding(ctx context.Context, b Binding) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// BindingFromContext retrieves the tenant binding from the context.
func BindingFromContext(ctx context.Context) (Binding, bool) {
	b, ok := ctx.Value(contextKey{}).(Binding)
	return b, ok
}

// DatabaseNameFromContext returns the physical database name the request is
// bound to. Every tenant-scoped data access must obtain its database through
// this accessor; it fails with ErrNoTenantContext when resolution produced
// nothing, which callers must surface as an authentication failure.
func DatabaseNameFromContext(ctx context.Context) (string, error) {
	b, ok := BindingFromContext(ctx)
	if !ok || b.DatabaseName == "" {
		return "", ErrNoTenantContext
	}
	return b.DatabaseName, nil
}

// IDFromContext returns the tenant id the request is bound to, failing with
// ErrNoTenantContext when no id was resolved.
func IDFromContext(ctx context.Context) (int64, error) {
	b, ok := BindingFromContext(ctx)
	if !ok || b.TenantID == 0 {
		return 0, ErrNoTenantContext
	}
	return b.TenantID, nil
}

// WithTenant attaches the full tenant record to the context in addition to
// the binding.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// FromContext retrieves the full tenant record if the middleware loaded one.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*Tenant)
	return t, ok
}

// LoggerExtractor returns a logger context extractor that annotates every
// log record with the resolved database name.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if b, ok := BindingFromContext(ctx); ok && b.DatabaseName != "" {
			return slog.String("database", b.DatabaseName), true
		}
		return slog.Attr{}, false
	}
}
