package tenant

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the tenant binding for every request and stores it on
// the request context. Requests with no resolvable tenant pass through
// WITHOUT a binding, since public endpoints must still be served, and are
// rejected later by RequireTenant or by the context accessors. The
// middleware never substitutes a default tenant.
//
// When a registry is supplied, the resolved database name is additionally
// validated against it: unknown databases are rejected, deactivated tenants
// are rejected, and the full tenant record is attached to the context.
// The registry is wrapped in a CachedRegistry built from the cache options,
// so lookups on the hot path are cached and updates through the same wrapper
// evict their entries; pass a CachedRegistry to share one across consumers.
func Middleware(resolver Resolver, registry Registry, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		cache:         NewInMemoryCache(),
		cacheTTL:      DefaultCacheTTL,
		errorHandler:  defaultErrorHandler,
		requireActive: true,
		touchAccess:   true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if registry != nil {
		if _, cached := registry.(*CachedRegistry); !cached {
			registry = NewCachedRegistry(registry, cfg.cache, cfg.cacheTTL)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			binding, ok := resolver.Resolve(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			if registry != nil {
				t, err := registry.FindByDatabase(ctx, binding.DatabaseName)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				if cfg.requireActive && !t.Active() {
					cfg.errorHandler(w, r, ErrInactiveTenant)
					return
				}
				// The header override carries no tenant id; fill it from the
				// registry record.
				if binding.TenantID == 0 {
					binding.TenantID = t.ID
				}
				if cfg.touchAccess {
					if err := registry.TouchAccess(ctx, t.ID); err != nil {
						cfg.logger.WarnContext(ctx, "failed to record tenant access",
							"database", binding.DatabaseName, "error", err)
					}
				}
				ctx = WithTenant(ctx, t)
			}

			ctx = WithBinding(ctx, binding)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests whose context carries no tenant binding.
// Placed after Middleware on every tenant-scoped route.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := DatabaseNameFromContext(r.Context()); err != nil {
				errorHandler(w, r, ErrNoTenantContext)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
