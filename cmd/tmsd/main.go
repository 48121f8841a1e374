package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tmskit/modules/provisioning"
	"github.com/dmitrymomot/tmskit/pkg/config"
	"github.com/dmitrymomot/tmskit/pkg/dbpool"
	"github.com/dmitrymomot/tmskit/pkg/httpserver"
	"github.com/dmitrymomot/tmskit/pkg/jwt"
	"github.com/dmitrymomot/tmskit/pkg/logger"
	"github.com/dmitrymomot/tmskit/pkg/pg"
	"github.com/dmitrymomot/tmskit/pkg/redis"
	"github.com/dmitrymomot/tmskit/pkg/tenant"
)

type appConfig struct {
	Env           string `env:"APP_ENV" envDefault:"production"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	TenantMigrationsPath string `env:"TENANT_MIGRATIONS_PATH" envDefault:"migrations/tenant"`

	PoolOpenTimeout   time.Duration `env:"DBPOOL_OPEN_TIMEOUT" envDefault:"10s"`
	PoolEvictInterval time.Duration `env:"DBPOOL_EVICT_INTERVAL" envDefault:"1m"`
	PoolMaxIdle       time.Duration `env:"DBPOOL_MAX_IDLE" envDefault:"15m"`
	PoolDrainTimeout  time.Duration `env:"DBPOOL_DRAIN_TIMEOUT" envDefault:"10s"`
}

func main() {
	var (
		appCfg   appConfig
		pgCfg    pg.Config
		httpCfg  httpserver.Config
		provCfg  provisioning.Config
		redisCfg redis.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&provCfg)
	config.MustLoad(&redisCfg)

	var logOpts []logger.Option
	if appCfg.Env == "development" {
		logOpts = append(logOpts, logger.WithDevelopment("tmsd"))
	} else {
		logOpts = append(logOpts, logger.WithProduction("tmsd"))
	}
	logOpts = append(logOpts, logger.WithContextExtractors(tenant.LoggerExtractor()))
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	if err := run(context.Background(), appCfg, pgCfg, httpCfg, provCfg, redisCfg, log); err != nil {
		log.Error("tmsd exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig, pgCfg pg.Config, httpCfg httpserver.Config, provCfg provisioning.Config, redisCfg redis.Config, log *slog.Logger) error {
	controlPlane, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer controlPlane.Close()

	if err := pg.Migrate(ctx, controlPlane, pgCfg.MigrationsPath, pgCfg.MigrationsTable, log); err != nil {
		return err
	}

	jwtSvc, err := jwt.NewFromString(appCfg.JWTSigningKey)
	if err != nil {
		return err
	}

	pools := dbpool.NewManager(dbpool.PgxOpener(pgCfg),
		dbpool.WithOpenTimeout(appCfg.PoolOpenTimeout),
		dbpool.WithLogger(log),
	)
	pools.StartEvictor(ctx, appCfg.PoolEvictInterval, appCfg.PoolMaxIdle)

	registry := tenant.NewPgRegistry(controlPlane)

	tenantOpts := []tenant.Option{
		tenant.WithSkipPaths([]string{"/health", "/provisioning"}),
		tenant.WithLogger(log),
	}
	readiness := []func(context.Context) error{pg.Healthcheck(controlPlane)}
	if redisCfg.Enabled() {
		redisClient, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		tenantOpts = append(tenantOpts, tenant.WithCache(tenant.NewRedisCache(redisClient)))
		readiness = append(readiness, redis.Healthcheck(redisClient))
	}

	provSvc := provisioning.NewService(
		provisioning.NewPgControlPlane(controlPlane),
		provisioning.NewPgCluster(controlPlane, pgCfg, appCfg.TenantMigrationsPath,
			provisioning.WithClusterLogger(log)),
		jwtSvc,
		provCfg,
		log,
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(tenant.Middleware(tenant.DefaultResolver(), registry, tenantOpts...))

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, readiness...))
	r.Mount("/provisioning", provisioning.Router(provSvc, log))

	// Everything below this point runs against the caller's tenant database.
	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireTenant(nil))
		r.Get("/whoami", whoami(pools))
	})

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("tmsd listening", "addr", httpCfg.Addr)
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			pools.CloseAll(appCfg.PoolDrainTimeout)
			l.Info("tenant pools drained")
		}),
	)

	return srv.Run(ctx, r)
}

// whoami reports the resolved tenant and proves the data path by pinging the
// tenant's own database through the pool manager.
func whoami(pools *dbpool.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		database, err := tenant.DatabaseNameFromContext(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		conn, err := pools.Get(ctx, database)
		if err != nil {
			http.Error(w, "tenant database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := conn.Ping(ctx); err != nil {
			http.Error(w, "tenant database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(database))
	}
}
