// Package app wires the sessiond runtime: config, logging, stores, lookups
// and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"sessiond/cmd/identity"
	"sessiond/cmd/internal/auth"
	authapi "sessiond/cmd/internal/auth/api"
	"sessiond/cmd/internal/auth/session"
	"sessiond/cmd/internal/device"
	"sessiond/cmd/internal/geo"
	"sessiond/cmd/security/password"
)

// App is the sessiond runtime: it owns the HTTP server and every
// long-lived resource behind it.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool
	redis  *redis.Client

	registry *prometheus.Registry
	handler  http.Handler
}

// stores groups the three persistence boundaries.
type stores struct {
	users    identity.Store
	devices  device.Store
	sessions session.Store
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	a := &App{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	users, err := identity.NewVerifier(st.users, pwCfg, log)
	if err != nil {
		return nil, err
	}

	geoLookup, err := a.geoLookup(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := device.NewResolver(st.devices, geo.NewIpify(cfg.IPLookupURL, cfg.GeoTimeout), geoLookup, log,
		device.WithLookupTimeout(cfg.GeoTimeout))
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewTokenCodec(sessCfg)
	if err != nil {
		return nil, err
	}
	hasher, err := tokenHasher(cfg)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewService(sessCfg, st.sessions, codec, hasher, log)
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewService(users, resolver, sessions,
		auth.WithLogger(log),
		auth.WithMetrics(auth.NewMetrics(a.registry)),
	)
	if err != nil {
		return nil, err
	}
	authHandler, err := authapi.NewHandler(log, svc, authapi.LoadConfigFromEnv(), pwCfg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, log, cfg, a.dbPool, a.registry, authHandler)
	a.handler = WithRequestLogging(mux, log, newHTTPMetrics(a.registry), mux)

	log.Info("app.ready",
		"db_enabled", a.dbPool != nil,
		"geo_cache", a.redis != nil,
		"token_format", string(sessCfg.Format),
		"token_hmac", hasher.Keyed(),
	)
	ok = true
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_store")
		return stores{
			users:    identity.NewMemoryStore(),
			devices:  device.NewMemoryStore(),
			sessions: session.NewMemoryStore(),
		}, nil
	}

	pool, err := NewDBPool(ctx, a.cfg, a.log)
	if err != nil {
		return stores{}, err
	}
	a.dbPool = pool
	a.log.Info("db.enabled.postgres_store", "schema", a.cfg.DBSchema)

	users, err := identity.NewPostgresStore(pool, identity.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return stores{}, err
	}
	devices, err := device.NewPostgresStore(pool, device.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return stores{}, err
	}
	sessions, err := session.NewPostgresStore(pool, session.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return stores{}, err
	}
	return stores{users: users, devices: devices, sessions: sessions}, nil
}

// geoLookup returns the geolocation client, behind the Redis cache when
// SESSIOND_REDIS_URL is set. An unreachable Redis at startup is fatal.
func (a *App) geoLookup(ctx context.Context) (geo.GeoLookup, error) {
	var lookup geo.GeoLookup = geo.NewIPAPI(a.cfg.GeoLookupURL, a.cfg.GeoTimeout, a.cfg.GeoRPM)
	if a.cfg.RedisURL == "" {
		return lookup, nil
	}

	rdb, err := geo.ConnectRedis(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	return geo.NewCachedLookup(lookup, rdb, a.cfg.GeoCacheTTL, a.log), nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
	}
	a.close()

	a.log.Info("server.stopped")
	return err
}

// close releases the pool and the Redis client. Safe to call more than once.
func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
