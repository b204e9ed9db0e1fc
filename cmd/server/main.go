/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Query server entrypoint: config -> logger -> Postgres
             pool -> schema migration -> optional Redis cache
             broadcast -> aggregate engine -> HTTP router -> graceful
             shutdown.
Root Cause:  Sprint task T240 — replaces the LLM gateway's provider-
             registration entrypoint with the analytics query server's
             wiring.
Context:     Redis is optional (config.RedisEnabled); when disabled the
             server runs with single-process cache invalidation only,
             and when enabled but unreachable at startup it logs a
             warning and does the same.
Suitability: L3 — process wiring and shutdown ordering.
──────────────────────────────────────────────────────────────
*/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sgpropanalytics/condocore/config"
	"github.com/sgpropanalytics/condocore/internal/aggregate"
	"github.com/sgpropanalytics/condocore/internal/cache"
	"github.com/sgpropanalytics/condocore/internal/httpapi"
	"github.com/sgpropanalytics/condocore/internal/pg"
	"github.com/sgpropanalytics/condocore/logger"
	"github.com/sgpropanalytics/condocore/observability"
	"github.com/sgpropanalytics/condocore/redisclient"
	"github.com/sgpropanalytics/condocore/router"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	migrator, err := pg.NewMigrator(pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load schema migrations")
	}
	if err := migrator.MigrateUp(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	cacheEngine, err := cache.New(cfg.CacheMaxEntries, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create cache engine")
	}

	origin := uuid.New().String()
	var broadcaster *cache.Broadcaster
	var redisClient *redisclient.Client
	if cfg.RedisEnabled {
		redisClient, err = redisclient.New(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("redis client construction failed, running with single-process cache only")
		} else if err := redisClient.Ping(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup, running with single-process cache only")
			redisClient = nil
		}
	}
	if redisClient != nil {
		broadcaster = cache.NewBroadcaster(cacheEngine, redisClient, origin, log)
		go subscribeInvalidations(ctx, redisClient, broadcaster, log)
		defer redisClient.Close()
	}

	engine := aggregate.New(pool)
	metrics := observability.NewMetrics(log)
	tracer := observability.NewTracer(log, observability.NewLogExporter(log), 1.0)
	defer tracer.Shutdown()

	api := &httpapi.API{
		Pool:        pool,
		Engine:      engine,
		Cache:       cacheEngine,
		Broadcaster: broadcaster,
		Logger:      log,
	}

	handler := router.NewRouter(router.Deps{
		Config:  cfg,
		Logger:  log,
		API:     api,
		Metrics: metrics,
		Tracer:  tracer,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	go monitorDBHealth(ctx, pool, metrics, log)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("query server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// subscribeInvalidations applies cache-invalidation messages published
// by peer processes. Exits when ctx is cancelled.
func subscribeInvalidations(ctx context.Context, client *redisclient.Client, b *cache.Broadcaster, log zerolog.Logger) {
	sub := client.Subscribe(ctx, cache.Channel())
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.Apply(msg.Payload)
		}
	}
}

// monitorDBHealth periodically pings the pool and records the result,
// so /metrics' condocore_db_healthy gauge reflects reality between
// requests rather than only when /ready happens to be called.
func monitorDBHealth(ctx context.Context, pool *pgxpool.Pool, metrics *observability.Metrics, log zerolog.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := pool.Ping(pingCtx)
			cancel()
			metrics.TrackDBHealth(err == nil)
			if err != nil {
				log.Warn().Err(err).Msg("db health check failed")
			}
		}
	}
}
