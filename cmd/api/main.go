package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disaster-platform/internal/auth"
	"disaster-platform/internal/cache"
	"disaster-platform/internal/config"
	"disaster-platform/internal/disaster"
	"disaster-platform/internal/event"
	"disaster-platform/internal/lookup"
	"disaster-platform/internal/migrate"
	"disaster-platform/internal/resource"
	"disaster-platform/pkg/logger"
	"disaster-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, utils.PostgresConfig{DSN: cfg.PostgresDSN()})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrate.EnsureSchema(rootCtx, db); err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	resolver, err := newResolver(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// One broadcaster per process, injected into everything that
	// publishes or subscribes.
	bus := event.NewBroadcaster()
	defer bus.Close()

	store := cache.NewRedisStore(rdb)
	disasterRepo := disaster.NewPostgresRepo(db)
	disasters := disaster.NewService(disasterRepo, bus)
	resources := resource.NewService(resource.NewPostgresRepo(db))
	lookups := lookup.NewGateway(
		store,
		disasterRepo,
		bus,
		lookup.Config{
			TTL:                cfg.Lookup.TTL,
			Timeout:            cfg.Lookup.Timeout,
			NegativeGeocodeTTL: cfg.Lookup.NegativeGeocodeTTL,
		},
		lookup.PassthroughExtractor{},
		lookup.NewNominatimGeocoder(cfg.Lookup.GeocoderBaseURL, cfg.Lookup.GeocoderUserAgent),
		lookup.MockSocialFeed{},
		lookup.StaticUpdatesFeed{},
		lookup.StubImageVerifier{},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:       cfg,
		resolver:  resolver,
		db:        db,
		rdb:       rdb,
		disasters: disasters,
		resources: resources,
		lookups:   lookups,
		bus:       bus,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: the SSE stream holds its response open.
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	// Closing the broadcaster first terminates the open SSE streams so
	// Shutdown can drain them.
	bus.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func newResolver(cfg config.AuthConfig) (auth.Resolver, error) {
	if cfg.Mode == "jwt" {
		return auth.NewJWTResolver(cfg.JWTSecret)
	}
	return auth.NewHeaderResolver(), nil
}
