// Package main is the entry point for the tripost API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver for goose
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/tripost/backend/internal/cache"
	"github.com/tripost/backend/internal/config"
	"github.com/tripost/backend/internal/editor"
	"github.com/tripost/backend/internal/handler"
	"github.com/tripost/backend/internal/mapsync"
	"github.com/tripost/backend/internal/middleware"
	"github.com/tripost/backend/internal/places"
	"github.com/tripost/backend/internal/provider"
	"github.com/tripost/backend/internal/provider/googlemaps"
	"github.com/tripost/backend/internal/provider/nominatim"
	"github.com/tripost/backend/internal/repo"
	"github.com/tripost/backend/internal/service"
	"github.com/tripost/backend/internal/viewer"
	"github.com/tripost/backend/migrations"
	"github.com/tripost/backend/spec"
)

const (
	suggestLRUSize      = 1024
	editorSweepInterval = time.Minute
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := migrate(ctx, cfg.DatabaseURL); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Map provider -----------------------------------------------------
	// Without a usable Google client every capability stays nil and the
	// engine runs degraded: free-text places, no route, default map.
	ready := mapsync.NewReadiness()
	var deps editor.Deps
	deps.Readiness = ready

	var geocoders []mapsync.Geocoder
	gm, err := googlemaps.New(googlemaps.Config{
		APIKey:    cfg.Maps.APIKey,
		RateLimit: cfg.Maps.RateLimit,
		Language:  cfg.Maps.Language,
		Region:    cfg.Maps.Region,
		Logger:    logger,
	})
	if err != nil {
		slog.Warn("map provider unavailable", "error", err)
		ready.MarkFailed(err)
	} else {
		ready.Start(ctx, gm.Ping, cfg.Maps.ReadyTimeout)
		deps.Details = gm
		deps.Directions = gm
		geocoders = append(geocoders, gm)
	}
	ready.Subscribe(func(s mapsync.ReadyState) {
		_, err := ready.State()
		slog.Info("map provider settled", "state", s.String(), "error", err)
	})

	var fallback places.Fallback
	fallback.Logger = logger
	fallback.LegacyTypes = places.DefaultLegacyTypes
	if gm != nil {
		fallback.Primary = gm
		fallback.Legacy = gm.Legacy()
	}
	var store cache.SuggestStore
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		store = cache.NewRedisSuggestStore(rdb, cfg.Cache.SuggestTTL)
		slog.Info("suggestion cache: redis")
	} else {
		store = cache.NewLRUSuggestStore(suggestLRUSize, cfg.Cache.SuggestTTL)
		slog.Info("suggestion cache: in-process LRU")
	}
	deps.Suggester = &cache.CachedSuggester{Inner: &fallback, Store: store, Logger: logger}

	geocoders = append(geocoders, nominatim.New(nominatim.Config{Server: cfg.Nominatim.Server, Logger: logger}))
	geoCache, err := cache.OpenGeocodeCache(ctx, cfg.Cache.GeocodePath,
		provider.GeocodeChain{Geocoders: geocoders, Logger: logger}, cache.WithLogger(logger))
	if err != nil {
		slog.Error("failed to open geocode cache", "error", err)
		os.Exit(1)
	}
	defer geoCache.Close()
	deps.Geocoder = geoCache

	// --- Services ---------------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	trips := service.NewTripService(tripRepo)

	v := viewer.New(deps.Directions, ready, viewer.Config{Logger: logger})
	defer v.Close()
	views := service.NewViewerService(tripRepo, v)
	exports := service.NewExportService(views)

	editors := service.NewEditorService(trips, service.EditorOptions{
		Deps: deps,
		Config: editor.Config{
			Places: places.Config{
				Debounce:  cfg.Editor.SuggestDebounce,
				BlurGrace: cfg.Editor.BlurGrace,
				Language:  cfg.Maps.Language,
				Region:    cfg.Maps.Region,
			},
			Logger: logger,
		},
		IdleTimeout: cfg.Editor.IdleTimeout,
		Logger:      logger,
	})
	go editors.Run(ctx, editorSweepInterval)

	// --- Router -----------------------------------------------------------
	// RequestID -> RealIP -> SlogLogger -> Recoverer -> CORS -> body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	handler.NewServer(trips, views, exports, editors,
		handler.WithReadiness(ready),
		handler.WithOpenAPI(spec.OpenAPI),
		handler.WithLogger(logger),
	).Register(r)

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies the embedded schema migrations.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		slog.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
