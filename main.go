package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/smartpad/landing/backend/auth"
	"github.com/smartpad/landing/backend/helipads"
	"github.com/smartpad/landing/backend/internal/config"
	"github.com/smartpad/landing/backend/internal/logging"
	"github.com/smartpad/landing/backend/landing"
	"github.com/smartpad/landing/backend/rbac"
	"github.com/smartpad/landing/backend/recommend"
)

func main() {
	configPath := flag.String("config", os.Getenv("SMARTPAD_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	store, storeCloser, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer storeCloser.Close()

	if err := seedHelipads(ctx, store, cfg.Helipads.Seed); err != nil {
		return fmt.Errorf("seed helipads: %w", err)
	}

	rules, err := cfg.RuleRegistry()
	if err != nil {
		return err
	}

	keys := make([]auth.Entry, 0, len(cfg.Auth.Keys))
	for _, k := range cfg.Auth.Keys {
		keys = append(keys, auth.Entry{Key: k.Key, Subject: k.Subject, Roles: k.Roles})
	}
	keyring, err := auth.NewKeyring(keys, cfg.Auth.AnonymousRoles)
	if err != nil {
		return fmt.Errorf("configure api keys: %w", err)
	}
	if !keyring.Enabled() {
		lg.Warn("no API keys configured; all callers get the anonymous roles", "roles", cfg.Auth.AnonymousRoles)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cfg, store, rules, keyring, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		lg.Info("listening", "addr", srv.Addr, "database", cfg.Database.Driver, "default_rule_set", rules.DefaultName())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// newRouter wires the HTTP surface. The WebSocket session is registered
// outside the request timeout group.
func newRouter(cfg *config.Config, store helipads.Store, rules *landing.Registry, keyring *auth.Keyring, lg *slog.Logger) http.Handler {
	enforcer := rbac.NewEnforcer(auth.Roles)
	svc := recommend.NewService(rules, store, cfg.Helipads.MatchRadiusNM, lg)
	landingHandler := recommend.NewHandler(svc, recommend.NewLastResults(cfg.Cache.Size, cfg.Cache.TTL), cfg.Server.AllowedOrigins, lg)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.Middleware(lg),
		middleware.Recoverer,
	)
	router.Use(keyring.Middleware)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Mount("/api/rbac", rbac.NewHandler(enforcer).Routes())
		r.Mount("/api/helipads", helipads.NewHandler(store, cfg.Helipads.MatchRadiusNM).Routes(enforcer))
		r.Mount("/api/landing", landingHandler.Routes(enforcer))
		r.With(enforcer.Authorize(rbac.PermissionRequestRecommendation)).Post("/recommend", landingHandler.ServeRecommend)
	})
	router.With(enforcer.Authorize(rbac.PermissionRequestRecommendation)).Get("/api/landing/ws", landingHandler.ServeWS)

	return router
}

// openStore returns the helipad store selected by cfg.Database.Driver.
func openStore(ctx context.Context, cfg *config.Config) (helipads.Store, io.Closer, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := helipads.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		store := helipads.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, closerFunc(func() error { pool.Close(); return nil }), nil
	case config.DriverSQLite:
		store, err := helipads.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return helipads.NewMemoryStore(), closerFunc(func() error { return nil }), nil
	}
}

// seedHelipads loads the configured helipads into an empty store.
func seedHelipads(ctx context.Context, store helipads.Store, seeds []config.HelipadSeed) error {
	if len(seeds) == 0 {
		return nil
	}
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, seed := range seeds {
		table, err := landing.ParseObstacleTable(seed.Obstacles)
		if err != nil {
			return fmt.Errorf("%s: %w", seed.Name, err)
		}
		_, err = store.Create(ctx, helipads.Helipad{
			Name:        seed.Name,
			Latitude:    seed.Latitude,
			Longitude:   seed.Longitude,
			ElevationFt: seed.ElevationFt,
			Description: seed.Description,
			Obstacles:   table,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", seed.Name, err)
		}
	}
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
