package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdash/internal/config"
	"github.com/kailas-cloud/facetdash/internal/db"
	dbRedis "github.com/kailas-cloud/facetdash/internal/db/redis"
	logpkg "github.com/kailas-cloud/facetdash/internal/logger"
	"github.com/kailas-cloud/facetdash/internal/metrics"
	dashboardrepo "github.com/kailas-cloud/facetdash/internal/repository/dashboard"
	termsrepo "github.com/kailas-cloud/facetdash/internal/repository/terms"
	chiTransport "github.com/kailas-cloud/facetdash/internal/transport/chi"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/facetdash/internal/usecase/health"
	"github.com/kailas-cloud/facetdash/internal/usecase/resolve"
	"github.com/kailas-cloud/facetdash/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting facetdash API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("search_index", cfg.Search.Index),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	if cfg.Search.EnsureIndex {
		ensureSearchIndex(ctx, store, cfg.Search, logger)
	}

	metrics.RegisterQueryMetrics()

	// Repositories
	dashRepo := dashboardrepo.New(store, cfg.Database.KeyPrefix)
	var terms *termsrepo.Repo
	if cfg.Search.Index != "" {
		terms = termsrepo.New(store, cfg.Search.Index)
	} else {
		logger.Warn("search.index is not set, topN queries will fail to resolve")
	}

	// Use cases. Pass a nil interface, not a typed nil pointer, when terms is unset.
	var termsSource resolve.TermsSource
	if terms != nil {
		termsSource = terms
	}
	dashSvc := dashboarduc.New(dashRepo, termsSource, logger).
		WithResolveTimeout(time.Duration(cfg.Search.ResolveTimeoutSec) * time.Second)

	var indexChecker healthuc.IndexChecker = store
	healthSvc := healthuc.New(store, indexChecker, cfg.Search.Index)

	server := chiTransport.NewServer(dashSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"not_found","message":"route not found"}`))
	})
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// ensureSearchIndex creates the aggregation index from config when it is missing.
func ensureSearchIndex(ctx context.Context, store db.Store, cfg config.SearchConfig, logger *zap.Logger) {
	b := db.NewIndex(cfg.Index).Prefix(cfg.Prefixes...)
	if cfg.Storage == "json" {
		b = b.OnJSON()
	}
	for _, f := range cfg.Fields {
		b = b.Field(f.Name, db.IndexFieldType(f.Type))
	}
	def, err := b.Build()
	if err != nil {
		logger.Fatal("Invalid search index definition", zap.Error(err))
	}

	created, err := termsrepo.EnsureIndex(ctx, store, def)
	if err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}
	logger.Info("Search index ready",
		zap.String("index", def.Name),
		zap.Bool("created", created),
		zap.Int("fields", len(def.Fields)),
	)
}
