package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"tendercortex.app/cortex/common/id"
	"tendercortex.app/cortex/common/logger"
	"tendercortex.app/cortex/common/otel"
	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/brain"
	"tendercortex.app/cortex/internal/cache"
	"tendercortex.app/cortex/internal/container"
	"tendercortex.app/cortex/internal/http/handler"
	"tendercortex.app/cortex/internal/http/middleware"
	httprouter "tendercortex.app/cortex/internal/http/router"
	"tendercortex.app/cortex/internal/retrieval"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "cortex starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	store, err := setupCache(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize response cache", "error", err)
		os.Exit(1)
	}

	retrievalSvc, err := setupRetrieval(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize retrieval backend", "error", err)
		os.Exit(1)
	}

	deps := container.New(cfg)
	pipeline := brain.NewPipeline(
		retrievalSvc,
		deps.Pool(),
		deps.Factory(),
		deps.Analyzer(),
		deps.Sentinel(),
		cfg.Pipeline,
	)
	runner, err := brain.NewRunner(pipeline)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build pipeline graph", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, runner, retrievalSvc, store)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Long enough for a full refine loop over a slow LLM.
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupCache(ctx context.Context, cfg config.Config) (cache.Store, error) {
	if !cfg.Cache.UseRedis() {
		slog.InfoContext(ctx, "response cache: in-memory",
			"max_size", cfg.Cache.MaxSize, "ttl", cfg.Cache.TTL())
		return cache.NewMemory(cfg.Cache.MaxSize, cfg.Cache.TTL()), nil
	}

	store, err := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.TTL())
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "response cache: redis", "ttl", cfg.Cache.TTL())
	return store, nil
}

func setupRetrieval(ctx context.Context, cfg config.Config) (retrieval.Service, error) {
	if !cfg.Typesense.Enabled() {
		slog.InfoContext(ctx, "retrieval backend: in-memory")
		return retrieval.NewMemory(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap), nil
	}

	svc := retrieval.NewTypesense(cfg.Typesense, cfg.Ingest)
	if err := svc.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	if err := svc.HealthCheck(ctx); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "retrieval backend: typesense", "collection", cfg.Typesense.Collection)
	return svc, nil
}

func setupRouter(cfg config.Config, runner *brain.Runner, svc retrieval.Service, store cache.Store) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	chatHandler := handler.NewChatHandler(runner, store)
	indexHandler := handler.NewIndexHandler(svc, store)
	httprouter.SetupRoutes(router, chatHandler, indexHandler, httprouter.RouterConfig{
		Env: cfg.Env,
	})

	return router
}

const banner = `
 ██████╗ ██████╗ ██████╗ ████████╗███████╗██╗  ██╗
██╔════╝██╔═══██╗██╔══██╗╚══██╔══╝██╔════╝╚██╗██╔╝
██║     ██║   ██║██████╔╝   ██║   █████╗   ╚███╔╝
██║     ██║   ██║██╔══██╗   ██║   ██╔══╝   ██╔██╗
╚██████╗╚██████╔╝██║  ██║   ██║   ███████╗██╔╝ ██╗
 ╚═════╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚══════╝╚═╝  ╚═╝
`
