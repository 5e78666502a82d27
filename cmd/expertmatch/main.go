package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/config"
	dbRedis "github.com/kailas-cloud/expertmatch/internal/db/redis"
	logpkg "github.com/kailas-cloud/expertmatch/internal/logger"
	"github.com/kailas-cloud/expertmatch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/expertmatch/internal/repository/catalog"
	searchlogrepo "github.com/kailas-cloud/expertmatch/internal/repository/searchlog"
	chiTransport "github.com/kailas-cloud/expertmatch/internal/transport/chi"
	semclient "github.com/kailas-cloud/expertmatch/internal/transport/semantic"
	healthuc "github.com/kailas-cloud/expertmatch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/expertmatch/internal/usecase/ingest"
	rankinguc "github.com/kailas-cloud/expertmatch/internal/usecase/ranking"
	"github.com/kailas-cloud/expertmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting expertmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("semantic_mode", cfg.Semantic.Mode),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create catalog store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog store not ready", zap.Error(err))
	}
	logger.Info("Connected to catalog store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	catalog := catalogrepo.New(store, cfg.Storage.KeyPrefix)
	searchLog := searchlogrepo.New(store, cfg.Storage.KeyPrefix, searchlogrepo.DefaultCap)

	// The semantic client is only built when the backend is enabled. With
	// mode "off" the pipeline never consults it and health skips the check.
	var semantic *semclient.Client
	var rankSemantic rankinguc.SemanticSearcher
	var healthSemantic healthuc.SemanticChecker
	if cfg.Semantic.Mode != string(rankinguc.SemanticOff) {
		semantic = semclient.NewClient(&semclient.Config{
			BaseURL: cfg.Semantic.BaseURL,
			Timeout: time.Duration(cfg.Semantic.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		rankSemantic = semantic
		healthSemantic = semantic
	}

	throttle := rankinguc.NewThrottle(
		time.Duration(cfg.Throttle.WindowSec)*time.Second,
		cfg.Throttle.MaxRequests,
		cfg.Throttle.MaxClients,
	)

	rankSvc := rankinguc.New(catalog, rankSemantic, searchLog, throttle, logger).
		WithWeights(rankinguc.Weights{
			Sem:  cfg.Match.WeightSemantic,
			Kw:   cfg.Match.WeightKeyword,
			Filt: cfg.Match.WeightFilter,
		}).
		WithSemanticMode(rankinguc.SemanticMode(cfg.Semantic.Mode))

	ingestSvc := ingestuc.New(catalog, logger)
	healthSvc := healthuc.New(store, healthSemantic)

	server := chiTransport.NewServer(
		rankSvc, catalog, ingestSvc, searchLog, healthSvc, cfg.Auth.APIKeys, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
