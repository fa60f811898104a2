package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/zhenhai-edu/zhenzhen-gateway/internal/auth"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/chat"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/config"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/filter"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/gate"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/gateway"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/history"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/ratelimit"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/render"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/router"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/telemetry"
	"github.com/zhenhai-edu/zhenzhen-gateway/internal/upstream"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfg := loader.Config()
	logger = newLogger(cfg.Telemetry)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	// Connect to PostgreSQL only when the allow-list runs in database mode
	var dbPool *pgxpool.Pool
	if cfg.Access.Mode == "database" {
		var err error
		dbPool, err = pgxpool.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(context.Background()); err != nil {
			logger.Warn("database not reachable (allow-list lookups will fail)", "error", err)
		} else {
			logger.Info("database connected")
		}
	}

	// Connect to Redis
	var rdb *redis.Client
	if len(cfg.Redis.Addresses) > 0 && cfg.Redis.Addresses[0] != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (cache and rate limiting disabled)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	// Build model registry and gate, both swapped in place on reload
	registry := router.BuildFromConfig(loader.Models())
	g, err := gate.New(cfg.Gate, logger)
	if err != nil {
		logger.Error("failed to build access gate", "error", err)
		os.Exit(1)
	}
	loader.OnReload(func() {
		newRegistry := router.BuildFromConfig(loader.Models())
		*registry = *newRegistry
		if newGate, err := gate.New(loader.Config().Gate, logger); err != nil {
			logger.Error("gate config invalid after reload, keeping previous", "error", err)
		} else {
			*g = *newGate
		}
		logger.Info("model registry reloaded")
	})

	// Allow-list store
	var users auth.UserStore
	if cfg.Access.Mode == "database" {
		users = auth.NewCachedUserStore(dbPool, rdb)
	} else {
		users = auth.NewStaticUserStore(cfg.Access.AllowedUsers)
	}

	metrics := telemetry.NewMetrics()

	svc := chat.NewService(
		loader.Config,
		registry,
		func() *gate.Gate { return g },
		history.NewStore(),
		upstream.NewClient(cfg.Upstream),
		filter.NewChain(filter.NewIframeFilter()),
		render.NewMusicPlayer(),
		render.NewNewsReader(),
		metrics,
	)
	handler := gateway.NewHandler(svc, users, loader.Config)
	assets := gateway.NewAssets(cfg.Server.AssetsDir)

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(gateway.AndroidOnly(loader.Config))

	r.Get("/zhenzhen/v1/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/assets/logo-DCrHZW4w.png", assets.Logo)
	r.Get("/assets/mask-CxIUc4JG.png", assets.Mask)

	r.Route("/api/v1/pub/agent/users/{userID}", func(r chi.Router) {
		r.Get("/appId/{appID}/violation", handler.Violation)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAllowed(users))
			r.Use(ratelimit.Middleware(ratelimit.NewLimiter(rdb), loader.Config, metrics))
			r.Post("/chat/messages", handler.ChatMessages)
		})
	})

	// Everything else goes to the passthrough target
	if cfg.Server.ProxyTarget != "" {
		proxy, err := gateway.NewProxy(cfg.Server.ProxyTarget)
		if err != nil {
			logger.Error("invalid proxy target", "error", err)
			os.Exit(1)
		}
		r.NotFound(proxy.ServeHTTP)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func newLogger(cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

func generateRequestID() string {
	now := time.Now()
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}
