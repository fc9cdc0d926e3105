// Command dash-mcp-http starts the weekend-dashboard backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dash-mcp/internal/agent"
	"dash-mcp/internal/cache"
	"dash-mcp/internal/database"
	"dash-mcp/internal/logger"
	"dash-mcp/internal/server"
)

func main() {
	log := logger.New(getEnv("GO_ENV", "development"))
	defer func() { _ = log.Sync() }()

	port := getEnv("PORT", "3002")
	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017/weekend-dashboard")
	ttl := time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second
	sweepInterval := time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute
	staleThreshold := time.Duration(getEnvInt("CACHE_STALE_THRESHOLD_SECONDS", 60)) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Connect(ctx, mongoURI, log)
	store := cache.NewMongoStore(db)
	if db.Connected() {
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Warn("failed to create cache indexes", zap.Error(err))
		}
	}

	cacheSvc := cache.NewService(store, ttl, log)
	cleanup := cache.NewCleanupService(cacheSvc, sweepInterval, log)
	cleanup.Start()

	agentURL := os.Getenv("AGENT_URL")
	if agentURL == "" {
		log.Info("AGENT_URL not set; agent routes will use mock data until configured")
	}
	runner := agent.New(agentURL, os.Getenv("AGENT_TOKEN"), 2*time.Minute)

	srv := server.New(server.Config{
		Port:           port,
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:5173"),
		StaleThreshold: staleThreshold,
	}, cacheSvc, cleanup, runner, log)

	httpSrv := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Router(),
	}

	go func() {
		log.Info("starting dashboard HTTP server", zap.String("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	cleanup.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		log.Warn("mongodb disconnect failed", zap.Error(err))
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
