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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/stitts-dev/bestxi/internal/api"
	"github.com/stitts-dev/bestxi/internal/services"
	"github.com/stitts-dev/bestxi/internal/store"
	"github.com/stitts-dev/bestxi/pkg/config"
	"github.com/stitts-dev/bestxi/pkg/database"
	"github.com/stitts-dev/bestxi/pkg/logger"
)

const cacheOpenTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// The cache is optional; without Redis every request is solved.
	var cache *services.ResultCache
	if cfg.CacheEnabled {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opt)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis unavailable, result cache will recover when it comes back")
		}
		cancel()
		cache = services.NewResultCache(redisClient, cfg.CacheTTL, cfg.CircuitBreakerThreshold, cacheOpenTimeout, log)
	}

	pools := store.NewPoolStore(db)
	builder, err := services.NewTeamBuilder(cfg, pools, cache)
	if err != nil {
		log.Fatalf("Failed to configure team builder: %v", err)
	}

	router := api.NewRouter(api.Dependencies{
		Config:  cfg,
		Builder: builder,
		Pools:   pools,
		DB:      db,
		Cache:   cache,
	})

	for _, route := range router.Routes() {
		log.Debugf("%s %s", route.Method, route.Path)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SolveTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serviceLog := logger.WithService("bestxi")
	go func() {
		serviceLog.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		serviceLog.Errorf("Server forced to shutdown: %v", err)
	}
	serviceLog.Info("Server exited")
}
