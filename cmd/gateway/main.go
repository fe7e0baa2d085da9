package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/gateway"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/hub"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/repository"
	"github.com/shubham-shewale/livemarket/pkg/config"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	repo := repository.NewRedisStore(rdb)

	tickers := cfg.Gateway.ValidTickers
	if len(tickers) == 0 {
		tickers = models.Tickers(models.DefaultUniverse())
	}

	// Dependency Injection: Hub depends on the Repository Interface
	wsHub := hub.NewHub(ctx, repo, logger, tickers, cfg.Feed.Featured)

	var limiter repository.RateLimiter
	if cfg.Gateway.RateLimit > 0 {
		limiter = repository.NewIPRateLimiter(cfg.Gateway.RateLimit, cfg.Gateway.RateBurst)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway.NewHandler(wsHub, limiter, logger))

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port), zap.Int("tickers", len(tickers)))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", zap.Error(err))
	}
	if err := repo.Close(); err != nil {
		logger.Error("Closing Redis", zap.Error(err))
	}
	logger.Info("Shutdown Complete")
}
