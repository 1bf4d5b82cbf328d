package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"chatlog-archive/internal/adapters/httpapi"
	"chatlog-archive/internal/adapters/repo"
	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/cache"
	"chatlog-archive/internal/infra/config"
	"chatlog-archive/internal/infra/db"
	httpinfra "chatlog-archive/internal/infra/http"
	applog "chatlog-archive/internal/infra/log"
	"chatlog-archive/internal/infra/metrics"
	"chatlog-archive/internal/usecase/archive"
	"chatlog-archive/internal/usecase/timeline"
)

const cacheMaxAge = 300

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	repoAdapter := repo.NewPostgres(pool)
	permalinkCache := cache.NewRedis(redisClient)
	clock := domain.UTCClock{}

	archiveService := archive.NewService(
		repoAdapter, repoAdapter, permalinkCache, clock,
		cfg.Archive.PageSize, cfg.Archive.BigChannel,
		logger.With().Str("component", "archive").Logger(),
	)
	timelineService := timeline.NewService(repoAdapter, clock)

	handler := httpapi.NewHandler(archiveService, timelineService, repoAdapter, cacheMaxAge,
		logger.With().Str("component", "httpapi").Logger())

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	handler.Register(server.Router)

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
